// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package headless

import (
	"image"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/gputypes"
)

// texture is an RGBA pixmap standing in for a GPU texture. All formats
// are stored as 8-bit RGBA; the declared format is kept for reporting
// only.
type texture struct {
	label  string
	width  uint32
	height uint32
	format gputypes.TextureFormat
	pix    *image.RGBA
}

func newTexture(desc *framegraph.TextureDescriptor) *texture {
	return &texture{
		label:  desc.Label,
		width:  desc.Width,
		height: desc.Height,
		format: desc.Format,
		pix:    image.NewRGBA(image.Rect(0, 0, int(desc.Width), int(desc.Height))),
	}
}

func (t *texture) Width() uint32                  { return t.width }
func (t *texture) Height() uint32                 { return t.height }
func (t *texture) Format() gputypes.TextureFormat { return t.format }

func (t *texture) CreateView() (framegraph.TextureView, error) {
	return &TextureView{tex: t}, nil
}

// Destroy drops the pixmap reference.
func (t *texture) Destroy() { t.pix = nil }

var _ framegraph.Texture = (*texture)(nil)

// TextureView is a view over a headless texture. Exported so tests and
// host code can read pixels back and bind external targets.
type TextureView struct {
	tex *texture
}

// NewTargetView creates a free-standing view backed by a fresh RGBA
// pixmap, for binding external resources such as a simulated swapchain
// image.
func NewTargetView(width, height int) *TextureView {
	return &TextureView{tex: &texture{
		label:  "external",
		width:  uint32(width),
		height: uint32(height),
		format: gputypes.TextureFormatRGBA8Unorm,
		pix:    image.NewRGBA(image.Rect(0, 0, width, height)),
	}}
}

// Pixmap returns the backing pixmap. Nil after the texture is destroyed.
func (v *TextureView) Pixmap() *image.RGBA {
	if v.tex == nil {
		return nil
	}
	return v.tex.pix
}

// Destroy detaches the view from its texture.
func (v *TextureView) Destroy() { v.tex = nil }

var _ framegraph.TextureView = (*TextureView)(nil)

// buffer is a byte slice standing in for a GPU buffer.
type buffer struct {
	label string
	usage gputypes.BufferUsage
	data  []byte
}

func newBuffer(desc *framegraph.BufferDescriptor) *buffer {
	return &buffer{
		label: desc.Label,
		usage: desc.Usage,
		data:  make([]byte, desc.Size),
	}
}

func (b *buffer) Size() uint64                { return uint64(len(b.data)) }
func (b *buffer) Usage() gputypes.BufferUsage { return b.usage }
func (b *buffer) Destroy()                    { b.data = nil }

var _ framegraph.Buffer = (*buffer)(nil)
