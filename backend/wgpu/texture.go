// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framegraph"
)

// texture wraps a hal texture together with the device that created it.
type texture struct {
	device hal.Device
	tex    hal.Texture
	desc   framegraph.TextureDescriptor
}

func (t *texture) Width() uint32                  { return t.desc.Width }
func (t *texture) Height() uint32                 { return t.desc.Height }
func (t *texture) Format() gputypes.TextureFormat { return t.desc.Format }

// CreateView creates a view covering the whole texture.
func (t *texture) CreateView() (framegraph.TextureView, error) {
	halView, err := t.device.CreateTextureView(t.tex, &hal.TextureViewDescriptor{
		Label: t.desc.Label + "_view",
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create texture view: %w", err)
	}
	return &textureView{device: t.device, view: halView}, nil
}

// Destroy releases the hal texture.
func (t *texture) Destroy() {
	if t.tex != nil {
		t.device.DestroyTexture(t.tex)
		t.tex = nil
	}
}

var _ framegraph.Texture = (*texture)(nil)

// textureView wraps a hal texture view.
type textureView struct {
	device hal.Device
	view   hal.TextureView

	// external views are owned by the host; Destroy leaves them alone.
	external bool
}

// WrapView adapts a host-owned hal.TextureView (such as the acquired
// swapchain view) for binding to an external graph resource. The wrapper
// never destroys the underlying view.
func WrapView(v hal.TextureView) framegraph.TextureView {
	return &textureView{view: v, external: true}
}

// Destroy releases the hal view unless it is host-owned.
func (v *textureView) Destroy() {
	if v.view != nil && !v.external {
		v.device.DestroyTextureView(v.view)
	}
	v.view = nil
}

var _ framegraph.TextureView = (*textureView)(nil)

// gpuBuffer wraps a hal buffer together with the device that created it.
type gpuBuffer struct {
	device hal.Device
	buf    hal.Buffer
	desc   framegraph.BufferDescriptor
}

func (b *gpuBuffer) Size() uint64                { return b.desc.Size }
func (b *gpuBuffer) Usage() gputypes.BufferUsage { return b.desc.Usage }

// Destroy releases the hal buffer.
func (b *gpuBuffer) Destroy() {
	if b.buf != nil {
		b.device.DestroyBuffer(b.buf)
		b.buf = nil
	}
}

var _ framegraph.Buffer = (*gpuBuffer)(nil)
