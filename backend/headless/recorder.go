// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package headless

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/draw"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/gputypes"
)

// recorder captures commands as an operation log. Render targets are
// cleared on pass begin; texture copies are real pixmap blits so tests
// can assert on pixel output.
//
// The log is guarded by a mutex because submissions execute on their own
// goroutines; within one submission recording is sequential.
type recorder struct {
	mu         sync.Mutex
	ops        []string
	draws      int
	dispatches int
	clearColor gputypes.Color
}

func newRecorder() *recorder {
	return &recorder{}
}

var _ framegraph.CommandRecorder = (*recorder)(nil)

func (r *recorder) setClearColor(c gputypes.Color) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearColor = c
}

func (r *recorder) record(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, fmt.Sprintf(format, args...))
}

// BeginRenderPass clears every color attachment to the configured clear
// color. The depth attachment is accepted but has no pixmap effect.
func (r *recorder) BeginRenderPass(label string, colors []framegraph.TextureView, depth framegraph.TextureView) error {
	r.mu.Lock()
	cc := r.clearColor
	r.mu.Unlock()

	fill := color.RGBA{
		R: uint8(cc.R * 255),
		G: uint8(cc.G * 255),
		B: uint8(cc.B * 255),
		A: uint8(cc.A * 255),
	}
	for _, v := range colors {
		hv, ok := v.(*TextureView)
		if !ok || hv.Pixmap() == nil {
			return fmt.Errorf("headless: render pass %q: color target is not a live headless view", label)
		}
		draw.Draw(hv.Pixmap(), hv.Pixmap().Bounds(), image.NewUniform(fill), image.Point{}, draw.Src)
	}

	r.record("begin_render_pass %s colors=%d depth=%v", label, len(colors), depth != nil)
	return nil
}

func (r *recorder) EndRenderPass() {
	r.record("end_render_pass")
}

func (r *recorder) BeginComputePass(label string) error {
	r.record("begin_compute_pass %s", label)
	return nil
}

func (r *recorder) EndComputePass() {
	r.record("end_compute_pass")
}

func (r *recorder) Draw(vertexCount, instanceCount uint32) {
	r.mu.Lock()
	r.draws++
	r.ops = append(r.ops, fmt.Sprintf("draw %dx%d", vertexCount, instanceCount))
	r.mu.Unlock()
}

func (r *recorder) Dispatch(x, y, z uint32) {
	r.mu.Lock()
	r.dispatches++
	r.ops = append(r.ops, fmt.Sprintf("dispatch %dx%dx%d", x, y, z))
	r.mu.Unlock()
}

// CopyTexture blits src into dst. Matching sizes copy directly; mismatched
// sizes scale with bilinear filtering.
func (r *recorder) CopyTexture(src, dst framegraph.TextureView) error {
	sv, ok := src.(*TextureView)
	if !ok || sv.Pixmap() == nil {
		return fmt.Errorf("headless: copy source is not a live headless view")
	}
	dv, ok := dst.(*TextureView)
	if !ok || dv.Pixmap() == nil {
		return fmt.Errorf("headless: copy destination is not a live headless view")
	}

	sb := sv.Pixmap().Bounds()
	db := dv.Pixmap().Bounds()
	if sb.Dx() == db.Dx() && sb.Dy() == db.Dy() {
		draw.Draw(dv.Pixmap(), db, sv.Pixmap(), sb.Min, draw.Src)
	} else {
		draw.BiLinear.Scale(dv.Pixmap(), db, sv.Pixmap(), sb, draw.Src, nil)
	}

	r.record("copy_texture %dx%d->%dx%d", sb.Dx(), sb.Dy(), db.Dx(), db.Dy())
	return nil
}

// CopyBuffer copies size bytes between buffers.
func (r *recorder) CopyBuffer(src, dst framegraph.Buffer, size uint64) error {
	sb, ok := src.(*buffer)
	if !ok || sb.data == nil {
		return fmt.Errorf("headless: copy source is not a live headless buffer")
	}
	db, ok := dst.(*buffer)
	if !ok || db.data == nil {
		return fmt.Errorf("headless: copy destination is not a live headless buffer")
	}
	if size > uint64(len(sb.data)) || size > uint64(len(db.data)) {
		return fmt.Errorf("headless: copy size %d exceeds buffer bounds (src=%d dst=%d)",
			size, len(sb.data), len(db.data))
	}
	copy(db.data[:size], sb.data[:size])

	r.record("copy_buffer %dB", size)
	return nil
}

func (r *recorder) opLog() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.ops))
	copy(out, r.ops)
	return out
}

func (r *recorder) drawCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.draws
}

func (r *recorder) dispatchCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dispatches
}
