// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wgpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framegraph"
)

// Recorder errors.
var (
	// ErrNoEncoder is returned when recording outside a submission.
	ErrNoEncoder = errors.New("wgpu: recording outside an active submission")

	// ErrPassActive is returned when a pass is begun while another is open.
	ErrPassActive = errors.New("wgpu: another pass is still active")
)

// recorder encodes pass boundaries and copies into the submission's hal
// command encoder. Draws and dispatches are counted but not encoded:
// they require pipelines and bind groups, which the caller's own
// encoding layers own and record.
type recorder struct {
	mu         sync.Mutex
	encoder    hal.CommandEncoder
	renderPass hal.RenderPassEncoder
	compute    hal.ComputePassEncoder
	clearColor gputypes.Color
	draws      int
	dispatches int
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

// begin attaches the recorder to a submission's encoder.
func (r *recorder) begin(enc hal.CommandEncoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.encoder = enc
}

// end detaches the recorder. Unclosed passes are ended.
func (r *recorder) end() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.renderPass != nil {
		r.renderPass.End()
		r.renderPass = nil
	}
	if r.compute != nil {
		r.compute.End()
		r.compute = nil
	}
	r.encoder = nil
}

// BeginRenderPass opens a hal render pass clearing every color target.
// Color views must be wgpu-backed (graph allocations or WrapView).
func (r *recorder) BeginRenderPass(label string, colors []framegraph.TextureView, depth framegraph.TextureView) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.encoder == nil {
		return ErrNoEncoder
	}
	if r.renderPass != nil || r.compute != nil {
		return ErrPassActive
	}

	attachments := make([]hal.RenderPassColorAttachment, 0, len(colors))
	for _, v := range colors {
		tv, ok := v.(*textureView)
		if !ok || tv.view == nil {
			return fmt.Errorf("wgpu: render pass %q: color target is not a live wgpu view", label)
		}
		attachments = append(attachments, hal.RenderPassColorAttachment{
			View:       tv.view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: r.clearColor,
		})
	}

	rpDesc := &hal.RenderPassDescriptor{
		Label:            label,
		ColorAttachments: attachments,
	}
	if depth != nil {
		dv, ok := depth.(*textureView)
		if !ok || dv.view == nil {
			return fmt.Errorf("wgpu: render pass %q: depth target is not a live wgpu view", label)
		}
		rpDesc.DepthStencilAttachment = &hal.RenderPassDepthStencilAttachment{
			View:            dv.view,
			DepthLoadOp:     gputypes.LoadOpClear,
			DepthStoreOp:    gputypes.StoreOpStore,
			DepthClearValue: 1.0,
		}
	}

	r.renderPass = r.encoder.BeginRenderPass(rpDesc)
	return nil
}

// EndRenderPass closes the current render pass.
func (r *recorder) EndRenderPass() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.renderPass != nil {
		r.renderPass.End()
		r.renderPass = nil
	}
}

// BeginComputePass opens a hal compute pass.
func (r *recorder) BeginComputePass(label string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.encoder == nil {
		return ErrNoEncoder
	}
	if r.renderPass != nil || r.compute != nil {
		return ErrPassActive
	}
	r.compute = r.encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: label})
	return nil
}

// EndComputePass closes the current compute pass.
func (r *recorder) EndComputePass() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.compute != nil {
		r.compute.End()
		r.compute = nil
	}
}

// Draw counts a draw. Encoding the draw itself is up to the caller's
// pipeline layer, which records into the same pass through its own
// references.
func (r *recorder) Draw(vertexCount, instanceCount uint32) {
	r.mu.Lock()
	r.draws++
	r.mu.Unlock()
	framegraph.Logger().Debug("draw recorded", "vertices", vertexCount, "instances", instanceCount)
}

// Dispatch counts a dispatch, like Draw.
func (r *recorder) Dispatch(x, y, z uint32) {
	r.mu.Lock()
	r.dispatches++
	r.mu.Unlock()
	framegraph.Logger().Debug("dispatch recorded", "x", x, "y", y, "z", z)
}

// CopyTexture validates both views for transfer.
// TODO: encode the blit itself once hal exposes CopyTextureToTexture.
func (r *recorder) CopyTexture(src, dst framegraph.TextureView) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.encoder == nil {
		return ErrNoEncoder
	}
	sv, ok := src.(*textureView)
	if !ok || sv.view == nil {
		return fmt.Errorf("wgpu: copy source is not a live wgpu view")
	}
	dv, ok := dst.(*textureView)
	if !ok || dv.view == nil {
		return fmt.Errorf("wgpu: copy destination is not a live wgpu view")
	}
	return nil
}

// CopyBuffer encodes a buffer-to-buffer copy of size bytes.
func (r *recorder) CopyBuffer(src, dst framegraph.Buffer, size uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.encoder == nil {
		return ErrNoEncoder
	}
	sb, ok := src.(*gpuBuffer)
	if !ok || sb.buf == nil {
		return fmt.Errorf("wgpu: copy source is not a live wgpu buffer")
	}
	db, ok := dst.(*gpuBuffer)
	if !ok || db.buf == nil {
		return fmt.Errorf("wgpu: copy destination is not a live wgpu buffer")
	}
	if size > sb.desc.Size || size > db.desc.Size {
		return fmt.Errorf("wgpu: copy size %d exceeds buffer bounds (src=%d dst=%d)",
			size, sb.desc.Size, db.desc.Size)
	}

	r.encoder.CopyBufferToBuffer(sb.buf, db.buf, []hal.BufferCopy{{
		SrcOffset: 0,
		DstOffset: 0,
		Size:      size,
	}})
	return nil
}
