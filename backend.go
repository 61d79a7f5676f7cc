// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package framegraph

import (
	"errors"

	"github.com/gogpu/gputypes"
)

// Common backend errors.
var (
	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("framegraph: backend not initialized")

	// ErrTextureCreationFailed is returned when texture creation fails.
	ErrTextureCreationFailed = errors.New("framegraph: texture creation failed")

	// ErrBufferCreationFailed is returned when buffer creation fails.
	ErrBufferCreationFailed = errors.New("framegraph: buffer creation failed")

	// ErrFenceUnavailable is returned when a backend cannot create the
	// fence a terminal submission needs.
	ErrFenceUnavailable = errors.New("framegraph: fence unavailable")
)

// Backend is the interface for graph execution backends. It abstracts
// physical resource allocation, command recording, and queue submission,
// allowing the same graph to run on hardware (backend/wgpu) or entirely
// on the CPU (backend/headless).
//
// Backends are registered via the backend subpackage and selected via
// backend.Get() or backend.Default().
type Backend interface {
	// Name returns the backend identifier (e.g. "headless", "wgpu").
	Name() string

	// Init initializes the backend.
	// This should be called before any graph execution.
	Init() error

	// Close releases all backend resources.
	// The backend should not be used after Close is called.
	Close()

	// CreateTexture allocates a physical texture.
	CreateTexture(desc *TextureDescriptor) (Texture, error)

	// CreateBuffer allocates a physical buffer.
	CreateBuffer(desc *BufferDescriptor) (Buffer, error)

	// NewSemaphore creates a semaphore used to chain submissions.
	NewSemaphore(id uint64) Semaphore

	// NewFence creates an unsignaled fence for CPU-GPU synchronization.
	NewFence() Fence

	// Recorder returns the command recorder passes encode against.
	Recorder() CommandRecorder

	// ExecuteGraph runs a compiled graph. Execution begins after every
	// semaphore in waits has signaled, signals signal when all passes
	// have run, and signals fence (if non-nil) when the submission is
	// fully complete. The call itself returns as soon as the submission
	// is handed off; completion is observed through the fence.
	ExecuteGraph(g *Graph, compiled *CompiledGraph, waits []Semaphore, signal Semaphore, fence Fence) error
}

// Texture represents a physical GPU texture allocated by a backend.
type Texture interface {
	// Width returns the texture width in pixels.
	Width() uint32

	// Height returns the texture height in pixels.
	Height() uint32

	// Format returns the texture pixel format.
	Format() gputypes.TextureFormat

	// CreateView creates a view covering the whole texture.
	CreateView() (TextureView, error)

	// Destroy releases GPU resources associated with this texture.
	Destroy()
}

// TextureView represents a view into a texture, the unit passes bind.
type TextureView interface {
	// Destroy releases resources associated with this view.
	Destroy()
}

// Buffer represents a physical GPU buffer allocated by a backend.
type Buffer interface {
	// Size returns the buffer size in bytes.
	Size() uint64

	// Usage returns the declared buffer usage.
	Usage() gputypes.BufferUsage

	// Destroy releases GPU resources associated with this buffer.
	Destroy()
}

// CommandRecorder is the narrow recording surface handed to passes. It
// deliberately exposes only operations the graph can order correctly;
// pipeline and bind-group state is owned by the caller's own encoding
// layers.
type CommandRecorder interface {
	// BeginRenderPass opens a render pass targeting the given color
	// attachments and optional depth attachment (nil for none).
	BeginRenderPass(label string, colors []TextureView, depth TextureView) error

	// EndRenderPass closes the current render pass.
	EndRenderPass()

	// BeginComputePass opens a compute pass.
	BeginComputePass(label string) error

	// EndComputePass closes the current compute pass.
	EndComputePass()

	// Draw records a non-indexed draw.
	Draw(vertexCount, instanceCount uint32)

	// Dispatch records a compute dispatch.
	Dispatch(x, y, z uint32)

	// CopyTexture copies the full extent of src into dst.
	CopyTexture(src, dst TextureView) error

	// CopyBuffer copies size bytes from the start of src to the start
	// of dst.
	CopyBuffer(src, dst Buffer, size uint64) error
}
