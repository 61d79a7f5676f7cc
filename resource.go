// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package framegraph

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
)

// Resource registration errors.
var (
	// ErrInvalidTextureSize is returned when texture dimensions are zero.
	ErrInvalidTextureSize = errors.New("framegraph: invalid texture size")

	// ErrInvalidBufferSize is returned when a buffer size is zero.
	ErrInvalidBufferSize = errors.New("framegraph: invalid buffer size")

	// ErrNilDescriptor is returned when a nil descriptor is passed.
	ErrNilDescriptor = errors.New("framegraph: nil descriptor")
)

// ResourceID identifies a virtual resource within a single Graph.
// IDs are assigned monotonically at registration and never reused,
// so a stale ID can never silently alias a newer resource.
type ResourceID uint32

// ResourceKind discriminates the virtual resource variants.
type ResourceKind int

const (
	// ResourceTexture is a transient texture owned by the graph.
	ResourceTexture ResourceKind = iota

	// ResourceBuffer is a transient buffer owned by the graph.
	ResourceBuffer

	// ResourceExternal is a resource whose physical view is provided by
	// the caller (e.g. the swapchain image), never allocated by the graph.
	ResourceExternal
)

// String returns the resource kind name.
func (k ResourceKind) String() string {
	switch k {
	case ResourceTexture:
		return "Texture"
	case ResourceBuffer:
		return "Buffer"
	case ResourceExternal:
		return "External"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// TextureDescriptor describes a transient texture to create.
type TextureDescriptor struct {
	// Label is an optional debug label for the texture.
	Label string

	// Width is the texture width in pixels.
	// Ignored when ScreenScale is set.
	Width uint32

	// Height is the texture height in pixels.
	// Ignored when ScreenScale is set.
	Height uint32

	// Format is the texture pixel format.
	Format gputypes.TextureFormat

	// Usage specifies how the texture will be used.
	Usage gputypes.TextureUsage

	// SampleCount is the number of samples for multisampling.
	// Zero is treated as 1.
	SampleCount uint32

	// ScreenScale, when greater than zero, sizes the texture relative to
	// the graph's screen dimensions (1.0 = full resolution, 0.5 = half).
	// Resolution happens at registration time against the owning graph.
	ScreenScale float32
}

// BufferDescriptor describes a transient buffer to create.
type BufferDescriptor struct {
	// Label is an optional debug label for the buffer.
	Label string

	// Size is the buffer size in bytes.
	Size uint64

	// Usage specifies how the buffer will be used.
	Usage gputypes.BufferUsage
}

// VirtualResource is a graph-owned handle to a not-yet-allocated resource.
// Exactly one of the descriptor fields is set, matching Kind; External
// resources carry neither and are bound to a physical view at execute time.
type VirtualResource struct {
	// ID is the registration handle.
	ID ResourceID

	// Kind discriminates which descriptor field is valid.
	Kind ResourceKind

	// Texture holds the creation parameters for ResourceTexture.
	Texture *TextureDescriptor

	// Buffer holds the creation parameters for ResourceBuffer.
	Buffer *BufferDescriptor

	// Label is the debug name (descriptor label, or the import label for
	// external resources).
	Label string
}

// Name returns a human-readable identifier for logs and errors.
func (r *VirtualResource) Name() string {
	if r.Label != "" {
		return r.Label
	}
	return fmt.Sprintf("%s#%d", r.Kind, r.ID)
}
