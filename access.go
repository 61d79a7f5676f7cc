// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package framegraph

import "fmt"

// Usage describes how a pass accesses a resource. The read/write
// classification drives dependency inference in the compiler and, in
// hardware backends, memory barrier selection.
type Usage int

const (
	// UsageSampled reads a texture through a sampler.
	UsageSampled Usage = iota

	// UsageColorTarget writes a texture as a color attachment.
	UsageColorTarget

	// UsageDepthRead reads a depth texture (depth test without write).
	UsageDepthRead

	// UsageDepthWrite writes a depth texture as a depth attachment.
	UsageDepthWrite

	// UsageUniform reads a buffer as uniform data.
	UsageUniform

	// UsageStorageRead reads a storage buffer or texture.
	UsageStorageRead

	// UsageStorageWrite writes a storage buffer or texture.
	UsageStorageWrite

	// UsageTransferSrc reads a resource as a copy source.
	UsageTransferSrc

	// UsageTransferDst writes a resource as a copy destination.
	UsageTransferDst
)

// IsRead reports whether the usage reads the resource.
func (u Usage) IsRead() bool {
	switch u {
	case UsageSampled, UsageDepthRead, UsageUniform, UsageStorageRead, UsageTransferSrc:
		return true
	}
	return false
}

// IsWrite reports whether the usage writes the resource.
func (u Usage) IsWrite() bool {
	switch u {
	case UsageColorTarget, UsageDepthWrite, UsageStorageWrite, UsageTransferDst:
		return true
	}
	return false
}

// String returns the usage name.
func (u Usage) String() string {
	switch u {
	case UsageSampled:
		return "Sampled"
	case UsageColorTarget:
		return "ColorTarget"
	case UsageDepthRead:
		return "DepthRead"
	case UsageDepthWrite:
		return "DepthWrite"
	case UsageUniform:
		return "Uniform"
	case UsageStorageRead:
		return "StorageRead"
	case UsageStorageWrite:
		return "StorageWrite"
	case UsageTransferSrc:
		return "TransferSrc"
	case UsageTransferDst:
		return "TransferDst"
	default:
		return fmt.Sprintf("Unknown(%d)", int(u))
	}
}

// ResourceAccess pairs a resource with the usage a pass declared for it.
type ResourceAccess struct {
	Resource ResourceID
	Usage    Usage
}
