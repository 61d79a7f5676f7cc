// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package backend provides the registry through which framegraph
// execution backends are discovered and selected.
//
// Backend implementations register themselves from init() functions;
// importing an implementation package for side effects makes it
// available:
//
//	import _ "github.com/gogpu/framegraph/backend/headless"
package backend

import (
	"errors"

	"github.com/gogpu/framegraph"
)

// Well-known backend names.
const (
	// BackendWgpu is the hardware backend over github.com/gogpu/wgpu/hal.
	BackendWgpu = "wgpu"

	// BackendHeadless is the CPU backend for tests and servers.
	BackendHeadless = "headless"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")
)

// Factory creates a new backend instance.
type Factory func() framegraph.Backend
