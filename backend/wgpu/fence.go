// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wgpu

import (
	"sync"
	"time"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framegraph"
)

// signalValue is the fence value submissions signal. Fences here are
// binary: one submission, one signal, Reset to reuse.
const signalValue = 1

// gpuFence adapts a hal fence to the framegraph Fence interface.
// The GPU signals it through queue.Submit; the CPU observes it through
// device.Wait.
type gpuFence struct {
	device hal.Device

	mu       sync.Mutex
	fence    hal.Fence
	observed bool
	onDone   []func()
}

var _ framegraph.Fence = (*gpuFence)(nil)

// onSignal registers a cleanup run once, the first time the fence is
// observed signaled.
func (f *gpuFence) onSignal(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.observed {
		fn()
		return
	}
	f.onDone = append(f.onDone, fn)
}

func (f *gpuFence) markObserved() {
	f.mu.Lock()
	done := f.onDone
	f.onDone = nil
	f.observed = true
	f.mu.Unlock()
	for _, fn := range done {
		fn()
	}
}

// IsSignaled polls the fence without blocking.
func (f *gpuFence) IsSignaled() bool {
	f.mu.Lock()
	if f.observed {
		f.mu.Unlock()
		return true
	}
	fence := f.fence
	f.mu.Unlock()
	if fence == nil {
		return false
	}

	ok, err := f.device.Wait(fence, signalValue, 0)
	if err != nil {
		framegraph.Logger().Warn("fence poll failed", "err", err)
		return false
	}
	if ok {
		f.markObserved()
	}
	return ok
}

// Wait blocks until the GPU signals the fence. A fence whose hal handle
// was lost to a failed Reset can never signal and returns immediately.
func (f *gpuFence) Wait() {
	for {
		f.mu.Lock()
		observed := f.observed
		fence := f.fence
		f.mu.Unlock()
		if observed || fence == nil {
			return
		}
		f.WaitTimeout(5 * time.Second)
	}
}

// WaitTimeout blocks until the fence signals or the timeout elapses.
// An unsignaled fence with no hal handle reports false immediately.
func (f *gpuFence) WaitTimeout(d time.Duration) bool {
	f.mu.Lock()
	if f.observed {
		f.mu.Unlock()
		return true
	}
	fence := f.fence
	f.mu.Unlock()
	if fence == nil {
		return false
	}

	ok, err := f.device.Wait(fence, signalValue, d)
	if err != nil {
		framegraph.Logger().Warn("fence wait failed", "err", err)
		return false
	}
	if ok {
		f.markObserved()
	}
	return ok
}

// Reset recreates the hal fence so it can track a new submission.
// Pending cleanups from the previous submission run first.
func (f *gpuFence) Reset() {
	f.markObserved()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fence != nil {
		f.device.DestroyFence(f.fence)
	}
	halFence, err := f.device.CreateFence()
	if err != nil {
		framegraph.Logger().Warn("fence reset failed", "err", err)
		f.fence = nil
		return
	}
	f.fence = halFence
	f.observed = false
}

// Destroy releases the hal fence. Call only when no submission
// references it, such as when a terminal submission is abandoned before
// reaching the queue. Pending cleanups run first.
func (f *gpuFence) Destroy() {
	f.markObserved()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fence != nil {
		f.device.DestroyFence(f.fence)
		f.fence = nil
	}
}
