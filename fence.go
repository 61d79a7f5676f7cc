// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package framegraph

import (
	"sync"
	"time"
)

// Fence is the CPU-visible completion signal for a submitted frame.
// Fences are single-owner values: ownership moves from the schedule to
// the caller through FrameSchedule.TakeFence and is never duplicated.
type Fence interface {
	// IsSignaled reports whether the fence has signaled, without blocking.
	IsSignaled() bool

	// Wait blocks until the fence signals.
	Wait()

	// WaitTimeout blocks until the fence signals or the timeout elapses,
	// and reports whether the fence signaled.
	WaitTimeout(d time.Duration) bool

	// Reset returns the fence to the unsignaled state for reuse.
	Reset()
}

// DummyFence is a CPU-side fence used by the headless backend and by
// tests. The zero value is not usable; create with NewDummyFence.
type DummyFence struct {
	mu       sync.Mutex
	done     chan struct{}
	signaled bool
}

// NewDummyFence creates an unsignaled fence.
func NewDummyFence() *DummyFence {
	return &DummyFence{done: make(chan struct{})}
}

// Signal marks the fence signaled, waking all waiters.
// Signaling an already-signaled fence is a no-op.
func (f *DummyFence) Signal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signaled {
		return
	}
	f.signaled = true
	close(f.done)
}

// IsSignaled reports whether Signal has been called since the last Reset.
func (f *DummyFence) IsSignaled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signaled
}

// Wait blocks until the fence signals.
func (f *DummyFence) Wait() {
	f.mu.Lock()
	ch := f.done
	f.mu.Unlock()
	<-ch
}

// WaitTimeout blocks until the fence signals or the timeout elapses.
func (f *DummyFence) WaitTimeout(d time.Duration) bool {
	f.mu.Lock()
	ch := f.done
	f.mu.Unlock()
	select {
	case <-ch:
		return true
	case <-time.After(d):
		return false
	}
}

// Reset returns the fence to the unsignaled state.
// Waiters from before the Reset still observe the old signal.
func (f *DummyFence) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signaled {
		f.done = make(chan struct{})
		f.signaled = false
	}
}

var _ Fence = (*DummyFence)(nil)
