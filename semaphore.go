// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package framegraph

import "sync"

// Semaphore orders submissions against each other on the GPU timeline.
// The scheduler creates one per submission through Backend.NewSemaphore
// and threads it into dependent submissions' wait lists; CPU code never
// waits on one directly (that is what fences are for).
type Semaphore interface {
	// ID returns the scheduler-assigned identity of the semaphore.
	ID() uint64
}

// DummySemaphore is a CPU-side semaphore used by the headless backend
// and by tests. Signal is idempotent and Done exposes a channel that is
// closed on signal, so goroutine-based executors can select on it.
type DummySemaphore struct {
	id   uint64
	once sync.Once
	done chan struct{}
}

// NewDummySemaphore creates an unsignaled dummy semaphore.
func NewDummySemaphore(id uint64) *DummySemaphore {
	return &DummySemaphore{id: id, done: make(chan struct{})}
}

// ID returns the semaphore identity.
func (s *DummySemaphore) ID() uint64 { return s.id }

// Signal marks the semaphore signaled. Safe to call more than once.
func (s *DummySemaphore) Signal() {
	s.once.Do(func() { close(s.done) })
}

// Done returns a channel closed when the semaphore signals.
func (s *DummySemaphore) Done() <-chan struct{} { return s.done }

// Wait blocks until the semaphore signals.
func (s *DummySemaphore) Wait() { <-s.done }

var _ Semaphore = (*DummySemaphore)(nil)
