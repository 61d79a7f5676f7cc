// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package framegraph

import (
	"fmt"
	"sync"
)

// submission is one graph handed to the backend, with the semaphore
// later submissions wait on.
type submission struct {
	graph    *Graph
	compiled *CompiledGraph
	signal   Semaphore
}

// FrameSchedule sequences graph submissions within one frame. Each
// Submit compiles a graph and hands it to the backend chained behind the
// semaphores of the submissions it waits on; Present or Finish marks the
// terminal submission and attaches the frame's completion fence.
//
// Misusing the protocol is a programming error and panics: waiting on a
// handle that was never returned by Submit, submitting after the
// terminal submission, or taking the fence before a terminal submission
// exists.
//
// FrameSchedule is NOT safe for concurrent use. Drive one schedule per
// frame-building goroutine.
type FrameSchedule struct {
	backend Backend
	pool    *GraphPool

	submissions []*submission
	nextSemID   uint64
	terminal    bool
	presented   bool
	fence       Fence
	fenceTaken  bool
}

// GraphHandle identifies a submission within its FrameSchedule.
// Handles index submissions in the order they were made.
type GraphHandle int

// NewFrameSchedule creates a schedule submitting through the given
// backend. The pool is optional; when non-nil, ReleaseGraphs returns
// submitted graphs to it for reuse.
func NewFrameSchedule(b Backend, pool *GraphPool) *FrameSchedule {
	return &FrameSchedule{backend: b, pool: pool}
}

// AcquireGraph returns an empty graph sized for the given screen,
// recycled from the pool when one is available.
func (s *FrameSchedule) AcquireGraph(width, height int) *Graph {
	if s.pool != nil {
		return s.pool.Get(width, height)
	}
	return NewGraph(width, height)
}

// Submit compiles the graph and hands it to the backend, ordered after
// the submissions named by waits. Returns the handle later submissions
// use to wait on this one.
//
// A compile failure (cycle, dangling resource) is returned unchanged so
// callers can inspect it with errors.As; nothing is submitted in that
// case.
func (s *FrameSchedule) Submit(g *Graph, waits ...GraphHandle) (GraphHandle, error) {
	return s.submit(g, nil, waits)
}

// Present submits the terminal graph of the frame, typically the one
// writing the swapchain image, and attaches the frame fence. At most one
// terminal submission is allowed per frame; a second Present or Finish
// panics. Returns ErrFenceUnavailable when the backend cannot create the
// frame fence; the schedule stays open so the frame can be retried.
func (s *FrameSchedule) Present(g *Graph, waits ...GraphHandle) (GraphHandle, error) {
	h, err := s.terminate(g, waits)
	if err != nil {
		return h, err
	}
	s.presented = true
	return h, nil
}

// Finish submits the terminal graph of a frame that does not present,
// such as an offscreen or compute-only frame. Like Present it attaches
// the frame fence and seals the schedule.
func (s *FrameSchedule) Finish(g *Graph, waits ...GraphHandle) (GraphHandle, error) {
	return s.terminate(g, waits)
}

func (s *FrameSchedule) terminate(g *Graph, waits []GraphHandle) (GraphHandle, error) {
	if s.terminal {
		panic("framegraph: frame already has a terminal submission")
	}
	fence := s.backend.NewFence()
	if fence == nil {
		return -1, ErrFenceUnavailable
	}
	h, err := s.submit(g, fence, waits)
	if err != nil {
		// The failed submission will never signal the fence; release it
		// when the backend's fences support that.
		if d, ok := fence.(interface{ Destroy() }); ok {
			d.Destroy()
		}
		return h, err
	}
	s.terminal = true
	s.fence = fence
	return h, nil
}

func (s *FrameSchedule) submit(g *Graph, fence Fence, waits []GraphHandle) (GraphHandle, error) {
	if s.terminal {
		panic("framegraph: submission after terminal submission")
	}

	compiled, err := g.Compile()
	if err != nil {
		return -1, err
	}

	waitSems := make([]Semaphore, len(waits))
	for i, h := range waits {
		if h < 0 || int(h) >= len(s.submissions) {
			panic(fmt.Sprintf("framegraph: invalid graph handle %d", int(h)))
		}
		waitSems[i] = s.submissions[h].signal
	}

	signal := s.backend.NewSemaphore(s.nextSemID)
	s.nextSemID++

	if err := s.backend.ExecuteGraph(g, compiled, waitSems, signal, fence); err != nil {
		return -1, fmt.Errorf("framegraph: submit: %w", err)
	}

	s.submissions = append(s.submissions, &submission{
		graph:    g,
		compiled: compiled,
		signal:   signal,
	})
	return GraphHandle(len(s.submissions) - 1), nil
}

// TakeFence transfers ownership of the frame fence to the caller. The
// fence exists only after Present or Finish; taking it earlier, or
// twice, panics. After TakeFence the schedule no longer references the
// fence.
func (s *FrameSchedule) TakeFence() Fence {
	if !s.terminal {
		panic("framegraph: TakeFence before Present or Finish")
	}
	if s.fenceTaken {
		panic("framegraph: frame fence already taken")
	}
	s.fenceTaken = true
	f := s.fence
	s.fence = nil
	return f
}

// SubmittedCount returns the number of submissions this frame,
// including the terminal one.
func (s *FrameSchedule) SubmittedCount() int { return len(s.submissions) }

// IsPresented reports whether Present was called this frame.
func (s *FrameSchedule) IsPresented() bool { return s.presented }

// ReleaseGraphs returns all submitted graphs to the pool and resets the
// schedule for the next frame. Call only after the frame fence has
// signaled; graphs still executing must not be reset.
func (s *FrameSchedule) ReleaseGraphs() {
	for _, sub := range s.submissions {
		if s.pool != nil {
			s.pool.Put(sub.graph)
		}
	}
	s.submissions = s.submissions[:0]
	s.terminal = false
	s.presented = false
	s.fence = nil
	s.fenceTaken = false
}

// GraphPool recycles Graph allocations across frames. Graphs returned
// by Put are reset; Get hands them back resized for the new frame.
//
// GraphPool is safe for concurrent use.
type GraphPool struct {
	mu   sync.Mutex
	free []*Graph
}

// NewGraphPool creates an empty pool.
func NewGraphPool() *GraphPool {
	return &GraphPool{}
}

// Get returns a reset graph sized for the given screen, reusing a
// pooled one when available.
func (p *GraphPool) Get(width, height int) *Graph {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n := len(p.free); n > 0 {
		g := p.free[n-1]
		p.free = p.free[:n-1]
		g.Resize(width, height)
		return g
	}
	return NewGraph(width, height)
}

// Put resets the graph and returns it to the pool. Nil graphs are
// ignored.
func (p *GraphPool) Put(g *Graph) {
	if g == nil {
		return
	}
	g.Reset()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.free = append(p.free, g)
}
