// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package headless provides a CPU-only framegraph backend.
//
// Textures are backed by image.RGBA pixmaps and command recording is
// captured as an inspectable operation log, which makes the backend
// suitable for tests and for server-side graph validation where no GPU
// is present. Submissions still execute asynchronously: each one runs on
// its own goroutine gated by the wait semaphores, mirroring the queue
// semantics of hardware backends.
//
// The backend registers itself as "headless"; import for side effects:
//
//	import _ "github.com/gogpu/framegraph/backend/headless"
package headless

import (
	"fmt"
	"sync"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/backend"
	"github.com/gogpu/gputypes"
)

func init() {
	backend.Register(backend.BackendHeadless, func() framegraph.Backend {
		return New()
	})
}

// Backend is the CPU backend. Create with New, or through the registry.
type Backend struct {
	mu          sync.Mutex
	initialized bool
	clearColor  gputypes.Color
	rec         *recorder
	execs       map[*framegraph.Graph]*framegraph.Executor
	wg          sync.WaitGroup
}

// New creates an uninitialized headless backend.
func New() *Backend {
	return &Backend{
		rec:   newRecorder(),
		execs: make(map[*framegraph.Graph]*framegraph.Executor),
	}
}

var _ framegraph.Backend = (*Backend)(nil)

// Name returns "headless".
func (b *Backend) Name() string { return backend.BackendHeadless }

// Init prepares the backend. Always succeeds.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.initialized = true
	b.clearColor = gputypes.Color{R: 0, G: 0, B: 0, A: 0}
	return nil
}

// Close waits for in-flight submissions and releases all allocations.
func (b *Backend) Close() {
	b.wg.Wait()

	b.mu.Lock()
	execs := b.execs
	b.execs = make(map[*framegraph.Graph]*framegraph.Executor)
	b.initialized = false
	b.mu.Unlock()

	for _, e := range execs {
		e.Cleanup()
	}
}

// SetClearColor sets the color render targets are cleared to when a
// render pass begins. Defaults to transparent black.
func (b *Backend) SetClearColor(c gputypes.Color) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clearColor = c
	b.rec.setClearColor(c)
}

// CreateTexture allocates an RGBA pixmap texture.
func (b *Backend) CreateTexture(desc *framegraph.TextureDescriptor) (framegraph.Texture, error) {
	if desc == nil {
		return nil, framegraph.ErrNilDescriptor
	}
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("%w: %dx%d", framegraph.ErrInvalidTextureSize, desc.Width, desc.Height)
	}
	return newTexture(desc), nil
}

// CreateBuffer allocates a byte-slice buffer.
func (b *Backend) CreateBuffer(desc *framegraph.BufferDescriptor) (framegraph.Buffer, error) {
	if desc == nil {
		return nil, framegraph.ErrNilDescriptor
	}
	if desc.Size == 0 {
		return nil, framegraph.ErrInvalidBufferSize
	}
	return newBuffer(desc), nil
}

// NewSemaphore creates a CPU semaphore.
func (b *Backend) NewSemaphore(id uint64) framegraph.Semaphore {
	return framegraph.NewDummySemaphore(id)
}

// NewFence creates a CPU fence.
func (b *Backend) NewFence() framegraph.Fence {
	return framegraph.NewDummyFence()
}

// Recorder returns the shared op-logging recorder.
func (b *Backend) Recorder() framegraph.CommandRecorder { return b.rec }

// Executor returns the executor owning the physical resources of the
// given graph, creating it on first use. Bind external views through it:
//
//	b.Executor(g).SetExternalView(swapchain, view)
func (b *Backend) Executor(g *framegraph.Graph) *framegraph.Executor {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e, ok := b.execs[g]; ok {
		return e
	}
	e := framegraph.NewExecutor(b)
	b.execs[g] = e
	return e
}

// ExecuteGraph runs the compiled graph on its own goroutine. The
// goroutine blocks until every wait semaphore signals, replays the
// passes, then signals the submission semaphore and the fence. The call
// returns immediately after the handoff.
func (b *Backend) ExecuteGraph(g *framegraph.Graph, compiled *framegraph.CompiledGraph,
	waits []framegraph.Semaphore, signal framegraph.Semaphore, fence framegraph.Fence) error {

	b.mu.Lock()
	ready := b.initialized
	b.mu.Unlock()
	if !ready {
		return framegraph.ErrNotInitialized
	}

	exec := b.Executor(g)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		for _, w := range waits {
			if ds, ok := w.(*framegraph.DummySemaphore); ok {
				ds.Wait()
			}
		}

		if err := exec.Execute(g, compiled, b.rec); err != nil {
			framegraph.Logger().Warn("headless execution failed", "err", err)
		}

		if ds, ok := signal.(*framegraph.DummySemaphore); ok {
			ds.Signal()
		}
		if fence != nil {
			if df, ok := fence.(*framegraph.DummyFence); ok {
				df.Signal()
			}
		}
	}()
	return nil
}

// WaitIdle blocks until every in-flight submission has completed.
func (b *Backend) WaitIdle() {
	b.wg.Wait()
}

// Ops returns a copy of the recorded operation log, in execution order.
func (b *Backend) Ops() []string { return b.rec.opLog() }

// DrawCount returns the number of draws recorded so far.
func (b *Backend) DrawCount() int { return b.rec.drawCount() }

// DispatchCount returns the number of dispatches recorded so far.
func (b *Backend) DispatchCount() int { return b.rec.dispatchCount() }
