// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package framegraph provides a render-graph compiler and frame scheduler
// for GPU frame construction.
//
// A frame is described declaratively: passes register the virtual resources
// they create, read, and write, and the graph compiler infers execution
// order from the data flow. The compiled graph is replayed through a
// backend which allocates physical GPU resources on demand and records
// commands in dependency order.
//
// The typical flow per frame:
//
//	g := pool.Get(width, height)
//	g.AddPass(&ShadowPass{...})
//	g.AddPass(&MainPass{...})
//
//	sched := framegraph.NewFrameSchedule(backend, pool)
//	h, err := sched.Submit(g)
//	_, err = sched.Present(final, h)
//	fence := sched.TakeFence()
//	fence.Wait()
//	sched.ReleaseGraphs()
//
// Backends are registered through the backend subpackage. The headless
// backend (backend/headless) executes on the CPU and is suitable for tests
// and server-side use; the wgpu backend (backend/wgpu) drives real GPU
// hardware through github.com/gogpu/wgpu/hal.
//
// Pipeline, shader, and descriptor-set management are outside the scope of
// this package; passes receive a CommandRecorder and encode against
// resources resolved by the executor.
package framegraph
