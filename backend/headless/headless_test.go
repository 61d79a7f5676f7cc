// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package headless

import (
	"strings"
	"testing"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/backend"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b := New()
	if err := b.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(b.Close)
	return b
}

func TestRegistryRegistration(t *testing.T) {
	if !backend.IsRegistered(backend.BackendHeadless) {
		t.Fatal("headless backend not registered")
	}
	b := backend.Get(backend.BackendHeadless)
	if b == nil {
		t.Fatal("Get returned nil")
	}
	if b.Name() != "headless" {
		t.Errorf("Name = %q, want %q", b.Name(), "headless")
	}
}

func TestCreateTexture(t *testing.T) {
	b := newTestBackend(t)

	tex, err := b.CreateTexture(&framegraph.TextureDescriptor{
		Label:  "color",
		Width:  64,
		Height: 32,
		Format: gputypes.TextureFormatRGBA8Unorm,
	})
	if err != nil {
		t.Fatalf("CreateTexture failed: %v", err)
	}
	if tex.Width() != 64 || tex.Height() != 32 {
		t.Errorf("size = %dx%d, want 64x32", tex.Width(), tex.Height())
	}

	view, err := tex.CreateView()
	if err != nil {
		t.Fatalf("CreateView failed: %v", err)
	}
	hv := view.(*TextureView)
	if hv.Pixmap() == nil {
		t.Error("view has no pixmap")
	}

	if _, err := b.CreateTexture(&framegraph.TextureDescriptor{Width: 0, Height: 32}); err == nil {
		t.Error("zero-width texture creation succeeded")
	}
	if _, err := b.CreateTexture(nil); err == nil {
		t.Error("nil descriptor accepted")
	}
}

func TestCreateBuffer(t *testing.T) {
	b := newTestBackend(t)

	buf, err := b.CreateBuffer(&framegraph.BufferDescriptor{
		Label: "uniforms",
		Size:  256,
		Usage: gputypes.BufferUsageUniform,
	})
	if err != nil {
		t.Fatalf("CreateBuffer failed: %v", err)
	}
	if buf.Size() != 256 {
		t.Errorf("Size = %d, want 256", buf.Size())
	}

	if _, err := b.CreateBuffer(&framegraph.BufferDescriptor{Size: 0}); err == nil {
		t.Error("zero-size buffer creation succeeded")
	}
}

func TestExecuteGraphRendersAndSignals(t *testing.T) {
	b := newTestBackend(t)

	g := framegraph.NewGraph(64, 64)
	var target framegraph.ResourceID
	g.AddPass(&framegraph.PassFunc{
		PassName: "draw",
		SetupFunc: func(s *framegraph.SetupContext) {
			target = s.CreateTexture(&framegraph.TextureDescriptor{
				Label:  "target",
				Width:  64,
				Height: 64,
				Format: gputypes.TextureFormatRGBA8Unorm,
				Usage:  gputypes.TextureUsageRenderAttachment,
			})
			s.Write(target, framegraph.UsageColorTarget)
		},
		ExecuteFunc: func(e *framegraph.ExecuteContext) error {
			view, _ := e.Texture(target)
			rec := e.Recorder()
			if err := rec.BeginRenderPass("draw", []framegraph.TextureView{view}, nil); err != nil {
				return err
			}
			rec.Draw(3, 1)
			rec.EndRenderPass()
			return nil
		},
	})

	compiled, err := g.Compile()
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	signal := b.NewSemaphore(0)
	fence := b.NewFence()
	if err := b.ExecuteGraph(g, compiled, nil, signal, fence); err != nil {
		t.Fatalf("ExecuteGraph failed: %v", err)
	}
	if !fence.WaitTimeout(time.Second) {
		t.Fatal("fence did not signal")
	}

	if b.DrawCount() != 1 {
		t.Errorf("DrawCount = %d, want 1", b.DrawCount())
	}
	ops := b.Ops()
	if len(ops) < 3 {
		t.Fatalf("op log too short: %v", ops)
	}
	if !strings.HasPrefix(ops[0], "begin_render_pass draw") {
		t.Errorf("first op = %q, want begin_render_pass", ops[0])
	}
}

func TestSemaphoreChainOrdersSubmissions(t *testing.T) {
	b := newTestBackend(t)

	// Two graphs: the second waits on the first's semaphore. The first
	// dispatches, the second draws; the op log must show that order.
	mkGraph := func(kind framegraph.PassKind, record func(framegraph.CommandRecorder) error) *framegraph.Graph {
		g := framegraph.NewGraph(8, 8)
		var out framegraph.ResourceID
		g.AddPass(&framegraph.PassFunc{
			PassName: "stage",
			PassKind: kind,
			SetupFunc: func(s *framegraph.SetupContext) {
				out = s.CreateTexture(&framegraph.TextureDescriptor{
					Label: "out", Width: 8, Height: 8,
					Format: gputypes.TextureFormatRGBA8Unorm,
				})
				s.Write(out, framegraph.UsageStorageWrite)
			},
			ExecuteFunc: func(e *framegraph.ExecuteContext) error {
				return record(e.Recorder())
			},
		})
		return g
	}

	first := mkGraph(framegraph.PassCompute, func(rec framegraph.CommandRecorder) error {
		if err := rec.BeginComputePass("cull"); err != nil {
			return err
		}
		rec.Dispatch(8, 8, 1)
		rec.EndComputePass()
		return nil
	})
	second := mkGraph(framegraph.PassGraphics, func(rec framegraph.CommandRecorder) error {
		rec.Draw(3, 1)
		return nil
	})

	c1, err := first.Compile()
	if err != nil {
		t.Fatal(err)
	}
	c2, err := second.Compile()
	if err != nil {
		t.Fatal(err)
	}

	sem1 := b.NewSemaphore(1)
	sem2 := b.NewSemaphore(2)
	fence := b.NewFence()

	// Submit in reverse to prove ordering comes from the semaphore, not
	// from submission timing.
	if err := b.ExecuteGraph(second, c2, []framegraph.Semaphore{sem1}, sem2, fence); err != nil {
		t.Fatal(err)
	}
	if err := b.ExecuteGraph(first, c1, nil, sem1, nil); err != nil {
		t.Fatal(err)
	}
	if !fence.WaitTimeout(time.Second) {
		t.Fatal("fence did not signal")
	}

	dispatchIdx, drawIdx := -1, -1
	for i, op := range b.Ops() {
		if strings.HasPrefix(op, "dispatch") {
			dispatchIdx = i
		}
		if strings.HasPrefix(op, "draw") {
			drawIdx = i
		}
	}
	if dispatchIdx == -1 || drawIdx == -1 {
		t.Fatalf("ops missing dispatch/draw: %v", b.Ops())
	}
	if dispatchIdx > drawIdx {
		t.Errorf("dispatch at %d after draw at %d; semaphore order violated", dispatchIdx, drawIdx)
	}
}

func TestCopyTextureBlitsToExternalTarget(t *testing.T) {
	b := newTestBackend(t)
	b.SetClearColor(gputypes.Color{R: 1, G: 0, B: 0, A: 1})

	g := framegraph.NewGraph(16, 16)
	swapchain := g.ImportExternal("swapchain")
	var src framegraph.ResourceID
	g.AddPass(&framegraph.PassFunc{
		PassName: "clear",
		SetupFunc: func(s *framegraph.SetupContext) {
			src = s.CreateTexture(&framegraph.TextureDescriptor{
				Label: "scene", Width: 16, Height: 16,
				Format: gputypes.TextureFormatRGBA8Unorm,
				Usage:  gputypes.TextureUsageRenderAttachment,
			})
			s.Write(src, framegraph.UsageColorTarget)
		},
		ExecuteFunc: func(e *framegraph.ExecuteContext) error {
			view, _ := e.Texture(src)
			rec := e.Recorder()
			if err := rec.BeginRenderPass("clear", []framegraph.TextureView{view}, nil); err != nil {
				return err
			}
			rec.EndRenderPass()
			return nil
		},
	})
	g.AddPass(&framegraph.PassFunc{
		PassName: "blit",
		PassKind: framegraph.PassTransfer,
		SetupFunc: func(s *framegraph.SetupContext) {
			s.Read(src, framegraph.UsageTransferSrc)
			s.Write(swapchain, framegraph.UsageTransferDst)
		},
		ExecuteFunc: func(e *framegraph.ExecuteContext) error {
			from, _ := e.Texture(src)
			to, _ := e.Texture(swapchain)
			return e.Recorder().CopyTexture(from, to)
		},
	})

	compiled, err := g.Compile()
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	target := NewTargetView(16, 16)
	b.Executor(g).SetExternalView(swapchain, target)

	fence := b.NewFence()
	if err := b.ExecuteGraph(g, compiled, nil, b.NewSemaphore(0), fence); err != nil {
		t.Fatalf("ExecuteGraph failed: %v", err)
	}
	if !fence.WaitTimeout(time.Second) {
		t.Fatal("fence did not signal")
	}

	r, _, _, a := target.Pixmap().At(8, 8).RGBA()
	if r == 0 || a == 0 {
		t.Errorf("blit target pixel = %v, want red", target.Pixmap().At(8, 8))
	}
}

func TestUnboundExternalSkipsPass(t *testing.T) {
	b := newTestBackend(t)

	g := framegraph.NewGraph(8, 8)
	swapchain := g.ImportExternal("swapchain")
	ran := false
	g.AddPass(&framegraph.PassFunc{
		PassName: "present",
		SetupFunc: func(s *framegraph.SetupContext) {
			s.Write(swapchain, framegraph.UsageColorTarget)
		},
		ExecuteFunc: func(*framegraph.ExecuteContext) error {
			ran = true
			return nil
		},
	})

	compiled, err := g.Compile()
	if err != nil {
		t.Fatal(err)
	}
	fence := b.NewFence()
	if err := b.ExecuteGraph(g, compiled, nil, b.NewSemaphore(0), fence); err != nil {
		t.Fatal(err)
	}
	if !fence.WaitTimeout(time.Second) {
		t.Fatal("fence did not signal")
	}
	if ran {
		t.Error("pass ran with unbound external resource")
	}
}

func TestCopyBuffer(t *testing.T) {
	b := newTestBackend(t)

	src, err := b.CreateBuffer(&framegraph.BufferDescriptor{Label: "src", Size: 16})
	if err != nil {
		t.Fatal(err)
	}
	dst, err := b.CreateBuffer(&framegraph.BufferDescriptor{Label: "dst", Size: 16})
	if err != nil {
		t.Fatal(err)
	}
	copy(src.(*buffer).data, []byte("framegraph-data!"))

	rec := b.Recorder()
	if err := rec.CopyBuffer(src, dst, 16); err != nil {
		t.Fatalf("CopyBuffer failed: %v", err)
	}
	if string(dst.(*buffer).data) != "framegraph-data!" {
		t.Errorf("dst = %q", dst.(*buffer).data)
	}

	if err := rec.CopyBuffer(src, dst, 999); err == nil {
		t.Error("out-of-bounds copy succeeded")
	}
}

func TestSchedulerEndToEnd(t *testing.T) {
	b := newTestBackend(t)
	pool := framegraph.NewGraphPool()
	sched := framegraph.NewFrameSchedule(b, pool)

	stage := func(name string) *framegraph.Graph {
		g := sched.AcquireGraph(32, 32)
		var out framegraph.ResourceID
		g.AddPass(&framegraph.PassFunc{
			PassName: name,
			SetupFunc: func(s *framegraph.SetupContext) {
				out = s.CreateTexture(&framegraph.TextureDescriptor{
					Label: name, Width: 32, Height: 32,
					Format: gputypes.TextureFormatRGBA8Unorm,
					Usage:  gputypes.TextureUsageRenderAttachment,
				})
				s.Write(out, framegraph.UsageColorTarget)
			},
			ExecuteFunc: func(e *framegraph.ExecuteContext) error {
				view, _ := e.Texture(out)
				rec := e.Recorder()
				if err := rec.BeginRenderPass(name, []framegraph.TextureView{view}, nil); err != nil {
					return err
				}
				rec.Draw(3, 1)
				rec.EndRenderPass()
				return nil
			},
		})
		return g
	}

	shadow, err := sched.Submit(stage("shadow"))
	if err != nil {
		t.Fatal(err)
	}
	depth, err := sched.Submit(stage("depth"))
	if err != nil {
		t.Fatal(err)
	}
	gbuffer, err := sched.Submit(stage("gbuffer"), shadow, depth)
	if err != nil {
		t.Fatal(err)
	}
	main, err := sched.Submit(stage("main"), gbuffer)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sched.Present(stage("present"), main); err != nil {
		t.Fatal(err)
	}

	if sched.SubmittedCount() != 5 {
		t.Errorf("SubmittedCount = %d, want 5", sched.SubmittedCount())
	}

	fence := sched.TakeFence()
	if !fence.WaitTimeout(2 * time.Second) {
		t.Fatal("frame fence did not signal")
	}
	b.WaitIdle()
	sched.ReleaseGraphs()

	if b.DrawCount() != 5 {
		t.Errorf("DrawCount = %d, want 5", b.DrawCount())
	}
}
