// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package framegraph

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
)

// addTexturePass registers a pass that creates and writes one texture,
// reading the given inputs. Returns the pass ID and the created texture.
func addTexturePass(g *Graph, name string, inputs ...ResourceID) (PassID, ResourceID) {
	var out ResourceID
	id := g.AddPass(&PassFunc{
		PassName: name,
		SetupFunc: func(s *SetupContext) {
			out = s.CreateTexture(&TextureDescriptor{
				Label:  name + "_out",
				Width:  64,
				Height: 64,
				Format: gputypes.TextureFormatRGBA8Unorm,
				Usage:  gputypes.TextureUsageRenderAttachment,
			})
			s.Write(out, UsageColorTarget)
			for _, in := range inputs {
				s.Read(in, UsageSampled)
			}
		},
	})
	return id, out
}

func orderIndex(t *testing.T, compiled *CompiledGraph, id PassID) int {
	t.Helper()
	for i, p := range compiled.PassOrder {
		if p == id {
			return i
		}
	}
	t.Fatalf("pass %d not in order %v", id, compiled.PassOrder)
	return -1
}

func TestCompileChainOrder(t *testing.T) {
	g := NewGraph(640, 480)
	a, aOut := addTexturePass(g, "a")
	b, bOut := addTexturePass(g, "b", aOut)
	c, _ := addTexturePass(g, "c", bOut)

	compiled, err := g.Compile()
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if len(compiled.PassOrder) != 3 {
		t.Fatalf("PassOrder has %d passes, want 3", len(compiled.PassOrder))
	}
	ia, ib, ic := orderIndex(t, compiled, a), orderIndex(t, compiled, b), orderIndex(t, compiled, c)
	if ia >= ib || ib >= ic {
		t.Errorf("order %v does not respect a < b < c", compiled.PassOrder)
	}
}

func TestCompileOrdersWriterBeforeEarlierReader(t *testing.T) {
	// The reader registers first but must execute after the writer.
	g := NewGraph(640, 480)
	shared := g.ImportExternal("shared")

	reader := g.AddPass(&PassFunc{
		PassName: "reader",
		SetupFunc: func(s *SetupContext) {
			s.Read(shared, UsageSampled)
		},
	})
	writer := g.AddPass(&PassFunc{
		PassName: "writer",
		SetupFunc: func(s *SetupContext) {
			s.Write(shared, UsageColorTarget)
		},
	})

	compiled, err := g.Compile()
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if orderIndex(t, compiled, writer) >= orderIndex(t, compiled, reader) {
		t.Errorf("order %v does not place writer before reader", compiled.PassOrder)
	}
}

func TestCompileIndependentPassesKeepRegistrationOrder(t *testing.T) {
	g := NewGraph(640, 480)
	var ids []PassID
	for _, name := range []string{"p0", "p1", "p2", "p3"} {
		id, _ := addTexturePass(g, name)
		ids = append(ids, id)
	}

	compiled, err := g.Compile()
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	for i, id := range ids {
		if compiled.PassOrder[i] != id {
			t.Fatalf("PassOrder = %v, want registration order %v", compiled.PassOrder, ids)
		}
	}
}

func TestCompileDiamond(t *testing.T) {
	g := NewGraph(640, 480)
	root, rootOut := addTexturePass(g, "root")
	left, leftOut := addTexturePass(g, "left", rootOut)
	right, rightOut := addTexturePass(g, "right", rootOut)
	merge, _ := addTexturePass(g, "merge", leftOut, rightOut)

	compiled, err := g.Compile()
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	ir := orderIndex(t, compiled, root)
	il := orderIndex(t, compiled, left)
	irt := orderIndex(t, compiled, right)
	im := orderIndex(t, compiled, merge)
	if ir >= il || ir >= irt {
		t.Errorf("root not before branches: %v", compiled.PassOrder)
	}
	if il >= im || irt >= im {
		t.Errorf("branches not before merge: %v", compiled.PassOrder)
	}
	// FIFO tie-break: left registered before right.
	if il >= irt {
		t.Errorf("left should precede right by registration order: %v", compiled.PassOrder)
	}
}

func TestCompileCycleError(t *testing.T) {
	g := NewGraph(640, 480)
	r1 := g.ImportExternal("r1")
	r2 := g.ImportExternal("r2")

	g.AddPass(&PassFunc{
		PassName: "ping",
		SetupFunc: func(s *SetupContext) {
			s.Read(r2, UsageSampled)
			s.Write(r1, UsageColorTarget)
		},
	})
	g.AddPass(&PassFunc{
		PassName: "pong",
		SetupFunc: func(s *SetupContext) {
			s.Read(r1, UsageSampled)
			s.Write(r2, UsageColorTarget)
		},
	})

	_, err := g.Compile()
	if err == nil {
		t.Fatal("Compile succeeded on a cyclic graph")
	}
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("error %v is not a *CycleError", err)
	}
	if len(cycleErr.Passes) != 2 {
		t.Errorf("CycleError.Passes = %v, want both passes", cycleErr.Passes)
	}
}

func TestCompileDanglingResourceError(t *testing.T) {
	g := NewGraph(640, 480)
	g.AddPass(&PassFunc{
		PassName: "broken",
		SetupFunc: func(s *SetupContext) {
			s.Read(ResourceID(999), UsageSampled)
		},
	})

	_, err := g.Compile()
	if err == nil {
		t.Fatal("Compile succeeded with an unregistered resource")
	}
	var dangling *DanglingResourceError
	if !errors.As(err, &dangling) {
		t.Fatalf("error %v is not a *DanglingResourceError", err)
	}
	if dangling.Resource != 999 {
		t.Errorf("Resource = %d, want 999", dangling.Resource)
	}
	if dangling.PassName != "broken" {
		t.Errorf("PassName = %q, want %q", dangling.PassName, "broken")
	}
}

func TestCompileLifetimes(t *testing.T) {
	g := NewGraph(640, 480)
	_, aOut := addTexturePass(g, "a")
	_, bOut := addTexturePass(g, "b", aOut)
	addTexturePass(g, "c", aOut, bOut)

	compiled, err := g.Compile()
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	for id, lt := range compiled.Lifetimes {
		if lt.FirstUse > lt.LastUse {
			t.Errorf("resource %d: FirstUse %d > LastUse %d", id, lt.FirstUse, lt.LastUse)
		}
	}

	// aOut is created at position 0 and last read by c at position 2.
	if lt := compiled.Lifetimes[aOut]; lt.FirstUse != 0 || lt.LastUse != 2 {
		t.Errorf("aOut lifetime = %+v, want {0 2}", lt)
	}
}

func TestCompileWriteOnceLifetime(t *testing.T) {
	g := NewGraph(640, 480)
	_, out := addTexturePass(g, "solo")

	compiled, err := g.Compile()
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	lt, ok := compiled.Lifetimes[out]
	if !ok {
		t.Fatal("created resource missing from Lifetimes")
	}
	if lt.FirstUse != lt.LastUse {
		t.Errorf("write-once resource lifetime = %+v, want FirstUse == LastUse", lt)
	}
}

func TestCompileUnreferencedResourceAbsent(t *testing.T) {
	g := NewGraph(640, 480)
	unused := g.ImportExternal("unused")
	addTexturePass(g, "a")

	compiled, err := g.Compile()
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if _, ok := compiled.Lifetimes[unused]; ok {
		t.Error("unreferenced resource has a lifetime")
	}
}

func TestCompileEmptyGraph(t *testing.T) {
	g := NewGraph(640, 480)
	compiled, err := g.Compile()
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if len(compiled.PassOrder) != 0 {
		t.Errorf("PassOrder = %v, want empty", compiled.PassOrder)
	}
}

func BenchmarkCompileChain(b *testing.B) {
	g := NewGraph(1920, 1080)
	_, prev := addTexturePass(g, "p0")
	for i := 1; i < 32; i++ {
		_, prev = addTexturePass(g, "p", prev)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := g.Compile(); err != nil {
			b.Fatal(err)
		}
	}
}
