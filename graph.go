// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package framegraph

import "fmt"

// Graph is the frame's declarative build surface. Passes are added in the
// order they should tie-break, each pass's Setup runs immediately at
// AddPass, and the resulting resource footprint is what Compile works on.
//
// Graph is NOT safe for concurrent use. Build one Graph per goroutine,
// or use external synchronization.
type Graph struct {
	passes    []*passNode
	resources []*VirtualResource

	// Screen dimensions used to resolve ScreenScale descriptors and
	// reported to passes at execute time.
	width  int
	height int
}

// NewGraph creates an empty graph for a frame rendered at the given
// screen size. Dimensions must be positive; they anchor screen-relative
// texture descriptors.
func NewGraph(width, height int) *Graph {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("framegraph: invalid graph size %dx%d", width, height))
	}
	return &Graph{width: width, height: height}
}

// Width returns the screen width in pixels.
func (g *Graph) Width() int { return g.width }

// Height returns the screen height in pixels.
func (g *Graph) Height() int { return g.height }

// AddPass registers a pass and immediately runs its Setup phase to
// collect the declared resource accesses. The returned PassID is the
// registration index.
//
// Passes implementing Kind() PassKind select their recording surface;
// all others default to PassGraphics.
func (g *Graph) AddPass(p Pass) PassID {
	node := &passNode{
		id:   PassID(len(g.passes)),
		pass: p,
		kind: PassGraphics,
	}
	if k, ok := p.(kinder); ok {
		node.kind = k.Kind()
	}
	g.passes = append(g.passes, node)

	p.Setup(&SetupContext{graph: g, node: node})
	return node.id
}

// ImportExternal registers an externally owned resource, such as the
// swapchain image. The graph never allocates it; bind a physical view
// through the executor before execution or passes touching it are
// skipped.
func (g *Graph) ImportExternal(label string) ResourceID {
	return g.addResource(&VirtualResource{
		Kind:  ResourceExternal,
		Label: label,
	})
}

// Resource returns the virtual resource for an ID.
func (g *Graph) Resource(id ResourceID) (*VirtualResource, bool) {
	if int(id) >= len(g.resources) {
		return nil, false
	}
	return g.resources[id], true
}

// PassCount returns the number of registered passes.
func (g *Graph) PassCount() int { return len(g.passes) }

// ResourceCount returns the number of registered resources.
func (g *Graph) ResourceCount() int { return len(g.resources) }

// Resize updates the screen dimensions used for ScreenScale resolution.
// Only meaningful before passes are added; resources already registered
// keep their resolved sizes.
func (g *Graph) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("framegraph: invalid graph size %dx%d", width, height))
	}
	g.width = width
	g.height = height
}

// Reset clears all passes and resources so the Graph can be rebuilt for
// a new frame without reallocating. Used by GraphPool.
func (g *Graph) Reset() {
	g.passes = g.passes[:0]
	g.resources = g.resources[:0]
}

func (g *Graph) addResource(r *VirtualResource) ResourceID {
	r.ID = ResourceID(len(g.resources))
	g.resources = append(g.resources, r)
	return r.ID
}

func (g *Graph) addTexture(desc *TextureDescriptor) ResourceID {
	if desc == nil {
		panic("framegraph: CreateTexture with nil descriptor")
	}
	// Copy so later caller mutation cannot change the registered footprint.
	d := *desc
	if d.ScreenScale > 0 {
		d.Width = uint32(float32(g.width) * d.ScreenScale)
		d.Height = uint32(float32(g.height) * d.ScreenScale)
		if d.Width == 0 {
			d.Width = 1
		}
		if d.Height == 0 {
			d.Height = 1
		}
	}
	if d.SampleCount == 0 {
		d.SampleCount = 1
	}
	return g.addResource(&VirtualResource{
		Kind:    ResourceTexture,
		Texture: &d,
		Label:   d.Label,
	})
}

func (g *Graph) addBuffer(desc *BufferDescriptor) ResourceID {
	if desc == nil {
		panic("framegraph: CreateBuffer with nil descriptor")
	}
	d := *desc
	return g.addResource(&VirtualResource{
		Kind:   ResourceBuffer,
		Buffer: &d,
		Label:  d.Label,
	})
}
