// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package framegraph

import (
	"fmt"
	"sync"
)

// Executor materializes a graph's virtual resources on a backend and
// replays compiled passes against them. Allocation is memoized per
// resource ID, so executing the same graph again (or calling Allocate
// repeatedly) reuses the physical resources from the first run.
//
// An Executor is bound to a single Graph for its lifetime; backends
// create one per graph. Resource IDs are only unique within a graph,
// so sharing an executor across graphs would alias allocations.
type Executor struct {
	backend Backend

	mu       sync.Mutex
	textures map[ResourceID]Texture
	views    map[ResourceID]TextureView
	buffers  map[ResourceID]Buffer
	external map[ResourceID]TextureView
}

// NewExecutor creates an executor allocating through the given backend.
func NewExecutor(b Backend) *Executor {
	return &Executor{
		backend:  b,
		textures: make(map[ResourceID]Texture),
		views:    make(map[ResourceID]TextureView),
		buffers:  make(map[ResourceID]Buffer),
		external: make(map[ResourceID]TextureView),
	}
}

// SetExternalView binds a physical view to an external resource, such
// as the acquired swapchain image. Must be called before Execute for
// every external resource a pass touches; unbound external resources
// cause the touching passes to be skipped.
//
// The executor does not take ownership: external views are never
// destroyed by Cleanup.
func (e *Executor) SetExternalView(id ResourceID, view TextureView) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.external[id] = view
}

// Allocate creates physical resources for every resource the compiled
// graph references. Already-allocated IDs are skipped, making repeat
// calls cheap and idempotent. External resources are never allocated.
func (e *Executor) Allocate(g *Graph, compiled *CompiledGraph) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, res := range g.resources {
		if _, used := compiled.Lifetimes[res.ID]; !used {
			continue
		}
		switch res.Kind {
		case ResourceTexture:
			if _, ok := e.textures[res.ID]; ok {
				continue
			}
			tex, err := e.backend.CreateTexture(res.Texture)
			if err != nil {
				return fmt.Errorf("framegraph: allocate texture %q: %w", res.Name(), err)
			}
			view, err := tex.CreateView()
			if err != nil {
				tex.Destroy()
				return fmt.Errorf("framegraph: create view for %q: %w", res.Name(), err)
			}
			e.textures[res.ID] = tex
			e.views[res.ID] = view

		case ResourceBuffer:
			if _, ok := e.buffers[res.ID]; ok {
				continue
			}
			buf, err := e.backend.CreateBuffer(res.Buffer)
			if err != nil {
				return fmt.Errorf("framegraph: allocate buffer %q: %w", res.Name(), err)
			}
			e.buffers[res.ID] = buf

		case ResourceExternal:
			// Bound by the caller through SetExternalView.
		}
	}
	return nil
}

// Execute allocates any missing resources and runs the compiled passes
// in order against the given recorder.
//
// A pass whose declared resources lack a physical view (an unbound
// external resource) is skipped with a warning rather than failing the
// frame. An error returned by a pass's Execute aborts the run.
func (e *Executor) Execute(g *Graph, compiled *CompiledGraph, rec CommandRecorder) error {
	if err := e.Allocate(g, compiled); err != nil {
		return err
	}

	for _, id := range compiled.PassOrder {
		node := g.passes[id]

		if missing, ok := e.checkResolved(g, node); !ok {
			Logger().Warn("skipping pass with unbound resource",
				"pass", node.pass.Name(),
				"resource", missing)
			continue
		}

		ctx := &ExecuteContext{graph: g, exec: e, recorder: rec, node: node}
		if err := node.pass.Execute(ctx); err != nil {
			return fmt.Errorf("framegraph: pass %q: %w", node.pass.Name(), err)
		}
	}
	return nil
}

// checkResolved checks that every resource the pass declared resolves
// to a physical resource. Returns the first unresolved resource name and
// false when one is missing.
func (e *Executor) checkResolved(g *Graph, node *passNode) (string, bool) {
	check := func(id ResourceID) (string, bool) {
		res, ok := g.Resource(id)
		if !ok {
			return fmt.Sprintf("#%d", id), false
		}
		switch res.Kind {
		case ResourceBuffer:
			if _, ok := e.buffer(id); !ok {
				return res.Name(), false
			}
		default:
			if _, ok := e.textureView(id); !ok {
				return res.Name(), false
			}
		}
		return "", true
	}

	for _, a := range node.reads {
		if name, ok := check(a.Resource); !ok {
			return name, false
		}
	}
	for _, a := range node.writes {
		if name, ok := check(a.Resource); !ok {
			return name, false
		}
	}
	return "", true
}

// textureView resolves a resource to its view, preferring an external
// binding over a graph-owned allocation.
func (e *Executor) textureView(id ResourceID) (TextureView, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if v, ok := e.external[id]; ok {
		return v, true
	}
	v, ok := e.views[id]
	return v, ok
}

func (e *Executor) buffer(id ResourceID) (Buffer, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.buffers[id]
	return b, ok
}

// Texture returns the physical texture allocated for a resource, if any.
// External resources have no backing texture here, only a view.
func (e *Executor) Texture(id ResourceID) (Texture, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.textures[id]
	return t, ok
}

// Cleanup destroys every graph-owned allocation and forgets external
// bindings. The executor is reusable afterwards; the next Allocate
// starts from scratch.
func (e *Executor) Cleanup() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for id, v := range e.views {
		v.Destroy()
		delete(e.views, id)
	}
	for id, t := range e.textures {
		t.Destroy()
		delete(e.textures, id)
	}
	for id, b := range e.buffers {
		b.Destroy()
		delete(e.buffers, id)
	}
	for id := range e.external {
		delete(e.external, id)
	}
}
