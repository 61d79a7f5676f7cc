// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package framegraph

import "fmt"

// Lifetime is a resource's live range as positions in the compiled pass
// order. FirstUse <= LastUse always holds; a resource written once and
// never read has FirstUse == LastUse.
type Lifetime struct {
	FirstUse int
	LastUse  int
}

// CompiledGraph is the immutable result of Compile: the execution order
// and the live range of every referenced resource. It stays valid until
// the graph is reset.
type CompiledGraph struct {
	// PassOrder lists pass IDs in a valid topological order of the
	// read-after-write dependency relation. Independent passes keep
	// their registration order.
	PassOrder []PassID

	// Lifetimes maps each referenced resource to its live range.
	// Resources registered but never referenced by any pass are absent.
	Lifetimes map[ResourceID]Lifetime
}

// CycleError is returned by Compile when the declared accesses form a
// dependency cycle. Passes lists every pass on or downstream of a cycle,
// in registration order; none of them can be scheduled.
type CycleError struct {
	Passes []PassID
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("framegraph: dependency cycle involving %d passes %v", len(e.Passes), e.Passes)
}

// DanglingResourceError is returned by Compile when a pass references a
// resource ID that was never registered with the graph.
type DanglingResourceError struct {
	Pass     PassID
	PassName string
	Resource ResourceID
}

func (e *DanglingResourceError) Error() string {
	return fmt.Sprintf("framegraph: pass %q (#%d) references unregistered resource %d",
		e.PassName, int(e.Pass), uint32(e.Resource))
}

// Compile infers pass dependencies from the declared accesses and
// produces an execution order plus resource lifetimes.
//
// The dependency relation is read-after-write: a pass is ordered after
// every pass that writes (or creates) a resource it reads. Write-write
// and write-after-read conflicts are not modeled; passes with such
// conflicts run in submission order.
//
// Ordering uses Kahn's algorithm with a FIFO worklist seeded in
// registration order, so the order is deterministic and independent
// passes retain the order they were added in.
func (g *Graph) Compile() (*CompiledGraph, error) {
	n := len(g.passes)

	// Producers of each resource: the creating pass plus every writer,
	// in registration order.
	producers := make(map[ResourceID][]PassID)
	for _, node := range g.passes {
		for _, id := range node.creates {
			producers[id] = append(producers[id], node.id)
		}
		for _, w := range node.writes {
			if int(w.Resource) >= len(g.resources) {
				return nil, &DanglingResourceError{
					Pass:     node.id,
					PassName: node.pass.Name(),
					Resource: w.Resource,
				}
			}
			producers[w.Resource] = append(producers[w.Resource], node.id)
		}
	}

	// Edges writer -> reader, deduplicated.
	type edge struct{ from, to PassID }
	seen := make(map[edge]struct{})
	adjacency := make([][]PassID, n)
	inDegree := make([]int, n)
	for _, node := range g.passes {
		for _, r := range node.reads {
			if int(r.Resource) >= len(g.resources) {
				return nil, &DanglingResourceError{
					Pass:     node.id,
					PassName: node.pass.Name(),
					Resource: r.Resource,
				}
			}
			for _, w := range producers[r.Resource] {
				if w == node.id {
					continue
				}
				e := edge{from: w, to: node.id}
				if _, dup := seen[e]; dup {
					continue
				}
				seen[e] = struct{}{}
				adjacency[w] = append(adjacency[w], node.id)
				inDegree[node.id]++
			}
		}
	}

	// Kahn with a FIFO queue: ready passes schedule in registration order.
	order := make([]PassID, 0, n)
	queue := make([]PassID, 0, n)
	for _, node := range g.passes {
		if inDegree[node.id] == 0 {
			queue = append(queue, node.id)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, succ := range adjacency[id] {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				queue = append(queue, succ)
			}
		}
	}

	if len(order) < n {
		cycleErr := &CycleError{}
		for _, node := range g.passes {
			if inDegree[node.id] > 0 {
				cycleErr.Passes = append(cycleErr.Passes, node.id)
			}
		}
		return nil, cycleErr
	}

	// Lifetimes as positions in the compiled order. Creates count as
	// first writes.
	lifetimes := make(map[ResourceID]Lifetime)
	extend := func(id ResourceID, pos int) {
		lt, ok := lifetimes[id]
		if !ok {
			lifetimes[id] = Lifetime{FirstUse: pos, LastUse: pos}
			return
		}
		if pos < lt.FirstUse {
			lt.FirstUse = pos
		}
		if pos > lt.LastUse {
			lt.LastUse = pos
		}
		lifetimes[id] = lt
	}
	for pos, id := range order {
		node := g.passes[id]
		for _, r := range node.creates {
			extend(r, pos)
		}
		for _, a := range node.reads {
			extend(a.Resource, pos)
		}
		for _, a := range node.writes {
			extend(a.Resource, pos)
		}
	}

	compiled := &CompiledGraph{PassOrder: order, Lifetimes: lifetimes}
	Logger().Debug("graph compiled",
		"passes", n,
		"resources", len(lifetimes),
		"order", order)
	return compiled, nil
}
