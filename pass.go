// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package framegraph

// PassID identifies a pass within a single Graph by registration order.
type PassID int

// PassKind selects the command recording surface a pass uses.
type PassKind int

const (
	// PassGraphics records draws inside a render pass.
	PassGraphics PassKind = iota

	// PassCompute records dispatches inside a compute pass.
	PassCompute

	// PassTransfer records copies between resources.
	PassTransfer
)

// String returns the pass kind name.
func (k PassKind) String() string {
	switch k {
	case PassGraphics:
		return "Graphics"
	case PassCompute:
		return "Compute"
	case PassTransfer:
		return "Transfer"
	default:
		return "Unknown"
	}
}

// Pass is the two-phase pass contract. Setup runs once at registration and
// declares the pass's resource footprint through the SetupContext; Execute
// runs during graph replay and records commands against resolved resources.
//
// Setup must not touch physical resources and Execute must not declare new
// accesses. The split is what lets the compiler see the whole frame before
// anything is allocated or recorded.
type Pass interface {
	// Name returns the pass name used in logs and errors.
	Name() string

	// Setup declares the resources the pass creates, reads, and writes.
	Setup(*SetupContext)

	// Execute records commands for the pass.
	Execute(*ExecuteContext) error
}

// kinder is implemented by passes that declare an execution kind.
// Passes without it default to PassGraphics.
type kinder interface {
	Kind() PassKind
}

// PassFunc builds a Pass from closures, for passes without interesting
// state. The zero Kind is PassGraphics.
type PassFunc struct {
	// PassName is the name reported by Name().
	PassName string

	// PassKind selects the recording surface. Defaults to PassGraphics.
	PassKind PassKind

	// SetupFunc declares resource accesses. May be nil for passes with
	// no footprint of their own (e.g. a present marker).
	SetupFunc func(*SetupContext)

	// ExecuteFunc records commands. May be nil.
	ExecuteFunc func(*ExecuteContext) error
}

// Name returns the configured pass name.
func (p *PassFunc) Name() string { return p.PassName }

// Kind returns the configured pass kind.
func (p *PassFunc) Kind() PassKind { return p.PassKind }

// Setup invokes SetupFunc if set.
func (p *PassFunc) Setup(s *SetupContext) {
	if p.SetupFunc != nil {
		p.SetupFunc(s)
	}
}

// Execute invokes ExecuteFunc if set.
func (p *PassFunc) Execute(e *ExecuteContext) error {
	if p.ExecuteFunc != nil {
		return p.ExecuteFunc(e)
	}
	return nil
}

var _ Pass = (*PassFunc)(nil)
var _ kinder = (*PassFunc)(nil)

// passNode is the graph's record of a registered pass: the pass itself
// plus the footprint its Setup declared.
type passNode struct {
	id      PassID
	pass    Pass
	kind    PassKind
	creates []ResourceID
	reads   []ResourceAccess
	writes  []ResourceAccess
}

// SetupContext is handed to Pass.Setup to declare the pass footprint.
// It is only valid for the duration of the Setup call.
type SetupContext struct {
	graph *Graph
	node  *passNode
}

// CreateTexture registers a transient texture owned by the graph and
// marks this pass as its creator. Screen-relative descriptors are
// resolved against the graph's screen size here, at declaration time.
func (s *SetupContext) CreateTexture(desc *TextureDescriptor) ResourceID {
	id := s.graph.addTexture(desc)
	s.node.creates = append(s.node.creates, id)
	return id
}

// CreateBuffer registers a transient buffer owned by the graph and
// marks this pass as its creator.
func (s *SetupContext) CreateBuffer(desc *BufferDescriptor) ResourceID {
	id := s.graph.addBuffer(desc)
	s.node.creates = append(s.node.creates, id)
	return id
}

// Read declares that the pass reads the resource with the given usage.
// The compiler orders this pass after every writer of the resource.
func (s *SetupContext) Read(id ResourceID, usage Usage) {
	s.node.reads = append(s.node.reads, ResourceAccess{Resource: id, Usage: usage})
}

// Write declares that the pass writes the resource with the given usage.
func (s *SetupContext) Write(id ResourceID, usage Usage) {
	s.node.writes = append(s.node.writes, ResourceAccess{Resource: id, Usage: usage})
}

// ExecuteContext is handed to Pass.Execute during replay. It resolves
// virtual resource IDs to the physical resources the executor allocated
// (or the external views bound by the caller) and exposes the backend's
// command recorder.
type ExecuteContext struct {
	graph    *Graph
	exec     *Executor
	recorder CommandRecorder
	node     *passNode
}

// Texture resolves a resource ID to its texture view.
// The boolean is false when the resource has no physical view, which for
// external resources means the caller never bound one.
func (e *ExecuteContext) Texture(id ResourceID) (TextureView, bool) {
	return e.exec.textureView(id)
}

// Buffer resolves a resource ID to its buffer.
func (e *ExecuteContext) Buffer(id ResourceID) (Buffer, bool) {
	return e.exec.buffer(id)
}

// Width returns the graph's screen width in pixels.
func (e *ExecuteContext) Width() int { return e.graph.width }

// Height returns the graph's screen height in pixels.
func (e *ExecuteContext) Height() int { return e.graph.height }

// Recorder returns the command recorder for this execution.
func (e *ExecuteContext) Recorder() CommandRecorder { return e.recorder }
