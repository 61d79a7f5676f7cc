// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package wgpu provides a hardware framegraph backend over
// github.com/gogpu/wgpu/hal.
//
// The backend either brings up its own Vulkan device (New + Init) or
// adopts a device shared by the host application through a
// gpucontext.DeviceProvider (NewShared). Submissions are encoded on the
// calling goroutine and completion is observed through hal fences.
//
// The backend registers itself as "wgpu"; import for side effects:
//
//	import _ "github.com/gogpu/framegraph/backend/wgpu"
package wgpu

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/backend"
)

func init() {
	backend.Register(backend.BackendWgpu, func() framegraph.Backend {
		return New()
	})
}

// Shared-device errors.
var (
	// ErrNoHalProvider is returned when a provider does not expose HAL types.
	ErrNoHalProvider = errors.New("wgpu: provider does not expose HAL types")
)

// Backend is the hardware backend. Create with New (own device) or
// NewShared (host device), or through the registry.
type Backend struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	rec        *recorder
	execs      map[*framegraph.Graph]*framegraph.Executor
	clearColor gputypes.Color

	// Command buffers from fence-less submissions, retained until a
	// later fenced submission on the same FIFO queue confirms the queue
	// has advanced past them.
	pending []hal.CommandBuffer

	gpuReady       bool
	externalDevice bool // true when using shared device (don't destroy on Close)
}

// New creates an uninitialized backend that will bring up its own
// device on Init.
func New() *Backend {
	return &Backend{
		rec:   newRecorder(),
		execs: make(map[*framegraph.Graph]*framegraph.Executor),
	}
}

// NewShared creates a backend on a device owned by the host application.
// The provider must also implement HalDevice() any and HalQueue() any
// returning hal.Device and hal.Queue; gogpu's context provider does.
// Init is a no-op for shared backends.
func NewShared(provider gpucontext.DeviceProvider) (*Backend, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHalProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("wgpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("wgpu: provider HalQueue is not hal.Queue")
	}

	b := New()
	b.device = device
	b.queue = queue
	b.externalDevice = true
	b.gpuReady = true
	return b, nil
}

var _ framegraph.Backend = (*Backend)(nil)

// Name returns "wgpu".
func (b *Backend) Name() string { return backend.BackendWgpu }

// Init brings up the Vulkan instance, adapter, and device. Shared
// backends are already initialized and return nil immediately.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.gpuReady {
		return nil
	}
	return b.initGPU()
}

func (b *Backend) initGPU() error {
	halBackend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("wgpu: vulkan backend not available")
	}
	instance, err := halBackend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("wgpu: create instance: %w", err)
	}
	b.instance = instance
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return fmt.Errorf("wgpu: no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("wgpu: open device: %w", err)
	}
	b.device = openDev.Device
	b.queue = openDev.Queue
	b.gpuReady = true
	log.Printf("wgpu: framegraph backend initialized (%s)", selected.Info.Name)
	return nil
}

// Close releases all allocations and, for owned devices, the device and
// instance. Shared devices are left untouched.
func (b *Backend) Close() {
	b.mu.Lock()
	execs := b.execs
	b.execs = make(map[*framegraph.Graph]*framegraph.Executor)
	b.mu.Unlock()

	for _, e := range execs {
		e.Cleanup()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.device != nil {
		for _, cb := range b.pending {
			b.device.FreeCommandBuffer(cb)
		}
	}
	b.pending = nil
	if !b.externalDevice {
		if b.device != nil {
			b.device.Destroy()
			b.device = nil
		}
		if b.instance != nil {
			b.instance.Destroy()
			b.instance = nil
		}
	} else {
		// Don't destroy shared resources; the host owns them.
		b.device = nil
		b.instance = nil
	}
	b.queue = nil
	b.gpuReady = false
	b.externalDevice = false
}

// SetClearColor sets the color render targets are cleared to when a
// render pass begins. Defaults to transparent black.
func (b *Backend) SetClearColor(c gputypes.Color) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clearColor = c
	b.rec.setClearColor(c)
}

// CreateTexture allocates a GPU texture.
func (b *Backend) CreateTexture(desc *framegraph.TextureDescriptor) (framegraph.Texture, error) {
	if desc == nil {
		return nil, framegraph.ErrNilDescriptor
	}
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("%w: %dx%d", framegraph.ErrInvalidTextureSize, desc.Width, desc.Height)
	}
	b.mu.Lock()
	device := b.device
	ready := b.gpuReady
	b.mu.Unlock()
	if !ready {
		return nil, framegraph.ErrNotInitialized
	}

	sampleCount := desc.SampleCount
	if sampleCount == 0 {
		sampleCount = 1
	}
	halTex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label: desc.Label,
		Size: hal.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   sampleCount,
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format,
		Usage:         desc.Usage,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", framegraph.ErrTextureCreationFailed, desc.Label, err)
	}
	return &texture{device: device, tex: halTex, desc: *desc}, nil
}

// CreateBuffer allocates a GPU buffer.
func (b *Backend) CreateBuffer(desc *framegraph.BufferDescriptor) (framegraph.Buffer, error) {
	if desc == nil {
		return nil, framegraph.ErrNilDescriptor
	}
	if desc.Size == 0 {
		return nil, framegraph.ErrInvalidBufferSize
	}
	b.mu.Lock()
	device := b.device
	ready := b.gpuReady
	b.mu.Unlock()
	if !ready {
		return nil, framegraph.ErrNotInitialized
	}

	halBuf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Usage: desc.Usage,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", framegraph.ErrBufferCreationFailed, desc.Label, err)
	}
	return &gpuBuffer{device: device, buf: halBuf, desc: *desc}, nil
}

// NewSemaphore creates a CPU-side ordering token. The hal queue executes
// submissions in FIFO order, so intra-queue ordering is already
// guaranteed; the token records the ordering intent and is signaled when
// the submission has been handed to the queue.
func (b *Backend) NewSemaphore(id uint64) framegraph.Semaphore {
	return framegraph.NewDummySemaphore(id)
}

// NewFence creates a fence backed by a hal fence. Returns nil when the
// device is not initialized.
func (b *Backend) NewFence() framegraph.Fence {
	b.mu.Lock()
	device := b.device
	ready := b.gpuReady
	b.mu.Unlock()
	if !ready {
		return nil
	}
	halFence, err := device.CreateFence()
	if err != nil {
		framegraph.Logger().Warn("fence creation failed", "err", err)
		return nil
	}
	return &gpuFence{device: device, fence: halFence}
}

// Recorder returns the hal-encoding recorder.
func (b *Backend) Recorder() framegraph.CommandRecorder { return b.rec }

// Executor returns the executor owning the physical resources of the
// given graph, creating it on first use.
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

// trackPending retains a command buffer submitted without a fence. The
// GPU may still be executing it, so it cannot be freed yet.
func (b *Backend) trackPending(cmdBuf hal.CommandBuffer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append(b.pending, cmdBuf)
}

// takePending returns the retained fence-less command buffers plus the
// given one, clearing the backlog. The caller frees the batch once its
// fence is observed signaled.
func (b *Backend) takePending(cmdBuf hal.CommandBuffer) []hal.CommandBuffer {
	b.mu.Lock()
	defer b.mu.Unlock()
	batch := append(b.pending, cmdBuf)
	b.pending = nil
	return batch
}

// ExecuteGraph encodes the compiled passes into a command buffer and
// submits it. Wait semaphores are honored CPU-side before encoding; the
// queue's FIFO order guarantees GPU-side ordering against earlier
// submissions. The fence, when non-nil, signals GPU completion.
func (b *Backend) ExecuteGraph(g *framegraph.Graph, compiled *framegraph.CompiledGraph,
	waits []framegraph.Semaphore, signal framegraph.Semaphore, fence framegraph.Fence) error {

	b.mu.Lock()
	device := b.device
	queue := b.queue
	ready := b.gpuReady
	b.mu.Unlock()
	if !ready {
		return framegraph.ErrNotInitialized
	}

	for _, w := range waits {
		if ds, ok := w.(*framegraph.DummySemaphore); ok {
			ds.Wait()
		}
	}

	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "framegraph_submission",
	})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("framegraph_frame"); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}

	b.rec.begin(encoder)
	execErr := b.Executor(g).Execute(g, compiled, b.rec)
	b.rec.end()
	if execErr != nil {
		encoder.DiscardEncoding()
		return execErr
	}

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}

	var halSubmitFence *gpuFence
	if f, ok := fence.(*gpuFence); ok && f != nil {
		halSubmitFence = f
	}
	if halSubmitFence != nil {
		err = queue.Submit([]hal.CommandBuffer{cmdBuf}, halSubmitFence.fence, 1)
	} else {
		err = queue.Submit([]hal.CommandBuffer{cmdBuf}, nil, 0)
	}
	if err != nil {
		device.FreeCommandBuffer(cmdBuf)
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	if halSubmitFence != nil {
		// The queue is FIFO, so when this fence signals every earlier
		// fence-less submission has completed too; free the whole batch.
		batch := b.takePending(cmdBuf)
		halSubmitFence.onSignal(func() {
			for _, cb := range batch {
				device.FreeCommandBuffer(cb)
			}
		})
	} else {
		// No fence to observe completion through. Retain the buffer
		// until a later fenced submission signals, or Close.
		b.trackPending(cmdBuf)
	}

	if ds, ok := signal.(*framegraph.DummySemaphore); ok {
		ds.Signal()
	}
	return nil
}
