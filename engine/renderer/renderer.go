package renderer

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/spaghettifunk/tesseract/engine/containers"
	"github.com/spaghettifunk/tesseract/engine/core"
	"github.com/spaghettifunk/tesseract/engine/math"
	"github.com/spaghettifunk/tesseract/engine/renderer/buffer"
	"github.com/spaghettifunk/tesseract/engine/renderer/components"
	"github.com/spaghettifunk/tesseract/engine/renderer/metadata"
)

// MAX_FRAMES_IN_FLIGHT is the number of frames the CPU may record ahead of the GPU.
const MAX_FRAMES_IN_FLIGHT = 2

// Camera produces the per-frame uniform payload.
type Camera interface {
	UpdateView()
	Data(model math.Mat5) components.UniformPayload
}

// Scene is the single mesh drawn every frame.
type Scene interface {
	Vertices() []metadata.Vertex4
	Indices() []uint16
	Transform() math.Mat5
}

type FrameState int

const (
	FRAME_STATE_IDLE FrameState = iota
	FRAME_STATE_ACQUIRING
	FRAME_STATE_RECORDING
	FRAME_STATE_SUBMITTED
	FRAME_STATE_PRESENTING
)

func (s FrameState) String() string {
	switch s {
	case FRAME_STATE_IDLE:
		return "idle"
	case FRAME_STATE_ACQUIRING:
		return "acquiring"
	case FRAME_STATE_RECORDING:
		return "recording"
	case FRAME_STATE_SUBMITTED:
		return "submitted"
	case FRAME_STATE_PRESENTING:
		return "presenting"
	}
	return "unknown"
}

type ChainState int

const (
	CHAIN_STATE_STABLE ChainState = iota
	CHAIN_STATE_REBUILDING
)

// frameSync holds the synchronization objects of one frame slot.
type frameSync struct {
	imageAvailable *metadata.Semaphore
	renderFinished *metadata.Semaphore
	inFlight       *metadata.Fence
}

/**
 * @brief Renderer drives the frame lifecycle: it keeps up to
 * MAX_FRAMES_IN_FLIGHT frames in flight, tracks which frame last used each
 * presentation image, and rebuilds every surface-dependent resource when the
 * presentation chain goes out of date.
 */
type Renderer struct {
	backend RendererBackend
	buffers *buffer.Context
	camera  Camera
	scene   Scene

	extent         metadata.Extent2D
	frames         [MAX_FRAMES_IN_FLIGHT]frameSync
	currentFrame   uint32
	imagesInFlight []*metadata.Fence
	frameState     FrameState
	chainState     ChainState
	rebuildPending bool
	frameNumber    uint64

	setupCommandBuffer *metadata.CommandBuffer
	vertexBuffer       *buffer.Buffer
	indexBuffer        *buffer.Buffer
	indexCount         uint32

	// Surface-dependent resources, one entry per presentation image where it applies.
	swapchain      *metadata.Swapchain
	views          []*metadata.ImageView
	uniforms       []*buffer.Buffer
	descriptorPool *metadata.DescriptorPool
	descriptorSets []*metadata.DescriptorSet
	pipeline       *metadata.Pipeline
	depth          *metadata.DepthAttachment
	framebuffers   []*metadata.Framebuffer
	commandBuffers []*metadata.CommandBuffer

	// static lives as long as the renderer, chain is rebuilt with the presentation chain.
	static *containers.ResourceArena
	chain  *containers.ResourceArena
}

func New(backend RendererBackend, camera Camera, scene Scene) *Renderer {
	return &Renderer{
		backend: backend,
		buffers: buffer.NewContext(backend.BufferDevice(), backend.BufferAllocator()),
		camera:  camera,
		scene:   scene,
		static:  containers.NewResourceArena("static"),
		chain:   containers.NewResourceArena("presentation"),
	}
}

/**
 * @brief Creates the frame slots, uploads the scene geometry to device-local
 * memory and builds the presentation chain for the given surface size.
 */
func (r *Renderer) Initialize(extent metadata.Extent2D) error {
	r.extent = extent

	for i := range r.frames {
		if err := r.createFrameSync(i); err != nil {
			return err
		}
	}

	cbs, err := r.backend.AllocateCommandBuffers(1)
	if err != nil {
		err = fmt.Errorf("failed to allocate setup command buffer: %w", err)
		core.LogError(err.Error())
		return err
	}
	r.setupCommandBuffer = cbs[0]
	r.static.Push("setup command buffer", func() error {
		r.backend.FreeCommandBuffers(cbs)
		return nil
	})

	if err := r.uploadGeometry(); err != nil {
		return err
	}

	if err := r.RecreateSwapchain(); err != nil {
		return err
	}
	core.LogInfo("Renderer initialized with %d presentation images.", r.ImageCount())
	return nil
}

func (r *Renderer) createFrameSync(i int) error {
	imageAvailable, err := r.backend.CreateSemaphore()
	if err != nil {
		return fmt.Errorf("frame %d: image available semaphore: %w", i, err)
	}
	r.static.Push(fmt.Sprintf("frame %d image available", i), func() error {
		r.backend.DestroySemaphore(imageAvailable)
		return nil
	})

	renderFinished, err := r.backend.CreateSemaphore()
	if err != nil {
		return fmt.Errorf("frame %d: render finished semaphore: %w", i, err)
	}
	r.static.Push(fmt.Sprintf("frame %d render finished", i), func() error {
		r.backend.DestroySemaphore(renderFinished)
		return nil
	})

	// Created signaled so the first wait on each slot returns immediately.
	inFlight, err := r.backend.CreateFence(true)
	if err != nil {
		return fmt.Errorf("frame %d: in flight fence: %w", i, err)
	}
	r.static.Push(fmt.Sprintf("frame %d in flight", i), func() error {
		r.backend.DestroyFence(inFlight)
		return nil
	})

	r.frames[i] = frameSync{
		imageAvailable: imageAvailable,
		renderFinished: renderFinished,
		inFlight:       inFlight,
	}
	return nil
}

func (r *Renderer) uploadGeometry() error {
	vertices := r.scene.Vertices()
	indices := r.scene.Indices()
	if len(vertices) == 0 || len(indices) == 0 {
		err := fmt.Errorf("scene has no geometry (%d vertices, %d indices)", len(vertices), len(indices))
		core.LogError(err.Error())
		return err
	}

	vb, err := uploadStaged(r, "vertex buffer", vertices, metadata.BUFFER_USAGE_VERTEX)
	if err != nil {
		return err
	}
	r.vertexBuffer = vb
	r.static.Push("vertex buffer", vb.Destroy)

	ib, err := uploadStaged(r, "index buffer", indices, metadata.BUFFER_USAGE_INDEX)
	if err != nil {
		return err
	}
	r.indexBuffer = ib
	r.indexCount = uint32(len(indices))
	r.static.Push("index buffer", ib.Destroy)
	return nil
}

// uploadStaged copies data into a new device-local buffer through a host-visible staging buffer.
func uploadStaged[T any](r *Renderer, name string, data []T, usage metadata.BufferUsage) (*buffer.Buffer, error) {
	var zero T
	size := uint64(len(data)) * uint64(unsafe.Sizeof(zero))

	staging, err := buffer.NewBuffer(r.buffers, name+" staging", size, metadata.BUFFER_USAGE_TRANSFER_SRC, metadata.MEMORY_LOCATION_CPU_TO_GPU)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy()

	if err := buffer.SetData(staging, data); err != nil {
		return nil, err
	}

	dst, err := buffer.NewBuffer(r.buffers, name, size, usage|metadata.BUFFER_USAGE_TRANSFER_DST, metadata.MEMORY_LOCATION_GPU_ONLY)
	if err != nil {
		return nil, err
	}
	if err := dst.TransformFrom(r.backend.GraphicsQueue(), r.setupCommandBuffer, staging); err != nil {
		_ = dst.Destroy()
		return nil, err
	}
	return dst, nil
}

// Shutdown waits for the device, then releases the presentation chain and everything else.
func (r *Renderer) Shutdown() error {
	if err := r.backend.WaitIdle(); err != nil {
		core.LogError("wait idle before shutdown failed: %s", err.Error())
	}
	err := errors.Join(r.chain.ReleaseAll(), r.static.ReleaseAll())
	r.resetChainState()
	if err != nil {
		core.LogError(err.Error())
	}
	return err
}

// ImageCount returns the number of presentation images, 0 when no chain exists.
func (r *Renderer) ImageCount() int {
	return len(r.views)
}

func (r *Renderer) Extent() metadata.Extent2D {
	return r.extent
}

func (r *Renderer) CurrentFrame() uint32 {
	return r.currentFrame
}

func (r *Renderer) FrameState() FrameState {
	return r.frameState
}

func (r *Renderer) ChainState() ChainState {
	return r.chainState
}

// FrameNumber counts the frames submitted so far.
func (r *Renderer) FrameNumber() uint64 {
	return r.frameNumber
}
