package metadata

type RendererBackendConfig struct {
	/** @brief The name of the application */
	ApplicationName string
	/** @brief Enables the validation layers and the debug report callback. */
	EnableValidation bool
	/** @brief Directory holding the compiled SPIR-V stages. */
	ShaderDir string
}

/** @brief The size of a drawable surface in pixels. */
type Extent2D struct {
	Width  uint32
	Height uint32
}

// IsZero reports whether the surface has no drawable area (e.g. a minimized window).
func (e Extent2D) IsZero() bool {
	return e.Width == 0 || e.Height == 0
}

/** @brief Where a buffer's memory lives. */
type MemoryLocation int

const (
	/** @brief Host-visible memory the CPU can write directly. */
	MEMORY_LOCATION_CPU_TO_GPU MemoryLocation = iota
	/** @brief Device-local memory, only reachable through copies. */
	MEMORY_LOCATION_GPU_ONLY
)

func (l MemoryLocation) HostVisible() bool {
	return l == MEMORY_LOCATION_CPU_TO_GPU
}

func (l MemoryLocation) String() string {
	switch l {
	case MEMORY_LOCATION_CPU_TO_GPU:
		return "cpu_to_gpu"
	case MEMORY_LOCATION_GPU_ONLY:
		return "gpu_only"
	}
	return "unknown"
}

/** @brief How a buffer is going to be used. Flags can be combined. */
type BufferUsage uint32

const (
	BUFFER_USAGE_VERTEX       BufferUsage = 0x1
	BUFFER_USAGE_INDEX        BufferUsage = 0x2
	BUFFER_USAGE_UNIFORM      BufferUsage = 0x4
	BUFFER_USAGE_TRANSFER_SRC BufferUsage = 0x8
	BUFFER_USAGE_TRANSFER_DST BufferUsage = 0x10
)

func (u BufferUsage) Has(flag BufferUsage) bool {
	return u&flag == flag
}

/** @brief Memory requirements reported by the device for a resource. */
type MemoryRequirements struct {
	Size           uint64
	Alignment      uint64
	MemoryTypeBits uint32
}

/** @brief A device buffer object without memory attached. */
type BufferHandle struct {
	Size         uint64
	Usage        BufferUsage
	InternalData interface{}
}

/** @brief A device queue submissions are sent to. */
type Queue struct {
	Name         string
	InternalData interface{}
}

type CommandBufferState int

const (
	COMMAND_BUFFER_STATE_READY CommandBufferState = iota
	COMMAND_BUFFER_STATE_RECORDING
	COMMAND_BUFFER_STATE_RECORDING_ENDED
	COMMAND_BUFFER_STATE_SUBMITTED
	COMMAND_BUFFER_STATE_NOT_ALLOCATED
)

type CommandBuffer struct {
	State        CommandBufferState
	InternalData interface{}
}

/** @brief GPU-GPU synchronization primitive. */
type Semaphore struct {
	InternalData interface{}
}

/** @brief GPU-CPU synchronization primitive. */
type Fence struct {
	InternalData interface{}
}

/** @brief The chain of images presented to the surface. */
type Swapchain struct {
	Extent       Extent2D
	ImageCount   uint32
	InternalData interface{}
}

type ImageView struct {
	Index        uint32
	InternalData interface{}
}

type DepthAttachment struct {
	Extent       Extent2D
	InternalData interface{}
}

/** @brief The graphics pipeline together with its render pass and layout. */
type Pipeline struct {
	Extent       Extent2D
	InternalData interface{}
}

type Framebuffer struct {
	Extent       Extent2D
	InternalData interface{}
}

type DescriptorPool struct {
	MaxSets      uint32
	InternalData interface{}
}

type DescriptorSet struct {
	InternalData interface{}
}

/** @brief Everything needed to record the draw of one presentation image. */
type DrawCommand struct {
	Pipeline      *Pipeline
	Framebuffer   *Framebuffer
	Extent        Extent2D
	VertexBuffer  *BufferHandle
	IndexBuffer   *BufferHandle
	IndexCount    uint32
	DescriptorSet *DescriptorSet
	ClearColour   [4]float32
	ClearDepth    float32
}
