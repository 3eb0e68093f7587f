package buffer

import (
	"sync"

	"github.com/spaghettifunk/tesseract/engine/renderer/metadata"
)

// Device is the part of the graphics device the buffer manager needs.
type Device interface {
	// CreateBuffer creates a buffer object with no memory bound to it.
	CreateBuffer(size uint64, usage metadata.BufferUsage) (*metadata.BufferHandle, metadata.MemoryRequirements, error)
	BindBufferMemory(buffer *metadata.BufferHandle, allocation *Allocation) error
	DestroyBuffer(buffer *metadata.BufferHandle)
	// CopyBuffer records size bytes from src to dst into a one-time command
	// buffer and submits it to queue. It does not wait for completion.
	CopyBuffer(queue *metadata.Queue, cmd *metadata.CommandBuffer, src, dst *metadata.BufferHandle, size uint64) error
	WaitIdle() error
}

type AllocationDesc struct {
	Name         string
	Requirements metadata.MemoryRequirements
	Location     metadata.MemoryLocation
	// Buffers are always linear.
	Linear bool
}

/**
 * @brief A block of device memory backing a resource. Mapped is the
 * persistent host mapping and is nil for memory the host cannot see.
 */
type Allocation struct {
	Name         string
	Size         uint64
	Offset       uint64
	Location     metadata.MemoryLocation
	Mapped       []byte
	InternalData interface{}
}

// Allocator hands out device memory. Implementations need not be thread safe.
type Allocator interface {
	Allocate(desc AllocationDesc) (*Allocation, error)
	Free(allocation *Allocation) error
}

// SharedAllocator serializes every call to the wrapped allocator.
type SharedAllocator struct {
	mu    sync.Mutex
	inner Allocator
}

func NewSharedAllocator(inner Allocator) *SharedAllocator {
	return &SharedAllocator{inner: inner}
}

func (s *SharedAllocator) Allocate(desc AllocationDesc) (*Allocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Allocate(desc)
}

func (s *SharedAllocator) Free(allocation *Allocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Free(allocation)
}

/**
 * @brief Context owns the device and the shared allocator every buffer is
 * created from. Create one per device and pass it to NewBuffer.
 */
type Context struct {
	device    Device
	allocator *SharedAllocator
}

func NewContext(device Device, allocator Allocator) *Context {
	return &Context{
		device:    device,
		allocator: NewSharedAllocator(allocator),
	}
}

func (c *Context) Device() Device {
	return c.device
}
