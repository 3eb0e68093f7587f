package buffer

import (
	"fmt"
	"unsafe"

	"github.com/google/uuid"

	"github.com/spaghettifunk/tesseract/engine/core"
	"github.com/spaghettifunk/tesseract/engine/renderer/metadata"
)

/**
 * @brief A device buffer together with the memory bound to it.
 * Buffers in MEMORY_LOCATION_CPU_TO_GPU can be written with SetData;
 * MEMORY_LOCATION_GPU_ONLY buffers are filled with TransformFrom.
 */
type Buffer struct {
	ctx        *Context
	name       string
	size       uint64
	usage      metadata.BufferUsage
	location   metadata.MemoryLocation
	handle     *metadata.BufferHandle
	allocation *Allocation
}

// NewBuffer creates a buffer of size bytes, allocates its memory and binds it.
func NewBuffer(ctx *Context, name string, size uint64, usage metadata.BufferUsage, location metadata.MemoryLocation) (*Buffer, error) {
	if size == 0 {
		err := fmt.Errorf("buffer %s: size must be greater than zero: %w", name, core.ErrAllocationFailed)
		core.LogError(err.Error())
		return nil, err
	}

	handle, reqs, err := ctx.device.CreateBuffer(size, usage)
	if err != nil {
		err = fmt.Errorf("buffer %s: create: %w: %w", name, core.ErrAllocationFailed, err)
		core.LogError(err.Error())
		return nil, err
	}

	allocation, err := ctx.allocator.Allocate(AllocationDesc{
		Name:         fmt.Sprintf("%s-%s", name, uuid.NewString()),
		Requirements: reqs,
		Location:     location,
		Linear:       true,
	})
	if err != nil {
		ctx.device.DestroyBuffer(handle)
		err = fmt.Errorf("buffer %s: allocate %d bytes (%s): %w: %w", name, reqs.Size, location, core.ErrAllocationFailed, err)
		core.LogError(err.Error())
		return nil, err
	}

	if err := ctx.device.BindBufferMemory(handle, allocation); err != nil {
		_ = ctx.allocator.Free(allocation)
		ctx.device.DestroyBuffer(handle)
		err = fmt.Errorf("buffer %s: bind memory: %w: %w", name, core.ErrAllocationFailed, err)
		core.LogError(err.Error())
		return nil, err
	}

	return &Buffer{
		ctx:        ctx,
		name:       name,
		size:       size,
		usage:      usage,
		location:   location,
		handle:     handle,
		allocation: allocation,
	}, nil
}

func (b *Buffer) Name() string {
	return b.name
}

func (b *Buffer) Size() uint64 {
	return b.size
}

func (b *Buffer) Usage() metadata.BufferUsage {
	return b.usage
}

func (b *Buffer) Location() metadata.MemoryLocation {
	return b.location
}

func (b *Buffer) Handle() *metadata.BufferHandle {
	return b.handle
}

func (b *Buffer) Allocation() *Allocation {
	return b.allocation
}

/**
 * @brief Copies data into the buffer's mapped memory, each element at the
 * stride given by its size rounded up to its alignment. The buffer must be
 * host visible and large enough; violating either is a programming error.
 */
func SetData[T any](b *Buffer, data []T) error {
	if b.handle == nil {
		return fmt.Errorf("buffer %s: set data on destroyed buffer", b.name)
	}
	if b.allocation.Mapped == nil {
		err := fmt.Errorf("buffer %s (%s): %w", b.name, b.location, core.ErrNotHostVisible)
		core.LogError(err.Error())
		return err
	}
	if len(data) == 0 {
		return nil
	}

	var zero T
	elemSize := uint64(unsafe.Sizeof(zero))
	stride := metadata.GetAligned(elemSize, uint64(unsafe.Alignof(zero)))
	total := stride*uint64(len(data)-1) + elemSize
	if total > b.size || total > uint64(len(b.allocation.Mapped)) {
		err := fmt.Errorf("buffer %s: %d bytes into %d: %w", b.name, total, b.size, core.ErrBufferOverflow)
		core.LogError(err.Error())
		return err
	}

	src := unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), uintptr(stride)*uintptr(len(data)-1)+uintptr(elemSize))
	for i := range data {
		off := uint64(i) * stride
		copy(b.allocation.Mapped[off:off+elemSize], src[off:off+elemSize])
	}
	return nil
}

/**
 * @brief Fills this buffer with the whole content of src through a one-time
 * command buffer on queue, then blocks until the device is idle.
 */
func (b *Buffer) TransformFrom(queue *metadata.Queue, cmd *metadata.CommandBuffer, src *Buffer) error {
	if src == nil || src.handle == nil || b.handle == nil {
		return fmt.Errorf("buffer %s: transfer with destroyed buffer", b.name)
	}
	if src.size > b.size {
		err := fmt.Errorf("buffer %s: transfer %d bytes from %s into %d: %w", b.name, src.size, src.name, b.size, core.ErrBufferOverflow)
		core.LogError(err.Error())
		return err
	}
	if err := b.ctx.device.CopyBuffer(queue, cmd, src.handle, b.handle, src.size); err != nil {
		err = fmt.Errorf("buffer %s: copy from %s: %w", b.name, src.name, err)
		core.LogError(err.Error())
		return err
	}
	if err := b.ctx.device.WaitIdle(); err != nil {
		err = fmt.Errorf("buffer %s: wait idle after copy: %w", b.name, err)
		core.LogError(err.Error())
		return err
	}
	return nil
}

// Destroy returns the memory to the allocator and destroys the buffer. Safe to call twice.
func (b *Buffer) Destroy() error {
	if b.handle == nil {
		return nil
	}
	var err error
	if b.allocation != nil {
		if ferr := b.ctx.allocator.Free(b.allocation); ferr != nil {
			err = fmt.Errorf("buffer %s: free allocation: %w", b.name, ferr)
			core.LogError(err.Error())
		}
		b.allocation = nil
	}
	b.ctx.device.DestroyBuffer(b.handle)
	b.handle = nil
	return err
}
