package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/tesseract/engine/core"
	"github.com/spaghettifunk/tesseract/engine/renderer/buffer"
	"github.com/spaghettifunk/tesseract/engine/renderer/metadata"
)

var (
	_ buffer.Device    = (*VulkanRenderer)(nil)
	_ buffer.Allocator = (*VulkanAllocator)(nil)
)

// vulkanQueue is the internal data of a metadata.Queue.
type vulkanQueue struct {
	Handle vk.Queue
	Family uint32
}

/**
 * @brief Hands out one dedicated device memory block per request. Host
 * visible blocks stay mapped for their whole lifetime.
 */
type VulkanAllocator struct {
	context *VulkanContext
}

func NewVulkanAllocator(context *VulkanContext) *VulkanAllocator {
	return &VulkanAllocator{context: context}
}

func memoryPropertyFlags(location metadata.MemoryLocation) vk.MemoryPropertyFlags {
	if location.HostVisible() {
		return vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit) | vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit)
	}
	return vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
}

func bufferUsageFlags(usage metadata.BufferUsage) vk.BufferUsageFlags {
	var flags vk.BufferUsageFlagBits
	if usage.Has(metadata.BUFFER_USAGE_VERTEX) {
		flags |= vk.BufferUsageVertexBufferBit
	}
	if usage.Has(metadata.BUFFER_USAGE_INDEX) {
		flags |= vk.BufferUsageIndexBufferBit
	}
	if usage.Has(metadata.BUFFER_USAGE_UNIFORM) {
		flags |= vk.BufferUsageUniformBufferBit
	}
	if usage.Has(metadata.BUFFER_USAGE_TRANSFER_SRC) {
		flags |= vk.BufferUsageTransferSrcBit
	}
	if usage.Has(metadata.BUFFER_USAGE_TRANSFER_DST) {
		flags |= vk.BufferUsageTransferDstBit
	}
	return vk.BufferUsageFlags(flags)
}

func (a *VulkanAllocator) Allocate(desc buffer.AllocationDesc) (*buffer.Allocation, error) {
	device := a.context.Device.LogicalDevice
	memoryType := a.context.FindMemoryIndex(desc.Requirements.MemoryTypeBits, uint32(memoryPropertyFlags(desc.Location)))
	if memoryType < 0 {
		return nil, fmt.Errorf("%s: no %s memory type: %w", desc.Name, desc.Location, core.ErrAllocationFailed)
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(desc.Requirements.Size),
		MemoryTypeIndex: uint32(memoryType),
	}
	var memory vk.DeviceMemory
	err := a.context.locks.SafeCall(MemoryManagement, func() error {
		if res := vk.AllocateMemory(device, &allocateInfo, a.context.Allocator, &memory); res != vk.Success {
			return fmt.Errorf("%s: vkAllocateMemory failed with %s: %w", desc.Name, VulkanResultString(res, true), core.ErrAllocationFailed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	allocation := &buffer.Allocation{
		Name:         desc.Name,
		Size:         desc.Requirements.Size,
		Location:     desc.Location,
		InternalData: memory,
	}
	if desc.Location.HostVisible() {
		var ptr unsafe.Pointer
		if res := vk.MapMemory(device, memory, 0, vk.DeviceSize(desc.Requirements.Size), 0, &ptr); res != vk.Success {
			vk.FreeMemory(device, memory, a.context.Allocator)
			return nil, fmt.Errorf("%s: vkMapMemory failed with %s: %w", desc.Name, VulkanResultString(res, true), core.ErrAllocationFailed)
		}
		allocation.Mapped = unsafe.Slice((*byte)(ptr), desc.Requirements.Size)
	}
	return allocation, nil
}

func (a *VulkanAllocator) Free(allocation *buffer.Allocation) error {
	memory, ok := allocation.InternalData.(vk.DeviceMemory)
	if !ok {
		return fmt.Errorf("%s: not a vulkan allocation", allocation.Name)
	}
	device := a.context.Device.LogicalDevice
	return a.context.locks.SafeCall(MemoryManagement, func() error {
		if allocation.Mapped != nil {
			vk.UnmapMemory(device, memory)
			allocation.Mapped = nil
		}
		vk.FreeMemory(device, memory, a.context.Allocator)
		allocation.InternalData = nil
		return nil
	})
}

// CreateBuffer creates an exclusive buffer object and reports what memory it needs.
func (vr *VulkanRenderer) CreateBuffer(size uint64, usage metadata.BufferUsage) (*metadata.BufferHandle, metadata.MemoryRequirements, error) {
	device := vr.context.Device.LogicalDevice
	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       bufferUsageFlags(usage),
		SharingMode: vk.SharingModeExclusive,
	}
	var handle vk.Buffer
	if res := vk.CreateBuffer(device, &bufferInfo, vr.context.Allocator, &handle); res != vk.Success {
		return nil, metadata.MemoryRequirements{}, fmt.Errorf("vkCreateBuffer failed with %s", VulkanResultString(res, true))
	}

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(device, handle, &requirements)
	requirements.Deref()

	return &metadata.BufferHandle{Size: size, Usage: usage, InternalData: handle},
		metadata.MemoryRequirements{
			Size:           uint64(requirements.Size),
			Alignment:      uint64(requirements.Alignment),
			MemoryTypeBits: requirements.MemoryTypeBits,
		}, nil
}

func (vr *VulkanRenderer) BindBufferMemory(handle *metadata.BufferHandle, allocation *buffer.Allocation) error {
	memory, ok := allocation.InternalData.(vk.DeviceMemory)
	if !ok {
		return fmt.Errorf("%s: not a vulkan allocation", allocation.Name)
	}
	if res := vk.BindBufferMemory(vr.context.Device.LogicalDevice, handle.InternalData.(vk.Buffer), memory, vk.DeviceSize(allocation.Offset)); res != vk.Success {
		return fmt.Errorf("vkBindBufferMemory failed with %s", VulkanResultString(res, true))
	}
	return nil
}

func (vr *VulkanRenderer) DestroyBuffer(handle *metadata.BufferHandle) {
	if b, ok := handle.InternalData.(vk.Buffer); ok && b != vk.NullBuffer {
		vk.DestroyBuffer(vr.context.Device.LogicalDevice, b, vr.context.Allocator)
	}
	handle.InternalData = nil
}

// CopyBuffer records the copy into cmd and submits it without a fence.
func (vr *VulkanRenderer) CopyBuffer(queue *metadata.Queue, cmd *metadata.CommandBuffer, src, dst *metadata.BufferHandle, size uint64) error {
	q := queue.InternalData.(*vulkanQueue)
	cb := cmd.InternalData.(*VulkanCommandBuffer)

	if err := cb.Begin(true); err != nil {
		return err
	}
	vk.CmdCopyBuffer(cb.Handle, src.InternalData.(vk.Buffer), dst.InternalData.(vk.Buffer), 1, []vk.BufferCopy{{
		SrcOffset: 0,
		DstOffset: 0,
		Size:      vk.DeviceSize(size),
	}})
	if err := cb.EndAndSubmit(vr.context, q.Handle, q.Family); err != nil {
		return err
	}
	cmd.State = metadata.COMMAND_BUFFER_STATE_SUBMITTED
	return nil
}
