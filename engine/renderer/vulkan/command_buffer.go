package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/tesseract/engine/core"
)

type VulkanCommandBufferState int

const (
	COMMAND_BUFFER_STATE_READY VulkanCommandBufferState = iota
	COMMAND_BUFFER_STATE_RECORDING
	COMMAND_BUFFER_STATE_IN_RENDER_PASS
	COMMAND_BUFFER_STATE_RECORDING_ENDED
	COMMAND_BUFFER_STATE_SUBMITTED
	COMMAND_BUFFER_STATE_NOT_ALLOCATED
)

type VulkanCommandBuffer struct {
	Handle vk.CommandBuffer
	State  VulkanCommandBufferState
}

// AllocateCommandBuffers allocates count primary command buffers from pool.
func AllocateCommandBuffers(context *VulkanContext, pool vk.CommandPool, count uint32) ([]*VulkanCommandBuffer, error) {
	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		CommandBufferCount: count,
		Level:              vk.CommandBufferLevelPrimary,
	}

	handles := make([]vk.CommandBuffer, count)
	err := context.locks.SafeCall(CommandBufferManagement, func() error {
		if res := vk.AllocateCommandBuffers(context.Device.LogicalDevice, &allocateInfo, handles); res != vk.Success {
			return fmt.Errorf("vkAllocateCommandBuffers failed with %s", VulkanResultString(res, true))
		}
		return nil
	})
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	buffers := make([]*VulkanCommandBuffer, count)
	for i, handle := range handles {
		buffers[i] = &VulkanCommandBuffer{Handle: handle, State: COMMAND_BUFFER_STATE_READY}
	}
	return buffers, nil
}

func FreeCommandBuffers(context *VulkanContext, pool vk.CommandPool, buffers []*VulkanCommandBuffer) {
	if len(buffers) == 0 {
		return
	}
	handles := make([]vk.CommandBuffer, len(buffers))
	for i, cb := range buffers {
		handles[i] = cb.Handle
	}
	_ = context.locks.SafeCall(CommandBufferManagement, func() error {
		vk.FreeCommandBuffers(context.Device.LogicalDevice, pool, uint32(len(handles)), handles)
		return nil
	})
	for _, cb := range buffers {
		cb.Handle = nil
		cb.State = COMMAND_BUFFER_STATE_NOT_ALLOCATED
	}
}

// Begin starts recording. The pool allows individual resets, so beginning also discards the previous recording.
func (v *VulkanCommandBuffer) Begin(isSingleUse bool) error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if isSingleUse {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	if res := vk.BeginCommandBuffer(v.Handle, &beginInfo); res != vk.Success {
		return fmt.Errorf("vkBeginCommandBuffer failed with %s", VulkanResultString(res, true))
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING
	return nil
}

func (v *VulkanCommandBuffer) End() error {
	if res := vk.EndCommandBuffer(v.Handle); res != vk.Success {
		return fmt.Errorf("vkEndCommandBuffer failed with %s", VulkanResultString(res, true))
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING_ENDED
	return nil
}

func (v *VulkanCommandBuffer) UpdateSubmitted() {
	v.State = COMMAND_BUFFER_STATE_SUBMITTED
}

/**
 * @brief Ends recording and submits the buffer to queue without waiting.
 * The caller decides how to observe completion.
 */
func (v *VulkanCommandBuffer) EndAndSubmit(context *VulkanContext, queue vk.Queue, queueFamily uint32) error {
	if err := v.End(); err != nil {
		return err
	}
	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{v.Handle},
	}
	err := context.locks.SafeQueueCall(queueFamily, func() error {
		if res := vk.QueueSubmit(queue, 1, []vk.SubmitInfo{submitInfo}, vk.NullFence); res != vk.Success {
			return fmt.Errorf("vkQueueSubmit failed with %s", VulkanResultString(res, true))
		}
		return nil
	})
	if err != nil {
		return err
	}
	v.UpdateSubmitted()
	return nil
}
