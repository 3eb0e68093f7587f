package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/tesseract/engine/core"
)

type VulkanFence struct {
	Handle vk.Fence
	// Set once a wait has observed the fence signaled, cleared by a reset.
	IsSignaled bool
}

func NewFence(context *VulkanContext, createSignaled bool) (*VulkanFence, error) {
	fence := &VulkanFence{IsSignaled: createSignaled}

	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if createSignaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var handle vk.Fence
	if res := vk.CreateFence(context.Device.LogicalDevice, &fenceCreateInfo, context.Allocator, &handle); res != vk.Success {
		err := fmt.Errorf("vkCreateFence failed with %s", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	fence.Handle = handle
	return fence, nil
}

func (vf *VulkanFence) Destroy(context *VulkanContext) {
	if vf.Handle != vk.NullFence {
		vk.DestroyFence(context.Device.LogicalDevice, vf.Handle, context.Allocator)
		vf.Handle = vk.NullFence
	}
	vf.IsSignaled = false
}

/**
 * @brief Blocks until the fence is signaled. There is no timeout: a wait
 * that fails means the device can no longer be trusted.
 */
func (vf *VulkanFence) Wait(context *VulkanContext) error {
	if vf.IsSignaled {
		return nil
	}
	res := vk.WaitForFences(context.Device.LogicalDevice, 1, []vk.Fence{vf.Handle}, vk.True, vk.MaxUint64)
	if res == vk.Success {
		vf.IsSignaled = true
		return nil
	}
	return fmt.Errorf("vkWaitForFences: %s: %w", VulkanResultString(res, true), core.ErrDeviceLost)
}

func (vf *VulkanFence) Reset(context *VulkanContext) error {
	if !vf.IsSignaled {
		return nil
	}
	if res := vk.ResetFences(context.Device.LogicalDevice, 1, []vk.Fence{vf.Handle}); res != vk.Success {
		return fmt.Errorf("vkResetFences failed with %s", VulkanResultString(res, true))
	}
	vf.IsSignaled = false
	return nil
}

func NewSemaphore(context *VulkanContext) (vk.Semaphore, error) {
	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var semaphore vk.Semaphore
	if res := vk.CreateSemaphore(context.Device.LogicalDevice, &semaphoreCreateInfo, context.Allocator, &semaphore); res != vk.Success {
		err := fmt.Errorf("vkCreateSemaphore failed with %s", VulkanResultString(res, true))
		core.LogError(err.Error())
		return vk.NullSemaphore, err
	}
	return semaphore, nil
}
