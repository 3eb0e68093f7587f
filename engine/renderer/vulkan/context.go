package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/tesseract/engine/core"
)

type VulkanContext struct {
	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks
	Surface   vk.Surface

	// Only set when validation is enabled.
	debugMessenger vk.DebugReportCallback

	Device *VulkanDevice

	// Layout of the single uniform block bound at set 0, binding 0.
	DescriptorSetLayout vk.DescriptorSetLayout

	// The image format of the current swapchain, used by the render pass.
	ImageFormat vk.SurfaceFormat

	locks *VulkanLockPool
}

// FindMemoryIndex returns the first memory type allowed by typeFilter that has every propertyFlags bit, or -1.
func (vc *VulkanContext) FindMemoryIndex(typeFilter, propertyFlags uint32) int32 {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(vc.Device.PhysicalDevice, &memoryProperties)
	memoryProperties.Deref()

	types := make([]uint32, memoryProperties.MemoryTypeCount)
	for i := uint32(0); i < memoryProperties.MemoryTypeCount; i++ {
		memoryProperties.MemoryTypes[i].Deref()
		types[i] = uint32(memoryProperties.MemoryTypes[i].PropertyFlags)
	}
	index := findMemoryType(types, typeFilter, propertyFlags)
	if index < 0 {
		core.LogWarn("Unable to find suitable memory type!")
	}
	return index
}

func findMemoryType(types []uint32, typeFilter, propertyFlags uint32) int32 {
	for i, flags := range types {
		// Check each memory type to see if its bit is set to 1.
		if typeFilter&(1<<uint(i)) != 0 && flags&propertyFlags == propertyFlags {
			return int32(i)
		}
	}
	return -1
}
