package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/tesseract/engine/core"
)

type VulkanImage struct {
	Handle vk.Image
	Memory vk.DeviceMemory
	View   vk.ImageView
	Width  uint32
	Height uint32
}

/**
 * @brief Creates a 2D optimal-tiling image with its own dedicated memory
 * and, when createView is set, a view over viewAspect.
 */
func ImageCreate(context *VulkanContext, width, height uint32, format vk.Format, usage vk.ImageUsageFlags, memoryFlags vk.MemoryPropertyFlags, createView bool, viewAspect vk.ImageAspectFlags) (*VulkanImage, error) {
	image := &VulkanImage{Width: width, Height: height}
	device := context.Device.LogicalDevice

	imageCreateInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        format,
		Tiling:        vk.ImageTilingOptimal,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         usage,
		Samples:       vk.SampleCount1Bit,
		SharingMode:   vk.SharingModeExclusive,
	}
	var handle vk.Image
	if res := vk.CreateImage(device, &imageCreateInfo, context.Allocator, &handle); res != vk.Success {
		return nil, fmt.Errorf("vkCreateImage failed with %s", VulkanResultString(res, true))
	}
	image.Handle = handle

	var memoryRequirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(device, handle, &memoryRequirements)
	memoryRequirements.Deref()

	memoryType := context.FindMemoryIndex(memoryRequirements.MemoryTypeBits, uint32(memoryFlags))
	if memoryType < 0 {
		image.Destroy(context)
		return nil, fmt.Errorf("image memory: %w", core.ErrAllocationFailed)
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memoryRequirements.Size,
		MemoryTypeIndex: uint32(memoryType),
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(device, &allocateInfo, context.Allocator, &memory); res != vk.Success {
		image.Destroy(context)
		return nil, fmt.Errorf("vkAllocateMemory failed with %s: %w", VulkanResultString(res, true), core.ErrAllocationFailed)
	}
	image.Memory = memory

	if res := vk.BindImageMemory(device, handle, memory, 0); res != vk.Success {
		image.Destroy(context)
		return nil, fmt.Errorf("vkBindImageMemory failed with %s", VulkanResultString(res, true))
	}

	if createView {
		if err := image.createView(context, format, viewAspect); err != nil {
			image.Destroy(context)
			return nil, err
		}
	}
	return image, nil
}

func (vi *VulkanImage) createView(context *VulkanContext, format vk.Format, aspect vk.ImageAspectFlags) error {
	viewCreateInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    vi.Handle,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: aspect,
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	var view vk.ImageView
	if res := vk.CreateImageView(context.Device.LogicalDevice, &viewCreateInfo, context.Allocator, &view); res != vk.Success {
		return fmt.Errorf("vkCreateImageView failed with %s", VulkanResultString(res, true))
	}
	vi.View = view
	return nil
}

func (vi *VulkanImage) Destroy(context *VulkanContext) {
	device := context.Device.LogicalDevice
	if vi.View != vk.NullImageView {
		vk.DestroyImageView(device, vi.View, context.Allocator)
		vi.View = vk.NullImageView
	}
	if vi.Handle != vk.NullImage {
		vk.DestroyImage(device, vi.Handle, context.Allocator)
		vi.Handle = vk.NullImage
	}
	if vi.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(device, vi.Memory, context.Allocator)
		vi.Memory = vk.NullDeviceMemory
	}
}
