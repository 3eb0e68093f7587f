package vulkan

import (
	"fmt"
	"math"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/tesseract/engine/core"
)

type VulkanSwapchain struct {
	Handle      vk.Swapchain
	ImageFormat vk.SurfaceFormat
	Extent      vk.Extent2D
	Images      []vk.Image
}

type VulkanSwapchainSupportInfo struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

/**
 * @brief Creates a swapchain for the context surface. Surface capabilities
 * are queried again every time since they change with the window size.
 */
func SwapchainCreate(context *VulkanContext, width, height uint32) (*VulkanSwapchain, error) {
	support := context.Device.SwapchainSupport
	if err := DeviceQuerySwapchainSupport(context.Device.PhysicalDevice, context.Surface, support); err != nil {
		return nil, err
	}
	if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		return nil, fmt.Errorf("surface reports no formats or present modes")
	}

	caps := support.Capabilities
	swapchain := &VulkanSwapchain{
		ImageFormat: chooseSurfaceFormat(support.Formats),
		Extent: chooseExtent(caps.CurrentExtent, caps.MinImageExtent, caps.MaxImageExtent,
			vk.Extent2D{Width: width, Height: height}),
	}
	presentMode := choosePresentMode(support.PresentModes)
	imageCount := chooseImageCount(caps.MinImageCount, caps.MaxImageCount)

	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          context.Surface,
		MinImageCount:    imageCount,
		ImageFormat:      swapchain.ImageFormat.Format,
		ImageColorSpace:  swapchain.ImageFormat.ColorSpace,
		ImageExtent:      swapchain.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
	}
	if context.Device.GraphicsQueueIndex != context.Device.PresentQueueIndex {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeConcurrent
		swapchainCreateInfo.QueueFamilyIndexCount = 2
		swapchainCreateInfo.PQueueFamilyIndices = []uint32{
			uint32(context.Device.GraphicsQueueIndex),
			uint32(context.Device.PresentQueueIndex),
		}
	} else {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeExclusive
	}

	var handle vk.Swapchain
	if res := vk.CreateSwapchain(context.Device.LogicalDevice, &swapchainCreateInfo, context.Allocator, &handle); res != vk.Success {
		err := fmt.Errorf("vkCreateSwapchainKHR failed with %s", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	swapchain.Handle = handle

	var count uint32
	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, handle, &count, nil); res != vk.Success {
		vk.DestroySwapchain(context.Device.LogicalDevice, handle, context.Allocator)
		return nil, fmt.Errorf("failed to get swapchain images: %s", VulkanResultString(res, false))
	}
	swapchain.Images = make([]vk.Image, count)
	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, handle, &count, swapchain.Images); res != vk.Success {
		vk.DestroySwapchain(context.Device.LogicalDevice, handle, context.Allocator)
		return nil, fmt.Errorf("failed to get swapchain images: %s", VulkanResultString(res, false))
	}

	context.ImageFormat = swapchain.ImageFormat
	core.LogInfo("Swapchain created: %dx%d, %d images.", swapchain.Extent.Width, swapchain.Extent.Height, count)
	return swapchain, nil
}

// SwapchainDestroy destroys the swapchain. Its images go with it, views must already be gone.
func (vs *VulkanSwapchain) SwapchainDestroy(context *VulkanContext) {
	vk.DestroySwapchain(context.Device.LogicalDevice, vs.Handle, context.Allocator)
	vs.Handle = vk.NullSwapchain
	vs.Images = nil
}

func (vs *VulkanSwapchain) CreateImageView(context *VulkanContext, index uint32) (vk.ImageView, error) {
	viewInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    vs.Images[index],
		ViewType: vk.ImageViewType2d,
		Format:   vs.ImageFormat.Format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	var view vk.ImageView
	if res := vk.CreateImageView(context.Device.LogicalDevice, &viewInfo, context.Allocator, &view); res != vk.Success {
		return vk.NullImageView, fmt.Errorf("vkCreateImageView failed with %s", VulkanResultString(res, true))
	}
	return view, nil
}

/**
 * @brief Acquires the next presentable image. A suboptimal chain still
 * hands out a usable image; only an out-of-date one is reported.
 */
func (vs *VulkanSwapchain) AcquireNextImageIndex(context *VulkanContext, imageAvailable vk.Semaphore) (uint32, error) {
	var index uint32
	res := vk.AcquireNextImage(context.Device.LogicalDevice, vs.Handle, vk.MaxUint64, imageAvailable, vk.NullFence, &index)
	switch res {
	case vk.Success, vk.Suboptimal:
		return index, nil
	case vk.ErrorOutOfDate:
		return 0, core.ErrSwapchainOutOfDate
	}
	return 0, fmt.Errorf("vkAcquireNextImageKHR failed with %s", VulkanResultString(res, true))
}

// Present queues the image for presentation. Suboptimal and out-of-date both ask for a rebuild.
func (vs *VulkanSwapchain) Present(context *VulkanContext, renderComplete vk.Semaphore, imageIndex uint32) error {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{renderComplete},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{vs.Handle},
		PImageIndices:      []uint32{imageIndex},
	}
	var res vk.Result
	err := context.locks.SafeQueueCall(uint32(context.Device.PresentQueueIndex), func() error {
		res = vk.QueuePresent(context.Device.PresentQueue, &presentInfo)
		return nil
	})
	if err != nil {
		return err
	}
	switch res {
	case vk.Success:
		return nil
	case vk.Suboptimal, vk.ErrorOutOfDate:
		return core.ErrSwapchainOutOfDate
	}
	return fmt.Errorf("vkQueuePresentKHR failed with %s", VulkanResultString(res, true))
}

// chooseSurfaceFormat prefers 8-bit BGRA in sRGB, otherwise the first format offered.
func chooseSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, format := range formats {
		if format.Format == vk.FormatB8g8r8a8Unorm && format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return format
		}
	}
	return formats[0]
}

// choosePresentMode prefers mailbox. FIFO is always available.
func choosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, mode := range modes {
		if mode == vk.PresentModeMailbox {
			return mode
		}
	}
	return vk.PresentModeFifo
}

/**
 * @brief The surface dictates the extent unless it reports the special
 * value 0xFFFFFFFF, in which case the window size is clamped to the range
 * the surface allows.
 */
func chooseExtent(current, min, max, desired vk.Extent2D) vk.Extent2D {
	if current.Width != math.MaxUint32 {
		return vk.Extent2D{Width: current.Width, Height: current.Height}
	}
	return vk.Extent2D{
		Width:  MathClamp(desired.Width, min.Width, max.Width),
		Height: MathClamp(desired.Height, min.Height, max.Height),
	}
}

// chooseImageCount asks for one image more than the minimum. A maximum of 0 means unbounded.
func chooseImageCount(min, max uint32) uint32 {
	count := min + 1
	if max > 0 && count > max {
		count = max
	}
	return count
}
