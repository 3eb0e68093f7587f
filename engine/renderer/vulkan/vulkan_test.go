package vulkan

import (
	"math"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"

	"github.com/spaghettifunk/tesseract/engine/renderer/metadata"
)

func TestFindMemoryType(t *testing.T) {
	hostVisible := uint32(vk.MemoryPropertyHostVisibleBit)
	hostCoherent := uint32(vk.MemoryPropertyHostCoherentBit)
	deviceLocal := uint32(vk.MemoryPropertyDeviceLocalBit)
	types := []uint32{deviceLocal, hostVisible, hostVisible | hostCoherent}

	assert.Equal(t, int32(0), findMemoryType(types, 0b111, deviceLocal))
	assert.Equal(t, int32(2), findMemoryType(types, 0b111, hostVisible|hostCoherent))
	// Type 1 is visible but filtered out, type 2 is the first allowed match.
	assert.Equal(t, int32(2), findMemoryType(types, 0b100, hostVisible))
	assert.Equal(t, int32(-1), findMemoryType(types, 0b011, hostCoherent))
	assert.Equal(t, int32(-1), findMemoryType(nil, 0xFFFFFFFF, 0))
}

func TestChooseSurfaceFormat(t *testing.T) {
	preferred := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	other := vk.SurfaceFormat{Format: vk.FormatR8g8b8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear}

	assert.Equal(t, preferred.Format, chooseSurfaceFormat([]vk.SurfaceFormat{other, preferred}).Format)
	assert.Equal(t, other.Format, chooseSurfaceFormat([]vk.SurfaceFormat{other}).Format)
}

func TestChoosePresentMode(t *testing.T) {
	assert.Equal(t, vk.PresentModeMailbox, choosePresentMode([]vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox}))
	assert.Equal(t, vk.PresentModeFifo, choosePresentMode([]vk.PresentMode{vk.PresentModeImmediate}))
}

func TestChooseExtent(t *testing.T) {
	min := vk.Extent2D{Width: 100, Height: 100}
	max := vk.Extent2D{Width: 1000, Height: 800}

	// The surface dictates the size.
	got := chooseExtent(vk.Extent2D{Width: 640, Height: 480}, min, max, vk.Extent2D{Width: 1, Height: 1})
	assert.Equal(t, uint32(640), got.Width)
	assert.Equal(t, uint32(480), got.Height)

	// The window size is clamped.
	undefined := vk.Extent2D{Width: math.MaxUint32, Height: math.MaxUint32}
	got = chooseExtent(undefined, min, max, vk.Extent2D{Width: 2000, Height: 50})
	assert.Equal(t, uint32(1000), got.Width)
	assert.Equal(t, uint32(100), got.Height)
}

func TestChooseImageCount(t *testing.T) {
	assert.Equal(t, uint32(3), chooseImageCount(2, 0))
	assert.Equal(t, uint32(3), chooseImageCount(2, 8))
	assert.Equal(t, uint32(2), chooseImageCount(2, 2))
	assert.Equal(t, uint32(1), chooseImageCount(0, 1))
}

func TestSelectQueueFamilies(t *testing.T) {
	graphics := vk.QueueFlags(vk.QueueGraphicsBit)
	compute := vk.QueueFlags(vk.QueueComputeBit)
	transfer := vk.QueueFlags(vk.QueueTransferBit)

	t.Run("dedicated transfer family wins", func(t *testing.T) {
		info := selectQueueFamilies([]queueFamily{
			{flags: graphics | compute | transfer, supportPresent: true},
			{flags: compute | transfer},
			{flags: transfer},
		})
		assert.Equal(t, int32(0), info.GraphicsFamilyIndex)
		assert.Equal(t, int32(0), info.PresentFamilyIndex)
		assert.Equal(t, int32(2), info.TransferFamilyIndex)
	})

	t.Run("present prefers the graphics family", func(t *testing.T) {
		info := selectQueueFamilies([]queueFamily{
			{flags: compute, supportPresent: true},
			{flags: graphics | transfer, supportPresent: true},
		})
		assert.Equal(t, int32(1), info.GraphicsFamilyIndex)
		assert.Equal(t, int32(1), info.PresentFamilyIndex)
	})

	t.Run("separate present family", func(t *testing.T) {
		info := selectQueueFamilies([]queueFamily{
			{flags: graphics},
			{flags: compute, supportPresent: true},
		})
		assert.Equal(t, int32(0), info.GraphicsFamilyIndex)
		assert.Equal(t, int32(1), info.PresentFamilyIndex)
		// Graphics queues can always transfer.
		assert.Equal(t, int32(0), info.TransferFamilyIndex)
	})

	t.Run("missing present fails the requirements", func(t *testing.T) {
		info := selectQueueFamilies([]queueFamily{{flags: graphics | transfer}})
		assert.Equal(t, int32(-1), info.PresentFamilyIndex)
		assert.False(t, info.meets(&VulkanPhysicalDeviceRequirements{Graphics: true, Present: true}))
		assert.True(t, info.meets(&VulkanPhysicalDeviceRequirements{Graphics: true, Transfer: true}))
	})
}

func TestBufferUsageFlags(t *testing.T) {
	flags := bufferUsageFlags(metadata.BUFFER_USAGE_VERTEX | metadata.BUFFER_USAGE_TRANSFER_DST)
	assert.NotZero(t, flags&vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit))
	assert.NotZero(t, flags&vk.BufferUsageFlags(vk.BufferUsageTransferDstBit))
	assert.Zero(t, flags&vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit))

	assert.Equal(t, vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit), bufferUsageFlags(metadata.BUFFER_USAGE_UNIFORM))
}

func TestMemoryPropertyFlags(t *testing.T) {
	host := memoryPropertyFlags(metadata.MEMORY_LOCATION_CPU_TO_GPU)
	assert.NotZero(t, host&vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit))
	assert.NotZero(t, host&vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit))
	assert.Equal(t, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit), memoryPropertyFlags(metadata.MEMORY_LOCATION_GPU_ONLY))
}

func TestVertex4Layout(t *testing.T) {
	binding := vertex4Binding()
	assert.Equal(t, uint32(28), binding.Stride)

	attributes := vertex4Attributes()
	if assert.Len(t, attributes, 2) {
		assert.Equal(t, uint32(0), attributes[0].Offset)
		assert.Equal(t, vk.FormatR32g32b32a32Sfloat, attributes[0].Format)
		assert.Equal(t, uint32(16), attributes[1].Offset)
		assert.Equal(t, uint32(1), attributes[1].Location)
	}
}

func TestVulkanResultString(t *testing.T) {
	assert.Equal(t, "VK_ERROR_OUT_OF_DATE_KHR", VulkanResultString(vk.ErrorOutOfDate, false))
	assert.Contains(t, VulkanResultString(vk.ErrorDeviceLost, true), "device has been lost")
	assert.Equal(t, "VkResult(-424242)", VulkanResultString(vk.Result(-424242), false))

	assert.True(t, VulkanResultIsSuccess(vk.Suboptimal))
	assert.False(t, VulkanResultIsSuccess(vk.ErrorOutOfDate))
}

func TestVulkanSafeStrings(t *testing.T) {
	assert.Equal(t, "main\x00", VulkanSafeString("main"))
	assert.Equal(t, "main\x00", VulkanSafeString("main\x00"))
	assert.Equal(t, "\x00", VulkanSafeString(""))

	in := []string{"a", "b\x00"}
	assert.Equal(t, []string{"a\x00", "b\x00"}, VulkanSafeStrings(in))
	assert.Equal(t, "a", in[0])
}

func TestShaderFileName(t *testing.T) {
	assert.Equal(t, "shaders/shader.vert.spv", shaderFileName("shaders", VULKAN_SHADER_NAME, "vert"))
}

func TestLockPoolQueueCallRegistersFamily(t *testing.T) {
	pool := NewVulkanLockPool()
	calls := 0
	assert.NoError(t, pool.SafeQueueCall(7, func() error {
		calls++
		return nil
	}))
	assert.NoError(t, pool.SafeCall(MemoryManagement, func() error {
		calls++
		return nil
	}))
	assert.Equal(t, 2, calls)
}
