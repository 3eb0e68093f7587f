package vulkan

import (
	"fmt"
	"runtime"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/tesseract/engine/core"
)

type VulkanDevice struct {
	PhysicalDevice     vk.PhysicalDevice
	LogicalDevice      vk.Device
	SwapchainSupport   *VulkanSwapchainSupportInfo
	GraphicsQueueIndex int32
	PresentQueueIndex  int32
	TransferQueueIndex int32

	GraphicsQueue vk.Queue
	PresentQueue  vk.Queue
	TransferQueue vk.Queue

	GraphicsCommandPool vk.CommandPool

	Properties vk.PhysicalDeviceProperties
	Features   vk.PhysicalDeviceFeatures
	Memory     vk.PhysicalDeviceMemoryProperties

	DepthFormat vk.Format
}

type VulkanPhysicalDeviceRequirements struct {
	Graphics             bool
	Present              bool
	Transfer             bool
	DeviceExtensionNames []string
	DiscreteGPU          bool
}

type VulkanPhysicalDeviceQueueFamilyInfo struct {
	GraphicsFamilyIndex int32
	PresentFamilyIndex  int32
	TransferFamilyIndex int32
}

// queueFamily is what device selection needs to know about one queue family.
type queueFamily struct {
	flags          vk.QueueFlags
	supportPresent bool
}

/**
 * @brief Picks the queue families to use. Graphics is the first family with
 * graphics support; present prefers the graphics family when it can present;
 * transfer takes the family with the fewest other capabilities so a dedicated
 * transfer queue wins when there is one. Missing families are -1.
 */
func selectQueueFamilies(families []queueFamily) VulkanPhysicalDeviceQueueFamilyInfo {
	info := VulkanPhysicalDeviceQueueFamilyInfo{
		GraphicsFamilyIndex: -1,
		PresentFamilyIndex:  -1,
		TransferFamilyIndex: -1,
	}
	minTransferScore := 255
	for i, f := range families {
		score := 0
		if f.flags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			if info.GraphicsFamilyIndex < 0 {
				info.GraphicsFamilyIndex = int32(i)
			}
			score++
		}
		if f.flags&vk.QueueFlags(vk.QueueComputeBit) != 0 {
			score++
		}
		if f.flags&vk.QueueFlags(vk.QueueTransferBit) != 0 && score < minTransferScore {
			minTransferScore = score
			info.TransferFamilyIndex = int32(i)
		}
		if f.supportPresent && (info.PresentFamilyIndex < 0 || int32(i) == info.GraphicsFamilyIndex) {
			info.PresentFamilyIndex = int32(i)
		}
	}
	// Graphics queues implicitly support transfers.
	if info.TransferFamilyIndex < 0 {
		info.TransferFamilyIndex = info.GraphicsFamilyIndex
	}
	return info
}

func (q VulkanPhysicalDeviceQueueFamilyInfo) meets(r *VulkanPhysicalDeviceRequirements) bool {
	return (!r.Graphics || q.GraphicsFamilyIndex >= 0) &&
		(!r.Present || q.PresentFamilyIndex >= 0) &&
		(!r.Transfer || q.TransferFamilyIndex >= 0)
}

func DeviceCreate(context *VulkanContext) error {
	context.Device = &VulkanDevice{SwapchainSupport: &VulkanSwapchainSupportInfo{}}
	if err := SelectPhysicalDevice(context); err != nil {
		return err
	}

	core.LogInfo("Creating logical device...")

	// Do not create additional queues for shared indices.
	indices := []uint32{uint32(context.Device.GraphicsQueueIndex)}
	if context.Device.PresentQueueIndex != context.Device.GraphicsQueueIndex {
		indices = append(indices, uint32(context.Device.PresentQueueIndex))
	}
	if context.Device.TransferQueueIndex != context.Device.GraphicsQueueIndex &&
		context.Device.TransferQueueIndex != context.Device.PresentQueueIndex {
		indices = append(indices, uint32(context.Device.TransferQueueIndex))
	}

	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(indices))
	for i, index := range indices {
		queueCreateInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: index,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	extensionNames := []string{vk.KhrSwapchainExtensionName}
	available, err := deviceExtensionNames(context.Device.PhysicalDevice)
	if err != nil {
		return err
	}
	for _, name := range available {
		if name == "VK_KHR_portability_subset" {
			core.LogInfo("Adding required extension 'VK_KHR_portability_subset'.")
			extensionNames = append(extensionNames, name)
			break
		}
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{}},
		EnabledExtensionCount:   uint32(len(extensionNames)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensionNames),
	}

	if res := vk.CreateDevice(context.Device.PhysicalDevice, &deviceCreateInfo, context.Allocator, &context.Device.LogicalDevice); res != vk.Success {
		err := fmt.Errorf("vkCreateDevice failed with %s", VulkanResultString(res, true))
		core.LogError(err.Error())
		return err
	}
	core.LogInfo("Logical device created.")

	var graphicsQueue, presentQueue, transferQueue vk.Queue
	vk.GetDeviceQueue(context.Device.LogicalDevice, uint32(context.Device.GraphicsQueueIndex), 0, &graphicsQueue)
	vk.GetDeviceQueue(context.Device.LogicalDevice, uint32(context.Device.PresentQueueIndex), 0, &presentQueue)
	vk.GetDeviceQueue(context.Device.LogicalDevice, uint32(context.Device.TransferQueueIndex), 0, &transferQueue)
	context.Device.GraphicsQueue = graphicsQueue
	context.Device.PresentQueue = presentQueue
	context.Device.TransferQueue = transferQueue
	for _, index := range indices {
		context.locks.SetQueueFamily(index)
	}
	core.LogInfo("Queues obtained.")

	// Command buffers are re-recorded every frame, so they must be individually resettable.
	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: uint32(context.Device.GraphicsQueueIndex),
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vk.CommandPool
	if res := vk.CreateCommandPool(context.Device.LogicalDevice, &poolCreateInfo, context.Allocator, &pool); res != vk.Success {
		err := fmt.Errorf("vkCreateCommandPool failed with %s", VulkanResultString(res, true))
		core.LogError(err.Error())
		return err
	}
	context.Device.GraphicsCommandPool = pool
	core.LogInfo("Graphics command pool created.")

	if !DeviceDetectDepthFormat(context.Device) {
		err := fmt.Errorf("no supported depth format: %w", core.ErrUnknown)
		core.LogError(err.Error())
		return err
	}
	return nil
}

func DeviceDestroy(context *VulkanContext) {
	if context.Device == nil {
		return
	}
	context.Device.GraphicsQueue = nil
	context.Device.PresentQueue = nil
	context.Device.TransferQueue = nil

	core.LogInfo("Destroying command pools...")
	if context.Device.GraphicsCommandPool != vk.NullCommandPool {
		vk.DestroyCommandPool(context.Device.LogicalDevice, context.Device.GraphicsCommandPool, context.Allocator)
		context.Device.GraphicsCommandPool = vk.NullCommandPool
	}

	core.LogInfo("Destroying logical device...")
	if context.Device.LogicalDevice != nil {
		vk.DestroyDevice(context.Device.LogicalDevice, context.Allocator)
		context.Device.LogicalDevice = nil
	}

	// Physical devices are not destroyed.
	context.Device.PhysicalDevice = nil
	context.Device.SwapchainSupport = &VulkanSwapchainSupportInfo{}
	context.Device.GraphicsQueueIndex = -1
	context.Device.PresentQueueIndex = -1
	context.Device.TransferQueueIndex = -1
}

func DeviceQuerySwapchainSupport(physicalDevice vk.PhysicalDevice, surface vk.Surface, supportInfo *VulkanSwapchainSupportInfo) error {
	var capabilities vk.SurfaceCapabilities
	if res := vk.GetPhysicalDeviceSurfaceCapabilities(physicalDevice, surface, &capabilities); res != vk.Success {
		return fmt.Errorf("failed to get surface capabilities: %s", VulkanResultString(res, false))
	}
	capabilities.Deref()
	capabilities.CurrentExtent.Deref()
	capabilities.MinImageExtent.Deref()
	capabilities.MaxImageExtent.Deref()
	supportInfo.Capabilities = capabilities

	var formatCount uint32
	if res := vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &formatCount, nil); res != vk.Success {
		return fmt.Errorf("failed to get surface formats: %s", VulkanResultString(res, false))
	}
	supportInfo.Formats = make([]vk.SurfaceFormat, formatCount)
	if formatCount > 0 {
		if res := vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &formatCount, supportInfo.Formats); res != vk.Success {
			return fmt.Errorf("failed to get surface formats: %s", VulkanResultString(res, false))
		}
		for i := range supportInfo.Formats {
			supportInfo.Formats[i].Deref()
		}
	}

	var presentModeCount uint32
	if res := vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &presentModeCount, nil); res != vk.Success {
		return fmt.Errorf("failed to get surface present modes: %s", VulkanResultString(res, false))
	}
	supportInfo.PresentModes = make([]vk.PresentMode, presentModeCount)
	if presentModeCount > 0 {
		if res := vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &presentModeCount, supportInfo.PresentModes); res != vk.Success {
			return fmt.Errorf("failed to get surface present modes: %s", VulkanResultString(res, false))
		}
	}
	return nil
}

func DeviceDetectDepthFormat(device *VulkanDevice) bool {
	candidates := []vk.Format{
		vk.FormatD32Sfloat,
		vk.FormatD32SfloatS8Uint,
		vk.FormatD24UnormS8Uint,
	}
	flags := vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)
	for _, candidate := range candidates {
		var properties vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(device.PhysicalDevice, candidate, &properties)
		properties.Deref()
		if properties.LinearTilingFeatures&flags == flags || properties.OptimalTilingFeatures&flags == flags {
			device.DepthFormat = candidate
			return true
		}
	}
	return false
}

func SelectPhysicalDevice(context *VulkanContext) error {
	var physicalDeviceCount uint32
	if res := vk.EnumeratePhysicalDevices(context.Instance, &physicalDeviceCount, nil); res != vk.Success {
		return fmt.Errorf("failed to enumerate physical devices: %s", VulkanResultString(res, false))
	}
	if physicalDeviceCount == 0 {
		err := fmt.Errorf("no devices which support Vulkan were found")
		core.LogError(err.Error())
		return err
	}
	physicalDevices := make([]vk.PhysicalDevice, physicalDeviceCount)
	if res := vk.EnumeratePhysicalDevices(context.Instance, &physicalDeviceCount, physicalDevices); res != vk.Success {
		return fmt.Errorf("failed to enumerate physical devices: %s", VulkanResultString(res, false))
	}

	requirements := VulkanPhysicalDeviceRequirements{
		Graphics:             true,
		Present:              true,
		Transfer:             true,
		DeviceExtensionNames: []string{vk.KhrSwapchainExtensionName},
	}

	for _, physicalDevice := range physicalDevices {
		var properties vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(physicalDevice, &properties)
		properties.Deref()

		var features vk.PhysicalDeviceFeatures
		vk.GetPhysicalDeviceFeatures(physicalDevice, &features)
		features.Deref()

		var memory vk.PhysicalDeviceMemoryProperties
		vk.GetPhysicalDeviceMemoryProperties(physicalDevice, &memory)
		memory.Deref()

		support := &VulkanSwapchainSupportInfo{}
		queueInfo, ok := PhysicalDeviceMeetsRequirements(physicalDevice, context.Surface, &properties, &requirements, support)
		if !ok {
			continue
		}

		core.LogInfo("Selected device: '%s'.", vk.ToString(properties.DeviceName[:]))
		switch properties.DeviceType {
		case vk.PhysicalDeviceTypeIntegratedGpu:
			core.LogInfo("GPU type is Integrated.")
		case vk.PhysicalDeviceTypeDiscreteGpu:
			core.LogInfo("GPU type is Discrete.")
		case vk.PhysicalDeviceTypeVirtualGpu:
			core.LogInfo("GPU type is Virtual.")
		case vk.PhysicalDeviceTypeCpu:
			core.LogInfo("GPU type is CPU.")
		default:
			core.LogInfo("GPU type is Unknown.")
		}
		core.LogInfo("Vulkan API version: %d.%d.%d",
			vk.Version(properties.ApiVersion).Major(),
			vk.Version(properties.ApiVersion).Minor(),
			vk.Version(properties.ApiVersion).Patch())

		for j := uint32(0); j < memory.MemoryHeapCount; j++ {
			memory.MemoryHeaps[j].Deref()
			sizeGib := float64(memory.MemoryHeaps[j].Size) / 1024.0 / 1024.0 / 1024.0
			if vk.MemoryHeapFlagBits(memory.MemoryHeaps[j].Flags)&vk.MemoryHeapDeviceLocalBit != 0 {
				core.LogInfo("Local GPU memory: %.2f GiB", sizeGib)
			} else {
				core.LogInfo("Shared System memory: %.2f GiB", sizeGib)
			}
		}

		context.Device.PhysicalDevice = physicalDevice
		context.Device.GraphicsQueueIndex = queueInfo.GraphicsFamilyIndex
		context.Device.PresentQueueIndex = queueInfo.PresentFamilyIndex
		context.Device.TransferQueueIndex = queueInfo.TransferFamilyIndex
		context.Device.SwapchainSupport = support
		context.Device.Properties = properties
		context.Device.Features = features
		context.Device.Memory = memory
		core.LogInfo("Physical device selected.")
		return nil
	}

	err := fmt.Errorf("no physical devices were found which meet the requirements")
	core.LogError(err.Error())
	return err
}

func PhysicalDeviceMeetsRequirements(device vk.PhysicalDevice, surface vk.Surface, properties *vk.PhysicalDeviceProperties, requirements *VulkanPhysicalDeviceRequirements, outSwapchainSupport *VulkanSwapchainSupportInfo) (VulkanPhysicalDeviceQueueFamilyInfo, bool) {
	if requirements.DiscreteGPU && runtime.GOOS != "darwin" && properties.DeviceType != vk.PhysicalDeviceTypeDiscreteGpu {
		core.LogInfo("Device is not a discrete GPU, and one is required. Skipping.")
		return VulkanPhysicalDeviceQueueFamilyInfo{}, false
	}

	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, nil)
	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, queueFamilies)

	families := make([]queueFamily, queueFamilyCount)
	for i := range queueFamilies {
		queueFamilies[i].Deref()
		var supportsPresent vk.Bool32
		if res := vk.GetPhysicalDeviceSurfaceSupport(device, uint32(i), surface, &supportsPresent); res != vk.Success {
			return VulkanPhysicalDeviceQueueFamilyInfo{}, false
		}
		families[i] = queueFamily{flags: queueFamilies[i].QueueFlags, supportPresent: supportsPresent == vk.True}
	}

	queueInfo := selectQueueFamilies(families)
	core.LogDebug("Graphics: %d | Present: %d | Transfer: %d | %s",
		queueInfo.GraphicsFamilyIndex, queueInfo.PresentFamilyIndex, queueInfo.TransferFamilyIndex,
		vk.ToString(properties.DeviceName[:]))
	if !queueInfo.meets(requirements) {
		return queueInfo, false
	}

	if err := DeviceQuerySwapchainSupport(device, surface, outSwapchainSupport); err != nil {
		core.LogWarn(err.Error())
		return queueInfo, false
	}
	if len(outSwapchainSupport.Formats) < 1 || len(outSwapchainSupport.PresentModes) < 1 {
		core.LogInfo("Required swapchain support not present, skipping device.")
		return queueInfo, false
	}

	available, err := deviceExtensionNames(device)
	if err != nil {
		return queueInfo, false
	}
	for _, required := range requirements.DeviceExtensionNames {
		found := false
		for _, name := range available {
			if name == required {
				found = true
				break
			}
		}
		if !found {
			core.LogInfo("Required extension not found: '%s', skipping device.", required)
			return queueInfo, false
		}
	}
	return queueInfo, true
}

func deviceExtensionNames(device vk.PhysicalDevice) ([]string, error) {
	var count uint32
	if res := vk.EnumerateDeviceExtensionProperties(device, "", &count, nil); res != vk.Success {
		return nil, fmt.Errorf("vkEnumerateDeviceExtensionProperties failed with %s", VulkanResultString(res, false))
	}
	properties := make([]vk.ExtensionProperties, count)
	if count > 0 {
		if res := vk.EnumerateDeviceExtensionProperties(device, "", &count, properties); res != vk.Success {
			return nil, fmt.Errorf("vkEnumerateDeviceExtensionProperties failed with %s", VulkanResultString(res, false))
		}
	}
	names := make([]string, len(properties))
	for i := range properties {
		properties[i].Deref()
		names[i] = vk.ToString(properties[i].ExtensionName[:])
	}
	return names, nil
}
