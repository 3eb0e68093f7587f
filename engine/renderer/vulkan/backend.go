package vulkan

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/tesseract/engine/core"
	"github.com/spaghettifunk/tesseract/engine/platform"
	"github.com/spaghettifunk/tesseract/engine/renderer/buffer"
	"github.com/spaghettifunk/tesseract/engine/renderer/metadata"
)

/**
 * @brief The Vulkan implementation of the renderer backend. It owns the
 * instance, the surface, the device and the descriptor set layout; every
 * other object is created and destroyed on request of the frontend.
 */
type VulkanRenderer struct {
	platform  *platform.Platform
	context   *VulkanContext
	config    metadata.RendererBackendConfig
	allocator *VulkanAllocator
	graphics  *metadata.Queue
}

func New(p *platform.Platform) *VulkanRenderer {
	context := &VulkanContext{locks: NewVulkanLockPool()}
	return &VulkanRenderer{
		platform:  p,
		context:   context,
		allocator: NewVulkanAllocator(context),
	}
}

func (vr *VulkanRenderer) Initialize(config metadata.RendererBackendConfig) error {
	vr.config = config

	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		err := fmt.Errorf("GetInstanceProcAddress is nil")
		core.LogError(err.Error())
		return err
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		core.LogError("failed to initialize vk: %s", err)
		return err
	}

	if err := vr.createInstance(); err != nil {
		return err
	}

	if config.EnableValidation {
		core.LogDebug("Creating Vulkan debugger...")
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: dbgCallbackFunc,
		}
		var dbg vk.DebugReportCallback
		if err := vk.Error(vk.CreateDebugReportCallback(vr.context.Instance, &debugCreateInfo, nil, &dbg)); err != nil {
			core.LogError("vk.CreateDebugReportCallback failed with %s", err)
			return err
		}
		vr.context.debugMessenger = dbg
		core.LogDebug("Vulkan debugger created.")
	}

	core.LogDebug("Creating Vulkan surface...")
	surface, err := vr.platform.Window.CreateWindowSurface(vr.context.Instance, nil)
	if err != nil {
		core.LogError("Vulkan surface creation failed: %s", err)
		return err
	}
	vr.context.Surface = vk.SurfaceFromPointer(surface)
	core.LogDebug("Vulkan surface created.")

	if err := DeviceCreate(vr.context); err != nil {
		return err
	}
	vr.graphics = &metadata.Queue{
		Name: "graphics",
		InternalData: &vulkanQueue{
			Handle: vr.context.Device.GraphicsQueue,
			Family: uint32(vr.context.Device.GraphicsQueueIndex),
		},
	}

	layout, err := DescriptorSetLayoutCreate(vr.context)
	if err != nil {
		core.LogError(err.Error())
		return err
	}
	vr.context.DescriptorSetLayout = layout

	core.LogInfo("Vulkan renderer initialized successfully.")
	return nil
}

func (vr *VulkanRenderer) createInstance() error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 1, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(vr.config.ApplicationName),
		PEngineName:        VulkanSafeString(VULKAN_ENGINE_NAME),
	}
	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	requiredExtensions := vr.platform.GetRequiredExtensionNames()
	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}

	var layers []string
	if vr.config.EnableValidation {
		requiredExtensions = append(requiredExtensions, vk.ExtDebugReportExtensionName)
		core.LogInfo("Validation layers enabled. Enumerating...")
		available, err := instanceLayerNames()
		if err != nil {
			return err
		}
		found := false
		for _, name := range available {
			if name == VULKAN_VALIDATION_LAYER {
				found = true
				break
			}
		}
		if !found {
			err := fmt.Errorf("required validation layer is missing: %s", VULKAN_VALIDATION_LAYER)
			core.LogError(err.Error())
			return err
		}
		layers = append(layers, VULKAN_VALIDATION_LAYER)
	}
	for _, ext := range requiredExtensions {
		core.LogDebug("Required extension: %s", ext)
	}

	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)
	createInfo.EnabledLayerCount = uint32(len(layers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(layers)

	if res := vk.CreateInstance(&createInfo, vr.context.Allocator, &vr.context.Instance); res != vk.Success {
		err := fmt.Errorf("failed in creating the Vulkan Instance with error `%s`", VulkanResultString(res, true))
		core.LogError(err.Error())
		return err
	}
	if err := vk.InitInstance(vr.context.Instance); err != nil {
		core.LogError(err.Error())
		return err
	}
	core.LogInfo("Vulkan Instance created.")
	return nil
}

func instanceLayerNames() ([]string, error) {
	var count uint32
	if res := vk.EnumerateInstanceLayerProperties(&count, nil); res != vk.Success {
		return nil, fmt.Errorf("vkEnumerateInstanceLayerProperties failed with %s", VulkanResultString(res, false))
	}
	layers := make([]vk.LayerProperties, count)
	if res := vk.EnumerateInstanceLayerProperties(&count, layers); res != vk.Success {
		return nil, fmt.Errorf("vkEnumerateInstanceLayerProperties failed with %s", VulkanResultString(res, false))
	}
	names := make([]string, len(layers))
	for i := range layers {
		layers[i].Deref()
		names[i] = vk.ToString(layers[i].LayerName[:])
	}
	return names, nil
}

// Shutdown destroys what Initialize created. Every frontend resource must already be released.
func (vr *VulkanRenderer) Shutdown() error {
	if vr.context.Device != nil && vr.context.Device.LogicalDevice != nil {
		vk.DeviceWaitIdle(vr.context.Device.LogicalDevice)
		if vr.context.DescriptorSetLayout != vk.NullDescriptorSetLayout {
			vk.DestroyDescriptorSetLayout(vr.context.Device.LogicalDevice, vr.context.DescriptorSetLayout, vr.context.Allocator)
			vr.context.DescriptorSetLayout = vk.NullDescriptorSetLayout
		}
	}

	core.LogDebug("Destroying Vulkan device...")
	DeviceDestroy(vr.context)

	core.LogDebug("Destroying Vulkan surface...")
	if vr.context.Surface != vk.NullSurface {
		vk.DestroySurface(vr.context.Instance, vr.context.Surface, vr.context.Allocator)
		vr.context.Surface = vk.NullSurface
	}

	if vr.context.debugMessenger != vk.NullDebugReportCallback {
		core.LogDebug("Destroying Vulkan debugger...")
		vk.DestroyDebugReportCallback(vr.context.Instance, vr.context.debugMessenger, vr.context.Allocator)
		vr.context.debugMessenger = vk.NullDebugReportCallback
	}

	core.LogDebug("Destroying Vulkan instance...")
	if vr.context.Instance != nil {
		vk.DestroyInstance(vr.context.Instance, vr.context.Allocator)
		vr.context.Instance = nil
	}
	return nil
}

func (vr *VulkanRenderer) WaitIdle() error {
	if res := vk.DeviceWaitIdle(vr.context.Device.LogicalDevice); res != vk.Success {
		return fmt.Errorf("vkDeviceWaitIdle: %s: %w", VulkanResultString(res, true), core.ErrDeviceLost)
	}
	return nil
}

func (vr *VulkanRenderer) GraphicsQueue() *metadata.Queue {
	return vr.graphics
}

func (vr *VulkanRenderer) BufferDevice() buffer.Device {
	return vr
}

func (vr *VulkanRenderer) BufferAllocator() buffer.Allocator {
	return vr.allocator
}

func (vr *VulkanRenderer) CreateSemaphore() (*metadata.Semaphore, error) {
	semaphore, err := NewSemaphore(vr.context)
	if err != nil {
		return nil, err
	}
	return &metadata.Semaphore{InternalData: semaphore}, nil
}

func (vr *VulkanRenderer) DestroySemaphore(semaphore *metadata.Semaphore) {
	if s, ok := semaphore.InternalData.(vk.Semaphore); ok && s != vk.NullSemaphore {
		vk.DestroySemaphore(vr.context.Device.LogicalDevice, s, vr.context.Allocator)
	}
	semaphore.InternalData = nil
}

func (vr *VulkanRenderer) CreateFence(signaled bool) (*metadata.Fence, error) {
	fence, err := NewFence(vr.context, signaled)
	if err != nil {
		return nil, err
	}
	return &metadata.Fence{InternalData: fence}, nil
}

func (vr *VulkanRenderer) WaitForFence(fence *metadata.Fence) error {
	return fence.InternalData.(*VulkanFence).Wait(vr.context)
}

func (vr *VulkanRenderer) ResetFence(fence *metadata.Fence) error {
	return fence.InternalData.(*VulkanFence).Reset(vr.context)
}

func (vr *VulkanRenderer) DestroyFence(fence *metadata.Fence) {
	if f, ok := fence.InternalData.(*VulkanFence); ok {
		f.Destroy(vr.context)
	}
	fence.InternalData = nil
}

func (vr *VulkanRenderer) CreateSwapchain(extent metadata.Extent2D) (*metadata.Swapchain, error) {
	sc, err := SwapchainCreate(vr.context, extent.Width, extent.Height)
	if err != nil {
		return nil, err
	}
	return &metadata.Swapchain{
		Extent:       metadata.Extent2D{Width: sc.Extent.Width, Height: sc.Extent.Height},
		ImageCount:   uint32(len(sc.Images)),
		InternalData: sc,
	}, nil
}

func (vr *VulkanRenderer) DestroySwapchain(swapchain *metadata.Swapchain) {
	if sc, ok := swapchain.InternalData.(*VulkanSwapchain); ok {
		sc.SwapchainDestroy(vr.context)
	}
	swapchain.InternalData = nil
}

func (vr *VulkanRenderer) CreateImageViews(swapchain *metadata.Swapchain) ([]*metadata.ImageView, error) {
	sc := swapchain.InternalData.(*VulkanSwapchain)
	views := make([]*metadata.ImageView, 0, len(sc.Images))
	for i := range sc.Images {
		view, err := sc.CreateImageView(vr.context, uint32(i))
		if err != nil {
			for _, v := range views {
				vr.DestroyImageView(v)
			}
			return nil, err
		}
		views = append(views, &metadata.ImageView{Index: uint32(i), InternalData: view})
	}
	return views, nil
}

func (vr *VulkanRenderer) DestroyImageView(view *metadata.ImageView) {
	if v, ok := view.InternalData.(vk.ImageView); ok && v != vk.NullImageView {
		vk.DestroyImageView(vr.context.Device.LogicalDevice, v, vr.context.Allocator)
	}
	view.InternalData = nil
}

func (vr *VulkanRenderer) CreateDescriptorPool(maxSets uint32) (*metadata.DescriptorPool, error) {
	pool, err := DescriptorPoolCreate(vr.context, maxSets)
	if err != nil {
		return nil, err
	}
	return &metadata.DescriptorPool{MaxSets: maxSets, InternalData: pool}, nil
}

func (vr *VulkanRenderer) DestroyDescriptorPool(pool *metadata.DescriptorPool) {
	if p, ok := pool.InternalData.(vk.DescriptorPool); ok && p != vk.NullDescriptorPool {
		_ = vr.context.locks.SafeCall(DescriptorManagement, func() error {
			vk.DestroyDescriptorPool(vr.context.Device.LogicalDevice, p, vr.context.Allocator)
			return nil
		})
	}
	pool.InternalData = nil
}

func (vr *VulkanRenderer) AllocateDescriptorSets(pool *metadata.DescriptorPool, uniforms []*metadata.BufferHandle, rangeSize uint64) ([]*metadata.DescriptorSet, error) {
	buffers := make([]vk.Buffer, len(uniforms))
	for i, u := range uniforms {
		buffers[i] = u.InternalData.(vk.Buffer)
	}
	sets, err := DescriptorSetsAllocate(vr.context, pool.InternalData.(vk.DescriptorPool), buffers, rangeSize)
	if err != nil {
		return nil, err
	}
	out := make([]*metadata.DescriptorSet, len(sets))
	for i, s := range sets {
		out[i] = &metadata.DescriptorSet{InternalData: s}
	}
	return out, nil
}

/**
 * @brief Builds the render pass for the swapchain format and the pipeline
 * on top of it. Shader modules only live for the duration of the call.
 */
func (vr *VulkanRenderer) CreatePipeline(swapchain *metadata.Swapchain) (*metadata.Pipeline, error) {
	sc := swapchain.InternalData.(*VulkanSwapchain)

	vert, err := NewShaderStage(vr.context, shaderFileName(vr.config.ShaderDir, VULKAN_SHADER_NAME, "vert"), vk.ShaderStageVertexBit)
	if err != nil {
		return nil, err
	}
	defer vert.Destroy(vr.context)
	frag, err := NewShaderStage(vr.context, shaderFileName(vr.config.ShaderDir, VULKAN_SHADER_NAME, "frag"), vk.ShaderStageFragmentBit)
	if err != nil {
		return nil, err
	}
	defer frag.Destroy(vr.context)

	renderpass, err := RenderpassCreate(vr.context, sc.ImageFormat.Format, vr.context.Device.DepthFormat)
	if err != nil {
		return nil, err
	}

	pipeline, err := NewGraphicsPipeline(vr.context, &VulkanPipelineConfig{
		Renderpass:           renderpass,
		Binding:              vertex4Binding(),
		Attributes:           vertex4Attributes(),
		DescriptorSetLayouts: []vk.DescriptorSetLayout{vr.context.DescriptorSetLayout},
		Stages:               []vk.PipelineShaderStageCreateInfo{vert.ShaderStageCreateInfo, frag.ShaderStageCreateInfo},
	})
	if err != nil {
		renderpass.Destroy(vr.context)
		return nil, err
	}
	return &metadata.Pipeline{Extent: swapchain.Extent, InternalData: pipeline}, nil
}

func (vr *VulkanRenderer) DestroyPipeline(pipeline *metadata.Pipeline) {
	if p, ok := pipeline.InternalData.(*VulkanPipeline); ok {
		p.Destroy(vr.context)
	}
	pipeline.InternalData = nil
}

func (vr *VulkanRenderer) CreateDepthAttachment(extent metadata.Extent2D) (*metadata.DepthAttachment, error) {
	image, err := ImageCreate(vr.context, extent.Width, extent.Height,
		vr.context.Device.DepthFormat,
		vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		true,
		vk.ImageAspectFlags(vk.ImageAspectDepthBit))
	if err != nil {
		return nil, err
	}
	return &metadata.DepthAttachment{Extent: extent, InternalData: image}, nil
}

func (vr *VulkanRenderer) DestroyDepthAttachment(depth *metadata.DepthAttachment) {
	if image, ok := depth.InternalData.(*VulkanImage); ok {
		image.Destroy(vr.context)
	}
	depth.InternalData = nil
}

func (vr *VulkanRenderer) CreateFramebuffer(pipeline *metadata.Pipeline, view *metadata.ImageView, depth *metadata.DepthAttachment, extent metadata.Extent2D) (*metadata.Framebuffer, error) {
	p := pipeline.InternalData.(*VulkanPipeline)
	attachments := []vk.ImageView{
		view.InternalData.(vk.ImageView),
		depth.InternalData.(*VulkanImage).View,
	}
	fb, err := FramebufferCreate(vr.context, p.Renderpass, extent.Width, extent.Height, attachments)
	if err != nil {
		return nil, err
	}
	return &metadata.Framebuffer{Extent: extent, InternalData: fb}, nil
}

func (vr *VulkanRenderer) DestroyFramebuffer(framebuffer *metadata.Framebuffer) {
	if fb, ok := framebuffer.InternalData.(*VulkanFramebuffer); ok {
		fb.Destroy(vr.context)
	}
	framebuffer.InternalData = nil
}

func (vr *VulkanRenderer) AllocateCommandBuffers(count uint32) ([]*metadata.CommandBuffer, error) {
	cbs, err := AllocateCommandBuffers(vr.context, vr.context.Device.GraphicsCommandPool, count)
	if err != nil {
		return nil, err
	}
	out := make([]*metadata.CommandBuffer, len(cbs))
	for i, cb := range cbs {
		out[i] = &metadata.CommandBuffer{State: metadata.COMMAND_BUFFER_STATE_READY, InternalData: cb}
	}
	return out, nil
}

func (vr *VulkanRenderer) FreeCommandBuffers(commandBuffers []*metadata.CommandBuffer) {
	cbs := make([]*VulkanCommandBuffer, 0, len(commandBuffers))
	for _, cb := range commandBuffers {
		if v, ok := cb.InternalData.(*VulkanCommandBuffer); ok {
			cbs = append(cbs, v)
		}
		cb.State = metadata.COMMAND_BUFFER_STATE_NOT_ALLOCATED
	}
	FreeCommandBuffers(vr.context, vr.context.Device.GraphicsCommandPool, cbs)
}

// RecordDraw re-records the whole command buffer for one indexed draw of the mesh.
func (vr *VulkanRenderer) RecordDraw(commandBuffer *metadata.CommandBuffer, draw metadata.DrawCommand) error {
	cb := commandBuffer.InternalData.(*VulkanCommandBuffer)
	pipeline := draw.Pipeline.InternalData.(*VulkanPipeline)
	framebuffer := draw.Framebuffer.InternalData.(*VulkanFramebuffer)
	extent := vk.Extent2D{Width: draw.Extent.Width, Height: draw.Extent.Height}

	if err := cb.Begin(false); err != nil {
		return err
	}
	commandBuffer.State = metadata.COMMAND_BUFFER_STATE_RECORDING

	pipeline.Renderpass.Begin(cb, framebuffer.Handle, extent, draw.ClearColour, draw.ClearDepth)

	vk.CmdSetViewport(cb.Handle, 0, 1, []vk.Viewport{{
		X:        0,
		Y:        0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}})
	vk.CmdSetScissor(cb.Handle, 0, 1, []vk.Rect2D{{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: extent,
	}})

	pipeline.Bind(cb)
	vk.CmdBindDescriptorSets(cb.Handle, vk.PipelineBindPointGraphics, pipeline.PipelineLayout, 0, 1,
		[]vk.DescriptorSet{draw.DescriptorSet.InternalData.(vk.DescriptorSet)}, 0, nil)
	vk.CmdBindVertexBuffers(cb.Handle, 0, 1, []vk.Buffer{draw.VertexBuffer.InternalData.(vk.Buffer)}, []vk.DeviceSize{0})
	vk.CmdBindIndexBuffer(cb.Handle, draw.IndexBuffer.InternalData.(vk.Buffer), 0, indexType())
	vk.CmdDrawIndexed(cb.Handle, draw.IndexCount, 1, 0, 0, 0)

	pipeline.Renderpass.End(cb)
	if err := cb.End(); err != nil {
		return err
	}
	commandBuffer.State = metadata.COMMAND_BUFFER_STATE_RECORDING_ENDED
	return nil
}

func (vr *VulkanRenderer) AcquireNextImage(swapchain *metadata.Swapchain, signal *metadata.Semaphore) (uint32, error) {
	sc := swapchain.InternalData.(*VulkanSwapchain)
	return sc.AcquireNextImageIndex(vr.context, signal.InternalData.(vk.Semaphore))
}

/**
 * @brief Submits the command buffer to the graphics queue. Colour output
 * waits on the acquire semaphore, completion signals the present semaphore
 * and the fence.
 */
func (vr *VulkanRenderer) Submit(commandBuffer *metadata.CommandBuffer, wait, signal *metadata.Semaphore, fence *metadata.Fence) error {
	cb := commandBuffer.InternalData.(*VulkanCommandBuffer)
	f := fence.InternalData.(*VulkanFence)

	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{wait.InternalData.(vk.Semaphore)},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cb.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{signal.InternalData.(vk.Semaphore)},
	}
	err := vr.context.locks.SafeQueueCall(uint32(vr.context.Device.GraphicsQueueIndex), func() error {
		if res := vk.QueueSubmit(vr.context.Device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, f.Handle); res != vk.Success {
			return fmt.Errorf("vkQueueSubmit failed with result: %s", VulkanResultString(res, true))
		}
		return nil
	})
	if err != nil {
		return err
	}
	cb.UpdateSubmitted()
	commandBuffer.State = metadata.COMMAND_BUFFER_STATE_SUBMITTED
	return nil
}

func (vr *VulkanRenderer) Present(swapchain *metadata.Swapchain, imageIndex uint32, wait *metadata.Semaphore) error {
	sc := swapchain.InternalData.(*VulkanSwapchain)
	return sc.Present(vr.context, wait.InternalData.(vk.Semaphore), imageIndex)
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogInfo("INFORMATION: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
