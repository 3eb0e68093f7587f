package renderer

import (
	"github.com/spaghettifunk/tesseract/engine/renderer/buffer"
	"github.com/spaghettifunk/tesseract/engine/renderer/metadata"
)

type RendererType uint8

const (
	Vulkan RendererType = iota
)

/**
 * @brief The device-facing half of the renderer. The frame lifecycle is
 * driven from the frontend; the backend only creates, destroys and submits.
 */
type RendererBackend interface {
	Initialize(config metadata.RendererBackendConfig) error
	Shutdown() error
	WaitIdle() error
	GraphicsQueue() *metadata.Queue
	BufferDevice() buffer.Device
	BufferAllocator() buffer.Allocator

	CreateSemaphore() (*metadata.Semaphore, error)
	DestroySemaphore(semaphore *metadata.Semaphore)
	CreateFence(signaled bool) (*metadata.Fence, error)
	// WaitForFence blocks until the fence is signaled. Failures are unrecoverable.
	WaitForFence(fence *metadata.Fence) error
	ResetFence(fence *metadata.Fence) error
	DestroyFence(fence *metadata.Fence)

	CreateSwapchain(extent metadata.Extent2D) (*metadata.Swapchain, error)
	DestroySwapchain(swapchain *metadata.Swapchain)
	CreateImageViews(swapchain *metadata.Swapchain) ([]*metadata.ImageView, error)
	DestroyImageView(view *metadata.ImageView)
	CreateDescriptorPool(maxSets uint32) (*metadata.DescriptorPool, error)
	// DestroyDescriptorPool also releases every set allocated from the pool.
	DestroyDescriptorPool(pool *metadata.DescriptorPool)
	AllocateDescriptorSets(pool *metadata.DescriptorPool, uniforms []*metadata.BufferHandle, rangeSize uint64) ([]*metadata.DescriptorSet, error)
	CreatePipeline(swapchain *metadata.Swapchain) (*metadata.Pipeline, error)
	DestroyPipeline(pipeline *metadata.Pipeline)
	CreateDepthAttachment(extent metadata.Extent2D) (*metadata.DepthAttachment, error)
	DestroyDepthAttachment(depth *metadata.DepthAttachment)
	CreateFramebuffer(pipeline *metadata.Pipeline, view *metadata.ImageView, depth *metadata.DepthAttachment, extent metadata.Extent2D) (*metadata.Framebuffer, error)
	DestroyFramebuffer(framebuffer *metadata.Framebuffer)
	AllocateCommandBuffers(count uint32) ([]*metadata.CommandBuffer, error)
	FreeCommandBuffers(commandBuffers []*metadata.CommandBuffer)
	RecordDraw(commandBuffer *metadata.CommandBuffer, draw metadata.DrawCommand) error

	// AcquireNextImage returns core.ErrSwapchainOutOfDate when the chain must be rebuilt.
	AcquireNextImage(swapchain *metadata.Swapchain, signal *metadata.Semaphore) (uint32, error)
	Submit(commandBuffer *metadata.CommandBuffer, wait, signal *metadata.Semaphore, fence *metadata.Fence) error
	// Present returns core.ErrSwapchainOutOfDate when the chain must be rebuilt.
	Present(swapchain *metadata.Swapchain, imageIndex uint32, wait *metadata.Semaphore) error
}
