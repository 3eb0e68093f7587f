package renderer

import (
	"fmt"

	"github.com/spaghettifunk/tesseract/engine/core"
	"github.com/spaghettifunk/tesseract/engine/math"
	"github.com/spaghettifunk/tesseract/engine/renderer/buffer"
	"github.com/spaghettifunk/tesseract/engine/renderer/components"
	"github.com/spaghettifunk/tesseract/engine/renderer/metadata"
)

// UpdateSurfaceResolution records the new surface size. The chain is rebuilt on the next RecreateSwapchain.
func (r *Renderer) UpdateSurfaceResolution(extent metadata.Extent2D) {
	r.extent = extent
	if extent.IsZero() || (r.swapchain != nil && r.swapchain.Extent != extent) {
		r.rebuildPending = true
	}
}

/**
 * @brief Destroys and recreates every resource that depends on the surface:
 * the swapchain, its image views, the per-image uniform buffers and
 * descriptor sets, the pipeline, the depth attachment, the framebuffers and
 * the per-image command buffers.
 *
 * The device is idle before anything is destroyed. With a zero-sized
 * surface the rebuild is postponed until the surface has an area again.
 */
func (r *Renderer) RecreateSwapchain() error {
	if r.extent.IsZero() {
		core.LogDebug("surface has no area, postponing presentation chain rebuild")
		r.rebuildPending = true
		return nil
	}

	r.chainState = CHAIN_STATE_REBUILDING
	if err := r.backend.WaitIdle(); err != nil {
		return r.failRebuild(fmt.Errorf("wait idle before rebuild: %w: %w", core.ErrDeviceLost, err))
	}
	if err := r.chain.ReleaseAll(); err != nil {
		return r.failRebuild(err)
	}
	r.resetChainState()

	if err := r.buildChain(); err != nil {
		// Leave nothing half built behind; the next frame retries from scratch.
		_ = r.chain.ReleaseAll()
		r.resetChainState()
		r.rebuildPending = true
		return r.failRebuild(err)
	}

	r.rebuildPending = false
	r.chainState = CHAIN_STATE_STABLE
	core.LogDebug("presentation chain rebuilt: %dx%d, %d images", r.swapchain.Extent.Width, r.swapchain.Extent.Height, len(r.views))
	return nil
}

func (r *Renderer) failRebuild(err error) error {
	r.chainState = CHAIN_STATE_STABLE
	core.LogError(err.Error())
	return err
}

// resetChainState forgets every surface-dependent handle, the arena owns their release.
func (r *Renderer) resetChainState() {
	r.swapchain = nil
	r.views = nil
	r.uniforms = nil
	r.descriptorPool = nil
	r.descriptorSets = nil
	r.pipeline = nil
	r.depth = nil
	r.framebuffers = nil
	r.commandBuffers = nil
	r.imagesInFlight = nil
}

func (r *Renderer) buildChain() error {
	swapchain, err := r.backend.CreateSwapchain(r.extent)
	if err != nil {
		return fmt.Errorf("create swapchain: %w", err)
	}
	r.swapchain = swapchain
	r.chain.Push("swapchain", func() error {
		r.backend.DestroySwapchain(swapchain)
		return nil
	})

	views, err := r.backend.CreateImageViews(swapchain)
	if err != nil {
		return fmt.Errorf("create image views: %w", err)
	}
	r.views = views
	r.chain.Push("image views", func() error {
		for _, v := range views {
			r.backend.DestroyImageView(v)
		}
		return nil
	})
	count := len(views)

	if err := r.createUniforms(count); err != nil {
		return err
	}

	pool, err := r.backend.CreateDescriptorPool(uint32(count))
	if err != nil {
		return fmt.Errorf("create descriptor pool: %w", err)
	}
	r.descriptorPool = pool
	r.chain.Push("descriptor pool", func() error {
		r.backend.DestroyDescriptorPool(pool)
		return nil
	})

	handles := make([]*metadata.BufferHandle, count)
	for i, u := range r.uniforms {
		handles[i] = u.Handle()
	}
	sets, err := r.backend.AllocateDescriptorSets(pool, handles, components.UNIFORM_PAYLOAD_SIZE)
	if err != nil {
		return fmt.Errorf("allocate descriptor sets: %w", err)
	}
	r.descriptorSets = sets

	pipeline, err := r.backend.CreatePipeline(swapchain)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}
	r.pipeline = pipeline
	r.chain.Push("pipeline", func() error {
		r.backend.DestroyPipeline(pipeline)
		return nil
	})

	depth, err := r.backend.CreateDepthAttachment(swapchain.Extent)
	if err != nil {
		return fmt.Errorf("create depth attachment: %w", err)
	}
	r.depth = depth
	r.chain.Push("depth attachment", func() error {
		r.backend.DestroyDepthAttachment(depth)
		return nil
	})

	r.framebuffers = make([]*metadata.Framebuffer, 0, count)
	for i, view := range views {
		fb, err := r.backend.CreateFramebuffer(pipeline, view, depth, swapchain.Extent)
		if err != nil {
			return fmt.Errorf("create framebuffer %d: %w", i, err)
		}
		r.framebuffers = append(r.framebuffers, fb)
		r.chain.Push(fmt.Sprintf("framebuffer %d", i), func() error {
			r.backend.DestroyFramebuffer(fb)
			return nil
		})
	}

	cbs, err := r.backend.AllocateCommandBuffers(uint32(count))
	if err != nil {
		return fmt.Errorf("allocate command buffers: %w", err)
	}
	r.commandBuffers = cbs
	r.chain.Push("command buffers", func() error {
		r.backend.FreeCommandBuffers(cbs)
		return nil
	})

	r.imagesInFlight = make([]*metadata.Fence, count)

	for i, cb := range cbs {
		if err := r.backend.RecordDraw(cb, r.drawCommand(uint32(i))); err != nil {
			return fmt.Errorf("record command buffer %d: %w", i, err)
		}
	}
	return nil
}

// createUniforms allocates one host-visible uniform buffer per image, seeded with the current camera.
func (r *Renderer) createUniforms(count int) error {
	seed := []components.UniformPayload{r.camera.Data(r.sceneTransform())}

	r.uniforms = make([]*buffer.Buffer, 0, count)
	for i := 0; i < count; i++ {
		u, err := buffer.NewBuffer(r.buffers, fmt.Sprintf("uniform %d", i), components.UNIFORM_PAYLOAD_SIZE, metadata.BUFFER_USAGE_UNIFORM, metadata.MEMORY_LOCATION_CPU_TO_GPU)
		if err != nil {
			return fmt.Errorf("create uniform buffer %d: %w", i, err)
		}
		r.uniforms = append(r.uniforms, u)
		r.chain.Push(fmt.Sprintf("uniform buffer %d", i), u.Destroy)

		if err := buffer.SetData(u, seed); err != nil {
			return fmt.Errorf("seed uniform buffer %d: %w", i, err)
		}
	}
	return nil
}

func (r *Renderer) sceneTransform() math.Mat5 {
	if r.scene == nil {
		return math.NewMat5Identity()
	}
	return r.scene.Transform()
}
