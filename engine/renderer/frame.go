package renderer

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/tesseract/engine/core"
	"github.com/spaghettifunk/tesseract/engine/renderer/buffer"
	"github.com/spaghettifunk/tesseract/engine/renderer/components"
	"github.com/spaghettifunk/tesseract/engine/renderer/metadata"
)

var clearColour = [4]float32{0, 0, 0, 1}

/**
 * @brief Renders and presents one frame.
 *
 * The slot fence is waited before anything of the slot is reused. If the
 * acquired image is still owned by the other slot's pending frame, that
 * frame is waited too, so neither the image's command buffer nor its uniform
 * buffer is touched while the GPU reads them. An out-of-date chain at acquire
 * rebuilds and skips the frame; at present it rebuilds after the frame.
 */
func (r *Renderer) DrawFrame() error {
	if r.extent.IsZero() {
		// Nothing to present to while the surface has no area.
		return nil
	}
	if r.rebuildPending || r.swapchain == nil {
		if err := r.RecreateSwapchain(); err != nil {
			return err
		}
	}

	r.camera.UpdateView()
	payload := r.camera.Data(r.scene.Transform())

	frame := &r.frames[r.currentFrame]

	r.frameState = FRAME_STATE_ACQUIRING
	if err := r.backend.WaitForFence(frame.inFlight); err != nil {
		return r.fail(fmt.Errorf("wait for frame %d: %w", r.currentFrame, err))
	}

	imageIndex, err := r.backend.AcquireNextImage(r.swapchain, frame.imageAvailable)
	if errors.Is(err, core.ErrSwapchainOutOfDate) {
		r.frameState = FRAME_STATE_IDLE
		core.LogDebug("presentation chain out of date at acquire, rebuilding")
		return r.RecreateSwapchain()
	}
	if err != nil {
		return r.fail(fmt.Errorf("acquire next image: %w", err))
	}
	if int(imageIndex) >= len(r.imagesInFlight) {
		return r.fail(fmt.Errorf("acquired image %d of %d", imageIndex, len(r.imagesInFlight)))
	}

	if owner := r.imagesInFlight[imageIndex]; owner != nil && owner != frame.inFlight {
		if err := r.backend.WaitForFence(owner); err != nil {
			return r.fail(fmt.Errorf("wait for image %d: %w", imageIndex, err))
		}
	}
	r.imagesInFlight[imageIndex] = frame.inFlight

	r.frameState = FRAME_STATE_RECORDING
	if err := buffer.SetData(r.uniforms[imageIndex], []components.UniformPayload{payload}); err != nil {
		return r.fail(fmt.Errorf("write uniforms of image %d: %w", imageIndex, err))
	}
	cb := r.commandBuffers[imageIndex]
	if err := r.backend.RecordDraw(cb, r.drawCommand(imageIndex)); err != nil {
		return r.fail(fmt.Errorf("record image %d: %w", imageIndex, err))
	}

	if err := r.backend.ResetFence(frame.inFlight); err != nil {
		return r.fail(fmt.Errorf("reset fence of frame %d: %w", r.currentFrame, err))
	}
	if err := r.backend.Submit(cb, frame.imageAvailable, frame.renderFinished, frame.inFlight); err != nil {
		return r.fail(fmt.Errorf("submit frame %d: %w", r.currentFrame, err))
	}
	r.frameState = FRAME_STATE_SUBMITTED
	r.frameNumber++

	r.frameState = FRAME_STATE_PRESENTING
	presentErr := r.backend.Present(r.swapchain, imageIndex, frame.renderFinished)

	r.currentFrame = (r.currentFrame + 1) % MAX_FRAMES_IN_FLIGHT
	r.frameState = FRAME_STATE_IDLE

	if errors.Is(presentErr, core.ErrSwapchainOutOfDate) {
		core.LogDebug("presentation chain out of date at present, rebuilding")
		return r.RecreateSwapchain()
	}
	if presentErr != nil {
		return r.fail(fmt.Errorf("present image %d: %w", imageIndex, presentErr))
	}
	return nil
}

func (r *Renderer) fail(err error) error {
	r.frameState = FRAME_STATE_IDLE
	core.LogError(err.Error())
	return err
}

func (r *Renderer) drawCommand(imageIndex uint32) metadata.DrawCommand {
	return metadata.DrawCommand{
		Pipeline:      r.pipeline,
		Framebuffer:   r.framebuffers[imageIndex],
		Extent:        r.swapchain.Extent,
		VertexBuffer:  r.vertexBuffer.Handle(),
		IndexBuffer:   r.indexBuffer.Handle(),
		IndexCount:    r.indexCount,
		DescriptorSet: r.descriptorSets[imageIndex],
		ClearColour:   clearColour,
		ClearDepth:    1.0,
	}
}
