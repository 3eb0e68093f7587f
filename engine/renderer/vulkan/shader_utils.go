package vulkan

import (
	"fmt"
	"path/filepath"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/tesseract/engine/assets/loaders"
	"github.com/spaghettifunk/tesseract/engine/core"
)

/**
 * @brief Represents a single shader stage.
 */
type VulkanShaderStage struct {
	/** @brief The internal shader module Handle. */
	Handle vk.ShaderModule
	/** @brief The pipeline shader stage creation info. */
	ShaderStageCreateInfo vk.PipelineShaderStageCreateInfo
}

// shaderFileName is where the build places a compiled stage, e.g. shaders/shader.vert.spv.
func shaderFileName(dir, name, stage string) string {
	return filepath.Join(dir, fmt.Sprintf("%s.%s.spv", name, stage))
}

// NewShaderStage loads the SPIR-V of one stage from disk and wraps it in a shader module.
func NewShaderStage(context *VulkanContext, path string, stage vk.ShaderStageFlagBits) (*VulkanShaderStage, error) {
	code, err := loaders.LoadSPIRV(path)
	if err != nil {
		core.LogError("unable to read shader module %s: %s", path, err)
		return nil, err
	}

	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code) * 4),
		PCode:    code,
	}
	var module vk.ShaderModule
	if res := vk.CreateShaderModule(context.Device.LogicalDevice, &createInfo, context.Allocator, &module); res != vk.Success {
		return nil, fmt.Errorf("vkCreateShaderModule %s failed with %s", path, VulkanResultString(res, true))
	}

	return &VulkanShaderStage{
		Handle: module,
		ShaderStageCreateInfo: vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  stage,
			Module: module,
			PName:  VulkanSafeString("main"),
		},
	}, nil
}

func (s *VulkanShaderStage) Destroy(context *VulkanContext) {
	if s.Handle != vk.NullShaderModule {
		vk.DestroyShaderModule(context.Device.LogicalDevice, s.Handle, context.Allocator)
		s.Handle = vk.NullShaderModule
	}
}
