package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

// Binding of the camera uniform block in set 0.
const UNIFORM_BINDING uint32 = 0

// DescriptorSetLayoutCreate creates the layout of the single uniform block read by the vertex stage.
func DescriptorSetLayoutCreate(context *VulkanContext) (vk.DescriptorSetLayout, error) {
	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: 1,
		PBindings: []vk.DescriptorSetLayoutBinding{{
			Binding:         UNIFORM_BINDING,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		}},
	}
	var layout vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(context.Device.LogicalDevice, &layoutInfo, context.Allocator, &layout); res != vk.Success {
		return vk.NullDescriptorSetLayout, fmt.Errorf("vkCreateDescriptorSetLayout failed with %s", VulkanResultString(res, true))
	}
	return layout, nil
}

// DescriptorPoolCreate creates a pool holding maxSets uniform buffer sets.
func DescriptorPoolCreate(context *VulkanContext, maxSets uint32) (vk.DescriptorPool, error) {
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       maxSets,
		PoolSizeCount: 1,
		PPoolSizes: []vk.DescriptorPoolSize{{
			Type:            vk.DescriptorTypeUniformBuffer,
			DescriptorCount: maxSets,
		}},
	}
	var pool vk.DescriptorPool
	err := context.locks.SafeCall(DescriptorManagement, func() error {
		if res := vk.CreateDescriptorPool(context.Device.LogicalDevice, &poolInfo, context.Allocator, &pool); res != vk.Success {
			return fmt.Errorf("vkCreateDescriptorPool failed with %s", VulkanResultString(res, true))
		}
		return nil
	})
	return pool, err
}

/**
 * @brief Allocates one set per uniform buffer from pool and points its
 * binding at the first rangeSize bytes of that buffer.
 */
func DescriptorSetsAllocate(context *VulkanContext, pool vk.DescriptorPool, uniforms []vk.Buffer, rangeSize uint64) ([]vk.DescriptorSet, error) {
	sets := make([]vk.DescriptorSet, len(uniforms))
	for i := range uniforms {
		allocateInfo := vk.DescriptorSetAllocateInfo{
			SType:              vk.StructureTypeDescriptorSetAllocateInfo,
			DescriptorPool:     pool,
			DescriptorSetCount: 1,
			PSetLayouts:        []vk.DescriptorSetLayout{context.DescriptorSetLayout},
		}
		err := context.locks.SafeCall(DescriptorManagement, func() error {
			if res := vk.AllocateDescriptorSets(context.Device.LogicalDevice, &allocateInfo, &sets[i]); res != vk.Success {
				return fmt.Errorf("vkAllocateDescriptorSets failed with %s", VulkanResultString(res, true))
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	writes := make([]vk.WriteDescriptorSet, len(uniforms))
	for i, uniform := range uniforms {
		writes[i] = vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          sets[i],
			DstBinding:      UNIFORM_BINDING,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			PBufferInfo: []vk.DescriptorBufferInfo{{
				Buffer: uniform,
				Offset: 0,
				Range:  vk.DeviceSize(rangeSize),
			}},
		}
	}
	vk.UpdateDescriptorSets(context.Device.LogicalDevice, uint32(len(writes)), writes, 0, nil)
	return sets, nil
}
