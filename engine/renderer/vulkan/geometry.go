package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/tesseract/engine/renderer/metadata"
)

/**
 * @brief Vertex input of the 4D mesh: one interleaved binding holding a
 * vec4 position at location 0 and a vec3 colour at location 1.
 */
func vertex4Binding() vk.VertexInputBindingDescription {
	return vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    metadata.VERTEX4_STRIDE,
		InputRate: vk.VertexInputRateVertex,
	}
}

func vertex4Attributes() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{
			Location: 0,
			Binding:  0,
			Format:   vk.FormatR32g32b32a32Sfloat,
			Offset:   metadata.VERTEX4_POSITION_OFFSET,
		},
		{
			Location: 1,
			Binding:  0,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   metadata.VERTEX4_COLOR_OFFSET,
		},
	}
}

func indexType() vk.IndexType {
	return vk.IndexTypeUint16
}
