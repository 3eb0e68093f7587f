package vulkan

const VULKAN_ENGINE_NAME string = "Tesseract"

/**
 * @brief The Khronos validation layer, enabled together with the debug
 * report callback when validation is requested.
 */
const VULKAN_VALIDATION_LAYER string = "VK_LAYER_KHRONOS_validation"

/**
 * @brief Base name of the compiled shader stages inside the shader
 * directory (<name>.vert.spv and <name>.frag.spv).
 */
const VULKAN_SHADER_NAME string = "shader"
