package loaders

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/spaghettifunk/tesseract/engine/renderer/metadata"
)

// First word of every SPIR-V module.
const SPIRV_MAGIC uint32 = 0x07230203

var ErrInvalidSPIRV = errors.New("invalid SPIR-V module")

type ShaderLoader struct{}

/**
 * @brief Loads a compiled SPIR-V stage. The resource data is the module as
 * little-endian 32-bit words, ready for vkCreateShaderModule.
 */
func (sl *ShaderLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	code, err := LoadSPIRV(path)
	if err != nil {
		return nil, err
	}
	return &metadata.Resource{
		Name:     resourceName(path, params),
		FullPath: path,
		Type:     metadata.ResourceTypeShader,
		DataSize: uint64(len(code) * 4),
		Data:     code,
	}, nil
}

func (sl *ShaderLoader) Unload(resource *metadata.Resource) error {
	resource.Data = nil
	resource.DataSize = 0
	return nil
}

func LoadSPIRV(path string) ([]uint32, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("shader loader: %w", err)
	}
	return bytesToBytecode(buf)
}

func bytesToBytecode(b []byte) ([]uint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, fmt.Errorf("%d bytes is not a whole number of words: %w", len(b), ErrInvalidSPIRV)
	}
	byteCode := make([]uint32, len(b)/4)
	for i := range byteCode {
		byteCode[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	if byteCode[0] != SPIRV_MAGIC {
		return nil, fmt.Errorf("magic number %#08x: %w", byteCode[0], ErrInvalidSPIRV)
	}
	return byteCode, nil
}
