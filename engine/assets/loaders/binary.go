package loaders

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spaghettifunk/tesseract/engine/renderer/metadata"
)

type BinaryLoader struct{}

// Load reads the whole file as raw bytes.
func (bl *BinaryLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("binary loader: %w", err)
	}
	return &metadata.Resource{
		Name:     resourceName(path, params),
		FullPath: path,
		Type:     metadata.ResourceTypeBinary,
		DataSize: uint64(len(buf)),
		Data:     buf,
	}, nil
}

func (bl *BinaryLoader) Unload(resource *metadata.Resource) error {
	resource.Data = nil
	resource.DataSize = 0
	return nil
}

// resourceName takes the "name" param when given, otherwise the file name without extension.
func resourceName(path string, params interface{}) string {
	if p, ok := params.(map[string]string); ok && p["name"] != "" {
		return p["name"]
	}
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

type TextLoader struct{}

// Load reads the whole file as a string.
func (tl *TextLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("text loader: %w", err)
	}
	return &metadata.Resource{
		Name:     resourceName(path, params),
		FullPath: path,
		Type:     metadata.ResourceTypeText,
		DataSize: uint64(len(buf)),
		Data:     string(buf),
	}, nil
}

func (tl *TextLoader) Unload(resource *metadata.Resource) error {
	resource.Data = nil
	resource.DataSize = 0
	return nil
}
