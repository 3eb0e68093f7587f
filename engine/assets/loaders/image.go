package loaders

import (
	"fmt"
	"image"
	"image/draw"
	"os"

	"golang.org/x/image/bmp"

	"github.com/spaghettifunk/tesseract/engine/renderer/metadata"
)

// ImageLoader decodes BMP files into an *image.RGBA, the layout glfw expects for window icons.
type ImageLoader struct{}

func (il *ImageLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	img, err := LoadImage(path)
	if err != nil {
		return nil, err
	}
	return &metadata.Resource{
		Name:     resourceName(path, params),
		FullPath: path,
		Type:     metadata.ResourceTypeImage,
		DataSize: uint64(len(img.Pix)),
		Data:     img,
	}, nil
}

func (il *ImageLoader) Unload(resource *metadata.Resource) error {
	resource.Data = nil
	resource.DataSize = 0
	return nil
}

func LoadImage(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("image loader: %w", err)
	}
	defer f.Close()

	src, err := bmp.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("image loader: decode %s: %w", path, err)
	}
	if rgba, ok := src.(*image.RGBA); ok {
		return rgba, nil
	}
	rgba := image.NewRGBA(src.Bounds())
	draw.Draw(rgba, rgba.Bounds(), src, src.Bounds().Min, draw.Src)
	return rgba, nil
}
