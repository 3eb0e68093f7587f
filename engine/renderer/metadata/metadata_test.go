package metadata

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestVertex4Layout(t *testing.T) {
	var v Vertex4
	assert.Equal(t, uintptr(VERTEX4_STRIDE), unsafe.Sizeof(v))
	assert.Equal(t, uintptr(VERTEX4_COLOR_OFFSET), unsafe.Offsetof(v.Color))
}

func TestGetAligned(t *testing.T) {
	assert.Equal(t, uint64(256), GetAligned(200, 256))
	assert.Equal(t, uint64(256), GetAligned(256, 256))
	assert.Equal(t, uint64(17), GetAligned(17, 0))
}

func TestExtentAndLocation(t *testing.T) {
	assert.True(t, Extent2D{Width: 0, Height: 600}.IsZero())
	assert.False(t, Extent2D{Width: 800, Height: 600}.IsZero())
	assert.True(t, MEMORY_LOCATION_CPU_TO_GPU.HostVisible())
	assert.False(t, MEMORY_LOCATION_GPU_ONLY.HostVisible())
	assert.True(t, (BUFFER_USAGE_VERTEX | BUFFER_USAGE_TRANSFER_DST).Has(BUFFER_USAGE_TRANSFER_DST))
}
