package buffer

import (
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/tesseract/engine/core"
	"github.com/spaghettifunk/tesseract/engine/renderer/metadata"
)

type fakeDevice struct {
	calls     []string
	copies    []uint64
	bindErr   error
	createErr error
}

func (d *fakeDevice) CreateBuffer(size uint64, usage metadata.BufferUsage) (*metadata.BufferHandle, metadata.MemoryRequirements, error) {
	if d.createErr != nil {
		return nil, metadata.MemoryRequirements{}, d.createErr
	}
	d.calls = append(d.calls, "create")
	// Devices may round the size up.
	return &metadata.BufferHandle{Size: size, Usage: usage}, metadata.MemoryRequirements{Size: metadata.GetAligned(size, 64), Alignment: 64}, nil
}

func (d *fakeDevice) BindBufferMemory(buffer *metadata.BufferHandle, allocation *Allocation) error {
	d.calls = append(d.calls, "bind")
	return d.bindErr
}

func (d *fakeDevice) DestroyBuffer(buffer *metadata.BufferHandle) {
	d.calls = append(d.calls, "destroy")
}

func (d *fakeDevice) CopyBuffer(queue *metadata.Queue, cmd *metadata.CommandBuffer, src, dst *metadata.BufferHandle, size uint64) error {
	d.calls = append(d.calls, "copy")
	d.copies = append(d.copies, size)
	return nil
}

func (d *fakeDevice) WaitIdle() error {
	d.calls = append(d.calls, "wait_idle")
	return nil
}

type fakeAllocator struct {
	device *fakeDevice
	live   map[*Allocation]bool
	names  []string
	fail   bool
}

func newFakeAllocator(d *fakeDevice) *fakeAllocator {
	return &fakeAllocator{device: d, live: map[*Allocation]bool{}}
}

func (a *fakeAllocator) Allocate(desc AllocationDesc) (*Allocation, error) {
	if a.fail {
		return nil, errors.New("out of device memory")
	}
	a.device.calls = append(a.device.calls, "allocate")
	a.names = append(a.names, desc.Name)
	alloc := &Allocation{Name: desc.Name, Size: desc.Requirements.Size, Location: desc.Location}
	if desc.Location.HostVisible() {
		alloc.Mapped = make([]byte, desc.Requirements.Size)
	}
	a.live[alloc] = true
	return alloc, nil
}

func (a *fakeAllocator) Free(allocation *Allocation) error {
	a.device.calls = append(a.device.calls, "free")
	delete(a.live, allocation)
	return nil
}

func newTestContext() (*Context, *fakeDevice, *fakeAllocator) {
	d := &fakeDevice{}
	a := newFakeAllocator(d)
	return NewContext(d, a), d, a
}

func TestNewBufferCreatesAllocatesAndBinds(t *testing.T) {
	ctx, d, a := newTestContext()
	b, err := NewBuffer(ctx, "vertices", 140, metadata.BUFFER_USAGE_VERTEX, metadata.MEMORY_LOCATION_CPU_TO_GPU)
	require.NoError(t, err)
	assert.Equal(t, []string{"create", "allocate", "bind"}, d.calls)
	assert.Equal(t, uint64(140), b.Size())
	require.Len(t, a.names, 1)
	assert.True(t, strings.HasPrefix(a.names[0], "vertices-"))
}

func TestNewBufferFailures(t *testing.T) {
	ctx, d, a := newTestContext()
	a.fail = true
	_, err := NewBuffer(ctx, "big", 1<<20, metadata.BUFFER_USAGE_VERTEX, metadata.MEMORY_LOCATION_GPU_ONLY)
	assert.ErrorIs(t, err, core.ErrAllocationFailed)
	assert.Equal(t, []string{"create", "destroy"}, d.calls)

	ctx, d, _ = newTestContext()
	d.bindErr = errors.New("bind failed")
	_, err = NewBuffer(ctx, "big", 64, metadata.BUFFER_USAGE_VERTEX, metadata.MEMORY_LOCATION_GPU_ONLY)
	assert.ErrorIs(t, err, core.ErrAllocationFailed)
	assert.Equal(t, []string{"create", "allocate", "bind", "free", "destroy"}, d.calls)

	_, err = NewBuffer(ctx, "empty", 0, metadata.BUFFER_USAGE_VERTEX, metadata.MEMORY_LOCATION_GPU_ONLY)
	assert.ErrorIs(t, err, core.ErrAllocationFailed)
}

func TestSetDataCopiesElements(t *testing.T) {
	ctx, _, _ := newTestContext()
	verts := []metadata.Vertex4{
		{Position: [4]float32{-0.5, -0.5, -0.5, -0.5}, Color: [3]float32{1, 0, 0}},
		{Position: [4]float32{0.5, -0.5, 0.5, -0.5}, Color: [3]float32{0, 1, 0}},
	}
	b, err := NewBuffer(ctx, "vertices", uint64(len(verts))*uint64(metadata.VERTEX4_STRIDE), metadata.BUFFER_USAGE_VERTEX, metadata.MEMORY_LOCATION_CPU_TO_GPU)
	require.NoError(t, err)
	require.NoError(t, SetData(b, verts))

	mem := b.Allocation().Mapped
	readF := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(mem[off:])) }
	assert.Equal(t, float32(-0.5), readF(0))
	assert.Equal(t, float32(1), readF(16))
	assert.Equal(t, float32(0.5), readF(28))
	assert.Equal(t, float32(1), readF(28+20))
}

func TestSetDataPreconditions(t *testing.T) {
	ctx, _, _ := newTestContext()
	gpu, err := NewBuffer(ctx, "device-local", 64, metadata.BUFFER_USAGE_VERTEX, metadata.MEMORY_LOCATION_GPU_ONLY)
	require.NoError(t, err)
	assert.ErrorIs(t, SetData(gpu, []uint16{1, 2, 3}), core.ErrNotHostVisible)

	small, err := NewBuffer(ctx, "small", 4, metadata.BUFFER_USAGE_INDEX, metadata.MEMORY_LOCATION_CPU_TO_GPU)
	require.NoError(t, err)
	assert.ErrorIs(t, SetData(small, []uint16{1, 2, 3}), core.ErrBufferOverflow)
	assert.NoError(t, SetData(small, []uint16{1, 2}))
	assert.NoError(t, SetData(small, []uint16{}))
}

func TestTransformFromCopiesThenWaits(t *testing.T) {
	ctx, d, _ := newTestContext()
	staging, err := NewBuffer(ctx, "staging", 60, metadata.BUFFER_USAGE_TRANSFER_SRC, metadata.MEMORY_LOCATION_CPU_TO_GPU)
	require.NoError(t, err)
	dst, err := NewBuffer(ctx, "indices", 60, metadata.BUFFER_USAGE_INDEX|metadata.BUFFER_USAGE_TRANSFER_DST, metadata.MEMORY_LOCATION_GPU_ONLY)
	require.NoError(t, err)
	d.calls = nil

	require.NoError(t, dst.TransformFrom(&metadata.Queue{Name: "graphics"}, &metadata.CommandBuffer{}, staging))
	assert.Equal(t, []string{"copy", "wait_idle"}, d.calls)
	assert.Equal(t, []uint64{60}, d.copies)

	tiny, err := NewBuffer(ctx, "tiny", 8, metadata.BUFFER_USAGE_TRANSFER_DST, metadata.MEMORY_LOCATION_GPU_ONLY)
	require.NoError(t, err)
	assert.ErrorIs(t, tiny.TransformFrom(&metadata.Queue{}, &metadata.CommandBuffer{}, staging), core.ErrBufferOverflow)
}

func TestDestroyFreesThenDestroys(t *testing.T) {
	ctx, d, a := newTestContext()
	b, err := NewBuffer(ctx, "uniform", 176, metadata.BUFFER_USAGE_UNIFORM, metadata.MEMORY_LOCATION_CPU_TO_GPU)
	require.NoError(t, err)
	d.calls = nil

	require.NoError(t, b.Destroy())
	assert.Equal(t, []string{"free", "destroy"}, d.calls)
	assert.Empty(t, a.live)

	require.NoError(t, b.Destroy())
	assert.Equal(t, []string{"free", "destroy"}, d.calls)
	assert.Error(t, SetData(b, []float32{1}))
}
