package renderer

import (
	"fmt"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/tesseract/engine/core"
	"github.com/spaghettifunk/tesseract/engine/math"
	"github.com/spaghettifunk/tesseract/engine/renderer/buffer"
	"github.com/spaghettifunk/tesseract/engine/renderer/components"
	"github.com/spaghettifunk/tesseract/engine/renderer/metadata"
)

// mockFence models a GPU that never finishes work on its own: a submitted
// fence stays pending until somebody waits on it.
type mockFence struct {
	id       int
	signaled bool
	pending  bool
}

type mockBackend struct {
	imageCount uint32

	log        []string
	violations []string
	live       map[string]int

	fences      []*mockFence
	waits       []int
	cbFence     map[*metadata.CommandBuffer]*mockFence
	submits     int
	acquires    int
	acquireSeq  []uint32
	acquireErrs map[int]error
	presentErrs map[int]error
	presents    int
	recorded    []metadata.DrawCommand
}

func newMockBackend(imageCount uint32) *mockBackend {
	return &mockBackend{
		imageCount:  imageCount,
		live:        map[string]int{},
		cbFence:     map[*metadata.CommandBuffer]*mockFence{},
		acquireErrs: map[int]error{},
		presentErrs: map[int]error{},
	}
}

func (m *mockBackend) created(kind string) {
	m.log = append(m.log, "create "+kind)
	m.live[kind]++
}

func (m *mockBackend) destroyed(kind string) {
	m.log = append(m.log, "destroy "+kind)
	if m.live[kind] == 0 {
		m.violations = append(m.violations, "double destroy of "+kind)
	}
	m.live[kind]--
	if m.live[kind] == 0 {
		delete(m.live, kind)
	}
}

func (m *mockBackend) violate(format string, args ...interface{}) {
	m.violations = append(m.violations, fmt.Sprintf(format, args...))
}

func (m *mockBackend) fence(f *metadata.Fence) *mockFence {
	return f.InternalData.(*mockFence)
}

func (m *mockBackend) Initialize(config metadata.RendererBackendConfig) error { return nil }
func (m *mockBackend) Shutdown() error                                         { return nil }

func (m *mockBackend) WaitIdle() error {
	for _, f := range m.fences {
		if f.pending {
			f.pending = false
			f.signaled = true
		}
	}
	return nil
}

func (m *mockBackend) GraphicsQueue() *metadata.Queue    { return &metadata.Queue{Name: "graphics"} }
func (m *mockBackend) BufferDevice() buffer.Device       { return m }
func (m *mockBackend) BufferAllocator() buffer.Allocator { return m }

func (m *mockBackend) CreateSemaphore() (*metadata.Semaphore, error) {
	m.created("semaphore")
	return &metadata.Semaphore{}, nil
}

func (m *mockBackend) DestroySemaphore(s *metadata.Semaphore) { m.destroyed("semaphore") }

func (m *mockBackend) CreateFence(signaled bool) (*metadata.Fence, error) {
	m.created("fence")
	f := &mockFence{id: len(m.fences), signaled: signaled}
	m.fences = append(m.fences, f)
	return &metadata.Fence{InternalData: f}, nil
}

func (m *mockBackend) WaitForFence(fence *metadata.Fence) error {
	f := m.fence(fence)
	m.waits = append(m.waits, f.id)
	if !f.signaled && !f.pending {
		m.violate("wait on fence %d that will never signal", f.id)
	}
	f.pending = false
	f.signaled = true
	return nil
}

func (m *mockBackend) ResetFence(fence *metadata.Fence) error {
	f := m.fence(fence)
	if f.pending {
		m.violate("reset of pending fence %d", f.id)
	}
	f.signaled = false
	return nil
}

func (m *mockBackend) DestroyFence(fence *metadata.Fence) { m.destroyed("fence") }

func (m *mockBackend) CreateSwapchain(extent metadata.Extent2D) (*metadata.Swapchain, error) {
	m.created("swapchain")
	return &metadata.Swapchain{Extent: extent, ImageCount: m.imageCount}, nil
}

func (m *mockBackend) DestroySwapchain(s *metadata.Swapchain) { m.destroyed("swapchain") }

func (m *mockBackend) CreateImageViews(s *metadata.Swapchain) ([]*metadata.ImageView, error) {
	views := make([]*metadata.ImageView, s.ImageCount)
	for i := range views {
		m.created("image view")
		views[i] = &metadata.ImageView{Index: uint32(i)}
	}
	return views, nil
}

func (m *mockBackend) DestroyImageView(v *metadata.ImageView) { m.destroyed("image view") }

func (m *mockBackend) CreateDescriptorPool(maxSets uint32) (*metadata.DescriptorPool, error) {
	m.created("descriptor pool")
	return &metadata.DescriptorPool{MaxSets: maxSets}, nil
}

func (m *mockBackend) DestroyDescriptorPool(p *metadata.DescriptorPool) {
	m.destroyed("descriptor pool")
}

func (m *mockBackend) AllocateDescriptorSets(pool *metadata.DescriptorPool, uniforms []*metadata.BufferHandle, rangeSize uint64) ([]*metadata.DescriptorSet, error) {
	if uint32(len(uniforms)) > pool.MaxSets {
		m.violate("%d sets from a pool of %d", len(uniforms), pool.MaxSets)
	}
	if rangeSize != components.UNIFORM_PAYLOAD_SIZE {
		m.violate("descriptor range %d", rangeSize)
	}
	sets := make([]*metadata.DescriptorSet, len(uniforms))
	for i, u := range uniforms {
		sets[i] = &metadata.DescriptorSet{InternalData: u}
	}
	return sets, nil
}

func (m *mockBackend) CreatePipeline(s *metadata.Swapchain) (*metadata.Pipeline, error) {
	m.created("pipeline")
	return &metadata.Pipeline{Extent: s.Extent}, nil
}

func (m *mockBackend) DestroyPipeline(p *metadata.Pipeline) { m.destroyed("pipeline") }

func (m *mockBackend) CreateDepthAttachment(extent metadata.Extent2D) (*metadata.DepthAttachment, error) {
	m.created("depth")
	return &metadata.DepthAttachment{Extent: extent}, nil
}

func (m *mockBackend) DestroyDepthAttachment(d *metadata.DepthAttachment) { m.destroyed("depth") }

func (m *mockBackend) CreateFramebuffer(p *metadata.Pipeline, v *metadata.ImageView, d *metadata.DepthAttachment, extent metadata.Extent2D) (*metadata.Framebuffer, error) {
	m.created("framebuffer")
	return &metadata.Framebuffer{Extent: extent}, nil
}

func (m *mockBackend) DestroyFramebuffer(f *metadata.Framebuffer) { m.destroyed("framebuffer") }

func (m *mockBackend) AllocateCommandBuffers(count uint32) ([]*metadata.CommandBuffer, error) {
	m.created("command buffers")
	cbs := make([]*metadata.CommandBuffer, count)
	for i := range cbs {
		cbs[i] = &metadata.CommandBuffer{}
	}
	return cbs, nil
}

func (m *mockBackend) FreeCommandBuffers(cbs []*metadata.CommandBuffer) {
	for _, cb := range cbs {
		if f := m.cbFence[cb]; f != nil && f.pending {
			m.violate("free of command buffer still in flight")
		}
	}
	m.destroyed("command buffers")
}

func (m *mockBackend) RecordDraw(cb *metadata.CommandBuffer, draw metadata.DrawCommand) error {
	if f := m.cbFence[cb]; f != nil && f.pending {
		m.violate("record of command buffer in flight on fence %d", f.id)
	}
	m.recorded = append(m.recorded, draw)
	return nil
}

func (m *mockBackend) AcquireNextImage(s *metadata.Swapchain, signal *metadata.Semaphore) (uint32, error) {
	call := m.acquires
	m.acquires++
	if err, ok := m.acquireErrs[call]; ok {
		return 0, err
	}
	if call < len(m.acquireSeq) {
		return m.acquireSeq[call], nil
	}
	return uint32(call) % s.ImageCount, nil
}

func (m *mockBackend) Submit(cb *metadata.CommandBuffer, wait, signal *metadata.Semaphore, fence *metadata.Fence) error {
	f := m.fence(fence)
	if f.signaled || f.pending {
		m.violate("submit with fence %d not reset", f.id)
	}
	f.pending = true
	m.cbFence[cb] = f
	m.submits++
	return nil
}

func (m *mockBackend) Present(s *metadata.Swapchain, imageIndex uint32, wait *metadata.Semaphore) error {
	call := m.presents
	m.presents++
	return m.presentErrs[call]
}

// buffer.Device

func (m *mockBackend) CreateBuffer(size uint64, usage metadata.BufferUsage) (*metadata.BufferHandle, metadata.MemoryRequirements, error) {
	m.created("buffer")
	return &metadata.BufferHandle{Size: size, Usage: usage}, metadata.MemoryRequirements{Size: size, Alignment: 16}, nil
}

func (m *mockBackend) BindBufferMemory(b *metadata.BufferHandle, a *buffer.Allocation) error {
	return nil
}

func (m *mockBackend) DestroyBuffer(b *metadata.BufferHandle) { m.destroyed("buffer") }

func (m *mockBackend) CopyBuffer(queue *metadata.Queue, cmd *metadata.CommandBuffer, src, dst *metadata.BufferHandle, size uint64) error {
	m.log = append(m.log, fmt.Sprintf("copy %d", size))
	return nil
}

// buffer.Allocator

func (m *mockBackend) Allocate(desc buffer.AllocationDesc) (*buffer.Allocation, error) {
	m.created("memory")
	a := &buffer.Allocation{Name: desc.Name, Size: desc.Requirements.Size, Location: desc.Location}
	if desc.Location.HostVisible() {
		a.Mapped = make([]byte, desc.Requirements.Size)
	}
	return a, nil
}

func (m *mockBackend) Free(a *buffer.Allocation) error {
	m.destroyed("memory")
	return nil
}

type stubCamera struct {
	updates int
}

func (c *stubCamera) UpdateView() { c.updates++ }

func (c *stubCamera) Data(model math.Mat5) components.UniformPayload {
	p := components.NewUniformPayload(model, math.NewMat4Identity())
	// Tag the payload so tests can tell which frame wrote it.
	p.Cam4Const = float32(c.updates)
	return p
}

type stubScene struct{}

func (stubScene) Vertices() []metadata.Vertex4 {
	return []metadata.Vertex4{
		{Position: [4]float32{1, 0, 0, 0}},
		{Position: [4]float32{0, 1, 0, 0}},
		{Position: [4]float32{0, 0, 1, 0}},
	}
}

func (stubScene) Indices() []uint16 { return []uint16{0, 1, 2} }

func (stubScene) Transform() math.Mat5 { return math.NewMat5Identity() }

func newTestRenderer(t *testing.T, imageCount uint32, extent metadata.Extent2D) (*Renderer, *mockBackend, *stubCamera) {
	t.Helper()
	backend := newMockBackend(imageCount)
	cam := &stubCamera{}
	r := New(backend, cam, stubScene{})
	require.NoError(t, r.Initialize(extent))
	return r, backend, cam
}

func destroys(log []string) []string {
	var out []string
	for _, l := range log {
		if len(l) > 8 && l[:8] == "destroy " {
			out = append(out, l[8:])
		}
	}
	return out
}

func count(log []string, entry string) int {
	n := 0
	for _, l := range log {
		if l == entry {
			n++
		}
	}
	return n
}

func TestInitializeBuildsChain(t *testing.T) {
	r, b, _ := newTestRenderer(t, 3, metadata.Extent2D{Width: 800, Height: 600})
	assert.Equal(t, 3, r.ImageCount())
	assert.Equal(t, CHAIN_STATE_STABLE, r.ChainState())
	assert.Equal(t, FRAME_STATE_IDLE, r.FrameState())
	assert.Len(t, b.fences, MAX_FRAMES_IN_FLIGHT)
	assert.Equal(t, 2*MAX_FRAMES_IN_FLIGHT, b.live["semaphore"])
	assert.Equal(t, 3, b.live["framebuffer"])
	assert.Empty(t, b.violations)

	// Vertex and index data go through staging buffers that are gone afterwards.
	assert.Contains(t, b.log, fmt.Sprintf("copy %d", 3*metadata.VERTEX4_STRIDE))
	assert.Contains(t, b.log, "copy 6")
	// Two device-local geometry buffers and one uniform buffer per image.
	assert.Equal(t, 2+3, b.live["buffer"])
	assert.Equal(t, b.live["buffer"], b.live["memory"])

	// Every command buffer is recorded once the chain exists.
	require.Len(t, b.recorded, 3)
	for _, d := range b.recorded {
		assert.Equal(t, uint32(3), d.IndexCount)
		assert.Equal(t, float32(1), d.ClearDepth)
		assert.Equal(t, [4]float32{0, 0, 0, 1}, d.ClearColour)
	}
}

func TestFencesAreNeverResetWhilePending(t *testing.T) {
	for _, images := range []uint32{1, 2, 3, 4} {
		t.Run(fmt.Sprintf("%d images", images), func(t *testing.T) {
			r, b, _ := newTestRenderer(t, images, metadata.Extent2D{Width: 640, Height: 480})
			for i := 0; i < 12; i++ {
				require.NoError(t, r.DrawFrame())
				assert.Equal(t, uint32((i+1)%MAX_FRAMES_IN_FLIGHT), r.CurrentFrame())
			}
			assert.Empty(t, b.violations)
			assert.Equal(t, 12, b.submits)
			assert.Equal(t, uint64(12), r.FrameNumber())
		})
	}
}

func TestAcquiredImageOwnedByOtherFrameIsWaited(t *testing.T) {
	r, b, _ := newTestRenderer(t, 3, metadata.Extent2D{Width: 640, Height: 480})
	b.acquireSeq = []uint32{0, 1, 1}

	require.NoError(t, r.DrawFrame())
	require.NoError(t, r.DrawFrame())
	b.waits = nil

	// Frame slot 0 gets image 1, last used by slot 1 whose work is still pending.
	require.NoError(t, r.DrawFrame())
	assert.Equal(t, []int{0, 1}, b.waits)
	assert.Empty(t, b.violations)
	assert.Same(t, r.frames[0].inFlight, r.imagesInFlight[1])
}

func TestSameSlotImageIsNotWaitedTwice(t *testing.T) {
	r, b, _ := newTestRenderer(t, 3, metadata.Extent2D{Width: 640, Height: 480})
	b.acquireSeq = []uint32{2, 0, 2}
	for i := 0; i < 3; i++ {
		require.NoError(t, r.DrawFrame())
	}
	// Third frame: slot 0 waits its own fence only, image 2 was last used by slot 0.
	assert.Equal(t, []int{0, 1, 0}, b.waits)
	assert.Empty(t, b.violations)
}

func TestUniformOfAcquiredImageIsWritten(t *testing.T) {
	r, b, cam := newTestRenderer(t, 3, metadata.Extent2D{Width: 640, Height: 480})
	b.acquireSeq = []uint32{2}

	require.NoError(t, r.DrawFrame())
	read := func(i int) components.UniformPayload {
		mapped := r.uniforms[i].Allocation().Mapped
		return *(*components.UniformPayload)(unsafe.Pointer(&mapped[0]))
	}
	assert.Equal(t, float32(cam.updates), read(2).Cam4Const)
	assert.Equal(t, float32(0), read(0).Cam4Const)
	assert.Equal(t, 1, cam.updates)
}

func TestOutOfDateAcquireRebuildsAndSkipsFrame(t *testing.T) {
	r, b, _ := newTestRenderer(t, 3, metadata.Extent2D{Width: 640, Height: 480})
	b.acquireErrs[0] = fmt.Errorf("acquire: %w", core.ErrSwapchainOutOfDate)

	require.NoError(t, r.DrawFrame())
	assert.Equal(t, 2, count(b.log, "create swapchain"))
	assert.Equal(t, 0, b.submits)
	assert.Equal(t, uint32(0), r.CurrentFrame())

	require.NoError(t, r.DrawFrame())
	assert.Equal(t, 1, b.submits)
	assert.Empty(t, b.violations)
}

func TestOutOfDatePresentRebuildsAfterFrame(t *testing.T) {
	r, b, _ := newTestRenderer(t, 3, metadata.Extent2D{Width: 640, Height: 480})
	b.presentErrs[0] = core.ErrSwapchainOutOfDate

	require.NoError(t, r.DrawFrame())
	assert.Equal(t, 1, b.submits)
	assert.Equal(t, 2, count(b.log, "create swapchain"))
	assert.Equal(t, uint32(1), r.CurrentFrame())

	require.NoError(t, r.DrawFrame())
	assert.Empty(t, b.violations)
}

func TestResizeRebuildsAtNewExtent(t *testing.T) {
	r, b, _ := newTestRenderer(t, 3, metadata.Extent2D{Width: 800, Height: 600})
	require.NoError(t, r.DrawFrame())

	small := metadata.Extent2D{Width: 400, Height: 300}
	r.UpdateSurfaceResolution(small)
	require.NoError(t, r.RecreateSwapchain())

	assert.Equal(t, 3, r.ImageCount())
	assert.Equal(t, small, r.swapchain.Extent)
	assert.Equal(t, small, r.pipeline.Extent)
	assert.Equal(t, small, r.depth.Extent)
	for _, fb := range r.framebuffers {
		assert.Equal(t, small, fb.Extent)
	}
	assert.Equal(t, 3, b.live["framebuffer"])
	assert.Equal(t, 1, b.live["swapchain"])
	assert.Equal(t, 1, b.live["pipeline"])

	require.NoError(t, r.DrawFrame())
	assert.Equal(t, small, b.recorded[len(b.recorded)-1].Extent)
	assert.Empty(t, b.violations)
}

func TestResizeAloneRebuildsOnNextFrame(t *testing.T) {
	r, b, _ := newTestRenderer(t, 3, metadata.Extent2D{Width: 800, Height: 600})
	require.NoError(t, r.DrawFrame())

	r.UpdateSurfaceResolution(metadata.Extent2D{Width: 800, Height: 600})
	require.NoError(t, r.DrawFrame())
	assert.Equal(t, 1, count(b.log, "create swapchain"))

	wide := metadata.Extent2D{Width: 1280, Height: 600}
	r.UpdateSurfaceResolution(wide)
	require.NoError(t, r.DrawFrame())
	assert.Equal(t, 2, count(b.log, "create swapchain"))
	assert.Equal(t, wide, r.swapchain.Extent)
	assert.Equal(t, wide, b.recorded[len(b.recorded)-1].Extent)
	assert.Empty(t, b.violations)
}

func TestRebuildTearsDownInReverseOrder(t *testing.T) {
	r, b, _ := newTestRenderer(t, 2, metadata.Extent2D{Width: 800, Height: 600})
	b.log = nil
	require.NoError(t, r.RecreateSwapchain())

	want := []string{
		"command buffers",
		"framebuffer", "framebuffer",
		"depth",
		"pipeline",
		"descriptor pool",
		"memory", "buffer",
		"memory", "buffer",
		"image view", "image view",
		"swapchain",
	}
	assert.Equal(t, want, destroys(b.log))
	assert.Equal(t, "create swapchain", b.log[len(want)])
}

func TestMinimizedSurfaceDefersRebuild(t *testing.T) {
	r, b, _ := newTestRenderer(t, 3, metadata.Extent2D{Width: 800, Height: 600})

	r.UpdateSurfaceResolution(metadata.Extent2D{Width: 0, Height: 600})
	require.NoError(t, r.RecreateSwapchain())
	require.NoError(t, r.DrawFrame())
	assert.Equal(t, 1, count(b.log, "create swapchain"))
	assert.Equal(t, 0, b.acquires)

	r.UpdateSurfaceResolution(metadata.Extent2D{Width: 1024, Height: 768})
	require.NoError(t, r.DrawFrame())
	assert.Equal(t, 2, count(b.log, "create swapchain"))
	assert.Equal(t, metadata.Extent2D{Width: 1024, Height: 768}, r.swapchain.Extent)
	assert.Equal(t, 1, b.submits)
}

func TestShutdownReleasesEverything(t *testing.T) {
	r, b, _ := newTestRenderer(t, 3, metadata.Extent2D{Width: 800, Height: 600})
	for i := 0; i < 5; i++ {
		require.NoError(t, r.DrawFrame())
	}
	require.NoError(t, r.Shutdown())
	assert.Empty(t, b.live)
	assert.Empty(t, b.violations)
	assert.Equal(t, 0, r.ImageCount())
}

func TestEmptySceneIsRejected(t *testing.T) {
	backend := newMockBackend(2)
	r := New(backend, &stubCamera{}, emptyScene{})
	assert.Error(t, r.Initialize(metadata.Extent2D{Width: 1, Height: 1}))
}

type emptyScene struct{ stubScene }

func (emptyScene) Indices() []uint16 { return nil }
