package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/tesseract/engine/assets"
	"github.com/spaghettifunk/tesseract/engine/core"
	"github.com/spaghettifunk/tesseract/engine/renderer/metadata"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tesseract.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadApplicationConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadApplicationConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultApplicationConfig(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadApplicationConfigOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
name = "Pentachoron"
log_level = "debug"

[window]
width = 800
height = 600

[renderer]
enable_validation = true
target_fps = 60

[camera]
position = [0.0, 0.0, 0.0, 6.0]
near = -2.0

[scene]
entity = "simplex"
spin_plane = "xw"
spin_speed = 0.5
`)
	cfg, err := LoadApplicationConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "Pentachoron", cfg.Name)
	assert.Equal(t, core.DebugLevel, cfg.LogLevel)
	assert.Equal(t, uint32(800), cfg.Window.StartWidth)
	assert.Equal(t, 100, cfg.Window.StartPosX)
	assert.True(t, cfg.Renderer.EnableValidation)
	assert.Equal(t, uint32(60), cfg.Renderer.TargetFPS)
	assert.Equal(t, "shaders", cfg.Renderer.ShaderDir)
	assert.Equal(t, [4]float32{0, 0, 0, 6}, cfg.Camera.Position)
	assert.Equal(t, float32(-2), cfg.Camera.Near)
	assert.Equal(t, float32(-100), cfg.Camera.Far)
	assert.Equal(t, "simplex", cfg.Scene.Entity)
	assert.Equal(t, "xw", cfg.Scene.SpinPlane)
	assert.Equal(t, float32(0.5), cfg.Scene.SpinSpeed)
}

func TestLoadApplicationConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"unknown key":    "colour = \"red\"\n",
		"bad syntax":     "name = \n",
		"empty window":   "[window]\nwidth = 0\n",
		"unknown entity": "[scene]\nentity = \"torus\"\n",
		"unknown plane":  "[scene]\nspin_plane = \"xq\"\n",
		"flat frustum":   "[camera]\nnear = -100.0\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadApplicationConfig(writeConfig(t, body))
			assert.ErrorIs(t, err, core.ErrInvalidConfig)
		})
	}
}

func newTestEngine(t *testing.T) (*Engine, *[]uint32) {
	t.Helper()
	core.EventSystemShutdown()
	require.True(t, core.EventSystemInitialize())
	t.Cleanup(func() { core.EventSystemShutdown() })

	var resizes []uint32
	g := &Game{
		ApplicationConfig: DefaultApplicationConfig(),
		FnOnResize: func(width, height uint32) error {
			resizes = append(resizes, width, height)
			return nil
		},
	}
	e := &Engine{gameInstance: g, isRunning: true, width: 1280, height: 720}
	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	core.EventRegister(core.EVENT_CODE_KEY_PRESSED, e, e.onKey)
	core.EventRegister(core.EVENT_CODE_RESIZED, e, e.onResized)
	return e, &resizes
}

func TestEscapeQuits(t *testing.T) {
	e, _ := newTestEngine(t)

	core.EventFire(core.EventContext{Type: core.EVENT_CODE_KEY_PRESSED, Data: &core.KeyEvent{KeyCode: core.KEY_W}})
	assert.True(t, e.isRunning)

	handled := core.EventFire(core.EventContext{Type: core.EVENT_CODE_KEY_PRESSED, Data: &core.KeyEvent{KeyCode: core.KEY_ESCAPE}})
	assert.True(t, handled)
	assert.False(t, e.isRunning)
}

func TestResizeSuspendsOnZeroArea(t *testing.T) {
	e, resizes := newTestEngine(t)

	core.EventFire(core.EventContext{Type: core.EVENT_CODE_RESIZED, Data: &core.SystemEvent{WindowWidth: 0, WindowHeight: 0}})
	assert.True(t, e.isSuspended)
	assert.Empty(t, *resizes)

	core.EventFire(core.EventContext{Type: core.EVENT_CODE_RESIZED, Data: &core.SystemEvent{WindowWidth: 640, WindowHeight: 480}})
	assert.False(t, e.isSuspended)
	assert.Equal(t, []uint32{640, 480}, *resizes)
	w, h := e.GetFramebufferSize()
	assert.Equal(t, uint32(640), w)
	assert.Equal(t, uint32(480), h)

	// Same size again is not a resize.
	core.EventFire(core.EventContext{Type: core.EVENT_CODE_RESIZED, Data: &core.SystemEvent{WindowWidth: 640, WindowHeight: 480}})
	assert.Len(t, *resizes, 2)
}

func TestShaderChangeIsHandedToMainLoop(t *testing.T) {
	e, _ := newTestEngine(t)
	jobs, err := core.NewJobSystem(1, 4)
	require.NoError(t, err)
	e.jobs = jobs

	var changed []string
	core.EventRegister(core.EVENT_CODE_ASSET_CHANGED, t, func(ctx core.EventContext) bool {
		changed = append(changed, ctx.Data.(*core.AssetEvent).Name)
		return true
	})

	dir := t.TempDir()
	truncated := filepath.Join(dir, "shader.vert.spv")
	require.NoError(t, os.WriteFile(truncated, []byte{0x03, 0x02}, 0o644))
	valid := filepath.Join(dir, "shader.frag.spv")
	require.NoError(t, os.WriteFile(valid, []byte{0x03, 0x02, 0x23, 0x07}, 0o644))

	e.onAssetChanged(assets.AssetInfo{Path: filepath.Join(dir, "shader.frag"), Type: metadata.ResourceTypeText})
	e.onAssetChanged(assets.AssetInfo{Path: valid, Type: metadata.ResourceTypeShader, Removed: true})
	e.onAssetChanged(assets.AssetInfo{Path: truncated, Type: metadata.ResourceTypeShader})
	e.onAssetChanged(assets.AssetInfo{Path: valid, Type: metadata.ResourceTypeShader})

	// Jobs run in submission order on the single worker.
	require.NoError(t, jobs.Shutdown())
	require.NoError(t, e.reloadShaders())
	require.NoError(t, e.reloadShaders())
	assert.Equal(t, []string{"shader.frag.spv"}, changed)

	e.onAssetChanged(assets.AssetInfo{Path: valid, Type: metadata.ResourceTypeShader})
	assert.Nil(t, e.changedShader.Load())
}

func TestAspect(t *testing.T) {
	assert.InDelta(t, 16.0/9.0, aspect(1920, 1080), 1e-6)
	assert.Equal(t, float32(1), aspect(10, 0))
}
