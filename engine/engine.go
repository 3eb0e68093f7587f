package engine

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/tesseract/engine/assets"
	"github.com/spaghettifunk/tesseract/engine/assets/loaders"
	"github.com/spaghettifunk/tesseract/engine/core"
	"github.com/spaghettifunk/tesseract/engine/math"
	"github.com/spaghettifunk/tesseract/engine/platform"
	"github.com/spaghettifunk/tesseract/engine/renderer"
	"github.com/spaghettifunk/tesseract/engine/renderer/components"
	"github.com/spaghettifunk/tesseract/engine/renderer/metadata"
	"github.com/spaghettifunk/tesseract/engine/renderer/vulkan"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently booting up
	EngineStageBooting
	// Engine completed boot process and is ready to be initialized
	EngineStageBootComplete
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

type Engine struct {
	currentStage Stage
	gameInstance *Game
	isRunning    bool
	isSuspended  bool
	platform     *platform.Platform
	assetManager *assets.AssetManager
	jobs         *core.JobSystem
	backend      renderer.RendererBackend
	renderer     *renderer.Renderer
	camera       *components.Camera4
	width        uint32
	height       uint32
	clock        *core.Clock
	lastTime     float64

	fps  *core.FPSCalculator
	done chan struct{}
	wg   sync.WaitGroup

	// Written by the asset watcher goroutine, consumed by the main loop.
	changedShader atomic.Pointer[assets.AssetInfo]
	// Set from outside the main thread, e.g. by a signal handler.
	quitRequested atomic.Bool
}

func New(g *Game) (*Engine, error) {
	if g.ApplicationConfig == nil {
		g.ApplicationConfig = DefaultApplicationConfig()
	}
	p := platform.New()

	am, err := assets.NewAssetManager()
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	// Changed shaders are validated off the main thread before the pipeline is rebuilt.
	jobs, err := core.NewJobSystem(2, 16)
	if err != nil {
		return nil, err
	}

	return &Engine{
		currentStage: EngineStageBooting,
		gameInstance: g,
		clock:        core.NewClock(),
		platform:     p,
		assetManager: am,
		jobs:         jobs,
		backend:      vulkan.New(p),
		isRunning:    true,
		isSuspended:  false,
		width:        g.ApplicationConfig.Window.StartWidth,
		height:       g.ApplicationConfig.Window.StartHeight,
		fps:          core.NewFPSCalculator(nil),
		done:         make(chan struct{}),
	}, nil
}

/**
 * @brief Brings up every subsystem in dependency order: input and events,
 * the window, the asset watcher, the Vulkan backend, the camera, the game
 * and finally the renderer with the game's scene.
 */
func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing
	cfg := e.gameInstance.ApplicationConfig
	core.SetLogLevel(cfg.LogLevel)

	if err := core.InputInitialize(); err != nil {
		return err
	}
	if !core.EventSystemInitialize() {
		return fmt.Errorf("failed to initialize the event system")
	}
	if err := core.MetricsInitialize(); err != nil {
		return err
	}

	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	core.EventRegister(core.EVENT_CODE_KEY_PRESSED, e, e.onKey)
	core.EventRegister(core.EVENT_CODE_KEY_RELEASED, e, e.onKey)
	core.EventRegister(core.EVENT_CODE_RESIZED, e, e.onResized)

	if err := e.platform.Startup(platform.WindowConfig{
		Title:    cfg.Name,
		X:        cfg.Window.StartPosX,
		Y:        cfg.Window.StartPosY,
		Width:    cfg.Window.StartWidth,
		Height:   cfg.Window.StartHeight,
		IconPath: cfg.Window.Icon,
	}); err != nil {
		return err
	}
	// The framebuffer can be larger than the window on high-density displays.
	e.width, e.height = e.platform.FramebufferSize()

	e.assetManager.OnChange(e.onAssetChanged)
	if err := e.assetManager.Initialize(cfg.Renderer.ShaderDir); err != nil {
		return fmt.Errorf("failed to watch shaders in '%s': %w", cfg.Renderer.ShaderDir, err)
	}

	if err := e.backend.Initialize(metadata.RendererBackendConfig{
		ApplicationName:  cfg.Name,
		EnableValidation: cfg.Renderer.EnableValidation,
		ShaderDir:        cfg.Renderer.ShaderDir,
	}); err != nil {
		return err
	}

	camera, err := components.NewCamera4(cfg.Camera)
	if err != nil {
		return err
	}
	camera.Camera3().SetAspect(aspect(e.width, e.height))
	e.camera = camera

	// Camera input is registered after the engine so ESC is handled first.
	for _, code := range []core.EventCode{
		core.EVENT_CODE_KEY_PRESSED,
		core.EVENT_CODE_KEY_RELEASED,
		core.EVENT_CODE_MOUSE_MOVED,
	} {
		core.EventRegister(code, camera, func(ctx core.EventContext) bool {
			camera.HandleEvent(ctx)
			return false
		})
	}

	if err := e.gameInstance.FnInitialize(); err != nil {
		return err
	}
	if e.gameInstance.Scene == nil {
		return fmt.Errorf("game initialized without a scene: %w", core.ErrInvalidConfig)
	}

	e.renderer = renderer.New(e.backend, e.camera, e.gameInstance.Scene)
	if err := e.renderer.Initialize(metadata.Extent2D{Width: e.width, Height: e.height}); err != nil {
		return err
	}

	if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
		return err
	}
	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) Run() error {
	e.currentStage = EngineStageRunning
	cfg := e.gameInstance.ApplicationConfig

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	if cfg.Renderer.FPSReportInterval > 0 {
		interval := time.Duration(cfg.Renderer.FPSReportInterval * float64(time.Second))
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			core.ReportFPS(e.fps, interval, e.done)
		}()
	}

	var targetFrameSeconds float64
	if cfg.Renderer.TargetFPS > 0 {
		targetFrameSeconds = 1.0 / float64(cfg.Renderer.TargetFPS)
	}

	for e.isRunning && !e.quitRequested.Load() {
		if !e.platform.PumpMessages() {
			e.isRunning = false
			break
		}

		if e.isSuspended {
			// Nothing is drawn while minimized; block until the window changes.
			e.platform.WaitMessages()
			continue
		}

		e.clock.Update()
		var currentTime float64 = e.clock.Elapsed()
		var delta float64 = (currentTime - e.lastTime)
		var frameStartTime float64 = platform.GetAbsoluteTime()

		if err := e.gameInstance.FnUpdate(delta); err != nil {
			core.LogError("Game update failed, shutting down: %s", err)
			return err
		}
		e.gameInstance.Scene.Update(delta)

		if err := e.reloadShaders(); err != nil {
			core.LogError("Shader reload failed, shutting down: %s", err)
			return err
		}

		if err := e.renderer.DrawFrame(); err != nil {
			core.LogError("Frame failed, shutting down: %s", err)
			return err
		}
		e.fps.Count()

		var frameEndTime float64 = platform.GetAbsoluteTime()
		var frameElapsedTime float64 = frameEndTime - frameStartTime
		core.MetricsUpdate(frameElapsedTime)

		if remaining := targetFrameSeconds - frameElapsedTime; targetFrameSeconds > 0 && remaining > 0 {
			// If there is time left, give it back to the OS.
			e.platform.Sleep(remaining*1000 - 1)
		}

		// NOTE: Input update/state copying should always be handled
		// after any input should be recorded; I.E. before this line.
		// As a safety, input is the last thing to be updated before
		// this frame ends.
		core.InputUpdate(delta)

		e.lastTime = currentTime
	}
	return nil
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	e.isRunning = false
	close(e.done)
	e.wg.Wait()

	var errs []error
	if e.gameInstance.FnShutdown != nil {
		errs = append(errs, e.gameInstance.FnShutdown())
	}
	if e.renderer != nil {
		errs = append(errs, e.renderer.Shutdown())
	}
	errs = append(errs,
		e.backend.Shutdown(),
		e.assetManager.Shutdown(),
		e.jobs.Shutdown(),
		e.platform.Shutdown(),
		core.EventSystemShutdown(),
		core.InputShutdown(),
	)
	return errors.Join(errs...)
}

// RequestQuit stops the main loop after the current frame. Safe to call from any goroutine.
func (e *Engine) RequestQuit() {
	e.quitRequested.Store(true)
	e.platform.Wake()
}

// GetFramebufferSize returns the width and height (in this order)
// of the application Framebuffer
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) Camera() *components.Camera4 {
	return e.camera
}

/**
 * @brief Runs on the watcher goroutine. A changed SPIR-V module is parsed on
 * the job system; only a module that loads cleanly is handed to the main
 * loop, so a file caught mid-write never reaches pipeline creation.
 */
func (e *Engine) onAssetChanged(info assets.AssetInfo) {
	if info.Type != metadata.ResourceTypeShader || info.Removed {
		return
	}
	err := e.jobs.Submit(core.Job{
		Name: "validate " + filepath.Base(info.Path),
		Run: func() error {
			_, err := loaders.LoadSPIRV(info.Path)
			return err
		},
		OnComplete: func() {
			e.changedShader.Store(&info)
		},
		OnFailure: func(err error) {
			core.LogWarn("keeping the current pipeline, '%s' is not a valid shader yet", info.Path)
		},
	})
	if err != nil {
		core.LogWarn("shader change of '%s' dropped: %s", info.Path, err)
	}
}

// reloadShaders rebuilds the presentation chain, and with it the pipeline, after a compiled shader changed.
func (e *Engine) reloadShaders() error {
	info := e.changedShader.Swap(nil)
	if info == nil {
		return nil
	}
	core.LogInfo("shader '%s' changed, rebuilding pipeline", info.Path)
	core.EventFire(core.EventContext{
		Type: core.EVENT_CODE_ASSET_CHANGED,
		Data: &core.AssetEvent{Name: filepath.Base(info.Path), Path: info.Path},
	})
	if e.renderer == nil {
		return nil
	}
	return e.renderer.RecreateSwapchain()
}

func (e *Engine) onEvent(context core.EventContext) bool {
	switch context.Type {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.isRunning = false
		return true
	}
	return false
}

func (e *Engine) onKey(context core.EventContext) bool {
	ke, ok := context.Data.(*core.KeyEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}

	if context.Type == core.EVENT_CODE_KEY_PRESSED && ke.KeyCode == core.KEY_ESCAPE {
		// NOTE: Technically firing an event to itself, but there may be other listeners.
		core.EventFire(core.EventContext{
			Type: core.EVENT_CODE_APPLICATION_QUIT,
		})
		// Block anything else from processing this.
		return true
	}
	return false
}

func (e *Engine) onResized(context core.EventContext) bool {
	se, ok := context.Data.(*core.SystemEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}

	width := se.WindowWidth
	height := se.WindowHeight
	if width == e.width && height == e.height {
		return false
	}
	e.width = width
	e.height = height
	core.LogDebug("Window resize: %d, %d", width, height)

	extent := metadata.Extent2D{Width: width, Height: height}
	if e.renderer != nil {
		e.renderer.UpdateSurfaceResolution(extent)
	}

	// Handle minimization
	if extent.IsZero() {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return false
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}

	if e.camera != nil {
		e.camera.Camera3().SetAspect(aspect(width, height))
	}
	if e.renderer != nil {
		if err := e.renderer.RecreateSwapchain(); err != nil {
			core.LogError(err.Error())
			e.isRunning = false
		}
	}
	if err := e.gameInstance.FnOnResize(width, height); err != nil {
		core.LogError(err.Error())
	}
	return false
}

func aspect(width, height uint32) float32 {
	if height == 0 {
		return 1
	}
	return math.Clamp(float32(width)/float32(height), 1e-3, 1e3)
}
