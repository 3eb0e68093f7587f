package engine

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/tesseract/engine/core"
	"github.com/spaghettifunk/tesseract/engine/entities"
	"github.com/spaghettifunk/tesseract/engine/math"
	"github.com/spaghettifunk/tesseract/engine/renderer/components"
)

type WindowConfig struct {
	// Window starting position x axis, if applicable.
	StartPosX int `toml:"x"`
	// Window starting position y axis, if applicable.
	StartPosY int `toml:"y"`
	// Window starting width, if applicable.
	StartWidth uint32 `toml:"width"`
	// Window starting height, if applicable.
	StartHeight uint32 `toml:"height"`
	// Optional BMP shown as the window icon.
	Icon string `toml:"icon"`
}

type RendererConfig struct {
	EnableValidation bool `toml:"enable_validation"`
	// Directory holding shader.vert.spv and shader.frag.spv. Watched for changes.
	ShaderDir string `toml:"shader_dir"`
	// Frames per second the main loop sleeps down to. 0 disables the limiter.
	TargetFPS uint32 `toml:"target_fps"`
	// Seconds between two fps log lines. 0 disables the report.
	FPSReportInterval float64 `toml:"fps_report_interval"`
}

type SceneConfig struct {
	// Catalogue entity drawn every frame.
	Entity string `toml:"entity"`
	// Optional rotation plane of the entity (xy, yz, zx, xw, yw, zw).
	SpinPlane string `toml:"spin_plane"`
	// Radians per second.
	SpinSpeed float32 `toml:"spin_speed"`
}

type ApplicationConfig struct {
	// The application name used in windowing, if applicable.
	Name     string                  `toml:"name"`
	LogLevel core.LogLevel           `toml:"log_level"`
	Window   WindowConfig            `toml:"window"`
	Renderer RendererConfig          `toml:"renderer"`
	Camera   components.CameraConfig `toml:"camera"`
	Scene    SceneConfig             `toml:"scene"`
}

func DefaultApplicationConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Name:     "Tesseract",
		LogLevel: core.InfoLevel,
		Window: WindowConfig{
			StartPosX:   100,
			StartPosY:   100,
			StartWidth:  1280,
			StartHeight: 720,
		},
		Renderer: RendererConfig{
			ShaderDir:         "shaders",
			FPSReportInterval: 2,
		},
		Camera: components.DefaultCameraConfig(),
		Scene: SceneConfig{
			Entity: string(entities.KindHypercube),
		},
	}
}

/**
 * @brief Reads the TOML configuration at path on top of the defaults. A
 * missing file yields the defaults; unknown keys and invalid values are
 * reported as core.ErrInvalidConfig.
 */
func LoadApplicationConfig(path string) (*ApplicationConfig, error) {
	cfg := DefaultApplicationConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		core.LogWarn("configuration '%s' not found, using defaults", path)
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := decodeApplicationConfig(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func decodeApplicationConfig(data []byte, cfg *ApplicationConfig) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("%s: %w", strict.String(), core.ErrInvalidConfig)
		}
		return fmt.Errorf("%w: %w", core.ErrInvalidConfig, err)
	}
	return cfg.Validate()
}

// Validate checks the values the engine cannot start without.
func (c *ApplicationConfig) Validate() error {
	var errs []error
	if c.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if c.Window.StartWidth == 0 || c.Window.StartHeight == 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d has no area", c.Window.StartWidth, c.Window.StartHeight))
	}
	if c.Renderer.ShaderDir == "" {
		errs = append(errs, errors.New("renderer.shader_dir must not be empty"))
	}
	if c.Renderer.FPSReportInterval < 0 {
		errs = append(errs, fmt.Errorf("renderer.fps_report_interval %f is negative", c.Renderer.FPSReportInterval))
	}
	switch entities.Kind(c.Scene.Entity) {
	case entities.KindSimplex, entities.KindHypercube:
	default:
		errs = append(errs, fmt.Errorf("unknown scene.entity %q", c.Scene.Entity))
	}
	if c.Scene.SpinPlane != "" {
		if _, ok := math.Rotate4(math.Plane(c.Scene.SpinPlane), 0); !ok {
			errs = append(errs, fmt.Errorf("unknown scene.spin_plane %q", c.Scene.SpinPlane))
		}
	}
	if c.Camera.Near == c.Camera.Far {
		errs = append(errs, fmt.Errorf("camera near and far planes must differ (both %f)", c.Camera.Near))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", core.ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
