package components

import (
	"fmt"
	"time"

	"github.com/chewxy/math32"
	"github.com/spaghettifunk/tesseract/engine/core"
	"github.com/spaghettifunk/tesseract/engine/math"
)

// CameraConfig describes the initial state of the 4D camera.
type CameraConfig struct {
	Position      [4]float32 `toml:"position"`
	Target        [4]float32 `toml:"target"`
	FovY          float32    `toml:"fovy"`
	Near          float32    `toml:"near"`
	Far           float32    `toml:"far"`
	MovementSpeed float32    `toml:"movement_speed"`
	RotationSpeed float32    `toml:"rotation_speed"`
}

func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		Position:      [4]float32{0, 0, 0, 4},
		Target:        [4]float32{0, 0, 0, 0},
		FovY:          math.K_PI / 1.5,
		Near:          -1,
		Far:           -100,
		MovementSpeed: 1,
		RotationSpeed: 0.1,
	}
}

/**
 * @brief A camera living in 4D space. It looks along w towards its target and
 * projects 4D points into a 3D volume, which the embedded Camera3 then
 * projects onto the screen.
 *
 * Movement keys: Y/H along x, U/J along y, I/K along z, O/L along w.
 */
type Camera4 struct {
	camera3 *Camera3

	fovy float32
	near float32
	far  float32

	position math.Vec4
	target   math.Vec4

	x math.Vec4
	y math.Vec4
	z math.Vec4
	w math.Vec4

	movementSpeed float32
	rotationSpeed float32

	view math.Mat5
	proj math.Mat5

	timer   *core.DeltaTimer
	keys    keyTracker
	actions ActionMap
}

var camera4Bindings = []keyBinding{
	{core.KEY_Y, AxisX, 1},
	{core.KEY_H, AxisX, -1},
	{core.KEY_U, AxisY, 1},
	{core.KEY_J, AxisY, -1},
	{core.KEY_I, AxisZ, 1},
	{core.KEY_K, AxisZ, -1},
	{core.KEY_O, AxisW, 1},
	{core.KEY_L, AxisW, -1},
}

// NewCamera4 builds a camera from the configuration, using the wall clock.
func NewCamera4(cfg CameraConfig) (*Camera4, error) {
	return NewCamera4WithClock(cfg, time.Now)
}

// NewCamera4WithClock builds a camera whose frame timing reads from now.
func NewCamera4WithClock(cfg CameraConfig, now func() time.Time) (*Camera4, error) {
	if cfg.Near == cfg.Far {
		err := fmt.Errorf("camera near and far planes must differ (both %f): %w", cfg.Near, core.ErrInvalidConfig)
		core.LogError(err.Error())
		return nil, err
	}
	if cfg.FovY <= 0 || cfg.FovY >= 2*math.K_PI {
		err := fmt.Errorf("camera fovy %f out of range: %w", cfg.FovY, core.ErrInvalidConfig)
		core.LogError(err.Error())
		return nil, err
	}

	position := math.NewVec4FromArray(cfg.Position)
	target := math.NewVec4FromArray(cfg.Target)
	x, y, z, w, err := orthonormalBasis(target.Sub(position))
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	halfWidth := math32.Abs(cfg.Near) / 2 * math32.Tan(cfg.FovY/2)

	c := &Camera4{
		camera3:       NewCamera3(now),
		fovy:          cfg.FovY,
		near:          cfg.Near,
		far:           cfg.Far,
		position:      position,
		target:        target,
		x:             x,
		y:             y,
		z:             z,
		w:             w,
		movementSpeed: cfg.MovementSpeed,
		rotationSpeed: cfg.RotationSpeed,
		proj:          math.Ortho4Short(cfg.Near, cfg.Far, halfWidth).Mul(math.Perspective4(cfg.Near, cfg.Far)),
		timer:         core.NewDeltaTimer(now),
	}
	c.view = math.View4(c.position, c.x, c.y, c.z, c.w)
	return c, nil
}

/**
 * @brief Derives the camera basis from the view direction. w points at the
 * target and the other axes come from repeated 4D cross products: x from the
 * y and z seeds, y from the z seed and x, z from x and y. Each axis keeps the
 * orientation of its seed.
 */
func orthonormalBasis(direction math.Vec4) (x, y, z, w math.Vec4, err error) {
	if direction.Length() < math.K_FLOAT_EPSILON {
		err = fmt.Errorf("camera position and target coincide: %w", core.ErrInvalidConfig)
		return
	}
	w = direction.Normalized()
	ySeed := math.NewVec4(0, 1, 0, 0)
	zSeed := math.NewVec4(0, 0, 1, 0)

	x = math.Cross4(ySeed, zSeed, w)
	if x.Length() < 1e-4 {
		err = fmt.Errorf("camera view direction %v lies in the yz plane: %w", w, core.ErrInvalidConfig)
		return
	}
	x = x.Normalized()
	y = math.Cross4(zSeed, x, w).Normalized()
	z = math.Cross4(x, y, w).Normalized()
	return
}

func (c *Camera4) Camera3() *Camera3 {
	return c.camera3
}

func (c *Camera4) Position() math.Vec4 {
	return c.position
}

// SetPosition moves the camera without changing its orientation.
func (c *Camera4) SetPosition(p math.Vec4) {
	c.position = p
	c.view = math.View4(c.position, c.x, c.y, c.z, c.w)
}

// Basis returns the x, y, z and w camera axes.
func (c *Camera4) Basis() (math.Vec4, math.Vec4, math.Vec4, math.Vec4) {
	return c.x, c.y, c.z, c.w
}

func (c *Camera4) View() math.Mat5 {
	return c.view
}

func (c *Camera4) Projection() math.Mat5 {
	return c.proj
}

// Transform returns projection * view.
func (c *Camera4) Transform() math.Mat5 {
	return c.proj.Mul(c.view)
}

// Data snapshots the camera for the given model transform.
func (c *Camera4) Data(model math.Mat5) UniformPayload {
	return NewUniformPayload(c.Transform().Mul(model), c.camera3.Transform())
}

// UpdateView updates the embedded camera and moves this one by the elapsed wall-clock time.
func (c *Camera4) UpdateView() {
	c.camera3.UpdateView()
	c.Advance(c.timer.Tick())
}

/**
 * @brief Moves the camera along its basis by the accumulated actions over dt
 * seconds and rebuilds the view. Mouse look is consumed here but only turns
 * the embedded 3D camera; the 4D basis is fixed.
 */
func (c *Camera4) Advance(dt float32) {
	move := c.x.MulScalar(c.actions.Get(AxisX)).
		Add(c.y.MulScalar(c.actions.Get(AxisY))).
		Add(c.z.MulScalar(c.actions.Get(AxisZ))).
		Add(c.w.MulScalar(c.actions.Get(AxisW)))

	c.actions.Reset(AxisYaw)
	c.actions.Reset(AxisPitch)

	c.position = c.position.Add(move.MulScalar(c.movementSpeed * dt))
	c.view = math.View4(c.position, c.x, c.y, c.z, c.w)
}

// Action reports the accumulated value of an axis.
func (c *Camera4) Action(axis Axis) float32 {
	return c.actions.Get(axis)
}

// HandleEvent routes input to the embedded camera, then to the 4D movement axes.
func (c *Camera4) HandleEvent(ctx core.EventContext) {
	c.camera3.HandleEvent(ctx)
	applyKeyEvent(ctx, &c.keys, &c.actions, camera4Bindings)
	applyMouseMotion(ctx, &c.actions)
}
