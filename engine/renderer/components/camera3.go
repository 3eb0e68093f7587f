package components

import (
	"time"

	"github.com/chewxy/math32"
	"github.com/spaghettifunk/tesseract/engine/core"
	"github.com/spaghettifunk/tesseract/engine/math"
)

/**
 * @brief A free-flying pinhole camera producing the final 3D -> clip space
 * projection. W/S move forward/back, D/A right/left, C/V up/down and mouse
 * motion turns the view.
 */
type Camera3 struct {
	aspect float32
	fovy   float32
	znear  float32
	zfar   float32

	position math.Vec3
	look     math.Vec3
	right    math.Vec3

	movementSpeed float32
	rotationSpeed float32

	flipY bool

	view math.Mat4
	proj math.Mat4

	timer   *core.DeltaTimer
	keys    keyTracker
	actions ActionMap
}

var camera3Bindings = []keyBinding{
	{core.KEY_W, AxisForward, 1},
	{core.KEY_S, AxisForward, -1},
	{core.KEY_D, AxisRight, 1},
	{core.KEY_A, AxisRight, -1},
	{core.KEY_C, AxisUp, 1},
	{core.KEY_V, AxisUp, -1},
}

func NewCamera3(now func() time.Time) *Camera3 {
	position := math.NewVec3(2, 2, 2)
	look := math.NewVec3Zero().Sub(position).Normalized()
	right := look.Cross(math.NewVec3(0, 0, 1)).Normalized()

	c := &Camera3{
		aspect:        16.0 / 9.0,
		fovy:          3.14 / 4.0,
		znear:         0.1,
		zfar:          1000.0,
		position:      position,
		look:          look,
		right:         right,
		movementSpeed: 5,
		rotationSpeed: 0.1,
		flipY:         true,
		timer:         core.NewDeltaTimer(now),
	}
	c.proj = math.NewMat4Perspective(c.fovy, c.aspect, c.znear, c.zfar)
	c.rebuildView()
	return c
}

func (c *Camera3) up() math.Vec3 {
	return c.right.Cross(c.look)
}

func (c *Camera3) rebuildView() {
	c.view = math.NewMat4LookAt(c.position, c.position.Add(c.look), c.up().Normalized())
}

// SetAspect rebuilds the projection for a new surface aspect ratio.
func (c *Camera3) SetAspect(aspect float32) {
	if aspect <= 0 || math32.IsNaN(aspect) || math32.IsInf(aspect, 0) {
		return
	}
	c.aspect = aspect
	c.proj = math.NewMat4Perspective(c.fovy, c.aspect, c.znear, c.zfar)
}

func (c *Camera3) Position() math.Vec3 {
	return c.position
}

func (c *Camera3) Look() math.Vec3 {
	return c.look
}

// Transform returns projection * view.
func (c *Camera3) Transform() math.Mat4 {
	return c.proj.Mul(c.view)
}

// UpdateView advances the camera by the wall-clock time since the previous call.
func (c *Camera3) UpdateView() {
	c.Advance(c.timer.Tick())
}

// Advance applies the accumulated actions over dt seconds and rebuilds the view.
func (c *Camera3) Advance(dt float32) {
	var flip float32 = 1
	if c.flipY {
		flip = -1
	}
	move := c.look.MulScalar(c.actions.Get(AxisForward)).
		Add(c.right.MulScalar(c.actions.Get(AxisRight))).
		Add(c.up().MulScalar(c.actions.Get(AxisUp) * flip))

	dx := c.actions.Get(AxisYaw) * c.rotationSpeed / 180 * math.K_PI
	dy := c.actions.Get(AxisPitch) * c.rotationSpeed / 180 * math.K_PI * flip
	c.actions.Reset(AxisYaw)
	c.actions.Reset(AxisPitch)

	if dx != 0 || dy != 0 {
		q1 := math.NewQuatFromAxisAngle(c.look.Cross(c.right), dx)
		q2 := math.NewQuatFromAxisAngle(c.right.Neg(), dy)
		q := q1.Nlerp(q2, 0.5)
		c.look = q.RotateVec3(c.look)
		c.right = q.RotateVec3(c.right)
	}

	c.position = c.position.Add(move.MulScalar(c.movementSpeed * dt))
	c.rebuildView()
}

// HandleEvent feeds keyboard and mouse events into the action map.
func (c *Camera3) HandleEvent(ctx core.EventContext) {
	applyKeyEvent(ctx, &c.keys, &c.actions, camera3Bindings)
	applyMouseMotion(ctx, &c.actions)
}
