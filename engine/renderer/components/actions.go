package components

import (
	"github.com/spaghettifunk/tesseract/engine/core"
)

// Axis names a continuous navigation action driven by input.
type Axis int

const (
	AxisW Axis = iota
	AxisX
	AxisY
	AxisZ
	AxisForward
	AxisRight
	AxisUp
	AxisYaw
	AxisPitch
	axisCount
)

// ActionMap holds the accumulated value of every axis.
type ActionMap [axisCount]float32

func (a *ActionMap) Add(axis Axis, delta float32) {
	a[axis] += delta
}

func (a *ActionMap) Get(axis Axis) float32 {
	return a[axis]
}

func (a *ActionMap) Reset(axis Axis) {
	a[axis] = 0
}

type keyState int8

const (
	keyUnknown keyState = iota
	keyPressed
	keyReleased
)

/**
 * @brief keyTracker remembers the last state seen for every key so held keys
 * that repeat do not accumulate into the action map.
 */
type keyTracker struct {
	states [256]keyState
}

// factor returns +1 for a press transition, -1 for a release transition and
// 0 when the key is already in the reported state.
func (k *keyTracker) factor(key core.KeyCode, pressed bool) float32 {
	next := keyReleased
	if pressed {
		next = keyPressed
	}
	if int(key) < len(k.states) {
		if k.states[key] == next {
			return 0
		}
		k.states[key] = next
	}
	if pressed {
		return 1
	}
	return -1
}

// keyBinding moves axis by sign whenever key changes state.
type keyBinding struct {
	key  core.KeyCode
	axis Axis
	sign float32
}

func applyKeyEvent(ctx core.EventContext, keys *keyTracker, actions *ActionMap, bindings []keyBinding) {
	var pressed bool
	switch ctx.Type {
	case core.EVENT_CODE_KEY_PRESSED:
		pressed = true
	case core.EVENT_CODE_KEY_RELEASED:
		pressed = false
	default:
		return
	}
	e, ok := ctx.Data.(*core.KeyEvent)
	if !ok {
		return
	}
	f := keys.factor(e.KeyCode, pressed)
	if f == 0 {
		return
	}
	for _, b := range bindings {
		if b.key == e.KeyCode {
			actions.Add(b.axis, b.sign*f)
		}
	}
}

func applyMouseMotion(ctx core.EventContext, actions *ActionMap) {
	if ctx.Type != core.EVENT_CODE_MOUSE_MOVED {
		return
	}
	m, ok := ctx.Data.(*core.MouseEvent)
	if !ok {
		return
	}
	actions.Add(AxisYaw, m.DeltaX)
	actions.Add(AxisPitch, m.DeltaY)
}
