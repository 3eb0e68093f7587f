package testbed

import (
	"github.com/spaghettifunk/tesseract/engine"
	"github.com/spaghettifunk/tesseract/engine/core"
	"github.com/spaghettifunk/tesseract/engine/entities"
	"github.com/spaghettifunk/tesseract/engine/math"
)

var spinPlanes = []math.Plane{
	math.PlaneXY, math.PlaneYZ, math.PlaneZX,
	math.PlaneXW, math.PlaneYW, math.PlaneZW,
}

type TestGame struct {
	*engine.Game
}

type gameState struct {
	width  uint32
	height uint32

	plane     math.Plane
	speed     float32
	paused    bool
	spinIndex int
}

func NewTestGame(config *engine.ApplicationConfig) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: config,
			State:             &gameState{},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown
	return tg
}

// Initialize builds the configured entity. Space pauses the spin, Tab moves it to the next plane.
func (g *TestGame) Initialize() error {
	core.LogDebug("TestGame Initialize fn....")
	state := g.State.(*gameState)
	scene := g.ApplicationConfig.Scene

	e, err := entities.New(entities.Kind(scene.Entity))
	if err != nil {
		return err
	}
	g.Scene = e

	state.speed = scene.SpinSpeed
	if scene.SpinPlane != "" {
		state.plane = math.Plane(scene.SpinPlane)
		for i, p := range spinPlanes {
			if p == state.plane {
				state.spinIndex = i
			}
		}
		if err := g.applySpin(); err != nil {
			return err
		}
	}

	core.EventRegister(core.EVENT_CODE_KEY_PRESSED, g, g.gameOnKey)
	core.LogInfo("Drawing a %s with %d vertices.", e.Name, len(e.Vertices()))
	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	if core.InputIsKeyUp(core.KEY_P) && core.InputWasKeyDown(core.KEY_P) {
		if spin, ok := g.Scene.Spin(); ok {
			core.LogDebug("Spin: plane=%s speed=%.2f rad/s", spin.Plane, spin.Speed)
		}
	}
	return nil
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	state := g.State.(*gameState)
	state.width = width
	state.height = height
	return nil
}

func (g *TestGame) Shutdown() error {
	core.LogDebug("TestGame Shutdown fn....")
	return nil
}

func (g *TestGame) applySpin() error {
	state := g.State.(*gameState)
	speed := state.speed
	if state.paused {
		speed = 0
	}
	return g.Scene.SetSpin(state.plane, speed)
}

func (g *TestGame) gameOnKey(context core.EventContext) bool {
	ke, ok := context.Data.(*core.KeyEvent)
	if !ok {
		return false
	}
	state := g.State.(*gameState)

	switch ke.KeyCode {
	case core.KEY_SPACE:
		if state.plane == "" {
			return false
		}
		state.paused = !state.paused
	case core.KEY_TAB:
		state.spinIndex = (state.spinIndex + 1) % len(spinPlanes)
		state.plane = spinPlanes[state.spinIndex]
		if state.speed == 0 {
			state.speed = 1
		}
		core.LogDebug("spinning in the %s plane", state.plane)
	default:
		return false
	}
	if err := g.applySpin(); err != nil {
		core.LogError(err.Error())
	}
	return true
}
