package engine

import "github.com/spaghettifunk/tesseract/engine/entities"

/**
 * @brief The application side of the engine. FnInitialize must set Scene;
 * the engine uploads its geometry once and spins it every frame.
 */
type Game struct {
	ApplicationConfig *ApplicationConfig
	Scene             *entities.Entity
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnOnResize        OnResize
	FnShutdown        Shutdown
}

type Initialize func() error
type Update func(deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
