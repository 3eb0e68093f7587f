package entities

import (
	"fmt"

	"github.com/spaghettifunk/tesseract/engine/core"
	"github.com/spaghettifunk/tesseract/engine/math"
	"github.com/spaghettifunk/tesseract/engine/renderer/metadata"
)

type Kind string

const (
	KindSimplex   Kind = "simplex"
	KindHypercube Kind = "hypercube"
)

/** @brief A continuous rotation of an entity in one plane of 4D space. */
type Spin struct {
	Plane math.Plane
	// Radians per second.
	Speed float32
}

/**
 * @brief A renderable 4D mesh. Vertices and indices are uploaded once; only
 * the transform changes between frames.
 */
type Entity struct {
	Name      string
	vertices  []metadata.Vertex4
	indices   []uint16
	transform math.Mat5

	spin  *Spin
	angle float32
}

func newEntity(name string, vertices []metadata.Vertex4, indices []uint16) *Entity {
	return &Entity{
		Name:      name,
		vertices:  vertices,
		indices:   indices,
		transform: math.NewMat5Identity(),
	}
}

// New builds the catalogue entity of the given kind.
func New(kind Kind) (*Entity, error) {
	switch kind {
	case KindSimplex:
		return NewSimplex(), nil
	case KindHypercube:
		return NewHypercube(), nil
	}
	return nil, fmt.Errorf("unknown entity kind %q: %w", kind, core.ErrInvalidConfig)
}

func (e *Entity) Vertices() []metadata.Vertex4 {
	return e.vertices
}

func (e *Entity) Indices() []uint16 {
	return e.indices
}

func (e *Entity) Transform() math.Mat5 {
	return e.transform
}

// SetSpin starts rotating the entity. An unknown plane is rejected and leaves the entity still.
func (e *Entity) SetSpin(plane math.Plane, speed float32) error {
	if _, ok := math.Rotate4(plane, 0); !ok {
		return fmt.Errorf("unknown rotation plane %q: %w", plane, core.ErrInvalidConfig)
	}
	e.spin = &Spin{Plane: plane, Speed: speed}
	return nil
}

func (e *Entity) Spin() (Spin, bool) {
	if e.spin == nil {
		return Spin{}, false
	}
	return *e.spin, true
}

// Update advances the spin by dt seconds. Entities without a spin keep their transform.
func (e *Entity) Update(dt float64) {
	if e.spin == nil {
		return
	}
	e.angle += e.spin.Speed * float32(dt)
	e.angle = wrapAngle(e.angle)
	e.transform, _ = math.Rotate4(e.spin.Plane, e.angle)
}

// wrapAngle keeps the accumulated angle in [-2π, 2π] so float32 precision does not degrade over long runs.
func wrapAngle(a float32) float32 {
	const twoPi = 2 * math.K_PI
	for a > twoPi {
		a -= twoPi
	}
	for a < -twoPi {
		a += twoPi
	}
	return a
}
