package entities

import "github.com/spaghettifunk/tesseract/engine/renderer/metadata"

var (
	red   = [3]float32{1, 0, 0}
	green = [3]float32{0, 1, 0}
	blue  = [3]float32{0, 0, 1}
	white = [3]float32{1, 1, 1}
)

// NewSimplex returns the 5-cell: five vertices, every triple of them a face.
func NewSimplex() *Entity {
	vertices := []metadata.Vertex4{
		{Position: [4]float32{-0.5, -0.5, -0.5, -0.5}, Color: red},
		{Position: [4]float32{0.5, -0.5, 0.5, -0.5}, Color: green},
		{Position: [4]float32{-0.5, 0.5, 0.5, -0.5}, Color: blue},
		{Position: [4]float32{-0.5, 0.5, -0.5, 0.5}, Color: white},
		{Position: [4]float32{0.5, -0.5, -0.5, 0.5}, Color: red},
	}
	indices := []uint16{
		0, 1, 2,
		0, 1, 3,
		0, 2, 3,
		1, 2, 3,
		0, 1, 4,
		0, 2, 4,
		0, 3, 4,
		1, 2, 4,
		1, 3, 4,
		2, 3, 4,
	}
	return newEntity(string(KindSimplex), vertices, indices)
}

/**
 * @brief Returns the tesseract. Vertices are the corners of [-0.5, 0.5]^4 in
 * binary order with w varying fastest; the index list draws the six faces of
 * the x = -0.5 cube.
 */
func NewHypercube() *Entity {
	palette := [][3]float32{red, green, blue, white}
	vertices := make([]metadata.Vertex4, 0, 16)
	for i := 0; i < 16; i++ {
		var pos [4]float32
		for axis := 0; axis < 4; axis++ {
			pos[axis] = -0.5
			if i&(1<<(3-axis)) != 0 {
				pos[axis] = 0.5
			}
		}
		vertices = append(vertices, metadata.Vertex4{Position: pos, Color: palette[i%len(palette)]})
	}
	indices := []uint16{
		1, 0, 2, 2, 3, 1,
		4, 5, 6, 7, 6, 5,
		5, 4, 0, 0, 1, 5,
		6, 7, 2, 3, 2, 7,
		2, 0, 4, 4, 6, 2,
		1, 3, 5, 7, 5, 3,
	}
	return newEntity(string(KindHypercube), vertices, indices)
}
