package metadata

/**
 * @brief A vertex of a 4D mesh: a position in 4D space and an RGB colour.
 * The layout matches the vertex input of the pipeline (stride 28 bytes).
 */
type Vertex4 struct {
	Position [4]float32
	Color    [3]float32
}

const (
	VERTEX4_STRIDE          uint32 = 28
	VERTEX4_POSITION_OFFSET uint32 = 0
	VERTEX4_COLOR_OFFSET    uint32 = 16
)

// Indices are 16 bit.
type Index = uint16
