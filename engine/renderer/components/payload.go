package components

import (
	"github.com/spaghettifunk/tesseract/engine/math"
)

// UNIFORM_PAYLOAD_SIZE is the std140 size of the camera uniform block.
const UNIFORM_PAYLOAD_SIZE uint64 = 176

/**
 * @brief The camera uniform block consumed by the vertex shader. The 5x5
 * transform T is split so the shader can do the projective 4D divide:
 *
 *   pos4d = (Cam4Trans * p + Cam4Col) / (dot(Cam4Row, p) + Cam4Const)
 *
 * Field order and padding follow std140 (offsets 0, 64, 80, 96, 160).
 */
type UniformPayload struct {
	Cam4Trans math.Mat4
	Cam4Col   math.Vec4
	Cam4Row   math.Vec4
	Cam3Trans math.Mat4
	Cam4Const float32
	_         [3]float32
}

// NewUniformPayload splits the 4D transform and pairs it with the 3D one.
func NewUniformPayload(t math.Mat5, cam3 math.Mat4) UniformPayload {
	col := t.Column(4)
	row := t.Row(4)
	return UniformPayload{
		Cam4Trans: t.Block4(),
		Cam4Col:   col.Vec4(),
		Cam4Row:   row.Vec4(),
		Cam3Trans: cam3,
		Cam4Const: t.At(4, 4),
	}
}

// Compose reassembles the 5x5 transform the payload was built from.
func (p UniformPayload) Compose() math.Mat5 {
	m := math.Mat5{}
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			m.Set(r, c, p.Cam4Trans.At(r, c))
		}
	}
	col := p.Cam4Col.Array()
	row := p.Cam4Row.Array()
	for i := 0; i < 4; i++ {
		m.Set(i, 4, col[i])
		m.Set(4, i, row[i])
	}
	m.Set(4, 4, p.Cam4Const)
	return m
}

/**
 * @brief Runs the vertex shader's projection on the host and returns clip
 * coordinates: the projective 4D divide, then the 3D camera transform of the
 * resulting xyz. The normalized 4D depth is not used.
 */
func (p UniformPayload) Project(v math.Vec4) math.Vec4 {
	lin := p.Cam4Trans.MulVec4(v).Add(p.Cam4Col)
	pos4d := lin.MulScalar(1 / (p.Cam4Row.Dot(v) + p.Cam4Const))
	return p.Cam3Trans.MulVec4(pos4d.ToVec3().ToVec4(1))
}
