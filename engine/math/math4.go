package math

import (
	"github.com/chewxy/math32"
)

// ------------------------------------------
// Matrix 5
// ------------------------------------------

/**
 * @brief Creates and returns the 5x5 identity matrix.
 */
func NewMat5Identity() Mat5 {
	m := Mat5{}
	for i := 0; i < 5; i++ {
		m.Data[i*5+i] = 1
	}
	return m
}

/**
 * @brief Creates a matrix from its rows, written the way it reads on paper.
 */
func NewMat5FromRows(rows [5][5]float32) Mat5 {
	m := Mat5{}
	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			m.Data[c*5+r] = rows[r][c]
		}
	}
	return m
}

// NewMat5Diagonal creates a matrix with d on the diagonal and zeros elsewhere.
func NewMat5Diagonal(d Vec5) Mat5 {
	m := Mat5{}
	for i := 0; i < 5; i++ {
		m.Data[i*5+i] = d[i]
	}
	return m
}

// At returns the element at row r and column c.
func (m Mat5) At(r, c int) float32 {
	return m.Data[c*5+r]
}

func (m *Mat5) Set(r, c int, v float32) {
	m.Data[c*5+r] = v
}

func (m Mat5) Column(c int) Vec5 {
	var v Vec5
	copy(v[:], m.Data[c*5:c*5+5])
	return v
}

func (m *Mat5) SetColumn(c int, v Vec5) {
	copy(m.Data[c*5:c*5+5], v[:])
}

func (m Mat5) Row(r int) Vec5 {
	var v Vec5
	for c := 0; c < 5; c++ {
		v[c] = m.Data[c*5+r]
	}
	return v
}

/**
 * @brief Returns m * other, so other is applied first.
 */
func (m Mat5) Mul(other Mat5) Mat5 {
	out := Mat5{}
	for c := 0; c < 5; c++ {
		for r := 0; r < 5; r++ {
			var sum float32
			for k := 0; k < 5; k++ {
				sum += m.Data[k*5+r] * other.Data[c*5+k]
			}
			out.Data[c*5+r] = sum
		}
	}
	return out
}

func (m Mat5) MulVec5(v Vec5) Vec5 {
	var out Vec5
	for r := 0; r < 5; r++ {
		for k := 0; k < 5; k++ {
			out[r] += m.Data[k*5+r] * v[k]
		}
	}
	return out
}

/**
 * @brief Returns the upper-left 4x4 block, the linear part of the transform.
 */
func (m Mat5) Block4() Mat4 {
	out := Mat4{}
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			out.Data[c*4+r] = m.Data[c*5+r]
		}
	}
	return out
}

func (m Mat5) Compare(other Mat5, tolerance float32) bool {
	for i := range m.Data {
		if !FloatCompare(m.Data[i], other.Data[i], tolerance) {
			return false
		}
	}
	return true
}

// ------------------------------------------
// 4D transforms
// ------------------------------------------

/**
 * @brief The four-dimensional cross product: returns the vector orthogonal
 * to x, y and z, computed by cofactor expansion. Linearly dependent inputs
 * produce a degenerate (possibly zero) vector.
 */
func Cross4(x, y, z Vec4) Vec4 {
	a := y.X*z.Y - y.Y*z.X
	b := y.X*z.Z - y.Z*z.X
	c := y.X*z.W - y.W*z.X
	d := y.Y*z.Z - y.Z*z.Y
	e := y.Y*z.W - y.W*z.Y
	f := y.Z*z.W - y.W*z.Z

	return Vec4{
		X: x.Y*f - x.Z*e + x.W*d,
		Y: -x.X*f + x.Z*c - x.W*b,
		Z: x.X*e - x.Y*c + x.W*a,
		W: -x.X*d + x.Y*b - x.Z*a,
	}
}

/**
 * @brief Builds the 4D view matrix: a translation moving position to the
 * origin followed by a rotation whose rows are the normalized x, y, z and
 * -w basis vectors.
 */
func View4(position, x, y, z, w Vec4) Mat5 {
	trans := Translate4(NewMat5Identity(), position.Neg())

	x = x.Normalized()
	y = y.Normalized()
	z = z.Normalized()
	w = w.Normalized()

	rot := NewMat5FromRows([5][5]float32{
		{x.X, x.Y, x.Z, x.W, 0},
		{y.X, y.Y, y.Z, y.W, 0},
		{z.X, z.Y, z.Z, z.W, 0},
		{-w.X, -w.Y, -w.Z, -w.W, 0},
		{0, 0, 0, 0, 1},
	})

	return rot.Mul(trans)
}

/**
 * @brief The 4D perspective matrix. Output index 4 carries the depth used by
 * the perspective divide, output index 3 the depth to be normalized.
 */
func Perspective4(near, far float32) Mat5 {
	return NewMat5FromRows([5][5]float32{
		{near, 0, 0, 0, 0},
		{0, near, 0, 0, 0},
		{0, 0, near, 0, 0},
		{0, 0, 0, near + far, -near * far},
		{0, 0, 0, 1, 0},
	})
}

/**
 * @brief Orthographic normalization of the box [xn,xf]x[yn,yf]x[zn,zf]x[wn,wf].
 * The w scale is 2/(wn-wf), mirroring the depth axis.
 */
func Ortho4(xNear, xFar, yNear, yFar, zNear, zFar, wNear, wFar float32) Mat5 {
	trans := Translate4(NewMat5Identity(), Vec4{
		X: -(xNear + xFar) / 2,
		Y: -(yNear + yFar) / 2,
		Z: -(zNear + zFar) / 2,
		W: -(wNear + wFar) / 2,
	})

	scale := NewMat5Diagonal(Vec5{
		2 / (xFar - xNear),
		2 / (yFar - yNear),
		2 / (zFar - zNear),
		2 / (wNear - wFar),
		1,
	})

	return scale.Mul(trans)
}

// Ortho4Short is Ortho4 over the symmetric box [-halfWidth, halfWidth] on x, y and z.
func Ortho4Short(wNear, wFar, halfWidth float32) Mat5 {
	return Ortho4(
		-halfWidth, halfWidth,
		-halfWidth, halfWidth,
		-halfWidth, halfWidth,
		wNear, wFar,
	)
}

/**
 * @brief Returns m with its last column replaced by
 * c0*v.X + c1*v.Y + c2*v.Z + c3*v.W + c4, i.e. m * translation(v).
 */
func Translate4(m Mat5, v Vec4) Mat5 {
	res := m
	col := m.Column(0).MulScalar(v.X).
		Add(m.Column(1).MulScalar(v.Y)).
		Add(m.Column(2).MulScalar(v.Z)).
		Add(m.Column(3).MulScalar(v.W)).
		Add(m.Column(4))
	res.SetColumn(4, col)
	return res
}

/**
 * @brief Returns m with column i scaled by v[i].
 */
func Scale4(m Mat5, v Vec5) Mat5 {
	res := Mat5{}
	for i := 0; i < 5; i++ {
		res.SetColumn(i, m.Column(i).MulScalar(v[i]))
	}
	return res
}

func planeRotation(a, b int, angle float32, sign float32) Mat5 {
	m := NewMat5Identity()
	c := math32.Cos(angle)
	s := math32.Sin(angle) * sign
	m.Set(a, a, c)
	m.Set(a, b, s)
	m.Set(b, a, -s)
	m.Set(b, b, c)
	return m
}

// Rotate4XY rotates in the xy plane.
func Rotate4XY(angle float32) Mat5 { return planeRotation(0, 1, angle, 1) }

// Rotate4YZ rotates in the yz plane.
func Rotate4YZ(angle float32) Mat5 { return planeRotation(1, 2, angle, 1) }

// Rotate4ZX rotates in the zx plane.
func Rotate4ZX(angle float32) Mat5 { return planeRotation(0, 2, angle, -1) }

// Rotate4XW rotates in the xw plane.
func Rotate4XW(angle float32) Mat5 { return planeRotation(0, 3, angle, 1) }

// Rotate4YW rotates in the yw plane.
func Rotate4YW(angle float32) Mat5 { return planeRotation(1, 3, angle, -1) }

// Rotate4ZW rotates in the zw plane.
func Rotate4ZW(angle float32) Mat5 { return planeRotation(2, 3, angle, -1) }

// Plane names a rotation plane of 4D space.
type Plane string

const (
	PlaneXY Plane = "xy"
	PlaneYZ Plane = "yz"
	PlaneZX Plane = "zx"
	PlaneXW Plane = "xw"
	PlaneYW Plane = "yw"
	PlaneZW Plane = "zw"
)

// Rotate4 returns the rotation by angle in the given plane, and false for an unknown plane.
func Rotate4(plane Plane, angle float32) (Mat5, bool) {
	switch plane {
	case PlaneXY:
		return Rotate4XY(angle), true
	case PlaneYZ:
		return Rotate4YZ(angle), true
	case PlaneZX:
		return Rotate4ZX(angle), true
	case PlaneXW:
		return Rotate4XW(angle), true
	case PlaneYW:
		return Rotate4YW(angle), true
	case PlaneZW:
		return Rotate4ZW(angle), true
	}
	return NewMat5Identity(), false
}
