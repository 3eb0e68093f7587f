package math

import (
	"github.com/chewxy/math32"
)

// ------------------------------------------
// Vector 3
// ------------------------------------------

/**
 * @brief Creates and returns a new 3-element vector using the supplied values.
 */
func NewVec3(x, y, z float32) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

/**
 * @brief Creates and returns a 3-component vector with all components set to 0.0f.
 */
func NewVec3Zero() Vec3 {
	return Vec3{}
}

func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

func (v Vec3) MulScalar(scalar float32) Vec3 {
	return Vec3{v.X * scalar, v.Y * scalar, v.Z * scalar}
}

func (v Vec3) Neg() Vec3 {
	return Vec3{-v.X, -v.Y, -v.Z}
}

/**
 * @brief Returns the dot product between the provided vectors. Typically used
 * to calculate the difference in direction.
 */
func (v Vec3) Dot(other Vec3) float32 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

/**
 * @brief Calculates and returns the cross product of the supplied vectors.
 * The cross product is a new vector which is orthoganal to both provided vectors.
 */
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		X: v.Y*other.Z - v.Z*other.Y,
		Y: v.Z*other.X - v.X*other.Z,
		Z: v.X*other.Y - v.Y*other.X,
	}
}

func (v Vec3) Length() float32 {
	return math32.Sqrt(v.Dot(v))
}

/**
 * @brief Returns a normalized copy of the supplied vector. A zero vector is returned unchanged.
 */
func (v Vec3) Normalized() Vec3 {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.MulScalar(1 / l)
}

/**
 * @brief Compares all elements of v and other and ensures the difference is less than tolerance.
 */
func (v Vec3) Compare(other Vec3, tolerance float32) bool {
	return FloatCompare(v.X, other.X, tolerance) &&
		FloatCompare(v.Y, other.Y, tolerance) &&
		FloatCompare(v.Z, other.Z, tolerance)
}

func (v Vec3) ToVec4(w float32) Vec4 {
	return Vec4{v.X, v.Y, v.Z, w}
}

// ------------------------------------------
// Vector 4
// ------------------------------------------

/**
 * @brief Creates and returns a new 4-element vector using the supplied values.
 */
func NewVec4(x, y, z, w float32) Vec4 {
	return Vec4{X: x, Y: y, Z: z, W: w}
}

// NewVec4FromArray builds a vector from an [x, y, z, w] array.
func NewVec4FromArray(a [4]float32) Vec4 {
	return Vec4{a[0], a[1], a[2], a[3]}
}

func (v Vec4) Array() [4]float32 {
	return [4]float32{v.X, v.Y, v.Z, v.W}
}

// At returns component i (0..3).
func (v Vec4) At(i int) float32 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	case 2:
		return v.Z
	default:
		return v.W
	}
}

func (v Vec4) Add(other Vec4) Vec4 {
	return Vec4{v.X + other.X, v.Y + other.Y, v.Z + other.Z, v.W + other.W}
}

func (v Vec4) Sub(other Vec4) Vec4 {
	return Vec4{v.X - other.X, v.Y - other.Y, v.Z - other.Z, v.W - other.W}
}

func (v Vec4) MulScalar(scalar float32) Vec4 {
	return Vec4{v.X * scalar, v.Y * scalar, v.Z * scalar, v.W * scalar}
}

func (v Vec4) Neg() Vec4 {
	return Vec4{-v.X, -v.Y, -v.Z, -v.W}
}

func (v Vec4) Dot(other Vec4) float32 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z + v.W*other.W
}

func (v Vec4) Length() float32 {
	return math32.Sqrt(v.Dot(v))
}

/**
 * @brief Returns a normalized copy of the supplied vector. A zero vector is returned unchanged.
 */
func (v Vec4) Normalized() Vec4 {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.MulScalar(1 / l)
}

/**
 * @brief Compares all elements of v and other and ensures the difference is less than tolerance.
 */
func (v Vec4) Compare(other Vec4, tolerance float32) bool {
	return FloatCompare(v.X, other.X, tolerance) &&
		FloatCompare(v.Y, other.Y, tolerance) &&
		FloatCompare(v.Z, other.Z, tolerance) &&
		FloatCompare(v.W, other.W, tolerance)
}

func (v Vec4) ToVec3() Vec3 {
	return Vec3{v.X, v.Y, v.Z}
}

// Homogeneous extends the vector with a fifth component h.
func (v Vec4) Homogeneous(h float32) Vec5 {
	return Vec5{v.X, v.Y, v.Z, v.W, h}
}

// ------------------------------------------
// Vector 5
// ------------------------------------------

func (v Vec5) Dot(other Vec5) float32 {
	var sum float32
	for i := 0; i < 5; i++ {
		sum += v[i] * other[i]
	}
	return sum
}

func (v Vec5) MulScalar(scalar float32) Vec5 {
	for i := range v {
		v[i] *= scalar
	}
	return v
}

func (v Vec5) Add(other Vec5) Vec5 {
	for i := range v {
		v[i] += other[i]
	}
	return v
}

// Vec4 drops the homogeneous component.
func (v Vec5) Vec4() Vec4 {
	return Vec4{v[0], v[1], v[2], v[3]}
}

func (v Vec5) Compare(other Vec5, tolerance float32) bool {
	for i := range v {
		if !FloatCompare(v[i], other[i], tolerance) {
			return false
		}
	}
	return true
}

// ------------------------------------------
// Matrix 4
// ------------------------------------------

/**
 * @brief Creates and returns an identity matrix:
 *
 * {
 *   {1, 0, 0, 0},
 *   {0, 1, 0, 0},
 *   {0, 0, 1, 0},
 *   {0, 0, 0, 1}
 * }
 */
func NewMat4Identity() Mat4 {
	m := Mat4{}
	m.Data[0] = 1
	m.Data[5] = 1
	m.Data[10] = 1
	m.Data[15] = 1
	return m
}

// At returns the element at row r and column c.
func (mt Mat4) At(r, c int) float32 {
	return mt.Data[c*4+r]
}

func (mt *Mat4) Set(r, c int, v float32) {
	mt.Data[c*4+r] = v
}

/**
 * @brief Returns the result of multiplying mt by other (mt applied last).
 */
func (mt Mat4) Mul(other Mat4) Mat4 {
	out := Mat4{}
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += mt.Data[k*4+r] * other.Data[c*4+k]
			}
			out.Data[c*4+r] = sum
		}
	}
	return out
}

// MulVec4 transforms the column vector v.
func (mt Mat4) MulVec4(v Vec4) Vec4 {
	in := v.Array()
	var out [4]float32
	for r := 0; r < 4; r++ {
		for k := 0; k < 4; k++ {
			out[r] += mt.Data[k*4+r] * in[k]
		}
	}
	return NewVec4FromArray(out)
}

/**
 * @brief Creates and returns a right-handed perspective matrix mapping view
 * depth [-near, -far] to the OpenGL clip range [-1, 1].
 *
 * @param fovRadians The field of view in radians.
 * @param aspectRatio The aspect ratio.
 * @param nearClip The near clipping plane distance.
 * @param farClip The far clipping plane distance.
 */
func NewMat4Perspective(fovRadians, aspectRatio, nearClip, farClip float32) Mat4 {
	halfTanFov := math32.Tan(fovRadians * 0.5)
	m := Mat4{}
	m.Data[0] = 1.0 / (aspectRatio * halfTanFov)
	m.Data[5] = 1.0 / halfTanFov
	m.Data[10] = -((farClip + nearClip) / (farClip - nearClip))
	m.Data[11] = -1.0
	m.Data[14] = -((2.0 * farClip * nearClip) / (farClip - nearClip))
	return m
}

/**
 * @brief Creates and returns a right-handed look-at matrix, looking at
 * target from the perspective of position.
 */
func NewMat4LookAt(position, target, up Vec3) Mat4 {
	f := target.Sub(position).Normalized()
	s := f.Cross(up).Normalized()
	u := s.Cross(f)

	m := NewMat4Identity()
	m.Set(0, 0, s.X)
	m.Set(0, 1, s.Y)
	m.Set(0, 2, s.Z)
	m.Set(1, 0, u.X)
	m.Set(1, 1, u.Y)
	m.Set(1, 2, u.Z)
	m.Set(2, 0, -f.X)
	m.Set(2, 1, -f.Y)
	m.Set(2, 2, -f.Z)
	m.Set(0, 3, -s.Dot(position))
	m.Set(1, 3, -u.Dot(position))
	m.Set(2, 3, f.Dot(position))
	return m
}

/**
 * @brief Creates and returns a translation matrix from the given position.
 */
func NewMat4Translation(position Vec3) Mat4 {
	m := NewMat4Identity()
	m.Data[12] = position.X
	m.Data[13] = position.Y
	m.Data[14] = position.Z
	return m
}

func (mt Mat4) Compare(other Mat4, tolerance float32) bool {
	for i := range mt.Data {
		if !FloatCompare(mt.Data[i], other.Data[i], tolerance) {
			return false
		}
	}
	return true
}

// ------------------------------------------
// Quaternion
// ------------------------------------------

func NewQuatIdentity() Quaternion {
	return Quaternion{0, 0, 0, 1}
}

/**
 * @brief Creates a quaternion rotating by angle radians around axis.
 * The axis is normalized first.
 */
func NewQuatFromAxisAngle(axis Vec3, angle float32) Quaternion {
	a := axis.Normalized()
	half := 0.5 * angle
	s := math32.Sin(half)
	c := math32.Cos(half)
	return Quaternion{s * a.X, s * a.Y, s * a.Z, c}
}

func (q Quaternion) Dot(other Quaternion) float32 {
	return q.X*other.X + q.Y*other.Y + q.Z*other.Z + q.W*other.W
}

func (q Quaternion) Normalized() Quaternion {
	n := math32.Sqrt(q.Dot(q))
	if n == 0 {
		return NewQuatIdentity()
	}
	return Quaternion{q.X / n, q.Y / n, q.Z / n, q.W / n}
}

/**
 * @brief Multiplies the provided quaternions (Hamilton product).
 */
func (q Quaternion) Mul(other Quaternion) Quaternion {
	return Quaternion{
		X: q.X*other.W + q.Y*other.Z - q.Z*other.Y + q.W*other.X,
		Y: -q.X*other.Z + q.Y*other.W + q.Z*other.X + q.W*other.Y,
		Z: q.X*other.Y - q.Y*other.X + q.Z*other.W + q.W*other.Z,
		W: -q.X*other.X - q.Y*other.Y - q.Z*other.Z + q.W*other.W,
	}
}

/**
 * @brief Normalized linear interpolation between q and other.
 */
func (q Quaternion) Nlerp(other Quaternion, t float32) Quaternion {
	return Quaternion{
		X: q.X*(1-t) + other.X*t,
		Y: q.Y*(1-t) + other.Y*t,
		Z: q.Z*(1-t) + other.Z*t,
		W: q.W*(1-t) + other.W*t,
	}.Normalized()
}

// RotateVec3 applies the rotation of the unit quaternion q to v.
func (q Quaternion) RotateVec3(v Vec3) Vec3 {
	u := Vec3{q.X, q.Y, q.Z}
	t := u.Cross(v).MulScalar(2)
	return v.Add(t.MulScalar(q.W)).Add(u.Cross(t))
}
