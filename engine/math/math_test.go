package math

import (
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-5

func randomVec4(r *rand.Rand) Vec4 {
	return Vec4{r.Float32()*2 - 1, r.Float32()*2 - 1, r.Float32()*2 - 1, r.Float32()*2 - 1}
}

func TestCross4IsOrthogonal(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		x, y, z := randomVec4(r), randomVec4(r), randomVec4(r)
		c := Cross4(x, y, z)
		assert.InDelta(t, 0, c.Dot(x), 1e-5)
		assert.InDelta(t, 0, c.Dot(y), 1e-5)
		assert.InDelta(t, 0, c.Dot(z), 1e-5)
	}
}

func TestCross4OfOrthonormalTripleIsUnit(t *testing.T) {
	e1 := NewVec4(1, 0, 0, 0)
	e2 := NewVec4(0, 1, 0, 0)
	e3 := NewVec4(0, 0, 1, 0)
	c := Cross4(e1, e2, e3)
	assert.True(t, c.Compare(NewVec4(0, 0, 0, -1), tol), "got %v", c)
	assert.InDelta(t, 1, c.Length(), tol)

	// The camera basis seed: y, z, and a view direction along -x.
	x := Cross4(e2, e3, NewVec4(-1, 0, 0, 0))
	assert.True(t, x.Compare(NewVec4(0, 0, 0, 1), tol), "got %v", x)
}

func TestCross4Degenerate(t *testing.T) {
	v := NewVec4(1, 2, 3, 4)
	c := Cross4(v, v, NewVec4(0, 0, 1, 0))
	assert.True(t, c.Compare(Vec4{}, tol))
}

func TestView4MapsPositionToOrigin(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	x := NewVec4(0, 0, 0, 1)
	y := NewVec4(0, 1, 0, 0)
	z := NewVec4(0, 0, 1, 0)
	w := NewVec4(-1, 0, 0, 0)
	for i := 0; i < 20; i++ {
		p := randomVec4(r).MulScalar(50)
		v := View4(p, x, y, z, w)
		got := v.MulVec5(p.Homogeneous(1))
		assert.True(t, got.Compare(Vec5{0, 0, 0, 0, 1}, 1e-4), "got %v", got)
	}
}

func TestView4RotationRows(t *testing.T) {
	x := NewVec4(0, 0, 0, 2)
	y := NewVec4(0, 4, 0, 0)
	z := NewVec4(0, 0, 1, 0)
	w := NewVec4(-4, 0, 0, 0)
	v := View4(Vec4{}, x, y, z, w)
	assert.Equal(t, Vec5{0, 0, 0, 1, 0}, v.Row(0))
	assert.Equal(t, Vec5{0, 1, 0, 0, 0}, v.Row(1))
	assert.Equal(t, Vec5{1, 0, 0, 0, 0}, v.Row(3))
}

func TestTranslate4AndScale4(t *testing.T) {
	m := Translate4(NewMat5Identity(), NewVec4(-20, 0, 0, 0))
	assert.Equal(t, Vec5{-20, 0, 0, 0, 1}, m.Column(4))

	// Translating a translated matrix accumulates.
	m = Translate4(m, NewVec4(5, 1, 0, 0))
	assert.Equal(t, Vec5{-15, 1, 0, 0, 1}, m.Column(4))

	s := Scale4(NewMat5Identity(), Vec5{2, 3, 4, 5, 1})
	assert.Equal(t, NewMat5Diagonal(Vec5{2, 3, 4, 5, 1}), s)
}

func TestPerspective4Layout(t *testing.T) {
	p := Perspective4(-1, -100)
	assert.Equal(t, Vec5{-1, 0, 0, 0, 0}, p.Row(0))
	assert.Equal(t, Vec5{0, 0, 0, -101, -100}, p.Row(3))
	assert.Equal(t, Vec5{0, 0, 0, 1, 0}, p.Row(4))
}

func TestOrtho4MapsBoxToUnitCube(t *testing.T) {
	o := Ortho4(-1, 3, -2, 2, 0, 10, 1, 5)
	lo := o.MulVec5(Vec5{-1, -2, 0, 1, 1})
	hi := o.MulVec5(Vec5{3, 2, 10, 5, 1})
	assert.True(t, lo.Compare(Vec5{-1, -1, -1, 1, 1}, tol), "got %v", lo)
	assert.True(t, hi.Compare(Vec5{1, 1, 1, -1, 1}, tol), "got %v", hi)

	short := Ortho4Short(1, 5, 2)
	assert.True(t, short.Compare(Ortho4(-2, 2, -2, 2, -2, 2, 1, 5), tol))
}

func TestRotate4PreservesLength(t *testing.T) {
	v := Vec5{1, 2, 3, 4, 1}
	for _, p := range []Plane{PlaneXY, PlaneYZ, PlaneZX, PlaneXW, PlaneYW, PlaneZW} {
		m, ok := Rotate4(p, 0.7)
		require.True(t, ok)
		got := m.MulVec5(v).Vec4()
		assert.InDelta(t, v.Vec4().Length(), got.Length(), 1e-4, "plane %s", p)
		assert.Equal(t, float32(1), m.At(4, 4))
	}
	_, ok := Rotate4("uv", 1)
	assert.False(t, ok)

	xy := Rotate4XY(math32.Pi / 2)
	got := xy.MulVec5(Vec5{1, 0, 0, 0, 1})
	assert.True(t, got.Compare(Vec5{0, -1, 0, 0, 1}, tol), "got %v", got)
}

func TestMat5MulIdentity(t *testing.T) {
	m := Translate4(Rotate4XW(0.3), NewVec4(1, 2, 3, 4))
	assert.Equal(t, m, m.Mul(NewMat5Identity()))
	assert.Equal(t, m, NewMat5Identity().Mul(m))
}

func TestMat4LookAtAndPerspective(t *testing.T) {
	eye := NewVec3(2, 2, 2)
	view := NewMat4LookAt(eye, Vec3{}, NewVec3(0, 0, 1))
	got := view.MulVec4(eye.ToVec4(1))
	assert.True(t, got.Compare(NewVec4(0, 0, 0, 1), tol), "got %v", got)

	// The origin sits straight ahead, on the negative z axis.
	o := view.MulVec4(NewVec4(0, 0, 0, 1))
	assert.InDelta(t, 0, o.X, tol)
	assert.InDelta(t, 0, o.Y, tol)
	assert.InDelta(t, -eye.Length(), o.Z, tol)

	p := NewMat4Perspective(math32.Pi/2, 1, 0.1, 1000)
	near := p.MulVec4(NewVec4(0, 0, -0.1, 1))
	assert.InDelta(t, -1, near.Z/near.W, 1e-4)
	far := p.MulVec4(NewVec4(0, 0, -1000, 1))
	assert.InDelta(t, 1, far.Z/far.W, 1e-3)
}

func TestQuaternionRotation(t *testing.T) {
	q := NewQuatFromAxisAngle(NewVec3(0, 0, 1), math32.Pi/2)
	got := q.RotateVec3(NewVec3(1, 0, 0))
	assert.True(t, got.Compare(NewVec3(0, 1, 0), tol), "got %v", got)

	half := NewQuatIdentity().Nlerp(q, 0.5)
	got = half.RotateVec3(NewVec3(1, 0, 0))
	assert.True(t, got.Compare(NewVec3(math32.Sqrt2/2, math32.Sqrt2/2, 0), 1e-4), "got %v", got)

	composed := q.Mul(q).RotateVec3(NewVec3(1, 0, 0))
	assert.True(t, composed.Compare(NewVec3(-1, 0, 0), tol), "got %v", composed)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 3, Clamp(5, 1, 3))
	assert.Equal(t, float32(1), Clamp(float32(-2), 1, 3))
	assert.Equal(t, uint32(2), Clamp(uint32(2), 1, 3))
}
