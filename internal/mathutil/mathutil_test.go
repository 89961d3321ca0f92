package mathutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-5

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Vec3
	}{
		{"axis", Vec3{0, 0, 5}},
		{"diagonal", Vec3{1, 1, 1}},
		{"tiny", Vec3{1e-5, -2e-5, 3e-5}},
		{"large", Vec3{1e20, -3e19, 4e18}},
		{"negative", Vec3{-3, -4, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := tt.in.Normalize()
			assert.InDelta(t, 1.0, n.Len(), tol)
			assert.Greater(t, n.Dot(tt.in), 0.0)
		})
	}
}

func TestNormalizeZeroVector(t *testing.T) {
	n := Vec3{}.Normalize()
	assert.Equal(t, Vec3{1, 0, 0}, n)
}

func TestNormalizeIfNeededKeepsUnitVectors(t *testing.T) {
	units := []Vec3{
		{1, 0, 0},
		{0, -1, 0},
		Vec3{1, 2, 3}.Normalize(),
		Vec3{-0.3, 0.1, 0.9}.Normalize(),
	}
	for _, u := range units {
		assert.Equal(t, u, u.NormalizeIfNeeded())
	}
	assert.InDelta(t, 1.0, Vec3{2, 0, 0}.NormalizeIfNeeded().Len(), tol)
}

func TestMaxAbs(t *testing.T) {
	assert.Equal(t, 1.0, Vec3{0.1, -0.2, 0.3}.MaxAbs(1))
	assert.Equal(t, 7.0, Vec3{0.1, -7, 3}.MaxAbs(1))
	assert.Equal(t, 0.3, Vec3{0.1, -0.2, 0.3}.MaxAbs(0))
}

func TestReflectRefract(t *testing.T) {
	n := Vec3{0, 0, 1}
	i := Vec3{1, 0, -1}.Normalize()

	r := Reflect(i, n)
	assert.InDelta(t, i[0], r[0], tol)
	assert.InDelta(t, -i[2], r[2], tol)

	o, ok := Refract(i, n, 1)
	require.True(t, ok)
	assert.InDelta(t, i[0], o[0], tol)
	assert.InDelta(t, i[2], o[2], tol)

	// Grazing ray from the dense side is totally reflected.
	g := Vec3{1, 0, -0.1}.Normalize()
	o, ok = Refract(g, n, 1.5)
	assert.False(t, ok)
	assert.Equal(t, g.Neg(), o)
}

func TestMat4Inverse(t *testing.T) {
	m := FromTRS(Vec3{1, -2, 3}, Quat{0.2, 0.3, -0.1, 0.9}.Normalize(), Vec3{2, 1, 0.5})
	inv := m.Inverse()
	id := Mat4Mul(m, inv)
	assert.True(t, id.IsIdentity() || func() bool {
		for i := range id {
			if math.Abs(id[i]-Mat4Identity()[i]) > 1e-9 {
				return false
			}
		}
		return true
	}())

	p := Vec3{0.5, 0.25, -4}
	back := inv.MulPoint(m.MulPoint(p))
	for k := 0; k < 3; k++ {
		assert.InDelta(t, p[k], back[k], 1e-9)
	}
}

func TestMat4InverseSingular(t *testing.T) {
	var zero Mat4
	assert.True(t, zero.Inverse().IsIdentity())
}

func TestNormalMatrixKeepsNormalsPerpendicular(t *testing.T) {
	m := FromTRS(Vec3{}, Quat{0, 0.38268343, 0, 0.92387953}, Vec3{3, 1, 0.2})
	tangent := Vec3{1, 1, 0}
	normal := Vec3{1, -1, 0.5}.Cross(tangent).Normalize()
	tw := m.MulDir(tangent)
	nw := m.Upper3().NormalMatrix().MulVec3(normal)
	assert.InDelta(t, 0, tw.Dot(nw), 1e-9)
}

func TestRotZYXIsOrthonormal(t *testing.T) {
	r := RotZYX(Vec3{30, -45, 60})
	assert.InDelta(t, 1, r.Det(), 1e-9)
	rt := Mat3Mul(r, r.Transpose())
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			assert.InDelta(t, want, rt[i*3+j], 1e-9)
		}
	}
}

func TestLookAt(t *testing.T) {
	right, up, fwd := LookAt(Vec3{}, Vec3{0, 0, -1}, Vec3{0, 1, 0})
	assert.InDeltaSlice(t, []float64{1, 0, 0}, right[:], tol)
	assert.InDeltaSlice(t, []float64{0, 1, 0}, up[:], tol)
	assert.InDeltaSlice(t, []float64{0, 0, -1}, fwd[:], tol)

	// Looking straight down must still give an orthonormal frame.
	right, up, fwd = LookAt(Vec3{0, 5, 0}, Vec3{}, Vec3{0, 1, 0})
	assert.InDelta(t, 1, right.Len(), tol)
	assert.InDelta(t, 1, up.Len(), tol)
	assert.InDelta(t, 0, right.Dot(fwd), tol)
	assert.InDelta(t, 0, up.Dot(fwd), tol)
}

func TestIntensityAndLuminance(t *testing.T) {
	assert.InDelta(t, 1, Intensity(Splat3(1)), 1e-12)
	assert.InDelta(t, 1, Luminance(Splat3(1)), 1e-12)
	assert.InDelta(t, 0.587, Intensity(Vec3{0, 1, 0}), 1e-12)
}

func TestRotZYXUsesFrameRotations(t *testing.T) {
	v := RotZYX(Vec3{0, 0, 90}).MulVec3(Vec3{0, 1, 0})
	assert.InDelta(t, 0, v[1], 1e-12)
	assert.InDelta(t, -1, v[2], 1e-12)

	v = RotZYX(Vec3{90, 0, 0}).MulVec3(Vec3{1, 0, 0})
	assert.InDelta(t, 0, v[0], 1e-12)
	assert.InDelta(t, -1, v[1], 1e-12)
}
