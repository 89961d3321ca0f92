package scene

import (
	"math"
	"testing"

	"bdpt-renderer/internal/light"
	"bdpt-renderer/internal/material"
	"bdpt-renderer/internal/mathutil"
	"bdpt-renderer/internal/mesh"
	"bdpt-renderer/internal/sampler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quad returns a 2×2 square in the plane z facing +z.
func quad(z float64, materialID int) *mesh.Mesh {
	m := mesh.New(0, 4, 2, 0, materialID)
	m.SetVertex(0, mathutil.Vec3{-1, -1, z})
	m.SetVertex(1, mathutil.Vec3{1, -1, z})
	m.SetVertex(2, mathutil.Vec3{1, 1, z})
	m.SetVertex(3, mathutil.Vec3{-1, 1, z})
	m.SetFace(0, [3]uint32{0, 1, 2})
	m.SetFace(1, [3]uint32{0, 2, 3})
	return m
}

func maskedMaterial(id int) material.Material {
	p := material.DefaultPBRParams()
	p.AlphaMode = material.AlphaMask
	p.BaseColorFactor[3] = 0.1
	return material.NewPBR(id, p)
}

// layered builds a masked quad at z=0 in front of an opaque quad at z=-1.
func layered(t *testing.T) *Scene {
	t.Helper()
	s := New()
	s.Allocate(2, 2, 2, 0, 0)
	require.True(t, s.SetMaterial(0, maskedMaterial(0)))
	require.True(t, s.SetMaterial(1, material.NewDiffuse(1, mathutil.Vec4{1, 1, 1, 1})))
	require.True(t, s.SetMesh(0, quad(0, 0)))
	require.True(t, s.SetMesh(1, quad(-1, 1)))
	require.True(t, s.SetInstance(0, 0, mathutil.Mat4Identity()))
	require.True(t, s.SetInstance(1, 1, mathutil.Mat4Identity()))
	notes, err := s.Commit()
	require.NoError(t, err)
	require.Empty(t, notes)
	return s
}

func TestMaskedSurfaceIsSkipped(t *testing.T) {
	s := layered(t)
	var sp mesh.SurfacePoint
	require.True(t, s.Trace(mathutil.Vec3{0.3, 0.2, 2}, mathutil.Vec3{0, 0, -1}, &sp))
	assert.Same(t, s.Mesh(1), sp.Mesh)
	assert.InDelta(t, -1, sp.Position[2], 1e-6)
	assert.InDelta(t, 0.3, sp.Position[0], 1e-6)
}

func TestOpaqueSurfaceStopsRay(t *testing.T) {
	s := layered(t)
	var sp mesh.SurfacePoint
	require.True(t, s.Trace(mathutil.Vec3{0.3, 0.2, -0.5}, mathutil.Vec3{0, 0, -1}, &sp))
	assert.Same(t, s.Mesh(1), sp.Mesh)
	assert.Equal(t, 2, sp.PrimitiveID-sp.FaceID)
	assert.False(t, s.Trace(mathutil.Vec3{0.3, 0.2, -2}, mathutil.Vec3{0, 0, -1}, &sp))
}

func TestIsConnected(t *testing.T) {
	s := New()
	s.Allocate(1, 1, 1, 0, 0)
	s.SetMaterial(0, material.NewDiffuse(0, mathutil.Vec4{1, 1, 1, 1}))
	s.SetMesh(0, quad(0, 0))
	s.SetInstance(0, 0, mathutil.Mat4Identity())
	_, err := s.Commit()
	require.NoError(t, err)

	tests := []struct {
		name string
		a, b mathutil.Vec3
		want bool
	}{
		{"blocked by quad", mathutil.Vec3{0.2, 0.1, 1}, mathutil.Vec3{0.2, 0.1, -1}, false},
		{"same side", mathutil.Vec3{0.2, 0.1, 1}, mathutil.Vec3{0.5, 0.5, 2}, true},
		{"beside quad", mathutil.Vec3{3, 0, 1}, mathutil.Vec3{3, 0, -1}, true},
		{"ends on the surface", mathutil.Vec3{0.2, 0.1, 1}, mathutil.Vec3{0.2, 0.1, 0}, true},
		{"coincident", mathutil.Vec3{0.2, 0.1, 1}, mathutil.Vec3{0.2, 0.1, 1}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, s.IsConnected(tc.a, tc.b))
		})
	}
}

func TestCommitIsIdempotent(t *testing.T) {
	s := New()
	s.Allocate(2, 3, 1, 0, 0)
	s.SetMaterial(0, material.NewDiffuse(0, mathutil.Vec4{1, 1, 1, 1}))
	s.SetMesh(0, quad(0, 5))
	s.SetMesh(1, mesh.New(1, 0, 0, 0, 0))
	s.SetInstance(0, 0, mathutil.Mat4Identity())
	s.SetInstance(1, 1, mathutil.Mat4Identity())
	s.SetInstance(2, 7, mathutil.Mat4Identity())

	first, err := s.Commit()
	require.NoError(t, err)
	tracer := s.tracer
	second, err := s.Commit()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Same(t, tracer, s.tracer)
	assert.Equal(t, []string{"1 mesh is inconsistent", "2 from 3 instances are invalid"}, first)
	assert.Equal(t, s.MaterialCount(), s.Mesh(0).MaterialID)
	assert.Equal(t, material.KindDiffuse, s.Material(s.Mesh(0).MaterialID).Kind())
}

func TestCommitReportsUndefinedMaterial(t *testing.T) {
	s := New()
	s.Allocate(1, 1, 2, 0, 0)
	s.SetMesh(0, quad(0, 1))
	s.SetInstance(0, 0, mathutil.Mat4Identity())
	notes, err := s.Commit()
	require.NoError(t, err)
	assert.Equal(t, []string{"0 mesh refers to undefined material 1"}, notes)
	assert.Equal(t, 2, s.Mesh(0).MaterialID)
}

func TestNothingToRender(t *testing.T) {
	t.Run("no instances", func(t *testing.T) {
		_, err := New().Commit()
		assert.ErrorIs(t, err, ErrNothingToRender)
	})
	t.Run("all invalid", func(t *testing.T) {
		s := New()
		s.Allocate(1, 1, 0, 0, 0)
		s.SetInstance(0, 0, mathutil.Mat4Identity())
		notes, err := s.Commit()
		assert.ErrorIs(t, err, ErrNothingToRender)
		assert.Contains(t, notes, "1 from 1 instances are invalid")
		assert.False(t, s.Committed())
	})
}

func TestSettersIgnoreOutOfRange(t *testing.T) {
	s := New()
	s.Allocate(1, 1, 1, 1, 1)
	assert.False(t, s.SetMesh(1, quad(0, 0)))
	assert.False(t, s.SetMesh(-1, quad(0, 0)))
	assert.False(t, s.SetInstance(3, 0, mathutil.Mat4Identity()))
	assert.False(t, s.SetMaterial(1, material.NewDiffuse(1, mathutil.Vec4{})))
	assert.False(t, s.SetTexture(2, nil))
	assert.False(t, s.SetLight(1, light.NewPoint(mathutil.Vec3{}, mathutil.Vec3{1, 1, 1}, 0)))
	assert.True(t, s.SetLight(0, light.NewPoint(mathutil.Vec3{}, mathutil.Vec3{1, 1, 1}, 0)))
}

func TestLightSamplingFollowsPower(t *testing.T) {
	powers := []float64{1, 2, 7}
	s := New()
	s.Allocate(1, 1, 1, 0, len(powers))
	s.SetMaterial(0, material.NewDiffuse(0, mathutil.Vec4{1, 1, 1, 1}))
	s.SetMesh(0, quad(0, 0))
	s.SetInstance(0, 0, mathutil.Mat4Identity())
	for i, p := range powers {
		s.SetLight(i, light.NewPoint(mathutil.Vec3{}, mathutil.Splat3(p), 0))
	}
	_, err := s.Commit()
	require.NoError(t, err)

	const draws = 100000
	counts := map[light.Light]int{}
	smp := sampler.New(sampler.DefaultSeed)
	for i := 0; i < draws; i++ {
		l, pdf := s.SampleLight(smp)
		require.NotNil(t, l)
		assert.InDelta(t, l.Power()/10, pdf, 1e-9)
		counts[l]++
	}
	tol := 4 / math.Sqrt(draws)
	for i, p := range powers {
		assert.InDelta(t, p/10, float64(counts[s.Light(i)])/draws, tol)
	}
}

func TestSampleLightWithoutLights(t *testing.T) {
	s := layered(t)
	l, pdf := s.SampleLight(sampler.New(1))
	assert.Nil(t, l)
	assert.Zero(t, pdf)
}

func TestDistributionValue(t *testing.T) {
	d := newDistribution([]float64{1, 2, 3, 4})
	tests := []struct {
		x    float64
		want int
	}{
		{-1, 0}, {0.5, 0}, {1, 0}, {1.5, 1}, {3, 1}, {3.01, 2}, {6, 3}, {6.5, 3}, {10, 3}, {20, 3},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, d.value(tc.x), "x=%v", tc.x)
	}
	assert.Equal(t, -1, newDistribution(nil).value(0))
	assert.Equal(t, 0, newDistribution([]float64{5}).value(100))
	assert.InDelta(t, 0.3, d.pdf(2), 1e-12)

	zero := newDistribution([]float64{0, 0})
	assert.InDelta(t, 0.5, zero.pdf(1), 1e-12)
}
