package material

import (
	"errors"
	"math"
	"testing"

	"bdpt-renderer/internal/mathutil"
	"bdpt-renderer/internal/sampler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goldIOR = `{
  "extensions": {
    "OpenMaterial_ior_data": {
      "data": [
        {"temperature": 500, "n": [[400e-9, 2.0], [700e-9, 2.0]], "k": [[400e-9, 0], [700e-9, 0]]},
        {"temperature": 300, "n": [[700e-9, 0.2], [400e-9, 1.5]], "k": [[400e-9, 1.9], [700e-9, 4.0]]}
      ]
    }
  }
}`

func TestFresnelAtNormalIncidence(t *testing.T) {
	for _, n := range []float64{1.33, 1.5, 2.4} {
		rp, rs := fresnel(complex(n, 0), 1)
		want := math.Pow((n-1)/(n+1), 2)
		assert.InDelta(t, want, rp, 1e-12)
		assert.InDelta(t, want, rs, 1e-12)
	}
}

func TestFresnelGrazingIsTotal(t *testing.T) {
	rp, rs := fresnel(complex(1.5, 0), 1e-9)
	assert.InDelta(t, 1, rp, 1e-6)
	assert.InDelta(t, 1, rs, 1e-6)
}

func TestIORInterpolationPicksClosestTemperature(t *testing.T) {
	tbl, err := ParseIOR([]byte(goldIOR))
	require.NoError(t, err)
	require.Len(t, tbl.Entries, 2)
	assert.Equal(t, 300.0, tbl.Entries[0].Temperature)

	n, k, err := tbl.At(290, 550e-9)
	require.NoError(t, err)
	assert.InDelta(t, 0.85, n, 1e-9)
	assert.InDelta(t, 2.95, k, 1e-9)

	n, _, err = tbl.At(480, 550e-9)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, n, 1e-9)
}

func TestIOROutOfRange(t *testing.T) {
	tbl, err := ParseIOR([]byte(goldIOR))
	require.NoError(t, err)
	_, _, err = tbl.At(300, 900e-9)
	assert.True(t, errors.Is(err, ErrNoIORData))

	tbl.Lorentz = &Lorentz{Min: 800e-9, Max: 1000e-9}
	n, k, err := tbl.At(300, 900e-9)
	require.NoError(t, err)
	assert.InDelta(t, 1, n, 1e-12)
	assert.InDelta(t, 0, k, 1e-12)
}

func TestParseIORRejectsNegativeTemperature(t *testing.T) {
	_, err := ParseIOR([]byte(`{"extensions":{"OpenMaterial_ior_data":{"data":[{"temperature":-1,"n":[],"k":[]}]}}}`))
	assert.Error(t, err)
}

func TestOpenReflectsMirrorDirection(t *testing.T) {
	tbl, err := ParseIOR([]byte(goldIOR))
	require.NoError(t, err)
	m := NewOpen(0, tbl, DefaultTemperature)
	sp := facingUp(t)
	m.ModifyFrame(sp)

	in := mathutil.Vec3{0.6, 0, -0.8}
	out, brdf, _ := m.RayAndBrdf(in, sp, sampler.New(1), true)
	assert.InDelta(t, 0.6, out[0], 1e-9)
	assert.InDelta(t, 0.8, out[2], 1e-9)
	assert.Greater(t, brdf[0], 0.0)

	direct := m.Brdf(in, sp, out)
	for c := 0; c < 3; c++ {
		assert.InDelta(t, brdf[c], direct[c], 1e-9)
	}
	assert.Equal(t, mathutil.Vec3{}, m.Brdf(in, sp, mathutil.Vec3{0, 0, 1}))
}

func TestOpenWithoutIORIsBlack(t *testing.T) {
	m := NewOpen(0, nil, DefaultTemperature)
	sp := facingUp(t)
	_, brdf, _ := m.RayAndBrdf(mathutil.Vec3{0, 0, -1}, sp, sampler.New(1), false)
	assert.Equal(t, mathutil.Vec3{}, brdf)
}

func TestOpenLiftsDirectionAboveFace(t *testing.T) {
	m := NewOpen(0, nil, DefaultTemperature)
	sp := facingUp(t)
	// A shading normal tilted far from the face normal.
	sp.Normal = mathutil.Vec3{1, 0, 0.2}.Normalize()
	out := m.DefineNextDirection(mathutil.Vec3{0.9, 0, -0.1}.Normalize(), sp, nil)
	assert.GreaterOrEqual(t, out.Dot(sp.FlatNormal()), 0.0)
}
