package material

import (
	"testing"

	"bdpt-renderer/internal/mathutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPainters(t *testing.T) {
	counts := Counts{Primitives: 4, Geometries: 2, Materials: 3}
	tests := []struct {
		subject Subject
		sample  Sample
		want    mathutil.Vec3
	}{
		{SubjectMetallic, Sample{Metallic: 0.5}, mathutil.Vec3{0.5, 0.5, 1}},
		{SubjectRoughness, Sample{Roughness: 1}, mathutil.Vec3{0, 1, 0}},
		{SubjectMaterialID, Sample{MaterialID: 3}, MissingColor},
		{SubjectMaterialID, Sample{MaterialID: 7}, mathutil.Vec3{}},
		{SubjectMaterialID, Sample{MaterialID: 1}, Palette(1)},
		{SubjectKind, Sample{Kind: KindOpen}, mathutil.Vec3{1, 0.5, 0}},
	}
	for _, tc := range tests {
		t.Run(string(tc.subject), func(t *testing.T) {
			p, err := NewPainter(tc.subject, counts)
			require.NoError(t, err)
			assert.Equal(t, tc.want, p.Paint(tc.sample))
		})
	}
}

func TestPainterPrimitiveAndInverted(t *testing.T) {
	sp := facingUp(t)
	sp.PrimitiveID = 9
	p, err := NewPainter(SubjectPrimitiveID, Counts{Primitives: 4})
	require.NoError(t, err)
	assert.Equal(t, mathutil.Vec3{}, p.Paint(Sample{Point: sp}))

	p, err = NewPainter(SubjectInverted, Counts{})
	require.NoError(t, err)
	assert.Equal(t, mathutil.Vec3{0, 1, 0}, p.Paint(Sample{Point: sp, In: mathutil.Vec3{0, 0, -1}}))
	assert.Equal(t, mathutil.Vec3{1, 0, 0}, p.Paint(Sample{Point: sp, In: mathutil.Vec3{0, 0, 1}}))
}

func TestUnknownSubject(t *testing.T) {
	_, err := NewPainter("xyz", Counts{})
	assert.Error(t, err)
}

func TestPaletteIsDistinct(t *testing.T) {
	seen := map[mathutil.Vec3]bool{}
	for i := 0; i < 32; i++ {
		c := Palette(i)
		assert.False(t, seen[c], "id %d", i)
		seen[c] = true
	}
}

func TestPaintedMaterialDoesNotScatter(t *testing.T) {
	d := NewDiffuse(0, mathutil.Vec4{1, 1, 1, 1})
	p, err := NewPainter(SubjectRoughness, Counts{})
	require.NoError(t, err)
	d.SetPainter(p)
	out, brdf, _ := d.RayAndBrdf(mathutil.Vec3{0, 0, -1}, facingUp(t), nil, true)
	assert.Equal(t, mathutil.Vec3{}, out)
	assert.Equal(t, mathutil.Vec3{0, 1, 0}, brdf)
}
