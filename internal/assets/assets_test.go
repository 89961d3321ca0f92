package assets

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bdpt-renderer/internal/accel"
	"bdpt-renderer/internal/light"
	"bdpt-renderer/internal/material"
	"bdpt-renderer/internal/mathutil"
	"bdpt-renderer/internal/mesh"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sceneJSON = `{
  "materials": [
    {"name": "gold", "open": {"ior": "gold.json"}, "pbr": {"baseColorFactor": [1, 0.8, 0, 1], "metallicFactor": 1}},
    {"name": "unused", "diffuse": {}},
    {"name": "lost", "open": {"ior": "missing.json"}, "pbr": {"roughnessFactor": 0.3}},
    {"name": "wall", "diffuse": {"color": [0.5, 0.5, 0.5, 1]}}
  ],
  "meshes": [
    {"shape": "sphere", "material": 0, "segments": 8, "rings": 4},
    {"positions": [0, 0, 0, 1, 0, 0, 0, 1, 0], "material": 2},
    {"shape": "quad", "material": 3, "size": 4},
    {"shape": "cube"}
  ],
  "nodes": [
    {"name": "parent", "translation": [1, 0, 0], "children": [1]},
    {"name": "ball", "mesh": 0, "translation": [0, 2, 0]},
    {"name": "tri", "mesh": 1},
    {"name": "floor", "mesh": 2, "matrix": [1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, -3, 1]},
    {"name": "box", "mesh": 3, "scale": [2, 2, 2]}
  ],
  "lights": [{"node": 1, "position": [0, 1, 0], "color": [1, 0.5, 0.25], "intensity": 4}],
  "camera": {"position": [0, 0, 10], "target": [0, 0, 0], "yfov": 45}
}`

const goldIOR = `{"extensions": {"OpenMaterial_ior_data": {"data": [
  {"temperature": 300, "n": [[400e-9, 1.5], [700e-9, 0.2]], "k": [[400e-9, 1.9], [700e-9, 4.0]]}
]}}}`

func loadFixture(t *testing.T, opts Options) *Asset {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scene.json"), []byte(sceneJSON), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gold.json"), []byte(goldIOR), 0o644))
	a, err := Load(filepath.Join(dir, "scene.json"), opts)
	require.NoError(t, err)
	return a
}

func assertVec(t *testing.T, want, got mathutil.Vec3) {
	t.Helper()
	for c := 0; c < 3; c++ {
		assert.InDelta(t, want[c], got[c], 1e-9, "component %d of %v", c, got)
	}
}

func TestLoadBuildsScene(t *testing.T) {
	a := loadFixture(t, Options{})
	assert.Equal(t, 4, a.InstanceCount())

	s := a.Scene(mathutil.Mat4Identity(), Options{UseLights: true, Priority: PriorityOpen})
	notes, err := s.Commit()
	require.NoError(t, err)
	assert.Empty(t, notes)

	assert.Equal(t, 4, s.MeshCount())
	assert.Equal(t, 4, s.InstanceCount())
	assert.Equal(t, 3, s.MaterialCount())
	assert.Equal(t, material.KindOpen, s.Material(0).Kind())
	assert.Equal(t, material.KindPBR, s.Material(1).Kind(), "missing IOR falls back to pbr")
	assert.Equal(t, material.KindDiffuse, s.Material(2).Kind())
	assert.Equal(t, s.MaterialCount(), s.Mesh(3).MaterialID, "mesh without material uses the missing slot")

	require.Equal(t, 1, s.LightCount())
	assert.InDelta(t, mathutil.Luminance(mathutil.Vec3{4, 2, 1}), s.Light(0).Power(), 1e-12)
}

func TestMaterialPriority(t *testing.T) {
	a := loadFixture(t, Options{})
	tests := []struct {
		name     string
		index    int
		priority Priority
		want     material.Kind
	}{
		{"open first", 0, PriorityOpen, material.KindOpen},
		{"pbr first", 0, PriorityPBR, material.KindPBR},
		{"open without data", 2, PriorityOpen, material.KindPBR},
		{"diffuse only", 3, PriorityPBR, material.KindDiffuse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := a.Material(tt.index, 7, tt.priority)
			require.NotNil(t, m)
			assert.Equal(t, tt.want, m.Kind())
		})
	}
	assert.Nil(t, a.Material(9, 0, PriorityOpen))
}

func TestLightsOnlyWhenEnabled(t *testing.T) {
	a := loadFixture(t, Options{})
	s := a.Scene(mathutil.Mat4Identity(), Options{})
	_, err := s.Commit()
	require.NoError(t, err)
	assert.Zero(t, s.LightCount())
	assert.Nil(t, s.Background())
}

func TestMissingHDRFallsBackToConstant(t *testing.T) {
	a := loadFixture(t, Options{})
	s := a.Scene(mathutil.Mat4Identity(), Options{HDRPath: filepath.Join(t.TempDir(), "none.hdr"), HDRScale: 1})
	require.NotNil(t, s.Background())
	assertVec(t, mathutil.Splat3(100), s.Background().Radiance(mathutil.Vec3{0, 1, 0}))
}

func TestLoadDecodesPNGTextures(t *testing.T) {
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{G: 51, B: 102, A: 255})
	f, err := os.Create(filepath.Join(dir, "albedo.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	doc := `{"textures": [{"uri": "albedo.png"}, {"uri": "gone.png"}], "meshes": [{"shape": "quad"}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scene.json"), []byte(doc), 0o644))
	a, err := Load(filepath.Join(dir, "scene.json"), Options{})
	require.NoError(t, err)

	require.Len(t, a.Textures, 2)
	require.NotNil(t, a.Textures[0])
	assert.Nil(t, a.Textures[1])
	got := a.Textures[0].Sample(0.5, 0)
	assert.InDelta(t, 0, got[0], 1e-9)
	assert.InDelta(t, 0.2, got[1], 1e-9)
	assert.InDelta(t, 0.4, got[2], 1e-9)
}

func TestNodeHierarchyAndBounds(t *testing.T) {
	a := loadFixture(t, Options{})
	box := a.Bounds()
	assertVec(t, mathutil.Vec3{-2, -2, -3}, box.Min)
	assertVec(t, mathutil.Vec3{2, 3, 1}, box.Max)

	s := a.Scene(mathutil.Mat4Identity(), Options{UseLights: true})
	inst, ok := s.Instance(0)
	require.True(t, ok)
	assertVec(t, mathutil.Vec3{1, 2, 0}, inst.Transform.Translation())
	pt, ok := s.Light(0).(*light.Point)
	require.True(t, ok)
	assertVec(t, mathutil.Vec3{1, 3, 0}, pt.Position)
	assert.Equal(t, mathutil.MaxFloat32, pt.AttenuationDistance())
}

func TestCamera(t *testing.T) {
	a := loadFixture(t, Options{})
	vp, fov, ok := a.Camera()
	require.True(t, ok)
	assert.Equal(t, 45.0, fov)
	assertVec(t, mathutil.Vec3{0, 0, 10}, vp.Position)
	assertVec(t, mathutil.Vec3{0, 0, -1}, vp.Forward())
}

func TestUnsupportedMesh(t *testing.T) {
	tests := []MeshDesc{
		{Shape: "torus"},
		{URI: "model.obj"},
		{Name: "empty"},
	}
	for _, d := range tests {
		_, err := FromDocument(&Document{Meshes: []MeshDesc{d}}, t.TempDir(), Options{})
		assert.ErrorIs(t, err, ErrUnsupportedMesh, "%+v", d)
	}
}

func TestParseDocumentRejectsBadNodes(t *testing.T) {
	_, err := ParseDocument([]byte(`{"nodes": [{"mesh": 0}]}`))
	assert.Error(t, err)
	_, err = ParseDocument([]byte(`{"nodes": [{"children": [0]}]}`))
	assert.Error(t, err)
}

func TestNodeCyclesTerminate(t *testing.T) {
	doc := &Document{
		Meshes: []MeshDesc{{Shape: "quad"}},
		Nodes: []NodeDesc{
			{Mesh: new(int), Children: []int{1}},
			{Children: []int{0}},
		},
		Scene: []int{0},
	}
	a, err := FromDocument(doc, t.TempDir(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, a.InstanceCount())
}

func TestTextureRefTransform(t *testing.T) {
	d := &TextureRefDesc{Index: 2, TexCoord: 1, Transform: &UVTransformDesc{Offset: [2]float64{0.5, 0}}}
	ref := d.textureRef()
	assert.Equal(t, 2, ref.Index)
	assert.Equal(t, 1, ref.TexCoord)
	uv := ref.Transform.MulVec3(mathutil.Vec3{0.25, 0.5, 1})
	assertVec(t, mathutil.Vec3{0.75, 0.5, 1}, uv)

	var none *TextureRefDesc
	assert.False(t, none.textureRef().Bound())
}

// outward reports whether every face of m winds counter-clockwise seen
// from outside a shape centred at the origin.
func outward(m *mesh.Mesh) bool {
	for i := 0; i < m.FaceCount(); i++ {
		p0, p1, p2 := m.Triangle(i)
		n := p1.Sub(p0).Cross(p2.Sub(p0))
		c := p0.Add(p1).Add(p2).Scale(1.0 / 3)
		if n.Dot(c) <= 0 {
			return false
		}
	}
	return true
}

func TestShapes(t *testing.T) {
	s := UVSphere(2, 8, 4)
	assert.Equal(t, 2*8*3, s.FaceCount())
	assert.True(t, outward(s))
	for i := 0; i < s.VertexCount(); i++ {
		assert.InDelta(t, 2, s.Vertex(i).Len(), 1e-6)
		assert.InDelta(t, 1, s.Normal(i).Len(), 1e-6)
	}

	c := Cube(2)
	assert.Equal(t, 12, c.FaceCount())
	assert.True(t, outward(c))
	for i := 0; i < c.VertexCount(); i++ {
		assert.InDelta(t, 1, c.Vertex(i).MaxAbs(0), 1e-9)
	}
	FlipFaces(c)
	for i := 0; i < c.FaceCount(); i++ {
		p0, p1, p2 := c.Triangle(i)
		assert.Negative(t, p1.Sub(p0).Cross(p2.Sub(p0)).Dot(p0.Add(p1).Add(p2)))
	}

	q := Quad(1)
	p0, p1, p2 := q.Triangle(0)
	assert.Positive(t, p1.Sub(p0).Cross(p2.Sub(p0))[2])
	assert.True(t, q.Valid())
}

const asciiPLY = `ply
format ascii 1.0
comment unit square
element vertex 4
property float x
property float y
property float z
property float s
property float t
element face 1
property list uchar int vertex_indices
end_header
0 0 0 0 0
1 0 0 1 0
1 1 0 1 1
0 1 0 0 1
4 0 1 2 3
`

func TestReadPLYASCII(t *testing.T) {
	m, err := ReadPLY(bufio.NewReader(strings.NewReader(asciiPLY)))
	require.NoError(t, err)
	assert.Equal(t, 4, m.VertexCount())
	assert.Equal(t, 2, m.FaceCount())
	assert.Equal(t, 1, m.TexChannels())
	assert.Equal(t, [3]uint32{0, 2, 3}, m.Face(1))
	assertVec(t, mathutil.Vec3{1, 1, 0}, m.Vertex(2))
	uv, ok := m.TexCoord(mathutil.Vec3{0, 1, 0}, 0, 0)
	require.True(t, ok)
	assert.InDelta(t, 1, uv[0], 1e-9)
	assert.InDelta(t, 0, uv[1], 1e-9)
}

func TestReadPLYBinary(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("ply\nformat binary_little_endian 1.0\n" +
		"element vertex 3\nproperty float x\nproperty float y\nproperty float z\n" +
		"property float nx\nproperty float ny\nproperty float nz\n" +
		"element face 1\nproperty list uchar uint vertex_indices\n" +
		"element tag 2\nproperty uchar red\nproperty double weight\n" +
		"end_header\n")
	verts := [][3]float32{{0, 0, 0}, {2, 0, 0}, {0, 2, 0}}
	for _, v := range verts {
		binary.Write(&buf, binary.LittleEndian, v)
		binary.Write(&buf, binary.LittleEndian, [3]float32{0, 0, 1})
	}
	buf.WriteByte(3)
	binary.Write(&buf, binary.LittleEndian, [3]uint32{0, 1, 2})
	for i := 0; i < 2; i++ {
		buf.WriteByte(255)
		binary.Write(&buf, binary.LittleEndian, math.Pi)
	}

	m, err := ReadPLY(bufio.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, 3, m.VertexCount())
	assert.Equal(t, 1, m.FaceCount())
	assert.Zero(t, m.TexChannels())
	assertVec(t, mathutil.Vec3{2, 0, 0}, m.Vertex(1))
	assertVec(t, mathutil.Vec3{0, 0, 1}, m.Normal(2))
}

func TestReadPLYErrors(t *testing.T) {
	tests := map[string]string{
		"not ply":       "obj\n",
		"big endian":    "ply\nformat binary_big_endian 1.0\nend_header\n",
		"bad type":      "ply\nformat ascii 1.0\nelement vertex 1\nproperty quad x\nend_header\n",
		"no faces":      "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nproperty float y\nproperty float z\nend_header\n0 0 0\n",
		"short body":    "ply\nformat ascii 1.0\nelement vertex 2\nproperty float x\nproperty float y\nproperty float z\nend_header\n0 0 0\n",
		"no header end": "ply\nformat ascii 1.0\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadPLY(bufio.NewReader(strings.NewReader(src)))
			assert.Error(t, err)
		})
	}
}

func TestSceneTransform(t *testing.T) {
	center := mathutil.Vec3{1, 2, 3}

	tm := SceneTransform(center, mathutil.Vec3{}, mathutil.Vec3{0.5, 0, -1})
	assertVec(t, mathutil.Vec3{-0.5, 0, 1}, tm.MulPoint(mathutil.Vec3{}))

	tm = SceneTransform(center, mathutil.Vec3{90, 0, 0}, mathutil.Vec3{})
	assertVec(t, center, tm.MulPoint(center))
	moved := tm.MulPoint(center.Add(mathutil.Vec3{1, 0, 0}))
	assert.InDelta(t, 1, moved.Dist(center), 1e-9)
	assert.InDelta(t, 0, moved[2]-center[2], 1e-9)
}

func TestCenteredViewPoint(t *testing.T) {
	vp := CenteredViewPoint(mathutil.Mat4Identity(), mathutil.Vec3{0, 0, -5})
	assertVec(t, mathutil.Vec3{0, 0, -1}, vp.Forward())
	assertVec(t, mathutil.Vec3{}, vp.Position)

	vp = CenteredViewPoint(mathutil.Mat4Identity(), mathutil.Vec3{})
	assertVec(t, mathutil.Vec3{0, 0, -1}, vp.Forward())
}

func TestLightBoxViewPoints(t *testing.T) {
	box := accel.AABB{Min: mathutil.Vec3{-1, -1, -1}, Max: mathutil.Vec3{1, 1, 1}}
	vps := LightBoxViewPoints(box)
	require.Len(t, vps, 8)
	for _, vp := range vps {
		assert.InDelta(t, math.Sqrt(12), vp.Position.Len(), 1e-9)
		assertVec(t, vp.Position.Neg().Normalize(), vp.Forward())
	}
	assertVec(t, mathutil.Vec3{-2, -2, -2}, vps[0].Position)
	assertVec(t, mathutil.Vec3{2, 2, 2}, vps[7].Position)
}
