package assets

import (
	"math"

	"bdpt-renderer/internal/mathutil"
	"bdpt-renderer/internal/mesh"
)

// Default tessellation of generated spheres.
const (
	DefaultSegments = 32
	DefaultRings    = 16
)

// UVSphere returns a sphere of radius r around the origin with poles on ±y.
// Vertex normals are exact; channel 0 holds (u, v) = (longitude, latitude).
func UVSphere(r float64, segments, rings int) *mesh.Mesh {
	segments = max(segments, 3)
	rings = max(rings, 2)
	cols := segments + 1
	m := mesh.New(0, (rings+1)*cols, 2*segments*(rings-1), 1, 0)

	for i := 0; i <= rings; i++ {
		theta := math.Pi * float64(i) / float64(rings)
		st, ct := math.Sincos(theta)
		for j := 0; j <= segments; j++ {
			phi := 2 * math.Pi * float64(j) / float64(segments)
			sp, cp := math.Sincos(phi)
			n := mathutil.Vec3{st * sp, ct, st * cp}
			k := i*cols + j
			m.SetVertex(k, n.Scale(r))
			m.SetNormal(k, n)
			m.SetTexCoord(0, k, mathutil.Vec2{float64(j) / float64(segments), float64(i) / float64(rings)})
		}
	}

	f := 0
	for i := 0; i < rings; i++ {
		for j := 0; j < segments; j++ {
			a := uint32(i*cols + j)
			b := uint32((i+1)*cols + j)
			c := b + 1
			d := a + 1
			// the cap rings collapse to a point, so only one triangle is kept
			if i != rings-1 {
				m.SetFace(f, [3]uint32{a, b, c})
				f++
			}
			if i != 0 {
				m.SetFace(f, [3]uint32{a, c, d})
				f++
			}
		}
	}
	return m
}

// Quad returns a size×size square in the z=0 plane facing +z.
func Quad(size float64) *mesh.Mesh {
	h := 0.5 * size
	m := mesh.New(0, 4, 2, 1, 0)
	corners := [4]mathutil.Vec2{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	for i, c := range corners {
		m.SetVertex(i, mathutil.Vec3{c[0] * h, c[1] * h, 0})
		m.SetTexCoord(0, i, mathutil.Vec2{0.5 * (c[0] + 1), 0.5 * (c[1] + 1)})
	}
	m.SetFace(0, [3]uint32{0, 1, 2})
	m.SetFace(1, [3]uint32{0, 2, 3})
	return m
}

// cubeSides lists (u, v) per side with u×v pointing outward.
var cubeSides = [6][2]mathutil.Vec3{
	{{0, 1, 0}, {0, 0, 1}},
	{{0, 0, 1}, {0, 1, 0}},
	{{0, 0, 1}, {1, 0, 0}},
	{{1, 0, 0}, {0, 0, 1}},
	{{1, 0, 0}, {0, 1, 0}},
	{{0, 1, 0}, {1, 0, 0}},
}

// Cube returns an axis-aligned cube with edge size around the origin. Each
// side has its own four vertices so normals stay flat.
func Cube(size float64) *mesh.Mesh {
	h := 0.5 * size
	m := mesh.New(0, 24, 12, 1, 0)
	corners := [4]mathutil.Vec2{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	for s, side := range cubeSides {
		u, v := side[0], side[1]
		n := u.Cross(v)
		base := 4 * s
		for k, c := range corners {
			p := n.Add(u.Scale(c[0])).Add(v.Scale(c[1])).Scale(h)
			m.SetVertex(base+k, p)
			m.SetTexCoord(0, base+k, mathutil.Vec2{0.5 * (c[0] + 1), 0.5 * (c[1] + 1)})
		}
		b := uint32(base)
		m.SetFace(2*s, [3]uint32{b, b + 1, b + 2})
		m.SetFace(2*s+1, [3]uint32{b, b + 2, b + 3})
	}
	return m
}

// FlipFaces reverses the winding of every face of m, turning its computed
// normals inward. It must be called before Commit.
func FlipFaces(m *mesh.Mesh) {
	for i := 0; i < m.FaceCount(); i++ {
		f := m.Face(i)
		m.SetFace(i, [3]uint32{f[0], f[2], f[1]})
	}
}
