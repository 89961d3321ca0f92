package mesh

import (
	"bdpt-renderer/internal/mathutil"
)

// computeNormals accumulates unit face normals into each vertex, starting
// from a tiny +z bias so isolated vertices still end up with a valid normal.
func (m *Mesh) computeNormals() {
	acc := make([]mathutil.Vec3, m.vertN)
	for i := range acc {
		acc[i] = mathutil.Vec3{0, 0, mathutil.Epsilon}
	}
	for i := 0; i < m.faceN; i++ {
		f := m.Face(i)
		p0, p1, p2 := m.Triangle(i)
		n := p1.Sub(p0).Cross(p2.Sub(p1))
		if n.Len2() > mathutil.Epsilon {
			n = n.Normalize()
		}
		for _, vi := range f {
			acc[vi] = acc[vi].Add(n)
		}
	}
	for i, n := range acc {
		put3(m.at(i, normalOffs), n.Normalize())
	}
	m.normalDef = true
}

// computeTangentsFromUV derives tangents from the UV gradient of local slot s.
func (m *Mesh) computeTangentsFromUV(s int) {
	offs := texOffs + 2*s
	tv := make([]mathutil.Vec3, m.vertN)
	bv := make([]mathutil.Vec3, m.vertN)

	for i := 0; i < m.faceN; i++ {
		f := m.Face(i)
		x0, x1, x2 := m.Triangle(i)
		u0, u1, u2 := m.at(int(f[0]), offs), m.at(int(f[1]), offs), m.at(int(f[2]), offs)

		v0, v1 := x1.Sub(x0), x2.Sub(x0)
		t0 := [2]float64{float64(u1[0] - u0[0]), float64(u1[1] - u0[1])}
		t1 := [2]float64{float64(u2[0] - u0[0]), float64(u2[1] - u0[1])}

		det := t0[0]*t1[1] - t1[0]*t0[1]
		if det < mathutil.Epsilon {
			continue
		}
		r := 1 / det
		udir := v0.Scale(r * t1[1]).Add(v1.Scale(-r * t0[1]))
		vdir := v0.Scale(-r * t1[0]).Add(v1.Scale(r * t0[0]))
		for _, vi := range f {
			tv[vi] = tv[vi].Add(udir)
			bv[vi] = bv[vi].Add(vdir)
		}
	}

	for i := 0; i < m.vertN; i++ {
		n := m.Normal(i)
		t := tv[i].Sub(n.Scale(n.Dot(tv[i])))
		if l := t.Len(); l <= mathutil.Epsilon {
			t = axisTangent(n)
		} else {
			t = t.Scale(1 / l)
		}
		w := 1.0
		if n.Cross(t).Dot(bv[i]) < 0 {
			w = -1
		}
		m.SetTangent(i, t.ToVec4(w))
	}
	m.tangentDef = true
}

func (m *Mesh) computeAxisTangents() {
	for i := 0; i < m.vertN; i++ {
		m.SetTangent(i, axisTangent(m.Normal(i)).ToVec4(1))
	}
	m.tangentDef = true
}

// axisTangent builds a tangent perpendicular to n from the first coordinate
// axis (z, y, x) that is not nearly parallel to it.
func axisTangent(n mathutil.Vec3) mathutil.Vec3 {
	var axis mathutil.Vec3
	switch {
	case n[2] < 0.95 && n[2] > -0.95:
		axis = mathutil.Vec3{0, 0, 1}
	case n[1] < 0.95 && n[1] > -0.95:
		axis = mathutil.Vec3{0, 1, 0}
	default:
		axis = mathutil.Vec3{1, 0, 0}
	}
	return axis.Cross(n).Normalize()
}
