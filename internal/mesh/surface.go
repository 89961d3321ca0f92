package mesh

import "bdpt-renderer/internal/mathutil"

// SurfacePoint is the shading frame at one ray hit. It lives for a single
// bounce and never outlives the path vertex that owns it.
type SurfacePoint struct {
	Mesh     *Mesh
	Instance *Instance
	FaceID   int // face index within Mesh
	// PrimitiveID is the scene-wide face index, set by the scene.
	PrimitiveID int

	Position mathutil.Vec3
	Normal   mathutil.Vec3
	Tangent  mathutil.Vec3
	Binormal mathutil.Vec3
	// Handedness is the sign of the tangent frame (+1 or -1).
	Handedness float64
	Bary       mathutil.Vec3

	TexNormalApplied bool
}

// ComputeSurfacePoint fills sp from its Mesh, Instance, FaceID and Bary.
// Attributes are interpolated in object space and moved to world space.
func (m *Mesh) ComputeSurfacePoint(sp *SurfacePoint) {
	sp.TexNormalApplied = false
	b := sp.Bary
	f := m.Face(sp.FaceID)

	var pp, pn, pt mathutil.Vec3
	var w float64
	for k := 0; k < 3; k++ {
		vi := int(f[k])
		pp = pp.AddScaled(m.Vertex(vi), b[k])
		pn = pn.AddScaled(m.Normal(vi), b[k])
		t := m.Tangent(vi)
		pt = pt.AddScaled(t.XYZ(), b[k])
		w += t[3] * b[k]
	}
	if w >= 0 {
		w = 1
	} else {
		w = -1
	}

	inst := sp.Instance
	sp.Position = inst.Transform.MulPoint(pp)
	// Tangents transform with M, normals with its inverse transpose; T is
	// then re-orthogonalised against N.
	n := inst.NormalMatrix.MulVec3(pn.NormalizeIfNeeded()).NormalizeIfNeeded()
	sp.Normal = n
	sp.Tangent = orthoTangent(n, inst.Transform.MulDir(pt))
	sp.Binormal = n.Cross(sp.Tangent).Scale(w)
	sp.Handedness = w
}

// orthoTangent removes the component of t along unit n. A t parallel to n
// falls back to an axis tangent.
func orthoTangent(n, t mathutil.Vec3) mathutil.Vec3 {
	t = t.Sub(n.Scale(n.Dot(t)))
	if t.Len2() < 1e-12 {
		return axisTangent(n)
	}
	return t.Normalize()
}

// PositionAt returns the world position of face at bary under tm.
func (m *Mesh) PositionAt(face int, bary mathutil.Vec3, tm mathutil.Mat4) mathutil.Vec3 {
	p0, p1, p2 := m.Triangle(face)
	return tm.MulPoint(p0.Scale(bary[0]).AddScaled(p1, bary[1]).AddScaled(p2, bary[2]))
}

// TexCoord returns the interpolated coordinates of texture channel ch.
func (sp *SurfacePoint) TexCoord(ch int) (mathutil.Vec2, bool) {
	if sp.Mesh == nil {
		return mathutil.Vec2{}, false
	}
	return sp.Mesh.TexCoord(sp.Bary, sp.FaceID, ch)
}

// ApplyTextureNormal perturbs the frame with a tangent-space normal. It is
// applied at most once per surface point.
func (sp *SurfacePoint) ApplyTextureNormal(texN mathutil.Vec3) {
	if sp.TexNormalApplied {
		return
	}
	n := sp.Tangent.Scale(texN[0]).
		AddScaled(sp.Binormal, texN[1]).
		AddScaled(sp.Normal, texN[2]).
		NormalizeIfNeeded()
	sp.Normal = n
	sp.Tangent = orthoTangent(n, sp.Tangent)
	sp.Binormal = n.Cross(sp.Tangent).Scale(sp.Handedness)
	sp.TexNormalApplied = true
}

// Basis returns the local-to-world matrix whose columns are (T, B, N).
func (sp *SurfacePoint) Basis() mathutil.Mat3 {
	return mathutil.Mat3FromColumns(sp.Tangent, sp.Binormal, sp.Normal)
}

// FlatNormal returns the world-space geometric normal of the hit face.
func (sp *SurfacePoint) FlatNormal() mathutil.Vec3 {
	p0, p1, p2 := sp.Mesh.Triangle(sp.FaceID)
	n := p1.Sub(p0).Cross(p2.Sub(p1))
	return sp.Instance.NormalMatrix.MulVec3(n).Normalize()
}
