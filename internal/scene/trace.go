package scene

import (
	"math"

	"bdpt-renderer/internal/accel"
	"bdpt-renderer/internal/mathutil"
	"bdpt-renderer/internal/mesh"
)

const (
	// maxMaskedSkips bounds the re-queries through alpha-masked surfaces.
	maxMaskedSkips = 10
	// rayShift scales the origin offset of bounce rays.
	rayShift = 3
	// connectMargin scales the arrival tolerance of connection rays.
	connectMargin = 10
)

// Trace shifts org along dir away from the surface it lies on and returns
// the first non-masked hit in sp.
func (s *Scene) Trace(org, dir mathutil.Vec3, sp *mesh.SurfacePoint) bool {
	shift := rayShift * mathutil.Epsilon * org.MaxAbs(1)
	r := accel.Ray{
		Org:   org.AddScaled(dir, shift),
		Dir:   dir,
		TNear: 0,
		TFar:  mathutil.MaxFloat32,
	}
	return s.intersect(r, sp)
}

// intersect finds the first hit on a surface that is not alpha masked.
// Masked hits are stepped over by advancing TNear.
func (s *Scene) intersect(r accel.Ray, sp *mesh.SurfacePoint) bool {
	if s.tracer == nil {
		return false
	}
	tFar := r.TFar
	for i := 0; i < maxMaskedSkips; i++ {
		h := s.tracer.Intersect(r)
		if !h.OK {
			return false
		}
		m := s.meshes[h.GeometryID]
		sp.Mesh = m
		sp.Instance = &s.instances[h.InstanceID]
		sp.FaceID = h.PrimitiveID
		sp.PrimitiveID = s.primOffset[h.GeometryID] + h.PrimitiveID
		sp.Bary = mathutil.Vec3{1 - h.U - h.V, h.U, h.V}
		m.ComputeSurfacePoint(sp)

		if !s.Material(m.MaterialID).IsMasked(sp) {
			return true
		}
		v := math.Max(sp.Position.MaxAbs(0), h.T)
		r.TNear = h.T + rayShift*mathutil.Epsilon*v
		r.TFar = tFar
		if r.TFar <= r.TNear {
			return false
		}
	}
	return false
}

// IsConnected reports whether the straight segment from a to b is free of
// occluders. Both ends tolerate the self-intersection margins.
func (s *Scene) IsConnected(a, b mathutil.Vec3) bool {
	d := b.Sub(a)
	l := d.Len()
	safe := 2 * rayShift * mathutil.Epsilon * a.MaxAbs(1)
	if l <= safe {
		return true
	}
	r := accel.Ray{
		Org:   a,
		Dir:   d.Scale(1 / l),
		TNear: safe,
		TFar:  l + math.Max(0.1*l, safe),
	}
	var sp mesh.SurfacePoint
	if !s.intersect(r, &sp) {
		return true
	}
	return sp.Position.Dist(b) <= connectMargin*mathutil.Epsilon*b.MaxAbs(1)
}
