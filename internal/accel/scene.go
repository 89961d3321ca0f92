// Package accel is the ray-intersection engine: one bottom-level BVH per
// mesh shared by all of its instances, and a top-level BVH over instances.
package accel

import (
	"errors"
	"math"

	"bdpt-renderer/internal/mathutil"
)

// ErrNoGeometry is returned when no valid instance references any triangles.
var ErrNoGeometry = errors.New("accel: no geometry to build")

// Geometry is a triangle source.
type Geometry interface {
	FaceCount() int
	Triangle(i int) (p0, p1, p2 mathutil.Vec3)
}

// InstanceRef places geometry GeometryID in the world with Transform.
type InstanceRef struct {
	ID         int
	GeometryID int
	Transform  mathutil.Mat4
}

// Ray is a query segment: points Org + t*Dir with t in [TNear, TFar].
type Ray struct {
	Org, Dir    mathutil.Vec3
	TNear, TFar float64
}

// Hit describes the closest intersection. U and V are the barycentric
// weights of the second and third triangle corners.
type Hit struct {
	OK          bool
	InstanceID  int
	GeometryID  int
	PrimitiveID int
	U, V, T     float64
}

type triangle struct {
	p0, e1, e2 mathutil.Vec3
}

type blas struct {
	tris []triangle
	tree *bvh
}

type instance struct {
	ref        InstanceRef
	inverse    mathutil.Mat4
	invLinear  mathutil.Mat3
	geom       *blas
	worldBound AABB
}

// Scene is an immutable, concurrency-safe acceleration structure.
type Scene struct {
	blases    []*blas
	instances []instance
	tlas      *bvh
	bounds    AABB
}

// Build constructs the hierarchy. Instances whose geometry is nil, out of
// range or empty are skipped.
func Build(geoms []Geometry, refs []InstanceRef) (*Scene, error) {
	s := &Scene{blases: make([]*blas, len(geoms)), bounds: EmptyAABB()}

	for _, ref := range refs {
		if ref.GeometryID < 0 || ref.GeometryID >= len(geoms) || geoms[ref.GeometryID] == nil {
			continue
		}
		b := s.blases[ref.GeometryID]
		if b == nil {
			b = buildBLAS(geoms[ref.GeometryID])
			s.blases[ref.GeometryID] = b
		}
		if len(b.tris) == 0 {
			continue
		}
		inv := ref.Transform.Inverse()
		wb := b.tree.nodes[0].bounds.Transform(ref.Transform)
		s.instances = append(s.instances, instance{
			ref:        ref,
			inverse:    inv,
			invLinear:  inv.Upper3(),
			geom:       b,
			worldBound: wb,
		})
		s.bounds = s.bounds.Union(wb)
	}
	if len(s.instances) == 0 {
		return nil, ErrNoGeometry
	}

	bounds := make([]AABB, len(s.instances))
	for i := range s.instances {
		bounds[i] = s.instances[i].worldBound
	}
	s.tlas = buildBVH(bounds)
	return s, nil
}

func buildBLAS(g Geometry) *blas {
	n := g.FaceCount()
	b := &blas{tris: make([]triangle, n)}
	bounds := make([]AABB, n)
	for i := 0; i < n; i++ {
		p0, p1, p2 := g.Triangle(i)
		b.tris[i] = triangle{p0: p0, e1: p1.Sub(p0), e2: p2.Sub(p0)}
		bounds[i] = EmptyAABB().Extend(p0).Extend(p1).Extend(p2)
	}
	b.tree = buildBVH(bounds)
	return b
}

// Bounds returns the world-space box of all instances.
func (s *Scene) Bounds() AABB {
	return s.bounds
}

// InstanceCount is the number of instances in the top-level structure.
func (s *Scene) InstanceCount() int {
	return len(s.instances)
}

// Intersect returns the closest hit along r within [TNear, TFar].
func (s *Scene) Intersect(r Ray) Hit {
	var hit Hit
	s.tlas.traverse(r.Org, r.Dir, r.TNear, r.TFar, func(p int, tmax float64) (float64, bool) {
		inst := &s.instances[p]
		org := inst.inverse.MulPoint(r.Org)
		dir := inst.invLinear.MulVec3(r.Dir)
		found := false
		inst.geom.tree.traverse(org, dir, r.TNear, tmax, func(tri int, tmax float64) (float64, bool) {
			t, u, v, ok := inst.geom.tris[tri].intersect(org, dir, r.TNear, tmax)
			if !ok {
				return 0, false
			}
			hit = Hit{
				OK:          true,
				InstanceID:  inst.ref.ID,
				GeometryID:  inst.ref.GeometryID,
				PrimitiveID: tri,
				U:           u,
				V:           v,
				T:           t,
			}
			found = true
			return t, true
		})
		if found {
			return hit.T, true
		}
		return 0, false
	})
	return hit
}

// intersect is the Möller–Trumbore test restricted to [tmin, tmax].
func (tr *triangle) intersect(org, dir mathutil.Vec3, tmin, tmax float64) (t, u, v float64, ok bool) {
	pv := dir.Cross(tr.e2)
	det := tr.e1.Dot(pv)
	if math.Abs(det) < 1e-30 {
		return 0, 0, 0, false
	}
	inv := 1 / det
	tv := org.Sub(tr.p0)
	u = tv.Dot(pv) * inv
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}
	qv := tv.Cross(tr.e1)
	v = dir.Dot(qv) * inv
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}
	t = tr.e2.Dot(qv) * inv
	if t < tmin || t > tmax {
		return 0, 0, 0, false
	}
	return t, u, v, true
}
