package accel

import (
	"math"

	"bdpt-renderer/internal/mathutil"
)

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max mathutil.Vec3
}

// EmptyAABB returns a box that any Extend call replaces.
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: mathutil.Vec3{inf, inf, inf},
		Max: mathutil.Vec3{-inf, -inf, -inf},
	}
}

// Extend grows the box to contain p.
func (b AABB) Extend(p mathutil.Vec3) AABB {
	return AABB{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Union returns the box enclosing both.
func (b AABB) Union(o AABB) AABB {
	return AABB{Min: b.Min.Min(o.Min), Max: b.Max.Max(o.Max)}
}

func (b AABB) Center() mathutil.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Empty reports whether the box contains nothing.
func (b AABB) Empty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// LongestAxis returns 0, 1 or 2.
func (b AABB) LongestAxis() int {
	d := b.Max.Sub(b.Min)
	switch {
	case d[0] >= d[1] && d[0] >= d[2]:
		return 0
	case d[1] >= d[2]:
		return 1
	default:
		return 2
	}
}

// Transform returns the world box enclosing the 8 transformed corners.
func (b AABB) Transform(m mathutil.Mat4) AABB {
	out := EmptyAABB()
	for i := 0; i < 8; i++ {
		c := mathutil.Vec3{b.Min[0], b.Min[1], b.Min[2]}
		if i&1 != 0 {
			c[0] = b.Max[0]
		}
		if i&2 != 0 {
			c[1] = b.Max[1]
		}
		if i&4 != 0 {
			c[2] = b.Max[2]
		}
		out = out.Extend(m.MulPoint(c))
	}
	return out
}

// hit is the slab test against [tmin, tmax] using a precomputed inverse direction.
func (b AABB) hit(org, invDir mathutil.Vec3, tmin, tmax float64) bool {
	for a := 0; a < 3; a++ {
		t0 := (b.Min[a] - org[a]) * invDir[a]
		t1 := (b.Max[a] - org[a]) * invDir[a]
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		// NaN from 0*inf leaves the interval unchanged.
		if t0 > tmin {
			tmin = t0
		}
		if t1 < tmax {
			tmax = t1
		}
		if tmin > tmax {
			return false
		}
	}
	return true
}
