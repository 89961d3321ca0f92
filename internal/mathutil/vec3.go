package mathutil

import "math"

// Vec3 is a 3-component vector (value type, stack-allocated).
// It carries positions, directions and RGB radiance alike.
type Vec3 [3]float64

// Splat3 returns a vector with all components set to s.
func Splat3(s float64) Vec3 {
	return Vec3{s, s, s}
}

func (a Vec3) Add(b Vec3) Vec3 {
	return Vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func (a Vec3) Sub(b Vec3) Vec3 {
	return Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

// Mul is the component-wise product.
func (a Vec3) Mul(b Vec3) Vec3 {
	return Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

func (v Vec3) Neg() Vec3 {
	return Vec3{-v[0], -v[1], -v[2]}
}

// AddScaled returns a + b*s.
func (a Vec3) AddScaled(b Vec3, s float64) Vec3 {
	return Vec3{a[0] + b[0]*s, a[1] + b[1]*s, a[2] + b[2]*s}
}

func (a Vec3) Dot(b Vec3) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func (v Vec3) Len() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func (v Vec3) Len2() float64 {
	return v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
}

// Dist returns |a - b|.
func (a Vec3) Dist(b Vec3) float64 {
	return a.Sub(b).Len()
}

// Normalize returns the unit vector along v. A zero-length vector yields
// the canonical axis (1, 0, 0) so callers never see NaN.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l < Epsilon {
		return Vec3{1, 0, 0}
	}
	return Vec3{v[0] / l, v[1] / l, v[2] / l}
}

// NormalizeIfNeeded leaves vectors that are already unit length (within
// 10 machine epsilons) untouched.
func (v Vec3) NormalizeIfNeeded() Vec3 {
	if math.Abs(v.Len2()-1) <= 10*Epsilon {
		return v
	}
	return v.Normalize()
}

// MaxAbs returns the largest absolute component of v, but never less than floor.
func (v Vec3) MaxAbs(floor float64) float64 {
	m := floor
	for _, c := range v {
		if a := math.Abs(c); a > m {
			m = a
		}
	}
	return m
}

// Min returns the component-wise minimum.
func (a Vec3) Min(b Vec3) Vec3 {
	return Vec3{math.Min(a[0], b[0]), math.Min(a[1], b[1]), math.Min(a[2], b[2])}
}

// Max returns the component-wise maximum.
func (a Vec3) Max(b Vec3) Vec3 {
	return Vec3{math.Max(a[0], b[0]), math.Max(a[1], b[1]), math.Max(a[2], b[2])}
}

// Lerp returns a + (b-a)*t component-wise.
func (a Vec3) Lerp(b Vec3, t float64) Vec3 {
	return Vec3{a[0] + (b[0]-a[0])*t, a[1] + (b[1]-a[1])*t, a[2] + (b[2]-a[2])*t}
}

// Clamp limits every component to [lo, hi].
func (v Vec3) Clamp(lo, hi float64) Vec3 {
	return Vec3{Clamp(v[0], lo, hi), Clamp(v[1], lo, hi), Clamp(v[2], lo, hi)}
}

// IsZero reports whether all components are exactly zero.
func (v Vec3) IsZero() bool {
	return v[0] == 0 && v[1] == 0 && v[2] == 0
}

// Reflect mirrors the incident direction i around the normal n.
func Reflect(i, n Vec3) Vec3 {
	return i.AddScaled(n, -2*i.Dot(n))
}

// Refract bends i through a surface with normal n and relative index eta.
// On total internal reflection it returns (-i, false).
func Refract(i, n Vec3, eta float64) (Vec3, bool) {
	ni := n.Dot(i)
	k := 1 - eta*eta*(1-ni*ni)
	if k < 0 {
		return i.Neg(), false
	}
	return i.Scale(eta).AddScaled(n, -(eta*ni + math.Sqrt(k))), true
}
