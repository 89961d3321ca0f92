package mathutil

import "math"

// Epsilon is the single-precision machine epsilon. Geometry buffers are
// float32, so every self-intersection margin is expressed in this unit.
const Epsilon = 1.1920929e-07

// MaxFloat32 marks an unbounded distance (ray tfar, infinite light range).
const MaxFloat32 = math.MaxFloat32

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Lerp interpolates between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Intensity is the perceptual weight used for radiance cutoffs.
func Intensity(c Vec3) float64 {
	return 0.299*c[0] + 0.587*c[1] + 0.114*c[2]
}

// Luminance is the Rec. 709 relative luminance used for light power and tone mapping.
func Luminance(c Vec3) float64 {
	return 0.2126*c[0] + 0.7152*c[1] + 0.0722*c[2]
}
