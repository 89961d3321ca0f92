// Package light holds the emitters used to start light sub-paths.
package light

import (
	"math"

	"bdpt-renderer/internal/mathutil"
	"bdpt-renderer/internal/sampler"
)

// Light emits radiance into the scene.
type Light interface {
	// Power is the luminance of the emitted intensity, used as the
	// importance-sampling weight.
	Power() float64
	// AttenuationDistance is the light's range; MaxFloat32 means unbounded.
	AttenuationDistance() float64
	// RandomRay samples an emission origin, direction and the direction's pdf.
	RandomRay(s *sampler.Sampler) (org, dir mathutil.Vec3, pdf float64)
	// RadianceAlongRay is the emitted radiance leaving the light along dir.
	RadianceAlongRay(org, dir mathutil.Vec3) mathutil.Vec3
}

// Point is an isotropic point emitter.
type Point struct {
	Position  mathutil.Vec3
	Intensity mathutil.Vec3
	// Range limits the light's reach; zero means unbounded.
	Range float64
}

// NewPoint returns a point light.
func NewPoint(pos, intensity mathutil.Vec3, rng float64) *Point {
	return &Point{Position: pos, Intensity: intensity, Range: rng}
}

func (p *Point) Power() float64 { return mathutil.Luminance(p.Intensity) }

func (p *Point) AttenuationDistance() float64 {
	if p.Range <= 0 {
		return mathutil.MaxFloat32
	}
	return p.Range
}

func (p *Point) RandomRay(s *sampler.Sampler) (org, dir mathutil.Vec3, pdf float64) {
	return p.Position, s.UniformSphere(), 1 / (4 * math.Pi)
}

func (p *Point) RadianceAlongRay(_, _ mathutil.Vec3) mathutil.Vec3 {
	return p.Intensity
}

// Attenuation mode selects the distance falloff.
type Attenuation int

const (
	AttenuationNone Attenuation = iota
	AttenuationLinear
	AttenuationQuadratic
)

// Attenuate returns the falloff factor at distance d for a light whose range
// is attD. With an unbounded range the falloff is an inverse power of d, d
// being clamped to minDist; with a finite range it fades to zero at attD.
func Attenuate(d, attD float64, mode Attenuation, minDist float64) float64 {
	if attD >= mathutil.MaxFloat32 {
		d = math.Max(d, minDist)
		switch mode {
		case AttenuationLinear:
			return 1 / d
		case AttenuationQuadratic:
			return 1 / (d * d)
		}
		return 1
	}
	r := math.Max(1-d/attD, 0)
	switch mode {
	case AttenuationLinear:
		return r
	case AttenuationQuadratic:
		return math.Sqrt(r)
	}
	if d < attD {
		return 1
	}
	return 0
}
