// Package sampler provides the per-thread random stream used by the
// integrator and the materials.
package sampler

import (
	"math"
	"math/rand/v2"

	"bdpt-renderer/internal/mathutil"
)

// DefaultSeed is the base seed of every render; stream k uses DefaultSeed ^ k.
const DefaultSeed uint64 = 3254638

const streamMix = 0x9e3779b97f4a7c15

// Sampler is a deterministic pseudorandom stream. It is not safe for
// concurrent use: each render thread owns one.
type Sampler struct {
	pcg *rand.PCG
	rng *rand.Rand
}

// New returns a sampler seeded with seed.
func New(seed uint64) *Sampler {
	pcg := rand.NewPCG(seed, seed^streamMix)
	return &Sampler{pcg: pcg, rng: rand.New(pcg)}
}

// Seed restarts the stream as if created by New(seed).
func (s *Sampler) Seed(seed uint64) {
	s.pcg.Seed(seed, seed^streamMix)
}

// ForThread returns the stream for render thread tid of a render seeded with base.
func ForThread(base uint64, tid int) *Sampler {
	return New(base ^ uint64(tid))
}

// Rand returns a uniform variate in [0, 1).
func (s *Sampler) Rand() float64 {
	return s.rng.Float64()
}

// Range returns a uniform variate in [min, max).
func (s *Sampler) Range(min, max float64) float64 {
	return mathutil.Lerp(min, max, s.Rand())
}

// UniformHemisphere samples the +z hemisphere with constant density.
func (s *Sampler) UniformHemisphere() mathutil.Vec3 {
	phi := s.Range(0, 2*math.Pi)
	cth := s.Rand()
	sth := math.Sqrt(math.Max(1-cth*cth, 0))
	return mathutil.Vec3{sth * math.Cos(phi), sth * math.Sin(phi), cth}
}

// UniformSphere samples the unit sphere by rejection from the enclosing cube.
func (s *Sampler) UniformSphere() mathutil.Vec3 {
	for {
		v := mathutil.Vec3{s.Range(-1, 1), s.Range(-1, 1), s.Range(-1, 1)}
		l2 := v.Len2()
		if l2 <= 1 && l2 >= mathutil.Epsilon {
			return v.Scale(1 / math.Sqrt(l2))
		}
	}
}

// GGXHemisphere samples a microfacet normal around +z from the GGX
// distribution with squared roughness alpha2.
func (s *Sampler) GGXHemisphere(alpha2 float64) mathutil.Vec3 {
	phi := s.Range(0, 2*math.Pi)
	r := s.Rand()
	cth := math.Sqrt((1 - r) / (1 - (1-alpha2)*r))
	sth := math.Sqrt(math.Max(1-cth*cth, 0))
	return mathutil.Vec3{sth * math.Cos(phi), sth * math.Sin(phi), cth}
}

// CosineHemisphere samples the +z hemisphere proportionally to cos(theta).
func (s *Sampler) CosineHemisphere() mathutil.Vec3 {
	phi := s.Range(0, 2*math.Pi)
	r := s.Rand()
	sth := math.Sqrt(r)
	return mathutil.Vec3{sth * math.Cos(phi), sth * math.Sin(phi), math.Sqrt(1 - r)}
}
