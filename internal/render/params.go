// Package render implements the bidirectional path-tracing integrator and
// the row-parallel scheduler driving it.
package render

import (
	"fmt"
	"math"

	"bdpt-renderer/internal/light"
	"bdpt-renderer/internal/sampler"
)

// Params is the immutable record of integrator settings.
type Params struct {
	SamplesPerPixel int
	CameraBounces   int
	LightBounces    int
	// MaxPathLength bounds i+j for a connection of light vertex i and
	// camera vertex j, and the camera length that may see the background.
	MaxPathLength int
	Workers       int

	Attenuation      light.Attenuation
	LightScale       float64
	LightMinDistance float64
	// Cut is the intensity below which light paths and connections are dropped.
	Cut float64

	// FalseColor makes camera paths report the painted color of the first hit.
	FalseColor bool
	Seed       uint64
}

// DefaultWorkers is the thread count used when none is configured.
const DefaultWorkers = 16

// DefaultParams returns the documented defaults.
func DefaultParams() Params {
	return Params{
		SamplesPerPixel:  20,
		CameraBounces:    10,
		LightBounces:     10,
		MaxPathLength:    8,
		Workers:          DefaultWorkers,
		Attenuation:      light.AttenuationLinear,
		LightScale:       100,
		LightMinDistance: 0.01,
		Cut:              0.002,
		Seed:             sampler.DefaultSeed,
	}
}

// Validate rejects settings the integrator cannot run with.
func (p Params) Validate() error {
	switch {
	case p.SamplesPerPixel < 1:
		return fmt.Errorf("render: samples per pixel %d < 1", p.SamplesPerPixel)
	case p.CameraBounces < 0 || p.LightBounces < 0:
		return fmt.Errorf("render: negative bounce count (%d, %d)", p.CameraBounces, p.LightBounces)
	case p.MaxPathLength < 0:
		return fmt.Errorf("render: negative max path length %d", p.MaxPathLength)
	case p.Attenuation < light.AttenuationNone || p.Attenuation > light.AttenuationQuadratic:
		return fmt.Errorf("render: attenuation mode %d not in 0..2", p.Attenuation)
	case math.IsNaN(p.LightScale) || math.IsNaN(p.Cut):
		return fmt.Errorf("render: NaN parameter")
	}
	return nil
}

// ForFalseColor restricts p to what false-color output needs: one bounce,
// one sample.
func (p Params) ForFalseColor() Params {
	p.FalseColor = true
	p.CameraBounces = 1
	p.SamplesPerPixel = 1
	return p
}
