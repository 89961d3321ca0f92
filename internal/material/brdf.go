package material

import (
	"math"

	"bdpt-renderer/internal/mathutil"
	"bdpt-renderer/internal/sampler"
)

// minDielectricF0 is the normal-incidence reflectance of non-metals.
const minDielectricF0 = 0.04

// ggxPDF is the GGX normal distribution D(cos) for roughness alpha.
func ggxPDF(cos, alpha float64) float64 {
	a2 := alpha * alpha
	d := mathutil.Lerp(1, a2, cos*cos)
	return a2 / (math.Pi * d * d)
}

func ggxLambda(a float64) float64 {
	return 0.5 * (math.Sqrt(1+math.Pow(a, -2)) - 1)
}

// smithG1 is the Smith masking term for one direction.
func smithG1(cos, alpha float64) float64 {
	if alpha > 0 || cos < 0.99 {
		a := cos / (alpha * math.Sqrt(1-cos*cos))
		return 1 / (1 + ggxLambda(a))
	}
	return 1
}

// smithG2 is the height-correlated shadowing-masking term.
func smithG2(shadow, mask float64) float64 {
	p := shadow * mask
	return p / (shadow + mask - p)
}

// schlick returns F0 + (1 - F0)(1 - cos)^5 per channel.
func schlick(f0 mathutil.Vec3, cos float64) mathutil.Vec3 {
	w := math.Pow(mathutil.Clamp(1-cos, 0, 1), 5)
	return mathutil.Vec3{
		mathutil.Lerp(w, 1, f0[0]),
		mathutil.Lerp(w, 1, f0[1]),
		mathutil.Lerp(w, 1, f0[2]),
	}
}

// bsdfData is the per-call state of the metallic-roughness model.
// I points toward the surface, O away from it.
type bsdfData struct {
	I, O, N, H, T mathutil.Vec3
	color         mathutil.Vec4
	transmissive  bool
	metalness     float64
	roughness     float64
	alpha         float64
	eta           float64
}

func (d *bsdfData) f0() mathutil.Vec3 {
	c := d.color.XYZ()
	return mathutil.Vec3{
		mathutil.Lerp(minDielectricF0, c[0], d.metalness),
		mathutil.Lerp(minDielectricF0, c[1], d.metalness),
		mathutil.Lerp(minDielectricF0, c[2], d.metalness),
	}
}

func (d *bsdfData) diffuseColor() mathutil.Vec3 {
	return d.color.XYZ().Scale(1 - d.metalness)
}

// evaluateDirect returns diffuse + specular BRDF for two fixed directions.
// It is zero unless both directions lie on the normal's side.
func evaluateDirect(d *bsdfData) mathutil.Vec3 {
	vDotN := -d.I.Dot(d.N)
	lDotN := d.O.Dot(d.N)
	if vDotN <= 0 || lDotN <= 0 {
		return mathutil.Vec3{}
	}
	h := d.O.Sub(d.I).Normalize()
	vDotH := math.Abs(d.I.Dot(h))
	nDotH := math.Abs(d.N.Dot(h))

	f := schlick(d.f0(), vDotH)
	cDiff := d.diffuseColor()

	D := ggxPDF(mathutil.Clamp(nDotH, 0, 1), d.alpha)
	G := smithG2(smithG1(vDotN, d.alpha), smithG1(lDotN, d.alpha))
	var out mathutil.Vec3
	for c := 0; c < 3; c++ {
		fDiff := (1 - f[c]) * cDiff[c] / math.Pi
		fSpec := mathutil.Clamp(0.25*f[c]*D*G/(vDotN*lDotN), 0, math.MaxFloat32)
		out[c] = fDiff + fSpec
	}
	return out
}

type lobe int

const (
	lobeDiffuse lobe = iota
	lobeSpecular
	lobeTransmitted
)

// evaluate weights a sampled direction by the lobe's selection
// probability ns so that the sampling density cancels.
func evaluate(d *bsdfData, l lobe, ns float64) mathutil.Vec3 {
	h := d.H
	if l != lobeTransmitted {
		h = d.O.Sub(d.I).Normalize()
	}
	vDotN := mathutil.Clamp(math.Abs(d.I.Dot(d.N)), 0.0001, 1)
	lDotN := mathutil.Clamp(math.Abs(d.O.Dot(d.N)), 0.0001, 1)
	nDotH := math.Max(math.Abs(d.N.Dot(h)), 0.0001)
	vDotH := math.Abs(d.I.Dot(h))
	lDotH := math.Abs(d.O.Dot(h))

	f := schlick(d.f0(), vDotH)
	cDiff := d.diffuseColor()
	G := smithG2(smithG1(vDotN, d.alpha), smithG1(lDotN, d.alpha))

	var out mathutil.Vec3
	for c := 0; c < 3; c++ {
		switch l {
		case lobeDiffuse:
			fDiff := (1 - f[c]) * cDiff[c] / math.Pi
			out[c] = fDiff * math.Pi / lDotN / ns
		case lobeSpecular, lobeTransmitted:
			fr := f[c]
			if l == lobeTransmitted {
				fr = 1 - f[c]
			}
			fSpec := mathutil.Clamp(0.25*fr*G/(vDotN*lDotN), 0, math.MaxFloat32)
			w := ns
			if l == lobeSpecular {
				w = 1 - ns
			}
			out[c] = fSpec * 4 * lDotH * vDotN / nDotH / lDotN / w
		}
	}
	return out
}

// sampleIndirect picks a lobe, samples d.O and returns the weighted BSDF.
// A zero result means the sample was absorbed.
func sampleIndirect(d *bsdfData, s *sampler.Sampler) mathutil.Vec3 {
	vDotN := -d.I.Dot(d.N)
	bx, by := d.T, d.N.Cross(d.T)
	if vDotN < 0 {
		if !d.transmissive {
			return mathutil.Vec3{}
		}
		bx, by = by, bx
		d.N = d.N.Neg()
	}
	toWorld := func(v mathutil.Vec3) mathutil.Vec3 {
		return bx.Scale(v[0]).AddScaled(by, v[1]).AddScaled(d.N, v[2]).Normalize()
	}

	ns := 0.8*math.Abs(vDotN) + 0.1
	r := s.Rand()
	switch {
	case r < ns*(1-d.color[3]):
		if vDotN < 0 {
			d.eta = 1 / d.eta
		}
		d.H = toWorld(s.GGXHemisphere(d.alpha * d.alpha))
		o, ok := mathutil.Refract(d.I, d.H, d.eta)
		if !ok || d.N.Dot(o) >= 0 {
			return mathutil.Vec3{}
		}
		d.O = o.Normalize()
		return evaluate(d, lobeTransmitted, ns)
	case r < ns:
		d.O = toWorld(s.CosineHemisphere())
		return evaluate(d, lobeDiffuse, ns)
	default:
		d.H = toWorld(s.GGXHemisphere(d.alpha * d.alpha))
		o := mathutil.Reflect(d.I, d.H)
		if d.N.Dot(o) <= 0 {
			return mathutil.Vec3{}
		}
		d.O = o.Normalize()
		return evaluate(d, lobeSpecular, ns)
	}
}
