package material

import (
	"math"

	"bdpt-renderer/internal/mathutil"
	"bdpt-renderer/internal/mesh"
	"bdpt-renderer/internal/sampler"
)

// AlphaMode is the glTF alpha interpretation.
type AlphaMode int

const (
	AlphaOpaque AlphaMode = iota
	AlphaMask
	AlphaBlend
)

// ParseAlphaMode maps the glTF spelling; unknown values are opaque.
func ParseAlphaMode(s string) AlphaMode {
	switch s {
	case "MASK":
		return AlphaMask
	case "BLEND":
		return AlphaBlend
	}
	return AlphaOpaque
}

// TextureRef binds a texture to a UV channel with an affine UV transform.
type TextureRef struct {
	Index     int // -1 for none
	TexCoord  int
	Transform mathutil.Mat3
}

// NoTexture is an unbound reference.
func NoTexture() TextureRef {
	return TextureRef{Index: -1, Transform: mathutil.Mat3Identity()}
}

// UVTransform builds the KHR_texture_transform matrix T * R * S.
func UVTransform(offset mathutil.Vec2, rotation float64, scale mathutil.Vec2) mathutil.Mat3 {
	c, s := math.Cos(rotation), math.Sin(rotation)
	t := mathutil.Mat3{1, 0, offset[0], 0, 1, offset[1], 0, 0, 1}
	r := mathutil.Mat3{c, s, 0, -s, c, 0, 0, 0, 1}
	return mathutil.Mat3Mul(mathutil.Mat3Mul(t, r), mathutil.Mat3Diag(scale[0], scale[1], 1))
}

// Bound reports whether the reference names a texture.
func (r TextureRef) Bound() bool { return r.Index >= 0 }

func (r TextureRef) channel() int {
	if !r.Bound() {
		return -1
	}
	return r.TexCoord
}

func (r TextureRef) uv(uv mathutil.Vec2) mathutil.Vec2 {
	t := r.Transform.MulVec3(mathutil.Vec3{uv[0], uv[1], 1})
	return mathutil.Vec2{t[0], t[1]}
}

// PBRParams are the glTF metallic-roughness material parameters.
type PBRParams struct {
	BaseColorFactor  mathutil.Vec4
	BaseColorTexture TextureRef

	MetallicFactor           float64
	RoughnessFactor          float64
	MetallicRoughnessTexture TextureRef

	NormalTexture TextureRef
	NormalScale   float64

	OcclusionTexture  TextureRef
	OcclusionStrength float64

	EmissiveFactor  mathutil.Vec3
	EmissiveTexture TextureRef

	AlphaMode   AlphaMode
	AlphaCutoff float64
	DoubleSided bool
	IOR         float64
}

// DefaultPBRParams returns the glTF defaults.
func DefaultPBRParams() PBRParams {
	return PBRParams{
		BaseColorFactor:          mathutil.Vec4{1, 1, 1, 1},
		BaseColorTexture:         NoTexture(),
		MetallicFactor:           1,
		RoughnessFactor:          1,
		MetallicRoughnessTexture: NoTexture(),
		NormalTexture:            NoTexture(),
		NormalScale:              1,
		OcclusionTexture:         NoTexture(),
		OcclusionStrength:        1,
		EmissiveTexture:          NoTexture(),
		AlphaCutoff:              0.5,
		IOR:                      1.5,
	}
}

// PBR is the glTF metallic-roughness material.
type PBR struct {
	base
	ID int
	PBRParams
}

// NewPBR returns a metallic-roughness material.
func NewPBR(id int, p PBRParams) *PBR {
	return &PBR{ID: id, PBRParams: p}
}

func (m *PBR) Kind() Kind                    { return KindPBR }
func (m *PBR) NormalTextureChannel() int     { return m.NormalTexture.channel() }
func (m *PBR) EmissivityTextureChannel() int { return m.EmissiveTexture.channel() }

func (m *PBR) lookup(r TextureRef, sp *mesh.SurfacePoint) (mathutil.Vec4, bool) {
	tex := m.texture(r.Index)
	if tex == nil {
		return mathutil.Vec4{}, false
	}
	uv, ok := sp.TexCoord(r.TexCoord)
	if !ok {
		return mathutil.Vec4{}, false
	}
	uv = r.uv(uv)
	return tex.Sample(uv[0], uv[1]), true
}

func (m *PBR) baseColor(sp *mesh.SurfacePoint) mathutil.Vec4 {
	if t, ok := m.lookup(m.BaseColorTexture, sp); ok {
		return t.Mul(m.BaseColorFactor)
	}
	return m.BaseColorFactor
}

// occlusionMetalRoughness returns (occlusion, metallic, roughness).
func (m *PBR) occlusionMetalRoughness(sp *mesh.SurfacePoint) mathutil.Vec3 {
	omr := mathutil.Vec3{1, m.MetallicFactor, m.RoughnessFactor}
	if t, ok := m.lookup(m.MetallicRoughnessTexture, sp); ok {
		omr = omr.Mul(mathutil.Vec3{t[0], t[2], t[1]})
	}
	if m.OcclusionTexture.Index != m.MetallicRoughnessTexture.Index {
		if t, ok := m.lookup(m.OcclusionTexture, sp); ok {
			omr[0] = t[0]
		}
	}
	return omr
}

// bsdf resolves the textured parameters at sp.
func (m *PBR) bsdf(sp *mesh.SurfacePoint) bsdfData {
	c := m.baseColor(sp)
	omr := m.occlusionMetalRoughness(sp)
	occluded := c.XYZ().Lerp(c.XYZ().Scale(omr[0]), m.OcclusionStrength)
	c = occluded.ToVec4(c[3])
	if m.AlphaMode != AlphaBlend {
		c[3] = 1
	}
	rough := mathutil.Clamp(omr[2], 0.00001, 0.99999)
	return bsdfData{
		N:            sp.Normal,
		T:            sp.Tangent,
		color:        c,
		transmissive: m.DoubleSided || c[3] < 1,
		metalness:    omr[1],
		roughness:    rough,
		alpha:        rough * rough,
	}
}

func (m *PBR) ModifyFrame(sp *mesh.SurfacePoint) {
	n := mathutil.Vec3{0, 0, 1}
	if t, ok := m.lookup(m.NormalTexture, sp); ok {
		tn := t.XYZ()
		if tn[2] <= 0.5 {
			tn[2] = 0.5 + mathutil.Epsilon
		}
		tn = tn.Scale(2).Sub(mathutil.Splat3(1))
		tn[0] *= m.NormalScale
		tn[1] *= m.NormalScale
		n = tn.Normalize()
	}
	sp.ApplyTextureNormal(n)
}

func (m *PBR) DefineNextDirection(_ mathutil.Vec3, sp *mesh.SurfacePoint, s *sampler.Sampler) mathutil.Vec3 {
	return sp.Basis().MulVec3(s.UniformHemisphere()).Normalize()
}

func (m *PBR) Brdf(in mathutil.Vec3, sp *mesh.SurfacePoint, out mathutil.Vec3) mathutil.Vec3 {
	d := m.bsdf(sp)
	if m.painter != nil {
		return m.painter.Paint(Sample{Kind: KindPBR, MaterialID: m.ID, Metallic: d.metalness, Roughness: d.roughness, In: in, Point: sp})
	}
	if in.Dot(d.N) > 0 && d.transmissive {
		d.N = d.N.Neg()
	}
	d.I, d.O = in, out
	return evaluateDirect(&d)
}

// RayAndBrdf samples the model's own lobes. Both path directions use the
// same sampling, so inverse is not consulted.
func (m *PBR) RayAndBrdf(in mathutil.Vec3, sp *mesh.SurfacePoint, s *sampler.Sampler, _ bool) (out, brdf, emitted mathutil.Vec3) {
	if m.painter != nil {
		return paintedRayAndBrdf(m, in, sp)
	}
	d := m.bsdf(sp)
	d.I = in
	d.eta = 1 / m.IOR
	if m.DoubleSided || m.IOR <= 0 {
		d.eta = 1
	}
	brdf = sampleIndirect(&d, s)
	out = d.O
	if m.EmissiveTexture.Bound() {
		if t, ok := m.lookup(m.EmissiveTexture, sp); ok {
			emitted = t.XYZ().Mul(m.EmissiveFactor)
		}
	}
	return out, brdf, emitted
}

// IsMasked applies the MASK alpha cutoff to the base color alpha.
func (m *PBR) IsMasked(sp *mesh.SurfacePoint) bool {
	if m.AlphaMode != AlphaMask {
		return false
	}
	a := m.BaseColorFactor[3]
	if a < m.AlphaCutoff {
		return true
	}
	if t, ok := m.lookup(m.BaseColorTexture, sp); ok {
		return a*t[3] < m.AlphaCutoff
	}
	return false
}
