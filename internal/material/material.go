// Package material implements the surface scattering models: a Lambert-like
// diffuse color, the glTF metallic-roughness model and a conductor/dielectric
// model driven by measured index-of-refraction data.
package material

import (
	"bdpt-renderer/internal/mathutil"
	"bdpt-renderer/internal/mesh"
	"bdpt-renderer/internal/sampler"
	"bdpt-renderer/internal/texture"
)

// Kind names a material model.
type Kind string

const (
	KindDiffuse Kind = "diffuse"
	KindPBR     Kind = "pbr"
	KindOpen    Kind = "open"
)

// Material evaluates scattering at a surface point. Directions follow one
// convention: "in" points toward the surface, "out" points away from it.
//
// A Material is read-only once the scene is committed and is shared by all
// render threads.
type Material interface {
	Kind() Kind
	// NormalTextureChannel returns the UV channel of the normal map, or -1.
	NormalTextureChannel() int
	// EmissivityTextureChannel returns the UV channel of the emission map, or -1.
	EmissivityTextureChannel() int

	// ModifyFrame perturbs sp's shading frame (normal mapping).
	ModifyFrame(sp *mesh.SurfacePoint)
	// DefineNextDirection samples a scattered direction.
	DefineNextDirection(in mathutil.Vec3, sp *mesh.SurfacePoint, s *sampler.Sampler) mathutil.Vec3
	// Brdf evaluates the reflectance for two fixed directions.
	Brdf(in mathutil.Vec3, sp *mesh.SurfacePoint, out mathutil.Vec3) mathutil.Vec3
	// RayAndBrdf samples a direction and returns its sampling-weighted
	// reflectance together with the emitted radiance at sp. inverse marks
	// camera paths, where in and out swap roles.
	RayAndBrdf(in mathutil.Vec3, sp *mesh.SurfacePoint, s *sampler.Sampler, inverse bool) (out, brdf, emitted mathutil.Vec3)
	// IsMasked reports whether the hit is cut out by alpha masking.
	IsMasked(sp *mesh.SurfacePoint) bool

	// SetTextures binds the scene's texture table.
	SetTextures(textures []*texture.Bitmap)
	// SetPainter switches the material to false-color output.
	SetPainter(p Painter)
}

// base carries what every model shares.
type base struct {
	textures []*texture.Bitmap
	painter  Painter
}

func (b *base) SetTextures(t []*texture.Bitmap) { b.textures = t }
func (b *base) SetPainter(p Painter)            { b.painter = p }

func (b *base) texture(id int) *texture.Bitmap {
	if id < 0 || id >= len(b.textures) {
		return nil
	}
	return b.textures[id]
}

// sampledRayAndBrdf is the generic RayAndBrdf built on DefineNextDirection
// and Brdf.
func sampledRayAndBrdf(m Material, in mathutil.Vec3, sp *mesh.SurfacePoint, s *sampler.Sampler, inverse bool, emission func(uv mathutil.Vec2) mathutil.Vec3) (out, brdf, emitted mathutil.Vec3) {
	out = m.DefineNextDirection(in, sp, s)
	if inverse {
		brdf = m.Brdf(out.Neg(), sp, in.Neg())
	} else {
		brdf = m.Brdf(in, sp, out)
	}
	if ch := m.EmissivityTextureChannel(); ch >= 0 && emission != nil {
		if uv, ok := sp.TexCoord(ch); ok {
			emitted = emission(uv)
		}
	}
	return out, brdf, emitted
}

// paintedRayAndBrdf is RayAndBrdf in false-color mode: no scattering, the
// subject color is returned as brdf.
func paintedRayAndBrdf(m Material, in mathutil.Vec3, sp *mesh.SurfacePoint) (out, brdf, emitted mathutil.Vec3) {
	return mathutil.Vec3{}, m.Brdf(in, sp, mathutil.Vec3{}), mathutil.Vec3{}
}
