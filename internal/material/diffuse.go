package material

import (
	"bdpt-renderer/internal/mathutil"
	"bdpt-renderer/internal/mesh"
	"bdpt-renderer/internal/sampler"
)

// Diffuse reflects its albedo uniformly over the hemisphere. The albedo is
// returned unscaled: the renderer treats it as already divided by the
// sampling density.
type Diffuse struct {
	base
	ID           int
	Color        mathutil.Vec4
	ColorMap     int // texture index, -1 for none
	ColorChannel int
}

// NewDiffuse returns a diffuse material of the given color.
func NewDiffuse(id int, color mathutil.Vec4) *Diffuse {
	return &Diffuse{ID: id, Color: color, ColorMap: -1}
}

// NewMissing returns the placeholder used for faces whose material id
// does not resolve.
func NewMissing(id int) *Diffuse {
	return NewDiffuse(id, MissingColor.ToVec4(1))
}

func (d *Diffuse) Kind() Kind                    { return KindDiffuse }
func (d *Diffuse) NormalTextureChannel() int     { return -1 }
func (d *Diffuse) EmissivityTextureChannel() int { return -1 }
func (d *Diffuse) IsMasked(*mesh.SurfacePoint) bool {
	return false
}

func (d *Diffuse) ModifyFrame(sp *mesh.SurfacePoint) {
	sp.ApplyTextureNormal(mathutil.Vec3{0, 0, 1})
}

func (d *Diffuse) DefineNextDirection(_ mathutil.Vec3, sp *mesh.SurfacePoint, s *sampler.Sampler) mathutil.Vec3 {
	return sp.Basis().MulVec3(s.UniformHemisphere())
}

func (d *Diffuse) albedo(sp *mesh.SurfacePoint) mathutil.Vec3 {
	c := d.Color
	if tex := d.texture(d.ColorMap); tex != nil {
		if uv, ok := sp.TexCoord(d.ColorChannel); ok {
			c = c.Mul(tex.Sample(uv[0], uv[1]))
		}
	}
	return c.XYZ()
}

func (d *Diffuse) Brdf(in mathutil.Vec3, sp *mesh.SurfacePoint, _ mathutil.Vec3) mathutil.Vec3 {
	if d.painter != nil {
		return d.painter.Paint(Sample{Kind: KindDiffuse, MaterialID: d.ID, Roughness: 1, In: in, Point: sp})
	}
	return d.albedo(sp)
}

func (d *Diffuse) RayAndBrdf(in mathutil.Vec3, sp *mesh.SurfacePoint, s *sampler.Sampler, inverse bool) (out, brdf, emitted mathutil.Vec3) {
	if d.painter != nil {
		return paintedRayAndBrdf(d, in, sp)
	}
	return sampledRayAndBrdf(d, in, sp, s, inverse, nil)
}
