// Package background supplies the radiance seen by rays that leave the scene.
package background

import (
	"math"

	"bdpt-renderer/internal/mathutil"
	"bdpt-renderer/internal/texture"
)

// DefaultRadiance is the grey level of the constant background.
const DefaultRadiance = 100

// Background returns the radiance arriving along an escaping ray.
type Background interface {
	Radiance(dir mathutil.Vec3) mathutil.Vec3
}

// Constant is a uniform background.
type Constant struct {
	Color mathutil.Vec3
}

// NewConstant returns a uniform grey background of the given level.
func NewConstant(level float64) *Constant {
	return &Constant{Color: mathutil.Splat3(level)}
}

func (c *Constant) Radiance(mathutil.Vec3) mathutil.Vec3 { return c.Color }

// yUp maps the renderer's Y-up world onto the Z-up equirectangular frame.
var yUp = mathutil.Mat3{
	1, 0, 0,
	0, 0, 1,
	0, -1, 0,
}

// HDR is an equirectangular environment map.
type HDR struct {
	Width, Height int
	// Pix holds RGB triples, row 0 is the top of the panorama.
	Pix   []float32
	Scale float64
}

// Radiance looks up dir with bilinear filtering, wrapping at the seam.
func (h *HDR) Radiance(dir mathutil.Vec3) mathutil.Vec3 {
	r := yUp.VecMul(dir)
	xy := mathutil.Vec3{r[0], r[1], 0}.Normalize()
	xang := math.Acos(mathutil.Clamp(xy[0], -1, 1))
	if xy[1] < 0 {
		xang = 2*math.Pi - xang
	}
	yang := math.Asin(mathutil.Clamp(r[2], -1, 1)) + 0.5*math.Pi
	u := xang / (2 * math.Pi)
	v := 1 - yang/math.Pi

	id, w := texture.WrapCoords(u, v, h.Width, h.Height)
	var out mathutil.Vec3
	for k := 0; k < 4; k++ {
		p := h.Pix[id[k]*3 : id[k]*3+3]
		out[0] += float64(p[0]) * w[k]
		out[1] += float64(p[1]) * w[k]
		out[2] += float64(p[2]) * w[k]
	}
	return out.Scale(h.Scale)
}

// Average returns the mean unscaled radiance of the map.
func (h *HDR) Average() mathutil.Vec3 {
	var sum mathutil.Vec3
	n := h.Width * h.Height
	if n == 0 {
		return sum
	}
	for i := 0; i < n; i++ {
		sum[0] += float64(h.Pix[i*3])
		sum[1] += float64(h.Pix[i*3+1])
		sum[2] += float64(h.Pix[i*3+2])
	}
	return sum.Scale(1 / float64(n))
}
