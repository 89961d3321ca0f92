package material

import (
	"math"
	"math/cmplx"

	"bdpt-renderer/internal/mathutil"
	"bdpt-renderer/internal/mesh"
	"bdpt-renderer/internal/sampler"
)

// DefaultTemperature is used when a material does not state one (kelvin).
const DefaultTemperature = 300

// wavelengths are the sample points of the R, G and B channels (meters).
var wavelengths = [3]float64{650e-9, 510e-9, 440e-9}

// Open is a perfectly specular interface whose reflectance follows the
// Fresnel equations for a measured complex index of refraction.
type Open struct {
	base
	ID          int
	IOR         *IORTable
	Temperature float64
}

// NewOpen returns a specular material; ior may be nil, which renders black.
func NewOpen(id int, ior *IORTable, temperature float64) *Open {
	return &Open{ID: id, IOR: ior, Temperature: temperature}
}

func (m *Open) Kind() Kind                       { return KindOpen }
func (m *Open) NormalTextureChannel() int        { return -1 }
func (m *Open) EmissivityTextureChannel() int    { return -1 }
func (m *Open) IsMasked(*mesh.SurfacePoint) bool { return false }

func (m *Open) ModifyFrame(sp *mesh.SurfacePoint) {
	sp.ApplyTextureNormal(mathutil.Vec3{0, 0, 1})
}

// DefineNextDirection mirrors in around the shading normal and lifts the
// result above the face plane when the interpolated normal would send it
// below.
func (m *Open) DefineNextDirection(in mathutil.Vec3, sp *mesh.SurfacePoint, _ *sampler.Sampler) mathutil.Vec3 {
	out := mathutil.Reflect(in, sp.Normal)
	fn := sp.FlatNormal()
	if d := out.Dot(fn); d < 0.1 {
		out = out.AddScaled(fn, 0.1-d).Normalize()
	}
	return out
}

func (m *Open) reflectance(cos float64) mathutil.Vec3 {
	var r mathutil.Vec3
	if m.IOR == nil || cos == 0 {
		return r
	}
	for c, wl := range wavelengths {
		n, k, err := m.IOR.At(m.Temperature, wl)
		if err != nil {
			continue
		}
		rp, rs := fresnel(complex(n, k), cos)
		r[c] = 0.5 * (rp + rs) / math.Abs(cos)
	}
	return r
}

// Brdf is non-zero only along the mirror direction.
func (m *Open) Brdf(in mathutil.Vec3, sp *mesh.SurfacePoint, out mathutil.Vec3) mathutil.Vec3 {
	if m.painter != nil {
		return m.painter.Paint(Sample{Kind: KindOpen, MaterialID: m.ID, Metallic: 1, In: in, Point: sp})
	}
	if m.IOR == nil {
		return mathutil.Vec3{}
	}
	fCos := -in.Dot(sp.Normal)
	if math.Abs(out.Dot(sp.Normal)-fCos) > 1e-6 {
		return mathutil.Vec3{}
	}
	return m.reflectance(fCos)
}

func (m *Open) RayAndBrdf(in mathutil.Vec3, sp *mesh.SurfacePoint, s *sampler.Sampler, _ bool) (out, brdf, emitted mathutil.Vec3) {
	if m.painter != nil {
		return paintedRayAndBrdf(m, in, sp)
	}
	out = m.DefineNextDirection(in, sp, s)
	return out, m.reflectance(out.Dot(sp.Normal)), emitted
}

// fresnel returns the parallel and perpendicular power reflectances of an
// interface with relative complex index n at incidence cosine cos.
func fresnel(n complex128, cos float64) (rp, rs float64) {
	cos = math.Abs(cos)
	n2 := n * n
	sin2 := complex(1-cos*cos, 0)
	root := cmplx.Sqrt(n2 - sin2)
	c := complex(cos, 0)
	p := (n2*c - root) / (n2*c + root)
	s := (c - root) / (c + root)
	return sqAbs(p), sqAbs(s)
}

func sqAbs(z complex128) float64 {
	return real(z)*real(z) + imag(z)*imag(z)
}
