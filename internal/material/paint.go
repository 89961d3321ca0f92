package material

import (
	"fmt"
	"math"

	"bdpt-renderer/internal/mathutil"
	"bdpt-renderer/internal/mesh"
)

// Subject selects the surface property shown by false-color rendering.
type Subject string

const (
	SubjectPrimitiveID Subject = "pid"
	SubjectGeometryID  Subject = "gid"
	SubjectMaterialID  Subject = "mid"
	SubjectRoughness   Subject = "rmp"
	SubjectMetallic    Subject = "mmp"
	SubjectKind        Subject = "mn"
	SubjectInverted    Subject = "in"
)

// Subjects lists every accepted subject in display order.
var Subjects = []Subject{
	SubjectPrimitiveID, SubjectGeometryID, SubjectMaterialID,
	SubjectRoughness, SubjectMetallic, SubjectKind, SubjectInverted,
}

// MissingColor marks faces whose material could not be resolved.
var MissingColor = mathutil.Vec3{1000, 0, 1000}

// Sample is what a material reports about a hit in false-color mode.
type Sample struct {
	Kind       Kind
	MaterialID int
	Metallic   float64
	Roughness  float64
	In         mathutil.Vec3
	Point      *mesh.SurfacePoint
}

// Painter maps a hit to a false color.
type Painter interface {
	Paint(s Sample) mathutil.Vec3
}

// Counts bounds the enumerated subjects.
type Counts struct {
	Primitives int
	Geometries int
	Materials  int
}

// NewPainter returns the painter for subject.
func NewPainter(subject Subject, c Counts) (Painter, error) {
	switch subject {
	case SubjectPrimitiveID:
		return enumPainter{size: c.Primitives, id: func(s Sample) int { return s.Point.PrimitiveID }}, nil
	case SubjectGeometryID:
		return enumPainter{size: c.Geometries, id: func(s Sample) int { return s.Point.Mesh.ID }}, nil
	case SubjectMaterialID:
		return materialPainter{enumPainter{size: c.Materials, id: func(s Sample) int { return s.MaterialID }}}, nil
	case SubjectRoughness, SubjectMetallic, SubjectKind, SubjectInverted:
		return painterFunc(subject), nil
	}
	return nil, fmt.Errorf("material: unknown false-color subject %q", subject)
}

type enumPainter struct {
	size int
	id   func(Sample) int
}

func (p enumPainter) Paint(s Sample) mathutil.Vec3 {
	id := p.id(s)
	if id < 0 || id >= p.size {
		return mathutil.Vec3{}
	}
	return Palette(id)
}

// materialPainter paints the placeholder material (id == size) pink.
type materialPainter struct{ enumPainter }

func (p materialPainter) Paint(s Sample) mathutil.Vec3 {
	if s.MaterialID == p.size {
		return MissingColor
	}
	return p.enumPainter.Paint(s)
}

type painterFunc Subject

func (p painterFunc) Paint(s Sample) mathutil.Vec3 {
	switch Subject(p) {
	case SubjectRoughness:
		r := mathutil.Clamp(s.Roughness, 0, 1)
		return mathutil.Vec3{1 - r, r, 0}
	case SubjectMetallic:
		m := mathutil.Clamp(s.Metallic, 0, 1)
		return mathutil.Vec3{1 - m, 1 - m, 1}
	case SubjectKind:
		switch s.Kind {
		case KindDiffuse:
			return mathutil.Vec3{1, 1, 0}
		case KindPBR:
			return mathutil.Vec3{0, 0.5, 1}
		case KindOpen:
			return mathutil.Vec3{1, 0.5, 0}
		}
		return mathutil.Vec3{}
	case SubjectInverted:
		if s.Point != nil && s.In.Dot(s.Point.FlatNormal()) > 0 {
			return mathutil.Vec3{1, 0, 0}
		}
		return mathutil.Vec3{0, 1, 0}
	}
	return mathutil.Vec3{}
}

// Palette returns a distinct saturated color for an enumerated id. Hues
// advance by the golden angle so neighbouring ids stay far apart.
func Palette(id int) mathutil.Vec3 {
	h := math.Mod(float64(id)*0.618033988749895, 1)
	v := 1.0
	if id%2 == 1 {
		v = 0.7
	}
	return hsv(h, 0.9, v)
}

func hsv(h, s, v float64) mathutil.Vec3 {
	h6 := h * 6
	i := int(h6) % 6
	f := h6 - math.Floor(h6)
	p, q, t := v*(1-s), v*(1-s*f), v*(1-s*(1-f))
	switch i {
	case 0:
		return mathutil.Vec3{v, t, p}
	case 1:
		return mathutil.Vec3{q, v, p}
	case 2:
		return mathutil.Vec3{p, v, t}
	case 3:
		return mathutil.Vec3{p, q, v}
	case 4:
		return mathutil.Vec3{t, p, v}
	}
	return mathutil.Vec3{v, p, q}
}
