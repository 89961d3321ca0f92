package sensor

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"bdpt-renderer/internal/mathutil"
	"bdpt-renderer/internal/sampler"
)

// DefaultYFoV is the vertical field of view in degrees.
const DefaultYFoV = 60

// Pinhole is an ideal pinhole camera with an RGBA32F accumulation buffer.
// During a render the alpha channel counts samples.
type Pinhole struct {
	view          ViewPoint
	width, height int
	halfW, halfH  float64
	focus         float64
	image         []mathutil.Vec4
}

// NewPinhole returns a w×h camera with the default pose and field of view.
func NewPinhole(w, h int) *Pinhole {
	p := &Pinhole{
		view:   DefaultViewPoint(),
		width:  max(w, 1),
		height: max(h, 1),
	}
	p.image = make([]mathutil.Vec4, p.width*p.height)
	p.AdjustToResolution()
	p.SetYFoV(DefaultYFoV)
	return p
}

func (p *Pinhole) Width() int               { return p.width }
func (p *Pinhole) Height() int              { return p.height }
func (p *Pinhole) Focus() float64           { return p.focus }
func (p *Pinhole) ViewPoint() ViewPoint     { return p.view }
func (p *Pinhole) SetViewPoint(v ViewPoint) { p.view = v }
func (p *Pinhole) Image() []mathutil.Vec4   { return p.image }

// AdjustToResolution makes one pixel one unit on the image plane.
func (p *Pinhole) AdjustToResolution() {
	p.halfH = 0.5 * float64(p.height)
	p.halfW = 0.5 * float64(p.width)
}

// SetYFoV sets the focal distance for a vertical field of view in degrees.
func (p *Pinhole) SetYFoV(deg float64) error {
	if deg <= 0 || deg >= 180 {
		return fmt.Errorf("sensor: field of view %g outside (0, 180)", deg)
	}
	p.focus = p.halfH / math.Tan(0.5*mathutil.Deg2Rad(deg))
	return nil
}

func (p *Pinhole) Init() {
	clear(p.image)
}

func (p *Pinhole) GetRay(x, y int, s *sampler.Sampler) Ray {
	px := float64(x) + 0.5 - p.halfW + s.Range(-0.5, 0.5)
	py := float64(y) + 0.5 - p.halfH + s.Range(-0.5, 0.5)
	dir := mathutil.Vec3{px, py, p.focus}.Normalize()
	return Ray{
		Org: p.view.Position,
		Dir: p.view.Rotation.MulVec3(dir),
		ID:  y*p.width + x,
	}
}

func (p *Pinhole) Hit(radiance mathutil.Vec3, ray Ray) {
	if ray.ID < 0 || ray.ID >= len(p.image) {
		return
	}
	px := &p.image[ray.ID]
	px[0] += radiance[0]
	px[1] += radiance[1]
	px[2] += radiance[2]
	px[3]++
}

// Stop divides every pixel by its sample count and resets alpha to 1.
func (p *Pinhole) Stop() {
	for i := range p.image {
		px := &p.image[i]
		scale := 1.0
		if px[3] >= 0.5 {
			scale = 1 / px[3]
		}
		px[0] *= scale
		px[1] *= scale
		px[2] *= scale
		px[3] = 1
	}
}

// Properties is the camera-properties file layout.
type Properties struct {
	Pinhole *struct {
		Aspect *float64 `json:"aspect"`
		Focus  *float64 `json:"focus"`
		YFoV   *float64 `json:"y-fov"`
	} `json:"pinhole"`
}

// LoadProperties reads a camera-properties JSON file. The image plane is
// resized to focus·tan(fov/2) high with the given aspect; absent keys keep
// the current values.
func (p *Pinhole) LoadProperties(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("sensor: read properties %s: %w", path, err)
	}
	var props Properties
	if err := json.Unmarshal(data, &props); err != nil {
		return fmt.Errorf("sensor: parse properties %s: %w", path, err)
	}
	ph := props.Pinhole
	if ph == nil {
		return nil
	}
	aspect := p.halfW / p.halfH
	if ph.Aspect != nil {
		aspect = *ph.Aspect
	}
	if ph.Focus != nil {
		p.focus = *ph.Focus
	}
	if ph.YFoV != nil {
		p.halfH = p.focus * math.Tan(0.5*mathutil.Deg2Rad(*ph.YFoV))
	}
	p.halfW = aspect * p.halfH
	return nil
}
