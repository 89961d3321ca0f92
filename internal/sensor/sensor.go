// Package sensor generates primary rays and accumulates their radiance.
package sensor

import (
	"bdpt-renderer/internal/mathutil"
	"bdpt-renderer/internal/sampler"
)

// Ray is a primary ray tagged with the pixel it belongs to.
type Ray struct {
	Org mathutil.Vec3
	Dir mathutil.Vec3
	ID  int
}

// Sensor is an image-forming device. GetRay and Hit are called concurrently
// for disjoint rows; Init and Stop bracket a render.
type Sensor interface {
	Width() int
	Height() int
	Init()
	GetRay(x, y int, s *sampler.Sampler) Ray
	// Hit accumulates radiance for the pixel of ray.
	Hit(radiance mathutil.Vec3, ray Ray)
	Stop()
	// Image returns width*height RGBA values, row 0 at the bottom.
	Image() []mathutil.Vec4
}

// ViewPoint is a camera pose. The columns of Rotation are the right, up and
// forward axes.
type ViewPoint struct {
	Position mathutil.Vec3
	Rotation mathutil.Mat3
}

// DefaultViewPoint sits at the origin looking down -z with +y up.
func DefaultViewPoint() ViewPoint {
	return NewViewPoint(mathutil.Vec3{}, mathutil.Vec3{0, 0, -1}, mathutil.Vec3{0, 1, 0})
}

// NewViewPoint builds an orthonormal pose looking along forward.
func NewViewPoint(pos, forward, up mathutil.Vec3) ViewPoint {
	return LookAt(pos, pos.Add(forward), up)
}

// LookAt builds a pose at pos looking at target.
func LookAt(pos, target, up mathutil.Vec3) ViewPoint {
	right, newUp, fwd := mathutil.LookAt(pos, target, up)
	return ViewPoint{Position: pos, Rotation: mathutil.Mat3FromColumns(right, newUp, fwd)}
}

func (v ViewPoint) Forward() mathutil.Vec3 { return v.Rotation.Col(2) }
func (v ViewPoint) Up() mathutil.Vec3      { return v.Rotation.Col(1) }
