package assets

import (
	"bdpt-renderer/internal/accel"
	"bdpt-renderer/internal/mathutil"
	"bdpt-renderer/internal/sensor"
)

var worldUp = mathutil.Vec3{0, 1, 0}

// SceneTransform rotates the scene by rotZYX (degrees, z y x order) around
// center and then moves it by -shift.
func SceneTransform(center, rotZYX, shift mathutil.Vec3) mathutil.Mat4 {
	r := mathutil.RotZYX(rotZYX).Transpose()
	t := center.Sub(r.MulVec3(center)).Sub(shift)
	return mathutil.FromMat3Translation(r, t)
}

// CenteredViewPoint looks from the origin at the transformed center.
func CenteredViewPoint(root mathutil.Mat4, center mathutil.Vec3) sensor.ViewPoint {
	fwd := root.MulPoint(center)
	if fwd.Len() < mathutil.Epsilon {
		fwd = mathutil.Vec3{0, 0, -1}
	}
	return sensor.NewViewPoint(mathutil.Vec3{}, fwd.Normalize(), worldUp)
}

// LightBoxViewPoints returns one viewpoint per corner of box, each placed
// beyond its corner at C - 2·(C - corner) and looking at the centre C.
func LightBoxViewPoints(box accel.AABB) []sensor.ViewPoint {
	c := box.Center()
	vps := make([]sensor.ViewPoint, 0, 8)
	for i := 0; i < 8; i++ {
		corner := box.Min
		if i&1 != 0 {
			corner[0] = box.Max[0]
		}
		if i&2 != 0 {
			corner[1] = box.Max[1]
		}
		if i&4 != 0 {
			corner[2] = box.Max[2]
		}
		pos := c.Sub(c.Sub(corner).Scale(2))
		vps = append(vps, sensor.LookAt(pos, c, worldUp))
	}
	return vps
}

// Camera returns the described camera pose and vertical field of view.
func (a *Asset) Camera() (vp sensor.ViewPoint, yfov float64, ok bool) {
	cd := a.Doc.Camera
	if cd == nil {
		return sensor.ViewPoint{}, 0, false
	}
	pos := vec3(cd.Position, mathutil.Vec3{})
	target := vec3(cd.Target, pos.Add(mathutil.Vec3{0, 0, -1}))
	up := vec3(cd.Up, worldUp)
	yfov = cd.YFoV
	if yfov <= 0 {
		yfov = sensor.DefaultYFoV
	}
	return sensor.LookAt(pos, target, up), yfov, true
}
