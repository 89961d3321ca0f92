package mathutil

import "github.com/go-gl/mathgl/mgl64"

// LookAt returns the orthonormal camera basis (right, up, forward) for an eye
// looking at target. When forward is parallel to up, another up axis is used.
func LookAt(eye, target, up Vec3) (right, newUp, forward Vec3) {
	forward = target.Sub(eye)
	if forward.Len() < Epsilon {
		forward = Vec3{0, 0, -1}
	}
	forward = forward.Normalize()
	if forward.Cross(up).Len() < 1e-6 {
		up = Vec3{0, 0, 1}
		if forward.Cross(up).Len() < 1e-6 {
			up = Vec3{1, 0, 0}
		}
	}
	view := mgl64.LookAtV(
		mgl64.Vec3(eye),
		mgl64.Vec3(eye.Add(forward)),
		mgl64.Vec3(up),
	)
	r, u := view.Row(0), view.Row(1)
	right = Vec3{r[0], r[1], r[2]}
	newUp = Vec3{u[0], u[1], u[2]}
	return right, newUp, forward
}
