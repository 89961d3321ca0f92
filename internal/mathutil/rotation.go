package mathutil

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Deg2Rad converts degrees to radians.
func Deg2Rad(d float64) float64 {
	return d * math.Pi / 180
}

// RotZYX builds the scene rotation from angles given in degrees as (z, y, x).
// Each factor is the frame form Rᵀ of its elementary rotation, composed
// Rzᵀ·Ryᵀ·Rxᵀ.
func RotZYX(zyxDeg Vec3) Mat3 {
	// An mgl64 matrix read row-major is already the transpose.
	rz := Mat3(mgl64.Rotate3DZ(Deg2Rad(zyxDeg[0])))
	ry := Mat3(mgl64.Rotate3DY(Deg2Rad(zyxDeg[1])))
	rx := Mat3(mgl64.Rotate3DX(Deg2Rad(zyxDeg[2])))
	return Mat3Mul(Mat3Mul(rz, ry), rx)
}
