// Package postprocess holds image-space passes applied after rendering.
package postprocess

import (
	"math"
	"slices"

	"bdpt-renderer/internal/mathutil"
)

// GammaCorrection maps every pixel's luminance L to A·L^gamma keeping its
// chromaticity, then clamps channels to [0, 1] and sets alpha to 1.
func GammaCorrection(img []mathutil.Vec4, w, h int, a, gamma float64) {
	n := min(w*h, len(img))
	for i := 0; i < n; i++ {
		px := &img[i]
		in := mathutil.Luminance(px.XYZ())
		factor := 1.0
		if in > mathutil.Epsilon {
			factor = a * math.Pow(in, gamma) / in
		}
		for c := 0; c < 3; c++ {
			px[c] = mathutil.Clamp(px[c]*factor, 0, 1)
		}
		px[3] = 1
	}
}

// MedianDenoise replaces every pixel at least half pixels away from the
// border by the per-channel median of its (2·half+1)² neighbourhood.
// Border pixels are left untouched.
func MedianDenoise(img []mathutil.Vec4, w, h, half int) {
	if half < 1 || w <= 2*half || h <= 2*half || len(img) < w*h {
		return
	}
	size := 2*half + 1
	window := make([]float64, size*size)
	out := make([]mathutil.Vec4, w*h)

	for y := half; y < h-half; y++ {
		for x := half; x < w-half; x++ {
			px := &out[y*w+x]
			for c := 0; c < 3; c++ {
				k := 0
				for wy := y - half; wy <= y+half; wy++ {
					for wx := x - half; wx <= x+half; wx++ {
						window[k] = img[wy*w+wx][c]
						k++
					}
				}
				slices.Sort(window)
				px[c] = window[(len(window)-1)/2]
			}
			px[3] = 1
		}
	}
	for y := half; y < h-half; y++ {
		copy(img[y*w+half:y*w+w-half], out[y*w+half:y*w+w-half])
	}
}
