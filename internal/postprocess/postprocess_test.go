package postprocess

import (
	"image"
	"image/color"
	"math"
	"testing"

	"bdpt-renderer/internal/mathutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGammaCorrection(t *testing.T) {
	tests := []struct {
		name  string
		in    mathutil.Vec4
		want  mathutil.Vec4
		gamma float64
	}{
		{"black stays black", mathutil.Vec4{0, 0, 0, 0}, mathutil.Vec4{0, 0, 0, 1}, 0.5},
		{"white is fixed", mathutil.Vec4{1, 1, 1, 0.3}, mathutil.Vec4{1, 1, 1, 1}, 0.5},
		{"grey brightens", mathutil.Vec4{0.25, 0.25, 0.25, 1}, mathutil.Vec4{0.5, 0.5, 0.5, 1}, 0.5},
		{"overexposed clamps", mathutil.Vec4{9, 4, 0, 1}, mathutil.Vec4{1, 1, 0, 1}, 1},
		{"negative clamps", mathutil.Vec4{-1, -1, -1, 1}, mathutil.Vec4{0, 0, 0, 1}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := []mathutil.Vec4{tt.in}
			GammaCorrection(img, 1, 1, 1, tt.gamma)
			for c := 0; c < 4; c++ {
				assert.InDelta(t, tt.want[c], img[0][c], 1e-9, "channel %d", c)
			}
		})
	}
}

func TestGammaCorrectionKeepsChromaticity(t *testing.T) {
	img := []mathutil.Vec4{{0.2, 0.1, 0.05, 1}}
	GammaCorrection(img, 1, 1, 1, 0.5)
	assert.InDelta(t, 2, img[0][0]/img[0][1], 1e-9)
	assert.InDelta(t, 2, img[0][1]/img[0][2], 1e-9)
	assert.InDelta(t, math.Sqrt(mathutil.Luminance(mathutil.Vec3{0.2, 0.1, 0.05})), mathutil.Luminance(img[0].XYZ()), 1e-9)
}

func grey(w, h int, v float64) []mathutil.Vec4 {
	img := make([]mathutil.Vec4, w*h)
	for i := range img {
		img[i] = mathutil.Vec4{v, v, v, 1}
	}
	return img
}

func TestMedianDenoiseRemovesOutlier(t *testing.T) {
	const w, h = 5, 4
	img := grey(w, h, 0.5)
	img[1*w+2] = mathutil.Vec4{10, 0, 10, 1}
	img[0] = mathutil.Vec4{7, 7, 7, 1}

	MedianDenoise(img, w, h, 1)

	assert.Equal(t, mathutil.Vec4{0.5, 0.5, 0.5, 1}, img[1*w+2])
	assert.Equal(t, mathutil.Vec4{7, 7, 7, 1}, img[0], "border pixels are untouched")
}

func TestMedianDenoisePerChannel(t *testing.T) {
	const w, h = 3, 3
	img := grey(w, h, 0)
	for i := range img {
		img[i][0] = float64(i)
		img[i][2] = float64(8 - i)
	}
	MedianDenoise(img, w, h, 1)
	assert.Equal(t, mathutil.Vec4{4, 0, 4, 1}, img[4])
}

func TestMedianDenoiseTooSmall(t *testing.T) {
	img := grey(2, 2, 0.25)
	img[0][0] = 3
	MedianDenoise(img, 2, 2, 1)
	assert.Equal(t, 3.0, img[0][0])
}

func TestDownsample(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	dst := Downsample(src, 4, 2)
	require.Equal(t, image.Rect(0, 0, 4, 2), dst.Bounds())
	c := dst.NRGBAAt(1, 1)
	assert.InDelta(t, 200, int(c.R), 1)
	assert.InDelta(t, 100, int(c.G), 1)
	assert.InDelta(t, 50, int(c.B), 1)
	assert.Equal(t, uint8(255), c.A)

	assert.Same(t, src, Downsample(src, 8, 4))
}
