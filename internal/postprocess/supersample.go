package postprocess

import (
	"image"

	"golang.org/x/image/draw"
)

// Downsample filters a supersampled render down to w×h with CatmullRom.
// Filtering happens on premultiplied colour so transparent background
// pixels do not darken object edges. Images already no larger than the
// target are returned as is.
func Downsample(img *image.NRGBA, w, h int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() <= w && b.Dy() <= h {
		return img
	}
	rect := image.Rect(0, 0, w, h)

	// The scaler premultiplies NRGBA input itself; RGBA output stays premultiplied.
	premul := image.NewRGBA(rect)
	draw.CatmullRom.Scale(premul, rect, img, b, draw.Src, nil)

	out := image.NewNRGBA(rect)
	draw.Draw(out, rect, premul, image.Point{}, draw.Src)
	return out
}
