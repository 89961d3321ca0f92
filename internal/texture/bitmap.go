package texture

import (
	"image"
	"math"

	"bdpt-renderer/internal/mathutil"
)

// Bitmap is a decoded RGBA8 texture with wrap-around bilinear sampling.
// A nil or empty bitmap samples as mid grey.
type Bitmap struct {
	Width  int
	Height int
	Pix    []uint8 // 4 bytes per texel, row-major, row 0 first
}

var missingTexel = mathutil.Vec4{0.5, 0.5, 0.5, 1}

// NewBitmap copies pix (w*h*4 bytes). It returns nil when the buffer is too short.
func NewBitmap(w, h int, pix []uint8) *Bitmap {
	if w <= 0 || h <= 0 || len(pix) < w*h*4 {
		return nil
	}
	b := &Bitmap{Width: w, Height: h, Pix: make([]uint8, w*h*4)}
	copy(b.Pix, pix)
	return b
}

// FromImage wraps a decoded image as a bitmap.
func FromImage(img *image.NRGBA) *Bitmap {
	if img == nil {
		return nil
	}
	r := img.Bounds()
	w, h := r.Dx(), r.Dy()
	b := &Bitmap{Width: w, Height: h, Pix: make([]uint8, w*h*4)}
	for y := 0; y < h; y++ {
		off := img.PixOffset(r.Min.X, r.Min.Y+y)
		copy(b.Pix[y*w*4:(y+1)*w*4], img.Pix[off:off+w*4])
	}
	return b
}

// Image returns the bitmap as an NRGBA image.
func (b *Bitmap) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	copy(img.Pix, b.Pix)
	return img
}

func (b *Bitmap) valid() bool {
	return b != nil && b.Width > 0 && b.Height > 0 && len(b.Pix) >= b.Width*b.Height*4
}

// Fetch returns texel (x, y) normalised to [0, 1].
func (b *Bitmap) Fetch(x, y int) mathutil.Vec4 {
	if !b.valid() || x < 0 || x >= b.Width || y < 0 || y >= b.Height {
		return missingTexel
	}
	return b.texel((y*b.Width + x) * 4)
}

func (b *Bitmap) texel(i int) mathutil.Vec4 {
	const s = 1.0 / 255.0
	return mathutil.Vec4{
		float64(b.Pix[i]) * s,
		float64(b.Pix[i+1]) * s,
		float64(b.Pix[i+2]) * s,
		float64(b.Pix[i+3]) * s,
	}
}

func (b *Bitmap) pixCoords(u, v float64) (id [4]int, w [4]float64) {
	return WrapCoords(u, v, b.Width, b.Height)
}

// WrapCoords returns the four texel indices of a width×height grid around
// (u, v) and their bilinear weights, wrapping in both directions. Texel i
// sits at coordinate i/width.
func WrapCoords(u, v float64, width, height int) (id [4]int, w [4]float64) {
	fw, fh := float64(width), float64(height)
	u -= math.Floor(u - 0.5/fw)
	v -= math.Floor(v - 0.5/fh)
	u *= fw
	v *= fh
	iu, iv := int(u), int(v)
	kui, kvi := u-float64(iu), v-float64(iv)
	ku, kv := 1-kui, 1-kvi

	l := iu % width
	r := (iu + 1) % width
	bo := iv % height
	t := (iv + 1) % height
	id = [4]int{bo*width + l, bo*width + r, t*width + l, t*width + r}
	w = [4]float64{ku * kv, kui * kv, ku * kvi, kui * kvi}
	return id, w
}

// Sample returns the bilinearly filtered texel at texture coordinates (u, v).
func (b *Bitmap) Sample(u, v float64) mathutil.Vec4 {
	if !b.valid() {
		return missingTexel
	}
	id, w := b.pixCoords(u, v)
	var out mathutil.Vec4
	for k := 0; k < 4; k++ {
		out = out.Add(b.texel(id[k] * 4).Scale(w[k]))
	}
	return out
}
