// Package imageio writes rendered RGBA32F buffers to image files.
package imageio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"bdpt-renderer/internal/mathutil"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
)

// ErrUnsupportedFormat is returned for file extensions no encoder handles.
var ErrUnsupportedFormat = errors.New("imageio: unsupported format")

// JPEGQuality is the quality of .jpg output.
const JPEGQuality = 95

// Save writes img (w×h, row 0 at the bottom) to path, choosing the encoder
// by extension.
func Save(path string, img []mathutil.Vec4, w, h int) error {
	if len(img) < w*h {
		return fmt.Errorf("imageio: buffer holds %d pixels, want %dx%d", len(img), w, h)
	}
	if ext(path) == ".pfm" {
		return writeFile(path, func(wr io.Writer) error { return EncodePFM(wr, img, w, h) })
	}
	return SaveImage(path, ToNRGBA(img, w, h))
}

// SaveImage writes an 8-bit image to path, choosing the encoder by extension.
func SaveImage(path string, img image.Image) error {
	var enc func(io.Writer, image.Image) error
	switch ext(path) {
	case ".png":
		enc = png.Encode
	case ".jpg", ".jpeg":
		enc = func(w io.Writer, m image.Image) error {
			return jpeg.Encode(w, m, &jpeg.Options{Quality: JPEGQuality})
		}
	case ".bmp":
		enc = bmp.Encode
	case ".tga":
		enc = tga.Encode
	case ".webp":
		enc = func(w io.Writer, m image.Image) error { return nativewebp.Encode(w, m, nil) }
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	return writeFile(path, func(w io.Writer) error { return enc(w, img) })
}

// Supported reports whether Save can write path.
func Supported(path string) bool {
	switch ext(path) {
	case ".png", ".jpg", ".jpeg", ".bmp", ".tga", ".webp", ".pfm":
		return true
	}
	return false
}

// IsFloat reports whether path names a floating-point format.
func IsFloat(path string) bool { return ext(path) == ".pfm" }

func ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

func writeFile(path string, encode func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("imageio: create %s: %w", path, err)
	}
	bw := bufio.NewWriter(f)
	if err := encode(bw); err != nil {
		f.Close()
		return fmt.Errorf("imageio: encode %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("imageio: write %s: %w", path, err)
	}
	return f.Close()
}

// ToNRGBA quantizes img to 8 bits per channel, flipping rows so that the
// bottom buffer row becomes the last image row.
func ToNRGBA(img []mathutil.Vec4, w, h int) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		src := img[(h-1-y)*w : (h-y)*w]
		row := out.Pix[y*out.Stride : y*out.Stride+4*w]
		for x, px := range src {
			for c := 0; c < 4; c++ {
				row[4*x+c] = quantize(px[c])
			}
		}
	}
	return out
}

func quantize(f float64) uint8 {
	return uint8(mathutil.Clamp(255*f, 0, 255))
}

// FromNRGBA converts an 8-bit image back into a buffer with row 0 at the
// bottom.
func FromNRGBA(img *image.NRGBA) (buf []mathutil.Vec4, w, h int) {
	b := img.Bounds()
	w, h = b.Dx(), b.Dy()
	buf = make([]mathutil.Vec4, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			px := &buf[(h-1-y)*w+x]
			for c := 0; c < 4; c++ {
				px[c] = float64(img.Pix[i+c]) / 255
			}
		}
	}
	return buf, w, h
}

// EncodePFM writes a little-endian colour Portable Float Map. PFM scanlines
// run bottom to top, matching the buffer layout.
func EncodePFM(wr io.Writer, img []mathutil.Vec4, w, h int) error {
	if _, err := fmt.Fprintf(wr, "PF\n%d %d\n-1.0\n", w, h); err != nil {
		return err
	}
	line := make([]byte, 12*w)
	for y := 0; y < h; y++ {
		for x, px := range img[y*w : (y+1)*w] {
			for c := 0; c < 3; c++ {
				binary.LittleEndian.PutUint32(line[12*x+4*c:], math.Float32bits(float32(px[c])))
			}
		}
		if _, err := wr.Write(line); err != nil {
			return err
		}
	}
	return nil
}
