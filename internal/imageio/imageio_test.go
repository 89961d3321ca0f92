package imageio

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"bdpt-renderer/internal/mathutil"

	"github.com/ftrvxmtrx/tga"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"
)

// twoRows is a 2×2 buffer: red bottom row, blue top row.
func twoRows() []mathutil.Vec4 {
	return []mathutil.Vec4{
		{1, 0, 0, 1}, {1, 0, 0, 1},
		{0, 0, 1, 1}, {0, 0, 1, 1},
	}
}

func TestToNRGBAFlipsRows(t *testing.T) {
	img := ToNRGBA(twoRows(), 2, 2)
	top := img.NRGBAAt(0, 0)
	bottom := img.NRGBAAt(1, 1)
	assert.Equal(t, [4]uint8{0, 0, 255, 255}, [4]uint8{top.R, top.G, top.B, top.A})
	assert.Equal(t, [4]uint8{255, 0, 0, 255}, [4]uint8{bottom.R, bottom.G, bottom.B, bottom.A})

	back, w, h := FromNRGBA(img)
	assert.Equal(t, 2, w)
	assert.Equal(t, 2, h)
	assert.Equal(t, twoRows(), back)
}

func TestQuantizeClamps(t *testing.T) {
	tests := []struct {
		in   float64
		want uint8
	}{
		{-0.5, 0},
		{0, 0},
		{0.5, 127},
		{1, 255},
		{3, 255},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, quantize(tt.in), "%g", tt.in)
	}
}

func TestSaveEightBitFormats(t *testing.T) {
	decoders := map[string]func(*os.File) (image.Image, error){
		"out.png":  func(f *os.File) (image.Image, error) { return png.Decode(f) },
		"out.bmp":  func(f *os.File) (image.Image, error) { return bmp.Decode(f) },
		"out.tga":  func(f *os.File) (image.Image, error) { return tga.Decode(f) },
		"out.webp": func(f *os.File) (image.Image, error) { return webp.Decode(f) },
	}
	dir := t.TempDir()
	for name, decode := range decoders {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, Save(path, twoRows(), 2, 2))

			f, err := os.Open(path)
			require.NoError(t, err)
			defer f.Close()
			img, err := decode(f)
			require.NoError(t, err)
			r, _, b, _ := img.At(0, 0).RGBA()
			assert.Equal(t, uint32(0), r>>8)
			assert.Equal(t, uint32(255), b>>8)
		})
	}
}

func TestSaveJPEG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.JPG")
	require.NoError(t, Save(path, twoRows(), 2, 2))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestSaveUnsupported(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "out.exr"), twoRows(), 2, 2)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.False(t, Supported("x.exr"))
	assert.True(t, Supported("x.PFM"))
}

func TestSaveShortBuffer(t *testing.T) {
	assert.Error(t, Save(filepath.Join(t.TempDir(), "out.png"), twoRows(), 3, 2))
}

func TestEncodePFM(t *testing.T) {
	var buf bytes.Buffer
	img := twoRows()
	img[0] = mathutil.Vec4{2.5, 0.25, 7, 1}
	require.NoError(t, EncodePFM(&buf, img, 2, 2))

	header := "PF\n2 2\n-1.0\n"
	data := buf.Bytes()
	require.Equal(t, header, string(data[:len(header)]))
	body := data[len(header):]
	require.Len(t, body, 2*2*12)

	first := [3]float32{}
	for c := range first {
		first[c] = math.Float32frombits(binary.LittleEndian.Uint32(body[4*c:]))
	}
	assert.Equal(t, [3]float32{2.5, 0.25, 7}, first)
	last := math.Float32frombits(binary.LittleEndian.Uint32(body[len(body)-4:]))
	assert.Equal(t, float32(1), last)
}
