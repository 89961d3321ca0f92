package texture

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checker() *Bitmap {
	// 2x2: black, white / white, black; alpha 255.
	return NewBitmap(2, 2, []uint8{
		0, 0, 0, 255, 255, 255, 255, 255,
		255, 255, 255, 255, 0, 0, 0, 255,
	})
}

func TestSampleAtTexelOrigins(t *testing.T) {
	b := checker()
	tests := []struct {
		u, v float64
		want float64
	}{
		{0, 0, 0},
		{0.5, 0, 1},
		{0, 0.5, 1},
		{0.5, 0.5, 0},
		{1.5, -1, 1}, // wraps to (0.5, 0)
	}
	for _, tt := range tests {
		got := b.Sample(tt.u, tt.v)
		assert.InDelta(t, tt.want, got[0], 1e-9, "u=%v v=%v", tt.u, tt.v)
		assert.InDelta(t, 1, got[3], 1e-9)
	}
}

func TestSampleBetweenTexelsBlends(t *testing.T) {
	got := checker().Sample(0.25, 0)
	assert.InDelta(t, 0.5, got[0], 1e-9)
}

func TestMissingBitmapIsGrey(t *testing.T) {
	var b *Bitmap
	assert.Equal(t, missingTexel, b.Sample(0.3, 0.3))
	assert.Equal(t, missingTexel, checker().Fetch(5, 0))
	assert.Nil(t, NewBitmap(2, 2, []uint8{1, 2, 3}))
}

func writePNG(t *testing.T, path string, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestCacheResolvesByStem(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "maps")
	require.NoError(t, os.MkdirAll(sub, 0755))
	writePNG(t, filepath.Join(sub, "Albedo.png"), color.NRGBA{R: 200, G: 100, B: 50, A: 255})

	idx := BuildIndex(dir)
	assert.Equal(t, 1, idx.Len())

	cache := NewCache(idx)
	b1, err := cache.Resolve("textures\\albedo.jpg")
	require.NoError(t, err)
	require.NotNil(t, b1)
	assert.Equal(t, 4, b1.Width)
	assert.Equal(t, 3, b1.Height)
	assert.InDelta(t, 200.0/255.0, b1.Fetch(1, 1)[0], 1e-9)

	b2, err := cache.Resolve("albedo")
	require.NoError(t, err)
	assert.Same(t, b1, b2)

	_, err = cache.Resolve("nothing-here")
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestIndexPrefersAlphaFormats(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wood.jpg"), []byte("x"), 0644))
	writePNG(t, filepath.Join(dir, "wood.png"), color.NRGBA{A: 255})

	path, ok := BuildIndex(dir).ResolvePath("wood")
	require.True(t, ok)
	assert.Equal(t, ".png", filepath.Ext(path))
}

func TestLoadBitmapFormats(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := range src.Pix {
		src.Pix[i] = 255
	}
	src.SetNRGBA(1, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	tests := []struct {
		name string
		enc  func(io.Writer, image.Image) error
	}{
		{"a.png", png.Encode},
		{"b.PNG", png.Encode},
		{"c.tga", tga.Encode},
		{"d.bmp", bmp.Encode},
		{"e.tif", func(w io.Writer, m image.Image) error { return tiff.Encode(w, m, nil) }},
	}
	dir := t.TempDir()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			f, err := os.Create(path)
			require.NoError(t, err)
			require.NoError(t, tt.enc(f, src))
			require.NoError(t, f.Close())

			b, err := LoadBitmap(path)
			require.NoError(t, err)
			require.Equal(t, 2, b.Width)
			got := b.Fetch(1, 0)
			assert.InDelta(t, 10.0/255.0, got[0], 1e-9)
			assert.InDelta(t, 20.0/255.0, got[1], 1e-9)
			assert.InDelta(t, 30.0/255.0, got[2], 1e-9)
			assert.InDelta(t, 1, b.Fetch(0, 1)[0], 1e-9)
		})
	}
}

func TestLoadTextureUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.xyz")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	_, err := LoadTexture(path)
	assert.ErrorContains(t, err, "unsupported format")
}

func TestLoadTextureRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0644))
	_, err := LoadTexture(path)
	assert.Error(t, err)
}
