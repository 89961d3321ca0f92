package background

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
)

// LoadHDR reads a Radiance .hdr file.
func LoadHDR(path string, scale float64) (*HDR, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("background: open %s: %w", path, err)
	}
	defer f.Close()
	h, err := DecodeRGBE(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("background: decode %s: %w", path, err)
	}
	h.Scale = scale
	return h, nil
}

// DecodeRGBE decodes the Radiance RGBE format, both run-length encoded and
// flat scanlines. Only the standard "-Y h +X w" orientation is accepted.
func DecodeRGBE(r *bufio.Reader) (*HDR, error) {
	magic, err := r.ReadString('\n')
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(magic, "#?") {
		return nil, errors.New("not a radiance file")
	}
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("header: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if v, ok := strings.CutPrefix(line, "FORMAT="); ok && v != "32-bit_rle_rgbe" {
			return nil, fmt.Errorf("unsupported format %q", v)
		}
	}
	res, err := r.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("resolution: %w", err)
	}
	var w, h int
	if _, err := fmt.Sscanf(strings.TrimSpace(res), "-Y %d +X %d", &h, &w); err != nil {
		return nil, fmt.Errorf("resolution %q: %w", strings.TrimSpace(res), err)
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("bad size %dx%d", w, h)
	}

	img := &HDR{Width: w, Height: h, Pix: make([]float32, w*h*3), Scale: 1}
	line := make([]byte, w*4)
	for y := 0; y < h; y++ {
		if err := readScanline(r, line, w); err != nil {
			return nil, fmt.Errorf("scanline %d: %w", y, err)
		}
		for x := 0; x < w; x++ {
			rgbeToFloat(line[x*4:x*4+4], img.Pix[(y*w+x)*3:])
		}
	}
	return img, nil
}

func readScanline(r *bufio.Reader, line []byte, w int) error {
	if w < 8 || w > 0x7fff {
		_, err := io.ReadFull(r, line)
		return err
	}
	head, err := r.Peek(4)
	if err != nil {
		return err
	}
	if head[0] != 2 || head[1] != 2 || head[2]&0x80 != 0 {
		_, err := io.ReadFull(r, line)
		return err
	}
	if int(head[2])<<8|int(head[3]) != w {
		return errors.New("scanline width mismatch")
	}
	if _, err := r.Discard(4); err != nil {
		return err
	}
	// Channels are stored planar, each run-length encoded.
	for c := 0; c < 4; c++ {
		for x := 0; x < w; {
			n, err := r.ReadByte()
			if err != nil {
				return err
			}
			if n > 128 {
				n -= 128
				v, err := r.ReadByte()
				if err != nil {
					return err
				}
				if x+int(n) > w {
					return errors.New("run overflows scanline")
				}
				for i := 0; i < int(n); i++ {
					line[(x+i)*4+c] = v
				}
				x += int(n)
				continue
			}
			if n == 0 || x+int(n) > w {
				return errors.New("bad literal run")
			}
			for i := 0; i < int(n); i++ {
				v, err := r.ReadByte()
				if err != nil {
					return err
				}
				line[(x+i)*4+c] = v
			}
			x += int(n)
		}
	}
	return nil
}

func rgbeToFloat(p []byte, dst []float32) {
	if p[3] == 0 {
		dst[0], dst[1], dst[2] = 0, 0, 0
		return
	}
	f := math.Ldexp(1, int(p[3])-(128+8))
	dst[0] = float32(float64(p[0]) * f)
	dst[1] = float32(float64(p[1]) * f)
	dst[2] = float32(float64(p[2]) * f)
}
