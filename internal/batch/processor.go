// Package batch renders a sequence of viewpoints of one scene and writes
// the resulting images.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"bdpt-renderer/internal/imageio"
	"bdpt-renderer/internal/log"
	"bdpt-renderer/internal/mathutil"
	"bdpt-renderer/internal/postprocess"
	"bdpt-renderer/internal/render"
	"bdpt-renderer/internal/sensor"

	"github.com/google/uuid"
)

var logger = log.New("batch")

// ErrFloatSupersample is returned when a float image would need the 8-bit
// downscaler.
var ErrFloatSupersample = errors.New("batch: supersampling needs an 8-bit output format")

// Config holds all shared settings for a batch run.
type Config struct {
	Renderer *render.Renderer
	// Width and Height are the output size; the sensor is Supersample
	// times larger in both directions.
	Width       int
	Height      int
	Supersample int
	// YFoV is used unless CameraProps names a camera-properties file.
	YFoV        float64
	CameraProps string
	Gamma       float64
	Denoise     bool
}

// Job is one viewpoint to render.
type Job struct {
	ID        uuid.UUID
	ViewPoint sensor.ViewPoint
	Output    string
}

// Result holds the outcome of rendering one job.
type Result struct {
	Job      Job
	Outputs  []string
	Stats    render.Stats
	Duration time.Duration
	Success  bool
	Error    string
}

// NewJobs creates one job per viewpoint. With more than one viewpoint the
// output names get _<index> before the extension.
func NewJobs(output string, vps []sensor.ViewPoint) []Job {
	jobs := make([]Job, len(vps))
	for i, vp := range vps {
		out := output
		if len(vps) > 1 {
			out = Suffixed(output, fmt.Sprintf("_%d", i))
		}
		jobs[i] = Job{ID: uuid.New(), ViewPoint: vp, Output: out}
	}
	return jobs
}

// Suffixed inserts suffix before the extension of path.
func Suffixed(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}

// Run renders the jobs one after another; each render uses every worker of
// the renderer. A failing job is recorded and the batch goes on; a
// cancelled context stops it and is returned with the results so far.
func Run(ctx context.Context, cfg Config, jobs []Job) ([]Result, error) {
	total := len(jobs)
	results := make([]Result, 0, total)
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	defer close(done)
	if total > 1 {
		go func() {
			ticker := time.NewTicker(5 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					p := processed.Load()
					logger.Infof("[%d/%d] %s elapsed", p, total, time.Since(start).Round(time.Second))
				}
			}
		}()
	}

	for _, job := range jobs {
		res := processJob(ctx, cfg, job)
		results = append(results, res)
		processed.Add(1)
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if res.Success {
			logger.Noticef("[%d/%d] %s done in %s", len(results), total, job.Output, res.Duration.Round(time.Millisecond))
		} else {
			logger.Errorf("[%d/%d] %s: %s", len(results), total, job.Output, res.Error)
		}
	}
	return results, nil
}

func processJob(ctx context.Context, cfg Config, job Job) (res Result) {
	res.Job = job
	start := time.Now()
	defer func() { res.Duration = time.Since(start) }()

	k := max(cfg.Supersample, 1)
	if k > 1 && imageio.IsFloat(job.Output) {
		res.Error = ErrFloatSupersample.Error()
		return res
	}

	w, h := cfg.Width*k, cfg.Height*k
	cam := sensor.NewPinhole(w, h)
	cam.SetViewPoint(job.ViewPoint)
	if cfg.CameraProps != "" {
		if err := cam.LoadProperties(cfg.CameraProps); err != nil {
			res.Error = err.Error()
			return res
		}
	} else if cfg.YFoV > 0 {
		if err := cam.SetYFoV(cfg.YFoV); err != nil {
			res.Error = err.Error()
			return res
		}
	}

	stats, err := cfg.Renderer.Render(ctx, cam)
	res.Stats = stats
	if err != nil {
		res.Error = err.Error()
		return res
	}
	logger.Notice("\n" + stats.Table())

	img := cam.Image()
	postprocess.GammaCorrection(img, w, h, 1, cfg.Gamma)

	if err := os.MkdirAll(filepath.Dir(job.Output), 0755); err != nil {
		res.Error = err.Error()
		return res
	}
	if err := save(job.Output, img, w, h, k); err != nil {
		res.Error = err.Error()
		return res
	}
	res.Outputs = append(res.Outputs, job.Output)

	if cfg.Denoise {
		postprocess.MedianDenoise(img, w, h, 1)
		out := Suffixed(job.Output, "_denoised")
		if err := save(out, img, w, h, k); err != nil {
			res.Error = err.Error()
			return res
		}
		res.Outputs = append(res.Outputs, out)
	}

	res.Success = true
	return res
}

// save writes a w×h buffer, downscaling by k first when k > 1.
func save(path string, img []mathutil.Vec4, w, h, k int) error {
	if k <= 1 {
		return imageio.Save(path, img, w, h)
	}
	small := postprocess.Downsample(imageio.ToNRGBA(img, w, h), w/k, h/k)
	return imageio.SaveImage(path, small)
}
