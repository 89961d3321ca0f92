package render

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"bdpt-renderer/internal/log"
	"bdpt-renderer/internal/mathutil"
	"bdpt-renderer/internal/scene"
	"bdpt-renderer/internal/sensor"

	"github.com/google/uuid"
)

var logger = log.New("render")

// progressRows is the row interval of progress messages.
const progressRows = 50

// Renderer renders a committed scene into sensors.
type Renderer struct {
	scene  *scene.Scene
	params Params
}

// New checks sc and p and returns a renderer.
func New(sc *scene.Scene, p Params) (*Renderer, error) {
	if sc == nil || !sc.Committed() {
		return nil, scene.ErrNotCommitted
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Renderer{scene: sc, params: p}, nil
}

// Params returns the renderer settings.
func (r *Renderer) Params() Params { return r.params }

// Render fills sn. Each worker claims whole rows from a shared counter, so
// every pixel is written by exactly one goroutine. Rows are sampled from
// streams seeded by row index, making the image independent of the worker
// count. Once ctx is done no further rows are claimed and ctx.Err() is
// returned together with the partial statistics.
func (r *Renderer) Render(ctx context.Context, sn sensor.Sensor) (Stats, error) {
	w, h := sn.Width(), sn.Height()
	workers := min(max(r.params.Workers, 1), h)
	stats := Stats{
		ID:      uuid.New(),
		Width:   w,
		Height:  h,
		Samples: r.params.SamplesPerPixel,
		Workers: workers,
	}

	sn.Init()
	start := time.Now()

	var (
		nextRow atomic.Int64
		rays    atomic.Int64
		wg      sync.WaitGroup
	)
	for tid := 0; tid < workers; tid++ {
		wg.Add(1)
		go func(tid int) {
			defer wg.Done()
			wk := newWorker(r, tid)
			for ctx.Err() == nil {
				row := int(nextRow.Add(1) - 1)
				if row >= h {
					return
				}
				rays.Add(int64(wk.renderRow(sn, row)))
				if row%progressRows == 0 {
					logger.Infof("%d rows of %d", row, h)
				}
			}
		}(tid)
	}
	wg.Wait()

	sn.Stop()
	stats.Duration = time.Since(start)
	stats.PrimaryRays = rays.Load()
	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("render: %w", err)
	}
	return stats, nil
}

// renderRow traces every sample of row and returns the primary ray count.
func (wk *worker) renderRow(sn sensor.Sensor, row int) int {
	wk.smp.Seed(wk.r.params.Seed ^ uint64(row))
	spp := wk.r.params.SamplesPerPixel
	for x := 0; x < sn.Width(); x++ {
		for k := 0; k < spp; k++ {
			ray := sn.GetRay(x, row, wk.smp)
			sn.Hit(wk.computePaths(ray.Org, ray.Dir), ray)
		}
	}
	return sn.Width() * spp
}

// radiance estimates one sample along the ray (org, dir) with the sampler
// seeded by seed.
func (r *Renderer) radiance(org, dir mathutil.Vec3, seed uint64) mathutil.Vec3 {
	wk := newWorker(r, 0)
	wk.smp.Seed(seed)
	return wk.computePaths(org, dir)
}
