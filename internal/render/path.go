package render

import (
	"bdpt-renderer/internal/light"
	"bdpt-renderer/internal/mathutil"
	"bdpt-renderer/internal/mesh"
	"bdpt-renderer/internal/sampler"
)

// pathPart is one vertex of a sub-path.
type pathPart struct {
	sp     mesh.SurfacePoint
	outRay mathutil.Vec3
	// outRad is the radiance leaving the vertex (light paths only).
	outRad mathutil.Vec3
	// factor is the product of brdf·|cos| from the path origin.
	factor mathutil.Vec3
}

func (p *pathPart) pos() mathutil.Vec3 { return p.sp.Position }

// worker owns the per-thread state of a render.
type worker struct {
	r         *Renderer
	smp       *sampler.Sampler
	camPath   []pathPart
	lightPath []pathPart
}

func newWorker(r *Renderer, tid int) *worker {
	return &worker{
		r:         r,
		smp:       sampler.ForThread(r.params.Seed, tid),
		camPath:   make([]pathPart, r.params.CameraBounces+1),
		lightPath: make([]pathPart, r.params.LightBounces+1),
	}
}

func (w *worker) attenuate(d, attD float64) float64 {
	p := &w.r.params
	return light.Attenuate(d, attD, p.Attenuation, p.LightMinDistance)
}

// computePath traces a sub-path of at most len(path) vertices starting at
// org along dir. Camera paths (inverse) fold emission into *rad; light paths
// carry rad scaled by the throughput in outRad and stop below the cutoff.
// It returns the vertex count and whether the last ray left the scene.
func (w *worker) computePath(path []pathPart, org, dir mathutil.Vec3, rad *mathutil.Vec3, inverse bool, attD float64) (n int, exited bool) {
	sc := w.r.scene
	p := &w.r.params

	path[0] = pathPart{outRay: dir, outRad: *rad, factor: mathutil.Vec3{1, 1, 1}}
	path[0].sp.Position = org
	rDist := 1.0
	n = 1
	for i := 1; i < len(path); i++ {
		prev, cur := &path[i-1], &path[i]
		// An absorbed sample has no direction and is treated as leaving.
		if prev.outRay.IsZero() || !sc.Trace(prev.pos(), prev.outRay, &cur.sp) {
			return n, true
		}
		mat := sc.Material(cur.sp.Mesh.MaterialID)
		mat.ModifyFrame(&cur.sp)
		out, brdf, erad := mat.RayAndBrdf(prev.outRay, &cur.sp, w.smp, inverse)
		cur.outRay = out

		ct := prev.outRay.Dot(cur.sp.Normal)
		if inverse {
			ct = out.Dot(cur.sp.Normal)
		}
		if ct < 0 {
			ct = -ct
		}
		cur.factor = prev.factor.Mul(brdf).Scale(ct)

		if inverse {
			if p.FalseColor {
				*rad = brdf
			} else {
				*rad = rad.Add(cur.factor.Mul(erad))
				cur.outRad = mathutil.Vec3{}
			}
		} else {
			if i == 1 {
				rDist = w.attenuate(cur.pos().Dist(prev.pos()), attD)
			}
			cur.outRad = cur.factor.Mul(*rad).Scale(rDist)
			if mathutil.Intensity(cur.outRad) < p.Cut {
				break
			}
		}
		n++
	}
	return n, false
}

// computePaths estimates the radiance arriving at the sensor along the
// primary ray (org, dir). The sum of background, emission and light-camera
// connections is divided by the number of background or emission terms;
// connections do not add to that count.
func (w *worker) computePaths(org, dir mathutil.Vec3) mathutil.Vec3 {
	sc := w.r.scene
	p := &w.r.params

	var (
		src   light.Light
		lpLen int
		attD  float64
	)
	if sc.LightCount() > 0 {
		if l, _ := sc.SampleLight(w.smp); l != nil {
			src = l
			lo, ld, _ := l.RandomRay(w.smp)
			lrad := l.RadianceAlongRay(lo, ld).Scale(p.LightScale)
			attD = l.AttenuationDistance()
			lpLen, _ = w.computePath(w.lightPath, lo, ld, &lrad, false, attD)
		}
	}

	var radiance mathutil.Vec3
	cpLen, cpExit := w.computePath(w.camPath, org, dir, &radiance, true, 0)

	terms := 0
	bg := sc.Background()
	if cpExit && bg != nil && cpLen <= p.MaxPathLength {
		last := &w.camPath[cpLen-1]
		radiance = radiance.Add(bg.Radiance(last.outRay).Mul(last.factor))
		terms++
	} else if mathutil.Intensity(radiance) > mathutil.Epsilon {
		terms++
	}

	if src != nil {
		for i := 0; i < lpLen; i++ {
			lv := &w.lightPath[i]
			lPos := lv.pos()
			lRad := lv.outRad
			for j := 1; j < cpLen && i+j <= p.MaxPathLength; j++ {
				cv, cprev := &w.camPath[j], &w.camPath[j-1]
				cPos := cv.pos()
				lcDir := cPos.Sub(lPos).Normalize()
				if i == 0 {
					lRad = src.RadianceAlongRay(lPos, lcDir).
						Scale(p.LightScale * w.attenuate(cPos.Dist(lPos), attD))
				}
				c := lcDir.Dot(cv.sp.Normal)
				if c < 0 {
					c = -c
				}
				bound := lRad.Scale(c).Mul(cprev.factor)
				if mathutil.Intensity(bound) < p.Cut {
					continue
				}
				mat := sc.Material(cv.sp.Mesh.MaterialID)
				brdf := mat.Brdf(lcDir, &cv.sp, cprev.outRay.Neg()).Scale(c)
				lcRad := brdf.Mul(cprev.factor).Mul(lRad)
				if mathutil.Intensity(lcRad) < p.Cut {
					continue
				}
				if !sc.IsConnected(lPos, cPos) {
					continue
				}
				radiance = radiance.Add(lcRad)
			}
		}
	}

	if terms > 0 {
		radiance = radiance.Scale(1 / float64(terms))
	}
	return radiance
}
