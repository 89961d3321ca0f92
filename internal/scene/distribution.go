package scene

// distribution draws indices with probability proportional to their
// weights, by binary search over the prefix sums.
type distribution struct {
	cdf  []float64
	maxD float64
}

func newDistribution(weights []float64) *distribution {
	d := &distribution{cdf: make([]float64, len(weights))}
	sum := 0.0
	for i, w := range weights {
		if w > 0 {
			sum += w
		}
		d.cdf[i] = sum
	}
	if sum <= 0 {
		// No positive weight: fall back to uniform selection.
		for i := range d.cdf {
			d.cdf[i] = float64(i + 1)
		}
		sum = float64(len(weights))
	}
	d.maxD = sum
	return d
}

func (d *distribution) count() int { return len(d.cdf) }

// value returns the index whose interval contains x in [0, maxD).
func (d *distribution) value(x float64) int {
	n := len(d.cdf)
	switch {
	case n <= 0:
		return -1
	case n == 1, x <= d.cdf[0]:
		return 0
	case x >= d.cdf[n-2]:
		return n - 1
	}
	l, r := 0, n-1
	for l < r {
		c := (l + r) / 2
		if x <= d.cdf[c] {
			r = c
		} else {
			l = c + 1
		}
	}
	return l
}

// random maps a uniform variate in [0, 1) to an index.
func (d *distribution) random(u float64) int {
	return d.value(u * d.maxD)
}

// pdf is the selection probability of index k.
func (d *distribution) pdf(k int) float64 {
	if k < 0 || k >= len(d.cdf) {
		return 0
	}
	lo := 0.0
	if k > 0 {
		lo = d.cdf[k-1]
	}
	return (d.cdf[k] - lo) / d.maxD
}
