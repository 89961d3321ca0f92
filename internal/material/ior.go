package material

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"os"
	"sort"
)

// ErrNoIORData is returned when neither measured data nor a Lorentz model
// covers the requested wavelength.
var ErrNoIORData = errors.New("material: no IOR data for wavelength")

const speedOfLight = 299792458.0

// IORPoint is one (wavelength in meters, value) sample.
type IORPoint struct {
	Wavelength float64
	Value      float64
}

func (p *IORPoint) UnmarshalJSON(b []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	p.Wavelength, p.Value = pair[0], pair[1]
	return nil
}

// IOREntry holds the measured refractive (N) and extinction (K) curves at
// one temperature in kelvin.
type IOREntry struct {
	Temperature float64    `json:"temperature"`
	N           []IORPoint `json:"n"`
	K           []IORPoint `json:"k"`
}

// Lorentz is an oscillator model valid on [Min, Max]. Each oscillator is
// (omega_p^2, omega_1, gamma).
type Lorentz struct {
	Min         float64      `json:"min"`
	Max         float64      `json:"max"`
	Oscillators [][3]float64 `json:"oscillators"`
}

// IORTable is the temperature- and wavelength-dependent complex index.
type IORTable struct {
	Entries []IOREntry `json:"data"`
	Lorentz *Lorentz   `json:"lorentz,omitempty"`
}

type iorFile struct {
	Extensions struct {
		Data *IORTable `json:"OpenMaterial_ior_data"`
	} `json:"extensions"`
}

// LoadIOR reads an IOR table from a JSON file.
func LoadIOR(path string) (*IORTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("material: read ior %s: %w", path, err)
	}
	t, err := ParseIOR(data)
	if err != nil {
		return nil, fmt.Errorf("material: parse ior %s: %w", path, err)
	}
	return t, nil
}

// ParseIOR decodes an IOR table and sorts it by temperature and wavelength.
func ParseIOR(data []byte) (*IORTable, error) {
	var f iorFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	t := f.Extensions.Data
	if t == nil {
		return nil, errors.New("missing OpenMaterial_ior_data")
	}
	for i := range t.Entries {
		e := &t.Entries[i]
		if e.Temperature < 0 {
			return nil, fmt.Errorf("entry %d: negative temperature %g", i, e.Temperature)
		}
		sortPoints(e.N)
		sortPoints(e.K)
	}
	sort.SliceStable(t.Entries, func(a, b int) bool {
		return t.Entries[a].Temperature < t.Entries[b].Temperature
	})
	return t, nil
}

func sortPoints(p []IORPoint) {
	sort.Slice(p, func(a, b int) bool { return p[a].Wavelength < p[b].Wavelength })
}

// closest returns the entry measured nearest to temp.
func (t *IORTable) closest(temp float64) *IOREntry {
	var best *IOREntry
	for i := range t.Entries {
		e := &t.Entries[i]
		if best == nil || math.Abs(e.Temperature-temp) < math.Abs(best.Temperature-temp) {
			best = e
		}
	}
	return best
}

func span(p []IORPoint) (lo, hi float64) {
	return p[0].Wavelength, p[len(p)-1].Wavelength
}

// Range returns the wavelength interval covered by measurements.
// An absent K curve means a lossless material over N's range.
func (e *IOREntry) Range() (lo, hi float64, ok bool) {
	if len(e.N) == 0 {
		return 0, 0, false
	}
	lo, hi = span(e.N)
	if len(e.K) > 0 {
		klo, khi := span(e.K)
		lo, hi = math.Max(lo, klo), math.Min(hi, khi)
	}
	return lo, hi, lo <= hi
}

func interpolate(p []IORPoint, wl float64) float64 {
	if len(p) == 0 {
		return 0
	}
	i := sort.Search(len(p), func(i int) bool { return p[i].Wavelength >= wl })
	if i == 0 {
		return p[0].Value
	}
	if i == len(p) {
		return p[len(p)-1].Value
	}
	a, b := p[i-1], p[i]
	if b.Wavelength == a.Wavelength {
		return a.Value
	}
	t := (wl - a.Wavelength) / (b.Wavelength - a.Wavelength)
	return a.Value + (b.Value-a.Value)*t
}

// At returns the complex index n + ik at temperature temp (kelvin) and
// wavelength wl (meters).
func (t *IORTable) At(temp, wl float64) (n, k float64, err error) {
	if e := t.closest(temp); e != nil {
		if lo, hi, ok := e.Range(); ok && wl >= lo && wl <= hi {
			return interpolate(e.N, wl), interpolate(e.K, wl), nil
		}
	}
	if l := t.Lorentz; l != nil && wl >= l.Min && wl <= l.Max {
		n, k = l.At(wl)
		return n, k, nil
	}
	return 0, 0, fmt.Errorf("%w: %g m at %g K", ErrNoIORData, wl, temp)
}

// At evaluates the oscillator sum at wavelength wl.
func (l *Lorentz) At(wl float64) (n, k float64) {
	w := 2 * math.Pi * speedOfLight / wl
	eps := complex(1, 0)
	for _, o := range l.Oscillators {
		eps += complex(o[0], 0) / complex(o[1]-w*w, -w*o[2])
	}
	abs, re := cmplx.Abs(eps), real(eps)
	return math.Sqrt(0.5 * (abs + re)), math.Sqrt(math.Max(0.5*(abs-re), 0))
}
