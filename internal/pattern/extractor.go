package pattern

import (
	"fmt"
	"math"
	"sort"

	"github.com/apertura-data/beamlab/internal/units"
)

// RawSample is a far-field sample as delivered by a backend, in whatever
// angle convention the simulator uses. Theta may be negative or exceed 180
// degrees; phi may be negative.
type RawSample struct {
	FreqHz   float64
	ThetaDeg float64
	PhiDeg   float64
	Value    float64
}

// Normalize converts raw backend samples into a Dataset in the canonical
// convention. The angle-wrap transform is invertible: a sample with theta
// outside [0, 180] is folded across the pole (theta -> -theta or
// 360 - theta) with phi advanced by 180 degrees, and phi is then wrapped
// into [0, 360). Sample order follows frequency, then theta, then phi.
func Normalize(quantity string, raw []RawSample) *Dataset {
	samples := make([]Sample, 0, len(raw))
	for _, r := range raw {
		theta := math.Mod(r.ThetaDeg, 360.0)
		if theta < 0 {
			theta += 360.0
		}
		phi := r.PhiDeg
		if theta > 180.0 {
			theta = 360.0 - theta
			phi += 180.0
		}
		samples = append(samples, Sample{
			FreqHz:   r.FreqHz,
			ThetaDeg: theta,
			PhiDeg:   units.WrapDeg360(phi),
			Value:    r.Value,
		})
	}
	sort.Slice(samples, func(i, j int) bool {
		if samples[i].FreqHz != samples[j].FreqHz {
			return samples[i].FreqHz < samples[j].FreqHz
		}
		if samples[i].ThetaDeg != samples[j].ThetaDeg {
			return samples[i].ThetaDeg < samples[j].ThetaDeg
		}
		return samples[i].PhiDeg < samples[j].PhiDeg
	})
	return &Dataset{Quantity: quantity, Samples: samples}
}

// Cut is one angular slice of a dataset: ordered (angle, value) pairs over a
// full 0-360 degree sweep at a single frequency. Values stay linear; metrics
// convert to dB as needed.
type Cut struct {
	Quantity string
	FreqHz   float64

	// FixedAngleDeg is the held coordinate: theta for an azimuth cut, phi
	// for a polar cut.
	FixedAngleDeg float64

	// AngleDeg is strictly ascending in [0, 360).
	AngleDeg []float64
	Value    []float64
}

// angleMatchTolDeg absorbs grid jitter when selecting samples for a cut.
const angleMatchTolDeg = 1e-6

// AzimuthCut extracts the phi-varying cut at fixed theta. The requested
// frequency is resolved by nearest match within freqTol; phi samples come
// back sorted and wrapped, already covering the full circle.
func (d *Dataset) AzimuthCut(thetaDeg, freqHz, freqTol float64) (*Cut, error) {
	freq, err := d.SelectFrequency(freqHz, freqTol)
	if err != nil {
		return nil, err
	}
	cut := &Cut{Quantity: d.Quantity, FreqHz: freq, FixedAngleDeg: thetaDeg}
	for _, s := range d.AtFrequency(freq).Samples {
		if math.Abs(s.ThetaDeg-thetaDeg) <= angleMatchTolDeg {
			cut.AngleDeg = append(cut.AngleDeg, s.PhiDeg)
			cut.Value = append(cut.Value, s.Value)
		}
	}
	if len(cut.AngleDeg) == 0 {
		return nil, &Error{
			Reason: ReasonEmptyCut,
			Detail: fmt.Sprintf("no samples at theta=%.3f deg, frequency %.6g Hz", thetaDeg, freq),
		}
	}
	sortCut(cut)
	return cut, nil
}

// PolarCut extracts the theta-varying cut at fixed phi, mirrored across
// phi+180 to recover a full 0-360 degree slice: samples at phi map to angle
// theta, samples at phi+180 map to angle 360-theta.
func (d *Dataset) PolarCut(phiDeg, freqHz, freqTol float64) (*Cut, error) {
	freq, err := d.SelectFrequency(freqHz, freqTol)
	if err != nil {
		return nil, err
	}
	phi := units.WrapDeg360(phiDeg)
	mirror := units.WrapDeg360(phiDeg + 180.0)
	cut := &Cut{Quantity: d.Quantity, FreqHz: freq, FixedAngleDeg: phi}
	for _, s := range d.AtFrequency(freq).Samples {
		switch {
		case math.Abs(s.PhiDeg-phi) <= angleMatchTolDeg:
			cut.AngleDeg = append(cut.AngleDeg, s.ThetaDeg)
			cut.Value = append(cut.Value, s.Value)
		case math.Abs(s.PhiDeg-mirror) <= angleMatchTolDeg:
			// Skip the poles on the mirrored side so theta=0/180 are not
			// duplicated at angle 360/180.
			if s.ThetaDeg <= angleMatchTolDeg || s.ThetaDeg >= 180.0-angleMatchTolDeg {
				continue
			}
			cut.AngleDeg = append(cut.AngleDeg, units.WrapDeg360(360.0-s.ThetaDeg))
			cut.Value = append(cut.Value, s.Value)
		}
	}
	if len(cut.AngleDeg) == 0 {
		return nil, &Error{
			Reason: ReasonEmptyCut,
			Detail: fmt.Sprintf("no samples at phi=%.3f deg, frequency %.6g Hz", phi, freq),
		}
	}
	sortCut(cut)
	return cut, nil
}

func sortCut(c *Cut) {
	idx := make([]int, len(c.AngleDeg))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return c.AngleDeg[idx[i]] < c.AngleDeg[idx[j]] })
	angles := make([]float64, len(idx))
	values := make([]float64, len(idx))
	for i, k := range idx {
		angles[i] = c.AngleDeg[k]
		values[i] = c.Value[k]
	}
	c.AngleDeg = angles
	c.Value = values
}

// ValueAt linearly interpolates the cut's linear value at an arbitrary
// angle, treating the cut as circular (the last sample wraps to the first).
func (c *Cut) ValueAt(angleDeg float64) float64 {
	n := len(c.AngleDeg)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return c.Value[0]
	}
	a := units.WrapDeg360(angleDeg)
	// Find the bracketing pair.
	i := sort.SearchFloat64s(c.AngleDeg, a)
	if i < n && c.AngleDeg[i] == a {
		return c.Value[i]
	}
	lo, hi := i-1, i
	var span, frac float64
	if i == 0 || i == n {
		// Wraps between the last sample and the first.
		lo, hi = n-1, 0
		span = 360.0 - c.AngleDeg[lo] + c.AngleDeg[hi]
		if a >= c.AngleDeg[lo] {
			frac = (a - c.AngleDeg[lo]) / span
		} else {
			frac = (a + 360.0 - c.AngleDeg[lo]) / span
		}
	} else {
		span = c.AngleDeg[hi] - c.AngleDeg[lo]
		frac = (a - c.AngleDeg[lo]) / span
	}
	return c.Value[lo] + frac*(c.Value[hi]-c.Value[lo])
}
