// Package metrics derives beam figures of merit from a single pattern cut.
package metrics

import (
	"fmt"
	"math"

	"github.com/apertura-data/beamlab/internal/pattern"
	"github.com/apertura-data/beamlab/internal/units"
)

// Config tunes metric extraction.
type Config struct {
	// FloorDB clamps linear-to-dB conversion so zero gain stays finite.
	FloorDB float64

	// MainlobeWindowMultiplier scales the HPBW to form the main-lobe
	// exclusion window for sidelobe detection.
	MainlobeWindowMultiplier float64
}

// DefaultConfig returns the standard extraction settings.
func DefaultConfig() Config {
	return Config{
		FloorDB:                  -40.0,
		MainlobeWindowMultiplier: 2.0,
	}
}

// Error reports a metric that is undefined for the given pattern.
type Error struct {
	Metric string
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("metrics: %s undefined: %s", e.Metric, e.Detail)
}

// Beam summarizes one cut: peak direction and gain, half-power beamwidth,
// sidelobe level, and front-to-back ratio. SidelobeLevelDB is nil when no
// samples lie outside the main-lobe window (undefined, not zero).
type Beam struct {
	PeakAngleDeg    float64
	PeakGainDB      float64
	HPBWDeg         float64
	SidelobeLevelDB *float64
	FrontToBackDB   float64
}

// Calculator extracts metrics from cuts using fixed settings.
type Calculator struct {
	cfg Config
}

// NewCalculator builds a Calculator with the given settings.
func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// PeakGain returns the angle and gain (dB) of the maximum sample in the cut.
// Ties break toward the first occurrence in ascending angle order.
func (c *Calculator) PeakGain(cut *pattern.Cut) (angleDeg, gainDB float64, err error) {
	if len(cut.AngleDeg) == 0 {
		return 0, 0, &Error{Metric: "peak gain", Detail: "cut is empty"}
	}
	best := 0
	for i := 1; i < len(cut.Value); i++ {
		if cut.Value[i] > cut.Value[best] {
			best = i
		}
	}
	return cut.AngleDeg[best], units.ToDB(cut.Value[best], c.cfg.FloorDB), nil
}

// HPBW returns the half-power (3 dB) beamwidth in degrees: the angular
// distance between the two gain crossings of peak-3dB nearest the peak, one
// on each side, linearly interpolated between bracketing samples. Fails when
// the pattern never drops 3 dB below the peak within the cut.
func (c *Calculator) HPBW(cut *pattern.Cut) (float64, error) {
	peakAngle, peakDB, err := c.PeakGain(cut)
	if err != nil {
		return 0, err
	}
	left, right, err := c.halfPowerCrossings(cut, peakAngle, peakDB)
	if err != nil {
		return 0, err
	}
	width := units.WrapDeg360(right - left)
	return width, nil
}

// halfPowerCrossings walks outward from the peak in both directions and
// interpolates the angles where gain crosses peakDB-3.
func (c *Calculator) halfPowerCrossings(cut *pattern.Cut, peakAngle, peakDB float64) (leftDeg, rightDeg float64, err error) {
	threshold := peakDB - 3.0
	n := len(cut.AngleDeg)
	if n < 3 {
		return 0, 0, &Error{Metric: "HPBW", Detail: fmt.Sprintf("cut has only %d samples", n)}
	}

	peakIdx := 0
	for i, a := range cut.AngleDeg {
		if a == peakAngle {
			peakIdx = i
			break
		}
	}

	db := func(i int) float64 {
		return units.ToDB(cut.Value[mod(i, n)], c.cfg.FloorDB)
	}
	angle := func(i int) float64 {
		return cut.AngleDeg[mod(i, n)]
	}

	cross := func(step int) (float64, bool) {
		prev := peakIdx
		for off := 1; off < n; off++ {
			cur := peakIdx + step*off
			if db(cur) <= threshold {
				// Interpolate between prev (above) and cur (at/below).
				a0, g0 := angle(prev), db(prev)
				a1, g1 := angle(cur), db(cur)
				// Unwrap the segment across 0/360 if needed.
				if step > 0 && a1 < a0 {
					a1 += 360.0
				}
				if step < 0 && a1 > a0 {
					a1 -= 360.0
				}
				if g1 == g0 {
					return units.WrapDeg360(a1), true
				}
				frac := (g0 - threshold) / (g0 - g1)
				return units.WrapDeg360(a0 + frac*(a1-a0)), true
			}
			prev = cur
		}
		return 0, false
	}

	right, ok := cross(+1)
	if !ok {
		return 0, 0, &Error{
			Metric: "HPBW",
			Detail: fmt.Sprintf("pattern never drops 3 dB below the %.2f dB peak within the cut", peakDB),
		}
	}
	left, ok := cross(-1)
	if !ok {
		return 0, 0, &Error{
			Metric: "HPBW",
			Detail: fmt.Sprintf("pattern never drops 3 dB below the %.2f dB peak within the cut", peakDB),
		}
	}
	return left, right, nil
}

// SidelobeLevel returns the largest gain outside the main-lobe exclusion
// window, relative to the peak in dB (a negative number for any real
// pattern). The window is centered on the peak with total width
// HPBW * MainlobeWindowMultiplier. Returns nil when every sample falls
// inside the window: the sidelobe level is undefined, not zero.
func (c *Calculator) SidelobeLevel(cut *pattern.Cut) (*float64, error) {
	peakAngle, peakDB, err := c.PeakGain(cut)
	if err != nil {
		return nil, err
	}
	hpbw, err := c.HPBW(cut)
	if err != nil {
		return nil, err
	}
	halfWindow := hpbw * c.cfg.MainlobeWindowMultiplier / 2.0

	found := false
	best := math.Inf(-1)
	for i, a := range cut.AngleDeg {
		if angularDistance(a, peakAngle) <= halfWindow {
			continue
		}
		found = true
		if db := units.ToDB(cut.Value[i], c.cfg.FloorDB); db > best {
			best = db
		}
	}
	if !found {
		return nil, nil
	}
	rel := best - peakDB
	return &rel, nil
}

// FrontToBack returns the gain difference in dB between the peak direction
// and the direction 180 degrees away, interpolating when the back direction
// is not sampled exactly.
func (c *Calculator) FrontToBack(cut *pattern.Cut) (float64, error) {
	peakAngle, peakDB, err := c.PeakGain(cut)
	if err != nil {
		return 0, err
	}
	back := cut.ValueAt(peakAngle + 180.0)
	return peakDB - units.ToDB(back, c.cfg.FloorDB), nil
}

// Extract computes the full Beam summary for a cut. SidelobeLevelDB stays
// nil when undefined; HPBW failures propagate since the remaining metrics
// depend on it.
func (c *Calculator) Extract(cut *pattern.Cut) (*Beam, error) {
	peakAngle, peakDB, err := c.PeakGain(cut)
	if err != nil {
		return nil, err
	}
	hpbw, err := c.HPBW(cut)
	if err != nil {
		return nil, err
	}
	sll, err := c.SidelobeLevel(cut)
	if err != nil {
		return nil, err
	}
	fb, err := c.FrontToBack(cut)
	if err != nil {
		return nil, err
	}
	return &Beam{
		PeakAngleDeg:    peakAngle,
		PeakGainDB:      peakDB,
		HPBWDeg:         hpbw,
		SidelobeLevelDB: sll,
		FrontToBackDB:   fb,
	}, nil
}

// angularDistance returns the shortest circular distance between two angles
// in degrees, in [0, 180].
func angularDistance(a, b float64) float64 {
	d := math.Abs(units.WrapDeg180(a - b))
	return d
}

func mod(i, n int) int {
	m := i % n
	if m < 0 {
		m += n
	}
	return m
}
