// Package pattern normalizes raw far-field samples returned by a simulation
// backend into a queryable dataset with one canonical angle convention:
// theta in [0, 180] degrees, phi in [0, 360) degrees.
package pattern

import (
	"fmt"
	"math"
	"sort"
)

// Sample is a single far-field measurement: a real-valued linear quantity
// (such as total gain) at one frequency and direction.
type Sample struct {
	FreqHz   float64
	ThetaDeg float64 // polar angle, [0, 180]
	PhiDeg   float64 // azimuth angle, [0, 360)
	Value    float64 // linear scale
}

// Dataset is an ordered set of samples over a frequency-by-angle grid. All
// samples share one quantity definition. Datasets are built once per
// extraction and never mutated; slicing produces new views.
type Dataset struct {
	Quantity string
	Samples  []Sample
}

// Error reports a failed dataset query with enough context to render an
// actionable message.
type Error struct {
	Reason string
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("pattern: %s: %s", e.Reason, e.Detail)
}

// Failure reasons for dataset queries.
const (
	ReasonNoSamples               = "no samples"
	ReasonFrequencyOutOfTolerance = "no frequency within tolerance"
	ReasonEmptyCut                = "cut selects no samples"
)

// Frequencies returns the distinct sample frequencies in ascending order.
func (d *Dataset) Frequencies() []float64 {
	seen := make(map[float64]bool)
	var freqs []float64
	for _, s := range d.Samples {
		if !seen[s.FreqHz] {
			seen[s.FreqHz] = true
			freqs = append(freqs, s.FreqHz)
		}
	}
	sort.Float64s(freqs)
	return freqs
}

// SelectFrequency returns the sampled frequency nearest to want. There is no
// interpolation across frequency: if the nearest sample is further than tol
// away, the query fails.
func (d *Dataset) SelectFrequency(want, tol float64) (float64, error) {
	freqs := d.Frequencies()
	if len(freqs) == 0 {
		return 0, &Error{Reason: ReasonNoSamples, Detail: "dataset is empty"}
	}
	best := freqs[0]
	for _, f := range freqs[1:] {
		if math.Abs(f-want) < math.Abs(best-want) {
			best = f
		}
	}
	if math.Abs(best-want) > tol {
		return 0, &Error{
			Reason: ReasonFrequencyOutOfTolerance,
			Detail: fmt.Sprintf("nearest sampled frequency %.6g Hz is %.6g Hz from requested %.6g Hz (tolerance %.6g Hz)",
				best, math.Abs(best-want), want, tol),
		}
	}
	return best, nil
}

// AtFrequency returns a view containing only samples at exactly freqHz.
func (d *Dataset) AtFrequency(freqHz float64) *Dataset {
	out := &Dataset{Quantity: d.Quantity}
	for _, s := range d.Samples {
		if s.FreqHz == freqHz {
			out.Samples = append(out.Samples, s)
		}
	}
	return out
}
