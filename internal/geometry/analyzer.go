package geometry

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// AnalyzerConfig tunes the collinearity and spacing checks.
type AnalyzerConfig struct {
	// CollinearTolerance is the maximum allowed off-axis distance of any
	// element, in meters.
	CollinearTolerance float64

	// SpacingDeviationRatio is the maximum allowed |gap - mean| / mean
	// across consecutive gaps.
	SpacingDeviationRatio float64

	// OrderingTolerance is the minimum projected separation, in meters,
	// below which two elements are considered tied (an error, not an
	// arbitrary pick).
	OrderingTolerance float64
}

// DefaultAnalyzerConfig returns the standard tolerances.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		CollinearTolerance:    1e-4,
		SpacingDeviationRatio: 0.05,
		OrderingTolerance:     1e-6,
	}
}

// Analyze infers a linear array Model from an unordered set of element
// positions. The principal axis is the dominant eigenvector of the position
// covariance matrix, so the array may lie along any orientation in space.
// Returns *Error when the elements cannot form a valid uniform linear array.
func Analyze(elements []ElementPosition, cfg AnalyzerConfig) (*Model, error) {
	if len(elements) < 2 {
		return nil, &Error{
			Reason: ReasonTooFewElements,
			Detail: fmt.Sprintf("need at least 2 elements, got %d", len(elements)),
		}
	}

	seen := make(map[string]bool, len(elements))
	for _, e := range elements {
		if seen[e.ID] {
			return nil, &Error{
				Reason:   ReasonDuplicateID,
				Elements: []string{e.ID},
				Detail:   "element identifiers must be unique within a design",
			}
		}
		seen[e.ID] = true
	}

	// Centroid of all element positions.
	var cx, cy, cz float64
	for _, e := range elements {
		cx += e.X
		cy += e.Y
		cz += e.Z
	}
	n := float64(len(elements))
	cx, cy, cz = cx/n, cy/n, cz/n

	// 3x3 position covariance. The dominant eigenvector is the direction of
	// maximum positional variance, i.e. the array axis.
	var cov [3][3]float64
	for _, e := range elements {
		d := [3]float64{e.X - cx, e.Y - cy, e.Z - cz}
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				cov[i][j] += d[i] * d[j] / n
			}
		}
	}
	sym := mat.NewSymDense(3, []float64{
		cov[0][0], cov[0][1], cov[0][2],
		cov[0][1], cov[1][1], cov[1][2],
		cov[0][2], cov[1][2], cov[2][2],
	})

	var eig mat.EigenSym
	if ok := eig.Factorize(sym, true); !ok {
		return nil, &Error{
			Reason: ReasonNotCollinear,
			Detail: "covariance eigendecomposition failed",
		}
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// EigenSym returns eigenvalues in ascending order; the axis is the last.
	axisIdx := len(vals) - 1
	if vals[axisIdx] <= 0 {
		return nil, &Error{
			Reason: ReasonTooFewElements,
			Detail: "all elements are co-located",
		}
	}
	axis := [3]float64{vecs.At(0, axisIdx), vecs.At(1, axisIdx), vecs.At(2, axisIdx)}

	// Orient the axis so projections increase with the first differing
	// coordinate, keeping the ordering deterministic across eigensolver
	// sign conventions.
	if axis[0] < 0 || (axis[0] == 0 && axis[1] < 0) || (axis[0] == 0 && axis[1] == 0 && axis[2] < 0) {
		axis[0], axis[1], axis[2] = -axis[0], -axis[1], -axis[2]
	}

	// Project onto the axis and check every element sits on it.
	type projected struct {
		elem ElementPosition
		t    float64
	}
	projs := make([]projected, len(elements))
	for i, e := range elements {
		d := [3]float64{e.X - cx, e.Y - cy, e.Z - cz}
		t := d[0]*axis[0] + d[1]*axis[1] + d[2]*axis[2]
		offAxis := math.Sqrt(
			(d[0]-t*axis[0])*(d[0]-t*axis[0]) +
				(d[1]-t*axis[1])*(d[1]-t*axis[1]) +
				(d[2]-t*axis[2])*(d[2]-t*axis[2]))
		if offAxis > cfg.CollinearTolerance {
			return nil, &Error{
				Reason:   ReasonNotCollinear,
				Elements: []string{e.ID},
				Detail:   fmt.Sprintf("element is %.3g m off the principal axis (tolerance %.3g m)", offAxis, cfg.CollinearTolerance),
			}
		}
		projs[i] = projected{elem: e, t: t}
	}

	sort.Slice(projs, func(i, j int) bool { return projs[i].t < projs[j].t })

	// Ties in projected position mean the physical ordering is undefined.
	for i := 1; i < len(projs); i++ {
		if projs[i].t-projs[i-1].t < cfg.OrderingTolerance {
			return nil, &Error{
				Reason:   ReasonAmbiguousOrdering,
				Elements: []string{projs[i-1].elem.ID, projs[i].elem.ID},
				Detail:   fmt.Sprintf("projected positions differ by less than %.3g m", cfg.OrderingTolerance),
			}
		}
	}

	ordered := make([]ElementPosition, len(projs))
	positions := make([]float64, len(projs))
	for i, p := range projs {
		ordered[i] = p.elem
		positions[i] = p.t - projs[0].t
	}

	// Consecutive gaps; the array is assumed near-uniform.
	gaps := make([]float64, len(positions)-1)
	var mean float64
	for i := range gaps {
		gaps[i] = positions[i+1] - positions[i]
		mean += gaps[i]
	}
	mean /= float64(len(gaps))

	var maxDev float64
	for i, g := range gaps {
		dev := math.Abs(g - mean)
		if dev > maxDev {
			maxDev = dev
		}
		if dev/mean > cfg.SpacingDeviationRatio {
			return nil, &Error{
				Reason:   ReasonNonUniformSpacing,
				Elements: []string{ordered[i].ID, ordered[i+1].ID},
				Detail: fmt.Sprintf("gap %.4g m deviates %.1f%% from mean spacing %.4g m (max %.1f%%)",
					g, 100*dev/mean, mean, 100*cfg.SpacingDeviationRatio),
			}
		}
	}

	return &Model{
		Elements:            ordered,
		Axis:                axis,
		Projections:         positions,
		SpacingMean:         mean,
		SpacingMaxDeviation: maxDev,
	}, nil
}
