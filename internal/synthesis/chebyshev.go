package synthesis

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/apertura-data/beamlab/internal/excitation"
	"github.com/apertura-data/beamlab/internal/geometry"
)

// maxTaperRatio bounds the edge-to-center amplitude spread of a feasible
// taper. Deeper sidelobe targets than an array can express show up as
// runaway edge excitations; reject them instead of emitting a distribution
// no feed network could realize.
const maxTaperRatio = 1e6

// chebyshev computes a Dolph-Chebyshev amplitude taper for the requested
// sidelobe level, leaving phases at the steering phase for o.SteerDeg.
//
// Construction follows Schelkunoff: place the N-1 array-factor zeros where
// the order N-1 Chebyshev polynomial crosses zero, then expand the
// polynomial with those roots; its coefficients are the element amplitudes.
func chebyshev(geom *geometry.Model, o SidelobeTarget, freqHz float64) (*excitation.State, error) {
	n := geom.N()
	if o.LevelDB >= 0 {
		return nil, &Error{
			Objective: o.String(),
			Reason:    ReasonInfeasibleSidelobe,
			Detail:    fmt.Sprintf("sidelobe level must be negative dB relative to the peak, got %.1f", o.LevelDB),
		}
	}
	if n < 3 {
		return nil, &Error{
			Objective: o.String(),
			Reason:    ReasonInfeasibleSidelobe,
			Detail:    fmt.Sprintf("a %d-element array has no sidelobes to shape", n),
		}
	}

	// Main-to-sidelobe voltage ratio and the Chebyshev argument scale.
	r := math.Pow(10, -o.LevelDB/20)
	x0 := math.Cosh(math.Acosh(r) / float64(n-1))

	// Array-factor roots on the unit circle.
	roots := make([]complex128, n-1)
	for k := 1; k < n; k++ {
		xk := math.Cos(float64(2*k-1) * math.Pi / float64(2*(n-1)))
		psi := 2 * math.Acos(xk/x0)
		roots[k-1] = cmplx.Exp(complex(0, psi))
	}

	// Expand prod(z - z_k). Conjugate root pairs make the coefficients real.
	coeffs := make([]complex128, 1, n)
	coeffs[0] = 1
	for _, root := range roots {
		next := make([]complex128, len(coeffs)+1)
		for i, c := range coeffs {
			next[i] += c
			next[i+1] -= c * root
		}
		coeffs = next
	}

	amps := make([]float64, n)
	var peak float64
	for i, c := range coeffs {
		amps[i] = math.Abs(real(c))
		if amps[i] > peak {
			peak = amps[i]
		}
	}
	minAmp := math.Inf(1)
	for i := range amps {
		amps[i] /= peak
		if amps[i] < minAmp {
			minAmp = amps[i]
		}
	}
	if minAmp <= 0 || 1/minAmp > maxTaperRatio || math.IsNaN(minAmp) {
		return nil, &Error{
			Objective: o.String(),
			Reason:    ReasonInfeasibleSidelobe,
			Detail: fmt.Sprintf("%.1f dB sidelobes need an amplitude spread beyond %g:1 on %d elements",
				o.LevelDB, maxTaperRatio, n),
		}
	}

	phases := steeringPhases(geom, o.SteerDeg, freqHz)
	drives := make(map[string]excitation.Drive, n)
	for i, elem := range geom.Elements {
		drives[elem.ID] = excitation.Drive{Amplitude: amps[i], Phase: phases[i]}
	}
	return excitation.New(drives)
}
