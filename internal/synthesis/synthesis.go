package synthesis

import (
	"fmt"
	"math"

	"github.com/apertura-data/beamlab/internal/excitation"
	"github.com/apertura-data/beamlab/internal/geometry"
	"github.com/apertura-data/beamlab/internal/units"
)

// Synthesize computes the excitation for a closed-form objective. The
// result is deterministic: same geometry, objective, and frequency always
// produce the same state. Phases come out canonicalized to (-pi, pi] and
// amplitudes normalized to a unit peak.
//
// PatternMatch objectives are iterative and need a simulation session; pass
// them to an optimize.Matcher instead.
func Synthesize(geom *geometry.Model, obj Objective, freqHz float64) (*excitation.State, error) {
	switch o := obj.(type) {
	case SteerToAngle:
		return steer(geom, o.ThetaDeg, freqHz)
	case SidelobeTarget:
		return chebyshev(geom, o, freqHz)
	case NullPlacement:
		return placeNulls(geom, o, freqHz)
	case PatternMatch:
		return nil, fmt.Errorf("pattern matching is iterative: use optimize.Matcher")
	default:
		return nil, fmt.Errorf("unknown objective %T", obj)
	}
}

// steer returns uniform amplitudes with the progressive phase shift that
// points the main beam at thetaDeg off broadside:
// phase(n) = -k * x_n * sin(theta0).
func steer(geom *geometry.Model, thetaDeg, freqHz float64) (*excitation.State, error) {
	k := units.Wavenumber(freqHz)
	sinTheta := math.Sin(units.DegToRad(thetaDeg))

	drives := make(map[string]excitation.Drive, geom.N())
	for n, elem := range geom.Elements {
		drives[elem.ID] = excitation.Drive{
			Amplitude: 1.0,
			Phase:     -k * geom.Position(n) * sinTheta,
		}
	}
	return excitation.New(drives)
}

// steeringPhases returns the per-index steering phase for an angle, shared
// by the taper and null synthesizers.
func steeringPhases(geom *geometry.Model, thetaDeg, freqHz float64) []float64 {
	k := units.Wavenumber(freqHz)
	sinTheta := math.Sin(units.DegToRad(thetaDeg))
	phases := make([]float64, geom.N())
	for n := range phases {
		phases[n] = -k * geom.Position(n) * sinTheta
	}
	return phases
}
