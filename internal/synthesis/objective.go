// Package synthesis computes element excitations for beam-shaping
// objectives over a linear array geometry.
//
// Steering, sidelobe tapering, and null placement are closed form and never
// touch the simulator. Pattern matching is iterative and lives in
// internal/optimize; its objective variant is declared here so the objective
// set stays one tagged family.
package synthesis

import (
	"fmt"
	"math"

	"github.com/apertura-data/beamlab/internal/units"
)

// Objective is the tagged beam-shaping goal driving which synthesis
// algorithm runs. Variants are mutually exclusive; combining tapering with
// null placement routes through pattern matching instead.
type Objective interface {
	objective()
	String() string
}

// SteerToAngle points the main beam at an angle off broadside, in degrees.
// Pure phase control: amplitudes stay uniform.
type SteerToAngle struct {
	ThetaDeg float64
}

func (SteerToAngle) objective() {}

func (o SteerToAngle) String() string {
	return fmt.Sprintf("steer to %.2f deg", o.ThetaDeg)
}

// SidelobeTarget suppresses sidelobes to a level in dB relative to the main
// beam (negative, e.g. -30) with a Chebyshev amplitude taper. Phases follow
// SteerDeg; zero steers broadside.
type SidelobeTarget struct {
	LevelDB  float64
	SteerDeg float64
}

func (SidelobeTarget) objective() {}

func (o SidelobeTarget) String() string {
	return fmt.Sprintf("sidelobes at %.1f dB steered %.2f deg", o.LevelDB, o.SteerDeg)
}

// NullPlacement forces pattern nulls at the given angles off broadside
// while anchoring unity gain at MainBeamDeg.
type NullPlacement struct {
	NullsDeg    []float64
	MainBeamDeg float64
}

func (NullPlacement) objective() {}

func (o NullPlacement) String() string {
	return fmt.Sprintf("nulls at %v deg, main beam %.2f deg", o.NullsDeg, o.MainBeamDeg)
}

// PatternMatch asks for excitations whose simulated pattern tracks a target
// azimuth pattern. TargetAngleDeg and TargetValue are parallel slices of
// cut angles and linear target values; the target is normalized to unit
// peak before costing.
type PatternMatch struct {
	TargetAngleDeg []float64
	TargetValue    []float64
}

func (PatternMatch) objective() {}

func (o PatternMatch) String() string {
	return fmt.Sprintf("match %d-point target pattern", len(o.TargetValue))
}

// SectorTarget builds a flat-top match target: unit desired level within
// halfWidthDeg of centerDeg (a cut azimuth), zero elsewhere, sampled every
// stepDeg over the full circle.
func SectorTarget(centerDeg, halfWidthDeg, stepDeg float64) PatternMatch {
	if stepDeg <= 0 {
		stepDeg = 5
	}
	var obj PatternMatch
	for a := 0.0; a < 360.0; a += stepDeg {
		obj.TargetAngleDeg = append(obj.TargetAngleDeg, a)
		v := 0.0
		if math.Abs(units.WrapDeg180(a-centerDeg)) <= halfWidthDeg {
			v = 1.0
		}
		obj.TargetValue = append(obj.TargetValue, v)
	}
	return obj
}

// Error reports an infeasible or unsolvable synthesis objective.
type Error struct {
	Objective string
	Reason    string
	Detail    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("synthesis (%s): %s: %s", e.Objective, e.Reason, e.Detail)
}

// Failure reasons for synthesis.
const (
	ReasonInfeasibleSidelobe = "infeasible sidelobe level"
	ReasonOverConstrained    = "more nulls than degrees of freedom"
	ReasonSingularSystem     = "singular null constraint system"
)
