// Package validate grades achieved beam metrics against design targets.
package validate

import (
	"fmt"
	"math"
)

// Grade is the qualitative band for an achieved metric.
type Grade string

const (
	// GradeExcellent indicates error within half the tolerance.
	GradeExcellent Grade = "excellent"
	// GradeGood indicates error within the tolerance.
	GradeGood Grade = "good"
	// GradeFair indicates error within twice the tolerance.
	GradeFair Grade = "fair"
	// GradePoor indicates error beyond twice the tolerance.
	GradePoor Grade = "poor"
)

// Grade band multipliers applied to the tolerance. These are design
// constants, not user-tunable, so grades stay comparable across sessions.
const (
	excellentFraction = 0.5
	goodFraction      = 1.0
	fairFraction      = 2.0
)

// Report compares one achieved metric against its target.
type Report struct {
	Metric    string  `json:"metric"`
	Achieved  float64 `json:"achieved"`
	Target    float64 `json:"target"`
	Error     float64 `json:"error"` // signed: achieved - target
	Tolerance float64 `json:"tolerance"`
	Grade     Grade   `json:"grade"`
	Pass      bool    `json:"pass"`
}

// Compare grades an achieved metric value against a target. Pass means the
// absolute error is within the tolerance (grade Good or better).
func Compare(metric string, achieved, target, tolerance float64) Report {
	err := achieved - target
	absErr := math.Abs(err)

	var grade Grade
	switch {
	case absErr <= tolerance*excellentFraction:
		grade = GradeExcellent
	case absErr <= tolerance*goodFraction:
		grade = GradeGood
	case absErr <= tolerance*fairFraction:
		grade = GradeFair
	default:
		grade = GradePoor
	}

	return Report{
		Metric:    metric,
		Achieved:  achieved,
		Target:    target,
		Error:     err,
		Tolerance: tolerance,
		Grade:     grade,
		Pass:      absErr <= tolerance,
	}
}

// String renders the report as a one-line human-readable summary.
func (r Report) String() string {
	status := "FAIL"
	if r.Pass {
		status = "PASS"
	}
	return fmt.Sprintf("%s: achieved %.4g, target %.4g (error %+.4g, tolerance %.4g) -> %s [%s]",
		r.Metric, r.Achieved, r.Target, r.Error, r.Tolerance, r.Grade, status)
}
