// Package units provides shared physical constants, angle conversions, and
// the unit-string parsing boundary for excitation values.
//
// All parsing of unit-suffixed strings ("1W", "30deg", "0.123rad") happens
// here. The synthesis and metrics packages operate on plain float64 values in
// canonical units: meters, hertz, radians, linear amplitude.
package units

import (
	"math"
)

// SpeedOfLight is the propagation speed used for wavelength and wavenumber
// calculations, in meters per second.
const SpeedOfLight = 2.99792458e8

// Wavelength returns the free-space wavelength in meters for a frequency in Hz.
func Wavelength(freqHz float64) float64 {
	return SpeedOfLight / freqHz
}

// Wavenumber returns k = 2*pi*f/c in radians per meter.
func Wavenumber(freqHz float64) float64 {
	return 2 * math.Pi * freqHz / SpeedOfLight
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

// phaseBoundaryEps absorbs rounding at the -pi branch cut: a phase that
// lands a hair above -pi is the same angle as +pi and must canonicalize
// there, or equal excitations hash differently.
const phaseBoundaryEps = 1e-9

// WrapPhase canonicalizes a phase in radians to the interval (-pi, pi].
func WrapPhase(rad float64) float64 {
	wrapped := math.Mod(rad, 2*math.Pi)
	if wrapped <= -math.Pi {
		wrapped += 2 * math.Pi
	} else if wrapped > math.Pi {
		wrapped -= 2 * math.Pi
	}
	if wrapped < -math.Pi+phaseBoundaryEps {
		return math.Pi
	}
	// Avoid returning -0 for inputs that are exact multiples of 2*pi.
	if wrapped == 0 {
		return 0
	}
	return wrapped
}

// WrapDeg360 canonicalizes an angle in degrees to [0, 360).
func WrapDeg360(deg float64) float64 {
	wrapped := math.Mod(deg, 360.0)
	if wrapped < 0 {
		wrapped += 360.0
	}
	if wrapped == 360.0 {
		return 0
	}
	return wrapped
}

// WrapDeg180 canonicalizes an angle in degrees to (-180, 180].
func WrapDeg180(deg float64) float64 {
	wrapped := math.Mod(deg, 360.0)
	if wrapped <= -180.0 {
		wrapped += 360.0
	} else if wrapped > 180.0 {
		wrapped -= 360.0
	}
	if wrapped == 0 {
		return 0
	}
	return wrapped
}

// ToDB converts a linear power quantity to decibels, clamping at floor to
// avoid -Inf for zero gain. A floor of -40 dB is conventional for pattern
// post-processing; pass a different floor to widen the dynamic range.
func ToDB(linear, floorDB float64) float64 {
	if linear <= 0 {
		return floorDB
	}
	db := 10 * math.Log10(linear)
	if db < floorDB {
		return floorDB
	}
	return db
}

// FromDB converts decibels back to a linear power quantity.
func FromDB(db float64) float64 {
	return math.Pow(10, db/10)
}
