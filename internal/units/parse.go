package units

import (
	"fmt"
	"strconv"
	"strings"
)

// Simulator design variables arrive as unit-suffixed strings ("1W", "0.5V",
// "90deg", "0.123rad", "2.4GHz"). These parsers are the only place such
// strings are interpreted; everything downstream works in canonical units.

// ParseAmplitude parses an amplitude string into a linear drive level.
// Accepted suffixes: "V" and "W" (taken at face value as the drive magnitude)
// or no suffix. Negative amplitudes are rejected.
func ParseAmplitude(s string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	for _, suffix := range []string{"V", "W", "v", "w"} {
		if strings.HasSuffix(trimmed, suffix) {
			trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, suffix))
			break
		}
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amplitude %q: %w", s, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("invalid amplitude %q: must be >= 0", s)
	}
	return v, nil
}

// ParsePhase parses a phase string into radians canonicalized to (-pi, pi].
// Accepted suffixes: "deg" and "rad"; a bare number is taken as radians.
func ParsePhase(s string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	lower := strings.ToLower(trimmed)
	switch {
	case strings.HasSuffix(lower, "deg"):
		v, err := strconv.ParseFloat(strings.TrimSpace(trimmed[:len(trimmed)-3]), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid phase %q: %w", s, err)
		}
		return WrapPhase(DegToRad(v)), nil
	case strings.HasSuffix(lower, "rad"):
		v, err := strconv.ParseFloat(strings.TrimSpace(trimmed[:len(trimmed)-3]), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid phase %q: %w", s, err)
		}
		return WrapPhase(v), nil
	default:
		v, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid phase %q: %w", s, err)
		}
		return WrapPhase(v), nil
	}
}

// ParseFrequency parses a frequency string into hertz. Accepted suffixes:
// "GHz", "MHz", "kHz", "Hz" (case-insensitive); a bare number is hertz.
func ParseFrequency(s string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	lower := strings.ToLower(trimmed)
	scale := 1.0
	cut := 0
	switch {
	case strings.HasSuffix(lower, "ghz"):
		scale, cut = 1e9, 3
	case strings.HasSuffix(lower, "mhz"):
		scale, cut = 1e6, 3
	case strings.HasSuffix(lower, "khz"):
		scale, cut = 1e3, 3
	case strings.HasSuffix(lower, "hz"):
		scale, cut = 1, 2
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(trimmed[:len(trimmed)-cut]), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frequency %q: %w", s, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("invalid frequency %q: must be > 0", s)
	}
	return v * scale, nil
}

// FormatAmplitude renders an amplitude as a simulator drive-variable string.
func FormatAmplitude(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64) + "V"
}

// FormatPhase renders a phase in radians as a simulator drive-variable string.
func FormatPhase(rad float64) string {
	return strconv.FormatFloat(rad, 'f', 3, 64) + "rad"
}
