package units

import (
	"math"
	"testing"
)

func TestWrapPhase(t *testing.T) {
	tests := []struct {
		name     string
		rad      float64
		expected float64
	}{
		{"zero stays zero", 0, 0},
		{"pi stays pi", math.Pi, math.Pi},
		{"-pi wraps to pi", -math.Pi, math.Pi},
		{"just above -pi snaps to pi", -math.Pi + 1e-15, math.Pi},
		{"rounding below -pi snaps to pi", math.Nextafter(-math.Pi, -4), math.Pi},
		{"2pi wraps to zero", 2 * math.Pi, 0},
		{"-2pi wraps to zero", -2 * math.Pi, 0},
		{"3pi/2 wraps to -pi/2", 3 * math.Pi / 2, -math.Pi / 2},
		{"-3pi/2 wraps to pi/2", -3 * math.Pi / 2, math.Pi / 2},
		{"5pi wraps to pi", 5 * math.Pi, math.Pi},
		{"small positive unchanged", 0.25, 0.25},
		{"small negative unchanged", -0.25, -0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := WrapPhase(tt.rad)
			if math.Abs(result-tt.expected) > 1e-12 {
				t.Errorf("WrapPhase(%f) = %f, want %f", tt.rad, result, tt.expected)
			}
		})
	}
}

func TestWrapDeg360(t *testing.T) {
	tests := []struct {
		deg      float64
		expected float64
	}{
		{0, 0},
		{360, 0},
		{-90, 270},
		{450, 90},
		{-360, 0},
		{359.5, 359.5},
	}

	for _, tt := range tests {
		result := WrapDeg360(tt.deg)
		if math.Abs(result-tt.expected) > 1e-12 {
			t.Errorf("WrapDeg360(%f) = %f, want %f", tt.deg, result, tt.expected)
		}
	}
}

func TestWrapDeg180(t *testing.T) {
	tests := []struct {
		deg      float64
		expected float64
	}{
		{0, 0},
		{180, 180},
		{-180, 180},
		{270, -90},
		{-270, 90},
		{540, 180},
	}

	for _, tt := range tests {
		result := WrapDeg180(tt.deg)
		if math.Abs(result-tt.expected) > 1e-12 {
			t.Errorf("WrapDeg180(%f) = %f, want %f", tt.deg, result, tt.expected)
		}
	}
}

func TestToDB(t *testing.T) {
	if got := ToDB(1.0, -40); got != 0 {
		t.Errorf("ToDB(1.0) = %f, want 0", got)
	}
	if got := ToDB(0, -40); got != -40 {
		t.Errorf("ToDB(0) = %f, want floor -40", got)
	}
	if got := ToDB(1e-10, -40); got != -40 {
		t.Errorf("ToDB(1e-10) = %f, want floor -40", got)
	}
	if got := ToDB(0.5, -40); math.Abs(got-(-3.0103)) > 0.001 {
		t.Errorf("ToDB(0.5) = %f, want -3.0103", got)
	}
}

func TestWavelength(t *testing.T) {
	// 2.4 GHz is roughly 12.5 cm.
	lambda := Wavelength(2.4e9)
	if math.Abs(lambda-0.12491) > 0.001 {
		t.Errorf("Wavelength(2.4GHz) = %f, want ~0.125", lambda)
	}
}

func TestWavenumberRoundTrip(t *testing.T) {
	freq := 2.4e9
	k := Wavenumber(freq)
	if math.Abs(k*Wavelength(freq)-2*math.Pi) > 1e-9 {
		t.Errorf("k*lambda = %f, want 2*pi", k*Wavelength(freq))
	}
}
