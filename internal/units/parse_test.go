package units

import (
	"math"
	"testing"
)

func TestParseAmplitude(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
		wantErr  bool
	}{
		{"volts suffix", "1.000V", 1.0, false},
		{"watts suffix", "2W", 2.0, false},
		{"bare number", "0.75", 0.75, false},
		{"whitespace", " 0.5 V ", 0.5, false},
		{"zero", "0V", 0, false},
		{"negative rejected", "-1V", 0, true},
		{"garbage rejected", "lots", 0, true},
		{"empty rejected", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmplitude(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAmplitude(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && math.Abs(got-tt.expected) > 1e-12 {
				t.Errorf("ParseAmplitude(%q) = %f, want %f", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParsePhase(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
		wantErr  bool
	}{
		{"degrees", "90deg", math.Pi / 2, false},
		{"radians", "0.123rad", 0.123, false},
		{"bare radians", "1.5", 1.5, false},
		{"negative degrees", "-90deg", -math.Pi / 2, false},
		{"wraps over pi", "270deg", -math.Pi / 2, false},
		{"garbage rejected", "ninety", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePhase(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePhase(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && math.Abs(got-tt.expected) > 1e-12 {
				t.Errorf("ParsePhase(%q) = %f, want %f", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
		wantErr  bool
	}{
		{"2.4GHz", 2.4e9, false},
		{"915MHz", 915e6, false},
		{"433kHz", 433e3, false},
		{"50Hz", 50, false},
		{"1000000", 1e6, false},
		{"0Hz", 0, true},
		{"-1GHz", 0, true},
		{"fast", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseFrequency(tt.input)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseFrequency(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if !tt.wantErr && math.Abs(got-tt.expected) > 1e-6 {
			t.Errorf("ParseFrequency(%q) = %f, want %f", tt.input, got, tt.expected)
		}
	}
}

func TestFormatRoundTrip(t *testing.T) {
	amp, err := ParseAmplitude(FormatAmplitude(0.625))
	if err != nil || math.Abs(amp-0.625) > 1e-3 {
		t.Errorf("amplitude round trip = %f, %v", amp, err)
	}
	ph, err := ParsePhase(FormatPhase(-1.234))
	if err != nil || math.Abs(ph-(-1.234)) > 1e-3 {
		t.Errorf("phase round trip = %f, %v", ph, err)
	}
}
