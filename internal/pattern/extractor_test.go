package pattern

import (
	"errors"
	"math"
	"testing"
)

func TestNormalizeWrapsAngles(t *testing.T) {
	tests := []struct {
		name      string
		raw       RawSample
		wantTheta float64
		wantPhi   float64
	}{
		{"already canonical", RawSample{ThetaDeg: 90, PhiDeg: 45}, 90, 45},
		{"negative phi wraps", RawSample{ThetaDeg: 90, PhiDeg: -90}, 90, 270},
		{"negative theta folds across pole", RawSample{ThetaDeg: -30, PhiDeg: 0}, 30, 180},
		{"theta past 180 folds", RawSample{ThetaDeg: 200, PhiDeg: 10}, 160, 190},
		{"phi 360 wraps to zero", RawSample{ThetaDeg: 90, PhiDeg: 360}, 90, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := Normalize("GainTotal", []RawSample{tt.raw})
			s := ds.Samples[0]
			if math.Abs(s.ThetaDeg-tt.wantTheta) > 1e-9 || math.Abs(s.PhiDeg-tt.wantPhi) > 1e-9 {
				t.Errorf("got (theta=%f, phi=%f), want (%f, %f)", s.ThetaDeg, s.PhiDeg, tt.wantTheta, tt.wantPhi)
			}
		})
	}
}

func TestNormalizeOrdersSamples(t *testing.T) {
	raw := []RawSample{
		{FreqHz: 2e9, ThetaDeg: 90, PhiDeg: 270},
		{FreqHz: 1e9, ThetaDeg: 90, PhiDeg: 10},
		{FreqHz: 2e9, ThetaDeg: 90, PhiDeg: 5},
	}
	ds := Normalize("GainTotal", raw)
	if ds.Samples[0].FreqHz != 1e9 {
		t.Errorf("samples not ordered by frequency first")
	}
	if ds.Samples[1].PhiDeg != 5 || ds.Samples[2].PhiDeg != 270 {
		t.Errorf("samples not ordered by phi within a frequency")
	}
}

func TestSelectFrequency(t *testing.T) {
	ds := Normalize("GainTotal", []RawSample{
		{FreqHz: 1.0e9, ThetaDeg: 90, PhiDeg: 0, Value: 1},
		{FreqHz: 2.4e9, ThetaDeg: 90, PhiDeg: 0, Value: 1},
	})

	t.Run("nearest within tolerance", func(t *testing.T) {
		f, err := ds.SelectFrequency(2.39e9, 0.05e9)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f != 2.4e9 {
			t.Errorf("selected %g, want 2.4e9", f)
		}
	})

	t.Run("outside tolerance fails", func(t *testing.T) {
		_, err := ds.SelectFrequency(1.5e9, 0.1e9)
		var perr *Error
		if !errors.As(err, &perr) {
			t.Fatalf("expected *Error, got %v", err)
		}
		if perr.Reason != ReasonFrequencyOutOfTolerance {
			t.Errorf("reason = %s, want %s", perr.Reason, ReasonFrequencyOutOfTolerance)
		}
	})

	t.Run("empty dataset fails", func(t *testing.T) {
		empty := &Dataset{Quantity: "GainTotal"}
		_, err := empty.SelectFrequency(1e9, 1e9)
		var perr *Error
		if !errors.As(err, &perr) {
			t.Fatalf("expected *Error, got %v", err)
		}
		if perr.Reason != ReasonNoSamples {
			t.Errorf("reason = %s, want %s", perr.Reason, ReasonNoSamples)
		}
	})
}

func TestAzimuthCut(t *testing.T) {
	var raw []RawSample
	for phi := -180.0; phi < 180.0; phi += 10.0 {
		raw = append(raw, RawSample{FreqHz: 2.4e9, ThetaDeg: 90, PhiDeg: phi, Value: 1 + math.Cos(phi*math.Pi/180)})
		raw = append(raw, RawSample{FreqHz: 2.4e9, ThetaDeg: 45, PhiDeg: phi, Value: 99})
	}
	ds := Normalize("GainTotal", raw)

	cut, err := ds.AzimuthCut(90, 2.4e9, 1e6)
	if err != nil {
		t.Fatalf("AzimuthCut failed: %v", err)
	}
	if len(cut.AngleDeg) != 36 {
		t.Fatalf("cut has %d samples, want 36", len(cut.AngleDeg))
	}
	// Angles sorted, wrapped to [0, 360), and theta=45 samples excluded.
	for i, a := range cut.AngleDeg {
		if a < 0 || a >= 360 {
			t.Errorf("angle %f out of [0, 360)", a)
		}
		if i > 0 && a <= cut.AngleDeg[i-1] {
			t.Errorf("angles not strictly ascending at %d", i)
		}
	}
	for _, v := range cut.Value {
		if v == 99 {
			t.Errorf("cut leaked a sample from the wrong theta")
		}
	}
}

func TestPolarCutMirrors(t *testing.T) {
	var raw []RawSample
	for theta := 0.0; theta <= 180.0; theta += 10.0 {
		raw = append(raw, RawSample{FreqHz: 1e9, ThetaDeg: theta, PhiDeg: 0, Value: theta})
		raw = append(raw, RawSample{FreqHz: 1e9, ThetaDeg: theta, PhiDeg: 180, Value: 1000 + theta})
	}
	ds := Normalize("GainTotal", raw)

	cut, err := ds.PolarCut(0, 1e9, 1e6)
	if err != nil {
		t.Fatalf("PolarCut failed: %v", err)
	}

	// 19 samples at phi=0 (theta 0..180) plus 17 mirrored (poles excluded).
	if len(cut.AngleDeg) != 36 {
		t.Fatalf("cut has %d samples, want 36", len(cut.AngleDeg))
	}

	// Angle 350 must come from the mirrored side: theta=10 at phi=180.
	v := cut.ValueAt(350)
	if math.Abs(v-1010) > 1e-9 {
		t.Errorf("ValueAt(350) = %f, want 1010", v)
	}
	// Angle 90 comes straight from phi=0.
	if v := cut.ValueAt(90); math.Abs(v-90) > 1e-9 {
		t.Errorf("ValueAt(90) = %f, want 90", v)
	}
}

func TestValueAtInterpolates(t *testing.T) {
	cut := &Cut{
		AngleDeg: []float64{0, 90, 180, 270},
		Value:    []float64{1, 2, 3, 4},
	}

	if v := cut.ValueAt(45); math.Abs(v-1.5) > 1e-12 {
		t.Errorf("ValueAt(45) = %f, want 1.5", v)
	}
	if v := cut.ValueAt(90); v != 2 {
		t.Errorf("ValueAt(90) = %f, want 2", v)
	}
	// Wrap segment 270 -> 0(+360): halfway at 315 is (4+1)/2.
	if v := cut.ValueAt(315); math.Abs(v-2.5) > 1e-12 {
		t.Errorf("ValueAt(315) = %f, want 2.5", v)
	}
	// Negative input wraps.
	if v := cut.ValueAt(-45); math.Abs(v-2.5) > 1e-12 {
		t.Errorf("ValueAt(-45) = %f, want 2.5", v)
	}
}
