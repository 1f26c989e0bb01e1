package backend

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"
	"sync"

	"github.com/apertura-data/beamlab/internal/excitation"
	"github.com/apertura-data/beamlab/internal/geometry"
	"github.com/apertura-data/beamlab/internal/pattern"
	"github.com/apertura-data/beamlab/internal/units"
)

// ArrayFactor is a deterministic in-process backend that computes the ideal
// array factor of a linear array instead of running a field solver. It
// stands in for the real simulator in tests, sweeps, and the CLI.
//
// The simulated far field is the azimuth cut at theta=90 with the array
// broadside at phi=90: gain(phi) = |sum a_n exp(j(k x_n sin(phi-90) +
// p_n))|^2, sampled on a uniform phi grid in the simulator-native
// (-180, 180] convention.
type ArrayFactor struct {
	geom    *geometry.Model
	stepDeg float64

	mu          sync.Mutex
	applied     *excitation.State
	applyCalls  int
	sampleCalls int
}

// NewArrayFactor builds a double for the given geometry with the given
// azimuth sampling step in degrees.
func NewArrayFactor(geom *geometry.Model, stepDeg float64) *ArrayFactor {
	if stepDeg <= 0 {
		stepDeg = 5.0
	}
	return &ArrayFactor{geom: geom, stepDeg: stepDeg}
}

// BroadsidePhiDeg is the azimuth of the array's broadside direction in the
// double's coordinate convention.
const BroadsidePhiDeg = 90.0

// Apply validates the excitation against the geometry and stores it as the
// live drive state. Structural mismatches fail fast.
func (a *ArrayFactor) Apply(_ context.Context, state *excitation.State) error {
	if err := state.ValidateAgainst(a.geom); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.applied = state
	a.applyCalls++
	return nil
}

// SamplePattern computes the array factor for the applied excitation.
func (a *ArrayFactor) SamplePattern(_ context.Context, freqHz float64, _ string) ([]pattern.RawSample, error) {
	a.mu.Lock()
	state := a.applied
	a.sampleCalls++
	a.mu.Unlock()

	if state == nil {
		return nil, fmt.Errorf("no excitation applied to design")
	}
	if freqHz <= 0 {
		return nil, fmt.Errorf("invalid frequency %g Hz", freqHz)
	}

	k := units.Wavenumber(freqHz)
	var raw []pattern.RawSample
	for phi := -180.0 + a.stepDeg; phi <= 180.0+1e-9; phi += a.stepDeg {
		psi := units.DegToRad(phi - BroadsidePhiDeg)
		var sum complex128
		for n, elem := range a.geom.Elements {
			d, _ := state.Drive(elem.ID)
			amp := d.Amplitude
			// Real drives never go fully silent; mirror that here.
			if amp < excitation.MinAmplitude {
				amp = excitation.MinAmplitude
			}
			arg := k*a.geom.Position(n)*math.Sin(psi) + d.Phase
			sum += complex(amp, 0) * cmplx.Exp(complex(0, arg))
		}
		gain := real(sum)*real(sum) + imag(sum)*imag(sum)
		raw = append(raw, pattern.RawSample{
			FreqHz:   freqHz,
			ThetaDeg: 90,
			PhiDeg:   phi,
			Value:    gain,
		})
	}
	return raw, nil
}

// ApplyCalls reports how many times Apply has run, for cache tests.
func (a *ArrayFactor) ApplyCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.applyCalls
}

// SampleCalls reports how many times SamplePattern has run.
func (a *ArrayFactor) SampleCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sampleCalls
}
