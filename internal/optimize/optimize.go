// Package optimize iterates excitations against a simulation backend to
// match a target azimuth pattern.
//
// This is the one place the core calls the external simulator repeatedly.
// Every evaluation routes through a backend.Session so revisited excitation
// states are served from cache instead of re-solving.
package optimize

import (
	"context"
	"fmt"
	"math"

	"github.com/apertura-data/beamlab/internal/backend"
	"github.com/apertura-data/beamlab/internal/excitation"
	"github.com/apertura-data/beamlab/internal/geometry"
	"github.com/apertura-data/beamlab/internal/monitoring"
	"github.com/apertura-data/beamlab/internal/synthesis"
)

// Outcome tags how a pattern-match run ended. It is a result, not an
// error: every outcome carries the best excitation found so far, and the
// caller decides whether a non-converged run is worth keeping.
type Outcome string

const (
	// OutcomeConverged means the cost dropped below the tolerance.
	OutcomeConverged Outcome = "converged"
	// OutcomeBudgetExhausted means the iteration budget ran out first.
	OutcomeBudgetExhausted Outcome = "budget_exhausted"
	// OutcomeStalled means the patience window passed with no improvement.
	OutcomeStalled Outcome = "stalled"
)

// Config tunes the pattern-match loop.
type Config struct {
	// MaxIterations bounds the number of coordinate-descent passes.
	MaxIterations int

	// CostTolerance is the normalized RMS error below which the run
	// converges.
	CostTolerance float64

	// Patience is the number of consecutive non-improving iterations
	// tolerated before the run is declared stalled.
	Patience int

	// AmplitudeStep and PhaseStep are the initial per-element perturbation
	// sizes (linear amplitude, radians). Steps halve whenever a full pass
	// accepts no move, down to MinStep.
	AmplitudeStep float64
	PhaseStep     float64
	MinStep       float64

	// Quantity is the far-field quantity sampled from the backend.
	Quantity string

	// CutThetaDeg fixes the azimuth cut compared against the target.
	CutThetaDeg float64

	// FreqTolHz bounds the nearest-frequency match during extraction.
	FreqTolHz float64
}

// DefaultConfig returns the standard loop settings.
func DefaultConfig() Config {
	return Config{
		MaxIterations: 100,
		CostTolerance: 1e-2,
		Patience:      10,
		AmplitudeStep: 0.25,
		PhaseStep:     math.Pi / 8,
		MinStep:       1e-3,
		Quantity:      "GainTotal",
		CutThetaDeg:   90,
		FreqTolHz:     1e6,
	}
}

// Result is the outcome of one pattern-match run.
type Result struct {
	Outcome    Outcome
	Best       *excitation.State
	Cost       float64
	Iterations int

	// History records the best cost after each iteration, starting with
	// the initial state's cost.
	History []float64
}

// Matcher runs pattern-match optimizations over one backend session.
type Matcher struct {
	session *backend.Session
	cfg     Config
}

// NewMatcher builds a Matcher. The session is shared infrastructure: other
// evaluation chains may use it concurrently and benefit from the same cache.
func NewMatcher(session *backend.Session, cfg Config) *Matcher {
	return &Matcher{session: session, cfg: cfg}
}

// Match searches for an excitation whose simulated azimuth cut tracks the
// target pattern, starting from initial (pass nil to start uniform).
//
// The loop is cancellable between iterations, never mid-call: on context
// cancellation the best state found so far is returned alongside the
// context's error, leaving the backend with a fully applied excitation.
func (m *Matcher) Match(ctx context.Context, geom *geometry.Model, obj synthesis.PatternMatch, freqHz float64, initial *excitation.State) (*Result, error) {
	target, err := normalizeTarget(obj)
	if err != nil {
		return nil, err
	}
	if initial == nil {
		initial = excitation.Uniform(geom)
	}
	if err := initial.ValidateAgainst(geom); err != nil {
		return nil, err
	}

	current := initial
	cost, err := m.cost(ctx, current, freqHz, target)
	if err != nil {
		return nil, err
	}
	res := &Result{Best: current, Cost: cost, History: []float64{cost}}

	ampStep := m.cfg.AmplitudeStep
	phaseStep := m.cfg.PhaseStep
	noImprove := 0

	for iter := 1; iter <= m.cfg.MaxIterations; iter++ {
		if res.Cost <= m.cfg.CostTolerance {
			res.Outcome = OutcomeConverged
			monitoring.Logf("[optimize] converged after %d iterations, cost=%.4g", res.Iterations, res.Cost)
			return finish(res), nil
		}
		if err := ctx.Err(); err != nil {
			return finish(res), err
		}

		improved, next, nextCost, err := m.pass(ctx, current, freqHz, target, ampStep, phaseStep)
		if err != nil {
			return finish(res), err
		}
		res.Iterations = iter
		if improved && nextCost < res.Cost {
			current = next
			res.Best = next
			res.Cost = nextCost
			noImprove = 0
		} else {
			noImprove++
			// The landscape may just be finer than the current steps.
			if ampStep > m.cfg.MinStep || phaseStep > m.cfg.MinStep {
				ampStep = math.Max(ampStep/2, m.cfg.MinStep)
				phaseStep = math.Max(phaseStep/2, m.cfg.MinStep)
			}
		}
		res.History = append(res.History, res.Cost)

		if iter%10 == 0 {
			monitoring.Logf("[optimize] iteration %d: cost=%.4g (amp step %.3g, phase step %.3g)", iter, res.Cost, ampStep, phaseStep)
		}

		if m.cfg.Patience > 0 && noImprove >= m.cfg.Patience {
			res.Outcome = OutcomeStalled
			monitoring.Logf("[optimize] stalled after %d iterations without improvement, cost=%.4g", noImprove, res.Cost)
			return finish(res), nil
		}
	}

	if res.Cost <= m.cfg.CostTolerance {
		res.Outcome = OutcomeConverged
		return finish(res), nil
	}
	res.Outcome = OutcomeBudgetExhausted
	monitoring.Logf("[optimize] budget of %d iterations exhausted, cost=%.4g", m.cfg.MaxIterations, res.Cost)
	return finish(res), nil
}

// finish rescales the best excitation to unit peak amplitude before it
// leaves the matcher. The descent steps are free to push amplitudes above
// 1.0 while searching (the cost normalizes by its own peak, so scale does
// not change the objective), but callers always receive a unit-peak state.
func finish(res *Result) *Result {
	res.Best = res.Best.NormalizedPeak()
	return res
}

// pass runs one coordinate-descent sweep: for each element, try amplitude
// and phase nudges in both directions and keep the best improving move.
func (m *Matcher) pass(ctx context.Context, current *excitation.State, freqHz float64, target *targetPattern, ampStep, phaseStep float64) (bool, *excitation.State, float64, error) {
	best := current
	bestCost, err := m.cost(ctx, current, freqHz, target)
	if err != nil {
		return false, nil, 0, err
	}
	improved := false

	for _, id := range current.IDs() {
		d, _ := best.Drive(id)
		candidates := []excitation.Drive{
			{Amplitude: d.Amplitude + ampStep, Phase: d.Phase},
			{Amplitude: math.Max(d.Amplitude-ampStep, 0), Phase: d.Phase},
			{Amplitude: d.Amplitude, Phase: d.Phase + phaseStep},
			{Amplitude: d.Amplitude, Phase: d.Phase - phaseStep},
		}
		for _, cand := range candidates {
			next, err := best.WithDrive(id, cand)
			if err != nil {
				return false, nil, 0, err
			}
			cost, err := m.cost(ctx, next, freqHz, target)
			if err != nil {
				return false, nil, 0, err
			}
			if cost < bestCost {
				best = next
				bestCost = cost
				improved = true
			}
		}
	}
	return improved, best, bestCost, nil
}

// cost evaluates the normalized RMS distance between the achieved cut and
// the target pattern.
func (m *Matcher) cost(ctx context.Context, state *excitation.State, freqHz float64, target *targetPattern) (float64, error) {
	ds, err := m.session.Evaluate(ctx, state, freqHz, m.cfg.Quantity)
	if err != nil {
		return 0, err
	}
	cut, err := ds.AzimuthCut(m.cfg.CutThetaDeg, freqHz, m.cfg.FreqTolHz)
	if err != nil {
		return 0, err
	}

	achieved := make([]float64, len(target.angles))
	var peak float64
	for i, a := range target.angles {
		achieved[i] = cut.ValueAt(a)
		if achieved[i] > peak {
			peak = achieved[i]
		}
	}
	if peak == 0 {
		peak = 1
	}
	var sum float64
	for i := range achieved {
		diff := achieved[i]/peak - target.values[i]
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(achieved))), nil
}

type targetPattern struct {
	angles []float64
	values []float64
}

// normalizeTarget validates the objective and scales the target to a unit
// peak so the cost compares shapes, not absolute gain.
func normalizeTarget(obj synthesis.PatternMatch) (*targetPattern, error) {
	if len(obj.TargetAngleDeg) == 0 || len(obj.TargetAngleDeg) != len(obj.TargetValue) {
		return nil, fmt.Errorf("pattern match target: need matching non-empty angle and value slices, got %d/%d",
			len(obj.TargetAngleDeg), len(obj.TargetValue))
	}
	var peak float64
	for _, v := range obj.TargetValue {
		if av := math.Abs(v); av > peak {
			peak = av
		}
	}
	if peak == 0 {
		return nil, fmt.Errorf("pattern match target: all-zero target has no normalizable peak")
	}
	values := make([]float64, len(obj.TargetValue))
	for i, v := range obj.TargetValue {
		values[i] = math.Abs(v) / peak
	}
	return &targetPattern{angles: obj.TargetAngleDeg, values: values}, nil
}
