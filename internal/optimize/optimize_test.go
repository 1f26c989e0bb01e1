package optimize

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/apertura-data/beamlab/internal/backend"
	"github.com/apertura-data/beamlab/internal/excitation"
	"github.com/apertura-data/beamlab/internal/geometry"
	"github.com/apertura-data/beamlab/internal/synthesis"
	"github.com/apertura-data/beamlab/internal/units"
)

const testFreq = 2.4e9

func halfWaveArray(t *testing.T, n int) *geometry.Model {
	t.Helper()
	spacing := units.Wavelength(testFreq) / 2
	elems := make([]geometry.ElementPosition, n)
	for i := 0; i < n; i++ {
		elems[i] = geometry.ElementPosition{ID: "e" + string(rune('0'+i)), Y: float64(i) * spacing}
	}
	model, err := geometry.Analyze(elems, geometry.DefaultAnalyzerConfig())
	require.NoError(t, err)
	return model
}

// naturalTarget samples the uniform excitation's own pattern as the target.
func naturalTarget(t *testing.T, session *backend.Session, geom *geometry.Model) synthesis.PatternMatch {
	t.Helper()
	ds, err := session.Evaluate(context.Background(), excitation.Uniform(geom), testFreq, "GainTotal")
	require.NoError(t, err)
	cut, err := ds.AzimuthCut(90, testFreq, 1e6)
	require.NoError(t, err)
	return synthesis.PatternMatch{
		TargetAngleDeg: append([]float64(nil), cut.AngleDeg...),
		TargetValue:    append([]float64(nil), cut.Value...),
	}
}

func TestMatchConvergesOnNaturalPattern(t *testing.T) {
	geom := halfWaveArray(t, 5)
	session := backend.NewSession(backend.NewArrayFactor(geom, 5.0))
	matcher := NewMatcher(session, DefaultConfig())

	// The starting guess is already optimal, so convergence must be
	// immediate: well inside a 5-iteration budget.
	res, err := matcher.Match(context.Background(), geom, naturalTarget(t, session, geom), testFreq, nil)
	require.NoError(t, err)

	require.Equal(t, OutcomeConverged, res.Outcome)
	require.LessOrEqual(t, res.Iterations, 5)
	require.Less(t, res.Cost, DefaultConfig().CostTolerance)
	require.NotNil(t, res.Best)
}

func TestMatchBudgetExhausted(t *testing.T) {
	geom := halfWaveArray(t, 5)
	session := backend.NewSession(backend.NewArrayFactor(geom, 5.0))

	cfg := DefaultConfig()
	cfg.MaxIterations = 2
	cfg.CostTolerance = 1e-9
	matcher := NewMatcher(session, cfg)

	// Rectangular flat-top target (the classic +-45 degree sector): not
	// reachable in two iterations.
	obj := synthesis.SectorTarget(backend.BroadsidePhiDeg, 45, 5)

	res, err := matcher.Match(context.Background(), geom, obj, testFreq, nil)
	require.NoError(t, err)

	require.Equal(t, OutcomeBudgetExhausted, res.Outcome)
	require.Equal(t, 2, res.Iterations)
	require.NotNil(t, res.Best)
	// History records the initial cost plus one entry per iteration.
	require.Len(t, res.History, 3)
	// Best cost never increases across the run.
	for i := 1; i < len(res.History); i++ {
		require.LessOrEqual(t, res.History[i], res.History[i-1])
	}
}

func TestMatchReturnsUnitPeakAmplitudes(t *testing.T) {
	geom := halfWaveArray(t, 5)
	session := backend.NewSession(backend.NewArrayFactor(geom, 5.0))

	cfg := DefaultConfig()
	cfg.MaxIterations = 20
	cfg.CostTolerance = 1e-9
	matcher := NewMatcher(session, cfg)

	// A sector target keeps the descent busy for the full budget, with
	// plenty of upward amplitude nudges along the way. The returned state
	// must still be rescaled to a peak of exactly 1.0.
	obj := synthesis.SectorTarget(backend.BroadsidePhiDeg, 45, 5)

	res, err := matcher.Match(context.Background(), geom, obj, testFreq, nil)
	require.NoError(t, err)
	require.NotNil(t, res.Best)

	peak := 0.0
	for _, id := range res.Best.IDs() {
		d, ok := res.Best.Drive(id)
		require.True(t, ok)
		peak = math.Max(peak, d.Amplitude)
	}
	require.InDelta(t, 1.0, peak, 1e-12)
}

func TestMatchImprovesTowardTarget(t *testing.T) {
	geom := halfWaveArray(t, 5)
	session := backend.NewSession(backend.NewArrayFactor(geom, 5.0))

	// Target: the pattern of a beam steered 20 degrees, starting uniform.
	steered, err := synthesis.Synthesize(geom, synthesis.SteerToAngle{ThetaDeg: 20}, testFreq)
	require.NoError(t, err)
	ds, err := session.Evaluate(context.Background(), steered, testFreq, "GainTotal")
	require.NoError(t, err)
	cut, err := ds.AzimuthCut(90, testFreq, 1e6)
	require.NoError(t, err)
	obj := synthesis.PatternMatch{TargetAngleDeg: cut.AngleDeg, TargetValue: cut.Value}

	cfg := DefaultConfig()
	cfg.MaxIterations = 30
	matcher := NewMatcher(session, cfg)

	res, err := matcher.Match(context.Background(), geom, obj, testFreq, nil)
	require.NoError(t, err)

	// Whatever the outcome, the optimizer must have improved on the
	// uniform starting cost.
	require.Less(t, res.Cost, res.History[0])
}

func TestMatchStallsWhenNoMoveHelps(t *testing.T) {
	geom := halfWaveArray(t, 3)
	session := backend.NewSession(backend.NewArrayFactor(geom, 10.0))

	// Zero step sizes make every candidate identical to the current state,
	// so no iteration can improve and the patience window must trip.
	cfg := Config{
		MaxIterations: 50,
		CostTolerance: 1e-9,
		Patience:      2,
		Quantity:      "GainTotal",
		CutThetaDeg:   90,
		FreqTolHz:     1e6,
	}
	matcher := NewMatcher(session, cfg)

	var angles, values []float64
	for a := 0.0; a < 360.0; a += 10.0 {
		angles = append(angles, a)
		values = append(values, 1.0) // flat target, unreachable
	}
	obj := synthesis.PatternMatch{TargetAngleDeg: angles, TargetValue: values}

	res, err := matcher.Match(context.Background(), geom, obj, testFreq, nil)
	require.NoError(t, err)

	require.Equal(t, OutcomeStalled, res.Outcome)
	require.Equal(t, 2, res.Iterations)
	require.NotNil(t, res.Best)
}

func TestMatchCancellableBetweenIterations(t *testing.T) {
	geom := halfWaveArray(t, 5)
	session := backend.NewSession(backend.NewArrayFactor(geom, 5.0))

	cfg := DefaultConfig()
	cfg.CostTolerance = 1e-12 // force iteration
	matcher := NewMatcher(session, cfg)

	obj := naturalTarget(t, session, geom)
	// Perturb the target so the initial cost is nonzero.
	for i := range obj.TargetValue {
		obj.TargetValue[i] *= 1 + 0.2*math.Sin(float64(i))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := matcher.Match(ctx, geom, obj, testFreq, nil)
	// Cancellation surfaces as the context error with the best state so
	// far still attached.
	require.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, res)
	require.NotNil(t, res.Best)
}

func TestMatchRejectsBadTargets(t *testing.T) {
	geom := halfWaveArray(t, 3)
	session := backend.NewSession(backend.NewArrayFactor(geom, 10.0))
	matcher := NewMatcher(session, DefaultConfig())

	t.Run("empty target", func(t *testing.T) {
		_, err := matcher.Match(context.Background(), geom, synthesis.PatternMatch{}, testFreq, nil)
		require.Error(t, err)
	})

	t.Run("mismatched lengths", func(t *testing.T) {
		obj := synthesis.PatternMatch{TargetAngleDeg: []float64{0, 10}, TargetValue: []float64{1}}
		_, err := matcher.Match(context.Background(), geom, obj, testFreq, nil)
		require.Error(t, err)
	})

	t.Run("all-zero target", func(t *testing.T) {
		obj := synthesis.PatternMatch{TargetAngleDeg: []float64{0, 10}, TargetValue: []float64{0, 0}}
		_, err := matcher.Match(context.Background(), geom, obj, testFreq, nil)
		require.Error(t, err)
	})

	t.Run("initial state mismatching geometry", func(t *testing.T) {
		bad, err := excitation.New(map[string]excitation.Drive{"ghost": {Amplitude: 1}})
		require.NoError(t, err)
		obj := synthesis.PatternMatch{TargetAngleDeg: []float64{0, 10}, TargetValue: []float64{1, 1}}
		_, err = matcher.Match(context.Background(), geom, obj, testFreq, bad)
		require.Error(t, err)
	})
}
