package sweep

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apertura-data/beamlab/internal/backend"
	"github.com/apertura-data/beamlab/internal/geometry"
	"github.com/apertura-data/beamlab/internal/metrics"
	"github.com/apertura-data/beamlab/internal/validate"
)

func halfWaveArray(t *testing.T, n int, freqHz float64) *geometry.Model {
	t.Helper()
	spacing := 0.5 * 2.99792458e8 / freqHz
	elems := make([]geometry.ElementPosition, n)
	for i := 0; i < n; i++ {
		elems[i] = geometry.ElementPosition{ID: "e" + string(rune('0'+i)), Y: float64(i) * spacing}
	}
	model, err := geometry.Analyze(elems, geometry.DefaultAnalyzerConfig())
	require.NoError(t, err)
	return model
}

func newTestRunner(t *testing.T, n int, freqHz float64) (*Runner, *backend.ArrayFactor) {
	t.Helper()
	geom := halfWaveArray(t, n, freqHz)
	af := backend.NewArrayFactor(geom, 1.0)
	calc := metrics.NewCalculator(metrics.DefaultConfig())
	return NewRunner(geom, backend.NewSession(af), calc, DefaultConfig()), af
}

func TestRunGradesSteeringCandidates(t *testing.T) {
	const freq = 2.4e9
	runner, _ := newTestRunner(t, 8, freq)

	run, err := runner.Run(context.Background(), []float64{20, -30, 0}, freq)
	require.NoError(t, err)

	require.NotEmpty(t, run.ID)
	require.Len(t, run.Candidates, 3)
	assert.False(t, run.CompletedAt.Before(run.StartedAt))

	// Results come back sorted by steering angle regardless of submission
	// or completion order.
	assert.Equal(t, []float64{-30, 0, 20},
		[]float64{run.Candidates[0].SteerDeg, run.Candidates[1].SteerDeg, run.Candidates[2].SteerDeg})

	// On a half-wave array the achieved beam lands on the commanded angle
	// to within the sampling grid, so every candidate grades well.
	for _, cand := range run.Candidates {
		assert.InDeltaf(t, cand.SteerDeg, cand.AchievedDeg, 1.0,
			"candidate %.0f deg achieved %.2f deg", cand.SteerDeg, cand.AchievedDeg)
		assert.True(t, cand.Report.Pass, "candidate %.0f deg graded %s", cand.SteerDeg, cand.Report.Grade)
		require.NotNil(t, cand.Beam)
		require.NotNil(t, cand.Excitation)
	}

	best := run.Candidates[run.BestIndex]
	for _, cand := range run.Candidates {
		assert.LessOrEqual(t, math.Abs(best.Report.Error), math.Abs(cand.Report.Error))
	}
}

func TestRunRanksByPointingError(t *testing.T) {
	const freq = 2.4e9
	runner, _ := newTestRunner(t, 8, freq)

	// 12.4 degrees falls between grid samples, so its achieved direction
	// quantizes to 12 and it ranks behind the on-grid broadside candidate.
	run, err := runner.Run(context.Background(), []float64{12.4, 0}, freq)
	require.NoError(t, err)
	require.Len(t, run.Candidates, 2)

	assert.Equal(t, 0.0, run.Candidates[0].SteerDeg)
	assert.Equal(t, 0, run.BestIndex)
	assert.Equal(t, validate.GradeExcellent, run.Candidates[0].Report.Grade)
	assert.Greater(t, math.Abs(run.Candidates[1].Report.Error), math.Abs(run.Candidates[0].Report.Error))
	assert.True(t, run.Candidates[1].Report.Pass)
}

func TestRunSharesSessionCache(t *testing.T) {
	const freq = 2.4e9
	runner, af := newTestRunner(t, 6, freq)

	angles := []float64{-15, 0, 15}
	_, err := runner.Run(context.Background(), angles, freq)
	require.NoError(t, err)
	firstApplies := af.ApplyCalls()
	require.Equal(t, len(angles), firstApplies)

	// A repeat sweep over the same angles is served entirely from the
	// session cache.
	_, err = runner.Run(context.Background(), angles, freq)
	require.NoError(t, err)
	assert.Equal(t, firstApplies, af.ApplyCalls())
}

func TestRunRejectsEmptyCandidateList(t *testing.T) {
	const freq = 2.4e9
	runner, _ := newTestRunner(t, 4, freq)

	_, err := runner.Run(context.Background(), nil, freq)
	require.Error(t, err)
}

func TestRunPropagatesChainErrors(t *testing.T) {
	const freq = 2.4e9
	runner, _ := newTestRunner(t, 4, freq)

	// A zero frequency fails inside the backend; the sweep must surface
	// that instead of returning a partial run.
	_, err := runner.Run(context.Background(), []float64{0, 10}, 0)
	require.Error(t, err)
	var berr *backend.Error
	assert.True(t, errors.As(err, &berr))
}

func TestRunHonorsCancellation(t *testing.T) {
	const freq = 2.4e9
	runner, _ := newTestRunner(t, 4, freq)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := runner.Run(ctx, []float64{0, 10, 20}, freq)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
