// Package sweep compares candidate steering angles by running independent
// synthesize-simulate-extract-score chains and ranking the graded results.
//
// Chains are embarrassingly parallel and fan out across a bounded worker
// pool, but they all share one backend session: the session's single-slot
// lock serializes the actual simulator traffic, so worker count only
// controls how much synthesis and extraction overlaps.
package sweep

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/apertura-data/beamlab/internal/backend"
	"github.com/apertura-data/beamlab/internal/excitation"
	"github.com/apertura-data/beamlab/internal/geometry"
	"github.com/apertura-data/beamlab/internal/metrics"
	"github.com/apertura-data/beamlab/internal/monitoring"
	"github.com/apertura-data/beamlab/internal/synthesis"
	"github.com/apertura-data/beamlab/internal/units"
	"github.com/apertura-data/beamlab/internal/validate"
)

// Config tunes a steering sweep.
type Config struct {
	// Workers bounds concurrent chains. Zero means 4.
	Workers int

	// Quantity is the far-field quantity sampled per candidate.
	Quantity string

	// CutThetaDeg fixes the azimuth cut used for metric extraction.
	CutThetaDeg float64

	// BroadsidePhiDeg maps cut azimuths back to steering angles off
	// broadside.
	BroadsidePhiDeg float64

	// FreqTolHz bounds the nearest-frequency match during extraction.
	FreqTolHz float64

	// ToleranceDeg is the steering-error tolerance used for grading.
	ToleranceDeg float64
}

// DefaultConfig returns the standard sweep settings.
func DefaultConfig() Config {
	return Config{
		Workers:         4,
		Quantity:        "GainTotal",
		CutThetaDeg:     90,
		BroadsidePhiDeg: backend.BroadsidePhiDeg,
		FreqTolHz:       1e6,
		ToleranceDeg:    2.0,
	}
}

// Candidate is the scored outcome of one steering chain.
type Candidate struct {
	SteerDeg    float64           `json:"steer_deg"`
	AchievedDeg float64           `json:"achieved_deg"`
	Beam        *metrics.Beam     `json:"beam"`
	Report      validate.Report   `json:"report"`
	Excitation  *excitation.State `json:"excitation"`
}

// Run is a completed sweep over a set of candidate angles.
type Run struct {
	ID          string      `json:"id"`
	StartedAt   time.Time   `json:"started_at"`
	CompletedAt time.Time   `json:"completed_at"`
	FreqHz      float64     `json:"freq_hz"`
	Candidates  []Candidate `json:"candidates"` // sorted by steering angle
	BestIndex   int         `json:"best_index"` // smallest absolute steering error
}

// Runner executes steering sweeps against one geometry and session.
type Runner struct {
	geom    *geometry.Model
	session *backend.Session
	calc    *metrics.Calculator
	cfg     Config
}

// NewRunner builds a sweep runner.
func NewRunner(geom *geometry.Model, session *backend.Session, calc *metrics.Calculator, cfg Config) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &Runner{geom: geom, session: session, calc: calc, cfg: cfg}
}

// Run evaluates every candidate steering angle and grades the achieved
// beam direction. Chains run concurrently; the first chain error aborts the
// sweep and cancels the remaining work between (never during) backend
// calls.
func (r *Runner) Run(ctx context.Context, candidatesDeg []float64, freqHz float64) (*Run, error) {
	if len(candidatesDeg) == 0 {
		return nil, fmt.Errorf("sweep: no candidate angles")
	}

	run := &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		FreqHz:    freqHz,
	}
	monitoring.Logf("[sweep] run %s: %d candidates at %.4g Hz with %d workers",
		run.ID, len(candidatesDeg), freqHz, r.cfg.Workers)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan float64)
	results := make(chan Candidate, len(candidatesDeg))
	errs := make(chan error, len(candidatesDeg))

	var wg sync.WaitGroup
	for w := 0; w < r.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for angle := range jobs {
				cand, err := r.evaluate(ctx, angle, freqHz)
				if err != nil {
					errs <- fmt.Errorf("candidate %.2f deg: %w", angle, err)
					cancel()
					continue
				}
				results <- cand
			}
		}()
	}

	for _, angle := range candidatesDeg {
		select {
		case jobs <- angle:
		case <-ctx.Done():
		}
	}
	close(jobs)
	wg.Wait()
	close(results)
	close(errs)

	if err := <-errs; err != nil {
		return nil, fmt.Errorf("sweep run %s: %w", run.ID, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("sweep run %s: %w", run.ID, err)
	}

	for cand := range results {
		run.Candidates = append(run.Candidates, cand)
	}
	sort.Slice(run.Candidates, func(i, j int) bool {
		return run.Candidates[i].SteerDeg < run.Candidates[j].SteerDeg
	})
	for i, cand := range run.Candidates {
		if math.Abs(cand.Report.Error) < math.Abs(run.Candidates[run.BestIndex].Report.Error) {
			run.BestIndex = i
		}
	}
	run.CompletedAt = time.Now()
	monitoring.Logf("[sweep] run %s: complete in %s, best candidate %.2f deg (error %+.3f deg)",
		run.ID, run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond),
		run.Candidates[run.BestIndex].SteerDeg, run.Candidates[run.BestIndex].Report.Error)
	return run, nil
}

// evaluate runs one synthesize-simulate-extract-score chain.
func (r *Runner) evaluate(ctx context.Context, steerDeg, freqHz float64) (Candidate, error) {
	state, err := synthesis.Synthesize(r.geom, synthesis.SteerToAngle{ThetaDeg: steerDeg}, freqHz)
	if err != nil {
		return Candidate{}, err
	}
	ds, err := r.session.Evaluate(ctx, state, freqHz, r.cfg.Quantity)
	if err != nil {
		return Candidate{}, err
	}
	cut, err := ds.AzimuthCut(r.cfg.CutThetaDeg, freqHz, r.cfg.FreqTolHz)
	if err != nil {
		return Candidate{}, err
	}
	beam, err := r.calc.Extract(cut)
	if err != nil {
		return Candidate{}, err
	}

	achieved := r.steerAngleOf(beam.PeakAngleDeg)
	return Candidate{
		SteerDeg:    steerDeg,
		AchievedDeg: achieved,
		Beam:        beam,
		Report:      validate.Compare("steering angle", achieved, steerDeg, r.cfg.ToleranceDeg),
		Excitation:  state,
	}, nil
}

// steerAngleOf maps a cut azimuth back to the angle off broadside, folding
// the mirror-image lobe of a linear array into the forward hemisphere.
func (r *Runner) steerAngleOf(peakPhiDeg float64) float64 {
	psi := units.WrapDeg180(peakPhiDeg - r.cfg.BroadsidePhiDeg)
	if psi > 90 {
		psi = 180 - psi
	} else if psi < -90 {
		psi = -180 - psi
	}
	return psi
}
