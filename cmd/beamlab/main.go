// Command beamlab drives a phased-array design session from the shell:
// infer the array geometry from element positions, synthesize an
// excitation for an objective, evaluate it against the built-in array
// factor simulator, and report the beam metrics.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/apertura-data/beamlab/internal/backend"
	"github.com/apertura-data/beamlab/internal/config"
	"github.com/apertura-data/beamlab/internal/excitation"
	"github.com/apertura-data/beamlab/internal/geometry"
	"github.com/apertura-data/beamlab/internal/metrics"
	"github.com/apertura-data/beamlab/internal/monitoring"
	"github.com/apertura-data/beamlab/internal/optimize"
	"github.com/apertura-data/beamlab/internal/pattern"
	"github.com/apertura-data/beamlab/internal/report"
	"github.com/apertura-data/beamlab/internal/snapshot"
	"github.com/apertura-data/beamlab/internal/sweep"
	"github.com/apertura-data/beamlab/internal/synthesis"
	"github.com/apertura-data/beamlab/internal/units"
	"github.com/apertura-data/beamlab/internal/version"
)

var (
	elementsFile = flag.String("elements", "", "Path to element positions JSON")
	freqStr      = flag.String("freq", "2.4GHz", "Design frequency (e.g. 2.4GHz, 920MHz)")
	configFile   = flag.String("config", "", "Optional tuning config JSON")
	stepDeg      = flag.Float64("step", 1.0, "Simulator azimuth sampling step in degrees")

	objective = flag.String("objective", "", "Synthesis objective: steer, chebyshev, nulls, or match")
	angle     = flag.Float64("angle", 0, "Steering angle off broadside in degrees")
	sllDB     = flag.Float64("sll", -30, "Sidelobe level target in dB (chebyshev)")
	nullsStr  = flag.String("nulls", "", "Comma-separated null angles in degrees")
	target    = flag.String("target", "", "Path to target pattern JSON (match)")

	sweepStr = flag.String("sweep", "", "Comma-separated candidate steering angles to compare")

	saveName   = flag.String("save", "", "Save the resulting excitation under this snapshot name")
	loadName   = flag.String("load", "", "Evaluate a saved snapshot instead of synthesizing")
	listSnaps  = flag.Bool("list", false, "List saved snapshots and exit")
	deleteName = flag.String("delete", "", "Delete a snapshot and exit")

	plotDir     = flag.String("plot-dir", "", "Write PNG plots into this directory")
	quiet       = flag.Bool("quiet", false, "Suppress per-iteration optimizer and sweep logging")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// elementsJSON is the on-disk shape of an element position export.
type elementsJSON []struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Z  float64 `json:"z"`
}

// targetJSON is the on-disk shape of a pattern-match target cut.
type targetJSON struct {
	AnglesDeg []float64 `json:"angles_deg"`
	Values    []float64 `json:"values"`
}

func loadGeometry(path string, cfg *config.TuningConfig) (*geometry.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read elements file: %w", err)
	}
	var raw elementsJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse elements file: %w", err)
	}
	elems := make([]geometry.ElementPosition, len(raw))
	for i, e := range raw {
		elems[i] = geometry.ElementPosition{ID: e.ID, X: e.X, Y: e.Y, Z: e.Z}
	}

	acfg := geometry.DefaultAnalyzerConfig()
	acfg.CollinearTolerance = cfg.GetCollinearTolerance()
	acfg.SpacingDeviationRatio = cfg.GetSpacingDeviationRatio()
	return geometry.Analyze(elems, acfg)
}

func parseAngles(s string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("bad angle %q: %w", part, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func synthesize(ctx context.Context, geom *geometry.Model, session *backend.Session, cfg *config.TuningConfig, freqHz float64) (*excitation.State, []float64, error) {
	switch *objective {
	case "steer":
		state, err := synthesis.Synthesize(geom, synthesis.SteerToAngle{ThetaDeg: *angle}, freqHz)
		return state, nil, err
	case "chebyshev":
		state, err := synthesis.Synthesize(geom, synthesis.SidelobeTarget{LevelDB: *sllDB, SteerDeg: *angle}, freqHz)
		return state, nil, err
	case "nulls":
		nulls, err := parseAngles(*nullsStr)
		if err != nil {
			return nil, nil, err
		}
		state, err := synthesis.Synthesize(geom, synthesis.NullPlacement{NullsDeg: nulls, MainBeamDeg: *angle}, freqHz)
		return state, nil, err
	case "match":
		data, err := os.ReadFile(*target)
		if err != nil {
			return nil, nil, fmt.Errorf("read target file: %w", err)
		}
		var tgt targetJSON
		if err := json.Unmarshal(data, &tgt); err != nil {
			return nil, nil, fmt.Errorf("parse target file: %w", err)
		}

		mcfg := optimize.DefaultConfig()
		mcfg.MaxIterations = cfg.GetMaxIterations()
		mcfg.CostTolerance = cfg.GetCostTolerance()
		mcfg.Patience = cfg.GetPatience()
		mcfg.AmplitudeStep = cfg.GetAmplitudeStep()
		mcfg.PhaseStep = cfg.GetPhaseStepRad()
		mcfg.Quantity = cfg.GetQuantity()
		mcfg.CutThetaDeg = cfg.GetCutThetaDeg()
		mcfg.FreqTolHz = cfg.GetFreqTolHz()

		matcher := optimize.NewMatcher(session, mcfg)
		res, err := matcher.Match(ctx, geom, synthesis.PatternMatch{
			TargetAngleDeg: tgt.AnglesDeg,
			TargetValue:    tgt.Values,
		}, freqHz, nil)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("[beamlab] match %s after %d iterations, residual %.4g", res.Outcome, res.Iterations, res.Cost)
		return res.Best, res.History, nil
	default:
		return nil, nil, fmt.Errorf("unknown objective %q (want steer, chebyshev, nulls, or match)", *objective)
	}
}

func describe(cut *pattern.Cut, calc *metrics.Calculator) error {
	beam, err := calc.Extract(cut)
	if err != nil {
		return err
	}
	fmt.Printf("peak:          %.2f dB at %.1f deg\n", beam.PeakGainDB, beam.PeakAngleDeg)
	fmt.Printf("hpbw:          %.2f deg\n", beam.HPBWDeg)
	if beam.SidelobeLevelDB != nil {
		fmt.Printf("sidelobes:     %.2f dB\n", *beam.SidelobeLevelDB)
	} else {
		fmt.Printf("sidelobes:     none resolved\n")
	}
	fmt.Printf("front-to-back: %.2f dB\n", beam.FrontToBackDB)
	return nil
}

func runSweep(ctx context.Context, geom *geometry.Model, session *backend.Session, calc *metrics.Calculator, cfg *config.TuningConfig, freqHz float64) error {
	candidates, err := parseAngles(*sweepStr)
	if err != nil {
		return err
	}
	scfg := sweep.DefaultConfig()
	scfg.Workers = cfg.GetSweepWorkers()
	scfg.Quantity = cfg.GetQuantity()
	scfg.CutThetaDeg = cfg.GetCutThetaDeg()
	scfg.FreqTolHz = cfg.GetFreqTolHz()
	scfg.ToleranceDeg = cfg.GetSteeringTolerance()

	runner := sweep.NewRunner(geom, session, calc, scfg)
	run, err := runner.Run(ctx, candidates, freqHz)
	if err != nil {
		return err
	}

	fmt.Printf("sweep %s\n", run.ID)
	for i, cand := range run.Candidates {
		marker := " "
		if i == run.BestIndex {
			marker = "*"
		}
		fmt.Printf("%s %+7.2f deg -> %+7.2f deg  error %+6.3f  grade %s\n",
			marker, cand.SteerDeg, cand.AchievedDeg, cand.Report.Error, cand.Report.Grade)
	}
	return nil
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("beamlab %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}
	if *quiet {
		monitoring.SetLogger(nil)
	}

	cfg := config.EmptyTuningConfig()
	if *configFile != "" {
		var err error
		cfg, err = config.LoadTuningConfig(*configFile)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	// Snapshot management modes need no geometry.
	if *listSnaps || *deleteName != "" {
		store, err := snapshot.Open(cfg.GetSnapshotDB())
		if err != nil {
			log.Fatalf("failed to open snapshot db: %v", err)
		}
		defer store.Close()

		if *deleteName != "" {
			if err := store.Delete(*deleteName); err != nil {
				log.Fatalf("failed to delete snapshot: %v", err)
			}
			log.Printf("[beamlab] deleted snapshot %q", *deleteName)
			return
		}
		snaps, err := store.List()
		if err != nil {
			log.Fatalf("failed to list snapshots: %v", err)
		}
		for _, s := range snaps {
			fmt.Printf("%-24s %.4g Hz  %s\n", s.Name, s.FreqHz, s.CreatedAt.Format(time.RFC3339))
		}
		return
	}

	if *elementsFile == "" {
		log.Fatal("element positions file is required (-elements)")
	}
	freqHz, err := units.ParseFrequency(*freqStr)
	if err != nil {
		log.Fatalf("bad frequency: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	geom, err := loadGeometry(*elementsFile, cfg)
	if err != nil {
		log.Fatalf("failed to infer geometry: %v", err)
	}
	log.Printf("[beamlab] linear array: %d elements, mean spacing %.4g m, axis (%.3f, %.3f, %.3f)",
		geom.N(), geom.SpacingMean, geom.Axis[0], geom.Axis[1], geom.Axis[2])

	session := backend.NewSession(backend.NewArrayFactor(geom, *stepDeg))
	mcfg := metrics.DefaultConfig()
	mcfg.FloorDB = cfg.GetFloorDB()
	mcfg.MainlobeWindowMultiplier = cfg.GetMainlobeWindowMultiplier()
	calc := metrics.NewCalculator(mcfg)

	if *sweepStr != "" {
		if err := runSweep(ctx, geom, session, calc, cfg, freqHz); err != nil {
			log.Fatalf("sweep failed: %v", err)
		}
		return
	}

	var state *excitation.State
	var history []float64
	switch {
	case *loadName != "":
		store, err := snapshot.Open(cfg.GetSnapshotDB())
		if err != nil {
			log.Fatalf("failed to open snapshot db: %v", err)
		}
		snap, err := store.Load(*loadName)
		store.Close()
		if err != nil {
			log.Fatalf("failed to load snapshot: %v", err)
		}
		if err := snap.State.ValidateAgainst(geom); err != nil {
			log.Fatalf("snapshot does not fit this array: %v", err)
		}
		state = snap.State
		log.Printf("[beamlab] restored snapshot %q (saved %s)", snap.Name, snap.CreatedAt.Format(time.RFC3339))
	case *objective != "":
		state, history, err = synthesize(ctx, geom, session, cfg, freqHz)
		if err != nil {
			log.Fatalf("synthesis failed: %v", err)
		}
	default:
		log.Fatal("nothing to do: pass -objective, -sweep, -load, -list, or -delete")
	}

	ds, err := session.Evaluate(ctx, state, freqHz, cfg.GetQuantity())
	if err != nil {
		log.Fatalf("simulation failed: %v", err)
	}
	cut, err := ds.AzimuthCut(cfg.GetCutThetaDeg(), freqHz, cfg.GetFreqTolHz())
	if err != nil {
		log.Fatalf("cut extraction failed: %v", err)
	}
	if err := describe(cut, calc); err != nil {
		log.Fatalf("metric extraction failed: %v", err)
	}

	if *saveName != "" {
		store, err := snapshot.Open(cfg.GetSnapshotDB())
		if err != nil {
			log.Fatalf("failed to open snapshot db: %v", err)
		}
		id, err := store.Save(*saveName, freqHz, state)
		store.Close()
		if err != nil {
			log.Fatalf("failed to save snapshot: %v", err)
		}
		log.Printf("[beamlab] saved snapshot %q (%s)", *saveName, id)
	}

	if *plotDir != "" {
		ts := report.Timestamp(time.Now())
		cutPath := fmt.Sprintf("%s/cut_%s.png", *plotDir, ts)
		if err := report.CutPlot(cut, nil, nil, cutPath); err != nil {
			log.Fatalf("failed to render cut plot: %v", err)
		}
		log.Printf("[beamlab] wrote %s", cutPath)
		if len(history) > 0 {
			convPath := fmt.Sprintf("%s/convergence_%s.png", *plotDir, ts)
			if err := report.ConvergencePlot(history, convPath); err != nil {
				log.Fatalf("failed to render convergence plot: %v", err)
			}
			log.Printf("[beamlab] wrote %s", convPath)
		}
	}
}
