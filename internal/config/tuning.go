// Package config loads design-session tuning from JSON. Every field is a
// pointer so partial files work: fields omitted from the JSON keep their
// built-in defaults through the Get* accessors.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// TuningConfig is the root tuning schema. The same JSON shape is accepted
// at startup and, field by field, on runtime updates.
type TuningConfig struct {
	// Geometry inference params
	CollinearTolerance    *float64 `json:"collinear_tolerance,omitempty"`
	SpacingDeviationRatio *float64 `json:"spacing_deviation_ratio,omitempty"`

	// Metric extraction params
	FloorDB                  *float64 `json:"floor_db,omitempty"`
	MainlobeWindowMultiplier *float64 `json:"mainlobe_window_multiplier,omitempty"`

	// Pattern match params
	MaxIterations *int     `json:"max_iterations,omitempty"`
	CostTolerance *float64 `json:"cost_tolerance,omitempty"`
	Patience      *int     `json:"patience,omitempty"`
	AmplitudeStep *float64 `json:"amplitude_step,omitempty"`
	PhaseStepDeg  *float64 `json:"phase_step_deg,omitempty"`

	// Sweep params
	SweepWorkers      *int     `json:"sweep_workers,omitempty"`
	SteeringTolerance *float64 `json:"steering_tolerance_deg,omitempty"`

	// Simulation params
	Quantity    *string  `json:"quantity,omitempty"`
	CutThetaDeg *float64 `json:"cut_theta_deg,omitempty"`
	FreqTolHz   *float64 `json:"freq_tol_hz,omitempty"`

	// Snapshot params
	SnapshotDB *string `json:"snapshot_db,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields unset.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file must
// have a .json extension and stay under the max file size.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configured values are usable.
func (c *TuningConfig) Validate() error {
	if c.CollinearTolerance != nil && *c.CollinearTolerance <= 0 {
		return fmt.Errorf("collinear_tolerance must be positive, got %g", *c.CollinearTolerance)
	}
	if c.SpacingDeviationRatio != nil && (*c.SpacingDeviationRatio <= 0 || *c.SpacingDeviationRatio >= 1) {
		return fmt.Errorf("spacing_deviation_ratio must be in (0, 1), got %g", *c.SpacingDeviationRatio)
	}
	if c.FloorDB != nil && *c.FloorDB >= 0 {
		return fmt.Errorf("floor_db must be negative, got %g", *c.FloorDB)
	}
	if c.MaxIterations != nil && *c.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be at least 1, got %d", *c.MaxIterations)
	}
	if c.CostTolerance != nil && *c.CostTolerance <= 0 {
		return fmt.Errorf("cost_tolerance must be positive, got %g", *c.CostTolerance)
	}
	if c.AmplitudeStep != nil && *c.AmplitudeStep <= 0 {
		return fmt.Errorf("amplitude_step must be positive, got %g", *c.AmplitudeStep)
	}
	if c.PhaseStepDeg != nil && *c.PhaseStepDeg <= 0 {
		return fmt.Errorf("phase_step_deg must be positive, got %g", *c.PhaseStepDeg)
	}
	if c.SweepWorkers != nil && *c.SweepWorkers < 1 {
		return fmt.Errorf("sweep_workers must be at least 1, got %d", *c.SweepWorkers)
	}
	if c.FreqTolHz != nil && *c.FreqTolHz < 0 {
		return fmt.Errorf("freq_tol_hz must be non-negative, got %g", *c.FreqTolHz)
	}
	return nil
}

// GetCollinearTolerance returns the collinear_tolerance value or the default.
func (c *TuningConfig) GetCollinearTolerance() float64 {
	if c.CollinearTolerance == nil {
		return 1e-4
	}
	return *c.CollinearTolerance
}

// GetSpacingDeviationRatio returns the spacing_deviation_ratio value or the default.
func (c *TuningConfig) GetSpacingDeviationRatio() float64 {
	if c.SpacingDeviationRatio == nil {
		return 0.05
	}
	return *c.SpacingDeviationRatio
}

// GetFloorDB returns the floor_db value or the default.
func (c *TuningConfig) GetFloorDB() float64 {
	if c.FloorDB == nil {
		return -40.0
	}
	return *c.FloorDB
}

// GetMainlobeWindowMultiplier returns the mainlobe_window_multiplier value or the default.
func (c *TuningConfig) GetMainlobeWindowMultiplier() float64 {
	if c.MainlobeWindowMultiplier == nil {
		return 2.0
	}
	return *c.MainlobeWindowMultiplier
}

// GetMaxIterations returns the max_iterations value or the default.
func (c *TuningConfig) GetMaxIterations() int {
	if c.MaxIterations == nil {
		return 100
	}
	return *c.MaxIterations
}

// GetCostTolerance returns the cost_tolerance value or the default.
func (c *TuningConfig) GetCostTolerance() float64 {
	if c.CostTolerance == nil {
		return 1e-2
	}
	return *c.CostTolerance
}

// GetPatience returns the patience value or the default.
func (c *TuningConfig) GetPatience() int {
	if c.Patience == nil {
		return 10
	}
	return *c.Patience
}

// GetAmplitudeStep returns the amplitude_step value or the default.
func (c *TuningConfig) GetAmplitudeStep() float64 {
	if c.AmplitudeStep == nil {
		return 0.25
	}
	return *c.AmplitudeStep
}

// GetPhaseStepRad returns the phase step in radians or the default.
func (c *TuningConfig) GetPhaseStepRad() float64 {
	if c.PhaseStepDeg == nil {
		return math.Pi / 8
	}
	return *c.PhaseStepDeg * math.Pi / 180.0
}

// GetSweepWorkers returns the sweep_workers value or the default.
func (c *TuningConfig) GetSweepWorkers() int {
	if c.SweepWorkers == nil {
		return 4
	}
	return *c.SweepWorkers
}

// GetSteeringTolerance returns the steering_tolerance_deg value or the default.
func (c *TuningConfig) GetSteeringTolerance() float64 {
	if c.SteeringTolerance == nil {
		return 2.0
	}
	return *c.SteeringTolerance
}

// GetQuantity returns the quantity value or the default.
func (c *TuningConfig) GetQuantity() string {
	if c.Quantity == nil || *c.Quantity == "" {
		return "GainTotal"
	}
	return *c.Quantity
}

// GetCutThetaDeg returns the cut_theta_deg value or the default.
func (c *TuningConfig) GetCutThetaDeg() float64 {
	if c.CutThetaDeg == nil {
		return 90.0
	}
	return *c.CutThetaDeg
}

// GetFreqTolHz returns the freq_tol_hz value or the default.
func (c *TuningConfig) GetFreqTolHz() float64 {
	if c.FreqTolHz == nil {
		return 1e6
	}
	return *c.FreqTolHz
}

// GetSnapshotDB returns the snapshot_db path or the default.
func (c *TuningConfig) GetSnapshotDB() string {
	if c.SnapshotDB == nil || *c.SnapshotDB == "" {
		return "beamlab.db"
	}
	return *c.SnapshotDB
}
