// Package report renders pattern cuts and optimizer convergence to PNG
// files for offline review.
package report

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/apertura-data/beamlab/internal/pattern"
	"github.com/apertura-data/beamlab/internal/units"
)

var (
	achievedColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	targetColor   = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// plotFloorDB clips deep nulls so the y axis stays readable.
const plotFloorDB = -40.0

// CutPlot renders one pattern cut in dB relative to its peak. When target
// angles and values are given (same length, linear scale), the target is
// overlaid for comparison.
func CutPlot(cut *pattern.Cut, targetAngles, targetValues []float64, path string) error {
	if cut == nil || len(cut.AngleDeg) == 0 {
		return fmt.Errorf("empty cut")
	}
	if len(targetAngles) != len(targetValues) {
		return fmt.Errorf("target has %d angles but %d values", len(targetAngles), len(targetValues))
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s cut at %.4g Hz", cut.Quantity, cut.FreqHz)
	p.X.Label.Text = "Azimuth (deg)"
	p.Y.Label.Text = "Relative level (dB)"

	peak := cut.Value[0]
	for _, v := range cut.Value {
		if v > peak {
			peak = v
		}
	}

	achieved := make(plotter.XYs, 0, len(cut.AngleDeg))
	for i := range cut.AngleDeg {
		achieved = append(achieved, plotter.XY{
			X: cut.AngleDeg[i],
			Y: units.ToDB(cut.Value[i]/peak, plotFloorDB),
		})
	}
	line, err := plotter.NewLine(achieved)
	if err != nil {
		return err
	}
	line.Color = achievedColor
	line.Width = vg.Points(1.5)
	p.Add(line)
	p.Legend.Add("achieved", line)

	if len(targetAngles) > 0 {
		targetPeak := targetValues[0]
		for _, v := range targetValues {
			if v > targetPeak {
				targetPeak = v
			}
		}
		if targetPeak <= 0 {
			return fmt.Errorf("target values are all zero")
		}
		pts := make(plotter.XYs, 0, len(targetAngles))
		for i := range targetAngles {
			pts = append(pts, plotter.XY{
				X: targetAngles[i],
				Y: units.ToDB(targetValues[i]/targetPeak, plotFloorDB),
			})
		}
		targetLine, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		targetLine.Color = targetColor
		targetLine.Width = vg.Points(1)
		targetLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(targetLine)
		p.Legend.Add("target", targetLine)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save cut plot: %w", err)
	}
	return nil
}

// ConvergencePlot renders per-iteration optimizer cost.
func ConvergencePlot(history []float64, path string) error {
	if len(history) == 0 {
		return fmt.Errorf("empty cost history")
	}

	p := plot.New()
	p.Title.Text = "Pattern match convergence"
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = "RMS error"

	pts := make(plotter.XYs, 0, len(history))
	for i, cost := range history {
		pts = append(pts, plotter.XY{X: float64(i), Y: cost})
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = achievedColor
	line.Width = vg.Points(1.5)
	p.Add(line)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save convergence plot: %w", err)
	}
	return nil
}

// Timestamp names output files the way run directories are named.
func Timestamp(t time.Time) string {
	return t.Format("20060102_150405")
}
