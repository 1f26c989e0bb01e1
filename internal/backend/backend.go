// Package backend defines the simulation capability consumed by synthesis
// and optimization, plus a serialized, caching session wrapper.
//
// The simulator itself is an external collaborator. It is always passed in
// explicitly (never a package-level singleton) so tests and the CLI can
// substitute the deterministic array-factor double in double.go.
package backend

import (
	"context"
	"fmt"

	"github.com/apertura-data/beamlab/internal/excitation"
	"github.com/apertura-data/beamlab/internal/pattern"
)

// Backend is the simulation capability: push an excitation to the live
// design, then sample the resulting far field. Both calls may be slow and
// block; callers pass a context but implementations are not expected to
// abandon an in-flight solver run.
type Backend interface {
	// Apply pushes a complete excitation state to the design.
	Apply(ctx context.Context, state *excitation.State) error

	// SamplePattern returns raw far-field samples for the currently applied
	// excitation at the requested frequency, in the simulator's own angle
	// convention.
	SamplePattern(ctx context.Context, freqHz float64, quantity string) ([]pattern.RawSample, error)
}

// Error wraps an opaque simulator failure. Backend errors are propagated,
// never retried here: retry policy belongs to the caller, which can tell
// transient from fatal simulator failures.
type Error struct {
	Op  string // "apply" or "sample"
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
