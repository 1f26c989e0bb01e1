package backend

import (
	"context"
	"sync"

	"github.com/apertura-data/beamlab/internal/excitation"
	"github.com/apertura-data/beamlab/internal/pattern"
)

// Session serializes access to a backend that supports a single active
// design session, and caches results by excitation content so optimizers
// revisiting a state never pay for a second solve.
//
// The slot lock covers the apply + sample pair: concurrent evaluation
// chains interleave whole evaluations, never half-applied excitations.
// Cached datasets are immutable and safe to share across goroutines.
type Session struct {
	backend Backend

	slot sync.Mutex // single-slot lock around apply + sample

	cacheMu sync.RWMutex
	cache   map[cacheKey]*pattern.Dataset
}

type cacheKey struct {
	stateHash string
	freqHz    float64
	quantity  string
}

// NewSession wraps a backend in a serializing, caching session.
func NewSession(b Backend) *Session {
	return &Session{
		backend: b,
		cache:   make(map[cacheKey]*pattern.Dataset),
	}
}

// Evaluate applies the excitation and samples the resulting pattern at
// freqHz, returning a normalized dataset. Results are cached by
// (excitation hash, frequency, quantity).
func (s *Session) Evaluate(ctx context.Context, state *excitation.State, freqHz float64, quantity string) (*pattern.Dataset, error) {
	key := cacheKey{stateHash: state.Hash(), freqHz: freqHz, quantity: quantity}

	s.cacheMu.RLock()
	if ds, ok := s.cache[key]; ok {
		s.cacheMu.RUnlock()
		return ds, nil
	}
	s.cacheMu.RUnlock()

	s.slot.Lock()
	defer s.slot.Unlock()

	// Another chain may have evaluated the same state while we waited.
	s.cacheMu.RLock()
	if ds, ok := s.cache[key]; ok {
		s.cacheMu.RUnlock()
		return ds, nil
	}
	s.cacheMu.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.backend.Apply(ctx, state); err != nil {
		return nil, &Error{Op: "apply", Err: err}
	}
	raw, err := s.backend.SamplePattern(ctx, freqHz, quantity)
	if err != nil {
		return nil, &Error{Op: "sample", Err: err}
	}
	ds := pattern.Normalize(quantity, raw)

	s.cacheMu.Lock()
	s.cache[key] = ds
	s.cacheMu.Unlock()
	return ds, nil
}

// CacheSize returns the number of cached evaluations.
func (s *Session) CacheSize() int {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return len(s.cache)
}
