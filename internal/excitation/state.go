// Package excitation holds per-element complex drive state (amplitude and
// phase) and its snapshot serialization.
package excitation

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/apertura-data/beamlab/internal/geometry"
	"github.com/apertura-data/beamlab/internal/units"
)

// MinAmplitude is the smallest drive level applied to a live design. The
// simulator misbehaves on exactly-zero drives, so backends clamp to this
// floor when formatting drive variables.
const MinAmplitude = 1e-3

// Drive is one element's excitation: linear amplitude >= 0 and phase in
// radians canonicalized to (-pi, pi].
type Drive struct {
	Amplitude float64 `json:"amplitude"`
	Phase     float64 `json:"phase"`
}

// State maps element identifiers to drives. A State is immutable once
// built; derive changed states with With* methods rather than editing in
// place, so a state is always applied to the backend as one consistent unit.
type State struct {
	drives map[string]Drive
}

// New builds a State from a drive map, canonicalizing phases to (-pi, pi]
// and rejecting negative or non-finite values.
func New(drives map[string]Drive) (*State, error) {
	canon := make(map[string]Drive, len(drives))
	for id, d := range drives {
		if d.Amplitude < 0 || math.IsNaN(d.Amplitude) || math.IsInf(d.Amplitude, 0) {
			return nil, &Error{
				Reason:  ReasonBadAmplitude,
				Element: id,
				Detail:  fmt.Sprintf("amplitude %v out of range (must be finite and >= 0)", d.Amplitude),
			}
		}
		if math.IsNaN(d.Phase) || math.IsInf(d.Phase, 0) {
			return nil, &Error{
				Reason:  ReasonBadPhase,
				Element: id,
				Detail:  fmt.Sprintf("phase %v is not finite", d.Phase),
			}
		}
		canon[id] = Drive{Amplitude: d.Amplitude, Phase: units.WrapPhase(d.Phase)}
	}
	return &State{drives: canon}, nil
}

// Uniform returns a state driving every element of the geometry at unit
// amplitude and zero phase.
func Uniform(geom *geometry.Model) *State {
	drives := make(map[string]Drive, geom.N())
	for _, id := range geom.IDs() {
		drives[id] = Drive{Amplitude: 1.0}
	}
	return &State{drives: drives}
}

// N returns the number of driven elements.
func (s *State) N() int {
	return len(s.drives)
}

// Drive returns the excitation for an element.
func (s *State) Drive(id string) (Drive, bool) {
	d, ok := s.drives[id]
	return d, ok
}

// Drives returns a copy of the full drive map.
func (s *State) Drives() map[string]Drive {
	out := make(map[string]Drive, len(s.drives))
	for id, d := range s.drives {
		out[id] = d
	}
	return out
}

// IDs returns the driven element identifiers in lexical order.
func (s *State) IDs() []string {
	ids := make([]string, 0, len(s.drives))
	for id := range s.drives {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// WithDrive returns a new State with one element's drive replaced.
func (s *State) WithDrive(id string, d Drive) (*State, error) {
	next := s.Drives()
	next[id] = d
	return New(next)
}

// NormalizedPeak returns a new State scaled so the maximum element amplitude
// is 1.0. A state with all-zero amplitudes is returned unchanged.
func (s *State) NormalizedPeak() *State {
	var peak float64
	for _, d := range s.drives {
		if d.Amplitude > peak {
			peak = d.Amplitude
		}
	}
	if peak == 0 || peak == 1 {
		return s
	}
	next := make(map[string]Drive, len(s.drives))
	for id, d := range s.drives {
		next[id] = Drive{Amplitude: d.Amplitude / peak, Phase: d.Phase}
	}
	return &State{drives: next}
}

// ValidateAgainst checks that the state's element identifiers exactly match
// the geometry's, with no missing or extra elements.
func (s *State) ValidateAgainst(geom *geometry.Model) error {
	var missing, extra []string
	geomIDs := make(map[string]bool, geom.N())
	for _, id := range geom.IDs() {
		geomIDs[id] = true
		if _, ok := s.drives[id]; !ok {
			missing = append(missing, id)
		}
	}
	for id := range s.drives {
		if !geomIDs[id] {
			extra = append(extra, id)
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)
	if len(missing) > 0 || len(extra) > 0 {
		return &Error{
			Reason:  ReasonShapeMismatch,
			Missing: missing,
			Extra:   extra,
			Detail:  "excitation must drive exactly the geometry's elements",
		}
	}
	return nil
}

// Hash returns a stable content hash of the state, used as the simulation
// cache key. Equal states (bit-identical drives) hash equally.
func (s *State) Hash() string {
	h := sha256.New()
	for _, id := range s.IDs() {
		d := s.drives[id]
		h.Write([]byte(id))
		h.Write([]byte{0})
		h.Write([]byte(strconv.FormatFloat(d.Amplitude, 'g', -1, 64)))
		h.Write([]byte{0})
		h.Write([]byte(strconv.FormatFloat(d.Phase, 'g', -1, 64)))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// MarshalJSON serializes the state as a flat {element_id: {amplitude, phase}}
// mapping, the snapshot form used for save/restore workflows.
func (s *State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.drives)
}

// UnmarshalJSON restores a snapshot produced by MarshalJSON, re-applying
// canonicalization so hand-edited snapshots are validated on load.
func (s *State) UnmarshalJSON(data []byte) error {
	var drives map[string]Drive
	if err := json.Unmarshal(data, &drives); err != nil {
		return fmt.Errorf("excitation snapshot: %w", err)
	}
	restored, err := New(drives)
	if err != nil {
		return err
	}
	s.drives = restored.drives
	return nil
}
