package excitation

import (
	"fmt"
	"strings"
)

// Failure reasons for excitation-state construction and validation.
const (
	ReasonBadAmplitude  = "amplitude out of range"
	ReasonBadPhase      = "unparseable phase"
	ReasonShapeMismatch = "element mismatch"
)

// Error reports a structural excitation failure. Structural errors fail
// fast: no partial State is ever returned alongside one.
type Error struct {
	Reason  string
	Element string   // offending element for value errors
	Missing []string // geometry elements absent from the state
	Extra   []string // state elements unknown to the geometry
	Detail  string
}

func (e *Error) Error() string {
	var parts []string
	if e.Element != "" {
		parts = append(parts, fmt.Sprintf("element %s", e.Element))
	}
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing %v", e.Missing))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, fmt.Sprintf("extra %v", e.Extra))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("excitation: %s: %s", e.Reason, e.Detail)
	}
	return fmt.Sprintf("excitation: %s (%s): %s", e.Reason, strings.Join(parts, ", "), e.Detail)
}
