// Package geometry infers a linear phased-array layout from raw element
// coordinates and exposes it as an immutable GeometryModel.
package geometry

import (
	"fmt"
)

// ElementPosition is one array element's identifier and location in meters.
// Positions are immutable once created.
type ElementPosition struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Z  float64 `json:"z"`
}

// Model describes an inferred uniform linear array. Elements are stored in
// physical order along the principal axis, index 0 first. Built once by
// Analyze and never mutated.
type Model struct {
	// Elements in physical order along the axis.
	Elements []ElementPosition

	// Axis is the unit vector of the array's principal axis.
	Axis [3]float64

	// Projections holds each element's scalar position along the axis,
	// relative to element 0, in physical order. Projections[0] == 0.
	Projections []float64

	// SpacingMean is the mean consecutive element spacing in meters.
	SpacingMean float64

	// SpacingMaxDeviation is the largest |gap - mean| across consecutive
	// gaps, in meters.
	SpacingMaxDeviation float64
}

// N returns the element count.
func (m *Model) N() int {
	return len(m.Elements)
}

// IDs returns element identifiers in physical order.
func (m *Model) IDs() []string {
	ids := make([]string, len(m.Elements))
	for i, e := range m.Elements {
		ids[i] = e.ID
	}
	return ids
}

// Position returns the axis-relative position in meters of the element at
// physical index n.
func (m *Model) Position(n int) float64 {
	return m.Projections[n]
}

// Error reports why geometry inference failed. It carries the failing
// element identifiers where applicable so callers can render an actionable
// message.
type Error struct {
	Reason   string
	Elements []string
	Detail   string
}

func (e *Error) Error() string {
	if len(e.Elements) > 0 {
		return fmt.Sprintf("geometry: %s (elements %v): %s", e.Reason, e.Elements, e.Detail)
	}
	return fmt.Sprintf("geometry: %s: %s", e.Reason, e.Detail)
}

// Failure reasons for geometry inference.
const (
	ReasonTooFewElements    = "too few elements"
	ReasonNotCollinear      = "elements not collinear"
	ReasonNonUniformSpacing = "non-uniform spacing"
	ReasonAmbiguousOrdering = "ambiguous element ordering"
	ReasonDuplicateID       = "duplicate element id"
)
