package netlist

import "strings"

// #region element-interface

// Element is the narrow read-only view of a live simulator element.
// The simulator side is duck-typed; the verifier only ever needs these three
// facts about an element.
type Element interface {
	// Category returns the API type name reported by the simulator,
	// e.g. "ResistorElm" or "WireElm".
	Category() string
	// PostCount returns the number of connection terminals the element
	// exposes. A value <= 0 means the default of 2.
	PostCount() int
	// Label returns the user-assigned label, or "" when unset.
	Label() string
}

// #endregion element-interface

// #region descriptor

// ElementDescriptor is the aligned per-element view produced by Align.
// One descriptor per live element, in element order.
type ElementDescriptor struct {
	// TypeCode is the single-token discriminator from the export line,
	// e.g. "r", "v", "w", "t".
	TypeCode string
	// Coords holds the 2*posts terminal coordinate tokens, in export order.
	// Kept as raw tokens: identity comparison is textual, not numeric.
	Coords []string
	// ParamSig is the element's remaining configuration tokens joined with
	// single spaces, "" when the element has none (plain wires).
	ParamSig string
	// APIType is the category name from the live element, richer and more
	// stable than TypeCode.
	APIType string
}

// IdentityKey returns the (TypeCode, Coords) identity of the element.
// It is stable across save/reload and list reordering, and is how two
// snapshots recognize the same physical element.
func (d ElementDescriptor) IdentityKey() string {
	if len(d.Coords) == 0 {
		return d.TypeCode
	}
	return d.TypeCode + " " + strings.Join(d.Coords, " ")
}

// #endregion descriptor
