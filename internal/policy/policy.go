package policy

import (
	"github.com/gradelab/circuit-integrity/go-verifier/internal/netlist"
)

// #region type-rule

// TypeRule caps how many elements of one API type may be added beyond those
// individually whitelisted. A type with no rule has an implicit quota of
// zero.
type TypeRule struct {
	MaxAdd int `json:"max_add" yaml:"max_add"`
	// MaxRemove is parsed and stored but never relaxes the per-position
	// removability rule. Reserved until the policy semantics for
	// type-level removals are confirmed.
	MaxRemove int `json:"max_remove" yaml:"max_remove"`
}

// #endregion type-rule

// #region policy

// Policy is the author-supplied permission policy for one grading session:
// which baseline positions may be edited or removed, and per-type quotas
// for additions.
type Policy struct {
	EditableIndices  []int               `json:"editable_indices" yaml:"editable_indices"`
	RemovableIndices []int               `json:"removable_indices" yaml:"removable_indices"`
	TypeRules        map[string]TypeRule `json:"type_rules" yaml:"type_rules"`
}

// EditableSet returns the editable positions as a set.
func (p Policy) EditableSet() map[int]struct{} {
	return indexSet(p.EditableIndices)
}

// RemovableSet returns the removable positions as a set.
func (p Policy) RemovableSet() map[int]struct{} {
	return indexSet(p.RemovableIndices)
}

func indexSet(indices []int) map[int]struct{} {
	set := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		set[i] = struct{}{}
	}
	return set
}

// #endregion policy

// #region type-aggregator

// CountByType reduces a descriptor sequence to a count per API type.
func CountByType(descriptors []netlist.ElementDescriptor) map[string]int {
	counts := make(map[string]int)
	for _, d := range descriptors {
		counts[d.APIType]++
	}
	return counts
}

// #endregion type-aggregator

// #region baseline

// Baseline is the immutable reference snapshot for a grading session:
// the aligned descriptor sequence at capture time, its type counts, and the
// policy it is judged against. Captured once, never mutated.
type Baseline struct {
	Descriptors []netlist.ElementDescriptor
	TypeCounts  map[string]int
	Policy      Policy
}

// CaptureBaseline snapshots the descriptor sequence and policy. The
// descriptor slice is copied so later mutation of the input cannot reach
// the baseline.
func CaptureBaseline(descriptors []netlist.ElementDescriptor, p Policy) *Baseline {
	snap := make([]netlist.ElementDescriptor, len(descriptors))
	copy(snap, descriptors)
	for i := range snap {
		snap[i].Coords = append([]string(nil), snap[i].Coords...)
	}
	return &Baseline{
		Descriptors: snap,
		TypeCounts:  CountByType(snap),
		Policy:      p,
	}
}

// #endregion baseline
