package integrity

import (
	"fmt"
	"sort"

	"github.com/gradelab/circuit-integrity/go-verifier/internal/netlist"
	"github.com/gradelab/circuit-integrity/go-verifier/internal/policy"
)

// #region check

// Check reduces an evaluation to the 1/0 integrity value relayed to the
// grading side. 0 is an ordinary outcome, not an error: this function never
// fails for well-formed input.
func Check(current []netlist.ElementDescriptor, baseline *policy.Baseline) int {
	return Evaluate(current, baseline).Result
}

// #endregion check

// #region evaluate

// Evaluate reconciles the current descriptor sequence against the baseline
// by identity key and judges every difference under the baseline's policy:
//
//   - matched pair, params unchanged: fine
//   - matched pair, params changed: baseline position must be editable
//   - deleted element: baseline position must be removable (per-position,
//     never relaxed by a type-level quota)
//   - added elements: per API type, count must fit the type's MaxAdd quota;
//     no rule means an implicit quota of zero
//
// A position change is a deletion plus an addition, not an edit. The check
// passes only when every difference individually passes.
func Evaluate(current []netlist.ElementDescriptor, baseline *policy.Baseline) Decision {
	if baseline == nil || baseline.Descriptors == nil {
		return Decision{Result: 1}
	}

	editable := baseline.Policy.EditableSet()
	removable := baseline.Policy.RemovableSet()

	// Identity key -> unconsumed baseline positions, in baseline order.
	// Duplicate keys are consumed first-to-last so repeated identical
	// elements still pair one-to-one.
	byKey := make(map[string][]int, len(baseline.Descriptors))
	for i, d := range baseline.Descriptors {
		key := d.IdentityKey()
		byKey[key] = append(byKey[key], i)
	}

	var violations []Violation
	matched := make(map[int]bool, len(baseline.Descriptors))
	var added []netlist.ElementDescriptor

	for _, cur := range current {
		key := cur.IdentityKey()
		positions := byKey[key]
		if len(positions) == 0 {
			added = append(added, cur)
			continue
		}
		pos := positions[0]
		byKey[key] = positions[1:]
		matched[pos] = true

		if cur.ParamSig == baseline.Descriptors[pos].ParamSig {
			continue
		}
		if _, ok := editable[pos]; !ok {
			violations = append(violations, Violation{
				Type: ViolationEdit,
				Reason: fmt.Sprintf("element %d (%s) parameters changed at locked position",
					pos, cur.APIType),
			})
		}
	}

	// Baseline elements with no counterpart in current are deletions.
	for pos, d := range baseline.Descriptors {
		if matched[pos] {
			continue
		}
		if _, ok := removable[pos]; !ok {
			violations = append(violations, Violation{
				Type: ViolationRemoval,
				Reason: fmt.Sprintf("element %d (%s) removed at locked position",
					pos, d.APIType),
			})
		}
	}

	// Additions are sanctioned only at the type level.
	addCounts := policy.CountByType(added)
	types := make([]string, 0, len(addCounts))
	for typ := range addCounts {
		types = append(types, typ)
	}
	sort.Strings(types)
	for _, typ := range types {
		n := addCounts[typ]
		rule, ok := baseline.Policy.TypeRules[typ]
		if !ok {
			violations = append(violations, Violation{
				Type:   ViolationAddition,
				Reason: fmt.Sprintf("%d %s added, type not permitted for addition", n, typ),
			})
			continue
		}
		if n > rule.MaxAdd {
			violations = append(violations, Violation{
				Type:   ViolationAddition,
				Reason: fmt.Sprintf("%d %s added, quota is %d", n, typ, rule.MaxAdd),
			})
		}
	}

	if len(violations) > 0 {
		return Decision{Result: 0, Checked: true, Violations: violations}
	}
	return Decision{Result: 1, Checked: true}
}

// #endregion evaluate
