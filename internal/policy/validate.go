package policy

import "fmt"

// #region issue

// Issue is a single problem found while validating a policy against a
// captured baseline. Issues are advisory: a policy with issues still
// evaluates, the dead entries just never match anything.
type Issue struct {
	Field  string
	Reason string
}

// #endregion issue

// #region validate

// Validate checks a policy against the baseline element count. It flags
// out-of-range or negative positions and negative quotas.
func Validate(p Policy, baselineLen int) []Issue {
	var issues []Issue

	for _, idx := range p.EditableIndices {
		if idx < 0 || idx >= baselineLen {
			issues = append(issues, Issue{
				Field:  "editable_indices",
				Reason: fmt.Sprintf("position %d outside baseline of %d elements", idx, baselineLen),
			})
		}
	}
	for _, idx := range p.RemovableIndices {
		if idx < 0 || idx >= baselineLen {
			issues = append(issues, Issue{
				Field:  "removable_indices",
				Reason: fmt.Sprintf("position %d outside baseline of %d elements", idx, baselineLen),
			})
		}
	}
	for typ, rule := range p.TypeRules {
		if rule.MaxAdd < 0 {
			issues = append(issues, Issue{
				Field:  "type_rules",
				Reason: fmt.Sprintf("%s: negative max_add %d", typ, rule.MaxAdd),
			})
		}
		if rule.MaxRemove < 0 {
			issues = append(issues, Issue{
				Field:  "type_rules",
				Reason: fmt.Sprintf("%s: negative max_remove %d", typ, rule.MaxRemove),
			})
		}
	}
	return issues
}

// #endregion validate
