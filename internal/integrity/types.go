package integrity

// #region violation-type

// ViolationType enumerates the ways a current snapshot can break policy.
type ViolationType string

const (
	ViolationEdit     ViolationType = "locked_edit"
	ViolationRemoval  ViolationType = "locked_removal"
	ViolationAddition ViolationType = "addition_quota"
)

// #endregion violation-type

// #region violation

// Violation is one detected policy break.
type Violation struct {
	Type   ViolationType
	Reason string
}

// #endregion violation

// #region decision

// Decision is the output of one integrity evaluation.
type Decision struct {
	// Result is 1 for pass, 0 for fail. A missing baseline always yields 1:
	// checking is strictly opt-in.
	Result int
	// Checked is false when no baseline was available and the pass is
	// therefore "no opinion" rather than a verified pass.
	Checked bool
	// Violations lists every policy break found; empty when Result is 1.
	Violations []Violation
}

// #endregion decision
