// Package session owns the per-grading-session verification lifecycle: a
// policy attaches once, the baseline is captured exactly once from the
// first aligned tick after that, and every later tick is judged against
// that same immutable baseline.
package session

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gradelab/circuit-integrity/go-verifier/internal/integrity"
	"github.com/gradelab/circuit-integrity/go-verifier/internal/logging"
	"github.com/gradelab/circuit-integrity/go-verifier/internal/netlist"
	"github.com/gradelab/circuit-integrity/go-verifier/internal/policy"
	"github.com/gradelab/circuit-integrity/go-verifier/internal/store"
)

// ErrPolicyAttached reports a second policy attach on the same session.
// Recapturing a baseline would silently legitimize prior tampering, so the
// first attach wins and later ones are rejected.
var ErrPolicyAttached = errors.New("session: policy already attached")

// #region outcome

// Outcome is the result of processing one tick.
type Outcome struct {
	// Checked is true when a baseline existed and the checker ran. Only
	// checked ticks carry an integrity value outward.
	Checked bool
	// Result is the 1/0 integrity value; meaningful only when Checked.
	Result int
	// Unverifiable is true when alignment failed: no descriptors, no
	// integrity opinion either way.
	Unverifiable bool
	// Reason explains a failure or skip, "" on a clean pass.
	Reason string
	// Descriptors is the aligned sequence, nil when Unverifiable.
	Descriptors []netlist.ElementDescriptor
}

// #endregion outcome

// #region session

// Session tracks one learner's grading session.
type Session struct {
	ID         string
	QuestionID string

	store    *store.Store // nil for in-memory sessions (replay, tests)
	policy   *policy.Policy
	baseline *policy.Baseline
	tick     int
}

// New creates a session. The store may be nil, in which case nothing is
// persisted.
func New(questionID string, st *store.Store) *Session {
	return &Session{
		ID:         uuid.New().String(),
		QuestionID: questionID,
		store:      st,
	}
}

// AttachPolicy attaches the author's permission policy, at most once.
func (s *Session) AttachPolicy(p policy.Policy) error {
	if s.policy != nil {
		return ErrPolicyAttached
	}
	s.policy = &p
	if s.store != nil {
		if err := s.store.CreateSession(s.ID, s.QuestionID, p); err != nil {
			return fmt.Errorf("persist session: %w", err)
		}
	}
	return nil
}

// PolicyAttached reports whether integrity checking is active.
func (s *Session) PolicyAttached() bool {
	return s.policy != nil
}

// Baseline returns the captured baseline, nil before capture.
func (s *Session) Baseline() *policy.Baseline {
	return s.baseline
}

// TickCount returns how many ticks this session has processed.
func (s *Session) TickCount() int {
	return s.tick
}

// #endregion session

// #region tick

// Tick aligns one snapshot and evaluates it. The returned error covers
// persistence problems only; alignment failure and integrity failure are
// ordinary outcomes, never errors.
func (s *Session) Tick(export string, elements []netlist.Element) (Outcome, error) {
	s.tick++

	descriptors, err := netlist.Align(export, elements)
	if err != nil {
		out := Outcome{Unverifiable: true, Reason: err.Error()}
		if s.policy == nil {
			return out, nil
		}
		return out, s.logDecision(logging.ResultSkipped, out.Reason, export, elements)
	}

	// No policy: checking is disabled for this session, always report pass
	// without claiming verification.
	if s.policy == nil {
		return Outcome{Descriptors: descriptors}, nil
	}

	if s.baseline == nil {
		s.baseline = policy.CaptureBaseline(descriptors, *s.policy)
		if s.store != nil {
			if err := s.store.SaveBaseline(s.ID, s.baseline); err != nil {
				return Outcome{}, fmt.Errorf("persist baseline: %w", err)
			}
		}
	}

	decision := integrity.Evaluate(descriptors, s.baseline)
	out := Outcome{
		Checked:     true,
		Result:      decision.Result,
		Descriptors: descriptors,
	}
	result := logging.ResultPass
	if decision.Result == 0 {
		result = logging.ResultFail
		out.Reason = decision.Violations[0].Reason
		if len(decision.Violations) > 1 {
			out.Reason = fmt.Sprintf("%s (+%d more)", out.Reason, len(decision.Violations)-1)
		}
	}
	return out, s.logDecision(result, out.Reason, export, elements)
}

func (s *Session) logDecision(result, reason, export string, elements []netlist.Element) error {
	if s.store == nil {
		return nil
	}
	err := logging.LogDecision(s.store.DB(), logging.DecisionEntry{
		SessionID:    s.ID,
		Tick:         s.tick,
		Result:       result,
		Reason:       reason,
		ExportText:   export,
		ElementsJSON: store.MarshalElements(elements),
	})
	if err != nil {
		return fmt.Errorf("persist decision: %w", err)
	}
	return nil
}

// #endregion tick
