package replay

import (
	"fmt"

	"github.com/gradelab/circuit-integrity/go-verifier/internal/ctz"
	"github.com/gradelab/circuit-integrity/go-verifier/internal/session"
)

// #region types

// TickResult captures the outcome of replaying one tick.
type TickResult struct {
	TickID   string
	Outcome  string // pass | fail | unverifiable | unchecked
	Reason   string
	Expected string
	Match    bool // true when no expectation was recorded or it was met
}

// Summary aggregates a replay run.
type Summary struct {
	TotalTicks   int
	Passes       int
	Fails        int
	Unverifiable int
	Unchecked    int
	Mismatches   int
}

// #endregion types

// #region replay

// Replay runs a fixture through a fresh in-memory session, tick by tick,
// and compares each outcome against the recorded expectation.
func Replay(f *Fixture) ([]TickResult, error) {
	sess := session.New(f.QuestionID, nil)
	if f.Policy != nil {
		if err := sess.AttachPolicy(f.Policy.ToPolicy()); err != nil {
			return nil, err
		}
	}

	results := make([]TickResult, 0, len(f.Ticks))
	for i, tick := range f.Ticks {
		export := tick.Export
		if export == "" && tick.Ctz != "" {
			decoded, err := ctz.ExportFromURL(tick.Ctz)
			if err != nil {
				return nil, fmt.Errorf("tick %d (%s): %w", i, tick.TickID, err)
			}
			export = decoded
		}

		out, err := sess.Tick(export, tick.LiveElements())
		if err != nil {
			return nil, fmt.Errorf("tick %d (%s): %w", i, tick.TickID, err)
		}

		outcome := ExpectUnchecked
		switch {
		case out.Unverifiable:
			outcome = ExpectUnverifiable
		case out.Checked && out.Result == 1:
			outcome = ExpectPass
		case out.Checked:
			outcome = ExpectFail
		}

		results = append(results, TickResult{
			TickID:   tick.TickID,
			Outcome:  outcome,
			Reason:   out.Reason,
			Expected: tick.Expected,
			Match:    tick.Expected == "" || tick.Expected == outcome,
		})
	}
	return results, nil
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []TickResult) Summary {
	s := Summary{TotalTicks: len(results)}
	for _, r := range results {
		switch r.Outcome {
		case ExpectPass:
			s.Passes++
		case ExpectFail:
			s.Fails++
		case ExpectUnverifiable:
			s.Unverifiable++
		case ExpectUnchecked:
			s.Unchecked++
		}
		if !r.Match {
			s.Mismatches++
		}
	}
	return s
}

// #endregion replay
