package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/gradelab/circuit-integrity/go-verifier/internal/logging"
	"github.com/gradelab/circuit-integrity/go-verifier/internal/policy"
	"github.com/gradelab/circuit-integrity/go-verifier/internal/replay"
	"github.com/gradelab/circuit-integrity/go-verifier/internal/store"
	_ "modernc.org/sqlite"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to circuit_verifier.db")
	sessionID := flag.String("session", "", "session to export")
	last := flag.Int("last", 50, "number of most recent decision rows to export")
	outPath := flag.String("out", "", "output fixture JSON path")
	flag.Parse()

	if *dbPath == "" || *sessionID == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/db --session id --out path/to/fixture.json [--last N]")
		os.Exit(2)
	}

	if err := run(*dbPath, *sessionID, *last, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region extract

func run(dbPath, sessionID string, last int, outPath string) error {
	st, err := store.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer st.Close()

	session, err := st.GetSession(sessionID)
	if err != nil {
		return err
	}

	decisions, err := logging.ListDecisions(st.DB(), sessionID, last)
	if err != nil {
		return err
	}
	if len(decisions) == 0 {
		return fmt.Errorf("no decision rows found for session %s", sessionID)
	}

	ticks := make([]replay.FixtureTick, 0, len(decisions))
	for _, d := range decisions {
		if d.ExportText == "" {
			continue // nothing to replay without the recorded export
		}
		tick := replay.FixtureTick{
			TickID:   fmt.Sprintf("tick-%d", d.Tick),
			Export:   d.ExportText,
			Expected: mapExpected(d.Result),
		}
		if d.ElementsJSON != "" {
			if err := json.Unmarshal([]byte(d.ElementsJSON), &tick.Elements); err != nil {
				return fmt.Errorf("tick %d: parse elements: %w", d.Tick, err)
			}
		}
		ticks = append(ticks, tick)
	}
	if len(ticks) == 0 {
		return fmt.Errorf("session %s has no replayable decision rows", sessionID)
	}

	fixture := replay.Fixture{
		Description: fmt.Sprintf("Session export: %d decisions from %s", len(ticks), sessionID),
		QuestionID:  session.QuestionID,
		Policy:      toFixturePolicy(session.Policy),
		Ticks:       ticks,
	}

	fmt.Printf("Found %d replayable decision rows\n", len(ticks))
	return writeFixture(fixture, outPath)
}

// mapExpected converts a decision_log result to the fixture expectation.
func mapExpected(result string) string {
	switch result {
	case logging.ResultPass:
		return replay.ExpectPass
	case logging.ResultFail:
		return replay.ExpectFail
	case logging.ResultSkipped:
		return replay.ExpectUnverifiable
	default:
		return ""
	}
}

func toFixturePolicy(p policy.Policy) *replay.FixturePolicy {
	fp := &replay.FixturePolicy{
		EditableIndices:  p.EditableIndices,
		RemovableIndices: p.RemovableIndices,
	}
	if len(p.TypeRules) > 0 {
		fp.TypeRules = make(map[string]replay.FixtureTypeRule, len(p.TypeRules))
		for typ, rule := range p.TypeRules {
			fp.TypeRules[typ] = replay.FixtureTypeRule{MaxAdd: rule.MaxAdd, MaxRemove: rule.MaxRemove}
		}
	}
	return fp
}

// #endregion extract

// #region output

func writeFixture(fixture replay.Fixture, outPath string) error {
	data, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}

	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	fmt.Printf("Wrote fixture to %s (%d bytes, %d ticks)\n", outPath, len(data), len(fixture.Ticks))
	return nil
}

// #endregion output
