package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/gradelab/circuit-integrity/go-verifier/internal/logging"
	"github.com/gradelab/circuit-integrity/go-verifier/internal/store"
	_ "modernc.org/sqlite"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to circuit_verifier.db")
	sessionID := flag.String("session", "", "show single session detail")
	limit := flag.Int("limit", 20, "max rows to list")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/circuit_verifier.db [--session id] [--limit N] [--json]")
		os.Exit(2)
	}

	st, err := store.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if *sessionID != "" {
		err = runDetailMode(st, *sessionID, *limit, *jsonOut)
	} else {
		err = runListMode(st, *limit, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

func runListMode(st *store.Store, limit int, jsonOut bool) error {
	sessions, err := st.ListSessions(limit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(os.Stderr, "no sessions found")
		return nil
	}

	if jsonOut {
		return printJSON(sessions)
	}

	fmt.Printf("%-38s  %-16s  %-8s  %-9s  %s\n",
		"Session", "Question", "Editable", "Removable", "Created")
	for _, s := range sessions {
		question := s.QuestionID
		if question == "" {
			question = "—"
		}
		fmt.Printf("%-38s  %-16s  %8d  %9d  %s\n",
			s.SessionID, question,
			len(s.Policy.EditableIndices), len(s.Policy.RemovableIndices),
			s.CreatedAt.Format("2006-01-02T15:04:05Z"))
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	Session   store.SessionRow        `json:"session"`
	Baseline  *baselineSummary        `json:"baseline,omitempty"`
	Decisions []logging.DecisionEntry `json:"decisions"`
}

type baselineSummary struct {
	Elements   int            `json:"elements"`
	TypeCounts map[string]int `json:"type_counts"`
}

func runDetailMode(st *store.Store, sessionID string, limit int, jsonOut bool) error {
	session, err := st.GetSession(sessionID)
	if err != nil {
		return err
	}

	baseline, err := st.GetBaseline(sessionID)
	if err != nil {
		return err
	}

	decisions, err := logging.ListDecisions(st.DB(), sessionID, limit)
	if err != nil {
		return err
	}

	out := detailOutput{Session: session, Decisions: decisions}
	if baseline != nil {
		out.Baseline = &baselineSummary{
			Elements:   len(baseline.Descriptors),
			TypeCounts: baseline.TypeCounts,
		}
	}

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Session:   %s\n", session.SessionID)
	fmt.Printf("Question:  %s\n", session.QuestionID)
	fmt.Printf("Created:   %s\n", session.CreatedAt.Format("2006-01-02T15:04:05Z"))
	fmt.Printf("Editable:  %v\n", session.Policy.EditableIndices)
	fmt.Printf("Removable: %v\n", session.Policy.RemovableIndices)
	for typ, rule := range session.Policy.TypeRules {
		fmt.Printf("  %-20s max_add=%d max_remove=%d\n", typ, rule.MaxAdd, rule.MaxRemove)
	}

	if out.Baseline == nil {
		fmt.Println("\nBaseline: not captured")
	} else {
		fmt.Printf("\nBaseline: %d elements\n", out.Baseline.Elements)
		for typ, n := range out.Baseline.TypeCounts {
			fmt.Printf("  %-20s %d\n", typ, n)
		}
	}

	fmt.Printf("\nDecisions (%d):\n", len(decisions))
	fmt.Printf("%-6s  %-8s  %s\n", "Tick", "Result", "Reason")
	for _, d := range decisions {
		reason := d.Reason
		if reason == "" {
			reason = "—"
		}
		fmt.Printf("%6d  %-8s  %s\n", d.Tick, d.Result, reason)
	}
	return nil
}

// #endregion detail-mode

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// #endregion output
