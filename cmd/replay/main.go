package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gradelab/circuit-integrity/go-verifier/internal/replay"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to fixture JSON")
	verbose := flag.Bool("v", false, "print failure reasons for every tick")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json [-v]")
		os.Exit(2)
	}

	f, err := replay.LoadFixture(*fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		os.Exit(2)
	}

	results, err := replay.Replay(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		os.Exit(2)
	}

	os.Exit(printResults(f, results, *verbose))
}

// #endregion main

// #region output

func printResults(f *replay.Fixture, results []replay.TickResult, verbose bool) int {
	if f.Description != "" {
		fmt.Printf("Fixture: %s\n\n", f.Description)
	}

	fmt.Printf("%-12s| %-14s| %-14s| %s\n", "Tick", "Expected", "Replayed", "Match")
	fmt.Printf("%-12s+%-15s+%-15s+%s\n",
		"------------", "---------------", "---------------", "------")

	for _, r := range results {
		exp := r.Expected
		if exp == "" {
			exp = "—"
		}
		match := "OK"
		if !r.Match {
			match = "DIFF"
		}
		fmt.Printf("%-12s| %-14s| %-14s| %s\n", r.TickID, exp, r.Outcome, match)
		if verbose && r.Reason != "" {
			fmt.Printf("             reason: %s\n", r.Reason)
		}
	}

	s := replay.Summarize(results)
	fmt.Printf("\nSummary: %d ticks, %d pass, %d fail, %d unverifiable, %d unchecked, %d diverge\n",
		s.TotalTicks, s.Passes, s.Fails, s.Unverifiable, s.Unchecked, s.Mismatches)

	if s.Mismatches > 0 {
		return 1
	}
	return 0
}

// #endregion output
