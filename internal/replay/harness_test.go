package replay

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gradelab/circuit-integrity/go-verifier/internal/ctz"
)

const baseExport = `$ 1 0.000005 10.2 50 5 50
v 176 256 176 112 0 0 40 5 0 0 0.5
r 176 112 368 112 0 1000
r 368 112 368 256 0 2000
w 368 256 176 256 0
`

const editedExport = `$ 1 0.000005 10.2 50 5 50
v 176 256 176 112 0 0 40 5 0 0 0.5
r 176 112 368 112 0 4700
r 368 112 368 256 0 2000
w 368 256 176 256 0
`

const removedExport = `$ 1 0.000005 10.2 50 5 50
v 176 256 176 112 0 0 40 5 0 0 0.5
r 176 112 368 112 0 1000
w 368 256 176 256 0
`

func circuitElements() []FixtureElement {
	return []FixtureElement{
		{APIType: "VoltageElm", Posts: 2},
		{APIType: "ResistorElm", Posts: 2},
		{APIType: "ResistorElm", Posts: 2},
		{APIType: "WireElm", Posts: 2},
	}
}

func TestReplayLockedScenario(t *testing.T) {
	three := circuitElements()
	three = append(three[:2:2], three[3])

	f := &Fixture{
		Description: "locked 4-element circuit",
		Policy:      &FixturePolicy{},
		Ticks: []FixtureTick{
			{TickID: "t1", Export: baseExport, Elements: circuitElements(), Expected: ExpectPass},
			{TickID: "t2", Export: baseExport, Elements: circuitElements(), Expected: ExpectPass},
			{TickID: "t3", Export: editedExport, Elements: circuitElements(), Expected: ExpectFail},
			{TickID: "t4", Export: removedExport, Elements: three, Expected: ExpectFail},
			{TickID: "t5", Export: baseExport, Elements: three, Expected: ExpectUnverifiable},
		},
	}

	results, err := Replay(f)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	for _, r := range results {
		if !r.Match {
			t.Errorf("tick %s: expected %s, got %s (%s)", r.TickID, r.Expected, r.Outcome, r.Reason)
		}
	}

	s := Summarize(results)
	if s.TotalTicks != 5 || s.Passes != 2 || s.Fails != 2 || s.Unverifiable != 1 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if s.Mismatches != 0 {
		t.Fatalf("expected no mismatches, got %d", s.Mismatches)
	}
}

func TestReplayNoPolicyUnchecked(t *testing.T) {
	f := &Fixture{
		Ticks: []FixtureTick{
			{TickID: "t1", Export: baseExport, Elements: circuitElements(), Expected: ExpectUnchecked},
			{TickID: "t2", Export: editedExport, Elements: circuitElements(), Expected: ExpectUnchecked},
		},
	}

	results, err := Replay(f)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	s := Summarize(results)
	if s.Unchecked != 2 || s.Mismatches != 0 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestReplayMismatchDetected(t *testing.T) {
	f := &Fixture{
		Policy: &FixturePolicy{EditableIndices: []int{1}},
		Ticks: []FixtureTick{
			{TickID: "t1", Export: baseExport, Elements: circuitElements(), Expected: ExpectPass},
			// Editing position 1 is permitted, so expecting a fail here is wrong.
			{TickID: "t2", Export: editedExport, Elements: circuitElements(), Expected: ExpectFail},
		},
	}

	results, err := Replay(f)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if Summarize(results).Mismatches != 1 {
		t.Fatalf("expected 1 mismatch, got %+v", Summarize(results))
	}
}

func TestReplayCtzURLTick(t *testing.T) {
	compressed, err := ctz.Compress(baseExport)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}

	f := &Fixture{
		Policy: &FixturePolicy{},
		Ticks: []FixtureTick{
			{
				TickID:   "t1",
				Ctz:      "https://example.org/circuitjs.html?ctz=" + compressed,
				Elements: circuitElements(),
				Expected: ExpectPass,
			},
		},
	}

	results, err := Replay(f)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if results[0].Outcome != ExpectPass || !results[0].Match {
		t.Fatalf("simulator-URL tick should pass, got %+v", results[0])
	}
}

func TestLoadFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.json")
	content := `{
		"description": "demo",
		"policy": {"editable_indices": [1], "removable_indices": [], "type_rules": {"ResistorElm": {"max_add": 1, "max_remove": 0}}},
		"ticks": [
			{"tick_id": "t1", "export": "r 0 0 64 0 0 470", "elements": [{"type": "ResistorElm", "posts": 2}], "expected": "pass"}
		]
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	f, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	if f.Policy.ToPolicy().TypeRules["ResistorElm"].MaxAdd != 1 {
		t.Fatalf("policy not parsed: %+v", f.Policy)
	}

	results, err := Replay(f)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(results) != 1 || results[0].Outcome != ExpectPass || !results[0].Match {
		t.Fatalf("unexpected results: %+v", results)
	}
}
