package session

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gradelab/circuit-integrity/go-verifier/internal/logging"
	"github.com/gradelab/circuit-integrity/go-verifier/internal/netlist"
	"github.com/gradelab/circuit-integrity/go-verifier/internal/policy"
	"github.com/gradelab/circuit-integrity/go-verifier/internal/store"
)

type fakeElement struct {
	category string
	posts    int
	label    string
}

func (e fakeElement) Category() string { return e.category }
func (e fakeElement) PostCount() int   { return e.posts }
func (e fakeElement) Label() string    { return e.label }

const export = `$ 1 0.000005 10.2 50 5 50
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

func elements() []netlist.Element {
	return []netlist.Element{
		fakeElement{category: "VoltageElm", posts: 2},
		fakeElement{category: "ResistorElm", posts: 2},
		fakeElement{category: "ResistorElm", posts: 2},
		fakeElement{category: "WireElm", posts: 2},
	}
}

func TestNoPolicyNeverChecked(t *testing.T) {
	s := New("q1", nil)

	out, err := s.Tick(export, elements())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if out.Checked {
		t.Fatal("session without policy must not check integrity")
	}
	if out.Unverifiable {
		t.Fatal("aligned tick must not be unverifiable")
	}
}

func TestBaselineCapturedOnFirstPolicyTick(t *testing.T) {
	s := New("q1", nil)
	if err := s.AttachPolicy(policy.Policy{}); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if s.Baseline() != nil {
		t.Fatal("baseline must not exist before the first tick")
	}

	out, err := s.Tick(export, elements())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if !out.Checked || out.Result != 1 {
		t.Fatalf("capture tick must be a checked pass, got %+v", out)
	}
	if s.Baseline() == nil {
		t.Fatal("baseline must exist after the first policy tick")
	}
}

func TestBaselineNotRecaptured(t *testing.T) {
	s := New("q1", nil)
	if err := s.AttachPolicy(policy.Policy{}); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if _, err := s.Tick(export, elements()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	captured := s.Baseline()

	// A later edited tick must be judged against the original baseline,
	// not silently re-baselined.
	out, err := s.Tick(editedExport, elements())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if out.Result != 0 {
		t.Fatal("edit under locked policy must fail against the original baseline")
	}
	if s.Baseline() != captured {
		t.Fatal("baseline must never be recaptured")
	}
}

func TestSecondPolicyAttachRejected(t *testing.T) {
	s := New("q1", nil)
	if err := s.AttachPolicy(policy.Policy{}); err != nil {
		t.Fatalf("attach: %v", err)
	}
	err := s.AttachPolicy(policy.Policy{EditableIndices: []int{1}})
	if !errors.Is(err, ErrPolicyAttached) {
		t.Fatalf("expected ErrPolicyAttached, got %v", err)
	}
}

func TestMisalignedTickUnverifiable(t *testing.T) {
	s := New("q1", nil)
	if err := s.AttachPolicy(policy.Policy{}); err != nil {
		t.Fatalf("attach: %v", err)
	}

	out, err := s.Tick(export, elements()[:2])
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if !out.Unverifiable {
		t.Fatal("misaligned tick must be unverifiable")
	}
	if out.Checked {
		t.Fatal("unverifiable tick must not produce an integrity result")
	}
	if s.Baseline() != nil {
		t.Fatal("baseline must not be fabricated from an unverifiable tick")
	}

	// Recovery: the next aligned tick captures the baseline normally.
	out, err = s.Tick(export, elements())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if !out.Checked || out.Result != 1 {
		t.Fatalf("recovered tick must be a checked pass, got %+v", out)
	}
}

func TestEditableEditPasses(t *testing.T) {
	s := New("q1", nil)
	if err := s.AttachPolicy(policy.Policy{EditableIndices: []int{1}}); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if _, err := s.Tick(export, elements()); err != nil {
		t.Fatalf("tick: %v", err)
	}

	out, err := s.Tick(editedExport, elements())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if out.Result != 1 {
		t.Fatalf("permitted edit must pass, got %+v", out)
	}
}

func TestPersistence(t *testing.T) {
	st, err := store.NewStore(filepath.Join(t.TempDir(), "verifier.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	s := New("q42", st)
	if err := s.AttachPolicy(policy.Policy{EditableIndices: []int{1}}); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if _, err := s.Tick(export, elements()); err != nil {
		t.Fatalf("tick 1: %v", err)
	}
	if _, err := s.Tick(editedExport, elements()); err != nil {
		t.Fatalf("tick 2: %v", err)
	}
	if _, err := s.Tick(export, elements()[:1]); err != nil {
		t.Fatalf("tick 3: %v", err)
	}

	row, err := st.GetSession(s.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if row.QuestionID != "q42" {
		t.Errorf("unexpected question id %q", row.QuestionID)
	}
	if len(row.Policy.EditableIndices) != 1 {
		t.Errorf("policy not persisted: %+v", row.Policy)
	}

	baseline, err := st.GetBaseline(s.ID)
	if err != nil {
		t.Fatalf("get baseline: %v", err)
	}
	if baseline == nil || len(baseline.Descriptors) != 4 {
		t.Fatalf("baseline not persisted: %+v", baseline)
	}
	if baseline.TypeCounts["ResistorElm"] != 2 {
		t.Errorf("unexpected type counts: %v", baseline.TypeCounts)
	}

	entries, err := logging.ListDecisions(st.DB(), s.ID, 10)
	if err != nil {
		t.Fatalf("list decisions: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 decision rows, got %d", len(entries))
	}
	if entries[0].Result != logging.ResultPass {
		t.Errorf("tick 1 should pass, got %s", entries[0].Result)
	}
	if entries[1].Result != logging.ResultPass {
		t.Errorf("tick 2 edit at editable position should pass, got %s", entries[1].Result)
	}
	if entries[2].Result != logging.ResultSkipped {
		t.Errorf("tick 3 misaligned should be skipped, got %s", entries[2].Result)
	}
	if !strings.Contains(entries[2].Reason, "align") {
		t.Errorf("skip reason should mention alignment, got %q", entries[2].Reason)
	}
}
