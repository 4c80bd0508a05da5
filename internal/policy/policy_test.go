package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gradelab/circuit-integrity/go-verifier/internal/netlist"
)

func descriptor(typeCode, apiType string, coords ...string) netlist.ElementDescriptor {
	return netlist.ElementDescriptor{TypeCode: typeCode, Coords: coords, APIType: apiType}
}

func TestCountByType(t *testing.T) {
	descs := []netlist.ElementDescriptor{
		descriptor("v", "VoltageElm", "0", "0", "0", "64"),
		descriptor("r", "ResistorElm", "0", "0", "64", "0"),
		descriptor("r", "ResistorElm", "64", "0", "64", "64"),
		descriptor("w", "WireElm", "0", "64", "64", "64"),
	}

	counts := CountByType(descs)

	if counts["ResistorElm"] != 2 {
		t.Errorf("expected 2 resistors, got %d", counts["ResistorElm"])
	}
	if counts["VoltageElm"] != 1 || counts["WireElm"] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestCaptureBaselineCopies(t *testing.T) {
	descs := []netlist.ElementDescriptor{
		descriptor("r", "ResistorElm", "0", "0", "64", "0"),
	}
	descs[0].ParamSig = "1000"

	b := CaptureBaseline(descs, Policy{})

	descs[0].ParamSig = "9999"
	descs[0].Coords[0] = "128"

	if b.Descriptors[0].ParamSig != "1000" {
		t.Error("baseline param sig mutated through input slice")
	}
	if b.Descriptors[0].Coords[0] != "0" {
		t.Error("baseline coords mutated through input slice")
	}
	if b.TypeCounts["ResistorElm"] != 1 {
		t.Errorf("unexpected type counts: %v", b.TypeCounts)
	}
}

func TestIndexSets(t *testing.T) {
	p := Policy{EditableIndices: []int{1, 3}, RemovableIndices: []int{2}}

	editable := p.EditableSet()
	if _, ok := editable[1]; !ok {
		t.Error("expected 1 editable")
	}
	if _, ok := editable[2]; ok {
		t.Error("2 must not be editable")
	}
	if _, ok := p.RemovableSet()[2]; !ok {
		t.Error("expected 2 removable")
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "q1.yaml")
	content := `editable_indices: [1]
removable_indices: [2, 3]
type_rules:
  ResistorElm:
    max_add: 2
    max_remove: 1
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(p.EditableIndices) != 1 || p.EditableIndices[0] != 1 {
		t.Errorf("unexpected editable indices: %v", p.EditableIndices)
	}
	if p.TypeRules["ResistorElm"].MaxAdd != 2 {
		t.Errorf("unexpected type rule: %+v", p.TypeRules["ResistorElm"])
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "q1.json")
	content := `{"editable_indices":[0],"type_rules":{"CapacitorElm":{"max_add":1}}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if p.TypeRules["CapacitorElm"].MaxAdd != 1 {
		t.Errorf("unexpected type rule: %+v", p.TypeRules["CapacitorElm"])
	}
}

func TestLoadForQuestion(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "q7.yml"), []byte("editable_indices: [4]\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	p, err := LoadForQuestion(dir, "q7")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(p.EditableIndices) != 1 || p.EditableIndices[0] != 4 {
		t.Errorf("unexpected policy: %+v", p)
	}

	if _, err := LoadForQuestion(dir, "missing"); err == nil {
		t.Fatal("expected error for missing question policy")
	}
}

func TestValidate(t *testing.T) {
	p := Policy{
		EditableIndices:  []int{0, 5},
		RemovableIndices: []int{-1},
		TypeRules:        map[string]TypeRule{"ResistorElm": {MaxAdd: -2}},
	}

	issues := Validate(p, 4)

	if len(issues) != 3 {
		t.Fatalf("expected 3 issues, got %d: %v", len(issues), issues)
	}

	if issues := Validate(Policy{EditableIndices: []int{0}}, 4); issues != nil {
		t.Fatalf("expected clean policy, got %v", issues)
	}
}
