package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gradelab/circuit-integrity/go-verifier/internal/netlist"
	"github.com/gradelab/circuit-integrity/go-verifier/internal/policy"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a recorded verification run:
// one policy and a series of ticks with expected outcomes.
type Fixture struct {
	Description string         `json:"description"`
	QuestionID  string         `json:"question_id,omitempty"`
	Policy      *FixturePolicy `json:"policy,omitempty"`
	Ticks       []FixtureTick  `json:"ticks"`
}

// FixturePolicy mirrors policy.Policy with JSON tags.
type FixturePolicy struct {
	EditableIndices  []int                      `json:"editable_indices"`
	RemovableIndices []int                      `json:"removable_indices"`
	TypeRules        map[string]FixtureTypeRule `json:"type_rules"`
}

// FixtureTypeRule mirrors policy.TypeRule.
type FixtureTypeRule struct {
	MaxAdd    int `json:"max_add"`
	MaxRemove int `json:"max_remove"`
}

// FixtureTick is one recorded snapshot. Export may be raw text; Ctz may be
// a compressed value or a simulator URL carrying ctz=. Expected is "pass",
// "fail", "unverifiable", or "" for ticks with no expectation (e.g.
// unchecked sessions).
type FixtureTick struct {
	TickID   string           `json:"tick_id"`
	Export   string           `json:"export,omitempty"`
	Ctz      string           `json:"ctz,omitempty"`
	Elements []FixtureElement `json:"elements"`
	Expected string           `json:"expected,omitempty"`
}

// FixtureElement mirrors the live element metadata. It satisfies
// netlist.Element.
type FixtureElement struct {
	APIType   string `json:"type"`
	Posts     int    `json:"posts"`
	UserLabel string `json:"label,omitempty"`
}

func (e FixtureElement) Category() string { return e.APIType }
func (e FixtureElement) PostCount() int   { return e.Posts }
func (e FixtureElement) Label() string    { return e.UserLabel }

// Expected tick outcomes.
const (
	ExpectPass         = "pass"
	ExpectFail         = "fail"
	ExpectUnverifiable = "unverifiable"
	ExpectUnchecked    = "unchecked"
)

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToPolicy converts the fixture form to the domain policy.
func (fp *FixturePolicy) ToPolicy() policy.Policy {
	p := policy.Policy{
		EditableIndices:  fp.EditableIndices,
		RemovableIndices: fp.RemovableIndices,
	}
	if len(fp.TypeRules) > 0 {
		p.TypeRules = make(map[string]policy.TypeRule, len(fp.TypeRules))
		for typ, rule := range fp.TypeRules {
			p.TypeRules[typ] = policy.TypeRule{MaxAdd: rule.MaxAdd, MaxRemove: rule.MaxRemove}
		}
	}
	return p
}

// LiveElements converts the fixture element list to the aligner's view.
func (ft *FixtureTick) LiveElements() []netlist.Element {
	elements := make([]netlist.Element, len(ft.Elements))
	for i, e := range ft.Elements {
		elements[i] = e
	}
	return elements
}

// #endregion fixture-loader
