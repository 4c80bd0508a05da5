package relay

import (
	"github.com/gradelab/circuit-integrity/go-verifier/internal/netlist"
	"github.com/gradelab/circuit-integrity/go-verifier/internal/policy"
)

// Message type strings on the relay socket. Inbound types come from the
// question-page shim, outbound types go back to it.
const (
	MsgSubscribe = "circuitjs-subscribe"
	MsgTick      = "circuitjs-tick"
	MsgSession   = "circuitjs-session"
	MsgData      = "circuitjs-data"
	MsgElements  = "circuitjs-elements"
	MsgError     = "circuitjs-error"
)

// #region inbound

// Envelope carries just enough to dispatch an inbound message.
type Envelope struct {
	Type string `json:"type"`
}

// SubscribeMessage opens a grading session. The permission policy comes
// either inline or by question reference into the server's policy
// directory; a subscribe without either runs the session unchecked.
type SubscribeMessage struct {
	Type       string         `json:"type"`
	QuestionID string         `json:"questionId,omitempty"`
	Rate       int            `json:"rate,omitempty"`
	Policy     *PolicyPayload `json:"policy,omitempty"`
	PolicyRef  string         `json:"policyRef,omitempty"`
}

// PolicyPayload is the wire form of a permission policy.
type PolicyPayload struct {
	EditableIndices  []int                      `json:"editableIndices"`
	RemovableIndices []int                      `json:"removableIndices"`
	TypeRules        map[string]TypeRulePayload `json:"typeRules"`
}

// TypeRulePayload is the wire form of one type quota.
type TypeRulePayload struct {
	MaxAdd    int `json:"maxAdd"`
	MaxRemove int `json:"maxRemove"`
}

// ToPolicy converts the wire form to the domain policy.
func (p *PolicyPayload) ToPolicy() policy.Policy {
	out := policy.Policy{
		EditableIndices:  p.EditableIndices,
		RemovableIndices: p.RemovableIndices,
	}
	if len(p.TypeRules) > 0 {
		out.TypeRules = make(map[string]policy.TypeRule, len(p.TypeRules))
		for typ, rule := range p.TypeRules {
			out.TypeRules[typ] = policy.TypeRule{MaxAdd: rule.MaxAdd, MaxRemove: rule.MaxRemove}
		}
	}
	return out
}

// TickMessage is one simulation tick: the circuit export (raw text, a
// ctz-compressed value, or a simulator URL carrying ctz=), the live element
// list, and the measured values.
type TickMessage struct {
	Type     string             `json:"type"`
	Export   string             `json:"export,omitempty"`
	Ctz      string             `json:"ctz,omitempty"`
	Elements []ElementInfo      `json:"elements"`
	Values   map[string]float64 `json:"values"`
}

// ElementInfo is the live element metadata the simulator shim reports.
// It satisfies netlist.Element.
type ElementInfo struct {
	Index     int    `json:"index"`
	APIType   string `json:"type"`
	Posts     int    `json:"posts"`
	UserLabel string `json:"label,omitempty"`
}

func (e ElementInfo) Category() string { return e.APIType }
func (e ElementInfo) PostCount() int   { return e.Posts }
func (e ElementInfo) Label() string    { return e.UserLabel }

// LiveElements converts the wire list to the aligner's element view.
func LiveElements(infos []ElementInfo) []netlist.Element {
	elements := make([]netlist.Element, len(infos))
	for i, info := range infos {
		elements[i] = info
	}
	return elements
}

// #endregion inbound

// #region outbound

// SessionMessage acknowledges a subscribe.
type SessionMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	Checked   bool   `json:"checked"`
}

// ErrorMessage reports a protocol-level problem to the shim.
type ErrorMessage struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// #endregion outbound
