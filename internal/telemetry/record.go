// Package telemetry defines the outgoing per-tick records the relay sends
// back toward the question page.
package telemetry

// IntegrityKey is the conventional name of the integrity value inside a
// tick record. The key is present only on ticks where a baseline existed
// and the checker actually ran, so consumers can tell "verified, passing"
// from "not being checked".
const IntegrityKey = "integrity"

// #region tick-record

// TickRecord carries the measured values for one simulation tick.
type TickRecord struct {
	Type   string             `json:"type"`
	Tick   int                `json:"tick"`
	Values map[string]float64 `json:"values"`
}

// NewTickRecord copies the measured values into a fresh record.
func NewTickRecord(tick int, values map[string]float64) TickRecord {
	merged := make(map[string]float64, len(values)+1)
	for k, v := range values {
		merged[k] = v
	}
	return TickRecord{Type: "circuitjs-data", Tick: tick, Values: merged}
}

// WithIntegrity merges the checker result into the record's values.
func (r TickRecord) WithIntegrity(result int) TickRecord {
	r.Values[IntegrityKey] = float64(result)
	return r
}

// #endregion tick-record

// #region elements-record

// ElementSummary is one row of the element readout panel.
type ElementSummary struct {
	Index int    `json:"index"`
	Type  string `json:"type"`
	Label string `json:"label,omitempty"`
	Value string `json:"value,omitempty"`
}

// ElementsRecord lists the aligned elements with labels and display values.
type ElementsRecord struct {
	Type     string           `json:"type"`
	Tick     int              `json:"tick"`
	Elements []ElementSummary `json:"elements"`
}

// NewElementsRecord wraps element summaries for one tick.
func NewElementsRecord(tick int, elements []ElementSummary) ElementsRecord {
	return ElementsRecord{Type: "circuitjs-elements", Tick: tick, Elements: elements}
}

// #endregion elements-record
