// Package readout derives human-readable display values for circuit
// elements: the primary configuration parameter of each element, formatted
// with an SI prefix and the unit conventional for its type.
package readout

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gradelab/circuit-integrity/go-verifier/internal/netlist"
)

// #region unit-tables

// typeUnits maps API type names to the unit of the element's main value.
var typeUnits = map[string]string{
	"ResistorElm":  "Ω",
	"CapacitorElm": "F",
	"InductorElm":  "H",
	"VoltageElm":   "V",
	"CurrentElm":   "A",
	"DiodeElm":     "",
	"PotElm":       "Ω",
	"VarRailElm":   "V",
	"RailElm":      "V",
}

// valueParamOffset maps type codes whose main value is not the first
// parameter to the offset of the value within the parameter list. Voltage
// sources and rails lead with a waveform selector.
var valueParamOffset = map[string]int{
	"v":   1,
	"R":   1,
	"174": 1,
}

// #endregion unit-tables

// #region si-format

var siSteps = []struct {
	threshold float64
	prefix    string
}{
	{1e12, "T"}, {1e9, "G"}, {1e6, "M"}, {1e3, "k"}, {1, ""},
	{1e-3, "m"}, {1e-6, "µ"}, {1e-9, "n"}, {1e-12, "p"},
}

// SIFormat renders a numeric token with an SI prefix and unit. Non-numeric
// tokens pass through unchanged.
func SIFormat(token, unit string) string {
	val, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return token
	}
	if val == 0 {
		return strings.TrimSpace("0 " + unit)
	}
	abs := math.Abs(val)
	for _, step := range siSteps {
		if abs >= step.threshold {
			return strings.TrimSpace(fmt.Sprintf("%.4g %s%s", val/step.threshold, step.prefix, unit))
		}
	}
	return strings.TrimSpace(fmt.Sprintf("%.4g %s", val, unit))
}

// #endregion si-format

// #region values

// Values returns one display string per descriptor, "" where the element
// has no extractable main value (wires, truncated parameter lists).
func Values(descriptors []netlist.ElementDescriptor) []string {
	values := make([]string, len(descriptors))
	for i, d := range descriptors {
		params := strings.Fields(d.ParamSig)
		offset := valueParamOffset[d.TypeCode]
		if offset >= len(params) {
			continue
		}
		values[i] = SIFormat(params[offset], typeUnits[d.APIType])
	}
	return values
}

// #endregion values
