package netlist

import (
	"sort"
	"strconv"
)

// #region prefix-table

// labelPrefixes maps API type names to auto-label prefixes (R1, C1, ...).
// Types not listed fall back to the first two characters of the type name.
var labelPrefixes = map[string]string{
	"ResistorElm":    "R",
	"CapacitorElm":   "C",
	"InductorElm":    "L",
	"VoltageElm":     "V",
	"CurrentElm":     "I",
	"DiodeElm":       "D",
	"PotElm":         "P",
	"RailElm":        "Vr",
	"VarRailElm":     "Vr",
	"OpAmpElm":       "U",
	"TransistorElm":  "Q",
	"MosfetElm":      "M",
	"SwitchElm":      "S",
	"Switch2Elm":     "S",
	"ZenerElm":       "Dz",
	"LEDElm":         "LED",
	"TransformerElm": "T",
}

// #endregion prefix-table

// #region label-assignment

// LabelAssignment maps element labels to element indices and back.
// Wires are never labeled.
type LabelAssignment struct {
	ByLabel map[string]int
	ByIndex map[int]string
}

// AssignLabels labels every non-wire element. User-assigned labels from the
// simulator win; unlabeled elements get auto-generated per-type sequence
// labels that avoid collisions with the user-assigned ones.
func AssignLabels(elements []Element) LabelAssignment {
	assignment := LabelAssignment{
		ByLabel: make(map[string]int),
		ByIndex: make(map[int]string),
	}
	used := make(map[string]struct{})

	// First pass: user-assigned labels take precedence.
	for i, elem := range elements {
		if elem.Category() == "WireElm" {
			continue
		}
		if lbl := elem.Label(); lbl != "" {
			assignment.ByLabel[lbl] = i
			assignment.ByIndex[i] = lbl
			used[lbl] = struct{}{}
		}
	}

	// Second pass: group the rest by type for sequential auto labels.
	byType := make(map[string][]int)
	for i, elem := range elements {
		if elem.Category() == "WireElm" {
			continue
		}
		if _, ok := assignment.ByIndex[i]; ok {
			continue
		}
		byType[elem.Category()] = append(byType[elem.Category()], i)
	}

	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)

	for _, t := range types {
		prefix, ok := labelPrefixes[t]
		if !ok {
			prefix = t
			if len(prefix) > 2 {
				prefix = prefix[:2]
			}
		}
		seq := 1
		for _, idx := range byType[t] {
			label := autoLabel(prefix, &seq, used)
			assignment.ByLabel[label] = idx
			assignment.ByIndex[idx] = label
			used[label] = struct{}{}
		}
	}
	return assignment
}

// autoLabel returns the next free "<prefix><n>" label, advancing seq past it.
func autoLabel(prefix string, seq *int, used map[string]struct{}) string {
	for {
		label := prefix + strconv.Itoa(*seq)
		*seq++
		if _, taken := used[label]; !taken {
			return label
		}
	}
}

// #endregion label-assignment
