package netlist

import (
	"errors"
	"fmt"
	"strings"
)

// #region directive-prefixes

// Leading tokens of export lines that do not describe circuit elements:
// "$" global simulation parameters, "o" scope directives, "38" adjustable
// sliders, "h" hints, "&" scope data. Wire lines ("w") are elements and are
// kept so the filtered lines stay 1:1 with the simulator's element list.
var directivePrefixes = map[string]struct{}{
	"$":  {},
	"o":  {},
	"38": {},
	"h":  {},
	"&":  {},
}

// #endregion directive-prefixes

// #region errors

// ErrMisaligned reports that the textual export cannot be paired 1:1 with
// the live element list. This is the "unverifiable state" outcome: callers
// must not turn it into an integrity pass or fail.
var ErrMisaligned = errors.New("netlist: export does not align with live element list")

// #endregion errors

// #region element-lines

// ElementLines filters an export into element lines, dropping blanks and
// directive lines.
func ElementLines(export string) []string {
	var lines []string
	for _, raw := range strings.Split(export, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		prefix, _, _ := strings.Cut(line, " ")
		if _, ok := directivePrefixes[prefix]; ok {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// #endregion element-lines

// #region align

// Align pairs the export's element lines with the live element list and
// produces one ElementDescriptor per element, in element order.
//
// Line format: typeCode (x y)*posts flags param1 param2 ...
// The posts count comes from the live element (default 2). The flags token
// is read and discarded. An empty export with zero live elements is a valid
// empty result, not a failure.
func Align(export string, elements []Element) ([]ElementDescriptor, error) {
	lines := ElementLines(export)
	if len(lines) != len(elements) {
		return nil, fmt.Errorf("%w: %d element lines, %d live elements",
			ErrMisaligned, len(lines), len(elements))
	}

	descriptors := make([]ElementDescriptor, 0, len(lines))
	for i, line := range lines {
		posts := elements[i].PostCount()
		if posts <= 0 {
			posts = 2
		}
		fields := strings.Fields(line)
		coordCount := 2 * posts
		// type + coords + flags is the minimum well-formed line
		if len(fields) < 1+coordCount+1 {
			return nil, fmt.Errorf("%w: line %d has %d tokens, need at least %d for %d posts",
				ErrMisaligned, i, len(fields), 1+coordCount+1, posts)
		}
		descriptors = append(descriptors, ElementDescriptor{
			TypeCode: fields[0],
			Coords:   fields[1 : 1+coordCount],
			ParamSig: strings.Join(fields[2+coordCount:], " "),
			APIType:  elements[i].Category(),
		})
	}
	return descriptors, nil
}

// #endregion align
