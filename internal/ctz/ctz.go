// Package ctz handles the simulator's compressed-circuit URL parameter:
// the full textual export, LZString-compressed and URI-encoded, carried as
// "ctz=..." in simulator links and in saved circuit state.
package ctz

import (
	"fmt"
	"regexp"
	"strings"

	lzstring "github.com/daku10/go-lz-string"
)

// #region extract

var ctzParam = regexp.MustCompile(`[?&]ctz=([^&\s]+)`)

// Extract returns the ctz parameter from a simulator URL, or the trimmed
// input unchanged when it is already a bare ctz value.
func Extract(text string) string {
	if m := ctzParam.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return strings.TrimSpace(text)
}

// #endregion extract

// #region codec

// Decompress decodes a ctz value back into export text.
func Decompress(value string) (string, error) {
	text, err := lzstring.DecompressFromEncodedURIComponent(value)
	if err != nil {
		return "", fmt.Errorf("decompress ctz: %w", err)
	}
	return text, nil
}

// Compress encodes export text as a ctz value, the form the simulator
// embeds in URLs.
func Compress(export string) (string, error) {
	value, err := lzstring.CompressToEncodedURIComponent(export)
	if err != nil {
		return "", fmt.Errorf("compress ctz: %w", err)
	}
	return value, nil
}

// ExportFromURL extracts and decompresses in one step.
func ExportFromURL(text string) (string, error) {
	return Decompress(Extract(text))
}

// #endregion codec
