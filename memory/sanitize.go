package memory

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Sanitize normalizes candidate text before storage in three steps:
//
//  1. strip control characters except newline, carriage return, and tab
//  2. Unicode-normalize to composed form (NFC)
//  3. drop any remaining invalid byte sequences
//
// Invalid UTF-8 bytes encountered during the first pass are dropped
// rather than replaced, matching the behavior downstream consumers
// (vector stores, RPC clients) expect.
func Sanitize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if r == utf8.RuneError && size == 1 {
			// Invalid byte, drop it.
			i++
			continue
		}
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			i += size
			continue
		}
		b.WriteRune(r)
		i += size
	}

	normalized := norm.NFC.String(b.String())
	return strings.ToValidUTF8(normalized, "")
}
