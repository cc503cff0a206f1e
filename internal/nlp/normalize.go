// Package nlp implements the message-understanding pipeline: text
// normalization, date resolution, temporal segmentation, amount extraction,
// category classification and intent detection. Everything here is pure and
// deterministic; no external calls.
package nlp

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases the text and strips diacritics, so keyword matching
// treats "análise" and "analise" the same.
func Normalize(text string) string {
	lower := strings.ToLower(text)
	out, _, err := transform.String(stripMarks, lower)
	if err != nil {
		return lower
	}
	return out
}
