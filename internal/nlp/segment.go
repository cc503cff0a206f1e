package nlp

import (
	"regexp"
	"strings"
	"time"

	"oraculo/internal/core"
)

// Segment is one candidate expense carved out of a message, carrying the
// date that governs it.
type Segment struct {
	Text string
	Date time.Time
}

var conjunctionRe = regexp.MustCompile(`(?i)\s+e\s+`)

// SegmentMessage splits a message into ordered expense segments. Commas and
// the conjunction "e" are boundaries. A recognized date is adopted as the
// current date and stripped from the segment text; segments without their
// own temporal cue inherit the last declared date, or today when none has
// appeared yet. This gives date-scoping semantics: "paguei aluguel ontem,
// lanche 20" dates both segments yesterday.
func SegmentMessage(text string, now time.Time) []Segment {
	prepared := strings.ReplaceAll(text, ",", " | ")
	prepared = conjunctionRe.ReplaceAllString(prepared, " | ")

	var segments []Segment
	var currentDate time.Time
	for _, part := range strings.Split(prepared, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		remainder := part
		if resolved, ok := ResolveDate(part, now); ok {
			currentDate = resolved.Date
			remainder = stripPhrase(part, resolved.Matched)
		}
		date := currentDate
		if date.IsZero() {
			date = core.Day(now)
		}
		segments = append(segments, Segment{Text: remainder, Date: date})
	}
	return segments
}

// stripPhrase removes the first occurrence of a normalized phrase from the
// original text, matching case- and accent-insensitively. Portuguese
// accented runes normalize one-to-one, so rune offsets line up.
func stripPhrase(text, phrase string) string {
	orig := []rune(text)
	normRunes := make([]rune, len(orig))
	for i, r := range orig {
		n := []rune(Normalize(string(r)))
		if len(n) > 0 {
			normRunes[i] = n[0]
		} else {
			normRunes[i] = r
		}
	}
	idx := strings.Index(string(normRunes), phrase)
	if idx < 0 {
		return strings.TrimSpace(text)
	}
	runeStart := len([]rune(string(normRunes)[:idx]))
	runeEnd := runeStart + len([]rune(phrase))
	stripped := string(orig[:runeStart]) + string(orig[runeEnd:])
	return strings.Join(strings.Fields(stripped), " ")
}
