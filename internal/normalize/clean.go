// Package normalize assigns block types, cleans recognized text, detects
// handwriting, aggregates page script labels, and binds checkbox and form
// field annotations to blocks.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	hyphenBreakRe      = regexp.MustCompile(`(\w)[‐‑‒–-]\s*\n\s*(\w)`)
	multiSpaceRe       = regexp.MustCompile(`[ \t]{2,}`)
	spaceBeforePunctRe = regexp.MustCompile(`\s+([,.;:!?])`)
	trailingSpacesRe   = regexp.MustCompile(`[ \t]+\n`)
	multiBlankRe       = regexp.MustCompile(`\n{3,}`)

	listMarkerRe = regexp.MustCompile(`^\s*((?:\[\s*[xX ]\s*\])|(?:[☐☑☒])|(?:[-•*])|(?:\d+\.)|(?:\([a-zA-Z0-9]+\))|(?:[a-zA-Z]\)))\s+`)
)

// CleanText normalizes recognized text: NFC form, hyphenated line breaks
// joined, spaces tightened around punctuation, trailing spaces and excess
// blank lines removed. Idempotent: cleaning already-clean text is a no-op.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = norm.NFC.String(text)
	text = hyphenBreakRe.ReplaceAllString(text, "$1$2")
	text = spaceBeforePunctRe.ReplaceAllString(text, "$1")
	text = trailingSpacesRe.ReplaceAllString(text, "\n")
	text = multiSpaceRe.ReplaceAllString(text, " ")
	text = multiBlankRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// SplitListMarker splits a leading list marker (bullet, checkbox glyph,
// number, or lettered marker) from the rest of the line. Returns an empty
// marker when the line does not start with one.
func SplitListMarker(text string) (marker, rest string) {
	if text == "" {
		return "", ""
	}
	m := listMarkerRe.FindStringSubmatchIndex(text)
	if m == nil {
		return "", strings.TrimSpace(text)
	}
	marker = text[m[2]:m[3]]
	rest = strings.TrimSpace(text[m[1]:])
	return marker, rest
}
