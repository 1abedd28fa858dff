package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"trims", "  hello  ", "hello"},
		{"hyphen break joined", "experi-\nment", "experiment"},
		{"space before punct", "word , next .", "word, next."},
		{"multi space collapsed", "a   b", "a b"},
		{"trailing spaces before newline", "a  \nb", "a\nb"},
		{"excess blank lines", "a\n\n\n\nb", "a\n\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.in))
		})
	}
}

func TestCleanTextIdempotent(t *testing.T) {
	inputs := []string{
		"experi-\nment  continues , now .",
		"plain text",
		"a\n\n\n\nb   c",
	}
	for _, in := range inputs {
		once := CleanText(in)
		assert.Equal(t, once, CleanText(once))
	}
}

func TestSplitListMarker(t *testing.T) {
	tests := []struct {
		in     string
		marker string
		rest   string
	}{
		{"- item text", "-", "item text"},
		{"• bullet", "•", "bullet"},
		{"1. numbered", "1.", "numbered"},
		{"(a) lettered", "(a)", "lettered"},
		{"b) lettered", "b)", "lettered"},
		{"[x] checked", "[x]", "checked"},
		{"[ ] unchecked", "[ ]", "unchecked"},
		{"☑ glyph", "☑", "glyph"},
		{"no marker here", "", "no marker here"},
		{"", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			marker, rest := SplitListMarker(tt.in)
			assert.Equal(t, tt.marker, marker)
			assert.Equal(t, tt.rest, rest)
		})
	}
}
