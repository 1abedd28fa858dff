package pdf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageTextUsable(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"empty", "", false},
		{"too few words", "just three words", false},
		{"normal prose", "this page carries a real extracted text layer", true},
		{"mostly garbage", ". . ; ; % % & & @ @ # #", false},
		{"numeric table", "42 17 93 100 8 covering several rows", true},
		{"half garbage", "word1 word2 word3 %%%%%%%%%%%%%%%%%%%%%%%%%%%%% w x", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pt := PageText{
				Text:      tt.text,
				WordCount: len(strings.Fields(tt.text)),
			}
			assert.Equal(t, tt.want, pt.Usable())
		})
	}
}

func TestValidateMissingFile(t *testing.T) {
	err := Validate("/nonexistent/file.pdf")
	assert.Error(t, err)
}

func TestPageCountMissingFile(t *testing.T) {
	_, err := PageCount("/nonexistent/file.pdf")
	assert.Error(t, err)
}
