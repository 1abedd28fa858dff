package tables

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/docstruct/internal/document"
	"github.com/MeKo-Tech/docstruct/internal/geometry"
	"github.com/MeKo-Tech/docstruct/internal/testutil"
)

// alignedBlock builds a paragraph block whose tokens sit on aligned column
// centers, with no textual gap structure.
func alignedBlock(cells [][]string) document.Block {
	var lines []document.Line
	for r, row := range cells {
		var toks []document.Token
		x := 100
		for _, text := range row {
			toks = append(toks, testutil.Token(text, x, 50+r*40, 12*len(text), 14))
			x += 150
		}
		bbox, _ := geometry.UnionAll(tokenBoxes(toks))
		lines = append(lines, document.Line{Tokens: toks, Bbox: bbox})
	}
	var all []document.Token
	for _, ln := range lines {
		all = append(all, ln.Tokens...)
	}
	bbox, _ := geometry.UnionAll(tokenBoxes(all))
	return document.Block{Type: document.BlockParagraph, Lines: lines, Bbox: bbox}
}

func TestMarkCandidatesTextGaps(t *testing.T) {
	text := strings.Join([]string{
		"item  qty  price",
		"bolt  12  040",
		"nut  7  015",
		"washer  90  002",
	}, "\n")
	blocks := []document.Block{{Type: document.BlockParagraph, Text: text}}

	out := MarkCandidates(blocks)
	require.True(t, out[0].TableCandidate)
	assert.Equal(t, document.BlockTableRegion, out[0].Type)
	assert.Equal(t, ReasonTextGaps, out[0].CandidateReason)

	// Input slice stays untouched.
	assert.False(t, blocks[0].TableCandidate)
	assert.Equal(t, document.BlockParagraph, blocks[0].Type)
}

func TestMarkCandidatesBboxAlignment(t *testing.T) {
	b := alignedBlock([][]string{
		{"alpha", "beta", "gamma"},
		{"delta", "eps", "zeta"},
		{"eta", "theta", "iota"},
		{"kappa", "mu", "nu"},
		{"xi", "pi", "rho"},
	})

	out := MarkCandidates([]document.Block{b})
	require.True(t, out[0].TableCandidate)
	assert.Equal(t, ReasonBboxAlignment, out[0].CandidateReason)
}

func TestMarkCandidatesPlainParagraphUntouched(t *testing.T) {
	blocks := []document.Block{{
		Type: document.BlockParagraph,
		Text: "An ordinary paragraph of running prose\nwith no tabular structure at all.",
	}}

	out := MarkCandidates(blocks)
	assert.False(t, out[0].TableCandidate)
	assert.Equal(t, document.BlockParagraph, out[0].Type)
	assert.Empty(t, out[0].CandidateReason)
}

func TestMarkCandidatesGapsWithoutNumbersRejected(t *testing.T) {
	text := strings.Join([]string{
		"left  right",
		"up  down",
		"in  out",
	}, "\n")
	out := MarkCandidates([]document.Block{{Type: document.BlockParagraph, Text: text}})
	assert.False(t, out[0].TableCandidate)
}

func TestMarkCandidatesKeepsExistingReason(t *testing.T) {
	b := alignedBlock([][]string{
		{"alpha", "beta", "gamma"},
		{"delta", "eps", "zeta"},
		{"eta", "theta", "iota"},
		{"kappa", "mu", "nu"},
		{"xi", "pi", "rho"},
	})
	b.CandidateReason = "vision_grid"

	out := MarkCandidates([]document.Block{b})
	assert.Equal(t, "vision_grid", out[0].CandidateReason)
}

func TestIsNumericToken(t *testing.T) {
	assert.True(t, isNumericToken("123"))
	assert.True(t, isNumericToken("250,"))
	assert.True(t, isNumericToken("(42)"))
	assert.False(t, isNumericToken("1,250"))
	assert.False(t, isNumericToken("a1"))
	assert.False(t, isNumericToken(""))
	assert.False(t, isNumericToken("..."))
}
