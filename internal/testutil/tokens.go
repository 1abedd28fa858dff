// Package testutil provides synthetic token streams and page images for
// tests: word rows, token grids, and drawn form elements like boxed grids
// and checkboxes.
package testutil

import (
	"github.com/MeKo-Tech/docstruct/internal/document"
	"github.com/MeKo-Tech/docstruct/internal/geometry"
)

// Token builds a token at (x, y) with the given size and a 0.9 confidence.
func Token(text string, x, y, w, h int) document.Token {
	conf := 0.9
	return document.Token{
		Text:       text,
		Bbox:       geometry.NewBbox(x, y, x+w, y+h),
		Confidence: &conf,
	}
}

// Row lays words out left to right on one baseline, 10px apart, with each
// word 12px wide per character.
func Row(y, height int, words ...string) []document.Token {
	tokens := make([]document.Token, 0, len(words))
	x := 10
	for _, w := range words {
		width := 12 * len(w)
		tokens = append(tokens, Token(w, x, y, width, height))
		x += width + 10
	}
	return tokens
}

// Grid lays cells[r][c] out on aligned column centers: rows are rowGap apart
// starting at y0, columns colWidth apart starting at x0.
func Grid(cells [][]string, x0, y0, colWidth, rowGap, cellH int) []document.Token {
	var tokens []document.Token
	for r, row := range cells {
		y := y0 + r*rowGap
		for c, text := range row {
			if text == "" {
				continue
			}
			tokens = append(tokens, Token(text, x0+c*colWidth, y, 12*len(text), cellH))
		}
	}
	return tokens
}

// Paragraph builds several rows of word tokens with the given line spacing.
func Paragraph(y0, lineGap, height int, lines ...[]string) []document.Token {
	var tokens []document.Token
	for i, words := range lines {
		tokens = append(tokens, Row(y0+i*lineGap, height, words...)...)
	}
	return tokens
}
