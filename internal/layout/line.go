// Package layout groups recognized tokens into reading-ordered lines and
// blocks. All thresholds are derived from the page's own statistics so the
// grouping adapts to scan resolution.
package layout

import (
	"sort"
	"strings"

	"github.com/MeKo-Tech/docstruct/internal/document"
	"github.com/MeKo-Tech/docstruct/internal/geometry"
)

const (
	// minLineTolerance is the floor for the vertical band tolerance in pixels.
	minLineTolerance = 6.0
	// lineToleranceScale scales the median token height into the band tolerance.
	lineToleranceScale = 0.6
	// spaceGapScale scales the median character width into the word-gap
	// threshold for space insertion.
	spaceGapScale = 1.5
	// defaultCharWidth is used when a page has no measurable tokens.
	defaultCharWidth = 7.0
	// defaultTokenHeight is used when a page has no measurable tokens.
	defaultTokenHeight = 12.0
	// openLineWindow bounds how many recently opened lines are searched when
	// placing a token. Keeps placement deterministic and O(n) on dense pages.
	openLineWindow = 12
)

type openLine struct {
	tokens  []document.Token
	bbox    geometry.Bbox
	centerY float64
	sumY    float64
}

func (l *openLine) add(t document.Token) {
	l.tokens = append(l.tokens, t)
	l.bbox = l.bbox.Union(t.Bbox)
	l.sumY += t.Bbox.CenterY()
	l.centerY = l.sumY / float64(len(l.tokens))
}

// estimateCharWidth returns the page-wide median character width
// (token width divided by token text length).
func estimateCharWidth(tokens []document.Token) float64 {
	widths := make([]float64, 0, len(tokens))
	for _, t := range tokens {
		n := len(strings.TrimSpace(t.Text))
		if n == 0 {
			continue
		}
		w := t.Bbox.Width()
		if w < 1 {
			w = 1
		}
		widths = append(widths, float64(w)/float64(n))
	}
	return geometry.Median(widths, defaultCharWidth)
}

// LineText joins tokens left to right. Consecutive tokens are separated by a
// single space; a horizontal gap wider than spaceThreshold reads as a column
// gap and is rendered as a double space, which downstream table-candidate
// detection keys on.
func LineText(tokens []document.Token, spaceThreshold float64) string {
	sorted := make([]document.Token, len(tokens))
	copy(sorted, tokens)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Bbox.X1 < sorted[j].Bbox.X1 })

	var sb strings.Builder
	prevRight := 0
	first := true
	for _, t := range sorted {
		txt := strings.TrimSpace(t.Text)
		if txt == "" {
			continue
		}
		if !first {
			if float64(t.Bbox.X1-prevRight) > spaceThreshold {
				sb.WriteString("  ")
			} else {
				sb.WriteString(" ")
			}
		}
		sb.WriteString(txt)
		prevRight = t.Bbox.X2
		first = false
	}
	return strings.TrimSpace(sb.String())
}

// BuildLines groups tokens into lines by vertical center proximity.
// Tokens with degenerate boxes or empty text are dropped silently. The result
// does not depend on the input order of tokens: candidates are re-sorted by
// (vertical center, left edge) before placement.
func BuildLines(tokens []document.Token) []document.Line {
	usable := make([]document.Token, 0, len(tokens))
	for _, t := range tokens {
		if strings.TrimSpace(t.Text) == "" || !t.Bbox.Valid() {
			continue
		}
		usable = append(usable, t)
	}
	if len(usable) == 0 {
		return nil
	}

	heights := make([]float64, 0, len(usable))
	for _, t := range usable {
		heights = append(heights, float64(t.Bbox.Height()))
	}
	medH := geometry.Median(heights, defaultTokenHeight)
	yTol := lineToleranceScale * medH
	if yTol < minLineTolerance {
		yTol = minLineTolerance
	}

	sort.SliceStable(usable, func(i, j int) bool {
		ci, cj := usable[i].Bbox.CenterY(), usable[j].Bbox.CenterY()
		if ci != cj {
			return ci < cj
		}
		return usable[i].Bbox.X1 < usable[j].Bbox.X1
	})

	var open []*openLine
	for _, t := range usable {
		cy := t.Bbox.CenterY()
		var target *openLine
		start := len(open) - openLineWindow
		if start < 0 {
			start = 0
		}
		for _, ln := range open[start:] {
			d := cy - ln.centerY
			if d < 0 {
				d = -d
			}
			if d <= yTol {
				target = ln
				break
			}
		}
		if target == nil {
			nl := &openLine{bbox: t.Bbox}
			nl.add(t)
			open = append(open, nl)
			continue
		}
		target.add(t)
	}

	spaceThr := spaceGapScale * estimateCharWidth(usable)

	lines := make([]document.Line, 0, len(open))
	for _, ol := range open {
		sort.SliceStable(ol.tokens, func(i, j int) bool { return ol.tokens[i].Bbox.X1 < ol.tokens[j].Bbox.X1 })
		bbox := ol.tokens[0].Bbox
		for _, t := range ol.tokens[1:] {
			bbox = bbox.Union(t.Bbox)
		}
		lines = append(lines, document.Line{
			Text:   LineText(ol.tokens, spaceThr),
			Tokens: ol.tokens,
			Bbox:   bbox,
		})
	}
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].Bbox.Y1 != lines[j].Bbox.Y1 {
			return lines[i].Bbox.Y1 < lines[j].Bbox.Y1
		}
		return lines[i].Bbox.X1 < lines[j].Bbox.X1
	})
	return lines
}
