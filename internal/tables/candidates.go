// Package tables flags blocks that look statistically tabular and extracts
// row/column grids with merged-cell spans from the flagged blocks.
package tables

import (
	"strings"

	"github.com/MeKo-Tech/docstruct/internal/document"
	"github.com/MeKo-Tech/docstruct/internal/geometry"
)

const (
	// candidateMinNumericTokens is the minimum count of numeric tokens for
	// the text-gap heuristic.
	candidateMinNumericTokens = 6
	// alignmentMinSampledLines is how many leading lines the bbox-alignment
	// heuristic inspects.
	alignmentMinSampledLines = 10
	// alignmentMinCenters is the minimum token-center sample size.
	alignmentMinCenters = 15
	// alignmentMinColumns is the minimum number of strongly supported
	// horizontal bands for the alignment heuristic.
	alignmentMinColumns = 3
)

// ReasonTextGaps and ReasonBboxAlignment tag which heuristic promoted a block.
const (
	ReasonTextGaps      = "text_gaps"
	ReasonBboxAlignment = "bbox_alignment"
)

func isNumericToken(tok string) bool {
	t := strings.Trim(tok, ".,()")
	if t == "" {
		return false
	}
	for _, r := range t {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// looksTabularByText detects ruled-text tables: at least half the lines carry
// inner double spacing and the block holds enough numeric tokens.
func looksTabularByText(b *document.Block) bool {
	lines := strings.Split(b.Text, "\n")
	if len(lines) == 0 || b.Text == "" {
		return false
	}
	multiSpace := 0
	for _, ln := range lines {
		if strings.Contains(ln, "  ") {
			multiSpace++
		}
	}
	numeric := 0
	for _, tok := range strings.Fields(strings.ReplaceAll(b.Text, "\n", " ")) {
		if isNumericToken(tok) {
			numeric++
		}
	}
	need := len(lines) / 2
	if need < 2 {
		need = 2
	}
	return multiSpace >= need && numeric >= candidateMinNumericTokens
}

// looksTabularByAlignment detects borderless tables from token-center
// clustering: enough sampled lines with several tokens whose x-centers fall
// into at least three bands, each supported across the sampled lines.
func looksTabularByAlignment(b *document.Block) bool {
	if len(b.Lines) < alignmentMinColumns {
		return false
	}
	sample := b.Lines
	if len(sample) > alignmentMinSampledLines {
		sample = sample[:alignmentMinSampledLines]
	}

	var centers, widths []float64
	nonEmpty := 0
	for _, ln := range sample {
		if len(ln.Tokens) < 3 {
			continue
		}
		nonEmpty++
		for _, t := range ln.Tokens {
			if !t.Bbox.Valid() {
				continue
			}
			centers = append(centers, t.Bbox.CenterX())
			w := float64(t.Bbox.Width())
			if w < 1 {
				w = 1
			}
			widths = append(widths, w)
		}
	}
	if nonEmpty < 3 || len(centers) < alignmentMinCenters {
		return false
	}

	blockWidth := float64(b.Bbox.Width())
	if blockWidth <= 0 {
		blockWidth = 1000.0
	}
	tol := geometry.Median(widths, 10) * 0.9
	if bw := blockWidth * 0.02; bw > tol {
		tol = bw
	}

	clusters := geometry.Cluster1D(centers, tol)
	minSupport := nonEmpty
	if minSupport < 3 {
		minSupport = 3
	}
	strong := 0
	for _, c := range clusters {
		if len(c) >= minSupport {
			strong++
		}
	}
	return strong >= alignmentMinColumns
}

// MarkCandidates tags blocks that are statistically likely to contain tabular
// data. Promoted blocks become table_region typed; everything else is left
// untouched. Both heuristics are independent; either promotes.
func MarkCandidates(blocks []document.Block) []document.Block {
	out := make([]document.Block, len(blocks))
	copy(out, blocks)
	for i := range out {
		b := &out[i]
		byText := looksTabularByText(b)
		byAlign := looksTabularByAlignment(b)
		if !byText && !byAlign {
			b.TableCandidate = false
			continue
		}
		b.TableCandidate = true
		b.Type = document.BlockTableRegion
		if b.CandidateReason == "" {
			if byAlign {
				b.CandidateReason = ReasonBboxAlignment
			} else {
				b.CandidateReason = ReasonTextGaps
			}
		}
	}
	return out
}
