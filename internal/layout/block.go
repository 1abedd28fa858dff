package layout

import (
	"strings"

	"github.com/MeKo-Tech/docstruct/internal/document"
	"github.com/MeKo-Tech/docstruct/internal/geometry"
)

const (
	// minBlockGap is the floor for the vertical gap threshold in pixels.
	minBlockGap = 8.0
	// blockGapScale scales the median line height into the gap threshold.
	blockGapScale = 1.3
	// indentThreshold is the left-edge shift that starts a new block.
	indentThreshold = 25.0
	// defaultLineHeight is used when line heights cannot be measured.
	defaultLineHeight = 14.0
)

// BuildBlocks walks lines top to bottom and groups them into blocks.
// A new block starts when the vertical gap to the previous line's bottom
// exceeds the gap threshold, or the left edge shifts away from the block's
// anchor by more than the indentation threshold.
func BuildBlocks(lines []document.Line) []document.Block {
	if len(lines) == 0 {
		return nil
	}

	heights := make([]float64, 0, len(lines))
	for _, ln := range lines {
		heights = append(heights, float64(ln.Bbox.Height()))
	}
	medLH := geometry.Median(heights, defaultLineHeight)
	gapThr := blockGapScale * medLH
	if gapThr < minBlockGap {
		gapThr = minBlockGap
	}

	var blocks []document.Block
	var cur []document.Line
	var curBbox geometry.Bbox
	anchorLeft := 0
	prevBottom := 0

	flush := func() {
		if len(cur) == 0 {
			return
		}
		texts := make([]string, 0, len(cur))
		for _, ln := range cur {
			if ln.Text != "" {
				texts = append(texts, ln.Text)
			}
		}
		blocks = append(blocks, document.Block{
			Type:   document.BlockParagraph,
			Text:   strings.TrimSpace(strings.Join(texts, "\n")),
			Lines:  cur,
			Bbox:   curBbox,
			Script: document.ScriptUnknown,
		})
		cur = nil
	}

	for _, ln := range lines {
		if len(cur) == 0 {
			cur = []document.Line{ln}
			curBbox = ln.Bbox
			anchorLeft = ln.Bbox.X1
			prevBottom = ln.Bbox.Y2
			continue
		}

		vgap := float64(ln.Bbox.Y1 - prevBottom)
		shift := float64(ln.Bbox.X1 - anchorLeft)
		if shift < 0 {
			shift = -shift
		}

		if vgap > gapThr || shift > indentThreshold {
			flush()
			cur = []document.Line{ln}
			curBbox = ln.Bbox
			anchorLeft = ln.Bbox.X1
			prevBottom = ln.Bbox.Y2
			continue
		}

		cur = append(cur, ln)
		curBbox = curBbox.Union(ln.Bbox)
		if ln.Bbox.Y2 > prevBottom {
			prevBottom = ln.Bbox.Y2
		}
	}
	flush()
	return blocks
}
