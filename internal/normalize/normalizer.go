package normalize

import (
	"strings"

	"github.com/MeKo-Tech/docstruct/internal/document"
)

// headingMaxLen is the absolute text-length ceiling for heading detection;
// pages with long lines raise the ceiling proportionally.
const headingMaxLen = 40

func isHeading(text string, avgLineLen float64, isTopBlock bool) bool {
	if text == "" {
		return false
	}
	limit := headingMaxLen
	if scaled := int(avgLineLen * 0.8); scaled > limit {
		limit = scaled
	}
	if len(text) > limit {
		return false
	}
	return isAllUpper(text) || isTopBlock
}

func isAllUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if (r >= 'A' && r <= 'Z') || (r >= 'À' && r <= 'Þ') {
			hasLetter = true
		}
	}
	return hasLetter
}

// averageLineLength estimates the typical line length of a page, used to
// scale the heading-length ceiling to the page's text density.
func averageLineLength(blocks []document.Block) float64 {
	total, n := 0, 0
	for i := range blocks {
		for _, ln := range blocks[i].Lines {
			t := strings.TrimSpace(ln.Text)
			if t == "" {
				continue
			}
			total += len(t)
			n++
		}
	}
	if n == 0 {
		return 60.0
	}
	return float64(total) / float64(n)
}

// Blocks assigns block types and script labels in place and returns the
// per-block scripts for page aggregation. Table-typed blocks are never
// reclassified as heading or list item. Running Blocks over already
// normalized input yields identical output.
func Blocks(blocks []document.Block) []document.Script {
	avgLineLen := averageLineLength(blocks)
	scripts := make([]document.Script, 0, len(blocks))

	for i := range blocks {
		b := &blocks[i]

		if b.Type == "" {
			b.Type = document.BlockParagraph
		}
		b.TextNormalized = CleanText(b.Text)

		firstLine := b.TextNormalized
		if idx := strings.IndexByte(firstLine, '\n'); idx >= 0 {
			firstLine = firstLine[:idx]
		}
		marker, _ := SplitListMarker(firstLine)

		if b.Type != document.BlockTableRegion && isHeading(b.TextNormalized, avgLineLen, i == 0) {
			b.Type = document.BlockHeading
		}
		if b.Type != document.BlockHeading && b.Type != document.BlockTableRegion && marker != "" {
			b.Type = document.BlockListItem
			b.Marker = marker
		}

		if b.Type == document.BlockHeading {
			b.Level = 1
		} else {
			b.Level = 0
		}

		// The marker is metadata; rendered text carries only the content.
		if b.Type == document.BlockListItem {
			lines := strings.SplitN(b.TextNormalized, "\n", 2)
			_, rest := SplitListMarker(lines[0])
			if len(lines) == 2 {
				b.TextNormalized = strings.TrimSpace(rest + "\n" + lines[1])
			} else {
				b.TextNormalized = rest
			}
		}

		script, score, signals := DetectHandwriting(b)
		b.Script = script
		b.HandwritingScore = score
		b.Signals = signals
		scripts = append(scripts, script)
	}
	return scripts
}

// ApplyPageScript merges the block-level aggregate into an earlier page
// classification. The aggregate only ever overrides toward handwritten or
// mixed; a strong printed aggregate never downgrades an existing label.
func ApplyPageScript(classification document.PageScript, aggregate document.PageScript) document.PageScript {
	if aggregate == document.PageHandwritten || aggregate == document.PageMixed {
		return aggregate
	}
	return classification
}
