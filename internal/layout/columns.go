package layout

import (
	"sort"

	"github.com/MeKo-Tech/docstruct/internal/document"
	"github.com/MeKo-Tech/docstruct/internal/geometry"
)

const (
	// minColumnTolerance is the floor for the left-edge clustering tolerance.
	minColumnTolerance = 40.0
	// columnToleranceScale scales the median block width into the tolerance.
	columnToleranceScale = 0.35
)

// OrderByColumns rearranges blocks into reading order for multi-column pages:
// blocks are clustered into columns by left-edge proximity, columns are read
// left to right, and each column top to bottom. Single-cluster pages come back
// in plain top-to-bottom order.
func OrderByColumns(blocks []document.Block) []document.Block {
	if len(blocks) <= 1 {
		return blocks
	}

	widths := make([]float64, 0, len(blocks))
	lefts := make([]float64, 0, len(blocks))
	for _, b := range blocks {
		widths = append(widths, float64(b.Bbox.Width()))
		lefts = append(lefts, float64(b.Bbox.X1))
	}
	tol := columnToleranceScale * geometry.Median(widths, minColumnTolerance)
	if tol < minColumnTolerance {
		tol = minColumnTolerance
	}

	clusters := geometry.Cluster1D(lefts, tol)

	type column struct {
		medianLeft float64
		blocks     []document.Block
	}
	cols := make([]column, len(clusters))
	for i, c := range clusters {
		cols[i].medianLeft = geometry.Median(c, c[0])
	}

	// Assign each block to the column whose range contains its left edge.
	bounds := make([]float64, len(clusters))
	for i, c := range clusters {
		bounds[i] = c[len(c)-1] + tol
	}
	for _, b := range blocks {
		left := float64(b.Bbox.X1)
		idx := len(cols) - 1
		for i := range bounds {
			if left <= bounds[i] {
				idx = i
				break
			}
		}
		cols[idx].blocks = append(cols[idx].blocks, b)
	}

	sort.SliceStable(cols, func(i, j int) bool { return cols[i].medianLeft < cols[j].medianLeft })

	out := make([]document.Block, 0, len(blocks))
	for _, c := range cols {
		sort.SliceStable(c.blocks, func(i, j int) bool {
			if c.blocks[i].Bbox.Y1 != c.blocks[j].Bbox.Y1 {
				return c.blocks[i].Bbox.Y1 < c.blocks[j].Bbox.Y1
			}
			return c.blocks[i].Bbox.X1 < c.blocks[j].Bbox.X1
		})
		out = append(out, c.blocks...)
	}
	return out
}

// Build runs the full layout stage: tokens to lines to column-ordered blocks.
// A page with zero usable tokens yields zero lines and zero blocks.
func Build(tokens []document.Token) ([]document.Line, []document.Block) {
	lines := BuildLines(tokens)
	blocks := OrderByColumns(BuildBlocks(lines))
	return lines, blocks
}
