package vision

import (
	"image"
	"sort"

	"github.com/MeKo-Tech/docstruct/internal/geometry"
)

// Boxed-grid form region heuristics. A region qualifies when it shows many
// small cell outlines plus ruling lines, which marks it as handwriting boxes
// rather than running text.
const (
	// GridScoreCutoff is the minimum boxed-grid score for a region to be
	// treated as a form box region.
	GridScoreCutoff = 0.55

	cellMinAspect = 0.45
	cellMaxAspect = 2.2
	cellMaxFill   = 0.65
	cellDedupTol  = 2

	rowMinTolerance   = 6
	rowToleranceScale = 0.6
)

// GridAnalysis is the result of scoring a region for boxed-grid structure.
type GridAnalysis struct {
	Score      float64
	Boxes      []geometry.Bbox
	Rows       [][]geometry.Bbox
	GridPixels int
}

// IsFormRegion reports whether the score clears the boxed-grid cutoff.
func (g GridAnalysis) IsFormRegion() bool { return g.Score >= GridScoreCutoff }

// AnalyzeRegion scores a cropped region for boxed-grid handwriting cells.
// Coordinates in the result are relative to the crop.
func AnalyzeRegion(img image.Image) GridAnalysis {
	mask, w, h := BinarizeImage(img)
	if mask == nil {
		return GridAnalysis{}
	}

	noGrid, gridPixels := RemoveGridLines(mask, w, h)
	boxes := findCellBoxes(noGrid, w, h)

	area := float64(w * h)
	density := float64(len(boxes)) / maxFloat(1.0, area/10000.0)
	gridRatio := float64(gridPixels) / maxFloat(1.0, area)

	score := 0.0
	switch {
	case len(boxes) >= 8:
		score += 0.55
	case len(boxes) >= 4:
		score += 0.35
	}
	switch {
	case gridRatio >= 0.015:
		score += 0.35
	case gridRatio >= 0.008:
		score += 0.20
	}
	switch {
	case density >= 2.0:
		score += 0.20
	case density >= 1.0:
		score += 0.10
	}
	if score > 1.0 {
		score = 1.0
	}

	return GridAnalysis{
		Score:      score,
		Boxes:      boxes,
		Rows:       groupCellRows(boxes),
		GridPixels: gridPixels,
	}
}

// findCellBoxes returns candidate cell rectangles after grid-line removal.
// Size bounds scale with the region so typical form grids resolve at any
// crop resolution.
func findCellBoxes(noGrid []bool, w, h int) []geometry.Bbox {
	comps := connectedComponents(noGrid, w, h)

	minSide := max(8, min(h, w)/80)
	maxSide := max(18, min(h, w)/6)

	var boxes []geometry.Bbox
	for _, c := range comps {
		bw := c.maxX - c.minX + 1
		bh := c.maxY - c.minY + 1
		if bw < minSide || bh < minSide {
			continue
		}
		if bw > maxSide || bh > maxSide {
			continue
		}
		ar := float64(bw) / float64(bh)
		if ar < cellMinAspect || ar > cellMaxAspect {
			continue
		}
		// Mostly filled blobs are glyphs, not cell outlines.
		fill := float64(c.count) / float64(bw*bh)
		if fill > cellMaxFill {
			continue
		}
		boxes = append(boxes, c.bbox())
	}

	return dedupCellBoxes(boxes)
}

func dedupCellBoxes(boxes []geometry.Bbox) []geometry.Bbox {
	if len(boxes) <= 1 {
		return boxes
	}
	sort.Slice(boxes, func(i, j int) bool {
		if boxes[i].Y1 != boxes[j].Y1 {
			return boxes[i].Y1 < boxes[j].Y1
		}
		return boxes[i].X1 < boxes[j].X1
	})
	merged := boxes[:1]
	for _, b := range boxes[1:] {
		p := merged[len(merged)-1]
		if absInt(b.X1-p.X1) <= cellDedupTol && absInt(b.Y1-p.Y1) <= cellDedupTol &&
			absInt(b.X2-p.X2) <= cellDedupTol && absInt(b.Y2-p.Y2) <= cellDedupTol {
			continue
		}
		merged = append(merged, b)
	}
	return merged
}

// groupCellRows clusters cell boxes into rows by vertical center and sorts
// each row left to right.
func groupCellRows(boxes []geometry.Bbox) [][]geometry.Bbox {
	if len(boxes) == 0 {
		return nil
	}

	heights := make([]float64, 0, len(boxes))
	for _, b := range boxes {
		heights = append(heights, float64(b.Height()))
	}
	sort.Float64s(heights)
	medH := heights[len(heights)/2]
	tol := maxFloat(rowMinTolerance, medH*rowToleranceScale)

	ordered := make([]geometry.Bbox, len(boxes))
	copy(ordered, boxes)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].CenterY() < ordered[j].CenterY()
	})

	var rows [][]geometry.Bbox
	for _, b := range ordered {
		yc := b.CenterY()
		placed := false
		for ri := range rows {
			var sum float64
			for _, rb := range rows[ri] {
				sum += rb.CenterY()
			}
			ry := sum / float64(len(rows[ri]))
			d := yc - ry
			if d < 0 {
				d = -d
			}
			if d <= tol {
				rows[ri] = append(rows[ri], b)
				placed = true
				break
			}
		}
		if !placed {
			rows = append(rows, []geometry.Bbox{b})
		}
	}

	for ri := range rows {
		sort.Slice(rows[ri], func(i, j int) bool { return rows[ri][i].X1 < rows[ri][j].X1 })
	}
	return rows
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
