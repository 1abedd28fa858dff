package orchestrator

import (
	"image"

	"github.com/MeKo-Tech/docstruct/internal/geometry"
	"github.com/MeKo-Tech/docstruct/internal/vision"
)

// minRegionBoxes is the smallest cell count a boxed-grid region may have.
const minRegionBoxes = 4

// gridBoxDetector is the built-in boxed-grid form region detector. It scores
// the full page for boxed-grid structure and, when the page qualifies, merges
// adjacent cell rows into region bounding boxes.
type gridBoxDetector struct{}

func (gridBoxDetector) DetectRegions(img image.Image) []geometry.Bbox {
	analysis := vision.AnalyzeRegion(img)
	if !analysis.IsFormRegion() || len(analysis.Rows) == 0 {
		return nil
	}

	// Row bounds in top-to-bottom order.
	rowBoxes := make([]geometry.Bbox, 0, len(analysis.Rows))
	for _, row := range analysis.Rows {
		if rb, ok := geometry.UnionAll(row); ok {
			rowBoxes = append(rowBoxes, rb)
		}
	}
	if len(rowBoxes) == 0 {
		return nil
	}

	medH := medianHeight(rowBoxes)
	maxGap := 2 * medH

	var regions []geometry.Bbox
	current := rowBoxes[0]
	count := len(analysis.Rows[0])
	flush := func() {
		if count >= minRegionBoxes {
			regions = append(regions, current)
		}
	}
	for i := 1; i < len(rowBoxes); i++ {
		rb := rowBoxes[i]
		if rb.Y1-current.Y2 <= maxGap {
			current = current.Union(rb)
			count += len(analysis.Rows[i])
			continue
		}
		flush()
		current = rb
		count = len(analysis.Rows[i])
	}
	flush()
	return regions
}

func medianHeight(boxes []geometry.Bbox) int {
	hs := make([]float64, 0, len(boxes))
	for _, b := range boxes {
		hs = append(hs, float64(b.Height()))
	}
	m := geometry.Median(hs, 12)
	return int(m)
}

// maskCheckboxDetector is the built-in checkbox detector backed by the
// raster heuristics in the vision package.
type maskCheckboxDetector struct{}

func (maskCheckboxDetector) DetectCheckboxes(img image.Image) []vision.Checkbox {
	return vision.DetectCheckboxes(img)
}
