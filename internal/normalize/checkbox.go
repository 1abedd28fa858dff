package normalize

import (
	"github.com/MeKo-Tech/docstruct/internal/document"
	"github.com/MeKo-Tech/docstruct/internal/geometry"
)

// checkboxDistanceBudget bounds the squared pixel distance between a checkbox
// and its bound block.
const checkboxDistanceBudget = 3000 * 3000

// minBandTolerance is the floor for the vertical band match between a
// checkbox and a block center.
const minBandTolerance = 12

// DetectedCheckbox is the output of the external checkbox detector.
type DetectedCheckbox struct {
	Bbox    geometry.Bbox
	Checked bool
	Score   float64
}

// AttachCheckboxes binds detected checkbox marks to the nearest block on the
// same horizontal band that lies to the marker's right. The bound block takes
// a `[x]`/`[ ]` marker and becomes a list item unless it already carries a
// stronger type.
func AttachCheckboxes(blocks []document.Block, boxes []DetectedCheckbox) {
	if len(blocks) == 0 || len(boxes) == 0 {
		return
	}

	for _, cb := range boxes {
		ccy := (cb.Bbox.Y1 + cb.Bbox.Y2) / 2

		bestIdx := -1
		bestDist := int64(checkboxDistanceBudget)

		for i := range blocks {
			bb := blocks[i].Bbox
			if !bb.Valid() {
				continue
			}
			by := (bb.Y1 + bb.Y2) / 2

			band := bb.Height() / 2
			if band < minBandTolerance {
				band = minBandTolerance
			}
			dy := by - ccy
			if dy < 0 {
				dy = -dy
			}
			if dy > band {
				continue
			}
			// The checkbox must sit to the left of the block's text.
			if cb.Bbox.X2 > bb.X2 {
				continue
			}

			dx := 0
			if cb.Bbox.X2 <= bb.X1 {
				dx = bb.X1 - cb.Bbox.X2
			}
			dist := int64(dx)*int64(dx) + int64(dy)*int64(dy)
			if dist < bestDist {
				bestDist = dist
				bestIdx = i
			}
		}

		if bestIdx < 0 {
			continue
		}
		b := &blocks[bestIdx]
		mark := cb
		b.Checkbox = &document.CheckboxMark{Checked: mark.Checked, Bbox: mark.Bbox, Score: mark.Score}
		switch b.Type {
		case document.BlockHeading, document.BlockTableRegion:
		default:
			b.Type = document.BlockListItem
		}
		if cb.Checked {
			b.Marker = "[x]"
		} else {
			b.Marker = "[ ]"
		}
	}
}
