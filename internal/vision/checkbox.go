package vision

import (
	"image"
	"sort"

	"github.com/MeKo-Tech/docstruct/internal/geometry"
)

// Checkbox detection thresholds tuned for scanned forms.
const (
	checkboxMinSide      = 10
	checkboxMinArea      = 120
	checkboxMaxArea      = 4000
	checkboxMinAspect    = 0.7
	checkboxMaxAspect    = 1.3
	checkboxMaxPageShare = 0.02
	checkboxBorderInset  = 0.2
	checkboxInkCutoff    = 0.08
	checkboxDedupTol     = 3
)

// Checkbox is a detected square mark and whether it carries ink inside.
type Checkbox struct {
	Bbox    geometry.Bbox
	Checked bool
	Score   float64
}

// DetectCheckboxes finds small square checkboxes on a page image and reports
// whether each is checked. Tuned for scanned forms, not UI screenshots.
func DetectCheckboxes(img image.Image) []Checkbox {
	mask, w, h := BinarizeImage(img)
	if mask == nil {
		return nil
	}
	return detectCheckboxesInMask(mask, w, h)
}

func detectCheckboxesInMask(mask []bool, w, h int) []Checkbox {
	comps := connectedComponents(mask, w, h)
	pageArea := float64(w * h)

	var out []Checkbox
	for _, c := range comps {
		bw := c.maxX - c.minX + 1
		bh := c.maxY - c.minY + 1
		if bw < checkboxMinSide || bh < checkboxMinSide {
			continue
		}
		rectArea := bw * bh
		if float64(rectArea) > checkboxMaxPageShare*pageArea {
			continue
		}
		ar := float64(bw) / float64(bh)
		if ar < checkboxMinAspect || ar > checkboxMaxAspect {
			continue
		}
		if rectArea < checkboxMinArea || rectArea > checkboxMaxArea {
			continue
		}
		// A box outline fills only a fraction of its rect; a solid blob is
		// more likely a glyph.
		if float64(c.count) > 0.9*float64(rectArea) {
			continue
		}

		ink, ok := innerInkRatio(mask, w, c, bw, bh)
		if !ok {
			continue
		}
		out = append(out, Checkbox{
			Bbox:    c.bbox(),
			Checked: ink > checkboxInkCutoff,
			Score:   ink,
		})
	}

	return dedupCheckboxes(out)
}

// innerInkRatio measures ink density inside the box after insetting the
// border so the outline itself does not count as a tick.
func innerInkRatio(mask []bool, w int, c component, bw, bh int) (float64, bool) {
	pad := max(1, int(float64(min(bw, bh))*checkboxBorderInset))
	x1 := c.minX + pad
	y1 := c.minY + pad
	x2 := c.maxX - pad
	y2 := c.maxY - pad
	if x2 <= x1 || y2 <= y1 {
		return 0, false
	}

	ink := 0
	for y := y1; y <= y2; y++ {
		for x := x1; x <= x2; x++ {
			if mask[y*w+x] {
				ink++
			}
		}
	}
	inner := (x2 - x1 + 1) * (y2 - y1 + 1)
	return float64(ink) / float64(inner), true
}

// dedupCheckboxes merges near-identical boxes, keeping the higher score.
func dedupCheckboxes(boxes []Checkbox) []Checkbox {
	if len(boxes) <= 1 {
		return boxes
	}
	sort.Slice(boxes, func(i, j int) bool {
		if boxes[i].Bbox.Y1 != boxes[j].Bbox.Y1 {
			return boxes[i].Bbox.Y1 < boxes[j].Bbox.Y1
		}
		return boxes[i].Bbox.X1 < boxes[j].Bbox.X1
	})

	merged := boxes[:1]
	for _, cb := range boxes[1:] {
		last := &merged[len(merged)-1]
		if absInt(cb.Bbox.X1-last.Bbox.X1) < checkboxDedupTol &&
			absInt(cb.Bbox.Y1-last.Bbox.Y1) < checkboxDedupTol &&
			absInt(cb.Bbox.X2-last.Bbox.X2) < checkboxDedupTol &&
			absInt(cb.Bbox.Y2-last.Bbox.Y2) < checkboxDedupTol {
			if cb.Score > last.Score {
				*last = cb
			}
			continue
		}
		merged = append(merged, cb)
	}
	return merged
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
