package normalize

import (
	"strings"

	"github.com/MeKo-Tech/docstruct/internal/document"
)

// fieldDistanceBudget bounds the squared pixel distance between a label and
// its value block.
const fieldDistanceBudget = 2000 * 2000

// labelKeywords mark printed blocks as likely form labels even without a
// trailing colon.
var labelKeywords = []string{
	"name", "date", "address", "phone", "email", "signature",
	"number", "total", "amount", "id",
}

func isLabelBlock(b *document.Block) bool {
	if b.Script == document.ScriptHandwritten || b.FormBoxRegion {
		return false
	}
	text := strings.TrimSpace(b.TextNormalized)
	if text == "" {
		return false
	}
	if strings.HasSuffix(text, ":") {
		return true
	}
	lower := strings.ToLower(text)
	if len(lower) > 40 {
		return false
	}
	for _, kw := range labelKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func isValueBlock(b *document.Block) bool {
	if strings.TrimSpace(b.TextNormalized) == "" {
		return false
	}
	return b.Script == document.ScriptHandwritten || b.FormBoxRegion
}

// BindFormFields pairs label blocks with handwritten or boxed value blocks
// lying strictly to the label's right on the same horizontal band. Values
// without a matching label stay unbound and produce no field.
func BindFormFields(blocks []document.Block) []document.FormField {
	var fields []document.FormField

	for vi := range blocks {
		v := &blocks[vi]
		if !isValueBlock(v) {
			continue
		}
		vy := (v.Bbox.Y1 + v.Bbox.Y2) / 2

		bestIdx := -1
		bestDist := int64(fieldDistanceBudget)
		for li := range blocks {
			if li == vi {
				continue
			}
			l := &blocks[li]
			if !isLabelBlock(l) {
				continue
			}
			// Value must start at or right of the label's right edge.
			if v.Bbox.X1 < l.Bbox.X2 {
				continue
			}
			ly := (l.Bbox.Y1 + l.Bbox.Y2) / 2
			band := l.Bbox.Height()
			if band < minBandTolerance {
				band = minBandTolerance
			}
			dy := ly - vy
			if dy < 0 {
				dy = -dy
			}
			if dy > band {
				continue
			}
			dx := v.Bbox.X1 - l.Bbox.X2
			dist := int64(dx)*int64(dx) + int64(dy)*int64(dy)
			if dist < bestDist {
				bestDist = dist
				bestIdx = li
			}
		}
		if bestIdx < 0 {
			continue
		}

		label := &blocks[bestIdx]
		method := "layout"
		if v.Engine != "" {
			method = v.Engine
		} else if v.FormBoxRegion {
			method = "box_ocr"
		}
		field := document.FormField{
			Key:    strings.TrimSuffix(strings.TrimSpace(label.TextNormalized), ":"),
			Value:  strings.TrimSpace(v.TextNormalized),
			Method: method,
		}
		bb := v.Bbox
		field.Bbox = &bb
		if conf := blockConfidence(v.Tokens()); conf != nil {
			field.Confidence = conf
		}
		fields = append(fields, field)
	}
	return fields
}
