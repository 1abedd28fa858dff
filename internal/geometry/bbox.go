// Package geometry provides the canonical axis-aligned bounding box type and
// the 1-D statistics helpers shared by the layout, table, and vision packages.
package geometry

// Bbox is an axis-aligned bounding box in integer pixel coordinates.
// A valid box satisfies X1 < X2 and Y1 < Y2.
type Bbox struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// NewBbox returns a box with the corner coordinates normalized so that
// (X1,Y1) is the top-left corner.
func NewBbox(x1, y1, x2, y2 int) Bbox {
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	if y2 < y1 {
		y1, y2 = y2, y1
	}
	return Bbox{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Valid reports whether the box has positive area.
func (b Bbox) Valid() bool {
	return b.X2 > b.X1 && b.Y2 > b.Y1
}

// Width returns the horizontal extent of the box.
func (b Bbox) Width() int { return b.X2 - b.X1 }

// Height returns the vertical extent of the box.
func (b Bbox) Height() int { return b.Y2 - b.Y1 }

// Area returns the box area in square pixels; zero for degenerate boxes.
func (b Bbox) Area() int {
	if !b.Valid() {
		return 0
	}
	return b.Width() * b.Height()
}

// CenterX returns the horizontal center of the box.
func (b Bbox) CenterX() float64 { return float64(b.X1+b.X2) / 2.0 }

// CenterY returns the vertical center of the box.
func (b Bbox) CenterY() float64 { return float64(b.Y1+b.Y2) / 2.0 }

// Union returns the smallest box covering both b and other.
func (b Bbox) Union(other Bbox) Bbox {
	return Bbox{
		X1: min(b.X1, other.X1),
		Y1: min(b.Y1, other.Y1),
		X2: max(b.X2, other.X2),
		Y2: max(b.Y2, other.Y2),
	}
}

// Intersect returns the overlapping region of b and other.
// The second return value is false when the boxes do not overlap.
func (b Bbox) Intersect(other Bbox) (Bbox, bool) {
	r := Bbox{
		X1: max(b.X1, other.X1),
		Y1: max(b.Y1, other.Y1),
		X2: min(b.X2, other.X2),
		Y2: min(b.Y2, other.Y2),
	}
	if !r.Valid() {
		return Bbox{}, false
	}
	return r, true
}

// OverlapRatio returns intersection area divided by the area of b.
// Zero when b is degenerate or the boxes do not overlap.
func (b Bbox) OverlapRatio(other Bbox) float64 {
	area := b.Area()
	if area == 0 {
		return 0
	}
	inter, ok := b.Intersect(other)
	if !ok {
		return 0
	}
	return float64(inter.Area()) / float64(area)
}

// UnionAll returns the union of all boxes in the slice.
// The second return value is false for an empty slice.
func UnionAll(boxes []Bbox) (Bbox, bool) {
	if len(boxes) == 0 {
		return Bbox{}, false
	}
	out := boxes[0]
	for _, b := range boxes[1:] {
		out = out.Union(b)
	}
	return out, true
}
