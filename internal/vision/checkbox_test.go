package vision

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/docstruct/internal/geometry"
	"github.com/MeKo-Tech/docstruct/internal/testutil"
)

func TestDetectCheckboxesCheckedAndUnchecked(t *testing.T) {
	img := testutil.CheckboxImage(400, 300, 30,
		[]image.Point{{X: 50, Y: 50}, {X: 200, Y: 50}},
		[]bool{true, false})

	boxes := DetectCheckboxes(img)
	require.Len(t, boxes, 2)

	assert.InDelta(t, 50, boxes[0].Bbox.X1, 2)
	assert.True(t, boxes[0].Checked)
	assert.Greater(t, boxes[0].Score, checkboxInkCutoff)

	assert.InDelta(t, 200, boxes[1].Bbox.X1, 2)
	assert.False(t, boxes[1].Checked)
	assert.LessOrEqual(t, boxes[1].Score, checkboxInkCutoff)
}

func TestDetectCheckboxesIgnoresLargeRegions(t *testing.T) {
	// A box covering a third of the page is a table frame, not a checkbox.
	img := testutil.WhitePage(300, 300)
	testutil.DrawRectOutline(img, 50, 50, 180, 180, 2)

	assert.Empty(t, DetectCheckboxes(img))
}

func TestDetectCheckboxesIgnoresNonSquare(t *testing.T) {
	img := testutil.WhitePage(400, 300)
	testutil.DrawRectOutline(img, 50, 50, 60, 20, 2)

	assert.Empty(t, DetectCheckboxes(img))
}

func TestDetectCheckboxesIgnoresSolidBlob(t *testing.T) {
	img := testutil.WhitePage(400, 300)
	testutil.FillRect(img, 50, 50, 30, 30)

	assert.Empty(t, DetectCheckboxes(img))
}

func TestDetectCheckboxesNilImage(t *testing.T) {
	assert.Nil(t, DetectCheckboxes(nil))
}

func TestDedupCheckboxesMergesNearIdentical(t *testing.T) {
	boxes := []Checkbox{
		{Bbox: geometry.NewBbox(50, 50, 80, 80), Score: 0.1},
		{Bbox: geometry.NewBbox(51, 51, 81, 81), Score: 0.4, Checked: true},
		{Bbox: geometry.NewBbox(50, 150, 80, 180), Score: 0.2},
	}

	merged := dedupCheckboxes(boxes)
	require.Len(t, merged, 2)
	assert.InDelta(t, 0.4, merged[0].Score, 1e-9)
	assert.True(t, merged[0].Checked)
	assert.Equal(t, 150, merged[1].Bbox.Y1)
}
