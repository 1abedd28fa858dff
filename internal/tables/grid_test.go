package tables

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/docstruct/internal/document"
	"github.com/MeKo-Tech/docstruct/internal/geometry"
	"github.com/MeKo-Tech/docstruct/internal/testutil"
)

// gridBlock builds a table-candidate block from a cell matrix, one line per
// row, columns 150px apart.
func gridBlock(cells [][]string) *document.Block {
	tokens := testutil.Grid(cells, 100, 50, 150, 40, 14)

	var lines []document.Line
	for r := range cells {
		var rowTokens []document.Token
		for _, t := range tokens {
			if t.Bbox.Y1 == 50+r*40 {
				rowTokens = append(rowTokens, t)
			}
		}
		if len(rowTokens) == 0 {
			continue
		}
		bbox, _ := geometry.UnionAll(tokenBoxes(rowTokens))
		lines = append(lines, document.Line{Tokens: rowTokens, Bbox: bbox})
	}
	bbox, _ := geometry.UnionAll(tokenBoxes(tokens))
	return &document.Block{
		Type:           document.BlockTableRegion,
		TableCandidate: true,
		Lines:          lines,
		Bbox:           bbox,
	}
}

func tokenBoxes(tokens []document.Token) []geometry.Bbox {
	out := make([]geometry.Bbox, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, t.Bbox)
	}
	return out
}

var sampleGrid = [][]string{
	{"name", "qty", "price"},
	{"bolt", "12", "040"},
	{"nut", "7", "015"},
	{"washer", "90", "002"},
}

func TestExtractFromBlockFullGrid(t *testing.T) {
	b := gridBlock(sampleGrid)

	table := ExtractFromBlock(b, 0, 1, DefaultConfig())
	require.NotNil(t, table)

	assert.Equal(t, 4, table.NRows)
	assert.Equal(t, 3, table.NCols)
	assert.Equal(t, Method, table.Method)
	assert.GreaterOrEqual(t, table.Score, 0.55)
	assert.Equal(t, []int{0}, table.HeaderRows)

	// Full grid: every cell 1x1, coverage equals the grid size.
	coverage := 0
	for _, c := range table.Cells {
		coverage += c.RowSpan * c.ColSpan
		assert.Less(t, c.Row, table.NRows)
		assert.Less(t, c.Col, table.NCols)
	}
	assert.Equal(t, table.NRows*table.NCols, coverage)

	for _, c := range table.Cells {
		if c.Row == 0 {
			assert.True(t, c.IsHeader)
		} else {
			assert.False(t, c.IsHeader)
		}
	}
}

func TestExtractFromBlockColspanAbsorbsEmptyCell(t *testing.T) {
	cells := [][]string{
		{"title", "", ""},
		{"bolt", "12", "040"},
		{"nut", "7", "015"},
		{"washer", "90", "002"},
	}
	b := gridBlock(cells)

	table := ExtractFromBlock(b, 0, 1, DefaultConfig())
	require.NotNil(t, table)

	var title *document.Cell
	for i := range table.Cells {
		if table.Cells[i].Text == "title" {
			title = &table.Cells[i]
		}
	}
	require.NotNil(t, title)
	assert.Equal(t, 3, title.ColSpan)
}

func TestExtractFromBlockTooSparse(t *testing.T) {
	b := gridBlock([][]string{{"a", "b"}})
	assert.Nil(t, ExtractFromBlock(b, 0, 1, DefaultConfig()))
}

func TestExtractFromBlockSingleColumnRejected(t *testing.T) {
	b := gridBlock([][]string{
		{"one"}, {"two"}, {"three"}, {"four"}, {"five"}, {"six"},
	})
	assert.Nil(t, ExtractFromBlock(b, 0, 1, DefaultConfig()))
}

func TestExtractSkipsNonCandidates(t *testing.T) {
	blocks := []document.Block{
		{Type: document.BlockParagraph, Text: "prose"},
		*gridBlock(sampleGrid),
	}

	tables := Extract(blocks, 3, DefaultConfig())
	require.Len(t, tables, 1)
	assert.Equal(t, 3, tables[0].PageNumber)
	assert.Equal(t, 1, tables[0].SourceBlockIndex)
}

func TestScoreGridBounds(t *testing.T) {
	assert.InDelta(t, 1.0, scoreGrid(4, 3, 12), 1e-9)
	assert.Less(t, scoreGrid(2, 2, 2), scoreGrid(2, 2, 4))
}
