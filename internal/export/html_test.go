package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MeKo-Tech/docstruct/internal/document"
)

func TestHTMLEscapesText(t *testing.T) {
	pages := []document.Page{{
		PageNumber: 1,
		Blocks:     []document.Block{para("<b>bold</b> & more")},
	}}

	got := HTML(pages, nil)
	assert.Contains(t, got, "data-page='1'")
	assert.Contains(t, got, "<p>&lt;b&gt;bold&lt;/b&gt; &amp; more</p>")
	assert.NotContains(t, got, "<b>bold</b>")
}

func TestHTMLHeadingAndList(t *testing.T) {
	pages := []document.Page{{
		PageNumber: 2,
		Blocks: []document.Block{
			{Type: document.BlockHeading, Level: 2, Text: "Section"},
			{Type: document.BlockListItem, Text: "entry"},
		},
	}}

	got := HTML(pages, nil)
	assert.Contains(t, got, "<h2>Section</h2>")
	assert.Contains(t, got, "<li>entry</li>")
}

func TestHTMLTableWithSpans(t *testing.T) {
	pages := []document.Page{{
		PageNumber: 1,
		Blocks:     []document.Block{{Type: document.BlockTableRegion}},
	}}
	tables := []document.Table{{
		PageNumber:       1,
		SourceBlockIndex: 0,
		NRows:            2,
		NCols:            2,
		HeaderRows:       []int{0},
		Cells: []document.Cell{
			{Row: 0, Col: 0, Text: "wide", ColSpan: 2, IsHeader: true},
			{Row: 1, Col: 0, Text: "a"},
			{Row: 1, Col: 1, Text: "b"},
		},
	}}

	got := HTML(pages, tables)
	assert.Contains(t, got, "<th colspan='2'>wide</th>")
	assert.Contains(t, got, "<td>a</td>")
	assert.Contains(t, got, "<td>b</td>")
	// The spanned position must not render its own cell.
	assert.Equal(t, 1, strings.Count(got, "<th"))
	assert.Equal(t, 2, strings.Count(got, "<td"))
}

func TestHTMLTableFillsMissingCells(t *testing.T) {
	pages := []document.Page{{
		PageNumber: 1,
		Blocks:     []document.Block{{Type: document.BlockTableRegion}},
	}}
	tables := []document.Table{{
		PageNumber:       1,
		SourceBlockIndex: 0,
		NRows:            1,
		NCols:            2,
		Cells:            []document.Cell{{Row: 0, Col: 0, Text: "only"}},
	}}

	got := HTML(pages, tables)
	assert.Contains(t, got, "<td>only</td><td></td>")
}

func TestHTMLEmptyDocument(t *testing.T) {
	assert.Equal(t, "<div class='ocr-document'></div>", HTML(nil, nil))
}
