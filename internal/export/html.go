package export

import (
	"fmt"
	"html"
	"strings"

	"github.com/MeKo-Tech/docstruct/internal/document"
)

// HTML renders pages as a semantic HTML fragment: one section per page with
// a data-page attribute, h1-h3 headings, li list items, p paragraphs, and
// span-aware tables where a block yielded an extracted table. All text is
// escaped.
func HTML(pages []document.Page, tables []document.Table) string {
	byBlock := indexTables(tables)

	var sb strings.Builder
	sb.WriteString("<div class='ocr-document'>")
	for pi := range pages {
		p := &pages[pi]
		fmt.Fprintf(&sb, "<section class='ocr-page' data-page='%d'>", p.PageNumber)
		for bi := range p.Blocks {
			b := &p.Blocks[bi]
			if t, ok := byBlock[tableKey{page: p.PageNumber, block: bi}]; ok {
				sb.WriteString(tableToHTML(t))
				continue
			}

			txt := blockText(b)
			if txt == "" {
				continue
			}
			esc := html.EscapeString(txt)

			switch b.Type {
			case document.BlockHeading:
				level := b.Level
				if level < 1 {
					level = 1
				}
				if level > 3 {
					level = 3
				}
				fmt.Fprintf(&sb, "<h%d>%s</h%d>", level, esc, level)
			case document.BlockListItem:
				fmt.Fprintf(&sb, "<li>%s</li>", esc)
			default:
				fmt.Fprintf(&sb, "<p>%s</p>", esc)
			}
		}
		sb.WriteString("</section>")
	}
	sb.WriteString("</div>")
	return sb.String()
}

// gridPos addresses one cell slot in a table grid.
type gridPos struct {
	row int
	col int
}

// tableToHTML renders a table with rowspan/colspan attributes. Positions
// covered by a span are skipped so the grid stays rectangular.
func tableToHTML(t *document.Table) string {
	if t.NRows <= 0 || t.NCols <= 0 {
		return ""
	}

	cellAt := make(map[gridPos]*document.Cell, len(t.Cells))
	for i := range t.Cells {
		c := &t.Cells[i]
		if c.Row >= 0 && c.Row < t.NRows && c.Col >= 0 && c.Col < t.NCols {
			cellAt[gridPos{row: c.Row, col: c.Col}] = c
		}
	}

	headerRows := make(map[int]bool, len(t.HeaderRows))
	for _, r := range t.HeaderRows {
		headerRows[r] = true
	}

	covered := make([][]bool, t.NRows)
	for r := range covered {
		covered[r] = make([]bool, t.NCols)
	}
	for pos, c := range cellAt {
		rs := max(1, c.RowSpan)
		cs := max(1, c.ColSpan)
		for rr := pos.row; rr < min(t.NRows, pos.row+rs); rr++ {
			for cc := pos.col; cc < min(t.NCols, pos.col+cs); cc++ {
				if rr != pos.row || cc != pos.col {
					covered[rr][cc] = true
				}
			}
		}
	}

	var sb strings.Builder
	sb.WriteString("<table>")
	for r := range t.NRows {
		sb.WriteString("<tr>")
		for k := range t.NCols {
			if covered[r][k] {
				continue
			}
			c := cellAt[gridPos{row: r, col: k}]

			text, rs, cs := "", 1, 1
			isHeader := headerRows[r]
			if c != nil {
				text = strings.TrimSpace(c.Text)
				rs = max(1, c.RowSpan)
				cs = max(1, c.ColSpan)
				isHeader = isHeader || c.IsHeader
			}

			tag := "td"
			if isHeader {
				tag = "th"
			}
			attrs := ""
			if rs > 1 {
				attrs += fmt.Sprintf(" rowspan='%d'", rs)
			}
			if cs > 1 {
				attrs += fmt.Sprintf(" colspan='%d'", cs)
			}
			fmt.Fprintf(&sb, "<%s%s>%s</%s>", tag, attrs, html.EscapeString(text), tag)
		}
		sb.WriteString("</tr>")
	}
	sb.WriteString("</table>")
	return sb.String()
}
