// Package export renders the structured document model into its three
// consumer projections: Markdown, HTML, and retrieval-ready text chunks.
package export

import (
	"strings"

	"github.com/MeKo-Tech/docstruct/internal/document"
)

// tableKey indexes extracted tables by page and originating block.
type tableKey struct {
	page  int
	block int
}

func indexTables(tables []document.Table) map[tableKey]*document.Table {
	out := make(map[tableKey]*document.Table, len(tables))
	for i := range tables {
		t := &tables[i]
		out[tableKey{page: t.PageNumber, block: t.SourceBlockIndex}] = t
	}
	return out
}

// blockText prefers the normalized text and falls back to the raw transcript.
func blockText(b *document.Block) string {
	if t := strings.TrimSpace(b.TextNormalized); t != "" {
		return t
	}
	return strings.TrimSpace(b.Text)
}

// Markdown renders pages as Markdown. Headings become #-prefixed lines with
// the level clamped to 1..3, list items keep numbered markers and normalize
// bullets to "-", extracted tables render as pipe tables, and table regions
// without an extracted table fall back to a fenced block.
func Markdown(pages []document.Page, tables []document.Table) string {
	byBlock := indexTables(tables)
	var parts []string

	for pi := range pages {
		p := &pages[pi]
		for bi := range p.Blocks {
			b := &p.Blocks[bi]
			txt := blockText(b)

			if t, ok := byBlock[tableKey{page: p.PageNumber, block: bi}]; ok {
				parts = append(parts, tableToMarkdown(t))
				continue
			}
			if txt == "" {
				continue
			}

			switch b.Type {
			case document.BlockHeading:
				level := b.Level
				if level < 1 {
					level = 1
				}
				if level > 3 {
					level = 3
				}
				parts = append(parts, strings.Repeat("#", level)+" "+txt)
			case document.BlockListItem:
				marker := b.Marker
				if isNumberedMarker(marker) {
					parts = append(parts, marker+" "+txt)
				} else if marker == "[x]" || marker == "[ ]" {
					parts = append(parts, "- "+marker+" "+txt)
				} else {
					parts = append(parts, "- "+txt)
				}
			case document.BlockTableRegion:
				parts = append(parts, "```", txt, "```")
			default:
				parts = append(parts, txt)
			}
		}
		// Page separator.
		parts = append(parts, "")
	}

	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func isNumberedMarker(marker string) bool {
	if len(marker) < 2 || !strings.HasSuffix(marker, ".") {
		return false
	}
	for _, r := range marker[:len(marker)-1] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// tableToMarkdown renders an extracted table as a pipe table: one header row
// (the first row, whether or not it was detected as a header), a ---
// separator, then data rows. Spans flatten into their anchor cell.
func tableToMarkdown(t *document.Table) string {
	if t.NRows <= 0 || t.NCols <= 0 {
		return ""
	}

	grid := make([][]string, t.NRows)
	for r := range grid {
		grid[r] = make([]string, t.NCols)
	}
	for i := range t.Cells {
		c := &t.Cells[i]
		if c.Row >= 0 && c.Row < t.NRows && c.Col >= 0 && c.Col < t.NCols {
			grid[c.Row][c.Col] = sanitizeCell(c.Text)
		}
	}

	lines := make([]string, 0, t.NRows+1)
	for r := range grid {
		lines = append(lines, "| "+strings.Join(grid[r], " | ")+" |")
		if r == 0 {
			seps := make([]string, t.NCols)
			for i := range seps {
				seps[i] = "---"
			}
			lines = append(lines, "| "+strings.Join(seps, " | ")+" |")
		}
	}
	return strings.Join(lines, "\n")
}

// sanitizeCell keeps cell text on one line and free of pipe characters.
func sanitizeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.TrimSpace(s)
}
