package pdf

import (
	"fmt"
	"strings"

	"github.com/dslipak/pdf"
)

// minUsableWords is the word count below which a text layer is treated as
// absent and the page falls back to OCR.
const minUsableWords = 5

// PageText is the text layer extracted from one PDF page.
type PageText struct {
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
	WordCount  int    `json:"word_count"`
}

// Usable reports whether the text layer is substantial enough to stand in
// for OCR: enough words and a mostly alphanumeric character distribution.
func (p PageText) Usable() bool {
	if p.WordCount < minUsableWords {
		return false
	}
	alnum := 0
	total := 0
	for _, r := range p.Text {
		if r == ' ' || r == '\n' || r == '\t' {
			continue
		}
		total++
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			alnum++
		}
	}
	return total > 0 && float64(alnum)/float64(total) >= 0.5
}

// ExtractText pulls the vector text layer from every page of the document.
// Pages that fail to extract are returned with empty text rather than
// aborting the document.
func ExtractText(filename string) ([]PageText, error) {
	reader, err := pdf.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open pdf %q: %w", filename, err)
	}

	total := reader.NumPage()
	out := make([]PageText, 0, total)
	for num := 1; num <= total; num++ {
		out = append(out, extractPage(reader, num))
	}
	return out, nil
}

func extractPage(reader *pdf.Reader, num int) PageText {
	pt := PageText{PageNumber: num}

	page := reader.Page(num)
	if page.V.IsNull() {
		return pt
	}

	var sb strings.Builder
	rows, err := page.GetTextByRow()
	if err == nil && len(rows) > 0 {
		for _, row := range rows {
			for _, text := range row.Content {
				sb.WriteString(text.S)
				sb.WriteString(" ")
			}
			sb.WriteString("\n")
		}
	} else {
		fonts := make(map[string]*pdf.Font)
		plain, _ := page.GetPlainText(fonts)
		sb.WriteString(plain)
	}

	pt.Text = strings.TrimSpace(sb.String())
	pt.WordCount = len(strings.Fields(pt.Text))
	return pt
}
