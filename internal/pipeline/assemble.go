package pipeline

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MeKo-Tech/docstruct/internal/document"
	"github.com/MeKo-Tech/docstruct/internal/export"
	"github.com/MeKo-Tech/docstruct/internal/normalize"
)

// ProcessDocument processes all pages and assembles the full document model
// with its projections. On cancellation the document contains the pages
// completed so far and the context error is returned alongside it.
func (p *Pipeline) ProcessDocument(ctx context.Context, inputs []PageInput) (document.Document, error) {
	pages, err := p.ProcessPages(ctx, inputs)
	doc := p.Assemble(pages)
	return doc, err
}

// Assemble builds the document record from already-processed pages. Callers
// that drive page processing themselves, such as the streaming endpoint, use
// this to produce the final document.
func (p *Pipeline) Assemble(pages []document.Page) document.Document {
	doc := document.Document{
		Pages: pages,
		Metadata: map[string]string{
			"job_id":     uuid.NewString(),
			"created_at": time.Now().UTC().Format(time.RFC3339),
			"num_pages":  strconv.Itoa(len(pages)),
		},
	}

	var raw, normalized []string
	for pi := range pages {
		page := &pages[pi]

		doc.Tables = append(doc.Tables, page.Tables...)
		doc.FormFields = append(doc.FormFields, normalize.BindFormFields(page.Blocks)...)

		var pageRaw, pageNorm []string
		for bi := range page.Blocks {
			b := &page.Blocks[bi]
			if t := strings.TrimSpace(b.Text); t != "" {
				pageRaw = append(pageRaw, t)
			}
			if t := strings.TrimSpace(b.TextNormalized); t != "" {
				pageNorm = append(pageNorm, t)
			}
		}
		raw = append(raw, strings.Join(pageRaw, "\n"))
		normalized = append(normalized, strings.Join(pageNorm, "\n"))

		doc.Diagnostics.Pages = append(doc.Diagnostics.Pages, p.pageDiagnostics(page, strings.Join(pageNorm, "\n")))
	}

	doc.FullText = strings.TrimSpace(strings.Join(raw, "\n\n"))
	doc.FullTextNormalized = strings.TrimSpace(strings.Join(normalized, "\n\n"))
	doc.Markdown = export.Markdown(pages, doc.Tables)
	doc.HTML = export.HTML(pages, doc.Tables)
	doc.Chunks = export.Chunks(pages, p.cfg.ChunkChars, p.cfg.ChunkOverlap)

	doc.Diagnostics.NumPages = len(pages)
	for _, pd := range doc.Diagnostics.Pages {
		if pd.MixedScript {
			doc.Diagnostics.MixedScriptPages = append(doc.Diagnostics.MixedScriptPages, pd.PageNumber)
		}
	}
	return doc
}

// pageDiagnostics profiles the scripts and quality of one processed page.
func (p *Pipeline) pageDiagnostics(page *document.Page, text string) document.PageDiagnostics {
	var tokens []document.Token
	for bi := range page.Blocks {
		tokens = append(tokens, page.Blocks[bi].Tokens()...)
	}

	top, mixed := document.ScriptProfile(text)
	pd := document.PageDiagnostics{
		PageNumber:  page.PageNumber,
		TopScripts:  top,
		MixedScript: mixed,
		Quality:     document.ScorePage(tokens, text),
	}

	if mixed {
		pd.Flags = append(pd.Flags, "mixed_script")
	}
	if page.Classification == document.PageHandwritten || page.Classification == document.PageMixed {
		pd.Flags = append(pd.Flags, "handwriting_present")
	}
	if len(page.Diagnostics) > 0 {
		var steps []string
		for step := range page.Diagnostics {
			steps = append(steps, step)
		}
		sort.Strings(steps)
		pd.ErrorSummary = "step failures: " + strings.Join(steps, ", ")
	}
	return pd
}
