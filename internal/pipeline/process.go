package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/MeKo-Tech/docstruct/internal/document"
	"github.com/MeKo-Tech/docstruct/internal/engine"
	"github.com/MeKo-Tech/docstruct/internal/layout"
	"github.com/MeKo-Tech/docstruct/internal/normalize"
	"github.com/MeKo-Tech/docstruct/internal/tables"
)

// ErrUnsupportedInput marks a document the pipeline cannot process. It is
// fatal for that single document only and never aborts a batch.
var ErrUnsupportedInput = errors.New("unsupported input type")

// PageInput is the upstream input for one page: the page number, an optional
// image handle, and a flat token list. Pages extracted from a PDF text layer
// carry text only; they bypass layout, tables, and orchestration.
type PageInput struct {
	PageNumber int
	Image      image.Image
	Tokens     []document.Token
	Text       string
}

// textOnly reports whether the page carries a text layer without tokens.
func (in PageInput) textOnly() bool {
	return in.Image == nil && len(in.Tokens) == 0 && strings.TrimSpace(in.Text) != ""
}

// ProcessPage runs all per-page stages sequentially: layout analysis, table
// candidate marking, normalization and classification, orchestration, and
// table extraction. The returned page is always fully populated.
func (p *Pipeline) ProcessPage(ctx context.Context, in PageInput) document.Page {
	page := document.Page{
		PageNumber:     in.PageNumber,
		Classification: document.PageUnknown,
		EngineUsage:    make(map[string]document.Capability),
	}

	if in.textOnly() {
		page.Blocks = textLayerBlocks(in.Text)
		page.Classification = document.PagePrinted
		return page
	}

	classification, stats := normalize.ClassifyPage(in.Tokens)

	_, blocks := layout.Build(in.Tokens)
	blocks = tables.MarkCandidates(blocks)
	scripts := normalize.Blocks(blocks)

	aggregate, aggStats := normalize.AggregatePageScript(scripts)
	classification = normalize.ApplyPageScript(classification, aggregate)

	stats.HandwrittenRatio = aggStats.HandwrittenRatio
	stats.PrintedRatio = aggStats.PrintedRatio
	stats.UnknownRatio = aggStats.UnknownRatio
	stats.BlockCount = aggStats.BlockCount
	stats.PageScript = string(aggregate)

	page.Blocks = blocks
	page.Classification = classification
	page.Routing = stats

	if in.Image != nil {
		p.orch.Run(ctx, in.Image, &page)
	}

	// Extraction runs after orchestration so form box regions, which are
	// never tables, have already lost their candidacy.
	page.Tables = tables.Extract(page.Blocks, page.PageNumber, p.cfg.Tables)

	p.logger.Debug("page processed",
		slog.Int("page", page.PageNumber),
		slog.Int("blocks", len(page.Blocks)),
		slog.Int("tables", len(page.Tables)),
		slog.String("classification", string(page.Classification)))
	return page
}

// ProcessImage recognizes the image with the primary engine and processes
// the resulting token stream as one page. Without a primary engine the page
// still flows through orchestration, which may recover text via fallback.
func (p *Pipeline) ProcessImage(ctx context.Context, pageNumber int, img image.Image) (document.Page, error) {
	in := PageInput{PageNumber: pageNumber, Image: img}
	if p.primary != nil {
		res, err := p.primary.Recognize(ctx, img, engine.ModeDefault)
		if err != nil {
			return document.Page{PageNumber: pageNumber, Classification: document.PageUnknown},
				fmt.Errorf("primary recognition: %w", err)
		}
		in.Tokens = res.Tokens
	}
	return p.ProcessPage(ctx, in), nil
}

// ProcessImages recognizes each image with the primary engine and assembles
// the full document, one page per image in order.
func (p *Pipeline) ProcessImages(ctx context.Context, imgs []image.Image) (document.Document, error) {
	inputs := make([]PageInput, 0, len(imgs))
	for i, img := range imgs {
		in := PageInput{PageNumber: i + 1, Image: img}
		if p.primary != nil {
			res, err := p.primary.Recognize(ctx, img, engine.ModeDefault)
			if err != nil {
				return document.Document{}, fmt.Errorf("primary recognition on page %d: %w", i+1, err)
			}
			in.Tokens = res.Tokens
		}
		inputs = append(inputs, in)
	}
	return p.ProcessDocument(ctx, inputs)
}

// textLayerBlocks converts pre-extracted text into paragraph blocks, one per
// blank-line separated chunk. No geometry is available for these blocks.
func textLayerBlocks(text string) []document.Block {
	paras := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n")
	var blocks []document.Block
	for _, para := range paras {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		blocks = append(blocks, document.Block{
			Type:           document.BlockParagraph,
			Text:           para,
			TextNormalized: normalize.CleanText(para),
			Script:         document.ScriptPrinted,
			Engine:         "text_layer",
		})
	}
	return blocks
}
