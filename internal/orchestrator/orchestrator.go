// Package orchestrator runs the per-page multi-engine state machine. Given a
// page image and the base structured page built from the primary engine, it
// decides which secondary capabilities run over which regions, merges their
// output back into the page, and records a capability entry with a
// machine-readable skip reason for every decision.
//
// No step is permitted to abort page processing. Internal failures, including
// panics inside detectors or engines, are caught and recorded as diagnostic
// strings keyed by step name, and the page continues through the remaining
// steps fully populated.
package orchestrator

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/MeKo-Tech/docstruct/internal/document"
	"github.com/MeKo-Tech/docstruct/internal/engine"
	"github.com/MeKo-Tech/docstruct/internal/geometry"
	"github.com/MeKo-Tech/docstruct/internal/normalize"
	"github.com/MeKo-Tech/docstruct/internal/vision"
)

// Step names used as EngineUsage keys and diagnostic keys.
const (
	StepFormBoxes        = "form_boxes"
	StepHandwriting      = "handwriting"
	StepFullPageFallback = "full_page_fallback"
	StepCheckboxes       = "checkboxes"
	StepLayout           = "layout"
)

// fallbackTokenThreshold is the page token count below which the full-page
// handwriting fallback engages.
const fallbackTokenThreshold = 6

// Config controls which capabilities are enabled and their budgets.
type Config struct {
	EnableFormBoxes   bool
	EnableHandwriting bool
	EnableFallback    bool
	EnableCheckboxes  bool
	EnableLayout      bool

	// MaxSecondaryRegions bounds handwriting crops sent per page.
	MaxSecondaryRegions int
	// MaxLayoutPages bounds the layout engine to the first N pages.
	MaxLayoutPages int
	// FormRegionOverlap is the minimum block/region overlap ratio for a
	// block to be marked as part of a form box region.
	FormRegionOverlap float64
}

// DefaultConfig returns the default orchestration budgets.
func DefaultConfig() Config {
	return Config{
		EnableFormBoxes:     true,
		EnableHandwriting:   true,
		EnableFallback:      true,
		EnableCheckboxes:    true,
		EnableLayout:        true,
		MaxSecondaryRegions: 12,
		MaxLayoutPages:      6,
		FormRegionOverlap:   0.35,
	}
}

// BoxDetector finds boxed-grid form regions on a page image.
type BoxDetector interface {
	DetectRegions(img image.Image) []geometry.Bbox
}

// CheckboxDetector finds square checkbox marks on a page image.
type CheckboxDetector interface {
	DetectCheckboxes(img image.Image) []vision.Checkbox
}

// Orchestrator coordinates secondary engines and detectors for a page.
type Orchestrator struct {
	cfg    Config
	logger *slog.Logger

	primary     engine.Engine
	handwriting engine.Engine
	layout      engine.Engine

	boxDetector      BoxDetector
	checkboxDetector CheckboxDetector
}

// New creates an orchestrator with the given budgets and the built-in
// raster detectors. Engines are attached with the With* setters.
func New(cfg Config) *Orchestrator {
	return &Orchestrator{
		cfg:              cfg,
		logger:           slog.Default(),
		boxDetector:      gridBoxDetector{},
		checkboxDetector: maskCheckboxDetector{},
	}
}

// WithLogger sets the structured logger.
func (o *Orchestrator) WithLogger(l *slog.Logger) *Orchestrator {
	if l != nil {
		o.logger = l
	}
	return o
}

// WithPrimaryEngine sets the engine used for boxed-cell recognition.
func (o *Orchestrator) WithPrimaryEngine(e engine.Engine) *Orchestrator {
	o.primary = e
	return o
}

// WithHandwritingEngine sets the handwriting-specialized engine.
func (o *Orchestrator) WithHandwritingEngine(e engine.Engine) *Orchestrator {
	o.handwriting = e
	return o
}

// WithLayoutEngine sets the layout-specialized engine.
func (o *Orchestrator) WithLayoutEngine(e engine.Engine) *Orchestrator {
	o.layout = e
	return o
}

// WithBoxDetector replaces the built-in boxed-grid detector.
func (o *Orchestrator) WithBoxDetector(d BoxDetector) *Orchestrator {
	o.boxDetector = d
	return o
}

// WithCheckboxDetector replaces the built-in checkbox detector.
func (o *Orchestrator) WithCheckboxDetector(d CheckboxDetector) *Orchestrator {
	o.checkboxDetector = d
	return o
}

// Run executes all orchestration steps over the page in order. The page is
// mutated in place and is always fully populated on return: every capability
// has an EngineUsage entry, and every failed step has a diagnostic.
func (o *Orchestrator) Run(ctx context.Context, img image.Image, page *document.Page) {
	if page.EngineUsage == nil {
		page.EngineUsage = make(map[string]document.Capability)
	}

	o.runStep(page, StepFormBoxes, func() document.Capability {
		return o.stepFormBoxes(ctx, img, page)
	})
	o.runStep(page, StepHandwriting, func() document.Capability {
		return o.stepHandwriting(ctx, img, page)
	})
	o.runStep(page, StepFullPageFallback, func() document.Capability {
		return o.stepFullPageFallback(ctx, img, page)
	})
	o.runStep(page, StepCheckboxes, func() document.Capability {
		return o.stepCheckboxes(img, page)
	})
	o.runStep(page, StepLayout, func() document.Capability {
		return o.stepLayout(ctx, img, page)
	})
}

// runStep executes one capability step with panic containment. A panicking
// step records a diagnostic and an unavailable capability entry.
func (o *Orchestrator) runStep(page *document.Page, name string, fn func() document.Capability) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("orchestration step panicked",
				slog.String("step", name),
				slog.Int("page", page.PageNumber),
				slog.Any("panic", r))
			o.diagnostic(page, name, fmt.Sprintf("panic: %v", r))
			page.EngineUsage[name] = document.Capability{
				Enabled:    true,
				Available:  false,
				SkipReason: document.SkipUnavailable,
			}
		}
	}()
	page.EngineUsage[name] = fn()
}

func (o *Orchestrator) diagnostic(page *document.Page, step, msg string) {
	if page.Diagnostics == nil {
		page.Diagnostics = make(map[string]string)
	}
	page.Diagnostics[step] = msg
}

// stepFormBoxes marks blocks overlapping a boxed-grid form region and appends
// one block per region carrying the boxed-cell transcript. Form regions are
// never tables, so overlapping blocks lose their table candidacy.
func (o *Orchestrator) stepFormBoxes(ctx context.Context, img image.Image, page *document.Page) document.Capability {
	usage := document.Capability{Enabled: o.cfg.EnableFormBoxes}
	if !usage.Enabled {
		usage.SkipReason = document.SkipDisabled
		return usage
	}
	if img == nil || o.boxDetector == nil {
		usage.SkipReason = document.SkipUnavailable
		return usage
	}
	usage.Available = true

	regions := o.boxDetector.DetectRegions(img)
	if len(regions) == 0 {
		usage.SkipReason = document.SkipNoCandidates
		return usage
	}
	usage.Ran = true

	appended := 0
	for _, region := range regions {
		for i := range page.Blocks {
			b := &page.Blocks[i]
			if !b.Bbox.Valid() {
				continue
			}
			if b.Bbox.OverlapRatio(region) >= o.cfg.FormRegionOverlap {
				b.FormBoxRegion = true
				b.TableCandidate = false
				b.CandidateReason = ""
				if b.Type == document.BlockTableRegion {
					b.Type = document.BlockParagraph
				}
			}
		}

		text := o.recognizeBoxedRegion(ctx, img, region)
		block := document.Block{
			Type:          document.BlockParagraph,
			Text:          text,
			Bbox:          region,
			Script:        document.ScriptHandwritten,
			FormBoxRegion: true,
			Engine:        "box_ocr",
		}
		if text != "" {
			block.TextNormalized = normalize.CleanText(text)
		}
		page.Blocks = append(page.Blocks, block)
		appended++
	}

	if appended == 0 {
		usage.SkipReason = document.SkipRanButEmpty
	}
	o.logger.Debug("form box regions processed",
		slog.Int("page", page.PageNumber),
		slog.Int("regions", len(regions)))
	return usage
}

// recognizeBoxedRegion transcribes a boxed-grid region cell by cell using the
// primary engine in single-character mode. Rows become lines, cells become
// characters. Empty cells are dropped from the joined text.
func (o *Orchestrator) recognizeBoxedRegion(ctx context.Context, img image.Image, region geometry.Bbox) string {
	if o.primary == nil {
		return ""
	}
	crop := cropRegion(img, region)
	if crop == nil {
		return ""
	}
	analysis := vision.AnalyzeRegion(crop)
	if !analysis.IsFormRegion() || len(analysis.Rows) == 0 {
		return ""
	}

	var lines []string
	for _, row := range analysis.Rows {
		var sb strings.Builder
		for _, cell := range row {
			// Inset to keep the cell border out of the glyph crop.
			inner := geometry.NewBbox(cell.X1+2, cell.Y1+2, cell.X2-2, cell.Y2-2)
			if !inner.Valid() {
				continue
			}
			cellImg := cropRegion(crop, inner)
			if cellImg == nil {
				continue
			}
			res, err := o.primary.Recognize(ctx, cellImg, engine.ModeSingleChar)
			if err != nil || res.Text == "" {
				continue
			}
			sb.WriteString(firstAlnum(res.Text))
		}
		if line := sb.String(); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// stepHandwriting sends crops of handwritten non-boxed blocks to the
// handwriting engine and overwrites their text on success, preserving the
// previous transcript in the provenance field.
func (o *Orchestrator) stepHandwriting(ctx context.Context, img image.Image, page *document.Page) document.Capability {
	usage := document.Capability{Enabled: o.cfg.EnableHandwriting}
	if !usage.Enabled {
		usage.SkipReason = document.SkipDisabled
		return usage
	}
	if img == nil || o.handwriting == nil {
		usage.SkipReason = document.SkipUnavailable
		return usage
	}
	usage.Available = true

	var indices []int
	for i := range page.Blocks {
		b := &page.Blocks[i]
		if b.Script != document.ScriptHandwritten || b.FormBoxRegion {
			continue
		}
		if !b.Bbox.Valid() {
			continue
		}
		indices = append(indices, i)
		if len(indices) >= o.cfg.MaxSecondaryRegions {
			break
		}
	}
	if len(indices) == 0 {
		usage.SkipReason = document.SkipNoCandidates
		return usage
	}
	usage.Ran = true

	overwritten := 0
	for _, i := range indices {
		b := &page.Blocks[i]
		crop := cropRegion(img, b.Bbox)
		if crop == nil {
			continue
		}
		res, err := o.handwriting.Recognize(ctx, crop, engine.ModeHandwriting)
		if err != nil {
			o.diagnostic(page, StepHandwriting, fmt.Sprintf("block %d: %v", i, err))
			continue
		}
		text := strings.TrimSpace(res.Text)
		if text == "" {
			continue
		}
		b.TextEngine = b.Text
		b.Text = text
		b.TextNormalized = normalize.CleanText(text)
		b.Engine = o.handwriting.Name()
		overwritten++
	}

	if overwritten == 0 {
		usage.SkipReason = document.SkipRanButEmpty
	}
	o.logger.Debug("handwriting regions recognized",
		slog.Int("page", page.PageNumber),
		slog.Int("regions", len(indices)),
		slog.Int("overwritten", overwritten))
	return usage
}

// stepFullPageFallback sends the whole page to the handwriting engine when
// the page has almost no recognized tokens. Any returned text is appended as
// one full-page block.
func (o *Orchestrator) stepFullPageFallback(ctx context.Context, img image.Image, page *document.Page) document.Capability {
	usage := document.Capability{Enabled: o.cfg.EnableFallback}
	if !usage.Enabled {
		usage.SkipReason = document.SkipDisabled
		return usage
	}
	if img == nil || o.handwriting == nil {
		usage.SkipReason = document.SkipUnavailable
		return usage
	}
	usage.Available = true

	tokens := 0
	for i := range page.Blocks {
		tokens += page.Blocks[i].TokenCount()
	}
	if tokens >= fallbackTokenThreshold {
		usage.SkipReason = document.SkipNoCandidates
		return usage
	}
	usage.Ran = true

	res, err := o.handwriting.Recognize(ctx, img, engine.ModeHandwriting)
	if err != nil {
		o.diagnostic(page, StepFullPageFallback, err.Error())
		usage.SkipReason = document.SkipRanButEmpty
		return usage
	}
	text := strings.TrimSpace(res.Text)
	if text == "" {
		usage.SkipReason = document.SkipRanButEmpty
		return usage
	}

	bounds := img.Bounds()
	page.Blocks = append(page.Blocks, document.Block{
		Type:           document.BlockParagraph,
		Text:           text,
		TextNormalized: normalize.CleanText(text),
		Bbox:           geometry.NewBbox(bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y),
		Script:         document.ScriptHandwritten,
		Engine:         o.handwriting.Name(),
	})
	o.logger.Debug("full page fallback produced text",
		slog.Int("page", page.PageNumber),
		slog.Int("chars", len(text)))
	return usage
}

// stepCheckboxes detects checkbox marks and attaches them to nearby blocks.
func (o *Orchestrator) stepCheckboxes(img image.Image, page *document.Page) document.Capability {
	usage := document.Capability{Enabled: o.cfg.EnableCheckboxes}
	if !usage.Enabled {
		usage.SkipReason = document.SkipDisabled
		return usage
	}
	if img == nil || o.checkboxDetector == nil {
		usage.SkipReason = document.SkipUnavailable
		return usage
	}
	usage.Available = true
	usage.Ran = true

	boxes := o.checkboxDetector.DetectCheckboxes(img)
	if len(boxes) == 0 {
		usage.SkipReason = document.SkipRanButEmpty
		return usage
	}

	detected := make([]normalize.DetectedCheckbox, 0, len(boxes))
	for _, cb := range boxes {
		detected = append(detected, normalize.DetectedCheckbox{
			Bbox:    cb.Bbox,
			Checked: cb.Checked,
			Score:   cb.Score,
		})
	}
	normalize.AttachCheckboxes(page.Blocks, detected)
	o.logger.Debug("checkboxes attached",
		slog.Int("page", page.PageNumber),
		slog.Int("count", len(detected)))
	return usage
}

// stepLayout runs the layout-specialized engine over the full page, only for
// pages with a true table candidate that is not a form region, and only
// within the first MaxLayoutPages pages.
func (o *Orchestrator) stepLayout(ctx context.Context, img image.Image, page *document.Page) document.Capability {
	usage := document.Capability{Enabled: o.cfg.EnableLayout}
	if !usage.Enabled {
		usage.SkipReason = document.SkipDisabled
		return usage
	}
	if img == nil || o.layout == nil {
		usage.SkipReason = document.SkipUnavailable
		return usage
	}
	usage.Available = true

	hasCandidate := false
	for i := range page.Blocks {
		b := &page.Blocks[i]
		if b.FormBoxRegion {
			continue
		}
		if b.TableCandidate || b.Type == document.BlockTableRegion {
			hasCandidate = true
			break
		}
	}
	if !hasCandidate || page.PageNumber > o.cfg.MaxLayoutPages {
		usage.SkipReason = document.SkipNoCandidates
		return usage
	}
	usage.Ran = true

	res, err := o.layout.Recognize(ctx, img, engine.ModeLayout)
	if err != nil {
		o.diagnostic(page, StepLayout, err.Error())
		usage.SkipReason = document.SkipRanButEmpty
		return usage
	}
	text := strings.TrimSpace(res.Text)
	if text == "" {
		usage.SkipReason = document.SkipRanButEmpty
		return usage
	}
	page.LayoutText = text
	return usage
}

// cropRegion extracts a region of the page image. Returns nil when the
// region is degenerate or falls outside the image.
func cropRegion(img image.Image, box geometry.Bbox) image.Image {
	if img == nil || !box.Valid() {
		return nil
	}
	rect := image.Rect(box.X1, box.Y1, box.X2, box.Y2).Intersect(img.Bounds())
	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return nil
	}
	return imaging.Crop(img, rect)
}

// firstAlnum reduces an engine transcript to a single character the way a
// boxed cell expects: the first alphanumeric rune, or the first rune.
func firstAlnum(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, r := range s {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return string(r)
		}
	}
	for _, r := range s {
		return string(r)
	}
	return ""
}
