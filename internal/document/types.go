// Package document defines the structured document model produced by the
// processing pipeline: tokens, lines, blocks, tables, pages, and the
// aggregated document with its rendered projections.
//
// All entities are value types owned by their direct container. A document is
// rebuilt in full on every processing run; nothing here is a mutable store.
package document

import "github.com/MeKo-Tech/docstruct/internal/geometry"

// BlockType classifies the structural role of a block.
type BlockType string

const (
	BlockHeading     BlockType = "heading"
	BlockParagraph   BlockType = "paragraph"
	BlockListItem    BlockType = "list_item"
	BlockTableRegion BlockType = "table_region"
	BlockUnknown     BlockType = "unknown"
)

// Script labels the writing style detected for a block.
type Script string

const (
	ScriptPrinted     Script = "printed"
	ScriptHandwritten Script = "handwritten"
	ScriptUnknown     Script = "unknown"
)

// PageScript labels the aggregated script classification of a page.
type PageScript string

const (
	PagePrinted     PageScript = "printed"
	PageHandwritten PageScript = "handwritten"
	PageMixed       PageScript = "mixed"
	PageUnknown     PageScript = "unknown"
)

// Token is a single recognized text unit with a bounding box and an optional
// confidence in [0,1]. Tokens are immutable once created by an engine.
type Token struct {
	Text       string        `json:"text"`
	Bbox       geometry.Bbox `json:"bbox"`
	Confidence *float64      `json:"confidence,omitempty"`
}

// Line is an ordered left-to-right sequence of tokens sharing a vertical band.
type Line struct {
	Text   string        `json:"text"`
	Tokens []Token       `json:"tokens"`
	Bbox   geometry.Bbox `json:"bbox"`
}

// CheckboxMark records a checkbox glyph bound to a block.
type CheckboxMark struct {
	Checked bool          `json:"checked"`
	Bbox    geometry.Bbox `json:"bbox"`
	Score   float64       `json:"score"`
}

// HandwritingSignals carries the per-signal breakdown behind a handwriting
// score, kept for routing explainability.
type HandwritingSignals struct {
	WordCount       int      `json:"word_count"`
	AvgConfidence   *float64 `json:"avg_conf,omitempty"`
	ShortTokenRatio float64  `json:"short_token_ratio"`
	DigitRatio      float64  `json:"digit_ratio"`
	HeightCV        *float64 `json:"height_cv,omitempty"`
	LowConf         float64  `json:"low_conf"`
	HeightVariance  float64  `json:"height_variance"`
	TokenNoise      float64  `json:"token_noise"`
	DigitPenalty    float64  `json:"digit_penalty"`
	FallbackHint    bool     `json:"fallback_hint"`
	Reason          string   `json:"reason,omitempty"`
}

// Block is a structurally coherent group of lines.
type Block struct {
	Type           BlockType     `json:"type"`
	Text           string        `json:"text"`
	TextNormalized string        `json:"text_normalized"`
	Lines          []Line        `json:"lines"`
	Bbox           geometry.Bbox `json:"bbox"`

	// Structure hints for renderers.
	Level           int    `json:"level"`
	Marker          string `json:"marker,omitempty"`
	TableCandidate  bool   `json:"table_candidate"`
	CandidateReason string `json:"table_candidate_reason,omitempty"`

	// Script classification.
	Script           Script             `json:"script"`
	HandwritingScore float64            `json:"handwriting_score"`
	Signals          HandwritingSignals `json:"handwriting_signals"`

	// Form annotations.
	Checkbox      *CheckboxMark `json:"checkbox,omitempty"`
	FormBoxRegion bool          `json:"form_box_region,omitempty"`

	// Engine provenance. Engine names the engine whose text is current;
	// TextEngine preserves the pre-override text when a secondary engine
	// replaced it.
	Engine     string `json:"engine,omitempty"`
	TextEngine string `json:"text_engine,omitempty"`
}

// TokenCount returns the number of non-empty tokens across all lines.
func (b *Block) TokenCount() int {
	n := 0
	for _, ln := range b.Lines {
		n += len(ln.Tokens)
	}
	return n
}

// Tokens returns all tokens of the block in line order.
func (b *Block) Tokens() []Token {
	out := make([]Token, 0, b.TokenCount())
	for _, ln := range b.Lines {
		out = append(out, ln.Tokens...)
	}
	return out
}

// Cell is a single table cell, possibly spanning multiple rows or columns.
type Cell struct {
	Row        int            `json:"row"`
	Col        int            `json:"col"`
	Text       string         `json:"text"`
	Bbox       *geometry.Bbox `json:"bbox,omitempty"`
	Confidence *float64       `json:"confidence,omitempty"`
	RowSpan    int            `json:"rowspan"`
	ColSpan    int            `json:"colspan"`
	IsHeader   bool           `json:"is_header"`
}

// Table is an extracted row/column grid.
type Table struct {
	PageNumber       int            `json:"page_number"`
	SourceBlockIndex int            `json:"source_block_index"`
	Bbox             *geometry.Bbox `json:"bbox,omitempty"`
	NRows            int            `json:"n_rows"`
	NCols            int            `json:"n_cols"`
	Cells            []Cell         `json:"cells"`
	HeaderRows       []int          `json:"header_rows"`
	Method           string         `json:"method"`
	Score            float64        `json:"score"`
}

// Capability records whether an orchestrator capability ran for a page and,
// when it did not, the machine-readable reason.
type Capability struct {
	Enabled    bool       `json:"enabled"`
	Available  bool       `json:"available"`
	Ran        bool       `json:"ran"`
	SkipReason SkipReason `json:"skip_reason,omitempty"`
}

// SkipReason is the closed set of reasons a capability did not contribute.
type SkipReason string

const (
	SkipNone         SkipReason = ""
	SkipDisabled     SkipReason = "disabled"
	SkipUnavailable  SkipReason = "engine_unavailable"
	SkipNoCandidates SkipReason = "no_candidates_detected"
	SkipRanButEmpty  SkipReason = "ran_but_empty"
)

// RoutingStats carries the page-level classification signals.
type RoutingStats struct {
	WordCount        int      `json:"word_count"`
	AvgConfidence    *float64 `json:"avg_conf,omitempty"`
	ShortTokenRatio  float64  `json:"short_token_ratio"`
	PageScript       string   `json:"page_script,omitempty"`
	HandwrittenRatio float64  `json:"handwritten_ratio"`
	PrintedRatio     float64  `json:"printed_ratio"`
	UnknownRatio     float64  `json:"unknown_ratio"`
	BlockCount       int      `json:"block_count"`
}

// Page holds the structured content of a single page.
type Page struct {
	PageNumber     int                   `json:"page_number"`
	Blocks         []Block               `json:"blocks"`
	Tables         []Table               `json:"tables"`
	Classification PageScript            `json:"classification"`
	Routing        RoutingStats          `json:"routing"`
	EngineUsage    map[string]Capability `json:"engine_usage"`
	Diagnostics    map[string]string     `json:"diagnostics,omitempty"`

	// LayoutText holds the layout engine's full-page transcript when that
	// capability ran. It complements blocks, it never replaces them.
	LayoutText string `json:"layout_text,omitempty"`
}

// FormField is a label/value pair extracted from a form page.
type FormField struct {
	Key        string         `json:"key"`
	Value      string         `json:"value"`
	Method     string         `json:"method"`
	Bbox       *geometry.Bbox `json:"bbox,omitempty"`
	Confidence *float64       `json:"confidence,omitempty"`
}

// Chunk is a retrieval-ready slice of document text with a stable identifier.
type Chunk struct {
	ID           string `json:"chunk_id"`
	PageNumber   int    `json:"page_number"`
	BlockIndices []int  `json:"block_indices"`
	Text         string `json:"text"`
}

// Document is the fully assembled output of a processing run.
type Document struct {
	Pages      []Page      `json:"pages"`
	Tables     []Table     `json:"tables"`
	Chunks     []Chunk     `json:"chunks"`
	FormFields []FormField `json:"form_fields"`

	FullText           string `json:"full_text"`
	FullTextNormalized string `json:"full_text_normalized"`
	Markdown           string `json:"markdown"`
	HTML               string `json:"html"`

	Diagnostics Diagnostics       `json:"diagnostics"`
	Metadata    map[string]string `json:"metadata"`
}
