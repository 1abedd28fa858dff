// Package engine defines the recognition engine contract shared by the
// primary and secondary engines, plus the wrappers the orchestrator uses to
// enforce timeouts, retries, and call serialization.
//
// Engines are injected handles: nothing in this package loads models lazily
// or holds global state, so tests can substitute deterministic mocks.
package engine

import (
	"context"
	"image"

	"github.com/MeKo-Tech/docstruct/internal/document"
)

// Mode selects the recognition profile for a call.
type Mode string

const (
	// ModeDefault is general-purpose printed text recognition.
	ModeDefault Mode = "default"
	// ModeHandwriting tunes the engine for handwritten script.
	ModeHandwriting Mode = "handwriting"
	// ModeLayout requests layout-aware full-page recognition.
	ModeLayout Mode = "layout"
	// ModeSingleChar recognizes a single character, used for boxed form cells.
	ModeSingleChar Mode = "single_char"
)

// Result is the output of one recognition call.
type Result struct {
	Text   string           `json:"text"`
	Tokens []document.Token `json:"tokens"`
}

// Empty reports whether the call produced neither text nor tokens.
func (r Result) Empty() bool {
	return r.Text == "" && len(r.Tokens) == 0
}

// Engine is implemented by every recognition backend. Implementations must
// tolerate empty or degenerate regions by returning an empty Result rather
// than an error, and must not block indefinitely; the caller enforces a
// timeout around every invocation.
type Engine interface {
	// Name identifies the engine in provenance fields and diagnostics.
	Name() string
	// Recognize runs recognition over the given image region.
	Recognize(ctx context.Context, img image.Image, mode Mode) (Result, error)
	// ThreadSafe reports whether concurrent calls are permitted. Engines
	// that return false are serialized behind a queue by the caller.
	ThreadSafe() bool
}

// degenerate reports whether an image region is empty or zero-sized.
func degenerate(img image.Image) bool {
	if img == nil {
		return true
	}
	b := img.Bounds()
	return b.Dx() <= 0 || b.Dy() <= 0
}
