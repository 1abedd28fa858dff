package engine

import (
	"context"
	"image"
	"sync"

	"github.com/MeKo-Tech/docstruct/internal/document"
	"github.com/MeKo-Tech/docstruct/internal/geometry"
)

// Mock is a deterministic in-memory engine for tests and offline pipelines.
// Results are keyed by mode; unkeyed modes fall back to the Default result.
type Mock struct {
	mu sync.Mutex

	// EngineName is reported by Name. Defaults to "mock".
	EngineName string
	// Results maps a recognition mode to the result returned for it.
	Results map[Mode]Result
	// Default is returned when Results has no entry for the mode.
	Default Result
	// Err, when set, is returned by every call.
	Err error
	// Safe controls the ThreadSafe report.
	Safe bool

	// Calls records each invocation's mode in order.
	Calls []Mode
}

// NewMock returns a mock engine that yields the given text for every call.
func NewMock(name, text string) *Mock {
	return &Mock{
		EngineName: name,
		Default:    Result{Text: text},
		Safe:       true,
	}
}

// Name implements Engine.
func (m *Mock) Name() string {
	if m.EngineName == "" {
		return "mock"
	}
	return m.EngineName
}

// ThreadSafe implements Engine.
func (m *Mock) ThreadSafe() bool { return m.Safe }

// Recognize implements Engine.
func (m *Mock) Recognize(ctx context.Context, img image.Image, mode Mode) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, mode)

	if m.Err != nil {
		return Result{}, m.Err
	}
	if degenerate(img) {
		return Result{}, nil
	}
	if res, ok := m.Results[mode]; ok {
		return res, nil
	}
	return m.Default, nil
}

// CallCount reports how many times Recognize ran.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// TokensFromWords builds single-line tokens at fixed geometry, a convenience
// for mock results that must survive layout analysis.
func TokensFromWords(words []string, y, height int) []document.Token {
	tokens := make([]document.Token, 0, len(words))
	x := 10
	for _, w := range words {
		width := 8 * len(w)
		if width < 8 {
			width = 8
		}
		conf := 0.9
		tokens = append(tokens, document.Token{
			Text:       w,
			Bbox:       geometry.NewBbox(x, y, x+width, y+height),
			Confidence: &conf,
		})
		x += width + 10
	}
	return tokens
}
