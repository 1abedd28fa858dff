package engine

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/MeKo-Tech/docstruct/internal/document"
	"github.com/MeKo-Tech/docstruct/internal/geometry"
)

// Tesseract wraps the system Tesseract engine via gosseract as the primary
// general-purpose recognizer. Requires the tesseract shared library and
// language data to be installed on the host.
//
// The underlying client is not safe for concurrent use, so ThreadSafe
// reports false and callers serialize invocations.
type Tesseract struct {
	mu       sync.Mutex
	client   *gosseract.Client
	language string
}

// NewTesseract creates a Tesseract engine for the given language
// (e.g. "eng", "eng+deu"). Close must be called to release native resources.
func NewTesseract(language string) (*Tesseract, error) {
	if language == "" {
		language = "eng"
	}
	client := gosseract.NewClient()
	if err := client.SetLanguage(language); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("set language %q: %w", language, err)
	}
	return &Tesseract{client: client, language: language}, nil
}

// Name implements Engine.
func (t *Tesseract) Name() string { return "tesseract" }

// ThreadSafe implements Engine.
func (t *Tesseract) ThreadSafe() bool { return false }

// Close releases the native client.
func (t *Tesseract) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	return err
}

func pageSegMode(mode Mode) gosseract.PageSegMode {
	switch mode {
	case ModeSingleChar:
		return gosseract.PSM_SINGLE_CHAR
	case ModeHandwriting:
		return gosseract.PSM_SINGLE_BLOCK
	case ModeLayout:
		return gosseract.PSM_AUTO_OSD
	default:
		return gosseract.PSM_AUTO
	}
}

// Recognize implements Engine. Word-level bounding boxes and confidences are
// mapped into tokens; tesseract's 0..100 confidences are scaled to [0,1].
func (t *Tesseract) Recognize(ctx context.Context, img image.Image, mode Mode) (Result, error) {
	if degenerate(img) {
		return Result{}, nil
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Result{}, fmt.Errorf("encode region: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client == nil {
		return Result{}, fmt.Errorf("tesseract client closed")
	}
	if err := t.client.SetPageSegMode(pageSegMode(mode)); err != nil {
		return Result{}, fmt.Errorf("set page seg mode: %w", err)
	}
	if err := t.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return Result{}, fmt.Errorf("set image: %w", err)
	}

	text, err := t.client.Text()
	if err != nil {
		return Result{}, fmt.Errorf("recognize: %w", err)
	}

	boxes, err := t.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return Result{Text: strings.TrimSpace(text)}, nil
	}

	tokens := make([]document.Token, 0, len(boxes))
	for _, b := range boxes {
		word := strings.TrimSpace(b.Word)
		if word == "" {
			continue
		}
		bbox := geometry.NewBbox(b.Box.Min.X, b.Box.Min.Y, b.Box.Max.X, b.Box.Max.Y)
		if !bbox.Valid() {
			continue
		}
		conf := b.Confidence / 100.0
		tokens = append(tokens, document.Token{Text: word, Bbox: bbox, Confidence: &conf})
	}

	return Result{Text: strings.TrimSpace(text), Tokens: tokens}, nil
}
