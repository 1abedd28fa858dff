package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/MeKo-Tech/docstruct/internal/document"
	"github.com/MeKo-Tech/docstruct/internal/pdf"
	"github.com/MeKo-Tech/docstruct/internal/pipeline"
)

// FileResult pairs an input file with its processed document. Err is set
// when the file failed and processing continued.
type FileResult struct {
	Path     string            `json:"file"`
	Document document.Document `json:"document"`
	Err      string            `json:"error,omitempty"`
}

// tokenPagesFile is the JSON input form: pre-recognized token pages.
type tokenPagesFile struct {
	Pages []struct {
		PageNumber int              `json:"page_number"`
		Tokens     []document.Token `json:"tokens,omitempty"`
		Text       string           `json:"text,omitempty"`
	} `json:"pages"`
}

// ProcessFile dispatches on the input type by extension and runs the file
// through the pipeline.
func ProcessFile(ctx context.Context, pl *pipeline.Pipeline, filename string) (document.Document, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return processPDF(ctx, pl, filename)
	case ".json":
		return processTokenFile(ctx, pl, filename)
	case ".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff":
		img, err := imaging.Open(filename)
		if err != nil {
			return document.Document{}, fmt.Errorf("open image %q: %w", filename, err)
		}
		return pl.ProcessImages(ctx, []image.Image{img})
	default:
		return document.Document{}, fmt.Errorf("%w: %s", pipeline.ErrUnsupportedInput, filename)
	}
}

func processPDF(ctx context.Context, pl *pipeline.Pipeline, filename string) (document.Document, error) {
	if err := pdf.Validate(filename); err != nil {
		return document.Document{}, err
	}
	pageTexts, err := pdf.ExtractText(filename)
	if err != nil {
		return document.Document{}, err
	}

	inputs := make([]pipeline.PageInput, 0, len(pageTexts))
	for _, pt := range pageTexts {
		in := pipeline.PageInput{PageNumber: pt.PageNumber}
		if pt.Usable() {
			in.Text = pt.Text
		}
		inputs = append(inputs, in)
	}
	return pl.ProcessDocument(ctx, inputs)
}

func processTokenFile(ctx context.Context, pl *pipeline.Pipeline, filename string) (document.Document, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return document.Document{}, fmt.Errorf("read %q: %w", filename, err)
	}

	var file tokenPagesFile
	if err := json.Unmarshal(data, &file); err != nil {
		return document.Document{}, fmt.Errorf("parse token pages %q: %w", filename, err)
	}

	inputs := make([]pipeline.PageInput, 0, len(file.Pages))
	for i, page := range file.Pages {
		num := page.PageNumber
		if num <= 0 {
			num = i + 1
		}
		inputs = append(inputs, pipeline.PageInput{
			PageNumber: num,
			Tokens:     page.Tokens,
			Text:       page.Text,
		})
	}
	return pl.ProcessDocument(ctx, inputs)
}

// processAll runs each discovered file through the pipeline. On failure it
// either records the error and continues, or aborts, per ContinueOnError.
func processAll(ctx context.Context, pl *pipeline.Pipeline, files []string,
	cfg Config, progress pipeline.ProgressCallback,
) ([]FileResult, error) {
	if progress == nil {
		progress = pipeline.NoOpProgressCallback{}
	}
	progress.OnStart(len(files))

	results := make([]FileResult, 0, len(files))
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		doc, err := ProcessFile(ctx, pl, path)
		if err != nil {
			if !cfg.ContinueOnError {
				return results, fmt.Errorf("process %s: %w", path, err)
			}
			results = append(results, FileResult{Path: path, Err: err.Error()})
		} else {
			results = append(results, FileResult{Path: path, Document: doc})
		}
		progress.OnProgress(i+1, len(files))
	}

	progress.OnComplete()
	return results, nil
}
