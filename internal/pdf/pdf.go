// Package pdf handles PDF inputs: document validation and page counting via
// pdfcpu, and text-layer extraction via dslipak/pdf. Pages with a usable text
// layer skip OCR entirely and flow through the pipeline as text-only pages.
package pdf

import (
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Validate checks that the file is a structurally sound, readable PDF.
// Encrypted documents are rejected.
func Validate(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("open pdf: %w", err)
	}
	defer func() { _ = f.Close() }()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.Validate(f, conf); err != nil {
		return fmt.Errorf("validate pdf %q: %w", filename, err)
	}
	return nil
}

// PageCount returns the number of pages in the document.
func PageCount(filename string) (int, error) {
	f, err := os.Open(filename)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	defer func() { _ = f.Close() }()

	n, err := api.PageCount(f, model.NewDefaultConfiguration())
	if err != nil {
		return 0, fmt.Errorf("count pages in %q: %w", filename, err)
	}
	return n, nil
}
