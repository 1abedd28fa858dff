// Package batch processes whole directories of images, PDFs, and token-page
// files through the structuring pipeline, with progress reporting and
// per-file or combined output.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/docstruct/internal/pipeline"
)

// Result holds the outcome of a batch run.
type Result struct {
	Files    []FileResult
	Duration time.Duration
}

// Failed counts the files that ended in an error.
func (r *Result) Failed() int {
	n := 0
	for i := range r.Files {
		if r.Files[i].Err != "" {
			n++
		}
	}
	return n
}

// Run discovers the input files under paths and processes them through the
// pipeline. Page-level parallelism comes from the pipeline itself; files are
// processed in order so output stays deterministic.
func Run(ctx context.Context, pl *pipeline.Pipeline, paths []string, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	files, err := DiscoverFiles(paths, cfg)
	if err != nil {
		return nil, fmt.Errorf("discover input files: %w", err)
	}
	if len(files) == 0 {
		return nil, errors.New("no processable files found")
	}

	var progress pipeline.ProgressCallback
	if !cfg.Quiet {
		progress = pipeline.NewLogProgressCallback(slog.Default(), cfg.ProgressInterval)
	}

	start := time.Now()
	results, err := processAll(ctx, pl, files, cfg, progress)
	if err != nil {
		return nil, err
	}

	return &Result{Files: results, Duration: time.Since(start)}, nil
}
