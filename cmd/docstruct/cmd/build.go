package cmd

import (
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/docstruct/internal/config"
	"github.com/MeKo-Tech/docstruct/internal/engine"
	"github.com/MeKo-Tech/docstruct/internal/pipeline"
)

// buildPipeline constructs the processing pipeline from configuration,
// attaching a tesseract instance per enabled engine family. The returned
// closer releases the engine handles.
func buildPipeline(cfg *config.Config) (*pipeline.Pipeline, func(), error) {
	b := pipeline.NewBuilder().
		WithConfig(cfg.ToPipelineConfig()).
		WithLogger(slog.Default())

	var closers []func() error
	attach := func(ec config.EngineConfig, with func(engine.Engine) *pipeline.Builder) error {
		if !ec.Enabled {
			return nil
		}
		eng, err := engine.NewTesseract(ec.Language)
		if err != nil {
			return err
		}
		closers = append(closers, eng.Close)
		with(eng)
		return nil
	}

	closeAll := func() {
		for _, c := range closers {
			_ = c()
		}
	}

	if err := attach(cfg.Engines.Primary, b.WithPrimaryEngine); err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("primary engine: %w", err)
	}
	if err := attach(cfg.Engines.Handwriting, b.WithHandwritingEngine); err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("handwriting engine: %w", err)
	}
	if err := attach(cfg.Engines.Layout, b.WithLayoutEngine); err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("layout engine: %w", err)
	}

	return b.Build(), closeAll, nil
}
