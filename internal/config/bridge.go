package config

import (
	"time"

	"github.com/MeKo-Tech/docstruct/internal/orchestrator"
	"github.com/MeKo-Tech/docstruct/internal/pipeline"
	"github.com/MeKo-Tech/docstruct/internal/tables"
)

// ToPipelineConfig converts the application configuration into the pipeline's
// component configs. Capability toggles for handwriting and layout follow the
// engine enablement, matching the orchestrator's engine_unavailable semantics.
func (c *Config) ToPipelineConfig() pipeline.Config {
	cfg := pipeline.DefaultConfig()

	cfg.Tables = tables.Config{
		MinRows: c.Tables.MinRows,
		MinCols: c.Tables.MinCols,
		MaxCols: c.Tables.MaxCols,
	}

	cfg.Orchestrator = orchestrator.Config{
		EnableFormBoxes:     c.Orchestrator.FormBoxes,
		EnableHandwriting:   c.Engines.Handwriting.Enabled,
		EnableFallback:      c.Orchestrator.FullPageFallback,
		EnableCheckboxes:    c.Orchestrator.Checkboxes,
		EnableLayout:        c.Engines.Layout.Enabled,
		MaxSecondaryRegions: c.Orchestrator.MaxSecondaryRegions,
		MaxLayoutPages:      c.Orchestrator.MaxLayoutPages,
		FormRegionOverlap:   c.Orchestrator.FormRegionOverlap,
	}

	if c.Parallel.Workers > 0 {
		cfg.Workers = c.Parallel.Workers
	}

	cfg.Timeouts = pipeline.EngineTimeouts{
		Primary:     time.Duration(c.Engines.Primary.TimeoutSec) * time.Second,
		Handwriting: time.Duration(c.Engines.Handwriting.TimeoutSec) * time.Second,
		Layout:      time.Duration(c.Engines.Layout.TimeoutSec) * time.Second,
	}
	cfg.RetryAttempts = c.Engines.RetryAttempts

	cfg.ChunkChars = c.Chunking.MaxChars
	cfg.ChunkOverlap = c.Chunking.OverlapChars
	return cfg
}
