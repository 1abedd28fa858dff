package config

import (
	"fmt"
	"strings"
)

// DefaultConfig returns the configuration defaults. Every value here is
// mirrored by a viper SetDefault call in the loader so files and environment
// variables override consistently.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Engines: EnginesConfig{
			Primary:       EngineConfig{Enabled: true, Language: "eng", TimeoutSec: 30},
			Handwriting:   EngineConfig{Enabled: false, Language: "eng", TimeoutSec: 60},
			Layout:        EngineConfig{Enabled: false, Language: "eng", TimeoutSec: 60},
			RetryAttempts: 1,
		},
		Orchestrator: OrchestratorConfig{
			FormBoxes:           true,
			Checkboxes:          true,
			FullPageFallback:    true,
			MaxSecondaryRegions: 12,
			MaxLayoutPages:      6,
			FormRegionOverlap:   0.35,
		},
		Tables: TablesConfig{
			MinRows: 2,
			MinCols: 2,
			MaxCols: 12,
		},
		Chunking: ChunkingConfig{
			MaxChars:     900,
			OverlapChars: 120,
		},
		Parallel: ParallelConfig{Workers: 0},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     50,
			TimeoutSec:      120,
			ShutdownTimeout: 10,
		},
		Output: OutputConfig{Format: "json"},
	}
}

var validFormats = map[string]bool{
	"json": true, "md": true, "markdown": true, "html": true, "text": true,
}

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks the configuration for values the pipeline cannot work with.
func (c *Config) Validate() error {
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log_level %q (debug, info, warn, error)", c.LogLevel)
	}
	if !validFormats[strings.ToLower(c.Output.Format)] {
		return fmt.Errorf("invalid output format %q (json, md, html, text)", c.Output.Format)
	}

	if c.Tables.MinRows < 1 {
		return fmt.Errorf("tables.min_rows must be >= 1, got %d", c.Tables.MinRows)
	}
	if c.Tables.MinCols < 1 {
		return fmt.Errorf("tables.min_cols must be >= 1, got %d", c.Tables.MinCols)
	}
	if c.Tables.MaxCols < c.Tables.MinCols {
		return fmt.Errorf("tables.max_cols (%d) must be >= tables.min_cols (%d)",
			c.Tables.MaxCols, c.Tables.MinCols)
	}

	if c.Orchestrator.MaxSecondaryRegions < 0 {
		return fmt.Errorf("orchestrator.max_secondary_regions must be >= 0, got %d",
			c.Orchestrator.MaxSecondaryRegions)
	}
	if c.Orchestrator.FormRegionOverlap < 0 || c.Orchestrator.FormRegionOverlap > 1 {
		return fmt.Errorf("orchestrator.form_region_overlap must be in [0,1], got %v",
			c.Orchestrator.FormRegionOverlap)
	}

	if c.Chunking.MaxChars <= 0 {
		return fmt.Errorf("chunking.max_chars must be > 0, got %d", c.Chunking.MaxChars)
	}
	if c.Chunking.OverlapChars < 0 || c.Chunking.OverlapChars >= c.Chunking.MaxChars {
		return fmt.Errorf("chunking.overlap_chars must be in [0,%d), got %d",
			c.Chunking.MaxChars, c.Chunking.OverlapChars)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1,65535], got %d", c.Server.Port)
	}

	for family, ec := range map[string]EngineConfig{
		"primary":     c.Engines.Primary,
		"handwriting": c.Engines.Handwriting,
		"layout":      c.Engines.Layout,
	} {
		if ec.TimeoutSec < 0 {
			return fmt.Errorf("engines.%s.timeout_sec must be >= 0, got %d", family, ec.TimeoutSec)
		}
	}
	return nil
}
