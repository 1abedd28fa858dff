package batch

import (
	"errors"
	"fmt"
)

// Config holds batch processing settings.
type Config struct {
	// File discovery
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Output
	Format     string // json, md, html, text, csv
	OutputDir  string // per-input output files; empty writes combined output
	OutputFile string // combined output file; empty writes to stdout

	// Failure handling
	ContinueOnError bool

	// Progress reporting
	Quiet            bool
	ProgressInterval int
}

// DefaultConfig returns batch defaults: JSON output to stdout, stop on the
// first failing file.
func DefaultConfig() Config {
	return Config{
		Format:           "json",
		ProgressInterval: 10,
	}
}

var validFormats = map[string]bool{
	"json": true,
	"md":   true,
	"html": true,
	"text": true,
	"csv":  true,
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if !validFormats[c.Format] {
		return fmt.Errorf("invalid batch format: %q", c.Format)
	}
	if c.OutputDir != "" && c.OutputFile != "" {
		return errors.New("output-dir and output-file are mutually exclusive")
	}
	return nil
}
