// Package pipeline wires the processing stages into a document pipeline:
// layout analysis, table extraction, normalization and classification, and
// multi-engine orchestration, with page-parallel execution and document
// assembly.
package pipeline

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/MeKo-Tech/docstruct/internal/engine"
	"github.com/MeKo-Tech/docstruct/internal/orchestrator"
	"github.com/MeKo-Tech/docstruct/internal/tables"
)

// EngineTimeouts holds the per-family recognition call deadlines.
type EngineTimeouts struct {
	Primary     time.Duration
	Handwriting time.Duration
	Layout      time.Duration
}

// Config holds configuration for the pipeline and its components.
type Config struct {
	Tables       tables.Config
	Orchestrator orchestrator.Config

	// Workers bounds page-level parallelism (0 = runtime.NumCPU()).
	Workers int

	Timeouts      EngineTimeouts
	RetryAttempts uint

	ChunkChars   int
	ChunkOverlap int
}

// DefaultConfig returns a pipeline config with component defaults.
func DefaultConfig() Config {
	return Config{
		Tables:       tables.DefaultConfig(),
		Orchestrator: orchestrator.DefaultConfig(),
		Workers:      runtime.NumCPU(),
		Timeouts: EngineTimeouts{
			Primary:     30 * time.Second,
			Handwriting: 60 * time.Second,
			Layout:      60 * time.Second,
		},
		RetryAttempts: 1,
		ChunkChars:    900,
		ChunkOverlap:  120,
	}
}

// Pipeline executes document processing. Engines are optional; without them
// the pipeline still performs layout, tables, and normalization over the
// provided token stream.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger

	primary     engine.Engine
	handwriting engine.Engine
	layout      engine.Engine

	orch     *orchestrator.Orchestrator
	progress ProgressCallback
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg         Config
	logger      *slog.Logger
	primary     engine.Engine
	handwriting engine.Engine
	layout      engine.Engine
	boxDet      orchestrator.BoxDetector
	checkboxDet orchestrator.CheckboxDetector
	progress    ProgressCallback
}

// NewBuilder creates a pipeline builder with defaults.
func NewBuilder() *Builder {
	return &Builder{cfg: DefaultConfig(), logger: slog.Default()}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// WithTableConfig overrides table extraction settings.
func (b *Builder) WithTableConfig(cfg tables.Config) *Builder {
	b.cfg.Tables = cfg
	return b
}

// WithOrchestratorConfig overrides orchestration budgets.
func (b *Builder) WithOrchestratorConfig(cfg orchestrator.Config) *Builder {
	b.cfg.Orchestrator = cfg
	return b
}

// WithWorkers sets the page worker count.
func (b *Builder) WithWorkers(n int) *Builder {
	if n > 0 {
		b.cfg.Workers = n
	}
	return b
}

// WithLogger sets the structured logger.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	if l != nil {
		b.logger = l
	}
	return b
}

// WithPrimaryEngine sets the general-purpose recognition engine.
func (b *Builder) WithPrimaryEngine(e engine.Engine) *Builder {
	b.primary = e
	return b
}

// WithHandwritingEngine sets the handwriting-specialized engine.
func (b *Builder) WithHandwritingEngine(e engine.Engine) *Builder {
	b.handwriting = e
	return b
}

// WithLayoutEngine sets the layout-specialized engine.
func (b *Builder) WithLayoutEngine(e engine.Engine) *Builder {
	b.layout = e
	return b
}

// WithBoxDetector overrides the boxed-grid form region detector.
func (b *Builder) WithBoxDetector(d orchestrator.BoxDetector) *Builder {
	b.boxDet = d
	return b
}

// WithCheckboxDetector overrides the checkbox detector.
func (b *Builder) WithCheckboxDetector(d orchestrator.CheckboxDetector) *Builder {
	b.checkboxDet = d
	return b
}

// WithProgress sets the progress callback for batch processing.
func (b *Builder) WithProgress(cb ProgressCallback) *Builder {
	b.progress = cb
	return b
}

// Build assembles the pipeline. Engines are wrapped with their family
// timeout, retry, and, for engines that are not thread-safe, a serializing
// queue so concurrent page workers can share one instance.
func (b *Builder) Build() *Pipeline {
	p := &Pipeline{
		cfg:      b.cfg,
		logger:   b.logger,
		progress: b.progress,
	}
	if p.cfg.Workers <= 0 {
		p.cfg.Workers = runtime.NumCPU()
	}
	if p.progress == nil {
		p.progress = NoOpProgressCallback{}
	}

	p.primary = wrapEngine(b.primary, b.cfg.Timeouts.Primary, b.cfg.RetryAttempts)
	p.handwriting = wrapEngine(b.handwriting, b.cfg.Timeouts.Handwriting, b.cfg.RetryAttempts)
	p.layout = wrapEngine(b.layout, b.cfg.Timeouts.Layout, b.cfg.RetryAttempts)

	p.orch = orchestrator.New(b.cfg.Orchestrator).
		WithLogger(b.logger).
		WithPrimaryEngine(p.primary).
		WithHandwritingEngine(p.handwriting).
		WithLayoutEngine(p.layout)
	if b.boxDet != nil {
		p.orch.WithBoxDetector(b.boxDet)
	}
	if b.checkboxDet != nil {
		p.orch.WithCheckboxDetector(b.checkboxDet)
	}
	return p
}

func wrapEngine(e engine.Engine, timeout time.Duration, attempts uint) engine.Engine {
	if e == nil {
		return nil
	}
	e = engine.Serialized(e)
	e = engine.WithRetry(e, attempts)
	return engine.WithTimeout(e, timeout)
}

// Config returns a copy of the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }
