package config

// Config is the complete configuration for the docstruct application. It is
// loaded from configuration files, environment variables, and command-line
// flags, in that order of increasing precedence.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Engines      EnginesConfig      `mapstructure:"engines" yaml:"engines" json:"engines"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator" yaml:"orchestrator" json:"orchestrator"`
	Tables       TablesConfig       `mapstructure:"tables" yaml:"tables" json:"tables"`
	Chunking     ChunkingConfig     `mapstructure:"chunking" yaml:"chunking" json:"chunking"`
	Parallel     ParallelConfig     `mapstructure:"parallel" yaml:"parallel" json:"parallel"`
	Server       ServerConfig       `mapstructure:"server" yaml:"server" json:"server"`
	Output       OutputConfig       `mapstructure:"output" yaml:"output" json:"output"`
}

// EnginesConfig holds per-engine-family settings.
type EnginesConfig struct {
	Primary     EngineConfig `mapstructure:"primary" yaml:"primary" json:"primary"`
	Handwriting EngineConfig `mapstructure:"handwriting" yaml:"handwriting" json:"handwriting"`
	Layout      EngineConfig `mapstructure:"layout" yaml:"layout" json:"layout"`

	// RetryAttempts is the number of attempts per recognition call.
	RetryAttempts uint `mapstructure:"retry_attempts" yaml:"retry_attempts" json:"retry_attempts"`
}

// EngineConfig configures one engine family.
type EngineConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Language   string `mapstructure:"language" yaml:"language" json:"language"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
}

// OrchestratorConfig holds orchestration budgets and capability toggles.
type OrchestratorConfig struct {
	FormBoxes           bool    `mapstructure:"form_boxes" yaml:"form_boxes" json:"form_boxes"`
	Checkboxes          bool    `mapstructure:"checkboxes" yaml:"checkboxes" json:"checkboxes"`
	FullPageFallback    bool    `mapstructure:"full_page_fallback" yaml:"full_page_fallback" json:"full_page_fallback"`
	MaxSecondaryRegions int     `mapstructure:"max_secondary_regions" yaml:"max_secondary_regions" json:"max_secondary_regions"`
	MaxLayoutPages      int     `mapstructure:"max_layout_pages" yaml:"max_layout_pages" json:"max_layout_pages"`
	FormRegionOverlap   float64 `mapstructure:"form_region_overlap" yaml:"form_region_overlap" json:"form_region_overlap"`
}

// TablesConfig holds table extraction thresholds.
type TablesConfig struct {
	MinRows int `mapstructure:"min_rows" yaml:"min_rows" json:"min_rows"`
	MinCols int `mapstructure:"min_cols" yaml:"min_cols" json:"min_cols"`
	MaxCols int `mapstructure:"max_cols" yaml:"max_cols" json:"max_cols"`
}

// ChunkingConfig holds retrieval chunking settings.
type ChunkingConfig struct {
	MaxChars     int `mapstructure:"max_chars" yaml:"max_chars" json:"max_chars"`
	OverlapChars int `mapstructure:"overlap_chars" yaml:"overlap_chars" json:"overlap_chars"`
}

// ParallelConfig bounds page-level parallelism.
type ParallelConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers" json:"workers"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	File   string `mapstructure:"file" yaml:"file" json:"file"`
}
