package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "docstruct"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "DOCSTRUCT"
)

// Loader loads configuration from files, environment, and defaults.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader bound to the global viper instance so cobra
// flag bindings resolve against the same configuration.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// Load reads configuration from the search paths and environment, applies
// defaults, and validates the result. A missing config file is not an error.
func (l *Loader) Load() (*Config, error) {
	cfg, err := l.load("")
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadWithFile loads configuration from a specific file path.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}
	cfg, err := l.load(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (l *Loader) load(configFile string) (*Config, error) {
	if configFile != "" {
		l.v.SetConfigFile(configFile)
	} else {
		l.v.SetConfigName(ConfigFileName)
		l.v.SetConfigType("yaml")
		l.addConfigPaths()
	}

	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// Set sets a value in the configuration.
func (l *Loader) Set(key string, value any) {
	l.v.Set(key, value)
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// addConfigPaths adds the standard configuration search paths.
func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")

	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
	}

	l.v.AddConfigPath("/etc/docstruct")

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		l.v.AddConfigPath(filepath.Join(configDir, "docstruct"))
	} else if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(home, ".config", "docstruct"))
	}
}

// setupEnvironmentVariables configures environment variable handling, e.g.
// DOCSTRUCT_ENGINES_PRIMARY_ENABLED overrides engines.primary.enabled.
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults mirrors DefaultConfig into viper defaults.
func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("log_level", defaults.LogLevel)
	l.v.SetDefault("verbose", defaults.Verbose)

	l.v.SetDefault("engines.primary.enabled", defaults.Engines.Primary.Enabled)
	l.v.SetDefault("engines.primary.language", defaults.Engines.Primary.Language)
	l.v.SetDefault("engines.primary.timeout_sec", defaults.Engines.Primary.TimeoutSec)
	l.v.SetDefault("engines.handwriting.enabled", defaults.Engines.Handwriting.Enabled)
	l.v.SetDefault("engines.handwriting.language", defaults.Engines.Handwriting.Language)
	l.v.SetDefault("engines.handwriting.timeout_sec", defaults.Engines.Handwriting.TimeoutSec)
	l.v.SetDefault("engines.layout.enabled", defaults.Engines.Layout.Enabled)
	l.v.SetDefault("engines.layout.language", defaults.Engines.Layout.Language)
	l.v.SetDefault("engines.layout.timeout_sec", defaults.Engines.Layout.TimeoutSec)
	l.v.SetDefault("engines.retry_attempts", defaults.Engines.RetryAttempts)

	l.v.SetDefault("orchestrator.form_boxes", defaults.Orchestrator.FormBoxes)
	l.v.SetDefault("orchestrator.checkboxes", defaults.Orchestrator.Checkboxes)
	l.v.SetDefault("orchestrator.full_page_fallback", defaults.Orchestrator.FullPageFallback)
	l.v.SetDefault("orchestrator.max_secondary_regions", defaults.Orchestrator.MaxSecondaryRegions)
	l.v.SetDefault("orchestrator.max_layout_pages", defaults.Orchestrator.MaxLayoutPages)
	l.v.SetDefault("orchestrator.form_region_overlap", defaults.Orchestrator.FormRegionOverlap)

	l.v.SetDefault("tables.min_rows", defaults.Tables.MinRows)
	l.v.SetDefault("tables.min_cols", defaults.Tables.MinCols)
	l.v.SetDefault("tables.max_cols", defaults.Tables.MaxCols)

	l.v.SetDefault("chunking.max_chars", defaults.Chunking.MaxChars)
	l.v.SetDefault("chunking.overlap_chars", defaults.Chunking.OverlapChars)

	l.v.SetDefault("parallel.workers", defaults.Parallel.Workers)

	l.v.SetDefault("server.host", defaults.Server.Host)
	l.v.SetDefault("server.port", defaults.Server.Port)
	l.v.SetDefault("server.cors_origin", defaults.Server.CORSOrigin)
	l.v.SetDefault("server.max_upload_mb", defaults.Server.MaxUploadMB)
	l.v.SetDefault("server.timeout_sec", defaults.Server.TimeoutSec)
	l.v.SetDefault("server.shutdown_timeout", defaults.Server.ShutdownTimeout)

	l.v.SetDefault("output.format", defaults.Output.Format)
}

// WriteConfigToFile writes the current configuration to a file.
func (l *Loader) WriteConfigToFile(filename string) error {
	return l.v.WriteConfigAs(filename)
}

// GenerateDefaultConfigFile writes a config file populated with defaults.
func GenerateDefaultConfigFile(filename string) error {
	loader := NewLoader()
	loader.setDefaults()
	if filename == "" {
		filename = "docstruct.yaml"
	}
	return loader.WriteConfigToFile(filename)
}

// GetConfigSearchPaths returns the paths searched for configuration files.
func GetConfigSearchPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home, filepath.Join(home, ".config", "docstruct"))
	}
	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		paths = append(paths, filepath.Join(configDir, "docstruct"))
	}
	return append(paths, "/etc/docstruct")
}
