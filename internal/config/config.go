// Package config provides configuration loading and validation for the
// theseus analyzer.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrNoRepository     = errors.New("repository path is required")
	ErrInvalidInterval  = errors.New("checkpoint interval must not be negative")
	ErrEmptyCohort      = errors.New("cohort layout must not be empty")
	ErrEmptyRef         = errors.New("ref must not be empty")
	ErrEmptyOutputDir   = errors.New("output directory must not be empty")
	ErrEmptyGlobPattern = errors.New("glob patterns must not be empty strings")
)

// Default configuration values.
const (
	// DefaultInterval is one week, the minimum spacing between checkpoints.
	DefaultInterval = 7 * 24 * time.Hour
	// DefaultCohortLayout buckets commits by year (Go reference-time layout).
	DefaultCohortLayout = "2006"
	// DefaultRef tracks whatever the repository's HEAD points at.
	DefaultRef = "HEAD"
	// DefaultOutputDir is the current directory.
	DefaultOutputDir = "."
)

// Config holds all configuration for one analysis run.
type Config struct {
	// Repository is the path to the git repository to analyze.
	Repository string `mapstructure:"repository"`
	// Ref is the branch, tag or revision whose history is tracked.
	Ref string `mapstructure:"ref"`
	// CohortLayout is the Go time layout that buckets commit dates into
	// cohorts, e.g. "2006" for yearly or "2006-01" for monthly cohorts.
	CohortLayout string `mapstructure:"cohort_layout"`
	// Interval is the minimum time between two checkpoints.
	Interval time.Duration `mapstructure:"interval"`
	// OutputDir receives the exported JSON documents.
	OutputDir string `mapstructure:"output_dir"`
	// AllFiletypes disables the source-code filetype catalog so every file
	// is considered trackable.
	AllFiletypes bool `mapstructure:"all_filetypes"`
	// Only lists glob patterns a path must match, all of them, to be
	// tracked. Empty means no restriction.
	Only []string `mapstructure:"only"`
	// Ignore lists glob patterns that exclude a path when any matches.
	Ignore []string `mapstructure:"ignore"`
	// Compress writes lz4-compressed output documents.
	Compress bool `mapstructure:"compress"`
	// MetricsOut is an optional path for a Prometheus text metrics dump.
	MetricsOut string `mapstructure:"metrics_out"`
	// Logging controls the slog handler.
	Logging LoggingConfig `mapstructure:"logging"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from an optional YAML file plus THESEUS_*
// environment variables and returns the merged result.
func Load(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("theseus")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
	}

	viperCfg.SetEnvPrefix("THESEUS")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("read config file: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("ref", DefaultRef)
	viperCfg.SetDefault("cohort_layout", DefaultCohortLayout)
	viperCfg.SetDefault("interval", DefaultInterval)
	viperCfg.SetDefault("output_dir", DefaultOutputDir)
	viperCfg.SetDefault("all_filetypes", false)
	viperCfg.SetDefault("compress", false)
	viperCfg.SetDefault("logging.level", "info")
	viperCfg.SetDefault("logging.format", "text")
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Repository == "" {
		return ErrNoRepository
	}

	if c.Ref == "" {
		return ErrEmptyRef
	}

	if c.CohortLayout == "" {
		return ErrEmptyCohort
	}

	if c.Interval < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, c.Interval)
	}

	if c.OutputDir == "" {
		return ErrEmptyOutputDir
	}

	for _, pattern := range append(append([]string{}, c.Only...), c.Ignore...) {
		if pattern == "" {
			return ErrEmptyGlobPattern
		}
	}

	return nil
}
