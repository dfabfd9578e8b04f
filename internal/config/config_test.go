package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Repository:   "/tmp/repo",
		Ref:          DefaultRef,
		CohortLayout: DefaultCohortLayout,
		Interval:     DefaultInterval,
		OutputDir:    ".",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultRef, cfg.Ref)
	assert.Equal(t, DefaultCohortLayout, cfg.CohortLayout)
	assert.Equal(t, DefaultInterval, cfg.Interval)
	assert.Equal(t, DefaultOutputDir, cfg.OutputDir)
	assert.False(t, cfg.AllFiletypes)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "theseus.yaml")

	content := `
repository: /srv/checkout
ref: main
cohort_layout: "2006-01"
interval: 24h
only:
  - "**/*.go"
ignore:
  - "vendor/**"
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/checkout", cfg.Repository)
	assert.Equal(t, "main", cfg.Ref)
	assert.Equal(t, "2006-01", cfg.CohortLayout)
	assert.Equal(t, 24*time.Hour, cfg.Interval)
	assert.Equal(t, []string{"**/*.go"}, cfg.Only)
	assert.Equal(t, []string{"vendor/**"}, cfg.Ignore)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		require.NoError(t, validConfig().Validate())
	})

	t.Run("missing_repository", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.Repository = ""

		require.ErrorIs(t, cfg.Validate(), ErrNoRepository)
	})

	t.Run("negative_interval", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.Interval = -time.Second

		require.ErrorIs(t, cfg.Validate(), ErrInvalidInterval)
	})

	t.Run("zero_interval_allowed", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.Interval = 0

		require.NoError(t, cfg.Validate())
	})

	t.Run("empty_cohort_layout", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.CohortLayout = ""

		require.ErrorIs(t, cfg.Validate(), ErrEmptyCohort)
	})

	t.Run("empty_glob", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.Ignore = []string{""}

		require.ErrorIs(t, cfg.Validate(), ErrEmptyGlobPattern)
	})
}
