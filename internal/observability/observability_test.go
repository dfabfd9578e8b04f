package observability

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := NewLogger(&buf, "warn", FormatText)

	logger.Info("hidden")
	logger.Warn("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
}

func TestNewLoggerJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := NewLogger(&buf, "info", FormatJSON)
	logger.Info("msg", slog.String("component", "engine"))

	assert.True(t, strings.HasPrefix(buf.String(), "{"))
	assert.Contains(t, buf.String(), `"component":"engine"`)
}

func TestParseLevelFallback(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
}

func TestMetricsWriteText(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.BlameCalls.WithLabelValues(OutcomeOK).Inc()
	m.BlameCalls.WithLabelValues(OutcomeError).Inc()
	m.CacheHits.Add(3)
	m.CheckpointsProcessed.Inc()

	var buf bytes.Buffer

	require.NoError(t, m.WriteText(&buf))

	out := buf.String()
	assert.Contains(t, out, "theseus_blame_calls_total")
	assert.Contains(t, out, `outcome="error"`)
	assert.Contains(t, out, "theseus_histogram_cache_hits_total 3")
}
