// Package export renders an analysis result into the on-disk JSON
// documents consumed by the plotting commands: one aligned series document
// per dimension plus the sparse per-commit survival document.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pierrec/lz4/v4"

	"github.com/Sumatoshi-tech/theseus/internal/survival"
)

// TimestampLayout renders checkpoint timestamps in the series documents.
const TimestampLayout = "2006-01-02T15:04:05"

// Series file names, one per dimension.
const (
	CohortsFile   = "cohorts.json"
	ExtsFile      = "exts.json"
	AuthorsFile   = "authors.json"
	FilesizesFile = "filesizes.json"
	SurvivalFile  = "survival.json"
)

// SeriesDoc is one dimension's aligned time series. Y holds one row per
// label; every row has one count per entry of Ts.
type SeriesDoc struct {
	Y      [][]int  `json:"y"`
	Ts     []string `json:"ts"`
	Labels []any    `json:"labels"`
}

// SurvivalDoc maps a source commit's hex hash to its recorded
// (checkpoint unix timestamp, surviving lines) pairs.
type SurvivalDoc map[string][][2]int64

// Options configures a Writer.
type Options struct {
	// OutDir receives the documents; it is created if missing.
	OutDir string
	// Compress writes lz4-compressed documents with a .lz4 suffix.
	Compress bool
	Logger   *slog.Logger
}

// Writer persists analysis results.
type Writer struct {
	outDir   string
	compress bool
	log      *slog.Logger
}

// NewWriter creates a Writer.
func NewWriter(opts Options) *Writer {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Writer{
		outDir:   opts.OutDir,
		compress: opts.Compress,
		log:      log.With(slog.String("component", "export")),
	}
}

// Write dumps all five documents. The result is already fully computed, so
// a failure part-way leaves earlier documents intact and later ones absent,
// never a truncated half-written analysis.
func (w *Writer) Write(result *survival.Result) error {
	if err := os.MkdirAll(w.outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", w.outDir, err)
	}

	acc := result.Accumulator

	series := []struct {
		file string
		kind survival.Kind
	}{
		{CohortsFile, survival.KindCohort},
		{ExtsFile, survival.KindExt},
		{AuthorsFile, survival.KindAuthor},
		{FilesizesFile, survival.KindFilesize},
	}

	for _, s := range series {
		if err := w.writeDoc(s.file, BuildSeries(acc, s.kind)); err != nil {
			return err
		}
	}

	return w.writeDoc(SurvivalFile, BuildSurvival(acc))
}

// BuildSeries assembles one dimension's document from the accumulator.
// Label order follows the accumulator's display order, so rows and labels
// stay aligned.
func BuildSeries(acc *survival.Accumulator, kind survival.Kind) SeriesDoc {
	values, rows := acc.SeriesFor(kind)

	ts := make([]string, len(acc.Timestamps()))
	for i, t := range acc.Timestamps() {
		ts[i] = t.UTC().Format(TimestampLayout)
	}

	labels := make([]any, len(values))
	for i, v := range values {
		labels[i] = seriesLabel(kind, v)
	}

	doc := SeriesDoc{Y: rows, Ts: ts, Labels: labels}
	if doc.Y == nil {
		doc.Y = [][]int{}
	}

	return doc
}

// BuildSurvival assembles the survival document.
func BuildSurvival(acc *survival.Accumulator) SurvivalDoc {
	doc := make(SurvivalDoc, len(acc.Survival()))

	for sha, points := range acc.Survival() {
		pairs := make([][2]int64, len(points))
		for i, p := range points {
			pairs[i] = [2]int64{p.Timestamp, int64(p.Lines)}
		}

		doc[sha] = pairs
	}

	return doc
}

// seriesLabel renders one key value for display: cohorts get a sentence,
// filesizes stay numeric, everything else is the raw value.
func seriesLabel(kind survival.Kind, value string) any {
	switch kind {
	case survival.KindCohort:
		return fmt.Sprintf("Code added in %s", value)
	case survival.KindFilesize:
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}

		return value
	default:
		return value
	}
}

func (w *Writer) writeDoc(name string, doc any) error {
	if w.compress {
		name += ".lz4"
	}

	path := filepath.Join(w.outDir, name)

	start := time.Now()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	var sink io.Writer = f

	var zw *lz4.Writer
	if w.compress {
		zw = lz4.NewWriter(f)
		sink = zw
	}

	encodeErr := json.NewEncoder(sink).Encode(doc)

	if zw != nil {
		if closeErr := zw.Close(); encodeErr == nil {
			encodeErr = closeErr
		}
	}

	if closeErr := f.Close(); encodeErr == nil {
		encodeErr = closeErr
	}

	if encodeErr != nil {
		return fmt.Errorf("write %s: %w", path, encodeErr)
	}

	w.log.Info("wrote document",
		slog.String("path", path),
		slog.Duration("took", time.Since(start)))

	return nil
}
