package survival

import (
	"log/slog"
	"path"
	"time"

	"github.com/Sumatoshi-tech/theseus/internal/cohort"
	"github.com/Sumatoshi-tech/theseus/internal/observability"
	"github.com/Sumatoshi-tech/theseus/internal/sampler"
	"github.com/Sumatoshi-tech/theseus/pkg/gitlib"
)

// Resolver maps attributed commits to their cohort label, author and
// survival eligibility. The full-ancestry cohort indexer satisfies it.
type Resolver interface {
	Cohort(h gitlib.Hash) string
	AuthorOf(h gitlib.Hash) (string, bool)
	SourceTimestamp(h gitlib.Hash) (int64, bool)
}

// BlameCache computes per-file line-attribution histograms and caches them
// per path. A cached histogram stays valid until the path shows up in a
// checkpoint's changed-file set: line attribution for an unchanged file
// cannot move.
type BlameCache struct {
	history  History
	resolver Resolver
	log      *slog.Logger
	metrics  *observability.Metrics
	entries  map[string]Histogram
}

// NewBlameCache creates a BlameCache.
func NewBlameCache(history History, resolver Resolver, log *slog.Logger, metrics *observability.Metrics) *BlameCache {
	return &BlameCache{
		history:  history,
		resolver: resolver,
		log:      log,
		metrics:  metrics,
		entries:  make(map[string]Histogram),
	}
}

// Histogram returns the file's histogram at the checkpoint, recomputing it
// when the file changed since the previous checkpoint or has never been
// seen, and serving the cached value otherwise.
func (c *BlameCache) Histogram(cp sampler.Checkpoint, file FileEntry, changed bool) Histogram {
	if !changed {
		if cached, ok := c.entries[file.Path]; ok {
			c.metrics.CacheHits.Inc()

			return cached
		}
	}

	c.metrics.CacheMisses.Inc()

	hist := c.compute(cp, file)
	c.entries[file.Path] = hist

	return hist
}

// compute runs blame for one file and folds every attributed line into the
// dimension keys. Attribution failures are recoverable: the file simply
// contributes no lines at this checkpoint and the run continues.
func (c *BlameCache) compute(cp sampler.Checkpoint, file FileEntry) Histogram {
	start := time.Now()
	spans, err := c.history.Blame(cp.Hash, file.Path)
	c.metrics.BlameDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		c.metrics.BlameCalls.WithLabelValues(observability.OutcomeError).Inc()
		c.log.Warn("attribution failed, file contributes an empty histogram",
			slog.String("path", file.Path),
			slog.String("checkpoint", cp.Hash.String()),
			slog.Time("checkpoint_time", cp.When),
			slog.Any("error", err))

		return Histogram{}
	}

	c.metrics.BlameCalls.WithLabelValues(observability.OutcomeOK).Inc()

	extKey := Key{Kind: KindExt, Value: path.Ext(file.Path)}
	sizeKey := Key{Kind: KindFilesize, Value: FilesizeValue(file.Size)}
	hist := make(Histogram)
	total := 0

	for _, span := range spans {
		author, ok := c.resolver.AuthorOf(span.Commit)
		if !ok {
			author = cohort.MissingCohort
		}

		hist[Key{Kind: KindCohort, Value: c.resolver.Cohort(span.Commit)}] += span.Lines
		hist[extKey] += span.Lines
		hist[Key{Kind: KindAuthor, Value: author}] += span.Lines
		hist[sizeKey] += span.Lines

		if _, isSource := c.resolver.SourceTimestamp(span.Commit); isSource {
			hist[Key{Kind: KindSHA, Value: span.Commit.String()}] += span.Lines
		}

		total += span.Lines
	}

	c.metrics.LinesAttributed.Add(float64(total))

	return hist
}
