package survival

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"

	"github.com/Sumatoshi-tech/theseus/internal/cohort"
	"github.com/Sumatoshi-tech/theseus/internal/filter"
	"github.com/Sumatoshi-tech/theseus/internal/observability"
	"github.com/Sumatoshi-tech/theseus/internal/sampler"
)

// Options configures an Engine.
type Options struct {
	History      History
	Filter       *filter.Filter
	CohortLayout string
	Interval     time.Duration
	Logger       *slog.Logger
	Metrics      *observability.Metrics
	// Progress optionally renders phase trackers; nil runs silently.
	Progress progress.Writer
}

// Engine drives one analysis run. Processing is single-threaded and
// strictly sequential over checkpoints in chronological order: each
// checkpoint's change detection depends on the immediately preceding
// checkpoint's tree.
type Engine struct {
	history  History
	filter   *filter.Filter
	layout   string
	interval time.Duration
	log      *slog.Logger
	metrics  *observability.Metrics
	progress progress.Writer
}

// Result holds everything one run accumulated.
type Result struct {
	Checkpoints    []sampler.Checkpoint
	Accumulator    *Accumulator
	CommitsIndexed int
	FilesProcessed int
}

// New creates an Engine.
func New(opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = observability.NewMetrics()
	}

	return &Engine{
		history:  opts.History,
		filter:   opts.Filter,
		layout:   opts.CohortLayout,
		interval: opts.Interval,
		log:      log.With(slog.String("component", "engine")),
		metrics:  metrics,
		progress: opts.Progress,
	}
}

// Run executes the full analysis: full-ancestry indexing, checkpoint
// sampling, key-universe pre-scan, then the chronological checkpoint loop.
// Nothing is written anywhere; the caller exports the Result once Run
// returns, which keeps interrupts free of partial-output risk.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	indexer, err := e.indexAncestry(ctx)
	if err != nil {
		return nil, err
	}

	checkpoints, err := sampler.Sample(e.history.FirstParentWalk(), e.interval)
	if err != nil {
		return nil, fmt.Errorf("sample checkpoints: %w", err)
	}

	e.log.Info("selected checkpoints",
		slog.Int("count", len(checkpoints)),
		slog.Duration("interval", e.interval))

	universe, filesPerCheckpoint, total, err := e.scanKeyUniverse(ctx, indexer, checkpoints)
	if err != nil {
		return nil, err
	}

	acc := NewAccumulator(universe)
	cache := NewBlameCache(e.history, indexer, e.log, e.metrics)

	err = e.processCheckpoints(ctx, checkpoints, filesPerCheckpoint, total, cache, acc)
	if err != nil {
		return nil, err
	}

	return &Result{
		Checkpoints:    checkpoints,
		Accumulator:    acc,
		CommitsIndexed: indexer.CommitCount(),
		FilesProcessed: total,
	}, nil
}

// indexAncestry runs the full-ancestry pass. It must visit commits outside
// the mainline too: blame on a mainline file can point at a commit that was
// merged in, and an unindexed commit would make its cohort unresolvable.
func (e *Engine) indexAncestry(ctx context.Context) (*cohort.Indexer, error) {
	tracker := e.startTracker("Listing all commits", 0)
	defer trackerDone(tracker)

	indexer := cohort.NewIndexer(e.layout)

	err := e.history.WalkAncestry(func(c cohort.Commit) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		indexer.Observe(c)
		trackerIncr(tracker)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("index ancestry: %w", err)
	}

	e.log.Info("indexed ancestry",
		slog.Int("commits", indexer.CommitCount()),
		slog.Int("cohorts", len(indexer.Cohorts())),
		slog.Int("authors", len(indexer.Authors())))

	return indexer, nil
}

// scanKeyUniverse fixes the closed key universe up front: cohort and author
// keys come from the ancestry index, extension and filesize keys from one
// pass over every tracked blob in every checkpoint tree. Series never gain
// keys after this point. The per-checkpoint file lists are kept for the
// main loop.
func (e *Engine) scanKeyUniverse(
	ctx context.Context,
	indexer *cohort.Indexer,
	checkpoints []sampler.Checkpoint,
) (map[Key]struct{}, [][]FileEntry, int, error) {
	tracker := e.startTracker("Counting entries to analyze", int64(len(checkpoints)))
	defer trackerDone(tracker)

	universe := make(map[Key]struct{})

	for _, label := range indexer.Cohorts() {
		universe[Key{Kind: KindCohort, Value: label}] = struct{}{}
	}

	for _, name := range indexer.Authors() {
		universe[Key{Kind: KindAuthor, Value: name}] = struct{}{}
	}

	filesPerCheckpoint := make([][]FileEntry, len(checkpoints))
	total := 0

	for i, cp := range checkpoints {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, 0, ctxErr
		}

		files, err := e.history.FilesAt(cp.Hash)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("scan checkpoint %s: %w", cp.Hash, err)
		}

		tracked := files[:0:0]
		for _, f := range files {
			if !e.filter.Trackable(f.Path) {
				continue
			}

			tracked = append(tracked, f)
			universe[Key{Kind: KindExt, Value: path.Ext(f.Path)}] = struct{}{}
			universe[Key{Kind: KindFilesize, Value: FilesizeValue(f.Size)}] = struct{}{}
		}

		filesPerCheckpoint[i] = tracked
		total += len(tracked)

		trackerIncr(tracker)
	}

	return universe, filesPerCheckpoint, total, nil
}

// processCheckpoints runs the chronological main loop: diff against the
// previous checkpoint, refresh histograms for changed files, merge, and
// record the checkpoint sample.
func (e *Engine) processCheckpoints(
	ctx context.Context,
	checkpoints []sampler.Checkpoint,
	filesPerCheckpoint [][]FileEntry,
	total int,
	cache *BlameCache,
	acc *Accumulator,
) error {
	tracker := e.startTracker("Analyzing commit history", int64(total))
	defer trackerDone(tracker)

	for i, cp := range checkpoints {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		changed := make(map[string]struct{})

		if i > 0 {
			paths, err := e.history.ChangedPaths(checkpoints[i-1].Hash, cp.Hash)
			if err != nil {
				return fmt.Errorf("diff checkpoints %s..%s: %w", checkpoints[i-1].Hash, cp.Hash, err)
			}

			for _, p := range paths {
				changed[p] = struct{}{}
			}
		}

		checkpointHist := make(Histogram)

		for _, file := range filesPerCheckpoint[i] {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}

			_, wasChanged := changed[file.Path]
			checkpointHist.Add(cache.Histogram(cp, file, wasChanged))
			trackerIncr(tracker)
		}

		acc.Append(cp.When, checkpointHist)
		e.metrics.CheckpointsProcessed.Inc()

		e.log.Debug("processed checkpoint",
			slog.String("commit", cp.Hash.String()),
			slog.Time("when", cp.When),
			slog.Int("files", len(filesPerCheckpoint[i])),
			slog.Int("changed", len(changed)))
	}

	return nil
}

func (e *Engine) startTracker(message string, total int64) *progress.Tracker {
	if e.progress == nil {
		return nil
	}

	tracker := &progress.Tracker{Message: message, Total: total}
	e.progress.AppendTracker(tracker)

	return tracker
}

func trackerIncr(t *progress.Tracker) {
	if t != nil {
		t.Increment(1)
	}
}

func trackerDone(t *progress.Tracker) {
	if t != nil {
		t.MarkAsDone()
	}
}
