// Package commands implements CLI command handlers for theseus.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/theseus/internal/config"
	"github.com/Sumatoshi-tech/theseus/internal/export"
	"github.com/Sumatoshi-tech/theseus/internal/filter"
	"github.com/Sumatoshi-tech/theseus/internal/observability"
	"github.com/Sumatoshi-tech/theseus/internal/survival"
	"github.com/Sumatoshi-tech/theseus/pkg/gitlib"
)

// ErrRepositoryOpen indicates the repository could not be opened or the
// requested ref could not be resolved.
var ErrRepositoryOpen = errors.New("failed to open repository")

const progressUpdateFrequency = 100 * time.Millisecond

// AnalyzeCommand holds the flags for the analyze command.
type AnalyzeCommand struct {
	configFile string
	ref        string
	cohortFmt  string
	interval   time.Duration
	outDir     string
	allTypes   bool
	only       []string
	ignore     []string
	compress   bool
	metricsOut string
	logLevel   string
	logFormat  string
	quiet      bool

	// out and errOut default to the process streams; tests redirect them.
	out    io.Writer
	errOut io.Writer
}

// NewAnalyzeCommand creates and configures the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	cmd := &AnalyzeCommand{out: os.Stdout, errOut: os.Stderr}

	return cmd.build()
}

func (c *AnalyzeCommand) build() *cobra.Command {
	cobraCmd := &cobra.Command{
		Use:   "analyze <repository>",
		Short: "Analyze a repository and export JSON time series",
		Long: "Analyze walks a repository's history, attributes every live line to its\n" +
			"introducing commit, and exports cohort, extension, author, filesize and\n" +
			"survival time series as JSON documents.",
		Args: cobra.ExactArgs(1),
		RunE: c.Run,
	}

	flags := cobraCmd.Flags()
	flags.StringVar(&c.configFile, "config", "", "config file (default: ./theseus.yaml)")
	flags.StringVarP(&c.ref, "ref", "b", "", "branch, tag or revision to track")
	flags.StringVar(&c.cohortFmt, "cohort-format", "", `cohort layout, e.g. "2006" for yearly cohorts`)
	flags.DurationVar(&c.interval, "interval", -1, "minimum time between checkpoints")
	flags.StringVarP(&c.outDir, "outdir", "o", "", "output directory for the JSON documents")
	flags.BoolVar(&c.allTypes, "all-filetypes", false, "track every file, not just recognized source code")
	flags.StringArrayVar(&c.only, "only", nil, "glob patterns paths must match (repeatable, all must match)")
	flags.StringArrayVar(&c.ignore, "ignore", nil, "glob patterns that exclude paths (repeatable)")
	flags.BoolVar(&c.compress, "compress", false, "write lz4-compressed documents")
	flags.StringVar(&c.metricsOut, "metrics-out", "", "write a Prometheus text metrics dump to this path")
	flags.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&c.logFormat, "log-format", "", "log format: text or json")
	flags.BoolVarP(&c.quiet, "quiet", "q", false, "suppress progress output")

	return cobraCmd
}

// Run executes the analyze command.
func (c *AnalyzeCommand) Run(cobraCmd *cobra.Command, args []string) error {
	cfg, err := c.buildConfig(cobraCmd, args[0])
	if err != nil {
		return err
	}

	log := observability.NewLogger(c.errOut, cfg.Logging.Level, cfg.Logging.Format)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open the repository and resolve the ref up front: a bad path or ref
	// must fail before any traversal starts.
	repo, err := gitlib.OpenRepository(cfg.Repository)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRepositoryOpen, cfg.Repository, err)
	}
	defer repo.Free()

	tip, err := repo.ResolveRef(cfg.Ref)
	if err != nil {
		return fmt.Errorf("%w: resolve %s: %w", ErrRepositoryOpen, cfg.Ref, err)
	}

	log.Info("starting analysis",
		"repository", cfg.Repository,
		"ref", cfg.Ref,
		"tip", tip.String())

	pw := c.progressWriter()

	engine := survival.New(survival.Options{
		History:      survival.NewGitHistory(repo, tip),
		Filter:       filter.New(filter.Options{AllFiletypes: cfg.AllFiletypes, Only: cfg.Only, Ignore: cfg.Ignore}),
		CohortLayout: cfg.CohortLayout,
		Interval:     cfg.Interval,
		Logger:       log,
		Metrics:      metrics,
		Progress:     pw,
	})

	start := time.Now()

	result, err := engine.Run(ctx)

	stopProgress(pw)

	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	writer := export.NewWriter(export.Options{
		OutDir:   cfg.OutputDir,
		Compress: cfg.Compress,
		Logger:   log,
	})
	if err := writer.Write(result); err != nil {
		return fmt.Errorf("export results: %w", err)
	}

	if cfg.MetricsOut != "" {
		if err := dumpMetrics(metrics, cfg.MetricsOut); err != nil {
			return err
		}
	}

	c.printSummary(result, cfg.OutputDir, time.Since(start))

	return nil
}

// buildConfig merges the config file, environment and flags; flags win
// when set.
func (c *AnalyzeCommand) buildConfig(cobraCmd *cobra.Command, repository string) (*config.Config, error) {
	cfg, err := config.Load(c.configFile)
	if err != nil {
		return nil, err
	}

	cfg.Repository = repository

	flags := cobraCmd.Flags()
	if flags.Changed("ref") {
		cfg.Ref = c.ref
	}

	if flags.Changed("cohort-format") {
		cfg.CohortLayout = c.cohortFmt
	}

	if flags.Changed("interval") {
		cfg.Interval = c.interval
	}

	if flags.Changed("outdir") {
		cfg.OutputDir = c.outDir
	}

	if flags.Changed("all-filetypes") {
		cfg.AllFiletypes = c.allTypes
	}

	if flags.Changed("only") {
		cfg.Only = c.only
	}

	if flags.Changed("ignore") {
		cfg.Ignore = c.ignore
	}

	if flags.Changed("compress") {
		cfg.Compress = c.compress
	}

	if flags.Changed("metrics-out") {
		cfg.MetricsOut = c.metricsOut
	}

	if flags.Changed("log-level") {
		cfg.Logging.Level = c.logLevel
	}

	if flags.Changed("log-format") {
		cfg.Logging.Format = c.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *AnalyzeCommand) progressWriter() progress.Writer {
	if c.quiet {
		return nil
	}

	pw := progress.NewWriter()
	pw.SetOutputWriter(c.errOut)
	pw.SetUpdateFrequency(progressUpdateFrequency)
	pw.Style().Visibility.ETA = true

	go pw.Render()

	return pw
}

func stopProgress(pw progress.Writer) {
	if pw == nil {
		return
	}

	// Let the final tracker states flush before stopping the renderer.
	for pw.IsRenderInProgress() && pw.LengthActive() > 0 {
		time.Sleep(progressUpdateFrequency)
	}

	pw.Stop()
}

func dumpMetrics(metrics *observability.Metrics, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create metrics file %s: %w", path, err)
	}

	writeErr := metrics.WriteText(f)
	if closeErr := f.Close(); writeErr == nil {
		writeErr = closeErr
	}

	if writeErr != nil {
		return fmt.Errorf("write metrics to %s: %w", path, writeErr)
	}

	return nil
}

func (c *AnalyzeCommand) printSummary(result *survival.Result, outDir string, elapsed time.Duration) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)

	bold.Fprintln(c.out, "Analysis complete")
	fmt.Fprintf(c.out, "  commits indexed: %s\n", humanize.Comma(int64(result.CommitsIndexed)))
	fmt.Fprintf(c.out, "  checkpoints:     %s\n", humanize.Comma(int64(len(result.Checkpoints))))
	fmt.Fprintf(c.out, "  files blamed:    %s\n", humanize.Comma(int64(result.FilesProcessed)))
	fmt.Fprintf(c.out, "  elapsed:         %s\n", elapsed.Round(time.Millisecond))
	green.Fprintf(c.out, "  results in %s\n", outDir)
}
