package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/theseus/internal/export"
	"github.com/Sumatoshi-tech/theseus/internal/plot"
)

// ErrNoDocuments is returned when the input directory holds none of the
// exported documents.
var ErrNoDocuments = errors.New("no analysis documents found")

// PlotCommand holds the flags for the plot command.
type PlotCommand struct {
	output string
}

// NewPlotCommand creates and configures the plot command.
func NewPlotCommand() *cobra.Command {
	cmd := &PlotCommand{}

	cobraCmd := &cobra.Command{
		Use:   "plot <dir>",
		Short: "Render exported series as HTML charts",
		Long: "Plot reads the JSON documents produced by analyze from the given\n" +
			"directory and renders them into a single self-contained HTML page.",
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return cmd.Run(args[0])
		},
	}

	cobraCmd.Flags().StringVarP(&cmd.output, "output", "o", "theseus.html", "output HTML file")

	return cobraCmd
}

// Run executes the plot command.
func (c *PlotCommand) Run(dir string) error {
	charts, err := loadCharts(dir)
	if err != nil {
		return err
	}

	if len(charts) == 0 {
		return fmt.Errorf("%w in %s", ErrNoDocuments, dir)
	}

	f, err := os.Create(c.output)
	if err != nil {
		return fmt.Errorf("create %s: %w", c.output, err)
	}

	renderErr := plot.WritePage(f, charts...)
	if closeErr := f.Close(); renderErr == nil {
		renderErr = closeErr
	}

	if renderErr != nil {
		return fmt.Errorf("render %s: %w", c.output, renderErr)
	}

	return nil
}

// loadCharts builds one chart per document present in dir. Absent
// documents are skipped so partial exports still plot.
func loadCharts(dir string) ([]components.Charter, error) {
	series := []struct {
		file  string
		title string
	}{
		{export.CohortsFile, "Lines of code by cohort"},
		{export.ExtsFile, "Lines of code by file extension"},
		{export.AuthorsFile, "Lines of code by author"},
		{export.FilesizesFile, "Lines of code by file size"},
	}

	var charts []components.Charter

	for _, s := range series {
		path, ok := findDoc(dir, s.file)
		if !ok {
			continue
		}

		doc, err := export.LoadSeriesDoc(path)
		if err != nil {
			return nil, err
		}

		charts = append(charts, plot.StackedSeries(doc, s.title))
	}

	if path, ok := findDoc(dir, export.SurvivalFile); ok {
		doc, err := export.LoadSurvivalDoc(path)
		if err != nil {
			return nil, err
		}

		charts = append(charts, plot.Survival(doc, "Surviving lines per commit"))
	}

	return charts, nil
}

// findDoc locates a document by name, preferring the plain file over its
// lz4-compressed variant.
func findDoc(dir, name string) (string, bool) {
	for _, candidate := range []string{name, name + ".lz4"} {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}

	return "", false
}
