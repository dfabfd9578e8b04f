// Package plot renders exported analysis documents as self-contained HTML
// charts: a stacked area chart per dimension and a survival line chart.
package plot

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/theseus/internal/export"
)

const (
	chartWidth  = "1200px"
	chartHeight = "600px"

	areaOpacity = 0.8
	lineWidth   = 2

	// maxSurvivalSeries caps the survival chart; large repos have tens of
	// thousands of source commits and the chart is unreadable past this.
	maxSurvivalSeries = 50
)

// StackedSeries builds one dimension's stacked area chart from its
// exported document.
func StackedSeries(doc export.SeriesDoc, title string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetXAxis(doc.Ts)

	for i, label := range doc.Labels {
		data := make([]opts.LineData, len(doc.Y[i]))
		for j, v := range doc.Y[i] {
			data[j] = opts.LineData{Value: v}
		}

		line.AddSeries(fmt.Sprint(label), data,
			charts.WithLineChartOpts(opts.LineChart{Stack: "total"}),
			charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(areaOpacity)}),
		)
	}

	return line
}

// Survival builds the per-commit survival line chart. Commits are ordered
// by peak surviving lines and capped, so the chart shows the commits that
// contributed the most code.
func Survival(doc export.SurvivalDoc, title string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "time"}),
	)

	for _, sha := range topCommits(doc, maxSurvivalSeries) {
		pairs := doc[sha]

		data := make([]opts.LineData, len(pairs))
		for i, p := range pairs {
			// [x, y] pairs for the time axis, timestamps in milliseconds.
			data[i] = opts.LineData{Value: []int64{p[0] * 1000, p[1]}}
		}

		line.AddSeries(shortSHA(sha), data,
			charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidth}),
		)
	}

	return line
}

// WritePage renders the given charts into one HTML page.
func WritePage(w io.Writer, chartList ...components.Charter) error {
	page := components.NewPage()
	page.SetLayout(components.PageCenterLayout)
	page.AddCharts(chartList...)

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render page: %w", err)
	}

	return nil
}

// topCommits returns up to limit commit hashes ordered by peak surviving
// lines, descending, ties broken by hash for determinism.
func topCommits(doc export.SurvivalDoc, limit int) []string {
	shas := make([]string, 0, len(doc))
	for sha := range doc {
		shas = append(shas, sha)
	}

	peak := func(sha string) int64 {
		var best int64
		for _, p := range doc[sha] {
			if p[1] > best {
				best = p[1]
			}
		}

		return best
	}

	sort.Slice(shas, func(i, j int) bool {
		pi, pj := peak(shas[i]), peak(shas[j])
		if pi != pj {
			return pi > pj
		}

		return shas[i] < shas[j]
	})

	if len(shas) > limit {
		shas = shas[:limit]
	}

	return shas
}

func shortSHA(sha string) string {
	const short = 8
	if len(sha) > short {
		return sha[:short]
	}

	return sha
}
