package reports

import (
	"fmt"
	"html"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// RenderBarChart writes a standalone HTML page with series as a bar chart.
// An empty series writes the no-data placeholder instead.
func RenderBarChart(w io.Writer, series Series) error {
	if series.Empty() {
		_, err := fmt.Fprintf(w, "<p class=\"no-data\">%s</p>", html.EscapeString(NoDataPlaceholder))
		return err
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: series.Title}),
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: series.Title,
			Width:     "100%",
			Height:    "360px",
		}),
	)

	items := make([]opts.BarData, 0, len(series.Values))
	for _, v := range series.Values {
		items = append(items, opts.BarData{Value: v})
	}
	bar.SetXAxis(series.Labels).AddSeries("Issues", items)

	return bar.Render(w)
}
