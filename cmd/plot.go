package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/inference-sim/valueiter/mdp/trace"
)

// WriteConvergencePlot renders delta per sweep, and the number of states whose
// greedy action changed, as an HTML line chart at path.
func WriteConvergencePlot(path, title string, st *trace.SweepTrace) error {
	if st == nil || len(st.Sweeps) == 0 {
		return fmt.Errorf("no sweep records to plot")
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: "sup-norm change per sweep (run " + st.RunID + ")",
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: "shine",
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "sweep"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "delta", Type: deltaAxisType(st)}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)

	sweeps := make([]string, 0, len(st.Sweeps))
	deltas := make([]opts.LineData, 0, len(st.Sweeps))
	changes := make([]opts.LineData, 0, len(st.Sweeps))
	for _, r := range st.Sweeps {
		sweeps = append(sweeps, strconv.Itoa(r.Sweep))
		deltas = append(deltas, opts.LineData{Value: r.Delta})
		changes = append(changes, opts.LineData{Value: r.PolicyChanges})
	}
	line.SetXAxis(sweeps).
		AddSeries("delta", deltas).
		AddSeries("policy changes", changes)

	page := components.NewPage()
	page.AddCharts(line)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}
	return nil
}

// deltaAxisType picks a log axis unless some sweep hit an exact fixed point,
// which a log scale cannot draw.
func deltaAxisType(st *trace.SweepTrace) string {
	for _, r := range st.Sweeps {
		if r.Delta <= 0 {
			return "value"
		}
	}
	return "log"
}
