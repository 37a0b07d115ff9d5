// Package report renders a finished analysis as a self-contained HTML page:
// a queue-length time series per zone and a wait-time histogram, plus the
// headline numbers. The page embeds ECharts and needs no server once
// written.
package report

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/waitline/waitline/internal/engine"
)

// RenderHTML writes the report page for a result.
func RenderHTML(res *engine.AnalysisResult, w io.Writer) error {
	page := components.NewPage()
	page.PageTitle = "Queue analysis " + res.ID

	page.AddCharts(
		queueLengthChart(res),
		waitHistogramChart(res),
		summaryChart(res),
	)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render report for %s: %w", res.ID, err)
	}
	return nil
}

// queueLengthChart plots each zone's queue length over time. The per-zone
// series are parallel (snapshotted on the same frames), so the first
// non-empty zone supplies the x axis.
func queueLengthChart(res *engine.AnalysisResult) components.Charter {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Queue length over time",
			Subtitle: fmt.Sprintf("%.1f fps, %d frames, %.1fs", res.FPS, res.FrameCount, res.DurationSec),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "time (s)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "people"}),
	)

	var xAxis []string
	for _, z := range res.Zones {
		if len(z.QueueTimestamps) > 0 {
			xAxis = make([]string, len(z.QueueTimestamps))
			for i, ts := range z.QueueTimestamps {
				xAxis[i] = fmt.Sprintf("%.1f", ts)
			}
			break
		}
	}
	line.SetXAxis(xAxis)

	for _, z := range res.Zones {
		data := make([]opts.LineData, len(z.QueueLengths))
		for i, n := range z.QueueLengths {
			data[i] = opts.LineData{Value: n}
		}
		line.AddSeries(z.Name, data, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(false)}))
	}
	return line
}

// waitHistogramChart buckets every measured dwell into shared one-axis bins
// and draws one bar series per zone.
func waitHistogramChart(res *engine.AnalysisResult) components.Charter {
	maxWait := 0.0
	for _, z := range res.Zones {
		if z.MaxWaitSec != nil && *z.MaxWaitSec > maxWait {
			maxWait = *z.MaxWaitSec
		}
	}

	const bins = 12
	width := math.Ceil(maxWait / bins)
	if width < 1 {
		width = 1
	}

	labels := make([]string, bins)
	for i := 0; i < bins; i++ {
		labels[i] = fmt.Sprintf("%.0f-%.0fs", float64(i)*width, float64(i+1)*width)
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Wait time distribution"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "wait"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "people"}),
	)
	bar.SetXAxis(labels)

	for _, z := range res.Zones {
		counts := make([]int, bins)
		for _, wsec := range z.WaitTimesSec {
			b := int(wsec / width)
			if b >= bins {
				b = bins - 1
			}
			counts[b]++
		}
		data := make([]opts.BarData, bins)
		for i, n := range counts {
			data[i] = opts.BarData{Value: n}
		}
		bar.AddSeries(z.Name, data)
	}
	return bar
}

// summaryChart shows the headline per-zone statistics side by side.
func summaryChart(res *engine.AnalysisResult) components.Charter {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Zone summary"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	names := make([]string, len(res.Zones))
	avgWaits := make([]opts.BarData, len(res.Zones))
	maxQueues := make([]opts.BarData, len(res.Zones))
	measured := make([]opts.BarData, len(res.Zones))
	tracked := make([]opts.BarData, len(res.Zones))
	for i, z := range res.Zones {
		names[i] = z.Name
		avg := 0.0
		if z.AvgWaitSec != nil {
			avg = *z.AvgWaitSec
		}
		avgWaits[i] = opts.BarData{Value: avg}
		maxQueues[i] = opts.BarData{Value: z.MaxQueueLen}
		measured[i] = opts.BarData{Value: z.NumPeopleMeasured}
		tracked[i] = opts.BarData{Value: z.TotalPeopleTracked}
	}

	bar.SetXAxis(names).
		AddSeries("avg wait (s)", avgWaits).
		AddSeries("max queue", maxQueues).
		AddSeries("measured", measured).
		AddSeries("tracked", tracked)
	return bar
}
