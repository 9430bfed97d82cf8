// Package report renders moderation activity for the admin surfaces.
package report

import (
	"bytes"
	"fmt"

	"github.com/alumnet/modguard/internal/moderation/types"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// DaysToShow is the number of days covered by the activity chart.
const DaysToShow = 14

// Chart dimensions and styling constants control the visual appearance
// of the activity chart.
const (
	// titleFontSize sets the size of the chart title text.
	titleFontSize = 12.0
	// xAxisFontSize sets the size of x-axis labels.
	xAxisFontSize = 10.0
	// yAxisFontSize sets the size of y-axis labels.
	yAxisFontSize = 12.0
	// xAxisRotation angles x-axis labels to prevent overlap.
	xAxisRotation = 45.0
	// gridLineWidth controls the thickness of grid lines.
	gridLineWidth = 1.0
	// seriesLineWidth controls the thickness of data lines.
	seriesLineWidth = 3.0
	// seriesDotWidth controls the size of data points.
	seriesDotWidth = 4.0
	// paddingTop adds space above the chart.
	paddingTop = 30
	// paddingBottom adds space below the chart.
	paddingBottom = 30
	// paddingLeft adds space to the left of the chart.
	paddingLeft = 20
	// paddingRight adds space to the right of the chart.
	paddingRight = 20
)

// ChartBuilder creates the daily alert and warning chart.
type ChartBuilder struct {
	activity []types.DailyActivity
}

// NewChartBuilder creates a chart builder over per-day activity, oldest day first.
func NewChartBuilder(activity []types.DailyActivity) *ChartBuilder {
	return &ChartBuilder{
		activity: activity,
	}
}

// Build renders the activity chart as a PNG.
func (b *ChartBuilder) Build() (*bytes.Buffer, error) {
	xValues, alertSeries, warningSeries, peak := b.prepareDataSeries()

	graph := &chart.Chart{
		Title:      fmt.Sprintf("Moderation Activity (%dd)", len(b.activity)),
		TitleStyle: b.getTitleStyle(),
		Background: b.getBackgroundStyle(),
		XAxis:      b.getXAxis(b.prepareGridLinesAndTicks()),
		YAxis:      b.getYAxis(peak),
		Series: []chart.Series{
			b.createSeries("Alerts", xValues, alertSeries, chart.ColorRed),
			b.createSeries("Warnings", xValues, warningSeries, chart.ColorOrange),
		},
	}

	graph.Elements = []chart.Renderable{
		chart.Legend(graph),
	}

	buf := new(bytes.Buffer)
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, fmt.Errorf("failed to render activity chart: %w", err)
	}

	return buf, nil
}

// prepareDataSeries extracts the plotted values and the largest count.
func (b *ChartBuilder) prepareDataSeries() ([]float64, []float64, []float64, float64) {
	// A single point cannot form a line, so pad to two
	points := max(len(b.activity), 2)

	xValues := make([]float64, points)
	alertSeries := make([]float64, points)
	warningSeries := make([]float64, points)

	var peak float64
	for i := range points {
		xValues[i] = float64(i)
		if i >= len(b.activity) {
			continue
		}

		alertSeries[i] = float64(b.activity[i].Alerts)
		warningSeries[i] = float64(b.activity[i].Warnings)
		peak = max(peak, alertSeries[i], warningSeries[i])
	}

	return xValues, alertSeries, warningSeries, peak
}

// prepareGridLinesAndTicks creates grid lines and day labels.
func (b *ChartBuilder) prepareGridLinesAndTicks() ([]chart.GridLine, []chart.Tick) {
	gridLines := make([]chart.GridLine, len(b.activity))
	ticks := make([]chart.Tick, len(b.activity))

	for i, day := range b.activity {
		gridLines[i] = chart.GridLine{Value: float64(i)}
		ticks[i] = chart.Tick{
			Value: float64(i),
			Label: day.Day.Format("Jan 02"),
		}
	}

	return gridLines, ticks
}

// getTitleStyle returns styling for the chart title.
func (b *ChartBuilder) getTitleStyle() chart.Style {
	return chart.Style{
		FontSize: titleFontSize,
	}
}

// getBackgroundStyle returns styling for the chart background,
// including padding around all edges.
func (b *ChartBuilder) getBackgroundStyle() chart.Style {
	return chart.Style{
		Padding: chart.Box{
			Top:    paddingTop,
			Left:   paddingLeft,
			Right:  paddingRight,
			Bottom: paddingBottom,
		},
	}
}

// getXAxis returns configuration for the x-axis.
func (b *ChartBuilder) getXAxis(gridLines []chart.GridLine, ticks []chart.Tick) chart.XAxis {
	return chart.XAxis{
		Style: chart.Style{
			FontSize:            xAxisFontSize,
			TextRotationDegrees: xAxisRotation,
		},
		GridMajorStyle: chart.Style{
			StrokeColor: chart.ColorAlternateGray,
			StrokeWidth: gridLineWidth,
		},
		GridLines:    gridLines,
		Ticks:        ticks,
		TickPosition: chart.TickPositionUnderTick,
	}
}

// getYAxis returns configuration for the y-axis. The range is fixed from zero so
// days without activity still render.
func (b *ChartBuilder) getYAxis(peak float64) chart.YAxis {
	return chart.YAxis{
		Style: chart.Style{
			FontSize:            yAxisFontSize,
			TextRotationDegrees: 0.0,
		},
		GridMajorStyle: chart.Style{
			StrokeColor: chart.ColorAlternateGray,
			StrokeWidth: gridLineWidth,
		},
		Range: &chart.ContinuousRange{
			Min: 0,
			Max: max(peak, 1) + 1,
		},
		ValueFormatter: func(v any) string {
			if f, ok := v.(float64); ok {
				return fmt.Sprintf("%.0f", f)
			}
			return ""
		},
	}
}

// createSeries builds a line series for the chart.
func (b *ChartBuilder) createSeries(name string, xValues, yValues []float64, color drawing.Color) chart.Series {
	return chart.ContinuousSeries{
		Name:    name,
		XValues: xValues,
		YValues: yValues,
		Style: chart.Style{
			StrokeColor: color,
			StrokeWidth: seriesLineWidth,
			DotColor:    color,
			DotWidth:    seriesDotWidth,
		},
	}
}
