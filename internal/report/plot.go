// Package report renders noise sweep results as charts.
package report

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ironsheep/edge-lines/internal/pipeline"
)

// ErrNoPoints is returned when there is nothing to plot.
var ErrNoPoints = errors.New("no sweep points")

// Metric selects the value plotted on the y axis.
type Metric string

const (
	MetricSegments   Metric = "segments"
	MetricEdgePixels Metric = "edge_pixels"
	MetricMeanLength Metric = "mean_length"
)

func (m Metric) value(p pipeline.SweepPoint) (float64, error) {
	switch m {
	case MetricSegments:
		return float64(p.Segments), nil
	case MetricEdgePixels:
		return float64(p.EdgePixels), nil
	case MetricMeanLength:
		return p.MeanLength, nil
	}
	return 0, fmt.Errorf("unknown metric %q", m)
}

func (m Metric) label() string {
	switch m {
	case MetricEdgePixels:
		return "Edge pixels"
	case MetricMeanLength:
		return "Mean segment length (px)"
	}
	return "Segments"
}

// SweepPlot builds a line chart of metric against noise standard deviation,
// one line per detector in order of first appearance.
func SweepPlot(points []pipeline.SweepPoint, metric Metric) (*plot.Plot, error) {
	order, series, err := sweepSeries(points, metric)
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s vs. noise", metric.label())
	p.X.Label.Text = "Noise standard deviation"
	p.Y.Label.Text = metric.label()
	p.Add(plotter.NewGrid())

	colors := palette(len(order))
	for i, name := range order {
		line, marks, err := plotter.NewLinePoints(series[name])
		if err != nil {
			return nil, fmt.Errorf("detector %s: %w", name, err)
		}
		line.Color = colors[i]
		line.Width = vg.Points(1.5)
		marks.Color = colors[i]
		p.Add(line, marks)
		p.Legend.Add(name, line, marks)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// sweepSeries groups points by detector, keeping the order in which detectors
// first appear.
func sweepSeries(points []pipeline.SweepPoint, metric Metric) ([]string, map[string]plotter.XYs, error) {
	if len(points) == 0 {
		return nil, nil, ErrNoPoints
	}
	var order []string
	series := make(map[string]plotter.XYs)
	for _, pt := range points {
		y, err := metric.value(pt)
		if err != nil {
			return nil, nil, err
		}
		if _, ok := series[pt.Detector]; !ok {
			order = append(order, pt.Detector)
		}
		series[pt.Detector] = append(series[pt.Detector], plotter.XY{X: pt.StdDev, Y: y})
	}
	return order, series, nil
}

// PlotSweep writes the chart to path. The format follows the file extension
// (.png, .svg, .pdf, ...).
func PlotSweep(points []pipeline.SweepPoint, metric Metric, path string) error {
	p, err := SweepPlot(points, metric)
	if err != nil {
		return err
	}
	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// palette spreads n hues evenly around the HSV wheel.
func palette(n int) []color.Color {
	colors := make([]color.Color, n)
	for i := range colors {
		colors[i] = colorful.Hsv(360*float64(i)/float64(n), 0.7, 0.8).Clamped()
	}
	return colors
}
