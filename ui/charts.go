package ui

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"time"
	"unicode/utf8"

	"github.com/wcharczuk/go-chart/v2"

	"bizinsight/internal/analysis"
)

const (
	chartWidth  = 720
	chartHeight = 300
	labelRunes  = 12
)

var chartPadding = chart.Box{Top: 20, Left: 16, Right: 16, Bottom: 16}

// svgLine renders a line series as inline SVG
func svgLine(s *analysis.LineSeries) template.HTML {
	if s == nil || len(s.Points) == 0 {
		return template.HTML(`<p class="muted">No plottable rows.</p>`)
	}

	xs := make([]time.Time, len(s.Points))
	ys := make([]float64, len(s.Points))
	minY, maxY := s.Points[0].Value, s.Points[0].Value
	for i, p := range s.Points {
		xs[i], ys[i] = p.At, p.Value
		minY, maxY = min(minY, p.Value), max(maxY, p.Value)
	}
	// A single sample needs a second x value for a non-zero range
	if len(xs) == 1 || xs[0].Equal(xs[len(xs)-1]) {
		xs = append(xs, xs[len(xs)-1].Add(time.Second))
		ys = append(ys, ys[len(ys)-1])
	}

	yAxis := chart.YAxis{Name: html.EscapeString(s.YColumn), ValueFormatter: numberFormatter}
	if maxY <= minY {
		yAxis.Range = &chart.ContinuousRange{Min: minY - 1, Max: maxY + 1}
	}

	graph := chart.Chart{
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chartPadding},
		XAxis:      chart.XAxis{Name: html.EscapeString(s.XColumn), ValueFormatter: chart.TimeDateValueFormatter},
		YAxis:      yAxis,
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    html.EscapeString(s.YColumn),
				XValues: xs,
				YValues: ys,
				Style:   chart.Style{StrokeColor: chart.ColorBlue, StrokeWidth: 2, DotColor: chart.ColorBlue, DotWidth: 3},
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.SVG, &buf); err != nil {
		return chartUnavailable(err)
	}
	return template.HTML(buf.String())
}

// svgBars renders ranked categories as vertical bars labelled along the horizontal axis
func svgBars(s *analysis.BarSeries) template.HTML {
	if s == nil || len(s.Bars) == 0 {
		return template.HTML(`<p class="muted">No categories to rank.</p>`)
	}

	values := make([]chart.Value, len(s.Bars))
	lo, hi := 0.0, 0.0
	for i, bar := range s.Bars {
		values[i] = chart.Value{Value: bar.Value, Label: html.EscapeString(truncateLabel(bar.Category))}
		lo, hi = min(lo, bar.Value), max(hi, bar.Value)
	}
	if lo == hi {
		hi = 1
	}

	barWidth := min(60, (chartWidth-80)/(len(values)*3/2))
	graph := chart.BarChart{
		Width:        chartWidth,
		Height:       chartHeight,
		Background:   chart.Style{Padding: chartPadding},
		BarWidth:     barWidth,
		BarSpacing:   barWidth / 2,
		UseBaseValue: true,
		BaseValue:    0,
		YAxis: chart.YAxis{
			ValueFormatter: numberFormatter,
			Range:          &chart.ContinuousRange{Min: lo, Max: hi},
		},
		Bars: values,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.SVG, &buf); err != nil {
		return chartUnavailable(err)
	}
	return template.HTML(buf.String())
}

func numberFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return analysis.FormatNumber(f)
	}
	return fmt.Sprint(v)
}

func chartUnavailable(err error) template.HTML {
	return template.HTML(`<p class="muted">Chart unavailable: ` + template.HTMLEscapeString(err.Error()) + `</p>`)
}

func truncateLabel(s string) string {
	if utf8.RuneCountInString(s) <= labelRunes {
		return s
	}
	return string([]rune(s)[:labelRunes-1]) + "…"
}
