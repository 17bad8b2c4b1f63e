package analysis

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"bizinsight/domain/table"
	"bizinsight/internal/errors"
)

// TopCategories caps the bars in the category chart
const TopCategories = 10

// TimestampParser coerces a cell into a point in time
type TimestampParser interface {
	ParseTimestamp(v table.Value) (time.Time, bool)
}

// Trend summarises the least-squares slope of a line series
type Trend string

const (
	TrendUpward   Trend = "upward"
	TrendDownward Trend = "downward"
	TrendFlat     Trend = "flat"
)

// flatTolerance is the fitted change over the whole span, relative to the mean
// magnitude, below which a series counts as flat.
const flatTolerance = 0.01

// Point is one sample of the line chart
type Point struct {
	At    time.Time
	Value float64
}

// LineSeries is the numeric column plotted against the temporal column
type LineSeries struct {
	Title   string
	XColumn string
	YColumn string
	Points  []Point
	// Dropped counts rows whose temporal cell could not be coerced
	Dropped int
	Trend   Trend
}

// Bar is one category with its summed value
type Bar struct {
	Category string
	Value    float64
}

// ValueText formats the bar value for labels
func (b Bar) ValueText() string { return FormatNumber(b.Value) }

// BarSeries holds the top categories ranked by summed value
type BarSeries struct {
	Title          string
	CategoryColumn string
	ValueColumn    string
	Bars           []Bar
}

// SortByTemporal coerces the temporal column, drops rows that fail to coerce and
// returns the remaining rows sorted ascending (stable for equal instants).
func SortByTemporal(t *table.Table, temporal string, parser TimestampParser) (*table.Table, []time.Time, int, error) {
	col, ok := t.Column(temporal)
	if !ok {
		return nil, nil, 0, errors.InvalidInput(fmt.Sprintf("column %q not found", temporal))
	}

	type keyed struct {
		row int
		at  time.Time
	}
	kept := make([]keyed, 0, col.Len())
	for i, v := range col.Values {
		if at, ok := parser.ParseTimestamp(v); ok {
			kept = append(kept, keyed{row: i, at: at})
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].at.Before(kept[j].at) })

	rows := make([]int, len(kept))
	times := make([]time.Time, len(kept))
	for i, k := range kept {
		rows[i], times[i] = k.row, k.at
	}
	return t.Filter(rows), times, col.Len() - len(kept), nil
}

// BuildLineSeries plots numeric against temporal. The returned table is the
// filtered, sorted table later stages work on.
func BuildLineSeries(t *table.Table, temporal, numeric string, parser TimestampParser) (*LineSeries, *table.Table, error) {
	sorted, times, dropped, err := SortByTemporal(t, temporal, parser)
	if err != nil {
		return nil, nil, err
	}
	col, ok := sorted.Column(numeric)
	if !ok {
		return nil, nil, errors.InvalidInput(fmt.Sprintf("column %q not found", numeric))
	}

	points := make([]Point, 0, len(times))
	for i, v := range col.Values {
		if v.IsNumeric() {
			points = append(points, Point{At: times[i], Value: v.Num})
		}
	}

	return &LineSeries{
		Title:   fmt.Sprintf("%s Over Time", numeric),
		XColumn: temporal,
		YColumn: numeric,
		Points:  points,
		Dropped: dropped,
		Trend:   trendOf(points),
	}, sorted, nil
}

// trendOf fits value = a + b*days and classifies the fitted change across the span
func trendOf(points []Point) Trend {
	if len(points) < 2 {
		return TrendFlat
	}
	origin := points[0].At
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	meanAbs := 0.0
	for i, p := range points {
		xs[i] = p.At.Sub(origin).Hours() / 24
		ys[i] = p.Value
		meanAbs += math.Abs(p.Value)
	}
	meanAbs /= float64(len(points))

	span := xs[len(xs)-1] - xs[0]
	if span == 0 {
		return TrendFlat
	}
	_, beta := stat.LinearRegression(xs, ys, nil, false)
	change := beta * span
	if math.IsNaN(change) || math.Abs(change) <= flatTolerance*meanAbs {
		return TrendFlat
	}
	if change > 0 {
		return TrendUpward
	}
	return TrendDownward
}

// BuildBarSeries sums numeric per category, ranks descending and keeps the top
// limit groups. Rows with a missing category are dropped; ties keep first-seen order.
func BuildBarSeries(t *table.Table, category, numeric string, limit int) (*BarSeries, error) {
	catCol, ok := t.Column(category)
	if !ok {
		return nil, errors.InvalidInput(fmt.Sprintf("column %q not found", category))
	}
	numCol, ok := t.Column(numeric)
	if !ok {
		return nil, errors.InvalidInput(fmt.Sprintf("column %q not found", numeric))
	}

	index := make(map[string]int)
	var bars []Bar
	for i, cv := range catCol.Values {
		if cv.IsMissing() {
			continue
		}
		key := cv.String()
		pos, seen := index[key]
		if !seen {
			pos = len(bars)
			index[key] = pos
			bars = append(bars, Bar{Category: key})
		}
		if nv := numCol.Values[i]; nv.IsNumeric() {
			bars[pos].Value += nv.Num
		}
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Value > bars[j].Value })
	if limit > 0 && len(bars) > limit {
		bars = bars[:limit]
	}

	return &BarSeries{
		Title:          fmt.Sprintf("Top %s by %s", category, numeric),
		CategoryColumn: category,
		ValueColumn:    numeric,
		Bars:           bars,
	}, nil
}

// Top returns the highest ranked bar
func (b *BarSeries) Top() (Bar, bool) {
	if b == nil || len(b.Bars) == 0 {
		return Bar{}, false
	}
	return b.Bars[0], true
}
