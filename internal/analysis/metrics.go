package analysis

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/montanaflynn/stats"

	"bizinsight/domain/table"
	"bizinsight/internal/errors"
)

// Metric holds the aggregates shown on a metric card. Missing cells are skipped;
// Count is the number of values that contributed.
type Metric struct {
	Column  string
	Total   float64
	Average float64
	Max     float64
	Count   int
}

// FormatNumber renders two decimals with thousands separators, e.g. 1,234.50.
// The integer part is grouped as a big.Int so magnitudes past int64 stay exact.
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}

	fixed := strconv.FormatFloat(v, 'f', 2, 64)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")
	n, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return sign + fixed
	}
	return sign + humanize.BigComma(n) + "." + frac
}

func (m Metric) TotalText() string   { return FormatNumber(m.Total) }
func (m Metric) AverageText() string { return FormatNumber(m.Average) }
func (m Metric) MaxText() string     { return FormatNumber(m.Max) }

// ComputeMetric aggregates one numeric column. A column without any value has a
// zero total and NaN average and max.
func ComputeMetric(col table.Column) (Metric, error) {
	nums, ok := col.Numbers()
	if !ok {
		return Metric{}, errors.ValidationError("column " + col.Name + " is not numeric")
	}
	m := Metric{Column: col.Name, Count: len(nums)}
	if len(nums) == 0 {
		m.Average, m.Max = math.NaN(), math.NaN()
		return m, nil
	}

	var err error
	if m.Total, err = stats.Sum(nums); err != nil {
		return Metric{}, errors.Wrapf(err, "sum %s", col.Name)
	}
	if m.Average, err = stats.Mean(nums); err != nil {
		return Metric{}, errors.Wrapf(err, "mean %s", col.Name)
	}
	if m.Max, err = stats.Max(nums); err != nil {
		return Metric{}, errors.Wrapf(err, "max %s", col.Name)
	}
	return m, nil
}

// ComputeMetrics aggregates every numeric column in table order
func ComputeMetrics(t *table.Table, classes Classification) ([]Metric, error) {
	columns := t.Columns()
	var metrics []Metric
	for _, cc := range classes.OfKind(KindNumeric) {
		m, err := ComputeMetric(columns[cc.Index])
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}
	return metrics, nil
}
