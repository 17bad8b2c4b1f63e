package analysis

import (
	"strings"

	"bizinsight/domain/table"
)

// ColumnKind is the role a column plays in metrics and charts
type ColumnKind string

const (
	KindNumeric     ColumnKind = "numeric"
	KindCategorical ColumnKind = "categorical"
	KindTemporal    ColumnKind = "temporal"
)

// ColumnClass records the kind assigned to one column
type ColumnClass struct {
	Name  string
	Index int
	Kind  ColumnKind
}

// Classification lists every column of a table in source order with its kind
type Classification []ColumnClass

// temporalMarkers are matched case-insensitively against column names
var temporalMarkers = []string{"date", "time"}

// IsTemporalName reports whether a column name looks like a date or time
func IsTemporalName(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range temporalMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Classify assigns each column exactly one kind: numeric when every non-missing
// cell is a number, else temporal when the name matches, else categorical.
func Classify(t *table.Table) Classification {
	out := make(Classification, 0, t.NumColumns())
	for i, col := range t.Columns() {
		out = append(out, ColumnClass{Name: col.Name, Index: i, Kind: kindOf(col)})
	}
	return out
}

func kindOf(col table.Column) ColumnKind {
	nums, ok := col.Numbers()
	if ok && len(nums) > 0 {
		return KindNumeric
	}
	if IsTemporalName(col.Name) {
		return KindTemporal
	}
	return KindCategorical
}

// OfKind returns the columns of the given kind in source order
func (c Classification) OfKind(kind ColumnKind) []ColumnClass {
	var out []ColumnClass
	for _, cc := range c {
		if cc.Kind == kind {
			out = append(out, cc)
		}
	}
	return out
}

// HasNumeric reports whether at least one numeric column exists
func (c Classification) HasNumeric() bool {
	_, ok := SelectNumeric(c)
	return ok
}

// SelectNumeric picks the first numeric column
func SelectNumeric(c Classification) (ColumnClass, bool) {
	return firstOfKind(c, KindNumeric)
}

// SelectCategorical picks the first categorical column
func SelectCategorical(c Classification) (ColumnClass, bool) {
	return firstOfKind(c, KindCategorical)
}

// SelectTemporal picks the first column whose name contains "date" or "time",
// whatever kind it was classified as.
func SelectTemporal(c Classification) (ColumnClass, bool) {
	for _, cc := range c {
		if IsTemporalName(cc.Name) {
			return cc, true
		}
	}
	return ColumnClass{}, false
}

func firstOfKind(c Classification, kind ColumnKind) (ColumnClass, bool) {
	for _, cc := range c {
		if cc.Kind == kind {
			return cc, true
		}
	}
	return ColumnClass{}, false
}
