// Package table holds the in-memory tabular model built from one uploaded file.
package table

import (
	"fmt"
)

// ValueType defines the storage type for a cell
type ValueType string

const (
	ValueTypeString  ValueType = "string"
	ValueTypeNumeric ValueType = "numeric"
	ValueTypeMissing ValueType = "missing"
)

// Value is one typed cell. Raw keeps the text as it appeared in the source.
type Value struct {
	Type ValueType
	Raw  string
	Num  float64
}

// NewStringValue creates a string value; empty input is missing
func NewStringValue(s string) Value {
	if s == "" {
		return NewMissingValue()
	}
	return Value{Type: ValueTypeString, Raw: s}
}

// NewNumericValue creates a numeric value
func NewNumericValue(n float64, raw string) Value {
	return Value{Type: ValueTypeNumeric, Raw: raw, Num: n}
}

// NewMissingValue creates a missing value
func NewMissingValue() Value {
	return Value{Type: ValueTypeMissing}
}

// IsMissing reports whether the cell was empty
func (v Value) IsMissing() bool {
	return v.Type == ValueTypeMissing
}

// IsNumeric reports whether the cell holds a number
func (v Value) IsNumeric() bool {
	return v.Type == ValueTypeNumeric
}

// String returns the display text of the cell
func (v Value) String() string {
	return v.Raw
}

// Column is a named sequence of cells
type Column struct {
	Name   string
	Values []Value
}

// Len returns the number of cells
func (c Column) Len() int {
	return len(c.Values)
}

// Numbers returns the numeric cells in order, skipping missing ones.
// ok is false when a non-missing cell is not numeric.
func (c Column) Numbers() (nums []float64, ok bool) {
	nums = make([]float64, 0, len(c.Values))
	for _, v := range c.Values {
		switch v.Type {
		case ValueTypeMissing:
			continue
		case ValueTypeNumeric:
			nums = append(nums, v.Num)
		default:
			return nil, false
		}
	}
	return nums, true
}

// Table is an ordered collection of equal-length named columns
type Table struct {
	Name    string
	columns []Column
	rows    int
}

// New builds a table, rejecting columns of unequal length
func New(name string, columns []Column) (*Table, error) {
	rows := 0
	for i, col := range columns {
		if i == 0 {
			rows = col.Len()
			continue
		}
		if col.Len() != rows {
			return nil, fmt.Errorf("column %q has %d values, expected %d", col.Name, col.Len(), rows)
		}
	}
	return &Table{Name: name, columns: columns, rows: rows}, nil
}

// Columns returns the columns in source order
func (t *Table) Columns() []Column {
	return t.columns
}

// NumColumns returns the column count
func (t *Table) NumColumns() int {
	return len(t.columns)
}

// NumRows returns the row count
func (t *Table) NumRows() int {
	return t.rows
}

// Headers returns column names in order
func (t *Table) Headers() []string {
	names := make([]string, len(t.columns))
	for i, col := range t.columns {
		names[i] = col.Name
	}
	return names
}

// Column finds a column by exact name
func (t *Table) Column(name string) (Column, bool) {
	for _, col := range t.columns {
		if col.Name == name {
			return col, true
		}
	}
	return Column{}, false
}

// Head returns up to n rows of display text
func (t *Table) Head(n int) [][]string {
	if n > t.rows {
		n = t.rows
	}
	if n < 0 {
		n = 0
	}
	out := make([][]string, n)
	for r := 0; r < n; r++ {
		row := make([]string, len(t.columns))
		for c, col := range t.columns {
			row[c] = col.Values[r].String()
		}
		out[r] = row
	}
	return out
}

// Filter returns a new table holding the rows at the given indices, in that order
func (t *Table) Filter(rows []int) *Table {
	columns := make([]Column, len(t.columns))
	for c, col := range t.columns {
		values := make([]Value, len(rows))
		for i, r := range rows {
			values[i] = col.Values[r]
		}
		columns[c] = Column{Name: col.Name, Values: values}
	}
	return &Table{Name: t.Name, columns: columns, rows: len(rows)}
}
