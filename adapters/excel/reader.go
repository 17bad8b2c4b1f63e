package excel

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"bizinsight/adapters/datareadiness/coercer"
	"bizinsight/domain/table"
	"bizinsight/internal"
	"bizinsight/internal/errors"
)

// DataReader turns an uploaded CSV, TSV or XLSX stream into a table
type DataReader struct {
	config  ReaderConfig
	coercer *coercer.TypeCoercer
	log     *internal.Logger
}

// NewDataReader creates a reader; a nil logger falls back to the default logger
func NewDataReader(config ReaderConfig, log *internal.Logger) *DataReader {
	if log == nil {
		log = internal.DefaultLogger
	}
	return &DataReader{
		config:  config,
		coercer: coercer.NewTypeCoercer(config.CoercionConfig),
		log:     log,
	}
}

// Read parses r according to the extension of filename
func (r *DataReader) Read(ctx context.Context, src io.Reader, filename string) (*table.Table, error) {
	fileType, ext, ok := DetectFileType(filename)
	if !ok {
		return nil, errors.UnsupportedFormat(ext)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	var (
		rows [][]string
		err  error
	)
	switch fileType {
	case FileTypeCSV:
		rows, err = r.readDelimited(src, ',')
	case FileTypeTSV:
		rows, err = r.readDelimited(src, '\t')
	case FileTypeXLSX:
		rows, err = r.readWorkbook(src)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", filename)
	}

	tbl, err := r.buildTable(filename, rows)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", filename)
	}

	r.log.Debug("[DataReader] %s parsed as %s in %.2fms (%d columns, %d rows)",
		filename, fileType, float64(time.Since(start).Nanoseconds())/1e6, tbl.NumColumns(), tbl.NumRows())
	return tbl, nil
}

// readDelimited reads comma or tab separated text. Rows may be shorter than the
// header but never longer.
func (r *DataReader) readDelimited(src io.Reader, delim rune) ([][]string, error) {
	reader := csv.NewReader(src)
	reader.Comma = delim
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.ParseError("malformed delimited data", err)
	}
	if len(rows) == 0 {
		return nil, errors.ParseError("no columns to parse from file", nil)
	}

	rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	width := len(rows[0])
	for i, row := range rows[1:] {
		if len(row) > width {
			return nil, errors.ParseError(fmt.Sprintf("line %d: expected %d fields, saw %d", i+2, width, len(row)), nil)
		}
	}
	return rows, nil
}

// readWorkbook reads the configured sheet (default: first) of an XLSX workbook.
// Cells are read raw so number formats never leak into the values; date-styled
// serials are rendered as ISO timestamps instead.
func (r *DataReader) readWorkbook(src io.Reader) ([][]string, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, errors.ParseError("failed to read workbook bytes", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.ParseError("failed to open Excel file", err)
	}
	defer f.Close()

	sheet := r.config.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.ParseError("workbook has no sheets", nil)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.ParseError(fmt.Sprintf("failed to read sheet %q", sheet), err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.ParseError("no columns to parse from file", nil)
	}

	dates := newDateStyles(f)
	for i := 1; i < len(rows); i++ {
		for j, raw := range rows[i] {
			if text, ok := dates.render(sheet, j+1, i+1, raw); ok {
				rows[i][j] = text
			}
		}
	}

	// GetRows trims trailing empty cells; widen the header for data past it.
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	for len(rows[0]) < width {
		rows[0] = append(rows[0], "")
	}
	return rows, nil
}

// buildTable converts raw string rows (header first) into typed columns
func (r *DataReader) buildTable(name string, rows [][]string) (*table.Table, error) {
	headers := normalizeHeaders(rows[0])
	body := rows[1:]

	columns := make([]table.Column, len(headers))
	for c, header := range headers {
		values := make([]table.Value, len(body))
		for i, row := range body {
			if c < len(row) {
				values[i] = r.coercer.CoerceCell(row[c])
			} else {
				values[i] = table.NewMissingValue()
			}
		}
		columns[c] = table.Column{Name: header, Values: values}
	}

	tbl, err := table.New(name, columns)
	if err != nil {
		return nil, errors.ParseError("inconsistent columns", err)
	}
	return tbl, nil
}

// normalizeHeaders trims names, fills blanks and de-duplicates repeats with a numeric suffix
func normalizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, h := range raw {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		} else {
			seen[name] = 0
		}
		headers[i] = name
	}
	return headers
}
