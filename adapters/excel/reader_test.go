package excel

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"bizinsight/domain/table"
	"bizinsight/internal"
	"bizinsight/internal/errors"
)

func newTestReader() *DataReader {
	return NewDataReader(DefaultReaderConfig(), internal.Discard)
}

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestReadSupportedFormats(t *testing.T) {
	xlsx := buildWorkbook(t, [][]interface{}{
		{"order_date", "region", "amount"},
		{"2024-01-01", "north", 10},
		{"2024-01-02", "south", 2.5},
		{"2024-01-03", "east", 7},
	})

	tests := []struct {
		name     string
		filename string
		data     []byte
	}{
		{"csv", "sales.csv", []byte("order_date,region,amount\n2024-01-01,north,10\n2024-01-02,south,2.5\n2024-01-03,east,7\n")},
		{"tsv", "sales.txt", []byte("order_date\tregion\tamount\n2024-01-01\tnorth\t10\n2024-01-02\tsouth\t2.5\n2024-01-03\teast\t7\n")},
		{"xlsx", "sales.xlsx", xlsx},
		{"upper-case extension", "SALES.CSV", []byte("order_date,region,amount\n2024-01-01,north,10\n2024-01-02,south,2.5\n2024-01-03,east,7\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := newTestReader().Read(context.Background(), bytes.NewReader(tt.data), tt.filename)
			require.NoError(t, err)

			assert.Equal(t, 3, tbl.NumColumns())
			assert.Equal(t, 3, tbl.NumRows())
			assert.Equal(t, []string{"order_date", "region", "amount"}, tbl.Headers())

			amount, ok := tbl.Column("amount")
			require.True(t, ok)
			nums, numeric := amount.Numbers()
			assert.True(t, numeric)
			assert.Equal(t, []float64{10, 2.5, 7}, nums)

			region, _ := tbl.Column("region")
			assert.Equal(t, table.ValueTypeString, region.Values[0].Type)
		})
	}
}

// buildTypedWorkbook writes native dates, percentages and currency amounts
// with number formats, the way a spreadsheet application saves them.
func buildTypedWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"order_date", "logged_at", "share", "revenue", "status"}))

	rows := [][]interface{}{
		{time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC), 0.25, 1234.5, "pending"},
		{time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 6, 9, 15, 45, 0, time.UTC), 0.5, 99, 45000},
	}
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}

	currency := `"$"#,##0.00`
	styles := []struct {
		col   string
		style *excelize.Style
	}{
		{"A", &excelize.Style{NumFmt: 14}},
		{"B", &excelize.Style{NumFmt: 22}},
		{"C", &excelize.Style{NumFmt: 10}},
		{"D", &excelize.Style{CustomNumFmt: &currency}},
		{"E", &excelize.Style{NumFmt: 14}},
	}
	for _, s := range styles {
		id, err := f.NewStyle(s.style)
		require.NoError(t, err)
		require.NoError(t, f.SetCellStyle(sheet, s.col+"2", s.col+"3", id))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestReadTypedWorkbookCells(t *testing.T) {
	r := newTestReader()
	tbl, err := r.Read(context.Background(), bytes.NewReader(buildTypedWorkbook(t)), "typed.xlsx")
	require.NoError(t, err)
	require.Equal(t, 2, tbl.NumRows())

	t.Run("date cells become ISO dates", func(t *testing.T) {
		col, ok := tbl.Column("order_date")
		require.True(t, ok)
		assert.Equal(t, "2024-03-05", col.Values[0].Raw)
		assert.Equal(t, "2024-03-06", col.Values[1].Raw)

		ts, ok := r.coercer.ParseTimestamp(col.Values[1])
		require.True(t, ok)
		assert.True(t, time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC).Equal(ts))
	})

	t.Run("date-time cells keep the time of day", func(t *testing.T) {
		col, ok := tbl.Column("logged_at")
		require.True(t, ok)
		assert.Equal(t, "2024-03-05 14:30:00", col.Values[0].Raw)
		assert.Equal(t, "2024-03-06 09:15:45", col.Values[1].Raw)

		for _, v := range col.Values {
			_, ok := r.coercer.ParseTimestamp(v)
			assert.True(t, ok, v.Raw)
		}
	})

	t.Run("percent cells stay numeric", func(t *testing.T) {
		col, ok := tbl.Column("share")
		require.True(t, ok)
		nums, numeric := col.Numbers()
		require.True(t, numeric)
		assert.Equal(t, []float64{0.25, 0.5}, nums)
	})

	t.Run("currency cells stay numeric", func(t *testing.T) {
		col, ok := tbl.Column("revenue")
		require.True(t, ok)
		nums, numeric := col.Numbers()
		require.True(t, numeric)
		assert.Equal(t, []float64{1234.5, 99}, nums)
	})

	t.Run("text in a date-styled cell is kept", func(t *testing.T) {
		col, ok := tbl.Column("status")
		require.True(t, ok)
		assert.Equal(t, table.ValueTypeString, col.Values[0].Type)
		assert.Equal(t, "pending", col.Values[0].Raw)
		assert.Equal(t, "2023-03-15", col.Values[1].Raw)
	})
}

func TestIsDateFormatCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"yyyy-mm-dd", true},
		{"d-mmm-yy", true},
		{"[$-409]mmmm d, yyyy;@", true},
		{"yyyy-mm-dd hh:mm:ss", true},
		{`"$"#,##0.00`, false},
		{`#,##0 "days"`, false},
		{"0.00%", false},
		{"[Red]#,##0", false},
		{"[h]:mm:ss", false},
		{`_("$"* #,##0.00_)`, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, isDateFormatCode(tt.code))
		})
	}
}

func TestReadUnsupportedExtension(t *testing.T) {
	for _, name := range []string{"report.pdf", "data.json", "noextension"} {
		_, err := newTestReader().Read(context.Background(), strings.NewReader("a,b\n1,2\n"), name)
		require.Error(t, err, name)
		assert.True(t, errors.HasCode(err, errors.CodeUnsupportedFormat), name)
		assert.True(t, errors.IsFatal(err))
	}
}

func TestReadMalformedInput(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     string
	}{
		{"too many fields", "bad.csv", "a,b\n1,2,3\n"},
		{"bare quote", "bad.csv", "a,b\n\"1,2\n3,4\"x\n"},
		{"empty csv", "empty.csv", ""},
		{"corrupt workbook", "bad.xlsx", "this is not a zip archive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestReader().Read(context.Background(), strings.NewReader(tt.data), tt.filename)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.CodeParseError), "got %v", err)
		})
	}
}

func TestReadPadsShortRowsAndNormalizesHeaders(t *testing.T) {
	data := "\ufeffname, ,name,score\nann,x,dup,1\nbob\n"
	tbl, err := newTestReader().Read(context.Background(), strings.NewReader(data), "people.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "Unnamed: 1", "name.1", "score"}, tbl.Headers())
	assert.Equal(t, 2, tbl.NumRows())

	score, _ := tbl.Column("score")
	assert.True(t, score.Values[1].IsMissing())
}

func TestReadHeaderOnly(t *testing.T) {
	tbl, err := newTestReader().Read(context.Background(), strings.NewReader("a,b\n"), "header.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.NumColumns())
	assert.Equal(t, 0, tbl.NumRows())
}

func TestReadHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestReader().Read(ctx, strings.NewReader("a\n1\n"), "a.csv")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDetectFileType(t *testing.T) {
	ft, ext, ok := DetectFileType("Q3 Numbers.XLSX")
	assert.True(t, ok)
	assert.Equal(t, FileTypeXLSX, ft)
	assert.Equal(t, ".xlsx", ext)

	_, ext, ok = DetectFileType("legacy.xls")
	assert.False(t, ok)
	assert.Equal(t, ".xls", ext)
}
