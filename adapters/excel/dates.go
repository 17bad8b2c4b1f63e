package excel

import (
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	isoDate     = "2006-01-02"
	isoDateTime = "2006-01-02 15:04:05"
)

// dateNumFmts are the built-in number formats that display a calendar date,
// including the locale-specific ranges. Pure time and duration formats
// (18-21, 45-47) are left numeric.
var dateNumFmts = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 34: true, 35: true, 36: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 55: true, 56: true, 57: true, 58: true,
}

// dateStyles resolves which cell styles of a workbook format serial numbers as
// dates. Lookups are cached per style index.
type dateStyles struct {
	f        *excelize.File
	date1904 bool
	cache    map[int]bool
}

func newDateStyles(f *excelize.File) *dateStyles {
	d := &dateStyles{f: f, cache: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		d.date1904 = *props.Date1904
	}
	return d
}

// render converts a raw serial in a date-styled numeric cell to an ISO
// timestamp. ok is false when the cell should keep its raw text.
func (d *dateStyles) render(sheet string, col, row int, raw string) (string, bool) {
	serial, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "", false
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", false
	}
	if kind, err := d.f.GetCellType(sheet, cell); err != nil ||
		(kind != excelize.CellTypeUnset && kind != excelize.CellTypeNumber) {
		return "", false
	}
	styleID, err := d.f.GetCellStyle(sheet, cell)
	if err != nil || !d.isDate(styleID) {
		return "", false
	}

	t, err := excelize.ExcelDateToTime(serial, d.date1904)
	if err != nil {
		return "", false
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format(isoDate), true
	}
	return t.Format(isoDateTime), true
}

func (d *dateStyles) isDate(styleID int) bool {
	if isDate, ok := d.cache[styleID]; ok {
		return isDate
	}
	isDate := false
	if style, err := d.f.GetStyle(styleID); err == nil && style != nil {
		if style.CustomNumFmt != nil {
			isDate = isDateFormatCode(*style.CustomNumFmt)
		} else {
			isDate = dateNumFmts[style.NumFmt]
		}
	}
	d.cache[styleID] = isDate
	return isDate
}

// isDateFormatCode reports whether a custom number format code renders a
// calendar date. Quoted literals, escaped characters and bracketed sections
// (colours, locales, elapsed time) are ignored.
func isDateFormatCode(code string) bool {
	var b strings.Builder
	inQuote, inBracket := false, false
	for i := 0; i < len(code); i++ {
		ch := code[i]
		switch {
		case inQuote:
			inQuote = ch != '"'
		case inBracket:
			inBracket = ch != ']'
		case ch == '"':
			inQuote = true
		case ch == '[':
			inBracket = true
		case ch == '\\' || ch == '_' || ch == '*':
			i++
		default:
			b.WriteByte(ch)
		}
	}
	plain := strings.ToLower(b.String())
	return strings.ContainsAny(plain, "yd")
}
