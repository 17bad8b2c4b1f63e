package coercer

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"bizinsight/domain/table"
)

// TypeCoercer handles deterministic type coercion of raw cell text
type TypeCoercer struct {
	config CoercionConfig
}

// CoercionConfig defines the coercion rules
type CoercionConfig struct {
	// MissingTokens are cell texts treated as empty (compared case-insensitively)
	MissingTokens []string
	// TimestampLayouts are tried in order when coercing a temporal column
	TimestampLayouts []string
	// AllowCurrency strips a leading/trailing currency symbol before numeric parsing
	AllowCurrency bool
}

// DefaultCoercionConfig returns the defaults used for uploaded files
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		MissingTokens: []string{"na", "n/a", "nan", "null", "none", "#n/a", "-nan", "<na>"},
		TimestampLayouts: []string{
			time.RFC3339,
			"2006-01-02T15:04:05",
			"2006-01-02 15:04:05",
			"2006-01-02 15:04",
			"2006-01-02",
			"2006/01/02",
			"2006-01",
			"01/02/2006 15:04:05",
			"01/02/2006 15:04",
			"1/2/2006 15:04:05",
			"1/2/2006 15:04",
			"1/2/2006 3:04 PM",
			"1/2/2006 3:04:05 PM",
			"1/2/06 15:04",
			"01/02/2006",
			"1/2/2006",
			"1/2/06",
			"01-02-06",
			"02-Jan-2006",
			"2-Jan-06",
			"Jan 2, 2006",
			"January 2, 2006",
		},
		AllowCurrency: true,
	}
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	return &TypeCoercer{config: config}
}

var thousandsPattern = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d*)?$`)

var currencySymbols = []string{"$", "€", "£", "¥"}

// CoerceCell converts raw cell text into a typed Value: missing, numeric or string
func (c *TypeCoercer) CoerceCell(raw string) table.Value {
	text := strings.TrimSpace(raw)
	if c.IsMissing(text) {
		return table.NewMissingValue()
	}
	if n, ok := c.ParseNumeric(text); ok {
		return table.NewNumericValue(n, text)
	}
	return table.NewStringValue(text)
}

// IsMissing reports whether text stands for an empty cell
func (c *TypeCoercer) IsMissing(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return true
	}
	for _, token := range c.config.MissingTokens {
		if strings.EqualFold(text, token) {
			return true
		}
	}
	return false
}

// ParseNumeric parses plain, thousands-separated, parenthesised-negative and
// currency-prefixed numbers. Percentages and locale decimal commas are rejected.
func (c *TypeCoercer) ParseNumeric(text string) (float64, bool) {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(clean, "(") && strings.HasSuffix(clean, ")") {
		clean = strings.TrimSpace(clean[1 : len(clean)-1])
		negative = true
	}

	if c.config.AllowCurrency {
		clean = stripCurrency(clean)
	}

	if thousandsPattern.MatchString(clean) {
		clean = strings.ReplaceAll(clean, ",", "")
	}

	val, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsInf(val, 0) || math.IsNaN(val) {
		return 0, false
	}
	if negative {
		val = -val
	}
	return val, true
}

func stripCurrency(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	for _, symbol := range currencySymbols {
		if strings.HasPrefix(s, symbol) {
			return sign + strings.TrimSpace(strings.TrimPrefix(s, symbol))
		}
		if strings.HasSuffix(s, symbol) {
			return sign + strings.TrimSpace(strings.TrimSuffix(s, symbol))
		}
	}
	return sign + s
}

// ParseTimestamp coerces a cell to a point in time. Numeric cells are read as Unix seconds.
func (c *TypeCoercer) ParseTimestamp(v table.Value) (time.Time, bool) {
	switch v.Type {
	case table.ValueTypeMissing:
		return time.Time{}, false
	case table.ValueTypeNumeric:
		sec, frac := math.Modf(v.Num)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
	}

	text := strings.TrimSpace(v.Raw)
	for _, layout := range c.config.TimestampLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
