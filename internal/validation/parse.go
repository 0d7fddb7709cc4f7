package validation

// parse.go provides locale-agnostic parsing of loosely-typed field values.
//
// These helpers handle the messy reality of exported report data:
//   - numbers carrying currency symbols, thousands separators, and
//     accounting-style parentheses for negatives
//   - dates in US, EU, ISO, and compact formats, with 2-digit years
//   - booleans as true/false strings or 0/1 literals
//
// All parsers are total: they report failure through their second return
// value and never panic on malformed input.

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// numericPattern validates a numeric string after cleanup. Matches integers,
// decimals, and scientific notation.
var numericPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted. Parsed years
// more than this many years in the future are shifted back a century.
var TwoDigitYearPivot = 20

var (
	dateTimeLayouts = []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"1/2/2006 15:04:05",
		"1/2/2006 15:04",
	}
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"Jan 2, 2006", "2 Jan 2006",
		"20060102",
	}
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
)

// ParseNumber parses a value as a finite number. String inputs tolerate
// currency symbols, thousands separators, and accounting parentheses.
func ParseNumber(v Value) (float64, bool) {
	switch v.Kind() {
	case KindNumber:
		f, _ := v.AsFloat()
		return f, true
	case KindString:
		s, _ := v.AsString()
		return parseNumericString(s)
	default:
		return 0, false
	}
}

func parseNumericString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	// Accounting format "(123.45)" means negative.
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "%", "")
	s = strings.TrimSpace(s)

	if negative {
		s = "-" + s
	}

	if !numericPattern.MatchString(s) {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseDate parses a value as a calendar date or date-time. Only string
// values are accepted; the supported layouts cover ISO-8601, US, and EU
// conventions plus compact YYYYMMDD.
func ParseDate(v Value) (time.Time, bool) {
	s, ok := v.AsString()
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	// 2-digit years: pivot so "45" is 1945, not 2045.
	pivot := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivot {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}

	return time.Time{}, false
}

// ParseBool parses a value as a boolean. Accepted literal forms: boolean
// values, the strings "true"/"false" (case-insensitive), and the numbers
// 0/1 (numeric or string form, since CSV delivers numbers as strings).
func ParseBool(v Value) (bool, bool) {
	switch v.Kind() {
	case KindBool:
		b, _ := v.AsBool()
		return b, true
	case KindNumber:
		f, _ := v.AsFloat()
		if f == 0 {
			return false, true
		}
		if f == 1 {
			return true, true
		}
		return false, false
	case KindString:
		s, _ := v.AsString()
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "1":
			return true, true
		case "false", "0":
			return false, true
		}
		return false, false
	default:
		return false, false
	}
}
