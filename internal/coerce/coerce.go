// Package coerce classifies raw cell values and performs the safe, deterministic
// coercions shared by the analyzer, validator, and fixer. Every function here is
// pure; classification and coercion always agree so a value that classifies as a
// number is guaranteed to parse as one.
package coerce

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	emailRe   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	numberRe  = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
	isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	slashDate = regexp.MustCompile(`^\d{1,4}/\d{1,2}/\d{1,4}$`)
)

// booleanWords is the fixed vocabulary recognized as boolean. Coercion only
// ever fires on these exact words, case-insensitively.
var booleanWords = map[string]bool{
	"true":  true,
	"yes":   true,
	"1":     true,
	"false": false,
	"no":    false,
	"0":     false,
}

// dateLayouts are tried in order by ParseDate.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"1/2/2006",
	"01/02/2006",
	"2006/1/2",
}

// Blank reports whether the cell is empty after trimming, the delimited-file
// stand-in for null.
func Blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// IsEmail reports whether the trimmed value looks like an email address.
func IsEmail(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}

// IsURL reports whether the trimmed value starts with an http(s) scheme.
func IsURL(s string) bool {
	t := strings.TrimSpace(s)
	return strings.HasPrefix(t, "http://") || strings.HasPrefix(t, "https://")
}

// IsBoolean reports whether the value belongs to the boolean vocabulary.
func IsBoolean(s string) bool {
	_, ok := booleanWords[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// ParseBoolean converts a vocabulary word to its boolean value.
func ParseBoolean(s string) (bool, bool) {
	v, ok := booleanWords[strings.ToLower(strings.TrimSpace(s))]
	return v, ok
}

// CleanNumber strips currency symbols and thousands separators so "$1,234.50"
// tests as numeric.
func CleanNumber(s string) string {
	t := strings.TrimSpace(s)
	t = strings.ReplaceAll(t, "$", "")
	t = strings.ReplaceAll(t, ",", "")
	return t
}

// IsNumber reports whether the value is numeric after symbol stripping.
func IsNumber(s string) bool {
	t := CleanNumber(s)
	return t != "" && numberRe.MatchString(t)
}

// ParseNumber converts a numeric-looking value to a float64.
func ParseNumber(s string) (float64, bool) {
	t := CleanNumber(s)
	if !numberRe.MatchString(t) {
		return 0, false
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// LooksLikeDate reports whether the value has an ISO (YYYY-MM-DD) or
// slash-separated (D/D/D) date shape. Shape only; ParseDate decides validity.
func LooksLikeDate(s string) bool {
	t := strings.TrimSpace(s)
	if isoDateRe.MatchString(t) || slashDate.MatchString(t) {
		return true
	}
	// Full timestamps count too.
	if _, err := time.Parse(time.RFC3339, t); err == nil {
		return true
	}
	return false
}

// ParseDate parses a date-looking value against the known layouts.
func ParseDate(s string) (time.Time, bool) {
	t := strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, t); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// ISODate renders a parsed date back to its canonical YYYY-MM-DD form.
func ISODate(t time.Time) string {
	return t.Format("2006-01-02")
}
