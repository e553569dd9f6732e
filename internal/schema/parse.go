package schema

import (
	"strconv"
	"strings"
)

// IsBlank reports whether s is empty or whitespace only.
func IsBlank(s string) bool { return strings.TrimSpace(s) == "" }

// ParseInteger parses s as a base-10 signed 64-bit integer.
//
// Surrounding whitespace is ignored. Thousands separators, underscores and
// base prefixes are rejected.
func ParseInteger(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseFloat parses s as a locale-invariant decimal number.
//
// Accepted: optional sign, digits with an optional '.' fraction, optional
// exponent. Rejected: thousands separators, hex floats, NaN/Inf spellings
// and underscores, all of which strconv.ParseFloat would otherwise accept
// in some form.
func ParseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !isDecimalLiteral(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Out of range (e.g. 1e400).
		return 0, false
	}
	return f, true
}

func isDecimalLiteral(s string) bool {
	i, n := 0, len(s)
	if i < n && (s[i] == '+' || s[i] == '-') {
		i++
	}

	digits := 0
	for i < n && isDigit(s[i]) {
		i++
		digits++
	}
	if i < n && s[i] == '.' {
		i++
		for i < n && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return false
	}

	if i < n && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < n && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := 0
		for i < n && isDigit(s[i]) {
			i++
			exp++
		}
		if exp == 0 {
			return false
		}
	}
	return i == n
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
