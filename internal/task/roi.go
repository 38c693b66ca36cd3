package task

import (
	"math"
	"strconv"
	"strings"
)

// CalculateROI returns revenue per hour rounded to two decimals. Negative or
// non-finite inputs and a zero time yield 0.
func CalculateROI(revenue, timeTaken float64) float64 {
	if !validAmount(revenue) || !validAmount(timeTaken) {
		return 0
	}
	if timeTaken == 0 {
		return 0
	}
	return Round2(revenue / timeTaken)
}

// ROIFromText parses both values with ParseNumber before calculating. Any
// value that does not parse yields 0.
func ROIFromText(revenue, timeTaken string) float64 {
	rev, ok := ParseNumber(revenue)
	if !ok {
		return 0
	}
	hours, ok := ParseNumber(timeTaken)
	if !ok {
		return 0
	}
	return CalculateROI(rev, hours)
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ParseNumber reads the longest leading decimal number in value, ignoring
// surrounding whitespace and any trailing text ("12.5h" parses as 12.5).
// NaN and infinities are rejected.
func ParseNumber(value string) (float64, bool) {
	s := strings.TrimSpace(value)
	end := numericPrefix(s)
	if end == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// FormatNumber renders v in its shortest round-trip form ("100", "2.5").
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// numericPrefix returns the length of the leading [+-]digits[.digits][e[+-]digits]
// run of s, or 0 when s does not start with a number.
func numericPrefix(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			frac++
		}
		if digits > 0 || frac > 0 {
			i = j
			digits += frac
		}
	}
	if digits == 0 {
		return 0
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		exp := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			exp++
		}
		if exp > 0 {
			i = j
		}
	}
	return i
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
