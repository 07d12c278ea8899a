package models

import (
	"math"
	"strconv"
	"strings"
)

// FormatNumber renders a number the way the dashboard exports it, matching
// JavaScript's Number#toString: shortest round-trip digits, no trailing ".0",
// and exponent form only below 1e-6 or from 1e21 up ("1e-7", "1e+21").
func FormatNumber(f float64) string {
	switch {
	case f == 0:
		// Avoid "-0"
		return "0"
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}

	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		// Go pads the exponent to two digits ("1e-07")
		mantissa, exp, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
		return mantissa + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FormatFixed1 formats with one decimal place. Exact ties (x.x5 values that are
// representable in binary, i.e. multiples of 0.25) round away from zero.
func FormatFixed1(f float64) string {
	q := f * 4
	if q == math.Trunc(q) && math.Mod(math.Abs(q), 2) == 1 {
		f += math.Copysign(0.01, f)
	}
	return strconv.FormatFloat(f, 'f', 1, 64)
}
