// Package rows turns header-keyed CSV rows from heterogeneous source tables
// into typed fields. Each logical field is described by a candidate key list,
// the literal header spellings it may appear under, in priority order.
package rows

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/you/transit-atlas/models"
)

// RawRow maps a header name to the cell value of one parsed row
type RawRow map[string]string

// Keys is an ordered list of acceptable header spellings for one logical field
type Keys []string

// Candidate key lists for every field that differs across the source tables
var (
	// Master and per-system tables spell identity upper-case first
	CityKeys    = Keys{"CITY", "city"}
	CountryKeys = Keys{"COUNTRY", "country"}

	// The geocoder output spells identity lower-case first
	CoordCityKeys    = Keys{"city", "CITY"}
	CoordCountryKeys = Keys{"country", "COUNTRY"}
	SuccessKeys      = Keys{"success", "SUCCESS"}
	LatitudeKeys     = Keys{"latitude", "LATITUDE"}
	LongitudeKeys    = Keys{"longitude", "LONGITUDE"}

	StationsKeys = Keys{"STATIONS", "STATION NUMBER"}
	LengthKeys   = Keys{"LENGTH", "LENGTH_KM", "TOTAL LENGTH"}
	LinesKeys    = Keys{"LINES"}

	HasMetroKeys = Keys{"HAS_METRO", "has_metro"}
	HasTramKeys  = Keys{"HAS_TRAM", "has_tram"}
)

// ExtractField returns the value of the first candidate key present in the row
// with a non-empty value. The boolean is false when no candidate matches.
func ExtractField(row RawRow, candidates ...string) (string, bool) {
	for _, key := range candidates {
		if v, ok := row[key]; ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// Get extracts the field described by k
func (k Keys) Get(row RawRow) (string, bool) {
	return ExtractField(row, k...)
}

// String extracts the field described by k, empty when unknown
func (k Keys) String(row RawRow) string {
	v, _ := ExtractField(row, k...)
	return v
}

// Int extracts and coerces an integer field
func (k Keys) Int(row RawRow) models.Quantity {
	v, ok := k.Get(row)
	if !ok {
		return models.Unknown
	}
	return ParseInt(v)
}

// Float extracts and coerces a floating-point field
func (k Keys) Float(row RawRow) models.Quantity {
	v, ok := k.Get(row)
	if !ok {
		return models.Unknown
	}
	return ParseFloat(v)
}

// ParseInt reads the leading integer of s, ignoring leading whitespace
// and anything after the digits ("12 (2 planned)" is 12, "3.7" is 3).
// A "0x" prefix reads hexadecimal digits ("0x1A" is 26). Strings without a
// leading integer, and integers that overflow int64, are Unknown.
func ParseInt(s string) models.Quantity {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	sign := signLen(s)

	base, start := 10, sign
	if rest := s[sign:]; len(rest) > 1 && rest[0] == '0' && (rest[1] == 'x' || rest[1] == 'X') {
		base, start = 16, sign+2
	}
	digits := countDigitsBase(s[start:], base)
	if digits == 0 {
		return models.Unknown
	}

	v, err := strconv.ParseInt(s[:sign]+s[start:start+digits], base, 64)
	if err != nil {
		// strconv.ErrRange
		return models.Unknown
	}
	return models.Known(float64(v))
}

// ParseFloat reads the leading decimal number of s ("220.5 km" is 220.5,
// "1e3" is 1000). Strings without a leading number are Unknown.
func ParseFloat(s string) models.Quantity {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := signLen(s)

	intDigits := countDigits(s[end:])
	end += intDigits

	fracDigits := 0
	if end < len(s) && s[end] == '.' {
		fracDigits = countDigits(s[end+1:])
		if intDigits > 0 || fracDigits > 0 {
			end += 1 + fracDigits
		}
	}
	if intDigits == 0 && fracDigits == 0 {
		return models.Unknown
	}

	// Exponent only counts when digits follow it
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		exp := end + 1
		exp += signLen(s[exp:])
		if n := countDigits(s[exp:]); n > 0 {
			end = exp + n
		}
	}

	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		// Out of range exponents
		return models.Unknown
	}
	return models.Known(v)
}

func signLen(s string) int {
	if s != "" && (s[0] == '+' || s[0] == '-') {
		return 1
	}
	return 0
}

func countDigits(s string) int {
	return countDigitsBase(s, 10)
}

func countDigitsBase(s string, base int) int {
	n := 0
	for n < len(s) && isDigit(s[n], base) {
		n++
	}
	return n
}

func isDigit(c byte, base int) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case base == 16:
		return (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
	}
	return false
}
