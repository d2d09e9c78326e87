// Package resolver - Safe coercion of raw input values.
// None of these helpers fail: unusable input yields the supplied default.
package resolver

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// dateLayouts are tried in order when a date arrives as text
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"02.01.2006",
}

// IsAbsent reports whether a raw value counts as "not provided".
// Only nil and blank strings are absent; zero and false are real values.
func IsAbsent(v any) bool {
	if v == nil {
		return true
	}
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x) == ""
	case json.Number:
		return strings.TrimSpace(string(x)) == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

// ToDecimal converts a raw value to a decimal. Floats go through their
// shortest string form so binary artefacts never enter the result.
func ToDecimal(v any, def decimal.Decimal) decimal.Decimal {
	if d, ok := asDecimal(v); ok {
		return d
	}
	return def
}

func asDecimal(v any) (decimal.Decimal, bool) {
	if IsAbsent(v) {
		return decimal.Zero, false
	}
	switch x := v.(type) {
	case decimal.Decimal:
		return x, true
	case *decimal.Decimal:
		return *x, true
	case json.Number:
		return parseDecimal(string(x))
	case string:
		return parseDecimal(x)
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int8:
		return decimal.NewFromInt(int64(x)), true
	case int16:
		return decimal.NewFromInt(int64(x)), true
	case int32:
		return decimal.NewFromInt(int64(x)), true
	case int64:
		return decimal.NewFromInt(x), true
	case uint:
		return parseDecimal(strconv.FormatUint(uint64(x), 10))
	case uint8:
		return decimal.NewFromInt(int64(x)), true
	case uint16:
		return decimal.NewFromInt(int64(x)), true
	case uint32:
		return decimal.NewFromInt(int64(x)), true
	case uint64:
		return parseDecimal(strconv.FormatUint(x, 10))
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero, false
		}
		return parseDecimal(strconv.FormatFloat(x, 'f', -1, 64))
	case float32:
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero, false
		}
		return parseDecimal(strconv.FormatFloat(f, 'f', -1, 32))
	default:
		return decimal.Zero, false
	}
}

// parseDecimal accepts "1200", "1 200,50", "1,200.50" and "15%"
func parseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' || r == '_' {
			return -1
		}
		return r
	}, s)
	switch {
	case strings.Contains(s, ",") && strings.Contains(s, "."):
		s = strings.ReplaceAll(s, ",", "")
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ",", ".")
	}
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

var (
	maxInt = decimal.NewFromInt(math.MaxInt)
	minInt = decimal.NewFromInt(math.MinInt)
)

// ToInt converts a raw value to an int. Fractional or out-of-range input
// yields the default.
func ToInt(v any, def int) int {
	switch x := v.(type) {
	case int:
		return x
	case int64:
		return int(x)
	case int32:
		return int(x)
	case bool:
		return def
	}
	d, ok := asDecimal(v)
	if !ok || !d.Equal(d.Truncate(0)) {
		return def
	}
	if d.GreaterThan(maxInt) || d.LessThan(minInt) {
		return def
	}
	return int(d.IntPart())
}

// ToString converts a raw value to trimmed text
func ToString(v any, def string) string {
	if IsAbsent(v) {
		return def
	}
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return strings.TrimSpace(string(x))
	case decimal.Decimal:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case fmt.Stringer:
		return strings.TrimSpace(x.String())
	default:
		return def
	}
}

// ToDate converts a raw value to a UTC date
func ToDate(v any, def time.Time) time.Time {
	if IsAbsent(v) {
		return def
	}
	switch x := v.(type) {
	case time.Time:
		return x.UTC()
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC()
			}
		}
	}
	return def
}
