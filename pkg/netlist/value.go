package netlist

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var unitMap = map[string]float64{
	"t":   1e12,    // tera
	"g":   1e9,     // giga
	"meg": 1e6,     // mega
	"k":   1e3,     // kilo
	"mil": 25.4e-6, // thousandth of an inch
	"m":   1e-3,    // milli
	"u":   1e-6,    // micro
	"n":   1e-9,    // nano
	"p":   1e-12,   // pico
	"f":   1e-15,   // femto
}

var valuePattern = regexp.MustCompile(`^([-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?)([a-zA-Z]*)$`)

// ParseValue - Parse value and factor. 1k -> 1000, 10uF -> 1e-5
// Letters after the scale factor are units and are ignored.
func ParseValue(val string) (float64, error) {
	matches := valuePattern.FindStringSubmatch(strings.TrimSpace(val))
	if matches == nil {
		return 0, fmt.Errorf("invalid value format: %q", val)
	}

	num, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, err
	}

	suffix := strings.ToLower(matches[2])
	switch {
	case suffix == "":
	case strings.HasPrefix(suffix, "meg"):
		num *= unitMap["meg"]
	case strings.HasPrefix(suffix, "mil"):
		num *= unitMap["mil"]
	default:
		if multiplier, ok := unitMap[suffix[:1]]; ok {
			num *= multiplier
		}
	}
	return num, nil
}

func parseValues(fields []string) ([]float64, error) {
	values := make([]float64, len(fields))
	for i, f := range fields {
		v, err := ParseValue(f)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// keyValue splits "name=value". The key is lower-cased.
func keyValue(field string) (string, string, bool) {
	key, value, ok := strings.Cut(field, "=")
	if !ok || key == "" {
		return "", "", false
	}
	return strings.ToLower(strings.TrimSpace(key)), strings.TrimSpace(value), true
}
