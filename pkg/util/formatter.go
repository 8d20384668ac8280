package util

import (
	"fmt"
	"math"
)

var prefixes = []struct {
	scale  float64
	symbol string
}{
	{1e9, "G"},
	{1e6, "M"},
	{1e3, "k"},
	{1, ""},
	{1e-3, "m"},
	{1e-6, "u"},
	{1e-9, "n"},
	{1e-12, "p"},
	{1e-15, "f"},
}

// FormatValueFactor prints value with an engineering prefix, 0.0047 -> "4.700 mA".
// Values outside the prefix range fall back to exponent notation.
func FormatValueFactor(value float64, unit string) string {
	if value == 0 {
		return fmt.Sprintf("%.3f %s", 0.0, unit)
	}
	abs := math.Abs(value)
	if abs < 1e3 && abs >= 1 {
		return fmt.Sprintf("%.3f %s", value, unit)
	}
	for _, p := range prefixes {
		if abs >= p.scale && abs < p.scale*1e3 {
			return fmt.Sprintf("%.3f %s%s", value/p.scale, p.symbol, unit)
		}
	}
	return fmt.Sprintf("%.3e %s", value, unit)
}

func FormatFrequency(freq float64) string {
	switch {
	case freq >= 1e9:
		return fmt.Sprintf("%7.3f GHz", freq/1e9)
	case freq >= 1e6:
		return fmt.Sprintf("%7.3f MHz", freq/1e6)
	case freq >= 1e3:
		return fmt.Sprintf("%7.3f kHz", freq/1e3)
	default:
		return fmt.Sprintf("%7.3f Hz ", freq)
	}
}

func FormatMagnitude(value float64) string {
	if value >= 1000 || (value < 0.001 && value != 0) {
		return fmt.Sprintf("%8.2e", value) // "1.00e+03" or "5.43e-05"
	}
	return fmt.Sprintf("%8.3g", value) // "  732.5 "
}

// FormatPhase prints degrees with one decimal.
func FormatPhase(value float64) string {
	return fmt.Sprintf("%6.1f", value)
}
