package utils

import (
	"fmt"
	"math"
)

// factors 工程前缀，从大到小
var factors = []struct {
	scale  float64
	prefix string
}{
	{1e9, "G"},
	{1e6, "M"},
	{1e3, "k"},
	{1, ""},
	{1e-3, "m"},
	{1e-6, "µ"},
	{1e-9, "n"},
	{1e-12, "p"},
}

// FormatValueFactor 按工程前缀格式化，如 70.01e-6 s → "70.010 µs"
func FormatValueFactor(value float64, unit string) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Sprintf("%v %s", value, unit)
	}
	abs := math.Abs(value)
	if abs == 0 {
		return fmt.Sprintf("%.3f %s", value, unit)
	}
	for _, f := range factors {
		if abs >= f.scale {
			return fmt.Sprintf("%.3f %s%s", value/f.scale, f.prefix, unit)
		}
	}
	return fmt.Sprintf("%.3e %s", value, unit)
}

// FormatFrequency 频率
func FormatFrequency(freq float64) string {
	return FormatValueFactor(freq, "Hz")
}
