package converter

import (
	"fmt"

	"magstim/params"
)

// FromConfig 用配置覆盖 kind 的默认参数
func FromConfig(k Kind, c params.ConverterConfig) (Params, error) {
	p := Defaults(k)
	fields := []struct {
		name  string
		value params.Value
		dst   *float64
	}{
		{"vin", c.Vin, &p.Vin},
		{"vout_ref", c.VoutRef, &p.VoutRef},
		{"l", c.L, &p.L},
		{"c", c.C, &p.C},
		{"r", c.R, &p.R},
		{"fs", c.Fs, &p.Fs},
		{"duty", c.Duty, &p.Duty},
		{"t_end", c.TEnd, &p.TEnd},
	}
	for _, f := range fields {
		val, err := f.value.ParseFloat64(*f.dst)
		if err != nil {
			return Params{}, fmt.Errorf("%s.%s: %w", k, f.name, err)
		}
		*f.dst = val
	}
	if c.StepsPerPeriod != 0 {
		p.StepsPerPeriod = c.StepsPerPeriod
	}
	return p, p.Validate()
}
