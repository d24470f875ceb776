package params

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParameter 物理参数不合法
var ErrInvalidParameter = errors.New("params: invalid parameter")

// ErrInvalidValue 配置数值无法解析
var ErrInvalidValue = errors.New("params: invalid value")

// Circuit 放电回路参数（一次仿真期间不可变，按值传递）
type Circuit struct {
	C      float64 // 电容 (F)
	L      float64 // 电感 (H)
	R      float64 // 电阻 (Ω)
	Vc0    float64 // 电容初始电压 (V)
	Il0    float64 // 电感初始电流 (A)
	TFinal float64 // 仿真结束时间 (s)
}

// DefaultCircuit 默认参数：180µF 电容充电至 900V，经 11µH 线圈放电
func DefaultCircuit() Circuit {
	return Circuit{
		C:      180e-6,
		L:      11e-6,
		R:      85e-3,
		Vc0:    900.0,
		Il0:    0.0,
		TFinal: 400e-6,
	}
}

// Validate 校验参数：C > 0, L > 0, R >= 0, TFinal > 0，且全部为有限值
func (p Circuit) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"C", p.C}, {"L", p.L}, {"R", p.R},
		{"Vc0", p.Vc0}, {"Il0", p.Il0}, {"TFinal", p.TFinal},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return Invalid(f.name, f.value, "must be finite")
		}
	}
	switch {
	case p.C <= 0:
		return Invalid("C", p.C, "must be > 0")
	case p.L <= 0:
		return Invalid("L", p.L, "must be > 0")
	case p.R < 0:
		return Invalid("R", p.R, "must be >= 0")
	case p.TFinal <= 0:
		return Invalid("TFinal", p.TFinal, "must be > 0")
	}
	return nil
}

// Invalid 构造参数错误
func Invalid(field string, value float64, rule string) error {
	return fmt.Errorf("%w: %s=%g %s", ErrInvalidParameter, field, value, rule)
}
