// Package converter buck/boost 变换器的 PWM 开关暂态（定步长显式 Euler）
package converter

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"magstim/ode"
	"magstim/params"
)

// Kind 变换器类型
type Kind int

const (
	Buck Kind = iota
	Boost
)

func (k Kind) String() string {
	switch k {
	case Buck:
		return "buck"
	case Boost:
		return "boost"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind 解析变换器类型
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "buck":
		return Buck, nil
	case "boost":
		return Boost, nil
	}
	return Buck, fmt.Errorf("unknown converter %q", name)
}

const (
	// DefaultStepsPerPeriod 每个开关周期的积分步数
	DefaultStepsPerPeriod = 200
	// MaxSamples 单次仿真的采样点上限
	MaxSamples = 5_000_000
)

// Params 变换器参数
type Params struct {
	Kind           Kind
	Vin            float64 // 输入电压 (V)
	VoutRef        float64 // 目标输出电压 (V)，仅用于参考线
	L              float64 // 电感 (H)
	C              float64 // 输出电容 (F)
	R              float64 // 负载电阻 (Ω)
	Fs             float64 // 开关频率 (Hz)
	Duty           float64 // 占空比 D
	StepsPerPeriod int     // 每周期步数
	TEnd           float64 // 仿真时长 (s)
	IL0            float64 // 电感初始电流 (A)
	Vo0            float64 // 输出初始电压 (V)
}

// BuckDefaults 50V → 20V 降压
func BuckDefaults() Params {
	vin, vout := 50.0, 20.0
	return Params{
		Kind:           Buck,
		Vin:            vin,
		VoutRef:        vout,
		L:              1.2e-3,
		C:              15.63e-6,
		R:              4.0,
		Fs:             20e3,
		Duty:           vout / vin,
		StepsPerPeriod: DefaultStepsPerPeriod,
		TEnd:           5e-3,
	}
}

// BoostDefaults 180V → 380V 升压，L、C 按纹波要求设计
func BoostDefaults() Params {
	const (
		vin, vout = 180.0, 380.0
		fs        = 40e3
		duty      = 0.5263
		iin, iout = 7.2222, 3.42
		rippleI   = 0.20 // 电感电流纹波 20%
		rippleV   = 0.01 // 输出电压纹波 1%
	)
	l, c := DesignBoost(vin, vout, fs, duty, iin, iout, rippleI, rippleV)
	return Params{
		Kind:           Boost,
		Vin:            vin,
		VoutRef:        vout,
		L:              l,
		C:              c,
		R:              111.08,
		Fs:             fs,
		Duty:           duty,
		StepsPerPeriod: DefaultStepsPerPeriod,
		TEnd:           20e-3,
	}
}

// DesignBoost 由纹波要求计算电感与电容
//
//	L = Vin·D / (Fs·ΔI·Iin)
//	C = Iout·D / (Fs·ΔV·Vout)
func DesignBoost(vin, vout, fs, duty, iin, iout, rippleI, rippleV float64) (l, c float64) {
	l = vin * duty / (fs * rippleI * iin)
	c = iout * duty / (fs * rippleV * vout)
	return l, c
}

// Defaults 指定类型的默认参数
func Defaults(k Kind) Params {
	if k == Boost {
		return BoostDefaults()
	}
	return BuckDefaults()
}

// Period 开关周期
func (p Params) Period() float64 { return 1 / p.Fs }

// Step 积分步长
func (p Params) Step() float64 { return p.Period() / float64(p.StepsPerPeriod) }

// Validate 校验参数
func (p Params) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"Vin", p.Vin}, {"VoutRef", p.VoutRef}, {"L", p.L}, {"C", p.C}, {"R", p.R},
		{"Fs", p.Fs}, {"Duty", p.Duty}, {"TEnd", p.TEnd}, {"IL0", p.IL0}, {"Vo0", p.Vo0},
	}
	for _, f := range fields {
		if !finite(f.value) {
			return params.Invalid(f.name, f.value, "must be finite")
		}
	}
	switch {
	case p.Kind != Buck && p.Kind != Boost:
		return fmt.Errorf("%w: converter kind %s", params.ErrInvalidParameter, p.Kind)
	case p.L <= 0:
		return params.Invalid("L", p.L, "must be > 0")
	case p.C <= 0:
		return params.Invalid("C", p.C, "must be > 0")
	case p.R <= 0:
		return params.Invalid("R", p.R, "must be > 0")
	case p.Fs <= 0:
		return params.Invalid("Fs", p.Fs, "must be > 0")
	case p.Duty < 0 || p.Duty > 1:
		return params.Invalid("Duty", p.Duty, "must be within [0, 1]")
	case p.TEnd <= 0:
		return params.Invalid("TEnd", p.TEnd, "must be > 0")
	case p.StepsPerPeriod <= 0:
		return fmt.Errorf("%w: StepsPerPeriod=%d: must be > 0", params.ErrInvalidParameter, p.StepsPerPeriod)
	case p.TEnd/p.Step() > MaxSamples:
		return fmt.Errorf("%w: TEnd=%g with %d steps per period needs %.0f samples, limit %d",
			params.ErrInvalidParameter, p.TEnd, p.StepsPerPeriod, math.Ceil(p.TEnd/p.Step()), MaxSamples)
	}
	return nil
}

// On 开关状态：mod(t, Ts) < D·Ts 时导通
func (p Params) On(t float64) bool {
	ts := p.Period()
	return math.Mod(t, ts) < p.Duty*ts
}

// InductorVoltage 电感电压
// buck: 导通 Vin-vo，关断 -vo；boost: 导通 Vin，关断 Vin-vo
func (p Params) InductorVoltage(on bool, vo float64) float64 {
	switch {
	case p.Kind == Buck && on:
		return p.Vin - vo
	case p.Kind == Buck:
		return -vo
	case on:
		return p.Vin
	}
	return p.Vin - vo
}

// Waveform 仿真波形
type Waveform struct {
	T  []float64 // 时间 (s)
	IL []float64 // 电感电流 (A)
	Vo []float64 // 输出电压 (V)
}

// Len 采样点数
func (w Waveform) Len() int { return len(w.T) }

// window 返回 t >= from 的起始下标
func (w Waveform) window(from float64) int {
	for i, t := range w.T {
		if t >= from {
			return i
		}
	}
	return len(w.T)
}

// Mean t >= from 区间内的输出电压均值
func (w Waveform) Mean(from float64) float64 {
	i := w.window(from)
	if i == len(w.T) {
		return math.NaN()
	}
	return floats.Sum(w.Vo[i:]) / float64(len(w.Vo)-i)
}

// Ripple t >= from 区间内的输出电压峰峰值
func (w Waveform) Ripple(from float64) float64 {
	i := w.window(from)
	if i == len(w.T) {
		return math.NaN()
	}
	return floats.Max(w.Vo[i:]) - floats.Min(w.Vo[i:])
}

// MilliSeconds 时间轴换算为 ms
func (w Waveform) MilliSeconds() []float64 {
	out := make([]float64, w.Len())
	floats.ScaleTo(out, 1e3, w.T)
	return out
}

// Simulate 显式 Euler 积分，采样点 t_k = k·dt < TEnd
func Simulate(p Params) (Waveform, error) {
	if err := p.Validate(); err != nil {
		return Waveform{}, err
	}
	dt := p.Step()
	n := 0
	for float64(n)*dt < p.TEnd {
		n++
	}
	w := Waveform{
		T:  make([]float64, n),
		IL: make([]float64, n),
		Vo: make([]float64, n),
	}
	w.IL[0], w.Vo[0] = p.IL0, p.Vo0
	for k := 0; k < n; k++ {
		w.T[k] = float64(k) * dt
		if k == n-1 {
			break
		}
		vl := p.InductorVoltage(p.On(w.T[k]), w.Vo[k])
		w.IL[k+1] = w.IL[k] + vl/p.L*dt
		w.Vo[k+1] = w.Vo[k] + (w.IL[k]-w.Vo[k]/p.R)/p.C*dt
		if !finite(w.IL[k+1]) || !finite(w.Vo[k+1]) {
			return Waveform{}, fmt.Errorf("converter: %w at t=%g", ode.ErrNonFinite, w.T[k])
		}
	}
	return w, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
