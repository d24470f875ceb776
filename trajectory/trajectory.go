// Package trajectory 仿真轨迹与分段拼接
package trajectory

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

var (
	ErrEmpty          = errors.New("trajectory: empty segment")
	ErrLengthMismatch = errors.New("trajectory: t, Vc, Il lengths differ")
	ErrNotMonotonic   = errors.New("trajectory: time not strictly increasing")
	ErrDiscontiguous  = errors.New("trajectory: segments do not share a boundary sample")
)

// Trajectory 按时间严格递增的 (t, Vc, Il) 采样
type Trajectory struct {
	T  []float64 // 时间 (s)
	Vc []float64 // 电容电压 (V)
	Il []float64 // 电感电流 (A)
}

// FromStates 由求解器输出 (t, [Vc, Il]) 构造
func FromStates(t []float64, y [][]float64) (Trajectory, error) {
	if len(t) != len(y) {
		return Trajectory{}, fmt.Errorf("%w: %d times, %d states", ErrLengthMismatch, len(t), len(y))
	}
	tr := Trajectory{
		T:  append([]float64(nil), t...),
		Vc: make([]float64, len(y)),
		Il: make([]float64, len(y)),
	}
	for i, s := range y {
		if len(s) < 2 {
			return Trajectory{}, fmt.Errorf("%w: state %d has %d components", ErrLengthMismatch, i, len(s))
		}
		tr.Vc[i], tr.Il[i] = s[0], s[1]
	}
	return tr, tr.Validate()
}

// Len 采样点数
func (tr Trajectory) Len() int { return len(tr.T) }

// Start 起始时间
func (tr Trajectory) Start() float64 { return tr.T[0] }

// End 结束时间
func (tr Trajectory) End() float64 { return tr.T[len(tr.T)-1] }

// Sample 第 i 个采样点
func (tr Trajectory) Sample(i int) (t, vc, il float64) {
	return tr.T[i], tr.Vc[i], tr.Il[i]
}

// Validate 检查长度一致与时间严格递增
func (tr Trajectory) Validate() error {
	if len(tr.T) == 0 {
		return ErrEmpty
	}
	if len(tr.Vc) != len(tr.T) || len(tr.Il) != len(tr.T) {
		return fmt.Errorf("%w: %d/%d/%d", ErrLengthMismatch, len(tr.T), len(tr.Vc), len(tr.Il))
	}
	for i := 1; i < len(tr.T); i++ {
		if !(tr.T[i] > tr.T[i-1]) {
			return fmt.Errorf("%w: t[%d]=%g, t[%d]=%g", ErrNotMonotonic, i-1, tr.T[i-1], i, tr.T[i])
		}
	}
	return nil
}

// Energy 每个采样点的储能 ½C·Vc² + ½L·Il²
func (tr Trajectory) Energy(c, l float64) []float64 {
	out := make([]float64, tr.Len())
	for i := range out {
		out[i] = 0.5*c*tr.Vc[i]*tr.Vc[i] + 0.5*l*tr.Il[i]*tr.Il[i]
	}
	return out
}

// PeakCurrent 电流绝对值峰值及其时间
func (tr Trajectory) PeakCurrent() (t, il float64) {
	hi, lo := floats.MaxIdx(tr.Il), floats.MinIdx(tr.Il)
	i := hi
	if math.Abs(tr.Il[lo]) > math.Abs(tr.Il[hi]) {
		i = lo
	}
	return tr.T[i], tr.Il[i]
}

// VoltageRange 电压最小/最大值
func (tr Trajectory) VoltageRange() (lo, hi float64) {
	return floats.Min(tr.Vc), floats.Max(tr.Vc)
}

// MicroSeconds 时间轴换算为 µs
func (tr Trajectory) MicroSeconds() []float64 {
	out := make([]float64, tr.Len())
	floats.ScaleTo(out, 1e6, tr.T)
	return out
}
