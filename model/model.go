// Package model 磁刺激器放电回路的状态方程
//
// 状态向量为 [Vc, Il]。二极管截止时回路只有 L 与 C（SERIES），
// 电容电压过零后二极管导通，R 接入回路（PARALLEL）。
package model

import (
	"fmt"
	"strings"

	"magstim/ode"
	"magstim/params"
)

// 状态向量下标
const (
	VC = 0 // 电容电压
	IL = 1 // 电感电流
)

// Mode 回路拓扑
type Mode int

const (
	Series   Mode = iota // 二极管截止：L、C 串联
	Parallel             // 二极管导通：C、L、R 共同参与
)

func (m Mode) String() string {
	switch m {
	case Series:
		return "series"
	case Parallel:
		return "parallel"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Complement 另一种拓扑
func (m Mode) Complement() Mode {
	if m == Series {
		return Parallel
	}
	return Series
}

// ParseMode 解析拓扑名称
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "series", "serie", "":
		return Series, nil
	case "parallel", "paralelo":
		return Parallel, nil
	}
	return Series, fmt.Errorf("unknown topology %q", name)
}

// Select 按电容电压选择拓扑：Vc > 0 为 SERIES，否则 PARALLEL
func Select(vc float64) Mode {
	if vc > 0 {
		return Series
	}
	return Parallel
}

// SeriesDerivative 二极管截止
//
//	dVc/dt = -Il/C
//	dIl/dt = Vc/L
func SeriesDerivative(p params.Circuit) ode.Func {
	c, l := p.C, p.L
	return func(_ float64, y, dy []float64) {
		dy[VC] = -y[IL] / c
		dy[IL] = y[VC] / l
	}
}

// ParallelDerivative 二极管导通
//
//	dIl/dt = (Vc - R·Il)/L
//	dVc/dt = -(Il + Vc/R)/C
func ParallelDerivative(p params.Circuit) ode.Func {
	c, l, r := p.C, p.L, p.R
	return func(_ float64, y, dy []float64) {
		dy[IL] = (y[VC] - r*y[IL]) / l
		dy[VC] = -(y[IL] + y[VC]/r) / c
	}
}

// Derivative 指定拓扑的状态方程
func Derivative(m Mode, p params.Circuit) ode.Func {
	if m == Parallel {
		return ParallelDerivative(p)
	}
	return SeriesDerivative(p)
}

// Dispatch 每次求导时按 Vc 符号选择拓扑（不产生事件，可来回切换）
// 导数在 Vc = 0 处不连续，步长控制可能跨过切换点，精度低于事件分段方式
func Dispatch(p params.Circuit) ode.Func {
	series, parallel := SeriesDerivative(p), ParallelDerivative(p)
	return func(t float64, y, dy []float64) {
		if Select(y[VC]) == Series {
			series(t, y, dy)
			return
		}
		parallel(t, y, dy)
	}
}

// Energy 储能 ½C·Vc² + ½L·Il²
func Energy(p params.Circuit, y []float64) float64 {
	return 0.5*p.C*y[VC]*y[VC] + 0.5*p.L*y[IL]*y[IL]
}
