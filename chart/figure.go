// Package chart 仿真曲线输出：PNG/SVG/PDF（gonum/plot）与 HTML（go-echarts）
package chart

import (
	"errors"
	"fmt"

	"magstim/converter"
	"magstim/trajectory"
)

// DefaultPath 默认输出文件
const DefaultPath = "resposta_circuito_separada.png"

// ErrNoData 曲线为空或长度不一致
var ErrNoData = errors.New("chart: no data")

// Series 一条曲线
type Series struct {
	Name string
	X, Y []float64
}

// Reference 水平参考线
type Reference struct {
	Name  string
	Value float64
}

// Panel 一个子图
type Panel struct {
	Title      string
	YLabel     string
	Series     []Series
	References []Reference
}

// Figure 共享横轴、纵向堆叠的子图
type Figure struct {
	Title  string
	XLabel string
	Panels []Panel
}

// Validate 检查每个子图至少有一条等长曲线
func (f Figure) Validate() error {
	if len(f.Panels) == 0 {
		return fmt.Errorf("%w: figure has no panels", ErrNoData)
	}
	for i, p := range f.Panels {
		if len(p.Series) == 0 {
			return fmt.Errorf("%w: panel %d has no series", ErrNoData, i)
		}
		for _, s := range p.Series {
			if len(s.X) == 0 || len(s.X) != len(s.Y) {
				return fmt.Errorf("%w: series %q has %d x, %d y", ErrNoData, s.Name, len(s.X), len(s.Y))
			}
		}
	}
	return nil
}

// span 横轴范围
func (f Figure) span() (lo, hi float64) {
	first := true
	for _, p := range f.Panels {
		for _, s := range p.Series {
			for _, x := range s.X {
				if first || x < lo {
					lo = x
				}
				if first || x > hi {
					hi = x
				}
				first = false
			}
		}
	}
	return lo, hi
}

// RLCFigure 电容电压与电感电流（时间单位 µs）
func RLCFigure(tr trajectory.Trajectory) Figure {
	us := tr.MicroSeconds()
	return Figure{
		Title:  "Magnetic stimulator time response",
		XLabel: "Time (µs)",
		Panels: []Panel{
			{
				Title:  "Capacitor voltage",
				YLabel: "Vc [V]",
				Series: []Series{{Name: "Vc", X: us, Y: tr.Vc}},
			},
			{
				Title:  "Inductor current",
				YLabel: "Il [A]",
				Series: []Series{{Name: "Il", X: us, Y: tr.Il}},
			},
		},
	}
}

// ConverterFigure 输出电压（含目标参考线）与电感电流（时间单位 ms）
func ConverterFigure(p converter.Params, w converter.Waveform) Figure {
	ms := w.MilliSeconds()
	return Figure{
		Title:  fmt.Sprintf("%s converter output (%.0f V → %.0f V)", p.Kind, p.Vin, p.VoutRef),
		XLabel: "Time (ms)",
		Panels: []Panel{
			{
				Title:      "Output voltage",
				YLabel:     "vo [V]",
				Series:     []Series{{Name: "vo", X: ms, Y: w.Vo}},
				References: []Reference{{Name: fmt.Sprintf("Reference = %.1f V", p.VoutRef), Value: p.VoutRef}},
			},
			{
				Title:  "Inductor current",
				YLabel: "iL [A]",
				Series: []Series{{Name: "iL", X: ms, Y: w.IL}},
			},
		},
	}
}
