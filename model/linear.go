package model

import (
	"errors"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"magstim/params"
)

// Oscillation 线性回路的特征量
type Oscillation struct {
	Eigenvalues   []complex128 // 系统矩阵特征值
	Omega         float64      // 振荡角频率 (rad/s)，过阻尼时为 0
	Decay         float64      // 最慢衰减率 (1/s)，无阻尼时为 0
	QuarterPeriod float64      // π/(2ω)，无振荡时为 +Inf
}

// SystemMatrix 两种拓扑都是线性的：d[Vc, Il]/dt = A·[Vc, Il]
func SystemMatrix(m Mode, p params.Circuit) *mat.Dense {
	if m == Parallel {
		return mat.NewDense(2, 2, []float64{
			-1 / (p.R * p.C), -1 / p.C,
			1 / p.L, -p.R / p.L,
		})
	}
	return mat.NewDense(2, 2, []float64{
		0, -1 / p.C,
		1 / p.L, 0,
	})
}

// Characterize 由特征值求振荡频率与衰减率
func Characterize(m Mode, p params.Circuit) (Oscillation, error) {
	if err := p.Validate(); err != nil {
		return Oscillation{}, err
	}
	if m == Parallel && p.R == 0 {
		return Oscillation{}, params.Invalid("R", p.R, "must be > 0 for the parallel topology")
	}
	var eig mat.Eigen
	if ok := eig.Factorize(SystemMatrix(m, p), mat.EigenNone); !ok {
		return Oscillation{}, errors.New("model: eigen decomposition failed")
	}
	values := eig.Values(nil)

	osc := Oscillation{Eigenvalues: values, Decay: math.Inf(1), QuarterPeriod: math.Inf(1)}
	for _, v := range values {
		osc.Omega = math.Max(osc.Omega, math.Abs(imag(v)))
		osc.Decay = math.Min(osc.Decay, -real(v))
	}
	// 数值上的纯虚根
	if math.Abs(osc.Decay) <= 1e-9*cmplx.Abs(values[0]) {
		osc.Decay = 0
	}
	if osc.Omega > 0 {
		osc.QuarterPeriod = math.Pi / (2 * osc.Omega)
	}
	return osc, nil
}
