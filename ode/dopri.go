package ode

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// 常量定义（步长控制）
const (
	defaultAbsTol   = 1e-6   // 默认绝对误差容差
	defaultRelTol   = 1e-3   // 默认相对误差容差
	defaultMaxSteps = 100000 // 默认最大步数
	safety          = 0.9    // 步长调整安全系数
	minFactor       = 0.2    // 最小步长缩减倍数
	maxFactor       = 10.0   // 最大步长增长倍数
	errorOrder      = 4      // 嵌入误差估计阶数
	errorExponent   = -1.0 / (errorOrder + 1)
	stages          = 7
)

// Dormand-Prince 5(4) 系数
var (
	dpC = [stages]float64{0, 1.0 / 5, 3.0 / 10, 4.0 / 5, 8.0 / 9, 1, 1}
	dpA = [stages][]float64{
		{},
		{1.0 / 5},
		{3.0 / 40, 9.0 / 40},
		{44.0 / 45, -56.0 / 15, 32.0 / 9},
		{19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729},
		{9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656},
		{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84},
	}
	dpB = [stages]float64{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84, 0}
	// 误差系数 B - Bhat
	dpE = [stages]float64{71.0 / 57600, 0, -71.0 / 16695, 71.0 / 1920, -17253.0 / 339200, 22.0 / 525, -1.0 / 40}
	// 4 阶连续扩展
	dpP = [stages][4]float64{
		{1, -8048581381.0 / 2820520608, 8663915743.0 / 2820520608, -12715105075.0 / 11282082432},
		{0, 0, 0, 0},
		{0, 131558114200.0 / 32700410799, -68118460800.0 / 10900136933, 87487479700.0 / 32700410799},
		{0, -1754552775.0 / 470086768, 14199869525.0 / 1410260304, -10690763975.0 / 1880347072},
		{0, 127303824393.0 / 49829197408, -318862633887.0 / 49829197408, 701980252875.0 / 199316789632},
		{0, -282668133.0 / 205662961, 2019193451.0 / 616988883, -1453857185.0 / 822651844},
		{0, 40617522.0 / 29380423, -110615467.0 / 29380423, 69997945.0 / 29380423},
	}
)

// stepper 单步计算缓存
type stepper struct {
	f     Func
	n     int
	k     [stages][]float64 // 各级导数，k[0] 为起点导数，k[6] 为终点导数 (FSAL)
	tmp   []float64
	yNew  []float64
	err   []float64
	evals int
}

func newStepper(f Func, n int) *stepper {
	s := &stepper{f: f, n: n, tmp: make([]float64, n), yNew: make([]float64, n), err: make([]float64, n)}
	for i := range s.k {
		s.k[i] = make([]float64, n)
	}
	return s
}

func (s *stepper) eval(t float64, y, dy []float64) {
	s.f(t, y, dy)
	s.evals++
}

// step 从 (t, y) 试算步长 h，结果在 s.yNew，返回误差范数
func (s *stepper) step(t, h float64, y []float64, rtol, atol float64) float64 {
	for i := 1; i < stages; i++ {
		copy(s.tmp, y)
		for j, a := range dpA[i] {
			if a != 0 {
				floats.AddScaled(s.tmp, h*a, s.k[j])
			}
		}
		if i == stages-1 {
			// 最后一行即 5 阶解
			copy(s.yNew, s.tmp)
		}
		s.eval(t+dpC[i]*h, s.tmp, s.k[i])
	}
	// 误差估计
	for i := range s.err {
		s.err[i] = 0
	}
	for j, e := range dpE {
		if e != 0 {
			floats.AddScaled(s.err, h*e, s.k[j])
		}
	}
	for i := range s.err {
		scale := atol + rtol*math.Max(math.Abs(y[i]), math.Abs(s.yNew[i]))
		s.err[i] /= scale
	}
	return rms(s.err)
}

// interpolant 构造 [t, t+h] 上的稠密输出
func (s *stepper) interpolant(t, h float64, y []float64) *interpolant {
	p := &interpolant{t0: t, t1: t + h, h: h, y0: append([]float64(nil), y...), q: make([][4]float64, s.n)}
	for i := 0; i < s.n; i++ {
		for j := 0; j < 4; j++ {
			var sum float64
			for st := 0; st < stages; st++ {
				sum += s.k[st][i] * dpP[st][j]
			}
			p.q[i][j] = sum
		}
	}
	return p
}

// initialStep 自动选择初始步长
func (s *stepper) initialStep(t0, t1 float64, y0 []float64, rtol, atol float64) float64 {
	f0 := s.k[0]
	scale := make([]float64, s.n)
	for i := range scale {
		scale[i] = atol + math.Abs(y0[i])*rtol
	}
	d0 := scaledNorm(y0, scale)
	d1 := scaledNorm(f0, scale)
	var h0 float64
	if d0 < 1e-5 || d1 < 1e-5 {
		h0 = 1e-6
	} else {
		h0 = 0.01 * d0 / d1
	}
	h0 = math.Min(h0, t1-t0)

	y1 := make([]float64, s.n)
	floats.AddScaledTo(y1, y0, h0, f0)
	f1 := make([]float64, s.n)
	s.eval(t0+h0, y1, f1)
	floats.Sub(f1, f0)
	d2 := scaledNorm(f1, scale) / h0

	var h1 float64
	if d1 <= 1e-15 && d2 <= 1e-15 {
		h1 = math.Max(1e-6, h0*1e-3)
	} else {
		h1 = math.Pow(0.01/math.Max(d1, d2), 1.0/(errorOrder+1))
	}
	return math.Min(100*h0, h1)
}

// interpolant 单步稠密输出多项式
type interpolant struct {
	t0, t1, h float64
	y0        []float64
	q         [][4]float64
}

func (p *interpolant) at(t float64, out []float64) {
	x := (t - p.t0) / p.h
	for i := range out {
		q := p.q[i]
		out[i] = p.y0[i] + p.h*x*(q[0]+x*(q[1]+x*(q[2]+x*q[3])))
	}
}

func rms(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return floats.Norm(v, 2) / math.Sqrt(float64(len(v)))
}

func scaledNorm(v, scale []float64) float64 {
	tmp := make([]float64, len(v))
	floats.DivTo(tmp, v, scale)
	return rms(tmp)
}

func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
