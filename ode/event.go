package ode

import "math"

const maxRootIter = 100

// locate 在单步稠密输出上定位过零时间（Illinois 改进的试位法）
// 返回括号中已越过零点的一端，保证事件函数在返回时刻已变号或为零
func locate(fn func(t float64, y []float64) float64, p *interpolant, ga, gb float64, n int) float64 {
	a, b := p.t0, p.t1
	if gb == 0 {
		return b
	}
	y := make([]float64, n)
	side := 0
	for iter := 0; iter < maxRootIter; iter++ {
		if b-a <= 4*ulp(math.Max(math.Abs(a), math.Abs(b))) {
			break
		}
		c := (a*gb - b*ga) / (gb - ga)
		if !(c > a && c < b) {
			c = a + (b-a)/2
		}
		p.at(c, y)
		gc := fn(c, y)
		if gc == 0 {
			return c
		}
		if (gc > 0) == (ga > 0) {
			a, ga = c, gc
			if side == -1 {
				gb /= 2
			}
			side = -1
		} else {
			b, gb = c, gc
			if side == 1 {
				ga /= 2
			}
			side = 1
		}
	}
	return b
}

func ulp(x float64) float64 {
	return math.Nextafter(x, math.Inf(1)) - x
}
