package ode

import (
	"fmt"
	"math"
	"sort"
)

// Solve 在 [t0, t1] 上积分 dy/dt = f(t, y), y(t0) = y0
// 终止事件触发时积分停在过零点，最后一个输出点即事件时刻（无论是否设置 Eval）
func Solve(f Func, t0, t1 float64, y0 []float64, cfg Config, events ...Event) (*Solution, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: nil derivative", ErrInvalidConfig)
	}
	if !(t1 > t0) || math.IsInf(t0, 0) || math.IsInf(t1, 0) {
		return nil, fmt.Errorf("%w: time span [%g, %g]", ErrInvalidConfig, t0, t1)
	}
	if len(y0) == 0 {
		return nil, fmt.Errorf("%w: empty initial state", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.Eval) > 0 && (cfg.Eval[0] < t0 || cfg.Eval[len(cfg.Eval)-1] > t1) {
		return nil, fmt.Errorf("%w: eval points outside [%g, %g]", ErrInvalidConfig, t0, t1)
	}
	for i, ev := range events {
		if ev.Func == nil {
			return nil, fmt.Errorf("%w: event %d has nil function", ErrInvalidConfig, i)
		}
	}
	if !finite(y0) {
		return nil, fail(ErrNonFinite, 0, t0, y0)
	}

	n := len(y0)
	st := newStepper(f, n)
	sol := &Solution{}
	t := t0
	y := append([]float64(nil), y0...)
	st.eval(t, y, st.k[0])
	if !finite(st.k[0]) {
		return nil, fail(ErrNonFinite, 0, t, y)
	}

	// 输出起点
	eval := cfg.Eval
	if len(eval) == 0 {
		sol.record(t, y)
	} else if eval[0] == t0 {
		sol.record(t, y)
		eval = eval[1:]
	}

	// 事件初值
	g := make([]float64, len(events))
	for i, ev := range events {
		g[i] = ev.Func(t, y)
	}
	gNew := make([]float64, len(events))

	h := cfg.InitialStep
	if h == 0 {
		h = st.initialStep(t0, t1, y0, cfg.RelTol, cfg.AbsTol)
	}
	if cfg.MaxStep > 0 {
		h = math.Min(h, cfg.MaxStep)
	}
	attempts := 0
	rejected := false

	for t < t1 {
		minStep := math.Max(cfg.MinStep, 10*(math.Nextafter(t, math.Inf(1))-t))
		if h < minStep {
			h = minStep
		}

		// 试算直到误差可接受
		var tNew float64
		for {
			attempts++
			if attempts > cfg.MaxSteps {
				return nil, fail(ErrMaxSteps, sol.Steps, t, y)
			}
			if h < minStep {
				return nil, fail(ErrStepTooSmall, sol.Steps, t, y)
			}
			tNew = t + h
			if tNew >= t1 || t1-tNew < minStep {
				tNew = t1
			}
			hs := tNew - t
			errNorm := st.step(t, hs, y, cfg.RelTol, cfg.AbsTol)
			if math.IsNaN(errNorm) || math.IsInf(errNorm, 0) {
				if !finite(st.yNew) {
					return nil, fail(ErrNonFinite, sol.Steps, t, y)
				}
				errNorm = math.Inf(1)
			}
			if errNorm < 1 {
				factor := maxFactor
				if errNorm > 0 {
					factor = math.Min(maxFactor, safety*math.Pow(errNorm, errorExponent))
				}
				if rejected {
					factor = math.Min(1, factor)
				}
				h = hs * factor
				rejected = false
				break
			}
			h = hs * math.Max(minFactor, safety*math.Pow(errNorm, errorExponent))
			rejected = true
			sol.Rejected++
		}
		if cfg.MaxStep > 0 {
			h = math.Min(h, cfg.MaxStep)
		}
		if !finite(st.yNew) || !finite(st.k[stages-1]) {
			return nil, fail(ErrNonFinite, sol.Steps, t, y)
		}
		sol.Steps++
		dense := st.interpolant(t, tNew-t, y)
		dense.t1 = tNew
		sol.dense = append(sol.dense, dense)

		// 事件检测
		for i, ev := range events {
			gNew[i] = ev.Func(tNew, st.yNew)
		}
		hits := sol.detect(events, g, gNew, dense, n)
		stop := -1
		for i, hit := range hits {
			if events[hit.Index].Terminal {
				stop = i
				break
			}
		}
		if stop >= 0 {
			hits = hits[:stop+1]
		}
		sol.Events = append(sol.Events, hits...)

		if stop >= 0 {
			// 截断在终止事件处
			hit := hits[stop]
			eval = sol.recordDense(dense, eval, hit.Time, false, n)
			sol.record(hit.Time, hit.State)
			dense.t1 = hit.Time
			sol.Outcome = StoppedAtEvent
			sol.Evaluations = st.evals
			return sol, nil
		}

		if len(cfg.Eval) == 0 {
			sol.record(tNew, st.yNew)
		} else {
			eval = sol.recordDense(dense, eval, tNew, true, n)
		}

		t = tNew
		copy(y, st.yNew)
		st.k[0], st.k[stages-1] = st.k[stages-1], st.k[0]
		g, gNew = gNew, g
	}

	sol.Outcome = Completed
	sol.Evaluations = st.evals
	return sol, nil
}

// record 追加输出点
func (s *Solution) record(t float64, y []float64) {
	s.T = append(s.T, t)
	s.Y = append(s.Y, append([]float64(nil), y...))
}

// recordDense 输出 eval 中不超过 until 的时间点（inclusive 决定是否包含 until），返回剩余点
func (s *Solution) recordDense(p *interpolant, eval []float64, until float64, inclusive bool, n int) []float64 {
	for len(eval) > 0 && (eval[0] < until || (inclusive && eval[0] == until)) {
		out := make([]float64, n)
		p.at(eval[0], out)
		s.T = append(s.T, eval[0])
		s.Y = append(s.Y, out)
		eval = eval[1:]
	}
	return eval
}

// detect 检查本步内的过零，返回按时间排序的事件
func (s *Solution) detect(events []Event, g, gNew []float64, p *interpolant, n int) []EventHit {
	var hits []EventHit
	for i, ev := range events {
		if !crossed(g[i], gNew[i], ev.Direction) {
			continue
		}
		root := locate(ev.Func, p, g[i], gNew[i], n)
		state := make([]float64, n)
		p.at(root, state)
		hits = append(hits, EventHit{Index: i, Name: ev.Name, Time: root, State: state})
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Time < hits[b].Time })
	return hits
}

// crossed 方向过滤：起点必须严格位于过零前一侧，起点恰为零不触发
func crossed(g, gNew float64, direction int) bool {
	down := g > 0 && gNew <= 0
	up := g < 0 && gNew >= 0
	switch {
	case direction < 0:
		return down
	case direction > 0:
		return up
	}
	return down || up
}
