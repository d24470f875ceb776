package magstim

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"magstim/model"
	"magstim/ode"
	"magstim/params"
	"magstim/trajectory"
)

// Simulate 进行仿真
// 参数不合法或积分失败时返回错误，不返回部分结果
func (sim *Simulator) Simulate() (*Result, error) {
	p := sim.params
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if sim.first != model.Series && sim.first != model.Parallel {
		return nil, fmt.Errorf("%w: first mode %s", ode.ErrInvalidConfig, sim.first)
	}
	grid, err := sampleGrid(sim.samples, p.TFinal)
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:    uuid.NewString(),
		Params:   p,
		Strategy: sim.strategy,
	}
	log := sim.log.With(zap.String("run", res.RunID))
	log.Info("simulation started",
		zap.Stringer("strategy", sim.strategy),
		zap.Stringer("first_mode", sim.first),
		zap.Float64("rtol", sim.solver.RelTol),
		zap.Float64("atol", sim.solver.AbsTol),
		zap.Int("samples", sim.samples),
		zap.Float64("t_final", p.TFinal),
	)

	var segments []trajectory.Trajectory
	switch sim.strategy {
	case EventDriven:
		segments, err = sim.eventDriven(res, grid, log)
	case InlineDispatch:
		segments, err = sim.inline(res, grid, log)
	default:
		err = fmt.Errorf("%w: strategy %s", ode.ErrInvalidConfig, sim.strategy)
	}
	if err != nil {
		log.Error("simulation failed", zap.Error(err))
		return nil, err
	}

	res.Trajectory, err = trajectory.Assemble(segments...)
	if err != nil {
		return nil, err
	}
	fields := []zap.Field{
		zap.Int("samples", res.Trajectory.Len()),
		zap.Int("segments", len(res.Segments)),
		zap.Int("steps", res.Steps()),
	}
	if res.Event != nil {
		fields = append(fields, zap.Float64("t_event", res.Event.Time))
	}
	log.Info("simulation finished", fields...)
	return res, nil
}

// eventDriven 第一段在过零处终止，第二段以 Vc = 0 接续
func (sim *Simulator) eventDriven(res *Result, grid []float64, log *zap.Logger) ([]trajectory.Trajectory, error) {
	p := sim.params
	event := ode.Event{Name: EventName, Func: capacitorVoltage, Terminal: true, Direction: -1}

	mode := sim.first
	y0 := []float64{p.Vc0, p.Il0}
	if mode == model.Series && model.Select(p.Vc0) == model.Parallel {
		// 二极管从起点即导通，整段 PARALLEL
		log.Debug("diode conducting at t=0", zap.Float64("vc0", p.Vc0))
		only, _, err := sim.segment(res, 1, model.Parallel, 0, y0, grid, log)
		if err != nil {
			return nil, err
		}
		return []trajectory.Trajectory{only}, nil
	}
	first, sol, err := sim.segment(res, 1, mode, 0, y0, grid, log, event)
	if err != nil {
		return nil, err
	}
	hit, ok := sol.Terminal()
	if !ok {
		log.Debug("no zero crossing before t_final")
		return []trajectory.Trajectory{first}, nil
	}
	res.Event = &EventRecord{Time: hit.Time, State: hit.State}
	log.Info("diode turn-on",
		zap.Float64("t_event", hit.Time),
		zap.Float64("vc", hit.State[model.VC]),
		zap.Float64("il", hit.State[model.IL]),
	)
	if hit.Time >= p.TFinal {
		return []trajectory.Trajectory{first}, nil
	}

	// 过零时刻电容电压取精确的 0
	y0 = []float64{0, hit.State[model.IL]}
	var eval []float64
	if grid != nil {
		eval = append([]float64{hit.Time}, grid[sort.SearchFloat64s(grid, hit.Time):]...)
		if len(eval) > 1 && eval[1] == hit.Time {
			eval = append(eval[:1], eval[2:]...)
		}
	}
	second, _, err := sim.segment(res, 2, mode.Complement(), hit.Time, y0, eval, log)
	if err != nil {
		return nil, err
	}
	return []trajectory.Trajectory{first, second}, nil
}

// inline 单段积分，非终止事件只用于记录第一次过零
func (sim *Simulator) inline(res *Result, grid []float64, log *zap.Logger) ([]trajectory.Trajectory, error) {
	p := sim.params
	if err := requireResistance(p); err != nil {
		return nil, fmt.Errorf("segment 1 (%s): %w", model.Select(p.Vc0), err)
	}
	cfg := sim.solver
	cfg.Eval = grid
	event := ode.Event{Name: EventName, Func: capacitorVoltage, Direction: -1}
	sol, err := ode.Solve(model.Dispatch(p), 0, p.TFinal, []float64{p.Vc0, p.Il0}, cfg, event)
	if err != nil {
		return nil, fmt.Errorf("segment 1 (%s): %w", model.Select(p.Vc0), err)
	}
	tr, err := sim.collect(res, 1, model.Select(p.Vc0), sol, log)
	if err != nil {
		return nil, err
	}
	if len(sol.Events) > 0 {
		hit := sol.Events[0]
		res.Event = &EventRecord{Time: hit.Time, State: hit.State}
		log.Info("diode turn-on",
			zap.Float64("t_event", hit.Time),
			zap.Int("crossings", len(sol.Events)),
		)
	}
	return []trajectory.Trajectory{tr}, nil
}

// segment 在 [t0, TFinal] 上以固定拓扑积分
func (sim *Simulator) segment(res *Result, n int, mode model.Mode, t0 float64, y0, eval []float64,
	log *zap.Logger, events ...ode.Event) (trajectory.Trajectory, *ode.Solution, error) {
	if mode == model.Parallel {
		if err := requireResistance(sim.params); err != nil {
			return trajectory.Trajectory{}, nil, fmt.Errorf("segment %d (%s): %w", n, mode, err)
		}
	}
	cfg := sim.solver
	cfg.Eval = eval
	sol, err := ode.Solve(model.Derivative(mode, sim.params), t0, sim.params.TFinal, y0, cfg, events...)
	if err != nil {
		return trajectory.Trajectory{}, nil, fmt.Errorf("segment %d (%s): %w", n, mode, err)
	}
	tr, err := sim.collect(res, n, mode, sol, log)
	return tr, sol, err
}

// collect 记录单段统计并转换为轨迹
func (sim *Simulator) collect(res *Result, n int, mode model.Mode, sol *ode.Solution, log *zap.Logger) (trajectory.Trajectory, error) {
	tr, err := trajectory.FromStates(sol.T, sol.Y)
	if err != nil {
		return trajectory.Trajectory{}, fmt.Errorf("segment %d (%s): %w", n, mode, err)
	}
	info := SegmentInfo{
		Mode:        mode,
		Outcome:     sol.Outcome,
		Start:       tr.Start(),
		End:         tr.End(),
		Steps:       sol.Steps,
		Rejected:    sol.Rejected,
		Evaluations: sol.Evaluations,
	}
	res.Segments = append(res.Segments, info)
	log.Debug("segment integrated",
		zap.Int("segment", n),
		zap.Stringer("mode", mode),
		zap.Stringer("outcome", sol.Outcome),
		zap.Float64("start", info.Start),
		zap.Float64("end", info.End),
		zap.Int("steps", info.Steps),
		zap.Int("rejected", info.Rejected),
	)
	return tr, nil
}

// requireResistance PARALLEL 方程含 Vc/R，进入该拓扑前要求 R > 0
func requireResistance(p params.Circuit) error {
	if p.R == 0 {
		return params.Invalid("R", p.R, "must be > 0 when the parallel topology is reachable")
	}
	return nil
}

// capacitorVoltage 事件函数 g(t, y) = Vc
func capacitorVoltage(_ float64, y []float64) float64 { return y[model.VC] }

// sampleGrid n 个等间隔时间点，末点精确为 tFinal
func sampleGrid(n int, tFinal float64) ([]float64, error) {
	switch {
	case n == 0:
		return nil, nil
	case n < 2:
		return nil, fmt.Errorf("%w: samples=%d, need at least 2", ode.ErrInvalidConfig, n)
	}
	grid := make([]float64, n)
	for i := range grid {
		grid[i] = tFinal * float64(i) / float64(n-1)
	}
	grid[n-1] = tFinal
	return grid, nil
}
