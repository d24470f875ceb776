// Package magstim 磁刺激器 RLC 放电回路的分段仿真
//
// 电容电压向下过零时二极管导通，回路由 SERIES 切换为 PARALLEL。
// 默认以终止事件截断第一段积分，再以 Vc = 0 从事件时刻继续第二段。
package magstim

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"magstim/model"
	"magstim/ode"
	"magstim/params"
	"magstim/trajectory"
)

// Strategy 拓扑切换方式
type Strategy int

const (
	EventDriven    Strategy = iota // 终止事件分段积分
	InlineDispatch                 // 单次积分，求导时按 Vc 符号选择拓扑
)

func (s Strategy) String() string {
	switch s {
	case EventDriven:
		return "event"
	case InlineDispatch:
		return "inline"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy 解析切换方式名称
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "event", "event-driven", "":
		return EventDriven, nil
	case "inline", "dispatch", "inline-dispatch":
		return InlineDispatch, nil
	}
	return EventDriven, fmt.Errorf("unknown strategy %q", name)
}

// EventName 二极管导通事件
const EventName = "diode turn-on"

// EventRecord 第一次向下过零
type EventRecord struct {
	Time  float64   // 过零时间 (s)
	State []float64 // 过零时刻状态 [Vc, Il]
}

// SegmentInfo 单段积分统计
type SegmentInfo struct {
	Mode        model.Mode  // 拓扑（InlineDispatch 时为起始拓扑）
	Outcome     ode.Outcome // 结束方式
	Start       float64     // 起始时间
	End         float64     // 结束时间
	Steps       int         // 接受步数
	Rejected    int         // 拒绝步数
	Evaluations int         // 求导次数
}

// Result 一次仿真的结果
type Result struct {
	RunID      string
	Params     params.Circuit
	Strategy   Strategy
	Trajectory trajectory.Trajectory
	Event      *EventRecord // 无过零时为 nil
	Segments   []SegmentInfo
}

// Energy 各采样点储能
func (r *Result) Energy() []float64 {
	return r.Trajectory.Energy(r.Params.C, r.Params.L)
}

// Steps 各段接受步数之和
func (r *Result) Steps() int {
	n := 0
	for _, s := range r.Segments {
		n += s.Steps
	}
	return n
}

// Option 仿真选项
type Option func(*Simulator)

// WithStrategy 设置切换方式
func WithStrategy(s Strategy) Option {
	return func(sim *Simulator) { sim.strategy = s }
}

// WithFirstMode 设置第一段拓扑，第二段为其补
func WithFirstMode(m model.Mode) Option {
	return func(sim *Simulator) { sim.first = m }
}

// WithSolver 替换积分器设置（Eval 由 WithSamples 决定，此处忽略）
func WithSolver(cfg ode.Config) Option {
	return func(sim *Simulator) {
		cfg.Eval = nil
		sim.solver = cfg
	}
}

// WithTolerances 设置相对/绝对容差
func WithTolerances(rtol, atol float64) Option {
	return func(sim *Simulator) {
		sim.solver.RelTol, sim.solver.AbsTol = rtol, atol
	}
}

// WithSamples 在 [0, TFinal] 上按 n 个等间隔时间点输出，0 表示输出每个接受步
func WithSamples(n int) Option {
	return func(sim *Simulator) { sim.samples = n }
}

// WithLogger 设置日志
func WithLogger(log *zap.Logger) Option {
	return func(sim *Simulator) {
		if log != nil {
			sim.log = log
		}
	}
}

// Simulator 分段积分器
type Simulator struct {
	params   params.Circuit
	strategy Strategy
	first    model.Mode
	solver   ode.Config
	samples  int
	log      *zap.Logger
}

// New 初始化
func New(p params.Circuit, opts ...Option) *Simulator {
	sim := &Simulator{
		params:   p,
		strategy: EventDriven,
		first:    model.Series,
		solver:   ode.DefaultConfig(),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(sim)
	}
	return sim
}

// NewFromConfig 由配置文件构造，opts 在配置之后应用
func NewFromConfig(cfg *params.Config, opts ...Option) (*Simulator, error) {
	p, err := cfg.Circuit.Resolve(params.DefaultCircuit())
	if err != nil {
		return nil, err
	}
	solver := ode.DefaultConfig()
	solver.RelTol, solver.AbsTol, err = cfg.Solver.Tolerances(solver.RelTol, solver.AbsTol)
	if err != nil {
		return nil, err
	}
	if cfg.Solver.MaxSteps > 0 {
		solver.MaxSteps = cfg.Solver.MaxSteps
	}
	strategy, err := ParseStrategy(cfg.Solver.Strategy)
	if err != nil {
		return nil, fmt.Errorf("solver.strategy: %w", err)
	}
	first, err := model.ParseMode(cfg.Solver.FirstMode)
	if err != nil {
		return nil, fmt.Errorf("solver.first_mode: %w", err)
	}
	base := []Option{
		WithSolver(solver),
		WithStrategy(strategy),
		WithFirstMode(first),
		WithSamples(cfg.Solver.Samples),
	}
	return New(p, append(base, opts...)...), nil
}

// Params 仿真参数
func (sim *Simulator) Params() params.Circuit { return sim.params }
