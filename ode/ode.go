// Package ode 初值问题求解：自适应 Dormand-Prince 5(4)，支持稠密输出与过零事件
package ode

import (
	"fmt"
	"math"
	"sort"
)

// Func 状态导数 dy = f(t, y)，结果写入 dy
type Func func(t float64, y, dy []float64)

// Outcome 积分结束方式
type Outcome int

const (
	Completed      Outcome = iota // 到达终止时间
	StoppedAtEvent                // 终止事件触发
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case StoppedAtEvent:
		return "stopped at event"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Event 过零事件
// Direction: -1 仅正->负触发，+1 仅负->正触发，0 双向
type Event struct {
	Name      string
	Func      func(t float64, y []float64) float64
	Terminal  bool
	Direction int
}

// EventHit 已触发的事件
type EventHit struct {
	Index int       // 事件在 Solve 参数中的序号
	Name  string    // 事件名称
	Time  float64   // 过零时间
	State []float64 // 过零时刻状态（稠密输出插值）
}

// Config 积分器设置
type Config struct {
	RelTol      float64   // 相对容差
	AbsTol      float64   // 绝对容差
	InitialStep float64   // 初始步长，0 表示自动选择
	MinStep     float64   // 最小步长，0 表示仅受浮点精度限制
	MaxStep     float64   // 最大步长，0 表示不限制
	MaxSteps    int       // 最大尝试步数（含被拒绝的步）
	Eval        []float64 // 输出时间点，空表示输出每个接受的步
}

// DefaultConfig 默认设置（rtol=1e-3, atol=1e-6）
func DefaultConfig() Config {
	return Config{
		RelTol:   defaultRelTol,
		AbsTol:   defaultAbsTol,
		MaxSteps: defaultMaxSteps,
	}
}

// Validate 校验设置
func (c Config) Validate() error {
	switch {
	case !(c.RelTol > 0) || math.IsInf(c.RelTol, 0):
		return fmt.Errorf("%w: rtol=%g", ErrInvalidConfig, c.RelTol)
	case !(c.AbsTol > 0) || math.IsInf(c.AbsTol, 0):
		return fmt.Errorf("%w: atol=%g", ErrInvalidConfig, c.AbsTol)
	case c.InitialStep < 0, c.MinStep < 0, c.MaxStep < 0:
		return fmt.Errorf("%w: negative step bound", ErrInvalidConfig)
	case c.MaxStep > 0 && c.MinStep > c.MaxStep:
		return fmt.Errorf("%w: min step %g > max step %g", ErrInvalidConfig, c.MinStep, c.MaxStep)
	case c.MaxSteps <= 0:
		return fmt.Errorf("%w: max steps %d", ErrInvalidConfig, c.MaxSteps)
	}
	if !sort.Float64sAreSorted(c.Eval) {
		return fmt.Errorf("%w: eval points not sorted", ErrInvalidConfig)
	}
	for i := 1; i < len(c.Eval); i++ {
		if c.Eval[i] == c.Eval[i-1] {
			return fmt.Errorf("%w: duplicate eval point %g", ErrInvalidConfig, c.Eval[i])
		}
	}
	return nil
}

// Solution 积分结果
type Solution struct {
	T           []float64   // 输出时间点
	Y           [][]float64 // 对应状态
	Outcome     Outcome     // 结束方式
	Events      []EventHit  // 按时间排序的事件记录
	Steps       int         // 接受的步数
	Rejected    int         // 被拒绝的步数
	Evaluations int         // 导数调用次数

	dense []*interpolant
}

// Start 第一个输出时间
func (s *Solution) Start() float64 { return s.T[0] }

// End 最后一个输出时间（事件终止时为事件时间）
func (s *Solution) End() float64 { return s.T[len(s.T)-1] }

// Terminal 返回终止事件
func (s *Solution) Terminal() (EventHit, bool) {
	if s.Outcome != StoppedAtEvent || len(s.Events) == 0 {
		return EventHit{}, false
	}
	return s.Events[len(s.Events)-1], true
}

// At 稠密输出：返回积分区间内任意时刻的状态
func (s *Solution) At(t float64) ([]float64, error) {
	if len(s.dense) == 0 {
		if len(s.T) > 0 && t == s.T[0] {
			return append([]float64(nil), s.Y[0]...), nil
		}
		return nil, fmt.Errorf("%w: t=%g outside solution", ErrOutOfRange, t)
	}
	start, end := s.dense[0].t0, s.dense[len(s.dense)-1].t1
	if t < start || t > end {
		return nil, fmt.Errorf("%w: t=%g outside [%g, %g]", ErrOutOfRange, t, start, end)
	}
	i := sort.Search(len(s.dense), func(i int) bool { return s.dense[i].t1 >= t })
	if i == len(s.dense) {
		i--
	}
	out := make([]float64, len(s.Y[0]))
	s.dense[i].at(t, out)
	return out, nil
}
