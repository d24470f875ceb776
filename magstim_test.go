package magstim

import (
	"math"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"magstim/model"
	"magstim/ode"
	"magstim/params"
)

func quarterPeriod(p params.Circuit) float64 {
	return math.Pi / 2 * math.Sqrt(p.L*p.C)
}

func TestEventDriven(t *testing.T) {
	p := params.DefaultCircuit()
	res, err := New(p).Simulate()
	require.NoError(t, err)
	require.NotNil(t, res.Event)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, EventDriven, res.Strategy)

	// 第一次过零约在 70 µs
	assert.InEpsilon(t, quarterPeriod(p), res.Event.Time, 1e-2)
	assert.InEpsilon(t, 70e-6, res.Event.Time, 2e-2)
	assert.InDelta(t, 0, res.Event.State[model.VC], 1e-6)
	assert.InEpsilon(t, p.Vc0*math.Sqrt(p.C/p.L), res.Event.State[model.IL], 1e-2)

	require.Len(t, res.Segments, 2)
	first, second := res.Segments[0], res.Segments[1]
	assert.Equal(t, model.Series, first.Mode)
	assert.Equal(t, ode.StoppedAtEvent, first.Outcome)
	assert.Equal(t, model.Parallel, second.Mode)
	assert.Equal(t, ode.Completed, second.Outcome)
	assert.Equal(t, res.Event.Time, first.End)
	assert.Equal(t, first.End, second.Start)
	assert.Equal(t, first.Steps+second.Steps, res.Steps())
}

func TestTrajectoryContiguous(t *testing.T) {
	p := params.DefaultCircuit()
	for _, s := range []Strategy{EventDriven, InlineDispatch} {
		res, err := New(p, WithStrategy(s)).Simulate()
		require.NoError(t, err, s.String())
		tr := res.Trajectory
		require.NoError(t, tr.Validate(), s.String())
		assert.Equal(t, 0.0, tr.Start(), s.String())
		assert.Equal(t, p.TFinal, tr.End(), s.String())
		assert.Equal(t, p.Vc0, tr.Vc[0], s.String())
	}

	// 衔接点只出现一次且 Vc 精确为 0
	res, err := New(p).Simulate()
	require.NoError(t, err)
	n := 0
	for i, ti := range res.Trajectory.T {
		if ti == res.Event.Time {
			n++
			assert.Equal(t, 0.0, res.Trajectory.Vc[i])
			assert.Equal(t, res.Event.State[model.IL], res.Trajectory.Il[i])
		}
	}
	assert.Equal(t, 1, n)
}

func TestSeriesEnergyConserved(t *testing.T) {
	p := params.DefaultCircuit()
	res, err := New(p, WithTolerances(1e-10, 1e-10)).Simulate()
	require.NoError(t, err)
	require.NotNil(t, res.Event)

	e0 := 0.5 * p.C * p.Vc0 * p.Vc0
	energy := res.Energy()
	for i, ti := range res.Trajectory.T {
		if ti > res.Event.Time {
			break
		}
		assert.InEpsilon(t, e0, energy[i], 1e-6, "t=%g", ti)
	}
}

func TestParallelEnergyDecays(t *testing.T) {
	p := params.DefaultCircuit()
	res, err := New(p, WithTolerances(1e-10, 1e-10)).Simulate()
	require.NoError(t, err)
	require.NotNil(t, res.Event)

	e0 := 0.5 * p.C * p.Vc0 * p.Vc0
	energy := res.Energy()
	start := sort.SearchFloat64s(res.Trajectory.T, res.Event.Time)
	for i := start + 1; i < len(energy); i++ {
		assert.LessOrEqual(t, energy[i], energy[i-1]+1e-9*e0, "t=%g", res.Trajectory.T[i])
	}
	assert.Less(t, energy[len(energy)-1], 0.01*e0)
}

func TestZeroInitialVoltage(t *testing.T) {
	p := params.DefaultCircuit()
	p.Vc0 = 0

	// 静止
	res, err := New(p).Simulate()
	require.NoError(t, err)
	assert.Nil(t, res.Event)
	require.Len(t, res.Segments, 1)
	assert.Equal(t, ode.Completed, res.Segments[0].Outcome)
	assert.Equal(t, p.TFinal, res.Trajectory.End())

	assert.Equal(t, model.Parallel, res.Segments[0].Mode)
}

func TestDiodeConductingAtStart(t *testing.T) {
	p := params.DefaultCircuit()
	p.Vc0 = 0
	p.Il0 = 100
	opts := []Option{WithTolerances(1e-9, 1e-9), WithSamples(41)}
	event, err := New(p, opts...).Simulate()
	require.NoError(t, err)
	inline, err := New(p, append(opts, WithStrategy(InlineDispatch))...).Simulate()
	require.NoError(t, err)

	// 二极管从起点导通，只有一段 PARALLEL，不出现过零
	require.Len(t, event.Segments, 1)
	assert.Equal(t, model.Parallel, event.Segments[0].Mode)
	assert.Equal(t, ode.Completed, event.Segments[0].Outcome)
	assert.Nil(t, event.Event)
	assert.Nil(t, inline.Event)
	assert.Equal(t, model.Parallel, inline.Segments[0].Mode)

	require.Equal(t, inline.Trajectory.Len(), event.Trajectory.Len())
	for i, ti := range event.Trajectory.T {
		assert.LessOrEqual(t, event.Trajectory.Vc[i], 0.0, "t=%g", ti)
		assert.InDelta(t, inline.Trajectory.Vc[i], event.Trajectory.Vc[i], 1e-3, "t=%g", ti)
		assert.InDelta(t, inline.Trajectory.Il[i], event.Trajectory.Il[i], 1e-3, "t=%g", ti)
	}
	last := event.Trajectory.Len() - 1
	assert.Less(t, math.Abs(event.Trajectory.Il[last]), 1.0)

	// 负初始电压同样直接进入 PARALLEL
	p.Vc0, p.Il0 = -50, 0
	res, err := New(p).Simulate()
	require.NoError(t, err)
	require.Len(t, res.Segments, 1)
	assert.Equal(t, model.Parallel, res.Segments[0].Mode)
}

func TestZeroResistance(t *testing.T) {
	p := params.DefaultCircuit()
	p.R = 0
	p.TFinal = 50e-6

	// 终止时间早于过零，PARALLEL 不可达
	res, err := New(p).Simulate()
	require.NoError(t, err)
	assert.Nil(t, res.Event)
	require.Len(t, res.Segments, 1)
	assert.Equal(t, model.Series, res.Segments[0].Mode)

	_, err = New(p, WithStrategy(InlineDispatch)).Simulate()
	assert.ErrorIs(t, err, params.ErrInvalidParameter)

	p.TFinal = 400e-6
	_, err = New(p).Simulate()
	assert.ErrorIs(t, err, params.ErrInvalidParameter)
	assert.True(t, strings.HasPrefix(err.Error(), "segment 2 (parallel)"), err.Error())
}

func TestInlineMatchesEventDriven(t *testing.T) {
	p := params.DefaultCircuit()
	opts := []Option{WithTolerances(1e-8, 1e-8), WithSamples(401)}
	event, err := New(p, append(opts, WithStrategy(EventDriven))...).Simulate()
	require.NoError(t, err)
	inline, err := New(p, append(opts, WithStrategy(InlineDispatch))...).Simulate()
	require.NoError(t, err)

	require.NotNil(t, inline.Event)
	require.Len(t, inline.Segments, 1)
	assert.InEpsilon(t, event.Event.Time, inline.Event.Time, 1e-4)
	assert.Equal(t, 401, inline.Trajectory.Len())
	assert.Equal(t, 402, event.Trajectory.Len())

	_, peak := event.Trajectory.PeakCurrent()
	for i, ti := range inline.Trajectory.T {
		j := sort.SearchFloat64s(event.Trajectory.T, ti)
		require.Less(t, j, event.Trajectory.Len())
		require.Equal(t, ti, event.Trajectory.T[j])
		assert.InDelta(t, event.Trajectory.Vc[j], inline.Trajectory.Vc[i], 1e-3*p.Vc0, "t=%g", ti)
		assert.InDelta(t, event.Trajectory.Il[j], inline.Trajectory.Il[i], 1e-3*math.Abs(peak), "t=%g", ti)
	}
}

func TestSamples(t *testing.T) {
	p := params.DefaultCircuit()
	res, err := New(p, WithSamples(5)).Simulate()
	require.NoError(t, err)
	require.NotNil(t, res.Event)

	want := []float64{0, res.Event.Time, 100e-6, 200e-6, 300e-6, 400e-6}
	assert.InDeltaSlice(t, want, res.Trajectory.T, 1e-15)
	assert.Equal(t, 0.0, res.Trajectory.Vc[1])

	res, err = New(p, WithSamples(5), WithStrategy(InlineDispatch)).Simulate()
	require.NoError(t, err)
	assert.Equal(t, 5, res.Trajectory.Len())
}

func TestFirstModeParallel(t *testing.T) {
	p := params.DefaultCircuit()
	res, err := New(p, WithFirstMode(model.Parallel), WithTolerances(1e-10, 1e-10)).Simulate()
	require.NoError(t, err)
	require.NotNil(t, res.Event)
	require.Len(t, res.Segments, 2)
	assert.Equal(t, model.Parallel, res.Segments[0].Mode)
	assert.Equal(t, model.Series, res.Segments[1].Mode)

	// 过阻尼：Vc = a·e^(λ1·t) + b·e^(λ2·t)
	osc, err := model.Characterize(model.Parallel, p)
	require.NoError(t, err)
	l1 := math.Max(real(osc.Eigenvalues[0]), real(osc.Eigenvalues[1]))
	l2 := math.Min(real(osc.Eigenvalues[0]), real(osc.Eigenvalues[1]))
	dvc := -(p.Il0 + p.Vc0/p.R) / p.C
	a := (dvc - l2*p.Vc0) / (l1 - l2)
	b := p.Vc0 - a
	want := math.Log(-b/a) / (l1 - l2)
	assert.InEpsilon(t, want, res.Event.Time, 1e-4)
}

func TestSimulateErrors(t *testing.T) {
	cases := []struct {
		name string
		edit func(*params.Circuit)
		opts []Option
		want error
	}{
		{"zero capacitance", func(p *params.Circuit) { p.C = 0 }, nil, params.ErrInvalidParameter},
		{"negative inductance", func(p *params.Circuit) { p.L = -1 }, nil, params.ErrInvalidParameter},
		{"zero resistance", func(p *params.Circuit) { p.R = 0 }, nil, params.ErrInvalidParameter},
		{"zero t_final", func(p *params.Circuit) { p.TFinal = 0 }, nil, params.ErrInvalidParameter},
		{"one sample", func(*params.Circuit) {}, []Option{WithSamples(1)}, ode.ErrInvalidConfig},
		{"bad tolerance", func(*params.Circuit) {}, []Option{WithTolerances(0, 1e-6)}, ode.ErrInvalidConfig},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := params.DefaultCircuit()
			c.edit(&p)
			res, err := New(p, c.opts...).Simulate()
			assert.ErrorIs(t, err, c.want)
			assert.Nil(t, res)
		})
	}
}

func TestIntegrationFailure(t *testing.T) {
	cfg := ode.DefaultConfig()
	cfg.MaxSteps = 3
	res, err := New(params.DefaultCircuit(), WithSolver(cfg)).Simulate()
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ode.ErrIntegrationFailure)
	assert.ErrorIs(t, err, ode.ErrMaxSteps)
	assert.True(t, strings.HasPrefix(err.Error(), "segment 1 (series)"), err.Error())
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("Inline")
	require.NoError(t, err)
	assert.Equal(t, InlineDispatch, s)
	s, err = ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, EventDriven, s)
	_, err = ParseStrategy("rk4")
	assert.Error(t, err)
}

func TestNewFromConfig(t *testing.T) {
	cfg, err := params.Parse([]byte(`
circuit:
  r: 85m
  t_final: 200u
solver:
  rtol: 1e-6
  atol: 1e-9
  samples: 11
  strategy: inline
`))
	require.NoError(t, err)
	sim, err := NewFromConfig(cfg)
	require.NoError(t, err)
	assert.InDelta(t, 0.085, sim.Params().R, 1e-15)
	assert.Equal(t, 180e-6, sim.Params().C)

	res, err := sim.Simulate()
	require.NoError(t, err)
	assert.Equal(t, InlineDispatch, res.Strategy)
	assert.Equal(t, 11, res.Trajectory.Len())
	assert.InDelta(t, 200e-6, res.Trajectory.End(), 1e-18)

	cfg.Solver.FirstMode = "bridge"
	_, err = NewFromConfig(cfg)
	assert.Error(t, err)
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	_, err := New(params.DefaultCircuit(), WithLogger(zap.New(core))).Simulate()
	require.NoError(t, err)

	turnOn := logs.FilterMessage("diode turn-on").All()
	require.Len(t, turnOn, 1)
	assert.Contains(t, turnOn[0].ContextMap(), "t_event")
	assert.Contains(t, turnOn[0].ContextMap(), "run")
	assert.Equal(t, 2, logs.FilterMessage("segment integrated").Len())
}
