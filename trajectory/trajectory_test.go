package trajectory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromStates(t *testing.T) {
	tr, err := FromStates([]float64{0, 1, 2}, [][]float64{{10, 0}, {5, 1}, {0, 2}})
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 5, 0}, tr.Vc)
	assert.Equal(t, []float64{0, 1, 2}, tr.Il)
	assert.Equal(t, 3, tr.Len())

	_, err = FromStates([]float64{0, 1}, [][]float64{{1, 1}})
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = FromStates([]float64{0, 0}, [][]float64{{1, 1}, {1, 1}})
	assert.ErrorIs(t, err, ErrNotMonotonic)

	_, err = FromStates(nil, nil)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestAssemble(t *testing.T) {
	first := Trajectory{
		T:  []float64{0, 1, 2},
		Vc: []float64{9, 4, 1e-12},
		Il: []float64{0, 3, 5},
	}
	second := Trajectory{
		T:  []float64{2, 3, 4},
		Vc: []float64{0, -1, -2},
		Il: []float64{5, 4, 3},
	}
	tr, err := Assemble(first, second)
	require.NoError(t, err)

	// 边界只保留一个采样点，取后一段
	assert.Equal(t, []float64{0, 1, 2, 3, 4}, tr.T)
	assert.Equal(t, []float64{9, 4, 0, -1, -2}, tr.Vc)
	assert.Equal(t, []float64{0, 3, 5, 4, 3}, tr.Il)
	assert.Equal(t, 0.0, tr.Start())
	assert.Equal(t, 4.0, tr.End())

	// 原始分段不受影响
	assert.Equal(t, 1e-12, first.Vc[2])

	single, err := Assemble(first)
	require.NoError(t, err)
	assert.Equal(t, first, single)
}

func TestAssembleErrors(t *testing.T) {
	a := Trajectory{T: []float64{0, 1}, Vc: []float64{1, 1}, Il: []float64{0, 0}}

	gap := Trajectory{T: []float64{1.5, 2}, Vc: []float64{0, 0}, Il: []float64{0, 0}}
	_, err := Assemble(a, gap)
	assert.ErrorIs(t, err, ErrDiscontiguous)

	overlap := Trajectory{T: []float64{0.5, 2}, Vc: []float64{0, 0}, Il: []float64{0, 0}}
	_, err = Assemble(a, overlap)
	assert.ErrorIs(t, err, ErrDiscontiguous)

	ragged := Trajectory{T: []float64{1, 2}, Vc: []float64{0}, Il: []float64{0, 0}}
	_, err = Assemble(a, ragged)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = Assemble()
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestSummaries(t *testing.T) {
	tr := Trajectory{
		T:  []float64{0, 1e-6, 2e-6, 3e-6},
		Vc: []float64{900, 300, -50, -10},
		Il: []float64{0, 2000, 2600, -3000},
	}
	at, peak := tr.PeakCurrent()
	assert.Equal(t, 3e-6, at)
	assert.Equal(t, -3000.0, peak)

	lo, hi := tr.VoltageRange()
	assert.Equal(t, -50.0, lo)
	assert.Equal(t, 900.0, hi)

	us := tr.MicroSeconds()
	assert.InDeltaSlice(t, []float64{0, 1, 2, 3}, us, 1e-9)

	e := tr.Energy(2, 4)
	assert.InDelta(t, 0.5*2*900*900, e[0], 1e-9)
	assert.InDelta(t, 0.5*2*300*300+0.5*4*2000*2000, e[1], 1e-6)
}
