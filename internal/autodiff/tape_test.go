package autodiff

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gradtape/internal/numeric"
)

func TestTape_VariableAppendsEmptyRecord(t *testing.T) {
	tape := NewTape()
	x := tape.Variable(1.5)

	slot, ok := x.Slot()
	require.True(t, ok)
	assert.Equal(t, 0, slot)
	assert.Equal(t, 1, tape.Len())
	assert.Empty(t, tape.Dependencies(0))
}

func TestTape_ConstantDoesNotAppend(t *testing.T) {
	tape := NewTape()
	c := tape.Constant(2)

	assert.True(t, c.IsConstant())
	assert.Equal(t, 0, tape.Len())
}

func TestTape_ComposeDropsConstants(t *testing.T) {
	tape := NewTape()
	x := tape.Variable(2)
	c := tape.Constant(5)

	z := tape.Compose(10, numeric.Partial{Of: x, Value: 5}, numeric.Partial{Of: c, Value: 2})

	slot, ok := z.Slot()
	require.True(t, ok)
	assert.Equal(t, 1, slot)
	assert.Equal(t, []int{0}, tape.Dependencies(slot))
}

func TestTape_ComposeForeignSlotPanics(t *testing.T) {
	other := NewTape()
	other.Variable(1)
	foreign := other.Variable(2)

	tape := NewTape()
	var err error
	func() {
		defer numeric.Guard(&err)
		tape.Compose(1, numeric.Partial{Of: foreign, Value: 1})
	}()

	assert.ErrorIs(t, err, numeric.ErrInvalidDifferentiation)
}

func TestTape_StaleValueAfterReset(t *testing.T) {
	tape := NewTape()
	x := tape.Variable(1)
	tape.Compose(2, numeric.Partial{Of: x, Value: 2})
	tape.Reset()

	// The new tape is longer than x's slot, so only the generation tells them apart.
	a := tape.Variable(5)
	b := tape.Variable(6)
	c := tape.Compose(30, numeric.Partial{Of: a, Value: 6}, numeric.Partial{Of: b, Value: 5})

	_, err := tape.Diff(c, x)
	assert.ErrorIs(t, err, numeric.ErrInvalidDifferentiation)

	_, err = tape.Gradient(x)
	assert.ErrorIs(t, err, numeric.ErrInvalidDifferentiation)

	func() {
		defer numeric.Guard(&err)
		err = nil
		tape.Compose(1, numeric.Partial{Of: x, Value: 1})
	}()
	assert.ErrorIs(t, err, numeric.ErrInvalidDifferentiation)

	d, err := tape.Diff(c, a)
	require.NoError(t, err)
	assert.Equal(t, float32(6), d)
}

func TestTape_ValueFromAnotherTape(t *testing.T) {
	other := NewTape()
	foreign := other.Variable(1)

	tape := NewTape()
	y := tape.Compose(2, numeric.Partial{Of: tape.Variable(1), Value: 2})

	_, err := tape.Diff(y, foreign)
	assert.ErrorIs(t, err, numeric.ErrInvalidDifferentiation)
	_, err = tape.Gradient(foreign)
	assert.ErrorIs(t, err, numeric.ErrInvalidDifferentiation)
}

func TestTape_GradientOfConstantFails(t *testing.T) {
	tape := NewTape()
	_, err := tape.Gradient(tape.Constant(1))
	assert.ErrorIs(t, err, numeric.ErrInvalidDifferentiation)
}

func TestTape_DiffWithRespectToConstantIsZero(t *testing.T) {
	tape := NewTape()
	x := tape.Variable(3)
	y := tape.Compose(9, numeric.Partial{Of: x, Value: 6})

	for _, c := range []float32{-1, 0, 1, 42} {
		d, err := tape.Diff(y, tape.Constant(c))
		require.NoError(t, err)
		assert.Equal(t, float32(0), d)
	}
}

func TestTape_DiffIsMemoised(t *testing.T) {
	tape := NewTape()
	x := tape.Variable(3)
	y := tape.Compose(9, numeric.Partial{Of: x, Value: 6})

	first, err := tape.Diff(y, x)
	require.NoError(t, err)
	assert.Len(t, tape.gradients, 1)

	second, err := tape.Diff(y, x)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, tape.gradients, 1)
	assert.Equal(t, float32(3), x.Scalar)
	assert.Equal(t, float32(9), y.Scalar)
}

func TestTape_DiffOfLaterVariableIsZero(t *testing.T) {
	tape := NewTape()
	x := tape.Variable(1)
	y := tape.Compose(2, numeric.Partial{Of: x, Value: 2})
	later := tape.Variable(5)

	d, err := tape.Diff(y, later)
	require.NoError(t, err)
	assert.Equal(t, float32(0), d)
}

func TestTape_ResetClearsCache(t *testing.T) {
	tape := NewTape()
	x := tape.Variable(1)
	y := tape.Compose(2, numeric.Partial{Of: x, Value: 2})
	_, err := tape.Gradient(y)
	require.NoError(t, err)

	tape.Reset()

	assert.Equal(t, 0, tape.Len())
	assert.Empty(t, tape.gradients)
}

// buildRandomGraph composes n values from randomly chosen earlier values
// and constants.
func buildRandomGraph(tape *Tape, rng *rand.Rand, n int) []numeric.Number {
	values := []numeric.Number{tape.Variable(rng.Float32())}
	for len(values) < n {
		switch rng.IntN(4) {
		case 0:
			values = append(values, tape.Variable(rng.Float32()))
		default:
			arity := 1 + rng.IntN(3)
			partials := make([]numeric.Partial, arity)
			for i := range partials {
				of := values[rng.IntN(len(values))]
				if rng.IntN(5) == 0 {
					of = tape.Constant(rng.Float32())
				}
				partials[i] = numeric.Partial{Of: of, Value: rng.Float32()*2 - 1}
			}
			values = append(values, tape.Compose(rng.Float32(), partials...))
		}
	}
	return values
}

func assertTopological(t *testing.T, tape *Tape) {
	t.Helper()
	for i := 0; i < tape.Len(); i++ {
		for _, dep := range tape.Dependencies(i) {
			if dep >= i {
				t.Fatalf("record %d depends on slot %d", i, dep)
			}
		}
	}
}

func TestTape_TopologicalOrder(t *testing.T) {
	for seed := uint64(0); seed < 50; seed++ {
		rng := rand.New(rand.NewPCG(seed, 7))
		tape := NewTape()
		buildRandomGraph(tape, rng, 200)
		assertTopological(t, tape)
	}
}

func FuzzTape_TopologicalOrder(f *testing.F) {
	f.Add(uint64(1), uint8(10))
	f.Add(uint64(42), uint8(200))

	f.Fuzz(func(t *testing.T, seed uint64, size uint8) {
		rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
		tape := NewTape()
		values := buildRandomGraph(tape, rng, int(size)+1)
		assertTopological(t, tape)

		// Every variable's gradient vector must be computable.
		last := values[len(values)-1]
		if last.IsVariable() {
			if _, err := tape.Gradient(last); err != nil {
				t.Fatal(err)
			}
		}
	})
}
