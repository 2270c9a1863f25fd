package autodiff_test

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/backend/cpu"
	"github.com/born-ml/gradtape/internal/numeric"
)

func newBackend() *autodiff.AutodiffBackend[*cpu.CPUBackend] {
	return autodiff.New(cpu.New())
}

func diff(t *testing.T, b numeric.Differentiable, y, x numeric.Number) float32 {
	t.Helper()
	d, err := b.Diff(y, x)
	require.NoError(t, err)
	return d
}

// TestAutodiffBackend_Name tests the Name method.
func TestAutodiffBackend_Name(t *testing.T) {
	assert.Equal(t, "Autodiff(CPU)", newBackend().Name())
}

func TestAutodiff_AddSimple(t *testing.T) {
	b := newBackend()
	x := b.Variable(1)
	y := b.Add(x, x)

	assert.Equal(t, float32(2), y.Scalar)
	assert.Equal(t, float32(2), diff(t, b, y, x))
}

func TestAutodiff_Square(t *testing.T) {
	b := newBackend()
	x := b.Variable(2)
	y := b.Mul(x, x)

	assert.Equal(t, float32(4), y.Scalar)
	assert.Equal(t, float32(4), diff(t, b, y, x))
}

func TestAutodiff_ProductOfSquare(t *testing.T) {
	b := newBackend()
	x := b.Variable(2)
	y := b.Variable(3)
	z := b.Mul(y, b.Mul(x, x))

	assert.Equal(t, float32(12), diff(t, b, z, x))
	assert.Equal(t, float32(4), diff(t, b, z, y))
}

func TestAutodiff_Primitives(t *testing.T) {
	tests := []struct {
		name   string
		x, y   float32
		op     func(b numeric.Factory, x, y numeric.Number) numeric.Number
		value  float32
		dx, dy float32
	}{
		{"sub", 1, 2, func(b numeric.Factory, x, y numeric.Number) numeric.Number { return b.Sub(x, y) }, -1, 1, -1},
		{"mul", 3, 2, func(b numeric.Factory, x, y numeric.Number) numeric.Number { return b.Mul(x, y) }, 6, 2, 3},
		{"div", 1, 2, func(b numeric.Factory, x, y numeric.Number) numeric.Number { return b.Div(x, y) }, 0.5, 0.5, -0.25},
		{"pow", 2, 3, func(b numeric.Factory, x, y numeric.Number) numeric.Number { return b.Pow(x, y) }, 8, 12, 8 * math32.Log(2)},
		{"neg", 5, 0, func(b numeric.Factory, x, _ numeric.Number) numeric.Number { return b.Neg(x) }, -5, -1, 0},
		{"powi", 3, 0, func(b numeric.Factory, x, _ numeric.Number) numeric.Number { return b.Powi(x, 3) }, 27, 27, 0},
		{"ln", 2, 0, func(b numeric.Factory, x, _ numeric.Number) numeric.Number { return b.Ln(x) }, math32.Log(2), 0.5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBackend()
			x := b.Variable(tt.x)
			y := b.Variable(tt.y)
			z := tt.op(b, x, y)

			assert.InDelta(t, tt.value, z.Scalar, 1e-5)
			assert.InDelta(t, tt.dx, diff(t, b, z, x), 1e-5)
			assert.InDelta(t, tt.dy, diff(t, b, z, y), 1e-5)
		})
	}
}

func TestAutodiff_Exp(t *testing.T) {
	b := newBackend()
	x := b.Variable(1)
	y := b.Exp(x)

	assert.InDelta(t, math32.E, diff(t, b, y, x), 1e-6)
}

func TestAutodiff_MuchMoreComplexDiff(t *testing.T) {
	b := newBackend()
	x := b.Variable(3)
	y := b.Variable(4)
	z := b.Div(y, b.Sub(b.Exp(x), y))

	assert.InDelta(t, -0.310507656, diff(t, b, z, x), 1e-6)
	assert.InDelta(t, 0.077626914, diff(t, b, z, y), 1e-6)
}

func TestAutodiff_ConstantHasZeroGradient(t *testing.T) {
	b := newBackend()
	x := b.Variable(3)
	c := b.Constant(7)
	z := b.Mul(b.Add(x, c), c)

	assert.Equal(t, float32(70), z.Scalar)
	assert.Equal(t, float32(0), diff(t, b, z, c))
	assert.Equal(t, float32(7), diff(t, b, z, x))
}

func TestAutodiff_ConstantOperandsDoNotTouchTape(t *testing.T) {
	b := newBackend()
	c := b.Add(b.Constant(1), b.Constant(2))

	assert.True(t, c.IsConstant())
	assert.Equal(t, float32(3), c.Scalar)
	assert.Equal(t, 0, b.Tape().Len())
}

func TestAutodiff_ActivateNeuron(t *testing.T) {
	tests := []struct {
		name       string
		x          float32
		activation numeric.NeuronActivation
		value      float32
		partial    float32
	}{
		{"relu positive", 4, numeric.ReLU(), 4, 1},
		{"relu negative", -4, numeric.ReLU(), 0, 0},
		{"leaky relu positive", 4, numeric.LeakyReLU(0.1), 4, 1},
		{"leaky relu negative", -4, numeric.LeakyReLU(0.1), -0.4, 0.1},
		{"sigmoid zero", 0, numeric.Sigmoid(), 0.5, 0.25},
		{"identity", -2, numeric.Identity(), -2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBackend()
			x := b.Variable(tt.x)
			y := numeric.ActivateNeuron(b, x, tt.activation)

			assert.InDelta(t, tt.value, y.Scalar, 1e-6)
			assert.InDelta(t, tt.partial, diff(t, b, y, x), 1e-6)
		})
	}
}

func TestAutodiff_SoftMaxGradientSumsToZero(t *testing.T) {
	b := newBackend()
	xs := []numeric.Number{b.Variable(1), b.Variable(2), b.Variable(3)}
	out := numeric.ActivateLayer(b, xs, numeric.SoftMax)

	// Σ softmax = 1 everywhere, so ∂(Σ out)/∂xᵢ = 0.
	sum := b.Add(b.Add(out[0], out[1]), out[2])
	assert.InDelta(t, 1, sum.Scalar, 1e-6)
	for _, x := range xs {
		assert.InDelta(t, 0, diff(t, b, sum, x), 1e-6)
	}

	// ∂sᵢ/∂xᵢ = sᵢ(1−sᵢ)
	s0 := out[0].Scalar
	assert.InDelta(t, s0*(1-s0), diff(t, b, out[0], xs[0]), 1e-6)
}

func TestAutodiff_NumericInstabilityPanics(t *testing.T) {
	b := newBackend()
	x := b.Variable(1)
	zero := b.Constant(0)

	var err error
	func() {
		defer numeric.Guard(&err)
		b.Div(x, zero)
	}()

	require.Error(t, err)
	assert.ErrorIs(t, err, numeric.ErrNumericInstability)
}

func TestAutodiff_ResetClearsTape(t *testing.T) {
	b := newBackend()
	x := b.Variable(2)
	y := b.Mul(x, x)
	_ = diff(t, b, y, x)

	b.Reset()
	assert.Equal(t, 0, b.Tape().Len())

	_, err := b.Diff(y, x)
	assert.ErrorIs(t, err, numeric.ErrInvalidDifferentiation)
}
