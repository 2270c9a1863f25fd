package numeric_test

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/backend/cpu"
	"github.com/born-ml/gradtape/internal/numeric"
)

func TestNumber_ZeroValueIsConstant(t *testing.T) {
	var n numeric.Number
	assert.True(t, n.IsConstant())
	_, ok := n.Slot()
	assert.False(t, ok)
}

func TestNumber_Bind(t *testing.T) {
	n := numeric.Bind(7, 0, 2.5)
	slot, ok := n.Slot()
	require.True(t, ok)
	assert.Equal(t, 0, slot)
	assert.Equal(t, uint64(7), n.Tape())
	assert.Zero(t, numeric.Const(1).Tape())
	assert.Equal(t, "2.5@0", n.String())
}

func TestAsDifferentiable(t *testing.T) {
	_, ok := numeric.AsDifferentiable(cpu.New())
	assert.False(t, ok)

	_, ok = numeric.AsDifferentiable(autodiff.New(cpu.New()))
	assert.True(t, ok)
}

func TestActivateNeuron_Plain(t *testing.T) {
	f := cpu.New()
	tests := []struct {
		activation numeric.NeuronActivation
		x, want    float32
	}{
		{numeric.Identity(), -3, -3},
		{numeric.ReLU(), 2, 2},
		{numeric.ReLU(), -2, 0},
		{numeric.LeakyReLU(0.01), -2, -0.02},
		{numeric.Sigmoid(), 0, 0.5},
		{numeric.Sigmoid(), -100, 0},
		{numeric.Sigmoid(), 100, 1},
	}
	for _, tt := range tests {
		t.Run(tt.activation.String(), func(t *testing.T) {
			got := numeric.ActivateNeuron(f, f.Constant(tt.x), tt.activation)
			assert.InDelta(t, tt.want, got.Scalar, 1e-6)
			assert.True(t, got.IsConstant())
		})
	}
}

func TestActivateLayer_SoftMaxLargeInputs(t *testing.T) {
	f := cpu.New()
	xs := numeric.Constants(f, []float32{1000, 1001, 1002})

	out := numeric.ActivateLayer(f, xs, numeric.SoftMax)

	var sum float32
	for _, v := range out {
		require.True(t, numeric.IsFinite(v.Scalar))
		sum += v.Scalar
	}
	assert.InDelta(t, 1, sum, 1e-6)
	assert.Equal(t, 2, numeric.HottestIndex(out))

	e1, e2 := math32.Exp(-1), math32.Exp(-2)
	assert.InDelta(t, 1/(1+e1+e2), out[2].Scalar, 1e-6)
}

func TestActivateLayer_Identity(t *testing.T) {
	f := cpu.New()
	xs := numeric.Constants(f, []float32{1, 2})
	assert.Equal(t, xs, numeric.ActivateLayer(f, xs, numeric.LayerIdentity))
}

func TestComputeError(t *testing.T) {
	f := cpu.New()
	expected := numeric.Constants(f, []float32{0, 1, 0})
	actual := numeric.Constants(f, []float32{0.2, 0.5, 0.3})

	mse, err := numeric.ComputeError(f, expected, actual, numeric.EuclideanSquared)
	require.NoError(t, err)
	assert.InDelta(t, 0.04+0.25+0.09, mse.Scalar, 1e-6)

	cce, err := numeric.ComputeError(f, expected, actual, numeric.CategoricalCrossEntropy)
	require.NoError(t, err)
	assert.InDelta(t, -math32.Log(0.5), cce.Scalar, 1e-6)

	// A zero output under a zero target is skipped rather than taking ln 0.
	cce, err = numeric.ComputeError(f, expected, numeric.Constants(f, []float32{0, 0.5, 0.5}), numeric.CategoricalCrossEntropy)
	require.NoError(t, err)
	assert.InDelta(t, -math32.Log(0.5), cce.Scalar, 1e-6)

	none, err := numeric.ComputeError(f, expected, actual, numeric.ErrorNone)
	require.NoError(t, err)
	assert.Equal(t, float32(0), none.Scalar)
}

func TestComputeError_Failures(t *testing.T) {
	f := cpu.New()

	_, err := numeric.ComputeError(f, numeric.Constants(f, []float32{1}), numeric.Constants(f, []float32{1, 2}), numeric.EuclideanSquared)
	assert.ErrorIs(t, err, numeric.ErrLengthMismatch)

	_, err = numeric.ComputeError(f, nil, nil, numeric.EuclideanSquared)
	assert.ErrorIs(t, err, numeric.ErrEmptyInput)

	_, err = numeric.ComputeError(f, numeric.Constants(f, []float32{1}), numeric.Constants(f, []float32{0}), numeric.CategoricalCrossEntropy)
	assert.ErrorIs(t, err, numeric.ErrNumericInstability)
}

func TestHottestIndex(t *testing.T) {
	f := cpu.New()
	assert.Equal(t, -1, numeric.HottestIndex(nil))
	assert.Equal(t, 1, numeric.HottestIndex(numeric.Constants(f, []float32{0.1, 0.7, 0.7, 0.2})))
}

func TestNeuronActivation_TextRoundTrip(t *testing.T) {
	for _, a := range []numeric.NeuronActivation{
		numeric.Identity(), numeric.ReLU(), numeric.LeakyReLU(0.05), numeric.Sigmoid(),
	} {
		text, err := a.MarshalText()
		require.NoError(t, err)

		var parsed numeric.NeuronActivation
		require.NoError(t, parsed.UnmarshalText(text))
		assert.Equal(t, a, parsed)
	}

	_, err := numeric.ParseNeuronActivation("tanh")
	assert.Error(t, err)
}

func TestGuard_RepanicsForeignValues(t *testing.T) {
	assert.PanicsWithValue(t, "boom", func() {
		var err error
		defer numeric.Guard(&err)
		panic("boom")
	})
}
