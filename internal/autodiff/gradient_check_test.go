package autodiff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"

	"github.com/born-ml/gradtape/internal/backend/cpu"
	"github.com/born-ml/gradtape/internal/numeric"
)

// scalarFunc is a function written once against numeric.Factory.
type scalarFunc func(f numeric.Factory, xs []numeric.Number) numeric.Number

// numericalGradient evaluates fn on the plain backend and differentiates it
// with central finite differences.
func numericalGradient(fn scalarFunc, at []float64) []float64 {
	plain := cpu.New()
	eval := func(x []float64) float64 {
		xs := make([]numeric.Number, len(x))
		for i, v := range x {
			xs[i] = plain.Constant(float32(v))
		}
		return float64(fn(plain, xs).Scalar)
	}
	return fd.Gradient(nil, eval, at, &fd.Settings{Formula: fd.Central, Step: 1e-2})
}

// autodiffGradient evaluates fn on a fresh autodiff backend.
func autodiffGradient(t *testing.T, fn scalarFunc, at []float64) []float64 {
	t.Helper()
	b := newBackend()
	xs := make([]numeric.Number, len(at))
	for i, v := range at {
		xs[i] = b.Variable(float32(v))
	}
	y := fn(b, xs)

	grad := make([]float64, len(xs))
	for i, x := range xs {
		d, err := b.Diff(y, x)
		require.NoError(t, err)
		grad[i] = float64(d)
	}
	return grad
}

func TestGradientCheck(t *testing.T) {
	tests := []struct {
		name string
		fn   scalarFunc
		at   []float64
	}{
		{
			name: "ratio",
			fn: func(f numeric.Factory, xs []numeric.Number) numeric.Number {
				return f.Div(xs[1], f.Sub(f.Exp(xs[0]), xs[1]))
			},
			at: []float64{3, 4},
		},
		{
			name: "polynomial",
			fn: func(f numeric.Factory, xs []numeric.Number) numeric.Number {
				return f.Add(f.Mul(f.Powi(xs[0], 3), xs[1]), f.Neg(f.Mul(xs[0], xs[1])))
			},
			at: []float64{1.5, -2},
		},
		{
			name: "pow and ln",
			fn: func(f numeric.Factory, xs []numeric.Number) numeric.Number {
				return f.Mul(f.Pow(xs[0], xs[1]), f.Ln(xs[0]))
			},
			at: []float64{2, 1.5},
		},
		{
			name: "sigmoid of sum",
			fn: func(f numeric.Factory, xs []numeric.Number) numeric.Number {
				return numeric.ActivateNeuron(f, f.Add(xs[0], f.Mul(xs[1], xs[2])), numeric.Sigmoid())
			},
			at: []float64{0.3, -0.7, 1.1},
		},
		{
			name: "softmax cross entropy",
			fn: func(f numeric.Factory, xs []numeric.Number) numeric.Number {
				out := numeric.ActivateLayer(f, xs, numeric.SoftMax)
				expected := numeric.Constants(f, []float32{0, 1, 0})
				loss, err := numeric.ComputeError(f, expected, out, numeric.CategoricalCrossEntropy)
				if err != nil {
					panic(err)
				}
				return loss
			},
			at: []float64{0.2, -0.4, 1.3},
		},
		{
			name: "euclidean squared",
			fn: func(f numeric.Factory, xs []numeric.Number) numeric.Number {
				expected := numeric.Constants(f, []float32{1, 0})
				loss, err := numeric.ComputeError(f, expected, xs, numeric.EuclideanSquared)
				if err != nil {
					panic(err)
				}
				return loss
			},
			at: []float64{0.25, 0.75},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := numericalGradient(tt.fn, tt.at)
			got := autodiffGradient(t, tt.fn, tt.at)
			assert.InDeltaSlice(t, want, got, 2e-2)
		})
	}
}
