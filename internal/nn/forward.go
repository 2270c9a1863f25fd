package nn

import (
	"math/rand/v2"

	"github.com/born-ml/gradtape/internal/backend/cpu"
	"github.com/born-ml/gradtape/internal/numeric"
)

// Mode selects training or inference behaviour of a forward pass.
type Mode uint8

const (
	// Train tracks parameters as variables (on a differentiable backend)
	// and applies dropout.
	Train Mode = iota

	// Predict uses constant parameters and scales weights by (1 - dropout).
	Predict
)

// String returns the mode name.
func (m Mode) String() string {
	if m == Predict {
		return "predict"
	}
	return "train"
}

// Pass is the outcome of one forward pass.
type Pass struct {
	// Output holds the last layer's activations.
	Output []numeric.Number

	// Params holds, per flat parameter index, the value used for it.
	// Nil unless the pass tracked parameters.
	Params []numeric.Number

	// Error is the loss against the one-hot expected output.
	Error numeric.Number

	// Category is the index of the largest output.
	Category int
}

// Result summarises a forward pass for training and evaluation.
type Result struct {
	Error    float32
	Gradient []float32 // Nil for evaluation passes
	Expected int
	Actual   int
}

// Correct reports whether the predicted category matches the expected one.
func (r *Result) Correct() bool {
	return r.Expected == r.Actual
}

// Forward runs the network on ex using f for every arithmetic step.
//
// In Train mode on a differentiable backend, every parameter use-site becomes
// a fresh variable, or the constant 0 with the layer's dropout probability.
// A nil rng uses the package-level generator.
//
// Errors:
//   - ErrShapeMismatch: input length differs from the input size, the network
//     has no layers, or the one-hot target width differs from the output width
//   - ErrNumericInstability: a NaN or infinity appeared along the way
func (n *Network) Forward(f numeric.Factory, ex Example, mode Mode, rng *rand.Rand) (_ *Pass, err error) {
	defer numeric.Guard(&err)

	input := ex.Input()
	if len(input) != n.inputSize {
		return nil, numeric.Errorf("forward", numeric.ErrShapeMismatch,
			"network expects %d inputs, got %d", n.inputSize, len(input))
	}
	if len(n.layers) == 0 {
		return nil, numeric.Errorf("forward", numeric.ErrShapeMismatch, "network has no layers")
	}

	d, tracked := numeric.AsDifferentiable(f)
	tracked = tracked && mode == Train

	pass := &Pass{}
	if tracked {
		pass.Params = make([]numeric.Number, len(n.params))
	}

	// use returns the number standing in for params[i] at this use-site.
	use := func(i int, dropout, scale float32) numeric.Number {
		if mode == Predict {
			return f.Constant(n.params[i] * scale)
		}
		dropped := dropout > 0 && uniform(rng) < float64(dropout)
		var v numeric.Number
		switch {
		case dropped:
			v = f.Constant(0)
		case tracked:
			v = d.Variable(n.params[i])
		default:
			v = f.Constant(n.params[i])
		}
		if tracked {
			pass.Params[i] = v
		}
		return v
	}

	prev := numeric.Constants(f, input)
	for idx := range n.layers {
		l := &n.layers[idx]
		p := l.spec.Dropout
		acts := make([]numeric.Number, l.spec.Neurons)

		for j := range acts {
			sum := f.Constant(0)
			if b, ok := n.BiasIndex(idx, j); ok {
				sum = use(b, p, 1)
			}
			start, end := n.WeightRange(idx, j)
			for k := start; k < end; k++ {
				w := use(k, p, 1-p)
				sum = f.Add(sum, f.Mul(w, prev[k-start]))
			}
			acts[j] = numeric.ActivateNeuron(f, sum, l.spec.NeuronActivation)
		}

		prev = numeric.ActivateLayer(f, acts, l.spec.LayerActivation)
	}

	expected := OneHot(ex)
	if len(expected) != len(prev) {
		return nil, numeric.Errorf("forward", numeric.ErrShapeMismatch,
			"network has %d outputs, example has %d categories", len(prev), len(expected))
	}
	loss, err := numeric.ComputeError(f, numeric.Constants(f, expected), prev, n.errorFunc)
	if err != nil {
		return nil, err
	}

	pass.Output = prev
	pass.Error = loss
	pass.Category = numeric.HottestIndex(prev)
	return pass, nil
}

// Gradient runs a training pass on d and differentiates the error with
// respect to every parameter. Dropped parameters get a zero derivative.
//
// The caller owns d's tape and should reset it between samples.
func (n *Network) Gradient(d numeric.Differentiable, ex Example, rng *rand.Rand) (*Result, error) {
	pass, err := n.Forward(d, ex, Train, rng)
	if err != nil {
		return nil, err
	}

	grad := make([]float32, len(n.params))
	if pass.Error.IsVariable() {
		for i, p := range pass.Params {
			if grad[i], err = d.Diff(pass.Error, p); err != nil {
				return nil, err
			}
		}
	}

	return &Result{
		Error:    pass.Error.Scalar,
		Gradient: grad,
		Expected: ex.Category(),
		Actual:   pass.Category,
	}, nil
}

// Evaluate runs an inference pass on f.
func (n *Network) Evaluate(f numeric.Factory, ex Example) (*Result, error) {
	pass, err := n.Forward(f, ex, Predict, nil)
	if err != nil {
		return nil, err
	}
	return &Result{
		Error:    pass.Error.Scalar,
		Expected: ex.Category(),
		Actual:   pass.Category,
	}, nil
}

// Predict returns the category the network assigns to ex.
func (n *Network) Predict(ex Example) (int, error) {
	r, err := n.Evaluate(cpu.New(), ex)
	if err != nil {
		return -1, err
	}
	return r.Actual, nil
}
