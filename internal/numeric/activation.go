package numeric

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
)

// NeuronKind selects a per-neuron activation function.
type NeuronKind uint8

// Neuron activation kinds.
const (
	KindIdentity NeuronKind = iota
	KindReLU
	KindLeakyReLU
	KindSigmoid
)

// NeuronActivation is applied to every neuron's weighted sum.
// Leak is only meaningful for KindLeakyReLU.
type NeuronActivation struct {
	Kind NeuronKind
	Leak float32
}

// Identity passes values through unchanged.
func Identity() NeuronActivation { return NeuronActivation{Kind: KindIdentity} }

// ReLU returns max(0, x).
func ReLU() NeuronActivation { return NeuronActivation{Kind: KindReLU} }

// LeakyReLU returns x for x > 0 and leak*x otherwise.
func LeakyReLU(leak float32) NeuronActivation {
	return NeuronActivation{Kind: KindLeakyReLU, Leak: leak}
}

// Sigmoid returns 1/(1+e^-x).
func Sigmoid() NeuronActivation { return NeuronActivation{Kind: KindSigmoid} }

// String implements fmt.Stringer. The output parses back with ParseNeuronActivation.
func (a NeuronActivation) String() string {
	switch a.Kind {
	case KindIdentity:
		return "none"
	case KindReLU:
		return "relu"
	case KindLeakyReLU:
		return "leaky_relu(" + strconv.FormatFloat(float64(a.Leak), 'g', -1, 32) + ")"
	case KindSigmoid:
		return "sigmoid"
	default:
		return fmt.Sprintf("NeuronKind(%d)", a.Kind)
	}
}

// ParseNeuronActivation parses "none", "relu", "leaky_relu(0.01)" or "sigmoid".
// A bare "leaky_relu" uses a leak of 0.01.
func ParseNeuronActivation(s string) (NeuronActivation, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "none", "identity":
		return Identity(), nil
	case "relu":
		return ReLU(), nil
	case "leaky_relu":
		return LeakyReLU(0.01), nil
	case "sigmoid":
		return Sigmoid(), nil
	}
	if arg, ok := strings.CutPrefix(s, "leaky_relu("); ok {
		arg, ok = strings.CutSuffix(arg, ")")
		if ok {
			leak, err := strconv.ParseFloat(arg, 32)
			if err != nil {
				return NeuronActivation{}, fmt.Errorf("invalid leak %q: %w", arg, err)
			}
			return LeakyReLU(float32(leak)), nil
		}
	}
	return NeuronActivation{}, fmt.Errorf("unknown neuron activation %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (a NeuronActivation) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *NeuronActivation) UnmarshalText(text []byte) error {
	parsed, err := ParseNeuronActivation(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// LayerActivation is applied to a whole layer after the neuron activations.
type LayerActivation uint8

// Layer activations.
const (
	LayerIdentity LayerActivation = iota
	SoftMax
)

// String implements fmt.Stringer.
func (a LayerActivation) String() string {
	switch a {
	case LayerIdentity:
		return "none"
	case SoftMax:
		return "softmax"
	default:
		return fmt.Sprintf("LayerActivation(%d)", uint8(a))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a LayerActivation) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *LayerActivation) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "none", "identity":
		*a = LayerIdentity
	case "softmax":
		*a = SoftMax
	default:
		return fmt.Errorf("unknown layer activation %q", text)
	}
	return nil
}

// ActivateNeuron applies a neuron activation to x.
//
// ReLU and LeakyReLU branch on the sign of x; on a differentiable backend the
// branch taken contributes partial 1 (positive side) or 0/leak. Sigmoid has
// partial s*(1-s).
func ActivateNeuron(f Factory, x Number, activation NeuronActivation) Number {
	switch activation.Kind {
	case KindIdentity:
		return x

	case KindReLU:
		if x.Scalar > 0 {
			return derive(f, "relu", x.Scalar, x, 1)
		}
		return derive(f, "relu", 0, x, 0)

	case KindLeakyReLU:
		if x.Scalar > 0 {
			return derive(f, "leaky_relu", x.Scalar, x, 1)
		}
		return derive(f, "leaky_relu", activation.Leak*x.Scalar, x, activation.Leak)

	case KindSigmoid:
		s := sigmoid(x.Scalar)
		return derive(f, "sigmoid", s, x, s*(1-s))

	default:
		panic(fmt.Sprintf("activate: unknown neuron activation %v", activation))
	}
}

// sigmoid avoids overflowing e^-x for large negative x.
func sigmoid(x float32) float32 {
	if x >= 0 {
		return 1 / (1 + math32.Exp(-x))
	}
	e := math32.Exp(x)
	return e / (1 + e)
}

// ActivateLayer applies a layer activation to xs.
//
// SoftMax subtracts max(xs) from every element before exponentiating so that
// large inputs do not overflow.
func ActivateLayer(f Factory, xs []Number, activation LayerActivation) []Number {
	switch activation {
	case LayerIdentity:
		return xs

	case SoftMax:
		if len(xs) == 0 {
			return nil
		}
		top := xs[HottestIndex(xs)]

		out := make([]Number, len(xs))
		sum := f.Constant(0)
		for i, x := range xs {
			out[i] = f.Exp(f.Sub(x, top))
			sum = f.Add(sum, out[i])
		}
		for i := range out {
			out[i] = f.Div(out[i], sum)
		}
		return out

	default:
		panic(fmt.Sprintf("activate: unknown layer activation %v", activation))
	}
}

// HottestIndex returns the index of the largest value, or -1 if xs is empty.
// Ties resolve to the first occurrence.
func HottestIndex(xs []Number) int {
	if len(xs) == 0 {
		return -1
	}
	best := 0
	for i, x := range xs[1:] {
		if x.Scalar > xs[best].Scalar {
			best = i + 1
		}
	}
	return best
}
