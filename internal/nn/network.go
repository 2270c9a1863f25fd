// Package nn implements a feed-forward network over a flat parameter array.
//
// Parameters are never materialised as neuron or weight objects. For layer l
// and neuron j the parameters live at
//
//	base = offset(l) + j*(fanIn(l) + bias(l))
//	bias:    params[base]                         (if the layer uses biases)
//	weights: params[base+bias : base+bias+fanIn]
//
// where offset(l) is the cumulative parameter count of all preceding layers.
// The forward pass and the update step both go through BiasIndex and
// WeightRange so they always agree on this layout.
package nn

import (
	"fmt"

	"github.com/born-ml/gradtape/internal/numeric"
)

// LayerSpec describes one fully-connected layer. It is immutable once added.
type LayerSpec struct {
	Neurons          int                      `yaml:"neurons" json:"neurons"`
	NeuronActivation numeric.NeuronActivation `yaml:"neuron_activation" json:"neuron_activation"`
	LayerActivation  numeric.LayerActivation  `yaml:"layer_activation" json:"layer_activation"`
	UseBias          bool                     `yaml:"use_bias" json:"use_bias"`
	Dropout          float32                  `yaml:"dropout" json:"dropout"`
}

// layer caches the addressing derived from a LayerSpec.
type layer struct {
	spec   LayerSpec
	fanIn  int // Size of the previous layer (or the input)
	offset int // First flat index of this layer
	count  int // Neurons * (fanIn + bias)
}

func (l *layer) bias() int {
	if l.spec.UseBias {
		return 1
	}
	return 0
}

// Network is a feed-forward network whose parameters form one flat array.
//
// The parameter array is read concurrently by forward passes and must only be
// mutated (BackPropagate, SetParams) while no forward pass is running.
type Network struct {
	inputSize int
	errorFunc numeric.ErrorFunction
	params    []float32
	layers    []layer
	init      Initializer
}

// Option configures a Network.
type Option func(*Network)

// WithInitializer sets how new layers initialise their parameters.
func WithInitializer(init Initializer) Option {
	return func(n *Network) {
		n.init = init
	}
}

// New creates a network with no layers.
//
// Example:
//
//	net := nn.New(784, numeric.CategoricalCrossEntropy)
//	net.AddLayer(nn.LayerSpec{Neurons: 32, UseBias: true, Dropout: 0.5, NeuronActivation: numeric.LeakyReLU(0.01)}).
//	    AddLayer(nn.LayerSpec{Neurons: 10, LayerActivation: numeric.SoftMax})
func New(inputSize int, errorFunc numeric.ErrorFunction, opts ...Option) *Network {
	if inputSize <= 0 {
		panic(fmt.Sprintf("nn: input size must be positive, got %d", inputSize))
	}
	n := &Network{
		inputSize: inputSize,
		errorFunc: errorFunc,
		init:      Xavier(nil),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// AddLayer appends a layer and initialises its parameters.
// It panics if the spec has no neurons or a dropout rate outside [0, 1).
func (n *Network) AddLayer(spec LayerSpec) *Network {
	if spec.Neurons <= 0 {
		panic(fmt.Sprintf("nn: layer must have at least one neuron, got %d", spec.Neurons))
	}
	if spec.Dropout < 0 || spec.Dropout >= 1 {
		panic(fmt.Sprintf("nn: dropout rate must be in [0, 1), got %v", spec.Dropout))
	}

	l := layer{
		spec:   spec,
		fanIn:  n.inputSize,
		offset: len(n.params),
	}
	if len(n.layers) > 0 {
		l.fanIn = n.layers[len(n.layers)-1].spec.Neurons
	}
	l.count = spec.Neurons * (l.fanIn + l.bias())

	n.params = append(n.params, make([]float32, l.count)...)
	n.layers = append(n.layers, l)
	n.initLayer(len(n.layers) - 1)

	return n
}

// initLayer fills the weights of layer idx and zeroes its biases.
func (n *Network) initLayer(idx int) {
	l := &n.layers[idx]
	for j := range l.spec.Neurons {
		if b, ok := n.BiasIndex(idx, j); ok {
			n.params[b] = 0
		}
		start, end := n.WeightRange(idx, j)
		n.init(n.params[start:end], l.fanIn, l.spec.Neurons)
	}
}

// base returns the flat index of neuron j's first parameter in layer idx.
func (n *Network) base(idx, j int) int {
	l := &n.layers[idx]
	if j < 0 || j >= l.spec.Neurons {
		panic(fmt.Sprintf("nn: neuron %d out of range for layer %d with %d neurons", j, idx, l.spec.Neurons))
	}
	return l.offset + j*(l.fanIn+l.bias())
}

// BiasIndex returns the flat index of the bias of neuron j in layer idx,
// and false if the layer has no biases.
func (n *Network) BiasIndex(idx, j int) (int, bool) {
	base := n.base(idx, j)
	if !n.layers[idx].spec.UseBias {
		return 0, false
	}
	return base, true
}

// WeightRange returns the half-open flat range [start, end) holding the
// weights of neuron j in layer idx.
func (n *Network) WeightRange(idx, j int) (start, end int) {
	start = n.base(idx, j) + n.layers[idx].bias()
	return start, start + n.layers[idx].fanIn
}

// InputSize returns the number of input features.
func (n *Network) InputSize() int {
	return n.inputSize
}

// OutputSize returns the width of the last layer, or 0 without layers.
func (n *Network) OutputSize() int {
	if len(n.layers) == 0 {
		return 0
	}
	return n.layers[len(n.layers)-1].spec.Neurons
}

// ErrorFunction returns the error function used by Forward.
func (n *Network) ErrorFunction() numeric.ErrorFunction {
	return n.errorFunc
}

// Layers returns the layer specs in order.
func (n *Network) Layers() []LayerSpec {
	specs := make([]LayerSpec, len(n.layers))
	for i := range n.layers {
		specs[i] = n.layers[i].spec
	}
	return specs
}

// ParamCount returns the length of the flat parameter array.
func (n *Network) ParamCount() int {
	return len(n.params)
}

// Params returns a copy of the flat parameter array.
func (n *Network) Params() []float32 {
	return append([]float32(nil), n.params...)
}

// SetParams replaces the flat parameter array.
func (n *Network) SetParams(params []float32) error {
	if len(params) != len(n.params) {
		return numeric.Errorf("set_params", numeric.ErrLengthMismatch,
			"network has %d parameters, got %d", len(n.params), len(params))
	}
	copy(n.params, params)
	return nil
}

// BackPropagate applies one gradient descent step: params[i] -= lr * grad[i].
func (n *Network) BackPropagate(grad []float32, lr float32) error {
	if len(grad) != len(n.params) {
		return numeric.Errorf("back_propagate", numeric.ErrLengthMismatch,
			"network has %d parameters, gradient has %d", len(n.params), len(grad))
	}
	for i, g := range grad {
		n.params[i] -= lr * g
	}
	return nil
}
