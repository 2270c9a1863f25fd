// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand/v2"

	"github.com/born-ml/gradtape/internal/nn"
	"github.com/born-ml/gradtape/internal/numeric"
	"github.com/born-ml/gradtape/internal/serialization"
)

// Network is a feed-forward network over one flat parameter array.
type Network = nn.Network

// LayerSpec describes one fully-connected layer.
type LayerSpec = nn.LayerSpec

// Option configures a Network.
type Option = nn.Option

// New creates a network with no layers.
//
// Example:
//
//	net := nn.New(784, nn.CategoricalCrossEntropy).
//	    AddLayer(nn.LayerSpec{Neurons: 32, UseBias: true, Dropout: 0.5, NeuronActivation: nn.LeakyReLU(0.01)}).
//	    AddLayer(nn.LayerSpec{Neurons: 10, LayerActivation: nn.SoftMax})
func New(inputSize int, errorFunc ErrorFunction, opts ...Option) *Network {
	return nn.New(inputSize, errorFunc, opts...)
}

// Initialization

// Initializer fills the weights of one neuron.
type Initializer = nn.Initializer

// WithInitializer sets how new layers initialise their weights.
func WithInitializer(init Initializer) Option {
	return nn.WithInitializer(init)
}

// Xavier draws weights from U(-sqrt(6/(fanIn+fanOut)), +sqrt(6/(fanIn+fanOut))).
func Xavier(rng *rand.Rand) Initializer {
	return nn.Xavier(rng)
}

// SmallPositive draws weights from U(0, 1) / (fanIn * fanOut * 100).
func SmallPositive(rng *rand.Rand) Initializer {
	return nn.SmallPositive(rng)
}

// Activations

// NeuronActivation is applied to every neuron's weighted sum.
type NeuronActivation = numeric.NeuronActivation

// LayerActivation is applied to a whole layer.
type LayerActivation = numeric.LayerActivation

// Layer activations.
const (
	LayerIdentity = numeric.LayerIdentity
	SoftMax       = numeric.SoftMax
)

// Identity passes values through unchanged.
func Identity() NeuronActivation { return numeric.Identity() }

// ReLU returns max(0, x).
func ReLU() NeuronActivation { return numeric.ReLU() }

// LeakyReLU returns x for x > 0 and leak*x otherwise.
func LeakyReLU(leak float32) NeuronActivation { return numeric.LeakyReLU(leak) }

// Sigmoid returns 1/(1+e^-x).
func Sigmoid() NeuronActivation { return numeric.Sigmoid() }

// Error functions

// ErrorFunction measures the distance between expected and actual output.
type ErrorFunction = numeric.ErrorFunction

// Error functions.
const (
	ErrorNone               = numeric.ErrorNone
	EuclideanSquared        = numeric.EuclideanSquared
	CategoricalCrossEntropy = numeric.CategoricalCrossEntropy
)

// Examples and passes

// Example is one labelled input.
type Example = nn.Example

// Labeled is an Example backed by plain fields.
type Labeled = nn.Labeled

// Mode selects training (dropout applied) or prediction (weights scaled).
type Mode = nn.Mode

// Forward pass modes.
const (
	Train   = nn.Train
	Predict = nn.Predict
)

// Pass is the output of a forward pass.
type Pass = nn.Pass

// Result is the scored output of one sample, with its gradient when trained.
type Result = nn.Result

// OneHot returns the expected output of e.
func OneHot(e Example) []float32 {
	return nn.OneHot(e)
}

// Checkpoints

// Checkpoint is a network with its training state, as stored in a .gtp file.
type Checkpoint = serialization.Checkpoint

// Save writes ck to path atomically.
//
// Example:
//
//	err := nn.Save("model.gtp", &nn.Checkpoint{Network: net})
func Save(path string, ck *Checkpoint) error {
	return serialization.Save(path, ck)
}

// Load reads a checkpoint and rebuilds its network.
func Load(path string) (*Checkpoint, error) {
	return serialization.Load(path)
}
