// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides feed-forward networks over a flat parameter array.
//
// # Overview
//
// This package contains:
//   - Network: fully-connected layers addressed into one []float32
//   - Activations: Identity, ReLU, LeakyReLU, Sigmoid, SoftMax
//   - Error functions: EuclideanSquared, CategoricalCrossEntropy
//   - Initialization: Xavier, SmallPositive
//   - Checkpoints: Save, Load
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/gradtape/autodiff"
//	    "github.com/born-ml/gradtape/backend/cpu"
//	    "github.com/born-ml/gradtape/nn"
//	)
//
//	func main() {
//	    net := nn.New(784, nn.CategoricalCrossEntropy).
//	        AddLayer(nn.LayerSpec{Neurons: 32, UseBias: true, NeuronActivation: nn.LeakyReLU(0.01)}).
//	        AddLayer(nn.LayerSpec{Neurons: 10, LayerActivation: nn.SoftMax})
//
//	    // Gradient of one sample
//	    backend := autodiff.New(cpu.New())
//	    res, err := net.Gradient(backend, example, nil)
//	    backend.Reset()
//
//	    // Update
//	    err = net.BackPropagate(res.Gradient, 0.01)
//
//	    // Inference
//	    category, err := net.Predict(example)
//	}
//
// # Parameter Layout
//
// For layer l and neuron j, the neuron's parameters start at
// offset(l) + j*(fanIn + bias). The bias comes first when the layer uses one,
// followed by fanIn weights. Use BiasIndex and WeightRange rather than
// computing offsets by hand.
//
// # Dropout
//
// In Train mode every use of a weight or bias is dropped independently with
// the layer's dropout rate. In Predict mode weights are scaled by
// (1 - dropout) instead and biases are left unscaled.
package nn
