// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/born-ml/gradtape/internal/optim"
)

// Optimizer interface defines the common interface for all optimizers.
type Optimizer = optim.Optimizer

// Target is a flat parameter array that accepts update steps.
type Target = optim.Target

// Config represents the base configuration for optimizers.
type Config = optim.Config

// FromName builds "sgd" or "adam" with default hyperparameters.
func FromName(name string, target Target, lr float32) (Optimizer, error) {
	return optim.FromName(name, target, lr)
}

// SGD (Stochastic Gradient Descent)

// SGD represents the SGD optimizer with optional momentum.
type SGD = optim.SGD

// SGDConfig contains configuration for SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates a new SGD optimizer.
//
// Example:
//
//	optimizer := optim.NewSGD(net, optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
func NewSGD(target Target, config SGDConfig) *SGD {
	return optim.NewSGD(target, config)
}

// Adam (Adaptive Moment Estimation)

// Adam represents the Adam optimizer.
type Adam = optim.Adam

// AdamConfig contains configuration for Adam optimizer.
type AdamConfig = optim.AdamConfig

// NewAdam creates a new Adam optimizer with bias correction.
//
// Example:
//
//	optimizer := optim.NewAdam(net, optim.AdamConfig{
//	    LR:      0.001,
//	    Betas:   [2]float32{0.9, 0.999},
//	    Eps:   1e-8,
//	})
func NewAdam(target Target, config AdamConfig) *Adam {
	return optim.NewAdam(target, config)
}

// Schedule

// Schedule anneals learning rate and batch size linearly over a run.
type Schedule = optim.Schedule

// NewSchedule creates a schedule over epochs passes of trainingLen samples.
func NewSchedule(epochs, trainingLen int, initialLR, targetLR float32, initialBatch, targetBatch int) *Schedule {
	return optim.NewSchedule(epochs, trainingLen, initialLR, targetLR, initialBatch, targetBatch)
}
