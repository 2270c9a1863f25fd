// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for flat-parameter networks.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation with bias correction
//   - Schedule: linear annealing of learning rate and batch size
//   - Optimizer interface for custom optimizers
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/gradtape/nn"
//	    "github.com/born-ml/gradtape/optim"
//	)
//
//	func main() {
//	    schedule := optim.NewSchedule(10, len(trainSet), 0.01, 0.0001, 128, 8)
//	    optimizer := optim.NewSGD(net, optim.SGDConfig{LR: schedule.LearningRate()})
//
//	    for !schedule.Done() {
//	        batch := nextBatch(schedule.BatchSize())
//	        grad := meanGradient(net, batch)
//
//	        if err := optimizer.Step(grad); err != nil {
//	            return err
//	        }
//	        schedule.Advance(len(batch))
//	        optimizer.SetLR(schedule.LearningRate())
//	    }
//	}
//
// Most callers use train.Trainer, which runs this loop in parallel.
//
// # State
//
// StateDict and LoadStateDict export and restore optimizer buffers so they
// can be stored next to the parameters in a checkpoint.
package optim
