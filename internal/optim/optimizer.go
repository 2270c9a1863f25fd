// Package optim implements the update step and hyperparameter schedule used
// to train a flat-parameter network.
//
// This package provides:
//   - Optimizer interface: base interface for all optimizers
//   - SGD: stochastic gradient descent with optional momentum
//   - Adam: adaptive moment estimation
//   - Schedule: linear annealing of learning rate and batch size
//
// Optimizers never touch parameters directly. They turn a gradient into an
// update direction and hand it to the target's BackPropagate, which owns the
// flat parameter layout.
//
// Example usage:
//
//	schedule := optim.NewSchedule(10, len(train), 0.01, 0.0001, 128, 8)
//	opt := optim.NewSGD(net, optim.SGDConfig{LR: schedule.LearningRate()})
//
//	for !schedule.Done() {
//	    grad := computeBatchGradient(net, batch)
//	    if err := opt.Step(grad); err != nil {
//	        return err
//	    }
//	    schedule.Advance(len(batch))
//	    opt.SetLR(schedule.LearningRate())
//	}
package optim

import (
	"errors"
	"fmt"
)

// ErrUnknownOptimizer is returned by FromName for unrecognised names.
var ErrUnknownOptimizer = errors.New("unknown optimizer")

// Target is a flat parameter array that accepts gradient descent steps.
//
// *nn.Network implements Target.
type Target interface {
	ParamCount() int
	BackPropagate(grad []float32, lr float32) error
}

// Optimizer is the base interface for all optimization algorithms.
//
// All optimizers must implement:
//   - Step: apply one update from a gradient over the full parameter array
//   - GetLR / SetLR: read and change the learning rate (for scheduling)
//   - StateDict / LoadStateDict: export and restore internal buffers
type Optimizer interface {
	// Step applies one update. The gradient must cover every parameter.
	Step(grad []float32) error

	// GetLR returns the current learning rate.
	GetLR() float32

	// SetLR updates the learning rate.
	SetLR(lr float32)

	// StateDict returns the optimizer buffers keyed by name.
	StateDict() map[string][]float32

	// LoadStateDict restores buffers produced by StateDict.
	LoadStateDict(state map[string][]float32) error
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float32 // Learning rate
}

// FromName builds an optimizer by name ("sgd" or "adam") with default
// hyperparameters apart from the learning rate.
func FromName(name string, target Target, lr float32) (Optimizer, error) {
	switch name {
	case "", "sgd":
		return NewSGD(target, SGDConfig{LR: lr}), nil
	case "adam":
		return NewAdam(target, AdamConfig{LR: lr}), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOptimizer, name)
	}
}

// loadBuffer copies state[key] into dst, validating its length.
func loadBuffer(state map[string][]float32, key string, dst []float32) error {
	src, ok := state[key]
	if !ok {
		return nil
	}
	if len(src) != len(dst) {
		return fmt.Errorf("%s length mismatch: expected %d, got %d", key, len(dst), len(src))
	}
	copy(dst, src)
	return nil
}
