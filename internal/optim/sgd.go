package optim

import (
	"fmt"
)

// SGD implements Stochastic Gradient Descent optimizer with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
//
// Example:
//
//	optimizer := optim.NewSGD(net, optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
type SGD struct {
	target   Target
	lr       float32
	momentum float32
	velocity []float32 // Lazily allocated on the first step with momentum
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float32 // Learning rate (default: 0.01)
	Momentum float32 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer.
func NewSGD(target Target, config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}

	return &SGD{
		target:   target,
		lr:       config.LR,
		momentum: config.Momentum,
	}
}

// Step performs a single optimization step.
func (s *SGD) Step(grad []float32) error {
	if s.momentum == 0 {
		return s.target.BackPropagate(grad, s.lr)
	}

	if len(grad) != s.target.ParamCount() {
		return fmt.Errorf("sgd: gradient has %d entries, target has %d parameters",
			len(grad), s.target.ParamCount())
	}
	if s.velocity == nil {
		s.velocity = make([]float32, len(grad))
	}

	// velocity = momentum * velocity + grad
	for i, g := range grad {
		s.velocity[i] = s.momentum*s.velocity[i] + g
	}
	return s.target.BackPropagate(s.velocity, s.lr)
}

// GetLR returns the current learning rate.
func (s *SGD) GetLR() float32 {
	return s.lr
}

// SetLR updates the learning rate.
//
// Useful for learning rate scheduling during training.
func (s *SGD) SetLR(lr float32) {
	s.lr = lr
}

// StateDict returns the optimizer state for serialization.
//
// For SGD with momentum, this exports the velocity buffer under "velocity".
// Without momentum, or before the first step, returns an empty map.
func (s *SGD) StateDict() map[string][]float32 {
	state := make(map[string][]float32)
	if s.velocity != nil {
		state["velocity"] = append([]float32(nil), s.velocity...)
	}
	return state
}

// LoadStateDict restores the velocity buffer.
//
// If momentum is 0, ignores the provided state (no velocities needed).
func (s *SGD) LoadStateDict(state map[string][]float32) error {
	if s.momentum == 0 {
		return nil
	}
	if _, ok := state["velocity"]; !ok {
		return nil
	}
	s.velocity = make([]float32, s.target.ParamCount())
	return loadBuffer(state, "velocity", s.velocity)
}
