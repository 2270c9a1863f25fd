package optim

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient       // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²      // Second moment
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)  // Parameter update
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type Adam struct {
	target Target
	lr     float32
	beta1  float32
	beta2  float32
	eps    float32
	t      int       // Timestep for bias correction
	m      []float32 // First moment estimates
	v      []float32 // Second moment estimates
	step   []float32 // Scratch buffer for the update direction
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR    float32    // Learning rate (default: 0.001)
	Betas [2]float32 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps   float32    // Term for numerical stability (default: 1e-8)
}

// NewAdam creates a new Adam optimizer.
//
// Default hyperparameters:
//   - LR: 0.001
//   - Beta1: 0.9
//   - Beta2: 0.999
//   - Eps: 1e-8
func NewAdam(target Target, config AdamConfig) *Adam {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}

	n := target.ParamCount()
	return &Adam{
		target: target,
		lr:     config.LR,
		beta1:  config.Betas[0],
		beta2:  config.Betas[1],
		eps:    config.Eps,
		m:      make([]float32, n),
		v:      make([]float32, n),
		step:   make([]float32, n),
	}
}

// Step performs a single optimization step using Adam algorithm.
func (a *Adam) Step(grad []float32) error {
	if len(grad) != len(a.m) {
		return fmt.Errorf("adam: gradient has %d entries, target has %d parameters", len(grad), len(a.m))
	}

	a.t++
	biasCorrection1 := 1 - math32.Pow(a.beta1, float32(a.t))
	biasCorrection2 := 1 - math32.Pow(a.beta2, float32(a.t))

	for i, g := range grad {
		a.m[i] = a.beta1*a.m[i] + (1-a.beta1)*g
		a.v[i] = a.beta2*a.v[i] + (1-a.beta2)*g*g

		mHat := a.m[i] / biasCorrection1
		vHat := a.v[i] / biasCorrection2
		a.step[i] = mHat / (math32.Sqrt(vHat) + a.eps)
	}

	return a.target.BackPropagate(a.step, a.lr)
}

// GetLR returns the current learning rate.
func (a *Adam) GetLR() float32 {
	return a.lr
}

// SetLR updates the learning rate.
func (a *Adam) SetLR(lr float32) {
	a.lr = lr
}

// GetTimestep returns the current timestep.
func (a *Adam) GetTimestep() int {
	return a.t
}

// StateDict exports the moment buffers and the timestep.
//
// State keys: "m", "v", "t" (a one-element slice).
func (a *Adam) StateDict() map[string][]float32 {
	return map[string][]float32{
		"m": append([]float32(nil), a.m...),
		"v": append([]float32(nil), a.v...),
		"t": {float32(a.t)},
	}
}

// LoadStateDict restores state produced by StateDict.
func (a *Adam) LoadStateDict(state map[string][]float32) error {
	if err := loadBuffer(state, "m", a.m); err != nil {
		return fmt.Errorf("adam: %w", err)
	}
	if err := loadBuffer(state, "v", a.v); err != nil {
		return fmt.Errorf("adam: %w", err)
	}
	if t, ok := state["t"]; ok && len(t) == 1 {
		a.t = int(t[0])
	}
	return nil
}
