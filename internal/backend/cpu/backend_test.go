package cpu

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"

	"github.com/born-ml/gradtape/internal/numeric"
)

func TestCPUBackend_Name(t *testing.T) {
	assert.Equal(t, "CPU", New().Name())
}

func TestCPUBackend_Arithmetic(t *testing.T) {
	cpu := New()
	a, b := cpu.Constant(6), cpu.Constant(3)

	tests := []struct {
		name string
		got  numeric.Number
		want float32
	}{
		{"add", cpu.Add(a, b), 9},
		{"sub", cpu.Sub(a, b), 3},
		{"mul", cpu.Mul(a, b), 18},
		{"div", cpu.Div(a, b), 2},
		{"pow", cpu.Pow(b, cpu.Constant(2)), 9},
		{"powi", cpu.Powi(b, 3), 27},
		{"powi negative", cpu.Powi(cpu.Constant(2), -2), 0.25},
		{"powi zero", cpu.Powi(a, 0), 1},
		{"neg", cpu.Neg(a), -6},
		{"exp", cpu.Exp(cpu.Constant(0)), 1},
		{"ln", cpu.Ln(cpu.Constant(1)), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.got.Scalar, 1e-6)
			assert.True(t, tt.got.IsConstant())
		})
	}
}

func TestCPUBackend_NumericInstability(t *testing.T) {
	cpu := New()
	tests := map[string]func(){
		"div by zero":  func() { cpu.Div(cpu.Constant(1), cpu.Constant(0)) },
		"ln of zero":   func() { cpu.Ln(cpu.Constant(0)) },
		"ln negative":  func() { cpu.Ln(cpu.Constant(-1)) },
		"exp overflow": func() { cpu.Exp(cpu.Constant(1000)) },
		"pow nan":      func() { cpu.Pow(cpu.Constant(-8), cpu.Constant(0.5)) },
		"neg infinity": func() { cpu.Neg(cpu.Constant(math32.Inf(1))) },
	}

	for name, fn := range tests {
		t.Run(name, func(t *testing.T) {
			var err error
			func() {
				defer numeric.Guard(&err)
				fn()
			}()
			assert.ErrorIs(t, err, numeric.ErrNumericInstability)
		})
	}
}
