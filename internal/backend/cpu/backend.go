// Package cpu implements the plain float32 backend.
//
// Every result is a constant: no tape, no bookkeeping. It is the backend used
// for inference and evaluation, and the inner backend wrapped by autodiff.
package cpu

import (
	"github.com/chewxy/math32"

	"github.com/born-ml/gradtape/internal/numeric"
)

// CPUBackend computes values directly.
//
// It holds no state and is safe for concurrent use.
type CPUBackend struct{}

// Compile-time check that CPUBackend implements numeric.Factory.
var _ numeric.Factory = (*CPUBackend)(nil)

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Constant wraps a scalar as a constant.
func (cpu *CPUBackend) Constant(scalar float32) numeric.Number {
	return numeric.Const(scalar)
}

// Add returns a + b.
func (cpu *CPUBackend) Add(a, b numeric.Number) numeric.Number {
	return binary("add", a.Scalar+b.Scalar, a, b)
}

// Sub returns a - b.
func (cpu *CPUBackend) Sub(a, b numeric.Number) numeric.Number {
	return binary("sub", a.Scalar-b.Scalar, a, b)
}

// Mul returns a * b.
func (cpu *CPUBackend) Mul(a, b numeric.Number) numeric.Number {
	return binary("mul", a.Scalar*b.Scalar, a, b)
}

// Div returns a / b.
func (cpu *CPUBackend) Div(a, b numeric.Number) numeric.Number {
	return binary("div", a.Scalar/b.Scalar, a, b)
}

// Pow returns a^b.
func (cpu *CPUBackend) Pow(a, b numeric.Number) numeric.Number {
	return binary("pow", math32.Pow(a.Scalar, b.Scalar), a, b)
}

// Exp returns e^a.
func (cpu *CPUBackend) Exp(a numeric.Number) numeric.Number {
	return unary("exp", math32.Exp(a.Scalar), a)
}

// Ln returns the natural logarithm of a.
func (cpu *CPUBackend) Ln(a numeric.Number) numeric.Number {
	return unary("ln", math32.Log(a.Scalar), a)
}

// Powi returns a^n.
func (cpu *CPUBackend) Powi(a numeric.Number, n int) numeric.Number {
	return unary("powi", powi(a.Scalar, n), a)
}

// Neg returns -a.
func (cpu *CPUBackend) Neg(a numeric.Number) numeric.Number {
	return unary("neg", -a.Scalar, a)
}

func binary(op string, result float32, a, b numeric.Number) numeric.Number {
	return numeric.Const(numeric.Check(op, result, a.Scalar, b.Scalar))
}

func unary(op string, result float32, a numeric.Number) numeric.Number {
	return numeric.Const(numeric.Check(op, result, a.Scalar))
}

// powi raises x to an integer power by repeated squaring.
func powi(x float32, n int) float32 {
	if n < 0 {
		return 1 / powi(x, -n)
	}
	result := float32(1)
	for n > 0 {
		if n&1 == 1 {
			result *= x
		}
		x *= x
		n >>= 1
	}
	return result
}

// Powi exposes the integer power kernel for other backends.
func Powi(x float32, n int) float32 {
	return powi(x, n)
}
