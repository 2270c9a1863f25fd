// Package autodiff implements reverse-mode automatic differentiation over scalars.
//
// Backend wraps any numeric.Factory (the decorator pattern) and adds gradient
// tracking through a private Tape.
//
// Architecture:
//   - Backend[B] computes forward values with the wrapped backend
//   - Each primitive then records its analytic partials on the Tape
//   - Tape.Gradient walks the records once in reverse and memoises the result
//
// Usage:
//
//	backend := autodiff.New(cpu.New())
//	x := backend.Variable(3)
//	y := backend.Variable(4)
//	z := backend.Div(y, backend.Sub(backend.Exp(x), y)) // z = y / (eˣ − y)
//	dzdx, _ := backend.Diff(z, x)                        // ≈ -0.3105
//
// A Backend owns its tape and must not be shared between goroutines.
package autodiff

import (
	"github.com/chewxy/math32"

	"github.com/born-ml/gradtape/internal/backend/cpu"
	"github.com/born-ml/gradtape/internal/numeric"
)

// AutodiffBackend wraps a Factory and records every operation on a Tape.
// It implements numeric.Differentiable.
//
// Type parameter B must satisfy the numeric.Factory interface.
type AutodiffBackend[B numeric.Factory] struct {
	inner B     // Wrapped backend computing the values
	tape  *Tape // Records partials for backpropagation
}

// Compile-time check that AutodiffBackend implements numeric.Differentiable.
var _ numeric.Differentiable = (*AutodiffBackend[*cpu.CPUBackend])(nil)

// New creates a new AutodiffBackend wrapping the given backend.
func New[B numeric.Factory](backend B) *AutodiffBackend[B] {
	return &AutodiffBackend[B]{
		inner: backend,
		tape:  NewTape(),
	}
}

// Tape returns the gradient tape for manual control, e.g. Reset between steps.
func (b *AutodiffBackend[B]) Tape() *Tape {
	return b.tape
}

// Inner returns the wrapped backend.
func (b *AutodiffBackend[B]) Inner() B {
	return b.inner
}

// Name returns the backend name.
func (b *AutodiffBackend[B]) Name() string {
	return "Autodiff(" + b.inner.Name() + ")"
}

// Constant returns an untracked value.
func (b *AutodiffBackend[B]) Constant(scalar float32) numeric.Number {
	return b.inner.Constant(scalar)
}

// Variable returns a fresh tracked value with no dependencies.
func (b *AutodiffBackend[B]) Variable(scalar float32) numeric.Number {
	return b.tape.Variable(scalar)
}

// Compose records result as depending on partials.
func (b *AutodiffBackend[B]) Compose(result float32, partials ...numeric.Partial) numeric.Number {
	return b.tape.Compose(result, partials...)
}

// Diff returns dy/dx.
func (b *AutodiffBackend[B]) Diff(y, x numeric.Number) (float32, error) {
	return b.tape.Diff(y, x)
}

// Reset clears the tape. Call it after every parameter update.
func (b *AutodiffBackend[B]) Reset() {
	b.tape.Reset()
}

// Add records d(a+b)/da = 1, d(a+b)/db = 1.
func (b *AutodiffBackend[B]) Add(a, c numeric.Number) numeric.Number {
	result := b.inner.Add(a, c)
	return b.tape.Compose(result.Scalar,
		numeric.Partial{Of: a, Value: 1},
		numeric.Partial{Of: c, Value: 1},
	)
}

// Sub records d(a-b)/da = 1, d(a-b)/db = -1.
func (b *AutodiffBackend[B]) Sub(a, c numeric.Number) numeric.Number {
	result := b.inner.Sub(a, c)
	return b.tape.Compose(result.Scalar,
		numeric.Partial{Of: a, Value: 1},
		numeric.Partial{Of: c, Value: -1},
	)
}

// Mul records d(a*b)/da = b, d(a*b)/db = a.
func (b *AutodiffBackend[B]) Mul(a, c numeric.Number) numeric.Number {
	result := b.inner.Mul(a, c)
	return b.tape.Compose(result.Scalar,
		numeric.Partial{Of: a, Value: c.Scalar},
		numeric.Partial{Of: c, Value: a.Scalar},
	)
}

// Div records d(a/b)/da = 1/b, d(a/b)/db = -a/b².
func (b *AutodiffBackend[B]) Div(a, c numeric.Number) numeric.Number {
	result := b.inner.Div(a, c)
	return b.tape.Compose(result.Scalar,
		numeric.Partial{Of: a, Value: 1 / c.Scalar},
		numeric.Partial{Of: c, Value: -a.Scalar / (c.Scalar * c.Scalar)},
	)
}

// Pow records d(a^b)/da = b·a^(b-1), d(a^b)/db = a^b·ln(a).
//
// The partial with respect to b is only computed when b is a variable, since
// ln(a) is undefined for a ≤ 0.
func (b *AutodiffBackend[B]) Pow(a, c numeric.Number) numeric.Number {
	result := b.inner.Pow(a, c)
	partials := []numeric.Partial{
		{Of: a, Value: c.Scalar * math32.Pow(a.Scalar, c.Scalar-1)},
	}
	if c.IsVariable() {
		partials = append(partials, numeric.Partial{Of: c, Value: result.Scalar * math32.Log(a.Scalar)})
	}
	return b.tape.Compose(result.Scalar, partials...)
}

// Exp records d(eᵃ)/da = eᵃ.
func (b *AutodiffBackend[B]) Exp(a numeric.Number) numeric.Number {
	result := b.inner.Exp(a)
	return b.tape.Compose(result.Scalar, numeric.Partial{Of: a, Value: result.Scalar})
}

// Ln records d(ln a)/da = 1/a.
func (b *AutodiffBackend[B]) Ln(a numeric.Number) numeric.Number {
	result := b.inner.Ln(a)
	return b.tape.Compose(result.Scalar, numeric.Partial{Of: a, Value: 1 / a.Scalar})
}

// Powi records d(aⁿ)/da = n·aⁿ⁻¹.
func (b *AutodiffBackend[B]) Powi(a numeric.Number, n int) numeric.Number {
	result := b.inner.Powi(a, n)
	var partial float32
	if n != 0 {
		partial = float32(n) * cpu.Powi(a.Scalar, n-1)
	}
	return b.tape.Compose(result.Scalar, numeric.Partial{Of: a, Value: partial})
}

// Neg records d(-a)/da = -1.
func (b *AutodiffBackend[B]) Neg(a numeric.Number) numeric.Number {
	result := b.inner.Neg(a)
	return b.tape.Compose(result.Scalar, numeric.Partial{Of: a, Value: -1})
}
