package numeric

// Factory is the arithmetic protocol a forward pass is written against.
//
// Implementations:
//   - cpu.Backend: plain float32 arithmetic, every result is a constant
//   - autodiff.Backend: wraps a Factory and records partials on a tape
//
// Every primitive panics with an *Error wrapping ErrNumericInstability when
// its result is NaN or infinite. Use Guard at API boundaries to turn that
// panic back into an error.
type Factory interface {
	// Name returns the backend name.
	Name() string

	// Constant wraps a scalar as an untracked value.
	Constant(scalar float32) Number

	// Element-wise binary operations
	Add(a, b Number) Number
	Sub(a, b Number) Number
	Mul(a, b Number) Number
	Div(a, b Number) Number
	Pow(a, b Number) Number

	// Unary operations
	Exp(a Number) Number
	Ln(a Number) Number
	Powi(a Number, n int) Number
	Neg(a Number) Number
}

// Differentiable is implemented by backends that track values on a tape.
//
// Callers query for it instead of assuming it:
//
//	if d, ok := numeric.AsDifferentiable(f); ok {
//	    w = d.Variable(weight)
//	}
type Differentiable interface {
	Factory

	// Variable wraps a scalar as a fresh tracked value with no dependencies.
	Variable(scalar float32) Number

	// Compose produces a value that depends on the given operands with the
	// given local partial derivatives. Constant operands are dropped.
	Compose(result float32, partials ...Partial) Number

	// Diff returns dy/dx. It is 0 when x is a constant, and fails with
	// ErrInvalidDifferentiation when y is a constant and x is not.
	Diff(y, x Number) (float32, error)
}

// AsDifferentiable returns f's differentiable capability, if any.
func AsDifferentiable(f Factory) (Differentiable, bool) {
	d, ok := f.(Differentiable)
	return d, ok
}

// Constants wraps every scalar as a constant of f.
func Constants(f Factory, scalars []float32) []Number {
	out := make([]Number, len(scalars))
	for i, s := range scalars {
		out[i] = f.Constant(s)
	}
	return out
}

// derive produces a unary result on f: composed with the given partial on a
// differentiable backend, a plain constant otherwise.
func derive(f Factory, op string, result float32, x Number, partial float32) Number {
	Check(op, result, x.Scalar)
	if d, ok := AsDifferentiable(f); ok {
		return d.Compose(result, Partial{Of: x, Value: partial})
	}
	return f.Constant(result)
}
