// Package numeric defines the scalar number abstraction shared by every backend.
//
// A Number is a float32 optionally bound to a slot on a gradient tape. Backends
// implement the Factory interface; backends that can differentiate additionally
// implement Differentiable. Code that only needs values (inference) is written
// against Factory and runs unchanged on either kind of backend:
//
//	f := cpu.New()                  // plain values
//	d := autodiff.New(cpu.New())    // values + tape
//
//	x := d.Variable(3)
//	y := numeric.ActivateNeuron(d, d.Mul(x, x), numeric.Sigmoid())
//	dydx, _ := d.Diff(y, x)
package numeric

import "fmt"

// Number is a scalar value, either constant or bound to a tape slot.
//
// The zero value is the constant 0.
type Number struct {
	Scalar float32

	// slot is the tape slot plus one; 0 marks a constant.
	slot int
	// tape identifies the tape and its generation since the last Reset.
	tape uint64
}

// Const returns an untracked value.
func Const(scalar float32) Number {
	return Number{Scalar: scalar}
}

// Bind returns a variable bound to slot on the tape generation identified by
// tape. Only tape implementations should call it.
func Bind(tape uint64, slot int, scalar float32) Number {
	if slot < 0 {
		panic(fmt.Sprintf("numeric: negative tape slot %d", slot))
	}
	return Number{Scalar: scalar, slot: slot + 1, tape: tape}
}

// Slot returns the tape slot and whether the number is a variable.
func (n Number) Slot() (int, bool) {
	return n.slot - 1, n.slot > 0
}

// Tape returns the identity of the tape generation n was recorded on.
// It is 0 for constants.
func (n Number) Tape() uint64 {
	return n.tape
}

// IsVariable reports whether n is tracked on a tape.
func (n Number) IsVariable() bool {
	return n.slot > 0
}

// IsConstant reports whether n is untracked.
func (n Number) IsConstant() bool {
	return n.slot == 0
}

// String implements fmt.Stringer.
func (n Number) String() string {
	if s, ok := n.Slot(); ok {
		return fmt.Sprintf("%g@%d", n.Scalar, s)
	}
	return fmt.Sprintf("%g", n.Scalar)
}

// Scalars extracts the float values of xs.
func Scalars(xs []Number) []float32 {
	out := make([]float32, len(xs))
	for i, x := range xs {
		out[i] = x.Scalar
	}
	return out
}

// Partial pairs an operand with the local partial derivative of a
// composite value with respect to it.
type Partial struct {
	Of    Number
	Value float32
}
