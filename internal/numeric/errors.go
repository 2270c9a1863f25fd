package numeric

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
)

// Common errors.
var (
	ErrShapeMismatch          = errors.New("shape mismatch")
	ErrLengthMismatch         = errors.New("length mismatch")
	ErrInvalidDifferentiation = errors.New("invalid differentiation")
	ErrEmptyInput             = errors.New("empty input")
	ErrNumericInstability     = errors.New("numeric instability")
)

// Error describes a failed numeric operation.
type Error struct {
	Op     string // Operation that failed (e.g., "div", "softmax")
	Err    error  // One of the sentinel errors above
	Detail string // Operands or sizes involved
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Err, e.Detail)
}

// Unwrap returns the sentinel error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf builds an *Error.
func Errorf(op string, err error, format string, args ...any) *Error {
	return &Error{Op: op, Err: err, Detail: fmt.Sprintf(format, args...)}
}

// Check panics with ErrNumericInstability if result is NaN or infinite.
// It returns result unchanged otherwise.
func Check(op string, result float32, operands ...float32) float32 {
	if math32.IsNaN(result) || math32.IsInf(result, 0) {
		panic(Errorf(op, ErrNumericInstability, "%s%v = %v", op, operands, result))
	}
	return result
}

// IsFinite reports whether x is neither NaN nor infinite.
func IsFinite(x float32) bool {
	return !math32.IsNaN(x) && !math32.IsInf(x, 0)
}

// Guard recovers a panicking *Error into *errp. Other panics propagate.
//
//	func run() (err error) {
//	    defer numeric.Guard(&err)
//	    ...
//	}
func Guard(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if e, ok := r.(*Error); ok {
		*errp = e
		return
	}
	panic(r)
}
