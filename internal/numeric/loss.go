package numeric

import (
	"fmt"
	"strings"
)

// ErrorFunction measures the distance between an expected and an actual output.
type ErrorFunction uint8

// Error functions.
const (
	ErrorNone ErrorFunction = iota
	EuclideanSquared
	CategoricalCrossEntropy
)

// String implements fmt.Stringer.
func (e ErrorFunction) String() string {
	switch e {
	case ErrorNone:
		return "none"
	case EuclideanSquared:
		return "euclidean_squared"
	case CategoricalCrossEntropy:
		return "categorical_cross_entropy"
	default:
		return fmt.Sprintf("ErrorFunction(%d)", uint8(e))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (e ErrorFunction) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *ErrorFunction) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "none":
		*e = ErrorNone
	case "euclidean_squared", "mse":
		*e = EuclideanSquared
	case "categorical_cross_entropy", "cross_entropy":
		*e = CategoricalCrossEntropy
	default:
		return fmt.Errorf("unknown error function %q", text)
	}
	return nil
}

// ComputeError returns the scalar error between expected and actual.
//
//   - EuclideanSquared: Σ(eᵢ−aᵢ)²
//   - CategoricalCrossEntropy: −Σ eᵢ·ln(aᵢ), skipping terms whose eᵢ is the
//     constant 0 so that aᵢ = 0 there does not make the error infinite
//   - ErrorNone: constant 0
//
// It fails with ErrLengthMismatch when the lengths differ, ErrEmptyInput when
// either side is empty, and ErrNumericInstability when an intermediate value
// is NaN or infinite.
func ComputeError(f Factory, expected, actual []Number, fn ErrorFunction) (_ Number, err error) {
	defer Guard(&err)

	if len(expected) != len(actual) {
		return Number{}, Errorf("compute_error", ErrLengthMismatch,
			"expected %d values, got %d", len(expected), len(actual))
	}
	if len(expected) == 0 {
		return Number{}, Errorf("compute_error", ErrEmptyInput, "no values to compare")
	}

	switch fn {
	case ErrorNone:
		return f.Constant(0), nil

	case EuclideanSquared:
		sum := f.Constant(0)
		for i := range expected {
			diff := f.Sub(expected[i], actual[i])
			sum = f.Add(sum, f.Powi(diff, 2))
		}
		return sum, nil

	case CategoricalCrossEntropy:
		sum := f.Constant(0)
		for i := range expected {
			// A constant zero target contributes neither error nor gradient.
			if expected[i].IsConstant() && expected[i].Scalar == 0 {
				continue
			}
			sum = f.Sub(sum, f.Mul(f.Ln(actual[i]), expected[i]))
		}
		return sum, nil

	default:
		return Number{}, fmt.Errorf("compute_error: unknown error function %v", fn)
	}
}
