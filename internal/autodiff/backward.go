package autodiff

import (
	"github.com/born-ml/gradtape/internal/numeric"
)

// Gradient returns dy/dv for every slot v ≤ y's slot.
//
// Algorithm:
//  1. Seed dy[y] = 1
//  2. Walk records from y's slot down to 0
//  3. For each partial (dep, d) of record i, accumulate dy[dep] += d * dy[i]
//
// The result is cached per output slot until Reset; callers must not modify it.
// It fails with ErrInvalidDifferentiation if y is a constant or was not
// recorded on the current generation of the tape.
func (t *Tape) Gradient(y numeric.Number) ([]float32, error) {
	slot, ok := y.Slot()
	if !ok {
		return nil, numeric.Errorf("gradient", numeric.ErrInvalidDifferentiation,
			"cannot take the gradient of constant %v", y.Scalar)
	}
	if err := t.owns("gradient", y, slot); err != nil {
		return nil, err
	}

	if grad, ok := t.gradients[slot]; ok {
		return grad, nil
	}

	grad := make([]float32, slot+1)
	grad[slot] = 1

	for i := slot; i >= 0; i-- {
		gi := grad[i]
		if gi == 0 {
			continue
		}
		for _, p := range t.records[i].partials {
			dep, _ := p.Of.Slot()
			grad[dep] += p.Value * gi
		}
	}

	t.gradients[slot] = grad
	return grad, nil
}

// Diff returns dy/dx.
//
// Differentiating with respect to a constant is always 0. A variable x whose
// slot is after y's cannot influence y, so that derivative is 0 as well.
func (t *Tape) Diff(y, x numeric.Number) (float32, error) {
	xs, ok := x.Slot()
	if !ok {
		return 0, nil
	}
	if err := t.owns("diff", x, xs); err != nil {
		return 0, err
	}

	grad, err := t.Gradient(y)
	if err != nil {
		return 0, err
	}
	if xs >= len(grad) {
		return 0, nil
	}
	return grad[xs], nil
}
