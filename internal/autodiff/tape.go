package autodiff

import (
	"sync/atomic"

	"github.com/born-ml/gradtape/internal/numeric"
)

// generations hands out tape identities. Every NewTape and every Reset takes
// a fresh one, so a Number can be traced to the exact tape generation that
// recorded it.
var generations atomic.Uint64

func nextGeneration() uint64 {
	return generations.Add(1)
}

// record holds the local partials of one tape slot.
// Every dependency slot is strictly smaller than the record's own slot.
type record struct {
	partials []numeric.Partial
}

// Tape is an append-only log of computation records.
//
// A record's position is its slot. Records can only reference values that
// already exist, so the tape is always in topological order and a single
// reverse scan computes a full gradient.
//
// Usage:
//
//	tape := NewTape()
//	x := tape.Variable(3)
//	y := tape.Compose(9, numeric.Partial{Of: x, Value: 6}) // y = x²
//	dydx, _ := tape.Diff(y, x)                             // 6
//	tape.Reset()
//
// A Tape is not safe for concurrent use; give every worker its own.
type Tape struct {
	id        uint64 // Current generation, never 0
	records   []record
	gradients map[int][]float32 // Output slot -> full gradient vector
}

// NewTape creates an empty tape.
func NewTape() *Tape {
	return &Tape{
		id:      nextGeneration(),
		records:   make([]record, 0, 1024), // Pre-allocate for a small network pass
		gradients: make(map[int][]float32),
	}
}

// Variable appends an empty record and returns a variable bound to it.
func (t *Tape) Variable(scalar float32) numeric.Number {
	t.records = append(t.records, record{})
	return numeric.Bind(t.id, len(t.records)-1, scalar)
}

// Constant returns an untracked value. The tape is not touched.
func (t *Tape) Constant(scalar float32) numeric.Number {
	return numeric.Const(scalar)
}

// Compose appends a record holding the variable operands of partials and
// returns a variable bound to it. Constant operands are dropped since their
// gradient contribution is zero.
//
// When no operand is a variable the result is a constant and nothing is
// appended.
//
// Compose panics with ErrInvalidDifferentiation if an operand was recorded on
// another tape or before the last Reset, and
// with ErrNumericInstability if a kept partial is NaN or infinite.
func (t *Tape) Compose(result float32, partials ...numeric.Partial) numeric.Number {
	slot := len(t.records)

	var kept []numeric.Partial
	for _, p := range partials {
		dep, ok := p.Of.Slot()
		if !ok {
			continue
		}
		if err := t.owns("compose", p.Of, dep); err != nil {
			panic(err)
		}
		numeric.Check("compose", p.Value, p.Of.Scalar)
		if kept == nil {
			kept = make([]numeric.Partial, 0, len(partials))
		}
		kept = append(kept, p)
	}

	if kept == nil {
		return numeric.Const(result)
	}

	t.records = append(t.records, record{partials: kept})
	return numeric.Bind(t.id, slot, result)
}

// owns reports an ErrInvalidDifferentiation unless n, bound to slot, was
// recorded on the current generation of t.
func (t *Tape) owns(op string, n numeric.Number, slot int) error {
	if n.Tape() != t.id {
		return numeric.Errorf(op, numeric.ErrInvalidDifferentiation,
			"slot %d belongs to another tape or to one that has been reset", slot)
	}
	if slot >= len(t.records) {
		return numeric.Errorf(op, numeric.ErrInvalidDifferentiation,
			"slot %d is not on a tape of length %d", slot, len(t.records))
	}
	return nil
}

// Len returns the number of records.
func (t *Tape) Len() int {
	return len(t.records)
}

// Dependencies returns the slots the record at slot depends on, in recording order.
func (t *Tape) Dependencies(slot int) []int {
	if slot < 0 || slot >= len(t.records) {
		return nil
	}
	deps := make([]int, len(t.records[slot].partials))
	for i, p := range t.records[slot].partials {
		deps[i], _ = p.Of.Slot()
	}
	return deps
}

// Reset clears every record and the gradient cache.
//
// Numbers created before Reset are rejected afterwards with
// ErrInvalidDifferentiation.
func (t *Tape) Reset() {
	clear(t.records)
	t.records = t.records[:0]
	clear(t.gradients)
	t.id = nextGeneration()
}
