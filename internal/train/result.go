// Package train implements mini-batch training of a flat-parameter network.
//
// Each batch fans out one unit of work per sample. Every worker owns its own
// differentiable backend, so no tape is ever shared between goroutines. The
// per-sample results are summed into a BatchResult, averaged, and handed to
// the optimizer once the whole batch is done.
package train

import (
	"github.com/born-ml/gradtape/internal/nn"
	"github.com/born-ml/gradtape/internal/numeric"
)

// BatchResult accumulates per-sample results.
//
// Every field is a sum, which makes Merge associative and commutative: a batch
// split into any partition and merged back yields the same totals (up to
// floating-point rounding). Averages are derived on demand.
type BatchResult struct {
	Error    float32   // Sum of sample errors
	Gradient []float32 // Sum of sample gradients; nil if no sample carried one
	Correct  int       // Samples whose predicted category was right
	Samples  int
}

// Add accumulates a single sample result.
func (b *BatchResult) Add(r *nn.Result) {
	b.Error += r.Error
	if r.Correct() {
		b.Correct++
	}
	b.Samples++
	b.addGradient(r.Gradient)
}

// Merge folds o into b.
func (b *BatchResult) Merge(o BatchResult) {
	b.Error += o.Error
	b.Correct += o.Correct
	b.Samples += o.Samples
	b.addGradient(o.Gradient)
}

func (b *BatchResult) addGradient(g []float32) {
	if g == nil {
		return
	}
	if b.Gradient == nil {
		b.Gradient = make([]float32, len(g))
	}
	if len(g) != len(b.Gradient) {
		panic(numeric.Errorf("merge", numeric.ErrLengthMismatch,
			"gradient has %d entries, accumulated %d", len(g), len(b.Gradient)))
	}
	for i, v := range g {
		b.Gradient[i] += v
	}
}

// Aggregate merges the given results into a new one.
func Aggregate(parts ...BatchResult) BatchResult {
	var total BatchResult
	for _, p := range parts {
		total.Merge(p)
	}
	return total
}

// MeanError returns the average error, or 0 for an empty result.
func (b BatchResult) MeanError() float32 {
	if b.Samples == 0 {
		return 0
	}
	return b.Error / float32(b.Samples)
}

// Accuracy returns the fraction of correct predictions in [0, 1].
func (b BatchResult) Accuracy() float32 {
	if b.Samples == 0 {
		return 0
	}
	return float32(b.Correct) / float32(b.Samples)
}

// MeanGradient returns the average gradient.
//
// It fails with ErrEmptyInput when no sample carried a gradient and with
// ErrNumericInstability when an entry is NaN or infinite.
func (b BatchResult) MeanGradient() ([]float32, error) {
	if b.Samples == 0 || b.Gradient == nil {
		return nil, numeric.Errorf("mean_gradient", numeric.ErrEmptyInput, "batch has no gradient")
	}

	n := float32(b.Samples)
	mean := make([]float32, len(b.Gradient))
	for i, g := range b.Gradient {
		mean[i] = g / n
		if !numeric.IsFinite(mean[i]) {
			return nil, numeric.Errorf("mean_gradient", numeric.ErrNumericInstability,
				"gradient entry %d is %v", i, mean[i])
		}
	}
	return mean, nil
}
