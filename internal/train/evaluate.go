package train

import (
	"context"
	"fmt"

	"github.com/born-ml/gradtape/internal/backend/cpu"
	"github.com/born-ml/gradtape/internal/nn"
	"github.com/born-ml/gradtape/internal/parallel"
)

// Evaluate scores net on examples with the plain backend in predict mode.
// The returned result carries errors and accuracy but no gradient.
func Evaluate(ctx context.Context, net *nn.Network, examples []nn.Example, cfg parallel.Config) (BatchResult, error) {
	plain := cpu.New()

	partials, err := parallel.Fold(ctx, len(examples), cfg,
		func(int) *BatchResult { return &BatchResult{} },
		func(acc *BatchResult, _, i int) error {
			r, err := net.Evaluate(plain, examples[i])
			if err != nil {
				return fmt.Errorf("evaluate example %d: %w", i, err)
			}
			acc.Add(r)
			return nil
		})
	if err != nil {
		return BatchResult{}, err
	}

	var total BatchResult
	for _, p := range partials {
		total.Merge(*p)
	}
	return total, nil
}
