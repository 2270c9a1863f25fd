// Package parallel provides the data-parallel execution used for per-sample
// training work.
package parallel

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool `yaml:"enabled"`        // Whether parallel execution is enabled.
	NumWorkers   int  `yaml:"num_workers"`    // Number of worker goroutines to use.
	MinChunkSize int  `yaml:"min_chunk_size"` // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 4, // A sample is a full forward and backward pass.
	}
}

// Sequential returns a config that runs everything on the calling goroutine.
func Sequential() Config {
	return Config{NumWorkers: 1, MinChunkSize: 1}
}

// chunk is a half-open index range [start, end) handled by one worker.
type chunk struct {
	start, end int
}

// split divides [0, n) into contiguous chunks, one per worker.
// Falls back to a single chunk if parallelism is disabled or n is too small.
func split(n int, cfg Config) []chunk {
	if n <= 0 {
		return nil
	}
	if !cfg.Enabled || cfg.NumWorkers <= 1 || n < 2*max(cfg.MinChunkSize, 1) {
		return []chunk{{0, n}}
	}

	size := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize)
	chunks := make([]chunk, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		chunks = append(chunks, chunk{start, min(start+size, n)})
	}
	return chunks
}

// MaxWorkers returns the largest worker index (exclusive) Fold can use with
// cfg, so callers can preallocate per-worker state.
func MaxWorkers(cfg Config) int {
	if !cfg.Enabled || cfg.NumWorkers <= 1 {
		return 1
	}
	return cfg.NumWorkers
}

// For executes f(i) for i in [0, n) with optional parallelism.
func For(n int, f func(i int), cfg Config) {
	chunks := split(n, cfg)
	if len(chunks) == 1 {
		for i := chunks[0].start; i < chunks[0].end; i++ {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	for _, c := range chunks {
		wg.Add(1)
		go func(c chunk) {
			defer wg.Done()
			for i := c.start; i < c.end; i++ {
				f(i)
			}
		}(c)
	}
	wg.Wait()
}

// Fold runs f over [0, n), giving every chunk its own accumulator created by
// init(worker). Worker indices are dense, start at 0 and stay below
// MaxWorkers(cfg), and no two concurrent chunks share one.
//
// Accumulators are returned in chunk order. The first error cancels the
// remaining work and is returned; ctx cancellation is checked before every
// item.
//
// Example:
//
//	partials, err := parallel.Fold(ctx, len(batch), cfg,
//	    func(w int) *Sum { return &Sum{} },
//	    func(acc *Sum, w, i int) error { acc.Add(batch[i]); return nil })
func Fold[A any](ctx context.Context, n int, cfg Config, init func(worker int) A, f func(acc A, worker, i int) error) ([]A, error) {
	chunks := split(n, cfg)
	accs := make([]A, len(chunks))

	g, ctx := errgroup.WithContext(ctx)
	run := func(w int) error {
		accs[w] = init(w)
		for i := chunks[w].start; i < chunks[w].end; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := f(accs[w], w, i); err != nil {
				return err
			}
		}
		return nil
	}

	for w := range chunks {
		g.Go(func() error { return run(w) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return accs, nil
}
