// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package train runs mini-batch training of flat-parameter networks.
//
// Example:
//
//	import (
//	    "github.com/born-ml/gradtape/loader"
//	    "github.com/born-ml/gradtape/train"
//	)
//
//	func main() {
//	    trainSet, _ := loader.LoadDir("data", loader.Train, 0)
//	    testSet, _ := loader.LoadDir("data", loader.Test, 0)
//
//	    trainer, err := train.New(net, train.DefaultConfig())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    history, err := trainer.Fit(ctx, loader.Examples(trainSet), loader.Examples(testSet))
//	}
//
// Per-sample gradients are computed in parallel, each worker with its own
// autodiff backend, and summed into a BatchResult before a single update.
package train

import (
	"context"
	"time"

	"github.com/born-ml/gradtape/internal/nn"
	"github.com/born-ml/gradtape/internal/parallel"
	"github.com/born-ml/gradtape/internal/train"
)

// Trainer runs the training loop for one network.
type Trainer = train.Trainer

// Config holds the schedule and execution settings of a run.
type Config = train.Config

// ParallelConfig controls how samples are spread across goroutines.
type ParallelConfig = parallel.Config

// Option configures a Trainer.
type Option = train.Option

// DefaultConfig returns the schedule used for MNIST-sized problems.
func DefaultConfig() Config {
	return train.DefaultConfig()
}

// New creates a trainer for net.
func New(net *nn.Network, cfg Config, opts ...Option) (*Trainer, error) {
	return train.New(net, cfg, opts...)
}

// WithSink sends visualization points to s.
func WithSink(s *Sink) Option {
	return train.WithSink(s)
}

// BatchResult holds summed errors, gradients and hits of a batch.
type BatchResult = train.BatchResult

// Evaluate scores examples in predict mode without touching parameters.
func Evaluate(ctx context.Context, net *nn.Network, examples []nn.Example, cfg ParallelConfig) (BatchResult, error) {
	return train.Evaluate(ctx, net, examples, cfg)
}

// History records every epoch of a run.
type History = train.History

// EpochStats summarises one epoch.
type EpochStats = train.EpochStats

// HumanDuration formats d with the largest units first, e.g. "1m 5s".
func HumanDuration(d time.Duration) string {
	return train.HumanDuration(d)
}

// Sink is a bounded, non-blocking channel of visualization points.
type Sink = train.Sink

// Point is one visualization sample.
type Point = train.Point

// NewSink creates a sink buffering up to capacity points.
func NewSink(capacity int) *Sink {
	return train.NewSink(capacity)
}
