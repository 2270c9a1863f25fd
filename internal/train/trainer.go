package train

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/backend/cpu"
	"github.com/born-ml/gradtape/internal/nn"
	"github.com/born-ml/gradtape/internal/numeric"
	"github.com/born-ml/gradtape/internal/optim"
	"github.com/born-ml/gradtape/internal/parallel"
)

// ErrInvalidConfig is returned by New for unusable training configurations.
var ErrInvalidConfig = errors.New("invalid training config")

// Config controls a training run.
type Config struct {
	Epochs       int     `yaml:"epochs"`
	InitialLR    float32 `yaml:"initial_lr"`
	TargetLR     float32 `yaml:"target_lr"`
	InitialBatch int     `yaml:"initial_batch"`
	TargetBatch  int     `yaml:"target_batch"`

	// Optimizer is "sgd" (default) or "adam".
	Optimizer string  `yaml:"optimizer"`
	Momentum  float32 `yaml:"momentum"` // SGD only

	Shuffle bool   `yaml:"shuffle"`
	Seed    uint64 `yaml:"seed"` // 0 picks a random seed

	// EvaluateTraining also scores the whole training set in predict mode
	// after every epoch. Otherwise training accuracy is taken from the
	// training passes themselves.
	EvaluateTraining bool `yaml:"evaluate_training"`

	Parallel parallel.Config `yaml:"parallel"`
}

// DefaultConfig returns the schedule used for MNIST-sized problems.
func DefaultConfig() Config {
	return Config{
		Epochs:       10,
		InitialLR:    0.01,
		TargetLR:     0.0001,
		InitialBatch: 128,
		TargetBatch:  8,
		Optimizer:    "sgd",
		Shuffle:      true,
		Parallel:     parallel.DefaultConfig(),
	}
}

// Validate reports the first unusable field.
func (c Config) Validate() error {
	switch {
	case c.Epochs <= 0:
		return fmt.Errorf("%w: epochs must be positive, got %d", ErrInvalidConfig, c.Epochs)
	case c.InitialBatch <= 0 || c.TargetBatch <= 0:
		return fmt.Errorf("%w: batch sizes must be positive, got %d and %d", ErrInvalidConfig, c.InitialBatch, c.TargetBatch)
	case c.InitialLR <= 0 || c.TargetLR < 0:
		return fmt.Errorf("%w: learning rates must be positive, got %v and %v", ErrInvalidConfig, c.InitialLR, c.TargetLR)
	case c.Momentum < 0 || c.Momentum >= 1:
		return fmt.Errorf("%w: momentum must be in [0, 1), got %v", ErrInvalidConfig, c.Momentum)
	}
	return nil
}

// worker is the state owned by one parallel worker for the whole run.
type worker struct {
	backend *autodiff.AutodiffBackend[*cpu.CPUBackend]
	rng     *rand.Rand
}

// Trainer runs mini-batch gradient descent on a network.
//
// The network's parameters are read concurrently while a batch is computed
// and updated on the calling goroutine between batches.
type Trainer struct {
	net     *nn.Network
	cfg     Config
	opt     optim.Optimizer
	sink    *Sink
	runID   uuid.UUID
	rng     *rand.Rand
	workers []*worker
}

// Option configures a Trainer.
type Option func(*Trainer)

// WithSink sends visualization points to s.
func WithSink(s *Sink) Option {
	return func(t *Trainer) {
		t.sink = s
	}
}

// WithOptimizer replaces the optimizer built from the config.
func WithOptimizer(opt optim.Optimizer) Option {
	return func(t *Trainer) {
		t.opt = opt
	}
}

// WithRunID sets the run identifier instead of generating one.
func WithRunID(id uuid.UUID) Option {
	return func(t *Trainer) {
		t.runID = id
	}
}

// New creates a trainer for net.
func New(net *nn.Network, cfg Config, opts ...Option) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	t := &Trainer{
		net:   net,
		cfg:   cfg,
		runID: uuid.New(),
		rng:   rand.New(rand.NewPCG(seed, 0)),
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.opt == nil {
		switch cfg.Optimizer {
		case "", "sgd":
			t.opt = optim.NewSGD(net, optim.SGDConfig{LR: cfg.InitialLR, Momentum: cfg.Momentum})
		default:
			opt, err := optim.FromName(cfg.Optimizer, net, cfg.InitialLR)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
			}
			t.opt = opt
		}
	}

	t.workers = make([]*worker, parallel.MaxWorkers(cfg.Parallel))
	for w := range t.workers {
		t.workers[w] = &worker{
			backend: autodiff.New(cpu.New()),
			rng:     rand.New(rand.NewPCG(seed, uint64(w)+1)),
		}
	}

	return t, nil
}

// RunID identifies this run in logs, checkpoints and history.
func (t *Trainer) RunID() uuid.UUID {
	return t.runID
}

// Optimizer returns the optimizer applying updates.
func (t *Trainer) Optimizer() optim.Optimizer {
	return t.opt
}

// ComputeBatch runs a training pass on every sample of batch and returns the
// summed results. Parameters are not modified.
func (t *Trainer) ComputeBatch(ctx context.Context, batch []nn.Example) (_ BatchResult, err error) {
	defer numeric.Guard(&err)

	partials, err := parallel.Fold(ctx, len(batch), t.cfg.Parallel,
		func(int) *BatchResult { return &BatchResult{} },
		func(acc *BatchResult, w, i int) error {
			wk := t.workers[w]
			wk.backend.Reset()
			r, err := t.net.Gradient(wk.backend, batch[i], wk.rng)
			if err != nil {
				return fmt.Errorf("sample %d: %w", i, err)
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

// TrainBatch computes batch and applies one optimizer step with the averaged
// gradient. Every worker tape is reset afterwards.
func (t *Trainer) TrainBatch(ctx context.Context, batch []nn.Example) (BatchResult, error) {
	defer t.resetTapes()

	res, err := t.ComputeBatch(ctx, batch)
	if err != nil {
		return BatchResult{}, err
	}

	grad, err := res.MeanGradient()
	if err != nil {
		return res, err
	}
	if err := t.opt.Step(grad); err != nil {
		return res, fmt.Errorf("optimizer step: %w", err)
	}
	return res, nil
}

func (t *Trainer) resetTapes() {
	for _, w := range t.workers {
		w.backend.Reset()
	}
}

// Fit trains for the configured number of epochs and evaluates on test after
// each one. Learning rate and batch size are annealed linearly over the whole
// run. Cancellation is checked between batches.
//
// The returned history holds every completed epoch, also on error.
func (t *Trainer) Fit(ctx context.Context, trainSet, testSet []nn.Example) (*History, error) {
	hist := &History{RunID: t.runID}
	if len(trainSet) == 0 {
		return hist, numeric.Errorf("fit", numeric.ErrEmptyInput, "training set is empty")
	}

	log := klog.FromContext(ctx).WithValues("run", t.runID.String())
	schedule := optim.NewSchedule(t.cfg.Epochs, len(trainSet),
		t.cfg.InitialLR, t.cfg.TargetLR, t.cfg.InitialBatch, t.cfg.TargetBatch)
	order := slices.Clone(trainSet)

	log.Info("training started", "samples", len(trainSet), "test", len(testSet),
		"params", t.net.ParamCount(), "epochs", t.cfg.Epochs, "workers", len(t.workers))

	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		start := time.Now()
		if t.cfg.Shuffle {
			t.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		}

		var seen BatchResult
		win := NewWindow(order, schedule.BatchSize())
		for batchNum := 0; ; batchNum++ {
			batch, ok := win.Next()
			if !ok {
				break
			}
			if err := ctx.Err(); err != nil {
				return hist, err
			}

			lr := schedule.LearningRate()
			t.opt.SetLR(lr)
			res, err := t.TrainBatch(ctx, batch)
			if err != nil {
				return hist, fmt.Errorf("epoch %d batch %d: %w", epoch, batchNum, err)
			}

			schedule.Advance(len(batch))
			win.Resize(schedule.BatchSize())

			res.Gradient = nil
			seen.Merge(res)

			log.V(2).Info("batch trained", "epoch", epoch, "batch", batchNum,
				"size", len(batch), "lr", lr, "error", res.MeanError())
			t.sink.Emit(Point{Series: SeriesBatchError, X: float64(schedule.Seen()), Y: float64(res.MeanError())})
		}

		test, err := Evaluate(ctx, t.net, testSet, t.cfg.Parallel)
		if err != nil {
			return hist, fmt.Errorf("epoch %d: %w", epoch, err)
		}
		if t.cfg.EvaluateTraining {
			if seen, err = Evaluate(ctx, t.net, trainSet, t.cfg.Parallel); err != nil {
				return hist, fmt.Errorf("epoch %d: %w", epoch, err)
			}
		}

		stats := EpochStats{
			Epoch:         epoch,
			TrainError:    seen.MeanError(),
			TrainAccuracy: seen.Accuracy(),
			TestError:     test.MeanError(),
			TestAccuracy:  test.Accuracy(),
			LearningRate:  schedule.LearningRate(),
			BatchSize:     schedule.BatchSize(),
			Duration:      time.Since(start),
		}
		hist.Add(stats)

		log.Info("epoch done", "epoch", epoch,
			"testAccuracy", fmt.Sprintf("%.2f%%", 100*stats.TestAccuracy),
			"trainAccuracy", fmt.Sprintf("%.2f%%", 100*stats.TrainAccuracy),
			"testError", stats.TestError, "lr", stats.LearningRate,
			"batchSize", stats.BatchSize, "took", HumanDuration(stats.Duration))
		t.sink.Emit(Point{Series: SeriesTestAccuracy, X: float64(epoch), Y: float64(stats.TestAccuracy)})
		t.sink.Emit(Point{Series: SeriesTrainAccuracy, X: float64(epoch), Y: float64(stats.TrainAccuracy)})
	}

	log.Info("training complete", "took", HumanDuration(hist.Elapsed()), "droppedPoints", t.sink.Dropped())
	return hist, nil
}
