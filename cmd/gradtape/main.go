// Package main provides the gradtape CLI.
//
// Usage:
//
//	gradtape [klog flags] train -config run.yaml [-resume model.gtp] [-points points.jsonl]
//	gradtape [klog flags] evaluate -checkpoint model.gtp [-data dir]
//	gradtape version
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/born-ml/gradtape/internal/config"
	"github.com/born-ml/gradtape/internal/loader"
	"github.com/born-ml/gradtape/internal/nn"
	"github.com/born-ml/gradtape/internal/parallel"
	"github.com/born-ml/gradtape/internal/serialization"
	"github.com/born-ml/gradtape/internal/train"
)

const version = "v0.1.0-dev"

var errUsage = errors.New("usage: gradtape [train|evaluate|version] [flags]")

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, flag.Args(), os.Stdout)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "train":
		return trainCmd(ctx, args[1:], out)
	case "evaluate":
		return evaluateCmd(ctx, args[1:], out)
	case "version":
		fmt.Fprintf(out, "gradtape %s\n", version)
		return nil
	default:
		return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
	}
}

func trainCmd(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	configPath := fs.String("config", "", "run configuration (YAML); defaults to the built-in MNIST run")
	resumePath := fs.String("resume", "", "checkpoint to continue training from")
	pointsPath := fs.String("points", "", "write visualization points as JSON lines to this file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}

	log := klog.FromContext(ctx)

	trainSet, testSet, err := loadData(cfg.Data)
	if err != nil {
		return err
	}

	var (
		net    *nn.Network
		resume *serialization.Checkpoint
	)
	if *resumePath != "" {
		if resume, err = serialization.Load(*resumePath); err != nil {
			return err
		}
		net = resume.Network
		log.Info("resuming", "checkpoint", *resumePath, "params", net.ParamCount())
	} else {
		var rng *rand.Rand
		if cfg.Training.Seed != 0 {
			rng = rand.New(rand.NewPCG(cfg.Training.Seed, 0))
		}
		if net, err = cfg.Network.Build(rng); err != nil {
			return err
		}
	}

	var opts []train.Option
	var sink *train.Sink
	if *pointsPath != "" {
		sink = train.NewSink(4096)
		opts = append(opts, train.WithSink(sink))
	}
	if resume != nil && resume.RunID != uuid.Nil {
		opts = append(opts, train.WithRunID(resume.RunID))
	}

	trainer, err := train.New(net, cfg.Training, opts...)
	if err != nil {
		return err
	}
	if resume != nil && len(resume.OptimizerState) > 0 {
		if err := trainer.Optimizer().LoadStateDict(resume.OptimizerState); err != nil {
			return fmt.Errorf("restoring optimizer state: %w", err)
		}
	}

	done := make(chan error, 1)
	if sink != nil {
		go func() { done <- writePoints(*pointsPath, sink.Points()) }()
	}

	hist, fitErr := trainer.Fit(ctx, trainSet, testSet)

	if sink != nil {
		sink.Close()
		if err := <-done; err != nil {
			log.Error(err, "writing visualization points", "path", *pointsPath)
		}
	}
	if fitErr != nil {
		return fitErr
	}

	if best, ok := hist.Best(); ok {
		fmt.Fprintf(out, "best epoch %d: test accuracy %.2f%%, training took %s\n",
			best.Epoch, 100*best.TestAccuracy, train.HumanDuration(hist.Elapsed()))
	}

	if cfg.Checkpoint == "" {
		return nil
	}
	ck := &serialization.Checkpoint{
		Network:        net,
		RunID:          trainer.RunID(),
		OptimizerState: trainer.Optimizer().StateDict(),
		Metadata:       map[string]string{"data_dir": cfg.Data.Dir},
	}
	if last, ok := hist.Last(); ok {
		ck.Meta = &serialization.CheckpointMeta{
			Epoch:         last.Epoch,
			Step:          int64(last.Epoch) * int64(len(trainSet)),
			Loss:          float64(last.TestError),
			Accuracy:      float64(last.TestAccuracy),
			OptimizerType: cfg.Training.Optimizer,
		}
	}
	if err := serialization.Save(cfg.Checkpoint, ck); err != nil {
		return err
	}
	log.Info("checkpoint saved", "path", cfg.Checkpoint, "run", trainer.RunID().String())
	return nil
}

func evaluateCmd(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("evaluate", flag.ContinueOnError)
	checkpoint := fs.String("checkpoint", "", "checkpoint to evaluate")
	dataDir := fs.String("data", "data", "directory holding the IDX test files")
	maxSamples := fs.Int("max", 0, "evaluate at most this many samples (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *checkpoint == "" {
		return errors.New("evaluate: -checkpoint is required")
	}

	ck, err := serialization.Load(*checkpoint)
	if err != nil {
		return err
	}
	images, err := loader.LoadDir(*dataDir, loader.Test, *maxSamples)
	if err != nil {
		return err
	}

	res, err := train.Evaluate(ctx, ck.Network, loader.Examples(images), parallel.DefaultConfig())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d samples: accuracy %.2f%%, mean error %.4f\n",
		res.Samples, 100*res.Accuracy(), res.MeanError())
	return nil
}

func loadData(cfg config.Data) (trainSet, testSet []nn.Example, err error) {
	trainImages, err := loader.LoadDir(cfg.Dir, loader.Train, cfg.MaxTrain)
	if err != nil {
		return nil, nil, fmt.Errorf("loading training set: %w", err)
	}
	testImages, err := loader.LoadDir(cfg.Dir, loader.Test, cfg.MaxTest)
	if err != nil {
		return nil, nil, fmt.Errorf("loading test set: %w", err)
	}
	return loader.Examples(trainImages), loader.Examples(testImages), nil
}

// writePoints copies points into path as JSON lines until the channel closes.
// The sink drops points once this stops reading.
func writePoints(path string, points <-chan train.Point) (err error) {
	//nolint:gosec // G304: output path is supplied by the user
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	enc := json.NewEncoder(f)
	for p := range points {
		if err := enc.Encode(p); err != nil {
			return err
		}
	}
	return nil
}
