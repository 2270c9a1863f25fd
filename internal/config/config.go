// Package config loads the YAML description of a training run: where the data
// lives, the network topology, the training schedule and where to write the
// resulting checkpoint.
//
// Example file:
//
//	data:
//	  dir: data
//	  max_train: 60000
//	network:
//	  input_size: 784
//	  error_function: categorical_cross_entropy
//	  init: xavier
//	  layers:
//	    - neurons: 32
//	      use_bias: true
//	      dropout: 0.5
//	      neuron_activation: leaky_relu(0.01)
//	    - neurons: 10
//	      layer_activation: softmax
//	training:
//	  epochs: 10
//	  initial_lr: 0.01
//	  target_lr: 0.0001
//	  initial_batch: 128
//	  target_batch: 8
//	checkpoint: mnist.gtp
//
// Fields left out of the file keep the values from Default.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/gradtape/internal/nn"
	"github.com/born-ml/gradtape/internal/numeric"
	"github.com/born-ml/gradtape/internal/train"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Initializer names accepted in Network.Init.
const (
	InitXavier        = "xavier"
	InitSmallPositive = "small_positive"
)

// Run is a complete training run.
type Run struct {
	Data       Data         `yaml:"data"`
	Network    Network      `yaml:"network"`
	Training   train.Config `yaml:"training"`
	Checkpoint string       `yaml:"checkpoint"` // Empty disables saving
}

// Data locates the IDX files.
type Data struct {
	Dir      string `yaml:"dir"`
	MaxTrain int    `yaml:"max_train"` // 0 loads everything
	MaxTest  int    `yaml:"max_test"`  // 0 loads everything
}

// Network is the topology of the network to train.
type Network struct {
	InputSize     int                   `yaml:"input_size"`
	ErrorFunction numeric.ErrorFunction `yaml:"error_function"`
	Init          string                `yaml:"init"`
	Layers        []nn.LayerSpec        `yaml:"layers"`
}

// Default returns the MNIST run: one leaky hidden layer of 32 neurons with
// dropout and a softmax output over 10 classes.
func Default() Run {
	return Run{
		Data: Data{Dir: "data"},
		Network: Network{
			InputSize:     28 * 28,
			ErrorFunction: numeric.CategoricalCrossEntropy,
			Init:          InitXavier,
			Layers: []nn.LayerSpec{
				{Neurons: 32, UseBias: true, Dropout: 0.5, NeuronActivation: numeric.LeakyReLU(0.01)},
				{Neurons: 10, LayerActivation: numeric.SoftMax},
			},
		},
		Training:   train.DefaultConfig(),
		Checkpoint: "mnist.gtp",
	}
}

// Load reads and validates the run at path.
func Load(path string) (Run, error) {
	//nolint:gosec // G304: config path is supplied by the user
	data, err := os.ReadFile(path)
	if err != nil {
		return Run{}, fmt.Errorf("reading config: %w", err)
	}
	run, err := Parse(data)
	if err != nil {
		return Run{}, fmt.Errorf("%s: %w", path, err)
	}
	return run, nil
}

// Parse decodes YAML on top of Default and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (Run, error) {
	run := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&run); err != nil && !errors.Is(err, io.EOF) {
		return Run{}, fmt.Errorf("parsing config: %w", err)
	}

	if err := run.Validate(); err != nil {
		return Run{}, err
	}
	return run, nil
}

// Validate reports the first unusable field.
func (r Run) Validate() error {
	if r.Data.Dir == "" {
		return fmt.Errorf("%w: data.dir is required", ErrInvalid)
	}
	if r.Data.MaxTrain < 0 || r.Data.MaxTest < 0 {
		return fmt.Errorf("%w: sample limits must not be negative", ErrInvalid)
	}
	if err := r.Network.Validate(); err != nil {
		return err
	}
	if err := r.Training.Validate(); err != nil {
		return fmt.Errorf("%w: training: %w", ErrInvalid, err)
	}
	return nil
}

// Validate checks the topology without building it.
func (n Network) Validate() error {
	if n.InputSize <= 0 {
		return fmt.Errorf("%w: network.input_size must be positive, got %d", ErrInvalid, n.InputSize)
	}
	if len(n.Layers) == 0 {
		return fmt.Errorf("%w: network needs at least one layer", ErrInvalid)
	}
	for i, l := range n.Layers {
		if l.Neurons <= 0 {
			return fmt.Errorf("%w: layer %d: neurons must be positive, got %d", ErrInvalid, i, l.Neurons)
		}
		if l.Dropout < 0 || l.Dropout >= 1 {
			return fmt.Errorf("%w: layer %d: dropout must be in [0, 1), got %v", ErrInvalid, i, l.Dropout)
		}
	}
	switch n.Init {
	case "", InitXavier, InitSmallPositive:
	default:
		return fmt.Errorf("%w: unknown init %q", ErrInvalid, n.Init)
	}
	return nil
}

// Build creates the network with freshly initialised parameters. rng may be
// nil to use the global generator.
func (n Network) Build(rng *rand.Rand) (*nn.Network, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}

	weights := nn.Xavier(rng)
	if n.Init == InitSmallPositive {
		weights = nn.SmallPositive(rng)
	}

	net := nn.New(n.InputSize, n.ErrorFunction, nn.WithInitializer(weights))
	for _, l := range n.Layers {
		net.AddLayer(l)
	}
	return net, nil
}
