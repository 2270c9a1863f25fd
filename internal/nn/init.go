package nn

import (
	"math"
	"math/rand/v2"
)

// Initializer fills the weights of one neuron.
type Initializer func(weights []float32, fanIn, fanOut int)

// Xavier (Glorot) initialization for weights.
//
// Initializes weights with values drawn from a uniform distribution:
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out)))
//
// A nil rng uses the package-level generator.
func Xavier(rng *rand.Rand) Initializer {
	return func(weights []float32, fanIn, fanOut int) {
		bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
		for i := range weights {
			//nolint:gosec // Using math/rand for weight initialization (not security-critical)
			weights[i] = float32((uniform(rng)*2.0 - 1.0) * bound)
		}
	}
}

// SmallPositive draws weights from U(0, 1) / (fanIn * fanOut * 100).
func SmallPositive(rng *rand.Rand) Initializer {
	return func(weights []float32, fanIn, fanOut int) {
		scale := float64(fanIn*fanOut) * 100
		for i := range weights {
			weights[i] = float32(uniform(rng) / scale)
		}
	}
}

// Constant sets every weight to v. Mostly useful in tests.
func Constant(v float32) Initializer {
	return func(weights []float32, _, _ int) {
		for i := range weights {
			weights[i] = v
		}
	}
}

func uniform(rng *rand.Rand) float64 {
	if rng == nil {
		return rand.Float64()
	}
	return rng.Float64()
}
