// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/gradtape/internal/backend/cpu"
	"github.com/born-ml/gradtape/internal/numeric"
)

// Backend represents the CPU backend implementation.
//
// The CPU backend computes plain float32 values and records nothing, so it is
// the fast path for inference and evaluation.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements numeric.Factory.
var _ numeric.Factory = (*Backend)(nil)

// New creates a new CPU backend.
//
// Example:
//
//	import (
//	    "github.com/born-ml/gradtape/backend/cpu"
//	    "github.com/born-ml/gradtape/nn"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    pass, err := net.Forward(backend, example, nn.Predict, nil)
//	}
func New() *Backend {
	return internalcpu.New()
}
