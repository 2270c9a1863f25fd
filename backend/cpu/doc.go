// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for scalar arithmetic.
//
// # Overview
//
// This package implements a numeric backend with:
//   - Pure Go implementation (no CGO)
//   - float32 arithmetic via github.com/chewxy/math32
//   - No recording: every result is a constant
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/gradtape/autodiff"
//	    "github.com/born-ml/gradtape/backend/cpu"
//	)
//
//	func main() {
//	    // Plain evaluation
//	    backend := cpu.New()
//	    y := backend.Exp(backend.Constant(1))
//
//	    // Same arithmetic with gradients
//	    ad := autodiff.New(cpu.New())
//	    x := ad.Variable(1)
//	    dydx, err := ad.Diff(ad.Exp(x), x)
//	}
//
// # Errors
//
// Primitives panic with a *numeric.Error when a result is NaN or infinite.
// Network and trainer entry points recover it and return it as an error.
//
// # Thread Safety
//
// The CPU backend is stateless and safe for concurrent use.
package cpu
