// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides automatic differentiation capabilities.
//
// This package implements reverse-mode automatic differentiation over scalars
// using an append-only tape. It wraps any numeric backend to add gradient
// recording; the wrapped backend still computes the values.
//
// Example:
//
//	import (
//	    "github.com/born-ml/gradtape/autodiff"
//	    "github.com/born-ml/gradtape/backend/cpu"
//	)
//
//	func main() {
//	    backend := autodiff.New(cpu.New())
//
//	    x := backend.Variable(3)
//	    y := backend.Variable(4)
//	    z := backend.Div(y, backend.Sub(backend.Exp(x), y))
//
//	    dzdx, err := backend.Diff(z, x)
//	    backend.Reset()
//	}
package autodiff

import (
	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/numeric"
)

// Number is a scalar that may be tracked on a tape.
type Number = numeric.Number

// Partial is one (dependency, ∂result/∂dependency) pair of a composed value.
type Partial = numeric.Partial

// Factory is the arithmetic every backend provides.
type Factory = numeric.Factory

// Differentiable is the capability of recording and differentiating values.
type Differentiable = numeric.Differentiable

// Backend is the autodiff-enabled backend.
type Backend[B numeric.Factory] = autodiff.AutodiffBackend[B]

// New creates a new autodiff backend wrapping the given backend.
//
// Example:
//
//	base := cpu.New()
//	backend := autodiff.New(base)
func New[B numeric.Factory](backend B) *Backend[B] {
	return autodiff.New(backend)
}

// Tape records values and their local partial derivatives.
type Tape = autodiff.Tape

// NewTape creates an empty tape.
func NewTape() *Tape {
	return autodiff.NewTape()
}

// AsDifferentiable reports whether f can record and differentiate values.
func AsDifferentiable(f Factory) (Differentiable, bool) {
	return numeric.AsDifferentiable(f)
}

// Errors returned by Diff and the numeric primitives.
var (
	ErrInvalidDifferentiation = numeric.ErrInvalidDifferentiation
	ErrNumericInstability     = numeric.ErrNumericInstability
)
