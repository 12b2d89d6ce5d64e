// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package reverse implements reverse-mode automatic differentiation sweeps over a recorded tape.
//
// Given the forward Taylor coefficients of a tape (see tape.Forward), Reverse walks the whole tape
// backwards once and returns the partial derivatives of a weighted combination of the outputs with
// respect to the inputs, for all requested Taylor orders.
//
// A Sweeper runs the selective variant: the first order gradient of a single output, visiting only
// the records that lie on its backward path, reusing the same derivative buffer across calls.
//
// Conventions used throughout the package, for a tape with n independent and m dependent variables:
//
//   - p: the number of Taylor coefficient orders being differentiated (p >= 1).
//   - w: the weighting of the dependent variables' coefficients, see Weighting.
//   - Partials: the buffer of partial derivatives (adjoints), one row of p slots per tape variable.
//
// Sweeps are sequential and never block. The tape and the Taylor coefficients are only read, and can
// be shared by sweeps running in parallel; a Sweeper (and its buffer) must not.
package reverse

import (
	"github.com/gomlx/tapead/pkg/core/tape"
	"k8s.io/klog/v2"
)

// Reverse computes the derivatives of the weighted Taylor coefficients of the dependent variables of t,
// with respect to the Taylor coefficients of its independent variables.
//
// tc must hold at least p orders of forward coefficients of t. The result value has n*p entries,
// indexed value[j*p + k] for independent j and order k, see PerOutput and PerOutputOrder for their meaning.
//
// Malformed arguments return a *ContractError.
func Reverse(t *tape.Tape, tc *tape.Taylor, p int, w Weighting) ([]float64, error) {
	const fn = "reverse.Reverse"
	if w == nil {
		return nil, contractErrorf(fn, "w", "weighting must be given")
	}
	if err := checkSweepArgs(fn, t, tc, p, w.Len()); err != nil {
		return nil, err
	}
	m := t.NumDependents()
	switch w.(type) {
	case PerOutput:
		if w.Len() != m {
			return nil, contractErrorf(fn, "w", "PerOutput weighting has length %d, it must be m=%d", w.Len(), m)
		}
	case PerOutputOrder:
		if w.Len() != m*p {
			return nil, contractErrorf(fn, "w", "PerOutputOrder weighting has length %d, it must be m*p=%d",
				w.Len(), m*p)
		}
	}

	partial := NewPartials(t.NumVar(), p)
	w.seed(partial, t.Dependents())
	Sweep(t, tc, partial, t.NumRecords()-1)

	value := make([]float64, t.NumIndependents()*p)
	w.extract(partial, t.Independents(), value)
	if klog.V(1).Enabled() {
		klog.Infof("reverse.Reverse: swept %d records, p=%d, %d independents, %d dependents",
			t.NumRecords(), p, t.NumIndependents(), m)
	}
	return value, nil
}

// ReverseWeights is like Reverse, but takes the weights as a plain slice of length m or m*p,
// classified by WeightsFromSlice.
func ReverseWeights(t *tape.Tape, tc *tape.Taylor, p int, w []float64) ([]float64, error) {
	if err := checkSweepArgs("reverse.ReverseWeights", t, tc, p, len(w)); err != nil {
		return nil, err
	}
	weighting, err := WeightsFromSlice(t.NumDependents(), p, w)
	if err != nil {
		return nil, err
	}
	return Reverse(t, tc, p, weighting)
}

// Sweep propagates the partials in the buffer backwards through the records last, last-1, ..., 0 of t.
//
// It is the building block of Reverse: partial must have been seeded with the weights of the
// outputs of interest, and tc must hold at least partial.Orders() orders. Sweep doesn't validate its
// arguments.
func Sweep(t *tape.Tape, tc *tape.Taylor, partial *Partials, last int) {
	p := partial.Orders()
	for ii := last; ii >= 0; ii-- {
		reverseRecord(t.Record(ii), p, tc, partial)
	}
}
