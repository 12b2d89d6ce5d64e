// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package reverse

import (
	"github.com/gomlx/tapead/pkg/core/tape"
)

// Weighting of the Taylor coefficients of the dependent variables, that defines the scalar function
// differentiated by Reverse. It is either PerOutput or PerOutputOrder.
type Weighting interface {
	// Len returns the number of weights.
	Len() int

	// seed accumulates the weights into the rows of the dependent variables.
	seed(partial *Partials, dependents []tape.Var)

	// extract copies the rows of the independent variables into value, indexed [j*p + k].
	extract(partial *Partials, independents []tape.Var, value []float64)
}

// PerOutput holds one weight per dependent variable, applied to its highest order coefficient (p-1).
//
// With it, Reverse returns in value[j*p+k] the partial of the weighted order k coefficient of the
// outputs with respect to the value of the independent j: the directional derivatives of all orders.
type PerOutput []float64

// Len implements Weighting.
func (w PerOutput) Len() int { return len(w) }

func (w PerOutput) seed(partial *Partials, dependents []tape.Var) {
	p := partial.Orders()
	for i, dep := range dependents {
		// Two dependent variables may share the same address, hence the accumulation.
		partial.Row(dep)[p-1] += w[i]
	}
}

func (w PerOutput) extract(partial *Partials, independents []tape.Var, value []float64) {
	p := partial.Orders()
	for j, ind := range independents {
		row := partial.Row(ind)
		// Reverse identity: the partial of y^(k) with respect to u^(0) equals
		// the partial of y^(p-1) with respect to u^(p-1-k).
		for k := range p {
			value[j*p+k] = row[p-1-k]
		}
	}
}

// PerOutputOrder holds one weight per dependent variable and order, indexed [i*p + k].
//
// With it, Reverse returns in value[j*p+k] the partial of the weighted sum of all output coefficients
// with respect to the order k coefficient of the independent j.
type PerOutputOrder []float64

// Len implements Weighting.
func (w PerOutputOrder) Len() int { return len(w) }

func (w PerOutputOrder) seed(partial *Partials, dependents []tape.Var) {
	p := partial.Orders()
	for i, dep := range dependents {
		row := partial.Row(dep)
		for k := range p {
			row[k] += w[i*p+k]
		}
	}
}

func (w PerOutputOrder) extract(partial *Partials, independents []tape.Var, value []float64) {
	p := partial.Orders()
	for j, ind := range independents {
		copy(value[j*p:(j+1)*p], partial.Row(ind))
	}
}

// WeightsFromSlice classifies a raw weight vector for m dependent variables and p orders:
// a length m vector is PerOutput, a length m*p vector is PerOutputOrder. When both match (p == 1)
// it is taken as PerOutput, which in that case is equivalent.
func WeightsFromSlice(m, p int, w []float64) (Weighting, error) {
	const fn = "reverse.WeightsFromSlice"
	if p < 1 {
		return nil, contractErrorf(fn, "p", "number of orders p=%d must be greater than zero", p)
	}
	switch len(w) {
	case m:
		return PerOutput(w), nil
	case m * p:
		return PerOutputOrder(w), nil
	}
	return nil, contractErrorf(fn, "w", "len(w)=%d must be equal to the number of dependent variables m=%d, "+
		"or to m*p=%d", len(w), m, m*p)
}
