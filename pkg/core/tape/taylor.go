// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tape

import (
	"math"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Taylor holds the forward Taylor coefficients of every variable of a Tape: for variable v and order k,
// the k-th derivative of v with respect to the tape's time-like parameter, divided by k!.
//
// It's read-only for reverse sweeps.
type Taylor struct {
	numVar, orders int
	coef           []float64 // coef[v*orders + k]
}

// NumVar returns the number of variables covered.
func (tc *Taylor) NumVar() int {
	return tc.numVar
}

// Orders returns the number of coefficients stored per variable.
func (tc *Taylor) Orders() int {
	return tc.orders
}

// Row returns the coefficients of the variable v, for orders 0 to Orders()-1. It must not be modified.
func (tc *Taylor) Row(v Var) []float64 {
	start := int(v) * tc.orders
	return tc.coef[start : start+tc.orders : start+tc.orders]
}

// At returns the coefficient of order k of variable v.
func (tc *Taylor) At(v Var, k int) float64 {
	return tc.coef[int(v)*tc.orders+k]
}

// Value returns the order 0 coefficient of v, its value.
func (tc *Taylor) Value(v Var) float64 {
	return tc.coef[int(v)*tc.orders]
}

// Dependents returns the coefficients of the dependent variables of t, indexed [i*Orders() + k].
func (tc *Taylor) Dependents(t *Tape) []float64 {
	values := make([]float64, 0, t.NumDependents()*tc.orders)
	for _, dep := range t.Dependents() {
		values = append(values, tc.Row(dep)...)
	}
	return values
}

// Forward computes the Taylor coefficients of orders 0 to p-1 of every variable of t.
//
// The coefficients of the independent variable j are given in x[j*p + k]: x[j*p] is its value, and
// the higher orders give the direction (and curvature) along which the tape is evaluated.
func Forward(t *Tape, p int, x []float64) (*Taylor, error) {
	if p < 1 {
		return nil, errors.Errorf("tape.Forward: number of orders p=%d must be >= 1", p)
	}
	n := t.NumIndependents()
	if len(x) != n*p {
		return nil, errors.Errorf("tape.Forward: len(x)=%d, but the tape has %d independents and p=%d, "+
			"so it must be %d", len(x), n, p, n*p)
	}
	tc := &Taylor{
		numVar: t.NumVar(),
		orders: p,
		coef:   make([]float64, t.NumVar()*p),
	}
	for ii := range t.records {
		tc.forwardRecord(&t.records[ii], x)
	}
	if klog.V(2).Enabled() {
		klog.Infof("tape.Forward: %d records, %d orders", t.NumRecords(), p)
	}
	return tc, nil
}

// mutableRow returns the coefficients of v for writing.
func (tc *Taylor) mutableRow(v Var) []float64 {
	start := int(v) * tc.orders
	return tc.coef[start : start+tc.orders]
}

func (tc *Taylor) forwardRecord(r *Record, x []float64) {
	p := tc.orders
	z := tc.mutableRow(r.Addr)
	var a, b []float64
	if len(r.Args) > 0 {
		a = tc.Row(r.Args[0])
	}
	if len(r.Args) > 1 {
		b = tc.Row(r.Args[1])
	}

	switch r.Kind {
	case OpIndependent:
		copy(z, x[r.Index*p:(r.Index+1)*p])
	case OpConst:
		z[0] = r.Value
	case OpAdd:
		for k := range p {
			z[k] = a[k] + b[k]
		}
	case OpSub:
		for k := range p {
			z[k] = a[k] - b[k]
		}
	case OpNeg:
		for k := range p {
			z[k] = -a[k]
		}
	case OpScale:
		for k := range p {
			z[k] = r.Value * a[k]
		}
	case OpShift:
		copy(z, a)
		z[0] += r.Value
	case OpMul:
		for k := range p {
			var sum float64
			for j := 0; j <= k; j++ {
				sum += a[j] * b[k-j]
			}
			z[k] = sum
		}
	case OpDiv:
		for k := range p {
			sum := a[k]
			for j := 1; j <= k; j++ {
				sum -= z[k-j] * b[j]
			}
			z[k] = sum / b[0]
		}
	case OpExp:
		z[0] = math.Exp(a[0])
		for k := 1; k < p; k++ {
			var sum float64
			for j := 1; j <= k; j++ {
				sum += float64(j) * a[j] * z[k-j]
			}
			z[k] = sum / float64(k)
		}
	case OpLog:
		z[0] = math.Log(a[0])
		for k := 1; k < p; k++ {
			var sum float64
			for j := 1; j < k; j++ {
				sum += float64(j) * z[j] * a[k-j]
			}
			z[k] = (a[k] - sum/float64(k)) / a[0]
		}
	case OpSqrt:
		z[0] = math.Sqrt(a[0])
		for k := 1; k < p; k++ {
			sum := a[k]
			for j := 1; j < k; j++ {
				sum -= z[j] * z[k-j]
			}
			z[k] = sum / (2 * z[0])
		}
	case OpSin, OpCos:
		aux := tc.mutableRow(r.Addr - 1)
		s, c := z, aux
		if r.Kind == OpCos {
			s, c = aux, z
		}
		s[0], c[0] = math.Sincos(a[0])
		for k := 1; k < p; k++ {
			var sumS, sumC float64
			for j := 1; j <= k; j++ {
				sumS += float64(j) * a[j] * c[k-j]
				sumC -= float64(j) * a[j] * s[k-j]
			}
			s[k] = sumS / float64(k)
			c[k] = sumC / float64(k)
		}
	default:
		// Tapes are only built by Builder, which only accepts valid kinds.
		panic(errors.Errorf("tape.Forward: unknown operation %s in record %s", r.Kind, r))
	}
}
