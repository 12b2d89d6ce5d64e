// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package reverse

import (
	"slices"

	"github.com/gomlx/tapead/pkg/core/tape"
)

// Partials is the buffer of partial derivatives (adjoints) accumulated by a sweep: one slot per
// (variable, order) pair, laid out row-major by variable, so slot (v, k) is at v*p + k.
type Partials struct {
	p    int
	data []float64
}

// NewPartials returns a zero-initialized buffer for numVar variables and p orders.
func NewPartials(numVar, p int) *Partials {
	return &Partials{p: p, data: make([]float64, numVar*p)}
}

// Orders returns the number of orders p stored per variable.
func (pt *Partials) Orders() int {
	return pt.p
}

// NumVar returns the number of variables covered by the buffer.
func (pt *Partials) NumVar() int {
	return len(pt.data) / pt.p
}

// Row returns the p slots of variable v. Changes to the returned slice change the buffer.
func (pt *Partials) Row(v tape.Var) []float64 {
	start := int(v) * pt.p
	return pt.data[start : start+pt.p : start+pt.p]
}

// At returns the slot of variable v and order k.
func (pt *Partials) At(v tape.Var, k int) float64 {
	return pt.data[int(v)*pt.p+k]
}

// ClearRow zeroes the slots of variable v.
func (pt *Partials) ClearRow(v tape.Var) {
	clear(pt.Row(v))
}

// Reset zeroes the whole buffer.
func (pt *Partials) Reset() {
	clear(pt.data)
}

// IsZero returns whether every slot is zero.
func (pt *Partials) IsZero() bool {
	return pt.NumNonZero() == 0
}

// NumNonZero returns the number of slots that are not zero.
func (pt *Partials) NumNonZero() int {
	var count int
	for _, value := range pt.data {
		if value != 0 {
			count++
		}
	}
	return count
}

// Values returns a copy of the whole buffer, indexed [v*p + k].
func (pt *Partials) Values() []float64 {
	return slices.Clone(pt.data)
}

// resultsAreZero returns whether all the result rows of the record are zero.
func (pt *Partials) resultsAreZero(r *tape.Record) bool {
	for v := r.FirstResult(); v <= r.Addr; v++ {
		for _, value := range pt.Row(v) {
			if value != 0 {
				return false
			}
		}
	}
	return true
}

// clearResults zeroes every result row of the record.
func (pt *Partials) clearResults(r *tape.Record) {
	for v := r.FirstResult(); v <= r.Addr; v++ {
		pt.ClearRow(v)
	}
}
