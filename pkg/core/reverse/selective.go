// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package reverse

import (
	"slices"
	"sync/atomic"

	. "github.com/gomlx/exceptions"
	"github.com/gomlx/tapead/pkg/core/tape"
	"k8s.io/klog/v2"
)

// Phase of a selective sweep call.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseSeeded
	PhasePropagating
	PhaseExtracted
	PhaseCleared
)

var phaseNames = [...]string{"Idle", "Seeded", "Propagating", "Extracted", "Cleared"}

// String implements fmt.Stringer.
func (ph Phase) String() string {
	if ph < 0 || int(ph) >= len(phaseNames) {
		return "Phase(?)"
	}
	return phaseNames[ph]
}

// Sweeper runs selective reverse sweeps: the first order gradient of one dependent variable at a time,
// visiting only the records on the backward path of that variable.
//
// It owns the scratch state of the sweeps: a first order Partials buffer with one slot per tape variable,
// and the list of records found active in the last call. The buffer is allocated once, is all zero
// between calls, and is restored to all zero at the end of every call, so a Sweeper can be called
// any number of times without reallocation.
//
// A Sweeper must not be used concurrently: create one per goroutine. The tape and the Taylor coefficients
// can be shared.
type Sweeper struct {
	tape   *tape.Tape
	taylor *tape.Taylor

	partial *Partials

	// active holds the indices of the records marked active during the last call, in visiting (decreasing) order.
	active []int32

	// activeInputs holds the positions of the independents reached during the last call, in increasing order.
	activeInputs []int

	// unitW is a placeholder weighting used by Gradient.
	unitW []float64

	phase atomic.Int32
	inUse atomic.Bool
}

// NewSweeper creates a Sweeper for the tape t, with forward coefficients tc (at least first order).
func NewSweeper(t *tape.Tape, tc *tape.Taylor) *Sweeper {
	return &Sweeper{
		tape:    t,
		taylor:  tc,
		partial: NewPartials(t.NumVar(), 1),
		unitW:   make([]float64, t.NumDependents()),
	}
}

// Phase returns the phase of the current call, PhaseIdle if there is no call in progress.
func (s *Sweeper) Phase() Phase {
	return Phase(s.phase.Load())
}

// Partials returns the buffer of partials owned by the Sweeper. It must not be modified.
// Between calls it is all zeros.
func (s *Sweeper) Partials() *Partials {
	return s.partial
}

// ActiveRecords returns the indices of the records found on the backward path of the dependent variable
// of the last call, in decreasing order.
func (s *Sweeper) ActiveRecords() []int {
	records := make([]int, len(s.active))
	for ii, recordIdx := range s.active {
		records[ii] = int(recordIdx)
	}
	return records
}

// ActiveInputs returns the positions of the independent variables reached from the dependent variable of
// the last call, in increasing order. The gradient is zero on all other independents: this is the
// sparsity pattern of the corresponding Jacobian row.
func (s *Sweeper) ActiveInputs() []int {
	return slices.Clone(s.activeInputs)
}

// ReverseOne computes the first order partials of the dependent variable dep with respect to every
// independent variable, writing them to out (of length n), out[j] for the independent j.
//
// p must be 1, and w must have length m (or m*p): the weights themselves are not used, the dependent
// variable is seeded with 1. This is the same calling convention of Reverse.
//
// Malformed arguments return a *ContractError. Calling ReverseOne on a Sweeper that is already running
// a call (from another goroutine) panics.
func (s *Sweeper) ReverseOne(p int, w []float64, dep int, out []float64) error {
	const fn = "reverse.Sweeper.ReverseOne"
	if !s.inUse.CompareAndSwap(false, true) {
		Panicf("%s: Sweeper is being used concurrently (phase %s), create one Sweeper per goroutine", fn, s.Phase())
	}
	defer s.inUse.Store(false)

	t := s.tape
	if p != 1 {
		return contractErrorf(fn, "p", "selective sweep only supports first order, p=%d must be 1", p)
	}
	if err := checkSweepArgs(fn, t, s.taylor, p, len(w)); err != nil {
		return err
	}
	if dep < 0 || dep >= t.NumDependents() {
		return contractErrorf(fn, "dep", "dependent variable %d out of range [0, %d)", dep, t.NumDependents())
	}
	if len(out) != t.NumIndependents() {
		return contractErrorf(fn, "out", "len(out)=%d must be equal to the number of independent variables n=%d",
			len(out), t.NumIndependents())
	}

	// Seed.
	depAddr := t.Dependents()[dep]
	s.partial.Row(depAddr)[0] = 1
	s.phase.Store(int32(PhaseSeeded))

	// Propagate: mark records with non-zero partials active.
	s.phase.Store(int32(PhasePropagating))
	s.active = s.active[:0]
	s.activeInputs = s.activeInputs[:0]
	for ii := t.RecordOf(depAddr); ii >= 0; ii-- {
		r := t.Record(ii)
		if s.partial.resultsAreZero(r) {
			continue
		}
		s.active = append(s.active, int32(ii))
		if r.Kind == tape.OpIndependent {
			s.activeInputs = append(s.activeInputs, r.Index)
			continue
		}
		reverseRecord(r, 1, s.taylor, s.partial)
	}

	// Extract.
	for j, ind := range t.Independents() {
		out[j] = s.partial.At(ind, 0)
	}
	slices.Reverse(s.activeInputs)
	s.phase.Store(int32(PhaseExtracted))

	// Clear every row the active records may have written.
	for _, recordIdx := range s.active {
		s.partial.clearResults(t.Record(int(recordIdx)))
	}
	s.phase.Store(int32(PhaseCleared))

	if klog.V(2).Enabled() {
		klog.Infof("%s: dependent %d (v%d): %d of %d records active, %d of %d independents reached",
			fn, dep, depAddr, len(s.active), t.NumRecords(), len(s.activeInputs), t.NumIndependents())
	}
	s.phase.Store(int32(PhaseIdle))
	return nil
}

// Gradient returns the first order gradient of the dependent variable dep with respect to all independent
// variables. See ReverseOne.
func (s *Sweeper) Gradient(dep int) ([]float64, error) {
	out := make([]float64, s.tape.NumIndependents())
	if err := s.ReverseOne(1, s.unitW, dep, out); err != nil {
		return nil, err
	}
	return out, nil
}
