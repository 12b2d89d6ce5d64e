// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package reverse

import (
	"testing"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/tapead/pkg/core/tape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweeperConcurrentUse(t *testing.T) {
	b := tape.NewBuilder()
	x := b.Independent()
	b.Dependent(b.Exp(x))
	tp := b.Build()
	tc, err := tape.Forward(tp, 1, []float64{0})
	require.NoError(t, err)
	s := NewSweeper(tp, tc)
	// Gradient's placeholder weights exist before any call, so concurrent calls only share read-only state
	// until the guard is reached.
	placeholder := s.unitW
	require.Len(t, placeholder, tp.NumDependents())

	// Simulate a call in progress in another goroutine.
	s.inUse.Store(true)
	s.phase.Store(int32(PhasePropagating))
	exception := exceptions.Try(func() { _, _ = s.Gradient(0) })
	require.NotNil(t, exception)
	assert.Same(t, &placeholder[0], &s.unitW[0], "Gradient must not replace the placeholder weights")
	assert.Contains(t, exception.(error).Error(), "concurrently")
	assert.Contains(t, exception.(error).Error(), "Propagating")

	s.inUse.Store(false)
	s.phase.Store(int32(PhaseIdle))
	grad, err := s.Gradient(0)
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, grad)
}

func TestSweepLeavesActiveRowsForClearing(t *testing.T) {
	// y = sin(x) * 2: the sweep leaves the rows of every record modified, and clearResults on every
	// record, auxiliary results included, restores the buffer to zero.
	b := tape.NewBuilder()
	x := b.Independent()
	s := b.Sin(x)
	b.Dependent(b.Scale(s, 2))
	tp := b.Build()
	tc, err := tape.Forward(tp, 1, []float64{0.5})
	require.NoError(t, err)

	partial := NewPartials(tp.NumVar(), 1)
	partial.Row(tp.Dependents()[0])[0] = 1
	Sweep(tp, tc, partial, tp.NumRecords()-1)
	sinRecord := tp.Record(tp.RecordOf(s))
	assert.False(t, partial.resultsAreZero(sinRecord))
	for ii := range tp.NumRecords() {
		partial.clearResults(tp.Record(ii))
	}
	assert.True(t, partial.IsZero())
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "Idle", PhaseIdle.String())
	assert.Equal(t, "Cleared", PhaseCleared.String())
	assert.Equal(t, "Phase(?)", Phase(17).String())
}
