// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package reverse

import (
	"sync"
	"sync/atomic"

	"github.com/gomlx/tapead/internal/workerspool"
	"github.com/gomlx/tapead/pkg/core/tape"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Jacobian returns the first order Jacobian of t at the point evaluated in tc, indexed jac[i*n + j] for
// dependent i and independent j.
//
// Each row is computed by a selective sweep. Rows are distributed over the workers of pool (if nil, a
// sequential pool is used), and each worker owns its Sweeper.
func Jacobian(t *tape.Tape, tc *tape.Taylor, pool *workerspool.Pool) ([]float64, error) {
	const fn = "reverse.Jacobian"
	m, n := t.NumDependents(), t.NumIndependents()
	if err := checkSweepArgs(fn, t, tc, 1, m); err != nil {
		return nil, err
	}
	if pool == nil {
		pool = workerspool.New()
		pool.SetMaxParallelism(0)
	}

	jac := make([]float64, m*n)
	w := make([]float64, m)
	numWorkers := pool.NumWorkers(m)
	var (
		nextRow  atomic.Int64
		mu       sync.Mutex
		firstErr error
	)
	pool.Run(numWorkers, func(_ int) {
		sweeper := NewSweeper(t, tc)
		for {
			row := int(nextRow.Add(1) - 1)
			if row >= m {
				return
			}
			if err := sweeper.ReverseOne(1, w, row, jac[row*n:(row+1)*n]); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = errors.Wrapf(err, "%s: row %d", fn, row)
				}
				mu.Unlock()
				return
			}
		}
	})
	if firstErr != nil {
		return nil, firstErr
	}
	if klog.V(1).Enabled() {
		klog.Infof("%s: %dx%d Jacobian computed with %d workers", fn, m, n, numWorkers)
	}
	return jac, nil
}
