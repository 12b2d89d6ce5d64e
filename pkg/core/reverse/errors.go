// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package reverse

import (
	"fmt"

	"github.com/gomlx/tapead/pkg/core/tape"
	"github.com/pkg/errors"
)

// ContractError is returned when a sweep is called with malformed arguments.
// It names the function, the offending argument and the relationship it failed.
//
// Sweeps return it wrapped with a stack trace: use errors.As to retrieve it.
type ContractError struct {
	Func   string
	Arg    string
	Reason string
}

// Error implements error.
func (e *ContractError) Error() string {
	return fmt.Sprintf("%s: invalid argument %q: %s", e.Func, e.Arg, e.Reason)
}

func contractErrorf(fn, arg, format string, args ...any) error {
	return errors.WithStack(&ContractError{Func: fn, Arg: arg, Reason: fmt.Sprintf(format, args...)})
}

// checkSweepArgs validates the arguments shared by the full and the selective sweeps.
func checkSweepArgs(fn string, t *tape.Tape, tc *tape.Taylor, p, lenW int) error {
	if p < 1 {
		return contractErrorf(fn, "p", "number of orders p=%d must be greater than zero", p)
	}
	m := t.NumDependents()
	if lenW != m && lenW != m*p {
		return contractErrorf(fn, "w", "len(w)=%d must be equal to the number of dependent variables m=%d, "+
			"or to m*p=%d", lenW, m, m*p)
	}
	if tc == nil || tc.NumVar() != t.NumVar() {
		numVar := 0
		if tc != nil {
			numVar = tc.NumVar()
		}
		return contractErrorf(fn, "taylor", "coefficients cover %d variables, but the tape has %d", numVar, t.NumVar())
	}
	if tc.Orders() < p {
		return contractErrorf(fn, "p", "only %d Taylor coefficient orders are stored, less than p=%d", tc.Orders(), p)
	}
	return nil
}
