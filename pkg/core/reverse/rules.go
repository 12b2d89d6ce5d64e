// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package reverse

import (
	"github.com/gomlx/tapead/pkg/core/tape"
	"github.com/pkg/errors"
)

// reverseRecord propagates the partials of the results of the record r onto the partials of its arguments,
// for orders 0 to p-1, using the forward Taylor coefficients in tc.
//
// Let z be the primary result of r, and let G be the function being differentiated. On entry pz[k] holds the
// partial of G with respect to z[k], where G is seen as a function of everything up to r. On exit the
// partials of the arguments have been incremented so that G is seen as a function of everything before r.
//
// Partials of the arguments are always accumulated, since the same variable may be used by many records
// (or twice by the same record). The rows of the results are used as scratch and are left modified.
func reverseRecord(r *tape.Record, p int, tc *tape.Taylor, partial *Partials) {
	pz := partial.Row(r.Addr)
	var x, px, y, py []float64
	if len(r.Args) > 0 {
		x, px = tc.Row(r.Args[0]), partial.Row(r.Args[0])
	}
	if len(r.Args) > 1 {
		y, py = tc.Row(r.Args[1]), partial.Row(r.Args[1])
	}
	d := p - 1 // Highest order.

	switch r.Kind {
	case tape.OpIndependent, tape.OpConst:
		// Nothing to propagate.

	case tape.OpAdd:
		for k := range p {
			px[k] += pz[k]
			py[k] += pz[k]
		}

	case tape.OpSub:
		for k := range p {
			px[k] += pz[k]
			py[k] -= pz[k]
		}

	case tape.OpNeg:
		for k := range p {
			px[k] -= pz[k]
		}

	case tape.OpScale:
		for k := range p {
			px[k] += r.Value * pz[k]
		}

	case tape.OpShift:
		for k := range p {
			px[k] += pz[k]
		}

	case tape.OpMul:
		// z[k] = sum_{j=0}^{k} x[j] * y[k-j]
		for k := d; k >= 0; k-- {
			for j := 0; j <= k; j++ {
				px[j] += pz[k] * y[k-j]
				py[k-j] += pz[k] * x[j]
			}
		}

	case tape.OpDiv:
		// z[k] = (x[k] - sum_{j=1}^{k} z[k-j] * y[j]) / y[0]
		z := tc.Row(r.Addr)
		for k := d; k >= 0; k-- {
			pz[k] /= y[0]
			px[k] += pz[k]
			for j := 1; j <= k; j++ {
				pz[k-j] -= pz[k] * y[j]
				py[j] -= pz[k] * z[k-j]
			}
			py[0] -= pz[k] * z[k]
		}

	case tape.OpExp:
		// z[j] = (1/j) sum_{k=1}^{j} k * x[k] * z[j-k]
		z := tc.Row(r.Addr)
		for j := d; j > 0; j-- {
			pz[j] /= float64(j)
			for k := 1; k <= j; k++ {
				px[k] += pz[j] * float64(k) * z[j-k]
				pz[j-k] += pz[j] * float64(k) * x[k]
			}
		}
		px[0] += pz[0] * z[0]

	case tape.OpLog:
		// z[j] = (x[j] - (1/j) sum_{k=1}^{j-1} k * z[k] * x[j-k]) / x[0]
		z := tc.Row(r.Addr)
		for j := d; j > 0; j-- {
			pz[j] /= x[0]
			px[0] -= pz[j] * z[j]
			px[j] += pz[j]
			pz[j] /= float64(j)
			for k := 1; k < j; k++ {
				pz[k] -= pz[j] * float64(k) * x[j-k]
				px[j-k] -= pz[j] * float64(k) * z[k]
			}
		}
		px[0] += pz[0] / x[0]

	case tape.OpSqrt:
		// z[j] = (x[j] - sum_{k=1}^{j-1} z[k] * z[j-k]) / (2 * z[0])
		z := tc.Row(r.Addr)
		for j := d; j > 0; j-- {
			pz[j] /= z[0]
			pz[0] -= pz[j] * z[j]
			px[j] += pz[j] / 2
			for k := 1; k < j; k++ {
				pz[k] -= pz[j] * z[j-k]
			}
		}
		px[0] += pz[0] / (2 * z[0])

	case tape.OpSin, tape.OpCos:
		// s[j] = (1/j) sum_{k=1}^{j} k * x[k] * c[j-k]
		// c[j] = -(1/j) sum_{k=1}^{j} k * x[k] * s[j-k]
		s, c := tc.Row(r.Addr), tc.Row(r.Addr-1)
		ps, pc := pz, partial.Row(r.Addr-1)
		if r.Kind == tape.OpCos {
			s, c = c, s
			ps, pc = pc, ps
		}
		for j := d; j > 0; j-- {
			ps[j] /= float64(j)
			pc[j] /= float64(j)
			for k := 1; k <= j; k++ {
				px[k] += ps[j] * float64(k) * c[j-k]
				px[k] -= pc[j] * float64(k) * s[j-k]
				ps[j-k] -= pc[j] * float64(k) * x[k]
				pc[j-k] += ps[j] * float64(k) * x[k]
			}
		}
		px[0] += ps[0] * c[0]
		px[0] -= pc[0] * s[0]

	default:
		panic(errors.Errorf("reverse: no derivative rule for operation %s in record %s", r.Kind, r))
	}
}
