// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tape

// OpKind enumerates the elementary operations a Tape can record.
type OpKind int

//go:generate go tool enumer -type=OpKind -trimprefix=Op -output=gen_opkind_enumer.go opkind.go

const (
	OpInvalid OpKind = iota

	// OpIndependent declares an independent variable (a tape input). It has no arguments.
	OpIndependent

	// OpConst declares a constant variable, with Record.Value as its value.
	OpConst

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpNeg

	// OpScale multiplies its argument by the constant Record.Value.
	OpScale

	// OpShift adds the constant Record.Value to its argument.
	OpShift

	OpExp
	OpLog
	OpSqrt

	// OpSin has two results: the sine (primary, at Record.Addr) and the cosine (auxiliary, at Record.Addr-1),
	// which is needed to propagate its Taylor coefficients.
	OpSin

	// OpCos has two results: the cosine (primary, at Record.Addr) and the sine (auxiliary, at Record.Addr-1).
	OpCos
)

// NumArgs returns the number of variable arguments taken by the operation.
func (k OpKind) NumArgs() int {
	switch k {
	case OpInvalid, OpIndependent, OpConst:
		return 0
	case OpAdd, OpSub, OpMul, OpDiv:
		return 2
	default:
		return 1
	}
}

// NumResults returns the number of variables created by the operation.
func (k OpKind) NumResults() int {
	switch k {
	case OpInvalid:
		return 0
	case OpSin, OpCos:
		return 2
	default:
		return 1
	}
}

// HasValue returns whether the operation is parametrized by Record.Value.
func (k OpKind) HasValue() bool {
	return k == OpConst || k == OpScale || k == OpShift
}
