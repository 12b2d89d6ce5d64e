// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tape

import (
	"slices"

	. "github.com/gomlx/exceptions"
)

// Builder records operations into a new Tape.
//
// Errors in the use of the Builder (like using a Var that doesn't belong to it) are bugs in the caller,
// and they panic with an exception, like in the graph building APIs.
//
// Example: y0 = x0 + x1 and y1 = x0 * x1.
//
//	b := tape.NewBuilder()
//	x0, x1 := b.Independent(), b.Independent()
//	b.Dependent(b.Add(x0, x1))
//	b.Dependent(b.Mul(x0, x1))
//	t := b.Build()
type Builder struct {
	tape  *Tape
	built bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{tape: &Tape{}}
}

func (b *Builder) checkVar(v Var) {
	if v < 0 || int(v) >= len(b.tape.varRecord) {
		Panicf("tape.Builder: variable v%d was not created by this builder (it has %d variables)",
			v, len(b.tape.varRecord))
	}
	record := &b.tape.records[b.tape.varRecord[v]]
	if record.Addr != v {
		Panicf("tape.Builder: variable v%d is an auxiliary result of %s, it can't be used as an argument",
			v, record)
	}
}

// record appends a new record and returns its primary result.
func (b *Builder) record(kind OpKind, value float64, args ...Var) Var {
	if b.built {
		Panicf("tape.Builder: can't record %s after Build() was called", kind)
	}
	for _, arg := range args {
		b.checkVar(arg)
	}
	t := b.tape
	recordIdx := int32(len(t.records))
	for range kind.NumResults() {
		t.varRecord = append(t.varRecord, recordIdx)
	}
	addr := Var(len(t.varRecord) - 1)
	index := -1
	if kind == OpIndependent {
		index = len(t.independents)
		t.independents = append(t.independents, addr)
	}
	t.records = append(t.records, Record{
		Kind:  kind,
		Args:  slices.Clone(args),
		Addr:  addr,
		Value: value,
		Index: index,
	})
	return addr
}

// Record appends an operation of the given kind. value is only used by kinds for which HasValue() is true.
//
// It's used by loaders that read the kind of operation from a description. For OpIndependent, no
// args must be given.
func (b *Builder) Record(kind OpKind, value float64, args ...Var) Var {
	if kind == OpInvalid || !kind.IsAOpKind() {
		Panicf("tape.Builder: invalid operation kind %s", kind)
	}
	if len(args) != kind.NumArgs() {
		Panicf("tape.Builder: operation %s takes %d arguments, %d given", kind, kind.NumArgs(), len(args))
	}
	if !kind.HasValue() {
		value = 0
	}
	return b.record(kind, value, args...)
}

// Independent declares a new independent variable.
func (b *Builder) Independent() Var { return b.record(OpIndependent, 0) }

// Const creates a constant variable.
func (b *Builder) Const(value float64) Var { return b.record(OpConst, value) }

// Add returns x + y.
func (b *Builder) Add(x, y Var) Var { return b.record(OpAdd, 0, x, y) }

// Sub returns x - y.
func (b *Builder) Sub(x, y Var) Var { return b.record(OpSub, 0, x, y) }

// Mul returns x * y.
func (b *Builder) Mul(x, y Var) Var { return b.record(OpMul, 0, x, y) }

// Div returns x / y.
func (b *Builder) Div(x, y Var) Var { return b.record(OpDiv, 0, x, y) }

// Neg returns -x.
func (b *Builder) Neg(x Var) Var { return b.record(OpNeg, 0, x) }

// Scale returns c * x.
func (b *Builder) Scale(x Var, c float64) Var { return b.record(OpScale, c, x) }

// Shift returns x + c.
func (b *Builder) Shift(x Var, c float64) Var { return b.record(OpShift, c, x) }

// Exp returns exp(x).
func (b *Builder) Exp(x Var) Var { return b.record(OpExp, 0, x) }

// Log returns log(x).
func (b *Builder) Log(x Var) Var { return b.record(OpLog, 0, x) }

// Sqrt returns sqrt(x).
func (b *Builder) Sqrt(x Var) Var { return b.record(OpSqrt, 0, x) }

// Sin returns sin(x). It also creates an auxiliary variable (cos(x)) that can't be referenced.
func (b *Builder) Sin(x Var) Var { return b.record(OpSin, 0, x) }

// Cos returns cos(x). It also creates an auxiliary variable (sin(x)) that can't be referenced.
func (b *Builder) Cos(x Var) Var { return b.record(OpCos, 0, x) }

// Dependent declares v as the next dependent variable. The same variable can be declared dependent more than once.
func (b *Builder) Dependent(v Var) {
	if b.built {
		Panicf("tape.Builder: can't declare dependent v%d after Build() was called", v)
	}
	b.checkVar(v)
	b.tape.dependents = append(b.tape.dependents, v)
}

// NumVar returns the number of variables created so far.
func (b *Builder) NumVar() int {
	return len(b.tape.varRecord)
}

// Build returns the recorded Tape. The Builder can't be used to record anything else afterwards.
func (b *Builder) Build() *Tape {
	b.built = true
	return b.tape
}
