// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package tape holds a recorded sequence of elementary scalar operations (the "tape"), the forward
// Taylor coefficients of its variables, and tools to hash and de-duplicate its records.
//
// A Tape is read-only once built, and can be shared by any number of concurrent readers.
// Reverse-mode sweeps over a Tape are implemented in package reverse.
//
// Conventions:
//
//   - Variable addresses (Var) are dense integers in [0, NumVar()).
//   - Every Record creates Kind.NumResults() variables, at the consecutive addresses
//     [Addr-NumResults+1, Addr]. Addr is the primary result, the one other records refer to.
//   - Records only refer to variables created by previous records.
//   - An independent variable's address is the address of its OpIndependent record.
package tape

import (
	"fmt"
	"strings"
)

// Var is the address of a variable in a Tape.
type Var int

// InvalidVar is returned where no variable is defined.
const InvalidVar Var = -1

// Record is one elementary operation of the tape.
type Record struct {
	Kind OpKind

	// Args are the variable arguments of the operation.
	Args []Var

	// Addr is the address of the primary result of the operation.
	Addr Var

	// Value is the constant parametrizing OpConst, OpScale and OpShift.
	Value float64

	// Index is the declaration position of an OpIndependent, -1 for other operations.
	Index int
}

// FirstResult returns the lowest address created by the record.
func (r *Record) FirstResult() Var {
	return r.Addr - Var(r.Kind.NumResults()) + 1
}

// String implements fmt.Stringer.
func (r *Record) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "v%d = %s(", r.Addr, r.Kind)
	for ii, arg := range r.Args {
		if ii > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "v%d", arg)
	}
	if r.Kind.HasValue() {
		if len(r.Args) > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%g", r.Value)
	}
	if r.Kind == OpIndependent {
		fmt.Fprintf(&sb, "#%d", r.Index)
	}
	sb.WriteString(")")
	return sb.String()
}

// Tape is an immutable recorded operation sequence, with its independent (input) and dependent (output) variables.
type Tape struct {
	records      []Record
	varRecord    []int32 // Maps each variable address to the index of the record that created it.
	independents []Var
	dependents   []Var
}

// NumVar returns the total number of variables, including auxiliary results.
func (t *Tape) NumVar() int {
	return len(t.varRecord)
}

// NumRecords returns the number of recorded operations.
func (t *Tape) NumRecords() int {
	return len(t.records)
}

// Record returns the record at the given position.
// The returned pointer must not be modified.
func (t *Tape) Record(idx int) *Record {
	return &t.records[idx]
}

// Records returns all records in recording order. The returned slice must not be modified.
func (t *Tape) Records() []Record {
	return t.records
}

// RecordOf returns the index of the record that created the variable v.
func (t *Tape) RecordOf(v Var) int {
	return int(t.varRecord[v])
}

// NumIndependents returns the number of independent variables, usually called n.
func (t *Tape) NumIndependents() int {
	return len(t.independents)
}

// NumDependents returns the number of dependent variables, usually called m.
func (t *Tape) NumDependents() int {
	return len(t.dependents)
}

// Independents returns the addresses of the independent variables, in declaration order.
// The returned slice must not be modified.
func (t *Tape) Independents() []Var {
	return t.independents
}

// Dependents returns the addresses of the dependent variables, in declaration order. Different dependent
// variables may share the same address. The returned slice must not be modified.
func (t *Tape) Dependents() []Var {
	return t.dependents
}

// String returns a multi-line listing of the tape.
func (t *Tape) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Tape: %d records, %d variables, %d independents, %d dependents\n",
		t.NumRecords(), t.NumVar(), t.NumIndependents(), t.NumDependents())
	for ii := range t.records {
		fmt.Fprintf(&sb, "\t#%d: %s\n", ii, &t.records[ii])
	}
	fmt.Fprintf(&sb, "\tdependents: %v\n", t.dependents)
	return sb.String()
}
