// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tape

import (
	"fmt"
	"math"
	"testing"

	"github.com/gomlx/exceptions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder(t *testing.T) {
	b := NewBuilder()
	x0, x1 := b.Independent(), b.Independent()
	sum := b.Add(x0, x1)
	s := b.Sin(x0)
	b.Dependent(sum)
	b.Dependent(s)
	b.Dependent(sum)
	tp := b.Build()

	assert.Equal(t, 4, tp.NumRecords())
	assert.Equal(t, 5, tp.NumVar(), "Sin creates an auxiliary variable")
	assert.Equal(t, []Var{0, 1}, tp.Independents())
	assert.Equal(t, []Var{2, 4, 2}, tp.Dependents())
	assert.Equal(t, Var(4), s)
	assert.Equal(t, 3, tp.RecordOf(3))
	assert.Equal(t, 3, tp.RecordOf(4))
	assert.Equal(t, Var(3), tp.Record(3).FirstResult())
	assert.Equal(t, 1, tp.Record(1).Index)
	assert.Equal(t, -1, tp.Record(2).Index)
	assert.Equal(t, "v2 = Add(v0, v1)", tp.Record(2).String())
	assert.Contains(t, tp.String(), "v4 = Sin(v0)")
}

func TestBuilderMisuse(t *testing.T) {
	b := NewBuilder()
	x := b.Independent()
	s := b.Cos(x)

	err := exceptions.Try(func() { b.Add(x, Var(10)) })
	require.NotNil(t, err)
	assert.Contains(t, fmt.Sprint(err), "not created by this builder")

	err = exceptions.Try(func() { b.Exp(s - 1) })
	require.NotNil(t, err)
	assert.Contains(t, fmt.Sprint(err), "auxiliary result")

	err = exceptions.Try(func() { b.Record(OpMul, 0, x) })
	require.NotNil(t, err)
	assert.Contains(t, fmt.Sprint(err), "takes 2 arguments")

	b.Dependent(s)
	_ = b.Build()
	err = exceptions.Try(func() { b.Neg(x) })
	require.NotNil(t, err)
}

func TestOpKind(t *testing.T) {
	assert.Equal(t, "Mul", OpMul.String())
	kind, err := OpKindString("sqrt")
	require.NoError(t, err)
	assert.Equal(t, OpSqrt, kind)
	_, err = OpKindString("tanh")
	assert.Error(t, err)
	assert.Equal(t, 2, OpSin.NumResults())
	assert.Equal(t, 1, OpExp.NumResults())
	assert.Equal(t, 0, OpConst.NumArgs())
	assert.Equal(t, 2, OpDiv.NumArgs())
	assert.True(t, OpShift.HasValue())
	assert.False(t, OpAdd.HasValue())
}

// univariate records f(x) with x(t) = x0 + t, and returns the first p Taylor coefficients of f(x(t)).
func univariate(t *testing.T, x0 float64, p int, f func(b *Builder, x Var) Var) []float64 {
	t.Helper()
	b := NewBuilder()
	x := b.Independent()
	y := f(b, x)
	b.Dependent(y)
	tp := b.Build()
	xs := make([]float64, p)
	xs[0] = x0
	if p > 1 {
		xs[1] = 1
	}
	tc, err := Forward(tp, p, xs)
	require.NoError(t, err)
	return tc.Dependents(tp)
}

func TestForward(t *testing.T) {
	const p = 4
	testCases := []struct {
		name string
		x0   float64
		f    func(b *Builder, x Var) Var
		want []float64
	}{
		{"square", 3, func(b *Builder, x Var) Var { return b.Mul(x, x) }, []float64{9, 6, 1, 0}},
		{"exp", 0, func(b *Builder, x Var) Var { return b.Exp(x) }, []float64{1, 1, 1.0 / 2, 1.0 / 6}},
		{"log", 1, func(b *Builder, x Var) Var { return b.Log(x) }, []float64{0, 1, -1.0 / 2, 1.0 / 3}},
		{"sqrt", 1, func(b *Builder, x Var) Var { return b.Sqrt(x) }, []float64{1, 1.0 / 2, -1.0 / 8, 1.0 / 16}},
		{"sin", 0, func(b *Builder, x Var) Var { return b.Sin(x) }, []float64{0, 1, 0, -1.0 / 6}},
		{"cos", 0, func(b *Builder, x Var) Var { return b.Cos(x) }, []float64{1, 0, -1.0 / 2, 0}},
		{"reciprocal", 1, func(b *Builder, x Var) Var { return b.Div(b.Const(1), x) }, []float64{1, -1, 1, -1}},
		{"affine", 2, func(b *Builder, x Var) Var { return b.Shift(b.Scale(b.Neg(x), 3), 1) }, []float64{-5, -3, 0, 0}},
		{"difference", 2, func(b *Builder, x Var) Var { return b.Sub(b.Const(10), x) }, []float64{8, -1, 0, 0}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := univariate(t, tc.x0, p, tc.f)
			assert.InDeltaSlice(t, tc.want, got, 1e-12)
		})
	}
}

func TestForwardAuxiliary(t *testing.T) {
	b := NewBuilder()
	x := b.Independent()
	s := b.Sin(x)
	b.Dependent(s)
	tp := b.Build()
	tc, err := Forward(tp, 1, []float64{0.5})
	require.NoError(t, err)
	assert.InDelta(t, math.Sin(0.5), tc.Value(s), 1e-15)
	assert.InDelta(t, math.Cos(0.5), tc.Value(s-1), 1e-15)
	assert.Equal(t, 1, tc.Orders())
	assert.Equal(t, tp.NumVar(), tc.NumVar())
}

func TestForwardErrors(t *testing.T) {
	b := NewBuilder()
	b.Dependent(b.Independent())
	tp := b.Build()
	_, err := Forward(tp, 0, nil)
	assert.ErrorContains(t, err, "must be >= 1")
	_, err = Forward(tp, 2, []float64{1})
	assert.ErrorContains(t, err, "must be 2")
}
