// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package radix

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/gomlx/exceptions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomKeys[T uint8 | uint16 | uint32 | uint64](rng *rand.Rand, n int, mask T) []T {
	x := make([]T, n)
	for i := range x {
		x[i] = T(rng.Uint64()) & mask
	}
	return x
}

func checkOrder[T uint8 | uint16 | uint32 | uint64](t *testing.T, x []T, order []int32) {
	t.Helper()
	require.Len(t, order, len(x))
	seen := make([]bool, len(x))
	for i, pos := range order {
		require.False(t, seen[pos], "position %d repeated in order", pos)
		seen[pos] = true
		if i == 0 {
			continue
		}
		prev := order[i-1]
		require.LessOrEqual(t, x[prev], x[pos])
		if x[prev] == x[pos] {
			// Stability.
			require.Less(t, prev, pos)
		}
	}
}

func checkFirstOccurrence[T uint8 | uint16 | uint32 | uint64](t *testing.T, x []T, first []int32) {
	t.Helper()
	require.Len(t, first, len(x))
	firstSeen := make(map[T]int32)
	for i, value := range x {
		if _, found := firstSeen[value]; !found {
			firstSeen[value] = int32(i)
		}
	}
	for i := range x {
		require.Equal(t, firstSeen[x[i]], first[i], "first occurrence of x[%d]=%d", i, x[i])
		require.Equal(t, first[i], first[first[i]], "fixed point at %d", i)
		require.Equal(t, x[i], x[first[i]])
	}
}

func TestSort(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	for _, n := range []int{0, 1, 2, 17, 1000} {
		t.Run(fmt.Sprintf("uint32/n=%d", n), func(t *testing.T) {
			x := randomKeys[uint32](rng, n, ^uint32(0))
			original := slices.Clone(x)
			want := slices.Clone(x)
			slices.Sort(want)
			assert.Equal(t, want, Sort(x))
			assert.Equal(t, original, x, "input must not be modified")
		})
	}

	t.Run("uint8", func(t *testing.T) {
		x := []uint8{200, 3, 3, 0, 255, 17}
		assert.Equal(t, []uint8{0, 3, 3, 17, 200, 255}, Sort(x))
	})

	t.Run("uint64", func(t *testing.T) {
		x := randomKeys[uint64](rng, 500, ^uint64(0))
		want := slices.Clone(x)
		slices.Sort(want)
		assert.Equal(t, want, Sort(x))
	})
}

func TestOrder(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	t.Run("small", func(t *testing.T) {
		x := []uint32{5, 1, 5, 0, 1}
		assert.Equal(t, []int32{3, 1, 4, 0, 2}, Order[int32](x))
	})

	t.Run("many-duplicates", func(t *testing.T) {
		// Few distinct values: stability matters on every pass.
		x := randomKeys[uint32](rng, 2000, 0x0F0F)
		checkOrder(t, x, Order[int32](x))
	})

	t.Run("uint16", func(t *testing.T) {
		x := randomKeys[uint16](rng, 300, ^uint16(0))
		order := Order[int32](x)
		require.Len(t, order, len(x))
		for i := 1; i < len(order); i++ {
			require.LessOrEqual(t, x[order[i-1]], x[order[i]])
		}
	})
}

func TestConstantDigitsSkipped(t *testing.T) {
	// Only the third byte varies: the other passes are skipped, and the result must still be sorted and stable.
	x := []uint32{0xAA03BBCC, 0xAA01BBCC, 0xAA02BBCC, 0xAA01BBCC}
	assert.Equal(t, []uint32{0xAA01BBCC, 0xAA01BBCC, 0xAA02BBCC, 0xAA03BBCC}, Sort(x))
	assert.Equal(t, []int32{1, 3, 2, 0}, Order[int32](x))

	// All keys equal: no pass runs at all.
	same := []uint64{9, 9, 9}
	assert.Equal(t, []int{0, 1, 2}, Order[int](same))
	assert.Equal(t, []int{0, 0, 0}, FirstOccurrence[int](same))
}

func TestFirstOccurrence(t *testing.T) {
	t.Run("example", func(t *testing.T) {
		x := []uint64{7, 3, 7, 1, 3, 7}
		assert.Equal(t, []int32{0, 1, 0, 3, 1, 0}, FirstOccurrence[int32](x))
	})

	t.Run("random", func(t *testing.T) {
		rng := rand.New(rand.NewPCG(3, 4))
		for _, mask := range []uint32{0x3, 0xFF00, 0xFFFF_FFFF} {
			x := randomKeys[uint32](rng, 1500, mask)
			checkFirstOccurrence(t, x, FirstOccurrence[int32](x))
		}
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, FirstOccurrence[int32]([]uint32{}))
	})
}

func TestSorterReuse(t *testing.T) {
	x := []uint16{4, 2, 4, 1}
	s := New[int32](x)
	assert.Equal(t, []uint16{1, 2, 4, 4}, s.Sort())
	assert.Equal(t, []int32{3, 1, 0, 2}, s.Order())
	assert.Equal(t, []int32{0, 1, 0, 3}, s.FirstOccurrence())
	// Calls don't interfere with each other.
	assert.Equal(t, []uint16{1, 2, 4, 4}, s.Sort())
}

func TestIndexOverflow(t *testing.T) {
	assert.False(t, indexOverflow[int8](126))
	assert.True(t, indexOverflow[int8](127))
	assert.False(t, indexOverflow[uint8](254))
	assert.True(t, indexOverflow[uint8](255))
	assert.False(t, indexOverflow[int](1<<40))

	x := make([]uint32, 300)
	err := exceptions.Try(func() { _ = New[int8](x) })
	require.NotNil(t, err)
	assert.Contains(t, fmt.Sprint(err), "overflow the index type")
}

func BenchmarkSort(b *testing.B) {
	rng := rand.New(rand.NewPCG(0, 0))
	x := randomKeys[uint32](rng, 1<<16, ^uint32(0))

	b.Run("radix", func(b *testing.B) {
		for b.Loop() {
			_ = Order[int32](x)
		}
	})
	b.Run("slices.SortStableFunc", func(b *testing.B) {
		for b.Loop() {
			idx := make([]int32, len(x))
			for i := range idx {
				idx[i] = int32(i)
			}
			slices.SortStableFunc(idx, func(a, b int32) int {
				switch {
				case x[a] < x[b]:
					return -1
				case x[a] > x[b]:
					return 1
				}
				return 0
			})
		}
	})
}
