// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package radix implements an LSD radix sort for unsigned integer keys, returning the sorted keys,
// the stable sorting permutation or a "first occurrence" map used for de-duplication.
//
// It beats the standard sort on its intended workload: long sequences of hash codes, whose high
// and low bits are randomly distributed, but where some digits may be constant across the whole
// input (those digits are skipped).
//
// Example:
//
//	hashes := []uint64{7, 3, 7, 1}
//	first := radix.FirstOccurrence[int32](hashes) // [0, 1, 0, 3]
package radix

import (
	"math"
	"unsafe"

	. "github.com/gomlx/exceptions"
	"golang.org/x/exp/constraints"
)

const (
	// Width is the number of bits of the key consumed by each pass.
	Width = 8

	// NumKeys is the number of distinct digit values per pass.
	NumKeys = 1 << Width

	digitMask = NumKeys - 1
)

// Sorter sorts a read-only sequence of keys of type T, and generates permutations with indices of type I.
//
// It holds no state other than a reference to the input, and it can be reused any number of times.
// Different Sorter objects are safe to use concurrently.
type Sorter[T constraints.Unsigned, I constraints.Integer] struct {
	x          []T
	totalWidth int
}

// New returns a Sorter for x.
//
// It panics if T is not an unsigned type whose bit width is a multiple of Width, or if len(x)
// can't be represented by the index type I: both are configuration errors, not data errors.
func New[I constraints.Integer, T constraints.Unsigned](x []T) *Sorter[T, I] {
	var zero T
	if ^zero < zero {
		Panicf("radix: key type %T must be unsigned", zero)
	}
	totalWidth := int(unsafe.Sizeof(zero)) * 8
	if totalWidth%Width != 0 {
		Panicf("radix: key type %T has %d bits, not a multiple of the radix width %d", zero, totalWidth, Width)
	}
	if indexOverflow[I](len(x)) {
		var index I
		Panicf("radix: %d keys overflow the index type %T", len(x), index)
	}
	return &Sorter[T, I]{x: x, totalWidth: totalWidth}
}

// indexOverflow reports whether n keys can't be indexed by I. The largest value of I is reserved.
func indexOverflow[I constraints.Integer](n int) bool {
	var zero I
	maxIndex := uint64(math.MaxUint64)
	bits := int(unsafe.Sizeof(zero)) * 8
	if ^zero < zero {
		// Signed index type.
		bits--
	}
	if bits < 64 {
		maxIndex = uint64(1)<<bits - 1
	}
	return uint64(n) >= maxIndex
}

func digit[T constraints.Unsigned](value T, shift int) int {
	return int((value >> shift) & digitMask)
}

// run sorts the keys, and if withOrder is set, also the permutation of the original indices.
func (s *Sorter[T, I]) run(withOrder bool) (sorted []T, order []I) {
	n := len(s.x)
	bitwiseAnd, bitwiseOr := ^T(0), T(0)
	for _, value := range s.x {
		bitwiseAnd &= value
		bitwiseOr |= value
	}

	sorted = make([]T, n)
	copy(sorted, s.x)
	nextSorted := make([]T, n)
	var nextOrder []I
	if withOrder {
		order = make([]I, n)
		for i := range order {
			order[i] = I(i)
		}
		nextOrder = make([]I, n)
	}

	var count, pos [NumKeys]int
	for shift := 0; shift < s.totalWidth; shift += Width {
		if digit(bitwiseAnd, shift) == digit(bitwiseOr, shift) {
			// Digit is constant over all keys: the pass would be a no-op.
			continue
		}

		clear(count[:])
		for _, value := range sorted {
			count[digit(value, shift)]++
		}
		pos[0] = 0
		for key := 1; key < NumKeys; key++ {
			pos[key] = pos[key-1] + count[key-1]
		}
		for i, value := range sorted {
			key := digit(value, shift)
			j := pos[key]
			nextSorted[j] = value
			if withOrder {
				nextOrder[j] = order[i]
			}
			pos[key]++
		}
		sorted, nextSorted = nextSorted, sorted
		order, nextOrder = nextOrder, order
	}
	return
}

// Sort returns a sorted copy of the keys.
func (s *Sorter[T, I]) Sort() []T {
	sorted, _ := s.run(false)
	return sorted
}

// Order returns the stable permutation that sorts the keys: x[order[0]] <= x[order[1]] <= ...
// Equal keys keep their original relative order.
func (s *Sorter[T, I]) Order() []I {
	_, order := s.run(true)
	return order
}

// FirstOccurrence returns for each original position i the position of the first key (in the original order)
// equal to x[i]. Every returned position is a fixed point: first[first[i]] == first[i].
func (s *Sorter[T, I]) FirstOccurrence() []I {
	sorted, order := s.run(true)
	first := make([]I, len(sorted))
	for i := range first {
		first[i] = I(i)
	}
	// Within a group of equal keys the order is stable, so the first element of the group in sorted order
	// is also its earliest original position, and it is propagated along the group.
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1] == sorted[i] {
			first[order[i]] = first[order[i-1]]
		}
	}
	return first
}

// Sort returns a sorted copy of x.
func Sort[T constraints.Unsigned](x []T) []T {
	return New[int](x).Sort()
}

// Order returns the stable sorting permutation of x, with indices of type I.
func Order[I constraints.Integer, T constraints.Unsigned](x []T) []I {
	return New[I](x).Order()
}

// FirstOccurrence returns, for each position of x, the position of the first element equal to it.
func FirstOccurrence[I constraints.Integer, T constraints.Unsigned](x []T) []I {
	return New[I](x).FirstOccurrence()
}
