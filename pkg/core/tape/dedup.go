// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tape

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/gomlx/tapead/pkg/support/radix"
	"k8s.io/klog/v2"
)

// Dedup implementation: remove duplicated sub-expressions, also known as "common subexpression elimination".
//
// Records are hashed structurally (Hashes), candidate duplicates are found with a radix first-occurrence
// pass over the hash codes, and candidates are only merged after verifying that they are indeed equal.

// Hashes returns a structural hash code for each record of the tape.
//
// The hash of a record combines its kind, its constant value (for kinds that have one), the declaration
// position of independents and the hash codes of its arguments' records. Two records computing the
// same sub-expression of the same independent variables have the same hash.
func Hashes(t *Tape) []uint64 {
	hashes := make([]uint64, len(t.records))
	buf := make([]byte, 0, 64)
	for ii := range t.records {
		r := &t.records[ii]
		buf = binary.LittleEndian.AppendUint64(buf[:0], uint64(r.Kind))
		switch {
		case r.Kind == OpIndependent:
			buf = binary.LittleEndian.AppendUint64(buf, uint64(r.Index))
		case r.Kind.HasValue():
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(r.Value))
		}
		for _, arg := range r.Args {
			buf = binary.LittleEndian.AppendUint64(buf, hashes[t.varRecord[arg]])
		}
		hashes[ii] = xxhash.Sum64(buf)
	}
	return hashes
}

// Dedup returns a copy of the tape where duplicated records are removed, and a map from the variable
// addresses of t to the addresses on the new tape.
//
// Independent variables are never merged, and the order of independents and dependents is preserved,
// so the new tape computes the same function, with the same derivatives.
//
// Records whose hash codes collide are compared with every distinct record of their hash group, so a
// collision never prevents true duplicates from being merged.
func Dedup(t *Tape) (*Tape, []Var) {
	return dedupWithHashes(t, Hashes(t))
}

// dedupWithHashes implements Dedup given the hash codes of the records.
func dedupWithHashes(t *Tape, hashes []uint64) (*Tape, []Var) {
	numRecords := len(t.records)
	first := radix.FirstOccurrence[int32](hashes)

	// representative[ii] is the index of the record that will replace record ii.
	representative := make([]int32, numRecords)
	// collisions holds, per hash group with more than one distinct record, the distinct records after the first.
	var collisions map[int32][]int32
	for ii := range t.records {
		representative[ii] = int32(ii)
		candidate := first[ii]
		if int(candidate) == ii {
			continue
		}
		if t.sameRecord(representative, &t.records[candidate], &t.records[ii]) {
			representative[ii] = representative[candidate]
			continue
		}
		merged := false
		for _, other := range collisions[candidate] {
			if t.sameRecord(representative, &t.records[other], &t.records[ii]) {
				representative[ii] = other
				merged = true
				break
			}
		}
		if !merged {
			if collisions == nil {
				collisions = make(map[int32][]int32)
			}
			collisions[candidate] = append(collisions[candidate], int32(ii))
			klog.V(2).Infof("tape.Dedup: hash collision between records %d and %d", candidate, ii)
		}
	}

	b := NewBuilder()
	remap := make([]Var, t.NumVar())
	args := make([]Var, 0, 2)
	for ii := range t.records {
		r := &t.records[ii]
		if rep := int(representative[ii]); rep != ii {
			repRecord := &t.records[rep]
			for offset := range Var(r.Kind.NumResults()) {
				remap[r.Addr-offset] = remap[repRecord.Addr-offset]
			}
			continue
		}
		args = args[:0]
		for _, arg := range r.Args {
			args = append(args, remap[arg])
		}
		newAddr := b.Record(r.Kind, r.Value, args...)
		for offset := range Var(r.Kind.NumResults()) {
			remap[r.Addr-offset] = newAddr - offset
		}
	}
	for _, dep := range t.dependents {
		b.Dependent(remap[dep])
	}
	deduped := b.Build()
	if klog.V(1).Enabled() {
		klog.Infof("tape.Dedup: %d records -> %d records (%d variables -> %d)",
			numRecords, deduped.NumRecords(), t.NumVar(), deduped.NumVar())
	}
	return deduped, remap
}

// sameRecord returns whether records a and b compute the same value, given the representatives of
// the records already visited.
func (t *Tape) sameRecord(representative []int32, a, b *Record) bool {
	if a.Kind != b.Kind || a.Kind == OpIndependent {
		return false
	}
	if a.Kind.HasValue() && math.Float64bits(a.Value) != math.Float64bits(b.Value) {
		return false
	}
	for ii, argA := range a.Args {
		argB := b.Args[ii]
		if representative[t.varRecord[argA]] != representative[t.varRecord[argB]] {
			return false
		}
	}
	return true
}
