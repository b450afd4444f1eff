// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package image

import (
	"fmt"

	"github.com/probechain/probe-rexx/lang/ast"
)

// record is the persisted form of one expression or instruction node: a
// type tag followed by its scalar fields and child records. Each node type
// writes its fields in a fixed order and reads them back in the same order.
type record struct {
	Tag  uint
	Strs []string
	Nums []uint64
	Subs []record
}

// tagNone is the tag of an absent expression or of a nil list.
const tagNone = 0

// builder appends fields to a record.
type builder struct {
	rec record
}

func newBuilder(tag uint) *builder { return &builder{rec: record{Tag: tag}} }

func (b *builder) str(s string) *builder {
	b.rec.Strs = append(b.rec.Strs, s)
	return b
}

func (b *builder) num(n uint64) *builder {
	b.rec.Nums = append(b.rec.Nums, n)
	return b
}

func (b *builder) signed(n int) *builder { return b.num(zigzag(n)) }

func (b *builder) flag(v bool) *builder {
	if v {
		return b.num(1)
	}
	return b.num(0)
}

// index stores NoIndex as zero.
func (b *builder) index(i ast.Index) *builder { return b.num(uint64(i + 1)) }

// count stores the length of a list, keeping nil apart from empty.
func count[T any](b *builder, list []T) {
	if list == nil {
		b.num(0)
		return
	}
	b.num(uint64(len(list)) + 1)
}

func (b *builder) sub(r record) *builder {
	b.rec.Subs = append(b.rec.Subs, r)
	return b
}

func (b *builder) done() record { return b.rec }

// reader consumes the fields of a record in the order they were written.
// The first missing field is stored in *err, shared by the readers of one
// image; reads after it yield zero values.
type reader struct {
	rec     *record
	s, n, k int
	err     *error
}

func newReader(rec *record, err *error) *reader { return &reader{rec: rec, err: err} }

func (r *reader) fail(what string) {
	if *r.err == nil {
		*r.err = fmt.Errorf("%w: record %d lacks %s", ErrBadImage, r.rec.Tag, what)
	}
}

func (r *reader) str() string {
	if r.s >= len(r.rec.Strs) {
		r.fail("string field")
		return ""
	}
	r.s++
	return r.rec.Strs[r.s-1]
}

func (r *reader) num() uint64 {
	if r.n >= len(r.rec.Nums) {
		r.fail("numeric field")
		return 0
	}
	r.n++
	return r.rec.Nums[r.n-1]
}

func (r *reader) signed() int { return unzigzag(r.num()) }

func (r *reader) flag() bool { return r.num() != 0 }

func (r *reader) index() ast.Index { return ast.Index(r.num()) - 1 }

// count returns the list length and whether the list is present. Every
// element takes at least one field, which bounds the length.
func (r *reader) count() (int, bool) {
	n := r.num()
	if n == 0 {
		return 0, false
	}
	if n-1 > uint64(len(r.rec.Strs)+len(r.rec.Nums)+len(r.rec.Subs)) {
		r.fail("consistent list length")
		return 0, false
	}
	return int(n - 1), true
}

func (r *reader) sub() *record {
	if r.k >= len(r.rec.Subs) {
		r.fail("child record")
		return &record{}
	}
	r.k++
	return &r.rec.Subs[r.k-1]
}

func zigzag(n int) uint64 { return uint64((n << 1) ^ (n >> 63)) }

func unzigzag(u uint64) int { return int(u>>1) ^ -int(u&1) }
