// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package value

import (
	"sort"
	"strconv"

	"github.com/probechain/probe-rexx/lang/diag"
	"github.com/probechain/probe-rexx/lang/token"
)

// Collection is implemented by the objects loops can iterate over.
type Collection interface {
	Value

	// OverItems returns the values DO OVER assigns, in iteration order.
	OverItems() []Value

	// Snapshot returns parallel index and item lists for DO WITH.
	Snapshot() (indexes, items []Value)
}

// ---------------------------------------------------------------------------
// Array
// ---------------------------------------------------------------------------

// Array is a one-based, sparse sequence of objects.
type Array struct {
	items []Value // nil marks an empty slot
}

// NewArray returns an array holding items.
func NewArray(items ...Value) *Array {
	return &Array{items: append([]Value(nil), items...)}
}

func (a *Array) String() string { return "an Array" }

// Len returns the size of the array, including empty slots.
func (a *Array) Len() int { return len(a.items) }

// At returns the item at the one-based index i, or nil.
func (a *Array) At(i int) Value {
	if i < 1 || i > len(a.items) {
		return nil
	}
	return a.items[i-1]
}

// Put stores v at the one-based index i, growing the array as needed.
func (a *Array) Put(v Value, i int) {
	for len(a.items) < i {
		a.items = append(a.items, nil)
	}
	a.items[i-1] = v
}

// Append adds v after the last slot and returns its index.
func (a *Array) Append(v Value) int {
	a.items = append(a.items, v)
	return len(a.items)
}

// Empty removes every item.
func (a *Array) Empty() { a.items = nil }

func (a *Array) OverItems() []Value {
	var out []Value
	for _, v := range a.items {
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}

func (a *Array) Snapshot() (indexes, items []Value) {
	for i, v := range a.items {
		if v != nil {
			indexes = append(indexes, Int(i+1))
			items = append(items, v)
		}
	}
	return indexes, items
}

func (a *Array) Operator(ctx *Numeric, op token.Operator, right Value) (Value, error) {
	return objectOperator(ctx, a, op, right)
}

func (a *Array) index(ctx *Numeric, args []Value, i int) (int, error) {
	if i >= len(args) {
		return 0, Errorf(diag.NotEnoughArgs, "array index", strconv.Itoa(i+1))
	}
	n, ok := Whole(ctx, args[i])
	if !ok || n < 1 {
		return 0, Errorf(diag.InvalidWhole, args[i].String())
	}
	return n, nil
}

func (a *Array) Send(ctx *Numeric, name string, args []Value) (Value, error) {
	switch name {
	case "STRING":
		return String(a.String()), nil
	case "SIZE", "DIMENSION":
		return Int(len(a.items)), nil
	case "ITEMS":
		return Int(len(a.OverItems())), nil
	case "AT", "[]":
		i, err := a.index(ctx, args, 0)
		if err != nil {
			return nil, err
		}
		if v := a.At(i); v != nil {
			return v, nil
		}
		return Nil, nil
	case "PUT", "[]=":
		if len(args) < 1 {
			return nil, Errorf(diag.NotEnoughArgs, name, "2")
		}
		i, err := a.index(ctx, args, 1)
		if err != nil {
			return nil, err
		}
		a.Put(args[0], i)
		return nil, nil
	case "APPEND":
		if len(args) != 1 {
			return nil, Errorf(diag.IncorrectCall, name, "one argument expected")
		}
		return Int(a.Append(args[0])), nil
	case "REMOVE":
		i, err := a.index(ctx, args, 0)
		if err != nil {
			return nil, err
		}
		v := a.At(i)
		if v == nil {
			return Nil, nil
		}
		a.items[i-1] = nil
		return v, nil
	case "HASINDEX":
		i, err := a.index(ctx, args, 0)
		if err != nil {
			return nil, err
		}
		return Bool(a.At(i) != nil), nil
	case "FIRST", "LAST":
		idx, _ := a.Snapshot()
		if len(idx) == 0 {
			return Nil, nil
		}
		if name == "FIRST" {
			return idx[0], nil
		}
		return idx[len(idx)-1], nil
	case "ALLITEMS":
		return NewArray(a.OverItems()...), nil
	case "ALLINDEXES":
		idx, _ := a.Snapshot()
		return NewArray(idx...), nil
	case "MAKEARRAY":
		return NewArray(a.OverItems()...), nil
	case "ISEMPTY":
		return Bool(len(a.OverItems()) == 0), nil
	case "EMPTY":
		a.Empty()
		return nil, nil
	}
	return nil, Errorf(diag.MethodNotFound, a.String(), name)
}

// ---------------------------------------------------------------------------
// Directory
// ---------------------------------------------------------------------------

// Directory maps string indexes to objects. Messages it does not understand
// read or write the entry of the same name.
type Directory struct {
	entries map[string]Value
	order   []string
}

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{entries: make(map[string]Value)}
}

func (d *Directory) String() string { return "a Directory" }

// At returns the entry stored under name, or nil.
func (d *Directory) At(name string) Value { return d.entries[name] }

// Put stores v under name.
func (d *Directory) Put(v Value, name string) {
	if _, ok := d.entries[name]; !ok {
		d.order = append(d.order, name)
	}
	d.entries[name] = v
}

// Remove deletes name and returns its previous entry, or nil.
func (d *Directory) Remove(name string) Value {
	v, ok := d.entries[name]
	if !ok {
		return nil
	}
	delete(d.entries, name)
	for i, n := range d.order {
		if n == name {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return v
}

func (d *Directory) OverItems() []Value {
	out := make([]Value, len(d.order))
	for i, n := range d.order {
		out[i] = String(n)
	}
	return out
}

func (d *Directory) Snapshot() (indexes, items []Value) {
	for _, n := range d.order {
		indexes = append(indexes, String(n))
		items = append(items, d.entries[n])
	}
	return indexes, items
}

func (d *Directory) Operator(ctx *Numeric, op token.Operator, right Value) (Value, error) {
	return objectOperator(ctx, d, op, right)
}

func (d *Directory) Send(ctx *Numeric, name string, args []Value) (Value, error) {
	arg := func(i int) (string, error) {
		if i >= len(args) || args[i] == nil {
			return "", Errorf(diag.NotEnoughArgs, name, strconv.Itoa(i+1))
		}
		return args[i].String(), nil
	}
	switch name {
	case "STRING":
		return String(d.String()), nil
	case "ITEMS":
		return Int(len(d.order)), nil
	case "AT", "[]", "ENTRY":
		key, err := arg(0)
		if err != nil {
			return nil, err
		}
		if name == "ENTRY" {
			key = Upper(key)
		}
		if v := d.At(key); v != nil {
			return v, nil
		}
		return Nil, nil
	case "PUT", "[]=":
		if len(args) < 2 {
			return nil, Errorf(diag.NotEnoughArgs, name, "2")
		}
		d.Put(args[0], args[1].String())
		return nil, nil
	case "SETENTRY":
		key, err := arg(0)
		if err != nil {
			return nil, err
		}
		if len(args) < 2 {
			d.Remove(Upper(key))
			return nil, nil
		}
		d.Put(args[1], Upper(key))
		return nil, nil
	case "HASINDEX", "HASENTRY":
		key, err := arg(0)
		if err != nil {
			return nil, err
		}
		if name == "HASENTRY" {
			key = Upper(key)
		}
		return Bool(d.At(key) != nil), nil
	case "REMOVE":
		key, err := arg(0)
		if err != nil {
			return nil, err
		}
		if v := d.Remove(key); v != nil {
			return v, nil
		}
		return Nil, nil
	case "ALLINDEXES", "MAKEARRAY":
		return NewArray(d.OverItems()...), nil
	case "ALLITEMS":
		_, items := d.Snapshot()
		return NewArray(items...), nil
	}
	// Attribute style access: d~name and d~name = value.
	if n := len(name); n > 1 && name[n-1] == '=' {
		if len(args) != 1 {
			return nil, Errorf(diag.IncorrectCall, name, "one argument expected")
		}
		d.Put(args[0], name[:n-1])
		return nil, nil
	}
	if len(args) == 0 {
		if v := d.At(name); v != nil {
			return v, nil
		}
		return Nil, nil
	}
	return nil, Errorf(diag.MethodNotFound, d.String(), name)
}

// ---------------------------------------------------------------------------
// Stem
// ---------------------------------------------------------------------------

// Stem holds the compound variables sharing a stem name, plus the default
// value given by assigning to the stem itself.
type Stem struct {
	Name  string // stem name including the trailing period
	dflt  Value
	tails map[string]Value
}

// NewStem returns an empty stem.
func NewStem(name string) *Stem {
	return &Stem{Name: name, tails: make(map[string]Value)}
}

// Get returns the value of the compound variable with the given tail. The
// stem default answers for unassigned tails; ok is false when neither exists.
func (s *Stem) Get(tail string) (Value, bool) {
	if v, ok := s.tails[tail]; ok {
		return v, true
	}
	if s.dflt != nil {
		return s.dflt, true
	}
	return nil, false
}

// Set assigns the compound variable with the given tail.
func (s *Stem) Set(tail string, v Value) { s.tails[tail] = v }

// Drop removes the compound variable with the given tail.
func (s *Stem) Drop(tail string) { delete(s.tails, tail) }

// Default returns the stem's default value, or nil.
func (s *Stem) Default() Value { return s.dflt }

// SetDefault assigns the stem itself: every tail is discarded and v becomes
// the value of every compound variable.
func (s *Stem) SetDefault(v Value) {
	s.dflt = v
	s.tails = make(map[string]Value)
}

// Reset drops the stem and all its tails.
func (s *Stem) Reset() {
	s.dflt = nil
	s.tails = make(map[string]Value)
}

// Tails returns the assigned tails, numbers first in numeric order.
func (s *Stem) Tails() []string {
	out := make([]string, 0, len(s.tails))
	for t := range s.tails {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		a, aok := ParseNumber(out[i])
		b, bok := ParseNumber(out[j])
		switch {
		case aok && bok && a != b:
			return a < b
		case aok != bok:
			return aok
		}
		return out[i] < out[j]
	})
	return out
}

func (s *Stem) String() string {
	if s.dflt != nil {
		return s.dflt.String()
	}
	return s.Name
}

func (s *Stem) OverItems() []Value {
	tails := s.Tails()
	out := make([]Value, len(tails))
	for i, t := range tails {
		out[i] = String(t)
	}
	return out
}

func (s *Stem) Snapshot() (indexes, items []Value) {
	for _, t := range s.Tails() {
		indexes = append(indexes, String(t))
		items = append(items, s.tails[t])
	}
	return indexes, items
}

func (s *Stem) Operator(ctx *Numeric, op token.Operator, right Value) (Value, error) {
	return String(s.String()).Operator(ctx, op, right)
}

func (s *Stem) Send(ctx *Numeric, name string, args []Value) (Value, error) {
	tail := func() string {
		if len(args) == 0 || args[0] == nil {
			return ""
		}
		return args[0].String()
	}
	switch name {
	case "STRING":
		return String(s.String()), nil
	case "ITEMS":
		return Int(len(s.tails)), nil
	case "[]", "AT":
		if v, ok := s.Get(tail()); ok {
			return v, nil
		}
		return String(s.Name + tail()), nil
	case "[]=", "PUT":
		if len(args) < 2 {
			return nil, Errorf(diag.NotEnoughArgs, name, "2")
		}
		s.Set(args[1].String(), args[0])
		return nil, nil
	case "HASINDEX":
		_, ok := s.tails[tail()]
		return Bool(ok), nil
	case "REMOVE":
		t := tail()
		v, ok := s.tails[t]
		if !ok {
			return Nil, nil
		}
		delete(s.tails, t)
		return v, nil
	case "ALLINDEXES", "MAKEARRAY":
		return NewArray(s.OverItems()...), nil
	case "ALLITEMS":
		_, items := s.Snapshot()
		return NewArray(items...), nil
	}
	return nil, Errorf(diag.MethodNotFound, s.Name, name)
}

// ---------------------------------------------------------------------------
// Classes reachable through environment symbols
// ---------------------------------------------------------------------------

// Class is a factory object such as .array or .directory.
type Class struct {
	Name string
	new  func(args []Value) (Value, error)
}

// ArrayClass and DirectoryClass are the factories behind .array and
// .directory.
var (
	ArrayClass = &Class{Name: "Array", new: func(args []Value) (Value, error) {
		return NewArray(), nil
	}}
	DirectoryClass = &Class{Name: "Directory", new: func(args []Value) (Value, error) {
		return NewDirectory(), nil
	}}
)

func (c *Class) String() string { return "The " + c.Name + " class" }

func (c *Class) Operator(ctx *Numeric, op token.Operator, right Value) (Value, error) {
	return objectOperator(ctx, c, op, right)
}

func (c *Class) Send(ctx *Numeric, name string, args []Value) (Value, error) {
	switch name {
	case "NEW":
		return c.new(args)
	case "ID":
		return String(c.Name), nil
	case "STRING":
		return String(c.String()), nil
	case "OF":
		if c == ArrayClass {
			return NewArray(args...), nil
		}
	}
	return nil, Errorf(diag.MethodNotFound, c.String(), name)
}
