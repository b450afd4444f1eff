// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package value implements the objects manipulated by running programs:
// character strings (which double as numbers), arrays, directories, stems and
// variable references.
//
// Every value answers operator requests through Operator, using the operator
// identity as the selector, and messages through Send.
package value

import (
	"strconv"
	"strings"

	"github.com/probechain/probe-rexx/lang/diag"
	"github.com/probechain/probe-rexx/lang/token"
)

// Value is the protocol every run-time object implements.
type Value interface {
	// String returns the string value of the object.
	String() string

	// Operator applies op with the receiver as the left operand. right is
	// nil for prefix operators.
	Operator(ctx *Numeric, op token.Operator, right Value) (Value, error)

	// Send invokes the method name (upper case) with args.
	Send(ctx *Numeric, name string, args []Value) (Value, error)
}

// Errorf returns a positionless numbered error; the interpreter attaches the
// clause position when it raises the condition.
func Errorf(code diag.Code, args ...string) error {
	return diag.Errorf(code, token.Position{}, args...)
}

// ---------------------------------------------------------------------------
// Strings
// ---------------------------------------------------------------------------

// String is a character string. Numbers are strings that happen to be valid
// numbers.
type String string

// Empty is the null string.
const Empty = String("")

// Predefined logical results.
var (
	True  Value = String("1")
	False Value = String("0")
)

func (s String) String() string { return string(s) }

// Bool returns the logical string for b.
func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

// Int returns the string form of n.
func Int(n int) Value {
	return String(strconv.Itoa(n))
}

// Truth converts a logical value to bool.
func Truth(v Value) (bool, error) {
	switch v.String() {
	case "1":
		return true, nil
	case "0":
		return false, nil
	}
	return false, Errorf(diag.NotLogical, v.String())
}

// Whole converts v to a whole number.
func Whole(ctx *Numeric, v Value) (int, bool) {
	f, ok := ParseNumber(v.String())
	if !ok {
		return 0, false
	}
	n := int(f)
	if float64(n) != f {
		return 0, false
	}
	return n, true
}

// Send handles messages sent to a string.
func (s String) Send(ctx *Numeric, name string, args []Value) (Value, error) {
	if name == "STRING" || name == "REQUEST" {
		return s, nil
	}
	if fn, ok := stringMethods[name]; ok {
		return fn(ctx, string(s), args)
	}
	// Operator messages: "abc"~"||"("def")
	if op, ok := token.LookupOperator(name); ok && len(args) <= 1 {
		var right Value
		if len(args) == 1 {
			right = args[0]
		}
		return s.Operator(ctx, op, right)
	}
	return nil, Errorf(diag.MethodNotFound, string(s), name)
}

// ---------------------------------------------------------------------------
// The NIL object
// ---------------------------------------------------------------------------

type nilObject struct{}

// Nil is the object standing for "no value".
var Nil Value = nilObject{}

func (nilObject) String() string { return "The NIL object" }

func (n nilObject) Operator(ctx *Numeric, op token.Operator, right Value) (Value, error) {
	return objectOperator(ctx, n, op, right)
}

func (n nilObject) Send(ctx *Numeric, name string, args []Value) (Value, error) {
	switch name {
	case "STRING":
		return String(n.String()), nil
	case "ISNIL":
		return True, nil
	}
	return nil, Errorf(diag.MethodNotFound, n.String(), name)
}

// objectOperator gives non-string objects identity semantics for equality
// and string semantics for everything else.
func objectOperator(ctx *Numeric, left Value, op token.Operator, right Value) (Value, error) {
	switch op {
	case token.EQUAL, token.STRICTEQUAL:
		return Bool(right == left), nil
	case token.NOTEQUAL, token.STRICTNOTEQUAL, token.LESSGREATER, token.GREATERLESS:
		return Bool(right != left), nil
	}
	return String(left.String()).Operator(ctx, op, right)
}

// Strip removes leading and trailing blanks.
func Strip(s string) string { return strings.Trim(s, " \t") }
