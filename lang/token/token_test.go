// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package token

import "testing"

func TestOperatorNames(t *testing.T) {
	for text, op := range operatorText {
		if got := op.String(); got != text {
			t.Errorf("operator %d: name %q, want %q", op, got, text)
		}
		if !op.Valid() {
			t.Errorf("operator %q not valid", text)
		}
	}
	if NOOP.Valid() {
		t.Error("NOOP is valid")
	}
}

func TestPrecedence(t *testing.T) {
	order := [][]Operator{
		{OR, XOR},
		{AND},
		{EQUAL, STRICTLESS, GREATERLESS},
		{CONCAT, BLANK, ABUTTAL},
		{PLUS, SUBTRACT},
		{MULTIPLY, DIVIDE, INTDIV, REMAINDER},
		{POWER},
	}
	for level, ops := range order {
		for _, op := range ops {
			if got := op.Precedence(); got != level+1 {
				t.Errorf("%q: precedence %d, want %d", op, got, level+1)
			}
		}
	}
	if NOT.Precedence() != 0 {
		t.Error("prefix-only NOT has an infix precedence")
	}
}

func TestOperatorClasses(t *testing.T) {
	if !STRICTNOTLESS.IsComparison() || AND.IsComparison() {
		t.Error("IsComparison misclassifies")
	}
	if !NOT.IsLogical() || PLUS.IsLogical() {
		t.Error("IsLogical misclassifies")
	}
	for _, op := range []Operator{PLUS, SUBTRACT, NOT} {
		if !op.IsPrefix() {
			t.Errorf("%q is not a prefix operator", op)
		}
	}
	if !IsCompoundAssign(REMAINDER) || IsCompoundAssign(EQUAL) {
		t.Error("IsCompoundAssign misclassifies")
	}
}

func TestTokenPredicates(t *testing.T) {
	sym := Token{Type: SYMBOL, Sub: VARIABLE, Value: "SAY"}
	if !sym.IsSymbol("SAY") || sym.IsSymbol("say") || sym.IsEnd() {
		t.Error("symbol predicates")
	}
	if !(Token{Type: EOC}).IsEnd() || !(Token{Type: EOF}).IsEnd() {
		t.Error("EOC and EOF end a clause")
	}
	if !(Token{Type: OPERATOR, Op: PLUS}).IsOp(PLUS) || (Token{Type: ASSIGN, Op: PLUS}).IsOp(PLUS) {
		t.Error("IsOp")
	}
	if !COMPOUND.IsVariable() || !DUMMY.IsConstant() || STRING.IsVariable() {
		t.Error("subclass predicates")
	}
}

func TestPositionString(t *testing.T) {
	if got := (Position{File: "a.rex", Line: 3, Column: 7}).String(); got != "a.rex:3:7" {
		t.Errorf("got %q", got)
	}
	if got := (Position{Line: 3, Column: 7}).String(); got != "3:7" {
		t.Errorf("got %q", got)
	}
}
