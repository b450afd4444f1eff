// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package value

import (
	"math"
	"strings"

	"github.com/probechain/probe-rexx/lang/diag"
	"github.com/probechain/probe-rexx/lang/token"
)

// Operator implements every operator for strings. Arithmetic requires both
// operands to be numbers; comparisons are numeric when both operands are
// numbers and character-wise otherwise.
func (s String) Operator(ctx *Numeric, op token.Operator, right Value) (Value, error) {
	if right == nil {
		return s.prefix(ctx, op)
	}
	r := right.String()
	switch op {
	case token.CONCAT, token.ABUTTAL:
		return String(string(s) + r), nil
	case token.BLANK:
		return String(string(s) + " " + r), nil

	case token.PLUS, token.SUBTRACT, token.MULTIPLY, token.DIVIDE,
		token.INTDIV, token.REMAINDER, token.POWER:
		return arithmetic(ctx, op, string(s), r)

	case token.AND, token.OR, token.XOR:
		a, err := Truth(s)
		if err != nil {
			return nil, err
		}
		b, err := Truth(right)
		if err != nil {
			return nil, err
		}
		switch op {
		case token.AND:
			return Bool(a && b), nil
		case token.OR:
			return Bool(a || b), nil
		}
		return Bool(a != b), nil
	}

	if op.IsComparison() {
		return Bool(compare(ctx, op, string(s), r)), nil
	}
	return nil, Errorf(diag.InvalidExpression, op.String())
}

func (s String) prefix(ctx *Numeric, op token.Operator) (Value, error) {
	switch op {
	case token.NOT:
		b, err := Truth(s)
		if err != nil {
			return nil, err
		}
		return Bool(!b), nil
	case token.PLUS, token.SUBTRACT:
		f, ok := ParseNumber(string(s))
		if !ok {
			return nil, Errorf(diag.NonNumeric, string(s))
		}
		if op == token.SUBTRACT {
			f = -f
		}
		return Number(ctx, roundDigits(f, ctx.digits())), nil
	}
	return nil, Errorf(diag.InvalidExpression, op.String())
}

func arithmetic(ctx *Numeric, op token.Operator, left, right string) (Value, error) {
	a, ok := ParseNumber(left)
	if !ok {
		return nil, Errorf(diag.NonNumeric, left)
	}
	b, ok := ParseNumber(right)
	if !ok {
		return nil, Errorf(diag.NonNumeric, right)
	}
	var r float64
	switch op {
	case token.PLUS:
		r = a + b
	case token.SUBTRACT:
		r = a - b
	case token.MULTIPLY:
		r = a * b
	case token.DIVIDE:
		if b == 0 {
			return nil, Errorf(diag.DivideByZero)
		}
		r = a / b
	case token.INTDIV:
		if b == 0 {
			return nil, Errorf(diag.DivideByZero)
		}
		r = math.Trunc(a / b)
	case token.REMAINDER:
		if b == 0 {
			return nil, Errorf(diag.DivideByZero)
		}
		r = a - math.Trunc(a/b)*b
	case token.POWER:
		if b != math.Trunc(b) {
			return nil, Errorf(diag.InvalidWhole, right)
		}
		r = math.Pow(a, b)
	}
	if math.IsInf(r, 0) || math.IsNaN(r) {
		return nil, Errorf(diag.DivideByZero)
	}
	return Number(ctx, roundDigits(r, ctx.digits())), nil
}

// compare evaluates a comparison operator.
func compare(ctx *Numeric, op token.Operator, left, right string) bool {
	switch op {
	case token.STRICTEQUAL:
		return left == right
	case token.STRICTNOTEQUAL:
		return left != right
	case token.STRICTGREATER:
		return left > right
	case token.STRICTNOTGREAT, token.STRICTLESSEQ:
		return left <= right
	case token.STRICTLESS:
		return left < right
	case token.STRICTNOTLESS, token.STRICTGREATEREQ:
		return left >= right
	}

	c := normalCompare(ctx, left, right)
	switch op {
	case token.EQUAL:
		return c == 0
	case token.NOTEQUAL, token.LESSGREATER, token.GREATERLESS:
		return c != 0
	case token.GREATER:
		return c > 0
	case token.NOTGREATER, token.LESSEQUAL:
		return c <= 0
	case token.LESS:
		return c < 0
	case token.NOTLESS, token.GREATEREQUAL:
		return c >= 0
	}
	return false
}

// normalCompare compares numerically when both sides are numbers, otherwise
// as strings with leading and trailing blanks ignored and the shorter string
// padded with blanks.
func normalCompare(ctx *Numeric, left, right string) int {
	a, aok := ParseNumber(left)
	b, bok := ParseNumber(right)
	if aok && bok {
		d := ctx.compareDigits()
		a, b = roundDigits(a, d), roundDigits(b, d)
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	}
	l, r := Strip(left), Strip(right)
	if len(l) < len(r) {
		l += strings.Repeat(" ", len(r)-len(l))
	} else if len(r) < len(l) {
		r += strings.Repeat(" ", len(l)-len(r))
	}
	return strings.Compare(l, r)
}

// Equal reports whether two values compare equal with the "=" operator.
func Equal(ctx *Numeric, a, b Value) (bool, error) {
	v, err := a.Operator(ctx, token.EQUAL, b)
	if err != nil {
		return false, err
	}
	return Truth(v)
}
