// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package value

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probechain/probe-rexx/lang/diag"
	"github.com/probechain/probe-rexx/lang/token"
)

func op(t *testing.T, left string, o token.Operator, right string) string {
	t.Helper()
	v, err := String(left).Operator(DefaultNumeric(), o, String(right))
	require.NoError(t, err)
	return v.String()
}

func errCode(t *testing.T, err error) diag.Code {
	t.Helper()
	var derr *diag.Error
	require.True(t, errors.As(err, &derr), "want *diag.Error, got %v", err)
	return derr.Code
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		left  string
		op    token.Operator
		right string
		want  string
	}{
		{"1", token.PLUS, "2", "3"},
		{" 1 ", token.SUBTRACT, "3", "-2"},
		{"7", token.DIVIDE, "2", "3.5"},
		{"1", token.DIVIDE, "3", "0.333333333"},
		{"7", token.INTDIV, "2", "3"},
		{"7", token.REMAINDER, "2", "1"},
		{"-7", token.REMAINDER, "2", "-1"},
		{"2", token.POWER, "10", "1024"},
		{"1.5", token.MULTIPLY, "4", "6"},
		{"100000", token.MULTIPLY, "100000", "1E+10"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, op(t, tt.left, tt.op, tt.right), "%s %s %s", tt.left, tt.op, tt.right)
	}
}

func TestArithmeticErrors(t *testing.T) {
	ctx := DefaultNumeric()
	_, err := String("1").Operator(ctx, token.DIVIDE, String("0"))
	assert.Equal(t, diag.DivideByZero, errCode(t, err))

	_, err = String("a").Operator(ctx, token.PLUS, String("1"))
	assert.Equal(t, diag.NonNumeric, errCode(t, err))

	_, err = String("2").Operator(ctx, token.POWER, String("0.5"))
	assert.Equal(t, diag.InvalidWhole, errCode(t, err))
}

func TestConcatenation(t *testing.T) {
	assert.Equal(t, "ab", op(t, "a", token.CONCAT, "b"))
	assert.Equal(t, "ab", op(t, "a", token.ABUTTAL, "b"))
	assert.Equal(t, "a b", op(t, "a", token.BLANK, "b"))
}

func TestComparison(t *testing.T) {
	tests := []struct {
		left  string
		op    token.Operator
		right string
		want  string
	}{
		{"1", token.EQUAL, "1.0", "1"},
		{" abc", token.EQUAL, "abc  ", "1"},
		{"abc", token.STRICTEQUAL, " abc", "0"},
		{"10", token.GREATER, "9", "1"},
		{"10", token.STRICTGREATER, "9", "0"},
		{"abc", token.LESS, "abd", "1"},
		{"a", token.LESSGREATER, "b", "1"},
		{"2", token.GREATEREQUAL, "2", "1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, op(t, tt.left, tt.op, tt.right), "%q %s %q", tt.left, tt.op, tt.right)
	}

	ok, err := Equal(DefaultNumeric(), String("1"), String("01"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFuzz(t *testing.T) {
	ctx := &Numeric{Digits: 9, Fuzz: 6}
	v, err := String("1000").Operator(ctx, token.EQUAL, String("1001"))
	require.NoError(t, err)
	assert.Equal(t, "1", v.String())
}

func TestLogical(t *testing.T) {
	assert.Equal(t, "0", op(t, "1", token.AND, "0"))
	assert.Equal(t, "1", op(t, "1", token.OR, "0"))
	assert.Equal(t, "0", op(t, "1", token.XOR, "1"))

	v, err := String("1").Operator(DefaultNumeric(), token.NOT, nil)
	require.NoError(t, err)
	assert.Equal(t, "0", v.String())

	_, err = String("2").Operator(DefaultNumeric(), token.AND, String("1"))
	assert.Equal(t, diag.NotLogical, errCode(t, err))
}

func TestPrefix(t *testing.T) {
	v, err := String(" 12 ").Operator(DefaultNumeric(), token.SUBTRACT, nil)
	require.NoError(t, err)
	assert.Equal(t, "-12", v.String())

	_, err = String("x").Operator(DefaultNumeric(), token.PLUS, nil)
	assert.Equal(t, diag.NonNumeric, errCode(t, err))
}

func TestParseNumber(t *testing.T) {
	f, ok := ParseNumber(" - 12 ")
	assert.True(t, ok)
	assert.Equal(t, -12.0, f)

	f, ok = ParseNumber("1.5E2")
	assert.True(t, ok)
	assert.Equal(t, 150.0, f)

	for _, s := range []string{"", "1e", "abc", "1 2", "--1"} {
		_, ok := ParseNumber(s)
		assert.False(t, ok, "%q", s)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		f      float64
		digits int
		want   string
	}{
		{0, 9, "0"},
		{42, 9, "42"},
		{-2.5, 9, "-2.5"},
		{0.000001, 9, "0.000001"},
		{123456789012, 9, "1.23456789E+11"},
		{1e10, 9, "1E+10"},
		{2.0 / 3.0, 5, "0.66667"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNumber(tt.f, tt.digits), "%v", tt.f)
	}
}

func TestWhole(t *testing.T) {
	n, ok := Whole(DefaultNumeric(), String("3.0"))
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	_, ok = Whole(DefaultNumeric(), String("3.5"))
	assert.False(t, ok)
}

func TestCaseFolding(t *testing.T) {
	assert.Equal(t, "ABC", Upper("abc"))
	assert.Equal(t, "ÉTÉ", Upper("été"))
	assert.Equal(t, "àb", Lower("ÀB"))
}

func TestStem(t *testing.T) {
	s := NewStem("A.")
	_, ok := s.Get("1")
	assert.False(t, ok)
	assert.Equal(t, "A.", s.String())

	s.SetDefault(String("x"))
	v, ok := s.Get("9")
	assert.True(t, ok)
	assert.Equal(t, "x", v.String())

	s.Set("X", String("d"))
	s.Set("10", String("c"))
	s.Set("2", String("b"))
	assert.Equal(t, []string{"2", "10", "X"}, s.Tails())

	s.Drop("10")
	assert.Equal(t, []string{"2", "X"}, s.Tails())

	s.Reset()
	assert.Empty(t, s.Tails())
	assert.Nil(t, s.Default())
}

func TestArray(t *testing.T) {
	a := NewArray(String("a"))
	a.Put(String("c"), 3)
	assert.Equal(t, 3, a.Len())
	assert.Nil(t, a.At(2))
	assert.Equal(t, []Value{String("a"), String("c")}, a.OverItems())

	ctx := DefaultNumeric()
	v, err := a.Send(ctx, "ITEMS", nil)
	require.NoError(t, err)
	assert.Equal(t, "2", v.String())

	v, err = a.Send(ctx, "AT", []Value{Int(3)})
	require.NoError(t, err)
	assert.Equal(t, "c", v.String())

	v, err = a.Send(ctx, "[]", []Value{Int(2)})
	require.NoError(t, err)
	assert.Equal(t, Nil, v)

	_, err = a.Send(ctx, "AT", []Value{String("0")})
	assert.Equal(t, diag.InvalidWhole, errCode(t, err))

	idx, items := a.Snapshot()
	assert.Equal(t, []Value{String("1"), String("3")}, idx)
	assert.Equal(t, []Value{String("a"), String("c")}, items)
}

func TestDirectory(t *testing.T) {
	d := NewDirectory()
	d.Put(String("one"), "A")
	d.Put(String("two"), "B")
	assert.Equal(t, "one", d.At("A").String())
	assert.Nil(t, d.At("C"))

	removed := d.Remove("A")
	assert.Equal(t, "one", removed.String())
	assert.Nil(t, d.At("A"))
}
