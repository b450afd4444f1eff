// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package lexer_test

import (
	"errors"
	"testing"

	"github.com/probechain/probe-rexx/lang/diag"
	"github.com/probechain/probe-rexx/lang/lexer"
	"github.com/probechain/probe-rexx/lang/token"
)

// tokenCase is a single expected token in a table-driven test.
type tokenCase struct {
	typ   token.Type
	value string
}

// runTokenize lexes input and checks that it produces exactly the expected
// sequence, excluding the final EOC and EOF.
func runTokenize(t *testing.T, name, input string, want []tokenCase) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		t.Helper()
		toks, err := lexer.Tokenize("test.rex", input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n := len(toks); n < 2 || toks[n-1].Type != token.EOF || toks[n-2].Type != token.EOC {
			t.Fatalf("token list does not end with EOC EOF: %v", toks)
		}
		body := toks[:len(toks)-2]
		if len(body) != len(want) {
			t.Errorf("got %d tokens, want %d", len(body), len(want))
			for i, tok := range body {
				t.Logf("  [%d] %s %q", i, tok.Type, tok.Value)
			}
			return
		}
		for i, w := range want {
			got := body[i]
			if got.Type != w.typ {
				t.Errorf("token[%d]: type = %s, want %s", i, got.Type, w.typ)
			}
			if w.value != "" && got.Value != w.value && got.Literal != w.value {
				t.Errorf("token[%d]: value = %q (literal %q), want %q", i, got.Value, got.Literal, w.value)
			}
		}
	})
}

func TestClauses(t *testing.T) {
	runTokenize(t, "semicolon", "a = 1; say a", []tokenCase{
		{token.SYMBOL, "A"}, {token.OPERATOR, "="}, {token.SYMBOL, "1"}, {token.EOC, ""},
		{token.SYMBOL, "SAY"}, {token.SYMBOL, "A"},
	})
	runTokenize(t, "empty clauses collapse", "\n\n;;say 1\n\n", []tokenCase{
		{token.SYMBOL, "SAY"}, {token.SYMBOL, "1"},
	})
	runTokenize(t, "continuation", "say 1,\n  2", []tokenCase{
		{token.SYMBOL, "SAY"}, {token.SYMBOL, "1"}, {token.SYMBOL, "2"},
	})
	runTokenize(t, "continuation before comment", "say 1, /* more */\n 2", []tokenCase{
		{token.SYMBOL, "SAY"}, {token.SYMBOL, "1"}, {token.SYMBOL, "2"},
	})
	runTokenize(t, "comma in list", "call f 1, 2", []tokenCase{
		{token.SYMBOL, "CALL"}, {token.SYMBOL, "F"}, {token.SYMBOL, "1"}, {token.COMMA, ","}, {token.SYMBOL, "2"},
	})
}

func TestComments(t *testing.T) {
	runTokenize(t, "block", "say /* a /* nested */ comment */ 1", []tokenCase{
		{token.SYMBOL, "SAY"}, {token.SYMBOL, "1"},
	})
	runTokenize(t, "line", "say 1 -- trailing\nsay 2", []tokenCase{
		{token.SYMBOL, "SAY"}, {token.SYMBOL, "1"}, {token.EOC, ""}, {token.SYMBOL, "SAY"}, {token.SYMBOL, "2"},
	})
	runTokenize(t, "multi-line block", "/* one\ntwo */ say 1", []tokenCase{
		{token.SYMBOL, "SAY"}, {token.SYMBOL, "1"},
	})
}

func TestSymbolClasses(t *testing.T) {
	cases := []struct {
		text string
		sub  token.Sub
	}{
		{"abc", token.VARIABLE},
		{"abc.", token.STEM},
		{"abc.def.1", token.COMPOUND},
		{"12", token.NUMBER},
		{"1.5E3", token.NUMBER},
		{".5", token.NUMBER},
		{"12abc", token.CONSTANT},
		{".nil", token.ENVIRONMENT},
		{".", token.DUMMY},
	}
	for _, c := range cases {
		if got := lexer.Classify(c.text); got != c.sub {
			t.Errorf("Classify(%q) = %s, want %s", c.text, got, c.sub)
		}
	}
}

func TestSignedExponent(t *testing.T) {
	runTokenize(t, "exponent", "x = 1.5e+3 + 2", []tokenCase{
		{token.SYMBOL, "X"}, {token.OPERATOR, "="}, {token.SYMBOL, "1.5E+3"},
		{token.OPERATOR, "+"}, {token.SYMBOL, "2"},
	})
	runTokenize(t, "not a mantissa", "x = a+3", []tokenCase{
		{token.SYMBOL, "X"}, {token.OPERATOR, "="}, {token.SYMBOL, "A"},
		{token.OPERATOR, "+"}, {token.SYMBOL, "3"},
	})
}

func TestIsNumber(t *testing.T) {
	for _, s := range []string{"0", "12", "1.", ".5", "1.5E3", "1e-2"} {
		if !lexer.IsNumber(s) {
			t.Errorf("IsNumber(%q) = false", s)
		}
	}
	for _, s := range []string{"", ".", "e3", "1e", "1.2.3", "12a"} {
		if lexer.IsNumber(s) {
			t.Errorf("IsNumber(%q) = true", s)
		}
	}
}

func TestLiterals(t *testing.T) {
	cases := []struct {
		input string
		sub   token.Sub
		value string
	}{
		{`'abc'`, token.STRING, "abc"},
		{`"it""s"`, token.STRING, `it"s`},
		{`'don''t'`, token.STRING, "don't"},
		{`'41 42'x`, token.HEX, "AB"},
		{`'0100 0001'b`, token.BINARY, "A"},
		{`''`, token.STRING, ""},
	}
	for _, c := range cases {
		toks, err := lexer.Tokenize("test.rex", c.input)
		if err != nil {
			t.Errorf("%s: unexpected error %v", c.input, err)
			continue
		}
		tok := toks[0]
		if tok.Type != token.LITERAL || tok.Sub != c.sub || tok.Value != c.value {
			t.Errorf("%s: got %s %s %q, want literal %s %q", c.input, tok.Type, tok.Sub, tok.Value, c.sub, c.value)
		}
		if tok.Literal != c.input {
			t.Errorf("%s: raw text %q", c.input, tok.Literal)
		}
	}
}

func TestOperators(t *testing.T) {
	cases := []struct {
		input string
		typ   token.Type
		op    token.Operator
	}{
		{"//", token.OPERATOR, token.REMAINDER},
		{"**", token.OPERATOR, token.POWER},
		{"\\==", token.OPERATOR, token.STRICTNOTEQUAL},
		{">>=", token.OPERATOR, token.STRICTGREATEREQ},
		{"<>", token.OPERATOR, token.LESSGREATER},
		{"&&", token.OPERATOR, token.XOR},
		{"+=", token.ASSIGN, token.PLUS},
		{"||=", token.ASSIGN, token.CONCAT},
		{"//=", token.ASSIGN, token.REMAINDER},
	}
	for _, c := range cases {
		toks, err := lexer.Tokenize("test.rex", "a "+c.input+" b")
		if err != nil {
			t.Errorf("%s: unexpected error %v", c.input, err)
			continue
		}
		tok := toks[1]
		if tok.Type != c.typ || tok.Op != c.op {
			t.Errorf("%s: got %s %s, want %s %s", c.input, tok.Type, tok.Op, c.typ, c.op)
		}
	}
}

func TestBlankFlag(t *testing.T) {
	toks, err := lexer.Tokenize("test.rex", "say a b'c'(d)")
	if err != nil {
		t.Fatal(err)
	}
	want := []bool{false, true, true, false, false}
	for i, w := range want {
		if toks[i].Blank != w {
			t.Errorf("token[%d] %q: blank = %v, want %v", i, toks[i].Literal, toks[i].Blank, w)
		}
	}
}

func TestPositions(t *testing.T) {
	toks, err := lexer.Tokenize("pos.rex", "a = 1\n  say a")
	if err != nil {
		t.Fatal(err)
	}
	say := toks[4]
	if !say.IsSymbol("SAY") {
		t.Fatalf("token[4] = %q, want SAY", say.Value)
	}
	if say.Pos.Line != 2 || say.Pos.Column != 3 || say.Pos.File != "pos.rex" {
		t.Errorf("SAY at %s, want pos.rex:2:3", say.Pos)
	}
}

func TestErrors(t *testing.T) {
	cases := []struct {
		input string
		code  diag.Code
	}{
		{"say 'abc", diag.UnmatchedQuoteSingle},
		{`say "abc`, diag.UnmatchedQuoteDouble},
		{"say /* open", diag.UnmatchedComment},
		{"say 'zz'x", diag.InvalidHex},
		{"say '012'b", diag.InvalidBinary},
		{"say 'a'b", diag.InvalidBinary},
		{"say #", diag.InvalidCharacter},
	}
	for _, c := range cases {
		_, err := lexer.Tokenize("test.rex", c.input)
		var derr *diag.Error
		if !errors.As(err, &derr) {
			t.Errorf("%s: want *diag.Error, got %v", c.input, err)
			continue
		}
		if derr.Code != c.code {
			t.Errorf("%s: code = %s, want %s", c.input, derr.Code, c.code)
		}
	}
}
