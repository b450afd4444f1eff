// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package token defines the classified lexical tokens consumed by the clause
// parser.
//
// A token carries a class (symbol, literal, operator, punctuation, clause
// boundary), a subclass refining the class (symbol kind, literal kind or the
// operator identity) and the source position where it starts.
package token

import "fmt"

// Token represents a lexical token.
type Token struct {
	Type    Type
	Sub     Sub      // symbol or literal subclass
	Op      Operator // operator identity for OPERATOR and ASSIGN tokens
	Value   string   // upper-cased symbol name or decoded literal text
	Literal string   // raw source text
	Pos     Position
	Blank   bool // whitespace preceded the token on the same clause
}

// Position tracks source location.
type Position struct {
	File   string
	Line   int
	Column int
	Offset int
}

func (p Position) String() string {
	if p.File != "" {
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Type is the set of lexical token classes.
type Type int

const (
	// Special tokens
	ILLEGAL Type = iota
	EOF
	EOC // end of clause: ';' or end of line

	// Terms
	SYMBOL
	LITERAL

	// Operators
	OPERATOR // + - * / % // ** || = \= == > < ... & | && \
	ASSIGN   // += -= *= /= %= //= **= ||= &= |= &&=

	// Delimiters
	LPAREN     // (
	RPAREN     // )
	LBRACKET   // [
	RBRACKET   // ]
	COMMA      // ,
	COLON      // :
	COLONCOLON // ::
	TWIDDLE    // ~
	DTWIDDLE   // ~~
	ELLIPSIS   // ...
)

var typeNames = [...]string{
	ILLEGAL: "ILLEGAL",
	EOF:     "EOF",
	EOC:     "EOC",

	SYMBOL:  "SYMBOL",
	LITERAL: "LITERAL",

	OPERATOR: "OPERATOR",
	ASSIGN:   "ASSIGN",

	LPAREN:     "(",
	RPAREN:     ")",
	LBRACKET:   "[",
	RBRACKET:   "]",
	COMMA:      ",",
	COLON:      ":",
	COLONCOLON: "::",
	TWIDDLE:    "~",
	DTWIDDLE:   "~~",
	ELLIPSIS:   "...",
}

// String returns the string form of a token type.
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("token(%d)", t)
}

// Sub refines SYMBOL and LITERAL tokens.
type Sub int

const (
	NONE Sub = iota

	// Symbol subclasses
	VARIABLE    // abc
	STEM        // abc.
	COMPOUND    // abc.def
	NUMBER      // 12, 1.5E3
	CONSTANT    // 12abc, .5x
	ENVIRONMENT // .nil, .array
	DUMMY       // .

	// Literal subclasses
	STRING // 'abc'
	HEX    // '41'x
	BINARY // '0100 0001'b
)

var subNames = [...]string{
	NONE:        "",
	VARIABLE:    "variable",
	STEM:        "stem",
	COMPOUND:    "compound",
	NUMBER:      "number",
	CONSTANT:    "constant",
	ENVIRONMENT: "environment",
	DUMMY:       "dummy",
	STRING:      "string",
	HEX:         "hex",
	BINARY:      "binary",
}

func (s Sub) String() string {
	if int(s) < len(subNames) {
		return subNames[s]
	}
	return fmt.Sprintf("sub(%d)", s)
}

// IsVariable reports whether the symbol subclass names an assignable variable.
func (s Sub) IsVariable() bool {
	return s == VARIABLE || s == STEM || s == COMPOUND
}

// IsConstant reports whether the symbol subclass is a constant symbol.
func (s Sub) IsConstant() bool {
	return s == NUMBER || s == CONSTANT || s == DUMMY
}

// Is reports whether the token is of type t.
func (t Token) Is(typ Type) bool { return t.Type == typ }

// IsSymbol reports whether the token is the symbol named name (upper case).
func (t Token) IsSymbol(name string) bool {
	return t.Type == SYMBOL && t.Value == name
}

// IsOp reports whether the token is the operator op.
func (t Token) IsOp(op Operator) bool {
	return t.Type == OPERATOR && t.Op == op
}

// IsEnd reports whether the token terminates a clause.
func (t Token) IsEnd() bool {
	return t.Type == EOC || t.Type == EOF
}

// IsTerm reports whether the token can begin an expression term.
func (t Token) IsTerm() bool {
	switch t.Type {
	case SYMBOL, LITERAL, LPAREN:
		return true
	}
	return false
}

func (t Token) String() string {
	switch t.Type {
	case SYMBOL, LITERAL:
		return t.Literal
	case OPERATOR, ASSIGN:
		return t.Literal
	case EOC, EOF:
		return t.Type.String()
	}
	return t.Type.String()
}
