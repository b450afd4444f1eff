// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package ast

import (
	"strings"

	"github.com/probechain/probe-rexx/lang/token"
)

// Expr is an expression tree node. Every node is owned by exactly one
// instruction; use CopyExpr when the same expression is needed twice.
type Expr interface {
	expr()
	String() string
}

// Target is an expression that can be assigned to.
type Target interface {
	Expr
	target()
}

// Literal is a string literal or a constant symbol.
type Literal struct {
	Value  string
	Symbol bool // written as a constant symbol rather than a quoted string
}

// Var is a simple variable.
type Var struct {
	Name string
}

// StemVar is a stem variable such as "A.".
type StemVar struct {
	Name string
}

// Tail is one period-separated part of a compound symbol tail. Constant
// parts are used as written; variable parts are replaced by their value.
type Tail struct {
	Name     string
	Constant bool
}

// Compound is a compound variable such as "A.I.J".
type Compound struct {
	Stem  string
	Tails []Tail
}

// Environment is a dot symbol such as .nil.
type Environment struct {
	Name string
}

// Unary is a prefix operator term.
type Unary struct {
	Op      token.Operator
	Operand Expr
}

// Binary is an infix operator term.
type Binary struct {
	Op    token.Operator
	Left  Expr
	Right Expr
}

// FuncCall is a function invocation. A nil argument is an omitted one.
type FuncCall struct {
	Name      string
	Namespace string
	Quoted    bool // name written as a literal: internal labels are skipped
	Args      []Expr
}

// Send is a message term: target~name(args), target~~name(args) or
// target[args].
type Send struct {
	Target  Expr
	Name    string
	Args    []Expr
	Cascade bool
}

// Paren is a parenthesised sub-expression.
type Paren struct {
	Inner Expr
}

// RefArg passes a variable by reference in an argument list (>name or
// <name).
type RefArg struct {
	Name string
	Stem bool
	In   bool // written as <name
}

func (*Literal) expr()     {}
func (*Var) expr()         {}
func (*StemVar) expr()     {}
func (*Compound) expr()    {}
func (*Environment) expr() {}
func (*Unary) expr()       {}
func (*Binary) expr()      {}
func (*FuncCall) expr()    {}
func (*Send) expr()        {}
func (*Paren) expr()       {}
func (*RefArg) expr()      {}

func (*Var) target()      {}
func (*StemVar) target()  {}
func (*Compound) target() {}

func (e *Literal) String() string {
	if e.Symbol {
		return e.Value
	}
	return "\"" + strings.ReplaceAll(e.Value, "\"", "\"\"") + "\""
}

func (e *Var) String() string         { return e.Name }
func (e *StemVar) String() string     { return e.Name }
func (e *Environment) String() string { return e.Name }
func (e *Paren) String() string       { return "(" + e.Inner.String() + ")" }

func (e *Compound) String() string {
	var b strings.Builder
	b.WriteString(e.Stem)
	for i, t := range e.Tails {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(t.Name)
	}
	return b.String()
}

func (e *Unary) String() string { return e.Op.String() + e.Operand.String() }

func (e *Binary) String() string {
	switch e.Op {
	case token.ABUTTAL:
		return e.Left.String() + e.Right.String()
	case token.BLANK:
		return e.Left.String() + " " + e.Right.String()
	}
	return e.Left.String() + " " + e.Op.String() + " " + e.Right.String()
}

func (e *FuncCall) String() string {
	name := e.Name
	if e.Quoted {
		name = "\"" + name + "\""
	}
	if e.Namespace != "" {
		name = e.Namespace + ":" + name
	}
	return name + "(" + exprList(e.Args) + ")"
}

func (e *Send) String() string {
	if e.Name == "[]" {
		return e.Target.String() + "[" + exprList(e.Args) + "]"
	}
	sep := "~"
	if e.Cascade {
		sep = "~~"
	}
	s := e.Target.String() + sep + e.Name
	if len(e.Args) > 0 {
		s += "(" + exprList(e.Args) + ")"
	}
	return s
}

func (e *RefArg) String() string {
	if e.In {
		return "<" + e.Name
	}
	return ">" + e.Name
}

func exprList(list []Expr) string {
	parts := make([]string, len(list))
	for i, e := range list {
		if e != nil {
			parts[i] = e.String()
		}
	}
	return strings.Join(parts, ",")
}

// CopyExpr returns a deep copy of e.
func CopyExpr(e Expr) Expr {
	switch e := e.(type) {
	case nil:
		return nil
	case *Literal:
		c := *e
		return &c
	case *Var:
		c := *e
		return &c
	case *StemVar:
		c := *e
		return &c
	case *Compound:
		return &Compound{Stem: e.Stem, Tails: append([]Tail(nil), e.Tails...)}
	case *Environment:
		c := *e
		return &c
	case *Unary:
		return &Unary{Op: e.Op, Operand: CopyExpr(e.Operand)}
	case *Binary:
		return &Binary{Op: e.Op, Left: CopyExpr(e.Left), Right: CopyExpr(e.Right)}
	case *FuncCall:
		return &FuncCall{Name: e.Name, Namespace: e.Namespace, Quoted: e.Quoted, Args: copyList(e.Args)}
	case *Send:
		return &Send{Target: CopyExpr(e.Target), Name: e.Name, Args: copyList(e.Args), Cascade: e.Cascade}
	case *Paren:
		return &Paren{Inner: CopyExpr(e.Inner)}
	case *RefArg:
		c := *e
		return &c
	}
	panic("ast: unknown expression type")
}

func copyList(list []Expr) []Expr {
	if list == nil {
		return nil
	}
	out := make([]Expr, len(list))
	for i, e := range list {
		out[i] = CopyExpr(e)
	}
	return out
}
