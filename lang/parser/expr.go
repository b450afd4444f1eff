// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package parser

import (
	"strconv"
	"strings"

	"github.com/probechain/probe-rexx/lang/ast"
	"github.com/probechain/probe-rexx/lang/diag"
	"github.com/probechain/probe-rexx/lang/lexer"
	"github.com/probechain/probe-rexx/lang/token"
)

// expression parses an expression that runs to the end of the clause or to
// one of the stop keywords. An empty expression is an error.
func (p *Parser) expression(stops ...token.Keyword) ast.Expr {
	e := p.optExpression(stops...)
	if e == nil {
		p.errorf(diag.InvalidExpression, p.tok(), p.tok().String())
	}
	return e
}

// optExpression is expression for places where the expression may be
// omitted; it returns nil when no term starts at the cursor.
func (p *Parser) optExpression(stops ...token.Keyword) ast.Expr {
	saved := p.stops
	p.stops = stops
	defer func() { p.stops = saved }()

	if !p.startsExpression() {
		return nil
	}
	return p.parseBinary(1)
}

// nested parses a sub-expression inside parentheses or an argument list,
// where keywords never end the expression.
func (p *Parser) nested() ast.Expr {
	saved := p.stops
	p.stops = nil
	defer func() { p.stops = saved }()

	if !p.startsExpression() {
		return nil
	}
	return p.parseBinary(1)
}

func (p *Parser) startsExpression() bool {
	t := p.tok()
	if p.isStop(t) {
		return false
	}
	if t.IsTerm() {
		return true
	}
	return t.Type == token.OPERATOR && t.Op.IsPrefix()
}

// isStop reports whether t is a keyword ending the current expression.
func (p *Parser) isStop(t token.Token) bool {
	if len(p.stops) == 0 {
		return false
	}
	kw := token.LookupSubKeyword(t)
	if kw == token.NOKEYWORD {
		return false
	}
	for _, s := range p.stops {
		if s == kw {
			return true
		}
	}
	return false
}

// parseBinary parses operators of at least precedence prec. All operators,
// power included, associate to the left.
func (p *Parser) parseBinary(prec int) ast.Expr {
	left := p.parseUnary()
	for {
		op, implicit, ok := p.infixOperator()
		if !ok || op.Precedence() < prec {
			return left
		}
		if !implicit {
			p.next()
		}
		right := p.parseBinary(op.Precedence() + 1)
		left = &ast.Binary{Op: op, Left: left, Right: right}
	}
}

// infixOperator returns the operator at the cursor. Two terms next to each
// other are joined by an implicit blank or abuttal concatenation.
func (p *Parser) infixOperator() (op token.Operator, implicit, ok bool) {
	t := p.tok()
	switch {
	case t.Type == token.OPERATOR:
		if t.Op == token.NOT {
			p.errorf(diag.InvalidExpression, t, t.String())
		}
		return t.Op, false, true
	case t.IsTerm():
		if p.isStop(t) {
			return token.NOOP, false, false
		}
		if t.Blank {
			return token.BLANK, true, true
		}
		return token.ABUTTAL, true, true
	}
	return token.NOOP, false, false
}

func (p *Parser) parseUnary() ast.Expr {
	t := p.tok()
	if t.Type == token.OPERATOR && t.Op.IsPrefix() {
		p.next()
		return &ast.Unary{Op: t.Op, Operand: p.parseUnary()}
	}
	return p.parseTerm()
}

// parseTerm parses a primary followed by any message sends and index
// brackets.
func (p *Parser) parseTerm() ast.Expr {
	e := p.parsePrimary()
	for {
		t := p.tok()
		switch {
		case t.Type == token.TWIDDLE || t.Type == token.DTWIDDLE:
			p.next()
			e = p.parseMessage(e, t.Type == token.DTWIDDLE)
		case t.Type == token.LBRACKET && !t.Blank:
			p.next()
			args := p.argList(token.RBRACKET)
			e = &ast.Send{Target: e, Name: "[]", Args: args}
		default:
			return e
		}
	}
}

func (p *Parser) parseMessage(target ast.Expr, cascade bool) ast.Expr {
	t := p.tok()
	var name string
	switch t.Type {
	case token.SYMBOL:
		name = t.Value
	case token.LITERAL:
		name = strings.ToUpper(t.Value)
	default:
		p.errorf(diag.SymbolExpected, t, "~")
	}
	p.next()
	send := &ast.Send{Target: target, Name: name, Cascade: cascade}
	if n := p.tok(); n.Type == token.LPAREN && !n.Blank {
		p.next()
		send.Args = p.argList(token.RPAREN)
	}
	return send
}

func (p *Parser) parsePrimary() ast.Expr {
	t := p.tok()
	switch t.Type {
	case token.LITERAL:
		p.next()
		if n := p.tok(); n.Type == token.LPAREN && !n.Blank {
			p.next()
			return &ast.FuncCall{Name: t.Value, Quoted: true, Args: p.argList(token.RPAREN)}
		}
		return &ast.Literal{Value: t.Value}

	case token.SYMBOL:
		p.next()
		if n := p.tok(); n.Type == token.LPAREN && !n.Blank {
			p.next()
			return &ast.FuncCall{Name: t.Value, Args: p.argList(token.RPAREN)}
		}
		// ns:name(...)
		if t.Sub == token.VARIABLE && p.tok().Type == token.COLON && !p.tok().Blank {
			name, paren := p.peekN(1), p.peekN(2)
			if name.Type == token.SYMBOL && !name.Blank && paren.Type == token.LPAREN && !paren.Blank {
				p.next()
				p.next()
				p.next()
				return &ast.FuncCall{Name: name.Value, Namespace: t.Value, Args: p.argList(token.RPAREN)}
			}
		}
		return symbolExpr(t, p)

	case token.LPAREN:
		p.next()
		inner := p.nested()
		if inner == nil {
			p.errorf(diag.InvalidExpression, p.tok(), p.tok().String())
		}
		switch c := p.tok(); c.Type {
		case token.RPAREN:
			p.next()
		case token.COMMA:
			p.errorf(diag.UnexpectedComma, c)
		default:
			p.errorf(diag.UnmatchedParen, t, strconv.Itoa(t.Pos.Column), strconv.Itoa(t.Pos.Line))
		}
		return &ast.Paren{Inner: inner}

	case token.RPAREN:
		p.errorf(diag.UnexpectedParen, t)
	case token.COMMA:
		p.errorf(diag.UnexpectedComma, t)
	}
	p.errorf(diag.InvalidExpression, t, t.String())
	return nil
}

// argList parses comma-separated arguments up to the closing delimiter. An
// omitted argument is nil. ">name" and "<name" pass a variable by
// reference.
func (p *Parser) argList(closer token.Type) []ast.Expr {
	open := p.previous()
	args := []ast.Expr{}
	if p.tok().Type == closer {
		p.next()
		return args
	}
	for {
		var arg ast.Expr
		if ref := p.refArg(); ref != nil {
			arg = ref
		} else {
			arg = p.nested()
		}
		args = append(args, arg)
		switch t := p.tok(); t.Type {
		case token.COMMA:
			p.next()
		case closer:
			p.next()
			return args
		case token.EOC, token.EOF:
			p.errorf(diag.UnmatchedParen, open, strconv.Itoa(open.Pos.Column), strconv.Itoa(open.Pos.Line))
		default:
			p.errorf(diag.InvalidExpression, t, t.String())
		}
	}
}

// refArg recognises ">name" or "<name" standing alone as an argument.
func (p *Parser) refArg() ast.Expr {
	t := p.tok()
	if !t.IsOp(token.GREATER) && !t.IsOp(token.LESS) {
		return nil
	}
	name, after := p.peekN(1), p.peekN(2)
	if name.Type != token.SYMBOL || (name.Sub != token.VARIABLE && name.Sub != token.STEM) {
		return nil
	}
	if after.Type != token.COMMA && after.Type != token.RPAREN && !after.IsEnd() {
		return nil
	}
	p.next()
	p.next()
	return &ast.RefArg{Name: name.Value, Stem: name.Sub == token.STEM, In: t.IsOp(token.LESS)}
}

// symbolExpr converts a symbol token to its expression node.
func symbolExpr(t token.Token, p *Parser) ast.Expr {
	switch t.Sub {
	case token.VARIABLE, token.STEM, token.COMPOUND:
		return symbolTarget(t)
	case token.ENVIRONMENT:
		return &ast.Environment{Name: t.Value}
	case token.NUMBER, token.CONSTANT:
		return &ast.Literal{Value: t.Value, Symbol: true}
	}
	p.errorf(diag.InvalidExpression, t, t.String())
	return nil
}

// symbolTarget converts a variable symbol to a Var, StemVar or Compound.
func symbolTarget(t token.Token) ast.Target {
	switch t.Sub {
	case token.STEM:
		return &ast.StemVar{Name: t.Value}
	case token.COMPOUND:
		return splitCompound(t.Value)
	}
	return &ast.Var{Name: t.Value}
}

// splitCompound splits "A.I.3" into the stem "A." and its tail parts.
func splitCompound(name string) *ast.Compound {
	dot := strings.IndexByte(name, '.')
	c := &ast.Compound{Stem: name[:dot+1]}
	for _, part := range strings.Split(name[dot+1:], ".") {
		constant := part == "" || lexer.Classify(part) != token.VARIABLE
		c.Tails = append(c.Tails, ast.Tail{Name: part, Constant: constant})
	}
	return c
}
