// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package parser

import (
	"github.com/probechain/probe-rexx/lang/ast"
	"github.com/probechain/probe-rexx/lang/diag"
	"github.com/probechain/probe-rexx/lang/token"
)

// maxEnvironment is the longest accepted environment name.
const maxEnvironment = 250

// ADDRESS
// ADDRESS env [command] [WITH redirections]
// ADDRESS VALUE expr | ADDRESS (expr)
func (p *Parser) parseAddress() {
	start := p.next()
	addr := &ast.Address{}
	t := p.tok()
	switch {
	case t.IsEnd():
		// swap environments

	case p.keywordAt(token.KVALUE):
		p.next()
		addr.Dynamic = p.expression(token.KWITH)

	case t.Type == token.LPAREN:
		addr.Dynamic = p.expression(token.KWITH)

	case t.Type == token.SYMBOL || t.Type == token.LITERAL:
		p.next()
		if len(t.Value) > maxEnvironment {
			p.errorf(diag.EnvironmentLong, t, t.Value)
		}
		addr.Environment = t.Value
		addr.Command = p.optExpression(token.KWITH)

	default:
		p.errorf(diag.SymbolExpected, t, "ADDRESS")
	}
	if p.isKeyword(token.KWITH) {
		if addr.Environment == "" && addr.Dynamic == nil {
			p.errorf(diag.SymbolExpected, p.tok(), "ADDRESS")
		}
		p.next()
		addr.With = p.redirections()
	}
	p.endInstruction(ast.KindAddress, start, addr)
}

// redirections parses
//
//	INPUT  [NORMAL] (STEM s. | STREAM expr | USING expr)
//	OUTPUT [REPLACE|APPEND] (STEM s. | STREAM expr | USING expr)
//	ERROR  [REPLACE|APPEND] (STEM s. | STREAM expr | USING expr)
//
// in any order, each stream at most once.
func (p *Parser) redirections() []ast.Redirect {
	var list []ast.Redirect
	seen := make(map[ast.Stream]bool)
	for !p.atEnd() {
		t := p.tok()
		var r ast.Redirect
		switch p.subKeyword() {
		case token.KINPUT:
			r.Stream = ast.StreamInput
		case token.KOUTPUT:
			r.Stream = ast.StreamOutput
		case token.KERROR:
			r.Stream = ast.StreamError
		default:
			p.errorf(diag.AddressWithKeyword, t, t.String())
		}
		if seen[r.Stream] {
			p.errorf(diag.AddressWithKeyword, t, t.String())
		}
		seen[r.Stream] = true
		p.next()

		switch kw := p.subKeyword(); {
		case kw == token.KNORMAL && r.Stream == ast.StreamInput:
			p.next()
		case (kw == token.KAPPEND || kw == token.KREPLACE) && r.Stream != ast.StreamInput:
			r.Append = kw == token.KAPPEND
			p.next()
		}

		src := p.tok()
		switch p.subKeyword() {
		case token.KSTEM:
			p.next()
			s := p.tok()
			if s.Type != token.SYMBOL || s.Sub != token.STEM {
				p.errorf(diag.NotAStem, s, s.String())
			}
			p.next()
			r.Kind = ast.SourceStem
			r.Target = &ast.StemVar{Name: s.Value}
		case token.KSTREAM:
			p.next()
			r.Kind = ast.SourceStream
			r.Target = p.expression(token.KINPUT, token.KOUTPUT, token.KERROR)
		case token.KUSING:
			p.next()
			r.Kind = ast.SourceUsing
			r.Target = p.expression(token.KINPUT, token.KOUTPUT, token.KERROR)
		default:
			p.errorf(diag.AddressWithKeyword, src, src.String())
		}
		list = append(list, r)
	}
	return list
}
