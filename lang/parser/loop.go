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

// keywords ending the expressions of a controlled loop
var controlStops = []token.Keyword{token.KTO, token.KBY, token.KFOR, token.KWHILE, token.KUNTIL}

// DO and LOOP:
//
//	DO [LABEL name] [COUNTER c] [repetitor] [WHILE expr | UNTIL expr]
//
// where the repetitor is FOREVER, a count expression, "v = start [TO t]
// [BY b] [FOR f]", "v OVER coll [FOR f]" or "WITH [INDEX i] [ITEM v] OVER
// supplier [FOR f]". LABEL and COUNTER may come in either order.
func (p *Parser) parseDo() {
	start := p.next()
	loop := &ast.Loop{Keyword: start.Value, Kind: ast.LoopSimple, End: ast.NoIndex}
	if start.Value == "LOOP" {
		loop.Kind = ast.LoopForever
	}
	p.loopOptions(loop)
	p.loopRepetitor(loop)
	p.loopCondition(loop)

	loc := p.location(start)
	p.endClause()
	idx := p.add(ast.KindDo, loc, loop)
	p.push(control{kind: ctlDo, inst: idx, owner: ast.NoIndex})
}

func (p *Parser) loopOptions(loop *ast.Loop) {
	for {
		t := p.tok()
		switch {
		case p.keywordAt(token.KLABEL):
			if loop.Label != "" {
				p.errorf(diag.InvalidDo, t, "LABEL")
			}
			p.next()
			loop.Label = p.labelName("LABEL")
		case p.keywordAt(token.KCOUNTER):
			if loop.Counter != nil {
				p.errorf(diag.InvalidDo, t, "COUNTER")
			}
			p.next()
			loop.Counter = p.assignTarget()
		default:
			return
		}
	}
}

func (p *Parser) loopRepetitor(loop *ast.Loop) {
	t, after := p.tok(), p.peekN(1)
	switch {
	case t.IsEnd():
		return
	case p.keywordAt(token.KWHILE), p.keywordAt(token.KUNTIL):
		loop.Kind = ast.LoopForever
	case p.keywordAt(token.KFOREVER):
		p.next()
		loop.Kind = ast.LoopForever
	case p.keywordAt(token.KWITH) && (token.LookupSubKeyword(after) == token.KINDEX || token.LookupSubKeyword(after) == token.KITEM):
		p.next()
		p.loopWith(loop)
	case t.Type == token.SYMBOL && after.IsOp(token.STRICTEQUAL):
		p.errorf(diag.InvalidDoStrict, after, after.Literal)
	case t.Type == token.SYMBOL && after.IsOp(token.EQUAL):
		p.loopControlled(loop)
	case t.Type == token.SYMBOL && t.Sub.IsVariable() && token.LookupSubKeyword(after) == token.KOVER:
		loop.Kind = ast.LoopOver
		loop.Control = p.assignTarget()
		p.next() // OVER
		loop.Over = p.expression(token.KFOR, token.KWHILE, token.KUNTIL)
		p.loopFor(loop)
	default:
		loop.Kind = ast.LoopCount
		loop.Count = p.expression(token.KWHILE, token.KUNTIL)
	}
}

// v = start [TO t] [BY b] [FOR f], the three phrases in any order and each
// at most once.
func (p *Parser) loopControlled(loop *ast.Loop) {
	loop.Kind = ast.LoopControlled
	loop.Control = p.assignTarget()
	p.next() // =
	loop.Initial = p.expression(controlStops...)
	for {
		t := p.tok()
		var part ast.ControlPart
		switch p.subKeyword() {
		case token.KTO:
			part = ast.PartTo
		case token.KBY:
			part = ast.PartBy
		case token.KFOR:
			part = ast.PartFor
		default:
			return
		}
		for _, seen := range loop.Order {
			if seen == part {
				p.errorf(diag.InvalidDo, t, t.Value)
			}
		}
		p.next()
		e := p.expression(controlStops...)
		switch part {
		case ast.PartTo:
			loop.To = e
		case ast.PartBy:
			loop.By = e
		case ast.PartFor:
			loop.For = e
		}
		loop.Order = append(loop.Order, part)
	}
}

// WITH [INDEX i] [ITEM v] OVER supplier [FOR f]; INDEX and ITEM in either
// order, at least one of them.
func (p *Parser) loopWith(loop *ast.Loop) {
	loop.Kind = ast.LoopWith
	for {
		t := p.tok()
		switch p.subKeyword() {
		case token.KINDEX:
			if loop.Index != nil {
				p.errorf(diag.InvalidDo, t, "INDEX")
			}
			p.next()
			loop.Index = p.assignTarget()
			continue
		case token.KITEM:
			if loop.Item != nil {
				p.errorf(diag.InvalidDo, t, "ITEM")
			}
			p.next()
			loop.Item = p.assignTarget()
			continue
		}
		break
	}
	if !p.isKeyword(token.KOVER) {
		p.errorf(diag.InvalidDo, p.tok(), "WITH")
	}
	p.next()
	loop.Over = p.expression(token.KFOR, token.KWHILE, token.KUNTIL)
	p.loopFor(loop)
}

func (p *Parser) loopFor(loop *ast.Loop) {
	if p.isKeyword(token.KFOR) {
		p.next()
		loop.For = p.expression(token.KWHILE, token.KUNTIL)
		loop.Order = append(loop.Order, ast.PartFor)
	}
}

// WHILE expr or UNTIL expr; the two are mutually exclusive.
func (p *Parser) loopCondition(loop *ast.Loop) {
	switch p.subKeyword() {
	case token.KWHILE:
		loop.Cond = ast.CondWhile
	case token.KUNTIL:
		loop.Cond = ast.CondUntil
	default:
		return
	}
	p.next()
	loop.CondExpr = p.expression(token.KWHILE, token.KUNTIL)
	if kw := p.subKeyword(); kw == token.KWHILE || kw == token.KUNTIL {
		p.errorf(diag.InvalidDo, p.tok(), p.tok().Value)
	}
}
