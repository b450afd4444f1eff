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

// nextInstruction classifies the clause at the cursor and parses it. The
// order matters: a keyword followed by "=" is an assignment and a keyword
// followed by ":" is a label.
func (p *Parser) nextInstruction() {
	first := p.tok()
	second := p.peekN(1)

	p.checkClauseStart(first, second)

	// label:
	if (first.Type == token.SYMBOL || first.Type == token.LITERAL) && second.Type == token.COLON {
		p.parseLabel()
		return
	}
	// name = expr, name op= expr
	if first.Type == token.SYMBOL {
		if second.IsOp(token.EQUAL) {
			p.parseAssignment(token.NOOP)
			return
		}
		if second.Type == token.ASSIGN {
			p.parseAssignment(second.Op)
			return
		}
	}
	// term~message, term[index] = expr
	if first.IsTerm() && p.clauseHasMessage() {
		if p.tryParse(p.parseMessageInstruction) {
			return
		}
	}
	if kw := token.LookupInstruction(first); kw != token.NOKEYWORD {
		p.parseKeyword(kw)
		return
	}
	p.parseCommand()
}

// checkClauseStart rejects clauses that cannot appear where the control
// stack says we are.
func (p *Parser) checkClauseStart(first, second token.Token) {
	top, ok := p.top()
	if !ok {
		return
	}
	isLabel := (first.Type == token.SYMBOL || first.Type == token.LITERAL) && second.Type == token.COLON
	isAssign := first.Type == token.SYMBOL && (second.IsOp(token.EQUAL) || second.Type == token.ASSIGN)
	kw := token.NOKEYWORD
	if !isLabel && !isAssign {
		kw = token.LookupInstruction(first)
	}
	switch top.kind {
	case ctlThen:
		switch {
		case isLabel:
			p.errorf(diag.IncompleteThen, first, p.lineOf(top.inst))
		case kw == token.KEND:
			if p.ownerKind(top) == ast.KindIf {
				p.errorf(diag.EndAfterThen, first)
			}
			p.errorf(diag.IncompleteThen, first, p.lineOf(top.inst))
		case kw == token.KELSE, kw == token.KTHEN, kw == token.KWHEN, kw == token.KOTHERWISE:
			p.errorf(diag.IncompleteThen, first, p.lineOf(top.inst))
		}
	case ctlElse:
		switch {
		case isLabel:
			p.errorf(diag.IncompleteElse, first, p.lineOf(top.inst))
		case kw == token.KEND:
			p.errorf(diag.EndAfterElse, first)
		case kw == token.KELSE, kw == token.KTHEN, kw == token.KWHEN, kw == token.KOTHERWISE:
			p.errorf(diag.IncompleteElse, first, p.lineOf(top.inst))
		}
	case ctlSelect:
		if kw != token.KWHEN && kw != token.KOTHERWISE && kw != token.KEND {
			p.errorf(diag.WhenExpectedFound, first, p.lineOf(top.inst), first.String())
		}
	}
}

// clauseHasMessage reports whether the rest of the clause contains a message
// operator or an index bracket.
func (p *Parser) clauseHasMessage() bool {
	for i := 0; ; i++ {
		t := p.peekN(i)
		switch t.Type {
		case token.EOC, token.EOF:
			return false
		case token.TWIDDLE, token.DTWIDDLE, token.LBRACKET:
			return true
		}
	}
}

// parseLabel adds a label and leaves the rest of the clause, if any, to be
// parsed as a new clause.
func (p *Parser) parseLabel() {
	t := p.next()
	p.next() // :
	name := t.Value
	idx := p.add(ast.KindLabel, p.location(t), nil)
	p.unit.At(idx).Label = name
	if _, dup := p.unit.Labels[name]; !dup {
		p.unit.Labels[name] = idx
	}
}

// parseAssignment parses "name = expr" or, for op != NOOP, the compound
// assignment "name op= expr", which is stored as "name = name op (expr)".
func (p *Parser) parseAssignment(op token.Operator) {
	start := p.tok()
	target := p.assignTarget()
	p.next() // = or op=
	value := p.expression()
	if op != token.NOOP {
		value = &ast.Binary{Op: op, Left: ast.CopyExpr(target), Right: value}
	}
	p.endInstruction(ast.KindAssignment, start, &ast.Assignment{Target: target, Op: op, Value: value})
}

// assignTarget consumes a symbol that may be assigned to.
func (p *Parser) assignTarget() ast.Target {
	t := p.tok()
	if t.Type != token.SYMBOL {
		p.errorf(diag.SymbolExpected, t, t.String())
	}
	switch t.Sub {
	case token.NUMBER:
		p.errorf(diag.NameNumber, t, t.Literal)
	case token.CONSTANT, token.DUMMY, token.ENVIRONMENT:
		p.errorf(diag.NameDot, t, t.Literal)
	}
	p.next()
	return symbolTarget(t)
}

// parseMessageInstruction parses "term~msg", "term~msg = expr" or
// "term[i] op= expr". It fails unless the whole clause is one message term
// optionally followed by an assignment.
func (p *Parser) parseMessageInstruction() {
	start := p.tok()
	term := p.parseTerm()
	send, ok := term.(*ast.Send)
	if !ok {
		p.errorf(diag.InvalidExpression, p.tok(), p.tok().String())
	}
	t := p.tok()
	switch {
	case t.IsEnd():
		p.endInstruction(ast.KindMessage, start, &ast.Message{Send: send})
	case t.IsOp(token.EQUAL):
		p.next()
		value := p.expression()
		p.endInstruction(ast.KindMessage, start, &ast.Message{Send: send, Value: value})
	case t.Type == token.ASSIGN:
		p.next()
		right := p.expression()
		value := &ast.Binary{Op: t.Op, Left: ast.CopyExpr(send), Right: right}
		p.endInstruction(ast.KindMessage, start, &ast.Message{Send: send, Op: t.Op, Value: value})
	default:
		p.errorf(diag.InvalidExpression, t, t.String())
	}
}

// parseCommand treats the whole clause as an expression for the current
// environment.
func (p *Parser) parseCommand() {
	start := p.tok()
	e := p.expression()
	p.endInstruction(ast.KindCommand, start, &ast.Command{Expr: e})
}

// ---------------------------------------------------------------------------
// Instruction chain and control stack
// ---------------------------------------------------------------------------

type ctlKind int

const (
	ctlDo ctlKind = iota
	ctlSelect
	ctlOtherwise
	ctlThen
	ctlElse
	ctlIfDone // IF whose THEN branch is complete, waiting for an ELSE
)

// control is one open construct. inst is the opening instruction: the DO,
// SELECT or OTHERWISE, or the THEN/ELSE marker. owner is the IF or WHEN a
// THEN or ELSE belongs to.
type control struct {
	kind  ctlKind
	inst  ast.Index
	owner ast.Index
}

func (p *Parser) push(c control) { p.control = append(p.control, c) }

func (p *Parser) pop() control {
	c := p.control[len(p.control)-1]
	p.control = p.control[:len(p.control)-1]
	return c
}

func (p *Parser) top() (control, bool) {
	if len(p.control) == 0 {
		return control{}, false
	}
	return p.control[len(p.control)-1], true
}

func (p *Parser) ownerKind(c control) ast.Kind {
	return p.unit.At(c.owner).Kind
}

// add appends an instruction and links it after the previous one.
func (p *Parser) add(kind ast.Kind, loc ast.Location, node ast.Node) ast.Index {
	idx := p.unit.Add(kind, loc, node)
	if p.last.Valid() {
		p.unit.At(p.last).Next = idx
	} else {
		p.unit.First = idx
	}
	p.last = idx
	return idx
}

// endInstruction finishes a simple instruction: the clause must be over, the
// instruction is added and any IF or ELSE branch it completes is closed.
func (p *Parser) endInstruction(kind ast.Kind, start token.Token, node ast.Node) ast.Index {
	loc := p.location(start)
	p.endClause()
	idx := p.add(kind, loc, node)
	p.complete(loc)
	return idx
}

// complete closes every THEN or ELSE branch ended by the instruction just
// added. An IF branch stays open while the next clause might be its ELSE.
func (p *Parser) complete(loc ast.Location) {
	for {
		top, ok := p.top()
		if !ok {
			return
		}
		switch top.kind {
		case ctlThen:
			p.pop()
			owner := p.unit.At(top.owner)
			if owner.Kind == ast.KindWhen {
				when := owner.Node.(*ast.When)
				when.EndIf = p.add(ast.KindEndIf, loc, &ast.EndIf{Style: ast.EndIfWhen, Owner: top.owner, Select: when.Select})
				return
			}
			if p.nextIsElse() {
				p.push(control{kind: ctlIfDone, inst: top.inst, owner: top.owner})
				return
			}
			owner.Node.(*ast.If).Else = p.add(ast.KindEndIf, loc, &ast.EndIf{Style: ast.EndIfPlain, Owner: top.owner, Select: ast.NoIndex})
		case ctlElse:
			p.pop()
			el := p.unit.At(top.inst).Node.(*ast.Else)
			el.EndIf = p.add(ast.KindEndIf, loc, &ast.EndIf{Style: ast.EndIfPlain, Owner: top.owner, Select: ast.NoIndex})
		default:
			return
		}
	}
}

// nextIsElse looks past clause boundaries for an ELSE keyword clause.
func (p *Parser) nextIsElse() bool {
	m := p.mark()
	defer p.reset(m)
	p.skipEOC()
	t := p.tok()
	if token.LookupInstruction(t) != token.KELSE {
		return false
	}
	after := p.peekN(1)
	return !after.IsOp(token.EQUAL) && after.Type != token.ASSIGN && after.Type != token.COLON
}

// checkUnclosed reports a construct left open at the end of the unit.
func (p *Parser) checkUnclosed() {
	top, ok := p.top()
	if !ok {
		return
	}
	switch top.kind {
	case ctlDo:
		loop := p.unit.At(top.inst).Node.(*ast.Loop)
		p.errorf(diag.IncompleteDo, p.tokenAt(top.inst), loop.Keyword, p.lineOf(top.inst))
	case ctlSelect:
		p.errorf(diag.IncompleteSelect, p.tokenAt(top.inst), p.lineOf(top.inst))
	case ctlOtherwise:
		sel := p.unit.At(top.inst).Node.(*ast.Otherwise).Select
		p.errorf(diag.IncompleteSelect, p.tokenAt(sel), p.lineOf(sel))
	case ctlThen:
		p.errorf(diag.IncompleteThen, p.tok(), p.lineOf(top.inst))
	case ctlElse:
		p.errorf(diag.IncompleteElse, p.tok(), p.lineOf(top.inst))
	}
}

// tokenAt fabricates a token positioned at instruction i, for errors that
// refer back to an opener.
func (p *Parser) tokenAt(i ast.Index) token.Token {
	return token.Token{Type: token.SYMBOL, Pos: p.unit.At(i).Loc.Start}
}
