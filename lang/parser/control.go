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

// IF expr[, expr...] THEN
func (p *Parser) parseIf() {
	start := p.next()
	conds := p.expressionList(token.KTHEN)
	idx := p.add(ast.KindIf, p.location(start), &ast.If{Conditions: conds, Else: ast.NoIndex})
	p.parseThen(idx, diag.ThenExpectedIf)
}

// parseThen consumes the THEN of an IF or WHEN, which may start the next
// clause, and opens the branch. Whatever follows THEN is a new clause.
func (p *Parser) parseThen(owner ast.Index, code diag.Code) {
	if p.tok().Type == token.EOC {
		p.skipEOC()
	}
	t := p.tok()
	after := p.peekN(1)
	if token.LookupInstruction(t) != token.KTHEN || after.IsOp(token.EQUAL) || after.Type == token.COLON {
		p.errorf(code, t, p.lineOf(owner), t.String())
	}
	p.next()
	idx := p.add(ast.KindThen, p.location(t), &ast.Then{Owner: owner})
	p.push(control{kind: ctlThen, inst: idx, owner: owner})
}

// ELSE pairs with the innermost IF whose THEN branch has just completed.
func (p *Parser) parseElse() {
	start := p.next()
	top, ok := p.top()
	if !ok || top.kind != ctlIfDone {
		p.errorf(diag.ElseNoThen, start)
	}
	p.pop()
	idx := p.add(ast.KindElse, p.location(start), &ast.Else{If: top.owner, EndIf: ast.NoIndex})
	p.unit.At(top.owner).Node.(*ast.If).Else = idx
	p.push(control{kind: ctlElse, inst: idx, owner: top.owner})
}

// THEN outside IF or WHEN.
func (p *Parser) parseStrayThen() {
	p.errorf(diag.ThenNoIf, p.tok())
}

// SELECT [LABEL name] [CASE expr]
func (p *Parser) parseSelect() {
	start := p.next()
	sel := &ast.Select{Otherwise: ast.NoIndex, End: ast.NoIndex}
	if p.keywordAt(token.KLABEL) {
		p.next()
		sel.Label = p.labelName("LABEL")
	}
	if p.keywordAt(token.KCASE) {
		p.next()
		sel.Case = p.expression()
	}
	loc := p.location(start)
	p.endClause()
	idx := p.add(ast.KindSelect, loc, sel)
	p.push(control{kind: ctlSelect, inst: idx, owner: ast.NoIndex})
}

// WHEN expr[, expr...] THEN, or inside SELECT CASE, WHEN value[, value...]
// THEN.
func (p *Parser) parseWhen() {
	start := p.next()
	top, ok := p.top()
	if !ok || top.kind != ctlSelect {
		p.errorf(diag.WhenNoSelect, start)
	}
	sel := p.unit.At(top.inst).Node.(*ast.Select)
	when := &ast.When{Select: top.inst, EndIf: ast.NoIndex, End: ast.NoIndex}
	if sel.Case != nil {
		when.Cases = p.expressionList(token.KTHEN)
	} else {
		when.Conditions = p.expressionList(token.KTHEN)
	}
	idx := p.add(ast.KindWhen, p.location(start), when)
	sel.Whens = append(sel.Whens, idx)
	p.parseThen(idx, diag.ThenExpectedWhen)
}

// OTHERWISE; the instructions up to END form its branch.
func (p *Parser) parseOtherwise() {
	start := p.next()
	top, ok := p.top()
	if !ok || top.kind != ctlSelect {
		p.errorf(diag.OtherwiseNoSelect, start)
	}
	idx := p.add(ast.KindOtherwise, p.location(start), &ast.Otherwise{Select: top.inst})
	p.unit.At(top.inst).Node.(*ast.Select).Otherwise = idx
	p.push(control{kind: ctlOtherwise, inst: idx, owner: top.inst})
}

// END [name] closes the innermost DO, LOOP or SELECT and fixes the style of
// the terminator.
func (p *Parser) parseEnd() {
	start := p.next()
	var nameTok token.Token
	if p.tok().Type == token.SYMBOL {
		nameTok = p.next()
	}
	name := nameTok.Value
	loc := p.location(start)
	p.endClause()

	top, ok := p.top()
	if !ok {
		p.errorf(diag.EndNoBlock, start)
	}
	if top.kind == ctlOtherwise {
		p.pop()
		top, ok = p.top()
	}
	if !ok || (top.kind != ctlDo && top.kind != ctlSelect) {
		p.errorf(diag.EndNoBlock, start)
	}
	opener := p.lineOf(top.inst)

	switch top.kind {
	case ctlDo:
		loop := p.unit.At(top.inst).Node.(*ast.Loop)
		if name != "" {
			label, ctl := loop.Label, controlName(loop)
			if label == "" && ctl == "" {
				p.errorf(diag.EndNoControl, nameTok, loop.Keyword, opener, nameTok.Literal)
			}
			if name != label && name != ctl {
				p.errorf(diag.EndWrongControl, nameTok, loop.Keyword, opener, nameTok.Literal)
			}
		}
		style := ast.EndBlock
		if loop.Repetitive() {
			style = ast.EndLoop
		}
		loop.End = p.add(ast.KindEnd, loc, &ast.End{Name: name, Style: style, Block: top.inst})

	case ctlSelect:
		sel := p.unit.At(top.inst).Node.(*ast.Select)
		if sel.Case == nil && len(sel.Whens) == 0 {
			p.errorf(diag.WhenExpected, start, opener)
		}
		if name != "" {
			if sel.Label == "" {
				p.errorf(diag.EndSelectName, nameTok, opener, nameTok.Literal)
			}
			if name != sel.Label {
				p.errorf(diag.EndWrongLabel, nameTok, opener, nameTok.Literal)
			}
		}
		style := ast.EndSelect
		if sel.Otherwise.Valid() {
			style = ast.EndSelectOtherwise
		}
		sel.End = p.add(ast.KindEnd, loc, &ast.End{Name: name, Style: style, Block: top.inst})
		for _, w := range sel.Whens {
			p.unit.At(w).Node.(*ast.When).End = sel.End
		}
	}
	p.pop()
	p.complete(loc)
}

// LEAVE [name] and ITERATE [name]. Outside INTERPRET the target must be an
// enclosing loop, or for LEAVE a labelled block.
func (p *Parser) parseLeaveIterate(kind ast.Kind) {
	start := p.next()
	var nameTok token.Token
	if p.tok().Type == token.SYMBOL {
		nameTok = p.next()
	}
	if !p.interpret {
		p.checkLoopTarget(kind, nameTok)
	}
	p.endInstruction(kind, start, &ast.LeaveIterate{Name: nameTok.Value})
}

func (p *Parser) checkLoopTarget(kind ast.Kind, nameTok token.Token) {
	name := nameTok.Value
	for i := len(p.control) - 1; i >= 0; i-- {
		c := p.control[i]
		switch c.kind {
		case ctlDo:
			loop := p.unit.At(c.inst).Node.(*ast.Loop)
			if name == "" {
				if loop.Repetitive() {
					return
				}
				continue
			}
			if name == loop.Label || name == controlName(loop) {
				if kind == ast.KindIterate && !loop.Repetitive() {
					p.errorf(diag.IterateName, nameTok, nameTok.Literal)
				}
				return
			}
		case ctlSelect:
			sel := p.unit.At(c.inst).Node.(*ast.Select)
			if name != "" && name == sel.Label {
				if kind == ast.KindIterate {
					p.errorf(diag.IterateName, nameTok, nameTok.Literal)
				}
				return
			}
		}
	}
	switch {
	case kind == ast.KindLeave && name == "":
		p.errorf(diag.LeaveNoLoop, p.previous())
	case kind == ast.KindLeave:
		p.errorf(diag.LeaveName, nameTok, nameTok.Literal)
	case name == "":
		p.errorf(diag.IterateNoLoop, p.previous())
	default:
		p.errorf(diag.IterateName, nameTok, nameTok.Literal)
	}
}

// controlName returns the name of a loop's control variable, or "".
func controlName(loop *ast.Loop) string {
	if loop.Control == nil {
		return ""
	}
	return loop.Control.String()
}

// expressionList parses "expr[, expr...]" up to the stop keyword.
func (p *Parser) expressionList(stop token.Keyword) []ast.Expr {
	list := []ast.Expr{p.expression(stop)}
	for p.tok().Type == token.COMMA {
		p.next()
		list = append(list, p.expression(stop))
	}
	return list
}

// keywordAt reports whether the option keyword kw is at the cursor and is
// not being used as a variable being assigned.
func (p *Parser) keywordAt(kw token.Keyword) bool {
	if !p.isKeyword(kw) {
		return false
	}
	after := p.peekN(1)
	return !after.IsOp(token.EQUAL) && !after.IsOp(token.STRICTEQUAL)
}

// labelName consumes the symbol naming a LABEL option.
func (p *Parser) labelName(after string) string {
	t := p.tok()
	if t.Type != token.SYMBOL || t.Sub == token.NUMBER {
		p.errorf(diag.NameExpected, t, after, t.String())
	}
	p.next()
	return t.Value
}
