// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package parser

import (
	"sort"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set"

	"github.com/probechain/probe-rexx/lang/ast"
	"github.com/probechain/probe-rexx/lang/diag"
	"github.com/probechain/probe-rexx/lang/token"
)

var (
	// CallConditions are the conditions CALL ON and CALL OFF accept.
	CallConditions = mapset.NewSetFromSlice([]interface{}{
		"ANY", "ERROR", "FAILURE", "HALT", "NOTREADY", "USER",
	})
	// SignalConditions are the conditions SIGNAL ON and SIGNAL OFF accept.
	SignalConditions = mapset.NewSetFromSlice([]interface{}{
		"ANY", "ERROR", "FAILURE", "HALT", "LOSTDIGITS", "NOMETHOD",
		"NOSTRING", "NOTREADY", "NOVALUE", "SYNTAX", "USER",
	})
	// RaiseConditions are the conditions RAISE accepts.
	RaiseConditions = mapset.NewSetFromSlice([]interface{}{
		"ERROR", "FAILURE", "HALT", "LOSTDIGITS", "NOMETHOD",
		"NOSTRING", "NOTREADY", "NOVALUE", "SYNTAX", "USER",
	})
)

// setList renders a condition set for an error message.
func setList(s mapset.Set) string {
	names := make([]string, 0, s.Cardinality())
	for _, v := range s.ToSlice() {
		names = append(names, v.(string))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// CALL name [args] | CALL (expr) [args] | CALL ns:name [args] |
// CALL ON cond [NAME label] | CALL OFF cond
func (p *Parser) parseCall() {
	start := p.next()
	call := &ast.Call{Target: ast.NoIndex}
	t := p.tok()
	switch {
	case p.keywordAt(token.KON) && !p.peekN(1).IsEnd() || p.keywordAt(token.KOFF) && !p.peekN(1).IsEnd():
		on := p.subKeyword() == token.KON
		p.next()
		code := diag.CallOffKeyword
		call.Form = ast.TransferOff
		if on {
			code = diag.CallOnKeyword
			call.Form = ast.TransferOn
		}
		call.Condition = p.conditionName(CallConditions, code)
		if on && p.isKeyword(token.KNAME) {
			p.next()
			call.Name = p.trapLabel()
		}
		idx := p.endInstruction(ast.KindCall, start, call)
		if on {
			p.unit.ForwardRefs = append(p.unit.ForwardRefs, ast.ForwardRef{Inst: idx, Kind: ast.RefCallOn})
		}
		return

	case t.Type == token.LPAREN:
		p.next()
		call.Form = ast.TransferDynamic
		call.Dynamic = p.nested()
		if call.Dynamic == nil {
			p.errorf(diag.InvalidExpression, p.tok(), p.tok().String())
		}
		if p.tok().Type != token.RPAREN {
			p.errorf(diag.UnmatchedParen, t, strconv.Itoa(t.Pos.Column), strconv.Itoa(t.Pos.Line))
		}
		p.next()

	case t.Type == token.SYMBOL && t.Sub == token.VARIABLE && p.peekN(1).Type == token.COLON:
		name := p.peekN(2)
		if name.Type != token.SYMBOL && name.Type != token.LITERAL {
			p.errorf(diag.SymbolExpected, name, "CALL")
		}
		p.next()
		p.next()
		p.next()
		call.Namespace = t.Value
		call.Name = strings.ToUpper(name.Value)

	case t.Type == token.SYMBOL:
		p.next()
		call.Name = t.Value

	case t.Type == token.LITERAL:
		p.next()
		call.Name = t.Value
		call.Quoted = true

	default:
		p.errorf(diag.SymbolExpected, t, "CALL")
	}
	call.Args = p.callArgs()
	idx := p.endInstruction(ast.KindCall, start, call)
	if call.Form == ast.TransferLabel && call.Namespace == "" && !call.Quoted {
		p.unit.ForwardRefs = append(p.unit.ForwardRefs, ast.ForwardRef{Inst: idx, Kind: ast.RefCall})
	}
}

// callArgs parses the unparenthesised argument list of CALL.
func (p *Parser) callArgs() []ast.Expr {
	if p.atEnd() {
		return nil
	}
	var args []ast.Expr
	for {
		var arg ast.Expr
		if ref := p.refArg(); ref != nil {
			arg = ref
		} else {
			arg = p.optExpression()
		}
		args = append(args, arg)
		if p.tok().Type != token.COMMA {
			return args
		}
		p.next()
	}
}

// SIGNAL label | SIGNAL VALUE expr | SIGNAL (expr) |
// SIGNAL ON cond [NAME label] | SIGNAL OFF cond
func (p *Parser) parseSignal() {
	start := p.next()
	sig := &ast.Signal{Target: ast.NoIndex}
	t := p.tok()
	switch {
	case p.keywordAt(token.KON) && !p.peekN(1).IsEnd() || p.keywordAt(token.KOFF) && !p.peekN(1).IsEnd():
		on := p.subKeyword() == token.KON
		p.next()
		code := diag.SignalOffKeyword
		sig.Form = ast.TransferOff
		if on {
			code = diag.SignalOnKeyword
			sig.Form = ast.TransferOn
		}
		sig.Condition = p.conditionName(SignalConditions, code)
		if on && p.isKeyword(token.KNAME) {
			p.next()
			sig.Name = p.trapLabel()
		}
		idx := p.endInstruction(ast.KindSignal, start, sig)
		if on {
			p.unit.ForwardRefs = append(p.unit.ForwardRefs, ast.ForwardRef{Inst: idx, Kind: ast.RefSignalOn})
		}
		return

	case p.keywordAt(token.KVALUE) && !p.peekN(1).IsEnd():
		p.next()
		sig.Form = ast.TransferDynamic
		sig.Dynamic = p.expression()

	case t.Type == token.LPAREN:
		sig.Form = ast.TransferDynamic
		sig.Dynamic = p.expression()

	case t.Type == token.SYMBOL || t.Type == token.LITERAL:
		p.next()
		sig.Name = t.Value

	default:
		p.errorf(diag.SymbolExpected, t, "SIGNAL")
	}
	idx := p.endInstruction(ast.KindSignal, start, sig)
	if sig.Form == ast.TransferLabel {
		p.unit.ForwardRefs = append(p.unit.ForwardRefs, ast.ForwardRef{Inst: idx, Kind: ast.RefSignal})
	}
}

// conditionName consumes a condition name from allowed. USER conditions
// take a further name and are returned as "USER name".
func (p *Parser) conditionName(allowed mapset.Set, code diag.Code) string {
	t := p.tok()
	if t.Type != token.SYMBOL || !allowed.Contains(t.Value) {
		p.errorf(code, t, setList(allowed), t.String())
	}
	p.next()
	if t.Value != "USER" {
		return t.Value
	}
	name := p.tok()
	if name.Type != token.SYMBOL {
		p.errorf(diag.SymbolExpected, name, "USER")
	}
	p.next()
	return "USER " + name.Value
}

// trapLabel consumes the label of a NAME option.
func (p *Parser) trapLabel() string {
	t := p.tok()
	if t.Type != token.SYMBOL && t.Type != token.LITERAL {
		p.errorf(diag.SymbolExpected, t, "NAME")
	}
	p.next()
	return t.Value
}
