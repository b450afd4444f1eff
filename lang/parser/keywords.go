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

	"github.com/probechain/probe-rexx/lang/ast"
	"github.com/probechain/probe-rexx/lang/diag"
	"github.com/probechain/probe-rexx/lang/token"
)

// parseKeyword dispatches a keyword instruction.
func (p *Parser) parseKeyword(kw token.Keyword) {
	switch kw {
	case token.KADDRESS:
		p.parseAddress()
	case token.KARG:
		p.parseShortParse(ast.ParseArg)
	case token.KCALL:
		p.parseCall()
	case token.KDO, token.KLOOP:
		p.parseDo()
	case token.KDROP:
		p.parseDrop()
	case token.KELSE:
		p.parseElse()
	case token.KEND:
		p.parseEnd()
	case token.KEXIT:
		start := p.next()
		p.endInstruction(ast.KindExit, start, &ast.Exit{Value: p.optExpression()})
	case token.KIF:
		p.parseIf()
	case token.KINTERPRET:
		start := p.next()
		p.endInstruction(ast.KindInterpret, start, &ast.Interpret{Expr: p.expression()})
	case token.KITERATE:
		p.parseLeaveIterate(ast.KindIterate)
	case token.KLEAVE:
		p.parseLeaveIterate(ast.KindLeave)
	case token.KNOP:
		start := p.next()
		p.endInstruction(ast.KindNop, start, nil)
	case token.KNUMERIC:
		p.parseNumeric()
	case token.KOTHERWISE:
		p.parseOtherwise()
	case token.KPARSE:
		p.parseParse()
	case token.KPROCEDURE:
		p.parseProcedure()
	case token.KPULL:
		p.parseShortParse(ast.ParsePull)
	case token.KPUSH:
		start := p.next()
		p.endInstruction(ast.KindPush, start, &ast.Queue{Value: p.optExpression()})
	case token.KQUEUE:
		start := p.next()
		p.endInstruction(ast.KindQueue, start, &ast.Queue{Value: p.optExpression()})
	case token.KRAISE:
		p.parseRaise()
	case token.KRETURN:
		start := p.next()
		p.endInstruction(ast.KindReturn, start, &ast.Return{Value: p.optExpression()})
	case token.KSAY:
		start := p.next()
		p.endInstruction(ast.KindSay, start, &ast.Say{Value: p.optExpression()})
	case token.KSELECT:
		p.parseSelect()
	case token.KSIGNAL:
		p.parseSignal()
	case token.KTHEN:
		p.parseStrayThen()
	case token.KTRACE:
		p.parseTrace()
	case token.KUSE:
		p.parseUseArg()
	case token.KWHEN:
		p.parseWhen()
	default:
		p.parseCommand()
	}
}

// DROP name [name...]; "(name)" drops the variables listed in name's value.
func (p *Parser) parseDrop() {
	start := p.next()
	targets, indirect := p.nameList("DROP")
	if len(targets) == 0 {
		p.errorf(diag.NameExpected, p.tok(), "DROP", p.tok().String())
	}
	p.endInstruction(ast.KindDrop, start, &ast.Drop{Targets: targets, Indirect: indirect})
}

// PROCEDURE [EXPOSE name [name...]]
func (p *Parser) parseProcedure() {
	start := p.next()
	proc := &ast.Procedure{}
	if !p.atEnd() {
		if !p.isKeyword(token.KEXPOSE) {
			p.errorf(diag.ProcedureKeyword, p.tok(), p.tok().String())
		}
		p.next()
		proc.Expose, proc.Indirect = p.nameList("EXPOSE")
	}
	p.endInstruction(ast.KindProcedure, start, proc)
}

// nameList parses variable names up to the end of the clause.
func (p *Parser) nameList(after string) ([]ast.Target, []bool) {
	var (
		targets  []ast.Target
		indirect []bool
	)
	for !p.atEnd() {
		t := p.tok()
		switch {
		case t.Type == token.LPAREN:
			p.next()
			v := p.tok()
			if v.Type != token.SYMBOL || !v.Sub.IsVariable() {
				p.errorf(diag.NameExpected, v, after, v.String())
			}
			p.next()
			if p.tok().Type != token.RPAREN {
				p.errorf(diag.UnmatchedParen, t, strconv.Itoa(t.Pos.Column), strconv.Itoa(t.Pos.Line))
			}
			p.next()
			targets = append(targets, symbolTarget(v))
			indirect = append(indirect, true)
		case t.Type == token.SYMBOL && t.Sub.IsVariable():
			p.next()
			targets = append(targets, symbolTarget(t))
			indirect = append(indirect, false)
		default:
			p.errorf(diag.NameExpected, t, after, t.String())
		}
	}
	return targets, indirect
}

// NUMERIC DIGITS [expr] | FUZZ [expr] | FORM [SCIENTIFIC | ENGINEERING |
// [VALUE] expr]
func (p *Parser) parseNumeric() {
	start := p.next()
	t := p.tok()
	num := &ast.Numeric{Option: p.subKeyword()}
	switch num.Option {
	case token.KDIGITS, token.KFUZZ:
		p.next()
		num.Value = p.optExpression()
	case token.KFORM:
		p.next()
		switch p.subKeyword() {
		case token.KSCIENTIFIC:
			p.next()
			num.Form = "SCIENTIFIC"
		case token.KENGINEERING:
			p.next()
			num.Form = "ENGINEERING"
		case token.KVALUE:
			p.next()
			num.Value = p.expression()
		default:
			num.Value = p.optExpression()
			if num.Value == nil {
				num.Form = "SCIENTIFIC"
			}
		}
	default:
		p.errorf(diag.NumericKeyword, t, t.String())
	}
	p.endInstruction(ast.KindNumeric, start, num)
}

// raiseOptions end the expressions of a RAISE instruction.
var raiseOptions = []token.Keyword{token.KADDITIONAL, token.KDESCRIPTION, token.KEXIT, token.KRETURN}

// RAISE condition [ADDITIONAL expr] [DESCRIPTION expr] [EXIT [expr] |
// RETURN [expr]]
//
// ERROR and FAILURE take a return code, SYNTAX an error number and USER a
// condition name.
func (p *Parser) parseRaise() {
	start := p.next()
	raise := &ast.Raise{Condition: p.conditionName(RaiseConditions, diag.RaiseKeyword)}
	switch raise.Condition {
	case "ERROR", "FAILURE", "SYNTAX":
		raise.Code = p.expression(raiseOptions...)
	}
	for !p.atEnd() {
		o := p.tok()
		switch p.subKeyword() {
		case token.KADDITIONAL:
			if raise.Additional != nil {
				p.errorf(diag.ExtraData, o, o.String())
			}
			p.next()
			raise.Additional = p.expression(raiseOptions...)
		case token.KDESCRIPTION:
			if raise.Description != nil {
				p.errorf(diag.ExtraData, o, o.String())
			}
			p.next()
			raise.Description = p.expression(raiseOptions...)
		case token.KEXIT, token.KRETURN:
			if raise.Exit || raise.Return {
				p.errorf(diag.ExtraData, o, o.String())
			}
			p.next()
			raise.Exit = o.Value == "EXIT"
			raise.Return = !raise.Exit
			raise.Result = p.optExpression(raiseOptions...)
		default:
			p.errorf(diag.ExtraData, o, o.String())
		}
	}
	p.endInstruction(ast.KindRaise, start, raise)
}

// TRACE [setting] | TRACE VALUE expr | TRACE expr
func (p *Parser) parseTrace() {
	start := p.next()
	trace := &ast.Trace{}
	t := p.tok()
	switch {
	case t.IsEnd():
		trace.Setting = "N"
	case p.keywordAt(token.KVALUE) && !p.peekN(1).IsEnd():
		p.next()
		trace.Dynamic = p.expression()
	case (t.Type == token.SYMBOL || t.Type == token.LITERAL) && p.peekN(1).IsEnd():
		p.next()
		setting, ok := ast.NormalizeTrace(t.Value)
		if !ok {
			p.errorf(diag.TraceSetting, t, t.Value)
		}
		trace.Setting = setting
	case (t.IsOp(token.SUBTRACT) || t.IsOp(token.PLUS)) && p.peekN(1).Sub == token.NUMBER && p.peekN(2).IsEnd():
		// TRACE -n suppresses tracing for n clauses; accepted and ignored
		p.next()
		p.next()
	default:
		trace.Dynamic = p.expression()
	}
	p.endInstruction(ast.KindTrace, start, trace)
}
