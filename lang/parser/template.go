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

// PARSE [UPPER|LOWER] [CASELESS] source template-list
func (p *Parser) parseParse() {
	start := p.next()
	parse := &ast.Parse{}
options:
	for {
		switch p.subKeyword() {
		case token.KUPPER:
			parse.Casing = ast.CaseUpper
		case token.KLOWER:
			parse.Casing = ast.CaseLower
		case token.KCASELESS:
			parse.Caseless = true
		default:
			break options
		}
		p.next()
	}
	t := p.tok()
	switch p.subKeyword() {
	case token.KARG:
		parse.Source = ast.ParseArg
	case token.KPULL:
		parse.Source = ast.ParsePull
	case token.KLINEIN:
		parse.Source = ast.ParseLinein
	case token.KSOURCE:
		parse.Source = ast.ParseSourceInfo
	case token.KVERSION:
		parse.Source = ast.ParseVersion
	case token.KVAR:
		parse.Source = ast.ParseVar
	case token.KVALUE:
		parse.Source = ast.ParseValue
	default:
		p.errorf(diag.ParseKeyword, t, t.String())
	}
	p.next()
	switch parse.Source {
	case ast.ParseVar:
		v := p.tok()
		if v.Type != token.SYMBOL || !v.Sub.IsVariable() {
			p.errorf(diag.NameExpected, v, "PARSE VAR", v.String())
		}
		p.next()
		parse.Var = symbolTarget(v)
	case ast.ParseValue:
		parse.Value = p.optExpression(token.KWITH)
		if !p.isKeyword(token.KWITH) {
			p.errorf(diag.ParseKeyword, p.tok(), p.tok().String())
		}
		p.next()
	}
	parse.Templates = p.templateList()
	p.endInstruction(ast.KindParse, start, parse)
}

// ARG template-list is PARSE UPPER ARG; PULL is PARSE UPPER PULL.
func (p *Parser) parseShortParse(source ast.ParseSource) {
	start := p.next()
	parse := &ast.Parse{Source: source, Casing: ast.CaseUpper}
	parse.Templates = p.templateList()
	p.endInstruction(ast.KindParse, start, parse)
}

// templateList parses comma-separated templates to the end of the clause.
func (p *Parser) templateList() []ast.Template {
	var list []ast.Template
	for {
		list = append(list, p.template())
		if p.tok().Type != token.COMMA {
			return list
		}
		p.next()
	}
}

// template parses targets, patterns and positions up to a comma or the end
// of the clause.
func (p *Parser) template() ast.Template {
	var tpl ast.Template
	for {
		t := p.tok()
		switch {
		case t.IsEnd() || t.Type == token.COMMA:
			return tpl

		case t.Type == token.SYMBOL && t.Sub == token.DUMMY:
			p.next()
			tpl.Items = append(tpl.Items, ast.TemplateItem{Kind: ast.ItemDummy})

		case t.Type == token.SYMBOL && t.Sub.IsVariable():
			p.next()
			tpl.Items = append(tpl.Items, ast.TemplateItem{Kind: ast.ItemTarget, Target: symbolTarget(t)})

		case t.Type == token.SYMBOL && t.Sub == token.NUMBER:
			p.next()
			tpl.Items = append(tpl.Items, ast.TemplateItem{Kind: ast.ItemAbsolute, Value: &ast.Literal{Value: t.Value, Symbol: true}})

		case t.Type == token.LITERAL:
			p.next()
			tpl.Items = append(tpl.Items, ast.TemplateItem{Kind: ast.ItemPattern, Value: &ast.Literal{Value: t.Value}})

		case t.Type == token.LPAREN:
			tpl.Items = append(tpl.Items, ast.TemplateItem{Kind: ast.ItemPattern, Value: p.templateVariable()})

		case t.IsOp(token.EQUAL), t.IsOp(token.PLUS), t.IsOp(token.SUBTRACT):
			p.next()
			item := ast.TemplateItem{Kind: ast.ItemRelative, Sign: 1}
			switch t.Op {
			case token.EQUAL:
				item.Kind = ast.ItemAbsolute
			case token.SUBTRACT:
				item.Sign = -1
			}
			item.Value = p.positionValue()
			tpl.Items = append(tpl.Items, item)

		default:
			p.errorf(diag.InvalidTemplate, t, t.String())
		}
	}
}

// templateVariable parses "(name)" used as a pattern or position.
func (p *Parser) templateVariable() ast.Expr {
	open := p.next()
	v := p.tok()
	if v.Type != token.SYMBOL {
		p.errorf(diag.InvalidTemplate, v, v.String())
	}
	p.next()
	if p.tok().Type != token.RPAREN {
		p.errorf(diag.UnmatchedParen, open, strconv.Itoa(open.Pos.Column), strconv.Itoa(open.Pos.Line))
	}
	p.next()
	return symbolExpr(v, p)
}

// positionValue parses the whole number or "(name)" after =, + or -.
func (p *Parser) positionValue() ast.Expr {
	t := p.tok()
	switch {
	case t.Type == token.LPAREN:
		return p.templateVariable()
	case t.Type == token.SYMBOL && t.Sub == token.NUMBER:
		p.next()
		return &ast.Literal{Value: t.Value, Symbol: true}
	}
	p.errorf(diag.InvalidPosition, t, t.String())
	return nil
}

// USE [STRICT] ARG [param [, param...]] [, ...]
//
// A param is "name [= default]", ">name" or "<name", or empty to skip a
// position. "..." must be the last element.
func (p *Parser) parseUseArg() {
	start := p.next()
	use := &ast.UseArg{}
	if p.isKeyword(token.KSTRICT) {
		p.next()
		use.Strict = true
	}
	if !p.isKeyword(token.KARG) {
		p.errorf(diag.UseKeyword, p.tok(), p.tok().String())
	}
	p.next()
	if p.atEnd() {
		p.endInstruction(ast.KindUseArg, start, use)
		return
	}
	for {
		t := p.tok()
		switch {
		case t.Type == token.ELLIPSIS:
			p.next()
			use.Ellipsis = true
			if !p.atEnd() {
				p.errorf(diag.ExtraData, p.tok(), p.tok().String())
			}
		case t.Type == token.COMMA || t.IsEnd():
			use.Params = append(use.Params, ast.UseParam{})
		case t.IsOp(token.GREATER) || t.IsOp(token.LESS):
			p.next()
			name := p.tok()
			if name.Type != token.SYMBOL || (name.Sub != token.VARIABLE && name.Sub != token.STEM) {
				p.errorf(diag.NameExpected, name, t.Literal, name.String())
			}
			p.next()
			use.Params = append(use.Params, ast.UseParam{Target: symbolTarget(name), Reference: true})
		case t.Type == token.SYMBOL:
			param := ast.UseParam{Target: p.assignTarget()}
			if p.tok().IsOp(token.EQUAL) {
				p.next()
				param.Default = p.expression()
			}
			use.Params = append(use.Params, param)
		default:
			p.errorf(diag.SymbolExpected, t, "USE ARG")
		}
		if p.tok().Type != token.COMMA {
			break
		}
		p.next()
	}
	p.endInstruction(ast.KindUseArg, start, use)
}
