// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package parser turns clauses of tokens into the instruction graph of a
// program.
//
// Each clause is classified in this order: label, assignment, message
// instruction, keyword instruction and finally command. Block instructions
// are matched with their terminators as the clauses arrive, and CALL/SIGNAL
// label references are collected for ast.Resolve.
//
// A syntax error aborts the whole unit; it is reported as a *diag.Error
// carrying the error number, the position of the offending token and the
// message inserts.
package parser

import (
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/metrics"

	"github.com/probechain/probe-rexx/lang/ast"
	"github.com/probechain/probe-rexx/lang/diag"
	"github.com/probechain/probe-rexx/lang/lexer"
	"github.com/probechain/probe-rexx/lang/token"
)

var (
	clauseCounter = metrics.NewRegisteredCounter("rexx/parser/clauses", nil)
	unitCounter   = metrics.NewRegisteredCounter("rexx/parser/units", nil)
)

// Parser holds the state of one parse over an immutable token buffer.
type Parser struct {
	toks []token.Token
	pos  int

	lines []string
	unit  *ast.Unit
	last  ast.Index // most recently added instruction

	control   []control
	stops     []token.Keyword // keywords ending the expression being parsed
	interpret bool            // parsing an INTERPRET string
}

// SyntaxError is the error returned for a clause that does not parse. It
// carries the error code, the position of the offending token and the
// message inserts.
type SyntaxError = diag.Error

// bailout carries a syntax error from deep inside the recursive descent to
// the entry point.
type bailout struct {
	err *diag.Error
}

// New creates a parser over tokens produced by the lexer. lines are the
// source lines, kept for tracing.
func New(toks []token.Token, lines []string) *Parser {
	return &Parser{toks: toks, lines: lines}
}

// ParseProgram parses a complete program: the main unit followed by any
// ::ROUTINE and ::REQUIRES directives. The result is resolved.
func ParseProgram(name, src string) (*ast.Program, error) {
	toks, err := lexer.Tokenize(name, src)
	if err != nil {
		return nil, err
	}
	return New(toks, splitLines(src)).Program(name)
}

// ParseInterpret parses the string of an INTERPRET instruction. LEAVE and
// ITERATE are not checked against enclosing loops, as those belong to the
// interpreting unit.
func ParseInterpret(name, src string) (*ast.Unit, error) {
	toks, err := lexer.Tokenize(name, src)
	if err != nil {
		return nil, err
	}
	p := New(toks, splitLines(src))
	p.interpret = true
	return p.Unit(name)
}

// Program parses the token buffer as a program with directives.
func (p *Parser) Program(name string) (prog *ast.Program, err error) {
	defer p.recover(&err)
	main := p.parseUnit(name)
	prog = ast.NewProgram(name, main)
	for p.tok().Type == token.COLONCOLON {
		p.parseDirective(prog)
	}
	if p.tok().Type != token.EOF {
		p.errorf(diag.ExtraData, p.tok(), p.tok().String())
	}
	ast.ResolveProgram(prog)
	return prog, nil
}

// Unit parses the token buffer as a single resolved unit. Directives are not
// allowed.
func (p *Parser) Unit(name string) (u *ast.Unit, err error) {
	defer p.recover(&err)
	u = p.parseUnit(name)
	if t := p.tok(); t.Type != token.EOF {
		p.errorf(diag.Directive, t, p.peekN(1).Value)
	}
	ast.Resolve(u)
	return u, nil
}

func (p *Parser) recover(err *error) {
	if r := recover(); r != nil {
		b, ok := r.(bailout)
		if !ok {
			panic(r)
		}
		*err = b.err
	}
}

// parseUnit parses clauses up to the end of input or the next directive,
// which is left unconsumed.
func (p *Parser) parseUnit(name string) *ast.Unit {
	unitCounter.Inc(1)
	p.unit = ast.NewUnit(name)
	p.unit.Lines = p.lines
	p.last = ast.NoIndex
	p.control = p.control[:0]
	for {
		p.skipEOC()
		t := p.tok()
		if t.Type == token.EOF || t.Type == token.COLONCOLON {
			break
		}
		clauseCounter.Inc(1)
		p.nextInstruction()
	}
	p.checkUnclosed()
	return p.unit
}

// parseDirective parses one "::" directive and the unit that follows it.
func (p *Parser) parseDirective(prog *ast.Program) {
	p.next() // ::
	kw := p.tok()
	if kw.Type != token.SYMBOL {
		p.errorf(diag.DirectiveUnknown, kw, kw.String())
	}
	switch kw.Value {
	case "ROUTINE":
		p.next()
		name := p.tok()
		if name.Type != token.SYMBOL && name.Type != token.LITERAL {
			p.errorf(diag.SymbolExpected, name, "::ROUTINE")
		}
		p.next()
		routine := strings.ToUpper(name.Value)
		if p.tok().IsSymbol("PUBLIC") {
			p.next()
			prog.Public[routine] = true
		}
		p.endClause()
		prog.Routines[routine] = p.parseUnit(routine)
	case "REQUIRES":
		p.next()
		name := p.tok()
		if name.Type != token.SYMBOL && name.Type != token.LITERAL {
			p.errorf(diag.SymbolExpected, name, "::REQUIRES")
		}
		p.next()
		p.endClause()
		prog.Requires = append(prog.Requires, name.Value)
	case "CLASS", "METHOD", "ATTRIBUTE", "CONSTANT", "OPTIONS", "RESOURCE", "ANNOTATE":
		p.errorf(diag.Directive, kw, kw.Value)
	default:
		p.errorf(diag.DirectiveUnknown, kw, kw.Value)
	}
}

// ---------------------------------------------------------------------------
// Cursor
// ---------------------------------------------------------------------------

func (p *Parser) tok() token.Token {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return token.Token{Type: token.EOF}
}

func (p *Parser) peekN(n int) token.Token {
	if p.pos+n < len(p.toks) {
		return p.toks[p.pos+n]
	}
	return token.Token{Type: token.EOF}
}

func (p *Parser) next() token.Token {
	t := p.tok()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

// mark snapshots the cursor; reset restores a snapshot. The token buffer is
// never modified, so look-ahead has no side effects.
func (p *Parser) mark() int    { return p.pos }
func (p *Parser) reset(m int) { p.pos = m }

func (p *Parser) skipEOC() {
	for p.tok().Type == token.EOC {
		p.next()
	}
}

// atEnd reports whether the clause has no more tokens.
func (p *Parser) atEnd() bool { return p.tok().IsEnd() }

// endClause requires the end of the clause and moves to the next one.
func (p *Parser) endClause() {
	t := p.tok()
	switch t.Type {
	case token.EOC:
		p.next()
	case token.EOF:
	default:
		p.errorf(diag.ExtraData, t, t.String())
	}
}

// subKeyword returns the option keyword at the cursor, or NOKEYWORD.
func (p *Parser) subKeyword() token.Keyword {
	return token.LookupSubKeyword(p.tok())
}

// isKeyword reports whether the token at the cursor is the option kw.
func (p *Parser) isKeyword(kw token.Keyword) bool {
	return p.subKeyword() == kw
}

// previous returns the last consumed token.
func (p *Parser) previous() token.Token {
	if p.pos > 0 {
		return p.toks[p.pos-1]
	}
	return p.tok()
}

// location spans from start to the last consumed token.
func (p *Parser) location(start token.Token) ast.Location {
	end := p.previous()
	if end.Pos.Offset < start.Pos.Offset {
		end = start
	}
	return ast.Location{Start: start.Pos, End: end.Pos}
}

// lineOf returns the line of instruction i as a message insert.
func (p *Parser) lineOf(i ast.Index) string {
	return strconv.Itoa(p.unit.At(i).Loc.Line())
}

// errorf aborts the parse with a syntax error located at t.
func (p *Parser) errorf(code diag.Code, t token.Token, args ...string) {
	panic(bailout{diag.Errorf(code, t.Pos, args...)})
}

// tryParse runs fn speculatively. On a syntax error the cursor is restored
// and false is returned.
func (p *Parser) tryParse(fn func()) (ok bool) {
	m := p.mark()
	defer func() {
		if r := recover(); r != nil {
			if _, isBail := r.(bailout); !isBail {
				panic(r)
			}
			p.reset(m)
			ok = false
		}
	}()
	fn()
	return true
}

func splitLines(src string) []string {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	return strings.Split(src, "\n")
}
