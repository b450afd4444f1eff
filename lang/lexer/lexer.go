// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package lexer turns program text into classified tokens grouped into
// clauses.
//
// Clauses end at ';' or at the end of a line, unless the line ends with a
// comma, which continues the clause on the next line. Comments are either
// nested /* */ blocks or -- line comments. Symbols are upper-cased; literal
// strings are decoded (doubled quotes, hex and binary strings).
package lexer

import (
	"strings"

	"github.com/probechain/probe-rexx/lang/diag"
	"github.com/probechain/probe-rexx/lang/token"
)

// Lexer holds the state for a single-pass tokenization run.
type Lexer struct {
	filename string
	input    []byte

	// pos is the index into input of the next byte to be loaded into ch.
	pos  int
	line int // 1-based current line number
	col  int // 1-based current column number

	ch byte // current character; 0 when past end

	blank bool        // whitespace seen since the previous token
	err   *diag.Error // first error encountered
}

// New creates a new Lexer for the given filename and input string.
func New(filename, input string) *Lexer {
	l := &Lexer{
		filename: filename,
		input:    []byte(input),
		line:     1,
		col:      0,
	}
	l.advance()
	return l
}

// advance moves to the next byte in the input, updating line/column tracking.
func (l *Lexer) advance() {
	if l.ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	if l.pos >= len(l.input) {
		l.ch = 0
		l.pos = len(l.input) + 1
		return
	}
	l.ch = l.input[l.pos]
	l.pos++
}

// peek returns the byte after the current character without consuming it.
func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) currentPos() token.Position {
	return token.Position{
		File:   l.filename,
		Line:   l.line,
		Column: l.col,
		Offset: l.pos - 1,
	}
}

func (l *Lexer) fail(code diag.Code, pos token.Position, args ...string) token.Token {
	if l.err == nil {
		l.err = diag.Errorf(code, pos, args...)
	}
	return token.Token{Type: token.ILLEGAL, Pos: pos}
}

// Err returns the first error met while scanning, if any.
func (l *Lexer) Err() error {
	if l.err == nil {
		return nil
	}
	return l.err
}

func (l *Lexer) makeToken(typ token.Type, literal string, pos token.Position) token.Token {
	tok := token.Token{Type: typ, Literal: literal, Value: literal, Pos: pos, Blank: l.blank}
	l.blank = false
	return tok
}

// skipBlanks consumes whitespace and comments inside a clause. It stops at a
// newline, which ends the clause.
func (l *Lexer) skipBlanks() bool {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\f':
			l.advance()
			l.blank = true
		case l.ch == '/' && l.peek() == '*':
			pos := l.currentPos()
			if !l.skipComment() {
				l.fail(diag.UnmatchedComment, pos)
				return false
			}
			l.blank = true
		case l.ch == '-' && l.peek() == '-':
			for l.ch != '\n' && l.ch != 0 {
				l.advance()
			}
		default:
			return true
		}
	}
}

// skipComment consumes a possibly nested block comment starting at "/*".
func (l *Lexer) skipComment() bool {
	depth := 0
	for l.ch != 0 {
		switch {
		case l.ch == '/' && l.peek() == '*':
			depth++
			l.advance()
			l.advance()
		case l.ch == '*' && l.peek() == '/':
			depth--
			l.advance()
			l.advance()
			if depth == 0 {
				return true
			}
		default:
			l.advance()
		}
	}
	return false
}

// continuation reports whether the comma just consumed is the last thing on
// its line, ignoring blanks and comments.
func (l *Lexer) continuation() bool {
	in := l.input
	i := l.pos - 1
	for i < len(in) {
		switch {
		case in[i] == ' ' || in[i] == '\t' || in[i] == '\r':
			i++
		case in[i] == '\n':
			return true
		case in[i] == '-' && i+1 < len(in) && in[i+1] == '-':
			return true
		case in[i] == '/' && i+1 < len(in) && in[i+1] == '*':
			end := strings.Index(string(in[i+2:]), "*/")
			if end < 0 {
				return false
			}
			i += end + 4
		default:
			return false
		}
	}
	return true
}

// NextToken scans and returns the next token from the input.
// After EOF is reached, subsequent calls continue returning EOF tokens.
func (l *Lexer) NextToken() token.Token {
	if l.err != nil {
		return token.Token{Type: token.EOF, Pos: l.currentPos()}
	}
	if !l.skipBlanks() {
		return token.Token{Type: token.ILLEGAL, Pos: l.currentPos()}
	}
	pos := l.currentPos()
	ch := l.ch

	switch {
	case ch == 0:
		return l.makeToken(token.EOF, "", pos)

	// -------------------------------------------------------------------------
	// Clause boundaries and continuation
	// -------------------------------------------------------------------------
	case ch == '\n' || ch == ';':
		l.advance()
		return l.makeToken(token.EOC, string(ch), pos)

	case ch == ',':
		l.advance()
		if l.continuation() {
			for l.ch != '\n' && l.ch != 0 {
				if l.ch == '/' && l.peek() == '*' {
					l.skipComment()
					continue
				}
				l.advance()
			}
			if l.ch == '\n' {
				l.advance()
			}
			l.blank = true
			return l.NextToken()
		}
		return l.makeToken(token.COMMA, ",", pos)

	// -------------------------------------------------------------------------
	// Symbols
	// -------------------------------------------------------------------------
	case isSymbolChar(ch):
		return l.readSymbol(pos)

	// -------------------------------------------------------------------------
	// Literal strings
	// -------------------------------------------------------------------------
	case ch == '\'' || ch == '"':
		return l.readString(pos)

	// -------------------------------------------------------------------------
	// Operators
	// -------------------------------------------------------------------------
	case isOperatorChar(ch):
		return l.readOperator(pos)

	// -------------------------------------------------------------------------
	// Punctuation
	// -------------------------------------------------------------------------
	case ch == ':':
		l.advance()
		if l.ch == ':' {
			l.advance()
			return l.makeToken(token.COLONCOLON, "::", pos)
		}
		return l.makeToken(token.COLON, ":", pos)
	case ch == '~':
		l.advance()
		if l.ch == '~' {
			l.advance()
			return l.makeToken(token.DTWIDDLE, "~~", pos)
		}
		return l.makeToken(token.TWIDDLE, "~", pos)
	case ch == '(':
		l.advance()
		return l.makeToken(token.LPAREN, "(", pos)
	case ch == ')':
		l.advance()
		return l.makeToken(token.RPAREN, ")", pos)
	case ch == '[':
		l.advance()
		return l.makeToken(token.LBRACKET, "[", pos)
	case ch == ']':
		l.advance()
		return l.makeToken(token.RBRACKET, "]", pos)
	}

	l.advance()
	return l.fail(diag.InvalidCharacter, pos, string([]byte{ch}))
}

// Tokenize returns every token of the input. Empty clauses are collapsed, the
// token list always ends with an EOC followed by EOF.
func (l *Lexer) Tokenize() ([]token.Token, error) {
	var toks []token.Token
	for {
		tok := l.NextToken()
		switch tok.Type {
		case token.ILLEGAL:
			return nil, l.err
		case token.EOC:
			if len(toks) == 0 || toks[len(toks)-1].Type == token.EOC {
				continue
			}
		case token.EOF:
			if len(toks) > 0 && toks[len(toks)-1].Type != token.EOC {
				toks = append(toks, token.Token{Type: token.EOC, Pos: tok.Pos})
			}
			toks = append(toks, tok)
			return toks, nil
		}
		toks = append(toks, tok)
	}
}

// Tokenize is a convenience wrapper lexing a whole source text.
func Tokenize(filename, input string) ([]token.Token, error) {
	return New(filename, input).Tokenize()
}

// ---------------------------------------------------------------------------
// Internal readers
// ---------------------------------------------------------------------------

// readSymbol reads a symbol and classifies it. A number mantissa followed by
// E absorbs a signed exponent.
func (l *Lexer) readSymbol(pos token.Position) token.Token {
	var buf []byte
	for {
		for isSymbolChar(l.ch) {
			buf = append(buf, l.ch)
			l.advance()
		}
		if (l.ch == '+' || l.ch == '-') && isDigit(l.peek()) && isMantissaE(buf) {
			buf = append(buf, l.ch)
			l.advance()
			continue
		}
		break
	}
	text := string(buf)
	if text == "..." {
		return l.makeToken(token.ELLIPSIS, text, pos)
	}
	tok := l.makeToken(token.SYMBOL, text, pos)
	tok.Value = strings.ToUpper(text)
	tok.Sub = Classify(text)
	return tok
}

// Classify returns the symbol subclass of a symbol's text.
func Classify(text string) token.Sub {
	switch {
	case text == ".":
		return token.DUMMY
	case isDigit(text[0]) || text[0] == '.':
		if IsNumber(text) {
			return token.NUMBER
		}
		if text[0] == '.' && !isDigit(text[1]) {
			return token.ENVIRONMENT
		}
		return token.CONSTANT
	}
	dot := strings.IndexByte(text, '.')
	switch {
	case dot < 0:
		return token.VARIABLE
	case dot == len(text)-1:
		return token.STEM
	}
	return token.COMPOUND
}

// IsNumber reports whether s is a plain REXX number: digits with an optional
// decimal point and an optional signed exponent.
func IsNumber(s string) bool {
	i, digits := 0, 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := 0
		for i < len(s) && isDigit(s[i]) {
			i++
			exp++
		}
		if exp == 0 {
			return false
		}
	}
	return i == len(s)
}

func isMantissaE(buf []byte) bool {
	if len(buf) < 2 {
		return false
	}
	last := buf[len(buf)-1]
	if last != 'e' && last != 'E' {
		return false
	}
	return IsNumber(string(buf[:len(buf)-1]))
}

// readString reads a quoted literal, folding doubled quotes, and decodes an
// immediately following X or B suffix.
func (l *Lexer) readString(pos token.Position) token.Token {
	quote := l.ch
	start := l.pos - 1
	l.advance()
	var buf []byte
	for {
		if l.ch == 0 || l.ch == '\n' {
			if quote == '\'' {
				return l.fail(diag.UnmatchedQuoteSingle, pos)
			}
			return l.fail(diag.UnmatchedQuoteDouble, pos)
		}
		if l.ch == quote {
			l.advance()
			if l.ch == quote {
				buf = append(buf, quote)
				l.advance()
				continue
			}
			break
		}
		buf = append(buf, l.ch)
		l.advance()
	}
	sub := token.STRING
	value := string(buf)
	if (l.ch == 'x' || l.ch == 'X' || l.ch == 'b' || l.ch == 'B') && !isSymbolChar(l.peek()) {
		var ok bool
		if l.ch == 'x' || l.ch == 'X' {
			sub = token.HEX
			value, ok = decodeHex(value)
			if !ok {
				l.advance()
				return l.fail(diag.InvalidHex, pos, string(buf))
			}
		} else {
			sub = token.BINARY
			value, ok = decodeBinary(value)
			if !ok {
				l.advance()
				return l.fail(diag.InvalidBinary, pos, string(buf))
			}
		}
		l.advance()
	}
	end := l.pos - 1
	if end > len(l.input) {
		end = len(l.input)
	}
	tok := l.makeToken(token.LITERAL, string(l.input[start:end]), pos)
	tok.Sub = sub
	tok.Value = value
	return tok
}

// readOperator reads the longest operator spelling at the current position.
// An operator that admits a compound assignment and is directly followed by
// '=' yields an ASSIGN token.
func (l *Lexer) readOperator(pos token.Position) token.Token {
	start := l.pos - 1
	best := 0
	for k := 1; k <= 3 && start+k <= len(l.input); k++ {
		text := string(l.input[start : start+k])
		if !allOperatorChars(text) {
			break
		}
		if _, ok := token.LookupOperator(text); ok {
			best = k
		}
	}
	text := string(l.input[start : start+best])
	op, _ := token.LookupOperator(text)
	for i := 0; i < best; i++ {
		l.advance()
	}
	if l.ch == '=' && token.IsCompoundAssign(op) {
		l.advance()
		tok := l.makeToken(token.ASSIGN, text+"=", pos)
		tok.Op = op
		return tok
	}
	tok := l.makeToken(token.OPERATOR, text, pos)
	tok.Op = op
	return tok
}

// ---------------------------------------------------------------------------
// Literal decoding
// ---------------------------------------------------------------------------

func decodeHex(s string) (string, bool) {
	groups := strings.Fields(s)
	if len(groups) == 0 {
		return "", strings.TrimSpace(s) == ""
	}
	var digits strings.Builder
	for i, g := range groups {
		if i > 0 && len(g)%2 != 0 {
			return "", false
		}
		digits.WriteString(g)
	}
	hex := digits.String()
	if len(hex)%2 != 0 {
		hex = "0" + hex
	}
	out := make([]byte, 0, len(hex)/2)
	for i := 0; i < len(hex); i += 2 {
		hi, ok1 := hexValue(hex[i])
		lo, ok2 := hexValue(hex[i+1])
		if !ok1 || !ok2 {
			return "", false
		}
		out = append(out, hi<<4|lo)
	}
	return string(out), true
}

func decodeBinary(s string) (string, bool) {
	groups := strings.Fields(s)
	var bits strings.Builder
	for i, g := range groups {
		if i > 0 && len(g)%4 != 0 {
			return "", false
		}
		bits.WriteString(g)
	}
	b := bits.String()
	for len(b)%8 != 0 {
		b = "0" + b
	}
	out := make([]byte, 0, len(b)/8)
	for i := 0; i < len(b); i += 8 {
		var v byte
		for _, c := range []byte(b[i : i+8]) {
			if c != '0' && c != '1' {
				return "", false
			}
			v = v<<1 | (c - '0')
		}
		out = append(out, v)
	}
	return string(out), true
}

func hexValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// ---------------------------------------------------------------------------
// Character classes
// ---------------------------------------------------------------------------

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isSymbolChar(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || isDigit(ch) ||
		ch == '.' || ch == '!' || ch == '?' || ch == '_'
}

func isOperatorChar(ch byte) bool {
	return strings.IndexByte("+-*/%|&=\\<>", ch) >= 0
}

func allOperatorChars(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isOperatorChar(s[i]) {
			return false
		}
	}
	return true
}
