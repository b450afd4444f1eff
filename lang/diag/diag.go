// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package diag holds the numbered error catalog shared by the lexer, the
// parser and the interpreter, and the structured error value they report.
package diag

import (
	"fmt"
	"strings"

	"github.com/probechain/probe-rexx/lang/token"
)

// Code is a numbered error: major*1000 + minor. The major number selects the
// error class, the minor number the specific message.
type Code int

// Major returns the error class.
func (c Code) Major() int { return int(c) / 1000 }

// Minor returns the detail number within the class.
func (c Code) Minor() int { return int(c) % 1000 }

func (c Code) String() string {
	if c.Minor() == 0 {
		return fmt.Sprintf("%d", c.Major())
	}
	return fmt.Sprintf("%d.%d", c.Major(), c.Minor())
}

// Error numbers.
const (
	UnmatchedComment     Code = 6001
	UnmatchedQuoteSingle Code = 6002
	UnmatchedQuoteDouble Code = 6003

	WhenExpected        Code = 7001
	WhenExpectedFound   Code = 7002
	WhenNoneTrue        Code = 7003
	ThenNoIf            Code = 8001
	ElseNoThen          Code = 8002
	WhenNoSelect        Code = 9001
	OtherwiseNoSelect   Code = 9002
	EndNoBlock          Code = 10001
	EndWrongControl     Code = 10002
	EndNoControl        Code = 10003
	EndSelectName       Code = 10004
	EndAfterThen        Code = 10005
	EndAfterElse        Code = 10006
	EndWrongLabel       Code = 10007
	InvalidCharacter    Code = 13001
	IncompleteDo        Code = 14001
	IncompleteSelect    Code = 14002
	IncompleteThen      Code = 14003
	IncompleteElse      Code = 14004
	InvalidHex          Code = 15001
	InvalidBinary       Code = 15002
	LabelNotFound       Code = 16001
	UnexpectedProcedure Code = 17001
	ThenExpectedIf      Code = 18001
	ThenExpectedWhen    Code = 18002
	SymbolExpected      Code = 19001
	NameExpected        Code = 20001
	ExtraData           Code = 21001
	CallOnKeyword       Code = 25001
	CallOffKeyword      Code = 25002
	SignalOnKeyword     Code = 25003
	SignalOffKeyword    Code = 25004
	AddressWithKeyword  Code = 25005
	ParseKeyword        Code = 25012
	NumericKeyword      Code = 25015
	ProcedureKeyword    Code = 25017
	RaiseKeyword        Code = 25018
	UseKeyword          Code = 25026
	InvalidWhole        Code = 26001
	InvalidDoCount      Code = 26002
	InvalidForCount     Code = 26003
	InvalidDigits       Code = 26005
	InvalidDo           Code = 27001
	InvalidDoStrict     Code = 27002
	LeaveNoLoop         Code = 28001
	IterateNoLoop       Code = 28002
	LeaveName           Code = 28003
	IterateName         Code = 28004
	EnvironmentLong     Code = 29001
	TraceSetting        Code = 24001
	NameNumber          Code = 31002
	NameDot             Code = 31003
	NotLogical          Code = 34001
	InvalidExpression   Code = 35001
	UnmatchedParen      Code = 36001
	UnexpectedComma     Code = 37001
	UnexpectedParen     Code = 37002
	InvalidTemplate     Code = 38001
	InvalidPosition     Code = 38002
	NotEnoughArgs       Code = 40003
	TooManyArgs         Code = 40004
	MissingArg          Code = 40005
	IncorrectCall       Code = 40001
	NonNumeric          Code = 41001
	DivideByZero        Code = 42003
	RoutineNotFound     Code = 43001
	NoResult            Code = 44001
	NoValueReturned     Code = 45001
	InvalidReference    Code = 46001
	NotAStem            Code = 46002
	MethodNotFound      Code = 97001
	NotCollection       Code = 98001
	StreamFailure       Code = 98002
	Directive           Code = 99001
	DirectiveUnknown    Code = 99002
	CallDepth           Code = 11001
	Interrupted         Code = 4001
)

var messages = map[Code]string{
	UnmatchedComment:     "Unmatched comment delimiter (\"/*\")",
	UnmatchedQuoteSingle: "Unmatched single quote (')",
	UnmatchedQuoteDouble: "Unmatched double quote (\")",

	WhenExpected:        "SELECT on line %s requires WHEN",
	WhenExpectedFound:   "SELECT on line %s requires WHEN, OTHERWISE, or END; found %q",
	WhenNoneTrue:        "All WHEN expressions of SELECT on line %s are false; OTHERWISE expected",
	ThenNoIf:            "THEN has no corresponding IF or WHEN clause",
	ElseNoThen:          "ELSE has no corresponding THEN clause",
	WhenNoSelect:        "WHEN has no corresponding SELECT",
	OtherwiseNoSelect:   "OTHERWISE has no corresponding SELECT",
	EndNoBlock:          "END has no corresponding DO, LOOP, or SELECT",
	EndWrongControl:     "END corresponding to %s on line %s must have a symbol following that matches the control variable or label (or no symbol); found %q",
	EndNoControl:        "END corresponding to %s on line %s must not have a symbol following it because there is no control variable or label; found %q",
	EndSelectName:       "END corresponding to SELECT on line %s must not have a symbol following it because there is no label; found %q",
	EndAfterThen:        "END must not immediately follow THEN",
	EndAfterElse:        "END must not immediately follow ELSE",
	EndWrongLabel:       "END corresponding to SELECT on line %s must have a symbol following that matches the SELECT label (or no symbol); found %q",
	InvalidCharacter:    "Incorrect character in program %q",
	IncompleteDo:        "%s instruction on line %s requires matching END",
	IncompleteSelect:    "SELECT instruction on line %s requires matching END",
	IncompleteThen:      "THEN on line %s must be followed by an instruction",
	IncompleteElse:      "ELSE on line %s must be followed by an instruction",
	InvalidHex:          "Incorrect location of whitespace character in hexadecimal string or invalid digit %q",
	InvalidBinary:       "Incorrect location of whitespace character in binary string or invalid digit %q",
	LabelNotFound:       "Label %q not found",
	UnexpectedProcedure: "PROCEDURE is valid only when it is the first instruction executed after an internal CALL or function invocation",
	ThenExpectedIf:      "IF keyword on line %s requires matching THEN clause; found %q",
	ThenExpectedWhen:    "WHEN keyword on line %s requires matching THEN clause; found %q",
	SymbolExpected:      "String or symbol expected after %s keyword",
	NameExpected:        "Symbol expected after %s; found %q",
	ExtraData:           "The clause ended at an unexpected token; found %q",
	CallOnKeyword:       "CALL ON must be followed by one of the keywords %s; found %q",
	CallOffKeyword:      "CALL OFF must be followed by one of the keywords %s; found %q",
	SignalOnKeyword:     "SIGNAL ON must be followed by one of the keywords %s; found %q",
	SignalOffKeyword:    "SIGNAL OFF must be followed by one of the keywords %s; found %q",
	AddressWithKeyword:  "ADDRESS WITH must be followed by one of the keywords INPUT, OUTPUT or ERROR; found %q",
	ParseKeyword:        "PARSE must be followed by one of the keywords ARG, LINEIN, PULL, SOURCE, VALUE, VAR, or VERSION; found %q",
	NumericKeyword:      "NUMERIC must be followed by one of the keywords DIGITS, FORM, or FUZZ; found %q",
	ProcedureKeyword:    "PROCEDURE must be followed by the keyword EXPOSE or nothing; found %q",
	RaiseKeyword:        "RAISE must be followed by a condition name; found %q",
	UseKeyword:          "USE must be followed by the keyword ARG; found %q",
	InvalidWhole:        "Whole number expected; found %q",
	InvalidDoCount:      "DO count must be zero or a positive whole number; found %q",
	InvalidForCount:     "FOR value must be zero or a positive whole number; found %q",
	InvalidDigits:       "NUMERIC DIGITS value must be a positive whole number; found %q",
	InvalidDo:           "Incorrect use of keyword %s in DO clause",
	InvalidDoStrict:     "The control variable of a DO clause must be followed by \"=\", not %q",
	LeaveNoLoop:         "LEAVE is valid only within a repetitive DO loop or labeled block",
	IterateNoLoop:       "ITERATE is valid only within a repetitive DO loop",
	LeaveName:           "Symbol following LEAVE (%q) must either match the label of a current loop or block or be omitted",
	IterateName:         "Symbol following ITERATE (%q) must either match the label of a current loop or be omitted",
	EnvironmentLong:     "Environment name %q exceeds 250 characters",
	TraceSetting:        "TRACE request letter must be one of \"ACEFILNOR\"; found %q",
	NameNumber:          "Variable symbol must not start with a number; found %q",
	NameDot:             "Variable symbol must not start with a \".\"; found %q",
	NotLogical:          "Logical value must be exactly \"0\" or \"1\"; found %q",
	InvalidExpression:   "Incorrect expression detected at %q",
	UnmatchedParen:      "Left parenthesis \"(\" in position %s on line %s requires a corresponding right parenthesis \")\"",
	UnexpectedComma:     "Unexpected \",\"",
	UnexpectedParen:     "Unmatched \")\" in expression",
	InvalidTemplate:     "Incorrect PARSE template detected at %q",
	InvalidPosition:     "Incorrect PARSE position detected at %q",
	NotEnoughArgs:       "Not enough arguments in invocation of %s; minimum expected is %s",
	TooManyArgs:         "Too many arguments in invocation of %s; maximum expected is %s",
	MissingArg:          "Missing argument in invocation of %s; argument %s is required",
	IncorrectCall:       "Incorrect call to routine %s: %s",
	NonNumeric:          "Nonnumeric value (%q) used in arithmetic operation",
	DivideByZero:        "Arithmetic overflow; divisor must not be zero",
	RoutineNotFound:     "Could not find routine %q",
	NoResult:            "No data returned from function %q",
	NoValueReturned:     "Function or message %q did not return data",
	InvalidReference:    "Variable reference argument %s is not a variable reference",
	NotAStem:            "Variable %s must be a stem variable to receive a stem reference",
	MethodNotFound:      "Object %q does not understand message %q",
	NotCollection:       "DO OVER target %q is not a collection",
	StreamFailure:       "Stream %q could not be opened: %s",
	Directive:           "Directive %q is not supported",
	DirectiveUnknown:    "Unknown directive %q",
	CallDepth:           "Control stack full; nesting exceeds %s",
	Interrupted:         "Program interrupted with HALT condition",
}

// Message formats the catalog text for code with the given insert arguments.
func Message(code Code, args ...string) string {
	tmpl, ok := messages[code]
	if !ok {
		return fmt.Sprintf("Error %s %s", code, strings.Join(args, " "))
	}
	n := strings.Count(tmpl, "%s") + strings.Count(tmpl, "%q")
	ins := make([]interface{}, n)
	for i := range ins {
		if i < len(args) {
			ins[i] = args[i]
		} else {
			ins[i] = ""
		}
	}
	return fmt.Sprintf(tmpl, ins...)
}

// Error is a numbered error bound to a source position.
type Error struct {
	Code Code
	Pos  token.Position
	Args []string
}

// Errorf builds an Error for code at pos.
func Errorf(code Code, pos token.Position, args ...string) *Error {
	return &Error{Code: code, Pos: pos, Args: args}
}

// Message returns the formatted text without the location prefix.
func (e *Error) Message() string {
	return Message(e.Code, e.Args...)
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: Error %s: %s", e.Pos, e.Code, e.Message())
}
