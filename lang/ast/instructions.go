// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package ast

import (
	"strings"

	"github.com/probechain/probe-rexx/lang/token"
)

// ---------------------------------------------------------------------------
// Assignments, messages and commands
// ---------------------------------------------------------------------------

// Assignment stores Value into Target. For a compound assignment Op is the
// operator and Value already holds "target op expression".
type Assignment struct {
	Target Target
	Op     token.Operator
	Value  Expr
}

// Message is a message instruction. With a nil Value the message is simply
// sent; otherwise Send names an attribute that is assigned Value ("name=").
type Message struct {
	Send  *Send
	Op    token.Operator
	Value Expr
}

// Command passes the value of an expression to the current environment.
type Command struct {
	Expr Expr
}

// ---------------------------------------------------------------------------
// ADDRESS
// ---------------------------------------------------------------------------

// Stream identifies the redirected stream of ADDRESS ... WITH.
type Stream int

const (
	StreamInput Stream = iota
	StreamOutput
	StreamError
)

func (s Stream) String() string {
	switch s {
	case StreamInput:
		return "INPUT"
	case StreamOutput:
		return "OUTPUT"
	}
	return "ERROR"
}

// SourceKind is the kind of object a stream is redirected to.
type SourceKind int

const (
	SourceStem SourceKind = iota
	SourceStream
	SourceUsing
)

func (k SourceKind) String() string {
	switch k {
	case SourceStem:
		return "STEM"
	case SourceStream:
		return "STREAM"
	}
	return "USING"
}

// Redirect is one INPUT, OUTPUT or ERROR clause.
type Redirect struct {
	Stream Stream
	Kind   SourceKind
	Target Expr // stem variable, stream name or object expression
	Append bool // OUTPUT/ERROR APPEND; REPLACE is the default
}

// Address changes the command environment or sends one command to an
// environment. With no Environment and no Dynamic expression it swaps the
// current and previous environments.
type Address struct {
	Environment string
	Dynamic     Expr // ADDRESS VALUE expr or ADDRESS (expr)
	Command     Expr
	With        []Redirect
}

// ---------------------------------------------------------------------------
// CALL and SIGNAL
// ---------------------------------------------------------------------------

// TransferForm distinguishes the CALL and SIGNAL variants.
type TransferForm int

const (
	TransferLabel   TransferForm = iota // CALL name / SIGNAL name
	TransferDynamic                     // CALL (expr) / SIGNAL VALUE expr
	TransferOn                          // CALL ON / SIGNAL ON
	TransferOff                         // CALL OFF / SIGNAL OFF
)

// Call is a CALL instruction.
type Call struct {
	Form      TransferForm
	Name      string // routine or label name
	Namespace string // ns:name; never matched against labels
	Quoted    bool   // name given as a literal string
	Dynamic   Expr
	Args      []Expr

	Condition string // ON/OFF condition name (USER conditions prefixed "USER ")
	Target    Index  // resolved label, NoIndex when not found
	Resolved  bool
}

// Signal is a SIGNAL instruction.
type Signal struct {
	Form      TransferForm
	Name      string
	Dynamic   Expr
	Condition string
	Target    Index
	Resolved  bool
}

// TrapName returns the label a trap instruction branches to: the NAME
// option or the condition name itself.
func TrapName(condition, name string) string {
	if name != "" {
		return name
	}
	if len(condition) > 5 && condition[:5] == "USER " {
		return condition[5:]
	}
	return condition
}

// ---------------------------------------------------------------------------
// Blocks
// ---------------------------------------------------------------------------

// LoopKind is the repetition form of a DO or LOOP instruction.
type LoopKind int

const (
	LoopSimple     LoopKind = iota // DO ... END, executes once
	LoopForever                    // DO FOREVER, LOOP
	LoopControlled                 // DO i = start [TO] [BY] [FOR]
	LoopOver                       // DO v OVER collection [FOR]
	LoopWith                       // DO WITH INDEX i ITEM v OVER supplier [FOR]
	LoopCount                      // DO expr
)

var loopKindNames = [...]string{"SIMPLE", "FOREVER", "CONTROLLED", "OVER", "WITH", "COUNT"}

func (k LoopKind) String() string {
	if k >= 0 && int(k) < len(loopKindNames) {
		return loopKindNames[k]
	}
	return "?"
}

// CondKind says whether a loop carries a WHILE or an UNTIL condition.
type CondKind int

const (
	CondNone CondKind = iota
	CondWhile
	CondUntil
)

// ControlPart is one of the TO, BY, FOR phrases of a controlled loop.
type ControlPart int

const (
	PartTo ControlPart = iota
	PartBy
	PartFor
)

// Loop is the block data of DO and LOOP.
type Loop struct {
	Keyword string // DO or LOOP
	Kind    LoopKind
	Label   string // LABEL name
	Counter Target // COUNTER variable, nil if absent

	Control Target // control variable of controlled and OVER loops
	Initial Expr
	To      Expr
	By      Expr
	For     Expr
	Order   []ControlPart // evaluation order of TO, BY and FOR as written

	Over  Expr   // OVER collection
	Index Target // WITH INDEX variable, may be nil
	Item  Target // WITH ITEM variable, may be nil

	Count Expr // repetition count of the count form

	Cond     CondKind
	CondExpr Expr

	End Index // matching END
}

// Repetitive reports whether the block loops.
func (l *Loop) Repetitive() bool { return l.Kind != LoopSimple }

// Select is a SELECT instruction.
type Select struct {
	Label     string
	Case      Expr // SELECT CASE expression, nil for a plain SELECT
	Whens     []Index
	Otherwise Index
	End       Index
}

// When is a WHEN clause. A plain WHEN carries a logical list; a WHEN inside
// SELECT CASE carries the values compared with the case value.
type When struct {
	Conditions []Expr
	Cases      []Expr
	Select     Index
	EndIf      Index // where control goes when the WHEN does not match
	End        Index // END of the SELECT, bound when the END is matched
}

// Otherwise is the OTHERWISE clause of a SELECT.
type Otherwise struct {
	Select Index
}

// If is an IF instruction. Else addresses the ELSE clause, or the ENDIF
// marker when there is none.
type If struct {
	Conditions []Expr
	Else       Index
}

// Else is the ELSE clause of an IF. EndIf addresses the marker that ends the
// ELSE branch.
type Else struct {
	If    Index
	EndIf Index
}

// EndStyle is fixed when a terminator is matched with its opener and tells
// the interpreter what to do when control reaches it.
type EndStyle int

const (
	EndNone            EndStyle = iota
	EndLoop                     // END of a repetitive DO or LOOP: iterate
	EndBlock                    // END of a simple DO: close the block
	EndSelect                   // END of a SELECT without OTHERWISE: no WHEN matched
	EndSelectOtherwise          // END of a SELECT with OTHERWISE: close the block
	EndIfPlain                  // ENDIF after an IF branch: fall through
	EndIfWhen                   // ENDIF after a WHEN branch: leave the SELECT
)

var endStyleNames = [...]string{"", "LOOP", "BLOCK", "SELECT", "SELECT-OTHERWISE", "IF", "WHEN"}

func (s EndStyle) String() string {
	if s >= 0 && int(s) < len(endStyleNames) {
		return endStyleNames[s]
	}
	return "?"
}

// End closes a DO, LOOP or SELECT.
type End struct {
	Name  string
	Style EndStyle
	Block Index
}

// EndIf marks the end of an IF or WHEN construct.
type EndIf struct {
	Style  EndStyle
	Owner  Index // IF or WHEN
	Select Index // enclosing SELECT for EndIfWhen
}

// Then marks the start of an IF or WHEN branch.
type Then struct {
	Owner Index
}

// ---------------------------------------------------------------------------
// Simple instructions
// ---------------------------------------------------------------------------

// Drop lists the variables to drop. Indirect lists name a variable whose
// value holds further names.
type Drop struct {
	Targets  []Target
	Indirect []bool
}

// Exit ends the program.
type Exit struct {
	Value Expr
}

// Return ends the current routine.
type Return struct {
	Value Expr
}

// Interpret executes a string as program text.
type Interpret struct {
	Expr Expr
}

// LeaveIterate is the data of LEAVE and ITERATE.
type LeaveIterate struct {
	Name string
}

// Numeric sets DIGITS, FUZZ or FORM.
type Numeric struct {
	Option token.Keyword
	Value  Expr
	Form   string // SCIENTIFIC or ENGINEERING when given literally
}

// Say writes a line to the output.
type Say struct {
	Value Expr
}

// Queue is the data of PUSH and QUEUE.
type Queue struct {
	Value Expr
}

// Trace changes the trace setting.
type Trace struct {
	Setting string
	Dynamic Expr
}

// NormalizeTrace checks a TRACE setting and reduces it to its prefix and
// option letter, so "?Results" becomes "?R". Each "?" toggles interactive
// debug. A whole number is valid and yields "", leaving the setting alone.
func NormalizeTrace(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	i := 0
	for i < len(s) && s[i] == '?' {
		i++
	}
	rest := s[i:]
	if rest == "" {
		return s, true
	}
	if isWhole(rest) {
		return "", true
	}
	if !strings.ContainsRune("ACEFILNOR", rune(rest[0])) {
		return "", false
	}
	return s[:i] + rest[:1], true
}

func isWhole(s string) bool {
	if s[0] == '-' || s[0] == '+' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Procedure starts a new variable scope exposing the given names.
type Procedure struct {
	Expose   []Target
	Indirect []bool
}

// Raise raises a condition.
type Raise struct {
	Condition   string
	Code        Expr // rc for ERROR and FAILURE, error number for SYNTAX
	Description Expr
	Additional  Expr
	Exit        bool // RETURN or EXIT option given
	Return      bool
	Result      Expr
}

// ---------------------------------------------------------------------------
// PARSE and USE ARG
// ---------------------------------------------------------------------------

// ParseSource is the string a PARSE instruction splits.
type ParseSource int

const (
	ParseArg ParseSource = iota
	ParsePull
	ParseLinein
	ParseSourceInfo
	ParseVersion
	ParseVar
	ParseValue
)

var parseSourceNames = [...]string{"ARG", "PULL", "LINEIN", "SOURCE", "VERSION", "VAR", "VALUE"}

func (s ParseSource) String() string {
	if s >= 0 && int(s) < len(parseSourceNames) {
		return parseSourceNames[s]
	}
	return "?"
}

// Casing is the translation applied to the parsed string.
type Casing int

const (
	CaseAsIs Casing = iota
	CaseUpper
	CaseLower
)

// ItemKind classifies a template element.
type ItemKind int

const (
	ItemTarget   ItemKind = iota // variable receiving a word or section
	ItemDummy                    // "." placeholder
	ItemAbsolute                 // =n or n
	ItemRelative                 // +n or -n
	ItemPattern                  // 'literal' or (variable)
)

// TemplateItem is one element of a parse template. Positions and patterns
// are triggers; targets receive the text between triggers.
type TemplateItem struct {
	Kind   ItemKind
	Target Target // ItemTarget
	Value  Expr   // trigger value: literal or parenthesised variable
	Sign   int    // ItemRelative: +1 or -1
}

// Template is the part of a parse template between commas.
type Template struct {
	Items []TemplateItem
}

// Parse is PARSE, ARG and PULL.
type Parse struct {
	Source    ParseSource
	Casing    Casing
	Caseless  bool
	Var       Target // PARSE VAR
	Value     Expr   // PARSE VALUE ... WITH
	Templates []Template
}

// UseParam is one position of a USE ARG list. A nil Target skips the
// position.
type UseParam struct {
	Target    Target
	Reference bool // >name or <name
	Default   Expr
}

// UseArg is USE [STRICT] ARG.
type UseArg struct {
	Strict   bool
	Params   []UseParam
	Ellipsis bool // trailing "..." accepts any number of extra arguments
}

func (*Assignment) node()   {}
func (*Message) node()      {}
func (*Command) node()      {}
func (*Address) node()      {}
func (*Call) node()         {}
func (*Signal) node()       {}
func (*Loop) node()         {}
func (*Select) node()       {}
func (*When) node()         {}
func (*Otherwise) node()    {}
func (*If) node()           {}
func (*Else) node()         {}
func (*End) node()          {}
func (*EndIf) node()        {}
func (*Then) node()         {}
func (*Drop) node()         {}
func (*Exit) node()         {}
func (*Return) node()       {}
func (*Interpret) node()    {}
func (*LeaveIterate) node() {}
func (*Numeric) node()      {}
func (*Say) node()          {}
func (*Queue) node()        {}
func (*Trace) node()        {}
func (*Procedure) node()    {}
func (*Raise) node()        {}
func (*Parse) node()        {}
func (*UseArg) node()       {}
