// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package ast defines the compiled form of a program: an arena of
// instructions addressed by index, each linked to its successor, with block
// instructions bound to their terminators.
//
// A Unit is produced by the parser, finished by Resolve and never modified
// afterwards, so a single Unit may be executed by several interpreters at
// once.
package ast

import (
	"fmt"

	"github.com/probechain/probe-rexx/lang/token"
)

// Index addresses an instruction inside its unit's arena.
type Index int

// NoIndex marks an absent link.
const NoIndex Index = -1

// Valid reports whether i addresses an instruction.
func (i Index) Valid() bool { return i >= 0 }

// Location is the source extent of an instruction.
type Location struct {
	Start token.Position
	End   token.Position
}

func (l Location) String() string { return l.Start.String() }

// Line returns the first line of the instruction.
func (l Location) Line() int { return l.Start.Line }

// Kind is the instruction tag.
type Kind int

const (
	KindInvalid Kind = iota
	KindLabel
	KindAssignment
	KindMessage
	KindCommand
	KindAddress
	KindCall
	KindDo
	KindDrop
	KindElse
	KindEnd
	KindEndIf
	KindExit
	KindIf
	KindInterpret
	KindIterate
	KindLeave
	KindNop
	KindNumeric
	KindOtherwise
	KindParse
	KindProcedure
	KindPush
	KindQueue
	KindRaise
	KindReturn
	KindSay
	KindSelect
	KindSignal
	KindThen
	KindTrace
	KindUseArg
	KindWhen
	kindEnd
)

var kindNames = [...]string{
	KindInvalid:    "INVALID",
	KindLabel:      "LABEL",
	KindAssignment: "ASSIGNMENT",
	KindMessage:    "MESSAGE",
	KindCommand:    "COMMAND",
	KindAddress:    "ADDRESS",
	KindCall:       "CALL",
	KindDo:         "DO",
	KindDrop:       "DROP",
	KindElse:       "ELSE",
	KindEnd:        "END",
	KindEndIf:      "ENDIF",
	KindExit:       "EXIT",
	KindIf:         "IF",
	KindInterpret:  "INTERPRET",
	KindIterate:    "ITERATE",
	KindLeave:      "LEAVE",
	KindNop:        "NOP",
	KindNumeric:    "NUMERIC",
	KindOtherwise:  "OTHERWISE",
	KindParse:      "PARSE",
	KindProcedure:  "PROCEDURE",
	KindPush:       "PUSH",
	KindQueue:      "QUEUE",
	KindRaise:      "RAISE",
	KindReturn:     "RETURN",
	KindSay:        "SAY",
	KindSelect:     "SELECT",
	KindSignal:     "SIGNAL",
	KindThen:       "THEN",
	KindTrace:      "TRACE",
	KindUseArg:     "USE",
	KindWhen:       "WHEN",
}

func (k Kind) String() string {
	if k >= 0 && k < kindEnd {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Valid reports whether k is a known instruction kind.
func (k Kind) Valid() bool { return k > KindInvalid && k < kindEnd }

// IsBlock reports whether instructions of kind k open a block closed by END.
func (k Kind) IsBlock() bool { return k == KindDo || k == KindSelect }

// Instruction is one node of the instruction graph.
type Instruction struct {
	Kind  Kind
	Loc   Location
	Next  Index  // successor in the chain, NoIndex at the end of the unit
	Label string // label name for KindLabel
	Node  Node   // kind specific data, nil for LABEL, NOP and THEN
}

// Node is the kind specific part of an instruction.
type Node interface {
	node()
}

// RefKind classifies a forward reference.
type RefKind int

const (
	RefCall RefKind = iota
	RefSignal
	RefCallOn
	RefSignalOn
)

func (k RefKind) String() string {
	switch k {
	case RefCall:
		return "CALL"
	case RefSignal:
		return "SIGNAL"
	case RefCallOn:
		return "CALL ON"
	case RefSignalOn:
		return "SIGNAL ON"
	}
	return "?"
}

// ForwardRef is an instruction whose label target is bound by Resolve.
type ForwardRef struct {
	Inst Index
	Kind RefKind
}

// Unit is one executable unit: the main program, a ::ROUTINE or an
// INTERPRET string.
type Unit struct {
	Name  string
	Lines []string // source lines, for tracing
	Code  []Instruction
	First Index

	// Labels maps label names to the first label instruction of that name.
	Labels map[string]Index

	// Conditions maps condition names to the CALL ON / SIGNAL ON
	// instructions naming them, in source order.
	Conditions map[string][]Index

	// ForwardRefs lists the instructions awaiting label binding. It is empty
	// once Resolve has run.
	ForwardRefs []ForwardRef
}

// NewUnit returns an empty unit.
func NewUnit(name string) *Unit {
	return &Unit{
		Name:       name,
		First:      NoIndex,
		Labels:     make(map[string]Index),
		Conditions: make(map[string][]Index),
	}
}

// At returns the instruction at index i.
func (u *Unit) At(i Index) *Instruction { return &u.Code[i] }

// Add appends an instruction to the arena and returns its index. The new
// instruction has no successor yet.
func (u *Unit) Add(kind Kind, loc Location, node Node) Index {
	u.Code = append(u.Code, Instruction{Kind: kind, Loc: loc, Next: NoIndex, Node: node})
	return Index(len(u.Code) - 1)
}

// Source returns the source text of line, or "".
func (u *Unit) Source(line int) string {
	if line < 1 || line > len(u.Lines) {
		return ""
	}
	return u.Lines[line-1]
}

// Program is a main unit plus the routines defined by directives.
type Program struct {
	Name     string
	Main     *Unit
	Routines map[string]*Unit
	Public   map[string]bool
	Requires []string
}

// NewProgram returns a program with the given main unit.
func NewProgram(name string, main *Unit) *Program {
	return &Program{
		Name:     name,
		Main:     main,
		Routines: make(map[string]*Unit),
		Public:   make(map[string]bool),
	}
}

// Routine returns the ::ROUTINE unit called name.
func (p *Program) Routine(name string) (*Unit, bool) {
	u, ok := p.Routines[name]
	return u, ok
}
