// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package interp

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/probechain/probe-rexx/lang/ast"
	"github.com/probechain/probe-rexx/lang/diag"
	"github.com/probechain/probe-rexx/lang/value"
)

// TraceKind classifies a trace event.
type TraceKind int

const (
	TraceClause      TraceKind = iota // a clause about to run
	TraceResult                       // final value of an expression
	TraceAssign                       // value assigned to a variable
	TraceLiteral                      // literal or constant symbol
	TraceVariable                     // simple or stem variable
	TraceCompound                     // compound variable, Name carries the derived name
	TraceEnvironment                  // environment symbol
	TraceOperator                     // infix operator result
	TracePrefix                       // prefix operator result
	TraceFunction                     // function result
	TraceMessage                      // message result
	TraceCommand                      // non-zero return code of a command
	TraceError                        // message of a condition ending the program
)

var traceTags = [...]string{
	TraceClause:      "*-*",
	TraceResult:      ">>>",
	TraceAssign:      ">=>",
	TraceLiteral:     ">L>",
	TraceVariable:    ">V>",
	TraceCompound:    ">C>",
	TraceEnvironment: ">E>",
	TraceOperator:    ">O>",
	TracePrefix:      ">P>",
	TraceFunction:    ">F>",
	TraceMessage:     ">M>",
	TraceCommand:     "+++",
	TraceError:       "+++",
}

// Tag returns the prefix the kind is printed with.
func (k TraceKind) Tag() string {
	if k >= 0 && int(k) < len(traceTags) {
		return traceTags[k]
	}
	return "???"
}

// TraceEvent is one line of trace output.
type TraceEvent struct {
	Kind  TraceKind
	Unit  string
	Line  int
	Inst  ast.Kind
	Name  string // operator, variable, function or message name
	Value string // computed result
	Text  string // source text of a clause
}

// TraceSink receives trace events.
type TraceSink interface {
	Trace(ev TraceEvent)
}

// TraceFunc adapts a function to a TraceSink.
type TraceFunc func(ev TraceEvent)

func (f TraceFunc) Trace(ev TraceEvent) { f(ev) }

type traceWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTraceWriter returns a sink printing events in the classic layout:
//
//	     3 *-* say a + b
//	       >O>   "+" => "3"
func NewTraceWriter(w io.Writer) TraceSink {
	return &traceWriter{w: w}
}

func (t *traceWriter) Trace(ev TraceEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch ev.Kind {
	case TraceClause:
		fmt.Fprintf(t.w, "%6d %s %s\n", ev.Line, ev.Kind.Tag(), ev.Text)
	case TraceAssign:
		fmt.Fprintf(t.w, "       %s   %s <= %q\n", ev.Kind.Tag(), ev.Name, ev.Value)
	case TraceCommand:
		fmt.Fprintf(t.w, "       %s   RC(%s) %s\n", ev.Kind.Tag(), ev.Value, ev.Kind.Tag())
	case TraceError:
		fmt.Fprintf(t.w, "%6d %s %s\n", ev.Line, ev.Kind.Tag(), ev.Text)
	case TraceResult, TraceLiteral:
		fmt.Fprintf(t.w, "       %s   %q\n", ev.Kind.Tag(), ev.Value)
	default:
		fmt.Fprintf(t.w, "       %s   %s => %q\n", ev.Kind.Tag(), ev.Name, ev.Value)
	}
}

// traceSetting is the active TRACE option.
type traceSetting struct {
	option      byte // one of ACEFILNOR
	interactive bool
}

// parseTrace builds a setting from scratch.
func parseTrace(s string) (traceSetting, bool) {
	return traceSetting{option: 'N'}.apply(s)
}

// apply changes the setting by a TRACE request. Every "?" toggles
// interactive debug; a whole number leaves the setting unchanged.
func (t traceSetting) apply(s string) (traceSetting, bool) {
	norm, ok := ast.NormalizeTrace(s)
	if !ok {
		return t, false
	}
	if norm == "" {
		return t, true
	}
	q := strings.Count(norm, "?")
	if q%2 == 1 {
		t.interactive = !t.interactive
	}
	if rest := norm[q:]; rest != "" {
		t.option = rest[0]
		if t.option == 'O' {
			t.interactive = false
		}
	}
	return t, true
}

func (t traceSetting) String() string {
	s := string(t.option)
	if t.interactive {
		s = "?" + s
	}
	return s
}

func (t traceSetting) clauses() bool {
	return t.option == 'A' || t.option == 'R' || t.option == 'I'
}

func (t traceSetting) labels() bool { return t.option == 'L' || t.clauses() }

func (t traceSetting) results() bool { return t.option == 'R' || t.option == 'I' }

func (t traceSetting) intermediates() bool { return t.option == 'I' }

// commands reports whether the command itself is traced.
func (t traceSetting) commands() bool { return t.option == 'C' || t.clauses() }

// commandResult reports whether a command ending with rc is traced
// afterwards.
func (t traceSetting) commandResult(rc int) bool {
	switch t.option {
	case 'O':
		return false
	case 'E':
		return rc != 0
	case 'F', 'N':
		return rc < 0
	}
	return rc != 0
}

// traced reports whether inst produces a clause event.
func (t traceSetting) traced(inst *ast.Instruction) bool {
	switch inst.Kind {
	case ast.KindLabel:
		return t.labels()
	case ast.KindEndIf:
		return false
	case ast.KindCommand:
		return t.commands()
	}
	return t.clauses()
}

func (a *activation) emit(ev TraceEvent) {
	sink := a.in.cfg.Tracer
	if sink == nil {
		return
	}
	ev.Unit = a.unit.Name
	if ev.Line == 0 {
		ev.Line = a.line()
	}
	sink.Trace(ev)
}

// traceClause reports the clause about to run.
func (a *activation) traceClause(inst *ast.Instruction) {
	if !a.set.trace.traced(inst) {
		return
	}
	a.emit(TraceEvent{
		Kind: TraceClause,
		Line: inst.Loc.Line(),
		Inst: inst.Kind,
		Text: strings.TrimSpace(a.unit.Source(inst.Loc.Line())),
	})
}

func (a *activation) traceResult(v value.Value) {
	if a.set.trace.results() {
		a.emit(TraceEvent{Kind: TraceResult, Value: v.String()})
	}
}

func (a *activation) traceAssign(t ast.Target, v value.Value) {
	if !a.set.trace.results() {
		return
	}
	name := t.String()
	if c, ok := t.(*ast.Compound); ok {
		name = c.Stem + a.tail(c)
	}
	a.emit(TraceEvent{Kind: TraceAssign, Name: name, Value: v.String()})
}

// traceIntermediate reports a partial result under TRACE I.
func (a *activation) traceIntermediate(kind TraceKind, name string, v value.Value) {
	if !a.set.trace.intermediates() || v == nil {
		return
	}
	a.emit(TraceEvent{Kind: kind, Name: name, Value: v.String()})
}

// traceInstruction executes TRACE.
func (a *activation) traceInstruction(n *ast.Trace) error {
	setting := n.Setting
	if n.Dynamic != nil {
		v, err := a.eval(n.Dynamic)
		if err != nil {
			return err
		}
		setting = v.String()
	}
	t, ok := a.set.trace.apply(setting)
	if !ok {
		return errorf(diag.TraceSetting, setting)
	}
	a.set.trace = t
	return nil
}

// ---------------------------------------------------------------------------
// Interactive debug
// ---------------------------------------------------------------------------

// DebugAction is the answer to an interactive debug pause.
type DebugAction int

const (
	DebugContinue  DebugAction = iota // run the next clause
	DebugReexecute                    // run the clause just traced again
	DebugInterpret                    // interpret Input, then pause again
	DebugHalt                         // raise HALT
)

// DebugCommand is what a DebugHook returns.
type DebugCommand struct {
	Action DebugAction
	Input  string
}

// PauseEvent describes the clause execution paused after.
type PauseEvent struct {
	Unit string
	Line int
	Inst ast.Kind
	Text string
	// Block is set when the pause is at the entry to a block or at the
	// END of a loop that is about to repeat.
	Block bool
}

// DebugHook is consulted after each traced clause while interactive trace
// is on.
type DebugHook interface {
	Pause(ev PauseEvent) DebugCommand
}

// DebugFunc adapts a function to a DebugHook.
type DebugFunc func(ev PauseEvent) DebugCommand

func (f DebugFunc) Pause(ev PauseEvent) DebugCommand { return f(ev) }

// clausePause runs the interactive debug pause after inst and returns the
// instruction to run next. Re-executing a block instruction, or the END of
// a loop going round again, tears the block down and runs the DO or SELECT
// again from the start.
func (a *activation) clausePause(pc ast.Index, inst *ast.Instruction, next ast.Index) (ast.Index, error) {
	hook := a.in.cfg.Debug
	if hook == nil || !a.set.trace.interactive || a.debugging || !a.set.trace.traced(inst) {
		return next, nil
	}
	block, opener := a.pausedBlock(pc, inst)
	ev := PauseEvent{
		Unit:  a.unit.Name,
		Line:  inst.Loc.Line(),
		Inst:  inst.Kind,
		Text:  strings.TrimSpace(a.unit.Source(inst.Loc.Line())),
		Block: opener.Valid(),
	}
	for {
		cmd := hook.Pause(ev)
		switch cmd.Action {
		case DebugContinue:
			return next, nil
		case DebugReexecute:
			if !opener.Valid() {
				if inst.Kind == ast.KindEnd {
					// the block has already closed
					return next, nil
				}
				return pc, nil
			}
			if block != nil {
				a.unwindTo(block)
				a.terminate(block)
			}
			return opener, nil
		case DebugInterpret:
			if err := a.debugInterpret(cmd.Input); err != nil {
				a.emit(TraceEvent{Kind: TraceError, Line: inst.Loc.Line(), Text: err.Error()})
			}
			if a.done != nil || !a.set.trace.interactive {
				return next, nil
			}
		case DebugHalt:
			c := &Condition{Name: "HALT", Code: diag.Interrupted, Description: "debug halt"}
			c.bind(a, inst)
			return a.recoverFrom(c, inst)
		}
	}
}

// pausedBlock returns the block the pause is at the entry or re-entry of,
// with the index of its opening instruction. block is nil when a DO closed
// immediately; opener is NoIndex when inst is not a block entry point.
func (a *activation) pausedBlock(pc ast.Index, inst *ast.Instruction) (*doBlock, ast.Index) {
	top := a.top()
	switch n := inst.Node.(type) {
	case *ast.Loop, *ast.Select:
		if top != nil && top.index == pc {
			return top, pc
		}
		return nil, pc
	case *ast.End:
		if n.Style == ast.EndLoop && top != nil && top.index == n.Block {
			return top, n.Block
		}
	}
	return nil, ast.NoIndex
}
