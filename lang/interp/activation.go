// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package interp

import (
	"errors"
	"strconv"

	"github.com/ethereum/go-ethereum/log"

	"github.com/probechain/probe-rexx/lang/ast"
	"github.com/probechain/probe-rexx/lang/diag"
	"github.com/probechain/probe-rexx/lang/token"
	"github.com/probechain/probe-rexx/lang/value"
)

// settings are the per-routine options changed by NUMERIC, TRACE, ADDRESS,
// CALL ON and SIGNAL ON. Internal calls work on a copy, so changes are undone
// when they return; INTERPRET shares the settings of its caller.
type settings struct {
	numeric value.Numeric
	trace   traceSetting
	address addressSetting
	traps   map[string]*trap
}

func (s *settings) clone() *settings {
	c := *s
	c.address.with = make(map[string][]ast.Redirect, len(s.address.with))
	for env, r := range s.address.with {
		c.address.with[env] = r
	}
	c.traps = make(map[string]*trap, len(s.traps))
	for name, t := range s.traps {
		cp := *t
		c.traps[name] = &cp
	}
	return &c
}

// completionKind says how an activation ended.
type completionKind int

const (
	completeNormal completionKind = iota // ran off the end of the unit
	completeReturn
	completeExit
	completeLeave   // unmatched LEAVE inside INTERPRET
	completeIterate // unmatched ITERATE inside INTERPRET
	completeSignal  // SIGNAL to a label outside the INTERPRET string
)

type completion struct {
	kind   completionKind
	value  value.Value
	name   string
	line   int
	raised *Condition // RAISE ... EXIT or RETURN: raised again in the caller
}

// activation is the execution context of one unit invocation.
type activation struct {
	in     *Interpreter
	prog   *ast.Program
	unit   *ast.Unit
	parent *activation
	log    log.Logger

	vars *pool
	set  *settings
	args []value.Value // nil entries are omitted arguments

	name      string // routine name for messages and PARSE SOURCE
	callType  string // COMMAND, SUBROUTINE or FUNCTION
	internal  bool   // internal routine: PROCEDURE may start it
	interpret bool   // running an INTERPRET string
	debugging bool   // running input typed at a debug pause

	pc        ast.Index
	blocks    []*doBlock
	started   bool // an instruction other than a label has run
	pending   []*Condition
	condition *Condition // condition being handled, for CONDITION()

	done *completion
}

func (in *Interpreter) newActivation(prog *ast.Program, unit *ast.Unit, vars *pool, set *settings) *activation {
	if vars == nil {
		vars = newPool()
	}
	return &activation{
		in:   in,
		prog: prog,
		unit: unit,
		vars: vars,
		set:  set,
		pc:   unit.First,
		log:  in.log.New("unit", unit.Name),
	}
}

// numeric returns the NUMERIC settings used for arithmetic.
func (a *activation) numeric() *value.Numeric { return &a.set.numeric }

// run executes instructions from a.pc until the unit completes.
func (a *activation) run() (completion, error) {
	a.in.depth++
	defer func() { a.in.depth-- }()
	if a.in.depth > a.in.cfg.MaxCallDepth {
		return completion{}, a.syntax(errorf(diag.CallDepth, strconv.Itoa(a.in.cfg.MaxCallDepth)))
	}
	a.log.Trace("Activation started", "pc", a.pc, "args", len(a.args))
	for a.pc.Valid() {
		err := a.boundary()
		if a.done != nil {
			break
		}
		if err != nil {
			a.unwind(0)
			return completion{}, err
		}
		if !a.pc.Valid() {
			break
		}
		pc := a.pc
		inst := a.unit.At(pc)
		a.traceClause(inst)
		clauseMeter.Mark(1)

		next, err := a.execute(pc, inst)
		if a.done != nil {
			break
		}
		if err != nil {
			next, err = a.recoverFrom(err, inst)
			if err != nil {
				a.unwind(0)
				return completion{}, err
			}
		}
		if inst.Kind != ast.KindLabel {
			a.started = true
		}
		next, err = a.clausePause(pc, inst, next)
		if a.done != nil {
			break
		}
		if err != nil {
			a.unwind(0)
			return completion{}, err
		}
		a.pc = next
	}
	if a.done == nil {
		if err := a.firePending(); err != nil && a.done == nil {
			a.unwind(0)
			return completion{}, err
		}
	}
	a.unwind(0)
	done := completion{kind: completeNormal}
	if a.done != nil {
		done = *a.done
	}
	a.log.Trace("Activation finished", "kind", done.kind)
	return done, nil
}

// boundary runs the checks made between clauses: HALT and delayed CALL
// traps.
func (a *activation) boundary() error {
	if a.in.halted() {
		c := &Condition{Name: "HALT", Code: diag.Interrupted, Description: a.in.ctx.Err().Error()}
		c.bind(a, a.unit.At(a.pc))
		if err := a.raise(c); err != nil {
			t, action := a.disposition(c)
			if action != actionSignal {
				a.unwind(0)
				return err
			}
			next, err := a.signalTrap(t, c)
			if err != nil {
				a.unwind(0)
				return err
			}
			a.pc = next
		}
	}
	return a.firePending()
}

// recoverFrom handles an error returned by an instruction. Conditions trapped
// by SIGNAL ON branch to the trap label, conditions whose default action is
// to be ignored resume with the next instruction; anything else is returned.
func (a *activation) recoverFrom(err error, inst *ast.Instruction) (ast.Index, error) {
	var ie *InternalError
	if errors.As(err, &ie) {
		return ast.NoIndex, err
	}
	c := a.asCondition(err, inst)
	if c == nil {
		return ast.NoIndex, err
	}
	switch t, action := a.disposition(c); action {
	case actionSignal:
		return a.signalTrap(t, c)
	case actionCall:
		a.pending = append(a.pending, c)
		return inst.Next, nil
	case actionIgnore:
		return inst.Next, nil
	}
	return ast.NoIndex, c
}

// complete ends the activation with a RETURN, EXIT or an unmatched transfer
// out of an INTERPRET string.
func (a *activation) complete(kind completionKind, v value.Value, name string) {
	a.done = &completion{kind: kind, value: v, name: name, line: a.line()}
}

// line returns the line of the current instruction.
func (a *activation) line() int {
	if a.pc.Valid() {
		return a.unit.At(a.pc).Loc.Line()
	}
	return 0
}

// syntax converts an error to a SYNTAX condition raised at the current
// instruction. Conditions pass through unchanged.
func (a *activation) syntax(err error) error {
	if err == nil {
		return nil
	}
	var inst *ast.Instruction
	if a.pc.Valid() {
		inst = a.unit.At(a.pc)
	}
	if c := a.asCondition(err, inst); c != nil {
		return c
	}
	return err
}

// execute runs one instruction and returns the index of the next one.
func (a *activation) execute(pc ast.Index, inst *ast.Instruction) (ast.Index, error) {
	switch n := inst.Node.(type) {
	case nil:
		switch inst.Kind {
		case ast.KindLabel, ast.KindNop, ast.KindThen:
			return inst.Next, nil
		}
	case *ast.Assignment:
		v, err := a.eval(n.Value)
		if err != nil {
			return ast.NoIndex, err
		}
		a.traceAssign(n.Target, v)
		return inst.Next, a.assign(n.Target, v)
	case *ast.Message:
		return inst.Next, a.message(n)
	case *ast.Command:
		return inst.Next, a.command(inst, n)
	case *ast.Address:
		return inst.Next, a.address(inst, n)
	case *ast.Call:
		return inst.Next, a.call(inst, n)
	case *ast.Signal:
		return a.signal(inst, n)
	case *ast.Loop:
		return a.enterLoop(pc, n)
	case *ast.Select:
		return a.enterSelect(pc, n)
	case *ast.When:
		return a.when(pc, inst, n)
	case *ast.Otherwise:
		return inst.Next, nil
	case *ast.If:
		return a.ifThen(inst, n)
	case *ast.Then:
		return inst.Next, nil
	case *ast.Else:
		// reached at the end of the THEN branch
		return a.unit.At(n.EndIf).Next, nil
	case *ast.EndIf:
		return a.endIf(inst, n)
	case *ast.End:
		return a.end(pc, inst, n)
	case *ast.LeaveIterate:
		if inst.Kind == ast.KindLeave {
			return a.leave(n.Name)
		}
		return a.iterate(n.Name)
	case *ast.Drop:
		return inst.Next, a.drop(n)
	case *ast.Exit:
		v, err := a.optEval(n.Value)
		if err != nil {
			return ast.NoIndex, err
		}
		a.complete(completeExit, v, "")
		return ast.NoIndex, nil
	case *ast.Return:
		v, err := a.optEval(n.Value)
		if err != nil {
			return ast.NoIndex, err
		}
		a.complete(completeReturn, v, "")
		return ast.NoIndex, nil
	case *ast.Interpret:
		return a.interpretString(inst, n)
	case *ast.Numeric:
		return inst.Next, a.numericInstruction(n)
	case *ast.Say:
		v, err := a.optEval(n.Value)
		if err != nil {
			return ast.NoIndex, err
		}
		s := ""
		if v != nil {
			s = v.String()
		}
		return inst.Next, a.in.say(s)
	case *ast.Queue:
		v, err := a.optEval(n.Value)
		if err != nil {
			return ast.NoIndex, err
		}
		s := ""
		if v != nil {
			s = v.String()
		}
		if inst.Kind == ast.KindPush {
			a.in.queue = append([]string{s}, a.in.queue...)
		} else {
			a.in.queue = append(a.in.queue, s)
		}
		return inst.Next, nil
	case *ast.Trace:
		return inst.Next, a.traceInstruction(n)
	case *ast.Procedure:
		return inst.Next, a.procedure(n)
	case *ast.Raise:
		return a.raiseInstruction(inst, n)
	case *ast.Parse:
		return inst.Next, a.parse(n)
	case *ast.UseArg:
		return inst.Next, a.useArg(n)
	}
	return ast.NoIndex, internalf("instruction %s at line %d has no executor", inst.Kind, inst.Loc.Line())
}

// numericInstruction executes NUMERIC DIGITS, FUZZ and FORM.
func (a *activation) numericInstruction(n *ast.Numeric) error {
	num := a.numeric()
	switch n.Form {
	case "SCIENTIFIC", "ENGINEERING":
		num.Form = n.Form
		return nil
	}
	v, err := a.optEval(n.Value)
	if err != nil {
		return err
	}
	switch n.Option {
	case token.KDIGITS:
		if v == nil {
			num.Digits = value.DefaultDigits
			return nil
		}
		d, ok := value.Whole(num, v)
		if !ok || d < 1 {
			return errorf(diag.InvalidDigits, v.String())
		}
		num.Digits = d
		if num.Fuzz >= d {
			num.Fuzz = 0
		}
	case token.KFUZZ:
		if v == nil {
			num.Fuzz = 0
			return nil
		}
		f, ok := value.Whole(num, v)
		if !ok || f < 0 || f >= num.Digits {
			return errorf(diag.InvalidWhole, v.String())
		}
		num.Fuzz = f
	case token.KFORM:
		form := value.Upper(v.String())
		if form != "SCIENTIFIC" && form != "ENGINEERING" {
			return errorf(diag.NumericKeyword, v.String())
		}
		num.Form = form
	}
	return nil
}
