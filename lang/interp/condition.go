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
	"fmt"
	"strconv"
	"strings"

	"github.com/probechain/probe-rexx/lang/ast"
	"github.com/probechain/probe-rexx/lang/diag"
	"github.com/probechain/probe-rexx/lang/parser"
	"github.com/probechain/probe-rexx/lang/token"
	"github.com/probechain/probe-rexx/lang/value"
)

// Condition is a run-time condition. An untrapped condition that ends the
// program is returned by Interpreter.Run.
type Condition struct {
	Name        string    // SYNTAX, ERROR, HALT, ... or "USER name"
	Code        diag.Code // error number of SYNTAX conditions
	Description string
	Additional  value.Value
	RC          int // return code of ERROR and FAILURE
	Pos         token.Position
	Unit        string

	// Instruction is CALL or SIGNAL once a trap has caught the condition.
	Instruction string

	err *diag.Error
}

func (c *Condition) Error() string {
	if c.Name == "SYNTAX" && c.err != nil {
		return fmt.Sprintf("%s: Error %s running %s: %s", c.Pos, c.Code, c.Unit, c.err.Message())
	}
	if c.Description != "" {
		return fmt.Sprintf("%s: condition %s raised: %s", c.Pos, c.Name, c.Description)
	}
	return fmt.Sprintf("%s: condition %s raised", c.Pos, c.Name)
}

// Unwrap returns the numbered error behind a SYNTAX condition.
func (c *Condition) Unwrap() error {
	if c.err == nil {
		return nil
	}
	return c.err
}

// Message returns the catalog text of a SYNTAX condition.
func (c *Condition) Message() string {
	if c.err != nil {
		return c.err.Message()
	}
	return c.Description
}

// bind records where the condition was raised.
func (c *Condition) bind(a *activation, inst *ast.Instruction) {
	if inst != nil {
		c.Pos = inst.Loc.Start
	}
	c.Unit = a.unit.Name
}

// IsSyntax reports whether err is a SYNTAX condition with the given code.
func IsSyntax(err error, code diag.Code) bool {
	var c *Condition
	return errors.As(err, &c) && c.Name == "SYNTAX" && c.Code == code
}

// asCondition converts err to a condition. Numbered errors become SYNTAX
// conditions raised at inst; nil is returned for other errors.
func (a *activation) asCondition(err error, inst *ast.Instruction) *Condition {
	var c *Condition
	if errors.As(err, &c) {
		return c
	}
	var de *diag.Error
	if !errors.As(err, &de) {
		return nil
	}
	c = &Condition{Name: "SYNTAX", Code: de.Code, Description: de.Message(), err: de}
	c.bind(a, inst)
	if de.Pos.Line == 0 && inst != nil {
		de.Pos = inst.Loc.Start
	}
	if de.Pos.File == "" {
		de.Pos.File = a.unit.Name
	}
	return c
}

// trap is an enabled CALL ON or SIGNAL ON.
type trap struct {
	call    bool
	label   string
	unit    *ast.Unit
	target  ast.Index
	delayed bool // CALL trap whose handler is running
}

type action int

const (
	actionTerminate action = iota
	actionIgnore
	actionSignal
	actionCall
)

// callable lists the conditions CALL ON can trap.
func callable(name string) bool {
	return parser.CallConditions.Contains(conditionKey(name))
}

// conditionKey strips the user condition name.
func conditionKey(name string) string {
	if strings.HasPrefix(name, "USER ") {
		return "USER"
	}
	return name
}

// disposition decides what happens to a raised condition: the enabled trap
// for it (or for ANY), otherwise the default action of the condition.
func (a *activation) disposition(c *Condition) (*trap, action) {
	t := a.set.traps[c.Name]
	if t == nil && c.Name == "FAILURE" {
		// an untrapped FAILURE is raised as ERROR
		if t = a.set.traps["ERROR"]; t != nil {
			c.Name = "ERROR"
		}
	}
	if t == nil {
		if anyTrap := a.set.traps["ANY"]; anyTrap != nil && (!anyTrap.call || callable(c.Name)) {
			t = anyTrap
		}
	}
	if t != nil && !t.delayed {
		if t.call {
			if callable(c.Name) {
				return t, actionCall
			}
		} else {
			return t, actionSignal
		}
	}
	switch conditionKey(c.Name) {
	case "SYNTAX", "HALT", "NOMETHOD":
		return nil, actionTerminate
	}
	return nil, actionIgnore
}

// raise signals c where it occurred. A nil result means execution continues
// with the current instruction: the condition was ignored or a CALL trap was
// scheduled for the next clause boundary.
func (a *activation) raise(c *Condition) error {
	conditionMeter.Mark(1)
	a.log.Debug("Condition raised", "name", c.Name, "line", c.Pos.Line)
	switch _, act := a.disposition(c); act {
	case actionCall:
		a.pending = append(a.pending, c)
		return nil
	case actionIgnore:
		return nil
	}
	return c
}

// signalTrap fires a SIGNAL ON trap: the trap is disabled, every active
// block is terminated and control moves to the trap label.
func (a *activation) signalTrap(t *trap, c *Condition) (ast.Index, error) {
	trapName := c.Name
	if a.set.traps[trapName] != t {
		trapName = "ANY"
	}
	delete(a.set.traps, trapName)
	c.Instruction = "SIGNAL"
	a.condition = c
	a.log.Debug("Signal trap fired", "condition", c.Name, "label", t.label)

	a.unwind(0)
	a.setSIGL(c.Pos.Line)
	if c.Name == "SYNTAX" {
		a.vars.set("RC", value.String(strconv.Itoa(c.Code.Major())))
	}
	if !t.target.Valid() {
		target, ok := t.unit.Labels[t.label]
		if !ok {
			err := diag.Errorf(diag.LabelNotFound, c.Pos, t.label)
			return ast.NoIndex, &Condition{Name: "SYNTAX", Code: err.Code, Description: err.Message(), Pos: c.Pos, Unit: a.unit.Name, err: err}
		}
		t.target = target
	}
	if t.unit != a.unit {
		// the label lives in the program that is interpreting this string
		a.complete(completeSignal, nil, t.label)
		return ast.NoIndex, nil
	}
	return t.target, nil
}

// firePending runs the handlers of CALL traps delayed to the clause
// boundary.
func (a *activation) firePending() error {
	for len(a.pending) > 0 {
		c := a.pending[0]
		a.pending = a.pending[1:]
		t, act := a.disposition(c)
		if act != actionCall {
			continue
		}
		c.Instruction = "CALL"
		t.delayed = true
		a.log.Debug("Call trap fired", "condition", c.Name, "label", t.label)
		target := t.target
		if !target.Valid() {
			var ok bool
			if target, ok = t.unit.Labels[t.label]; !ok {
				t.delayed = false
				return a.syntax(errorf(diag.LabelNotFound, t.label))
			}
		}
		_, err := a.internalCall(t.unit, target, t.label, nil, "SUBROUTINE", c.Pos.Line, c)
		t.delayed = false
		if err != nil {
			return err
		}
	}
	return nil
}

// trapOn enables or disables a trap for CALL ON/OFF and SIGNAL ON/OFF.
func (a *activation) trapOn(form ast.TransferForm, call bool, condition, name string, target ast.Index) {
	if form == ast.TransferOff {
		delete(a.set.traps, condition)
		return
	}
	a.set.traps[condition] = &trap{
		call:   call,
		label:  ast.TrapName(condition, name),
		unit:   a.unit,
		target: target,
	}
}

// raiseInstruction executes RAISE.
func (a *activation) raiseInstruction(inst *ast.Instruction, n *ast.Raise) (ast.Index, error) {
	c := &Condition{Name: n.Condition}
	c.bind(a, inst)
	if n.Code != nil {
		v, err := a.eval(n.Code)
		if err != nil {
			return ast.NoIndex, err
		}
		switch n.Condition {
		case "SYNTAX":
			code, ok := errorNumber(v.String())
			if !ok {
				return ast.NoIndex, errorf(diag.InvalidWhole, v.String())
			}
			c.Code = code
		default:
			rc, ok := value.Whole(a.numeric(), v)
			if !ok {
				return ast.NoIndex, errorf(diag.InvalidWhole, v.String())
			}
			c.RC = rc
		}
	}
	if n.Description != nil {
		v, err := a.eval(n.Description)
		if err != nil {
			return ast.NoIndex, err
		}
		c.Description = v.String()
	}
	if n.Additional != nil {
		v, err := a.eval(n.Additional)
		if err != nil {
			return ast.NoIndex, err
		}
		c.Additional = v
	}
	if c.Name == "SYNTAX" {
		var args []string
		if arr, ok := c.Additional.(*value.Array); ok {
			for _, v := range arr.OverItems() {
				args = append(args, v.String())
			}
		}
		c.err = diag.Errorf(c.Code, c.Pos, args...)
		if c.Description == "" {
			c.Description = c.err.Message()
		}
	}
	if n.Exit || n.Return {
		// the condition is raised again in the caller once this activation
		// has completed
		result, err := a.optEval(n.Result)
		if err != nil {
			return ast.NoIndex, err
		}
		kind := completeReturn
		if n.Exit {
			kind = completeExit
		}
		a.complete(kind, result, "")
		a.done.raised = c
		return ast.NoIndex, nil
	}
	return inst.Next, a.raise(c)
}

// errorNumber parses "n" or "n.m".
func errorNumber(s string) (diag.Code, bool) {
	major, minor := s, "0"
	if i := strings.IndexByte(s, '.'); i >= 0 {
		major, minor = s[:i], s[i+1:]
	}
	ma, err := strconv.Atoi(strings.TrimSpace(major))
	if err != nil || ma <= 0 {
		return 0, false
	}
	mi, err := strconv.Atoi(strings.TrimSpace(minor))
	if err != nil || mi < 0 || mi > 999 {
		return 0, false
	}
	return diag.Code(ma*1000 + mi), true
}

// conditionInfo implements the CONDITION builtin.
func (a *activation) conditionInfo(option string) value.Value {
	c := a.condition
	if c == nil {
		return value.Empty
	}
	switch option {
	case "C":
		return value.String(c.Name)
	case "D":
		return value.String(c.Description)
	case "I":
		return value.String(c.Instruction)
	case "A":
		if c.Additional != nil {
			return c.Additional
		}
		return value.Nil
	case "S":
		if t := a.set.traps[c.Name]; t != nil {
			if t.delayed {
				return value.String("DELAY")
			}
			return value.String("ON")
		}
		return value.String("OFF")
	}
	return value.String(c.Instruction)
}
