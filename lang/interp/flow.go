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

	"github.com/probechain/probe-rexx/lang/ast"
	"github.com/probechain/probe-rexx/lang/diag"
	"github.com/probechain/probe-rexx/lang/parser"
)

// signal executes SIGNAL. A label that was not found when the unit was
// resolved is only an error once the SIGNAL runs.
func (a *activation) signal(inst *ast.Instruction, n *ast.Signal) (ast.Index, error) {
	switch n.Form {
	case ast.TransferOn, ast.TransferOff:
		a.trapOn(n.Form, false, n.Condition, n.Name, n.Target)
		return inst.Next, nil
	case ast.TransferLabel:
		if n.Resolved {
			return a.signalTo(n.Target, inst.Loc.Line()), nil
		}
		return a.signalName(inst, n.Name)
	}
	v, err := a.eval(n.Dynamic)
	if err != nil {
		return ast.NoIndex, err
	}
	return a.signalName(inst, v.String())
}

// signalName branches to a label looked up at run time.
func (a *activation) signalName(inst *ast.Instruction, name string) (ast.Index, error) {
	if target, ok := a.unit.Labels[name]; ok {
		return a.signalTo(target, inst.Loc.Line()), nil
	}
	if a.interpret {
		// the label may belong to the interpreting program
		a.complete(completeSignal, nil, name)
		return ast.NoIndex, nil
	}
	return ast.NoIndex, errorf(diag.LabelNotFound, name)
}

// signalTo terminates every active block and returns the label to continue
// at. SIGL is set to the line of the transfer.
func (a *activation) signalTo(target ast.Index, line int) ast.Index {
	a.unwind(0)
	a.setSIGL(line)
	return target
}

// interpretString executes INTERPRET.
func (a *activation) interpretString(inst *ast.Instruction, n *ast.Interpret) (ast.Index, error) {
	v, err := a.eval(n.Expr)
	if err != nil {
		return ast.NoIndex, err
	}
	done, err := a.interpretText(inst, v.String(), false)
	if err != nil {
		return ast.NoIndex, err
	}
	switch done.kind {
	case completeReturn, completeExit:
		a.done = &done
		return ast.NoIndex, nil
	case completeLeave:
		return a.leave(done.name)
	case completeIterate:
		return a.iterate(done.name)
	case completeSignal:
		return a.signalName(inst, done.name)
	}
	return inst.Next, nil
}

// interpretText parses src and runs it in a child activation sharing the
// variables and settings of a.
func (a *activation) interpretText(inst *ast.Instruction, src string, debugging bool) (completion, error) {
	unit, err := parser.ParseInterpret(a.unit.Name, src)
	if err != nil {
		var de *diag.Error
		if errors.As(err, &de) && inst != nil {
			// report the error at the INTERPRET clause
			de.Pos = inst.Loc.Start
		}
		return completion{}, err
	}
	child := a.in.newActivation(a.prog, unit, a.vars, a.set)
	child.parent = a
	child.args = a.args
	child.name = a.name
	child.callType = a.callType
	child.internal = a.internal
	child.started = true
	child.interpret = true
	child.debugging = debugging
	child.condition = a.condition

	done, err := child.run()
	a.condition = child.condition
	return done, err
}

// debugInterpret runs a line typed at an interactive debug pause. EXIT and
// RETURN typed there end the activation.
func (a *activation) debugInterpret(src string) error {
	var inst *ast.Instruction
	if a.pc.Valid() {
		inst = a.unit.At(a.pc)
	}
	done, err := a.interpretText(inst, src, true)
	if err != nil {
		return err
	}
	if done.kind == completeReturn || done.kind == completeExit {
		a.done = &done
	}
	return nil
}

// findLabel looks name up in the unit, then in the units interpreting it.
func (a *activation) findLabel(name string) (*ast.Unit, ast.Index, bool) {
	for cur := a; cur != nil; cur = cur.parent {
		if target, ok := cur.unit.Labels[name]; ok {
			return cur.unit, target, true
		}
		if !cur.interpret {
			break
		}
	}
	return nil, ast.NoIndex, false
}
