// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package interp

import (
	"context"
	"errors"
	"sync"

	"github.com/probechain/probe-rexx/lang/ast"
	"github.com/probechain/probe-rexx/lang/diag"
	"github.com/probechain/probe-rexx/lang/value"
)

// errExit aborts the evaluation in progress once EXIT has been executed in
// an internal routine; the activation's completion carries the result.
var errExit = errors.New("exit")

// Routine is an external routine implemented in Go. Omitted arguments are
// nil. A nil result means the routine returned nothing.
type Routine func(ctx context.Context, args []value.Value) (value.Value, error)

// registered is an entry of the Registry: a Go routine or a public routine
// of a loaded program.
type registered struct {
	fn   Routine
	prog *ast.Program
	unit *ast.Unit
}

// Registry holds the external routines visible to programs. It may be
// shared by interpreters running concurrently.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]registered
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]registered)}
}

func registryKey(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + ":" + name
}

// Register adds a Go routine. The name may be qualified as "ns:name".
func (r *Registry) Register(name string, fn Routine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[value.Upper(name)] = registered{fn: fn}
}

// AddProgram registers the public routines of prog, both unqualified and
// qualified by namespace.
func (r *Registry) AddProgram(namespace string, prog *ast.Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, unit := range prog.Routines {
		if !prog.Public[name] {
			continue
		}
		e := registered{prog: prog, unit: unit}
		if _, ok := r.entries[name]; !ok {
			r.entries[name] = e
		}
		if namespace != "" {
			r.entries[registryKey(namespace, name)] = e
		}
	}
}

// Lookup finds an external routine.
func (r *Registry) Lookup(namespace, name string) (Routine, bool) {
	e, ok := r.lookup(namespace, name)
	if !ok || e.fn == nil {
		return nil, false
	}
	return e.fn, true
}

func (r *Registry) lookup(namespace, name string) (registered, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[registryKey(namespace, name)]
	return e, ok
}

// invocation names the routine of a CALL or function call.
type invocation struct {
	name      string
	namespace string
	quoted    bool // literal name: internal labels are not searched
	target    ast.Index
	resolved  bool
	callType  string
	line      int
}

// call executes CALL.
func (a *activation) call(inst *ast.Instruction, n *ast.Call) error {
	switch n.Form {
	case ast.TransferOn, ast.TransferOff:
		a.trapOn(n.Form, true, n.Condition, n.Name, n.Target)
		return nil
	}
	inv := invocation{
		name:      n.Name,
		namespace: n.Namespace,
		quoted:    n.Quoted,
		target:    n.Target,
		resolved:  n.Resolved,
		callType:  "SUBROUTINE",
		line:      inst.Loc.Line(),
	}
	if n.Form == ast.TransferDynamic {
		v, err := a.eval(n.Dynamic)
		if err != nil {
			return err
		}
		inv.name, inv.resolved = v.String(), false
	}
	args, err := a.evalArgs(n.Args)
	if err != nil {
		return err
	}
	result, err := a.invoke(inv, args)
	if err != nil {
		return err
	}
	if result == nil {
		a.vars.drop("RESULT")
	} else {
		a.vars.set("RESULT", result)
	}
	return nil
}

// function evaluates a function call.
func (a *activation) function(n *ast.FuncCall, args []value.Value) (value.Value, error) {
	return a.invoke(invocation{
		name:      n.Name,
		namespace: n.Namespace,
		quoted:    n.Quoted,
		target:    ast.NoIndex,
		callType:  "FUNCTION",
		line:      a.line(),
	}, args)
}

// invoke searches for a routine and runs it. The search order is internal
// label, builtin function, ::ROUTINE of the program, then the registry. A
// namespace qualified name is only looked up in the registry.
func (a *activation) invoke(inv invocation, args []value.Value) (value.Value, error) {
	callCounter.Inc(1)
	if inv.namespace != "" {
		return a.external(inv, args)
	}
	if !inv.quoted {
		if inv.resolved {
			return a.internalCall(a.unit, inv.target, inv.name, args, inv.callType, inv.line, nil)
		}
		if unit, target, ok := a.findLabel(inv.name); ok {
			return a.internalCall(unit, target, inv.name, args, inv.callType, inv.line, nil)
		}
	}
	if fn, ok := builtins[inv.name]; ok {
		return fn(a, args)
	}
	if unit, ok := a.prog.Routine(inv.name); ok {
		return a.routineCall(a.prog, unit, inv, args)
	}
	return a.external(inv, args)
}

// external calls a routine from the registry.
func (a *activation) external(inv invocation, args []value.Value) (value.Value, error) {
	e, ok := a.in.registry.lookup(inv.namespace, inv.name)
	if !ok {
		return nil, errorf(diag.RoutineNotFound, registryKey(inv.namespace, inv.name))
	}
	if e.unit != nil {
		return a.routineCall(e.prog, e.unit, inv, args)
	}
	a.setSIGL(inv.line)
	v, err := e.fn(a.in.ctx, args)
	if err != nil {
		var de *diag.Error
		var c *Condition
		if errors.As(err, &de) || errors.As(err, &c) {
			return nil, err
		}
		return nil, errorf(diag.IncorrectCall, inv.name, err.Error())
	}
	return v, nil
}

// internalCall runs the routine starting at target in unit. The routine
// shares the caller's variables until it executes PROCEDURE, and works on a
// copy of the caller's settings. cond is the condition of a CALL trap.
func (a *activation) internalCall(unit *ast.Unit, target ast.Index, label string, args []value.Value, callType string, line int, cond *Condition) (value.Value, error) {
	child := a.in.newActivation(a.prog, unit, a.vars, a.set.clone())
	child.pc = target
	child.parent = a
	child.args = args
	child.name = label
	child.callType = callType
	child.internal = true
	child.condition = a.condition
	if cond != nil {
		child.condition = cond
	}
	a.setSIGL(line)
	a.log.Trace("Internal call", "label", label, "type", callType, "args", len(args))

	done, err := child.run()
	return a.returned(done, err, true)
}

// routineCall runs a ::ROUTINE with its own variables and default settings.
func (a *activation) routineCall(prog *ast.Program, unit *ast.Unit, inv invocation, args []value.Value) (value.Value, error) {
	child := a.in.newActivation(prog, unit, nil, a.in.defaultSettings())
	child.parent = a
	child.args = args
	child.name = inv.name
	child.callType = inv.callType
	a.setSIGL(inv.line)
	a.log.Trace("Routine call", "name", inv.name, "type", inv.callType, "args", len(args))

	done, err := child.run()
	return a.returned(done, err, false)
}

// returned applies the completion of a called activation. EXIT in an
// internal routine ends the caller too; RAISE ... RETURN raises its
// condition in the caller.
func (a *activation) returned(done completion, err error, internal bool) (value.Value, error) {
	if err != nil {
		return nil, err
	}
	if done.kind == completeExit && internal {
		a.done = &completion{kind: completeExit, value: done.value, raised: done.raised}
		return nil, errExit
	}
	if done.raised != nil {
		if err := a.raise(done.raised); err != nil {
			return nil, err
		}
	}
	return done.value, nil
}
