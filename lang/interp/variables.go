// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package interp

import (
	"strconv"
	"strings"

	"github.com/probechain/probe-rexx/lang/ast"
	"github.com/probechain/probe-rexx/lang/diag"
	"github.com/probechain/probe-rexx/lang/value"
)

// pool is a variable pool. Simple variables and stems are held in cells so
// that PROCEDURE EXPOSE and variable references can share them between
// pools.
type pool struct {
	vars  map[string]*value.Variable
	stems map[string]*value.Stem
}

func newPool() *pool {
	return &pool{
		vars:  make(map[string]*value.Variable),
		stems: make(map[string]*value.Stem),
	}
}

// cell returns the cell of a simple variable, creating it unassigned.
func (p *pool) cell(name string) *value.Variable {
	v, ok := p.vars[name]
	if !ok {
		v = &value.Variable{Name: name}
		p.vars[name] = v
	}
	return v
}

// stem returns the stem called name (with its period), creating it empty.
func (p *pool) stem(name string) *value.Stem {
	s, ok := p.stems[name]
	if !ok {
		s = value.NewStem(name)
		p.stems[name] = s
	}
	return s
}

// get returns the value of a simple variable, or nil while unassigned.
func (p *pool) get(name string) value.Value {
	if v, ok := p.vars[name]; ok {
		return v.Value
	}
	return nil
}

func (p *pool) set(name string, v value.Value) { p.cell(name).Value = v }

func (p *pool) drop(name string) {
	if v, ok := p.vars[name]; ok {
		v.Value = nil
	}
}

// expose makes name in p share the storage of name in from.
func (p *pool) expose(from *pool, t ast.Target) {
	switch t := t.(type) {
	case *ast.Var:
		p.vars[t.Name] = from.cell(t.Name)
	case *ast.StemVar:
		p.stems[t.Name] = from.stem(t.Name)
	case *ast.Compound:
		// a compound variable is exposed with its whole stem
		p.stems[t.Stem] = from.stem(t.Stem)
	}
}

// tail evaluates the tail of a compound symbol: constant parts as written,
// variable parts replaced by their value or, when unassigned, their name.
func (a *activation) tail(c *ast.Compound) string {
	parts := make([]string, len(c.Tails))
	for i, t := range c.Tails {
		if t.Constant {
			parts[i] = t.Name
			continue
		}
		if v := a.vars.get(t.Name); v != nil {
			parts[i] = v.String()
		} else {
			parts[i] = t.Name
		}
	}
	return strings.Join(parts, ".")
}

// lookup returns the value of a variable. An unassigned variable raises
// NOVALUE and evaluates to its own name.
func (a *activation) lookup(t ast.Target) (value.Value, error) {
	switch t := t.(type) {
	case *ast.Var:
		if v := a.vars.get(t.Name); v != nil {
			return v, nil
		}
		return value.String(t.Name), a.novalue(t.Name)
	case *ast.StemVar:
		if s, ok := a.vars.stems[t.Name]; ok {
			return s, nil
		}
		return a.vars.stem(t.Name), a.novalue(t.Name)
	case *ast.Compound:
		tail := a.tail(t)
		if s, ok := a.vars.stems[t.Stem]; ok {
			if v, ok := s.Get(tail); ok {
				return v, nil
			}
		}
		name := t.Stem + tail
		return value.String(name), a.novalue(name)
	}
	return nil, internalf("lookup of %T", t)
}

// novalue raises NOVALUE for an unassigned variable.
func (a *activation) novalue(name string) error {
	c := &Condition{Name: "NOVALUE", Description: name}
	if a.pc.Valid() {
		c.bind(a, a.unit.At(a.pc))
	}
	return a.raise(c)
}

// assign stores v into the target variable. Assigning a stem sets the
// default value of every compound variable of the stem.
func (a *activation) assign(t ast.Target, v value.Value) error {
	switch t := t.(type) {
	case *ast.Var:
		a.vars.set(t.Name, v)
	case *ast.StemVar:
		if s, ok := v.(*value.Stem); ok {
			a.vars.stems[t.Name] = s
			return nil
		}
		a.vars.stem(t.Name).SetDefault(v)
	case *ast.Compound:
		a.vars.stem(t.Stem).Set(a.tail(t), v)
	default:
		return internalf("assignment to %T", t)
	}
	return nil
}

// dropVar drops one variable.
func (a *activation) dropVar(t ast.Target) {
	switch t := t.(type) {
	case *ast.Var:
		a.vars.drop(t.Name)
	case *ast.StemVar:
		if s, ok := a.vars.stems[t.Name]; ok {
			s.Reset()
		}
	case *ast.Compound:
		if s, ok := a.vars.stems[t.Stem]; ok {
			s.Drop(a.tail(t))
		}
	}
}

// drop executes DROP. An indirect name drops the variables listed in its
// value.
func (a *activation) drop(n *ast.Drop) error {
	for i, t := range n.Targets {
		if !n.Indirect[i] {
			a.dropVar(t)
			continue
		}
		list, err := a.lookup(t)
		if err != nil {
			return err
		}
		for _, name := range strings.Fields(list.String()) {
			target, err := targetNamed(name)
			if err != nil {
				return err
			}
			a.dropVar(target)
		}
		a.dropVar(t)
	}
	return nil
}

// procedure executes PROCEDURE [EXPOSE]: the routine gets a new pool holding
// only the exposed variables of the caller.
func (a *activation) procedure(n *ast.Procedure) error {
	if !a.internal || a.started {
		return errorf(diag.UnexpectedProcedure)
	}
	caller := a.vars
	a.vars = newPool()
	for i, t := range n.Expose {
		a.vars.expose(caller, t)
		if !n.Indirect[i] {
			continue
		}
		list, err := a.lookup(t)
		if err != nil {
			return err
		}
		for _, name := range strings.Fields(list.String()) {
			target, err := targetNamed(name)
			if err != nil {
				return err
			}
			a.vars.expose(caller, target)
		}
	}
	return nil
}

// targetNamed converts a variable name found in a string to a target.
func targetNamed(name string) (ast.Target, error) {
	name = value.Upper(name)
	if name == "" || name[0] == '.' || (name[0] >= '0' && name[0] <= '9') {
		return nil, errorf(diag.NameExpected, "variable list", name)
	}
	dot := strings.IndexByte(name, '.')
	switch {
	case dot < 0:
		return &ast.Var{Name: name}, nil
	case dot == len(name)-1:
		return &ast.StemVar{Name: name}, nil
	}
	c := &ast.Compound{Stem: name[:dot+1]}
	for _, part := range strings.Split(name[dot+1:], ".") {
		c.Tails = append(c.Tails, ast.Tail{Name: part, Constant: true})
	}
	return c, nil
}

// setSIGL records the line a transfer of control came from.
func (a *activation) setSIGL(line int) {
	a.vars.set("SIGL", value.String(strconv.Itoa(line)))
}

// reference builds the variable reference for a >name or <name argument.
func (a *activation) reference(r *ast.RefArg) value.Value {
	if r.Stem {
		return &value.Reference{Name: r.Name, Stem: a.vars.stem(r.Name)}
	}
	return &value.Reference{Name: r.Name, Var: a.vars.cell(r.Name)}
}

// alias binds a parameter name to the storage behind a reference.
func (a *activation) alias(t ast.Target, v value.Value) error {
	ref, ok := v.(*value.Reference)
	if !ok {
		return errorf(diag.InvalidReference, t.String())
	}
	switch t := t.(type) {
	case *ast.StemVar:
		if ref.Stem == nil {
			return errorf(diag.NotAStem, t.Name)
		}
		a.vars.stems[t.Name] = ref.Stem
	case *ast.Var:
		if ref.Var == nil {
			return errorf(diag.InvalidReference, t.Name)
		}
		a.vars.vars[t.Name] = ref.Var
	default:
		return errorf(diag.InvalidReference, t.String())
	}
	return nil
}
