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

	"github.com/probechain/probe-rexx/lang/ast"
	"github.com/probechain/probe-rexx/lang/diag"
	"github.com/probechain/probe-rexx/lang/value"
)

// useArg executes USE [STRICT] ARG. Unless the list ends with "...", the
// argument count is checked against the list: no more arguments than
// positions, and at least up to the last position without a default.
func (a *activation) useArg(n *ast.UseArg) error {
	count := len(a.args)
	for count > 0 && a.args[count-1] == nil {
		count--
	}
	if !n.Ellipsis {
		if count > len(n.Params) {
			return errorf(diag.TooManyArgs, a.name, strconv.Itoa(len(n.Params)))
		}
		if required := requiredArgs(n.Params); count < required {
			return errorf(diag.NotEnoughArgs, a.name, strconv.Itoa(required))
		}
	}
	for i, p := range n.Params {
		if p.Target == nil {
			continue
		}
		arg := a.argAt(i)
		switch {
		case arg != nil && p.Reference:
			if err := a.alias(p.Target, arg); err != nil {
				return err
			}
		case arg != nil:
			a.traceAssign(p.Target, arg)
			if err := a.assign(p.Target, arg); err != nil {
				return err
			}
		case p.Default != nil:
			v, err := a.eval(p.Default)
			if err != nil {
				return err
			}
			a.traceAssign(p.Target, v)
			if err := a.assign(p.Target, v); err != nil {
				return err
			}
		case n.Strict:
			return errorf(diag.MissingArg, a.name, strconv.Itoa(i+1))
		default:
			a.dropVar(p.Target)
		}
	}
	return nil
}

// requiredArgs returns the position of the last parameter that has neither
// a default nor is skipped.
func requiredArgs(params []ast.UseParam) int {
	for i := len(params) - 1; i >= 0; i-- {
		if params[i].Target != nil && params[i].Default == nil {
			return i + 1
		}
	}
	return 0
}

// argAt returns argument i, nil when omitted.
func (a *activation) argAt(i int) value.Value {
	if i < len(a.args) {
		return a.args[i]
	}
	return nil
}
