// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package value

import (
	"github.com/probechain/probe-rexx/lang/diag"
	"github.com/probechain/probe-rexx/lang/token"
)

// Variable is the storage cell of a simple variable. Names aliased by
// PROCEDURE EXPOSE or by a variable reference share the same cell.
type Variable struct {
	Name  string
	Value Value // nil while the variable is unassigned
}

// Reference passes a variable, rather than its value, to a routine. Exactly
// one of Var and Stem is set.
type Reference struct {
	Name string
	Var  *Variable
	Stem *Stem
}

func (r *Reference) String() string { return "a VariableReference" }

func (r *Reference) Operator(ctx *Numeric, op token.Operator, right Value) (Value, error) {
	return objectOperator(ctx, r, op, right)
}

func (r *Reference) Send(ctx *Numeric, name string, args []Value) (Value, error) {
	switch name {
	case "NAME":
		return String(r.Name), nil
	case "VALUE":
		if r.Stem != nil {
			return r.Stem, nil
		}
		if r.Var.Value == nil {
			return String(r.Name), nil
		}
		return r.Var.Value, nil
	case "VALUE=":
		if len(args) != 1 {
			return nil, Errorf(diag.IncorrectCall, name, "one argument expected")
		}
		if r.Stem != nil {
			r.Stem.SetDefault(args[0])
			return nil, nil
		}
		r.Var.Value = args[0]
		return nil, nil
	case "STRING":
		return String(r.String()), nil
	}
	return nil, Errorf(diag.MethodNotFound, r.String(), name)
}
