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
	"github.com/probechain/probe-rexx/lang/value"
)

// environment holds the values of the environment symbols.
var environment = map[string]value.Value{
	".NIL":       value.Nil,
	".TRUE":      value.True,
	".FALSE":     value.False,
	".ARRAY":     value.ArrayClass,
	".DIRECTORY": value.DirectoryClass,
	".ENDOFLINE": value.String("\n"),
}

// eval evaluates the expression of an instruction and traces its result.
func (a *activation) eval(e ast.Expr) (value.Value, error) {
	v, err := a.expr(e)
	if err != nil {
		return nil, err
	}
	a.traceResult(v)
	return v, nil
}

// optEval evaluates an optional expression; nil yields nil.
func (a *activation) optEval(e ast.Expr) (value.Value, error) {
	if e == nil {
		return nil, nil
	}
	return a.eval(e)
}

// expr evaluates one expression node. Operands are evaluated left to right
// and every partial result is reported under TRACE I.
func (a *activation) expr(e ast.Expr) (value.Value, error) {
	switch e := e.(type) {
	case *ast.Literal:
		v := value.String(e.Value)
		a.traceIntermediate(TraceLiteral, "", v)
		return v, nil

	case *ast.Var:
		v, err := a.lookup(e)
		a.traceIntermediate(TraceVariable, e.Name, v)
		return v, err

	case *ast.StemVar:
		v, err := a.lookup(e)
		a.traceIntermediate(TraceVariable, e.Name, v)
		return v, err

	case *ast.Compound:
		v, err := a.lookup(e)
		a.traceIntermediate(TraceCompound, e.Stem+a.tail(e), v)
		return v, err

	case *ast.Environment:
		v, ok := environment[e.Name]
		if !ok {
			v = value.String(e.Name)
		}
		a.traceIntermediate(TraceEnvironment, e.Name, v)
		return v, nil

	case *ast.Paren:
		return a.expr(e.Inner)

	case *ast.Unary:
		operand, err := a.expr(e.Operand)
		if err != nil {
			return nil, err
		}
		v, err := operand.Operator(a.numeric(), e.Op, nil)
		if err != nil {
			return nil, err
		}
		a.traceIntermediate(TracePrefix, e.Op.String(), v)
		return v, nil

	case *ast.Binary:
		left, err := a.expr(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := a.expr(e.Right)
		if err != nil {
			return nil, err
		}
		v, err := left.Operator(a.numeric(), e.Op, right)
		if err != nil {
			return nil, err
		}
		a.traceIntermediate(TraceOperator, e.Op.String(), v)
		return v, nil

	case *ast.FuncCall:
		args, err := a.evalArgs(e.Args)
		if err != nil {
			return nil, err
		}
		v, err := a.function(e, args)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, errorf(diag.NoResult, e.Name)
		}
		a.traceIntermediate(TraceFunction, e.Name, v)
		return v, nil

	case *ast.Send:
		v, err := a.send(e)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, errorf(diag.NoValueReturned, e.Name)
		}
		a.traceIntermediate(TraceMessage, e.Name, v)
		return v, nil

	case *ast.RefArg:
		return a.reference(e), nil
	}
	return nil, internalf("expression %T has no evaluator", e)
}

// evalArgs evaluates an argument list left to right. Omitted arguments are nil.
func (a *activation) evalArgs(list []ast.Expr) ([]value.Value, error) {
	out := make([]value.Value, len(list))
	for i, e := range list {
		if e == nil {
			continue
		}
		v, err := a.expr(e)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// send evaluates a message term. A cascade answers its receiver; otherwise
// the method result is returned, which is nil when the method returned
// nothing.
func (a *activation) send(n *ast.Send) (value.Value, error) {
	target, err := a.expr(n.Target)
	if err != nil {
		return nil, err
	}
	args, err := a.evalArgs(n.Args)
	if err != nil {
		return nil, err
	}
	v, err := target.Send(a.numeric(), n.Name, args)
	if err != nil {
		return nil, a.nomethod(err, target, n.Name)
	}
	if n.Cascade {
		return target, nil
	}
	return v, nil
}

// nomethod turns an unknown message into the NOMETHOD condition when a trap
// for it is enabled.
func (a *activation) nomethod(err error, target value.Value, name string) error {
	var de *diag.Error
	if !errors.As(err, &de) || de.Code != diag.MethodNotFound {
		return err
	}
	if a.set.traps["NOMETHOD"] == nil {
		return err
	}
	return &Condition{Name: "NOMETHOD", Description: name, Additional: target}
}

// message executes a message instruction: a send whose result is
// discarded, or an assignment to an attribute ("name=" message, value
// first).
func (a *activation) message(n *ast.Message) error {
	if n.Value == nil {
		_, err := a.send(n.Send)
		return err
	}
	target, err := a.expr(n.Send.Target)
	if err != nil {
		return err
	}
	args, err := a.evalArgs(n.Send.Args)
	if err != nil {
		return err
	}
	v, err := a.eval(n.Value)
	if err != nil {
		return err
	}
	name := n.Send.Name + "="
	if _, err := target.Send(a.numeric(), name, append([]value.Value{v}, args...)); err != nil {
		return a.nomethod(err, target, name)
	}
	return nil
}
