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
	"github.com/probechain/probe-rexx/lang/lexer"
	"github.com/probechain/probe-rexx/lang/token"
	"github.com/probechain/probe-rexx/lang/value"
)

type builtinFunc func(a *activation, args []value.Value) (value.Value, error)

var builtins map[string]builtinFunc

func init() {
	builtins = map[string]builtinFunc{
		"ADDRESS":   builtinAddress,
		"ARG":       builtinArg,
		"CONDITION": builtinCondition,
		"MAX":       builtinMax,
		"MIN":       builtinMin,
		"SYMBOL":    builtinSymbol,
		"QUEUED":    builtinQueued,
		"DIGITS":    builtinDigits,
		"LINEIN":    builtinLinein,
	}
	for _, name := range []string{
		"ABS", "COPIES", "DATATYPE", "LEFT", "LENGTH", "LOWER", "POS",
		"REVERSE", "RIGHT", "STRIP", "SUBSTR", "UPPER", "WORD", "WORDS",
	} {
		builtins[name] = stringBuiltin(name)
	}
}

// stringBuiltin turns a string operation into a function whose first
// argument is the string.
func stringBuiltin(name string) builtinFunc {
	fn, ok := value.LookupStringFunc(name)
	if !ok {
		panic("interp: missing string function " + name)
	}
	return func(a *activation, args []value.Value) (value.Value, error) {
		if len(args) == 0 || args[0] == nil {
			return nil, errorf(diag.MissingArg, name, "1")
		}
		return fn(a.numeric(), args[0].String(), args[1:])
	}
}

func maxArgs(name string, args []value.Value, max int) error {
	if len(args) > max {
		return errorf(diag.TooManyArgs, name, strconv.Itoa(max))
	}
	return nil
}

func builtinAddress(a *activation, args []value.Value) (value.Value, error) {
	if err := maxArgs("ADDRESS", args, 0); err != nil {
		return nil, err
	}
	return value.String(a.set.address.current), nil
}

// builtinArg implements ARG([n [,option]]).
func builtinArg(a *activation, args []value.Value) (value.Value, error) {
	if err := maxArgs("ARG", args, 2); err != nil {
		return nil, err
	}
	count := len(a.args)
	for count > 0 && a.args[count-1] == nil {
		count--
	}
	if len(args) == 0 || args[0] == nil {
		return value.Int(count), nil
	}
	n, ok := value.Whole(a.numeric(), args[0])
	if !ok || n < 1 {
		return nil, errorf(diag.IncorrectCall, "ARG", "argument 1 must be a positive whole number; found \""+args[0].String()+"\"")
	}
	var arg value.Value
	if n <= len(a.args) {
		arg = a.args[n-1]
	}
	if len(args) < 2 || args[1] == nil {
		if arg == nil {
			return value.Empty, nil
		}
		return arg, nil
	}
	switch option := value.Upper(args[1].String()); {
	case option != "" && option[0] == 'E':
		return value.Bool(arg != nil), nil
	case option != "" && option[0] == 'O':
		return value.Bool(arg == nil), nil
	}
	return nil, errorf(diag.IncorrectCall, "ARG", "argument 2 must be one of E or O; found \""+args[1].String()+"\"")
}

// builtinCondition implements CONDITION([option]).
func builtinCondition(a *activation, args []value.Value) (value.Value, error) {
	if err := maxArgs("CONDITION", args, 1); err != nil {
		return nil, err
	}
	option := "I"
	if len(args) == 1 && args[0] != nil {
		option = value.Upper(args[0].String())
		if option == "" {
			return nil, errorf(diag.IncorrectCall, "CONDITION", "option must not be empty")
		}
		option = option[:1]
	}
	switch option {
	case "A", "C", "D", "I", "S":
		return a.conditionInfo(option), nil
	}
	return nil, errorf(diag.IncorrectCall, "CONDITION", "argument 1 must be one of A, C, D, I or S; found \""+args[0].String()+"\"")
}

func builtinMax(a *activation, args []value.Value) (value.Value, error) {
	return extreme(a, "MAX", args, token.GREATER)
}

func builtinMin(a *activation, args []value.Value) (value.Value, error) {
	return extreme(a, "MIN", args, token.LESS)
}

// extreme returns the argument for which op holds against every other.
func extreme(a *activation, name string, args []value.Value, op token.Operator) (value.Value, error) {
	if len(args) == 0 {
		return nil, errorf(diag.NotEnoughArgs, name, "1")
	}
	var best value.Value
	for i, v := range args {
		if v == nil {
			return nil, errorf(diag.MissingArg, name, strconv.Itoa(i+1))
		}
		f, ok := value.ParseNumber(v.String())
		if !ok {
			return nil, errorf(diag.NonNumeric, v.String())
		}
		if best == nil {
			best = value.Number(a.numeric(), f)
			continue
		}
		cur := value.Number(a.numeric(), f)
		better, err := cur.Operator(a.numeric(), op, best)
		if err != nil {
			return nil, err
		}
		if ok, _ := value.Truth(better); ok {
			best = cur
		}
	}
	return best, nil
}

// builtinSymbol implements SYMBOL(name): BAD, VAR or LIT.
func builtinSymbol(a *activation, args []value.Value) (value.Value, error) {
	if len(args) != 1 || args[0] == nil {
		return nil, errorf(diag.MissingArg, "SYMBOL", "1")
	}
	name := value.Upper(args[0].String())
	if !validSymbol(name) {
		return value.String("BAD"), nil
	}
	switch lexer.Classify(name) {
	case token.VARIABLE, token.STEM, token.COMPOUND:
		t, err := targetNamed(name)
		if err != nil {
			return value.String("BAD"), nil
		}
		if a.assigned(t) {
			return value.String("VAR"), nil
		}
	}
	return value.String("LIT"), nil
}

func validSymbol(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '.' || c == '_' || c == '!' || c == '?':
		default:
			return false
		}
	}
	return true
}

// assigned reports whether a variable has a value, without raising NOVALUE.
func (a *activation) assigned(t ast.Target) bool {
	switch t := t.(type) {
	case *ast.Var:
		return a.vars.get(t.Name) != nil
	case *ast.StemVar:
		_, ok := a.vars.stems[t.Name]
		return ok
	case *ast.Compound:
		s, ok := a.vars.stems[t.Stem]
		if !ok {
			return false
		}
		_, ok = s.Get(a.tail(t))
		return ok
	}
	return false
}

func builtinQueued(a *activation, args []value.Value) (value.Value, error) {
	if err := maxArgs("QUEUED", args, 0); err != nil {
		return nil, err
	}
	return value.Int(len(a.in.queue)), nil
}

func builtinDigits(a *activation, args []value.Value) (value.Value, error) {
	if err := maxArgs("DIGITS", args, 0); err != nil {
		return nil, err
	}
	return value.Int(a.numeric().Digits), nil
}

// builtinLinein reads the next line of the default input stream. NOTREADY
// is raised at end of input.
func builtinLinein(a *activation, args []value.Value) (value.Value, error) {
	if len(args) > 0 && args[0] != nil && args[0].String() != "" {
		return nil, errorf(diag.IncorrectCall, "LINEIN", "only the default input stream is supported")
	}
	line, ok := a.in.linein()
	if !ok {
		c := &Condition{Name: "NOTREADY", Description: "end of input"}
		c.bind(a, a.unit.At(a.pc))
		if err := a.raise(c); err != nil {
			return nil, err
		}
	}
	return value.String(line), nil
}
