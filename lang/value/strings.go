// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package value

import (
	"strconv"
	"strings"

	"github.com/probechain/probe-rexx/lang/diag"
)

// StringFunc is a string operation shared by the string methods and the
// builtin functions of the same name. The receiver is the first operand.
type StringFunc func(ctx *Numeric, s string, args []Value) (Value, error)

var stringMethods map[string]StringFunc

func init() {
	stringMethods = map[string]StringFunc{
		"LENGTH":   strLength,
		"UPPER":    strUpper,
		"LOWER":    strLower,
		"REVERSE":  strReverse,
		"SUBSTR":   strSubstr,
		"LEFT":     strLeft,
		"RIGHT":    strRight,
		"POS":      strPos,
		"WORD":     strWord,
		"WORDS":    strWords,
		"STRIP":    strStrip,
		"COPIES":   strCopies,
		"DATATYPE": strDatatype,
		"ABS":      strAbs,
	}
}

// LookupStringFunc returns the string operation called name.
func LookupStringFunc(name string) (StringFunc, bool) {
	fn, ok := stringMethods[name]
	return fn, ok
}

// argCount validates the number of arguments of a string operation.
func argCount(name string, args []Value, min, max int) error {
	if len(args) < min {
		return Errorf(diag.NotEnoughArgs, name, strconv.Itoa(min))
	}
	if len(args) > max {
		return Errorf(diag.TooManyArgs, name, strconv.Itoa(max))
	}
	return nil
}

// optArg returns argument i, or nil when it was omitted.
func optArg(args []Value, i int) Value {
	if i < len(args) {
		return args[i]
	}
	return nil
}

// wholeArg converts argument i to a whole number no smaller than min.
func wholeArg(ctx *Numeric, name string, args []Value, i, def, min int) (int, error) {
	v := optArg(args, i)
	if v == nil {
		return def, nil
	}
	n, ok := Whole(ctx, v)
	if !ok || n < min {
		return 0, Errorf(diag.IncorrectCall, name, "argument "+strconv.Itoa(i+1)+" must be a whole number >= "+strconv.Itoa(min)+"; found \""+v.String()+"\"")
	}
	return n, nil
}

func padArg(args []Value, i int) byte {
	if v := optArg(args, i); v != nil && len(v.String()) > 0 {
		return v.String()[0]
	}
	return ' '
}

func strLength(ctx *Numeric, s string, args []Value) (Value, error) {
	if err := argCount("LENGTH", args, 0, 0); err != nil {
		return nil, err
	}
	return Int(len(s)), nil
}

func strUpper(ctx *Numeric, s string, args []Value) (Value, error) {
	return String(Upper(s)), nil
}

func strLower(ctx *Numeric, s string, args []Value) (Value, error) {
	return String(Lower(s)), nil
}

func strReverse(ctx *Numeric, s string, args []Value) (Value, error) {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return String(b), nil
}

func strSubstr(ctx *Numeric, s string, args []Value) (Value, error) {
	if err := argCount("SUBSTR", args, 1, 3); err != nil {
		return nil, err
	}
	start, err := wholeArg(ctx, "SUBSTR", args, 0, 1, 1)
	if err != nil {
		return nil, err
	}
	rest := len(s) - start + 1
	if rest < 0 {
		rest = 0
	}
	length, err := wholeArg(ctx, "SUBSTR", args, 1, rest, 0)
	if err != nil {
		return nil, err
	}
	pad := padArg(args, 2)
	var b strings.Builder
	for i := start - 1; i < start-1+length; i++ {
		if i < len(s) {
			b.WriteByte(s[i])
		} else {
			b.WriteByte(pad)
		}
	}
	return String(b.String()), nil
}

func strLeft(ctx *Numeric, s string, args []Value) (Value, error) {
	if err := argCount("LEFT", args, 1, 2); err != nil {
		return nil, err
	}
	n, err := wholeArg(ctx, "LEFT", args, 0, 0, 0)
	if err != nil {
		return nil, err
	}
	if n <= len(s) {
		return String(s[:n]), nil
	}
	return String(s + strings.Repeat(string(padArg(args, 1)), n-len(s))), nil
}

func strRight(ctx *Numeric, s string, args []Value) (Value, error) {
	if err := argCount("RIGHT", args, 1, 2); err != nil {
		return nil, err
	}
	n, err := wholeArg(ctx, "RIGHT", args, 0, 0, 0)
	if err != nil {
		return nil, err
	}
	if n <= len(s) {
		return String(s[len(s)-n:]), nil
	}
	return String(strings.Repeat(string(padArg(args, 1)), n-len(s)) + s), nil
}

func strPos(ctx *Numeric, s string, args []Value) (Value, error) {
	if err := argCount("POS", args, 1, 2); err != nil {
		return nil, err
	}
	start, err := wholeArg(ctx, "POS", args, 1, 1, 1)
	if err != nil {
		return nil, err
	}
	needle := args[0].String()
	if needle == "" || start > len(s) {
		return Int(0), nil
	}
	i := strings.Index(s[start-1:], needle)
	if i < 0 {
		return Int(0), nil
	}
	return Int(i + start), nil
}

func strWord(ctx *Numeric, s string, args []Value) (Value, error) {
	if err := argCount("WORD", args, 1, 1); err != nil {
		return nil, err
	}
	n, err := wholeArg(ctx, "WORD", args, 0, 1, 1)
	if err != nil {
		return nil, err
	}
	words := strings.Fields(s)
	if n > len(words) {
		return Empty, nil
	}
	return String(words[n-1]), nil
}

func strWords(ctx *Numeric, s string, args []Value) (Value, error) {
	return Int(len(strings.Fields(s))), nil
}

func strStrip(ctx *Numeric, s string, args []Value) (Value, error) {
	if err := argCount("STRIP", args, 0, 2); err != nil {
		return nil, err
	}
	option := "B"
	if v := optArg(args, 0); v != nil && v.String() != "" {
		option = Upper(v.String()[:1])
	}
	chars := " \t"
	if v := optArg(args, 1); v != nil {
		chars = v.String()
	}
	switch option {
	case "L":
		return String(strings.TrimLeft(s, chars)), nil
	case "T":
		return String(strings.TrimRight(s, chars)), nil
	case "B":
		return String(strings.Trim(s, chars)), nil
	}
	return nil, Errorf(diag.IncorrectCall, "STRIP", "option must be B, L or T; found \""+option+"\"")
}

func strCopies(ctx *Numeric, s string, args []Value) (Value, error) {
	if err := argCount("COPIES", args, 1, 1); err != nil {
		return nil, err
	}
	n, err := wholeArg(ctx, "COPIES", args, 0, 0, 0)
	if err != nil {
		return nil, err
	}
	return String(strings.Repeat(s, n)), nil
}

func strDatatype(ctx *Numeric, s string, args []Value) (Value, error) {
	if err := argCount("DATATYPE", args, 0, 1); err != nil {
		return nil, err
	}
	if v := optArg(args, 0); v != nil && v.String() != "" {
		var ok bool
		switch Upper(v.String()[:1]) {
		case "N":
			ok = IsNumber(s)
		case "W":
			_, ok = Whole(ctx, String(s))
		case "A":
			ok = s != "" && strings.IndexFunc(s, func(r rune) bool {
				return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
			}) < 0
		case "U":
			ok = s != "" && strings.ToUpper(s) == s && strings.ToLower(s) != s
		case "L":
			ok = s != "" && strings.ToLower(s) == s && strings.ToUpper(s) != s
		case "S":
			ok = s != "" && strings.IndexFunc(s, func(r rune) bool {
				return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune(".!?_", r))
			}) < 0
		default:
			return nil, Errorf(diag.IncorrectCall, "DATATYPE", "unknown type \""+v.String()+"\"")
		}
		return Bool(ok), nil
	}
	if IsNumber(s) {
		return String("NUM"), nil
	}
	return String("CHAR"), nil
}

func strAbs(ctx *Numeric, s string, args []Value) (Value, error) {
	f, ok := ParseNumber(s)
	if !ok {
		return nil, Errorf(diag.NonNumeric, s)
	}
	if f < 0 {
		f = -f
	}
	return Number(ctx, f), nil
}
