// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package interp

import (
	"strings"

	"github.com/probechain/probe-rexx/lang/ast"
	"github.com/probechain/probe-rexx/lang/diag"
	"github.com/probechain/probe-rexx/lang/value"
)

// parse executes PARSE, ARG and PULL.
func (a *activation) parse(n *ast.Parse) error {
	sources, err := a.parseSources(n)
	if err != nil {
		return err
	}
	for i, tpl := range n.Templates {
		s := ""
		if i < len(sources) {
			s = sources[i]
		}
		switch n.Casing {
		case ast.CaseUpper:
			s = value.Upper(s)
		case ast.CaseLower:
			s = value.Lower(s)
		}
		if err := a.parseTemplate(tpl, s, n.Caseless); err != nil {
			return err
		}
	}
	return nil
}

// parseSources returns the strings the templates are applied to: one per
// argument for ARG, a single string otherwise.
func (a *activation) parseSources(n *ast.Parse) ([]string, error) {
	switch n.Source {
	case ast.ParseArg:
		out := make([]string, len(a.args))
		for i, v := range a.args {
			if v != nil {
				out[i] = v.String()
			}
		}
		return out, nil
	case ast.ParsePull:
		line, _ := a.in.pull()
		return []string{line}, nil
	case ast.ParseLinein:
		line, ok := a.in.linein()
		if !ok {
			c := &Condition{Name: "NOTREADY", Description: "end of input"}
			c.bind(a, a.unit.At(a.pc))
			if err := a.raise(c); err != nil {
				return nil, err
			}
		}
		return []string{line}, nil
	case ast.ParseSourceInfo:
		callType := a.callType
		if callType == "" {
			callType = "COMMAND"
		}
		return []string{"LINUX " + callType + " " + a.prog.Name}, nil
	case ast.ParseVersion:
		return []string{Version}, nil
	case ast.ParseVar:
		v, err := a.lookup(n.Var)
		if err != nil {
			return nil, err
		}
		return []string{v.String()}, nil
	case ast.ParseValue:
		v, err := a.optEval(n.Value)
		if err != nil || v == nil {
			return []string{""}, err
		}
		return []string{v.String()}, nil
	}
	return nil, internalf("parse source %s", n.Source)
}

// parseTemplate splits s by one template. Targets between two triggers
// receive the section of s the triggers delimit; several targets split the
// section into words.
func (a *activation) parseTemplate(tpl ast.Template, s string, caseless bool) error {
	var (
		pending   []ast.TemplateItem
		cur, base int // current position and start of the last match
	)
	for _, item := range tpl.Items {
		switch item.Kind {
		case ast.ItemTarget, ast.ItemDummy:
			pending = append(pending, item)
			continue
		}
		section := s[cur:]
		switch item.Kind {
		case ast.ItemPattern:
			v, err := a.expr(item.Value)
			if err != nil {
				return err
			}
			pattern := v.String()
			k := -1
			if pattern != "" {
				if caseless {
					k = strings.Index(value.Upper(s[cur:]), value.Upper(pattern))
				} else {
					k = strings.Index(s[cur:], pattern)
				}
			}
			if k < 0 {
				cur, base = len(s), len(s)
			} else {
				section = s[cur : cur+k]
				base = cur + k
				cur = base + len(pattern)
			}
		case ast.ItemAbsolute, ast.ItemRelative:
			v, err := a.expr(item.Value)
			if err != nil {
				return err
			}
			n, ok := value.Whole(a.numeric(), v)
			if !ok || n < 0 {
				return errorf(diag.InvalidPosition, v.String())
			}
			t := n - 1
			if item.Kind == ast.ItemRelative {
				t = base + item.Sign*n
			}
			if t < 0 {
				t = 0
			}
			if t > len(s) {
				t = len(s)
			}
			if t > cur {
				section = s[cur:t]
			}
			cur, base = t, t
		}
		if err := a.assignWords(pending, section); err != nil {
			return err
		}
		pending = pending[:0]
	}
	return a.assignWords(pending, s[cur:])
}

// assignWords gives each target but the last one blank-delimited word of
// section; the last target receives the remainder less the blank that
// ended the previous word.
func (a *activation) assignWords(targets []ast.TemplateItem, section string) error {
	rest := section
	for i, item := range targets {
		word := rest
		if i < len(targets)-1 {
			rest = strings.TrimLeft(rest, " \t")
			if k := strings.IndexAny(rest, " \t"); k >= 0 {
				word, rest = rest[:k], rest[k+1:]
			} else {
				word, rest = rest, ""
			}
		}
		if item.Kind == ast.ItemDummy {
			continue
		}
		v := value.String(word)
		a.traceAssign(item.Target, v)
		if err := a.assign(item.Target, v); err != nil {
			return err
		}
	}
	return nil
}
