// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package interp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/probechain/probe-rexx/lang/ast"
	"github.com/probechain/probe-rexx/lang/diag"
	"github.com/probechain/probe-rexx/lang/value"
)

// rcNotFound is the return code of a command sent to an environment that
// has no handler.
const rcNotFound = -3

// CommandIO carries the streams of one command.
type CommandIO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// CommandHandler executes the commands addressed to an environment. A
// negative return code raises FAILURE, a positive one ERROR.
type CommandHandler interface {
	Command(ctx context.Context, env, cmd string, cio *CommandIO) (rc int, err error)
}

// CommandFunc adapts a function to a CommandHandler.
type CommandFunc func(ctx context.Context, env, cmd string, cio *CommandIO) (int, error)

func (f CommandFunc) Command(ctx context.Context, env, cmd string, cio *CommandIO) (int, error) {
	return f(ctx, env, cmd, cio)
}

// addressSetting is the ADDRESS state of an activation.
type addressSetting struct {
	current  string
	previous string
	with     map[string][]ast.Redirect // redirections set by ADDRESS env WITH
}

// address executes ADDRESS.
func (a *activation) address(inst *ast.Instruction, n *ast.Address) error {
	set := &a.set.address
	if n.Environment == "" && n.Dynamic == nil {
		set.current, set.previous = set.previous, set.current
		return nil
	}
	env := n.Environment
	if n.Dynamic != nil {
		v, err := a.eval(n.Dynamic)
		if err != nil {
			return err
		}
		env = v.String()
	}
	if len(env) > 250 {
		return errorf(diag.EnvironmentLong, env)
	}
	if n.Command != nil {
		v, err := a.eval(n.Command)
		if err != nil {
			return err
		}
		redirects := n.With
		if len(redirects) == 0 {
			redirects = set.with[env]
		}
		return a.runCommand(inst, env, v.String(), redirects)
	}
	set.previous, set.current = set.current, env
	if len(n.With) > 0 {
		if set.with == nil {
			set.with = make(map[string][]ast.Redirect)
		}
		set.with[env] = n.With
	}
	return nil
}

// command executes a command instruction in the current environment.
func (a *activation) command(inst *ast.Instruction, n *ast.Command) error {
	v, err := a.eval(n.Expr)
	if err != nil {
		return err
	}
	env := a.set.address.current
	return a.runCommand(inst, env, v.String(), a.set.address.with[env])
}

// runCommand passes cmd to the handler of env, sets RC and raises ERROR or
// FAILURE for a non-zero return code.
func (a *activation) runCommand(inst *ast.Instruction, env, cmd string, redirects []ast.Redirect) error {
	cio := &CommandIO{Stdin: a.in.in, Stdout: a.in.out, Stderr: a.in.cfg.Stderr}
	var outputs []*redirection
	for _, r := range redirects {
		out, err := a.redirect(r, cio)
		if err != nil {
			return err
		}
		if out != nil {
			outputs = append(outputs, out)
		}
	}
	rc, cmdErr := rcNotFound, error(nil)
	if handler, ok := a.in.cfg.Commands[env]; ok {
		rc, cmdErr = handler.Command(a.in.ctx, env, cmd, cio)
	} else {
		cmdErr = fmt.Errorf("no handler for environment %q", env)
	}
	for _, out := range outputs {
		if err := out.finish(); err != nil && cmdErr == nil {
			cmdErr = err
		}
	}
	a.log.Debug("Command completed", "env", env, "rc", rc)
	a.vars.set("RC", value.Int(rc))
	if a.set.trace.commandResult(rc) {
		a.emit(TraceEvent{Kind: TraceCommand, Line: inst.Loc.Line(), Value: strconv.Itoa(rc)})
	}
	if rc == 0 && cmdErr == nil {
		return nil
	}
	c := &Condition{Name: "ERROR", RC: rc, Description: cmd}
	if rc < 0 || cmdErr != nil {
		c.Name = "FAILURE"
	}
	if cmdErr != nil {
		c.Additional = value.String(cmdErr.Error())
	}
	c.bind(a, inst)
	return a.raise(c)
}

// redirection collects the output of a command for a STEM, STREAM or USING
// target.
type redirection struct {
	buf    bytes.Buffer
	finish func() error
}

// redirect installs one INPUT, OUTPUT or ERROR redirection into cio.
func (a *activation) redirect(r ast.Redirect, cio *CommandIO) (*redirection, error) {
	if r.Stream == ast.StreamInput {
		lines, err := a.redirectInput(r)
		if err != nil {
			return nil, err
		}
		cio.Stdin = lines
		return nil, nil
	}
	out := &redirection{}
	switch r.Kind {
	case ast.SourceStem:
		stem, err := a.redirectStem(r)
		if err != nil {
			return nil, err
		}
		out.finish = func() error {
			storeLines(stem, splitLines(out.buf.String()), r.Append)
			return nil
		}
	case ast.SourceStream:
		name, err := a.eval(r.Target)
		if err != nil {
			return nil, err
		}
		flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		if r.Append {
			flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
		}
		f, err := os.OpenFile(name.String(), flags, 0644)
		if err != nil {
			return nil, errorf(diag.StreamFailure, name.String(), err.Error())
		}
		out.finish = func() error {
			_, err := f.Write(out.buf.Bytes())
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			return err
		}
	case ast.SourceUsing:
		arr, err := a.redirectArray(r)
		if err != nil {
			return nil, err
		}
		out.finish = func() error {
			if !r.Append {
				arr.Empty()
			}
			for _, line := range splitLines(out.buf.String()) {
				arr.Append(value.String(line))
			}
			return nil
		}
	}
	if r.Stream == ast.StreamOutput {
		cio.Stdout = &out.buf
	} else {
		cio.Stderr = &out.buf
	}
	return out, nil
}

// redirectInput returns the lines a command reads.
func (a *activation) redirectInput(r ast.Redirect) (io.Reader, error) {
	var lines []string
	switch r.Kind {
	case ast.SourceStem:
		stem, err := a.redirectStem(r)
		if err != nil {
			return nil, err
		}
		count := 0
		if v, ok := stem.Get("0"); ok {
			count, _ = value.Whole(a.numeric(), v)
		}
		for i := 1; i <= count; i++ {
			v, _ := stem.Get(strconv.Itoa(i))
			if v == nil {
				v = value.Empty
			}
			lines = append(lines, v.String())
		}
	case ast.SourceStream:
		name, err := a.eval(r.Target)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(name.String())
		if err != nil {
			return nil, errorf(diag.StreamFailure, name.String(), err.Error())
		}
		return bytes.NewReader(data), nil
	case ast.SourceUsing:
		arr, err := a.redirectArray(r)
		if err != nil {
			return nil, err
		}
		for _, v := range arr.OverItems() {
			lines = append(lines, v.String())
		}
	}
	if len(lines) == 0 {
		return strings.NewReader(""), nil
	}
	return strings.NewReader(strings.Join(lines, "\n") + "\n"), nil
}

func (a *activation) redirectStem(r ast.Redirect) (*value.Stem, error) {
	sv, ok := r.Target.(*ast.StemVar)
	if !ok {
		return nil, errorf(diag.NotAStem, r.Target.String())
	}
	return a.vars.stem(sv.Name), nil
}

func (a *activation) redirectArray(r ast.Redirect) (*value.Array, error) {
	v, err := a.eval(r.Target)
	if err != nil {
		return nil, err
	}
	arr, ok := v.(*value.Array)
	if !ok {
		return nil, errorf(diag.NotCollection, v.String())
	}
	return arr, nil
}

// storeLines stores lines as stem.1 to stem.n and sets stem.0 to the count.
func storeLines(stem *value.Stem, lines []string, appending bool) {
	start := 0
	if appending {
		if v, ok := stem.Get("0"); ok {
			if n, err := strconv.Atoi(v.String()); err == nil {
				start = n
			}
		}
	} else {
		stem.Reset()
	}
	for i, line := range lines {
		stem.Set(strconv.Itoa(start+i+1), value.String(line))
	}
	stem.Set("0", value.Int(start+len(lines)))
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
