// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package interp executes resolved programs.
//
// Every routine invocation runs in its own activation, which owns the
// instruction pointer, the stack of active blocks and the current settings.
// The instruction graph itself is never written, so one program may be run
// by several interpreters at the same time.
package interp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/go-stack/stack"

	"github.com/probechain/probe-rexx/lang/ast"
	"github.com/probechain/probe-rexx/lang/diag"
	"github.com/probechain/probe-rexx/lang/value"
)

// Version is the string returned by PARSE VERSION.
const Version = "REXX-ProbeRexx_1.0 6.05 15 Oct 2026"

var (
	clauseMeter    = metrics.NewRegisteredMeter("rexx/interp/clauses", nil)
	conditionMeter = metrics.NewRegisteredMeter("rexx/interp/conditions", nil)
	callCounter    = metrics.NewRegisteredCounter("rexx/interp/calls", nil)
	blockCounter   = metrics.NewRegisteredCounter("rexx/interp/blocks", nil)
	runTimer       = metrics.NewRegisteredTimer("rexx/interp/runs", nil)
)

// Config are the configuration options for the Interpreter.
type Config struct {
	Trace        string // initial TRACE setting
	Digits       int    // initial NUMERIC DIGITS
	MaxCallDepth int    // nesting limit of CALL, function calls and INTERPRET
	Address      string // initial ADDRESS environment

	Stdout io.Writer `toml:"-"` // SAY output, defaults to os.Stdout
	Stdin  io.Reader `toml:"-"` // LINEIN and PULL input, defaults to os.Stdin
	Stderr io.Writer `toml:"-"` // command error output, defaults to os.Stderr

	Tracer   TraceSink                 `toml:"-"`
	Debug    DebugHook                 `toml:"-"`
	Registry *Registry                 `toml:"-"`
	Commands map[string]CommandHandler `toml:"-"`
	Loader   Loader                    `toml:"-"`
}

// DefaultConfig contains the default settings of a new interpreter.
var DefaultConfig = Config{
	Trace:        "N",
	Digits:       value.DefaultDigits,
	MaxCallDepth: 250,
	Address:      "SYSTEM",
}

// Loader returns the program named by a ::REQUIRES directive.
type Loader func(name string) (*ast.Program, error)

// Interpreter runs programs. An Interpreter is not safe for concurrent use;
// use one per goroutine, or RunConcurrent.
type Interpreter struct {
	cfg Config

	out   io.Writer
	in    *bufio.Reader
	queue []string // external data queue, front first

	registry *Registry
	log      log.Logger

	depth int
	ctx   context.Context
}

// New returns an interpreter configured by cfg. Zero fields take their value
// from DefaultConfig.
func New(cfg Config) *Interpreter {
	if cfg.Trace == "" {
		cfg.Trace = DefaultConfig.Trace
	}
	if cfg.Digits <= 0 {
		cfg.Digits = DefaultConfig.Digits
	}
	if cfg.MaxCallDepth <= 0 {
		cfg.MaxCallDepth = DefaultConfig.MaxCallDepth
	}
	if cfg.Address == "" {
		cfg.Address = DefaultConfig.Address
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stdin == nil {
		cfg.Stdin = os.Stdin
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	if cfg.Tracer == nil {
		cfg.Tracer = NewTraceWriter(cfg.Stderr)
	}
	reg := cfg.Registry
	if reg == nil {
		reg = NewRegistry()
	}
	return &Interpreter{
		cfg:      cfg,
		out:      cfg.Stdout,
		in:       bufio.NewReader(cfg.Stdin),
		registry: reg,
		log:      log.New("module", "rexx"),
		ctx:      context.Background(),
	}
}

// Config returns the effective configuration.
func (in *Interpreter) Config() Config { return in.cfg }

// Queue appends a line to the external data queue.
func (in *Interpreter) Queue(line string) { in.queue = append(in.queue, line) }

// Run executes the main unit of prog with the given argument strings and
// returns the value of RETURN or EXIT, which is nil when none was given.
//
// An untrapped condition that ends the program, such as a SYNTAX error, is
// returned as a *Condition. Cancelling ctx raises HALT at the next clause.
func (in *Interpreter) Run(ctx context.Context, prog *ast.Program, args ...string) (result value.Value, err error) {
	start := time.Now()
	defer runTimer.UpdateSince(start)
	defer func() {
		if r := recover(); r != nil {
			err = &InternalError{Msg: fmt.Sprint(r), Stack: stack.Trace().TrimRuntime()}
		}
	}()
	in.ctx = ctx
	in.depth = 0

	if err := in.loadRequires(prog); err != nil {
		return nil, err
	}
	vals := make([]value.Value, len(args))
	for i, a := range args {
		vals[i] = value.String(a)
	}
	a := in.newActivation(prog, prog.Main, nil, in.defaultSettings())
	a.args = vals
	a.callType = "COMMAND"
	a.name = prog.Name

	in.log.Debug("Running program", "name", prog.Name, "args", len(args))
	done, err := a.run()
	if err != nil {
		in.log.Debug("Program ended by condition", "name", prog.Name, "err", err)
		return nil, err
	}
	if done.raised != nil {
		// RAISE ... EXIT or RETURN in the main unit ends the program with
		// the condition
		return done.value, done.raised
	}
	return done.value, nil
}

// loadRequires registers the public routines of every required program.
func (in *Interpreter) loadRequires(prog *ast.Program) error {
	if len(prog.Requires) == 0 || in.cfg.Loader == nil {
		return nil
	}
	for _, name := range prog.Requires {
		req, err := in.cfg.Loader(name)
		if err != nil {
			return fmt.Errorf("requires %q: %w", name, err)
		}
		in.registry.AddProgram(namespaceOf(name), req)
	}
	return nil
}

// namespaceOf derives the namespace of a required file: its base name
// without extension, in upper case.
func namespaceOf(name string) string {
	if i := strings.LastIndexAny(name, "/\\"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	return value.Upper(name)
}

// defaultSettings returns the settings a program or ::ROUTINE starts with.
func (in *Interpreter) defaultSettings() *settings {
	s := &settings{
		numeric: *value.DefaultNumeric(),
		address: addressSetting{current: in.cfg.Address, previous: in.cfg.Address},
		traps:   make(map[string]*trap),
	}
	s.numeric.Digits = in.cfg.Digits
	s.trace, _ = parseTrace(in.cfg.Trace)
	return s
}

// say writes one line of program output.
func (in *Interpreter) say(s string) error {
	_, err := io.WriteString(in.out, s+"\n")
	return err
}

// pull removes the first line of the external data queue, reading from the
// input when the queue is empty. ok is false at end of input.
func (in *Interpreter) pull() (string, bool) {
	if len(in.queue) > 0 {
		line := in.queue[0]
		in.queue = in.queue[1:]
		return line, true
	}
	return in.linein()
}

// linein reads one line of input.
func (in *Interpreter) linein() (string, bool) {
	line, err := in.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimRight(line, "\r\n"), true
}

// halted reports whether the run has been cancelled.
func (in *Interpreter) halted() bool {
	select {
	case <-in.ctx.Done():
		return true
	default:
		return false
	}
}

// InternalError is an interpreter fault. It is never trappable.
type InternalError struct {
	Msg   string
	Stack stack.CallStack
}

func internalf(format string, args ...interface{}) *InternalError {
	return &InternalError{Msg: fmt.Sprintf(format, args...), Stack: stack.Trace().TrimBelow(stack.Caller(1)).TrimRuntime()}
}

func (e *InternalError) Error() string {
	if len(e.Stack) > 0 {
		return fmt.Sprintf("internal error: %s (at %+v)", e.Msg, e.Stack[0])
	}
	return "internal error: " + e.Msg
}

// lockedWriter serialises the output of concurrent runs line by line.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// errorf builds a positionless numbered error.
func errorf(code diag.Code, args ...string) error {
	return value.Errorf(code, args...)
}
