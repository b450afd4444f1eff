// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/probe-rexx/lang/image"
	"github.com/probechain/probe-rexx/lang/interp"
)

var consoleCommand = cli.Command{
	Action:   console,
	Name:     "console",
	Usage:    "Start an interactive session",
	Flags:    []cli.Flag{traceFlag},
	Category: "PROGRAM COMMANDS",
	Description: `
The console command reads clauses from the terminal and interprets each
line in one shared variable pool. Errors are reported and the session goes
on; end of input leaves it.`,
}

// consoleSource is the program driving the console. Every line read from
// the terminal is interpreted in its variable pool.
const consoleSource = `say 'REXX console,' word(arg(1), 1) '(end of input to leave)'
again:
signal on syntax
signal on notready name finished
do forever
  parse linein line
  if strip(line) = '' then iterate
  interpret line
end
syntax:
  say 'Error' rc 'running line' sigl':' condition('d')
  signal again
finished:
  exit 0
`

func console(ctx *cli.Context) error {
	store, err := image.Open(config(ctx).Image)
	if err != nil {
		return err
	}
	defer store.Close()
	prog, err := store.Compile("console", consoleSource)
	if err != nil {
		return err
	}

	p := newTerminalPrompter()
	defer p.Close()

	cfg := config(ctx).Interp
	if ctx.IsSet(traceFlag.Name) {
		cfg.Trace = ctx.String(traceFlag.Name)
	}
	cfg.Stdin = &lineReader{p: p, prompt: "rexx> "}
	cfg.Commands = commandHandlers()
	cfg.Loader = fileLoader(store, ".")
	cfg.Debug = debugPrompter{p}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	_, err = interp.New(cfg).Run(runCtx, prog, interp.Version)
	var c *interp.Condition
	if errors.As(err, &c) && c.Name == "HALT" {
		return nil
	}
	return err
}
