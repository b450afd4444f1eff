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
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/ethereum/go-ethereum/log"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/probe-rexx/lang/ast"
	"github.com/probechain/probe-rexx/lang/image"
	"github.com/probechain/probe-rexx/lang/interp"
)

var (
	runCommand = cli.Command{
		Action:    runProgram,
		Name:      "run",
		Usage:     "Run a program",
		ArgsUsage: "<file> [args...]",
		Flags:     []cli.Flag{traceFlag, debugFlag},
		Category:  "PROGRAM COMMANDS",
		Description: `
The run command compiles the program (reusing a stored image when the source
is unchanged) and runs it. The arguments become the program's ARG strings.
A whole number returned by EXIT becomes the exit status.`,
	}
	checkCommand = cli.Command{
		Action:    checkProgram,
		Name:      "check",
		Usage:     "Check the syntax of a program",
		ArgsUsage: "<file>",
		Category:  "PROGRAM COMMANDS",
		Description: `
The check command parses the program and reports syntax errors, and SIGNAL
targets that no label matches.`,
	}
	dumpCommand = cli.Command{
		Action:    dumpProgram,
		Name:      "dump",
		Usage:     "Print the instruction graph of a program",
		ArgsUsage: "<file>",
		Flags:     []cli.Flag{rawFlag},
		Category:  "PROGRAM COMMANDS",
	}
)

// openProgram opens the image store and compiles the file argument through it.
func openProgram(ctx *cli.Context) (*image.Store, *ast.Program, error) {
	if ctx.NArg() < 1 {
		return nil, nil, errors.New("no program file given")
	}
	file := ctx.Args().First()
	src, err := os.ReadFile(file)
	if err != nil {
		return nil, nil, err
	}
	store, err := image.Open(config(ctx).Image)
	if err != nil {
		return nil, nil, err
	}
	prog, err := store.Compile(file, string(src))
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return store, prog, nil
}

func runProgram(ctx *cli.Context) error {
	store, prog, err := openProgram(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	cfg := config(ctx).Interp
	if ctx.IsSet(traceFlag.Name) {
		cfg.Trace = ctx.String(traceFlag.Name)
	}
	cfg.Commands = commandHandlers()
	cfg.Loader = fileLoader(store, filepath.Dir(ctx.Args().First()))
	if ctx.Bool(debugFlag.Name) {
		p := newTerminalPrompter()
		defer p.Close()
		cfg.Debug = debugPrompter{p}
		cfg.Trace = interactiveTrace(cfg.Trace)
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	result, err := interp.New(cfg).Run(runCtx, prog, ctx.Args().Tail()...)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	code, err := strconv.Atoi(strings.TrimSpace(result.String()))
	if err != nil {
		log.Debug("Program result is not an exit status", "result", result.String())
		return nil
	}
	if code != 0 {
		return cli.NewExitError("", code)
	}
	return nil
}

// interactiveTrace turns on interactive debug for the trace setting s,
// tracing results when s traces nothing.
func interactiveTrace(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if strings.HasPrefix(s, "?") {
		return s
	}
	if s == "" || s == "N" || s == "O" {
		return "?R"
	}
	return "?" + s
}

func checkProgram(ctx *cli.Context) error {
	store, prog, err := openProgram(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	warnings := unresolvedSignals(prog)
	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, color.YellowString("warning:"), w)
	}
	fmt.Printf("%s: %d instructions, %d routines, %d warnings\n",
		prog.Name, countInstructions(prog), len(prog.Routines), len(warnings))
	return nil
}

// unresolvedSignals lists the SIGNAL instructions whose label does not
// exist. They are only an error if executed.
func unresolvedSignals(prog *ast.Program) []string {
	var out []string
	eachUnit(prog, func(u *ast.Unit) {
		for i := range u.Code {
			n, ok := u.Code[i].Node.(*ast.Signal)
			if ok && n.Form == ast.TransferLabel && !n.Resolved {
				out = append(out, fmt.Sprintf("%s: label %s not found", u.Code[i].Loc, n.Name))
			}
		}
	})
	return out
}

func countInstructions(prog *ast.Program) int {
	n := 0
	eachUnit(prog, func(u *ast.Unit) { n += len(u.Code) })
	return n
}

// eachUnit calls fn for the main unit, then the routines by name.
func eachUnit(prog *ast.Program, fn func(u *ast.Unit)) {
	fn(prog.Main)
	names := make([]string, 0, len(prog.Routines))
	for name := range prog.Routines {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fn(prog.Routines[name])
	}
}

func dumpProgram(ctx *cli.Context) error {
	store, prog, err := openProgram(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if ctx.Bool(rawFlag.Name) {
		cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}
		cfg.Fdump(os.Stdout, prog)
		return nil
	}
	writeGraph(os.Stdout, prog)
	return nil
}

// writeGraph prints one table row per instruction.
func writeGraph(w io.Writer, prog *ast.Program) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Unit", "#", "Line", "Kind", "Next", "Label", "Links"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	eachUnit(prog, func(u *ast.Unit) {
		for i := range u.Code {
			inst := &u.Code[i]
			table.Append([]string{
				u.Name,
				strconv.Itoa(i),
				strconv.Itoa(inst.Loc.Line()),
				inst.Kind.String(),
				indexString(inst.Next),
				inst.Label,
				links(inst),
			})
		}
	})
	table.Render()
}

func indexString(i ast.Index) string {
	if !i.Valid() {
		return "-"
	}
	return strconv.Itoa(int(i))
}

// links describes the block and branch bindings of an instruction.
func links(inst *ast.Instruction) string {
	switch n := inst.Node.(type) {
	case *ast.Loop:
		return "end=" + indexString(n.End)
	case *ast.Select:
		return fmt.Sprintf("whens=%d otherwise=%s end=%s", len(n.Whens), indexString(n.Otherwise), indexString(n.End))
	case *ast.When:
		return "select=" + indexString(n.Select) + " endif=" + indexString(n.EndIf)
	case *ast.Otherwise:
		return "select=" + indexString(n.Select)
	case *ast.If:
		return "else=" + indexString(n.Else)
	case *ast.Else:
		return "if=" + indexString(n.If) + " endif=" + indexString(n.EndIf)
	case *ast.Then:
		return "owner=" + indexString(n.Owner)
	case *ast.EndIf:
		return "owner=" + indexString(n.Owner)
	case *ast.End:
		return "block=" + indexString(n.Block)
	case *ast.Call:
		if n.Resolved {
			return "label=" + indexString(n.Target)
		}
	case *ast.Signal:
		if n.Resolved {
			return "label=" + indexString(n.Target)
		}
		if n.Form == ast.TransferLabel {
			return "unresolved"
		}
	}
	return ""
}
