// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// rexx runs, checks and inspects REXX programs.
package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/ethereum/go-ethereum/log"
	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/probe-rexx/lang/interp"
)

const clientIdentifier = "rexx"

var (
	app = cli.NewApp()

	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value: int(log.LvlWarn),
	}
	metricsFlag = cli.BoolFlag{
		Name:  "metrics",
		Usage: "Enable metrics collection and print a report on exit",
	}
	imageDirFlag = cli.StringFlag{
		Name:  "imagedir",
		Usage: "Directory of the compiled image store (in memory if empty)",
	}
	traceFlag = cli.StringFlag{
		Name:  "trace",
		Usage: "Initial TRACE setting, e.g. R, I or ?R",
	}
	debugFlag = cli.BoolFlag{
		Name:  "debug",
		Usage: "Start in interactive trace",
	}
	rawFlag = cli.BoolFlag{
		Name:  "raw",
		Usage: "Dump the Go representation of the instruction graph",
	}
)

func init() {
	app.Name = clientIdentifier
	app.Usage = "the REXX clause interpreter"
	app.Version = interp.Version
	app.Flags = []cli.Flag{
		configFileFlag,
		verbosityFlag,
		metricsFlag,
		imageDirFlag,
	}
	app.Commands = []cli.Command{
		runCommand,
		checkCommand,
		dumpCommand,
		consoleCommand,
		dumpConfigCommand,
	}
	sort.Sort(cli.CommandsByName(app.Commands))

	app.Before = func(ctx *cli.Context) error {
		cfg, err := makeConfig(ctx)
		if err != nil {
			return err
		}
		setupLogging(cfg.Log.Verbosity)
		if ctx.GlobalBool(metricsFlag.Name) {
			log.Info("Enabling metrics collection")
		}
		ctx.App.Metadata = map[string]interface{}{"config": cfg}
		return nil
	}
	app.After = func(ctx *cli.Context) error {
		if ctx.GlobalBool(metricsFlag.Name) {
			reportMetrics(os.Stderr)
		}
		return nil
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fatalf("%v", err)
	}
}

// setupLogging installs the root log handler, colouring terminal output.
func setupLogging(verbosity int) {
	usecolor := (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
	output := io.Writer(os.Stderr)
	if usecolor {
		output = colorable.NewColorableStderr()
	}
	glogger := log.NewGlogHandler(log.StreamHandler(output, log.TerminalFormat(usecolor)))
	glogger.Verbosity(log.Lvl(verbosity))
	log.Root().SetHandler(glogger)
}

// config returns the configuration loaded before the command ran.
func config(ctx *cli.Context) rexxConfig {
	return ctx.App.Metadata["config"].(rexxConfig)
}

var errorColor = color.New(color.FgRed, color.Bold)

// fatalf prints a message in red on stderr and exits.
func fatalf(format string, args ...interface{}) {
	w := colorable.NewColorableStderr()
	errorColor.Fprint(w, "Fatal: ")
	fmt.Fprintf(w, format+"\n", args...)
	os.Exit(1)
}
