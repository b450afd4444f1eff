// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"

	"github.com/probechain/probe-rexx/lang/interp"
)

// terminalPrompter reads lines from the terminal with line editing and
// history. The terminal stays in its normal mode outside of prompts so
// that program output is not mangled.
type terminalPrompter struct {
	*liner.State
	supported  bool
	normalMode liner.ModeApplier
	rawMode    liner.ModeApplier
}

func newTerminalPrompter() *terminalPrompter {
	p := new(terminalPrompter)
	// Get the original mode before calling NewLiner.
	// This is usually regular "cooked" mode where characters echo.
	normalMode, _ := liner.TerminalMode()
	// Turn on liner. It switches to raw mode.
	p.State = liner.NewLiner()
	rawMode, err := liner.TerminalMode()
	if err != nil || !liner.TerminalSupported() {
		p.supported = false
	} else {
		p.supported = true
		p.normalMode = normalMode
		p.rawMode = rawMode
		// Switch back to normal mode while we're not prompting.
		normalMode.ApplyMode()
	}
	p.SetCtrlCAborts(true)
	p.SetTabCompletionStyle(liner.TabPrints)
	p.SetMultiLineMode(true)
	return p
}

// PromptInput displays prompt and reads one line.
func (p *terminalPrompter) PromptInput(prompt string) (string, error) {
	if p.supported {
		p.rawMode.ApplyMode()
		defer p.normalMode.ApplyMode()
	} else {
		// liner tries to be smart about printing the prompt
		// and doesn't print anything if input is redirected.
		// Un-smart it by printing the prompt always.
		fmt.Print(prompt)
		prompt = ""
		defer fmt.Println()
	}
	return p.State.Prompt(prompt)
}

// lineReader is an io.Reader serving prompted lines, for use as the input
// of an interpreter. An aborted line reads as empty; end of input is EOF.
type lineReader struct {
	p      *terminalPrompter
	prompt string
	buf    strings.Reader
}

func (r *lineReader) Read(b []byte) (int, error) {
	for r.buf.Len() == 0 {
		line, err := r.p.PromptInput(r.prompt)
		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			line = ""
		case err != nil:
			return 0, io.EOF
		}
		if strings.TrimSpace(line) != "" {
			r.p.AppendHistory(line)
		}
		r.buf.Reset(line + "\n")
	}
	return r.buf.Read(b)
}

// debugPrompter answers interactive trace pauses from the terminal. An
// empty line continues, "=" runs the last clause again, any other line is
// interpreted. End of input halts the program.
type debugPrompter struct {
	p *terminalPrompter
}

func (d debugPrompter) Pause(ev interp.PauseEvent) interp.DebugCommand {
	line, err := d.p.PromptInput("")
	if err != nil && !errors.Is(err, liner.ErrPromptAborted) {
		return interp.DebugCommand{Action: interp.DebugHalt}
	}
	switch strings.TrimSpace(line) {
	case "":
		return interp.DebugCommand{Action: interp.DebugContinue}
	case "=":
		return interp.DebugCommand{Action: interp.DebugReexecute}
	}
	d.p.AppendHistory(line)
	return interp.DebugCommand{Action: interp.DebugInterpret, Input: line}
}
