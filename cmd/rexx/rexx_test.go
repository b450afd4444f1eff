// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probechain/probe-rexx/lang/image"
	"github.com/probechain/probe-rexx/lang/interp"
	"github.com/probechain/probe-rexx/lang/parser"
)

func TestInteractiveTrace(t *testing.T) {
	tests := map[string]string{
		"":   "?R",
		"n":  "?R",
		"O":  "?R",
		"i":  "?I",
		"?A": "?A",
		" r": "?R",
	}
	for in, want := range tests {
		assert.Equal(t, want, interactiveTrace(in), "input %q", in)
	}
}

func TestUnresolvedSignals(t *testing.T) {
	prog, err := parser.ParseProgram("t.rex", "signal here\nhere:\nif 0 then signal nowhere\nexit")
	require.NoError(t, err)

	warnings := unresolvedSignals(prog)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "NOWHERE")
	assert.Equal(t, len(prog.Main.Code), countInstructions(prog))
}

func TestWriteGraph(t *testing.T) {
	prog, err := parser.ParseProgram("t.rex", "do i = 1 to 2\n say i\nend\nsignal missing")
	require.NoError(t, err)

	var buf bytes.Buffer
	writeGraph(&buf, prog)
	out := buf.String()
	assert.Contains(t, out, "SAY")
	assert.Contains(t, out, "END")
	assert.Contains(t, out, "block=")
	assert.Contains(t, out, "unresolved")
}

func TestDecodeConfig(t *testing.T) {
	cfg := defaultConfig()
	err := decodeConfig(strings.NewReader("[Interp]\nTrace = \"R\"\nMaxCallDepth = 40\n\n[Image]\nCacheSize = 8\n"), &cfg)
	require.NoError(t, err)
	assert.Equal(t, "R", cfg.Interp.Trace)
	assert.Equal(t, 40, cfg.Interp.MaxCallDepth)
	assert.Equal(t, interp.DefaultConfig.Digits, cfg.Interp.Digits)
	assert.Equal(t, 8, cfg.Image.CacheSize)

	err = decodeConfig(strings.NewReader("[Interp]\nUnknown = 1\n"), &cfg)
	assert.Error(t, err)
}

func TestDumpConfigRoundTrip(t *testing.T) {
	cfg := defaultConfig()
	cfg.Image.Dir = "/tmp/images"
	out, err := tomlSettings.Marshal(&cfg)
	require.NoError(t, err)

	back := rexxConfig{}
	require.NoError(t, decodeConfig(bytes.NewReader(out), &back))
	assert.Equal(t, cfg.Image, back.Image)
	assert.Equal(t, cfg.Interp.Trace, back.Interp.Trace)
	assert.Equal(t, cfg.Log, back.Log)
}

func TestShellCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs /bin/sh")
	}
	var out bytes.Buffer
	cio := &interp.CommandIO{Stdin: strings.NewReader("piped\n"), Stdout: &out, Stderr: &out}
	sh := hostShell()

	rc, err := sh.Command(context.Background(), "SYSTEM", "cat", cio)
	require.NoError(t, err)
	assert.Equal(t, 0, rc)
	assert.Equal(t, "piped\n", out.String())

	rc, err = sh.Command(context.Background(), "SYSTEM", "exit 3", cio)
	require.NoError(t, err)
	assert.Equal(t, 3, rc)
}

func TestRunWithShell(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs /bin/sh")
	}
	prog, err := parser.ParseProgram("t.rex", "address system 'printf \"a\\nb\\n\"' with output stem out.\nsay out.0 out.2\n'exit 5'\nsay rc")
	require.NoError(t, err)

	var out bytes.Buffer
	_, err = interp.New(interp.Config{
		Stdout:   &out,
		Stdin:    strings.NewReader(""),
		Commands: commandHandlers(),
	}).Run(context.Background(), prog)
	require.NoError(t, err)
	assert.Equal(t, "2 b\n5\n", out.String())
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	lib := "::routine twice public\n  use arg n\n  return n * 2\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mathlib.rex"), []byte(lib), 0644))

	store, err := image.Open(image.DefaultConfig)
	require.NoError(t, err)
	defer store.Close()

	load := fileLoader(store, dir)
	prog, err := load("mathlib")
	require.NoError(t, err)
	assert.True(t, prog.Public["TWICE"])

	_, err = load("absent")
	assert.ErrorIs(t, err, os.ErrNotExist)

	user, err := parser.ParseProgram("main.rex", "say mathlib:twice(21)\n::requires 'mathlib'")
	require.NoError(t, err)
	var out bytes.Buffer
	_, err = interp.New(interp.Config{Stdout: &out, Stdin: strings.NewReader(""), Loader: load}).Run(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, "42\n", out.String())
}

func TestMetricRows(t *testing.T) {
	r := metrics.NewRegistry()
	metrics.NewRegisteredCounter("b/counter", r)
	metrics.NewRegisteredMeter("a/meter", r)

	rows := metricRows(r)
	require.Len(t, rows, 2)
	assert.Equal(t, "a/meter", rows[0][0])
	assert.Equal(t, "b/counter", rows[1][0])
}
