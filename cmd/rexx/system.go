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
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/ethereum/go-ethereum/log"

	"github.com/probechain/probe-rexx/lang/ast"
	"github.com/probechain/probe-rexx/lang/image"
	"github.com/probechain/probe-rexx/lang/interp"
)

// shell passes commands to the host command interpreter.
type shell struct {
	path string
	flag string
}

func hostShell() shell {
	if runtime.GOOS == "windows" {
		return shell{path: "cmd", flag: "/C"}
	}
	return shell{path: "/bin/sh", flag: "-c"}
}

func (s shell) Command(ctx context.Context, env, cmd string, cio *interp.CommandIO) (int, error) {
	c := exec.CommandContext(ctx, s.path, s.flag, cmd)
	c.Stdin, c.Stdout, c.Stderr = cio.Stdin, cio.Stdout, cio.Stderr
	err := c.Run()
	var exit *exec.ExitError
	switch {
	case err == nil:
		return 0, nil
	case errors.As(err, &exit):
		return exit.ExitCode(), nil
	default:
		log.Debug("Command failed to start", "env", env, "err", err)
		return -1, err
	}
}

// commandHandlers returns the host environments commands can be addressed to.
func commandHandlers() map[string]interp.CommandHandler {
	sh := hostShell()
	return map[string]interp.CommandHandler{
		"SYSTEM":  sh,
		"COMMAND": sh,
		"SH":      sh,
	}
}

// fileLoader resolves ::REQUIRES names against dir and compiles them
// through the image store.
func fileLoader(store *image.Store, dir string) interp.Loader {
	return func(name string) (*ast.Program, error) {
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, name)
		}
		src, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) && filepath.Ext(path) == "" {
			path += ".rex"
			src, err = os.ReadFile(path)
		}
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", name, err)
		}
		return store.Compile(path, string(src))
	}
}
