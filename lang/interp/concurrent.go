// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package interp

import (
	"context"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/probechain/probe-rexx/lang/ast"
	"github.com/probechain/probe-rexx/lang/value"
)

// RunConcurrent runs prog once per argument list, each run on its own
// Interpreter and goroutine. The runs share the resolved program, the
// registry and the output, which is serialised. The results are returned in
// the order of argsList; the first failing run cancels the others.
func RunConcurrent(ctx context.Context, cfg Config, prog *ast.Program, argsList [][]string) ([]value.Value, error) {
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	cfg.Stdout = &lockedWriter{w: cfg.Stdout}
	cfg.Stderr = &lockedWriter{w: cfg.Stderr}
	if cfg.Registry == nil {
		cfg.Registry = NewRegistry()
	}
	results := make([]value.Value, len(argsList))
	g, gctx := errgroup.WithContext(ctx)
	for i, args := range argsList {
		i, args := i, args
		g.Go(func() error {
			v, err := New(cfg).Run(gctx, prog, args...)
			results[i] = v
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
