// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package image

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probechain/probe-rexx/lang/ast"
	"github.com/probechain/probe-rexx/lang/interp"
	"github.com/probechain/probe-rexx/lang/parser"
)

const sample = `/* exercises most instruction types */
numeric digits 12
total = 0
loop i = 1 to 5 by 2
  total = total + i
end
do counter c j = 10 by -3 for 3 while j > 0
  if j // 2 = 0 then say 'even' j
  else say 'odd' j
end
select case total
  when 1, 2 then say 'few'
  when 9 then do
    say 'nine'
  end
  otherwise nop
end
select
  when total > 100 then say 'big'
  otherwise say 'small' c
end
parse value 'key=value rest' with k '=' v +2 tail
say k v tail
a.1 = 'x'; a.0 = 1
drop k v
signal on syntax name trapped
call helper 3, 4
say 'helper' result
n = 2
call bump >n
say 'bumped' n
interpret 'say "interpreted" n'
signal done
trapped:
  say 'trapped' rc
done:
queue 'line'
parse pull q
say q a.0 a.1
exit 0

helper: procedure
  use arg x, y, z = 'dflt'
  return x * y z

bump: procedure
  use arg >v
  v = v + 1
  return

::routine twice public
  use strict arg n
  return n * 2
`

func parseSample(t *testing.T) *ast.Program {
	t.Helper()
	prog, err := parser.ParseProgram("sample.rex", sample)
	require.NoError(t, err)
	return prog
}

func TestRoundTrip(t *testing.T) {
	prog := parseSample(t)

	data, err := Flatten(prog)
	require.NoError(t, err)
	back, err := Unflatten(data)
	require.NoError(t, err)

	if diff := cmp.Diff(prog, back, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("program changed across an image (-want +got):\n%s", diff)
	}

	again, err := Flatten(back)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, again), "flattening is not deterministic")
}

// run executes prog and returns its output and trace events.
func run(t *testing.T, prog *ast.Program) (string, []interp.TraceEvent) {
	t.Helper()
	var (
		out    bytes.Buffer
		events []interp.TraceEvent
	)
	in := interp.New(interp.Config{
		Trace:  "I",
		Stdout: &out,
		Stdin:  strings.NewReader(""),
		Stderr: io.Discard,
		Tracer: interp.TraceFunc(func(ev interp.TraceEvent) { events = append(events, ev) }),
	})
	_, err := in.Run(context.Background(), prog)
	require.NoError(t, err)
	return out.String(), events
}

func TestUnflattenedProgramTracesTheSame(t *testing.T) {
	prog := parseSample(t)
	data, err := Flatten(prog)
	require.NoError(t, err)
	back, err := Unflatten(data)
	require.NoError(t, err)

	wantOut, wantEvents := run(t, prog)
	gotOut, gotEvents := run(t, back)

	assert.Equal(t, wantOut, gotOut)
	assert.NotEmpty(t, wantEvents)
	if diff := cmp.Diff(wantEvents, gotEvents); diff != "" {
		t.Errorf("trace differs (-original +unflattened):\n%s", diff)
	}
}

func TestUnflattenRejects(t *testing.T) {
	data, err := Flatten(parseSample(t))
	require.NoError(t, err)

	badVersion := append([]byte{}, data...)
	badVersion[len(magic)] = Version + 1

	corrupt := append([]byte{}, data...)
	for i := len(magic) + 1; i < len(corrupt); i++ {
		corrupt[i] ^= 0x5a
	}

	tests := map[string][]byte{
		"empty":     nil,
		"no magic":  []byte("not an image"),
		"version":   badVersion,
		"truncated": data[:len(data)/2],
		"corrupt":   corrupt,
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Unflatten(in)
			assert.True(t, errors.Is(err, ErrBadImage), "got %v", err)
		})
	}
}

func TestUnflattenChecksLinks(t *testing.T) {
	prog := parseSample(t)
	prog.Main.Code[0].Next = ast.Index(len(prog.Main.Code) + 4)
	data, err := Flatten(prog)
	require.NoError(t, err)

	_, err = Unflatten(data)
	assert.ErrorIs(t, err, ErrBadImage)
}

func TestFlattenNothing(t *testing.T) {
	_, err := Flatten(nil)
	assert.Error(t, err)
}

func TestZigzag(t *testing.T) {
	for _, n := range []int{0, 1, -1, 2, -2, 1 << 40, -(1 << 40)} {
		assert.Equal(t, n, unzigzag(zigzag(n)))
	}
}

func TestStoreCompile(t *testing.T) {
	s, err := Open(DefaultConfig)
	require.NoError(t, err)
	defer s.Close()

	first, err := s.Compile("sample.rex", sample)
	require.NoError(t, err)
	second, err := s.Compile("sample.rex", sample)
	require.NoError(t, err)
	assert.Same(t, first, second, "second compile should hit the cache")

	_, err = s.Compile("other.rex", sample)
	require.NoError(t, err)
	n, err := s.Len()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStoreSyntaxErrorNotStored(t *testing.T) {
	s, err := Open(DefaultConfig)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Compile("bad.rex", "if then")
	require.Error(t, err)
	n, err := s.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStoreLenCountsImagesOnly(t *testing.T) {
	s, err := Open(DefaultConfig)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Compile("sample.rex", sample)
	require.NoError(t, err)
	require.NoError(t, s.db.Put([]byte("h"), []byte("other"), nil))
	require.NoError(t, s.db.Put([]byte("j"), []byte("other"), nil))

	n, err := s.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStoreGet(t *testing.T) {
	s, err := Open(Config{CacheSize: 1})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Get(KeyOf("missing.rex", "say 1"))
	assert.ErrorIs(t, err, ErrImageNotFound)

	prog := parseSample(t)
	k := KeyOf("sample.rex", sample)
	require.NoError(t, s.Put(k, prog))

	// push the sample out of the single entry cache
	_, err = s.Compile("tiny.rex", "say 1")
	require.NoError(t, err)

	got, err := s.Get(k)
	require.NoError(t, err)
	assert.NotSame(t, prog, got)
	if diff := cmp.Diff(prog, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("stored program differs (-want +got):\n%s", diff)
	}

	require.NoError(t, s.Delete(k))
	_, err = s.Get(k)
	assert.ErrorIs(t, err, ErrImageNotFound)
}

func TestStorePersists(t *testing.T) {
	cfg := Config{Dir: t.TempDir()}
	s, err := Open(cfg)
	require.NoError(t, err)
	_, err = s.Compile("sample.rex", sample)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(cfg)
	require.NoError(t, err)
	defer s.Close()
	prog, err := s.Get(KeyOf("sample.rex", sample))
	require.NoError(t, err)
	assert.Equal(t, "sample.rex", prog.Name)
}

func TestKeyOf(t *testing.T) {
	assert.Equal(t, KeyOf("a", "b"), KeyOf("a", "b"))
	assert.NotEqual(t, KeyOf("a", "b"), KeyOf("ab", ""))
	assert.Len(t, KeyOf("a", "b").String(), 64)
}
