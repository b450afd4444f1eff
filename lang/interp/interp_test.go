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
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probechain/probe-rexx/lang/diag"
	"github.com/probechain/probe-rexx/lang/parser"
	"github.com/probechain/probe-rexx/lang/value"
)

// testRun holds the observable effects of one program run.
type testRun struct {
	out    bytes.Buffer
	events []TraceEvent
	cfg    Config
}

func newTestRun() *testRun {
	r := &testRun{}
	r.cfg = Config{
		Stdout: &r.out,
		Stdin:  strings.NewReader(""),
		Stderr: io.Discard,
		Tracer: TraceFunc(func(ev TraceEvent) { r.events = append(r.events, ev) }),
	}
	return r
}

func (r *testRun) run(t *testing.T, src string, args ...string) (value.Value, error) {
	t.Helper()
	prog, err := parser.ParseProgram("test.rex", src)
	require.NoError(t, err)
	return New(r.cfg).Run(context.Background(), prog, args...)
}

// runProgram runs src and returns its output, failing on any error.
func runProgram(t *testing.T, src string, args ...string) string {
	t.Helper()
	r := newTestRun()
	_, err := r.run(t, src, args...)
	require.NoError(t, err)
	return r.out.String()
}

// recordTerminations observes block terminations for the duration of the
// test.
func recordTerminations(t *testing.T) *[]string {
	var names []string
	testTerminateHook = func(b *doBlock) {
		if b.sel != nil {
			names = append(names, "SELECT")
			return
		}
		names = append(names, b.name())
	}
	t.Cleanup(func() { testTerminateHook = nil })
	return &names
}

func TestControlledLoop(t *testing.T) {
	out := runProgram(t, "loop i = 1 to 5 by 2\n say i\nend\nsay 'after' i")
	assert.Equal(t, "1\n3\n5\nafter 7\n", out)
}

func TestLoopForms(t *testing.T) {
	tests := []struct {
		name, src, want string
	}{
		{"count", "do 3\n say 'x'\nend", "x\nx\nx\n"},
		{"zero count", "do 0\n say 'x'\nend\nsay 'done'", "done\n"},
		{"for", "do i = 10 by -3 for 3\n say i\nend", "10\n7\n4\n"},
		{"while", "n = 0\ndo while n < 2\n n = n + 1\nend\nsay n", "2\n"},
		{"until runs once", "n = 5\ndo until n > 0\n say 'once'\nend", "once\n"},
		{"counter", "do counter c i = 1 to 3\nend\nsay c", "3\n"},
		{"to not reached", "do i = 5 to 1\n say i\nend\nsay i", "5\n"},
		{"simple", "do\n say 'in'\nend\nsay 'out'", "in\nout\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, runProgram(t, tt.src))
		})
	}
}

func TestLoopOverArray(t *testing.T) {
	src := "a = .array~new\na~append('x')\na~append('y')\ndo item over a\n say item\nend\n" +
		"do with index i item v over a\n say i v\nend"
	assert.Equal(t, "x\ny\n1 x\n2 y\n", runProgram(t, src))
}

func TestSelectCase(t *testing.T) {
	src := `select case 3
 when 1, 2 then say 'low'
 when 3, 4 then say 'mid'
 otherwise say 'high'
end
say 'done'`
	assert.Equal(t, "mid\ndone\n", runProgram(t, src))
}

func TestSelectWhen(t *testing.T) {
	src := "x = 7\nselect\n when x < 5 then say 'small'\n when x < 10 then say 'medium'\n otherwise say 'large'\nend"
	assert.Equal(t, "medium\n", runProgram(t, src))

	r := newTestRun()
	_, err := r.run(t, "select case 9\n when 1 then nop\nend")
	require.Error(t, err)
	assert.True(t, IsSyntax(err, diag.WhenNoneTrue), "got %v", err)
}

func TestUseArgCount(t *testing.T) {
	r := newTestRun()
	_, err := r.run(t, "call sub 1\nexit\nsub:\n use arg a, b\n return a")
	require.Error(t, err)
	assert.True(t, IsSyntax(err, diag.NotEnoughArgs), "got %v", err)

	out := runProgram(t, "call sub 1\nsay result\nexit\nsub:\n use arg a, b, ...\n return a symbol('b')")
	assert.Equal(t, "1 LIT\n", out)

	r = newTestRun()
	_, err = r.run(t, "call sub 1, 2, 3\nexit\nsub:\n use arg a, b\n return")
	assert.True(t, IsSyntax(err, diag.TooManyArgs), "got %v", err)
}

func TestUseArgDefaults(t *testing.T) {
	out := runProgram(t, "call sub 1\nsay result\nexit\nsub:\n use arg a, b = 'dflt'\n return a b")
	assert.Equal(t, "1 dflt\n", out)

	r := newTestRun()
	_, err := r.run(t, "call sub 1, , 3\nexit\nsub:\n use strict arg a, b, c\n return")
	assert.True(t, IsSyntax(err, diag.MissingArg), "got %v", err)
}

func TestUseArgReference(t *testing.T) {
	src := "x = 1\ncall bump >x\nsay x\nexit\nbump: procedure\n use arg >v\n v = v + 1\n return"
	assert.Equal(t, "2\n", runProgram(t, src))
}

func TestSignalUndefinedLabel(t *testing.T) {
	out := runProgram(t, "say 'before'\nif 0 then signal nowhere\nsay 'after'")
	assert.Equal(t, "before\nafter\n", out)

	r := newTestRun()
	_, err := r.run(t, "say 'before'\nsignal nowhere\nsay 'after'")
	require.Error(t, err)
	assert.True(t, IsSyntax(err, diag.LabelNotFound), "got %v", err)
	var c *Condition
	require.True(t, errors.As(err, &c))
	assert.Equal(t, 2, c.Pos.Line)
	assert.Equal(t, "before\n", r.out.String())
}

func TestSignalLabel(t *testing.T) {
	src := "do i = 1 to 3\n if i = 2 then signal out\nend\nout:\nsay 'left at' i sigl"
	assert.Equal(t, "left at 2 2\n", runProgram(t, src))
}

func TestEvaluationOrder(t *testing.T) {
	r := newTestRun()
	_, err := r.run(t, "trace i\nsay 1 + 2 * 3")
	require.NoError(t, err)

	type step struct {
		Tag, Name, Value string
	}
	var got []step
	for _, ev := range r.events {
		if ev.Kind == TraceClause {
			continue
		}
		got = append(got, step{ev.Kind.Tag(), ev.Name, ev.Value})
	}
	want := []step{
		{">L>", "", "1"},
		{">L>", "", "2"},
		{">L>", "", "3"},
		{">O>", "*", "6"},
		{">O>", "+", "7"},
		{">>>", "", "7"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("trace mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "7\n", r.out.String())
}

func TestFunctionCallOrder(t *testing.T) {
	src := `x = first() || second()
say x
exit
first:
 say 'first'
 return 'a'
second:
 say 'second'
 return 'b'`
	assert.Equal(t, "first\nsecond\nab\n", runProgram(t, src))
}

func TestLeaveIterate(t *testing.T) {
	terminated := recordTerminations(t)
	src := "do i = 1 to 3\n do j = 1 to 3\n  if j = 2 then iterate i\n  say i j\n end\nend"
	assert.Equal(t, "1 1\n2 1\n3 1\n", runProgram(t, src))
	assert.Equal(t, []string{"J", "J", "J", "I"}, *terminated)

	out := runProgram(t, "n = 0\ndo forever\n n = n + 1\n if n = 3 then leave\nend\nsay n")
	assert.Equal(t, "3\n", out)

	out = runProgram(t, "do label outer i = 1 to 3\n do j = 1 to 3\n  if i * j = 4 then leave outer\n end\nend\nsay i j")
	assert.Equal(t, "2 2\n", out)
}

func TestSyntaxTrap(t *testing.T) {
	src := "signal on syntax\nx = 1 + 'a'\nsay 'unreached'\nsyntax:\nsay 'caught' rc sigl condition('c')"
	assert.Equal(t, "caught 41 2 SYNTAX\n", runProgram(t, src))
}

func TestSyntaxUnwindsBlocks(t *testing.T) {
	terminated := recordTerminations(t)
	src := "signal on syntax\ndo i = 1 to 3\n select\n  when i = 2 then x = 1 + 'a'\n  otherwise nop\n end\nend\nsyntax:\nsay 'trapped' i"
	assert.Equal(t, "trapped 2\n", runProgram(t, src))
	assert.Equal(t, []string{"SELECT", "SELECT", "I"}, *terminated)
}

func TestCallOnError(t *testing.T) {
	r := newTestRun()
	r.cfg.Commands = map[string]CommandHandler{
		"SYSTEM": CommandFunc(func(ctx context.Context, env, cmd string, cio *CommandIO) (int, error) {
			return 1, nil
		}),
	}
	src := "call on error\n'fail'\nsay 'after' rc\nexit\nerror:\n say 'handler' condition('c') condition('d') rc\n return"
	_, err := r.run(t, src)
	require.NoError(t, err)
	assert.Equal(t, "handler ERROR fail 1\nafter 1\n", r.out.String())
}

func TestCommandRedirect(t *testing.T) {
	r := newTestRun()
	r.cfg.Commands = map[string]CommandHandler{
		"SYSTEM": CommandFunc(func(ctx context.Context, env, cmd string, cio *CommandIO) (int, error) {
			data, err := io.ReadAll(cio.Stdin)
			if err != nil {
				return -1, err
			}
			_, err = io.WriteString(cio.Stdout, strings.ToUpper(string(data)))
			return 0, err
		}),
	}
	src := "in.0 = 2\nin.1 = 'a'\nin.2 = 'b'\naddress system 'upper' with input stem in. output stem out.\nsay out.0 out.1 out.2 rc"
	_, err := r.run(t, src)
	require.NoError(t, err)
	assert.Equal(t, "2 A B 0\n", r.out.String())
}

func TestCommandWithoutHandler(t *testing.T) {
	out := runProgram(t, "address nowhere\n'cmd'\nsay rc address()\naddress\nsay address()")
	assert.Equal(t, "-3 NOWHERE\nSYSTEM\n", out)
}

func TestParseTemplates(t *testing.T) {
	tests := []struct {
		name, src, want string
	}{
		{"words", "parse value 'alpha beta gamma delta' with a b rest\nsay a || '|' || b || '|' || rest", "alpha|beta|gamma delta\n"},
		{"pattern", "parse value 'key=value' with k '=' v\nsay k v", "key value\n"},
		{"missing pattern", "parse value 'abc' with x ',' y\nsay '[' || x || '][' || y || ']'", "[abc][]\n"},
		{"positions", "parse value 'abcdefgh' with x =3 y +2 z\nsay x y z", "ab cd efgh\n"},
		{"dummy", "parse value 'one two three' with . second .\nsay second", "two\n"},
		{"upper", "parse upper value 'mixed Case' with w1 w2\nsay w1 w2", "MIXED CASE\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, runProgram(t, tt.src))
		})
	}
}

func TestParseArg(t *testing.T) {
	out := runProgram(t, "parse arg first rest\nsay rest first", "hello big world")
	assert.Equal(t, "big world hello\n", out)
}

func TestInterpret(t *testing.T) {
	assert.Equal(t, "10\n", runProgram(t, "interpret 'x = 5'\nsay x * 2"))

	out := runProgram(t, "do i = 1 to 3\n interpret 'if i = 2 then leave'\nend\nsay i")
	assert.Equal(t, "2\n", out)

	r := newTestRun()
	_, err := r.run(t, "say 'a'\ninterpret 'x = ('")
	require.Error(t, err)
	var c *Condition
	require.True(t, errors.As(err, &c))
	assert.Equal(t, 2, c.Pos.Line)
}

func TestDebugReexecute(t *testing.T) {
	terminated := recordTerminations(t)
	r := newTestRun()
	reexecuted := false
	var pauses []PauseEvent
	r.cfg.Debug = DebugFunc(func(ev PauseEvent) DebugCommand {
		pauses = append(pauses, ev)
		if ev.Block && !reexecuted {
			reexecuted = true
			return DebugCommand{Action: DebugReexecute}
		}
		return DebugCommand{Action: DebugContinue}
	})
	_, err := r.run(t, "trace ?r\ndo i = 1 to 2\n say i\nend")
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n", r.out.String())
	assert.Equal(t, []string{"I", "I"}, *terminated)
	require.True(t, reexecuted)

	var blockLines []int
	for _, ev := range pauses {
		if ev.Block {
			blockLines = append(blockLines, ev.Line)
		}
	}
	// the DO twice, then the END going round once
	assert.Equal(t, []int{2, 2, 4}, blockLines)
}

func TestDebugInterpretAndHalt(t *testing.T) {
	r := newTestRun()
	step := 0
	r.cfg.Debug = DebugFunc(func(ev PauseEvent) DebugCommand {
		step++
		switch step {
		case 1:
			return DebugCommand{Action: DebugInterpret, Input: "x = 42"}
		case 2:
			return DebugCommand{Action: DebugContinue}
		}
		return DebugCommand{Action: DebugHalt}
	})
	_, err := r.run(t, "trace ?r\nsay x\nsay 'never'")
	require.Error(t, err)
	var c *Condition
	require.True(t, errors.As(err, &c))
	assert.Equal(t, "HALT", c.Name)
	assert.Equal(t, "42\n", r.out.String())
}

func TestBuiltins(t *testing.T) {
	out := runProgram(t, "say max(3, 7, 5) min(3, 7, 5) length('abc') arg()")
	assert.Equal(t, "7 3 3 0\n", out)

	out = runProgram(t, "call sub 'a', , 'c'\nexit\nsub:\n say arg() arg(2, 'o') arg(3)\n return")
	assert.Equal(t, "3 1 c\n", out)

	out = runProgram(t, "x = 1\nsay symbol('x') symbol('y') symbol('1+')")
	assert.Equal(t, "VAR LIT BAD\n", out)
}

func TestExternalRoutines(t *testing.T) {
	r := newTestRun()
	r.cfg.Registry = NewRegistry()
	r.cfg.Registry.Register("DOUBLE", func(ctx context.Context, args []value.Value) (value.Value, error) {
		f, _ := value.ParseNumber(args[0].String())
		return value.Number(value.DefaultNumeric(), f*2), nil
	})
	r.cfg.Registry.Register("math:twice", func(ctx context.Context, args []value.Value) (value.Value, error) {
		return value.String(args[0].String() + args[0].String()), nil
	})
	_, err := r.run(t, "say double(21)\ncall math:twice 'ab'\nsay result")
	require.NoError(t, err)
	assert.Equal(t, "42\nabab\n", r.out.String())

	r = newTestRun()
	_, err = r.run(t, "call nosuch")
	assert.True(t, IsSyntax(err, diag.RoutineNotFound), "got %v", err)
}

func TestRoutineDirective(t *testing.T) {
	src := "x = 1\ncall helper 5\nsay result x\nexit\n::routine helper\n use arg n\n x = n * 3\n return x"
	assert.Equal(t, "15 1\n", runProgram(t, src))
}

func TestExitFromInternalRoutine(t *testing.T) {
	r := newTestRun()
	v, err := r.run(t, "call sub\nsay 'unreached'\nexit\nsub:\n exit 4")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "4", v.String())
	assert.Empty(t, r.out.String())
}

func TestProcedureExpose(t *testing.T) {
	src := "a = 1; b = 2\ncall sub\nsay a b\nexit\nsub: procedure expose a\n a = 10\n b = 20\n return"
	assert.Equal(t, "10 2\n", runProgram(t, src))

	r := newTestRun()
	_, err := r.run(t, "say 1\nprocedure")
	assert.True(t, IsSyntax(err, diag.UnexpectedProcedure), "got %v", err)
}

func TestCallDepth(t *testing.T) {
	r := newTestRun()
	r.cfg.MaxCallDepth = 20
	_, err := r.run(t, "call r\nexit\nr: call r")
	assert.True(t, IsSyntax(err, diag.CallDepth), "got %v", err)
}

func TestHaltOnCancel(t *testing.T) {
	prog, err := parser.ParseProgram("test.rex", "say 'never'")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := newTestRun()
	_, err = New(r.cfg).Run(ctx, prog)
	var c *Condition
	require.True(t, errors.As(err, &c))
	assert.Equal(t, "HALT", c.Name)
	assert.Empty(t, r.out.String())
}

func TestRunConcurrent(t *testing.T) {
	prog, err := parser.ParseProgram("test.rex", "parse arg n\nreturn n * 2")
	require.NoError(t, err)
	r := newTestRun()
	r.cfg.Tracer = nil
	results, err := RunConcurrent(context.Background(), r.cfg, prog, [][]string{{"1"}, {"2"}, {"3"}})
	require.NoError(t, err)
	got := make([]string, len(results))
	for i, v := range results {
		got[i] = v.String()
	}
	assert.Equal(t, []string{"2", "4", "6"}, got)
}
