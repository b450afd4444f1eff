// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package parser

import (
	"errors"
	"testing"

	"github.com/probechain/probe-rexx/lang/ast"
	"github.com/probechain/probe-rexx/lang/diag"
	"github.com/probechain/probe-rexx/lang/token"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// mustParse parses src as a program and fails the test on any error.
func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := ParseProgram("test.rex", src)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return prog
}

// mustFail parses src and requires a syntax error with the given code.
func mustFail(t *testing.T, src string, code diag.Code) *SyntaxError {
	t.Helper()
	_, err := ParseProgram("test.rex", src)
	if err == nil {
		t.Fatalf("expected error %s, got none", code)
	}
	var derr *SyntaxError
	if !errors.As(err, &derr) {
		t.Fatalf("expected *SyntaxError, got %T: %v", err, err)
	}
	if derr.Code != code {
		t.Fatalf("error code: want %s, got %s (%v)", code, derr.Code, err)
	}
	return derr
}

// kinds lists the instruction kinds of u in chain order.
func kinds(u *ast.Unit) []ast.Kind {
	var out []ast.Kind
	for i := u.First; i.Valid(); i = u.At(i).Next {
		out = append(out, u.At(i).Kind)
	}
	return out
}

func sameKinds(t *testing.T, u *ast.Unit, want ...ast.Kind) {
	t.Helper()
	got := kinds(u)
	if len(got) != len(want) {
		t.Fatalf("kinds: want %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("kinds: want %v, got %v", want, got)
		}
	}
}

// first returns the node of the first instruction of kind k.
func first(t *testing.T, u *ast.Unit, k ast.Kind) ast.Node {
	t.Helper()
	for i := range u.Code {
		if u.Code[i].Kind == k {
			return u.Code[i].Node
		}
	}
	t.Fatalf("no %s instruction", k)
	return nil
}

// ---------------------------------------------------------------------------
// Clause classification
// ---------------------------------------------------------------------------

func TestClassification(t *testing.T) {
	tests := []struct {
		src  string
		want ast.Kind
	}{
		{"here:", ast.KindLabel},
		{"say: nop", ast.KindLabel},
		{"x = 1", ast.KindAssignment},
		{"say = 1", ast.KindAssignment},
		{"if = 'x'", ast.KindAssignment},
		{"x += 1", ast.KindAssignment},
		{"a.b.c = 4", ast.KindAssignment},
		{"arr~put(1, 2)", ast.KindMessage},
		{"arr[1] = 5", ast.KindMessage},
		{"dir~name = 'x'", ast.KindMessage},
		{"say 'hello'", ast.KindSay},
		{"nop", ast.KindNop},
		{"'ls -l'", ast.KindCommand},
		{"'rm' file", ast.KindCommand},
		{"x~y z", ast.KindCommand},
	}
	for _, tt := range tests {
		prog := mustParse(t, tt.src)
		got := prog.Main.At(prog.Main.First).Kind
		if got != tt.want {
			t.Errorf("%q: want %s, got %s", tt.src, tt.want, got)
		}
	}
}

func TestCompoundAssignment(t *testing.T) {
	prog := mustParse(t, "total *= n + 1")
	asg := first(t, prog.Main, ast.KindAssignment).(*ast.Assignment)
	if asg.Op != token.MULTIPLY {
		t.Fatalf("op: want *, got %s", asg.Op)
	}
	bin, ok := asg.Value.(*ast.Binary)
	if !ok || bin.Op != token.MULTIPLY {
		t.Fatalf("value: want multiply, got %v", asg.Value)
	}
	if bin.Left.String() != "TOTAL" {
		t.Errorf("left: want TOTAL, got %s", bin.Left)
	}
	if bin.Left == ast.Expr(asg.Target) {
		t.Error("left operand must be a copy of the target")
	}
	if got := bin.Right.String(); got != "N + 1" {
		t.Errorf("right: want %q, got %q", "N + 1", got)
	}
}

func TestConstantAssignment(t *testing.T) {
	mustFail(t, "3 = 4", diag.NameNumber)
	mustFail(t, ".x = 4", diag.NameDot)
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func TestExpressions(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"say 1 + 2 * 3", "1 + 2 * 3"},
		{"say a b", "A B"},
		{"say a||b", "A || B"},
		{"say 'a'c", "\"a\"C"},
		{"say f(1,,3)", "F(1,,3)"},
		{"say 'f'(x)", "\"f\"(X)"},
		{"say rexx:lower(x)", "REXX:LOWER(X)"},
		{"say a.i.3", "A.I.3"},
		{"say arr~at(2)~upper", "ARR~AT(2)~UPPER"},
		{"say arr[1, 2]", "ARR[1,2]"},
		{"say -x ** 2", "-X ** 2"},
		{"say (a = 1) & \\b", "(A = 1) & \\B"},
	}
	for _, tt := range tests {
		prog := mustParse(t, tt.src)
		say := first(t, prog.Main, ast.KindSay).(*ast.Say)
		if got := say.Value.String(); got != tt.want {
			t.Errorf("%q: want %q, got %q", tt.src, tt.want, got)
		}
	}
}

func TestPrecedence(t *testing.T) {
	prog := mustParse(t, "say 1 + 2 * 3 = 7 & 1")
	say := first(t, prog.Main, ast.KindSay).(*ast.Say)
	and, ok := say.Value.(*ast.Binary)
	if !ok || and.Op != token.AND {
		t.Fatalf("top operator: want &, got %v", say.Value)
	}
	cmp := and.Left.(*ast.Binary)
	if cmp.Op != token.EQUAL {
		t.Fatalf("comparison: want =, got %s", cmp.Op)
	}
	add := cmp.Left.(*ast.Binary)
	if add.Op != token.PLUS {
		t.Fatalf("additive: want +, got %s", add.Op)
	}
	if mul := add.Right.(*ast.Binary); mul.Op != token.MULTIPLY {
		t.Fatalf("multiplicative: want *, got %s", mul.Op)
	}
}

func TestCompoundTails(t *testing.T) {
	prog := mustParse(t, "a.i.3. = 1")
	asg := first(t, prog.Main, ast.KindAssignment).(*ast.Assignment)
	c, ok := asg.Target.(*ast.Compound)
	if !ok {
		t.Fatalf("target: want compound, got %T", asg.Target)
	}
	if c.Stem != "A." {
		t.Errorf("stem: want A., got %s", c.Stem)
	}
	want := []ast.Tail{{Name: "I"}, {Name: "3", Constant: true}, {Name: "", Constant: true}}
	if len(c.Tails) != len(want) {
		t.Fatalf("tails: want %v, got %v", want, c.Tails)
	}
	for i := range want {
		if c.Tails[i] != want[i] {
			t.Errorf("tail %d: want %v, got %v", i, want[i], c.Tails[i])
		}
	}
}

func TestExpressionErrors(t *testing.T) {
	mustFail(t, "say (1 + 2", diag.UnmatchedParen)
	mustFail(t, "say 1 + )", diag.UnexpectedParen)
	mustFail(t, "say f(1", diag.UnmatchedParen)
	mustFail(t, "x = ", diag.InvalidExpression)
}

// ---------------------------------------------------------------------------
// IF / THEN / ELSE
// ---------------------------------------------------------------------------

func TestIfGraph(t *testing.T) {
	prog := mustParse(t, "if a then say 1\nelse say 2\nsay 3")
	u := prog.Main
	sameKinds(t, u, ast.KindIf, ast.KindThen, ast.KindSay, ast.KindElse, ast.KindSay, ast.KindEndIf, ast.KindSay)

	ifn := u.At(0).Node.(*ast.If)
	if u.At(ifn.Else).Kind != ast.KindElse {
		t.Fatalf("If.Else: want ELSE, got %s", u.At(ifn.Else).Kind)
	}
	el := u.At(ifn.Else).Node.(*ast.Else)
	if u.At(el.EndIf).Kind != ast.KindEndIf {
		t.Fatalf("Else.EndIf: want ENDIF, got %s", u.At(el.EndIf).Kind)
	}
	if el.If != 0 {
		t.Errorf("Else.If: want 0, got %d", el.If)
	}
}

func TestIfWithoutElse(t *testing.T) {
	prog := mustParse(t, "if a\n then\n say 1\nsay 2")
	u := prog.Main
	sameKinds(t, u, ast.KindIf, ast.KindThen, ast.KindSay, ast.KindEndIf, ast.KindSay)
	ifn := u.At(0).Node.(*ast.If)
	if u.At(ifn.Else).Kind != ast.KindEndIf {
		t.Fatalf("If.Else: want ENDIF, got %s", u.At(ifn.Else).Kind)
	}
	if style := u.At(ifn.Else).Node.(*ast.EndIf).Style; style != ast.EndIfPlain {
		t.Errorf("style: want %s, got %s", ast.EndIfPlain, style)
	}
}

func TestNestedIfDanglingElse(t *testing.T) {
	prog := mustParse(t, "if a then if b then say 1; else say 2")
	u := prog.Main
	sameKinds(t, u,
		ast.KindIf, ast.KindThen, ast.KindIf, ast.KindThen, ast.KindSay,
		ast.KindElse, ast.KindSay, ast.KindEndIf, ast.KindEndIf)
	inner := u.At(2).Node.(*ast.If)
	if u.At(inner.Else).Kind != ast.KindElse {
		t.Error("ELSE must pair with the inner IF")
	}
	outer := u.At(0).Node.(*ast.If)
	if u.At(outer.Else).Kind != ast.KindEndIf {
		t.Error("outer IF must end with its own ENDIF")
	}
}

func TestIfErrors(t *testing.T) {
	mustFail(t, "if a\nsay 1", diag.ThenExpectedIf)
	mustFail(t, "then say 1", diag.ThenNoIf)
	mustFail(t, "else say 1", diag.ElseNoThen)
	mustFail(t, "if a then\n", diag.IncompleteThen)
	mustFail(t, "do\n if a then\n end", diag.EndAfterThen)
	mustFail(t, "if a then nop\nelse", diag.IncompleteElse)
	mustFail(t, "if a then else nop", diag.IncompleteThen)
}

// ---------------------------------------------------------------------------
// DO and LOOP
// ---------------------------------------------------------------------------

func TestLoopControlled(t *testing.T) {
	prog := mustParse(t, "loop i = 1 to 5 by 2\n say i\nend i")
	u := prog.Main
	loop := first(t, u, ast.KindDo).(*ast.Loop)
	if loop.Kind != ast.LoopControlled {
		t.Fatalf("kind: want controlled, got %s", loop.Kind)
	}
	if loop.Control.String() != "I" || loop.Initial.String() != "1" {
		t.Errorf("control: got %s = %s", loop.Control, loop.Initial)
	}
	if loop.To.String() != "5" || loop.By.String() != "2" || loop.For != nil {
		t.Errorf("phrases: got TO %v BY %v FOR %v", loop.To, loop.By, loop.For)
	}
	if len(loop.Order) != 2 || loop.Order[0] != ast.PartTo || loop.Order[1] != ast.PartBy {
		t.Errorf("order: got %v", loop.Order)
	}
	end := u.At(loop.End).Node.(*ast.End)
	if end.Style != ast.EndLoop || end.Name != "I" {
		t.Errorf("end: got style %s name %q", end.Style, end.Name)
	}
}

func TestLoopForms(t *testing.T) {
	tests := []struct {
		src  string
		kind ast.LoopKind
		cond ast.CondKind
	}{
		{"do\nend", ast.LoopSimple, ast.CondNone},
		{"loop\nend", ast.LoopForever, ast.CondNone},
		{"do forever\nend", ast.LoopForever, ast.CondNone},
		{"do while x < 3\nend", ast.LoopForever, ast.CondWhile},
		{"loop until done\nend", ast.LoopForever, ast.CondUntil},
		{"do 5\nend", ast.LoopCount, ast.CondNone},
		{"do n + 1 while ok\nend", ast.LoopCount, ast.CondWhile},
		{"do item over list\nend", ast.LoopOver, ast.CondNone},
		{"do with index i item v over coll for 3\nend", ast.LoopWith, ast.CondNone},
		{"do with item v index i over coll\nend", ast.LoopWith, ast.CondNone},
		{"do i = 1 for 3 until i > 9\nend", ast.LoopControlled, ast.CondUntil},
		{"do forever = 1 to 2\nend", ast.LoopControlled, ast.CondNone},
	}
	for _, tt := range tests {
		prog := mustParse(t, tt.src)
		loop := first(t, prog.Main, ast.KindDo).(*ast.Loop)
		if loop.Kind != tt.kind {
			t.Errorf("%q: kind want %s, got %s", tt.src, tt.kind, loop.Kind)
		}
		if loop.Cond != tt.cond {
			t.Errorf("%q: cond want %d, got %d", tt.src, tt.cond, loop.Cond)
		}
	}
}

func TestLoopLabelAndCounter(t *testing.T) {
	for _, src := range []string{
		"do label outer counter c i = 1 to 3\nend outer",
		"do counter c label outer i = 1 to 3\nend outer",
	} {
		prog := mustParse(t, src)
		loop := first(t, prog.Main, ast.KindDo).(*ast.Loop)
		if loop.Label != "OUTER" {
			t.Errorf("%q: label want OUTER, got %q", src, loop.Label)
		}
		if loop.Counter == nil || loop.Counter.String() != "C" {
			t.Errorf("%q: counter want C, got %v", src, loop.Counter)
		}
		if loop.Kind != ast.LoopControlled {
			t.Errorf("%q: kind want controlled, got %s", src, loop.Kind)
		}
	}
}

func TestLoopErrors(t *testing.T) {
	mustFail(t, "do i == 1 to 3\nend", diag.InvalidDoStrict)
	mustFail(t, "do while a until b\nend", diag.InvalidDo)
	mustFail(t, "do i = 1 to 2 to 3\nend", diag.InvalidDo)
	mustFail(t, "do label a label b\nend", diag.InvalidDo)
	mustFail(t, "do\nsay 1", diag.IncompleteDo)
	mustFail(t, "end", diag.EndNoBlock)
	mustFail(t, "do i = 1 to 3\nend j", diag.EndWrongControl)
	mustFail(t, "do\nend x", diag.EndNoControl)
}

func TestLeaveIterate(t *testing.T) {
	mustParse(t, "do i = 1 to 3\n if i = 2 then iterate\n leave i\nend")
	mustParse(t, "do label blk\n leave blk\nend")
	mustFail(t, "leave", diag.LeaveNoLoop)
	mustFail(t, "iterate", diag.IterateNoLoop)
	mustFail(t, "do\n leave\nend", diag.LeaveNoLoop)
	mustFail(t, "do label blk\n iterate blk\nend", diag.IterateName)
	mustFail(t, "do i = 1 to 3\n leave j\nend", diag.LeaveName)

	u, err := ParseInterpret("interpret", "leave")
	if err != nil {
		t.Fatalf("interpret: unexpected error %v", err)
	}
	sameKinds(t, u, ast.KindLeave)
}

// ---------------------------------------------------------------------------
// SELECT
// ---------------------------------------------------------------------------

func TestSelectGraph(t *testing.T) {
	prog := mustParse(t, "select\n when a then say 1\n otherwise say 2\nend")
	u := prog.Main
	sameKinds(t, u,
		ast.KindSelect, ast.KindWhen, ast.KindThen, ast.KindSay, ast.KindEndIf,
		ast.KindOtherwise, ast.KindSay, ast.KindEnd)

	sel := u.At(0).Node.(*ast.Select)
	if len(sel.Whens) != 1 || !sel.Otherwise.Valid() {
		t.Fatalf("select: whens %v otherwise %d", sel.Whens, sel.Otherwise)
	}
	when := u.At(sel.Whens[0]).Node.(*ast.When)
	if when.End != sel.End {
		t.Errorf("when end: want %d, got %d", sel.End, when.End)
	}
	endif := u.At(when.EndIf).Node.(*ast.EndIf)
	if endif.Style != ast.EndIfWhen || endif.Select != 0 {
		t.Errorf("when endif: got style %s select %d", endif.Style, endif.Select)
	}
	if style := u.At(sel.End).Node.(*ast.End).Style; style != ast.EndSelectOtherwise {
		t.Errorf("end style: want %s, got %s", ast.EndSelectOtherwise, style)
	}
}

func TestSelectWithoutOtherwise(t *testing.T) {
	prog := mustParse(t, "select label pick\n when a then nop\n when b then nop\nend pick")
	u := prog.Main
	sel := first(t, u, ast.KindSelect).(*ast.Select)
	if sel.Label != "PICK" {
		t.Errorf("label: want PICK, got %q", sel.Label)
	}
	if style := u.At(sel.End).Node.(*ast.End).Style; style != ast.EndSelect {
		t.Errorf("end style: want %s, got %s", ast.EndSelect, style)
	}
	for _, w := range sel.Whens {
		if u.At(w).Node.(*ast.When).End != sel.End {
			t.Error("every WHEN must be bound to the END")
		}
	}
}

func TestSelectCase(t *testing.T) {
	prog := mustParse(t, "select case x\n when 1 then say 'one'\n when 3, 4 then say 'three or four'\nend")
	u := prog.Main
	sel := first(t, u, ast.KindSelect).(*ast.Select)
	if sel.Case == nil || sel.Case.String() != "X" {
		t.Fatalf("case: got %v", sel.Case)
	}
	second := u.At(sel.Whens[1]).Node.(*ast.When)
	if len(second.Cases) != 2 || second.Conditions != nil {
		t.Fatalf("cases: got %v conditions %v", second.Cases, second.Conditions)
	}
	if second.Cases[0].String() != "3" || second.Cases[1].String() != "4" {
		t.Errorf("cases: got %v", second.Cases)
	}
}

func TestSelectErrors(t *testing.T) {
	mustFail(t, "select\nend", diag.WhenExpected)
	mustFail(t, "select\notherwise nop\nend", diag.WhenExpected)
	mustFail(t, "select\n say 1\nend", diag.WhenExpectedFound)
	mustFail(t, "when a then nop", diag.WhenNoSelect)
	mustFail(t, "otherwise nop", diag.OtherwiseNoSelect)
	mustFail(t, "select\n when a then nop\n", diag.IncompleteSelect)
	mustFail(t, "select\n when a then nop\nend x", diag.EndSelectName)
	mustFail(t, "select label s\n when a then nop\nend t", diag.EndWrongLabel)
	mustFail(t, "select\n when a\n nop\nend", diag.ThenExpectedWhen)

	// SELECT CASE with only OTHERWISE is allowed.
	mustParse(t, "select case x\n otherwise nop\nend")
}

// ---------------------------------------------------------------------------
// CALL and SIGNAL
// ---------------------------------------------------------------------------

func TestCallForms(t *testing.T) {
	prog := mustParse(t, `call sub 1, 2
call 'ext'
call rexx:lower 'A'
call (name) x
call on error name handler
call off halt
exit
sub: return
handler: return`)
	u := prog.Main
	var calls []*ast.Call
	for i := range u.Code {
		if c, ok := u.Code[i].Node.(*ast.Call); ok {
			calls = append(calls, c)
		}
	}
	if len(calls) != 6 {
		t.Fatalf("want 6 calls, got %d", len(calls))
	}
	if c := calls[0]; c.Form != ast.TransferLabel || c.Name != "SUB" || !c.Resolved || len(c.Args) != 2 {
		t.Errorf("call sub: %+v", c)
	}
	if c := calls[1]; !c.Quoted || c.Resolved {
		t.Errorf("quoted call must not bind to labels: %+v", c)
	}
	if c := calls[2]; c.Namespace != "REXX" || c.Name != "LOWER" || c.Resolved {
		t.Errorf("namespaced call: %+v", c)
	}
	if c := calls[3]; c.Form != ast.TransferDynamic || c.Dynamic.String() != "NAME" {
		t.Errorf("dynamic call: %+v", c)
	}
	if c := calls[4]; c.Form != ast.TransferOn || c.Condition != "ERROR" || !c.Resolved {
		t.Errorf("call on: %+v", c)
	}
	if c := calls[5]; c.Form != ast.TransferOff || c.Condition != "HALT" {
		t.Errorf("call off: %+v", c)
	}
	if len(u.Conditions["ERROR"]) != 1 {
		t.Errorf("condition table: %v", u.Conditions)
	}
	if len(u.ForwardRefs) != 0 {
		t.Errorf("forward references must be consumed, got %d", len(u.ForwardRefs))
	}
}

func TestConditionAllowLists(t *testing.T) {
	mustFail(t, "call on syntax", diag.CallOnKeyword)
	mustFail(t, "call on novalue", diag.CallOnKeyword)
	mustFail(t, "signal on bogus", diag.SignalOnKeyword)
	mustFail(t, "signal off bogus", diag.SignalOffKeyword)
	mustParse(t, "signal on syntax")
	mustParse(t, "signal on novalue name nv\nnv: nop")
	mustParse(t, "call on user fish name catch\ncatch: return")

	prog := mustParse(t, "signal on user fish")
	sig := first(t, prog.Main, ast.KindSignal).(*ast.Signal)
	if sig.Condition != "USER FISH" {
		t.Errorf("user condition: want %q, got %q", "USER FISH", sig.Condition)
	}
}

func TestSignalUndefinedLabelParses(t *testing.T) {
	prog := mustParse(t, "if 0 then signal nowhere\nsay 'ok'")
	sig := first(t, prog.Main, ast.KindSignal).(*ast.Signal)
	if sig.Resolved || sig.Target.Valid() {
		t.Errorf("signal to a missing label must stay unresolved: %+v", sig)
	}
}

func TestFirstLabelWins(t *testing.T) {
	prog := mustParse(t, "signal twice\ntwice: say 1\ntwice: say 2")
	u := prog.Main
	sig := first(t, u, ast.KindSignal).(*ast.Signal)
	if sig.Target != u.Labels["TWICE"] || u.At(sig.Target).Loc.Line() != 2 {
		t.Errorf("signal target: want line 2, got line %d", u.At(sig.Target).Loc.Line())
	}
}

// ---------------------------------------------------------------------------
// PARSE, USE ARG, ADDRESS
// ---------------------------------------------------------------------------

func TestParseTemplates(t *testing.T) {
	prog := mustParse(t, "parse upper var line first . ',' rest =10 x +2 y -(n) z, second")
	p := first(t, prog.Main, ast.KindParse).(*ast.Parse)
	if p.Source != ast.ParseVar || p.Casing != ast.CaseUpper || p.Var.String() != "LINE" {
		t.Fatalf("parse header: %+v", p)
	}
	if len(p.Templates) != 2 {
		t.Fatalf("templates: want 2, got %d", len(p.Templates))
	}
	want := []ast.ItemKind{
		ast.ItemTarget, ast.ItemDummy, ast.ItemPattern, ast.ItemTarget, ast.ItemAbsolute,
		ast.ItemTarget, ast.ItemRelative, ast.ItemTarget, ast.ItemRelative, ast.ItemTarget,
	}
	items := p.Templates[0].Items
	if len(items) != len(want) {
		t.Fatalf("items: want %d, got %d", len(want), len(items))
	}
	for i, k := range want {
		if items[i].Kind != k {
			t.Errorf("item %d: want kind %d, got %d", i, k, items[i].Kind)
		}
	}
	if items[8].Sign != -1 || items[8].Value.String() != "N" {
		t.Errorf("relative variable position: %+v", items[8])
	}
}

func TestParseShortForms(t *testing.T) {
	prog := mustParse(t, "arg a b\npull c\nparse value 1 2 with x y")
	u := prog.Main
	arg := u.At(0).Node.(*ast.Parse)
	if arg.Source != ast.ParseArg || arg.Casing != ast.CaseUpper {
		t.Errorf("ARG: %+v", arg)
	}
	pull := u.At(1).Node.(*ast.Parse)
	if pull.Source != ast.ParsePull || pull.Casing != ast.CaseUpper {
		t.Errorf("PULL: %+v", pull)
	}
	val := u.At(2).Node.(*ast.Parse)
	if val.Source != ast.ParseValue || val.Value.String() != "1 2" {
		t.Errorf("PARSE VALUE: %+v", val)
	}
	mustFail(t, "parse foo x", diag.ParseKeyword)
	mustFail(t, "parse var x a 'b' *", diag.InvalidTemplate)
	mustFail(t, "parse var x a + b", diag.InvalidPosition)
}

func TestUseArg(t *testing.T) {
	prog := mustParse(t, "use strict arg a, b = 5, , >c, <d., ...")
	use := first(t, prog.Main, ast.KindUseArg).(*ast.UseArg)
	if !use.Strict || !use.Ellipsis {
		t.Errorf("flags: strict %v ellipsis %v", use.Strict, use.Ellipsis)
	}
	if len(use.Params) != 5 {
		t.Fatalf("params: want 5, got %d", len(use.Params))
	}
	if use.Params[1].Default == nil || use.Params[1].Default.String() != "5" {
		t.Errorf("default: %+v", use.Params[1])
	}
	if use.Params[2].Target != nil {
		t.Errorf("skipped position: %+v", use.Params[2])
	}
	if !use.Params[3].Reference || !use.Params[4].Reference {
		t.Error("> and < params must be references")
	}
	if _, ok := use.Params[4].Target.(*ast.StemVar); !ok {
		t.Errorf("stem reference: %T", use.Params[4].Target)
	}
	mustFail(t, "use arg a, ..., b", diag.ExtraData)
	mustFail(t, "use a", diag.UseKeyword)
}

func TestAddressWith(t *testing.T) {
	prog := mustParse(t, "address system 'sort' with input stem in. output append stem out. error stream 'err.txt'")
	addr := first(t, prog.Main, ast.KindAddress).(*ast.Address)
	if addr.Environment != "SYSTEM" || addr.Command.String() != "\"sort\"" {
		t.Fatalf("address: %+v", addr)
	}
	if len(addr.With) != 3 {
		t.Fatalf("redirections: want 3, got %d", len(addr.With))
	}
	if r := addr.With[1]; r.Stream != ast.StreamOutput || !r.Append || r.Kind != ast.SourceStem {
		t.Errorf("output: %+v", r)
	}
	if r := addr.With[2]; r.Stream != ast.StreamError || r.Kind != ast.SourceStream {
		t.Errorf("error: %+v", r)
	}
	mustFail(t, "address system 'x' with output stem a. output stem b.", diag.AddressWithKeyword)
	mustFail(t, "address system 'x' with input stem notastem", diag.NotAStem)
	mustFail(t, "address system 'x' with sideways stem a.", diag.AddressWithKeyword)
}

func TestAddressSwap(t *testing.T) {
	prog := mustParse(t, "address")
	addr := first(t, prog.Main, ast.KindAddress).(*ast.Address)
	if addr.Environment != "" || addr.Dynamic != nil || addr.Command != nil {
		t.Errorf("swap form: %+v", addr)
	}
}

// ---------------------------------------------------------------------------
// Directives
// ---------------------------------------------------------------------------

func TestRoutines(t *testing.T) {
	prog := mustParse(t, "call helper\nexit\n::routine helper public\n return 1\n::requires 'lib.rex'")
	if _, ok := prog.Routine("HELPER"); !ok {
		t.Fatal("routine HELPER not defined")
	}
	if !prog.Public["HELPER"] {
		t.Error("routine HELPER should be public")
	}
	if len(prog.Requires) != 1 || prog.Requires[0] != "lib.rex" {
		t.Errorf("requires: %v", prog.Requires)
	}
	// The directive ends the main unit: the call does not bind to a label.
	call := first(t, prog.Main, ast.KindCall).(*ast.Call)
	if call.Resolved {
		t.Error("call must not resolve into a routine unit")
	}
	mustFail(t, "::class foo", diag.Directive)
	mustFail(t, "::bogus", diag.DirectiveUnknown)
}

func TestNumericAndTrace(t *testing.T) {
	prog := mustParse(t, "numeric digits 20\nnumeric form engineering\ntrace ?results\ntrace value x")
	u := prog.Main
	if n := u.At(0).Node.(*ast.Numeric); n.Option != token.KDIGITS || n.Value.String() != "20" {
		t.Errorf("numeric digits: %+v", n)
	}
	if n := u.At(1).Node.(*ast.Numeric); n.Form != "ENGINEERING" {
		t.Errorf("numeric form: %+v", n)
	}
	if tr := u.At(2).Node.(*ast.Trace); tr.Setting != "?R" {
		t.Errorf("trace: want ?R, got %q", tr.Setting)
	}
	if tr := u.At(3).Node.(*ast.Trace); tr.Dynamic == nil {
		t.Errorf("trace value: %+v", tr)
	}
	mustFail(t, "trace bogus", diag.TraceSetting)
	mustFail(t, "numeric size 3", diag.NumericKeyword)
}
