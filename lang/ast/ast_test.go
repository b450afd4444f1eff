// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package ast

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/probechain/probe-rexx/lang/token"
)

// buildUnit returns a unit calling and signalling labels, one of which is
// missing, and enabling two traps.
func buildUnit() *Unit {
	u := NewUnit("main")
	add := func(kind Kind, line int, node Node) Index {
		loc := Location{Start: token.Position{Line: line}}
		return u.Add(kind, loc, node)
	}
	call := add(KindCall, 1, &Call{Form: TransferLabel, Name: "SUB", Target: NoIndex})
	sig := add(KindSignal, 2, &Signal{Form: TransferLabel, Name: "NOWHERE", Target: NoIndex})
	on := add(KindSignal, 3, &Signal{Form: TransferOn, Condition: "SYNTAX", Target: NoIndex})
	callOn := add(KindCall, 4, &Call{Form: TransferOn, Condition: "USER OOPS", Target: NoIndex})
	label := add(KindLabel, 5, nil)
	u.Code[label].Label = "SUB"
	u.Labels["SUB"] = label
	oops := add(KindLabel, 6, nil)
	u.Code[oops].Label = "OOPS"
	u.Labels["OOPS"] = oops

	u.First = call
	for i := call; i < oops; i++ {
		u.Code[i].Next = i + 1
	}
	u.ForwardRefs = []ForwardRef{
		{Inst: call, Kind: RefCall},
		{Inst: sig, Kind: RefSignal},
		{Inst: on, Kind: RefSignalOn},
		{Inst: callOn, Kind: RefCallOn},
	}
	return u
}

func TestResolve(t *testing.T) {
	u := buildUnit()
	Resolve(u)

	if c := u.Code[0].Node.(*Call); !c.Resolved || c.Target != 4 {
		t.Errorf("CALL SUB: resolved %v target %d, want label 4", c.Resolved, c.Target)
	}
	if s := u.Code[1].Node.(*Signal); s.Resolved || s.Target != NoIndex {
		t.Errorf("SIGNAL NOWHERE: resolved %v target %d, want unresolved", s.Resolved, s.Target)
	}
	if s := u.Code[2].Node.(*Signal); s.Resolved {
		t.Errorf("SIGNAL ON SYNTAX resolved without a SYNTAX label")
	}
	if c := u.Code[3].Node.(*Call); !c.Resolved || c.Target != 5 {
		t.Errorf("CALL ON USER OOPS: resolved %v target %d, want label 5", c.Resolved, c.Target)
	}
	want := map[string][]Index{"SYNTAX": {2}, "USER OOPS": {3}}
	if diff := cmp.Diff(want, u.Conditions); diff != "" {
		t.Errorf("condition table (-want +got):\n%s", diff)
	}
	if len(u.ForwardRefs) != 0 {
		t.Errorf("forward references left: %v", u.ForwardRefs)
	}
}

func TestResolveIdempotent(t *testing.T) {
	once := buildUnit()
	Resolve(once)

	twice := buildUnit()
	Resolve(twice)
	Resolve(twice)

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second resolution changed the unit (-once +twice):\n%s", diff)
	}
}

func TestResolveProgram(t *testing.T) {
	p := NewProgram("prog", buildUnit())
	p.Routines["R"] = buildUnit()
	ResolveProgram(p)
	for name, u := range map[string]*Unit{"main": p.Main, "R": p.Routines["R"]} {
		if len(u.ForwardRefs) != 0 {
			t.Errorf("%s: unresolved forward references", name)
		}
	}
	if _, ok := p.Routine("R"); !ok {
		t.Error("routine R not found")
	}
}

func TestTrapName(t *testing.T) {
	tests := []struct{ condition, name, want string }{
		{"ERROR", "", "ERROR"},
		{"ERROR", "HANDLER", "HANDLER"},
		{"USER OOPS", "", "OOPS"},
	}
	for _, tt := range tests {
		if got := TrapName(tt.condition, tt.name); got != tt.want {
			t.Errorf("TrapName(%q, %q) = %q, want %q", tt.condition, tt.name, got, tt.want)
		}
	}
}

func TestNormalizeTrace(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Results", "R", true},
		{"?i", "?I", true},
		{"??All", "??A", true},
		{"?", "?", true},
		{"10", "", true},
		{"-3", "", true},
		{"x", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeTrace(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("NormalizeTrace(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCopyExpr(t *testing.T) {
	orig := &Binary{
		Op:   token.PLUS,
		Left: &Compound{Stem: "A.", Tails: []Tail{{Name: "I"}}},
		Right: &FuncCall{Name: "F", Args: []Expr{
			&Literal{Value: "1"}, nil, &Send{Target: &Var{Name: "X"}, Name: "SIZE"},
		}},
	}
	cp := CopyExpr(orig)
	if diff := cmp.Diff(Expr(orig), cp); diff != "" {
		t.Fatalf("copy differs (-orig +copy):\n%s", diff)
	}
	cp.(*Binary).Left.(*Compound).Tails[0].Name = "J"
	cp.(*Binary).Right.(*FuncCall).Args[0].(*Literal).Value = "2"
	if orig.Left.(*Compound).Tails[0].Name != "I" || orig.Right.(*FuncCall).Args[0].(*Literal).Value != "1" {
		t.Error("copy shares nodes with the original")
	}
}

func TestKind(t *testing.T) {
	if KindInvalid.Valid() {
		t.Error("KindInvalid is valid")
	}
	if !KindSay.Valid() || KindSay.String() != "SAY" {
		t.Errorf("KindSay: valid %v name %q", KindSay.Valid(), KindSay.String())
	}
	if !KindDo.IsBlock() || !KindSelect.IsBlock() || KindIf.IsBlock() {
		t.Error("IsBlock misclassifies DO, SELECT or IF")
	}
}

func TestUnitSource(t *testing.T) {
	u := NewUnit("src")
	u.Lines = []string{"say 1", "say 2"}
	if got := u.Source(2); got != "say 2" {
		t.Errorf("Source(2) = %q", got)
	}
	if got := u.Source(3); got != "" {
		t.Errorf("Source(3) = %q, want empty", got)
	}
}
