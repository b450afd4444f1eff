// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package interp

import (
	"strconv"

	"github.com/probechain/probe-rexx/lang/ast"
	"github.com/probechain/probe-rexx/lang/diag"
	"github.com/probechain/probe-rexx/lang/token"
	"github.com/probechain/probe-rexx/lang/value"
)

// doBlock is the run-time state of an active DO, LOOP or SELECT. It lives
// on the activation's block stack from entry until the block terminates.
type doBlock struct {
	index ast.Index // opening instruction
	loop  *ast.Loop
	sel   *ast.Select
	level int // nesting depth, 1 for the outermost block

	// controlled loops
	to, by   float64
	hasTo    bool
	forCount int // -1 without FOR

	// count loops
	count int

	// OVER and WITH loops
	indexes, items []value.Value
	pos            int

	iterations int
	caseValue  value.Value // SELECT CASE
}

// testTerminateHook, when set, observes every block termination.
var testTerminateHook func(b *doBlock)

// name returns the name LEAVE, ITERATE and END may use for the block: the
// LABEL, else the control variable.
func (b *doBlock) name() string {
	if b.sel != nil {
		return b.sel.Label
	}
	if b.loop.Label != "" {
		return b.loop.Label
	}
	if b.loop.Control != nil && b.loop.Kind != ast.LoopWith {
		return b.loop.Control.String()
	}
	return ""
}

// matches reports whether name designates the block.
func (b *doBlock) matches(name string) bool {
	if b.sel != nil || b.loop.Label != "" {
		return b.name() == name
	}
	return b.loop.Control != nil && b.loop.Control.String() == name
}

// end returns the index of the block's END.
func (b *doBlock) end() ast.Index {
	if b.sel != nil {
		return b.sel.End
	}
	return b.loop.End
}

func (a *activation) top() *doBlock {
	if len(a.blocks) == 0 {
		return nil
	}
	return a.blocks[len(a.blocks)-1]
}

func (a *activation) push(b *doBlock) {
	b.level = len(a.blocks) + 1
	a.blocks = append(a.blocks, b)
	blockCounter.Inc(1)
}

// terminate closes the innermost block, which must be b.
func (a *activation) terminate(b *doBlock) {
	if a.top() != b {
		panic(internalf("terminating block at %d which is not innermost", b.index))
	}
	a.blocks[len(a.blocks)-1] = nil
	a.blocks = a.blocks[:len(a.blocks)-1]
	a.log.Trace("Block terminated", "pc", b.index, "level", b.level, "iterations", b.iterations)
	if testTerminateHook != nil {
		testTerminateHook(b)
	}
}

// unwind terminates blocks, innermost first, until level remain.
func (a *activation) unwind(level int) {
	for len(a.blocks) > level {
		a.terminate(a.top())
	}
}

// unwindTo terminates every block nested inside b.
func (a *activation) unwindTo(b *doBlock) { a.unwind(b.level) }

// enterLoop executes DO and LOOP: the block is set up, pushed and tested
// for its first iteration.
func (a *activation) enterLoop(pc ast.Index, n *ast.Loop) (ast.Index, error) {
	b := &doBlock{index: pc, loop: n, forCount: -1}
	if err := a.setup(b); err != nil {
		return ast.NoIndex, err
	}
	a.push(b)
	a.log.Trace("Block entered", "pc", pc, "kind", n.Kind, "level", b.level)
	if !n.Repetitive() {
		return a.unit.At(pc).Next, nil
	}
	ok, err := a.iterateLoop(b, true)
	if err != nil {
		return ast.NoIndex, err
	}
	if !ok {
		a.terminate(b)
		return a.unit.At(n.End).Next, nil
	}
	return a.unit.At(pc).Next, nil
}

// setup evaluates the expressions a loop evaluates once, on entry.
func (a *activation) setup(b *doBlock) error {
	n := b.loop
	switch n.Kind {
	case ast.LoopControlled:
		init, err := a.eval(n.Initial)
		if err != nil {
			return err
		}
		start, err := a.number(init)
		if err != nil {
			return err
		}
		b.by = 1
		for _, part := range n.Order {
			switch part {
			case ast.PartTo:
				v, err := a.eval(n.To)
				if err != nil {
					return err
				}
				if b.to, err = a.number(v); err != nil {
					return err
				}
				b.hasTo = true
			case ast.PartBy:
				v, err := a.eval(n.By)
				if err != nil {
					return err
				}
				if b.by, err = a.number(v); err != nil {
					return err
				}
			case ast.PartFor:
				if err := a.setupFor(b); err != nil {
					return err
				}
			}
		}
		return a.assign(n.Control, value.Number(a.numeric(), start))
	case ast.LoopOver, ast.LoopWith:
		v, err := a.eval(n.Over)
		if err != nil {
			return err
		}
		coll, ok := v.(value.Collection)
		if !ok {
			return errorf(diag.NotCollection, v.String())
		}
		if n.Kind == ast.LoopOver {
			b.items = coll.OverItems()
		} else {
			b.indexes, b.items = coll.Snapshot()
		}
	case ast.LoopCount:
		v, err := a.eval(n.Count)
		if err != nil {
			return err
		}
		count, ok := value.Whole(a.numeric(), v)
		if !ok || count < 0 {
			return errorf(diag.InvalidDoCount, v.String())
		}
		b.count = count
	}
	if n.For != nil && b.forCount < 0 {
		return a.setupFor(b)
	}
	return nil
}

func (a *activation) setupFor(b *doBlock) error {
	v, err := a.eval(b.loop.For)
	if err != nil {
		return err
	}
	count, ok := value.Whole(a.numeric(), v)
	if !ok || count < 0 {
		return errorf(diag.InvalidForCount, v.String())
	}
	b.forCount = count
	return nil
}

// number converts a loop bound to a number.
func (a *activation) number(v value.Value) (float64, error) {
	f, ok := value.ParseNumber(v.String())
	if !ok {
		return 0, errorf(diag.NonNumeric, v.String())
	}
	return f, nil
}

// iterateLoop decides whether the loop runs its body once more. On every
// pass but the first the UNTIL condition is tested and the control variable
// is stepped; then come the TO, FOR and WHILE tests. A control variable
// that fails the TO test keeps its stepped value.
func (a *activation) iterateLoop(b *doBlock, first bool) (bool, error) {
	n := b.loop
	if !first {
		if n.Cond == ast.CondUntil {
			done, err := a.truth(n.CondExpr)
			if err != nil || done {
				return false, err
			}
		}
		if n.Kind == ast.LoopControlled {
			cur, err := a.lookup(n.Control)
			if err != nil {
				return false, err
			}
			next, err := cur.Operator(a.numeric(), token.PLUS, value.Number(a.numeric(), b.by))
			if err != nil {
				return false, err
			}
			if err := a.assign(n.Control, next); err != nil {
				return false, err
			}
		}
	}
	switch n.Kind {
	case ast.LoopControlled:
		if b.hasTo {
			cur, err := a.lookup(n.Control)
			if err != nil {
				return false, err
			}
			f, err := a.number(cur)
			if err != nil {
				return false, err
			}
			if (b.by >= 0 && f > b.to) || (b.by < 0 && f < b.to) {
				return false, nil
			}
		}
	case ast.LoopCount:
		if b.iterations >= b.count {
			return false, nil
		}
	case ast.LoopOver, ast.LoopWith:
		if b.pos >= len(b.items) {
			return false, nil
		}
	}
	if b.forCount >= 0 && b.iterations >= b.forCount {
		return false, nil
	}
	if err := a.assignItem(b); err != nil {
		return false, err
	}
	if n.Cond == ast.CondWhile {
		ok, err := a.truth(n.CondExpr)
		if err != nil || !ok {
			return false, err
		}
	}
	b.iterations++
	if n.Counter != nil {
		return true, a.assign(n.Counter, value.Int(b.iterations))
	}
	return true, nil
}

// assignItem sets the variables of OVER and WITH loops for the next item.
func (a *activation) assignItem(b *doBlock) error {
	n := b.loop
	switch n.Kind {
	case ast.LoopOver:
		if err := a.assign(n.Control, b.items[b.pos]); err != nil {
			return err
		}
	case ast.LoopWith:
		if n.Index != nil {
			if err := a.assign(n.Index, b.indexes[b.pos]); err != nil {
				return err
			}
		}
		if n.Item != nil {
			if err := a.assign(n.Item, b.items[b.pos]); err != nil {
				return err
			}
		}
	default:
		return nil
	}
	b.pos++
	return nil
}

// truth evaluates a logical expression.
func (a *activation) truth(e ast.Expr) (bool, error) {
	v, err := a.eval(e)
	if err != nil {
		return false, err
	}
	return value.Truth(v)
}

// truthList evaluates a logical list: every item must be true; evaluation
// stops at the first false one.
func (a *activation) truthList(list []ast.Expr) (bool, error) {
	for _, e := range list {
		ok, err := a.truth(e)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// enterSelect executes SELECT.
func (a *activation) enterSelect(pc ast.Index, n *ast.Select) (ast.Index, error) {
	b := &doBlock{index: pc, sel: n, forCount: -1}
	if n.Case != nil {
		v, err := a.eval(n.Case)
		if err != nil {
			return ast.NoIndex, err
		}
		b.caseValue = v
	}
	a.push(b)
	a.log.Trace("Block entered", "pc", pc, "kind", "SELECT", "level", b.level)
	return a.unit.At(pc).Next, nil
}

// selectBlock returns the active block of the SELECT at index sel.
func (a *activation) selectBlock(sel ast.Index) (*doBlock, error) {
	if b := a.top(); b != nil && b.index == sel {
		return b, nil
	}
	return nil, errorf(diag.WhenNoSelect)
}

// when executes WHEN: a match runs the branch, otherwise control moves to
// the next WHEN, the OTHERWISE or the END.
func (a *activation) when(pc ast.Index, inst *ast.Instruction, n *ast.When) (ast.Index, error) {
	b, err := a.selectBlock(n.Select)
	if err != nil {
		return ast.NoIndex, err
	}
	matched := false
	if b.caseValue != nil {
		for _, e := range n.Cases {
			v, err := a.eval(e)
			if err != nil {
				return ast.NoIndex, err
			}
			if matched, err = value.Equal(a.numeric(), b.caseValue, v); err != nil {
				return ast.NoIndex, err
			}
			if matched {
				break
			}
		}
	} else {
		if matched, err = a.truthList(n.Conditions); err != nil {
			return ast.NoIndex, err
		}
	}
	if matched {
		return inst.Next, nil
	}
	return a.unit.At(n.EndIf).Next, nil
}

// ifThen executes IF.
func (a *activation) ifThen(inst *ast.Instruction, n *ast.If) (ast.Index, error) {
	ok, err := a.truthList(n.Conditions)
	if err != nil {
		return ast.NoIndex, err
	}
	if ok {
		return inst.Next, nil
	}
	return a.unit.At(n.Else).Next, nil
}

// endIf runs when a branch of an IF or WHEN completes. A completed WHEN
// branch closes its SELECT.
func (a *activation) endIf(inst *ast.Instruction, n *ast.EndIf) (ast.Index, error) {
	if n.Style != ast.EndIfWhen {
		return inst.Next, nil
	}
	b, err := a.selectBlock(n.Select)
	if err != nil {
		return ast.NoIndex, err
	}
	a.terminate(b)
	when := a.unit.At(n.Owner).Node.(*ast.When)
	return a.unit.At(when.End).Next, nil
}

// end executes END.
func (a *activation) end(pc ast.Index, inst *ast.Instruction, n *ast.End) (ast.Index, error) {
	b := a.top()
	if b == nil || b.index != n.Block {
		return ast.NoIndex, errorf(diag.EndNoBlock)
	}
	switch n.Style {
	case ast.EndLoop:
		ok, err := a.iterateLoop(b, false)
		if err != nil {
			return ast.NoIndex, err
		}
		if ok {
			return a.unit.At(n.Block).Next, nil
		}
	case ast.EndSelect:
		// reached only when no WHEN matched
		a.terminate(b)
		line := a.unit.At(n.Block).Loc.Line()
		return ast.NoIndex, errorf(diag.WhenNoneTrue, strconv.Itoa(line))
	}
	a.terminate(b)
	return inst.Next, nil
}

// findBlock searches the block stack for the target of LEAVE or ITERATE.
func (a *activation) findBlock(name string, iterate bool) *doBlock {
	for i := len(a.blocks) - 1; i >= 0; i-- {
		b := a.blocks[i]
		repetitive := b.loop != nil && b.loop.Repetitive()
		if name == "" {
			if repetitive {
				return b
			}
			continue
		}
		if b.matches(name) {
			if iterate && !repetitive {
				return nil
			}
			return b
		}
	}
	return nil
}

// leave executes LEAVE: the target block and every block inside it are
// terminated.
func (a *activation) leave(name string) (ast.Index, error) {
	b := a.findBlock(name, false)
	if b == nil {
		if a.interpret {
			a.complete(completeLeave, nil, name)
			return ast.NoIndex, nil
		}
		if name != "" {
			return ast.NoIndex, errorf(diag.LeaveName, name)
		}
		return ast.NoIndex, errorf(diag.LeaveNoLoop)
	}
	a.unwindTo(b)
	a.terminate(b)
	return a.unit.At(b.end()).Next, nil
}

// iterate executes ITERATE: blocks inside the target are terminated and
// control passes to the target's END, which steps the loop.
func (a *activation) iterate(name string) (ast.Index, error) {
	b := a.findBlock(name, true)
	if b == nil {
		if a.interpret {
			a.complete(completeIterate, nil, name)
			return ast.NoIndex, nil
		}
		if name != "" {
			return ast.NoIndex, errorf(diag.IterateName, name)
		}
		return ast.NoIndex, errorf(diag.IterateNoLoop)
	}
	a.unwindTo(b)
	return b.loop.End, nil
}
