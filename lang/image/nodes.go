// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package image

import (
	"fmt"

	"github.com/probechain/probe-rexx/lang/ast"
	"github.com/probechain/probe-rexx/lang/token"
)

// Expression tags. Values are part of the image layout.
const (
	exprLiteral uint = iota + 1
	exprVar
	exprStem
	exprCompound
	exprEnvironment
	exprUnary
	exprBinary
	exprFunc
	exprSend
	exprParen
	exprRef
	exprList
)

// Instruction node tags. Values are part of the image layout.
const (
	nodeAssignment uint = iota + 1
	nodeMessage
	nodeCommand
	nodeAddress
	nodeCall
	nodeSignal
	nodeLoop
	nodeSelect
	nodeWhen
	nodeOtherwise
	nodeIf
	nodeElse
	nodeEnd
	nodeEndIf
	nodeThen
	nodeDrop
	nodeExit
	nodeReturn
	nodeInterpret
	nodeLeaveIterate
	nodeNumeric
	nodeSay
	nodeQueue
	nodeTrace
	nodeProcedure
	nodeRaise
	nodeParse
	nodeUseArg
)

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func flattenExpr(e ast.Expr) record {
	switch e := e.(type) {
	case nil:
		return record{}
	case *ast.Literal:
		return newBuilder(exprLiteral).str(e.Value).flag(e.Symbol).done()
	case *ast.Var:
		return newBuilder(exprVar).str(e.Name).done()
	case *ast.StemVar:
		return newBuilder(exprStem).str(e.Name).done()
	case *ast.Compound:
		b := newBuilder(exprCompound).str(e.Stem)
		count(b, e.Tails)
		for _, t := range e.Tails {
			b.str(t.Name).flag(t.Constant)
		}
		return b.done()
	case *ast.Environment:
		return newBuilder(exprEnvironment).str(e.Name).done()
	case *ast.Unary:
		return newBuilder(exprUnary).num(uint64(e.Op)).sub(flattenExpr(e.Operand)).done()
	case *ast.Binary:
		return newBuilder(exprBinary).num(uint64(e.Op)).sub(flattenExpr(e.Left)).sub(flattenExpr(e.Right)).done()
	case *ast.FuncCall:
		return newBuilder(exprFunc).str(e.Name).str(e.Namespace).flag(e.Quoted).sub(flattenList(e.Args)).done()
	case *ast.Send:
		return newBuilder(exprSend).sub(flattenExpr(e.Target)).str(e.Name).sub(flattenList(e.Args)).flag(e.Cascade).done()
	case *ast.Paren:
		return newBuilder(exprParen).sub(flattenExpr(e.Inner)).done()
	case *ast.RefArg:
		return newBuilder(exprRef).str(e.Name).flag(e.Stem).flag(e.In).done()
	}
	panic(fmt.Sprintf("image: unknown expression %T", e))
}

// flattenList encodes an expression list; a nil list stays nil and nil
// entries stay nil.
func flattenList[E ast.Expr](list []E) record {
	if list == nil {
		return record{}
	}
	b := newBuilder(exprList)
	for _, e := range list {
		b.sub(flattenExpr(e))
	}
	return b.done()
}

func flattenTargets(list []ast.Target) record { return flattenList(list) }

func unflattenExpr(rec *record, err *error) ast.Expr {
	if *err != nil || rec.Tag == tagNone {
		return nil
	}
	r := newReader(rec, err)
	switch rec.Tag {
	case exprLiteral:
		return &ast.Literal{Value: r.str(), Symbol: r.flag()}
	case exprVar:
		return &ast.Var{Name: r.str()}
	case exprStem:
		return &ast.StemVar{Name: r.str()}
	case exprCompound:
		c := &ast.Compound{Stem: r.str()}
		if n, ok := r.count(); ok {
			c.Tails = make([]ast.Tail, n)
			for i := range c.Tails {
				c.Tails[i] = ast.Tail{Name: r.str(), Constant: r.flag()}
			}
		}
		return c
	case exprEnvironment:
		return &ast.Environment{Name: r.str()}
	case exprUnary:
		return &ast.Unary{Op: token.Operator(r.num()), Operand: unflattenExpr(r.sub(), err)}
	case exprBinary:
		b := &ast.Binary{Op: token.Operator(r.num())}
		b.Left = unflattenExpr(r.sub(), err)
		b.Right = unflattenExpr(r.sub(), err)
		return b
	case exprFunc:
		return &ast.FuncCall{Name: r.str(), Namespace: r.str(), Quoted: r.flag(), Args: unflattenList(r.sub(), err)}
	case exprSend:
		s := &ast.Send{Target: unflattenExpr(r.sub(), err), Name: r.str()}
		s.Args = unflattenList(r.sub(), err)
		s.Cascade = r.flag()
		return s
	case exprParen:
		return &ast.Paren{Inner: unflattenExpr(r.sub(), err)}
	case exprRef:
		return &ast.RefArg{Name: r.str(), Stem: r.flag(), In: r.flag()}
	}
	*err = fmt.Errorf("%w: unknown expression tag %d", ErrBadImage, rec.Tag)
	return nil
}

func unflattenList(rec *record, err *error) []ast.Expr {
	if *err != nil || rec.Tag == tagNone {
		return nil
	}
	if rec.Tag != exprList {
		*err = fmt.Errorf("%w: expected expression list, found tag %d", ErrBadImage, rec.Tag)
		return nil
	}
	list := make([]ast.Expr, len(rec.Subs))
	for i := range rec.Subs {
		list[i] = unflattenExpr(&rec.Subs[i], err)
	}
	return list
}

func unflattenTarget(rec *record, err *error) ast.Target {
	e := unflattenExpr(rec, err)
	if e == nil {
		return nil
	}
	t, ok := e.(ast.Target)
	if !ok {
		*err = fmt.Errorf("%w: %s is not assignable", ErrBadImage, e)
		return nil
	}
	return t
}

func unflattenTargets(rec *record, err *error) []ast.Target {
	list := unflattenList(rec, err)
	if list == nil {
		return nil
	}
	out := make([]ast.Target, len(list))
	for i, e := range list {
		if e == nil {
			continue
		}
		t, ok := e.(ast.Target)
		if !ok && *err == nil {
			*err = fmt.Errorf("%w: list entry %d is not assignable", ErrBadImage, i)
			return nil
		}
		out[i] = t
	}
	return out
}

// ---------------------------------------------------------------------------
// Instructions
// ---------------------------------------------------------------------------

func flattenNode(n ast.Node) record {
	switch n := n.(type) {
	case nil:
		return record{}
	case *ast.Assignment:
		return newBuilder(nodeAssignment).sub(flattenExpr(n.Target)).num(uint64(n.Op)).sub(flattenExpr(n.Value)).done()
	case *ast.Message:
		return newBuilder(nodeMessage).sub(flattenExpr(n.Send)).num(uint64(n.Op)).sub(flattenExpr(n.Value)).done()
	case *ast.Command:
		return newBuilder(nodeCommand).sub(flattenExpr(n.Expr)).done()
	case *ast.Address:
		b := newBuilder(nodeAddress).str(n.Environment).sub(flattenExpr(n.Dynamic)).sub(flattenExpr(n.Command))
		count(b, n.With)
		for _, r := range n.With {
			b.num(uint64(r.Stream)).num(uint64(r.Kind)).sub(flattenExpr(r.Target)).flag(r.Append)
		}
		return b.done()
	case *ast.Call:
		return newBuilder(nodeCall).num(uint64(n.Form)).str(n.Name).str(n.Namespace).flag(n.Quoted).
			sub(flattenExpr(n.Dynamic)).sub(flattenList(n.Args)).str(n.Condition).index(n.Target).flag(n.Resolved).done()
	case *ast.Signal:
		return newBuilder(nodeSignal).num(uint64(n.Form)).str(n.Name).sub(flattenExpr(n.Dynamic)).
			str(n.Condition).index(n.Target).flag(n.Resolved).done()
	case *ast.Loop:
		b := newBuilder(nodeLoop).str(n.Keyword).num(uint64(n.Kind)).str(n.Label).
			sub(flattenExpr(n.Counter)).sub(flattenExpr(n.Control)).sub(flattenExpr(n.Initial)).
			sub(flattenExpr(n.To)).sub(flattenExpr(n.By)).sub(flattenExpr(n.For))
		count(b, n.Order)
		for _, p := range n.Order {
			b.num(uint64(p))
		}
		return b.sub(flattenExpr(n.Over)).sub(flattenExpr(n.Index)).sub(flattenExpr(n.Item)).
			sub(flattenExpr(n.Count)).num(uint64(n.Cond)).sub(flattenExpr(n.CondExpr)).index(n.End).done()
	case *ast.Select:
		b := newBuilder(nodeSelect).str(n.Label).sub(flattenExpr(n.Case))
		count(b, n.Whens)
		for _, w := range n.Whens {
			b.index(w)
		}
		return b.index(n.Otherwise).index(n.End).done()
	case *ast.When:
		return newBuilder(nodeWhen).sub(flattenList(n.Conditions)).sub(flattenList(n.Cases)).
			index(n.Select).index(n.EndIf).index(n.End).done()
	case *ast.Otherwise:
		return newBuilder(nodeOtherwise).index(n.Select).done()
	case *ast.If:
		return newBuilder(nodeIf).sub(flattenList(n.Conditions)).index(n.Else).done()
	case *ast.Else:
		return newBuilder(nodeElse).index(n.If).index(n.EndIf).done()
	case *ast.End:
		return newBuilder(nodeEnd).str(n.Name).num(uint64(n.Style)).index(n.Block).done()
	case *ast.EndIf:
		return newBuilder(nodeEndIf).num(uint64(n.Style)).index(n.Owner).index(n.Select).done()
	case *ast.Then:
		return newBuilder(nodeThen).index(n.Owner).done()
	case *ast.Drop:
		b := newBuilder(nodeDrop).sub(flattenTargets(n.Targets))
		flattenFlags(b, n.Indirect)
		return b.done()
	case *ast.Exit:
		return newBuilder(nodeExit).sub(flattenExpr(n.Value)).done()
	case *ast.Return:
		return newBuilder(nodeReturn).sub(flattenExpr(n.Value)).done()
	case *ast.Interpret:
		return newBuilder(nodeInterpret).sub(flattenExpr(n.Expr)).done()
	case *ast.LeaveIterate:
		return newBuilder(nodeLeaveIterate).str(n.Name).done()
	case *ast.Numeric:
		return newBuilder(nodeNumeric).num(uint64(n.Option)).sub(flattenExpr(n.Value)).str(n.Form).done()
	case *ast.Say:
		return newBuilder(nodeSay).sub(flattenExpr(n.Value)).done()
	case *ast.Queue:
		return newBuilder(nodeQueue).sub(flattenExpr(n.Value)).done()
	case *ast.Trace:
		return newBuilder(nodeTrace).str(n.Setting).sub(flattenExpr(n.Dynamic)).done()
	case *ast.Procedure:
		b := newBuilder(nodeProcedure).sub(flattenTargets(n.Expose))
		flattenFlags(b, n.Indirect)
		return b.done()
	case *ast.Raise:
		return newBuilder(nodeRaise).str(n.Condition).sub(flattenExpr(n.Code)).sub(flattenExpr(n.Description)).
			sub(flattenExpr(n.Additional)).flag(n.Exit).flag(n.Return).sub(flattenExpr(n.Result)).done()
	case *ast.Parse:
		b := newBuilder(nodeParse).num(uint64(n.Source)).num(uint64(n.Casing)).flag(n.Caseless).
			sub(flattenExpr(n.Var)).sub(flattenExpr(n.Value))
		count(b, n.Templates)
		for _, tpl := range n.Templates {
			count(b, tpl.Items)
			for _, it := range tpl.Items {
				b.num(uint64(it.Kind)).sub(flattenExpr(it.Target)).sub(flattenExpr(it.Value)).signed(it.Sign)
			}
		}
		return b.done()
	case *ast.UseArg:
		b := newBuilder(nodeUseArg).flag(n.Strict)
		count(b, n.Params)
		for _, p := range n.Params {
			b.sub(flattenExpr(p.Target)).flag(p.Reference).sub(flattenExpr(p.Default))
		}
		return b.flag(n.Ellipsis).done()
	}
	panic(fmt.Sprintf("image: unknown instruction node %T", n))
}

func flattenFlags(b *builder, flags []bool) {
	count(b, flags)
	for _, f := range flags {
		b.flag(f)
	}
}

func unflattenFlags(r *reader) []bool {
	n, ok := r.count()
	if !ok {
		return nil
	}
	flags := make([]bool, n)
	for i := range flags {
		flags[i] = r.flag()
	}
	return flags
}

func unflattenSend(rec *record, err *error) *ast.Send {
	e := unflattenExpr(rec, err)
	s, ok := e.(*ast.Send)
	if !ok && *err == nil {
		*err = fmt.Errorf("%w: message instruction without a message term", ErrBadImage)
	}
	return s
}

func unflattenNode(rec *record, err *error) ast.Node {
	if *err != nil || rec.Tag == tagNone {
		return nil
	}
	r := newReader(rec, err)
	expr := func() ast.Expr { return unflattenExpr(r.sub(), err) }
	target := func() ast.Target { return unflattenTarget(r.sub(), err) }
	list := func() []ast.Expr { return unflattenList(r.sub(), err) }

	switch rec.Tag {
	case nodeAssignment:
		n := &ast.Assignment{Target: target()}
		n.Op = token.Operator(r.num())
		n.Value = expr()
		return n
	case nodeMessage:
		n := &ast.Message{Send: unflattenSend(r.sub(), err)}
		n.Op = token.Operator(r.num())
		n.Value = expr()
		return n
	case nodeCommand:
		return &ast.Command{Expr: expr()}
	case nodeAddress:
		n := &ast.Address{Environment: r.str()}
		n.Dynamic = expr()
		n.Command = expr()
		if c, ok := r.count(); ok {
			n.With = make([]ast.Redirect, c)
			for i := range n.With {
				rd := &n.With[i]
				rd.Stream = ast.Stream(r.num())
				rd.Kind = ast.SourceKind(r.num())
				rd.Target = expr()
				rd.Append = r.flag()
			}
		}
		return n
	case nodeCall:
		n := &ast.Call{Form: ast.TransferForm(r.num()), Name: r.str(), Namespace: r.str(), Quoted: r.flag()}
		n.Dynamic = expr()
		n.Args = list()
		n.Condition = r.str()
		n.Target = r.index()
		n.Resolved = r.flag()
		return n
	case nodeSignal:
		n := &ast.Signal{Form: ast.TransferForm(r.num()), Name: r.str()}
		n.Dynamic = expr()
		n.Condition = r.str()
		n.Target = r.index()
		n.Resolved = r.flag()
		return n
	case nodeLoop:
		n := &ast.Loop{Keyword: r.str(), Kind: ast.LoopKind(r.num()), Label: r.str()}
		n.Counter = target()
		n.Control = target()
		n.Initial = expr()
		n.To = expr()
		n.By = expr()
		n.For = expr()
		if c, ok := r.count(); ok {
			n.Order = make([]ast.ControlPart, c)
			for i := range n.Order {
				n.Order[i] = ast.ControlPart(r.num())
			}
		}
		n.Over = expr()
		n.Index = target()
		n.Item = target()
		n.Count = expr()
		n.Cond = ast.CondKind(r.num())
		n.CondExpr = expr()
		n.End = r.index()
		return n
	case nodeSelect:
		n := &ast.Select{Label: r.str()}
		n.Case = expr()
		if c, ok := r.count(); ok {
			n.Whens = make([]ast.Index, c)
			for i := range n.Whens {
				n.Whens[i] = r.index()
			}
		}
		n.Otherwise = r.index()
		n.End = r.index()
		return n
	case nodeWhen:
		n := &ast.When{Conditions: list()}
		n.Cases = list()
		n.Select = r.index()
		n.EndIf = r.index()
		n.End = r.index()
		return n
	case nodeOtherwise:
		return &ast.Otherwise{Select: r.index()}
	case nodeIf:
		n := &ast.If{Conditions: list()}
		n.Else = r.index()
		return n
	case nodeElse:
		return &ast.Else{If: r.index(), EndIf: r.index()}
	case nodeEnd:
		return &ast.End{Name: r.str(), Style: ast.EndStyle(r.num()), Block: r.index()}
	case nodeEndIf:
		return &ast.EndIf{Style: ast.EndStyle(r.num()), Owner: r.index(), Select: r.index()}
	case nodeThen:
		return &ast.Then{Owner: r.index()}
	case nodeDrop:
		n := &ast.Drop{Targets: unflattenTargets(r.sub(), err)}
		n.Indirect = unflattenFlags(r)
		return n
	case nodeExit:
		return &ast.Exit{Value: expr()}
	case nodeReturn:
		return &ast.Return{Value: expr()}
	case nodeInterpret:
		return &ast.Interpret{Expr: expr()}
	case nodeLeaveIterate:
		return &ast.LeaveIterate{Name: r.str()}
	case nodeNumeric:
		n := &ast.Numeric{Option: token.Keyword(r.num())}
		n.Value = expr()
		n.Form = r.str()
		return n
	case nodeSay:
		return &ast.Say{Value: expr()}
	case nodeQueue:
		return &ast.Queue{Value: expr()}
	case nodeTrace:
		n := &ast.Trace{Setting: r.str()}
		n.Dynamic = expr()
		return n
	case nodeProcedure:
		n := &ast.Procedure{Expose: unflattenTargets(r.sub(), err)}
		n.Indirect = unflattenFlags(r)
		return n
	case nodeRaise:
		n := &ast.Raise{Condition: r.str()}
		n.Code = expr()
		n.Description = expr()
		n.Additional = expr()
		n.Exit = r.flag()
		n.Return = r.flag()
		n.Result = expr()
		return n
	case nodeParse:
		n := &ast.Parse{Source: ast.ParseSource(r.num()), Casing: ast.Casing(r.num()), Caseless: r.flag()}
		n.Var = target()
		n.Value = expr()
		if c, ok := r.count(); ok {
			n.Templates = make([]ast.Template, c)
			for i := range n.Templates {
				items, ok := r.count()
				if !ok {
					continue
				}
				n.Templates[i].Items = make([]ast.TemplateItem, items)
				for j := range n.Templates[i].Items {
					it := &n.Templates[i].Items[j]
					it.Kind = ast.ItemKind(r.num())
					it.Target = target()
					it.Value = expr()
					it.Sign = r.signed()
				}
			}
		}
		return n
	case nodeUseArg:
		n := &ast.UseArg{Strict: r.flag()}
		if c, ok := r.count(); ok {
			n.Params = make([]ast.UseParam, c)
			for i := range n.Params {
				p := &n.Params[i]
				p.Target = target()
				p.Reference = r.flag()
				p.Default = expr()
			}
		}
		n.Ellipsis = r.flag()
		return n
	}
	*err = fmt.Errorf("%w: unknown instruction tag %d", ErrBadImage, rec.Tag)
	return nil
}
