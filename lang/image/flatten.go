// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package image converts resolved programs to and from a relocatable byte
// form, and keeps compiled images in a persistent store.
//
// The instruction graph is already relocatable: successor links and block
// bindings are arena indexes, never pointers. An image is a version header
// followed by the snappy compressed RLP encoding of every unit's arena,
// label table and condition table.
package image

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/golang/snappy"

	"github.com/probechain/probe-rexx/lang/ast"
	"github.com/probechain/probe-rexx/lang/token"
)

// Version is the layout version written in every image header.
const Version = 1

var magic = []byte("RXIM")

// ErrBadImage is returned when an image cannot be decoded.
var ErrBadImage = errors.New("invalid program image")

type programRecord struct {
	Name     string
	Main     unitRecord
	Routines []namedUnit
	Public   []string
	Requires []string
}

type namedUnit struct {
	Name string
	Unit unitRecord
}

type unitRecord struct {
	Name       string
	Lines      []string
	First      uint64
	Code       []instRecord
	Labels     []labelRecord
	Conditions []conditionRecord
	Forward    []forwardRecord
}

type labelRecord struct {
	Name string
	Inst uint64
}

type conditionRecord struct {
	Name  string
	Insts []uint64
}

type forwardRecord struct {
	Inst uint64
	Kind uint64
}

type instRecord struct {
	Kind  uint64
	Start posRecord
	End   posRecord
	Next  uint64
	Label string
	Node  record
}

type posRecord struct {
	File   string
	Line   uint64
	Column uint64
	Offset uint64
}

// Flatten encodes prog. Equal programs always produce equal images.
func Flatten(prog *ast.Program) ([]byte, error) {
	if prog == nil || prog.Main == nil {
		return nil, errors.New("image: nothing to flatten")
	}
	pr := programRecord{
		Name:     prog.Name,
		Main:     flattenUnit(prog.Main),
		Requires: prog.Requires,
	}
	for _, name := range sortedKeys(prog.Routines) {
		pr.Routines = append(pr.Routines, namedUnit{Name: name, Unit: flattenUnit(prog.Routines[name])})
	}
	for _, name := range sortedKeys(prog.Public) {
		if prog.Public[name] {
			pr.Public = append(pr.Public, name)
		}
	}
	enc, err := rlp.EncodeToBytes(&pr)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Write(magic)
	buf.WriteByte(Version)
	buf.Write(snappy.Encode(nil, enc))
	return buf.Bytes(), nil
}

// Unflatten rebuilds the program encoded in data.
func Unflatten(data []byte) (*ast.Program, error) {
	if len(data) < len(magic)+1 || !bytes.Equal(data[:len(magic)], magic) {
		return nil, fmt.Errorf("%w: missing header", ErrBadImage)
	}
	if v := data[len(magic)]; v != Version {
		return nil, fmt.Errorf("%w: layout version %d, want %d", ErrBadImage, v, Version)
	}
	enc, err := snappy.Decode(nil, data[len(magic)+1:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadImage, err)
	}
	var pr programRecord
	if err := rlp.DecodeBytes(enc, &pr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadImage, err)
	}
	main, err := unflattenUnit(&pr.Main)
	if err != nil {
		return nil, err
	}
	prog := ast.NewProgram(pr.Name, main)
	prog.Requires = pr.Requires
	for i := range pr.Routines {
		u, err := unflattenUnit(&pr.Routines[i].Unit)
		if err != nil {
			return nil, err
		}
		prog.Routines[pr.Routines[i].Name] = u
	}
	for _, name := range pr.Public {
		if _, ok := prog.Routines[name]; !ok {
			return nil, fmt.Errorf("%w: public routine %s is not defined", ErrBadImage, name)
		}
		prog.Public[name] = true
	}
	return prog, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func flattenUnit(u *ast.Unit) unitRecord {
	ur := unitRecord{
		Name:  u.Name,
		Lines: u.Lines,
		First: uint64(u.First + 1),
		Code:  make([]instRecord, len(u.Code)),
	}
	for i := range u.Code {
		inst := &u.Code[i]
		ur.Code[i] = instRecord{
			Kind:  uint64(inst.Kind),
			Start: flattenPos(inst.Loc.Start),
			End:   flattenPos(inst.Loc.End),
			Next:  uint64(inst.Next + 1),
			Label: inst.Label,
			Node:  flattenNode(inst.Node),
		}
	}
	for _, name := range sortedKeys(u.Labels) {
		ur.Labels = append(ur.Labels, labelRecord{Name: name, Inst: uint64(u.Labels[name] + 1)})
	}
	for _, name := range sortedKeys(u.Conditions) {
		cr := conditionRecord{Name: name}
		for _, i := range u.Conditions[name] {
			cr.Insts = append(cr.Insts, uint64(i+1))
		}
		ur.Conditions = append(ur.Conditions, cr)
	}
	for _, f := range u.ForwardRefs {
		ur.Forward = append(ur.Forward, forwardRecord{Inst: uint64(f.Inst + 1), Kind: uint64(f.Kind)})
	}
	return ur
}

func unflattenUnit(ur *unitRecord) (*ast.Unit, error) {
	u := ast.NewUnit(ur.Name)
	u.Lines = ur.Lines
	u.First = ast.Index(ur.First) - 1
	u.Code = make([]ast.Instruction, len(ur.Code))

	var err error
	for i := range ur.Code {
		ir := &ur.Code[i]
		kind := ast.Kind(ir.Kind)
		if !kind.Valid() {
			return nil, fmt.Errorf("%w: instruction %d has kind %d", ErrBadImage, i, ir.Kind)
		}
		u.Code[i] = ast.Instruction{
			Kind:  kind,
			Loc:   ast.Location{Start: unflattenPos(ir.Start), End: unflattenPos(ir.End)},
			Next:  ast.Index(ir.Next) - 1,
			Label: ir.Label,
			Node:  unflattenNode(&ir.Node, &err),
		}
		if err != nil {
			return nil, fmt.Errorf("unit %s instruction %d: %w", ur.Name, i, err)
		}
	}
	for _, l := range ur.Labels {
		u.Labels[l.Name] = ast.Index(l.Inst) - 1
	}
	for _, c := range ur.Conditions {
		for _, i := range c.Insts {
			u.Conditions[c.Name] = append(u.Conditions[c.Name], ast.Index(i)-1)
		}
	}
	for _, f := range ur.Forward {
		u.ForwardRefs = append(u.ForwardRefs, ast.ForwardRef{Inst: ast.Index(f.Inst) - 1, Kind: ast.RefKind(f.Kind)})
	}
	if err := checkLinks(u); err != nil {
		return nil, fmt.Errorf("unit %s: %w", ur.Name, err)
	}
	return u, nil
}

// checkLinks verifies that every successor and table entry addresses an
// instruction of the unit.
func checkLinks(u *ast.Unit) error {
	inRange := func(i ast.Index) bool { return i == ast.NoIndex || int(i) < len(u.Code) && i >= 0 }
	if !inRange(u.First) {
		return fmt.Errorf("%w: first instruction %d out of range", ErrBadImage, u.First)
	}
	for i := range u.Code {
		if !inRange(u.Code[i].Next) {
			return fmt.Errorf("%w: successor of %d out of range", ErrBadImage, i)
		}
	}
	for name, i := range u.Labels {
		if !i.Valid() || !inRange(i) {
			return fmt.Errorf("%w: label %s out of range", ErrBadImage, name)
		}
	}
	return nil
}

func flattenPos(p token.Position) posRecord {
	return posRecord{File: p.File, Line: uint64(p.Line), Column: uint64(p.Column), Offset: uint64(p.Offset)}
}

func unflattenPos(p posRecord) token.Position {
	return token.Position{File: p.File, Line: int(p.Line), Column: int(p.Column), Offset: int(p.Offset)}
}
