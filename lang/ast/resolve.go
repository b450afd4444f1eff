// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package ast

import (
	"github.com/ethereum/go-ethereum/log"
)

// Resolve binds the forward references of u against its label table and
// records every CALL ON / SIGNAL ON trap in the condition table.
//
// A missing label is not an error: the CALL falls back to the routine search
// at run time and a SIGNAL reports the missing label when it executes.
// Resolve consumes the forward reference list, so running it again does
// nothing.
func Resolve(u *Unit) {
	for _, ref := range u.ForwardRefs {
		inst := u.At(ref.Inst)
		switch n := inst.Node.(type) {
		case *Call:
			name := n.Name
			if n.Form == TransferOn {
				name = TrapName(n.Condition, n.Name)
				u.Conditions[n.Condition] = append(u.Conditions[n.Condition], ref.Inst)
			}
			n.Target, n.Resolved = u.lookup(name)
			if !n.Resolved {
				log.Debug("Unresolved call target", "unit", u.Name, "name", name, "line", inst.Loc.Line())
			}
		case *Signal:
			name := n.Name
			if n.Form == TransferOn {
				name = TrapName(n.Condition, n.Name)
				u.Conditions[n.Condition] = append(u.Conditions[n.Condition], ref.Inst)
			}
			n.Target, n.Resolved = u.lookup(name)
			if !n.Resolved {
				log.Debug("Unresolved signal target", "unit", u.Name, "name", name, "line", inst.Loc.Line())
			}
		}
	}
	u.ForwardRefs = nil
}

func (u *Unit) lookup(name string) (Index, bool) {
	if i, ok := u.Labels[name]; ok {
		return i, true
	}
	return NoIndex, false
}

// ResolveProgram resolves the main unit and every routine.
func ResolveProgram(p *Program) {
	Resolve(p.Main)
	for _, r := range p.Routines {
		Resolve(r)
	}
}
