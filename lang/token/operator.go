// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package token

import "fmt"

// Operator identifies an operator. The value doubles as the selector used to
// dispatch the operation to the left operand.
type Operator int

const (
	NOOP Operator = iota

	PLUS      // +
	SUBTRACT  // -
	MULTIPLY  // *
	DIVIDE    // /
	INTDIV    // %
	REMAINDER // //
	POWER     // **
	ABUTTAL   // abutted terms
	CONCAT    // ||
	BLANK     // blank-separated terms

	EQUAL           // =
	NOTEQUAL        // \=
	GREATER         // >
	NOTGREATER      // \>
	LESS            // <
	NOTLESS         // \<
	GREATEREQUAL    // >=
	LESSEQUAL       // <=
	STRICTEQUAL     // ==
	STRICTNOTEQUAL  // \==
	STRICTGREATER   // >>
	STRICTNOTGREAT  // \>>
	STRICTLESS      // <<
	STRICTNOTLESS   // \<<
	STRICTGREATEREQ // >>=
	STRICTLESSEQ    // <<=
	LESSGREATER     // <>
	GREATERLESS     // ><

	AND // &
	OR  // |
	XOR // &&
	NOT // \ (prefix)

	operatorEnd
)

// operatorNames is the canonical text of every operator as it appears in
// trace output. Entries are indexed by the operator value itself.
var operatorNames = [...]string{
	NOOP:            "",
	PLUS:            "+",
	SUBTRACT:        "-",
	MULTIPLY:        "*",
	DIVIDE:          "/",
	INTDIV:          "%",
	REMAINDER:       "//",
	POWER:           "**",
	ABUTTAL:         "",
	CONCAT:          "||",
	BLANK:           " ",
	EQUAL:           "=",
	NOTEQUAL:        "\\=",
	GREATER:         ">",
	NOTGREATER:      "\\>",
	LESS:            "<",
	NOTLESS:         "\\<",
	GREATEREQUAL:    ">=",
	LESSEQUAL:       "<=",
	STRICTEQUAL:     "==",
	STRICTNOTEQUAL:  "\\==",
	STRICTGREATER:   ">>",
	STRICTNOTGREAT:  "\\>>",
	STRICTLESS:      "<<",
	STRICTNOTLESS:   "\\<<",
	STRICTGREATEREQ: ">>=",
	STRICTLESSEQ:    "<<=",
	LESSGREATER:     "<>",
	GREATERLESS:     "><",
	AND:             "&",
	OR:              "|",
	XOR:             "&&",
	NOT:             "\\",
}

// String returns the canonical operator name.
func (o Operator) String() string {
	if o >= 0 && o < operatorEnd {
		return operatorNames[o]
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// Valid reports whether o names a real operator.
func (o Operator) Valid() bool {
	return o > NOOP && o < operatorEnd
}

// IsComparison reports whether o is one of the comparison operators.
func (o Operator) IsComparison() bool {
	return o >= EQUAL && o <= GREATERLESS
}

// IsLogical reports whether o is a logical operator.
func (o Operator) IsLogical() bool {
	return o >= AND && o <= NOT
}

// IsPrefix reports whether o may be used as a prefix operator.
func (o Operator) IsPrefix() bool {
	return o == PLUS || o == SUBTRACT || o == NOT
}

// Precedence returns the binding strength of o as an infix operator. Higher
// values bind tighter; zero means o is not an infix operator.
func (o Operator) Precedence() int {
	switch {
	case o == OR || o == XOR:
		return 1
	case o == AND:
		return 2
	case o.IsComparison():
		return 3
	case o == ABUTTAL || o == CONCAT || o == BLANK:
		return 4
	case o == PLUS || o == SUBTRACT:
		return 5
	case o == MULTIPLY || o == DIVIDE || o == INTDIV || o == REMAINDER:
		return 6
	case o == POWER:
		return 7
	}
	return 0
}

// operatorText maps the source spelling of every lexical operator to its
// identity.
var operatorText = map[string]Operator{
	"+":    PLUS,
	"-":    SUBTRACT,
	"*":    MULTIPLY,
	"/":    DIVIDE,
	"%":    INTDIV,
	"//":   REMAINDER,
	"**":   POWER,
	"||":   CONCAT,
	"=":    EQUAL,
	"\\=":  NOTEQUAL,
	">":    GREATER,
	"\\>":  NOTGREATER,
	"<":    LESS,
	"\\<":  NOTLESS,
	">=":   GREATEREQUAL,
	"<=":   LESSEQUAL,
	"==":   STRICTEQUAL,
	"\\==": STRICTNOTEQUAL,
	">>":   STRICTGREATER,
	"\\>>": STRICTNOTGREAT,
	"<<":   STRICTLESS,
	"\\<<": STRICTNOTLESS,
	">>=":  STRICTGREATEREQ,
	"<<=":  STRICTLESSEQ,
	"<>":   LESSGREATER,
	"><":   GREATERLESS,
	"&":    AND,
	"|":    OR,
	"&&":   XOR,
	"\\":   NOT,
}

// LookupOperator returns the operator spelled text.
func LookupOperator(text string) (Operator, bool) {
	op, ok := operatorText[text]
	return op, ok
}

// compoundAssign lists the operators that may prefix '=' to form a compound
// assignment.
var compoundAssign = map[Operator]bool{
	PLUS: true, SUBTRACT: true, MULTIPLY: true, DIVIDE: true, INTDIV: true,
	REMAINDER: true, POWER: true, CONCAT: true, AND: true, OR: true, XOR: true,
}

// IsCompoundAssign reports whether "op=" is a compound assignment.
func IsCompoundAssign(op Operator) bool {
	return compoundAssign[op]
}
