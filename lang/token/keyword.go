// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package token

// Keyword identifies an instruction keyword or an instruction sub-keyword.
// Keywords are not reserved: a symbol is only a keyword where the grammar
// expects one.
type Keyword int

const (
	NOKEYWORD Keyword = iota

	// Instruction keywords
	instructionStart
	KADDRESS
	KARG
	KCALL
	KDO
	KDROP
	KELSE
	KEND
	KEXIT
	KIF
	KINTERPRET
	KITERATE
	KLEAVE
	KLOOP
	KNOP
	KNUMERIC
	KOTHERWISE
	KPARSE
	KPROCEDURE
	KPULL
	KPUSH
	KQUEUE
	KRAISE
	KRETURN
	KSAY
	KSELECT
	KSIGNAL
	KTHEN
	KTRACE
	KUSE
	KWHEN
	instructionEnd

	// Sub-keywords
	subkeywordStart
	KADDITIONAL
	KAPPEND
	KARRAY
	KBY
	KCASE
	KCASELESS
	KCOUNTER
	KDESCRIPTION
	KDIGITS
	KENGINEERING
	KERROR
	KEXPOSE
	KFOR
	KFOREVER
	KFORM
	KFUZZ
	KINDEX
	KINPUT
	KITEM
	KLABEL
	KLINEIN
	KLOWER
	KNAME
	KNORMAL
	KOFF
	KON
	KOUTPUT
	KOVER
	KREPLACE
	KSCIENTIFIC
	KSOURCE
	KSTEM
	KSTREAM
	KSTRICT
	KTO
	KUNTIL
	KUPPER
	KUSER
	KUSING
	KVALUE
	KVAR
	KVERSION
	KWHILE
	KWITH
	subkeywordEnd
)

var keywordNames = [...]string{
	NOKEYWORD: "",

	KADDRESS:   "ADDRESS",
	KARG:       "ARG",
	KCALL:      "CALL",
	KDO:        "DO",
	KDROP:      "DROP",
	KELSE:      "ELSE",
	KEND:       "END",
	KEXIT:      "EXIT",
	KIF:        "IF",
	KINTERPRET: "INTERPRET",
	KITERATE:   "ITERATE",
	KLEAVE:     "LEAVE",
	KLOOP:      "LOOP",
	KNOP:       "NOP",
	KNUMERIC:   "NUMERIC",
	KOTHERWISE: "OTHERWISE",
	KPARSE:     "PARSE",
	KPROCEDURE: "PROCEDURE",
	KPULL:      "PULL",
	KPUSH:      "PUSH",
	KQUEUE:     "QUEUE",
	KRAISE:     "RAISE",
	KRETURN:    "RETURN",
	KSAY:       "SAY",
	KSELECT:    "SELECT",
	KSIGNAL:    "SIGNAL",
	KTHEN:      "THEN",
	KTRACE:     "TRACE",
	KUSE:       "USE",
	KWHEN:      "WHEN",

	KADDITIONAL:  "ADDITIONAL",
	KAPPEND:      "APPEND",
	KARRAY:       "ARRAY",
	KBY:          "BY",
	KCASE:        "CASE",
	KCASELESS:    "CASELESS",
	KCOUNTER:     "COUNTER",
	KDESCRIPTION: "DESCRIPTION",
	KDIGITS:      "DIGITS",
	KENGINEERING: "ENGINEERING",
	KERROR:       "ERROR",
	KEXPOSE:      "EXPOSE",
	KFOR:         "FOR",
	KFOREVER:     "FOREVER",
	KFORM:        "FORM",
	KFUZZ:        "FUZZ",
	KINDEX:       "INDEX",
	KINPUT:       "INPUT",
	KITEM:        "ITEM",
	KLABEL:       "LABEL",
	KLINEIN:      "LINEIN",
	KLOWER:       "LOWER",
	KNAME:        "NAME",
	KNORMAL:      "NORMAL",
	KOFF:         "OFF",
	KON:          "ON",
	KOUTPUT:      "OUTPUT",
	KOVER:        "OVER",
	KREPLACE:     "REPLACE",
	KSCIENTIFIC:  "SCIENTIFIC",
	KSOURCE:      "SOURCE",
	KSTEM:        "STEM",
	KSTREAM:      "STREAM",
	KSTRICT:      "STRICT",
	KTO:          "TO",
	KUNTIL:       "UNTIL",
	KUPPER:       "UPPER",
	KUSER:        "USER",
	KUSING:       "USING",
	KVALUE:       "VALUE",
	KVAR:         "VAR",
	KVERSION:     "VERSION",
	KWHILE:       "WHILE",
	KWITH:        "WITH",
}

func (k Keyword) String() string {
	if k >= 0 && int(k) < len(keywordNames) {
		return keywordNames[k]
	}
	return ""
}

var (
	instructions map[string]Keyword
	subkeywords  map[string]Keyword
)

func init() {
	instructions = make(map[string]Keyword)
	for k := instructionStart + 1; k < instructionEnd; k++ {
		instructions[keywordNames[k]] = k
	}
	subkeywords = make(map[string]Keyword)
	for k := subkeywordStart + 1; k < subkeywordEnd; k++ {
		subkeywords[keywordNames[k]] = k
	}
	// A few instruction keywords double as option words.
	for _, k := range []Keyword{KARG, KPULL, KCALL, KSIGNAL, KEXIT, KRETURN, KTHEN, KEND} {
		subkeywords[keywordNames[k]] = k
	}
}

// LookupInstruction returns the instruction keyword a symbol token names, or
// NOKEYWORD.
func LookupInstruction(t Token) Keyword {
	if t.Type != SYMBOL || t.Sub != VARIABLE {
		return NOKEYWORD
	}
	return instructions[t.Value]
}

// LookupSubKeyword returns the option keyword a symbol token names, or
// NOKEYWORD.
func LookupSubKeyword(t Token) Keyword {
	if t.Type != SYMBOL || t.Sub != VARIABLE {
		return NOKEYWORD
	}
	return subkeywords[t.Value]
}
