// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package value

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultDigits is the initial NUMERIC DIGITS setting.
const DefaultDigits = 9

// MaxDigits bounds NUMERIC DIGITS; arithmetic is carried in binary floating
// point, which holds about 15 significant decimal digits.
const MaxDigits = 15

// Numeric holds the NUMERIC settings of an activation.
type Numeric struct {
	Digits int
	Fuzz   int
	Form   string // SCIENTIFIC or ENGINEERING
}

// DefaultNumeric returns the initial settings of a new program.
func DefaultNumeric() *Numeric {
	return &Numeric{Digits: DefaultDigits, Form: "SCIENTIFIC"}
}

func (n *Numeric) digits() int {
	if n == nil || n.Digits <= 0 {
		return DefaultDigits
	}
	if n.Digits > MaxDigits {
		return MaxDigits
	}
	return n.Digits
}

// compareDigits is the precision used for numeric comparison.
func (n *Numeric) compareDigits() int {
	d := n.digits()
	if n != nil && n.Fuzz > 0 && n.Fuzz < d {
		d -= n.Fuzz
	}
	return d
}

// ParseNumber converts a string to a number. Leading and trailing blanks and
// a sign (optionally followed by blanks) are allowed.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = strings.TrimSpace(s[1:])
	}
	if !isPlainNumber(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, true
}

func isPlainNumber(s string) bool {
	i, digits := 0, 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		start := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i == start {
			return false
		}
	}
	return i == len(s)
}

// IsNumber reports whether s is a valid number.
func IsNumber(s string) bool {
	_, ok := ParseNumber(s)
	return ok
}

// Number formats f with the current precision.
func Number(ctx *Numeric, f float64) Value {
	return String(FormatNumber(f, ctx.digits()))
}

// FormatNumber renders f rounded to digits significant digits, switching to
// exponential notation when the integer part needs more than digits places or
// the fraction more than twice that.
func FormatNumber(f float64, digits int) string {
	if f == 0 {
		return "0"
	}
	if f == math.Trunc(f) && math.Abs(f) < math.Pow10(digits) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	e := strconv.FormatFloat(f, 'e', digits-1, 64)
	neg := false
	if e[0] == '-' {
		neg = true
		e = e[1:]
	}
	mark := strings.IndexByte(e, 'e')
	mant := strings.Replace(e[:mark], ".", "", 1)
	exp, _ := strconv.Atoi(e[mark+1:])
	mant = strings.TrimRight(mant, "0")
	if mant == "" {
		return "0"
	}
	var out string
	switch {
	case exp >= digits || len(mant)-1-exp > 2*digits:
		out = mant[:1]
		if len(mant) > 1 {
			out += "." + mant[1:]
		}
		sign := "+"
		if exp < 0 {
			sign = "-"
			exp = -exp
		}
		out += "E" + sign + strconv.Itoa(exp)
	case exp < 0:
		out = "0." + strings.Repeat("0", -exp-1) + mant
	case exp+1 >= len(mant):
		out = mant + strings.Repeat("0", exp+1-len(mant))
	default:
		out = mant[:exp+1] + "." + mant[exp+1:]
	}
	if neg {
		out = "-" + out
	}
	return out
}

// roundDigits rounds f to digits significant digits.
func roundDigits(f float64, digits int) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(f, 'e', digits-1, 64), 64)
	if err != nil {
		return f
	}
	return r
}

// Upper returns s in upper case. Casers keep state, so one is made per call
// rather than shared between goroutines.
func Upper(s string) string {
	if isASCII(s) {
		return strings.ToUpper(s)
	}
	return cases.Upper(language.Und).String(s)
}

// Lower returns s in lower case.
func Lower(s string) string {
	if isASCII(s) {
		return strings.ToLower(s)
	}
	return cases.Lower(language.Und).String(s)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
