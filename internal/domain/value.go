package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// ValueKind discriminates the coerced representation of a scraped cell.
type ValueKind int

const (
	KindStr ValueKind = iota
	KindInt
	KindFloat
)

// Value is a single scraped cell coerced into its most specific type.
// Cells that fail numeric parsing stay as passthrough strings so no
// source data is lost.
type Value struct {
	Kind  ValueKind
	Int   int64
	Float float64
	Str   string
}

// legendRe matches a numeric prefix followed eventually by the "Legend"
// footnote marker the portal appends to flagged cells, e.g.
// "0.2LegendT" -> "0.2".
var legendRe = regexp.MustCompile(`^([+-]?(?:\d*\.)?\d+).*?Legend`)

// IntValue wraps an integer as a Value.
func IntValue(v int64) Value { return Value{Kind: KindInt, Int: v} }

// FloatValue wraps a float as a Value.
func FloatValue(v float64) Value { return Value{Kind: KindFloat, Float: v} }

// StrValue wraps a string as a Value.
func StrValue(s string) Value { return Value{Kind: KindStr, Str: s} }

// Coerce converts raw cell text into a typed Value. Non-ASCII bytes are
// stripped first, then an integer parse is tried, then a float parse. Text
// that carries a numeric prefix followed by a Legend footnote marker keeps
// the prefix as a string; anything else passes through unchanged.
func Coerce(raw string) Value {
	s := stripNonASCII(raw)
	trimmed := strings.TrimSpace(s)

	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return IntValue(n)
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return FloatValue(f)
	}
	if m := legendRe.FindStringSubmatch(trimmed); m != nil {
		return StrValue(m[1])
	}
	return StrValue(s)
}

// String renders the value the way it will be compared and persisted:
// integers without decoration, floats in their shortest form, strings as-is.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	default:
		return v.Str
	}
}

// IsNumeric reports whether the value coerced to an integer or float.
func (v Value) IsNumeric() bool {
	return v.Kind == KindInt || v.Kind == KindFloat
}

// HasDigits reports whether the value is numeric or its string form
// contains at least one digit.
func (v Value) HasDigits() bool {
	if v.IsNumeric() {
		return true
	}
	return strings.ContainsFunc(v.Str, isDigit)
}

// HasNonZeroDigits reports whether the value carries meaningful numeric
// signal: a non-zero number, or a string form containing a digit other
// than '0'. This is the reconciliation scoring signal.
func (v Value) HasNonZeroDigits() bool {
	if v.IsNumeric() && !v.isZero() {
		return true
	}
	for _, r := range v.String() {
		if isDigit(r) && r != '0' {
			return true
		}
	}
	return false
}

func (v Value) isZero() bool {
	switch v.Kind {
	case KindInt:
		return v.Int == 0
	case KindFloat:
		return v.Float == 0
	default:
		return false
	}
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// stripNonASCII drops every byte with a code point of 128 or higher. The
// portal pads cells with non-breaking spaces and similar artifacts that
// would otherwise defeat numeric parsing.
func stripNonASCII(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
