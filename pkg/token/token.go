package token

import (
	"fmt"
	"strconv"
)

type Kind int

const (
	EOF Kind = iota
	Error
	Int
	Float
	Ident
	String
	CharLit
	Char
	EqEq
	Neq
	Lte
	Gte
	AndAnd
	OrOr
	Shl
	Shr
	Inc
	Dec
	PlusEq
	MinusEq
	StarEq
	SlashEq
	RemEq
	AndEq
	OrEq
	XorEq
	ShlEq
	ShrEq
	Arrow
	FatArrow
	kindCount
)

// Spellings maps every operator kind to its source text
var Spellings = map[Kind]string{
	EqEq:     "==",
	Neq:      "!=",
	Lte:      "<=",
	Gte:      ">=",
	AndAnd:   "&&",
	OrOr:     "||",
	Shl:      "<<",
	Shr:      ">>",
	Inc:      "++",
	Dec:      "--",
	PlusEq:   "+=",
	MinusEq:  "-=",
	StarEq:   "*=",
	SlashEq:  "/=",
	RemEq:    "%=",
	AndEq:    "&=",
	OrEq:     "|=",
	XorEq:    "^=",
	ShlEq:    "<<=",
	ShrEq:    ">>=",
	Arrow:    "->",
	FatArrow: "=>",
}

var kindNames = [...]string{
	EOF:     "EOF",
	Error:   "Error",
	Int:     "Int",
	Float:   "Float",
	Ident:   "Ident",
	String:  "String",
	CharLit: "CharLit",
	Char:    "Char",
}

// Reverse mapping from operator text to its kind
var Operators = make(map[string]Kind)

func init() {
	for k, s := range Spellings {
		Operators[s] = k
	}
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	if s, ok := Spellings[k]; ok {
		return s
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// IsOperator reports whether k is one of the multi-character operators.
func (k Kind) IsOperator() bool { return k >= EqEq && k < kindCount }

// Span is a half-open byte range [Start, End) into the source buffer.
type Span struct {
	Start int
	End   int
}

func (s Span) Len() int { return s.End - s.Start }

func (s Span) String() string { return fmt.Sprintf("%d..%d", s.Start, s.End) }

// Value is the kind-specific payload of a token. The concrete type is
// always one of IntValue, FloatValue or TextValue.
type Value interface {
	isValue()
}

type IntValue struct {
	V      int64
	Suffix []byte
}

type FloatValue struct {
	V      float64
	Suffix []byte
}

type TextValue struct {
	Text []byte
}

func (IntValue) isValue()   {}
func (FloatValue) isValue() {}
func (TextValue) isValue()  {}

// Token is one lexical unit. Byte slices inside Value may alias the
// lexer's scratch buffer and are only valid until the next scan; use
// Clone to keep them.
type Token struct {
	Kind  Kind
	Char  byte // raw byte for Kind == Char
	Span  Span
	Value Value
}

func (t Token) Int() (int64, bool) {
	v, ok := t.Value.(IntValue)
	return v.V, ok && t.Kind == Int
}

func (t Token) Float() (float64, bool) {
	v, ok := t.Value.(FloatValue)
	return v.V, ok && t.Kind == Float
}

// Text returns the decoded payload of an identifier, string or character
// literal.
func (t Token) Text() ([]byte, bool) {
	v, ok := t.Value.(TextValue)
	return v.Text, ok
}

// Suffix returns the verbatim suffix letters of a numeric literal.
func (t Token) Suffix() ([]byte, bool) {
	switch v := t.Value.(type) {
	case IntValue:
		return v.Suffix, true
	case FloatValue:
		return v.Suffix, true
	}
	return nil, false
}

// Clone returns a copy of t that does not share memory with the scratch buffer.
func (t Token) Clone() Token {
	switch v := t.Value.(type) {
	case IntValue:
		v.Suffix = cloneBytes(v.Suffix)
		t.Value = v
	case FloatValue:
		v.Suffix = cloneBytes(v.Suffix)
		t.Value = v
	case TextValue:
		v.Text = cloneBytes(v.Text)
		t.Value = v
	}
	return t
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte{}, b...)
}

func (t Token) String() string {
	switch t.Kind {
	case Char:
		return fmt.Sprintf("Char %q", rune(t.Char))
	case Int:
		v, _ := t.Value.(IntValue)
		return fmt.Sprintf("Int %d%s", v.V, v.Suffix)
	case Float:
		v, _ := t.Value.(FloatValue)
		return fmt.Sprintf("Float %s%s", strconv.FormatFloat(v.V, 'g', -1, 64), v.Suffix)
	case Ident:
		text, _ := t.Text()
		return "Ident " + string(text)
	case String, CharLit:
		text, _ := t.Text()
		return fmt.Sprintf("%s %q", t.Kind, text)
	case Error:
		return "Error " + t.Span.String()
	}
	return t.Kind.String()
}
