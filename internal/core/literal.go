package core

import "fmt"

// LitKind tags the three literal forms the surface grammar supports.
type LitKind int

const (
	LitInt LitKind = iota
	LitReal
	LitChar
)

// Literal is a ground literal value. Exactly one of IntVal/RealVal/CharVal
// is meaningful, selected by Kind. CharVal is a Unicode code point.
type Literal struct {
	Kind    LitKind
	IntVal  int64
	RealVal float64
	CharVal uint32 // Unicode code point
}

func NewIntLiteral(v int64) Literal    { return Literal{Kind: LitInt, IntVal: v} }
func NewRealLiteral(v float64) Literal { return Literal{Kind: LitReal, RealVal: v} }
func NewCharLiteral(v uint32) Literal  { return Literal{Kind: LitChar, CharVal: v} }

func (l Literal) String() string {
	switch l.Kind {
	case LitInt:
		return fmt.Sprintf("%d", l.IntVal)
	case LitReal:
		return fmt.Sprintf("%g", l.RealVal)
	case LitChar:
		return fmt.Sprintf("%q", rune(l.CharVal))
	}
	return "<invalid literal>"
}

// BIF enumerates the built-in, arity-2 primitive operations the front end
// recognizes natively.
type BIF int

const (
	Add BIF = iota
	Sub
	Mul
	Div
	Mod
	Divf
	Eq
	Neq
	Gt
	Ge
	Lt
	Le
)

func (b BIF) String() string {
	switch b {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "div"
	case Mod:
		return "mod"
	case Divf:
		return "/."
	case Eq:
		return "="
	case Neq:
		return "<>"
	case Gt:
		return ">"
	case Ge:
		return ">="
	case Lt:
		return "<"
	case Le:
		return "<="
	}
	return "<invalid bif>"
}

// IsArithmetic reports whether b is Add/Sub/Mul (accepts Int or Real,
// result type equals operand type).
func (b BIF) IsArithmetic() bool {
	return b == Add || b == Sub || b == Mul
}

// IsComparison reports whether b is one of the six comparison operators
// (accepts Int, Real, or Char; result is always bool).
func (b BIF) IsComparison() bool {
	switch b {
	case Eq, Neq, Gt, Ge, Lt, Le:
		return true
	}
	return false
}
