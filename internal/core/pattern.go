package core

import (
	"fmt"
	"strings"

	"github.com/webml-go/mlcore/internal/symbol"
)

// PatternKind tags the pattern forms.
type PatternKind int

const (
	PatConstant PatternKind = iota
	PatChar
	PatConstructor
	PatTuple
	PatVariable
	PatWildcard
)

// Bind is one (name, type) pair a pattern brings into scope.
type Bind[Ty any] struct {
	Name symbol.Symbol
	Ty   Ty
}

// Pattern is a node in the pattern grammar, parameterized by the type-slot
// phase Ty. Exactly the fields relevant to Kind are populated.
type Pattern[Ty any] struct {
	Kind PatternKind
	Ty   Ty

	// PatConstant
	ConstantValue int64
	// PatChar
	CharValue uint32
	// PatConstructor
	CtorName symbol.Symbol
	CtorArg  *Pattern[Ty] // nil if the constructor is nullary
	// PatTuple
	TupleElems []Pattern[Ty]
	// PatVariable
	VarName symbol.Symbol
}

func NewConstantPattern[Ty any](ty Ty, v int64) Pattern[Ty] {
	return Pattern[Ty]{Kind: PatConstant, Ty: ty, ConstantValue: v}
}

func NewCharPattern[Ty any](ty Ty, v uint32) Pattern[Ty] {
	return Pattern[Ty]{Kind: PatChar, Ty: ty, CharValue: v}
}

func NewConstructorPattern[Ty any](ty Ty, name symbol.Symbol, arg *Pattern[Ty]) Pattern[Ty] {
	return Pattern[Ty]{Kind: PatConstructor, Ty: ty, CtorName: name, CtorArg: arg}
}

func NewTuplePattern[Ty any](ty Ty, elems []Pattern[Ty]) Pattern[Ty] {
	return Pattern[Ty]{Kind: PatTuple, Ty: ty, TupleElems: elems}
}

func NewVariablePattern[Ty any](ty Ty, name symbol.Symbol) Pattern[Ty] {
	return Pattern[Ty]{Kind: PatVariable, Ty: ty, VarName: name}
}

func NewWildcardPattern[Ty any](ty Ty) Pattern[Ty] {
	return Pattern[Ty]{Kind: PatWildcard, Ty: ty}
}

// Binds returns the ordered list of (name, type) pairs this pattern brings
// into scope. Constant/Char/Wildcard patterns bind nothing; Variable binds
// itself; Constructor binds whatever its argument (recursively) binds;
// Tuple binds the concatenation of its elements' binds, left to right.
func (p Pattern[Ty]) Binds() []Bind[Ty] {
	switch p.Kind {
	case PatConstant, PatChar, PatWildcard:
		return nil
	case PatVariable:
		return []Bind[Ty]{{Name: p.VarName, Ty: p.Ty}}
	case PatConstructor:
		if p.CtorArg == nil {
			return nil
		}
		return p.CtorArg.Binds()
	case PatTuple:
		var out []Bind[Ty]
		for _, e := range p.TupleElems {
			out = append(out, e.Binds()...)
		}
		return out
	}
	return nil
}

func (p Pattern[Ty]) String() string {
	switch p.Kind {
	case PatConstant:
		return fmt.Sprintf("%d", p.ConstantValue)
	case PatChar:
		return fmt.Sprintf("%q", rune(p.CharValue))
	case PatConstructor:
		if p.CtorArg == nil {
			return p.CtorName.String()
		}
		return fmt.Sprintf("%s %s", p.CtorName, p.CtorArg)
	case PatTuple:
		parts := make([]string, len(p.TupleElems))
		for i, e := range p.TupleElems {
			parts[i] = e.String()
		}
		return fmt.Sprintf("(%s)", strings.Join(parts, ", "))
	case PatVariable:
		return p.VarName.String()
	case PatWildcard:
		return "_"
	}
	return "<invalid pattern>"
}
