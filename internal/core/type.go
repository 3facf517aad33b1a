// Package core holds the data model shared by every phase of the compiler:
// the surface Type grammar, the literal/primitive vocabulary, and the Core
// tree itself (Expr[Ty], Pattern[Ty], Declaration[Ty]), generic over the
// type-slot phase Ty (see internal/infer for the three instantiations).
package core

import (
	"fmt"
	"strings"

	"github.com/webml-go/mlcore/internal/symbol"
)

// Type is the surface type grammar: a closed sum of type variable, the
// three ground scalar types, function, tuple, and named datatype. It is
// the Ty used once inference has reified every slot.
type Type struct {
	kind   typeKind
	varID  uint64
	fun    *funType
	tuple  []Type
	dtName symbol.Symbol
}

type typeKind int

const (
	TyVariable typeKind = iota
	TyInt
	TyReal
	TyChar
	TyFun
	TyTuple
	TyDatatype
)

type funType struct {
	Arg Type
	Ret Type
}

// TVar constructs a type-variable type.
func TVar(id uint64) Type { return Type{kind: TyVariable, varID: id} }

// TInt, TReal, TChar are the cached ground scalar types.
var (
	TInt  = Type{kind: TyInt}
	TReal = Type{kind: TyReal}
	TChar = Type{kind: TyChar}
)

// TFun constructs a function type arg -> ret.
func TFun(arg, ret Type) Type {
	return Type{kind: TyFun, fun: &funType{Arg: arg, Ret: ret}}
}

// TTuple constructs an ordered tuple type.
func TTuple(elems ...Type) Type {
	return Type{kind: TyTuple, tuple: elems}
}

// TDatatype constructs a named datatype reference.
func TDatatype(name symbol.Symbol) Type {
	return Type{kind: TyDatatype, dtName: name}
}

func (t Type) Kind() typeKind { return t.kind }

// IsVariable reports whether t is a residual, unconstrained type variable.
func (t Type) IsVariable() bool { return t.kind == TyVariable }

// VarID returns the variable id; only meaningful if IsVariable() is true.
func (t Type) VarID() uint64 { return t.varID }

// Fun returns the argument and return types; only meaningful for TyFun.
func (t Type) Fun() (arg, ret Type) { return t.fun.Arg, t.fun.Ret }

// Tuple returns the element types; only meaningful for TyTuple.
func (t Type) Tuple() []Type { return t.tuple }

// DatatypeName returns the datatype's symbol; only meaningful for TyDatatype.
func (t Type) DatatypeName() symbol.Symbol { return t.dtName }

// Equals reports structural equality between two surface types.
func (t Type) Equals(o Type) bool {
	if t.kind != o.kind {
		return false
	}
	switch t.kind {
	case TyVariable:
		return t.varID == o.varID
	case TyInt, TyReal, TyChar:
		return true
	case TyFun:
		return t.fun.Arg.Equals(o.fun.Arg) && t.fun.Ret.Equals(o.fun.Ret)
	case TyTuple:
		if len(t.tuple) != len(o.tuple) {
			return false
		}
		for i := range t.tuple {
			if !t.tuple[i].Equals(o.tuple[i]) {
				return false
			}
		}
		return true
	case TyDatatype:
		return t.dtName == o.dtName
	}
	return false
}

func (t Type) String() string {
	switch t.kind {
	case TyVariable:
		return fmt.Sprintf("'t%d", t.varID)
	case TyInt:
		return "Int"
	case TyReal:
		return "Real"
	case TyChar:
		return "Char"
	case TyFun:
		return fmt.Sprintf("(%s -> %s)", t.fun.Arg, t.fun.Ret)
	case TyTuple:
		parts := make([]string, len(t.tuple))
		for i, e := range t.tuple {
			parts[i] = e.String()
		}
		return fmt.Sprintf("(%s)", strings.Join(parts, " * "))
	case TyDatatype:
		return t.dtName.String()
	}
	return "<invalid type>"
}
