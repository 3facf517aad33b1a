package core

import (
	"fmt"
	"strings"

	"github.com/webml-go/mlcore/internal/symbol"
)

// ExprKind tags the expression forms of the Core tree.
type ExprKind int

const (
	ExprBinds ExprKind = iota
	ExprBuiltinCall
	ExprExternCall
	ExprFn
	ExprApp
	ExprCase
	ExprTuple
	ExprConstructor
	ExprSymbol
	ExprLiteral
)

// CaseClause pairs a pattern with its branch expression.
type CaseClause[Ty any] struct {
	Pattern Pattern[Ty]
	Branch  Expr[Ty]
}

// Expr is a node of the Core tree, parameterized by the type-slot phase Ty.
// Ty = Unit before inference, unify.NodeID during inference, and Type once
// reified. Exactly the fields relevant to Kind are populated.
type Expr[Ty any] struct {
	Kind ExprKind
	Ty   Ty

	// ExprBinds
	Binds []Declaration[Ty]
	Ret   *Expr[Ty]

	// ExprBuiltinCall
	BIFOp BIF
	Args  []Expr[Ty] // also reused by ExprExternCall

	// ExprExternCall
	ExternModule string
	ExternFun    string
	ExternArgTy  []Type // declared, fixed argument types
	ExternRetTy  Type   // declared, fixed return type

	// ExprFn
	Param Symbol
	Body  *Expr[Ty]

	// ExprApp
	Fun *Expr[Ty]
	Arg *Expr[Ty]

	// ExprCase
	Cond    *Expr[Ty]
	Clauses []CaseClause[Ty]

	// ExprTuple
	TupleElems []Expr[Ty]

	// ExprConstructor
	CtorName symbol.Symbol
	CtorArg  *Expr[Ty] // nil if nullary

	// ExprSymbol
	SymName symbol.Symbol

	// ExprLiteral
	LitValue Literal
}

// Symbol is an alias kept local to this package for readability in field
// declarations above; it is exactly symbol.Symbol.
type Symbol = symbol.Symbol

func NewBinds[Ty any](ty Ty, binds []Declaration[Ty], ret *Expr[Ty]) Expr[Ty] {
	return Expr[Ty]{Kind: ExprBinds, Ty: ty, Binds: binds, Ret: ret}
}

func NewBuiltinCall[Ty any](ty Ty, op BIF, args []Expr[Ty]) Expr[Ty] {
	return Expr[Ty]{Kind: ExprBuiltinCall, Ty: ty, BIFOp: op, Args: args}
}

func NewExternCall[Ty any](ty Ty, module, fun string, args []Expr[Ty], argTy []Type, retTy Type) Expr[Ty] {
	return Expr[Ty]{Kind: ExprExternCall, Ty: ty, ExternModule: module, ExternFun: fun, Args: args, ExternArgTy: argTy, ExternRetTy: retTy}
}

func NewFn[Ty any](ty Ty, param symbol.Symbol, body *Expr[Ty]) Expr[Ty] {
	return Expr[Ty]{Kind: ExprFn, Ty: ty, Param: param, Body: body}
}

func NewApp[Ty any](ty Ty, fun, arg *Expr[Ty]) Expr[Ty] {
	return Expr[Ty]{Kind: ExprApp, Ty: ty, Fun: fun, Arg: arg}
}

func NewCase[Ty any](ty Ty, cond *Expr[Ty], clauses []CaseClause[Ty]) Expr[Ty] {
	return Expr[Ty]{Kind: ExprCase, Ty: ty, Cond: cond, Clauses: clauses}
}

func NewTuple[Ty any](ty Ty, elems []Expr[Ty]) Expr[Ty] {
	return Expr[Ty]{Kind: ExprTuple, Ty: ty, TupleElems: elems}
}

func NewConstructor[Ty any](ty Ty, name symbol.Symbol, arg *Expr[Ty]) Expr[Ty] {
	return Expr[Ty]{Kind: ExprConstructor, Ty: ty, CtorName: name, CtorArg: arg}
}

func NewSymbolExpr[Ty any](ty Ty, name symbol.Symbol) Expr[Ty] {
	return Expr[Ty]{Kind: ExprSymbol, Ty: ty, SymName: name}
}

func NewLiteralExpr[Ty any](ty Ty, lit Literal) Expr[Ty] {
	return Expr[Ty]{Kind: ExprLiteral, Ty: ty, LitValue: lit}
}

func (e Expr[Ty]) String() string {
	switch e.Kind {
	case ExprBinds:
		var parts []string
		for _, b := range e.Binds {
			parts = append(parts, b.String())
		}
		return fmt.Sprintf("let %s in %s", strings.Join(parts, "; "), e.Ret)
	case ExprBuiltinCall:
		return fmt.Sprintf("(%s %s %s)", e.Args[0], e.BIFOp, e.Args[1])
	case ExprExternCall:
		return fmt.Sprintf("extern %s.%s(%v)", e.ExternModule, e.ExternFun, e.Args)
	case ExprFn:
		return fmt.Sprintf("fn %s => %s", e.Param, e.Body)
	case ExprApp:
		return fmt.Sprintf("%s %s", e.Fun, e.Arg)
	case ExprCase:
		var parts []string
		for _, c := range e.Clauses {
			parts = append(parts, fmt.Sprintf("%s => %s", c.Pattern, c.Branch))
		}
		return fmt.Sprintf("case %s of %s", e.Cond, strings.Join(parts, " | "))
	case ExprTuple:
		parts := make([]string, len(e.TupleElems))
		for i, elem := range e.TupleElems {
			parts[i] = elem.String()
		}
		return fmt.Sprintf("(%s)", strings.Join(parts, ", "))
	case ExprConstructor:
		if e.CtorArg == nil {
			return e.CtorName.String()
		}
		return fmt.Sprintf("%s %s", e.CtorName, e.CtorArg)
	case ExprSymbol:
		return e.SymName.String()
	case ExprLiteral:
		return e.LitValue.String()
	}
	return "<invalid expr>"
}
