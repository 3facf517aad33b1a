package core

import (
	"fmt"

	"github.com/webml-go/mlcore/internal/symbol"
)

// DeclKind tags the three top-level statement forms.
type DeclKind int

const (
	DeclDatatype DeclKind = iota
	DeclVal
	DeclFun
)

// CtorDef is one (constructor, optional payload type) entry in a datatype
// declaration.
type CtorDef struct {
	Name    symbol.Symbol
	Payload *Type // nil if the constructor is nullary
}

// Declaration is a top-level (or let-bound) statement, parameterized by the
// type-slot phase Ty.
type Declaration[Ty any] struct {
	Kind DeclKind

	// DeclDatatype
	TypeName     symbol.Symbol
	Constructors []CtorDef

	// DeclVal
	Rec     bool
	Pattern Pattern[Ty]
	Expr    Expr[Ty]

	// DeclFun: sugar for Val{rec=true, pattern=Variable(name), expr=curried
	// lambda}, retained distinctly until AST2HIR desugars it.
	FunName   symbol.Symbol
	FunParams []Pattern[Ty]
	FunExpr   Expr[Ty]
}

func NewDatatypeDecl[Ty any](name symbol.Symbol, ctors []CtorDef) Declaration[Ty] {
	return Declaration[Ty]{Kind: DeclDatatype, TypeName: name, Constructors: ctors}
}

func NewValDecl[Ty any](rec bool, pattern Pattern[Ty], expr Expr[Ty]) Declaration[Ty] {
	return Declaration[Ty]{Kind: DeclVal, Rec: rec, Pattern: pattern, Expr: expr}
}

func NewFunDecl[Ty any](name symbol.Symbol, params []Pattern[Ty], expr Expr[Ty]) Declaration[Ty] {
	return Declaration[Ty]{Kind: DeclFun, FunName: name, FunParams: params, FunExpr: expr}
}

func (d Declaration[Ty]) String() string {
	switch d.Kind {
	case DeclDatatype:
		return fmt.Sprintf("datatype %s", d.TypeName)
	case DeclVal:
		if d.Rec {
			return fmt.Sprintf("val rec %s = %s", d.Pattern, d.Expr)
		}
		return fmt.Sprintf("val %s = %s", d.Pattern, d.Expr)
	case DeclFun:
		return fmt.Sprintf("fun %s %v = %s", d.FunName, d.FunParams, d.FunExpr)
	}
	return "<invalid declaration>"
}

// Program is a whole Core tree: a list of top-level declarations.
type Program[Ty any] struct {
	Decls []Declaration[Ty]
}

// Unit is the type-slot inhabitant used before any type has been assigned.
type Unit struct{}

// UntypedExpr / UntypedPattern / UntypedProgram are the pre-inference tree,
// produced by the (external) parser.
type UntypedExpr = Expr[Unit]
type UntypedPattern = Pattern[Unit]
type UntypedDeclaration = Declaration[Unit]
type UntypedProgram = Program[Unit]

// TypedExpr / TypedPattern / TypedProgram are the post-inference, fully
// reified tree: the input to AST2HIR.
type TypedExpr = Expr[Type]
type TypedPattern = Pattern[Type]
type TypedDeclaration = Declaration[Type]
type TypedProgram = Program[Type]
