// Package hir implements the five-stage lowering pipeline that turns the
// fully-typed Core tree into closure-converted HIR: AST2HIR, FlatLet,
// FlatExpr, UnnestFunc, ForceClosure. Each stage is a pure function over
// its input tree.
package hir

import (
	"fmt"
	"strings"

	"github.com/webml-go/mlcore/internal/core"
	"github.com/webml-go/mlcore/internal/symbol"
)

// Ty is the HIR-side type slot. Unlike the Core tree, HIR carries a single,
// fully-reified type throughout every stage; nothing here is generic over
// phase the way core.Expr[Ty] is.
type Ty = core.Type

// Pattern reuses the Core pattern grammar: lowering never introduces new
// pattern forms, only new expression forms (Lambda, Fun, Closure, Proj).
type Pattern = core.Pattern[Ty]

// ExprKind tags the HIR expression forms.
type ExprKind int

const (
	Binds ExprKind = iota
	BuiltinCall
	ExternCall
	Lambda       // pre-UnnestFunc: an anonymous, possibly-capturing function
	Fun          // post-UnnestFunc, pre-ForceClosure: a lifted top-level function plus its captured names
	Closure      // post-ForceClosure: an explicit closure record
	App
	Case
	Tuple
	Proj         // tuple projection, introduced by FlatExpr when hoisting pattern components
	Constructor
	Sym
	Lit
)

// CaseClause pairs a pattern with its branch expression.
type CaseClause struct {
	Pattern Pattern
	Branch  Expr
}

// Expr is a node of the HIR tree. Exactly the fields relevant to Kind are
// populated.
type Expr struct {
	Kind ExprKind
	Ty   Ty

	// Binds
	Binds []Declaration
	Ret   *Expr

	// BuiltinCall / ExternCall
	BIFOp        core.BIF
	Args         []Expr
	ExternModule string
	ExternFun    string

	// Lambda
	Param symbol.Symbol
	Body  *Expr

	// Fun: a reference to a lifted top-level function, plus the free
	// variables it closes over, in deterministic capture order.
	FuncName symbol.Symbol
	Captures []symbol.Symbol

	// Closure: the captures materialized as an explicit environment of
	// expressions (always Sym references to the capturing scope's
	// bindings), parallel to the lifted function's Captures order.
	ClosureEnvs     []Expr
	ClosureParamTy  Ty
	ClosureBodyTy   Ty
	ClosureFuncName symbol.Symbol

	// App
	Fun *Expr
	Arg *Expr

	// Case
	Cond    *Expr
	Clauses []CaseClause

	// Tuple
	TupleElems []Expr

	// Proj
	ProjTuple *Expr
	ProjIndex int

	// Constructor
	CtorName     symbol.Symbol
	CtorArg      *Expr
	Discriminant int

	// Sym
	SymName symbol.Symbol

	// Lit
	LitValue core.Literal
}

// Declaration is a single (possibly recursive) binding in a Binds block or
// at the top level. Datatype declarations and the Fun shorthand are both
// gone by this point: AST2HIR desugars Fun into a recursive Val binding a
// Lambda chain, and Datatype information already lives in the symbol table.
type Declaration struct {
	Rec     bool
	Pattern Pattern
	Expr    Expr

	// Fn marks a declaration UnnestFunc emitted as a lifted function
	// definition. Its Expr is the function's Lambda itself; re-running
	// UnnestFunc leaves such declarations in place rather than lifting the
	// Lambda again.
	Fn bool
}

// Program is a whole lowered unit: a flat list of top-level declarations.
// UnnestFunc appends one Declaration per lifted function to this list.
type Program struct {
	Decls []Declaration
}

func NewBinds(ty Ty, binds []Declaration, ret *Expr) Expr {
	return Expr{Kind: Binds, Ty: ty, Binds: binds, Ret: ret}
}

func NewBuiltinCall(ty Ty, op core.BIF, args []Expr) Expr {
	return Expr{Kind: BuiltinCall, Ty: ty, BIFOp: op, Args: args}
}

func NewExternCall(ty Ty, module, fun string, args []Expr) Expr {
	return Expr{Kind: ExternCall, Ty: ty, ExternModule: module, ExternFun: fun, Args: args}
}

func NewLambda(ty Ty, param symbol.Symbol, body *Expr) Expr {
	return Expr{Kind: Lambda, Ty: ty, Param: param, Body: body}
}

func NewFun(ty Ty, name symbol.Symbol, captures []symbol.Symbol) Expr {
	return Expr{Kind: Fun, Ty: ty, FuncName: name, Captures: captures}
}

func NewClosure(ty Ty, name symbol.Symbol, paramTy, bodyTy Ty, envs []Expr) Expr {
	return Expr{Kind: Closure, Ty: ty, ClosureFuncName: name, ClosureParamTy: paramTy, ClosureBodyTy: bodyTy, ClosureEnvs: envs}
}

func NewApp(ty Ty, fun, arg *Expr) Expr {
	return Expr{Kind: App, Ty: ty, Fun: fun, Arg: arg}
}

func NewCase(ty Ty, cond *Expr, clauses []CaseClause) Expr {
	return Expr{Kind: Case, Ty: ty, Cond: cond, Clauses: clauses}
}

func NewTuple(ty Ty, elems []Expr) Expr {
	return Expr{Kind: Tuple, Ty: ty, TupleElems: elems}
}

func NewProj(ty Ty, tuple *Expr, index int) Expr {
	return Expr{Kind: Proj, Ty: ty, ProjTuple: tuple, ProjIndex: index}
}

func NewConstructor(ty Ty, name symbol.Symbol, arg *Expr, discriminant int) Expr {
	return Expr{Kind: Constructor, Ty: ty, CtorName: name, CtorArg: arg, Discriminant: discriminant}
}

func NewSym(ty Ty, name symbol.Symbol) Expr {
	return Expr{Kind: Sym, Ty: ty, SymName: name}
}

func NewLit(ty Ty, lit core.Literal) Expr {
	return Expr{Kind: Lit, Ty: ty, LitValue: lit}
}

// Type returns e's type. Every HIR node stores its type directly in Ty,
// including Fun and Closure, so Type is a plain field read. ForceClosure
// and FlatExpr's atomize read types through it; elsewhere the passes read
// Ty directly.
func (e Expr) Type() Ty {
	return e.Ty
}

func (e Expr) String() string {
	switch e.Kind {
	case Binds:
		parts := make([]string, len(e.Binds))
		for i, d := range e.Binds {
			parts[i] = d.String()
		}
		return fmt.Sprintf("let %s in %s", strings.Join(parts, "; "), e.Ret)
	case BuiltinCall:
		return fmt.Sprintf("(%s %s %s)", e.Args[0], e.BIFOp, e.Args[1])
	case ExternCall:
		return fmt.Sprintf("extern %s.%s(%v)", e.ExternModule, e.ExternFun, e.Args)
	case Lambda:
		return fmt.Sprintf("lambda %s => %s", e.Param, e.Body)
	case Fun:
		return fmt.Sprintf("fun<%s>%v", e.FuncName, e.Captures)
	case Closure:
		return fmt.Sprintf("closure<%s>%v", e.ClosureFuncName, e.ClosureEnvs)
	case App:
		return fmt.Sprintf("%s %s", e.Fun, e.Arg)
	case Case:
		parts := make([]string, len(e.Clauses))
		for i, c := range e.Clauses {
			parts[i] = fmt.Sprintf("%s => %s", c.Pattern, c.Branch)
		}
		return fmt.Sprintf("case %s of %s", e.Cond, strings.Join(parts, " | "))
	case Tuple:
		parts := make([]string, len(e.TupleElems))
		for i, elem := range e.TupleElems {
			parts[i] = elem.String()
		}
		return fmt.Sprintf("(%s)", strings.Join(parts, ", "))
	case Proj:
		return fmt.Sprintf("%s.%d", e.ProjTuple, e.ProjIndex)
	case Constructor:
		if e.CtorArg == nil {
			return e.CtorName.String()
		}
		return fmt.Sprintf("%s %s", e.CtorName, e.CtorArg)
	case Sym:
		return e.SymName.String()
	case Lit:
		return e.LitValue.String()
	}
	return "<invalid hir expr>"
}

func (d Declaration) String() string {
	if d.Rec {
		return fmt.Sprintf("val rec %s = %s", d.Pattern, d.Expr)
	}
	return fmt.Sprintf("val %s = %s", d.Pattern, d.Expr)
}

// MatchKey returns a stable discriminator for dispatching a Case on pat's
// shape: the constant value, the character code point, or the constructor
// name, depending on Kind. It is meaningless for Variable/Wildcard/Tuple,
// which never discriminate a match.
func MatchKey(pat Pattern) interface{} {
	switch pat.Kind {
	case core.PatConstant:
		return pat.ConstantValue
	case core.PatChar:
		return pat.CharValue
	case core.PatConstructor:
		return pat.CtorName
	}
	return nil
}

// IsIrrefutable reports whether pat matches every value of its type: a
// variable, a wildcard, or a tuple whose every element is irrefutable.
// Single-constructor datatypes are intentionally NOT treated as
// irrefutable, since datatype arity is not tracked locally.
func IsIrrefutable(pat Pattern) bool {
	switch pat.Kind {
	case core.PatVariable, core.PatWildcard:
		return true
	case core.PatTuple:
		for _, e := range pat.TupleElems {
			if !IsIrrefutable(e) {
				return false
			}
		}
		return true
	}
	return false
}
