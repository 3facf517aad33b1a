package hir

import (
	"github.com/webml-go/mlcore/internal/core"
	"github.com/webml-go/mlcore/internal/errors"
	"github.com/webml-go/mlcore/internal/symbol"
	"github.com/webml-go/mlcore/internal/symtab"
)

// AST2HIR lowers the fully-typed Core tree into the initial HIR shape:
// Datatype declarations are dropped (their
// information already lives in syms), the Fun shorthand is desugared into
// a recursive Val binding a right-nested Lambda chain, constructor
// references gain their datatype's discriminant index, and every other
// node form carries over unchanged.
func AST2HIR(syms *symtab.Table, prog core.TypedProgram) Program {
	var decls []Declaration
	for _, d := range prog.Decls {
		if d.Kind == core.DeclDatatype {
			continue
		}
		decls = append(decls, lowerDecl(syms, d))
	}
	return Program{Decls: decls}
}

func lowerDecl(syms *symtab.Table, d core.TypedDeclaration) Declaration {
	switch d.Kind {
	case core.DeclVal:
		return Declaration{Rec: d.Rec, Pattern: lowerPattern(d.Pattern), Expr: lowerExpr(syms, d.Expr)}
	case core.DeclFun:
		body := lowerExpr(syms, d.FunExpr)
		for i := len(d.FunParams) - 1; i >= 0; i-- {
			param := d.FunParams[i]
			paramTy := param.Ty
			fnTy := core.TFun(paramTy, body.Ty)
			inner := body
			lambda := NewLambda(fnTy, paramSymbol(param), &inner)
			body = lambda
		}
		return Declaration{
			Rec:     true,
			Pattern: core.NewVariablePattern(body.Ty, d.FunName),
			Expr:    body,
		}
	}
	errors.InternalError("unreachable declaration kind in AST2HIR")
	return Declaration{}
}

// paramSymbol extracts the single variable a Fun-shorthand parameter
// pattern binds. The surface grammar restricts Fun params to plain
// variables; a pattern that binds anything other than exactly one
// variable here indicates a bug upstream of this pass.
func paramSymbol(p core.TypedPattern) symbol.Symbol {
	binds := p.Binds()
	if len(binds) != 1 || p.Kind != core.PatVariable {
		errors.InternalError("Fun parameter pattern must be a single variable")
	}
	return binds[0].Name
}

func lowerPattern(p core.TypedPattern) Pattern {
	out := Pattern{Kind: p.Kind, Ty: p.Ty, ConstantValue: p.ConstantValue, CharValue: p.CharValue, CtorName: p.CtorName, VarName: p.VarName}
	if p.CtorArg != nil {
		mapped := lowerPattern(*p.CtorArg)
		out.CtorArg = &mapped
	}
	if p.TupleElems != nil {
		out.TupleElems = make([]Pattern, len(p.TupleElems))
		for i, e := range p.TupleElems {
			out.TupleElems[i] = lowerPattern(e)
		}
	}
	return out
}

func lowerExpr(syms *symtab.Table, e core.TypedExpr) Expr {
	switch e.Kind {
	case core.ExprBinds:
		binds := make([]Declaration, len(e.Binds))
		for i, d := range e.Binds {
			binds[i] = lowerDecl(syms, d)
		}
		ret := lowerExpr(syms, *e.Ret)
		return NewBinds(e.Ty, binds, &ret)

	case core.ExprBuiltinCall:
		args := lowerExprList(syms, e.Args)
		return NewBuiltinCall(e.Ty, e.BIFOp, args)

	case core.ExprExternCall:
		args := lowerExprList(syms, e.Args)
		return NewExternCall(e.Ty, e.ExternModule, e.ExternFun, args)

	case core.ExprFn:
		body := lowerExpr(syms, *e.Body)
		return NewLambda(e.Ty, e.Param, &body)

	case core.ExprApp:
		fun := lowerExpr(syms, *e.Fun)
		arg := lowerExpr(syms, *e.Arg)
		return NewApp(e.Ty, &fun, &arg)

	case core.ExprCase:
		cond := lowerExpr(syms, *e.Cond)
		clauses := make([]CaseClause, len(e.Clauses))
		for i, c := range e.Clauses {
			clauses[i] = CaseClause{Pattern: lowerPattern(c.Pattern), Branch: lowerExpr(syms, c.Branch)}
		}
		return NewCase(e.Ty, &cond, clauses)

	case core.ExprTuple:
		return NewTuple(e.Ty, lowerExprList(syms, e.TupleElems))

	case core.ExprConstructor:
		var arg *Expr
		if e.CtorArg != nil {
			lowered := lowerExpr(syms, *e.CtorArg)
			arg = &lowered
		}
		return NewConstructor(e.Ty, e.CtorName, arg, discriminantOf(syms, e.CtorName))

	case core.ExprSymbol:
		return NewSym(e.Ty, e.SymName)

	case core.ExprLiteral:
		return NewLit(e.Ty, e.LitValue)
	}
	errors.InternalError("unreachable expression kind in AST2HIR")
	return Expr{}
}

func lowerExprList(syms *symtab.Table, in []core.TypedExpr) []Expr {
	if in == nil {
		return nil
	}
	out := make([]Expr, len(in))
	for i, e := range in {
		out[i] = lowerExpr(syms, e)
	}
	return out
}

func discriminantOf(syms *symtab.Table, ctor symbol.Symbol) int {
	dt, ok := syms.GetDatatypeOfConstructor(ctor)
	if !ok {
		errors.InternalError("constructor not found in symbol table during AST2HIR")
	}
	ti, ok := syms.GetType(dt)
	if !ok {
		errors.InternalError("datatype not found in symbol table during AST2HIR")
	}
	for i, c := range ti.Constructors {
		if c.Name == ctor {
			return i
		}
	}
	errors.InternalError("constructor missing from its own datatype's list")
	return -1
}
