package hir

import (
	"github.com/webml-go/mlcore/internal/errors"
	"github.com/webml-go/mlcore/internal/symbol"
)

// ForceClosure rewrites every Fun{FuncName, Captures} reference left by
// UnnestFunc into an explicit Closure record: the captured names are
// resolved, in their original
// order, to Sym expressions carrying their types from the enclosing scope,
// and the function's argument/result types are split out of its Ty.
func ForceClosure(prog Program) Program {
	env := make(map[symbol.Symbol]Ty)
	for _, d := range prog.Decls {
		for _, b := range d.Pattern.Binds() {
			env[b.Name] = b.Ty
		}
	}

	out := make([]Declaration, len(prog.Decls))
	for i, d := range prog.Decls {
		out[i] = Declaration{Rec: d.Rec, Pattern: d.Pattern, Expr: forceClosureExpr(d.Expr, cloneTyEnv(env)), Fn: d.Fn}
	}
	return Program{Decls: out}
}

func forceClosureExpr(e Expr, env map[symbol.Symbol]Ty) Expr {
	switch e.Kind {
	case Fun:
		envs := make([]Expr, len(e.Captures))
		for i, c := range e.Captures {
			ty, ok := env[c]
			if !ok {
				// A capture that no enclosing scope binds slipped past
				// UnnestFunc's bound tracking.
				errors.InternalError("captured variable has no binding in scope")
			}
			envs[i] = NewSym(ty, c)
		}
		paramTy, bodyTy := e.Type().Fun()
		return NewClosure(e.Type(), e.FuncName, paramTy, bodyTy, envs)

	case Binds:
		inner := cloneTyEnv(env)
		for _, d := range e.Binds {
			for _, b := range d.Pattern.Binds() {
				inner[b.Name] = b.Ty
			}
		}
		binds := make([]Declaration, len(e.Binds))
		for i, d := range e.Binds {
			binds[i] = Declaration{Rec: d.Rec, Pattern: d.Pattern, Expr: forceClosureExpr(d.Expr, inner), Fn: d.Fn}
		}
		ret := forceClosureExpr(*e.Ret, inner)
		return NewBinds(e.Ty, binds, &ret)

	case BuiltinCall, ExternCall:
		out := e
		out.Args = forceClosureExprList(e.Args, env)
		return out

	case Lambda:
		inner := cloneTyEnv(env)
		inner[e.Param] = paramTyOf(e)
		body := forceClosureExpr(*e.Body, inner)
		out := e
		out.Body = &body
		return out

	case App:
		fun := forceClosureExpr(*e.Fun, env)
		arg := forceClosureExpr(*e.Arg, env)
		out := e
		out.Fun, out.Arg = &fun, &arg
		return out

	case Case:
		cond := forceClosureExpr(*e.Cond, env)
		clauses := make([]CaseClause, len(e.Clauses))
		for i, c := range e.Clauses {
			cb := cloneTyEnv(env)
			for _, b := range c.Pattern.Binds() {
				cb[b.Name] = b.Ty
			}
			clauses[i] = CaseClause{Pattern: c.Pattern, Branch: forceClosureExpr(c.Branch, cb)}
		}
		out := e
		out.Cond = &cond
		out.Clauses = clauses
		return out

	case Tuple:
		out := e
		out.TupleElems = forceClosureExprList(e.TupleElems, env)
		return out

	case Constructor:
		if e.CtorArg == nil {
			return e
		}
		arg := forceClosureExpr(*e.CtorArg, env)
		out := e
		out.CtorArg = &arg
		return out

	case Proj:
		tuple := forceClosureExpr(*e.ProjTuple, env)
		out := e
		out.ProjTuple = &tuple
		return out
	}
	return e
}

// paramTyOf recovers a Lambda's parameter type from its own function type,
// since the Lambda node (unlike Fn in Core) does not carry the parameter
// type directly.
func paramTyOf(e Expr) Ty {
	arg, _ := e.Type().Fun()
	return arg
}

func forceClosureExprList(in []Expr, env map[symbol.Symbol]Ty) []Expr {
	if in == nil {
		return nil
	}
	out := make([]Expr, len(in))
	for i, e := range in {
		out[i] = forceClosureExpr(e, env)
	}
	return out
}

func cloneTyEnv(env map[symbol.Symbol]Ty) map[symbol.Symbol]Ty {
	out := make(map[symbol.Symbol]Ty, len(env))
	for k, v := range env {
		out[k] = v
	}
	return out
}
