package hir

import (
	"fmt"

	"github.com/webml-go/mlcore/internal/core"
	"github.com/webml-go/mlcore/internal/symbol"
)

// UnnestFunc lambda-lifts every Lambda node into a fresh top-level
// declaration plus a Fun{FuncName, Captures} reference at the original
// site. Captures are computed bottom-up (inner lambdas are lifted first,
// so an outer lambda's free-variable scan sees the inner lambda's own
// Captures rather than its whole body) and returned in deterministic
// collation order so capture lists are stable across runs. Lifted
// declarations are marked Fn; the pass leaves them untouched when run
// again, so its output is a fixed point.
func UnnestFunc(prog Program) Program {
	globals := make(map[symbol.Symbol]bool)
	for _, d := range prog.Decls {
		for _, b := range d.Pattern.Binds() {
			globals[b.Name] = true
		}
	}

	st := &unnester{globals: globals}
	out := make([]Declaration, len(prog.Decls))
	for i, d := range prog.Decls {
		if d.Fn {
			// Already a lifted definition; its body contains no Lambdas.
			out[i] = d
			continue
		}
		out[i] = Declaration{Rec: d.Rec, Pattern: d.Pattern, Expr: st.expr(d.Expr, map[symbol.Symbol]bool{})}
	}
	out = append(out, st.lifted...)
	return Program{Decls: out}
}

type unnester struct {
	globals map[symbol.Symbol]bool
	lifted  []Declaration
	counter int
}

func (st *unnester) expr(e Expr, bound map[symbol.Symbol]bool) Expr {
	switch e.Kind {
	case Lambda:
		inner := extend(bound, e.Param)
		body := st.expr(*e.Body, inner)

		free := make(map[symbol.Symbol]bool)
		collectFree(body, extend(map[symbol.Symbol]bool{}, e.Param), free)
		var captures []symbol.Symbol
		for s := range free {
			if !st.globals[s] {
				captures = append(captures, s)
			}
		}
		captures = symbol.SortByCollation(captures)

		st.counter++
		fname := symbol.Intern(fmt.Sprintf("%%fn%d", st.counter))
		st.lifted = append(st.lifted, Declaration{
			Rec:     true,
			Pattern: core.NewVariablePattern(e.Ty, fname),
			Expr:    NewLambda(e.Ty, e.Param, &body),
			Fn:      true,
		})
		return NewFun(e.Ty, fname, captures)

	case Binds:
		inner := cloneBound(bound)
		for _, d := range e.Binds {
			for _, b := range d.Pattern.Binds() {
				inner[b.Name] = true
			}
		}
		binds := make([]Declaration, len(e.Binds))
		for i, d := range e.Binds {
			binds[i] = Declaration{Rec: d.Rec, Pattern: d.Pattern, Expr: st.expr(d.Expr, inner), Fn: d.Fn}
		}
		ret := st.expr(*e.Ret, inner)
		return NewBinds(e.Ty, binds, &ret)

	case BuiltinCall, ExternCall:
		out := e
		out.Args = st.exprList(e.Args, bound)
		return out

	case App:
		fun := st.expr(*e.Fun, bound)
		arg := st.expr(*e.Arg, bound)
		out := e
		out.Fun, out.Arg = &fun, &arg
		return out

	case Case:
		cond := st.expr(*e.Cond, bound)
		clauses := make([]CaseClause, len(e.Clauses))
		for i, c := range e.Clauses {
			cb := cloneBound(bound)
			for _, b := range c.Pattern.Binds() {
				cb[b.Name] = true
			}
			clauses[i] = CaseClause{Pattern: c.Pattern, Branch: st.expr(c.Branch, cb)}
		}
		out := e
		out.Cond = &cond
		out.Clauses = clauses
		return out

	case Tuple:
		out := e
		out.TupleElems = st.exprList(e.TupleElems, bound)
		return out

	case Constructor:
		if e.CtorArg == nil {
			return e
		}
		arg := st.expr(*e.CtorArg, bound)
		out := e
		out.CtorArg = &arg
		return out

	case Proj:
		tuple := st.expr(*e.ProjTuple, bound)
		out := e
		out.ProjTuple = &tuple
		return out
	}
	return e
}

func (st *unnester) exprList(in []Expr, bound map[symbol.Symbol]bool) []Expr {
	if in == nil {
		return nil
	}
	out := make([]Expr, len(in))
	for i, e := range in {
		out[i] = st.expr(e, bound)
	}
	return out
}

// collectFree walks e (which has already had its nested Lambdas lifted to
// Fun nodes) and records every Sym reference and every Fun.Captures entry
// not present in bound.
func collectFree(e Expr, bound map[symbol.Symbol]bool, free map[symbol.Symbol]bool) {
	switch e.Kind {
	case Sym:
		if !bound[e.SymName] {
			free[e.SymName] = true
		}
	case Fun:
		for _, c := range e.Captures {
			if !bound[c] {
				free[c] = true
			}
		}
	case Closure:
		for _, env := range e.ClosureEnvs {
			collectFree(env, bound, free)
		}
	case Binds:
		inner := cloneBound(bound)
		for _, d := range e.Binds {
			for _, b := range d.Pattern.Binds() {
				inner[b.Name] = true
			}
		}
		for _, d := range e.Binds {
			collectFree(d.Expr, inner, free)
		}
		collectFree(*e.Ret, inner, free)
	case BuiltinCall, ExternCall:
		for _, a := range e.Args {
			collectFree(a, bound, free)
		}
	case Lambda:
		collectFree(*e.Body, extend(bound, e.Param), free)
	case App:
		collectFree(*e.Fun, bound, free)
		collectFree(*e.Arg, bound, free)
	case Case:
		collectFree(*e.Cond, bound, free)
		for _, c := range e.Clauses {
			cb := cloneBound(bound)
			for _, b := range c.Pattern.Binds() {
				cb[b.Name] = true
			}
			collectFree(c.Branch, cb, free)
		}
	case Tuple:
		for _, el := range e.TupleElems {
			collectFree(el, bound, free)
		}
	case Constructor:
		if e.CtorArg != nil {
			collectFree(*e.CtorArg, bound, free)
		}
	case Proj:
		collectFree(*e.ProjTuple, bound, free)
	}
}

func extend(bound map[symbol.Symbol]bool, s symbol.Symbol) map[symbol.Symbol]bool {
	out := cloneBound(bound)
	out[s] = true
	return out
}

func cloneBound(bound map[symbol.Symbol]bool) map[symbol.Symbol]bool {
	out := make(map[symbol.Symbol]bool, len(bound))
	for k, v := range bound {
		out[k] = v
	}
	return out
}
