package hir

import (
	"fmt"

	"github.com/webml-go/mlcore/internal/core"
	"github.com/webml-go/mlcore/internal/symbol"
)

// freshSource hands out deterministic, unique temporary names for one
// FlatExpr run. It is local to each call so the pass stays pure: running it
// twice on the same input produces the same temporary names both times.
type freshSource struct{ n int }

func (f *freshSource) next() symbol.Symbol {
	f.n++
	return symbol.Intern(fmt.Sprintf("%%flat%d", f.n))
}

// FlatExpr hoists every non-atomic operand (anything other than a bare
// Sym or Lit) of a BuiltinCall, ExternCall, App, Tuple, Constructor, or
// Case scrutinee into a fresh let-binding immediately enclosing the
// expression that needs it. After this pass, every such operand position
// holds only a Sym or a Lit.
//
// It also eliminates compound binding patterns: every Declaration whose
// Pattern is not a bare Variable (a Tuple or Constructor pattern reaching
// a val/fun binding) is rewritten into a fresh-named binding of the
// right-hand side plus a chain of Proj/Case extractions, so that every
// Declaration downstream of this pass binds a single name.
func FlatExpr(prog Program) Program {
	fl := &freshSource{}
	var out []Declaration
	for _, d := range prog.Decls {
		out = append(out, flattenDecl(d, fl)...)
	}
	return Program{Decls: out}
}

// flattenDecl atomizes d's expression and, if d's pattern is compound,
// splits d into a fresh-named binding of the expression followed by the
// flat-name bindings destructure produces.
func flattenDecl(d Declaration, fl *freshSource) []Declaration {
	expr := flatExprExpr(d.Expr, fl)
	if d.Pattern.Kind == core.PatVariable {
		return []Declaration{{Rec: d.Rec, Pattern: d.Pattern, Expr: expr, Fn: d.Fn}}
	}
	name := fl.next()
	head := Declaration{Rec: d.Rec, Pattern: patternVar(expr.Ty, name), Expr: expr}
	return append([]Declaration{head}, destructure(d.Pattern, NewSym(expr.Ty, name), fl)...)
}

// destructure lowers pat against the already-atomic value expr into a flat
// list of Variable-pattern Declarations covering every name pat.Binds()
// promises, introducing Proj for tuple elements and a single-clause Case
// for a constructor's payload.
func destructure(pat Pattern, value Expr, fl *freshSource) []Declaration {
	switch pat.Kind {
	case core.PatVariable:
		return []Declaration{{Pattern: pat, Expr: value}}

	case core.PatWildcard, core.PatConstant, core.PatChar:
		// Binds nothing, but value must still be evaluated in place for
		// its side effects/ordering; keep it under a discarded fresh name.
		return []Declaration{{Pattern: patternVar(value.Ty, fl.next()), Expr: value}}

	case core.PatTuple:
		var out []Declaration
		for i, sub := range pat.TupleElems {
			proj := NewProj(sub.Ty, &value, i)
			out = append(out, destructure(sub, proj, fl)...)
		}
		return out

	case core.PatConstructor:
		if pat.CtorArg == nil {
			return []Declaration{{Pattern: patternVar(value.Ty, fl.next()), Expr: value}}
		}
		argName := fl.next()
		argPat := core.NewVariablePattern(pat.CtorArg.Ty, argName)
		ctorPat := core.NewConstructorPattern(pat.Ty, pat.CtorName, &argPat)
		caseExpr := NewCase(pat.CtorArg.Ty, &value, []CaseClause{
			{Pattern: ctorPat, Branch: NewSym(pat.CtorArg.Ty, argName)},
		})
		return destructure(*pat.CtorArg, caseExpr, fl)
	}
	return nil
}

// flatExprExpr rewrites e itself (e may be compound) without atomizing it;
// atomizing only happens for e's children that sit in an atom-only slot.
func flatExprExpr(e Expr, fl *freshSource) Expr {
	switch e.Kind {
	case Binds:
		var binds []Declaration
		for _, d := range e.Binds {
			binds = append(binds, flattenDecl(d, fl)...)
		}
		ret := flatExprExpr(*e.Ret, fl)
		return NewBinds(e.Ty, binds, &ret)

	case BuiltinCall, ExternCall:
		var hoisted []Declaration
		args := make([]Expr, len(e.Args))
		for i, a := range e.Args {
			args[i] = atomize(a, fl, &hoisted)
		}
		out := e
		out.Args = args
		return wrap(hoisted, out)

	case Lambda:
		body := flatExprExpr(*e.Body, fl)
		out := e
		out.Body = &body
		return out

	case App:
		var hoisted []Declaration
		fun := atomize(*e.Fun, fl, &hoisted)
		arg := atomize(*e.Arg, fl, &hoisted)
		out := e
		out.Fun, out.Arg = &fun, &arg
		return wrap(hoisted, out)

	case Case:
		var hoisted []Declaration
		cond := atomize(*e.Cond, fl, &hoisted)
		clauses := make([]CaseClause, len(e.Clauses))
		for i, c := range e.Clauses {
			clauses[i] = CaseClause{Pattern: c.Pattern, Branch: flatExprExpr(c.Branch, fl)}
		}
		out := e
		out.Cond = &cond
		out.Clauses = clauses
		return wrap(hoisted, out)

	case Tuple:
		var hoisted []Declaration
		elems := make([]Expr, len(e.TupleElems))
		for i, el := range e.TupleElems {
			elems[i] = atomize(el, fl, &hoisted)
		}
		out := e
		out.TupleElems = elems
		return wrap(hoisted, out)

	case Constructor:
		if e.CtorArg == nil {
			return e
		}
		var hoisted []Declaration
		arg := atomize(*e.CtorArg, fl, &hoisted)
		out := e
		out.CtorArg = &arg
		return wrap(hoisted, out)

	case Proj:
		var hoisted []Declaration
		tuple := atomize(*e.ProjTuple, fl, &hoisted)
		out := e
		out.ProjTuple = &tuple
		return wrap(hoisted, out)
	}
	return e
}

// atomize reduces e to a Sym or Lit, appending whatever bindings are
// necessary to *hoisted to preserve e's value and evaluation order.
func atomize(e Expr, fl *freshSource, hoisted *[]Declaration) Expr {
	flat := flatExprExpr(e, fl)
	if flat.Kind == Sym || flat.Kind == Lit {
		return flat
	}
	name := fl.next()
	*hoisted = append(*hoisted, Declaration{
		Pattern: patternVar(flat.Type(), name),
		Expr:    flat,
	})
	return NewSym(flat.Type(), name)
}

// wrap threads hoisted let-bindings around e, returning e unchanged if
// nothing was hoisted.
func wrap(hoisted []Declaration, e Expr) Expr {
	if len(hoisted) == 0 {
		return e
	}
	return NewBinds(e.Ty, hoisted, &e)
}

func patternVar(ty Ty, name symbol.Symbol) Pattern {
	return core.NewVariablePattern(ty, name)
}
