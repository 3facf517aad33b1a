package hir

// FlatLet flattens nested let-blocks into a single, non-nested chain: a
// Binds whose trailing expression is itself a Binds is merged into one
// flat block, and whenever a binding's own
// right-hand side is a Binds block its inner bindings are spliced into the
// outer block ahead of it with its Ret becoming the binding's new
// expression. The pass repeats until no Binds remains directly under
// another, then recurses into every subexpression.
func FlatLet(prog Program) Program {
	out := make([]Declaration, len(prog.Decls))
	for i, d := range prog.Decls {
		out[i] = flatLetDecl(d)
	}
	return Program{Decls: out}
}

func flatLetDecl(d Declaration) Declaration {
	return Declaration{Rec: d.Rec, Pattern: d.Pattern, Expr: flatLetExpr(d.Expr), Fn: d.Fn}
}

func flatLetExpr(e Expr) Expr {
	switch e.Kind {
	case Binds:
		var flat []Declaration
		for _, d := range e.Binds {
			flat = append(flat, splice(flatLetDecl(d))...)
		}
		ret := flatLetExpr(*e.Ret)
		// let A in let B in e => let A; B in e
		for ret.Kind == Binds {
			flat = append(flat, ret.Binds...)
			ret = *ret.Ret
		}
		if len(flat) == 0 {
			return ret
		}
		return NewBinds(e.Ty, flat, &ret)

	case BuiltinCall, ExternCall:
		return withArgs(e, flatLetExprList(e.Args))

	case Lambda:
		body := flatLetExpr(*e.Body)
		out := e
		out.Body = &body
		return out

	case App:
		fun := flatLetExpr(*e.Fun)
		arg := flatLetExpr(*e.Arg)
		out := e
		out.Fun, out.Arg = &fun, &arg
		return out

	case Case:
		cond := flatLetExpr(*e.Cond)
		clauses := make([]CaseClause, len(e.Clauses))
		for i, c := range e.Clauses {
			clauses[i] = CaseClause{Pattern: c.Pattern, Branch: flatLetExpr(c.Branch)}
		}
		out := e
		out.Cond = &cond
		out.Clauses = clauses
		return out

	case Tuple:
		out := e
		out.TupleElems = flatLetExprList(e.TupleElems)
		return out

	case Constructor:
		if e.CtorArg == nil {
			return e
		}
		arg := flatLetExpr(*e.CtorArg)
		out := e
		out.CtorArg = &arg
		return out

	case Proj:
		tuple := flatLetExpr(*e.ProjTuple)
		out := e
		out.ProjTuple = &tuple
		return out
	}
	return e
}

func flatLetExprList(in []Expr) []Expr {
	if in == nil {
		return nil
	}
	out := make([]Expr, len(in))
	for i, e := range in {
		out[i] = flatLetExpr(e)
	}
	return out
}

func withArgs(e Expr, args []Expr) Expr {
	out := e
	out.Args = args
	return out
}

// splice unwraps d's own nested Binds, if its expression collapsed to one
// after flattening, returning the inner bindings followed by a final
// binding of d's pattern to the innermost Ret.
func splice(d Declaration) []Declaration {
	if d.Expr.Kind != Binds {
		return []Declaration{d}
	}
	out := append([]Declaration{}, d.Expr.Binds...)
	out = append(out, Declaration{Rec: d.Rec, Pattern: d.Pattern, Expr: *d.Expr.Ret, Fn: d.Fn})
	return out
}
