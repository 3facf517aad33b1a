package core

// MapProgram rewrites every type slot in prog via f, preserving tree shape.
// This implements the two conversions the inference engine needs: seeding
// every slot with a fresh unification variable (Unit -> unify.NodeID) and
// reifying every slot to its final ground type (unify.NodeID -> Type).
func MapProgram[A, B any](prog Program[A], f func(A) B) Program[B] {
	decls := make([]Declaration[B], len(prog.Decls))
	for i, d := range prog.Decls {
		decls[i] = MapDeclaration(d, f)
	}
	return Program[B]{Decls: decls}
}

func MapDeclaration[A, B any](d Declaration[A], f func(A) B) Declaration[B] {
	out := Declaration[B]{Kind: d.Kind, TypeName: d.TypeName, Constructors: d.Constructors, Rec: d.Rec, FunName: d.FunName}
	switch d.Kind {
	case DeclDatatype:
		// Constructors carries no Ty-parameterized payload (it uses the
		// fixed surface Type), nothing further to map.
	case DeclVal:
		out.Pattern = MapPattern(d.Pattern, f)
		out.Expr = MapExpr(d.Expr, f)
	case DeclFun:
		out.FunParams = make([]Pattern[B], len(d.FunParams))
		for i, p := range d.FunParams {
			out.FunParams[i] = MapPattern(p, f)
		}
		out.FunExpr = MapExpr(d.FunExpr, f)
	}
	return out
}

func MapPattern[A, B any](p Pattern[A], f func(A) B) Pattern[B] {
	out := Pattern[B]{
		Kind:          p.Kind,
		Ty:            f(p.Ty),
		ConstantValue: p.ConstantValue,
		CharValue:     p.CharValue,
		CtorName:      p.CtorName,
		VarName:       p.VarName,
	}
	if p.CtorArg != nil {
		mapped := MapPattern(*p.CtorArg, f)
		out.CtorArg = &mapped
	}
	if p.TupleElems != nil {
		out.TupleElems = make([]Pattern[B], len(p.TupleElems))
		for i, e := range p.TupleElems {
			out.TupleElems[i] = MapPattern(e, f)
		}
	}
	return out
}

func MapExpr[A, B any](e Expr[A], f func(A) B) Expr[B] {
	out := Expr[B]{
		Kind:         e.Kind,
		Ty:           f(e.Ty),
		BIFOp:        e.BIFOp,
		ExternModule: e.ExternModule,
		ExternFun:    e.ExternFun,
		ExternArgTy:  e.ExternArgTy,
		ExternRetTy:  e.ExternRetTy,
		Param:        e.Param,
		CtorName:     e.CtorName,
		SymName:      e.SymName,
		LitValue:     e.LitValue,
	}
	if e.Binds != nil {
		out.Binds = make([]Declaration[B], len(e.Binds))
		for i, d := range e.Binds {
			out.Binds[i] = MapDeclaration(d, f)
		}
	}
	if e.Ret != nil {
		mapped := MapExpr(*e.Ret, f)
		out.Ret = &mapped
	}
	if e.Args != nil {
		out.Args = make([]Expr[B], len(e.Args))
		for i, a := range e.Args {
			out.Args[i] = MapExpr(a, f)
		}
	}
	if e.Body != nil {
		mapped := MapExpr(*e.Body, f)
		out.Body = &mapped
	}
	if e.Fun != nil {
		mapped := MapExpr(*e.Fun, f)
		out.Fun = &mapped
	}
	if e.Arg != nil {
		mapped := MapExpr(*e.Arg, f)
		out.Arg = &mapped
	}
	if e.Cond != nil {
		mapped := MapExpr(*e.Cond, f)
		out.Cond = &mapped
	}
	if e.Clauses != nil {
		out.Clauses = make([]CaseClause[B], len(e.Clauses))
		for i, c := range e.Clauses {
			out.Clauses[i] = CaseClause[B]{Pattern: MapPattern(c.Pattern, f), Branch: MapExpr(c.Branch, f)}
		}
	}
	if e.TupleElems != nil {
		out.TupleElems = make([]Expr[B], len(e.TupleElems))
		for i, t := range e.TupleElems {
			out.TupleElems[i] = MapExpr(t, f)
		}
	}
	if e.CtorArg != nil {
		mapped := MapExpr(*e.CtorArg, f)
		out.CtorArg = &mapped
	}
	return out
}
