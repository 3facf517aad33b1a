package infer

import (
	"github.com/webml-go/mlcore/internal/core"
	"github.com/webml-go/mlcore/internal/errors"
	"github.com/webml-go/mlcore/internal/symbol"
	"github.com/webml-go/mlcore/internal/symtab"
	"github.com/webml-go/mlcore/internal/unify"
)

var (
	boolSym  = symbol.Intern("bool")
	printSym = symbol.Intern("print")
)

// Engine owns one inference run: its pool, its environment, and the
// symbol table it was seeded from. Each instance owns these exclusively
// and starts its fresh-id counter at zero, so variable ids are
// reproducible run to run.
type Engine struct {
	pool *pool
	env  map[symbol.Symbol]unify.NodeID
	syms *symtab.Table
}

// NewEngine constructs an Engine seeded from syms: the ground scalars and
// every announced datatype name are pre-interned, and every constructor
// symbol is bound to its owning datatype's type.
func NewEngine(syms *symtab.Table) *Engine {
	e := &Engine{
		pool: newPool(),
		env:  make(map[symbol.Symbol]unify.NodeID),
		syms: syms,
	}
	for name := range syms.Types {
		e.pool.tyDatatype(name)
	}
	for _, ctor := range syms.Constructors() {
		dt, ok := syms.GetDatatypeOfConstructor(ctor)
		if !ok {
			errors.InternalError("constructor not found in symbol table")
		}
		e.env[ctor] = e.pool.tyDatatype(dt)
	}
	// print : Int -> (), the unit being the empty tuple.
	e.env[printSym] = e.pool.node(fn(e.pool.tyInt(), e.pool.node(tup(nil))))
	return e
}

// Infer runs inference over prog (untyped, Ty = core.Unit) and returns the
// fully reified typed tree.
func (e *Engine) Infer(prog core.UntypedProgram) (core.TypedProgram, error) {
	seeded := core.MapProgram(prog, func(core.Unit) unify.NodeID { return e.pool.tyvar() })
	if err := e.inferProgram(seeded); err != nil {
		return core.TypedProgram{}, err
	}
	return core.MapProgram(seeded, func(id unify.NodeID) core.Type { return resolve(e.pool.p, id) }), nil
}

func (e *Engine) get(name symbol.Symbol) (unify.NodeID, bool) {
	id, ok := e.env[name]
	return id, ok
}

func (e *Engine) insert(name symbol.Symbol, id unify.NodeID) {
	e.env[name] = id
}

func (e *Engine) unify(id1, id2 unify.NodeID) error {
	_, err := e.pool.p.TryUnifyWith(id1, id2, tryUnify)
	return err
}

// give unifies id with a freshly-allocated node for t, used when the
// constraint side is a shape rather than an existing node.
func (e *Engine) give(id unify.NodeID, t Typing) error {
	return e.unify(id, e.pool.node(t))
}

func (e *Engine) inferProgram(prog core.Program[unify.NodeID]) error {
	for _, decl := range prog.Decls {
		if err := e.inferStatement(decl); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) inferStatement(decl core.Declaration[unify.NodeID]) error {
	switch decl.Kind {
	case core.DeclDatatype:
		// No constraint: the symbol table already carries this information.
		return nil

	case core.DeclVal:
		binds := decl.Pattern.Binds()
		if decl.Rec {
			for _, b := range binds {
				e.insert(b.Name, b.Ty)
			}
		}
		if err := e.inferExpr(decl.Expr); err != nil {
			return err
		}
		if err := e.inferPattern(decl.Pattern); err != nil {
			return err
		}
		if err := e.unify(decl.Expr.Ty, decl.Pattern.Ty); err != nil {
			return err
		}
		if !decl.Rec {
			for _, b := range binds {
				e.insert(b.Name, b.Ty)
			}
		}
		return nil

	case core.DeclFun:
		// Fun{name, params, expr}: infer each param pattern, install
		// their bindings, build the function type by right-folding
		// params over the body type, bind name, then infer the body.
		for _, p := range decl.FunParams {
			if err := e.inferPattern(p); err != nil {
				return err
			}
		}
		bodyTy := e.pool.tyvar()
		if err := e.unify(bodyTy, decl.FunExpr.Ty); err != nil {
			return err
		}
		funTy := bodyTy
		for i := len(decl.FunParams) - 1; i >= 0; i-- {
			funTy = e.pool.node(fn(decl.FunParams[i].Ty, funTy))
		}
		e.insert(decl.FunName, funTy)
		return e.inferExpr(decl.FunExpr)
	}
	errors.InternalError("unreachable declaration kind")
	return nil
}

func (e *Engine) inferExpr(expr core.Expr[unify.NodeID]) error {
	given := expr.Ty
	switch expr.Kind {
	case core.ExprBinds:
		for _, d := range expr.Binds {
			if err := e.inferStatement(d); err != nil {
				return err
			}
		}
		if err := e.unify(expr.Ret.Ty, given); err != nil {
			return err
		}
		return e.inferExpr(*expr.Ret)

	case core.ExprBuiltinCall:
		return e.inferBuiltinCall(expr, given)

	case core.ExprExternCall:
		for i, arg := range expr.Args {
			if err := e.inferExpr(arg); err != nil {
				return err
			}
			argTy := e.pool.convert(expr.ExternArgTy[i])
			if err := e.unify(arg.Ty, argTy); err != nil {
				return err
			}
		}
		retTy := e.pool.convert(expr.ExternRetTy)
		return e.unify(given, retTy)

	case core.ExprFn:
		paramTy := e.pool.tyvar()
		e.insert(expr.Param, paramTy)
		if err := e.inferExpr(*expr.Body); err != nil {
			return err
		}
		return e.give(given, fn(paramTy, expr.Body.Ty))

	case core.ExprApp:
		if err := e.inferExpr(*expr.Fun); err != nil {
			return err
		}
		if err := e.inferExpr(*expr.Arg); err != nil {
			return err
		}
		return e.give(expr.Fun.Ty, fn(expr.Arg.Ty, given))

	case core.ExprCase:
		if err := e.inferExpr(*expr.Cond); err != nil {
			return err
		}
		for _, clause := range expr.Clauses {
			if err := e.inferPattern(clause.Pattern); err != nil {
				return err
			}
			if err := e.unify(clause.Pattern.Ty, expr.Cond.Ty); err != nil {
				return err
			}
			if err := e.inferExpr(clause.Branch); err != nil {
				return err
			}
			if err := e.unify(clause.Branch.Ty, given); err != nil {
				return err
			}
		}
		return nil

	case core.ExprTuple:
		return e.inferTuple(expr.TupleElems, given)

	case core.ExprConstructor:
		return e.inferConstructor(expr.CtorName, expr.CtorArg, given)

	case core.ExprSymbol:
		return e.inferSymbol(expr.SymName, given)

	case core.ExprLiteral:
		return e.inferLiteral(expr.LitValue, given)
	}
	errors.InternalError("unreachable expression kind")
	return nil
}

func (e *Engine) inferBuiltinCall(expr core.Expr[unify.NodeID], given unify.NodeID) error {
	args := expr.Args
	l, r := args[0], args[1]

	switch expr.BIFOp {
	case core.Add, core.Sub, core.Mul:
		if err := e.inferExpr(l); err != nil {
			return err
		}
		if err := e.inferExpr(r); err != nil {
			return err
		}
		if err := e.unify(l.Ty, r.Ty); err != nil {
			return err
		}
		if err := e.unify(l.Ty, e.pool.tyOverloadedNum()); err != nil {
			return err
		}
		return e.unify(given, l.Ty)

	case core.Eq, core.Neq, core.Gt, core.Ge, core.Lt, core.Le:
		if err := e.inferExpr(l); err != nil {
			return err
		}
		if err := e.inferExpr(r); err != nil {
			return err
		}
		if err := e.unify(l.Ty, r.Ty); err != nil {
			return err
		}
		if err := e.unify(l.Ty, e.pool.tyOverloadedNumText()); err != nil {
			return err
		}
		return e.unify(given, e.pool.tyBool(boolSym))

	case core.Div, core.Mod:
		if err := e.unify(l.Ty, e.pool.tyInt()); err != nil {
			return err
		}
		if err := e.unify(r.Ty, e.pool.tyInt()); err != nil {
			return err
		}
		if err := e.unify(given, e.pool.tyInt()); err != nil {
			return err
		}
		if err := e.inferExpr(l); err != nil {
			return err
		}
		return e.inferExpr(r)

	case core.Divf:
		if err := e.unify(l.Ty, e.pool.tyReal()); err != nil {
			return err
		}
		if err := e.unify(r.Ty, e.pool.tyReal()); err != nil {
			return err
		}
		if err := e.unify(given, e.pool.tyReal()); err != nil {
			return err
		}
		if err := e.inferExpr(l); err != nil {
			return err
		}
		return e.inferExpr(r)
	}
	errors.InternalError("unreachable BIF")
	return nil
}

func (e *Engine) inferConstructor(name symbol.Symbol, arg *core.Expr[unify.NodeID], given unify.NodeID) error {
	ty, ok := e.get(name)
	if !ok {
		return errors.FreeVar()
	}
	if err := e.unify(ty, given); err != nil {
		return err
	}
	if arg == nil {
		return nil
	}
	argTy, ok := e.syms.GetArgTypeOfConstructor(name)
	if !ok {
		return nil
	}
	if err := e.inferExpr(*arg); err != nil {
		return err
	}
	return e.unify(arg.Ty, e.pool.convert(argTy))
}

func (e *Engine) inferSymbol(name symbol.Symbol, given unify.NodeID) error {
	ty, ok := e.get(name)
	if !ok {
		return errors.FreeVar()
	}
	return e.unify(ty, given)
}

func (e *Engine) inferLiteral(lit core.Literal, given unify.NodeID) error {
	var ty unify.NodeID
	switch lit.Kind {
	case core.LitInt:
		ty = e.pool.tyInt()
	case core.LitReal:
		ty = e.pool.tyReal()
	case core.LitChar:
		ty = e.pool.tyChar()
	default:
		errors.InternalError("unreachable literal kind")
	}
	return e.unify(given, ty)
}

func (e *Engine) inferTuple(elems []core.Expr[unify.NodeID], given unify.NodeID) error {
	vars := make([]unify.NodeID, len(elems))
	for i := range elems {
		vars[i] = e.pool.tyvar()
	}
	for i, el := range elems {
		if err := e.inferExpr(el); err != nil {
			return err
		}
		if err := e.unify(el.Ty, vars[i]); err != nil {
			return err
		}
	}
	return e.give(given, tup(vars))
}

func (e *Engine) inferPattern(pat core.Pattern[unify.NodeID]) error {
	switch pat.Kind {
	case core.PatConstant:
		if err := e.unify(pat.Ty, e.pool.tyInt()); err != nil {
			return err
		}
	case core.PatChar:
		if err := e.unify(pat.Ty, e.pool.tyChar()); err != nil {
			return err
		}
	case core.PatConstructor:
		dtName, ok := e.syms.GetDatatypeOfConstructor(pat.CtorName)
		if !ok {
			errors.InternalError("constructor not in symbol table")
		}
		if err := e.give(pat.Ty, datatype(dtName)); err != nil {
			return err
		}
		if pat.CtorArg != nil {
			if err := e.inferPattern(*pat.CtorArg); err != nil {
				return err
			}
			argTy, ok := e.syms.GetArgTypeOfConstructor(pat.CtorName)
			if ok {
				if err := e.unify(pat.CtorArg.Ty, e.pool.convert(argTy)); err != nil {
					return err
				}
			}
		}
	case core.PatTuple:
		for _, sub := range pat.TupleElems {
			if err := e.inferPattern(sub); err != nil {
				return err
			}
		}
		ids := make([]unify.NodeID, len(pat.TupleElems))
		for i, sub := range pat.TupleElems {
			ids[i] = sub.Ty
		}
		if err := e.unify(pat.Ty, e.pool.node(tup(ids))); err != nil {
			return err
		}
	case core.PatWildcard, core.PatVariable:
		// unconstrained
	}

	for _, b := range pat.Binds() {
		e.insert(b.Name, b.Ty)
	}
	return nil
}
