package infer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webml-go/mlcore/internal/core"
	"github.com/webml-go/mlcore/internal/symbol"
	"github.com/webml-go/mlcore/internal/symtab"
)

func lit(i int64) core.UntypedExpr {
	return core.NewLiteralExpr(core.Unit{}, core.NewIntLiteral(i))
}

func litReal(r float64) core.UntypedExpr {
	return core.NewLiteralExpr(core.Unit{}, core.NewRealLiteral(r))
}

func add(l, r core.UntypedExpr) core.UntypedExpr {
	return core.NewBuiltinCall(core.Unit{}, core.Add, []core.UntypedExpr{l, r})
}

func sym(name string) core.UntypedExpr {
	return core.NewSymbolExpr(core.Unit{}, symbol.Intern(name))
}

func program(decls ...core.UntypedDeclaration) core.UntypedProgram {
	return core.Program[core.Unit]{Decls: decls}
}

// val x = 1 + 2  =>  Int
func TestInferValAddIsInt(t *testing.T) {
	decl := core.NewValDecl(false, core.NewVariablePattern[core.Unit](core.Unit{}, symbol.Intern("x")), add(lit(1), lit(2)))
	prog := program(decl)

	e := NewEngine(symtab.New())
	typed, err := e.Infer(prog)
	require.NoError(t, err)
	assert.True(t, typed.Decls[0].Expr.Ty.Equals(core.TInt))
}

// val x = 1.0 + 2  must fail with a mismatch
func TestInferValMixedArithmeticFails(t *testing.T) {
	decl := core.NewValDecl(false, core.NewVariablePattern[core.Unit](core.Unit{}, symbol.Intern("x")), add(litReal(1.0), lit(2)))
	prog := program(decl)

	e := NewEngine(symtab.New())
	_, err := e.Infer(prog)
	require.Error(t, err)
}

// fun id x = x  =>  'a -> 'a (a residual, unresolved type variable on both sides)
func TestInferIdentityFunctionIsPolymorphicShape(t *testing.T) {
	xSym := symbol.Intern("x")
	decl := core.NewFunDecl[core.Unit](symbol.Intern("id"), []core.UntypedPattern{
		core.NewVariablePattern[core.Unit](core.Unit{}, xSym),
	}, sym("x"))
	prog := program(decl)

	e := NewEngine(symtab.New())
	typed, err := e.Infer(prog)
	require.NoError(t, err)

	bodyTy := typed.Decls[0].FunExpr.Ty
	paramTy := typed.Decls[0].FunParams[0].Ty
	assert.True(t, bodyTy.IsVariable())
	assert.True(t, paramTy.IsVariable())
	assert.Equal(t, paramTy.VarID(), bodyTy.VarID())
}

// datatype Option = None | Some of Int; val x = Some 1 => Option
func TestInferConstructorYieldsDatatype(t *testing.T) {
	optionName := symbol.Intern("Option")
	noneCtor := symbol.Intern("None")
	someCtor := symbol.Intern("Some")

	syms := symtab.New()
	intTy := core.TInt
	syms.AddDatatype(optionName, []core.CtorDef{
		{Name: noneCtor, Payload: nil},
		{Name: someCtor, Payload: &intTy},
	})

	datatypeDecl := core.NewDatatypeDecl[core.Unit](optionName, []core.CtorDef{
		{Name: noneCtor, Payload: nil},
		{Name: someCtor, Payload: &intTy},
	})
	valDecl := core.NewValDecl(false,
		core.NewVariablePattern[core.Unit](core.Unit{}, symbol.Intern("x")),
		core.NewConstructor[core.Unit](core.Unit{}, someCtor, ptrExpr(lit(1))),
	)
	prog := program(datatypeDecl, valDecl)

	e := NewEngine(syms)
	typed, err := e.Infer(prog)
	require.NoError(t, err)

	ty := typed.Decls[1].Expr.Ty
	require.Equal(t, core.TyDatatype, ty.Kind())
	assert.Equal(t, optionName, ty.DatatypeName())
}

// val rec fact = fn n => case n of 0 => 1 | _ => n * fact (n - 1)  (self-reference via rec)
func TestInferRecursiveBindingSeesItself(t *testing.T) {
	factSym := symbol.Intern("fact")
	nSym := symbol.Intern("n")

	body := core.NewCase[core.Unit](core.Unit{}, ptrExpr(sym("n")), []core.CaseClause[core.Unit]{
		{
			Pattern: core.NewConstantPattern[core.Unit](core.Unit{}, 0),
			Branch:  lit(1),
		},
		{
			Pattern: core.NewWildcardPattern[core.Unit](core.Unit{}),
			Branch: core.NewBuiltinCall(core.Unit{}, core.Mul, []core.UntypedExpr{
				sym("n"),
				core.NewApp[core.Unit](core.Unit{}, ptrExpr(sym("fact")), ptrExpr(core.NewBuiltinCall(core.Unit{}, core.Sub, []core.UntypedExpr{sym("n"), lit(1)}))),
			}),
		},
	})
	fn := core.NewFn[core.Unit](core.Unit{}, nSym, ptrExpr(body))
	decl := core.NewValDecl(true, core.NewVariablePattern[core.Unit](core.Unit{}, factSym), fn)
	prog := program(decl)

	e := NewEngine(symtab.New())
	typed, err := e.Infer(prog)
	require.NoError(t, err)

	ty := typed.Decls[0].Expr.Ty
	require.Equal(t, core.TyFun, ty.Kind())
	arg, ret := ty.Fun()
	assert.True(t, arg.Equals(core.TInt))
	assert.True(t, ret.Equals(core.TInt))
}

// val x = (1, 'a')  =>  (Int * Char)
func TestInferTupleElementTypesPreserveOrder(t *testing.T) {
	decl := core.NewValDecl(false,
		core.NewVariablePattern[core.Unit](core.Unit{}, symbol.Intern("x")),
		core.NewTuple[core.Unit](core.Unit{}, []core.UntypedExpr{lit(1), core.NewLiteralExpr(core.Unit{}, core.NewCharLiteral('a'))}),
	)
	prog := program(decl)

	e := NewEngine(symtab.New())
	typed, err := e.Infer(prog)
	require.NoError(t, err)

	ty := typed.Decls[0].Expr.Ty
	require.Equal(t, core.TyTuple, ty.Kind())
	elems := ty.Tuple()
	require.Len(t, elems, 2)
	assert.True(t, elems[0].Equals(core.TInt))
	assert.True(t, elems[1].Equals(core.TChar))
}

// 1 = 2 => Bool, exercising the comparison BIFOp family and the bool datatype cache.
func TestInferComparisonYieldsBool(t *testing.T) {
	eq := core.NewBuiltinCall(core.Unit{}, core.Eq, []core.UntypedExpr{lit(1), lit(2)})
	decl := core.NewValDecl(false, core.NewVariablePattern[core.Unit](core.Unit{}, symbol.Intern("x")), eq)
	prog := program(decl)

	e := NewEngine(symtab.New())
	typed, err := e.Infer(prog)
	require.NoError(t, err)

	ty := typed.Decls[0].Expr.Ty
	require.Equal(t, core.TyDatatype, ty.Kind())
	assert.Equal(t, boolSym, ty.DatatypeName())
}

// Referencing an unbound symbol must surface as a FreeVar error, not a panic.
func TestInferUnboundSymbolIsFreeVar(t *testing.T) {
	decl := core.NewValDecl(false, core.NewVariablePattern[core.Unit](core.Unit{}, symbol.Intern("x")), sym("never_bound"))
	prog := program(decl)

	e := NewEngine(symtab.New())
	_, err := e.Infer(prog)
	require.Error(t, err)
}

// Two engines inferring the same program assign identical fresh variable
// ids: the counter is per-instance and starts from zero.
func TestFreshIDsAreReproducibleAcrossEngines(t *testing.T) {
	build := func() core.UntypedProgram {
		return program(core.NewFunDecl[core.Unit](symbol.Intern("id"), []core.UntypedPattern{
			core.NewVariablePattern[core.Unit](core.Unit{}, symbol.Intern("x")),
		}, sym("x")))
	}

	first, err := NewEngine(symtab.New()).Infer(build())
	require.NoError(t, err)
	second, err := NewEngine(symtab.New()).Infer(build())
	require.NoError(t, err)

	fTy := first.Decls[0].FunParams[0].Ty
	sTy := second.Decls[0].FunParams[0].Ty
	require.True(t, fTy.IsVariable())
	assert.Equal(t, fTy.VarID(), sTy.VarID())
}

// Interning a surface type into the pool and resolving it back must be the
// identity, and stable under a second round trip.
func TestConvertResolveRoundTrip(t *testing.T) {
	e := NewEngine(symtab.New())
	types := []core.Type{
		core.TInt,
		core.TReal,
		core.TChar,
		core.TFun(core.TInt, core.TFun(core.TReal, core.TChar)),
		core.TTuple(core.TInt, core.TTuple(core.TChar, core.TReal)),
		core.TDatatype(symbol.Intern("shape")),
	}
	for _, ty := range types {
		once := resolve(e.pool.p, e.pool.convert(ty))
		assert.True(t, once.Equals(ty), "round trip changed %s into %s", ty, once)
		again := resolve(e.pool.p, e.pool.convert(once))
		assert.True(t, again.Equals(once))
	}
}

// A comparison of two otherwise-unconstrained parameters stays overloaded
// through unification and defaults to Int only at reification.
func TestComparisonOfUnconstrainedOperandsDefaultsToInt(t *testing.T) {
	xSym := symbol.Intern("cmp_x")
	ySym := symbol.Intern("cmp_y")
	body := core.NewBuiltinCall(core.Unit{}, core.Lt, []core.UntypedExpr{sym("cmp_x"), sym("cmp_y")})
	decl := core.NewFunDecl[core.Unit](symbol.Intern("cmp"), []core.UntypedPattern{
		core.NewVariablePattern[core.Unit](core.Unit{}, xSym),
		core.NewVariablePattern[core.Unit](core.Unit{}, ySym),
	}, body)

	e := NewEngine(symtab.New())
	typed, err := e.Infer(program(decl))
	require.NoError(t, err)

	for _, p := range typed.Decls[0].FunParams {
		assert.True(t, p.Ty.Equals(core.TInt), "overloaded comparison operand must default to Int, got %s", p.Ty)
	}
}

// div/mod pin everything to Int; /. pins everything to Real.
func TestDivisionFamiliesAreMonomorphic(t *testing.T) {
	divDecl := core.NewValDecl(false, core.NewVariablePattern[core.Unit](core.Unit{}, symbol.Intern("q")),
		core.NewBuiltinCall(core.Unit{}, core.Div, []core.UntypedExpr{lit(7), lit(2)}))
	divfDecl := core.NewValDecl(false, core.NewVariablePattern[core.Unit](core.Unit{}, symbol.Intern("r")),
		core.NewBuiltinCall(core.Unit{}, core.Divf, []core.UntypedExpr{litReal(7), litReal(2)}))

	e := NewEngine(symtab.New())
	typed, err := e.Infer(program(divDecl, divfDecl))
	require.NoError(t, err)
	assert.True(t, typed.Decls[0].Expr.Ty.Equals(core.TInt))
	assert.True(t, typed.Decls[1].Expr.Ty.Equals(core.TReal))

	bad := core.NewValDecl(false, core.NewVariablePattern[core.Unit](core.Unit{}, symbol.Intern("s")),
		core.NewBuiltinCall(core.Unit{}, core.Div, []core.UntypedExpr{litReal(7), litReal(2)}))
	_, err = NewEngine(symtab.New()).Infer(program(bad))
	require.Error(t, err, "div over Real operands must be a mismatch")
}

// The seeded print builtin types as Int -> ().
func TestInferPrintBuiltin(t *testing.T) {
	app := core.NewApp[core.Unit](core.Unit{}, ptrExpr(sym("print")), ptrExpr(lit(42)))
	decl := core.NewValDecl(false, core.NewVariablePattern[core.Unit](core.Unit{}, symbol.Intern("u")), app)

	e := NewEngine(symtab.New())
	typed, err := e.Infer(program(decl))
	require.NoError(t, err)

	ty := typed.Decls[0].Expr.Ty
	require.Equal(t, core.TyTuple, ty.Kind())
	assert.Empty(t, ty.Tuple())
}

// An extern call's declared signature seeds inference verbatim.
func TestInferExternCallUsesDeclaredSignature(t *testing.T) {
	call := core.NewExternCall[core.Unit](core.Unit{}, "Math", "sqrt",
		[]core.UntypedExpr{litReal(2)}, []core.Type{core.TReal}, core.TReal)
	decl := core.NewValDecl(false, core.NewVariablePattern[core.Unit](core.Unit{}, symbol.Intern("sq")), call)

	e := NewEngine(symtab.New())
	typed, err := e.Infer(program(decl))
	require.NoError(t, err)
	assert.True(t, typed.Decls[0].Expr.Ty.Equals(core.TReal))

	bad := core.NewExternCall[core.Unit](core.Unit{}, "Math", "sqrt",
		[]core.UntypedExpr{lit(2)}, []core.Type{core.TReal}, core.TReal)
	badDecl := core.NewValDecl(false, core.NewVariablePattern[core.Unit](core.Unit{}, symbol.Intern("sq2")), bad)
	_, err = NewEngine(symtab.New()).Infer(program(badDecl))
	require.Error(t, err, "an Int argument against a declared Real parameter must mismatch")
}

func ptrExpr(e core.UntypedExpr) *core.UntypedExpr { return &e }
