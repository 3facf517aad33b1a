package hir

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webml-go/mlcore/internal/core"
	"github.com/webml-go/mlcore/internal/symbol"
	"github.com/webml-go/mlcore/internal/symtab"
)

var cmpOpts = []cmp.Option{
	cmp.AllowUnexported(core.Type{}),
	cmpopts.IgnoreFields(Expr{}, "SymName"), // temp names vary only in their counter suffix
}

func tSym(ty core.Type, name string) core.TypedExpr {
	return core.NewSymbolExpr(ty, symbol.Intern(name))
}

func tLit(i int64) core.TypedExpr {
	return core.NewLiteralExpr(core.TInt, core.NewIntLiteral(i))
}

// DeclFun desugars into a recursive Val binding a Lambda chain, and
// DeclDatatype disappears entirely.
func TestAST2HIRDesugarsFunAndDropsDatatype(t *testing.T) {
	xSym := symbol.Intern("x")
	fnTy := core.TFun(core.TInt, core.TInt)
	datatypeDecl := core.NewDatatypeDecl[core.Type](symbol.Intern("Unused"), nil)
	funDecl := core.NewFunDecl(symbol.Intern("id"), []core.TypedPattern{
		core.NewVariablePattern(core.TInt, xSym),
	}, tSym(core.TInt, "x"))
	prog := core.Program[core.Type]{Decls: []core.TypedDeclaration{datatypeDecl, funDecl}}

	out := AST2HIR(symtab.New(), prog)
	require.Len(t, out.Decls, 1)
	d := out.Decls[0]
	assert.True(t, d.Rec)
	assert.Equal(t, core.PatVariable, d.Pattern.Kind)
	assert.Equal(t, symbol.Intern("id"), d.Pattern.VarName)
	require.Equal(t, Lambda, d.Expr.Kind)
	assert.True(t, d.Expr.Ty.Equals(fnTy))
	assert.Equal(t, xSym, d.Expr.Param)
	assert.Equal(t, Sym, d.Expr.Body.Kind)
}

// FlatLet collapses a binding whose own RHS is a nested Binds block into
// one flat chain.
func TestFlatLetFlattensNestedBinds(t *testing.T) {
	ySym := symbol.Intern("y")
	zSym := symbol.Intern("z")
	xSym := symbol.Intern("x")

	inner := NewBinds(core.TInt, []Declaration{
		{Pattern: core.NewVariablePattern(core.TInt, ySym), Expr: NewLit(core.TInt, core.NewIntLiteral(1))},
	}, ptr(NewSym(core.TInt, ySym)))

	outer := NewBinds(core.TInt, []Declaration{
		{Pattern: core.NewVariablePattern(core.TInt, xSym), Expr: inner},
	}, ptr(NewSym(core.TInt, xSym)))

	prog := Program{Decls: []Declaration{{Pattern: core.NewVariablePattern(core.TInt, zSym), Expr: outer}}}
	flat := FlatLet(prog)

	got := flat.Decls[0].Expr
	require.Equal(t, Binds, got.Kind)
	require.Len(t, got.Binds, 2)
	assert.Equal(t, ySym, got.Binds[0].Pattern.VarName)
	assert.Equal(t, xSym, got.Binds[1].Pattern.VarName)
}

// FlatExpr hoists a compound BuiltinCall argument into a fresh binding, and
// the result is stable under a second application (idempotence).
func TestFlatExprHoistsCompoundOperands(t *testing.T) {
	add := NewBuiltinCall(core.TInt, core.Add, []Expr{
		NewBuiltinCall(core.TInt, core.Add, []Expr{NewLit(core.TInt, core.NewIntLiteral(1)), NewLit(core.TInt, core.NewIntLiteral(2))}),
		NewLit(core.TInt, core.NewIntLiteral(3)),
	})
	prog := Program{Decls: []Declaration{{Pattern: core.NewVariablePattern(core.TInt, symbol.Intern("r")), Expr: add}}}

	once := FlatExpr(prog)
	got := once.Decls[0].Expr
	require.Equal(t, Binds, got.Kind, "compound operand must be hoisted into a let")
	require.Len(t, got.Binds, 1)
	assert.Equal(t, BuiltinCall, got.Binds[0].Expr.Kind)
	require.Equal(t, BuiltinCall, got.Ret.Kind)
	assert.Equal(t, Sym, got.Ret.Args[0].Kind)
	assert.Equal(t, Lit, got.Ret.Args[1].Kind)

	twice := FlatExpr(once)
	if diff := cmp.Diff(once, twice, cmpOpts...); diff != "" {
		t.Errorf("FlatExpr is not idempotent (-once +twice):\n%s", diff)
	}
}

// FlatExpr lowers a tuple-pattern val binding into a fresh-named binding
// of the tuple plus one Proj extraction per element, and the result is
// stable under a second application.
func TestFlatExprDestructuresTuplePattern(t *testing.T) {
	tupTy := core.TTuple(core.TInt, core.TInt)
	aSym, bSym := symbol.Intern("a"), symbol.Intern("b")

	tuple := NewTuple(tupTy, []Expr{NewLit(core.TInt, core.NewIntLiteral(1)), NewLit(core.TInt, core.NewIntLiteral(2))})
	pat := core.NewTuplePattern(tupTy, []core.TypedPattern{
		core.NewVariablePattern(core.TInt, aSym),
		core.NewVariablePattern(core.TInt, bSym),
	})
	prog := Program{Decls: []Declaration{{Pattern: pat, Expr: tuple}}}

	once := FlatExpr(prog)
	require.Len(t, once.Decls, 3, "tuple value binding plus one Proj per element")

	head := once.Decls[0]
	assert.Equal(t, core.PatVariable, head.Pattern.Kind)
	assert.Equal(t, Tuple, head.Expr.Kind)

	for i, d := range once.Decls[1:] {
		assert.Equal(t, core.PatVariable, d.Pattern.Kind)
		require.Equal(t, Proj, d.Expr.Kind)
		assert.Equal(t, i, d.Expr.ProjIndex)
		assert.Equal(t, Sym, d.Expr.ProjTuple.Kind)
		assert.Equal(t, head.Pattern.VarName, d.Expr.ProjTuple.SymName)
	}
	assert.Equal(t, aSym, once.Decls[1].Pattern.VarName)
	assert.Equal(t, bSym, once.Decls[2].Pattern.VarName)

	twice := FlatExpr(once)
	if diff := cmp.Diff(once, twice, cmpOpts...); diff != "" {
		t.Errorf("FlatExpr is not idempotent over a destructured tuple (-once +twice):\n%s", diff)
	}
}

// FlatExpr lowers a single-constructor-pattern val binding into a fresh
// binding of the scrutinee plus a single-clause Case that extracts the
// payload, so the bound name downstream is a bare Variable.
func TestFlatExprDestructuresConstructorPattern(t *testing.T) {
	optTy := core.TDatatype(symbol.Intern("option"))
	someSym := symbol.Intern("Some")
	xSym := symbol.Intern("x")

	xPat := core.NewVariablePattern(core.TInt, xSym)
	pat := core.NewConstructorPattern(optTy, someSym, &xPat)
	prog := Program{Decls: []Declaration{{Pattern: pat, Expr: NewSym(optTy, symbol.Intern("opt"))}}}

	once := FlatExpr(prog)
	require.Len(t, once.Decls, 2, "scrutinee binding plus the extracted payload")

	head := once.Decls[0]
	assert.Equal(t, core.PatVariable, head.Pattern.Kind)
	assert.Equal(t, Sym, head.Expr.Kind)

	payload := once.Decls[1]
	assert.Equal(t, xSym, payload.Pattern.VarName)
	require.Equal(t, Case, payload.Expr.Kind)
	require.Len(t, payload.Expr.Clauses, 1)
	clause := payload.Expr.Clauses[0]
	assert.Equal(t, core.PatConstructor, clause.Pattern.Kind)
	assert.Equal(t, someSym, clause.Pattern.CtorName)
	assert.Equal(t, core.PatVariable, clause.Pattern.CtorArg.Kind)
	assert.Equal(t, Sym, clause.Branch.Kind)
	assert.Equal(t, clause.Pattern.CtorArg.VarName, clause.Branch.SymName)

	twice := FlatExpr(once)
	if diff := cmp.Diff(once, twice, cmpOpts...); diff != "" {
		t.Errorf("FlatExpr is not idempotent over a destructured constructor pattern (-once +twice):\n%s", diff)
	}
}

// A Binds in the trailing-expression position merges into the enclosing
// block: let A in let B in e becomes let A; B in e.
func TestFlatLetFlattensRetPositionBinds(t *testing.T) {
	aSym := symbol.Intern("a")
	bSym := symbol.Intern("b")

	inner := NewBinds(core.TInt, []Declaration{
		{Pattern: core.NewVariablePattern(core.TInt, bSym), Expr: NewLit(core.TInt, core.NewIntLiteral(2))},
	}, ptr(NewSym(core.TInt, bSym)))

	outer := NewBinds(core.TInt, []Declaration{
		{Pattern: core.NewVariablePattern(core.TInt, aSym), Expr: NewLit(core.TInt, core.NewIntLiteral(1))},
	}, &inner)

	prog := Program{Decls: []Declaration{{Pattern: core.NewVariablePattern(core.TInt, symbol.Intern("out")), Expr: outer}}}
	flat := FlatLet(prog)

	got := flat.Decls[0].Expr
	require.Equal(t, Binds, got.Kind)
	require.Len(t, got.Binds, 2)
	assert.Equal(t, aSym, got.Binds[0].Pattern.VarName)
	assert.Equal(t, bSym, got.Binds[1].Pattern.VarName)
	assert.Equal(t, Sym, got.Ret.Kind)

	twice := FlatLet(flat)
	if diff := cmp.Diff(flat, twice, cmpOpts...); diff != "" {
		t.Errorf("FlatLet is not idempotent (-once +twice):\n%s", diff)
	}
}

// UnnestFunc lifts a lambda that captures an outer-scope variable, and the
// capture list contains exactly that variable.
func TestUnnestFuncCapturesOuterVariable(t *testing.T) {
	nSym := symbol.Intern("n")
	pSym := symbol.Intern("p")
	fnTy := core.TFun(core.TInt, core.TInt)

	lambda := NewLambda(fnTy, pSym, ptr(NewBuiltinCall(core.TInt, core.Add, []Expr{
		NewSym(core.TInt, pSym),
		NewSym(core.TInt, nSym),
	})))

	decl := Declaration{
		Pattern: core.NewVariablePattern(core.TInt, symbol.Intern("outer")),
		Expr: NewBinds(fnTy, []Declaration{
			{Pattern: core.NewVariablePattern(core.TInt, nSym), Expr: NewLit(core.TInt, core.NewIntLiteral(5))},
		}, ptr(lambda)),
	}
	prog := Program{Decls: []Declaration{decl}}

	out := UnnestFunc(prog)
	require.Len(t, out.Decls, 2, "one original decl plus one lifted function")

	adder := out.Decls[0].Expr.Ret
	require.Equal(t, Fun, adder.Kind)
	require.Len(t, adder.Captures, 1)
	assert.Equal(t, nSym, adder.Captures[0])

	lifted := out.Decls[1]
	assert.True(t, lifted.Rec)
	assert.True(t, lifted.Fn)
	assert.Equal(t, adder.FuncName, lifted.Pattern.VarName)

	twice := UnnestFunc(out)
	if diff := cmp.Diff(out, twice, cmpOpts...); diff != "" {
		t.Errorf("UnnestFunc is not idempotent (-once +twice):\n%s", diff)
	}
}

// A top-level lambda binding is itself lifted, so that after the pass every
// function literal lives in a lifted definition and every use site is a
// reference with explicit captures.
func TestUnnestFuncLiftsTopLevelLambda(t *testing.T) {
	xSym := symbol.Intern("x")
	ySym := symbol.Intern("y")
	fnTy := core.TFun(core.TInt, core.TInt)
	outerTy := core.TFun(core.TInt, fnTy)

	innerBody := NewBuiltinCall(core.TInt, core.Add, []Expr{
		NewSym(core.TInt, xSym),
		NewSym(core.TInt, ySym),
	})
	inner := NewLambda(fnTy, ySym, &innerBody)
	outer := NewLambda(outerTy, xSym, &inner)

	prog := Program{Decls: []Declaration{
		{Rec: true, Pattern: core.NewVariablePattern(outerTy, symbol.Intern("f")), Expr: outer},
	}}

	out := UnnestFunc(prog)
	require.Len(t, out.Decls, 3, "original binding plus two lifted definitions")

	site := out.Decls[0].Expr
	require.Equal(t, Fun, site.Kind)
	assert.Empty(t, site.Captures)

	for i := range out.Decls[1:] {
		d := out.Decls[1+i]
		require.True(t, d.Fn)
		require.Equal(t, Lambda, d.Expr.Kind)
	}
	assert.Equal(t, ySym, out.Decls[1].Expr.Param, "inner lambda lifts first")

	// The outer lambda's lifted body holds the inner reference capturing x.
	ref := out.Decls[2].Expr.Body
	require.Equal(t, Fun, ref.Kind)
	require.Len(t, ref.Captures, 1)
	assert.Equal(t, xSym, ref.Captures[0])

	twice := UnnestFunc(out)
	if diff := cmp.Diff(out, twice, cmpOpts...); diff != "" {
		t.Errorf("UnnestFunc is not idempotent (-once +twice):\n%s", diff)
	}
}

// ForceClosure turns the Fun produced above into a Closure whose envs carry
// exactly the captured names with their bound types.
func TestForceClosureBuildsExplicitEnv(t *testing.T) {
	nSym := symbol.Intern("n")
	fnTy := core.TFun(core.TInt, core.TInt)

	prog := Program{Decls: []Declaration{
		{Pattern: core.NewVariablePattern(core.TInt, nSym), Expr: NewLit(core.TInt, core.NewIntLiteral(5))},
		{Pattern: core.NewVariablePattern(fnTy, symbol.Intern("adder")), Expr: NewFun(fnTy, symbol.Intern("%fn1"), []symbol.Symbol{nSym})},
	}}

	out := ForceClosure(prog)
	closure := out.Decls[1].Expr
	require.Equal(t, Closure, closure.Kind)
	require.Len(t, closure.ClosureEnvs, 1)
	assert.Equal(t, nSym, closure.ClosureEnvs[0].SymName)
	assert.True(t, closure.ClosureEnvs[0].Ty.Equals(core.TInt))
	assert.True(t, closure.ClosureParamTy.Equals(core.TInt))
	assert.True(t, closure.ClosureBodyTy.Equals(core.TInt))

	twice := ForceClosure(out)
	if diff := cmp.Diff(out, twice, cmpOpts...); diff != "" {
		t.Errorf("ForceClosure is not idempotent (-once +twice):\n%s", diff)
	}
}

func TestMatchKeyDiscriminatesByPatternKind(t *testing.T) {
	someSym := symbol.Intern("Some")
	assert.Equal(t, int64(3), MatchKey(core.NewConstantPattern(core.TInt, 3)))
	assert.Equal(t, uint32('k'), MatchKey(core.NewCharPattern(core.TChar, 'k')))
	assert.Equal(t, someSym, MatchKey(core.NewConstructorPattern[core.Type](core.TDatatype(symbol.Intern("option")), someSym, nil)))
	assert.Nil(t, MatchKey(core.NewWildcardPattern(core.TInt)))
}

func TestIsIrrefutable(t *testing.T) {
	v := core.NewVariablePattern(core.TInt, symbol.Intern("v"))
	w := core.NewWildcardPattern(core.TInt)
	k := core.NewConstantPattern(core.TInt, 0)

	assert.True(t, IsIrrefutable(v))
	assert.True(t, IsIrrefutable(w))
	assert.False(t, IsIrrefutable(k))
	assert.True(t, IsIrrefutable(core.NewTuplePattern(core.TTuple(core.TInt, core.TInt), []Pattern{v, w})))
	assert.False(t, IsIrrefutable(core.NewTuplePattern(core.TTuple(core.TInt, core.TInt), []Pattern{v, k})))
}

func ptr(e Expr) *Expr { return &e }
