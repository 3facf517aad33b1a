// Package infer implements Hindley-Milner-style type inference over the
// untyped Core tree: a single recursive constraint-generating walk
// discharged through a union-find unification pool, with limited
// numeric-overload resolution and no let-polymorphism.
package infer

import (
	"github.com/webml-go/mlcore/internal/core"
	"github.com/webml-go/mlcore/internal/symbol"
	"github.com/webml-go/mlcore/internal/unify"
)

// typingKind tags the inference-type grammar: the surface grammar plus
// two overloaded placeholders.
type typingKind int

const (
	tyVariable typingKind = iota
	tyChar
	tyInt
	tyReal
	tyFun
	tyTuple
	tyDatatype
	tyOverloadedNum
	tyOverloadedNumText
)

// Typing is the value stored at each unification-pool node.
type Typing struct {
	kind   typingKind
	varID  uint64
	arg    unify.NodeID // tyFun
	ret    unify.NodeID // tyFun
	tuple  []unify.NodeID
	dtName symbol.Symbol
}

func variable(id uint64) Typing          { return Typing{kind: tyVariable, varID: id} }
func fn(arg, ret unify.NodeID) Typing    { return Typing{kind: tyFun, arg: arg, ret: ret} }
func tup(elems []unify.NodeID) Typing    { return Typing{kind: tyTuple, tuple: elems} }
func datatype(name symbol.Symbol) Typing { return Typing{kind: tyDatatype, dtName: name} }

var (
	tChar              = Typing{kind: tyChar}
	tInt               = Typing{kind: tyInt}
	tReal              = Typing{kind: tyReal}
	tOverloadedNum     = Typing{kind: tyOverloadedNum}
	tOverloadedNumText = Typing{kind: tyOverloadedNumText}
)

// shallowEqual reports whether two Typings are the same variant with the
// same immediate (non-recursively-resolved) components; the fast path
// tryUnify checks before any overload or structural handling.
func shallowEqual(a, b Typing) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case tyVariable:
		return a.varID == b.varID
	case tyChar, tyInt, tyReal, tyOverloadedNum, tyOverloadedNumText:
		return true
	case tyFun:
		return a.arg == b.arg && a.ret == b.ret
	case tyTuple:
		if len(a.tuple) != len(b.tuple) {
			return false
		}
		for i := range a.tuple {
			if a.tuple[i] != b.tuple[i] {
				return false
			}
		}
		return true
	case tyDatatype:
		return a.dtName == b.dtName
	}
	return false
}

// pool wraps unify.Pool[Typing] with the caching of ground scalar/datatype
// nodes and the fresh-variable counter. The three scalar nodes are
// pre-interned at construction; datatype nodes are cached on first use.
type pool struct {
	p     *unify.Pool[Typing]
	cache map[typingCacheKey]unify.NodeID
	next  uint64
}

type typingCacheKey struct {
	kind typingKind
	name symbol.Symbol
}

func newPool() *pool {
	pl := &pool{p: unify.New[Typing](), cache: make(map[typingCacheKey]unify.NodeID)}
	pl.cacheNode(typingCacheKey{kind: tyChar}, tChar)
	pl.cacheNode(typingCacheKey{kind: tyInt}, tInt)
	pl.cacheNode(typingCacheKey{kind: tyReal}, tReal)
	return pl
}

func (pl *pool) cacheNode(key typingCacheKey, t Typing) unify.NodeID {
	id := pl.p.NodeNew(t)
	pl.cache[key] = id
	return id
}

// node allocates a fresh, uncached node (used for compound types and
// overloaded placeholders, which are never shared across call sites).
func (pl *pool) node(t Typing) unify.NodeID {
	return pl.p.NodeNew(t)
}

func (pl *pool) tyvar() unify.NodeID {
	id := pl.next
	pl.next++
	return pl.node(variable(id))
}

func (pl *pool) tyInt() unify.NodeID  { return pl.cache[typingCacheKey{kind: tyInt}] }
func (pl *pool) tyChar() unify.NodeID { return pl.cache[typingCacheKey{kind: tyChar}] }
func (pl *pool) tyReal() unify.NodeID { return pl.cache[typingCacheKey{kind: tyReal}] }

func (pl *pool) tyBool(boolName symbol.Symbol) unify.NodeID {
	key := typingCacheKey{kind: tyDatatype, name: boolName}
	if id, ok := pl.cache[key]; ok {
		return id
	}
	return pl.cacheNode(key, datatype(boolName))
}

func (pl *pool) tyDatatype(name symbol.Symbol) unify.NodeID {
	key := typingCacheKey{kind: tyDatatype, name: name}
	if id, ok := pl.cache[key]; ok {
		return id
	}
	return pl.cacheNode(key, datatype(name))
}

func (pl *pool) tyOverloadedNum() unify.NodeID     { return pl.node(tOverloadedNum) }
func (pl *pool) tyOverloadedNumText() unify.NodeID { return pl.node(tOverloadedNumText) }

// convert interns a surface core.Type into the inference-type pool,
// allocating fresh nodes for every compound component; used to seed
// ExternCall and constructor-payload constraints from already-fixed
// surface types.
func (pl *pool) convert(t core.Type) unify.NodeID {
	switch t.Kind() {
	case core.TyVariable:
		return pl.node(variable(t.VarID()))
	case core.TyInt:
		return pl.tyInt()
	case core.TyReal:
		return pl.tyReal()
	case core.TyChar:
		return pl.tyChar()
	case core.TyFun:
		arg, ret := t.Fun()
		return pl.node(fn(pl.convert(arg), pl.convert(ret)))
	case core.TyTuple:
		elems := t.Tuple()
		ids := make([]unify.NodeID, len(elems))
		for i, e := range elems {
			ids[i] = pl.convert(e)
		}
		return pl.node(tup(ids))
	case core.TyDatatype:
		return pl.tyDatatype(t.DatatypeName())
	}
	panic("internal error: typing: unreachable type kind in convert")
}

// resolve walks a pool node to its final ground Type.
func resolve(pl *unify.Pool[Typing], id unify.NodeID) core.Type {
	return convTy(pl, pl.ValueOf(id))
}

func convTy(pl *unify.Pool[Typing], t Typing) core.Type {
	switch t.kind {
	case tyVariable:
		return core.TVar(t.varID)
	case tyChar:
		return core.TChar
	case tyInt:
		return core.TInt
	case tyReal:
		return core.TReal
	case tyFun:
		return core.TFun(resolve(pl, t.arg), resolve(pl, t.ret))
	case tyTuple:
		elems := make([]core.Type, len(t.tuple))
		for i, id := range t.tuple {
			elems[i] = resolve(pl, id)
		}
		return core.TTuple(elems...)
	case tyDatatype:
		return core.TDatatype(t.dtName)
	case tyOverloadedNum, tyOverloadedNumText:
		// Both overloaded placeholders default to Int if still unresolved
		// at reification. Only here, never during unification.
		return core.TInt
	}
	panic("internal error: typing: unreachable typing kind in convTy")
}
