package infer

import (
	"github.com/webml-go/mlcore/internal/errors"
	"github.com/webml-go/mlcore/internal/unify"
)

// tryUnify is the reconciliation callback passed to
// unify.Pool.TryUnifyWith; it may itself recurse into the pool for
// Fun/Tuple sub-components, which the pool tolerates.
func tryUnify(pl *unify.Pool[Typing], t1, t2 Typing) (Typing, error) {
	if shallowEqual(t1, t2) {
		return t1, nil
	}

	// A variable unifies with anything: the other side wins and the
	// variable is discarded.
	if t1.kind == tyVariable {
		return t2, nil
	}
	if t2.kind == tyVariable {
		return t1, nil
	}

	// Overload resolution, both orders.
	if ov, ok := resolveOverload(t1, t2); ok {
		return ov, nil
	}
	if ov, ok := resolveOverload(t2, t1); ok {
		return ov, nil
	}

	switch {
	case t1.kind == tyFun && t2.kind == tyFun:
		arg, err := pl.TryUnifyWith(t1.arg, t2.arg, tryUnify)
		if err != nil {
			return Typing{}, err
		}
		ret, err := pl.TryUnifyWith(t1.ret, t2.ret, tryUnify)
		if err != nil {
			return Typing{}, err
		}
		return fn(arg, ret), nil

	case t1.kind == tyTuple && t2.kind == tyTuple:
		if len(t1.tuple) != len(t2.tuple) {
			return Typing{}, errors.MisMatch(convTy(pl, t1), convTy(pl, t2))
		}
		merged := make([]unify.NodeID, len(t1.tuple))
		for i := range t1.tuple {
			id, err := pl.TryUnifyWith(t1.tuple[i], t2.tuple[i], tryUnify)
			if err != nil {
				return Typing{}, err
			}
			merged[i] = id
		}
		return tup(merged), nil
	}

	return Typing{}, errors.MisMatch(convTy(pl, t1), convTy(pl, t2))
}

// resolveOverload handles the (overloaded, ground) pairs of the merge
// table in one fixed order; callers probe both (t1,t2) and (t2,t1).
func resolveOverload(overloaded, ground Typing) (Typing, bool) {
	switch overloaded.kind {
	case tyOverloadedNum:
		switch ground.kind {
		case tyInt:
			return tInt, true
		case tyReal:
			return tReal, true
		case tyOverloadedNumText:
			return tOverloadedNumText, true
		}
	case tyOverloadedNumText:
		switch ground.kind {
		case tyInt:
			return tInt, true
		case tyReal:
			return tReal, true
		case tyChar:
			return tChar, true
		case tyOverloadedNum:
			return tOverloadedNumText, true
		}
	}
	return Typing{}, false
}
