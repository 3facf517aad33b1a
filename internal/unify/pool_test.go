package unify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intMerge(_ *Pool[int], a, b int) (int, error) {
	if a != b {
		return 0, errors.New("mismatch")
	}
	return a, nil
}

func TestTryUnifyWithSameClass(t *testing.T) {
	p := New[int]()
	a := p.NodeNew(1)
	id, err := p.TryUnifyWith(a, a, intMerge)
	require.NoError(t, err)
	assert.Equal(t, a, id)
}

func TestTryUnifyWithMergesDistinctClasses(t *testing.T) {
	p := New[int]()
	a := p.NodeNew(1)
	b := p.NodeNew(1)
	id, err := p.TryUnifyWith(a, b, intMerge)
	require.NoError(t, err)
	assert.Equal(t, 1, p.ValueOf(id))
	assert.Equal(t, p.ValueOf(a), p.ValueOf(b))
}

func TestTryUnifyWithPropagatesMergeError(t *testing.T) {
	p := New[int]()
	a := p.NodeNew(1)
	b := p.NodeNew(2)
	_, err := p.TryUnifyWith(a, b, intMerge)
	require.Error(t, err)
	// union must not have happened
	assert.NotEqual(t, p.find(a), p.find(b))
}

func TestPathCompressionChain(t *testing.T) {
	p := New[int]()
	ids := make([]NodeID, 10)
	for i := range ids {
		ids[i] = p.NodeNew(7)
	}
	for i := 1; i < len(ids); i++ {
		_, err := p.TryUnifyWith(ids[0], ids[i], intMerge)
		require.NoError(t, err)
	}
	root := p.find(ids[0])
	for _, id := range ids {
		assert.Equal(t, root, p.find(id))
	}
}

// The merge callback in TestReentrantUnify simulates Fun(p1,b1) unifying
// Fun(p2,b2) by unioning the sub-component ids (held in a second pool)
// before returning the merged value.
type pair struct{ a, b NodeID }

func TestReentrantUnify(t *testing.T) {
	p := New[int]()
	arg1 := p.NodeNew(10)
	ret1 := p.NodeNew(20)
	arg2 := p.NodeNew(10)
	ret2 := p.NodeNew(20)

	fun1 := pair{arg1, ret1}
	fun2 := pair{arg2, ret2}

	poolPairs := New[pair]()
	f1 := poolPairs.NodeNew(fun1)
	f2 := poolPairs.NodeNew(fun2)

	merge := func(_ *Pool[pair], v1, v2 pair) (pair, error) {
		if _, err := p.TryUnifyWith(v1.a, v2.a, intMerge); err != nil {
			return pair{}, err
		}
		if _, err := p.TryUnifyWith(v1.b, v2.b, intMerge); err != nil {
			return pair{}, err
		}
		return v1, nil
	}

	_, err := poolPairs.TryUnifyWith(f1, f2, merge)
	require.NoError(t, err)
	assert.Equal(t, p.find(arg1), p.find(arg2))
	assert.Equal(t, p.find(ret1), p.find(ret2))
}
