package mtbdd

import (
	"testing"

	"github.com/fsmkit/mtbdd.go/common"
	"github.com/stretchr/testify/require"
)

func mustInsert(t *testing.T, d *MTBDD, name Value, bits string, value Value) {
	err := d.InsertBitString(name, common.MustBitStringFromString(bits), value)
	require.NoError(t, err)
}

func pathMap(t *testing.T, d *MTBDD, name Value) map[string]Value {
	it, err := d.AllPaths(name)
	require.NoError(t, err)
	ret := make(map[string]Value)
	it.Iterate(func(bits common.BitString, value Value) bool {
		_, ok := ret[bits.String()]
		require.False(t, ok, "duplicate path %s", bits.String())
		ret[bits.String()] = value
		return true
	})
	return ret
}

// checkStoreInvariants verifies hash-cons uniqueness and the strict
// variable ordering over the whole store
func checkStoreInvariants(t *testing.T, d *MTBDD) {
	for k, n := range d.store.unique {
		require.Equal(t, keyOf(n), k)
	}
	for _, n := range d.store.ordered() {
		if n.IsTerminal() {
			continue
		}
		require.True(t, n.varIndex >= 0 && n.varIndex < d.numVars)
		if n.lo != nil {
			require.Greater(t, n.lo.level(d.numVars), n.varIndex)
		}
		if n.hi != nil {
			require.Greater(t, n.hi.level(d.numVars), n.varIndex)
		}
	}
}

func checkReachability(t *testing.T, d *MTBDD) {
	marked := make(map[*Node]struct{})
	var mark func(n *Node)
	mark = func(n *Node) {
		if n == nil {
			return
		}
		if _, ok := marked[n]; ok {
			return
		}
		marked[n] = struct{}{}
		if !n.IsTerminal() {
			mark(n.lo)
			mark(n.hi)
		}
	}
	for _, root := range d.roots {
		mark(root)
	}
	for _, n := range d.store.unique {
		_, ok := marked[n]
		require.True(t, ok, "unreachable node id %d", n.id)
	}
}

func checkReduced(t *testing.T, d *MTBDD) {
	for _, n := range d.store.unique {
		if !n.IsTerminal() && n.lo != nil {
			require.False(t, n.lo == n.hi, "redundant test at variable %d", n.varIndex)
		}
	}
}

func checkComplete(t *testing.T, d *MTBDD) {
	for _, n := range d.store.unique {
		if n.IsTerminal() {
			continue
		}
		require.NotNil(t, n.lo)
		require.NotNil(t, n.hi)
	}
}

func TestCreatePrimitives(t *testing.T) {
	t.Run("terminals are hash-consed", func(t *testing.T) {
		d := New(3)
		t1 := d.CreateTerminal(7)
		t2 := d.CreateTerminal(7)
		require.True(t, t1 == t2)
		require.Equal(t, 1, d.Size())
		require.True(t, t1.IsTerminal())
		require.Equal(t, Value(7), t1.Value())
	})
	t.Run("inner nodes are hash-consed", func(t *testing.T) {
		d := New(3)
		term := d.CreateTerminal(1)
		n1, err := d.CreateNode(1, term, nil)
		require.NoError(t, err)
		n2, err := d.CreateNode(1, term, nil)
		require.NoError(t, err)
		require.True(t, n1 == n2)
		n3, err := d.CreateNode(1, nil, term)
		require.NoError(t, err)
		require.True(t, n1 != n3)
		require.Equal(t, 3, d.Size())
	})
	t.Run("variable range is checked", func(t *testing.T) {
		d := New(2)
		_, err := d.CreateNode(2, nil, nil)
		require.ErrorIs(t, err, common.ErrInvalidVariable)
		_, err = d.CreateNode(-1, nil, nil)
		require.ErrorIs(t, err, common.ErrInvalidVariable)
	})
	t.Run("child order is checked", func(t *testing.T) {
		d := New(3)
		n0, err := d.CreateNode(1, nil, nil)
		require.NoError(t, err)
		_, err = d.CreateNode(1, n0, nil)
		require.ErrorIs(t, err, common.ErrChildOrder)
		_, err = d.CreateNode(2, nil, n0)
		require.ErrorIs(t, err, common.ErrChildOrder)
	})
	t.Run("duplicate root", func(t *testing.T) {
		d := New(2)
		_, err := d.CreateRoot(0)
		require.NoError(t, err)
		_, err = d.CreateRoot(0)
		require.ErrorIs(t, err, common.ErrDuplicateRoot)
	})
	t.Run("promote rebinds", func(t *testing.T) {
		d := New(2)
		_, err := d.CreateRoot(0)
		require.NoError(t, err)
		term := d.CreateTerminal(3)
		d.PromoteToRoot(term, 0)
		root, ok := d.GetRoot(0)
		require.True(t, ok)
		require.True(t, root == term)
	})
}

func TestInsertBitString(t *testing.T) {
	t.Run("validation", func(t *testing.T) {
		d := New(3)
		_, err := d.CreateRoot(0)
		require.NoError(t, err)
		err = d.InsertBitString(0, common.MustBitStringFromString("00"), 1)
		require.ErrorIs(t, err, common.ErrWrongBitStringLength)
		err = d.InsertBitString(0, common.MustBitStringFromString(""), 1)
		require.ErrorIs(t, err, common.ErrWrongBitStringLength)
		err = d.InsertBitString(1, common.MustBitStringFromString("000"), 1)
		require.ErrorIs(t, err, common.ErrRootNotFound)
		err = d.InsertBitString(0, common.MustBitStringFromString("000"), Sink)
		require.ErrorIs(t, err, common.ErrReservedValue)
	})
	t.Run("idempotent", func(t *testing.T) {
		d := New(3)
		_, err := d.CreateRoot(0)
		require.NoError(t, err)
		mustInsert(t, d, 0, "010", 4)
		root1, _ := d.GetRoot(0)
		size1 := d.Size()
		mustInsert(t, d, 0, "010", 4)
		root2, _ := d.GetRoot(0)
		require.True(t, root1 == root2)
		require.Equal(t, size1, d.Size())
	})
	t.Run("maximal prefix is shared", func(t *testing.T) {
		d := New(3)
		_, err := d.CreateRoot(0)
		require.NoError(t, err)
		mustInsert(t, d, 0, "000", 1)
		mustInsert(t, d, 0, "001", 2)
		d.Trim()
		// one chain of three tests plus two terminals
		require.Equal(t, 5, d.Size())
		root, _ := d.GetRoot(0)
		last := root.Lo().Lo()
		require.Equal(t, 2, last.VarIndex())
		require.Equal(t, Value(1), last.Lo().Value())
		require.Equal(t, Value(2), last.Hi().Value())
		checkStoreInvariants(t, d)
		checkReachability(t, d)
	})
	t.Run("disagreeing paths keep sharing", func(t *testing.T) {
		d := New(2)
		_, err := d.CreateRoot(0)
		require.NoError(t, err)
		mustInsert(t, d, 0, "00", 1)
		loBefore := mustRoot(t, d, 0).Lo()
		mustInsert(t, d, 0, "10", 2)
		require.True(t, mustRoot(t, d, 0).Lo() == loBefore)
		require.Equal(t, Value(1), mustEval(t, d, 0, "00"))
		require.Equal(t, Value(2), mustEval(t, d, 0, "10"))
		checkStoreInvariants(t, d)
	})
}

func mustEval(t *testing.T, d *MTBDD, name Value, bits string) Value {
	ret, err := d.Eval(name, common.MustBitStringFromString(bits))
	require.NoError(t, err)
	return ret
}

func TestCanonicalization(t *testing.T) {
	t.Run("trim drops unreachable nodes", func(t *testing.T) {
		d := New(2)
		_, err := d.CreateRoot(0)
		require.NoError(t, err)
		mustInsert(t, d, 0, "00", 1)
		mustInsert(t, d, 0, "01", 2)
		before := d.Size()
		d.Trim()
		require.Less(t, d.Size(), before)
		checkReachability(t, d)
		checkStoreInvariants(t, d)
	})
	t.Run("trim keeps handles valid", func(t *testing.T) {
		d := New(2)
		_, err := d.CreateRoot(0)
		require.NoError(t, err)
		mustInsert(t, d, 0, "00", 1)
		root, _ := d.GetRoot(0)
		d.Trim()
		rootAfter, _ := d.GetRoot(0)
		require.True(t, root == rootAfter)
	})
	t.Run("remove redundant tests collapses equal children", func(t *testing.T) {
		// scenario S2
		d := New(3)
		_, err := d.CreateRoot(0)
		require.NoError(t, err)
		mustInsert(t, d, 0, "000", 2)
		mustInsert(t, d, 0, "001", 2)
		d.Trim().RemoveRedundantTests()
		root, _ := d.GetRoot(0)
		require.Equal(t, 0, root.VarIndex())
		n1 := root.Lo()
		require.Equal(t, 1, n1.VarIndex())
		require.Nil(t, root.Hi())
		// the variable-2 test is gone: low of n1 is the terminal directly
		require.True(t, n1.Lo().IsTerminal())
		require.Equal(t, Value(2), n1.Lo().Value())
		require.Nil(t, n1.Hi())
		require.Equal(t, 3, d.Size())
		checkReduced(t, d)
		checkStoreInvariants(t, d)
	})
	t.Run("make complete fills holes and completes terminals", func(t *testing.T) {
		// scenario S5
		d := New(2)
		_, err := d.CreateRoot(0)
		require.NoError(t, err)
		mustInsert(t, d, 0, "00", 1)
		d.MakeCompleteDefault()
		require.Equal(t, []Value{0, 1, Sink}, d.RootNames())
		sinkRoot, ok := d.GetRoot(Sink)
		require.True(t, ok)
		require.True(t, sinkRoot.IsTerminal())
		require.Equal(t, Sink, sinkRoot.Value())
		oneRoot, ok := d.GetRoot(1)
		require.True(t, ok)
		require.True(t, oneRoot == sinkRoot)
		checkComplete(t, d)
		checkStoreInvariants(t, d)
	})
	t.Run("make complete without any hole is a no-op", func(t *testing.T) {
		d := New(1)
		_, err := d.CreateRoot(0)
		require.NoError(t, err)
		mustInsert(t, d, 0, "0", 0)
		mustInsert(t, d, 0, "1", 0)
		d.Trim().RemoveRedundantTests().MakeCompleteDefault()
		size := d.Size()
		names := d.RootNames()
		d.MakeCompleteDefault()
		require.Equal(t, size, d.Size())
		require.Equal(t, names, d.RootNames())
		_, ok := d.GetRoot(Sink)
		require.False(t, ok)
	})
	t.Run("custom sink value keeps names contiguous", func(t *testing.T) {
		d := New(2)
		_, err := d.CreateRoot(0)
		require.NoError(t, err)
		mustInsert(t, d, 0, "00", 1)
		d.Trim().RemoveRedundantTests().MakeComplete(2, true)
		require.Equal(t, []Value{0, 1, 2}, d.RootNames())
		v, err := d.Eval(0, common.MustBitStringFromString("11"))
		require.NoError(t, err)
		require.Equal(t, Value(2), v)
		checkComplete(t, d)
	})
}

func TestScenarioSinglePath(t *testing.T) {
	// scenario S1
	d := New(3)
	_, err := d.CreateRoot(0)
	require.NoError(t, err)
	mustInsert(t, d, 0, "000", 7)
	d.Canonicalize()
	paths := pathMap(t, d, 0)
	require.Len(t, paths, 8)
	for bits, value := range paths {
		if bits == "000" {
			require.Equal(t, Value(7), value)
		} else {
			require.Equal(t, Sink, value)
		}
	}
	checkStoreInvariants(t, d)
	checkReachability(t, d)
	checkReduced(t, d)
	checkComplete(t, d)
}

func TestScenarioDontCareExpansion(t *testing.T) {
	// scenario S3
	d := New(3)
	_, err := d.CreateRoot(0)
	require.NoError(t, err)
	for _, bits := range []string{"100", "101", "110", "111"} {
		mustInsert(t, d, 0, bits, 5)
	}
	d.Canonicalize()

	// exactly one test of variable 0 with terminal children
	root, _ := d.GetRoot(0)
	require.Equal(t, 0, root.VarIndex())
	require.True(t, root.Hi().IsTerminal())
	require.Equal(t, Value(5), root.Hi().Value())
	require.True(t, root.Lo().IsTerminal())
	require.Equal(t, Sink, root.Lo().Value())
	require.Equal(t, 3, d.Size())

	paths := pathMap(t, d, 0)
	require.Len(t, paths, 8)
	for bits, value := range paths {
		if bits[0] == '1' {
			require.Equal(t, Value(5), value)
		} else {
			require.Equal(t, Sink, value)
		}
	}
}

func TestScenarioIdempotentPipeline(t *testing.T) {
	// scenario S6
	d := New(3)
	_, err := d.CreateRoot(0)
	require.NoError(t, err)
	mustInsert(t, d, 0, "000", 2)
	mustInsert(t, d, 0, "001", 2)
	mustInsert(t, d, 0, "110", 1)
	d.Canonicalize()

	size := d.Size()
	names := d.RootNames()
	paths0 := pathMap(t, d, 0)
	digests := d.Digests()

	d.Canonicalize()
	require.Equal(t, size, d.Size())
	require.Equal(t, names, d.RootNames())
	require.Equal(t, paths0, pathMap(t, d, 0))
	require.Equal(t, digests, d.Digests())
}

// the path round-trip law: enumerated pairs evaluate back to themselves,
// and every never-inserted assignment evaluates to the sink
func TestPathRoundTrip(t *testing.T) {
	d := New(4)
	_, err := d.CreateRoot(0)
	require.NoError(t, err)
	inserted := map[string]Value{
		"0000": 1,
		"0110": 2,
		"0111": 2,
		"1010": 3,
	}
	for bits, value := range inserted {
		mustInsert(t, d, 0, bits, value)
	}
	d.Canonicalize()
	paths := pathMap(t, d, 0)
	require.Len(t, paths, 16)
	for bits, value := range paths {
		require.Equal(t, value, mustEval(t, d, 0, bits))
		if expected, ok := inserted[bits]; ok {
			require.Equal(t, expected, value)
		} else {
			require.Equal(t, Sink, value)
		}
	}
}
