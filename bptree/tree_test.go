package bptree

import (
	"cmp"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arthurzhang/arbtree/internal/arena"
)

func newTestTree(t *testing.T, fanout int) *Tree[int32, string] {
	t.Helper()
	nodes, err := arena.New[Node[int32, string]](16 << 20)
	require.NoError(t, err)
	tree, err := NewTree[int32, string](nodes, fanout)
	require.NoError(t, err)
	return tree
}

func TestNewTreeRejectsBadFanout(t *testing.T) {
	nodes, err := arena.New[Node[int32, string]](1 << 20)
	require.NoError(t, err)

	_, err = NewTree[int32, string](nodes, 3)
	require.ErrorIs(t, err, ErrInvalidFanout)

	_, err = NewTree[int32, string](nodes, MaxFanout+1)
	require.ErrorIs(t, err, ErrInvalidFanout)
}

func TestNewTreeRejectsNilArena(t *testing.T) {
	_, err := NewTree[int32, string](nil, 256)
	require.ErrorIs(t, err, ErrArenaUnavailable)
}

// M=4, insert [10, 20, 5, 6] in order.
func TestLeafSplitScenario(t *testing.T) {
	tree := newTestTree(t, 4)

	require.NoError(t, tree.Insert(10, "v10"))
	require.NoError(t, tree.Insert(20, "v20"))
	require.NoError(t, tree.Insert(5, "v5"))

	leaf := tree.node(tree.root)
	require.True(t, leaf.IsLeaf)
	require.Equal(t, 3, leaf.NumKeys)
	require.Equal(t, [3]int32{5, 10, 20}, [3]int32{leaf.Keys[0], leaf.Keys[1], leaf.Keys[2]})

	require.NoError(t, tree.Insert(6, "v6"))

	root := tree.node(tree.root)
	require.False(t, root.IsLeaf)
	require.Equal(t, 1, root.NumKeys)
	require.Equal(t, int32(10), root.Keys[0])

	left := tree.node(root.Children[0])
	right := tree.node(root.Children[1])
	require.Equal(t, []int32{5, 6}, left.Keys[:left.NumKeys])
	require.Equal(t, []int32{10, 20}, right.Keys[:right.NumKeys])

	v, ok := tree.FindLinear(6)
	require.True(t, ok)
	require.Equal(t, "v6", v)

	v, ok = tree.FindLinear(10)
	require.True(t, ok)
	require.Equal(t, "v10", v)

	_, ok = tree.FindLinear(7)
	require.False(t, ok)
}

// M=4, insert 1..10. The resulting tree stays balanced
// and every key is retrievable by all three find variants.
func TestDepthTwoScenario(t *testing.T) {
	tree := newTestTree(t, 4)
	for k := int32(1); k <= 10; k++ {
		require.NoError(t, tree.Insert(k, "v"))
	}

	root := tree.node(tree.root)
	require.False(t, root.IsLeaf)
	require.True(t, isBalanced(tree))

	// root -> internal -> leaf
	inner := tree.node(root.Children[0])
	require.False(t, inner.IsLeaf)
	require.True(t, tree.node(inner.Children[0]).IsLeaf)

	for k := int32(1); k <= 10; k++ {
		_, ok := tree.FindLinear(k)
		require.True(t, ok, "linear miss for %d", k)
		_, ok = tree.FindBinary(k)
		require.True(t, ok, "binary miss for %d", k)
		_, ok = tree.FindSIMD(k)
		require.True(t, ok, "simd miss for %d", k)
	}
}

// Scenario 3: overwrite law.
func TestOverwriteLaw(t *testing.T) {
	tree := newTestTree(t, 4)
	require.NoError(t, tree.Insert(42, "v100"))
	require.NoError(t, tree.Insert(42, "v200"))

	v, ok := tree.FindLinear(42)
	require.True(t, ok)
	require.Equal(t, "v200", v)

	leaf := tree.node(tree.root)
	require.Equal(t, 1, leaf.NumKeys)
}

// Overwrite across a populated multi-level tree: re-inserting a key
// equal to an internal separator must not create a duplicate leaf
// entry (the bug the internal-descent rule resolution guards against).
func TestOverwriteAtSeparatorDoesNotDuplicate(t *testing.T) {
	tree := newTestTree(t, 4)
	for k := int32(1); k <= 10; k++ {
		require.NoError(t, tree.Insert(k, "v"))
	}

	root := tree.node(tree.root)
	separator := root.Keys[0]

	require.NoError(t, tree.Insert(separator, "updated"))

	v, ok := tree.FindLinear(separator)
	require.True(t, ok)
	require.Equal(t, "updated", v)

	count := 0
	var walk func(h int32)
	walk = func(h int32) {
		n := tree.node(h)
		if n.IsLeaf {
			for i := 0; i < n.NumKeys; i++ {
				if n.Keys[i] == separator {
					count++
				}
			}
			return
		}
		for i := 0; i <= n.NumKeys; i++ {
			walk(n.Children[i])
		}
	}
	walk(tree.root)
	require.Equal(t, 1, count, "separator key must appear in exactly one leaf slot")
}

func TestInsertIntoEmptyTree(t *testing.T) {
	tree := newTestTree(t, 4)
	require.NoError(t, tree.Insert(1, "only"))

	v, ok := tree.FindLinear(1)
	require.True(t, ok)
	require.Equal(t, "only", v)
}

func TestMMinusOneInsertsDoNotSplit(t *testing.T) {
	tree := newTestTree(t, 8)
	for k := int32(0); k < 7; k++ {
		require.NoError(t, tree.Insert(k, "v"))
	}
	root := tree.node(tree.root)
	require.True(t, root.IsLeaf)
	require.Equal(t, 7, root.NumKeys)
}

func TestLargeScaleRandomPermutation(t *testing.T) {
	tree := newTestTree(t, 32)
	const n = 5000

	keys := make([]int32, n)
	for i := range keys {
		keys[i] = int32(i)
	}
	rng := newLCG(7)
	for i := len(keys) - 1; i > 0; i-- {
		j := int(rng.next() % uint64(i+1))
		keys[i], keys[j] = keys[j], keys[i]
	}

	for _, k := range keys {
		require.NoError(t, tree.Insert(k, "v"))
	}

	for k := int32(0); k < n; k++ {
		_, ok := tree.FindBinary(k)
		require.True(t, ok, "missing key %d", k)
	}
	require.True(t, isBalanced(tree))
}

// lcg is a tiny deterministic linear-congruential generator, used so
// tests are reproducible without depending on math/rand's seeding API.
type lcg struct{ state uint64 }

func newLCG(seed uint64) *lcg { return &lcg{state: seed} }

func (l *lcg) next() uint64 {
	l.state = l.state*6364136223846793005 + 1442695040888963407
	return l.state
}

func isBalanced[K cmp.Ordered, V any](t *Tree[K, V]) bool {
	depth := -1
	var walk func(h int32, d int) bool
	walk = func(h int32, d int) bool {
		n := t.node(h)
		if n.IsLeaf {
			if depth == -1 {
				depth = d
			}
			return depth == d
		}
		for i := 0; i <= n.NumKeys; i++ {
			if !walk(n.Children[i], d+1) {
				return false
			}
		}
		return true
	}
	return walk(t.root, 0)
}
