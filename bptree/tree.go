package bptree

import (
	"cmp"
	"time"

	"go.uber.org/zap"

	"github.com/arthurzhang/arbtree/internal/arena"
	"github.com/arthurzhang/arbtree/internal/metrics"
)

// Tree is an in-memory B+ tree with fixed fan-out M, backed by a
// single arena.Arena[Node[K,V]]. All nodes are addressed by int32
// arena handle rather than pointer; the root handle is the only
// structural state the Tree itself holds.
type Tree[K cmp.Ordered, V any] struct {
	nodes   *arena.Arena[Node[K, V]]
	root    int32
	fanout  int
	log     *zap.Logger
	metrics *metrics.Metrics

	lastSIMDFallback bool
}

// NewTree constructs an empty tree (a single empty leaf root) backed
// by nodes, with fan-out fanout. fanout must fall within [4,
// MaxFanout]; nodes must be non-nil, since the tree has nowhere else
// to allocate its root.
func NewTree[K cmp.Ordered, V any](nodes *arena.Arena[Node[K, V]], fanout int) (*Tree[K, V], error) {
	if nodes == nil {
		return nil, ErrArenaUnavailable
	}
	if fanout < 4 || fanout > MaxFanout {
		return nil, ErrInvalidFanout
	}

	t := &Tree[K, V]{
		nodes:   nodes,
		fanout:  fanout,
		log:     zap.NewNop(),
		metrics: metrics.NewMetrics(),
	}

	rootHandle, _, err := t.allocLeaf()
	if err != nil {
		return nil, err
	}
	t.root = rootHandle
	return t, nil
}

// SetLogger attaches a structured logger. A nil logger is ignored; by
// default the tree logs nothing (zap.NewNop()).
func (t *Tree[K, V]) SetLogger(log *zap.Logger) {
	if log != nil {
		t.log = log
	}
}

// SetMetrics swaps in a caller-owned metrics.Metrics, letting multiple
// trees share one set of counters or isolate their own.
func (t *Tree[K, V]) SetMetrics(m *metrics.Metrics) {
	if m != nil {
		t.metrics = m
	}
}

func (t *Tree[K, V]) allocLeaf() (int32, *Node[K, V], error) {
	h, n, err := t.nodes.Allocate()
	if err != nil {
		return -1, nil, err
	}
	*n = newLeaf[K, V]()
	t.metrics.RecordAlloc()
	return h, n, nil
}

func (t *Tree[K, V]) allocInternal() (int32, *Node[K, V], error) {
	h, n, err := t.nodes.Allocate()
	if err != nil {
		return -1, nil, err
	}
	*n = newInternal[K, V]()
	t.metrics.RecordAlloc()
	return h, n, nil
}

func (t *Tree[K, V]) node(h int32) *Node[K, V] {
	return t.nodes.At(h)
}

// splitResult communicates a propagated split up the recursion: the
// newly allocated right sibling's handle and the separator key that
// must be inserted into the parent.
type splitResult[K cmp.Ordered] struct {
	didSplit  bool
	sibling   int32
	separator K
}

// Insert makes key map to value. If key already exists, its value is
// replaced (upsert). Fails with arena.ErrOutOfArena if a required node
// cannot be allocated; per the design note on insert-failure atomicity,
// the tree must be treated as poisoned after such a failure since a
// split may have completed partway through the recursion.
func (t *Tree[K, V]) Insert(key K, value V) error {
	start := time.Now()
	defer func() { t.metrics.RecordInsert(time.Since(start)) }()

	split, err := t.insertRecursive(t.root, key, value)
	if err != nil {
		return err
	}
	if !split.didSplit {
		return nil
	}

	newRootHandle, newRoot, err := t.allocInternal()
	if err != nil {
		return err
	}
	newRoot.NumKeys = 1
	newRoot.Keys[0] = split.separator
	newRoot.Children[0] = t.root
	newRoot.Children[1] = split.sibling
	t.root = newRootHandle
	t.metrics.RecordRootGrowth()
	t.log.Debug("root grew", zap.Any("separator", split.separator))
	return nil
}

// insertRecursive descends to the leaf that owns key, inserts or
// overwrites there, and propagates any split back up through the
// internal nodes on the path.
//
// Descent here (both at internal nodes and within insertIntoLeaf)
// advances past every keys[i] with key >= keys[i], landing on the
// smallest index with key < keys[i] — the same rule FindLinear and
// FindBinary use. This matters at internal nodes specifically: a
// separator is always copied up as the smallest key of its right
// subtree, so routing a re-inserted key equal to a separator on
// key <= keys[i] would send it into the wrong (left) subtree and
// create a duplicate leaf entry, breaking the overwrite law. Leaf
// placement uses the identical rule so its subsequent "keys[i-1] ==
// key" overwrite check lands on the existing entry rather than
// missing it.
func (t *Tree[K, V]) insertRecursive(h int32, key K, value V) (splitResult[K], error) {
	n := t.node(h)

	if n.IsLeaf {
		return t.insertIntoLeaf(h, n, key, value)
	}

	i := 0
	for i < n.NumKeys && key >= n.Keys[i] {
		i++
	}

	childSplit, err := t.insertRecursive(n.Children[i], key, value)
	if err != nil {
		return splitResult[K]{}, err
	}
	if !childSplit.didSplit {
		return splitResult[K]{}, nil
	}

	return t.insertSeparator(h, n, i, childSplit)
}

func (t *Tree[K, V]) insertIntoLeaf(h int32, n *Node[K, V], key K, value V) (splitResult[K], error) {
	i := 0
	for i < n.NumKeys && key >= n.Keys[i] {
		i++
	}

	if i > 0 && n.Keys[i-1] == key {
		n.Values[i-1] = value
		return splitResult[K]{}, nil
	}

	for j := n.NumKeys; j > i; j-- {
		n.Keys[j] = n.Keys[j-1]
		n.Values[j] = n.Values[j-1]
	}
	n.Keys[i] = key
	n.Values[i] = value
	n.NumKeys++

	if n.NumKeys < t.fanout {
		return splitResult[K]{}, nil
	}
	return t.splitLeaf(h, n)
}

// splitLeaf moves the right half of a full leaf into a new sibling;
// the separator is copied up (the new leaf's first key), not removed
// from the right side.
func (t *Tree[K, V]) splitLeaf(h int32, n *Node[K, V]) (splitResult[K], error) {
	mid := t.fanout / 2

	siblingHandle, sibling, err := t.allocLeaf()
	if err != nil {
		return splitResult[K]{}, err
	}
	count := n.NumKeys - mid
	for j := 0; j < count; j++ {
		sibling.Keys[j] = n.Keys[mid+j]
		sibling.Values[j] = n.Values[mid+j]
	}
	sibling.NumKeys = count
	n.NumKeys = mid

	t.metrics.RecordSplit(true)
	t.log.Debug("leaf split", zap.Int32("sibling", siblingHandle), zap.Any("separator", sibling.Keys[0]))

	return splitResult[K]{didSplit: true, sibling: siblingHandle, separator: sibling.Keys[0]}, nil
}

// insertSeparator places a child's propagated (separator, sibling)
// pair into the parent at position i, then splits the parent if it's
// now full.
func (t *Tree[K, V]) insertSeparator(h int32, n *Node[K, V], i int, childSplit splitResult[K]) (splitResult[K], error) {
	for j := n.NumKeys; j > i; j-- {
		n.Keys[j] = n.Keys[j-1]
	}
	for j := n.NumKeys + 1; j > i+1; j-- {
		n.Children[j] = n.Children[j-1]
	}
	n.Keys[i] = childSplit.separator
	n.Children[i+1] = childSplit.sibling
	n.NumKeys++

	if n.NumKeys < t.fanout {
		return splitResult[K]{}, nil
	}
	return t.splitInternal(h, n)
}

// splitInternal moves the middle key up (it is not retained in either
// child); children transferred equals the new node's num_keys + 1.
func (t *Tree[K, V]) splitInternal(h int32, n *Node[K, V]) (splitResult[K], error) {
	mid := t.fanout / 2
	separator := n.Keys[mid]

	siblingHandle, sibling, err := t.allocInternal()
	if err != nil {
		return splitResult[K]{}, err
	}
	newCount := n.NumKeys - mid - 1
	for j := 0; j < newCount; j++ {
		sibling.Keys[j] = n.Keys[mid+1+j]
	}
	for j := 0; j < newCount+1; j++ {
		sibling.Children[j] = n.Children[mid+1+j]
	}
	sibling.NumKeys = newCount
	n.NumKeys = mid

	t.metrics.RecordSplit(false)
	t.log.Debug("internal split", zap.Int32("sibling", siblingHandle), zap.Any("separator", separator))

	return splitResult[K]{didSplit: true, sibling: siblingHandle, separator: separator}, nil
}

// Remove deletes the entry for key, if present, from the leaf that
// would contain it. It never rebalances — see the best-effort
// deletion stance in the module's design notes. Returns silently if
// key is absent.
func (t *Tree[K, V]) Remove(key K) {
	h := t.root
	for {
		n := t.node(h)
		if n.IsLeaf {
			t.removeFromLeaf(n, key)
			return
		}
		i := 0
		for i < n.NumKeys && key >= n.Keys[i] {
			i++
		}
		h = n.Children[i]
	}
}

func (t *Tree[K, V]) removeFromLeaf(n *Node[K, V], key K) {
	for i := 0; i < n.NumKeys; i++ {
		if n.Keys[i] == key {
			for j := i; j < n.NumKeys-1; j++ {
				n.Keys[j] = n.Keys[j+1]
				n.Values[j] = n.Values[j+1]
			}
			n.Values[n.NumKeys-1] = zeroValue[V]()
			n.NumKeys--
			return
		}
	}
}

// Fanout reports the tree's configured fan-out M.
func (t *Tree[K, V]) Fanout() int { return t.fanout }

// Metrics exposes the tree's counters for external inspection.
func (t *Tree[K, V]) Metrics() *metrics.Metrics { return t.metrics }
