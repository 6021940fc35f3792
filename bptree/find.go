package bptree

import (
	"cmp"
	"time"
)

// FindLinear looks up key by scanning keys left-to-right at every
// level: descend at the first key greater than the search key, match
// at the first key equal to it. Branch-predictor friendly for small
// num_keys; see FindBinary for the O(log M)-per-node alternative.
func (t *Tree[K, V]) FindLinear(key K) (V, bool) {
	start := time.Now()
	v, ok := t.findLinear(key)
	t.metrics.RecordFind("linear", time.Since(start))
	return v, ok
}

func (t *Tree[K, V]) findLinear(key K) (V, bool) {
	h := t.root
	for {
		n := t.node(h)
		if n.IsLeaf {
			for i := 0; i < n.NumKeys; i++ {
				if n.Keys[i] == key {
					return n.Values[i], true
				}
				if n.Keys[i] > key {
					break
				}
			}
			return zeroValue[V](), false
		}
		i := 0
		for i < n.NumKeys && key >= n.Keys[i] {
			i++
		}
		h = n.Children[i]
	}
}

// FindBinary looks up key with a classical lower-bound binary search
// over keys[0..num_keys) at every level, using the same descent rule
// as FindLinear.
func (t *Tree[K, V]) FindBinary(key K) (V, bool) {
	start := time.Now()
	v, ok := t.findBinary(key)
	t.metrics.RecordFind("binary", time.Since(start))
	return v, ok
}

func (t *Tree[K, V]) findBinary(key K) (V, bool) {
	h := t.root
	for {
		n := t.node(h)
		if n.IsLeaf {
			i := equalityBound(n.Keys[:n.NumKeys], key)
			if i < n.NumKeys && n.Keys[i] == key {
				return n.Values[i], true
			}
			return zeroValue[V](), false
		}
		i := descentBound(n.Keys[:n.NumKeys], key)
		h = n.Children[i]
	}
}

// descentBound returns the smallest index i in [0, len(keys)] such
// that key < keys[i], or len(keys) if no such index exists — the
// descent rule expressed as a binary search.
func descentBound[K cmp.Ordered](keys []K, key K) int {
	lo, hi := 0, len(keys)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if keys[mid] <= key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// equalityBound returns the smallest index i in [0, len(keys)] such
// that keys[i] >= key, the position key must occupy if present. Unlike
// descentBound it excludes an exact match from the "go right" half, so
// it lands on the match itself rather than one past it.
func equalityBound[K cmp.Ordered](keys []K, key K) int {
	lo, hi := 0, len(keys)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if keys[mid] < key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
