// Package metrics tracks process-wide counters for the tree: node
// allocations, split events, and per-find-variant call counts and
// cumulative latency, exposed via expvar.
package metrics

import (
	"expvar"
	"strconv"
	"sync/atomic"
	"time"
)

// Metrics tracks tree performance counters.
type Metrics struct {
	NodeAllocCount     *expvar.Int
	LeafSplitCount     *expvar.Int
	InternalSplitCount *expvar.Int
	RootGrowthCount    *expvar.Int

	FindLinearCount   *expvar.Int
	FindBinaryCount   *expvar.Int
	FindSIMDCount     *expvar.Int
	FindSIMDFallbacks *expvar.Int

	FindLinearLatencyUS *expvar.Float
	FindBinaryLatencyUS *expvar.Float
	FindSIMDLatencyUS   *expvar.Float

	InsertCount     atomic.Int64
	InsertLatencyNS atomic.Int64 // nanoseconds, summed
}

// GlobalMetrics is a process-wide instance created at package init.
// Trees do not use it unless it is passed to Tree.SetMetrics; the demo
// CLI and the benchmark harness use their own instances from NewMetrics.
var GlobalMetrics *Metrics

func init() {
	GlobalMetrics = NewMetrics()
}

var instanceSeq atomic.Int64

// NewMetrics creates a fresh set of counters. Each expvar name carries
// a monotonically increasing suffix past the first instance so that
// multiple trees (e.g. one per test) don't collide in the process-wide
// expvar namespace.
func NewMetrics() *Metrics {
	id := instanceSeq.Add(1)
	suffix := func(name string) string {
		if id == 1 {
			return name
		}
		return name + "_" + strconv.FormatInt(id, 10)
	}

	return &Metrics{
		NodeAllocCount:      expvar.NewInt(suffix("bptree_node_allocs")),
		LeafSplitCount:      expvar.NewInt(suffix("bptree_leaf_splits")),
		InternalSplitCount:  expvar.NewInt(suffix("bptree_internal_splits")),
		RootGrowthCount:     expvar.NewInt(suffix("bptree_root_growths")),
		FindLinearCount:     expvar.NewInt(suffix("bptree_find_linear_count")),
		FindBinaryCount:     expvar.NewInt(suffix("bptree_find_binary_count")),
		FindSIMDCount:       expvar.NewInt(suffix("bptree_find_simd_count")),
		FindSIMDFallbacks:   expvar.NewInt(suffix("bptree_find_simd_fallbacks")),
		FindLinearLatencyUS: expvar.NewFloat(suffix("bptree_find_linear_latency_us")),
		FindBinaryLatencyUS: expvar.NewFloat(suffix("bptree_find_binary_latency_us")),
		FindSIMDLatencyUS:   expvar.NewFloat(suffix("bptree_find_simd_latency_us")),
	}
}

// RecordFind accumulates a call count and latency for one of the three
// find variants ("linear", "binary", "simd").
func (m *Metrics) RecordFind(variant string, latency time.Duration) {
	us := float64(latency.Nanoseconds()) / float64(time.Microsecond)
	switch variant {
	case "linear":
		m.FindLinearCount.Add(1)
		m.FindLinearLatencyUS.Add(us)
	case "binary":
		m.FindBinaryCount.Add(1)
		m.FindBinaryLatencyUS.Add(us)
	case "simd":
		m.FindSIMDCount.Add(1)
		m.FindSIMDLatencyUS.Add(us)
	}
}

// RecordSIMDFallback notes that a FindSIMD call fell back to binary
// search because the tree's key type isn't int32.
func (m *Metrics) RecordSIMDFallback() {
	m.FindSIMDFallbacks.Add(1)
}

// RecordInsert accumulates an Insert call's latency.
func (m *Metrics) RecordInsert(latency time.Duration) {
	m.InsertCount.Add(1)
	m.InsertLatencyNS.Add(latency.Nanoseconds())
}

// RecordAlloc notes that a node was allocated from the arena.
func (m *Metrics) RecordAlloc() {
	m.NodeAllocCount.Add(1)
}

// RecordSplit notes a leaf or internal split.
func (m *Metrics) RecordSplit(leaf bool) {
	if leaf {
		m.LeafSplitCount.Add(1)
	} else {
		m.InternalSplitCount.Add(1)
	}
}

// RecordRootGrowth notes that the tree grew a new root.
func (m *Metrics) RecordRootGrowth() {
	m.RootGrowthCount.Add(1)
}
