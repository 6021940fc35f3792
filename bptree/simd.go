package bptree

import (
	"cmp"
	"math/bits"
	"time"

	"go.uber.org/zap"

	"github.com/klauspost/cpuid/v2"
)

var simdDiagnosticsOnce bool

// logSIMDDiagnosticsOnce emits a single informational line reporting
// whether the host CPU advertises AVX2. This never gates which code
// path FindSIMD actually runs — the chunked scan below is a portable
// stand-in for a real vector comparison, expressible on any 256-bit
// SIMD set per the module's design notes, not wired to an assembly
// backend in this build.
func (t *Tree[K, V]) logSIMDDiagnosticsOnce() {
	if simdDiagnosticsOnce {
		return
	}
	simdDiagnosticsOnce = true
	t.log.Info("simd diagnostics",
		zap.Bool("avx2", cpuid.CPU.Supports(cpuid.AVX2)),
		zap.String("brand", cpuid.CPU.BrandName))
}

// FindSIMD looks up key using a chunk-of-8 packed comparison plus
// bitmask extraction, specialized for int32 keys. For any other key
// type it falls back to FindBinary.
func (t *Tree[K, V]) FindSIMD(key K) (V, bool) {
	t.logSIMDDiagnosticsOnce()
	start := time.Now()

	ik, ok := any(key).(int32)
	if !ok {
		t.lastSIMDFallback = true
		t.metrics.RecordSIMDFallback()
		v, found := t.findBinary(key)
		t.metrics.RecordFind("simd", time.Since(start))
		return v, found
	}

	t.lastSIMDFallback = false
	v, found := t.findSIMDInt32(ik)
	t.metrics.RecordFind("simd", time.Since(start))
	return v, found
}

// SIMDDiagnostics reports whether the host CPU advertises AVX2 (purely
// informational — FindSIMD's portable scan runs regardless) and
// whether the most recent FindSIMD call took the int32 fast path or
// fell back to FindBinary.
func (t *Tree[K, V]) SIMDDiagnostics() (avx2Available bool, lastScanUsedFallback bool) {
	return cpuid.CPU.Supports(cpuid.AVX2), t.lastSIMDFallback
}

// findSIMDInt32 performs the actual descent. Go has no portable way to
// issue the AVX2 instructions the original describes (no inline
// assembly, no compiler builtins), so each 8-key chunk is compared
// with a plain loop; math/bits.TrailingZeros8 plays the role of the
// hardware bitmask-scan instruction. Lanes at or past num_keys are
// never read, matching the "indeterminate tail lanes" rule.
func (t *Tree[K, V]) findSIMDInt32(key int32) (V, bool) {
	h := t.root
	for {
		n := t.node(h)

		if n.IsLeaf {
			idx, hit := scanChunksEqual(&n.Keys, n.NumKeys, key)
			if hit {
				return n.Values[idx], true
			}
			return zeroValue[V](), false
		}

		idx := scanChunksDescent(&n.Keys, n.NumKeys, key)
		h = n.Children[idx]
	}
}

// keyAsInt32 is called only once the caller has already asserted
// K == int32 via FindSIMD's type assertion; it re-derives that same fact
// per element so scanChunksDescent/scanChunksEqual can work over a
// generic Node's Keys array without unsafe pointer arithmetic.
func keyAsInt32[K cmp.Ordered](k K) int32 {
	return any(k).(int32)
}

// scanChunksDescent finds the smallest index i in [0, numKeys] with
// key < keys[i], eight lanes at a time: the hard part (c) descent
// rule, scalarized.
func scanChunksDescent[K cmp.Ordered](keys *[MaxFanout]K, numKeys int, key int32) int {
	for base := 0; base < numKeys; base += 8 {
		var mask uint8
		limit := base + 8
		if limit > numKeys {
			limit = numKeys
		}
		for lane := base; lane < limit; lane++ {
			if keyAsInt32(keys[lane]) > key {
				mask |= 1 << uint(lane-base)
			}
		}
		if mask != 0 {
			return base + bits.TrailingZeros8(mask)
		}
	}
	return numKeys
}

// scanChunksEqual finds an index i in [0, numKeys) with keys[i] ==
// key, eight lanes at a time, returning (0, false) if absent.
func scanChunksEqual[K cmp.Ordered](keys *[MaxFanout]K, numKeys int, key int32) (int, bool) {
	for base := 0; base < numKeys; base += 8 {
		var mask uint8
		limit := base + 8
		if limit > numKeys {
			limit = numKeys
		}
		for lane := base; lane < limit; lane++ {
			if keyAsInt32(keys[lane]) == key {
				mask |= 1 << uint(lane-base)
			}
		}
		if mask != 0 {
			return base + bits.TrailingZeros8(mask), true
		}
	}
	return 0, false
}
