package bptree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFindVariantsAgreeOnHitsAndMisses(t *testing.T) {
	tree := newTestTree(t, 8)
	for k := int32(0); k < 500; k += 2 { // only even keys present
		require.NoError(t, tree.Insert(k, "v"))
	}

	for k := int32(0); k < 500; k++ {
		wantHit := k%2 == 0

		_, ok := tree.FindLinear(k)
		require.Equal(t, wantHit, ok, "linear at %d", k)

		_, ok = tree.FindBinary(k)
		require.Equal(t, wantHit, ok, "binary at %d", k)

		_, ok = tree.FindSIMD(k)
		require.Equal(t, wantHit, ok, "simd at %d", k)
	}
}

func TestFindOnEmptyTree(t *testing.T) {
	tree := newTestTree(t, 8)
	_, ok := tree.FindLinear(1)
	require.False(t, ok)
	_, ok = tree.FindBinary(1)
	require.False(t, ok)
	_, ok = tree.FindSIMD(1)
	require.False(t, ok)
}

func TestDescentBoundAndEqualityBoundAgreeWithLinearScan(t *testing.T) {
	keys := []int32{2, 4, 4, 6, 8} // deliberately includes a run, exercising boundary math
	for _, probe := range []int32{0, 2, 3, 4, 5, 6, 9} {
		descent := descentBound(keys, probe)
		for i := 0; i < descent; i++ {
			require.LessOrEqual(t, keys[i], probe)
		}
		if descent < len(keys) {
			require.Greater(t, keys[descent], probe)
		}

		eq := equalityBound(keys, probe)
		for i := 0; i < eq; i++ {
			require.Less(t, keys[i], probe)
		}
		if eq < len(keys) {
			require.GreaterOrEqual(t, keys[eq], probe)
		}
	}
}
