package arena

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fatNode struct {
	a, b, c, d int64
}

func TestNewRejectsTooSmallCapacity(t *testing.T) {
	_, err := New[fatNode](1)
	require.ErrorIs(t, err, ErrAllocationFailed)
}

func TestAllocateBumpsOffsetAndRoundsToCacheLine(t *testing.T) {
	a, err := New[fatNode](1 << 16)
	require.NoError(t, err)

	h0, p0, err := a.Allocate()
	require.NoError(t, err)
	require.Equal(t, int32(0), h0)
	require.NotNil(t, p0)

	h1, p1, err := a.Allocate()
	require.NoError(t, err)
	require.Equal(t, int32(1), h1)
	require.NotSame(t, p0, p1)

	require.Equal(t, 2*cacheLine, a.Used())
}

func TestAllocateFailsPastCapacity(t *testing.T) {
	a, err := New[fatNode](cacheLine) // room for exactly one item
	require.NoError(t, err)

	_, _, err = a.Allocate()
	require.NoError(t, err)

	_, _, err = a.Allocate()
	require.True(t, errors.Is(err, ErrOutOfArena))
}

func TestResetInvalidatesOffsetButNotCapacity(t *testing.T) {
	a, err := New[fatNode](2 * cacheLine)
	require.NoError(t, err)

	_, _, err = a.Allocate()
	require.NoError(t, err)
	require.Equal(t, cacheLine, a.Used())

	a.Reset()
	require.Equal(t, 0, a.Used())
	require.Equal(t, 2*cacheLine, a.Capacity())

	// the slot can be reused after reset
	h, _, err := a.Allocate()
	require.NoError(t, err)
	require.Equal(t, int32(0), h)
}

func TestUsedTracksExactlyTheRoundedSizeOfAllocatedItems(t *testing.T) {
	a, err := New[fatNode](10 * cacheLine)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, _, err := a.Allocate()
		require.NoError(t, err)
	}
	require.Equal(t, 5*cacheLine, a.Used())
	require.LessOrEqual(t, a.Used(), a.Capacity())
}
