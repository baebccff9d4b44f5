package replay

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const limit = uint64(1) << 60

func TestValidateCounterInOrder(t *testing.T) {
	var f Filter
	for i := uint64(0); i < 100; i++ {
		require.True(t, f.ValidateCounter(i, limit), "counter %d", i)
	}
}

func TestValidateCounterRejectsReplay(t *testing.T) {
	var f Filter
	require.True(t, f.ValidateCounter(5, limit))
	require.False(t, f.ValidateCounter(5, limit))
}

func TestValidateCounterAcceptsReorderWithinWindow(t *testing.T) {
	var f Filter
	require.True(t, f.ValidateCounter(100, limit))
	require.True(t, f.ValidateCounter(90, limit))
	require.False(t, f.ValidateCounter(90, limit))
}

func TestValidateCounterRejectsTooOld(t *testing.T) {
	var f Filter
	require.True(t, f.ValidateCounter(windowSize*2, limit))
	require.False(t, f.ValidateCounter(0, limit))
}

func TestValidateCounterRejectsAtOrAboveLimit(t *testing.T) {
	var f Filter
	require.False(t, f.ValidateCounter(limit, limit))
}

func TestResetClearsState(t *testing.T) {
	var f Filter
	require.True(t, f.ValidateCounter(10, limit))
	f.Reset()
	require.True(t, f.ValidateCounter(10, limit))
}

func TestValidateCounterSparseHighJump(t *testing.T) {
	var f Filter
	require.True(t, f.ValidateCounter(0, limit))
	require.True(t, f.ValidateCounter(1_000_000, limit))
	require.True(t, f.ValidateCounter(1_000_000-windowSize+1, limit))
	require.False(t, f.ValidateCounter(1_000_000-windowSize, limit))
}
