package structure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArena_AllocGetFree(t *testing.T) {
	a := NewArena[int](2)
	h1, err := a.Alloc()
	require.NoError(t, err)
	h2, err := a.Alloc()
	require.NoError(t, err)

	*a.Get(h1) = 11
	*a.Get(h2) = 22
	assert.Equal(t, 11, *a.Get(h1))
	assert.Equal(t, 22, *a.Get(h2))
	assert.EqualValues(t, 2, a.Len())

	a.Free(h1)
	assert.EqualValues(t, 1, a.Len())

	h3, err := a.Alloc()
	require.NoError(t, err)
	assert.Equal(t, 0, *a.Get(h3), "reused slot must be reset to zero value")
}

// TestArena_PointerStableAcrossGrow is the locator-stability invariant: a
// pointer obtained from Get before the arena grows must still point at the
// same logical value after growth, with no re-fetch required.
func TestArena_PointerStableAcrossGrow(t *testing.T) {
	a := NewArena[int](2)
	require.EqualValues(t, 2, a.Cap())

	h1, err := a.Alloc()
	require.NoError(t, err)
	p1 := a.Get(h1)
	*p1 = 42

	h2, err := a.Alloc()
	require.NoError(t, err)
	*a.Get(h2) = 43

	// This Alloc forces a grow: the arena started at capacity 2 and both
	// slots are now taken.
	h3, err := a.Alloc()
	require.NoError(t, err)
	assert.Greater(t, a.Cap(), int32(2))
	*a.Get(h3) = 44

	assert.Equal(t, 42, *p1, "pointer taken before grow must still read the pre-grow value")
	assert.Equal(t, 42, *a.Get(h1))
	assert.Equal(t, 43, *a.Get(h2))
	assert.Equal(t, 44, *a.Get(h3))

	*p1 = 100
	assert.Equal(t, 100, *a.Get(h1), "mutation through the pre-grow pointer must be visible via Get after grow")
}

func TestArena_MaxCapacityReached(t *testing.T) {
	a := NewArenaWithOptions[int](2, ArenaOptions{MaxCapacity: 2})
	_, err := a.Alloc()
	require.NoError(t, err)
	_, err = a.Alloc()
	require.NoError(t, err)

	_, err = a.Alloc()
	assert.ErrorIs(t, err, ErrMaxCapacityReached)
}

func TestArena_OnGrowCallback(t *testing.T) {
	var calls [][2]int32
	a := NewArenaWithOptions[int](2, ArenaOptions{
		OnGrow: func(oldCap, newCap int32) {
			calls = append(calls, [2]int32{oldCap, newCap})
		},
	})
	_, _ = a.Alloc()
	_, _ = a.Alloc()
	_, err := a.Alloc()
	require.NoError(t, err)

	require.Len(t, calls, 1)
	assert.Equal(t, [2]int32{2, 4}, calls[0])
}

func TestArena_FreeListReuseOrder(t *testing.T) {
	a := NewArena[int](4)
	h1, _ := a.Alloc()
	h2, _ := a.Alloc()
	a.Free(h1)
	a.Free(h2)

	// Freed slots come back LIFO: h2 was freed last, so it is reused first.
	h3, err := a.Alloc()
	require.NoError(t, err)
	assert.Equal(t, h2, h3)
}
