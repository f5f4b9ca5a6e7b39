package ring

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpscRing_PanicsOnBadCapacity(t *testing.T) {
	assert.Panics(t, func() { NewSpscRing[int](0) })
	assert.Panics(t, func() { NewSpscRing[int](3) })
	assert.Panics(t, func() { NewSpscRing[int](1) })
}

func TestSpscRing_PushPopOrder(t *testing.T) {
	r := NewSpscRing[int](4)
	assert.Equal(t, 4, r.Capacity())

	for i := 0; i < 4; i++ {
		require.True(t, r.Push(i))
	}
	assert.False(t, r.Push(99), "ring should report full at capacity")

	for i := 0; i < 4; i++ {
		var out int
		require.True(t, r.Pop(&out))
		assert.Equal(t, i, out)
	}

	var out int
	assert.False(t, r.Pop(&out), "ring should report empty once drained")
}

func TestSpscRing_WrapAround(t *testing.T) {
	r := NewSpscRing[int](8)
	for round := 0; round < 100; round++ {
		for i := 0; i < 5; i++ {
			require.True(t, r.Push(round*5+i))
		}
		for i := 0; i < 5; i++ {
			var out int
			require.True(t, r.Pop(&out))
			assert.Equal(t, round*5+i, out)
		}
	}
}

func TestSpscRing_TryPopN(t *testing.T) {
	r := NewSpscRing[int](16)
	for i := 0; i < 10; i++ {
		require.True(t, r.Push(i))
	}

	buf := make([]int, 4)
	n := r.TryPopN(buf)
	assert.Equal(t, 4, n)
	assert.Equal(t, []int{0, 1, 2, 3}, buf)

	n = r.TryPopN(buf)
	assert.Equal(t, 4, n)
	assert.Equal(t, []int{4, 5, 6, 7}, buf)

	n = r.TryPopN(buf)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int{8, 9}, buf[:n])

	n = r.TryPopN(buf)
	assert.Equal(t, 0, n)
}

func TestSpscRing_ApproxSizeNeverExceedsCapacity(t *testing.T) {
	r := NewSpscRing[int](4)
	for i := 0; i < 4; i++ {
		r.Push(i)
		assert.LessOrEqual(t, r.ApproxSize(), r.Capacity())
	}
	var out int
	for i := 0; i < 4; i++ {
		r.Pop(&out)
		assert.GreaterOrEqual(t, r.ApproxSize(), 0)
	}
	assert.Equal(t, 0, r.ApproxSize())
}

// TestSpscRing_ProducerConsumerRace is the end-to-end SPSC scenario: one
// producer pushes a large, known sequence while one consumer pops to
// completion; the popped sequence must equal the pushed sequence exactly,
// with no loss and no duplication, even across many wrap-arounds of a small
// ring.
func TestSpscRing_ProducerConsumerRace(t *testing.T) {
	const n = 1_000_000
	const capacity = 16

	r := NewSpscRing[int](capacity)
	done := make(chan struct{})
	var mismatch int

	go func() {
		defer close(done)
		for want := 0; want < n; {
			var got int
			if !r.Pop(&got) {
				runtime.Gosched()
				continue
			}
			if got != want {
				mismatch++
			}
			want++
		}
	}()

	for i := 0; i < n; {
		if r.Push(i) {
			i++
		} else {
			runtime.Gosched()
		}
	}

	<-done
	assert.Equal(t, 0, mismatch)
}

func TestSpscRing_EmptyRingNeverPopsStale(t *testing.T) {
	r := NewSpscRing[string](2)
	var out string = "sentinel"
	assert.False(t, r.Pop(&out))
	assert.Equal(t, "sentinel", out, "Pop must not mutate out on empty")
}
