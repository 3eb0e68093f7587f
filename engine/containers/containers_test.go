package containers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingQueueFIFO(t *testing.T) {
	q := NewRingQueue[int](3)
	require.NoError(t, q.Enqueue(1))
	require.NoError(t, q.Enqueue(2))
	require.NoError(t, q.Enqueue(3))
	assert.True(t, q.IsFull())
	assert.ErrorIs(t, q.Enqueue(4), ErrQueueFull)

	v, err := q.Peek()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = q.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	require.NoError(t, q.Enqueue(4))

	var got []int
	q.Each(func(i int) { got = append(got, i) })
	assert.Equal(t, []int{2, 3, 4}, got)
}

func TestRingQueuePushEvictsOldest(t *testing.T) {
	q := NewRingQueue[float64](2)
	q.Push(1)
	q.Push(2)
	q.Push(3)
	assert.Equal(t, 2, q.Len())
	v, err := q.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	_, _ = q.Dequeue()
	_, err = q.Dequeue()
	assert.ErrorIs(t, err, ErrQueueEmpty)
}

func TestArenaReleasesNewestFirst(t *testing.T) {
	a := NewResourceArena("chain")
	var order []string
	for _, name := range []string{"swapchain", "views", "framebuffers"} {
		n := name
		a.Push(n, func() error {
			order = append(order, n)
			return nil
		})
	}
	assert.Equal(t, []string{"swapchain", "views", "framebuffers"}, a.Names())
	require.NoError(t, a.ReleaseAll())
	assert.Equal(t, []string{"framebuffers", "views", "swapchain"}, order)
	assert.Equal(t, 0, a.Len())
}

func TestArenaKeepsReleasingAfterFailure(t *testing.T) {
	a := NewResourceArena("chain")
	boom := errors.New("boom")
	released := 0
	a.Push("first", func() error { released++; return nil })
	a.Push("second", func() error { released++; return boom })
	a.Push("third", nil)

	err := a.ReleaseAll()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, released)
	assert.Equal(t, 0, a.Len())
}
