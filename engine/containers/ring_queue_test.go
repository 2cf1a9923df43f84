package containers

import (
	"testing"

	"github.com/spaghettifunk/anima-skin/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingQueueOrderAndWrap(t *testing.T) {
	q := NewRingQueue[int](2)
	require.NoError(t, q.Enqueue(1))
	require.NoError(t, q.Enqueue(2))
	assert.True(t, q.IsFull())
	assert.ErrorIs(t, q.Enqueue(3), core.ErrQueueFull)

	v, err := q.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	require.NoError(t, q.Enqueue(3))
	p, err := q.Peek()
	require.NoError(t, err)
	assert.Equal(t, 2, p)

	v, _ = q.Dequeue()
	assert.Equal(t, 2, v)
	v, _ = q.Dequeue()
	assert.Equal(t, 3, v)
	assert.True(t, q.IsEmpty())

	_, err = q.Dequeue()
	assert.ErrorIs(t, err, core.ErrQueueEmpty)
}
