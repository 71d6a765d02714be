package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openthread-go/threadcore/internal/threaderr"
)

func TestQueueFIFOOrder(t *testing.T) {
	pool := NewPool(4)
	q := NewQueue()
	a, _ := NewMessage(pool, 0, TypeRaw)
	b, _ := NewMessage(pool, 0, TypeRaw)

	require.Equal(t, threaderr.None, q.Enqueue(a))
	require.Equal(t, threaderr.None, q.Enqueue(b))
	assert.Equal(t, 2, q.Len())

	assert.Same(t, a, q.Dequeue())
	assert.Same(t, b, q.Dequeue())
	assert.Nil(t, q.Dequeue())
}

func TestMessageNeverOnTwoQueues(t *testing.T) {
	pool := NewPool(4)
	m, _ := NewMessage(pool, 0, TypeRaw)
	q1 := NewQueue()
	q2 := NewQueue()

	require.Equal(t, threaderr.None, q1.Enqueue(m))
	assert.Equal(t, threaderr.InvalidState, q2.Enqueue(m))
}

func TestQueueRemoveFromMiddle(t *testing.T) {
	pool := NewPool(4)
	q := NewQueue()
	a, _ := NewMessage(pool, 0, TypeRaw)
	b, _ := NewMessage(pool, 0, TypeRaw)
	c, _ := NewMessage(pool, 0, TypeRaw)
	q.Enqueue(a)
	q.Enqueue(b)
	q.Enqueue(c)

	require.Equal(t, threaderr.None, q.Remove(b))
	assert.Equal(t, 2, q.Len())
	assert.Same(t, a, q.Dequeue())
	assert.Same(t, c, q.Dequeue())
}
