package queue

import (
	"testing"

	"github.com/coproc-go/coproc/api/priority"
	"github.com/coproc-go/coproc/coprocerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityQueueOrdersByPriority(t *testing.T) {
	q := New()
	q.Put("three", priority.Priority(3), "ch")
	q.Put("one", priority.Priority(1), "ch")
	q.Put("two", priority.Priority(2), "ch")

	require.Equal(t, 3, q.Size("ch"))

	item, err := q.Get("ch")
	require.NoError(t, err)
	assert.Equal(t, "one", item)

	item, err = q.Get("ch")
	require.NoError(t, err)
	assert.Equal(t, "two", item)

	item, err = q.Get("ch")
	require.NoError(t, err)
	assert.Equal(t, "three", item)

	assert.True(t, q.Empty("ch"))
}

func TestPriorityQueueLIFOWithinBucket(t *testing.T) {
	q := New()
	q.Put("a", priority.Priority(1), nil)
	q.Put("b", priority.Priority(1), nil)
	q.Put("c", priority.Priority(1), nil)

	item, err := q.Get(nil)
	require.NoError(t, err)
	assert.Equal(t, "c", item, "equal-priority items pop LIFO")

	item, err = q.Get(nil)
	require.NoError(t, err)
	assert.Equal(t, "b", item)
}

func TestPriorityQueueChannelsAreIndependent(t *testing.T) {
	q := New()
	q.Put("x", priority.Lowest, "a")
	q.Put("y", priority.Lowest, "b")

	assert.Equal(t, 1, q.Size("a"))
	assert.Equal(t, 1, q.Size("b"))
	assert.Equal(t, 0, q.Size("c"))
}

func TestPriorityQueueGetEmptyChannel(t *testing.T) {
	q := New()
	_, err := q.Get("missing")
	require.Error(t, err)
	assert.Equal(t, coprocerrors.CodeQueueEmpty, coprocerrors.ErrorCode(err))
}

func TestPriorityQueueDefaultChannelIsNil(t *testing.T) {
	q := New()
	q.Put("v", priority.Lowest, nil)
	assert.Equal(t, 1, q.Size(nil))
}
