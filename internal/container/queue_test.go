package container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFOOrder(t *testing.T) {
	q := NewQueue[int]()
	assert.True(t, q.Empty())

	q.PushBack(1)
	q.PushBack(2)
	q.PushBack(3)
	require.Equal(t, 3, q.Len())

	for _, want := range []int{1, 2, 3} {
		got, ok := q.PopFront()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	_, ok := q.PopFront()
	assert.False(t, ok, "popping an empty queue should report ok=false")
	assert.True(t, q.Empty())
}

func TestQueue_RequeueOrderingIsFIFONotLIFO(t *testing.T) {
	// A persistently-failing job must not jump ahead of jobs admitted
	// after it (§4.7's FIFO requirement for the failed queue).
	q := NewQueue[string]()
	q.PushBack("job-1")
	q.PushBack("job-2")

	first, _ := q.PopFront()
	assert.Equal(t, "job-1", first)

	q.PushBack("job-1") // requeued after failing again
	q.PushBack("job-3")

	// job-2, then job-1 (requeued), then job-3: FIFO, not reinserted
	// ahead of job-3.
	second, _ := q.PopFront()
	third, _ := q.PopFront()
	fourth, _ := q.PopFront()
	assert.Equal(t, "job-2", second)
	assert.Equal(t, "job-1", third)
	assert.Equal(t, "job-3", fourth)
}

func TestByID_PutGetDelete(t *testing.T) {
	b := NewByID[int, string]()
	assert.Equal(t, 0, b.Len())

	b.Put(1, "running")
	v, ok := b.Get(1)
	require.True(t, ok)
	assert.Equal(t, "running", v)

	b.Delete(1)
	_, ok = b.Get(1)
	assert.False(t, ok)
	assert.Equal(t, 0, b.Len())
}
