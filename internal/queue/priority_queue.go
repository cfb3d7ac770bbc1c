package queue

import (
	"container/heap"

	"github.com/coproc-go/coproc/api/priority"
	"github.com/coproc-go/coproc/coprocerrors"
)

// bucketSet is the per-channel state: a min-heap of the priorities that
// currently have at least one item, and the items themselves, stacked
// per priority.
//
// Within a single priority bucket, delivery order is LIFO: Get pops the
// most recently Put item first. A deliberate choice, not an oversight --
// FIFO-per-bucket would need a ring or a second index for no real benefit
// to callers, who only rely on cross-bucket priority ordering.
type bucketSet struct {
	heap    priorityHeap
	buckets map[priority.Priority][]interface{}
	size    int
}

func newBucketSet() *bucketSet {
	return &bucketSet{
		buckets: make(map[priority.Priority][]interface{}),
	}
}

func (b *bucketSet) put(item interface{}, p priority.Priority) {
	bucket, ok := b.buckets[p]
	if !ok || len(bucket) == 0 {
		if !ok {
			b.buckets[p] = nil
		}
		heap.Push(&b.heap, p)
	}
	b.buckets[p] = append(b.buckets[p], item)
	b.size++
}

func (b *bucketSet) get() (interface{}, bool) {
	if b.heap.Len() == 0 {
		return nil, false
	}
	p := b.heap[0]
	bucket := b.buckets[p]
	last := len(bucket) - 1
	item := bucket[last]
	bucket = bucket[:last]
	// The bucket map entry is retained even when empty -- see
	// PriorityBucket in the data model: "empty bucket remains in the map
	// (acceptable memory overhead given bounded priorities)". Only the
	// heap entry, which drives which priority is considered "active", is
	// removed.
	b.buckets[p] = bucket
	if len(bucket) == 0 {
		heap.Pop(&b.heap)
	}
	b.size--
	return item, true
}

// PriorityQueue is the priority-ordered Queue implementation: within a
// channel, the lowest-valued priority is always popped before a higher
// one; across priorities equal to each other, order is LIFO (see
// bucketSet).
type PriorityQueue struct {
	channels map[Channel]*bucketSet
}

var _ Queue = (*PriorityQueue)(nil)

// New returns an empty priority-ordered queue.
func New() *PriorityQueue {
	return &PriorityQueue{channels: make(map[Channel]*bucketSet)}
}

// Put implements Queue.
func (q *PriorityQueue) Put(item interface{}, p priority.Priority, channel Channel) {
	channel = normalize(channel)
	b, ok := q.channels[channel]
	if !ok {
		b = newBucketSet()
		q.channels[channel] = b
	}
	b.put(item, p)
}

// Get implements Queue.
func (q *PriorityQueue) Get(channel Channel) (interface{}, error) {
	channel = normalize(channel)
	b, ok := q.channels[channel]
	if !ok {
		return nil, coprocerrors.QueueEmptyErrorf("no items queued for channel %v", channel)
	}
	item, ok := b.get()
	if !ok {
		return nil, coprocerrors.QueueEmptyErrorf("no items queued for channel %v", channel)
	}
	return item, nil
}

// Empty implements Queue.
func (q *PriorityQueue) Empty(channel Channel) bool {
	return q.Size(channel) == 0
}

// Size implements Queue.
func (q *PriorityQueue) Size(channel Channel) int {
	channel = normalize(channel)
	b, ok := q.channels[channel]
	if !ok {
		return 0
	}
	return b.size
}
