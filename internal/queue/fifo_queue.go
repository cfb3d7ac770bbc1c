package queue

import (
	"github.com/coproc-go/coproc/api/priority"
	"github.com/coproc-go/coproc/coprocerrors"
)

// FIFOQueue is the plain (non-priority) Queue implementation: within a
// channel, items are delivered in the order they were Put, regardless of
// the priority argument (which is accepted only to satisfy the Queue
// interface and is otherwise ignored).
type FIFOQueue struct {
	channels map[Channel]*fifoBucket
}

var _ Queue = (*FIFOQueue)(nil)

type fifoBucket struct {
	items []interface{}
	head  int
}

// NewFIFO returns an empty FIFO queue.
func NewFIFO() *FIFOQueue {
	return &FIFOQueue{channels: make(map[Channel]*fifoBucket)}
}

// Put implements Queue.
func (q *FIFOQueue) Put(item interface{}, _ priority.Priority, channel Channel) {
	channel = normalize(channel)
	b, ok := q.channels[channel]
	if !ok {
		b = &fifoBucket{}
		q.channels[channel] = b
	}
	b.items = append(b.items, item)
}

// Get implements Queue.
func (q *FIFOQueue) Get(channel Channel) (interface{}, error) {
	channel = normalize(channel)
	b, ok := q.channels[channel]
	if !ok || b.head >= len(b.items) {
		return nil, coprocerrors.QueueEmptyErrorf("no items queued for channel %v", channel)
	}
	item := b.items[b.head]
	b.items[b.head] = nil // drop the reference so the backing array can be GC'd incrementally
	b.head++
	// Reclaim the slice once fully drained instead of growing forever.
	if b.head == len(b.items) {
		b.items = nil
		b.head = 0
	}
	return item, nil
}

// Empty implements Queue.
func (q *FIFOQueue) Empty(channel Channel) bool {
	return q.Size(channel) == 0
}

// Size implements Queue.
func (q *FIFOQueue) Size(channel Channel) int {
	channel = normalize(channel)
	b, ok := q.channels[channel]
	if !ok {
		return 0
	}
	return len(b.items) - b.head
}
