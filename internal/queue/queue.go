// Package queue implements the per-channel item queues that back a
// Messenger: a priority-ordered variant (PriorityQueue) and a FIFO
// variant (FIFOQueue), sharing one interface. Neither is safe for
// concurrent use -- each is owned by exactly one Messenger, which runs
// on a single goroutine and never spawns internal threads of its own.
package queue

import "github.com/coproc-go/coproc/api/priority"

// Channel mirrors frame.Channel without importing the frame package, to
// keep this package leaf-level.
type Channel = interface{}

// Queue is the shape both the priority and FIFO implementations satisfy.
type Queue interface {
	// Put enqueues item on channel at the given priority. FIFOQueue
	// ignores prio.
	Put(item interface{}, prio priority.Priority, channel Channel)
	// Get dequeues the next item for channel, or returns a
	// *coprocerrors.Error whose Code is CodeQueueEmpty if channel has
	// nothing queued.
	Get(channel Channel) (interface{}, error)
	// Empty reports whether channel currently has zero queued items.
	Empty(channel Channel) bool
	// Size reports how many items are currently queued for channel.
	Size(channel Channel) int
}

func normalize(c Channel) Channel {
	if c == nil {
		return nil
	}
	return c
}
