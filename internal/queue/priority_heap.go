package queue

import "github.com/coproc-go/coproc/api/priority"

// priorityHeap is a container/heap.Interface over the distinct priority
// values currently holding at least one item in a channel's bucket set.
// It is a min-heap: the lowest priority value -- the most urgent one --
// is always at index 0.
type priorityHeap []priority.Priority

func (h priorityHeap) Len() int            { return len(h) }
func (h priorityHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h priorityHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *priorityHeap) Push(x interface{}) { *h = append(*h, x.(priority.Priority)) }

func (h *priorityHeap) Pop() interface{} {
	old := *h
	n := len(old)
	last := old[n-1]
	*h = old[:n-1]
	return last
}
