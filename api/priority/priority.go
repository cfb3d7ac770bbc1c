// Package priority defines the numeric priority carried by DATA frames
// and used to order delivery within a channel's local queue.
package priority

import "math"

// Priority is a DATA frame's urgency. Lower values are more urgent: a
// lower-valued priority is always popped from a channel's queue before a
// higher one. This is the opposite convention from "bigger number wins"
// priority schemes -- it matches a process scheduler's nice value more
// than a point score.
type Priority float64

// Lowest is the priority assigned to a payload that carries no numeric
// priority field of its own: it is served after everything else.
var Lowest = Priority(math.Inf(1))

// Highest is the most urgent priority a CLOSE or ERROR frame would carry,
// were they ever enqueued (they are not, in this design -- the messenger
// turns them into errors as soon as it drains them from the pipe).
var Highest = Priority(math.Inf(-1))

// Of extracts a payload's priority. Payloads that implement Prioritized
// report their own value; anything else is treated as Lowest.
func Of(payload interface{}) Priority {
	if p, ok := payload.(Prioritized); ok {
		return p.Priority()
	}
	return Lowest
}

// Prioritized is implemented by payloads that carry an explicit
// priority. Payloads that don't implement it are sent at Lowest.
type Prioritized interface {
	Priority() Priority
}
