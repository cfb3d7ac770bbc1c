// Package reqcounter implements the per-channel request/reply bookkeeping
// a Messenger uses to answer "how many replies am I still owed on this
// channel": one small struct of atomics per tracked key, guarded by a map
// for lookup rather than a lock for the counters themselves.
package reqcounter

import (
	"sync"

	"go.uber.org/atomic"
)

type counters struct {
	requestsSent    atomic.Int64
	repliesReceived atomic.Int64
	messagesSent    atomic.Int64
	messagesReceived atomic.Int64
}

// Counter tracks, per channel, how many requests have been sent versus
// replies received, and the total traffic in each direction. All counts
// default to zero for any channel never seen before. A Counter is safe
// for concurrent use, though in normal operation it is only ever touched
// by the single goroutine that owns the enclosing Messenger.
type Counter struct {
	mu       sync.Mutex
	channels map[interface{}]*counters
}

// New returns an empty Counter.
func New() *Counter {
	return &Counter{channels: make(map[interface{}]*counters)}
}

func (c *Counter) entry(channel interface{}) *counters {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.channels[channel]
	if !ok {
		e = &counters{}
		c.channels[channel] = e
	}
	return e
}

// RecordSentRequest increments requests_sent(channel).
func (c *Counter) RecordSentRequest(channel interface{}) {
	c.entry(channel).requestsSent.Inc()
}

// RecordReceivedReply increments replies_received(channel).
func (c *Counter) RecordReceivedReply(channel interface{}) {
	c.entry(channel).repliesReceived.Inc()
}

// RecordSent increments messages_sent(channel).
func (c *Counter) RecordSent(channel interface{}) {
	c.entry(channel).messagesSent.Inc()
}

// RecordReceived increments messages_received(channel).
func (c *Counter) RecordReceived(channel interface{}) {
	c.entry(channel).messagesReceived.Inc()
}

// Remaining returns requests_sent(channel) - replies_received(channel),
// which is always >= 0 as long as callers never record more replies for
// a channel than requests sent on it.
func (c *Counter) Remaining(channel interface{}) int64 {
	e := c.entry(channel)
	return e.requestsSent.Load() - e.repliesReceived.Load()
}

// RequestsSent returns requests_sent(channel).
func (c *Counter) RequestsSent(channel interface{}) int64 {
	return c.entry(channel).requestsSent.Load()
}

// RepliesReceived returns replies_received(channel).
func (c *Counter) RepliesReceived(channel interface{}) int64 {
	return c.entry(channel).repliesReceived.Load()
}

// MessagesSent returns messages_sent(channel).
func (c *Counter) MessagesSent(channel interface{}) int64 {
	return c.entry(channel).messagesSent.Load()
}

// MessagesReceived returns messages_received(channel).
func (c *Counter) MessagesReceived(channel interface{}) int64 {
	return c.entry(channel).messagesReceived.Load()
}
