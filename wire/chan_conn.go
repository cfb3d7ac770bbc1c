package wire

import (
	"sync"

	"github.com/coproc-go/coproc/api/frame"
	"github.com/coproc-go/coproc/coprocerrors"
)

// ChanConn is an in-process Conn backed by a condition variable guarding
// a plain slice inbox. It exists because net.Pipe -- the obvious stdlib
// choice -- has no way to ask "would a read block right now" without
// consuming a byte, and Poll needs exactly that.
type ChanConn struct {
	mu     sync.Mutex
	cond   *sync.Cond
	inbox  []frame.Frame
	closed bool
	peer   *ChanConn
}

var _ Conn = (*ChanConn)(nil)

// NewChanPipe returns two connected ChanConn endpoints sharing a pair of
// inboxes. Neither is privileged; the two sides are symmetric, as
// Messenger.NewPair requires.
func NewChanPipe() (*ChanConn, *ChanConn) {
	a := &ChanConn{}
	b := &ChanConn{}
	a.cond = sync.NewCond(&a.mu)
	b.cond = sync.NewCond(&b.mu)
	a.peer = b
	b.peer = a
	return a, b
}

// Send implements Conn.
func (c *ChanConn) Send(f frame.Frame) error {
	c.mu.Lock()
	selfClosed := c.closed
	c.mu.Unlock()
	if selfClosed {
		return coprocerrors.TransportBrokenErrorf("send on closed pipe")
	}

	peer := c.peer
	peer.mu.Lock()
	defer peer.mu.Unlock()
	if peer.closed {
		return coprocerrors.TransportBrokenErrorf("peer closed its end of the pipe")
	}
	peer.inbox = append(peer.inbox, f)
	peer.cond.Signal()
	return nil
}

// Recv implements Conn.
func (c *ChanConn) Recv() (frame.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.inbox) == 0 && !c.closed {
		c.cond.Wait()
	}
	if len(c.inbox) == 0 {
		return frame.Frame{}, coprocerrors.TransportBrokenErrorf("pipe closed with no frame pending")
	}
	f := c.inbox[0]
	c.inbox = c.inbox[1:]
	return f, nil
}

// Poll implements Conn.
func (c *ChanConn) Poll() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inbox) > 0
}

// Close implements Conn.
func (c *ChanConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.cond.Broadcast()
	c.mu.Unlock()
	return nil
}
