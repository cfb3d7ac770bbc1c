// Package procexec is the cross-process implementation of wire.Conn: it
// launches a worker as a real child OS process, connects to it over two
// os.Pipe pairs passed down as inherited file descriptors, and frames
// each side as newline-delimited JSON (jsoniter). It also provides the
// re-exec machinery a worker binary needs, since Go -- unlike Python's
// multiprocessing -- can't pickle a closure across a fork: the function a
// child runs has to be looked up by name after the child re-execs itself,
// not captured at spawn time.
package procexec

import (
	"bufio"
	"os"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/coproc-go/coproc/api/frame"
	"github.com/coproc-go/coproc/coprocerrors"
	"github.com/coproc-go/coproc/wire"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// PipeConn is a wire.Conn backed by a pair of *os.File pipe ends. Reading
// happens on a dedicated goroutine that appends decoded frames to an
// inbox guarded by a condition variable -- the same idiom wire.ChanConn
// uses for its in-process peer, so Poll's "would Recv block" question has
// a cheap, non-consuming answer here too.
type PipeConn struct {
	w   *os.File
	wMu sync.Mutex

	mu     sync.Mutex
	cond   *sync.Cond
	inbox  []frame.Frame
	closed bool
	err    error

	r *os.File
}

var _ wire.Conn = (*PipeConn)(nil)

// NewPipeConn wraps an already-open read end and write end of a duplex
// channel (two os.Pipe pairs, oriented so r reads what the peer wrote)
// into a PipeConn and starts its background reader.
func NewPipeConn(r, w *os.File) *PipeConn {
	c := &PipeConn{r: r, w: w}
	c.cond = sync.NewCond(&c.mu)
	go c.readLoop()
	return c
}

func (c *PipeConn) readLoop() {
	reader := bufio.NewReader(c.r)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			c.fail(coprocerrors.TransportBrokenFrom(errors.Wrap(err, "procexec: pipe read failed")))
			return
		}
		var f frame.Frame
		if err := json.Unmarshal(line, &f); err != nil {
			c.fail(coprocerrors.TransportBrokenFrom(errors.Wrap(err, "procexec: malformed frame on wire")))
			return
		}
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		c.inbox = append(c.inbox, f)
		c.cond.Signal()
		c.mu.Unlock()
	}
}

func (c *PipeConn) fail(err error) {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		c.err = err
		c.cond.Broadcast()
	}
	c.mu.Unlock()
}

// Send implements wire.Conn.
func (c *PipeConn) Send(f frame.Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return coprocerrors.TransportBrokenFrom(errors.Wrap(err, "procexec: frame not serializable"))
	}
	data = append(data, '\n')

	c.wMu.Lock()
	defer c.wMu.Unlock()
	if _, err := c.w.Write(data); err != nil {
		return coprocerrors.TransportBrokenFrom(errors.Wrap(err, "procexec: pipe write failed"))
	}
	return nil
}

// Recv implements wire.Conn.
func (c *PipeConn) Recv() (frame.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.inbox) == 0 && !c.closed {
		c.cond.Wait()
	}
	if len(c.inbox) == 0 {
		if c.err == nil {
			return frame.Frame{}, coprocerrors.TransportBrokenErrorf("pipe closed with no frame pending")
		}
		return frame.Frame{}, c.err
	}
	f := c.inbox[0]
	c.inbox = c.inbox[1:]
	return f, nil
}

// Poll implements wire.Conn.
func (c *PipeConn) Poll() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inbox) > 0
}

// Close implements wire.Conn.
func (c *PipeConn) Close() error {
	c.mu.Lock()
	alreadyClosed := c.closed
	c.closed = true
	c.cond.Broadcast()
	c.mu.Unlock()

	if alreadyClosed {
		return nil
	}
	c.wMu.Lock()
	werr := c.w.Close()
	c.wMu.Unlock()
	rerr := c.r.Close()
	if werr != nil {
		return werr
	}
	return rerr
}
