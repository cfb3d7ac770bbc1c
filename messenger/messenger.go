// Package messenger implements a priority-aware, channel-multiplexed
// message exchange: it wraps one end of a duplex pipe (wire.Conn), drains
// incoming frames into a per-channel queue, and exposes send primitives
// (request / reply / fire-and-forget / close / error) and receive
// primitives (blocking, available-now, remaining-for-channel).
//
// A Messenger is not safe for concurrent use by multiple goroutines: it
// assumes one goroutine per process, with concurrency expressed at the
// process level via message passing. Every method here assumes it's the
// only one running against a given Messenger at a time.
package messenger

import (
	"github.com/coproc-go/coproc/api/frame"
	"github.com/coproc-go/coproc/api/priority"
	"github.com/coproc-go/coproc/coprocerrors"
	"github.com/coproc-go/coproc/internal/queue"
	"github.com/coproc-go/coproc/internal/reqcounter"
	"github.com/coproc-go/coproc/wire"
	"go.uber.org/zap"
)

// Channel is re-exported from the frame package so callers don't need to
// import it separately.
type Channel = frame.Channel

// Kind selects the local queue discipline: priority-ordered or plain
// FIFO. The two only differ in queue implementation -- everything else
// about a Messenger is identical between them.
type Kind int

const (
	// Priority orders delivery within a channel by payload priority
	// (lowest value first; see api/priority).
	Priority Kind = iota
	// Plain delivers in wire (FIFO) order within a channel, ignoring
	// priority.
	Plain
)

func newQueue(kind Kind) queue.Queue {
	if kind == Priority {
		return queue.New()
	}
	return queue.NewFIFO()
}

// Option configures a Messenger.
type Option func(*Messenger)

// WithLogger attaches a logger used for SendError's convenience of also
// logging the cause locally. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(m *Messenger) { m.log = log }
}

// Messenger is one endpoint's view of a duplex pipe: queue, counters, and
// send/receive API.
type Messenger struct {
	conn    wire.Conn
	q       queue.Queue
	counter *reqcounter.Counter
	log     *zap.Logger
}

// New wraps an existing wire.Conn (typically the host- or worker-side end
// of a pipe a WorkerResource or its launcher already established) in a
// Messenger.
func New(kind Kind, conn wire.Conn, opts ...Option) *Messenger {
	m := &Messenger{
		conn:    conn,
		q:       newQueue(kind),
		counter: reqcounter.New(),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewPair constructs an in-process duplex pipe (wire.NewChanPipe) and
// returns two Messengers sharing opposite ends. Neither knows which end
// is "host" or "worker" -- that's a convention of the caller.
func NewPair(kind Kind, opts ...Option) (*Messenger, *Messenger) {
	connA, connB := wire.NewChanPipe()
	return New(kind, connA, opts...), New(kind, connB, opts...)
}

// queueItem is what actually gets stored in the local queue: the whole
// DATA frame, so that ReceiveBlocking/ReceiveAvailable can still see
// IsReply when updating counters at pop time.
type queueItem = frame.Frame

// drainOne blocks until exactly one frame arrives, classifies it, and
// either enqueues it (DATA) or returns the corresponding error (CLOSE,
// ERROR). CLOSE and ERROR frames are never enqueued -- they convert to
// errors at the moment they're drained.
func (m *Messenger) drainOne() error {
	f, err := m.conn.Recv()
	if err != nil {
		return err
	}
	switch f.Kind {
	case frame.KindData:
		m.q.Put(queueItem(f), priority.Of(f.Payload), f.Channel)
		return nil
	case frame.KindClose:
		return coprocerrors.ResourceRequestedCloseErrorf("peer sent a close request")
	case frame.KindError:
		return coprocerrors.PeerErrorFrom(causeError(f.Cause))
	default:
		return coprocerrors.UnknownFrameErrorf("unrecognized frame kind %d", f.Kind)
	}
}

// drainAvailable drains every frame the pipe currently offers without
// blocking.
func (m *Messenger) drainAvailable() error {
	for m.conn.Poll() {
		if err := m.drainOne(); err != nil {
			return err
		}
	}
	return nil
}

func (m *Messenger) recordReceived(f frame.Frame) {
	m.counter.RecordReceived(f.Channel)
	if f.IsReply {
		m.counter.RecordReceivedReply(f.Channel)
	}
}

// ReceiveBlocking drains the pipe until channel's local queue is
// non-empty, drains whatever else the pipe already offers, then pops and
// returns one payload.
func (m *Messenger) ReceiveBlocking(channel Channel) (interface{}, error) {
	channel = frame.Normalize(channel)
	for m.q.Empty(channel) {
		if err := m.drainOne(); err != nil {
			return nil, err
		}
	}
	if err := m.drainAvailable(); err != nil {
		return nil, err
	}
	item, err := m.q.Get(channel)
	if err != nil {
		return nil, err
	}
	f := item.(queueItem)
	m.recordReceived(f)
	return f.Payload, nil
}

// ReceiveAvailable drains whatever the pipe offers right now without
// blocking, then returns every item currently queued for channel
// (possibly none).
func (m *Messenger) ReceiveAvailable(channel Channel) ([]interface{}, error) {
	channel = frame.Normalize(channel)
	drainErr := m.drainAvailable()

	var out []interface{}
	for !m.q.Empty(channel) {
		item, err := m.q.Get(channel)
		if err != nil {
			break
		}
		f := item.(queueItem)
		m.recordReceived(f)
		out = append(out, f.Payload)
	}
	return out, drainErr
}

// ReceiveRemaining yields via ReceiveBlocking until remaining(channel) is
// zero, i.e. every outstanding request on channel has a reply consumed.
func (m *Messenger) ReceiveRemaining(channel Channel) ([]interface{}, error) {
	channel = frame.Normalize(channel)
	var out []interface{}
	for m.counter.Remaining(channel) > 0 {
		item, err := m.ReceiveBlocking(channel)
		if err != nil {
			return out, err
		}
		out = append(out, item)
	}
	return out, nil
}

// Available drains non-blocking, then returns the queue size for
// channel.
func (m *Messenger) Available(channel Channel) (int, error) {
	channel = frame.Normalize(channel)
	err := m.drainAvailable()
	return m.q.Size(channel), err
}

// AwaitAvailable blocks until at least one frame of any kind has been
// drained (and, if that frame was DATA, enqueued).
func (m *Messenger) AwaitAvailable() error {
	return m.drainOne()
}

// Drain drains whatever the pipe offers right now, across every channel,
// without blocking. It's used by WorkerResource.Join to let any pending
// ERROR frame surface synchronously before sending CLOSE.
func (m *Messenger) Drain() error {
	return m.drainAvailable()
}

// Remaining exposes the RequestCounter's remaining(channel) for callers
// (notably the pool scheduler) that need to know without issuing a
// receive.
func (m *Messenger) Remaining(channel Channel) int64 {
	return m.counter.Remaining(frame.Normalize(channel))
}

// --- send primitives ---

// SendRequest sends payload as a DATA frame with request_reply=true.
func (m *Messenger) SendRequest(payload interface{}, channel Channel) error {
	channel = frame.Normalize(channel)
	if err := m.conn.Send(frame.DataFrame(payload, channel, true, false)); err != nil {
		return err
	}
	m.counter.RecordSentRequest(channel)
	m.counter.RecordSent(channel)
	return nil
}

// SendRequestMultiple calls SendRequest for each item in items, in
// order, stopping at the first failure.
func (m *Messenger) SendRequestMultiple(items []interface{}, channel Channel) error {
	for _, item := range items {
		if err := m.SendRequest(item, channel); err != nil {
			return err
		}
	}
	return nil
}

// SendReply sends payload as a DATA frame with is_reply=true.
func (m *Messenger) SendReply(payload interface{}, channel Channel) error {
	channel = frame.Normalize(channel)
	if err := m.conn.Send(frame.DataFrame(payload, channel, false, true)); err != nil {
		return err
	}
	m.counter.RecordSent(channel)
	return nil
}

// SendNoRequest sends payload as a plain DATA frame: neither a request
// nor a reply.
func (m *Messenger) SendNoRequest(payload interface{}, channel Channel) error {
	channel = frame.Normalize(channel)
	if err := m.conn.Send(frame.DataFrame(payload, channel, false, false)); err != nil {
		return err
	}
	m.counter.RecordSent(channel)
	return nil
}

// SendCloseRequest tells the peer to stop its receive loop.
func (m *Messenger) SendCloseRequest() error {
	return m.conn.Send(frame.CloseFrame())
}

// SendError sends cause to the peer as an ERROR frame. If a logger was
// configured via WithLogger, it also logs cause locally at Warn as a
// debugging convenience.
func (m *Messenger) SendError(cause error) error {
	if m.log != nil {
		m.log.Warn("sending error frame to peer", zap.Error(cause))
	}
	return m.conn.Send(frame.ErrorFrame(cause))
}

// Close releases the underlying pipe endpoint.
func (m *Messenger) Close() error {
	return m.conn.Close()
}

type causeError string

func (c causeError) Error() string { return string(c) }
