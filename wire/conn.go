// Package wire defines the duplex-pipe collaborator a Messenger rides on
// top of, and provides two implementations: an in-process, channel/cond
// backed Conn for tests and same-process workers, and (in
// transport/procexec) a real OS-process implementation over os.Pipe.
//
// A Conn can send(object), recv() -> object, poll() -> bool, and signal
// broken-pipe/EOF on the receive side. Neither implementation here
// imposes a byte-stream encoding on same-process callers; only the
// cross-process implementation needs to serialize frames, since that is
// the only case where the two ends don't share an address space.
package wire

import "github.com/coproc-go/coproc/api/frame"

//go:generate mockgen -destination=wiretest/conn_mock.go -package=wiretest github.com/coproc-go/coproc/wire Conn

// Conn is one end of a duplex pipe carrying frame.Frame values.
type Conn interface {
	// Send writes f to the peer. It blocks if the underlying transport's
	// buffer is full. It returns a transport error if the pipe is broken
	// or the peer has closed its end.
	Send(f frame.Frame) error
	// Recv blocks until a frame is available and returns it, or returns a
	// transport error on EOF/broken pipe.
	Recv() (frame.Frame, error)
	// Poll reports whether a subsequent Recv would return immediately
	// without blocking.
	Poll() bool
	// Close releases the endpoint. Subsequent Send calls fail; Recv
	// returns any frames already pending, then fails.
	Close() error
}
