package coprocerrors

// Code classifies the kind of failure a coproc operation can report. The
// set is deliberately small: it mirrors the error taxonomy of the
// messenger/resource/pool core rather than a general-purpose RPC status
// enum.
type Code int

const (
	// CodeOK is the zero value; never set on a non-nil Error.
	CodeOK Code = iota
	// CodeTransportBroken means a pipe read or write failed, or the peer
	// exited unexpectedly. Never retried.
	CodeTransportBroken
	// CodeResourceRequestedClose means a CLOSE frame was observed at a
	// receive site.
	CodeResourceRequestedClose
	// CodePeerError means an ERROR frame carrying a peer-side failure was
	// observed at a receive site.
	CodePeerError
	// CodeAlreadyAlive means Start was called on a resource already in the
	// ALIVE state.
	CodeAlreadyAlive
	// CodeAlreadyDead means Join or Terminate was called with
	// checkAlive=true on a resource already in the DEAD state.
	CodeAlreadyDead
	// CodeWorkerIsDead means the messenger or process handle of a NEW or
	// DEAD resource was accessed without an intervening Start.
	CodeWorkerIsDead
	// CodeQueueEmpty is internal bookkeeping used to drive drain loops; it
	// is never returned to a caller of the public API.
	CodeQueueEmpty
	// CodeUnknownFrame means a frame arrived with a tag the decoder does
	// not recognize -- an implementation bug, not a runtime condition.
	CodeUnknownFrame
)

var codeNames = map[Code]string{
	CodeOK:                     "ok",
	CodeTransportBroken:        "transport-broken",
	CodeResourceRequestedClose: "resource-requested-close",
	CodePeerError:              "peer-error",
	CodeAlreadyAlive:           "already-alive",
	CodeAlreadyDead:            "already-dead",
	CodeWorkerIsDead:           "worker-is-dead",
	CodeQueueEmpty:             "queue-empty",
	CodeUnknownFrame:           "unknown-frame",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "unrecognized-code"
}
