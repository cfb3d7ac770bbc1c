// Package coprocerrors provides the small, typed error vocabulary shared
// by the messenger, resource, and pool packages. It follows the shape of
// a typed-code error rather than a hierarchy of error structs, so that
// callers can branch on ErrorCode(err) instead of type-asserting.
package coprocerrors

import (
	"bytes"
	"fmt"
)

// Error is a coproc error: a code plus an optional name and message, and
// an optional wrapped cause (a peer-reported error, or the transport
// failure that triggered it).
type Error struct {
	Code    Code
	Name    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	buf := bytes.NewBuffer(nil)
	buf.WriteString("code:")
	buf.WriteString(e.Code.String())
	if e.Name != "" {
		buf.WriteString(" name:")
		buf.WriteString(e.Name)
	}
	if e.Message != "" {
		buf.WriteString(" message:")
		buf.WriteString(e.Message)
	}
	if e.Cause != nil {
		buf.WriteString(" cause:")
		buf.WriteString(e.Cause.Error())
	}
	return buf.String()
}

// Unwrap lets errors.Is/errors.As see through to the wrapped cause.
func (e *Error) Unwrap() error { return e.Cause }

// IsCoprocError reports whether err is a non-nil *Error.
func IsCoprocError(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*Error)
	return ok
}

// ErrorCode returns the Code carried by err, or CodeOK if err is nil or
// not a *Error.
func ErrorCode(err error) Code {
	if err == nil {
		return CodeOK
	}
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return CodeOK
}

func newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// TransportBrokenErrorf reports a broken pipe or unexpected peer exit.
func TransportBrokenErrorf(format string, args ...interface{}) *Error {
	return newf(CodeTransportBroken, format, args...)
}

// TransportBrokenFrom wraps a lower-level I/O error (commonly already
// annotated with github.com/pkg/errors) as a CodeTransportBroken failure.
func TransportBrokenFrom(cause error) *Error {
	e := newf(CodeTransportBroken, "transport broken: %v", cause)
	e.Cause = cause
	return e
}

// ResourceRequestedCloseErrorf reports a CLOSE frame observed at a
// receive site.
func ResourceRequestedCloseErrorf(format string, args ...interface{}) *Error {
	return newf(CodeResourceRequestedClose, format, args...)
}

// PeerErrorFrom wraps a peer-reported ERROR frame's cause.
func PeerErrorFrom(cause error) *Error {
	e := newf(CodePeerError, "peer reported an error: %v", cause)
	e.Cause = cause
	return e
}

// AlreadyAliveErrorf reports Start called on an ALIVE resource.
func AlreadyAliveErrorf(format string, args ...interface{}) *Error {
	return newf(CodeAlreadyAlive, format, args...)
}

// AlreadyDeadErrorf reports Join/Terminate(checkAlive=true) on a DEAD
// resource.
func AlreadyDeadErrorf(format string, args ...interface{}) *Error {
	return newf(CodeAlreadyDead, format, args...)
}

// WorkerIsDeadErrorf reports access to .Messenger()/.PID() of a resource
// that was never started, or was started and has since died.
func WorkerIsDeadErrorf(format string, args ...interface{}) *Error {
	return newf(CodeWorkerIsDead, format, args...)
}

// QueueEmptyErrorf is internal bookkeeping; it must never escape the
// queue package into caller-visible behavior other than driving a drain
// loop's retry decision.
func QueueEmptyErrorf(format string, args ...interface{}) *Error {
	return newf(CodeQueueEmpty, format, args...)
}

// UnknownFrameErrorf reports a frame tag the decoder does not recognize.
func UnknownFrameErrorf(format string, args ...interface{}) *Error {
	return newf(CodeUnknownFrame, format, args...)
}
