// Package frame defines the wire-level tagged variant exchanged between
// two Messengers over one duplex pipe: DATA, CLOSE, and ERROR. Decoders
// switch on Kind rather than relying on the polymorphism of a class
// hierarchy, since frames cross process boundaries and need a
// serialization-friendly shape.
package frame

import "github.com/coproc-go/coproc/api/priority"

// Channel is an opaque, hashable tag used to multiplex logically
// independent message streams over one pipe. The zero value, nil, is the
// default channel used by callers that don't care about multiplexing.
//
// Channel values must be comparable (usable as a map key): strings,
// integers, and other comparable scalars all work; slices, maps, and
// funcs do not.
type Channel = interface{}

// DefaultChannel is the channel used when a caller passes nil.
var DefaultChannel Channel = nil

// Normalize maps a caller-supplied channel to DefaultChannel when nil.
func Normalize(c Channel) Channel {
	if c == nil {
		return DefaultChannel
	}
	return c
}

// Kind tags the variant of a Frame.
type Kind int

const (
	// KindData carries application payload.
	KindData Kind = iota
	// KindClose tells the peer to stop its receive loop.
	KindClose
	// KindError carries a peer-side failure.
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "DATA"
	case KindClose:
		return "CLOSE"
	case KindError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Frame is the unit transferred across one pipe endpoint. Exactly one of
// the per-kind fields below is meaningful for a given Kind:
//
//   - KindData: Payload, Channel, RequestReply, IsReply.
//   - KindClose: no additional fields.
//   - KindError: Cause.
type Frame struct {
	Kind Kind `json:"kind"`

	// DATA fields.
	Payload      interface{} `json:"payload,omitempty"`
	Channel      Channel     `json:"channel,omitempty"`
	RequestReply bool        `json:"request_reply,omitempty"`
	IsReply      bool        `json:"is_reply,omitempty"`

	// ERROR field: the carried failure, serialized as its message.
	Cause string `json:"cause,omitempty"`
}

// Priority returns the frame's wire urgency: CLOSE and ERROR frames are
// always most urgent (priority.Highest); DATA frames inherit their
// payload's priority via priority.Of, defaulting to priority.Lowest. In
// this implementation CLOSE and ERROR are never enqueued in the local
// priority queue (frames are classified and acted on at drain time, per
// Messenger's contract), so this value only ever applies to DATA frames
// that reach the queue -- it is exposed for completeness and testing.
func (f Frame) Priority() priority.Priority {
	if f.Kind != KindData {
		return priority.Highest
	}
	return priority.Of(f.Payload)
}

// DataFrame builds a KindData frame.
func DataFrame(payload interface{}, channel Channel, requestReply, isReply bool) Frame {
	return Frame{
		Kind:         KindData,
		Payload:      payload,
		Channel:      Normalize(channel),
		RequestReply: requestReply,
		IsReply:      isReply,
	}
}

// CloseFrame builds a KindClose frame.
func CloseFrame() Frame {
	return Frame{Kind: KindClose}
}

// ErrorFrame builds a KindError frame carrying cause's message.
func ErrorFrame(cause error) Frame {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return Frame{Kind: KindError, Cause: msg}
}
