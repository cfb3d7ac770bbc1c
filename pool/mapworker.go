package pool

import (
	"github.com/coproc-go/coproc/coprocerrors"
	"github.com/coproc-go/coproc/messenger"
	"github.com/coproc-go/coproc/resource"
)

// TransformFunc maps one input element to one output element.
type TransformFunc func(item interface{}) interface{}

// RegisterMapWorker registers a worker target under name whose behavior
// is: decode kwargs["data"] once at start, then answer every SliceMsg
// request on the default channel with a MapResult computed by applying f
// to data[start:stop]. f is compiled into the target and is never sent
// across the wire; only data crosses the launch boundary, via kwargs,
// matching how a child process's worker target holds its function and
// dataset locally.
//
// Because the channel a map-worker listens on is fixed at registration
// (the default channel), Pool.Map/MapUnordered against a
// RegisterMapWorker target should be called with a nil channel. Passing a
// non-nil channel is only meaningful against a hand-written WorkerFunc
// that itself receives on that channel.
func RegisterMapWorker(name string, f TransformFunc) {
	resource.RegisterWorker(name, messenger.Plain, func(m *messenger.Messenger, kwargs map[string]interface{}) error {
		raw, _ := kwargs["data"].([]interface{})

		for {
			payload, err := m.ReceiveBlocking(nil)
			if coprocerrors.ErrorCode(err) == coprocerrors.CodeResourceRequestedClose {
				return nil
			}
			if err != nil {
				return err
			}

			var slice SliceMsg
			if err := decodeInto(payload, &slice); err != nil {
				return err
			}

			results := make([]interface{}, 0, slice.Stop-slice.Start)
			for i := slice.Start; i < slice.Stop; i++ {
				results = append(results, f(raw[i]))
			}

			if err := m.SendReply(MapResult{Slice: slice, Results: results}, nil); err != nil {
				return err
			}
		}
	})
}
