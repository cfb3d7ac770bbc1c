// Package resource implements WorkerResource: the host-side handle on one
// child process running a registered worker target, and the small
// registry that lets a worker target be looked up by name after a
// process re-exec (see transport/procexec for why a name lookup replaces
// a captured closure here).
package resource

import (
	"encoding/json"

	"github.com/coproc-go/coproc/messenger"
	"github.com/coproc-go/coproc/transport/procexec"
	"github.com/coproc-go/coproc/wire"
)

// WorkerFunc is a worker target: it owns the worker-side messenger for
// the lifetime of the child process and should loop until it observes
// ResourceRequestedClose (or chooses to exit on its own), typically via
// messenger.ReceiveBlocking.
type WorkerFunc func(m *messenger.Messenger, kwargs map[string]interface{}) error

// RegisterWorker associates name with fn and the queue discipline (kind)
// its messenger should use. Call it identically from every process that
// might end up running as this worker -- typically from an init() in a
// package imported by both the host program and, implicitly, its own
// re-exec'd child. A WorkerResource constructed with resource.New must
// use the same kind it was registered with.
func RegisterWorker(name string, kind messenger.Kind, fn WorkerFunc) {
	procexec.RegisterWorker(name, func(conn wire.Conn, raw json.RawMessage) error {
		var kwargs map[string]interface{}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &kwargs); err != nil {
				return err
			}
		}
		m := messenger.New(kind, conn)
		defer m.Close()
		return fn(m, kwargs)
	})
}

// StatusChannel is a reserved Channel value a worker may voluntarily
// publish Status updates on. The core never reads from it; it's a
// convention, not a contract.
var StatusChannel messenger.Channel = "coproc.worker-status"

// Status is the payload a worker may send on StatusChannel via
// SendNoRequest.
type Status struct {
	PID   int  `json:"pid"`
	Alive bool `json:"alive"`
}
