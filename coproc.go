// Package coproc re-exports the entry points a host program and a
// worker binary call at process startup, so that a single import lets
// main() both register its worker targets and hand control to
// RunWorkerIfChild before anything else runs.
//
// The underlying implementations live in resource (the typed
// RegisterWorker used by WorkerResource and WorkerResourcePool) and
// transport/procexec (the lower-level registry and re-exec
// entrypoint); see those packages for the rest of the API.
package coproc

import (
	"github.com/coproc-go/coproc/messenger"
	"github.com/coproc-go/coproc/resource"
	"github.com/coproc-go/coproc/transport/procexec"
)

// WorkerFunc is the body of a registered worker target: given its
// Messenger and the kwargs it was started with, it runs until it
// observes a close request or returns an error.
type WorkerFunc = resource.WorkerFunc

// RegisterWorker associates name with fn so that a later Start on a
// resource.Resource (or a pool.Pool) constructed with that name can
// launch a child process running fn. Call it from an init() in the
// worker-target's package, before main() calls RunWorkerIfChild.
func RegisterWorker(name string, kind messenger.Kind, fn WorkerFunc) {
	resource.RegisterWorker(name, kind, fn)
}

// RunWorkerIfChild must be called once, near the top of main(), before
// any resource is started. If this process was launched as a worker
// (it carries the environment markers Launch sets), it runs the
// registered target to completion and calls os.Exit; it never returns
// in that case. Otherwise it returns immediately and the host program
// continues as normal.
func RunWorkerIfChild() {
	procexec.RunWorkerIfChild()
}
