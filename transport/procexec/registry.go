package procexec

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/coproc-go/coproc/wire"
)

// WorkerFunc is a registered worker body: it owns conn for the lifetime
// of the child process and should loop receiving requests until its peer
// closes or it chooses to exit. kwargs is whatever the host passed to
// Launch, re-encoded as JSON and handed to the child across the re-exec
// boundary (a child process can't share a closure's captured state with
// its parent the way a goroutine can).
type WorkerFunc func(conn wire.Conn, kwargs json.RawMessage) error

const (
	envWorkerName   = "COPROC_WORKER_NAME"
	envWorkerKwargs = "COPROC_WORKER_KWARGS"
	childReadFD     = 3
	childWriteFD    = 4
)

var (
	registryMu sync.Mutex
	registry   = map[string]WorkerFunc{}
)

// RegisterWorker associates name with fn. Call it from an init() or from
// main() before the first Launch/RunWorkerIfChild -- the registry must be
// populated identically in every process that might re-exec as a worker,
// since the child looks fn up by name rather than receiving it directly.
func RegisterWorker(name string, fn WorkerFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("procexec: worker %q already registered", name))
	}
	registry[name] = fn
}

func lookupWorker(name string) (WorkerFunc, bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	fn, ok := registry[name]
	return fn, ok
}

// RunWorkerIfChild checks whether the current process was exec'd by
// Launch to run a registered worker. If so, it builds the PipeConn from
// the inherited file descriptors, runs the worker body to completion, and
// terminates the process -- it never returns in that case. If the
// current process is an ordinary host process (the environment markers
// are absent), it returns immediately and the caller's normal main()
// continues.
//
// Call this as the first statement of main(), before flag parsing or
// anything else that assumes a host-side invocation.
func RunWorkerIfChild() {
	name := os.Getenv(envWorkerName)
	if name == "" {
		return
	}

	fn, ok := lookupWorker(name)
	if !ok {
		fmt.Fprintf(os.Stderr, "procexec: no worker registered under name %q\n", name)
		os.Exit(1)
	}

	r := os.NewFile(uintptr(childReadFD), "coproc-child-read")
	w := os.NewFile(uintptr(childWriteFD), "coproc-child-write")
	conn := NewPipeConn(r, w)

	var kwargs json.RawMessage
	if raw := os.Getenv(envWorkerKwargs); raw != "" {
		kwargs = json.RawMessage(raw)
	}

	err := fn(conn, kwargs)
	_ = conn.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "procexec: worker %q exited with error: %v\n", name, err)
		os.Exit(1)
	}
	os.Exit(0)
}
