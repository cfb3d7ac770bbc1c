package resource

import (
	"sync"

	"github.com/coproc-go/coproc/coprocerrors"
	"github.com/coproc-go/coproc/internal/lifecycle"
	"github.com/coproc-go/coproc/messenger"
	"github.com/coproc-go/coproc/transport/procexec"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Option configures a Resource.
type Option func(*Resource)

// WithLogger attaches a logger for state-transition tracing (start,
// terminate, child PID). Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Resource) { r.log = log }
}

// Resource supervises one child process running workerName, registered
// via RegisterWorker. It is NEW until the first Start, ALIVE while the
// child runs, and DEAD after Join/Terminate -- and reusable: a Start from
// DEAD spins up a fresh pipe pair and child.
type Resource struct {
	workerName string
	kind       messenger.Kind
	log        *zap.Logger

	life *lifecycle.Machine

	mu     sync.Mutex
	handle *procexec.Handle
	msgr   *messenger.Messenger
}

// New returns a Resource in the NEW state, bound to workerName. kind must
// match the messenger.Kind workerName was registered with.
func New(workerName string, kind messenger.Kind, opts ...Option) *Resource {
	r := &Resource{
		workerName: workerName,
		kind:       kind,
		log:        zap.NewNop(),
		life:       &lifecycle.Machine{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start launches a fresh child process running workerName with kwargs.
// It fails with CodeAlreadyAlive if the resource is already ALIVE.
func (r *Resource) Start(kwargs map[string]interface{}) error {
	if !r.life.TryStart() {
		return coprocerrors.AlreadyAliveErrorf("start: resource %q is already alive", r.workerName)
	}

	handle, conn, err := procexec.Launch(r.workerName, kwargs)
	if err != nil {
		r.life.ForceDead()
		return errors.Wrapf(err, "resource: launching worker %q", r.workerName)
	}

	r.mu.Lock()
	r.handle = handle
	r.msgr = messenger.New(r.kind, conn, messenger.WithLogger(r.log))
	r.mu.Unlock()

	r.log.Info("worker started",
		zap.String("worker", r.workerName),
		zap.Int("pid", handle.PID()))
	return nil
}

// IsAlive reports whether the resource is currently in the ALIVE state.
func (r *Resource) IsAlive() bool {
	return r.life.Load() == lifecycle.Alive
}

// Messenger returns the host-side messenger, or CodeWorkerIsDead if the
// resource has never been started or has since died.
func (r *Resource) Messenger() (*messenger.Messenger, error) {
	if !r.IsAlive() {
		return nil, coprocerrors.WorkerIsDeadErrorf("messenger: resource %q is not alive", r.workerName)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.msgr, nil
}

// PID returns the child process's OS process ID, or CodeWorkerIsDead if
// the resource has never been started or has since died.
func (r *Resource) PID() (int, error) {
	if !r.IsAlive() {
		return 0, coprocerrors.WorkerIsDeadErrorf("pid: resource %q is not alive", r.workerName)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handle.PID(), nil
}

// Join drains the host messenger (surfacing any pending ERROR frame
// synchronously), sends CLOSE, and waits for the child to exit.
// checkAlive=true fails with CodeAlreadyDead if the resource isn't ALIVE;
// checkAlive=false makes that case a no-op.
func (r *Resource) Join(checkAlive bool) error {
	if !r.IsAlive() {
		if checkAlive {
			return coprocerrors.AlreadyDeadErrorf("join: resource %q is not alive", r.workerName)
		}
		return nil
	}

	r.mu.Lock()
	msgr, handle := r.msgr, r.handle
	r.mu.Unlock()

	drainErr := msgr.Drain()
	_ = msgr.SendCloseRequest()
	waitErr := handle.Wait()
	r.life.TryKill()
	r.log.Info("worker joined", zap.String("worker", r.workerName), zap.Int("pid", handle.PID()))

	if drainErr != nil && coprocerrors.ErrorCode(drainErr) != coprocerrors.CodeTransportBroken {
		return drainErr
	}
	if waitErr != nil {
		return errors.Wrapf(waitErr, "resource: worker %q exited with error", r.workerName)
	}
	return nil
}

// Terminate sends CLOSE best-effort then force-kills the child.
// checkAlive=true fails with CodeAlreadyDead if the resource isn't ALIVE;
// checkAlive=false makes that case a no-op -- the mode used by scoped
// acquisition on every exit path, including error paths.
func (r *Resource) Terminate(checkAlive bool) error {
	if !r.IsAlive() {
		if checkAlive {
			return coprocerrors.AlreadyDeadErrorf("terminate: resource %q is not alive", r.workerName)
		}
		return nil
	}

	r.mu.Lock()
	msgr, handle := r.msgr, r.handle
	r.mu.Unlock()

	_ = msgr.SendCloseRequest()
	killErr := handle.Kill()
	_ = handle.Wait()
	r.life.TryKill()
	r.log.Info("worker terminated", zap.String("worker", r.workerName), zap.Int("pid", handle.PID()))

	if killErr != nil {
		return errors.Wrapf(killErr, "resource: killing worker %q", r.workerName)
	}
	return nil
}

// WithResource starts a Resource for workerName, runs fn, and terminates
// the resource on every exit path (including a panic propagating through
// fn), mirroring a scoped-acquisition block: enter starts, exit
// terminates with checkAlive=false.
func WithResource(workerName string, kind messenger.Kind, kwargs map[string]interface{}, fn func(*Resource) error, opts ...Option) error {
	r := New(workerName, kind, opts...)
	if err := r.Start(kwargs); err != nil {
		return err
	}
	defer r.Terminate(false)
	return fn(r)
}
