// Package pool implements WorkerResourcePool: N identically-configured
// WorkerResources plus a saturating map/map_unordered scheduler fanning
// slice-shaped work across them.
package pool

import (
	"sync"

	"github.com/coproc-go/coproc/internal/errorsync"
	"github.com/coproc-go/coproc/messenger"
	"github.com/coproc-go/coproc/resource"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Option configures a Pool.
type Option func(*Pool)

// WithLogger attaches a logger, passed through to every member Resource.
func WithLogger(log *zap.Logger) Option {
	return func(p *Pool) { p.log = log }
}

// Pool holds N WorkerResources bound to the same registered worker and
// launch kwargs. Construction allocates the resources but starts none of
// them; Start/Terminate bracket their lifetime, mirroring WorkerResource's
// own scoped-acquisition idiom one level up.
type Pool struct {
	resources   []*resource.Resource
	startKwargs map[string]interface{}
	log         *zap.Logger
}

// New allocates n resources bound to workerName/kind. None are started.
func New(n int, workerName string, kind messenger.Kind, opts ...Option) *Pool {
	p := &Pool{log: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	p.resources = make([]*resource.Resource, n)
	for i := range p.resources {
		p.resources[i] = resource.New(workerName, kind, resource.WithLogger(p.log))
	}
	return p
}

// SetStartKwargs replaces the kwargs used by the next Start call.
func (p *Pool) SetStartKwargs(kwargs map[string]interface{}) {
	p.startKwargs = kwargs
}

// Size returns the number of resources in the pool.
func (p *Pool) Size() int { return len(p.resources) }

// Start launches every resource in parallel. If any fails, Start
// terminates whatever did start (best-effort) and returns the combined
// failures via multierr.
func (p *Pool) Start() error {
	var wait errorsync.ErrorWaiter
	var mu sync.Mutex
	var started []*resource.Resource

	for _, r := range p.resources {
		r := r
		wait.Submit(func() error {
			if err := r.Start(p.startKwargs); err != nil {
				return err
			}
			mu.Lock()
			started = append(started, r)
			mu.Unlock()
			return nil
		})
	}

	if errs := wait.Wait(); len(errs) > 0 {
		var abort errorsync.ErrorWaiter
		for _, r := range started {
			r := r
			abort.Submit(func() error { return r.Terminate(false) })
		}
		abort.Wait()
		return multierr.Combine(errs...)
	}
	return nil
}

// Terminate force-stops every resource in parallel, checkAlive=false, and
// returns the combined failures via multierr.
func (p *Pool) Terminate() error {
	var wait errorsync.ErrorWaiter
	for _, r := range p.resources {
		r := r
		wait.Submit(func() error { return r.Terminate(false) })
	}
	return multierr.Combine(wait.Wait()...)
}

// With starts the pool, runs fn, and terminates the pool on every exit
// path including a panic propagating through fn.
func With(n int, workerName string, kind messenger.Kind, startKwargs map[string]interface{}, fn func(*Pool) error, opts ...Option) error {
	p := New(n, workerName, kind, opts...)
	p.SetStartKwargs(startKwargs)
	if err := p.Start(); err != nil {
		return err
	}
	defer p.Terminate()
	return fn(p)
}
