package scripting

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/dop251/goja_nodejs/require"

	"github.com/casement-shell/casement/internal/goroutineid"
)

// Runtime owns the shared goja runtime and its event loop. goja.Runtime is
// not goroutine-safe, so every access is routed through the loop; the loop
// goroutine's id is captured once at startup so synchronous calls that are
// already on the loop can run inline instead of deadlocking.
type Runtime struct {
	loop     *eventloop.EventLoop
	registry *require.Registry

	// timeout bounds RunOnLoopSync. Zero disables the bound.
	timeout time.Duration

	loopGoroutineID atomic.Int64

	mu      sync.RWMutex
	started bool
	stopped bool

	ctx    context.Context
	cancel context.CancelFunc
}

// DefaultSyncTimeout bounds synchronous loop operations.
const DefaultSyncTimeout = 5 * time.Second

// NewRuntime creates and starts a Runtime. The provided context controls
// lifecycle: when it is canceled the runtime closes. Call Close when done.
func NewRuntime(ctx context.Context) (*Runtime, error) {
	registry := require.NewRegistry()
	loop := eventloop.NewEventLoop(
		eventloop.WithRegistry(registry),
		eventloop.EnableConsole(true),
	)

	childCtx, cancel := context.WithCancel(context.Background())
	rt := &Runtime{
		loop:     loop,
		registry: registry,
		ctx:      childCtx,
		cancel:   cancel,
		timeout:  DefaultSyncTimeout,
	}

	loop.Start()
	rt.mu.Lock()
	rt.started = true
	rt.mu.Unlock()

	// Capture the loop goroutine id before anything else runs on it.
	ready := make(chan struct{})
	if !loop.RunOnLoop(func(*goja.Runtime) {
		rt.loopGoroutineID.Store(goroutineid.Get())
		close(ready)
	}) {
		cancel()
		loop.Stop()
		return nil, errors.New("event loop failed to start")
	}
	<-ready

	if ctx.Done() != nil {
		context.AfterFunc(ctx, func() { _ = rt.Close() })
	}
	return rt, nil
}

// Registry returns the require registry. Native modules must be registered
// before any script that requires them runs.
func (rt *Runtime) Registry() *require.Registry { return rt.registry }

// Close stops the event loop, waiting for pending jobs. Safe to call
// repeatedly.
func (rt *Runtime) Close() error {
	rt.mu.Lock()
	if rt.stopped {
		rt.mu.Unlock()
		return nil
	}
	rt.stopped = true
	rt.mu.Unlock()

	rt.cancel()
	rt.loop.Stop()
	return nil
}

// Done is closed when the runtime has stopped.
func (rt *Runtime) Done() <-chan struct{} { return rt.ctx.Done() }

// OnLoop reports whether the caller is the event loop goroutine.
func (rt *Runtime) OnLoop() bool {
	id := rt.loopGoroutineID.Load()
	return id != 0 && id == goroutineid.Get()
}

// RunOnLoop schedules fn on the event loop goroutine. Returns false once
// the runtime has stopped.
func (rt *Runtime) RunOnLoop(fn func(*goja.Runtime)) bool {
	rt.mu.RLock()
	ok := rt.started && !rt.stopped
	rt.mu.RUnlock()
	if !ok {
		return false
	}
	return rt.loop.RunOnLoop(fn)
}

// TryRunOnLoopSync runs fn synchronously, executing it directly when the
// caller is already on the loop goroutine. Native callbacks that re-enter
// the runtime must use this form with the vm they were handed, or they
// would deadlock waiting on themselves.
func (rt *Runtime) TryRunOnLoopSync(currentVM *goja.Runtime, fn func(*goja.Runtime) error) error {
	rt.mu.RLock()
	if !rt.started || rt.stopped {
		rt.mu.RUnlock()
		return errors.New("event loop not running")
	}
	rt.mu.RUnlock()

	if rt.OnLoop() {
		return fn(currentVM)
	}
	return rt.RunOnLoopSync(fn)
}

// RunOnLoopSync schedules fn on the event loop and waits for it. Must not
// be called from the loop goroutine; use TryRunOnLoopSync there.
func (rt *Runtime) RunOnLoopSync(fn func(*goja.Runtime) error) error {
	rt.mu.RLock()
	if !rt.started || rt.stopped {
		rt.mu.RUnlock()
		return errors.New("event loop not running")
	}
	timeout := rt.timeout
	rt.mu.RUnlock()

	errCh := make(chan error, 1)
	if !rt.loop.RunOnLoop(func(vm *goja.Runtime) {
		errCh <- fn(vm)
	}) {
		return errors.New("event loop not running")
	}

	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case err := <-errCh:
			return err
		case <-rt.Done():
			return errors.New("runtime stopped before completion")
		case <-timer.C:
			return fmt.Errorf("operation timed out after %v", timeout)
		}
	}
	select {
	case err := <-errCh:
		return err
	case <-rt.Done():
		return errors.New("runtime stopped before completion")
	}
}

// RunScript executes source on the event loop and waits for completion.
func (rt *Runtime) RunScript(name, source string) (goja.Value, error) {
	var result goja.Value
	err := rt.RunOnLoopSync(func(vm *goja.Runtime) error {
		v, err := vm.RunScript(name, source)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}
