// Package host owns the native window: the tview.Application, the goroutine
// it runs on (the UI thread), and the content area components are placed
// into. Everything that touches a widget must run on the UI thread; Host
// provides the marshaling primitives the rest of the shell builds on.
package host

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/casement-shell/casement/internal/goroutineid"
)

// ErrStopped is returned by RunSync when the window has shut down.
var ErrStopped = errors.New("host: window stopped")

// ErrTimeout is returned by RunSync when the UI thread does not pick up the
// work within the configured timeout.
var ErrTimeout = errors.New("host: UI thread did not respond")

// DefaultSyncTimeout bounds RunSync waits. The UI thread never blocks on
// I/O, so exceeding this indicates a stalled or dead event loop.
const DefaultSyncTimeout = 5 * time.Second

// Host owns the tview application and its UI goroutine.
type Host struct {
	app     *tview.Application
	content *tview.Flex
	timeout time.Duration

	// uiGoroutine is the id of the goroutine running app.Run, captured at
	// startup. Used both for the deadlock-avoiding inline path in RunSync
	// and for the debug-build thread assertions.
	uiGoroutine atomic.Int64

	mu            sync.Mutex
	running       bool
	stopped       bool
	stopRequested bool
	doneCh        chan struct{}
	closeFns      []func()
	closed        sync.Once
}

// Option configures a Host.
type Option func(*Host)

// WithScreen injects a tcell screen; tests pass a SimulationScreen.
func WithScreen(screen tcell.Screen) Option {
	return func(h *Host) {
		if screen != nil {
			h.app.SetScreen(screen)
		}
	}
}

// WithSyncTimeout overrides the RunSync timeout. Zero disables it.
func WithSyncTimeout(d time.Duration) Option {
	return func(h *Host) { h.timeout = d }
}

// New creates a window host. The window's content area is an initially
// empty horizontal arrangement; components attach and detach themselves.
func New(opts ...Option) *Host {
	h := &Host{
		app:     tview.NewApplication(),
		content: tview.NewFlex().SetDirection(tview.FlexColumn),
		timeout: DefaultSyncTimeout,
		doneCh:  make(chan struct{}),
	}
	h.app.SetRoot(h.content, true)
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run takes over the calling goroutine as the UI thread and blocks until
// the window closes. Close hooks run exactly once, on this goroutine,
// before Run returns.
func (h *Host) Run() error {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return ErrStopped
	}
	if h.stopRequested {
		// Stopped before the loop ever started (e.g. a script failed
		// immediately). Treat it as a clean open-and-close.
		h.stopped = true
		h.mu.Unlock()
		h.runCloseHooks()
		close(h.doneCh)
		return nil
	}
	h.running = true
	h.mu.Unlock()

	h.uiGoroutine.Store(goroutineid.Get())

	err := h.app.Run()

	h.mu.Lock()
	h.running = false
	h.stopped = true
	h.mu.Unlock()

	// Adapters must be detached before the process lets go of the widget
	// tree; the event loop has exited, so no further toolkit callbacks can
	// race with the hooks.
	h.runCloseHooks()
	close(h.doneCh)
	return err
}

// Stop closes the window, unblocking Run. Safe to call from any goroutine
// and more than once.
func (h *Host) Stop() {
	h.mu.Lock()
	if h.stopped && !h.running {
		h.mu.Unlock()
		return
	}
	running := h.running
	h.stopRequested = true
	h.mu.Unlock()
	if running {
		h.app.Stop()
	}
}

// OnClose registers fn to run during window teardown. Hooks run in
// registration order on the UI goroutine.
func (h *Host) OnClose(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closeFns = append(h.closeFns, fn)
}

func (h *Host) runCloseHooks() {
	h.closed.Do(func() {
		h.mu.Lock()
		hooks := h.closeFns
		h.closeFns = nil
		h.mu.Unlock()
		for _, fn := range hooks {
			fn()
		}
	})
}

// OnUIThread reports whether the caller is the UI goroutine.
func (h *Host) OnUIThread() bool {
	id := h.uiGoroutine.Load()
	return id != 0 && goroutineid.Get() == id
}

// RunSync executes fn on the UI thread and waits for it to complete. When
// already on the UI thread it runs inline (calling QueueUpdate from the UI
// thread would deadlock). Calls made before Run starts are queued and wait
// for the event loop to begin pumping.
func (h *Host) RunSync(fn func()) error {
	if h.OnUIThread() {
		fn()
		return nil
	}

	h.mu.Lock()
	if h.stopped && !h.running {
		h.mu.Unlock()
		return ErrStopped
	}
	h.mu.Unlock()

	done := make(chan struct{})
	// QueueUpdate blocks until the queued function has executed, so it runs
	// on a helper goroutine to keep timeout and shutdown selectable.
	go h.app.QueueUpdate(func() {
		defer close(done)
		fn()
	})

	if h.timeout <= 0 {
		select {
		case <-done:
			return nil
		case <-h.doneCh:
			return ErrStopped
		}
	}
	timer := time.NewTimer(h.timeout)
	defer timer.Stop()
	select {
	case <-done:
		return nil
	case <-h.doneCh:
		return ErrStopped
	case <-timer.C:
		return ErrTimeout
	}
}

// Post schedules fn on the UI thread without waiting. Returns false if the
// window has already shut down.
func (h *Host) Post(fn func()) bool {
	h.mu.Lock()
	if h.stopped && !h.running {
		h.mu.Unlock()
		return false
	}
	h.mu.Unlock()
	if h.OnUIThread() {
		fn()
		return true
	}
	go h.app.QueueUpdate(fn)
	return true
}

// Draw requests a render pass. Safe from any goroutine.
func (h *Host) Draw() {
	h.mu.Lock()
	running := h.running
	h.mu.Unlock()
	if !running {
		return
	}
	if h.OnUIThread() {
		// Application.Draw queues an update and waits for the event loop to
		// run it; from the UI thread that would deadlock, so draw inline.
		h.app.ForceDraw()
		return
	}
	h.app.Draw()
}

// Application exposes the underlying tview application for focus control.
func (h *Host) Application() *tview.Application { return h.app }

// ContentArea returns the window surface components are placed into.
func (h *Host) ContentArea() *ContentArea {
	return &ContentArea{host: h}
}

// ContentArea is the placement surface handed to the widget layer. It
// satisfies the window-resolver collaborator contract: attach and detach of
// top-level primitives, nothing else.
type ContentArea struct {
	host *Host
}

// Attach adds p as a proportional member of the window's content row.
// Must be called on the UI thread.
func (c *ContentArea) Attach(p tview.Primitive) {
	c.host.AssertUIThread("ContentArea.Attach")
	c.host.content.AddItem(p, 0, 1, false)
}

// Detach removes p from the window's content row. Unknown primitives are
// ignored. Must be called on the UI thread.
func (c *ContentArea) Detach(p tview.Primitive) {
	c.host.AssertUIThread("ContentArea.Detach")
	c.host.content.RemoveItem(p)
}

// Focus moves input focus to p. Must be called on the UI thread.
func (c *ContentArea) Focus(p tview.Primitive) {
	c.host.AssertUIThread("ContentArea.Focus")
	c.host.app.SetFocus(p)
}
