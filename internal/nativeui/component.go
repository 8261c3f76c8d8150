package nativeui

import "github.com/rivo/tview"

// Kind names a composite widget family on the wire.
type Kind string

const (
	KindSidebar     Kind = "hierarchical_list"
	KindFileBrowser Kind = "tabular_list"
	KindSplitView   Kind = "split_container"
)

// componentState is the per-component lifecycle phase. Created components
// accept data; populated ones can keep accepting data; active means
// attached to a window; destroyed is terminal.
type componentState int

const (
	stateCreated componentState = iota
	statePopulated
	stateActive
	stateDestroyed
)

// UI is the slice of the application host the widgets need: synchronous
// marshaling onto the UI thread, fire-and-forget posting, redraw requests,
// and the debug-build thread assertion. The host package satisfies it
// structurally.
type UI interface {
	// RunSync runs fn on the UI thread and waits for it to complete.
	// Calls already on the UI thread run fn inline.
	RunSync(fn func()) error
	// Post schedules fn on the UI thread without waiting. Returns false
	// once the host has stopped.
	Post(fn func()) bool
	// Draw requests a repaint.
	Draw()
	// AssertUIThread panics in debug builds when called off the UI
	// thread. Release builds compile it to a no-op.
	AssertUIThread(op string)
}

// Window is where widgets attach their native primitives. The host's
// content area satisfies it.
type Window interface {
	Attach(p tview.Primitive)
	Detach(p tview.Primitive)
	Focus(p tview.Primitive)
}

// WindowResolver returns the current window, or nil when none exists
// (window closed, headless run). Operations that need a window and get
// nil fail with MissingCollaborator.
type WindowResolver func() Window

// EventSink delivers widget events to the scripting side. Emit must be
// safe to call from the UI thread; implementations forward onto the
// script event loop.
type EventSink interface {
	Emit(action string, payload any)
}

// RefreshScheduler coalesces visual refresh requests. Trigger may be
// called repeatedly per burst of mutations; Cancel stops any pending
// refresh during teardown.
type RefreshScheduler interface {
	Trigger()
	Cancel()
}

// IconLookup resolves a symbolic icon name to a display glyph. Unknown
// names resolve to "".
type IconLookup func(name string) string

// Component is a registered composite widget. All methods run on the UI
// thread.
type Component interface {
	ID() string
	Kind() Kind

	// primitive is the widget's root toolkit primitive, used when a
	// container re-parents it.
	primitive() tview.Primitive
	// detachAdapters severs the adapters' back-pointers so in-flight
	// toolkit queries fail closed. Second step of destruction.
	detachAdapters()
	// releaseNative detaches primitives from the window and releases
	// toolkit resources. Third step of destruction.
	releaseNative()
}

// widgetDeps bundles the collaborators every composite widget needs.
type widgetDeps struct {
	ui      UI
	window  WindowResolver
	events  EventSink
	icons   IconLookup
	refresh func(fire func()) RefreshScheduler
	// minPane is the smallest fraction of a split container either pane
	// may occupy; divider positions outside [minPane, 1-minPane] clamp.
	minPane float64
}

// windowOrErr returns the current window or a MissingCollaborator error.
func (d *widgetDeps) windowOrErr() (Window, error) {
	if d.window == nil {
		return nil, Errf(CodeMissingCollaborator, "no window resolver configured")
	}
	w := d.window()
	if w == nil {
		return nil, Errf(CodeMissingCollaborator, "no window available to host content")
	}
	return w, nil
}
