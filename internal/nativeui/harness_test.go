package nativeui

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rivo/tview"
	"github.com/stretchr/testify/require"
)

// fakeUI runs everything inline on the calling goroutine, which the
// single-threaded tests treat as the UI thread. Draw calls are counted
// atomically so the debounce tests can poll from the test goroutine while
// a timer fires.
type fakeUI struct {
	drawCount atomic.Int32
}

func (u *fakeUI) RunSync(fn func()) error { fn(); return nil }
func (u *fakeUI) Post(fn func()) bool     { fn(); return true }
func (u *fakeUI) Draw()                   { u.drawCount.Add(1) }
func (u *fakeUI) AssertUIThread(string)   {}

func (u *fakeUI) draws() int { return int(u.drawCount.Load()) }

// fakeWindow records attached primitives.
type fakeWindow struct {
	attached []tview.Primitive
}

func (w *fakeWindow) Attach(p tview.Primitive) {
	w.attached = append(w.attached, p)
}

func (w *fakeWindow) Detach(p tview.Primitive) {
	for i, q := range w.attached {
		if q == p {
			w.attached = append(w.attached[:i], w.attached[i+1:]...)
			return
		}
	}
}

func (w *fakeWindow) Focus(tview.Primitive) {}

func (w *fakeWindow) holds(p tview.Primitive) bool {
	for _, q := range w.attached {
		if q == p {
			return true
		}
	}
	return false
}

// recordedEvent is one Emit call captured by the fake sink.
type recordedEvent struct {
	Action  string
	Payload any
}

type fakeSink struct {
	events []recordedEvent
}

func (s *fakeSink) Emit(action string, payload any) {
	s.events = append(s.events, recordedEvent{Action: action, Payload: payload})
}

// fixture bundles a bridge with its fakes.
type fixture struct {
	ui     *fakeUI
	window *fakeWindow
	sink   *fakeSink
	bridge *Bridge
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		ui:     &fakeUI{},
		window: &fakeWindow{},
		sink:   &fakeSink{},
	}
	f.bridge = NewBridge(f.ui, func() Window { return f.window }, f.sink,
		testLogger(), opts)
	return f
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// dispatch sends one action and returns the decoded response.
func (f *fixture) dispatch(t *testing.T, action, data string) Response {
	t.Helper()
	raw := fmt.Sprintf(`{"domain":%q,"action":%q`, Domain, action)
	if data != "" {
		raw += `,"data":` + data
	}
	raw += "}"
	var resp Response
	require.NoError(t, json.Unmarshal(f.bridge.DispatchRaw([]byte(raw)), &resp))
	return resp
}

// mustOK dispatches and requires success.
func (f *fixture) mustOK(t *testing.T, action, data string) Response {
	t.Helper()
	resp := f.dispatch(t, action, data)
	require.True(t, resp.OK, "%s failed: %+v", action, resp.Error)
	return resp
}

// mustFail dispatches and requires a specific error code.
func (f *fixture) mustFail(t *testing.T, action, data string, code Code) Response {
	t.Helper()
	resp := f.dispatch(t, action, data)
	require.False(t, resp.OK, "%s unexpectedly succeeded", action)
	require.NotNil(t, resp.Error)
	require.Equal(t, code, resp.Error.Code)
	return resp
}

// createdID extracts the id from a create response.
func createdID(t *testing.T, resp Response) string {
	t.Helper()
	m, ok := resp.Result.(map[string]any)
	require.True(t, ok, "result is not an object: %#v", resp.Result)
	id, _ := m["id"].(string)
	require.NotEmpty(t, id)
	return id
}

// populateSidebar creates a sidebar with three sections of four items each.
func (f *fixture) populateSidebar(t *testing.T, id string) {
	t.Helper()
	f.mustOK(t, "createSidebar", fmt.Sprintf(`{"id":%q}`, id))
	for s := 0; s < 3; s++ {
		f.mustOK(t, "addSidebarSection", fmt.Sprintf(
			`{"id":%q,"section":{"id":"sec%d","header":"Section %d"}}`, id, s, s))
		for i := 0; i < 4; i++ {
			f.mustOK(t, "addSidebarItem", fmt.Sprintf(
				`{"id":%q,"sectionId":"sec%d","item":{"id":"sec%d-item%d","label":"Item %d.%d"}}`,
				id, s, s, i, s, i))
		}
	}
}

func immediate() Options {
	return Options{RefreshDebounce: 0, MinPaneFraction: 0.12}
}

func debounced(d time.Duration) Options {
	return Options{RefreshDebounce: d, MinPaneFraction: 0.12}
}
