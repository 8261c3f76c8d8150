//go:build debug

// Debug-only UI-thread assertions. The widget toolkit is single-threaded;
// touching a component record off the UI goroutine is a programming error,
// not bad input, so it traps hard in debug builds.
//
// To enable: go build -tags debug ./...
package host

import (
	"fmt"
	"runtime"

	"github.com/casement-shell/casement/internal/goroutineid"
)

// AssertUIThread panics if the caller is not the UI goroutine. A host whose
// UI goroutine has not been captured yet (Run not started) is exempt, since
// startup wiring is single-threaded by construction.
func (h *Host) AssertUIThread(op string) {
	ui := h.uiGoroutine.Load()
	if ui == 0 {
		return
	}
	if got := goroutineid.Get(); got != ui {
		buf := make([]byte, 4096)
		n := runtime.Stack(buf, false)
		panic(fmt.Sprintf("host: %s called off the UI thread (goroutine %d, UI is %d)\nStack:\n%s", op, got, ui, buf[:n]))
	}
}
