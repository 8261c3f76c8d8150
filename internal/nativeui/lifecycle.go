package nativeui

import "log/slog"

// CloseBinder registers a hook to run when the hosting window shuts down.
// The host's OnClose satisfies it; hooks run on the UI goroutine after the
// event loop exits.
type CloseBinder interface {
	OnClose(fn func())
}

// BindWindowClose arranges for every live component to be destroyed when
// the window closes, in the same three-step order an explicit destroy
// uses. Scripts that never clean up after themselves therefore cannot leak
// native resources past the window.
func BindWindowClose(binder CloseBinder, reg *Registry, log *slog.Logger) {
	binder.OnClose(func() {
		n := reg.Len()
		reg.DestroyAll()
		if n > 0 {
			log.Debug("window closed, components destroyed", slog.Int("count", n))
		}
	})
}
