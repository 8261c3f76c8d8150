package scripting

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/dop251/goja"
)

// EventBridge forwards widget events from the UI thread onto the script
// event loop. It satisfies the event sink the widget layer expects: Emit
// is called on the UI thread, handlers run on the loop goroutine, and the
// payload crosses between them as JSON so no goja value escapes the loop.
type EventBridge struct {
	rt  *Runtime
	log *slog.Logger

	mu       sync.Mutex
	handlers []goja.Callable
}

// NewEventBridge builds a sink delivering into rt.
func NewEventBridge(rt *Runtime, log *slog.Logger) *EventBridge {
	return &EventBridge{rt: rt, log: log}
}

// subscribe registers a handler. Called from the loop goroutine via the
// nativeUI module.
func (e *EventBridge) subscribe(fn goja.Callable) {
	e.mu.Lock()
	e.handlers = append(e.handlers, fn)
	e.mu.Unlock()
}

// Emit delivers one event to every registered handler, asynchronously. A
// stopped runtime drops the event; a handler that throws is logged and
// does not block the remaining handlers.
func (e *EventBridge) Emit(action string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		e.log.Error("event payload not encodable",
			slog.String("action", action), slog.String("error", err.Error()))
		return
	}
	if !e.rt.RunOnLoop(func(vm *goja.Runtime) {
		var parsed any
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return
		}
		value := vm.ToValue(parsed)
		e.mu.Lock()
		handlers := make([]goja.Callable, len(e.handlers))
		copy(handlers, e.handlers)
		e.mu.Unlock()
		for _, fn := range handlers {
			if _, err := fn(goja.Undefined(), vm.ToValue(action), value); err != nil {
				e.log.Warn("event handler failed",
					slog.String("action", action), slog.String("error", err.Error()))
			}
		}
	}) {
		e.log.Debug("event dropped, runtime stopped", slog.String("action", action))
	}
}
