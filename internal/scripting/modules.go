package scripting

import (
	"encoding/json"
	"log/slog"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/require"

	"github.com/casement-shell/casement/internal/logging"
)

// modulePrefix namespaces the native modules exposed to scripts, e.g.
// require("casement:nativeUI").
const modulePrefix = "casement:"

// Dispatcher is the slice of the message router the scripting side needs.
// nativeui.Bridge satisfies it.
type Dispatcher interface {
	DispatchRaw(raw []byte) []byte
	Session() string
}

// RegisterModules registers the native modules with the runtime's require
// registry. Must run before any script requires them.
func RegisterModules(rt *Runtime, d Dispatcher, events *EventBridge, logs *logging.Bridge) {
	rt.Registry().RegisterNativeModule(modulePrefix+"nativeUI", requireNativeUI(d, events))
	rt.Registry().RegisterNativeModule(modulePrefix+"log", requireLog(logs))
}

// requireNativeUI exposes the widget bridge:
//
//	postMessage(msg): send one wire message (object or JSON string),
//	    returns the parsed response envelope.
//	onEvent(fn): register fn(action, payload) for widget events.
//	session(): the response session id.
func requireNativeUI(d Dispatcher, events *EventBridge) require.ModuleLoader {
	return func(runtime *goja.Runtime, module *goja.Object) {
		exports := module.Get("exports").(*goja.Object)

		_ = exports.Set("postMessage", func(call goja.FunctionCall) goja.Value {
			raw, err := messageBytes(call.Argument(0))
			if err != nil {
				panic(runtime.NewTypeError("postMessage: %v", err))
			}
			resp := d.DispatchRaw(raw)
			var parsed any
			if err := json.Unmarshal(resp, &parsed); err != nil {
				panic(runtime.NewGoError(err))
			}
			return runtime.ToValue(parsed)
		})

		_ = exports.Set("onEvent", func(call goja.FunctionCall) goja.Value {
			fn, ok := goja.AssertFunction(call.Argument(0))
			if !ok {
				panic(runtime.NewTypeError("onEvent requires a function"))
			}
			events.subscribe(fn)
			return goja.Undefined()
		})

		_ = exports.Set("session", func(goja.FunctionCall) goja.Value {
			return runtime.ToValue(d.Session())
		})
	}
}

// messageBytes accepts either a JSON string or a plain object.
func messageBytes(v goja.Value) ([]byte, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, errMissingMessage
	}
	if s, ok := v.Export().(string); ok {
		return []byte(s), nil
	}
	return json.Marshal(v.Export())
}

var errMissingMessage = &jsArgError{"missing message argument"}

type jsArgError struct{ msg string }

func (e *jsArgError) Error() string { return e.msg }

// requireLog exposes the log bridge: debug/info/warn/error(msg), plus
// recent(n) and search(q) over the in-memory ring.
func requireLog(logs *logging.Bridge) require.ModuleLoader {
	return func(runtime *goja.Runtime, module *goja.Object) {
		exports := module.Get("exports").(*goja.Object)

		level := func(emit func(string, ...slog.Attr)) func(goja.FunctionCall) goja.Value {
			return func(call goja.FunctionCall) goja.Value {
				emit(call.Argument(0).String(), slog.String("source", "script"))
				return goja.Undefined()
			}
		}
		_ = exports.Set("debug", level(logs.Debug))
		_ = exports.Set("info", level(logs.Info))
		_ = exports.Set("warn", level(logs.Warn))
		_ = exports.Set("error", level(logs.Error))

		toValues := func(entries []logging.Entry) goja.Value {
			out := make([]map[string]any, 0, len(entries))
			for _, e := range entries {
				out = append(out, map[string]any{
					"time":    e.Time.UnixMilli(),
					"level":   e.Level.String(),
					"message": e.Message,
				})
			}
			return runtime.ToValue(out)
		}
		_ = exports.Set("recent", func(call goja.FunctionCall) goja.Value {
			n := int(call.Argument(0).ToInteger())
			return toValues(logs.Recent(n))
		})
		_ = exports.Set("search", func(call goja.FunctionCall) goja.Value {
			return toValues(logs.Search(call.Argument(0).String()))
		})
	}
}
