// Package app wires the shell together: configuration, logging, the
// script runtime, the UI host, and the widget bridge.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dop251/goja"
	"github.com/gdamore/tcell/v2"

	"github.com/casement-shell/casement/internal/config"
	"github.com/casement-shell/casement/internal/host"
	"github.com/casement-shell/casement/internal/icons"
	"github.com/casement-shell/casement/internal/logging"
	"github.com/casement-shell/casement/internal/nativeui"
	"github.com/casement-shell/casement/internal/scripting"
)

// App is one run of the shell: a script driving native widgets in a
// terminal window.
type App struct {
	cfg  *config.Config
	logs *logging.Bridge
	term host.TerminalOps
}

// New builds an App over the given configuration. A nil terminal uses
// process stdio.
func New(cfg *config.Config, term host.TerminalOps) *App {
	if term == nil {
		term = host.StdioTerminal{}
	}
	return &App{
		cfg:  cfg,
		logs: logging.New(cfg.LogCapacity),
		term: term,
	}
}

// Logs exposes the in-memory log bridge, mainly for tests.
func (a *App) Logs() *logging.Bridge { return a.logs }

// Run executes the configured script against a live window and blocks
// until the window closes or ctx is canceled. Without a terminal attached
// (CI, pipes) the window renders into a simulation screen so scripts still
// run to completion.
func (a *App) Run(ctx context.Context) error {
	if a.cfg.Script == "" {
		return errors.New("no script configured; pass one or set script in the config file")
	}
	source, err := os.ReadFile(a.cfg.Script)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	for _, warning := range a.cfg.Warnings {
		a.logs.Warn(warning)
	}

	rt, err := scripting.NewRuntime(ctx)
	if err != nil {
		return fmt.Errorf("start script runtime: %w", err)
	}
	defer func() { _ = rt.Close() }()

	var hostOpts []host.Option
	if !a.term.IsTerminal() {
		sim := tcell.NewSimulationScreen("UTF-8")
		if err := sim.Init(); err != nil {
			return fmt.Errorf("init simulation screen: %w", err)
		}
		hostOpts = append(hostOpts, host.WithScreen(sim))
		a.logs.Info("no terminal attached, using simulation screen")
	}
	h := host.New(hostOpts...)

	events := scripting.NewEventBridge(rt, a.logs.Logger())
	bridge := nativeui.NewBridge(h, a.windowResolver(h), events, a.logs.Logger(), nativeui.Options{
		RefreshDebounce: a.cfg.RefreshDebounce,
		MinPaneFraction: a.cfg.MinPaneFraction,
		Icons:           icons.Lookup,
	})
	nativeui.BindWindowClose(h, bridge.Registry(), a.logs.Logger())
	scripting.RegisterModules(rt, bridge, events, a.logs)

	// The script runs concurrently with the window's event loop; early
	// widget calls queue until the loop starts draining.
	stop := context.AfterFunc(ctx, h.Stop)
	defer stop()
	go a.runScript(rt, h, a.cfg.Script, string(source))

	if err := h.Run(); err != nil {
		return fmt.Errorf("window event loop: %w", err)
	}
	return nil
}

func (a *App) windowResolver(h *host.Host) nativeui.WindowResolver {
	return func() nativeui.Window { return h.ContentArea() }
}

// runScript executes the script on the event loop without a completion
// bound, since scripts may legitimately run for the window's lifetime. A
// script error is fatal to the run: it is logged and the window shuts
// down.
func (a *App) runScript(rt *scripting.Runtime, h *host.Host, name, source string) {
	scheduled := rt.RunOnLoop(func(vm *goja.Runtime) {
		if _, err := vm.RunScript(name, source); err != nil {
			a.logs.Error("script failed",
				slog.String("script", name), slog.String("error", err.Error()))
			h.Stop()
		}
	})
	if !scheduled {
		a.logs.Error("script runtime stopped before script start", slog.String("script", name))
		h.Stop()
	}
}
