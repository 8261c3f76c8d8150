package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/term"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casement-shell/casement/internal/config"
	"github.com/casement-shell/casement/internal/host"
)

// headlessTerm reports no terminal so the app runs against a simulation
// screen.
type headlessTerm struct {
	host.StdioTerminal
}

func (headlessTerm) IsTerminal() bool              { return false }
func (headlessTerm) MakeRaw() (*term.State, error) { return nil, nil }
func (headlessTerm) Restore(*term.State) error     { return nil }

func writeScript(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.js")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o600))
	return path
}

func runApp(t *testing.T, a *App) (cancel func(), wait func() error) {
	t.Helper()
	ctx, cancelCtx := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	t.Cleanup(cancelCtx)
	return cancelCtx, func() error {
		select {
		case err := <-done:
			return err
		case <-time.After(10 * time.Second):
			t.Fatal("app did not shut down")
			return nil
		}
	}
}

func TestRun_ScriptDrivesWidgets(t *testing.T) {
	cfg := config.New()
	cfg.Script = writeScript(t, `
		const ui = require("casement:nativeUI");
		const log = require("casement:log");

		const nav = ui.postMessage({domain: "nativeUI", action: "createSidebar", data: {id: "nav"}});
		if (!nav.ok) throw new Error("createSidebar: " + nav.error.message);

		const sec = ui.postMessage({domain: "nativeUI", action: "addSidebarSection",
			data: {id: "nav", section: {id: "s", header: "Mailboxes", items: [{id: "inbox", label: "Inbox"}]}}});
		if (!sec.ok) throw new Error("addSidebarSection: " + sec.error.message);

		const value = ui.postMessage({domain: "nativeUI", action: "getItemValue",
			data: {id: "nav", itemId: "inbox", column: "label"}});
		if (value.result !== "Inbox") throw new Error("bad value: " + value.result);

		const dup = ui.postMessage({domain: "nativeUI", action: "createFileBrowser", data: {id: "nav"}});
		if (dup.ok || dup.error.code !== "DuplicateId") throw new Error("expected DuplicateId");

		ui.onEvent((action, payload) => {
			log.info("event " + action + " " + payload.itemId);
		});
		const sel = ui.postMessage({domain: "nativeUI", action: "setSelectedItem",
			data: {id: "nav", itemId: "inbox", echo: true}});
		if (!sel.ok) throw new Error("setSelectedItem: " + sel.error.message);

		log.info("script completed");
	`)
	a := New(cfg, headlessTerm{})
	cancel, wait := runApp(t, a)

	require.Eventually(t, func() bool {
		return len(a.Logs().Search("script completed")) == 1
	}, 10*time.Second, 20*time.Millisecond)
	require.Eventually(t, func() bool {
		return len(a.Logs().Search("event sidebarSelect inbox")) == 1
	}, 10*time.Second, 20*time.Millisecond)
	assert.Empty(t, a.Logs().Search("script failed"))

	cancel()
	require.NoError(t, wait())
}

func TestRun_ScriptErrorStopsWindow(t *testing.T) {
	cfg := config.New()
	cfg.Script = writeScript(t, `throw new Error("deliberate");`)
	a := New(cfg, headlessTerm{})
	_, wait := runApp(t, a)

	require.NoError(t, wait(), "script failure closes the window, it does not crash the run")
	assert.NotEmpty(t, a.Logs().Search("script failed"))
}

func TestRun_MissingScriptIsAnError(t *testing.T) {
	cfg := config.New()
	a := New(cfg, headlessTerm{})
	err := a.Run(context.Background())
	require.Error(t, err)

	cfg.Script = filepath.Join(t.TempDir(), "absent.js")
	err = New(cfg, headlessTerm{}).Run(context.Background())
	require.Error(t, err)
}
