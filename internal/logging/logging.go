// Package logging provides the bridge logger: a slog.Logger whose handler
// retains a bounded ring of entries so the scripting side can pull recent
// logs over the wire. The native toolkit owns the terminal, so nothing here
// writes to stdout/stderr directly while the window is up.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Entry is a single retained log record.
type Entry struct {
	Time    time.Time         `json:"time"`
	Level   slog.Level        `json:"level"`
	Message string            `json:"message"`
	Attrs   map[string]string `json:"attrs,omitempty"`
}

// Bridge is a capacity-bounded, queryable logger shared by the host, the
// router, and the scripting runtime.
type Bridge struct {
	logger  *slog.Logger
	handler *ringHandler

	// mirror, when set, additionally receives rendered lines. Used when the
	// shell runs headless (no window) and in tests.
	mirrorMu sync.RWMutex
	mirror   io.Writer
}

// New creates a bridge logger retaining up to maxEntries records.
func New(maxEntries int) *Bridge {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	h := &ringHandler{ring: &ring{max: maxEntries}}
	b := &Bridge{handler: h}
	h.ring.bridge = b
	b.logger = slog.New(h)
	return b
}

// Logger returns the slog.Logger backed by the ring handler.
func (b *Bridge) Logger() *slog.Logger { return b.logger }

// SetMirror directs rendered log lines to w in addition to the ring.
// Pass nil to disable.
func (b *Bridge) SetMirror(w io.Writer) {
	b.mirrorMu.Lock()
	b.mirror = w
	b.mirrorMu.Unlock()
}

// Debug logs at debug level.
func (b *Bridge) Debug(msg string, attrs ...slog.Attr) {
	b.logger.LogAttrs(context.Background(), slog.LevelDebug, msg, attrs...)
}

// Info logs at info level.
func (b *Bridge) Info(msg string, attrs ...slog.Attr) {
	b.logger.LogAttrs(context.Background(), slog.LevelInfo, msg, attrs...)
}

// Warn logs at warn level.
func (b *Bridge) Warn(msg string, attrs ...slog.Attr) {
	b.logger.LogAttrs(context.Background(), slog.LevelWarn, msg, attrs...)
}

// Error logs at error level.
func (b *Bridge) Error(msg string, attrs ...slog.Attr) {
	b.logger.LogAttrs(context.Background(), slog.LevelError, msg, attrs...)
}

// Recent returns the most recent n entries, oldest first. n <= 0 returns
// everything retained.
func (b *Bridge) Recent(n int) []Entry {
	r := b.handler.ring
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.entries
	if n <= 0 || n > len(entries) {
		n = len(entries)
	}
	out := make([]Entry, n)
	copy(out, entries[len(entries)-n:])
	return out
}

// Search returns retained entries whose message or attributes contain query
// (case-insensitive).
func (b *Bridge) Search(query string) []Entry {
	r := b.handler.ring
	r.mu.RLock()
	defer r.mu.RUnlock()
	query = strings.ToLower(query)
	var out []Entry
	for _, e := range r.entries {
		if strings.Contains(strings.ToLower(e.Message), query) {
			out = append(out, e)
			continue
		}
		for k, v := range e.Attrs {
			if strings.Contains(strings.ToLower(k), query) || strings.Contains(strings.ToLower(v), query) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// Clear drops all retained entries.
func (b *Bridge) Clear() {
	r := b.handler.ring
	r.mu.Lock()
	r.entries = r.entries[:0]
	r.mu.Unlock()
}

// ringHandler implements slog.Handler over a shared bounded buffer. Derived
// handlers (WithAttrs) contribute to the same ring.
type ringHandler struct {
	ring  *ring
	attrs []slog.Attr
}

type ring struct {
	bridge  *Bridge
	mu      sync.RWMutex
	max     int
	entries []Entry
}

func (h *ringHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *ringHandler) Handle(_ context.Context, record slog.Record) error {
	attrs := make(map[string]string, record.NumAttrs()+len(h.attrs))
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.String()
	}
	record.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.String()
		return true
	})
	if len(attrs) == 0 {
		attrs = nil
	}
	e := Entry{Time: record.Time, Level: record.Level, Message: record.Message, Attrs: attrs}

	r := h.ring
	r.mu.Lock()
	r.entries = append(r.entries, e)
	if len(r.entries) > r.max {
		r.entries = r.entries[len(r.entries)-r.max:]
	}
	r.mu.Unlock()

	r.bridge.mirrorMu.RLock()
	mirror := r.bridge.mirror
	r.bridge.mirrorMu.RUnlock()
	if mirror != nil {
		line := e.Time.Format(time.RFC3339) + " " + e.Level.String() + " " + e.Message + "\n"
		_, _ = io.WriteString(mirror, line)
	}
	return nil
}

func (h *ringHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ringHandler{
		ring:  h.ring,
		attrs: append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *ringHandler) WithGroup(string) slog.Handler {
	// Groups are flattened; the wire representation is a flat string map.
	return h
}
