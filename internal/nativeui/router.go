package nativeui

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Domain is the wire domain this router answers for.
const Domain = "nativeUI"

// Options tune a Bridge.
type Options struct {
	// RefreshDebounce is the coalescing window for visual refreshes.
	// Non-positive means refresh immediately.
	RefreshDebounce time.Duration
	// MinPaneFraction clamps split-container divider positions.
	MinPaneFraction float64
	// Icons resolves symbolic icon names. Nil disables glyphs.
	Icons IconLookup
}

// Bridge is the message router: it owns the component registry, validates
// inbound wire messages, marshals each one onto the UI thread, and shapes
// the uniform response envelope. One bridge serves one scripting session.
type Bridge struct {
	ui       UI
	reg      *Registry
	log      *slog.Logger
	session  string
	deps     widgetDeps
	handlers map[string]func(data json.RawMessage) (any, error)
}

// NewBridge wires a router over the given host, window, and event sink.
func NewBridge(ui UI, window WindowResolver, events EventSink, log *slog.Logger, opts Options) *Bridge {
	b := &Bridge{
		ui:      ui,
		reg:     NewRegistry(ui),
		log:     log,
		session: uuid.NewString(),
		deps: widgetDeps{
			ui:      ui,
			window:  window,
			events:  events,
			icons:   opts.Icons,
			minPane: opts.MinPaneFraction,
			refresh: func(fire func()) RefreshScheduler {
				return NewDebouncer(ui, opts.RefreshDebounce, fire)
			},
		},
	}
	b.handlers = map[string]func(json.RawMessage) (any, error){
		"createSidebar":      b.createSidebar,
		"addSidebarSection":  b.addSidebarSection,
		"addSidebarItem":     b.addSidebarItem,
		"setSelectedItem":    b.setSelectedItem,
		"expandSection":      b.expandSection,
		"getItemValue":       b.getItemValue,
		"createFileBrowser":  b.createFileBrowser,
		"addFile":            b.addFile,
		"addFiles":           b.addFiles,
		"setSelectedFile":    b.setSelectedFile,
		"getCellValue":       b.getCellValue,
		"createSplitView":    b.createSplitView,
		"setPane":            b.setPane,
		"setDividerPosition": b.setDividerPosition,
		"destroy":            b.destroy,
		"destroyAll":         b.destroyAll,
	}
	return b
}

// Session is the id stamped on every response envelope.
func (b *Bridge) Session() string { return b.session }

// Registry exposes the component arena, primarily for lifecycle wiring.
func (b *Bridge) Registry() *Registry { return b.reg }

// DispatchRaw parses one wire message, executes it on the UI thread, and
// returns the JSON response envelope. It never returns an error: every
// failure becomes a coded error payload, because the scripting side has no
// other channel to receive one.
func (b *Bridge) DispatchRaw(raw []byte) []byte {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return b.respond(nil, Errf(CodeInvalidMessage, "malformed message: %v", err))
	}
	result, err := b.Dispatch(msg)
	return b.respond(result, err)
}

// Dispatch validates and executes one parsed message on the UI thread.
func (b *Bridge) Dispatch(msg Message) (any, error) {
	if msg.Domain != Domain {
		return nil, Errf(CodeUnknownAction, "unknown domain %q", msg.Domain)
	}
	handler, ok := b.handlers[msg.Action]
	if !ok {
		return nil, Errf(CodeUnknownAction, "unknown action %q", msg.Action)
	}
	var (
		result any
		err    error
	)
	syncErr := b.ui.RunSync(func() {
		result, err = handler(msg.Data)
	})
	if syncErr != nil {
		return nil, Errf(CodeInvalidState, "ui thread unavailable: %v", syncErr)
	}
	if err != nil {
		b.log.Debug("action failed",
			slog.String("action", msg.Action),
			slog.String("code", string(CodeOf(err))),
			slog.String("error", err.Error()))
	} else {
		b.log.Debug("action ok", slog.String("action", msg.Action))
	}
	return result, err
}

func (b *Bridge) respond(result any, err error) []byte {
	resp := Response{OK: err == nil, Result: result, Session: b.session}
	if err != nil {
		resp.Error = &WireError{Code: CodeOf(err), Message: err.Error()}
	}
	out, mErr := json.Marshal(resp)
	if mErr != nil {
		// Result was unmarshalable; report that instead of the result.
		fallback := Response{
			OK:      false,
			Error:   &WireError{Code: CodeInvalidMessage, Message: "unencodable result: " + mErr.Error()},
			Session: b.session,
		}
		out, _ = json.Marshal(fallback)
	}
	return out
}

// decode parses an action's data payload. Unknown fields are ignored so
// newer scripts keep working against an older shell; handlers enforce
// their required fields explicitly.
func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return Errf(CodeInvalidMessage, "missing data payload")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return Errf(CodeInvalidMessage, "invalid data payload: %v", err)
	}
	return nil
}

// Typed component lookups. A live component of the wrong kind is an
// InvalidState, distinct from NotFound, so scripts can tell "wrong id"
// from "wrong widget".

func (b *Bridge) sidebarByID(id string) (*Sidebar, error) {
	c, err := b.reg.Get(id)
	if err != nil {
		return nil, err
	}
	sb, ok := c.(*Sidebar)
	if !ok {
		return nil, Errf(CodeInvalidState, "component %q is a %s, not a %s", id, c.Kind(), KindSidebar)
	}
	return sb, nil
}

func (b *Bridge) fileBrowserByID(id string) (*FileBrowser, error) {
	c, err := b.reg.Get(id)
	if err != nil {
		return nil, err
	}
	fb, ok := c.(*FileBrowser)
	if !ok {
		return nil, Errf(CodeInvalidState, "component %q is a %s, not a %s", id, c.Kind(), KindFileBrowser)
	}
	return fb, nil
}

func (b *Bridge) splitViewByID(id string) (*SplitView, error) {
	c, err := b.reg.Get(id)
	if err != nil {
		return nil, err
	}
	sv, ok := c.(*SplitView)
	if !ok {
		return nil, Errf(CodeInvalidState, "component %q is a %s, not a %s", id, c.Kind(), KindSplitView)
	}
	return sv, nil
}

// createdResult is the uniform create response payload.
type createdResult struct {
	ID string `json:"id"`
}

func (b *Bridge) createSidebar(data json.RawMessage) (any, error) {
	var req struct {
		ID string `json:"id,omitempty"`
	}
	if len(data) > 0 {
		if err := decode(data, &req); err != nil {
			return nil, err
		}
	}
	c, err := b.reg.Create(req.ID, func(id string, res *resolver) (Component, error) {
		return NewSidebar(id, res, b.deps)
	})
	if err != nil {
		return nil, err
	}
	return createdResult{ID: c.ID()}, nil
}

func (b *Bridge) addSidebarSection(data json.RawMessage) (any, error) {
	var req struct {
		ID      string      `json:"id"`
		Section wireSection `json:"section"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	if req.ID == "" || req.Section.ID == "" {
		return nil, Errf(CodeInvalidMessage, "addSidebarSection requires id and section.id")
	}
	sb, err := b.sidebarByID(req.ID)
	if err != nil {
		return nil, err
	}
	if err := sb.AddSection(req.Section.toSection()); err != nil {
		return nil, err
	}
	return nil, nil
}

func (b *Bridge) addSidebarItem(data json.RawMessage) (any, error) {
	var req struct {
		ID        string   `json:"id"`
		SectionID string   `json:"sectionId"`
		Item      wireItem `json:"item"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	if req.ID == "" || req.SectionID == "" || req.Item.ID == "" {
		return nil, Errf(CodeInvalidMessage, "addSidebarItem requires id, sectionId, and item.id")
	}
	sb, err := b.sidebarByID(req.ID)
	if err != nil {
		return nil, err
	}
	return nil, sb.AddItem(req.SectionID, req.Item.toItem())
}

func (b *Bridge) setSelectedItem(data json.RawMessage) (any, error) {
	var req struct {
		ID     string `json:"id"`
		ItemID string `json:"itemId"`
		Echo   bool   `json:"echo,omitempty"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	if req.ID == "" || req.ItemID == "" {
		return nil, Errf(CodeInvalidMessage, "setSelectedItem requires id and itemId")
	}
	sb, err := b.sidebarByID(req.ID)
	if err != nil {
		return nil, err
	}
	return nil, sb.SetSelected(req.ItemID, req.Echo)
}

func (b *Bridge) expandSection(data json.RawMessage) (any, error) {
	var req struct {
		ID        string `json:"id"`
		SectionID string `json:"sectionId"`
		Expanded  *bool  `json:"expanded,omitempty"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	if req.ID == "" || req.SectionID == "" {
		return nil, Errf(CodeInvalidMessage, "expandSection requires id and sectionId")
	}
	sb, err := b.sidebarByID(req.ID)
	if err != nil {
		return nil, err
	}
	expanded := true
	if req.Expanded != nil {
		expanded = *req.Expanded
	}
	return nil, sb.ExpandSection(req.SectionID, expanded)
}

func (b *Bridge) getItemValue(data json.RawMessage) (any, error) {
	var req struct {
		ID     string `json:"id"`
		ItemID string `json:"itemId"`
		Column string `json:"column"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	if req.ID == "" || req.ItemID == "" || req.Column == "" {
		return nil, Errf(CodeInvalidMessage, "getItemValue requires id, itemId, and column")
	}
	sb, err := b.sidebarByID(req.ID)
	if err != nil {
		return nil, err
	}
	return sb.ItemValue(req.ItemID, req.Column), nil
}

func (b *Bridge) createFileBrowser(data json.RawMessage) (any, error) {
	var req struct {
		ID string `json:"id,omitempty"`
	}
	if len(data) > 0 {
		if err := decode(data, &req); err != nil {
			return nil, err
		}
	}
	c, err := b.reg.Create(req.ID, func(id string, res *resolver) (Component, error) {
		return NewFileBrowser(id, res, b.deps)
	})
	if err != nil {
		return nil, err
	}
	return createdResult{ID: c.ID()}, nil
}

func (b *Bridge) addFile(data json.RawMessage) (any, error) {
	var req struct {
		ID   string   `json:"id"`
		File wireFile `json:"file"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	if req.ID == "" || req.File.ID == "" || req.File.Name == "" {
		return nil, Errf(CodeInvalidMessage, "addFile requires id, file.id, and file.name")
	}
	fb, err := b.fileBrowserByID(req.ID)
	if err != nil {
		return nil, err
	}
	return nil, fb.AddFiles(req.File.toFileEntry())
}

func (b *Bridge) addFiles(data json.RawMessage) (any, error) {
	var req struct {
		ID    string     `json:"id"`
		Files []wireFile `json:"files"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	if req.ID == "" {
		return nil, Errf(CodeInvalidMessage, "addFiles requires id")
	}
	// Validate the whole batch before touching the store so a bad entry
	// leaves the component unchanged.
	entries := make([]FileEntry, 0, len(req.Files))
	for i, f := range req.Files {
		if f.ID == "" || f.Name == "" {
			return nil, Errf(CodeInvalidMessage, "addFiles entry %d requires id and name", i)
		}
		entries = append(entries, f.toFileEntry())
	}
	fb, err := b.fileBrowserByID(req.ID)
	if err != nil {
		return nil, err
	}
	return nil, fb.AddFiles(entries...)
}

func (b *Bridge) setSelectedFile(data json.RawMessage) (any, error) {
	var req struct {
		ID     string `json:"id"`
		FileID string `json:"fileId"`
		Echo   bool   `json:"echo,omitempty"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	if req.ID == "" || req.FileID == "" {
		return nil, Errf(CodeInvalidMessage, "setSelectedFile requires id and fileId")
	}
	fb, err := b.fileBrowserByID(req.ID)
	if err != nil {
		return nil, err
	}
	return nil, fb.SetSelected(req.FileID, req.Echo)
}

func (b *Bridge) getCellValue(data json.RawMessage) (any, error) {
	var req struct {
		ID     string `json:"id"`
		FileID string `json:"fileId"`
		Column string `json:"column"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	if req.ID == "" || req.FileID == "" || req.Column == "" {
		return nil, Errf(CodeInvalidMessage, "getCellValue requires id, fileId, and column")
	}
	fb, err := b.fileBrowserByID(req.ID)
	if err != nil {
		return nil, err
	}
	return fb.CellValue(req.FileID, req.Column), nil
}

func (b *Bridge) createSplitView(data json.RawMessage) (any, error) {
	var req struct {
		ID     string `json:"id,omitempty"`
		First  string `json:"first,omitempty"`
		Second string `json:"second,omitempty"`
	}
	if len(data) > 0 {
		if err := decode(data, &req); err != nil {
			return nil, err
		}
	}
	c, err := b.reg.Create(req.ID, func(id string, res *resolver) (Component, error) {
		return NewSplitView(id, b.reg, b.deps)
	})
	if err != nil {
		return nil, err
	}
	sv := c.(*SplitView)
	for _, assign := range []struct {
		pane    Pane
		childID string
	}{{PaneFirst, req.First}, {PaneSecond, req.Second}} {
		if assign.childID == "" {
			continue
		}
		if err := sv.SetPane(assign.pane, assign.childID); err != nil {
			// A rejected pane must not leave a half-built container live.
			_ = b.reg.Destroy(sv.ID())
			return nil, err
		}
	}
	return createdResult{ID: sv.ID()}, nil
}

func (b *Bridge) setPane(data json.RawMessage) (any, error) {
	var req struct {
		ID      string `json:"id"`
		Pane    string `json:"pane"`
		ChildID string `json:"childId"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	if req.ID == "" || req.Pane == "" || req.ChildID == "" {
		return nil, Errf(CodeInvalidMessage, "setPane requires id, pane, and childId")
	}
	sv, err := b.splitViewByID(req.ID)
	if err != nil {
		return nil, err
	}
	return nil, sv.SetPane(Pane(req.Pane), req.ChildID)
}

func (b *Bridge) setDividerPosition(data json.RawMessage) (any, error) {
	var req struct {
		ID       string   `json:"id"`
		Fraction *float64 `json:"fraction"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	if req.ID == "" || req.Fraction == nil {
		return nil, Errf(CodeInvalidMessage, "setDividerPosition requires id and fraction")
	}
	sv, err := b.splitViewByID(req.ID)
	if err != nil {
		return nil, err
	}
	return nil, sv.SetDivider(*req.Fraction)
}

func (b *Bridge) destroy(data json.RawMessage) (any, error) {
	var req struct {
		ID string `json:"id"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	if req.ID == "" {
		return nil, Errf(CodeInvalidMessage, "destroy requires id")
	}
	return nil, b.reg.Destroy(req.ID)
}

func (b *Bridge) destroyAll(json.RawMessage) (any, error) {
	b.reg.DestroyAll()
	return nil, nil
}
