package nativeui

import (
	"encoding/json"
	"time"
)

// Wire protocol types. Messages arrive as JSON from the scripting surface:
//
//	{"domain": "nativeUI", "action": "addFile", "data": {...}}
//
// Responses and events travel back as JSON through the event sink's
// well-known entry point.

// Message is a single inbound wire message.
type Message struct {
	Domain string          `json:"domain"`
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Response is the reply to a single Message.
type Response struct {
	OK      bool       `json:"ok"`
	Result  any        `json:"result,omitempty"`
	Error   *WireError `json:"error,omitempty"`
	Session string     `json:"session,omitempty"`
}

// WireError is the error payload shape: {error: {code, message}}.
type WireError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// SelectionEvent is the payload for hierarchical-list selection events.
type SelectionEvent struct {
	ID     string `json:"id"`
	ItemID string `json:"itemId"`
}

// FileEvent is the payload for tabular-list selection and activation events.
type FileEvent struct {
	ID     string `json:"id"`
	FileID string `json:"fileId"`
}

// Event action names delivered to the scripting side.
const (
	EventSidebarSelect = "sidebarSelect"
	EventFileSelect    = "fileSelect"
	EventFileActivate  = "fileActivate"
)

// wireItem mirrors an Item on the wire. Absent "active" means active.
type wireItem struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Icon   string `json:"icon,omitempty"`
	Badge  string `json:"badge,omitempty"`
	Active *bool  `json:"active,omitempty"`
}

func (w wireItem) toItem() Item {
	active := true
	if w.Active != nil {
		active = *w.Active
	}
	return Item{ID: w.ID, Label: w.Label, Icon: w.Icon, Badge: w.Badge, Active: active}
}

// wireSection mirrors a Section on the wire.
type wireSection struct {
	ID     string     `json:"id"`
	Header string     `json:"header"`
	Items  []wireItem `json:"items,omitempty"`
}

func (w wireSection) toSection() Section {
	s := Section{ID: w.ID, Header: w.Header}
	for _, it := range w.Items {
		s.Items = append(s.Items, it.toItem())
	}
	return s
}

// wireFile mirrors a FileEntry on the wire. Modified is epoch milliseconds,
// the representation a JS Date produces; size in bytes. Both optional.
type wireFile struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Icon     string   `json:"icon,omitempty"`
	Modified *float64 `json:"modified,omitempty"`
	Size     *int64   `json:"size,omitempty"`
	Kind     string   `json:"kind,omitempty"`
}

func (w wireFile) toFileEntry() FileEntry {
	e := FileEntry{ID: w.ID, Name: w.Name, Icon: w.Icon, Kind: w.Kind, Size: -1}
	if w.Modified != nil {
		e.Modified = time.UnixMilli(int64(*w.Modified))
	}
	if w.Size != nil && *w.Size >= 0 {
		e.Size = *w.Size
	}
	return e
}
