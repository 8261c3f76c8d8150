package nativeui

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rivo/tview"
)

// Protocol adapters bridge the toolkit's callback protocols to a widget's
// backing store. The toolkit holds these objects for as long as the widget
// lives, so none of them may hold a direct pointer to the component: each
// one goes through a resolver, which is a (registry, id) pair — an index
// into the component arena. A query against a destroyed or missing slot
// fails closed (zero count, nil cell, empty value); the toolkit's render
// protocols have no error channel, so silent degradation is the only
// option. See the adjacent doc comments for where that trade-off bites.

// nodeRef identifies a node of a hierarchical list. The zero value is the
// invisible root; a ref with only SectionID set is a section header row.
type nodeRef struct {
	SectionID string
	ItemID    string
}

func (n nodeRef) isRoot() bool    { return n.SectionID == "" && n.ItemID == "" }
func (n nodeRef) isSection() bool { return n.SectionID != "" && n.ItemID == "" }

// Row height constants handed back by the outline height query. Section
// headers get a blank separator line above them; leaf items are single
// rows.
const (
	heightSectionHeader = 2
	heightItem          = 1
)

// Column identifiers used by the value queries.
const (
	columnLabel = "label"
	columnIcon  = "icon"
	columnBadge = "badge"

	ColumnName     = "name"
	ColumnModified = "modified"
	ColumnSize     = "size"
	ColumnKind     = "kind"
)

// fileColumns is the tabular list's column order.
var fileColumns = []string{ColumnName, ColumnModified, ColumnSize, ColumnKind}

// resolver is the back-pointer from a native-held adapter to its owning
// component: a registry index, never an owning reference. Detach makes all
// subsequent lookups fail closed, which is step two of the registry's
// three-step destroy ordering.
type resolver struct {
	reg      *Registry
	id       string
	detached atomic.Bool
}

func newResolver(reg *Registry, id string) *resolver {
	return &resolver{reg: reg, id: id}
}

func (r *resolver) detach() { r.detached.Store(true) }

// component returns the live owning component, or nil once the component
// is destroyed, mid-teardown, or the resolver detached.
func (r *resolver) component() Component {
	if r == nil || r.detached.Load() {
		return nil
	}
	return r.reg.live(r.id)
}

func (r *resolver) sidebar() *Sidebar {
	if c, ok := r.component().(*Sidebar); ok {
		return c
	}
	return nil
}

func (r *resolver) fileBrowser() *FileBrowser {
	if c, ok := r.component().(*FileBrowser); ok {
		return c
	}
	return nil
}

// outlineSource answers the hierarchical data-source protocol: child count,
// positional child, expandability, display value, and row height queries.
// The tree widget consumes it when materializing nodes after a refresh.
type outlineSource struct {
	res *resolver
}

func newOutlineDataSource(res *resolver) *outlineSource {
	return &outlineSource{res: res}
}

// ChildCount answers "how many children does node n have".
func (o *outlineSource) ChildCount(n nodeRef) int {
	sb := o.res.sidebar()
	if sb == nil {
		return 0
	}
	if n.isRoot() {
		return sb.store.SectionCount()
	}
	if n.isSection() {
		if sec := sb.store.FindSection(n.SectionID); sec != nil {
			return len(sec.Items)
		}
	}
	return 0
}

// Child answers "what is child i of node n", positionally.
func (o *outlineSource) Child(n nodeRef, i int) (nodeRef, bool) {
	sb := o.res.sidebar()
	if sb == nil || i < 0 {
		return nodeRef{}, false
	}
	if n.isRoot() {
		if sec := sb.store.SectionAt(i); sec != nil {
			return nodeRef{SectionID: sec.ID}, true
		}
		return nodeRef{}, false
	}
	if n.isSection() {
		if sec := sb.store.FindSection(n.SectionID); sec != nil && i < len(sec.Items) {
			return nodeRef{SectionID: sec.ID, ItemID: sec.Items[i].ID}, true
		}
	}
	return nodeRef{}, false
}

// Expandable is true only for sections; leaf items and unknown nodes are
// not expandable.
func (o *outlineSource) Expandable(n nodeRef) bool {
	sb := o.res.sidebar()
	if sb == nil || !n.isSection() {
		return false
	}
	return sb.store.FindSection(n.SectionID) != nil
}

// Value answers the display-value query for a node and column. Unknown
// nodes and columns yield "".
func (o *outlineSource) Value(n nodeRef, column string) string {
	sb := o.res.sidebar()
	if sb == nil {
		return ""
	}
	if n.isSection() {
		if sec := sb.store.FindSection(n.SectionID); sec != nil && column == columnLabel {
			return sec.Header
		}
		return ""
	}
	item := sb.store.Item(n)
	if item == nil {
		return ""
	}
	switch column {
	case columnLabel:
		return item.Label
	case columnIcon:
		return item.Icon
	case columnBadge:
		return item.Badge
	}
	return ""
}

// RowHeight distinguishes section headers from leaf rows.
func (o *outlineSource) RowHeight(n nodeRef) int {
	if n.isSection() {
		return heightSectionHeader
	}
	return heightItem
}

// Selectable implements the default selection-approval policy: always
// allow unless the node is an item explicitly marked inactive. Sections
// act as headers and are never selectable.
func (o *outlineSource) Selectable(n nodeRef) bool {
	sb := o.res.sidebar()
	if sb == nil || n.isRoot() || n.isSection() {
		return false
	}
	item := sb.store.Item(n)
	return item != nil && item.Active
}

// fileContent adapts a file browser's backing store to the toolkit's
// TableContent protocol. Row 0 is the header; data rows are offset by one.
type fileContent struct {
	tview.TableContentReadOnly
	res *resolver
}

func newFileDataSource(res *resolver) *fileContent {
	return &fileContent{res: res}
}

// GetRowCount implements tview.TableContent. Includes the header row; a
// dead slot reports zero rows, which the table renders as empty.
func (c *fileContent) GetRowCount() int {
	fb := c.res.fileBrowser()
	if fb == nil {
		return 0
	}
	return fb.store.Len() + 1
}

// GetColumnCount implements tview.TableContent.
func (c *fileContent) GetColumnCount() int { return len(fileColumns) }

// GetCell implements tview.TableContent. Out-of-range queries (a stale
// index arriving between a mutation and its refresh) return nil, which the
// toolkit treats as an empty cell.
func (c *fileContent) GetCell(row, column int) *tview.TableCell {
	if column < 0 || column >= len(fileColumns) {
		return nil
	}
	if row == 0 {
		return headerCell(fileColumns[column])
	}
	fb := c.res.fileBrowser()
	if fb == nil {
		return nil
	}
	entry := fb.store.At(row - 1)
	if entry == nil {
		return nil
	}
	return fileCell(entry, fileColumns[column], fb.icons)
}

func headerCell(column string) *tview.TableCell {
	var title string
	switch column {
	case ColumnName:
		title = "Name"
	case ColumnModified:
		title = "Modified"
	case ColumnSize:
		title = "Size"
	case ColumnKind:
		title = "Kind"
	}
	return tview.NewTableCell("[::b]" + title).
		SetSelectable(false).
		SetExpansion(columnExpansion(column))
}

func fileCell(entry *FileEntry, column string, icons IconLookup) *tview.TableCell {
	return tview.NewTableCell(FileValue(entry, column, icons)).
		SetExpansion(columnExpansion(column))
}

func columnExpansion(column string) int {
	if column == ColumnName {
		return 2
	}
	return 1
}

// FileValue maps a FileEntry field to a column's display string. Exported
// for the round-trip tests the wire contract calls for.
func FileValue(entry *FileEntry, column string, icons IconLookup) string {
	if entry == nil {
		return ""
	}
	switch column {
	case ColumnName:
		name := entry.Name
		if icons != nil && entry.Icon != "" {
			if glyph := icons(entry.Icon); glyph != "" {
				name = glyph + " " + name
			}
		}
		return name
	case ColumnModified:
		return formatModified(entry.Modified)
	case ColumnSize:
		return formatSize(entry.Size)
	case ColumnKind:
		return entry.Kind
	}
	return ""
}

func formatModified(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	if time.Since(t) < 12*time.Hour && !t.After(time.Now()) {
		return t.Format("15:04")
	}
	return t.Format("2006-01-02")
}

func formatSize(size int64) string {
	if size < 0 {
		return ""
	}
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

// delegateCallbacks are the widget-registered reactions the delegate
// adapter forwards toolkit events into.
type delegateCallbacks struct {
	// shouldSelect approves or denies a pending selection change. Nil
	// means always allow.
	shouldSelect func(id string) bool
	// selectionChanged reports one discrete user selection change.
	selectionChanged func(id string)
	// activated reports a double-activation.
	activated func(id string)
}

// delegate is the second adapter kind: it carries selection and activation
// callbacks, guarded by the same resolver so in-flight toolkit events
// against a mid-teardown component become no-ops.
type delegate struct {
	res *resolver
	cb  delegateCallbacks
}

func newDelegate(res *resolver, cb delegateCallbacks) *delegate {
	return &delegate{res: res, cb: cb}
}

func (d *delegate) approveSelection(id string) bool {
	if d.res.component() == nil {
		return false
	}
	if d.cb.shouldSelect == nil {
		return true
	}
	return d.cb.shouldSelect(id)
}

func (d *delegate) reportSelection(id string) {
	if d.res.component() == nil || d.cb.selectionChanged == nil {
		return
	}
	d.cb.selectionChanged(id)
}

func (d *delegate) reportActivation(id string) {
	if d.res.component() == nil || d.cb.activated == nil {
		return
	}
	d.cb.activated(id)
}
