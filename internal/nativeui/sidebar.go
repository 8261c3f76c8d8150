package nativeui

import (
	"github.com/rivo/tview"
)

// Sidebar is the hierarchical list widget: sections with headers, leaf
// items with icon, label, and badge. It renders through a retained tree
// primitive that is rebuilt from the outline data source on each coalesced
// refresh.
type Sidebar struct {
	id   string
	deps widgetDeps

	store    SidebarStore
	source   *outlineSource
	del      *delegate
	refresh  RefreshScheduler
	tree     *tview.TreeView
	root     *tview.TreeNode
	window   Window
	state    componentState
	selected nodeRef
	// suppress is set for the duration of a programmatic selection so the
	// toolkit's change callback does not echo it back as a user event.
	suppress bool
	// collapsed tracks sections the user or script collapsed; sections
	// default to expanded.
	collapsed map[string]bool
}

// NewSidebar builds a sidebar, attaches it to the current window, and
// wires its adapters. Meant to be called from Registry.Create.
func NewSidebar(id string, res *resolver, deps widgetDeps) (*Sidebar, error) {
	deps.ui.AssertUIThread("create sidebar")
	w, err := deps.windowOrErr()
	if err != nil {
		return nil, err
	}

	sb := &Sidebar{
		id:        id,
		deps:      deps,
		source:    newOutlineDataSource(res),
		window:    w,
		state:     stateActive,
		collapsed: make(map[string]bool),
	}
	sb.del = newDelegate(res, delegateCallbacks{
		shouldSelect: func(itemID string) bool {
			ref, ok := sb.store.FindItem(itemID)
			return ok && sb.source.Selectable(ref)
		},
		selectionChanged: func(itemID string) {
			deps.events.Emit(EventSidebarSelect, SelectionEvent{ID: sb.id, ItemID: itemID})
		},
	})
	sb.refresh = deps.refresh(sb.rebuild)

	sb.root = tview.NewTreeNode("")
	sb.tree = tview.NewTreeView().
		SetRoot(sb.root).
		SetTopLevel(1).
		SetGraphics(false)
	sb.tree.SetChangedFunc(sb.onChanged)
	sb.tree.SetSelectedFunc(sb.onSelected)
	sb.tree.SetBorder(true)

	w.Attach(sb.tree)
	return sb, nil
}

func (s *Sidebar) ID() string { return s.id }
func (s *Sidebar) Kind() Kind { return KindSidebar }

// AddSection appends a section with its initial items and schedules a
// refresh.
func (s *Sidebar) AddSection(sec Section) error {
	s.deps.ui.AssertUIThread("sidebar add section")
	if s.state == stateDestroyed {
		return Errf(CodeInvalidState, "sidebar %q is destroyed", s.id)
	}
	s.store.AddSection(sec)
	s.refresh.Trigger()
	return nil
}

// AddItem appends an item to an existing section.
func (s *Sidebar) AddItem(sectionID string, item Item) error {
	s.deps.ui.AssertUIThread("sidebar add item")
	if s.state == stateDestroyed {
		return Errf(CodeInvalidState, "sidebar %q is destroyed", s.id)
	}
	if !s.store.AddItem(sectionID, item) {
		return Errf(CodeNotFound, "sidebar %q has no section %q", s.id, sectionID)
	}
	s.refresh.Trigger()
	return nil
}

// SetSelected moves the selection to the named item. A nonexistent id is a
// silent no-op; the current selection is kept. The toolkit's change
// callback is suppressed unless echo is set, so programmatic selection
// does not masquerade as user input.
func (s *Sidebar) SetSelected(itemID string, echo bool) error {
	s.deps.ui.AssertUIThread("sidebar set selected")
	if s.state == stateDestroyed {
		return Errf(CodeInvalidState, "sidebar %q is destroyed", s.id)
	}
	ref, ok := s.store.FindItem(itemID)
	if !ok {
		return nil
	}
	s.selected = ref
	s.collapsed[ref.SectionID] = false
	s.rebuild()
	// The tree's change callback only fires on user input, so an opt-in
	// echo is emitted directly.
	if echo {
		s.del.reportSelection(ref.ItemID)
	}
	return nil
}

// ExpandSection expands (or collapses) a section. Unknown sections are a
// silent no-op, matching SetSelected.
func (s *Sidebar) ExpandSection(sectionID string, expanded bool) error {
	s.deps.ui.AssertUIThread("sidebar expand section")
	if s.state == stateDestroyed {
		return Errf(CodeInvalidState, "sidebar %q is destroyed", s.id)
	}
	if s.store.FindSection(sectionID) == nil {
		return nil
	}
	s.collapsed[sectionID] = !expanded
	s.refresh.Trigger()
	return nil
}

// Selected reports the currently selected item id, "" when none.
func (s *Sidebar) Selected() string { return s.selected.ItemID }

// ItemValue answers the display-value query for an item and column, the
// same path the renderer uses.
func (s *Sidebar) ItemValue(itemID, column string) string {
	ref, ok := s.store.FindItem(itemID)
	if !ok {
		return ""
	}
	return s.source.Value(ref, column)
}

// rebuild re-materializes the tree from the outline source. Runs on the
// UI thread, either directly or via the refresh scheduler.
func (s *Sidebar) rebuild() {
	s.deps.ui.AssertUIThread("sidebar rebuild")
	if s.state == stateDestroyed {
		return
	}
	s.root.ClearChildren()
	var current *tview.TreeNode
	rootRef := nodeRef{}
	for i := 0; i < s.source.ChildCount(rootRef); i++ {
		secRef, ok := s.source.Child(rootRef, i)
		if !ok {
			continue
		}
		secNode := tview.NewTreeNode("[::bu]" + s.source.Value(secRef, columnLabel)).
			SetReference(secRef).
			SetSelectable(false).
			SetExpanded(!s.collapsed[secRef.SectionID])
		for j := 0; j < s.source.ChildCount(secRef); j++ {
			itemRef, ok := s.source.Child(secRef, j)
			if !ok {
				continue
			}
			node := tview.NewTreeNode(s.itemText(itemRef)).
				SetReference(itemRef).
				SetSelectable(s.source.Selectable(itemRef))
			secNode.AddChild(node)
			if itemRef == s.selected {
				current = node
			}
		}
		s.root.AddChild(secNode)
	}
	if current != nil {
		// SetCurrentNode defers the changed callback to the next draw, so
		// the suppression must stay armed until onChanged consumes it.
		s.suppress = true
		s.tree.SetCurrentNode(current)
	}
	s.deps.ui.Draw()
}

func (s *Sidebar) itemText(ref nodeRef) string {
	text := s.source.Value(ref, columnLabel)
	if icon := s.source.Value(ref, columnIcon); icon != "" && s.deps.icons != nil {
		if glyph := s.deps.icons(icon); glyph != "" {
			text = glyph + " " + text
		}
	}
	if badge := s.source.Value(ref, columnBadge); badge != "" {
		text += " [::d](" + badge + ")[-:-:-]"
	}
	if item := s.store.Item(ref); item != nil && !item.Active {
		text = "[::d]" + text
	}
	return text
}

// onChanged handles the toolkit's current-node change: selection moved by
// the user. Programmatic moves are suppressed.
func (s *Sidebar) onChanged(node *tview.TreeNode) {
	if s.suppress {
		s.suppress = false
		return
	}
	if node == nil {
		return
	}
	ref, ok := node.GetReference().(nodeRef)
	if !ok || ref.ItemID == "" {
		return
	}
	if !s.del.approveSelection(ref.ItemID) {
		return
	}
	s.selected = ref
	s.del.reportSelection(ref.ItemID)
}

// onSelected handles Enter on a node: sections toggle, items re-report
// selection.
func (s *Sidebar) onSelected(node *tview.TreeNode) {
	ref, ok := node.GetReference().(nodeRef)
	if !ok {
		return
	}
	if ref.isSection() {
		s.collapsed[ref.SectionID] = node.IsExpanded()
		node.SetExpanded(!node.IsExpanded())
		return
	}
	if s.del.approveSelection(ref.ItemID) {
		s.selected = ref
		s.del.reportSelection(ref.ItemID)
	}
}

func (s *Sidebar) primitive() tview.Primitive { return s.tree }

func (s *Sidebar) detachAdapters() {
	s.state = stateDestroyed
	s.refresh.Cancel()
	s.tree.SetChangedFunc(nil)
	s.tree.SetSelectedFunc(nil)
}

func (s *Sidebar) releaseNative() {
	s.window.Detach(s.tree)
	s.root.ClearChildren()
}
