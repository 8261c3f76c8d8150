package nativeui

import (
	"github.com/rivo/tview"
)

// FileBrowser is the tabular list widget: name, modified, size, and kind
// columns over a row store. The table pulls cells through the TableContent
// adapter on demand rather than having rows pushed into it, so bulk loads
// cost one refresh regardless of row count.
type FileBrowser struct {
	id   string
	deps widgetDeps

	store   FileStore
	content *fileContent
	del     *delegate
	refresh RefreshScheduler
	table   *tview.Table
	window  Window
	icons   IconLookup
	state   componentState
	// suppress mirrors Sidebar.suppress: programmatic selection must not
	// echo as a user event.
	suppress bool
}

// NewFileBrowser builds a file browser, attaches it to the current window,
// and wires its adapters. Meant to be called from Registry.Create.
func NewFileBrowser(id string, res *resolver, deps widgetDeps) (*FileBrowser, error) {
	deps.ui.AssertUIThread("create file browser")
	w, err := deps.windowOrErr()
	if err != nil {
		return nil, err
	}

	fb := &FileBrowser{
		id:      id,
		deps:    deps,
		content: newFileDataSource(res),
		window:  w,
		icons:   deps.icons,
		state:   stateActive,
	}
	fb.del = newDelegate(res, delegateCallbacks{
		selectionChanged: func(fileID string) {
			deps.events.Emit(EventFileSelect, FileEvent{ID: fb.id, FileID: fileID})
		},
		activated: func(fileID string) {
			deps.events.Emit(EventFileActivate, FileEvent{ID: fb.id, FileID: fileID})
		},
	})
	fb.refresh = deps.refresh(func() {
		deps.ui.Draw()
	})

	fb.table = tview.NewTable().
		SetContent(fb.content).
		SetSelectable(true, false).
		SetFixed(1, 0)
	fb.table.SetSelectionChangedFunc(fb.onSelectionChanged)
	fb.table.SetSelectedFunc(fb.onActivated)
	fb.table.SetBorder(true)

	w.Attach(fb.table)
	return fb, nil
}

func (f *FileBrowser) ID() string { return f.id }
func (f *FileBrowser) Kind() Kind { return KindFileBrowser }

// AddFiles appends entries to the row store. The whole batch schedules a
// single refresh.
func (f *FileBrowser) AddFiles(entries ...FileEntry) error {
	f.deps.ui.AssertUIThread("file browser add files")
	if f.state == stateDestroyed {
		return Errf(CodeInvalidState, "file browser %q is destroyed", f.id)
	}
	f.store.Append(entries...)
	f.refresh.Trigger()
	return nil
}

// SetSelected moves the selection to the named file. A nonexistent id is a
// silent no-op. The selection callback is suppressed unless echo is set.
func (f *FileBrowser) SetSelected(fileID string, echo bool) error {
	f.deps.ui.AssertUIThread("file browser set selected")
	if f.state == stateDestroyed {
		return Errf(CodeInvalidState, "file browser %q is destroyed", f.id)
	}
	i := f.store.Find(fileID)
	if i < 0 {
		return nil
	}
	f.suppress = !echo
	f.table.Select(i+1, 0)
	f.suppress = false
	f.deps.ui.Draw()
	return nil
}

// Selected reports the currently selected file id, "" when none.
func (f *FileBrowser) Selected() string {
	row, _ := f.table.GetSelection()
	if entry := f.store.At(row - 1); entry != nil {
		return entry.ID
	}
	return ""
}

// Len reports the number of rows.
func (f *FileBrowser) Len() int { return f.store.Len() }

// CellValue answers the display-value query for a file and column, the
// same path the renderer uses.
func (f *FileBrowser) CellValue(fileID, column string) string {
	i := f.store.Find(fileID)
	if i < 0 {
		return ""
	}
	return FileValue(f.store.At(i), column, f.icons)
}

func (f *FileBrowser) onSelectionChanged(row, _ int) {
	if f.suppress {
		return
	}
	if entry := f.store.At(row - 1); entry != nil {
		f.del.reportSelection(entry.ID)
	}
}

func (f *FileBrowser) onActivated(row, _ int) {
	if entry := f.store.At(row - 1); entry != nil {
		f.del.reportActivation(entry.ID)
	}
}

func (f *FileBrowser) primitive() tview.Primitive { return f.table }

func (f *FileBrowser) detachAdapters() {
	f.state = stateDestroyed
	f.refresh.Cancel()
	f.table.SetSelectionChangedFunc(nil)
	f.table.SetSelectedFunc(nil)
}

func (f *FileBrowser) releaseNative() {
	f.window.Detach(f.table)
}
