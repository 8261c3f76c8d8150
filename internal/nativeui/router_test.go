package nativeui

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchRaw_MalformedJSON(t *testing.T) {
	f := newFixture(t, immediate())
	var resp Response
	require.NoError(t, json.Unmarshal(f.bridge.DispatchRaw([]byte(`{"domain":`)), &resp))
	assert.False(t, resp.OK)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidMessage, resp.Error.Code)
	assert.Equal(t, f.bridge.Session(), resp.Session)
}

func TestDispatch_UnknownDomainAndAction(t *testing.T) {
	f := newFixture(t, immediate())

	_, err := f.bridge.Dispatch(Message{Domain: "clipboard", Action: "createSidebar"})
	assert.Equal(t, CodeUnknownAction, CodeOf(err))

	_, err = f.bridge.Dispatch(Message{Domain: Domain, Action: "teleport"})
	assert.Equal(t, CodeUnknownAction, CodeOf(err))
}

func TestDispatch_ToleratesUnknownDataFields(t *testing.T) {
	f := newFixture(t, immediate())
	// Fields a newer script might send must not break an older shell.
	f.mustOK(t, "createSidebar", `{"id":"nav","theme":"dark"}`)
	f.mustOK(t, "addSidebarSection",
		`{"id":"nav","section":{"id":"s","header":"H","collapsedByDefault":true}}`)
	f.mustOK(t, "setSelectedItem", `{"id":"nav","itemId":"ghost","animate":false}`)
}

func TestCreateSidebar_GeneratesIDWhenOmitted(t *testing.T) {
	f := newFixture(t, immediate())
	resp := f.mustOK(t, "createSidebar", "")
	id := createdID(t, resp)
	assert.NotEmpty(t, id)
	assert.Equal(t, 1, f.bridge.Registry().Len())
}

func TestCreate_DuplicateIDKeepsFirst(t *testing.T) {
	f := newFixture(t, immediate())
	f.mustOK(t, "createSidebar", `{"id":"nav"}`)
	f.mustOK(t, "addSidebarSection", `{"id":"nav","section":{"id":"s","header":"H"}}`)

	f.mustFail(t, "createFileBrowser", `{"id":"nav"}`, CodeDuplicateID)

	// The original component survives and still answers.
	resp := f.mustOK(t, "getItemValue", `{"id":"nav","itemId":"missing","column":"label"}`)
	assert.Equal(t, "", resp.Result)
	assert.Equal(t, 1, f.bridge.Registry().Len())
}

func TestSidebar_SectionAndItemCounts(t *testing.T) {
	f := newFixture(t, immediate())
	f.populateSidebar(t, "nav")

	c, err := f.bridge.Registry().Get("nav")
	require.NoError(t, err)
	sb := c.(*Sidebar)
	assert.Equal(t, 3, sb.store.SectionCount())
	for s := 0; s < 3; s++ {
		sec := sb.store.FindSection(fmt.Sprintf("sec%d", s))
		require.NotNil(t, sec)
		assert.Len(t, sec.Items, 4)
	}
}

func TestSidebar_AddItemToUnknownSection(t *testing.T) {
	f := newFixture(t, immediate())
	f.mustOK(t, "createSidebar", `{"id":"nav"}`)
	f.mustFail(t, "addSidebarItem",
		`{"id":"nav","sectionId":"ghost","item":{"id":"x","label":"X"}}`, CodeNotFound)
}

func TestSidebar_SetSelectedUnknownItemIsNoOp(t *testing.T) {
	f := newFixture(t, immediate())
	f.populateSidebar(t, "nav")
	f.mustOK(t, "setSelectedItem", `{"id":"nav","itemId":"sec1-item2"}`)

	f.mustOK(t, "setSelectedItem", `{"id":"nav","itemId":"nope"}`)

	c, _ := f.bridge.Registry().Get("nav")
	assert.Equal(t, "sec1-item2", c.(*Sidebar).Selected(), "selection must survive a bad id")
	assert.Empty(t, f.sink.events, "programmatic selection must not emit events")
}

func TestSidebar_SetSelectedEchoEmitsEvent(t *testing.T) {
	f := newFixture(t, immediate())
	f.populateSidebar(t, "nav")

	f.mustOK(t, "setSelectedItem", `{"id":"nav","itemId":"sec0-item1","echo":true}`)

	require.Len(t, f.sink.events, 1)
	assert.Equal(t, EventSidebarSelect, f.sink.events[0].Action)
	assert.Equal(t, SelectionEvent{ID: "nav", ItemID: "sec0-item1"}, f.sink.events[0].Payload)
}

func TestSidebar_ItemValueRoundTrip(t *testing.T) {
	f := newFixture(t, immediate())
	f.mustOK(t, "createSidebar", `{"id":"nav"}`)
	f.mustOK(t, "addSidebarSection", `{"id":"nav","section":{"id":"s","header":"Places"}}`)
	f.mustOK(t, "addSidebarItem",
		`{"id":"nav","sectionId":"s","item":{"id":"lib","label":"L","badge":"3"}}`)

	resp := f.mustOK(t, "getItemValue", `{"id":"nav","itemId":"lib","column":"label"}`)
	assert.Equal(t, "L", resp.Result)

	resp = f.mustOK(t, "getItemValue", `{"id":"nav","itemId":"lib","column":"badge"}`)
	assert.Equal(t, "3", resp.Result)
}

func TestSidebar_InactiveItemNotSelectable(t *testing.T) {
	f := newFixture(t, immediate())
	f.mustOK(t, "createSidebar", `{"id":"nav"}`)
	f.mustOK(t, "addSidebarSection", `{"id":"nav","section":{"id":"s","header":"H","items":[`+
		`{"id":"on","label":"On"},{"id":"off","label":"Off","active":false}]}}`)

	c, _ := f.bridge.Registry().Get("nav")
	sb := c.(*Sidebar)
	onRef, ok := sb.store.FindItem("on")
	require.True(t, ok)
	offRef, ok := sb.store.FindItem("off")
	require.True(t, ok)
	assert.True(t, sb.source.Selectable(onRef))
	assert.False(t, sb.source.Selectable(offRef))
}

func TestFileBrowser_AddFileValidationLeavesStoreUnchanged(t *testing.T) {
	f := newFixture(t, immediate())
	f.mustOK(t, "createFileBrowser", `{"id":"files"}`)
	f.mustOK(t, "addFile", `{"id":"files","file":{"id":"a","name":"a.txt"}}`)

	f.mustFail(t, "addFile", `{"id":"files","file":{"id":"b"}}`, CodeInvalidMessage)
	f.mustFail(t, "addFiles",
		`{"id":"files","files":[{"id":"c","name":"c.txt"},{"name":"d.txt"}]}`, CodeInvalidMessage)

	c, _ := f.bridge.Registry().Get("files")
	assert.Equal(t, 1, c.(*FileBrowser).Len(), "failed mutations must not partially apply")
}

func TestFileBrowser_CellValueRoundTrip(t *testing.T) {
	f := newFixture(t, immediate())
	f.mustOK(t, "createFileBrowser", `{"id":"files"}`)
	f.mustOK(t, "addFile",
		`{"id":"files","file":{"id":"r","name":"report.pdf","size":2048,"kind":"PDF"}}`)

	resp := f.mustOK(t, "getCellValue", `{"id":"files","fileId":"r","column":"name"}`)
	assert.Equal(t, "report.pdf", resp.Result)
	resp = f.mustOK(t, "getCellValue", `{"id":"files","fileId":"r","column":"size"}`)
	assert.Equal(t, "2.0 KB", resp.Result)
	resp = f.mustOK(t, "getCellValue", `{"id":"files","fileId":"r","column":"kind"}`)
	assert.Equal(t, "PDF", resp.Result)
}

func TestFileBrowser_SetSelectedFile(t *testing.T) {
	f := newFixture(t, immediate())
	f.mustOK(t, "createFileBrowser", `{"id":"files"}`)
	f.mustOK(t, "addFiles", `{"id":"files","files":[`+
		`{"id":"a","name":"a.txt"},{"id":"b","name":"b.txt"},{"id":"c","name":"c.txt"}]}`)

	f.mustOK(t, "setSelectedFile", `{"id":"files","fileId":"b"}`)

	c, _ := f.bridge.Registry().Get("files")
	assert.Equal(t, "b", c.(*FileBrowser).Selected())
	assert.Empty(t, f.sink.events)

	// Unknown file id keeps the selection.
	f.mustOK(t, "setSelectedFile", `{"id":"files","fileId":"zzz"}`)
	assert.Equal(t, "b", c.(*FileBrowser).Selected())
}

func TestFileBrowser_SetSelectedEchoEmitsEvent(t *testing.T) {
	f := newFixture(t, immediate())
	f.mustOK(t, "createFileBrowser", `{"id":"files"}`)
	f.mustOK(t, "addFiles", `{"id":"files","files":[`+
		`{"id":"a","name":"a.txt"},{"id":"b","name":"b.txt"}]}`)

	f.mustOK(t, "setSelectedFile", `{"id":"files","fileId":"b","echo":true}`)

	require.Len(t, f.sink.events, 1, "echoed selection must emit exactly one event")
	assert.Equal(t, EventFileSelect, f.sink.events[0].Action)
	assert.Equal(t, FileEvent{ID: "files", FileID: "b"}, f.sink.events[0].Payload)
}

func TestFileBrowser_ActivationEmitsEvent(t *testing.T) {
	f := newFixture(t, immediate())
	f.mustOK(t, "createFileBrowser", `{"id":"files"}`)
	f.mustOK(t, "addFile", `{"id":"files","file":{"id":"a","name":"a.txt"}}`)

	c, err := f.bridge.Registry().Get("files")
	require.NoError(t, err)
	fb := c.(*FileBrowser)

	// The table reports activation through its selected callback.
	fb.onActivated(1, 0)
	require.Len(t, f.sink.events, 1)
	assert.Equal(t, EventFileActivate, f.sink.events[0].Action)
	assert.Equal(t, FileEvent{ID: "files", FileID: "a"}, f.sink.events[0].Payload)

	// Activating the header row reports nothing.
	fb.onActivated(0, 0)
	assert.Len(t, f.sink.events, 1)
}

func TestSplitView_PanesAndDivider(t *testing.T) {
	f := newFixture(t, immediate())
	f.mustOK(t, "createSidebar", `{"id":"nav"}`)
	f.mustOK(t, "createFileBrowser", `{"id":"files"}`)
	f.mustOK(t, "createSplitView", `{"id":"split","first":"nav","second":"files"}`)

	c, _ := f.bridge.Registry().Get("split")
	sv := c.(*SplitView)
	assert.Equal(t, "nav", sv.PaneID(PaneFirst))
	assert.Equal(t, "files", sv.PaneID(PaneSecond))

	// Children moved out of the window into the container.
	nav, _ := f.bridge.Registry().Get("nav")
	assert.False(t, f.window.holds(nav.primitive()))
	assert.True(t, f.window.holds(sv.primitive()))

	f.mustOK(t, "setDividerPosition", `{"id":"split","fraction":0.3}`)
	assert.InDelta(t, 0.3, sv.Divider(), 1e-9)

	// Out-of-range positions clamp to the minimum pane fraction.
	f.mustOK(t, "setDividerPosition", `{"id":"split","fraction":0.01}`)
	assert.InDelta(t, 0.12, sv.Divider(), 1e-9)
	f.mustOK(t, "setDividerPosition", `{"id":"split","fraction":0.99}`)
	assert.InDelta(t, 0.88, sv.Divider(), 1e-9)
}

func TestSplitView_UnknownChildIsNotFound(t *testing.T) {
	f := newFixture(t, immediate())
	f.mustOK(t, "createSplitView", `{"id":"split"}`)
	f.mustFail(t, "setPane", `{"id":"split","pane":"first","childId":"ghost"}`, CodeNotFound)
	f.mustFail(t, "setPane", `{"id":"split","pane":"middle","childId":"split"}`, CodeInvalidMessage)
}

func TestSplitView_RejectsContainmentCycles(t *testing.T) {
	f := newFixture(t, immediate())
	f.mustOK(t, "createSplitView", `{"id":"outer"}`)
	f.mustOK(t, "createSplitView", `{"id":"inner"}`)
	f.mustOK(t, "setPane", `{"id":"outer","pane":"first","childId":"inner"}`)

	// Completing the loop would make each flex draw the other forever.
	f.mustFail(t, "setPane", `{"id":"inner","pane":"second","childId":"outer"}`, CodeInvalidState)
	f.mustFail(t, "setPane", `{"id":"outer","pane":"first","childId":"outer"}`, CodeInvalidState)

	// The same holds through an intermediate container.
	f.mustOK(t, "createSplitView", `{"id":"mid"}`)
	f.mustOK(t, "setPane", `{"id":"inner","pane":"first","childId":"mid"}`)
	f.mustFail(t, "setPane", `{"id":"mid","pane":"first","childId":"outer"}`, CodeInvalidState)

	// The accepted assignments all survive the rejected ones.
	c, _ := f.bridge.Registry().Get("outer")
	assert.Equal(t, "inner", c.(*SplitView).PaneID(PaneFirst))
	c, _ = f.bridge.Registry().Get("inner")
	assert.Equal(t, "mid", c.(*SplitView).PaneID(PaneFirst))
}

func TestCreateSplitView_SelfReferenceRollsBack(t *testing.T) {
	f := newFixture(t, immediate())
	f.mustFail(t, "createSplitView", `{"id":"wrap","first":"wrap"}`, CodeInvalidState)

	// The rejected container must not linger half-built.
	assert.Equal(t, 0, f.bridge.Registry().Len())
	f.mustFail(t, "destroy", `{"id":"wrap"}`, CodeNotFound)
}

func TestSplitView_DestroyReturnsChildrenToWindow(t *testing.T) {
	f := newFixture(t, immediate())
	f.mustOK(t, "createSidebar", `{"id":"nav"}`)
	f.mustOK(t, "createSplitView", `{"id":"split","first":"nav"}`)

	f.mustOK(t, "destroy", `{"id":"split"}`)

	nav, err := f.bridge.Registry().Get("nav")
	require.NoError(t, err)
	assert.True(t, f.window.holds(nav.primitive()), "surviving child must return to the window")
}

func TestDestroy_RemovesComponentAndRepeatFails(t *testing.T) {
	f := newFixture(t, immediate())
	f.mustOK(t, "createSidebar", `{"id":"nav"}`)
	require.Equal(t, 1, f.bridge.Registry().Len())

	f.mustOK(t, "destroy", `{"id":"nav"}`)
	assert.Equal(t, 0, f.bridge.Registry().Len())
	assert.Empty(t, f.window.attached, "native primitive must detach on destroy")

	f.mustFail(t, "destroy", `{"id":"nav"}`, CodeNotFound)
	f.mustFail(t, "addSidebarSection", `{"id":"nav","section":{"id":"s","header":"H"}}`, CodeNotFound)
}

func TestDestroyAll_IdempotentAndOrdered(t *testing.T) {
	f := newFixture(t, immediate())
	f.mustOK(t, "createSidebar", `{"id":"a"}`)
	f.mustOK(t, "createFileBrowser", `{"id":"b"}`)

	f.mustOK(t, "destroyAll", "")
	assert.Equal(t, 0, f.bridge.Registry().Len())
	assert.Empty(t, f.window.attached)

	// Repeated destroyAll on an empty registry is fine.
	f.mustOK(t, "destroyAll", "")
}

func TestRegistry_DestroyRecreateSameID(t *testing.T) {
	f := newFixture(t, immediate())
	for i := 0; i < 3; i++ {
		f.mustOK(t, "createSidebar", `{"id":"nav"}`)
		f.mustOK(t, "destroy", `{"id":"nav"}`)
	}
	f.mustOK(t, "createSidebar", `{"id":"nav"}`)

	reg := f.bridge.Registry()
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, []string{"nav"}, reg.order, "destroyed ids must not linger in creation order")

	f.mustOK(t, "destroyAll", "")
	assert.Equal(t, 0, reg.Len())
	assert.Empty(t, reg.order)
}

func TestCreate_WithoutWindowIsMissingCollaborator(t *testing.T) {
	ui := &fakeUI{}
	sink := &fakeSink{}
	bridge := NewBridge(ui, func() Window { return nil }, sink,
		testLogger(), immediate())

	raw := bridge.DispatchRaw([]byte(`{"domain":"nativeUI","action":"createSidebar","data":{"id":"nav"}}`))
	var resp Response
	require.NoError(t, json.Unmarshal(raw, &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeMissingCollaborator, resp.Error.Code)
	assert.Equal(t, 0, bridge.Registry().Len(), "failed create must not leave a slot behind")
}

func TestResponse_SessionStampedOnEveryReply(t *testing.T) {
	f := newFixture(t, immediate())
	ok := f.mustOK(t, "createSidebar", `{"id":"nav"}`)
	fail := f.mustFail(t, "destroy", `{"id":"ghost"}`, CodeNotFound)
	assert.Equal(t, f.bridge.Session(), ok.Session)
	assert.Equal(t, f.bridge.Session(), fail.Session)
	assert.NotEmpty(t, f.bridge.Session())
}
