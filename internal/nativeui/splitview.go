package nativeui

import (
	"github.com/rivo/tview"
)

// Pane names a side of a split container on the wire.
type Pane string

const (
	PaneFirst  Pane = "first"
	PaneSecond Pane = "second"
)

// dividerScale converts the wire's divider fraction into flex weights.
const dividerScale = 1000

// SplitView is the split container: two panes side by side with an
// adjustable divider. Panes host other registered components, which are
// re-parented out of the window and into the container.
type SplitView struct {
	id   string
	deps widgetDeps
	reg  *Registry

	flex    *tview.Flex
	window  Window
	state   componentState
	first   string
	second  string
	divider float64
}

// NewSplitView builds an empty split container attached to the current
// window. Meant to be called from Registry.Create.
func NewSplitView(id string, reg *Registry, deps widgetDeps) (*SplitView, error) {
	deps.ui.AssertUIThread("create split view")
	w, err := deps.windowOrErr()
	if err != nil {
		return nil, err
	}

	sv := &SplitView{
		id:      id,
		deps:    deps,
		reg:     reg,
		window:  w,
		state:   stateActive,
		divider: 0.5,
	}
	sv.flex = tview.NewFlex().SetDirection(tview.FlexColumn)
	sv.applyLayout()
	w.Attach(sv.flex)
	return sv, nil
}

func (v *SplitView) ID() string { return v.id }
func (v *SplitView) Kind() Kind { return KindSplitView }

// SetPane places the component with childID into the named pane. The child
// must be live; it is detached from the window and re-parented into the
// container. Replacing a pane's occupant returns the previous child to the
// window.
func (v *SplitView) SetPane(pane Pane, childID string) error {
	v.deps.ui.AssertUIThread("split view set pane")
	if v.state == stateDestroyed {
		return Errf(CodeInvalidState, "split view %q is destroyed", v.id)
	}
	if pane != PaneFirst && pane != PaneSecond {
		return Errf(CodeInvalidMessage, "unknown pane %q", pane)
	}
	child, err := v.reg.Get(childID)
	if err != nil {
		return err
	}
	// A child that already reaches this container through nested panes
	// would make the two flexes draw each other without bound.
	if paneReaches(v.reg, childID, v.id) {
		return Errf(CodeInvalidState, "placing %q in split view %q would create a containment cycle", childID, v.id)
	}

	var prev string
	if pane == PaneFirst {
		prev, v.first = v.first, childID
	} else {
		prev, v.second = v.second, childID
	}
	if prevComp := v.reg.live(prev); prevComp != nil {
		v.window.Attach(prevComp.primitive())
	}
	v.window.Detach(child.primitive())
	v.applyLayout()
	v.deps.ui.Draw()
	return nil
}

// SetDivider moves the divider to the given fraction of the container's
// width allotted to the first pane. Values outside the configured minimum
// pane fraction clamp rather than error.
func (v *SplitView) SetDivider(fraction float64) error {
	v.deps.ui.AssertUIThread("split view set divider")
	if v.state == stateDestroyed {
		return Errf(CodeInvalidState, "split view %q is destroyed", v.id)
	}
	min := v.deps.minPane
	if fraction < min {
		fraction = min
	}
	if fraction > 1-min {
		fraction = 1 - min
	}
	v.divider = fraction
	v.applyLayout()
	v.deps.ui.Draw()
	return nil
}

// Divider reports the current divider fraction.
func (v *SplitView) Divider() float64 { return v.divider }

// PaneID reports the component id occupying the named pane, "" when empty.
func (v *SplitView) PaneID(pane Pane) string {
	if pane == PaneFirst {
		return v.first
	}
	return v.second
}

// paneReaches reports whether target is reachable from id through split
// container pane references. Covers the trivial id == target case.
func paneReaches(reg *Registry, id, target string) bool {
	if id == target {
		return true
	}
	sv, ok := reg.live(id).(*SplitView)
	if !ok {
		return false
	}
	return paneReaches(reg, sv.first, target) || paneReaches(reg, sv.second, target)
}

// applyLayout rebuilds the flex children from the pane assignments and the
// divider fraction. Empty panes render as blank boxes so the divider stays
// meaningful.
func (v *SplitView) applyLayout() {
	v.flex.Clear()
	firstWeight := int(v.divider * dividerScale)
	secondWeight := dividerScale - firstWeight
	v.flex.AddItem(v.paneItem(v.first), 0, firstWeight, false)
	v.flex.AddItem(v.paneItem(v.second), 0, secondWeight, false)
}

func (v *SplitView) paneItem(childID string) tview.Primitive {
	if c := v.reg.live(childID); c != nil {
		return c.primitive()
	}
	return tview.NewBox()
}

// childDestroyed clears a pane whose occupant was destroyed and rebuilds
// the layout so the flex does not render a dead primitive.
func (v *SplitView) childDestroyed(id string) {
	if v.first != id && v.second != id {
		return
	}
	if v.first == id {
		v.first = ""
	}
	if v.second == id {
		v.second = ""
	}
	v.applyLayout()
	v.deps.ui.Draw()
}

func (v *SplitView) primitive() tview.Primitive { return v.flex }

func (v *SplitView) detachAdapters() {
	v.state = stateDestroyed
}

// releaseNative returns surviving children to the window before the
// container itself detaches, so destroying a container does not orphan
// its panes.
func (v *SplitView) releaseNative() {
	v.flex.Clear()
	for _, childID := range []string{v.first, v.second} {
		if c := v.reg.live(childID); c != nil {
			v.window.Attach(c.primitive())
		}
	}
	v.window.Detach(v.flex)
}
