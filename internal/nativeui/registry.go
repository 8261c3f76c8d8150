package nativeui

import (
	"github.com/google/uuid"
)

// Registry is the component arena: the single authoritative id → component
// index. Adapters address components exclusively through it (see resolver),
// which is what makes destruction safe while native callbacks are still in
// flight. All methods run on the UI thread; the registry itself needs no
// lock because of that discipline, and the debug build enforces it.
type Registry struct {
	ui         UI
	components map[string]*slot
	order      []string
}

// slot wraps a component with its destruction flag. The flag flips before
// adapters detach so live() fails closed for the whole teardown window.
type slot struct {
	component Component
	resolver  *resolver
	destroyed bool
}

// NewRegistry builds an empty registry bound to the UI host.
func NewRegistry(ui UI) *Registry {
	return &Registry{
		ui:         ui,
		components: make(map[string]*slot),
	}
}

// Create registers the component produced by build under the given id. An
// empty id gets a generated one. The duplicate check precedes build, so a
// rejected create constructs nothing and the first registration stays
// untouched. build receives the resolver to hand to its adapters; their
// lookups only go live once the slot is inserted.
func (r *Registry) Create(id string, build func(id string, res *resolver) (Component, error)) (Component, error) {
	r.ui.AssertUIThread("registry create")
	if id == "" {
		id = uuid.NewString()
	}
	if _, ok := r.components[id]; ok {
		return nil, Errf(CodeDuplicateID, "component %q already exists", id)
	}
	res := newResolver(r, id)
	c, err := build(id, res)
	if err != nil {
		return nil, err
	}
	r.components[id] = &slot{component: c, resolver: res}
	r.order = append(r.order, id)
	return c, nil
}

// Get returns the live component for id, or a NotFound error.
func (r *Registry) Get(id string) (Component, error) {
	r.ui.AssertUIThread("registry get")
	s, ok := r.components[id]
	if !ok || s.destroyed {
		return nil, Errf(CodeNotFound, "no component with id %q", id)
	}
	return s.component, nil
}

// Len reports the number of live components.
func (r *Registry) Len() int {
	r.ui.AssertUIThread("registry len")
	n := 0
	for _, s := range r.components {
		if !s.destroyed {
			n++
		}
	}
	return n
}

// live is the resolver's lookup: nil unless the slot exists and has not
// begun destruction. Unlike Get it never allocates an error, because it
// sits on the hot render path.
func (r *Registry) live(id string) Component {
	s, ok := r.components[id]
	if !ok || s.destroyed {
		return nil
	}
	return s.component
}

// Destroy tears down the component with the given id. The ordering is the
// point: mark destroyed (queries fail closed), detach adapters (native
// callbacks become no-ops), release native resources, then drop the slot.
// Destroying an unknown or already-destroyed id is NotFound.
func (r *Registry) Destroy(id string) error {
	r.ui.AssertUIThread("registry destroy")
	s, ok := r.components[id]
	if !ok || s.destroyed {
		return Errf(CodeNotFound, "no component with id %q", id)
	}
	r.destroySlot(id, s)
	return nil
}

// DestroyAll tears down every live component. Safe to call repeatedly and
// on an empty registry; used by the window-close hook.
func (r *Registry) DestroyAll() {
	r.ui.AssertUIThread("registry destroy all")
	// Insertion order, same as individual destroys would issue. destroySlot
	// prunes r.order, so iterate a snapshot.
	ids := append([]string(nil), r.order...)
	for _, id := range ids {
		if s, ok := r.components[id]; ok && !s.destroyed {
			r.destroySlot(id, s)
		}
	}
}

func (r *Registry) destroySlot(id string, s *slot) {
	s.destroyed = true
	s.resolver.detach()
	s.component.detachAdapters()
	s.component.releaseNative()
	delete(r.components, id)
	for i, ordered := range r.order {
		if ordered == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	// Containers holding the dead component must drop their reference.
	for _, other := range r.components {
		if sv, ok := other.component.(*SplitView); ok && !other.destroyed {
			sv.childDestroyed(id)
		}
	}
}
