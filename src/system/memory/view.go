package memory

import (
	"github.com/voodooEntity/gits/src/transport"
	"github.com/voodooEntity/synapse/src/system/access"
)

// View is one entity's fetched component handles for one invocation. It
// has no lifecycle beyond that invocation: fetched right before the
// operation body runs, flushed right after.
type View struct {
	entity  int
	mem     *Memory
	handles []*Handle
	byType  map[string]*Handle
}

func (v *View) Entity() int {
	return v.entity
}

// Component returns the handle for a claimed component type. Asking for
// an undeclared type is a programming error.
func (v *View) Component(ctype string) *Handle {
	handle, ok := v.byType[ctype]
	if !ok {
		panic("view holds no handle for undeclared component type " + ctype)
	}
	return handle
}

// Flush writes every dirty handle back to the store. Later fetches of
// the same entity see the new state.
func (v *View) Flush() {
	for _, handle := range v.handles {
		if handle.dirty {
			v.mem.writeBack(handle.ent)
			handle.dirty = false
		}
	}
}

// Handle is exclusive access to one component of one entity, in the
// mode the owning operation declared.
type Handle struct {
	mode  access.Mode
	ent   transport.TransportEntity
	dirty bool
}

func (h *Handle) Mode() access.Mode {
	return h.mode
}

func (h *Handle) Value() string {
	return h.ent.Value
}

func (h *Handle) SetValue(value string) {
	h.mustWrite()
	h.ent.Value = value
	h.dirty = true
}

func (h *Handle) Property(key string) string {
	return h.ent.Properties[key]
}

func (h *Handle) SetProperty(key string, value string) {
	h.mustWrite()
	h.ent.Properties[key] = value
	h.dirty = true
}

// mustWrite guards the declared access mode. The declaration merge has
// already been checked by the time a handle exists, writing through a
// read claim would invalidate exactly that proof.
func (h *Handle) mustWrite() {
	if h.mode != access.MODE_WRITE {
		panic("write access on read-only component handle " + h.ent.Type)
	}
}
