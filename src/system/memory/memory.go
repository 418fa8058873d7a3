package memory

import (
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/voodooEntity/gits"
	"github.com/voodooEntity/gits/src/query"
	"github.com/voodooEntity/gits/src/storage"
	"github.com/voodooEntity/gits/src/transport"
	"github.com/voodooEntity/synapse/src/system/access"
	"github.com/voodooEntity/synapse/src/system/archivist"
)

const (
	TYPE_ENTITY  = "Entity"
	CONTEXT_DATA = "Data"
	// component entities carry a backreference to their entity so they
	// can be addressed without walking relations
	PROP_ENTITY  = "Entity"
	FIELD_ENTITY = "Properties.Entity"
)

// Component is the payload attached to an entity under a component type.
type Component struct {
	Type       string
	Value      string
	Properties map[string]string
}

// Memory is the record store the engine runs against. Entities are gits
// entities of type "Entity", each component is its own gits entity typed
// by component name, linked as child of its entity.
type Memory struct {
	Gits *gits.Gits
	log  *archivist.Archivist

	mu      sync.Mutex
	version int
	ctypes  map[string]bool
}

func New(ident string, logger *archivist.Archivist) *Memory {
	return &Memory{
		Gits:   gits.NewInstance(ident),
		log:    logger,
		ctypes: make(map[string]bool),
	}
}

// Version is the mutation ordinal of this memory. Every spawn, despawn,
// attach, detach and flushed write bumps it.
func (m *Memory) Version() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.version
}

func (m *Memory) bump() {
	m.mu.Lock()
	m.version++
	m.mu.Unlock()
}

func (m *Memory) registerComponentType(ctype string) {
	m.mu.Lock()
	m.ctypes[ctype] = true
	m.mu.Unlock()
}

func (m *Memory) componentTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var types []string
	for ctype := range m.ctypes {
		types = append(types, ctype)
	}
	sort.Strings(types)
	return types
}

// Spawn creates a new entity holding the given components and returns
// its identifier.
func (m *Memory) Spawn(components ...Component) int {
	mapped := m.Gits.MapData(transport.TransportEntity{
		ID:         storage.MAP_FORCE_CREATE,
		Type:       TYPE_ENTITY,
		Context:    CONTEXT_DATA,
		Properties: make(map[string]string),
	})
	for _, component := range components {
		m.attach(mapped.ID, component)
	}
	m.bump()
	m.log.Debug(archivist.DEBUG_LEVEL_DETAIL, "memory spawned entity", mapped.ID)
	return mapped.ID
}

// Despawn removes an entity and all its components.
func (m *Memory) Despawn(id int) {
	for _, ctype := range m.componentTypes() {
		m.Gits.Query().Execute(query.New().Delete(ctype).Match(FIELD_ENTITY, "==", strconv.Itoa(id)))
	}
	m.Gits.Query().Execute(query.New().Delete(TYPE_ENTITY).Match("ID", "==", strconv.Itoa(id)))
	m.bump()
	m.log.Debug(archivist.DEBUG_LEVEL_DETAIL, "memory despawned entity", id)
}

// AttachComponent adds a component to an existing entity. Attaching a
// type the entity already holds replaces the old payload.
func (m *Memory) AttachComponent(id int, component Component) {
	if m.hasComponent(id, component.Type) {
		m.DetachComponent(id, component.Type)
	}
	m.attach(id, component)
	m.bump()
}

// DetachComponent removes a component type from an entity.
func (m *Memory) DetachComponent(id int, ctype string) {
	m.Gits.Query().Execute(query.New().Delete(ctype).Match(FIELD_ENTITY, "==", strconv.Itoa(id)))
	m.bump()
}

func (m *Memory) attach(id int, component Component) {
	m.registerComponentType(component.Type)
	properties := copyProperties(component.Properties)
	properties[PROP_ENTITY] = strconv.Itoa(id)
	mapped := m.Gits.MapData(transport.TransportEntity{
		ID:         storage.MAP_FORCE_CREATE,
		Type:       component.Type,
		Value:      component.Value,
		Context:    CONTEXT_DATA,
		Properties: properties,
	})
	// link the component below its entity so the store can join on it
	m.Gits.Query().Execute(query.New().Link(TYPE_ENTITY).Match("ID", "==", strconv.Itoa(id)).To(
		query.New().Find(component.Type).Match("ID", "==", strconv.Itoa(mapped.ID)),
	))
}

// Resolve turns a filter requirement into a single-pass iterator over
// the matching entities, in ascending id order. The result reflects the
// store at call time, entities created afterwards are not included.
func (m *Memory) Resolve(f access.FilterRequirement) *Iterator {
	if !f.Satisfiable() {
		return &Iterator{}
	}
	qry := gits.NewQuery().Read(TYPE_ENTITY)
	for _, ctype := range f.Present {
		qry = qry.To(gits.NewQuery().Read(ctype))
	}
	res := m.Gits.Query().Execute(qry)
	var ids []int
	for _, entity := range res.Entities {
		if m.hasAnyComponent(entity.ID, f.Absent) {
			continue
		}
		ids = append(ids, entity.ID)
	}
	sort.Ints(ids)
	return &Iterator{ids: ids}
}

// Matches checks a single entity against a filter requirement.
func (m *Memory) Matches(id int, f access.FilterRequirement) bool {
	if !f.Satisfiable() {
		return false
	}
	res := m.Gits.Query().Execute(gits.NewQuery().Read(TYPE_ENTITY).Match("ID", "==", strconv.Itoa(id)))
	if res.Amount == 0 {
		return false
	}
	for _, ctype := range f.Present {
		if !m.hasComponent(id, ctype) {
			return false
		}
	}
	return !m.hasAnyComponent(id, f.Absent)
}

// FetchView resolves every claim of a data requirement against one
// entity. It fails when the entity lacks a claimed component - for
// driver-iterated entities that cannot happen, the optional operator
// uses the failure as its widened-eligibility signal.
func (m *Memory) FetchView(id int, req access.DataRequirement) (*View, error) {
	v := &View{entity: id, mem: m, byType: make(map[string]*Handle)}
	for _, claim := range req.Claims {
		res := m.Gits.Query().Execute(gits.NewQuery().Read(claim.Component).Match(FIELD_ENTITY, "==", strconv.Itoa(id)))
		if res.Amount == 0 {
			return nil, fmt.Errorf("entity %d holds no %s component", id, claim.Component)
		}
		handle := &Handle{mode: claim.Mode, ent: res.Entities[0]}
		v.handles = append(v.handles, handle)
		v.byType[claim.Component] = handle
	}
	return v, nil
}

func (m *Memory) hasComponent(id int, ctype string) bool {
	res := m.Gits.Query().Execute(gits.NewQuery().Read(ctype).Match(FIELD_ENTITY, "==", strconv.Itoa(id)))
	return res.Amount > 0
}

func (m *Memory) hasAnyComponent(id int, ctypes []string) bool {
	for _, ctype := range ctypes {
		if m.hasComponent(id, ctype) {
			return true
		}
	}
	return false
}

// writeBack persists a mutated component entity. Updates go through the
// query update verb, mapping an entity with a known ID only wires
// relations and leaves its payload untouched.
func (m *Memory) writeBack(ent transport.TransportEntity) {
	qry := query.New().Update(ent.Type).Match("ID", "==", strconv.Itoa(ent.ID)).Set("Value", ent.Value)
	for key, value := range ent.Properties {
		qry = qry.Set("Properties."+key, value)
	}
	m.Gits.Query().Execute(qry)
	m.bump()
}

func copyProperties(properties map[string]string) map[string]string {
	copied := make(map[string]string)
	for key, value := range properties {
		copied[key] = value
	}
	return copied
}

// Iterator is a lazy single pass over resolved entity ids.
type Iterator struct {
	ids []int
	pos int
}

func (it *Iterator) Next() bool {
	if it.pos < len(it.ids) {
		it.pos++
		return true
	}
	return false
}

// Entity returns the id yielded by the last successful Next.
func (it *Iterator) Entity() int {
	return it.ids[it.pos-1]
}

func (it *Iterator) Size() int {
	return len(it.ids)
}
