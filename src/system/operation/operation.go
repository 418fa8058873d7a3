package operation

import (
	"github.com/voodooEntity/synapse/src/system/access"
	"github.com/voodooEntity/synapse/src/system/memory"
	"github.com/voodooEntity/synapse/src/system/resource"
)

// Operation is the unit of per-entity work. It declares what it touches
// and exposes a single execution entry point for one already-validated
// entity.
//
// DataRequirement is the declared component access, the scheduler input.
// FilterRequirement is the complete eligibility filter, including the
// existence projection of the operation's own data needs - the driver
// iterates exactly the entities matching it. Invoke never iterates or
// resolves filters itself; per-operation data flows through the store
// handle on the run context the driver prepared.
type Operation[In any, Out any] interface {
	DataRequirement() access.DataRequirement
	FilterRequirement() access.FilterRequirement
	ResourceRequirement() resource.Requirement
	Invoke(input In, run *Run) Out
}

// Run is the per-entity per-pass run context: the current entity, the
// store the driver validated against, and the resolved resources. It is
// created fresh for every entity and discarded after Invoke returns.
type Run struct {
	Entity    int
	Memory    *memory.Memory
	Resources *resource.Context
}

// Fetch resolves a data requirement for the current entity.
func (r *Run) Fetch(req access.DataRequirement) (*memory.View, error) {
	return r.Memory.FetchView(r.Entity, req)
}

// Matches checks the current entity against a filter requirement.
func (r *Run) Matches(f access.FilterRequirement) bool {
	return r.Memory.Matches(r.Entity, f)
}

// Attempt is the tagged outcome of an optional operation. When the
// inner operation could not service the entity, Ran is false and Input
// carries the original input unchanged.
type Attempt[Out any, In any] struct {
	Ran   bool
	Out   Out
	Input In
}

// Stateful is implemented by operations that keep per-entity state.
// After every pass the driver hands over the set of entities that still
// match, anything else is retired. Composition nodes forward the call
// to their children.
type Stateful interface {
	Retain(alive map[int]bool)
}
