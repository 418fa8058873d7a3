package operation

import (
	"fmt"

	"github.com/voodooEntity/synapse/src/system/access"
	"github.com/voodooEntity/synapse/src/system/memory"
	"github.com/voodooEntity/synapse/src/system/resource"
)

// FuncOp wraps an ordinary function plus a declaration into an
// Operation. This is the one adapter between function-shaped work and
// the operation interface, anything callable goes through here.
type FuncOp[In any, Out any] struct {
	decl   access.Declaration
	res    resource.Requirement
	fn     func(In, *memory.View, *Run) Out
	locals []Stateful
}

// NewFuncIn wraps a function taking a per-invocation input. The view
// handed to fn holds exactly the declared data claims, fetched by the
// wrapper and flushed after fn returns.
func NewFuncIn[In any, Out any](decl access.Declaration, fn func(In, *memory.View, *Run) Out) *FuncOp[In, Out] {
	return &FuncOp[In, Out]{decl: decl, fn: fn}
}

// NewFunc wraps an input-less function.
func NewFunc[Out any](decl access.Declaration, fn func(*memory.View, *Run) Out) *FuncOp[struct{}, Out] {
	return NewFuncIn(decl, func(_ struct{}, data *memory.View, run *Run) Out {
		return fn(data, run)
	})
}

// WithCommands declares that the wrapped function records deferred
// mutations on the pass command buffer.
func (f *FuncOp[In, Out]) WithCommands() *FuncOp[In, Out] {
	f.res.Commands = true
	return f
}

// WithState registers per-entity state carried by the wrapped function,
// so the driver can retire it when entities stop matching.
func (f *FuncOp[In, Out]) WithState(state Stateful) *FuncOp[In, Out] {
	f.locals = append(f.locals, state)
	return f
}

func (f *FuncOp[In, Out]) DataRequirement() access.DataRequirement {
	return f.decl.Data
}

func (f *FuncOp[In, Out]) FilterRequirement() access.FilterRequirement {
	return access.And(f.decl.Filter, access.Project(f.decl.Data))
}

func (f *FuncOp[In, Out]) ResourceRequirement() resource.Requirement {
	return f.res
}

func (f *FuncOp[In, Out]) Invoke(input In, run *Run) Out {
	data, err := run.Fetch(f.decl.Data)
	if err != nil {
		// the driver only invokes for entities matching the full
		// filter, so a failed fetch means the store broke mid-pass.
		// the driver recovers this into the pass error
		panic(fmt.Sprintf("data resolution failed for validated entity %d: %v", run.Entity, err))
	}
	out := f.fn(input, data, run)
	data.Flush()
	return out
}

func (f *FuncOp[In, Out]) Retain(alive map[int]bool) {
	for _, state := range f.locals {
		state.Retain(alive)
	}
}
