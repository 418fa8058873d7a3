package operation

import (
	"github.com/voodooEntity/synapse/src/system/access"
	"github.com/voodooEntity/synapse/src/system/memory"
	"github.com/voodooEntity/synapse/src/system/resource"
	"github.com/voodooEntity/synapse/src/system/view"
)

// fused2Op is a leaf built from two data requirements that would be
// rejected as two independent operations, e.g. one reading a component
// the other writes. The body only reaches the sub-views through a
// disjoint container, one at a time, which is what makes the overlap
// safe by construction. The declared access is the fused union.
type fused2Op[In any, Out any] struct {
	d0     access.DataRequirement
	d1     access.DataRequirement
	filter access.FilterRequirement
	fn     func(In, *view.Disjoint2, *Run) Out
}

// Fused2 builds an operation over two overlapping per-entity views.
func Fused2[In any, Out any](d0 access.DataRequirement, d1 access.DataRequirement, filter access.FilterRequirement, fn func(In, *view.Disjoint2, *Run) Out) Operation[In, Out] {
	return &fused2Op[In, Out]{d0: d0, d1: d1, filter: filter, fn: fn}
}

func (f *fused2Op[In, Out]) DataRequirement() access.DataRequirement {
	return access.Fuse(f.d0, f.d1)
}

func (f *fused2Op[In, Out]) FilterRequirement() access.FilterRequirement {
	both := access.And(access.Project(f.d0), access.Project(f.d1))
	return access.And(f.filter, both)
}

func (f *fused2Op[In, Out]) ResourceRequirement() resource.Requirement {
	return resource.Requirement{}
}

func (f *fused2Op[In, Out]) Invoke(input In, run *Run) Out {
	set := view.NewDisjoint2(
		func() (*memory.View, error) { return run.Fetch(f.d0) },
		func() (*memory.View, error) { return run.Fetch(f.d1) },
	)
	return f.fn(input, set, run)
}
