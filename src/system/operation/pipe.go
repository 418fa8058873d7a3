package operation

import (
	"github.com/voodooEntity/synapse/src/system/access"
	"github.com/voodooEntity/synapse/src/system/resource"
)

// pipeOp feeds the output of a into b. Its declared data is the fused
// access of both children, its filter the conjunction of both children's
// full eligibility - so it runs exactly on entities both could run on,
// without either child's access rights leaking into the other.
type pipeOp[In any, Mid any, Out any] struct {
	a Operation[In, Mid]
	b Operation[Mid, Out]
}

// Pipe sequences two operations. Type agreement between a's output and
// b's input is checked by the compiler; overlapping component claims
// between the children are legal, their accesses stay separate at
// invocation time and only fuse in the declaration.
func Pipe[In any, Mid any, Out any](a Operation[In, Mid], b Operation[Mid, Out]) Operation[In, Out] {
	return &pipeOp[In, Mid, Out]{a: a, b: b}
}

func (p *pipeOp[In, Mid, Out]) DataRequirement() access.DataRequirement {
	return access.Fuse(p.a.DataRequirement(), p.b.DataRequirement())
}

func (p *pipeOp[In, Mid, Out]) FilterRequirement() access.FilterRequirement {
	return access.And(p.a.FilterRequirement(), p.b.FilterRequirement())
}

func (p *pipeOp[In, Mid, Out]) ResourceRequirement() resource.Requirement {
	return p.a.ResourceRequirement().Merge(p.b.ResourceRequirement())
}

// Invoke runs a, then b, left to right. a's writes are flushed before b
// fetches, so b observes them.
func (p *pipeOp[In, Mid, Out]) Invoke(input In, run *Run) Out {
	mid := p.a.Invoke(input, run)
	return p.b.Invoke(mid, run)
}

func (p *pipeOp[In, Mid, Out]) Retain(alive map[int]bool) {
	if stateful, ok := p.a.(Stateful); ok {
		stateful.Retain(alive)
	}
	if stateful, ok := p.b.(Stateful); ok {
		stateful.Retain(alive)
	}
}
