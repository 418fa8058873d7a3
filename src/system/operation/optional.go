package operation

import (
	"github.com/voodooEntity/synapse/src/system/access"
	"github.com/voodooEntity/synapse/src/system/resource"
)

// optionalOp widens an operation to every entity in the world. It keeps
// the inner declared data (the scheduler must still see the access) but
// exposes an empty filter. The only operator whose eligibility is
// broader than its inner operation's.
type optionalOp[In any, Out any] struct {
	inner Operation[In, Out]
}

// Optional wraps t so it can be piped against operations with a
// different eligibility set. Entities t cannot service yield a tagged
// attempt carrying the input unchanged, the downstream stage decides
// how to proceed.
func Optional[In any, Out any](t Operation[In, Out]) Operation[In, Attempt[Out, In]] {
	return &optionalOp[In, Out]{inner: t}
}

func (o *optionalOp[In, Out]) DataRequirement() access.DataRequirement {
	return o.inner.DataRequirement()
}

func (o *optionalOp[In, Out]) FilterRequirement() access.FilterRequirement {
	return access.NewFilter()
}

func (o *optionalOp[In, Out]) ResourceRequirement() resource.Requirement {
	return o.inner.ResourceRequirement()
}

func (o *optionalOp[In, Out]) Invoke(input In, run *Run) Attempt[Out, In] {
	if !run.Matches(o.inner.FilterRequirement()) {
		return Attempt[Out, In]{Input: input}
	}
	return Attempt[Out, In]{Ran: true, Out: o.inner.Invoke(input, run)}
}

func (o *optionalOp[In, Out]) Retain(alive map[int]bool) {
	if stateful, ok := o.inner.(Stateful); ok {
		stateful.Retain(alive)
	}
}
