package operation

import (
	"github.com/voodooEntity/synapse/src/system/access"
	"github.com/voodooEntity/synapse/src/system/resource"
)

// mapOp transforms the output of an inner operation. It changes the
// output shape only, eligibility and declared access stay untouched.
type mapOp[In any, Mid any, Out any] struct {
	inner Operation[In, Mid]
	fn    func(Mid) Out
}

// Map adapts t's output through fn.
func Map[In any, Mid any, Out any](t Operation[In, Mid], fn func(Mid) Out) Operation[In, Out] {
	return &mapOp[In, Mid, Out]{inner: t, fn: fn}
}

func (m *mapOp[In, Mid, Out]) DataRequirement() access.DataRequirement {
	return m.inner.DataRequirement()
}

func (m *mapOp[In, Mid, Out]) FilterRequirement() access.FilterRequirement {
	return m.inner.FilterRequirement()
}

func (m *mapOp[In, Mid, Out]) ResourceRequirement() resource.Requirement {
	return m.inner.ResourceRequirement()
}

func (m *mapOp[In, Mid, Out]) Invoke(input In, run *Run) Out {
	return m.fn(m.inner.Invoke(input, run))
}

func (m *mapOp[In, Mid, Out]) Retain(alive map[int]bool) {
	if stateful, ok := m.inner.(Stateful); ok {
		stateful.Retain(alive)
	}
}
