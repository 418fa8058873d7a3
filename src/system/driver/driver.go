package driver

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/voodooEntity/synapse/src/system/access"
	"github.com/voodooEntity/synapse/src/system/archivist"
	"github.com/voodooEntity/synapse/src/system/memory"
	"github.com/voodooEntity/synapse/src/system/operation"
	"github.com/voodooEntity/synapse/src/system/resource"
)

// Runner turns a composed operation into a repeatable pass over the
// matching entities: resolve the merged requirement once, iterate,
// invoke per entity, fold the outputs into an accumulator seeded at
// Acc's zero value.
type Runner[In any, Out any, Acc any] struct {
	name  string
	op    operation.Operation[In, Out]
	mem   *memory.Memory
	log   *archivist.Archivist
	fold  func(*Acc, Out)
	input func() In
	sink  func(Acc)
}

// New validates the operation's declaration and builds a runner.
// Declaration defects surface here, before any entity is processed,
// never mid-iteration.
func New[In any, Out any, Acc any](name string, op operation.Operation[In, Out], mem *memory.Memory, fold func(*Acc, Out), logger *archivist.Archivist) (*Runner[In, Out, Acc], error) {
	if err := access.Validate(access.Declaration{Data: op.DataRequirement(), Filter: op.FilterRequirement()}); err != nil {
		return nil, err
	}
	return &Runner[In, Out, Acc]{name: name, op: op, mem: mem, log: logger, fold: fold}, nil
}

// WithInput sets the per-tick input rule. The produced value is copied
// for every entity invocation. Without a rule, ticks run on In's zero
// value.
func (r *Runner[In, Out, Acc]) WithInput(input func() In) *Runner[In, Out, Acc] {
	r.input = input
	return r
}

// WithSink sets a receiver for the accumulated output of each tick.
func (r *Runner[In, Out, Acc]) WithSink(sink func(Acc)) *Runner[In, Out, Acc] {
	r.sink = sink
	return r
}

func (r *Runner[In, Out, Acc]) Name() string {
	return r.name
}

// Declared exposes the merged access declaration, the scheduler's input
// for building its conflict graph.
func (r *Runner[In, Out, Acc]) Declared() access.Declaration {
	return access.Declaration{
		Data:   r.op.DataRequirement(),
		Filter: r.op.FilterRequirement(),
	}
}

// RunOnce executes one pass. The entity set is resolved once up front,
// entities spawned during the pass only materialize after it (the
// command buffer applies at the end), no entity is visited twice. The
// input is copied per entity. Store failures abort the pass, fatal for
// this tick only.
func (r *Runner[In, Out, Acc]) RunOnce(input In) (Acc, error) {
	var acc Acc
	pass := uuid.NewString()

	iterator := r.mem.Resolve(r.op.FilterRequirement())
	r.log.Debug(archivist.DEBUG_LEVEL_TRACE, "driver pass begin", "pass="+pass, "system="+r.name, "entities=", iterator.Size())

	commands := &resource.CommandBuffer{}
	resources := &resource.Context{Commands: commands}
	alive := make(map[int]bool)

	for iterator.Next() {
		entity := iterator.Entity()
		alive[entity] = true
		run := &operation.Run{Entity: entity, Memory: r.mem, Resources: resources}
		out, err := r.invoke(input, run)
		if err != nil {
			r.log.Error("driver pass aborted", "pass="+pass, "system="+r.name, err)
			return acc, err
		}
		r.fold(&acc, out)
	}

	commands.Apply(r.mem)
	if stateful, ok := r.op.(operation.Stateful); ok {
		stateful.Retain(alive)
	}

	r.log.Debug(archivist.DEBUG_LEVEL_TRACE, "driver pass end", "pass="+pass, "visited=", len(alive))
	return acc, nil
}

// invoke runs the operation for one entity and converts a panic into
// the pass error. A store failure mid-pass ends this tick, not the
// process.
func (r *Runner[In, Out, Acc]) invoke(input In, run *operation.Run) (out Out, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("system %s failed at entity %d: %v", r.name, run.Entity, rec)
		}
	}()
	return r.op.Invoke(input, run), nil
}

// Tick runs one pass on the configured input rule and hands the
// accumulator to the sink. This is the scheduler-facing entry point.
func (r *Runner[In, Out, Acc]) Tick() error {
	var input In
	if r.input != nil {
		input = r.input()
	}
	acc, err := r.RunOnce(input)
	if err != nil {
		return err
	}
	if r.sink != nil {
		r.sink(acc)
	}
	return nil
}
