package driver

import (
	"io"
	"log"
	"strconv"
	"testing"

	"github.com/voodooEntity/synapse/src/system/access"
	"github.com/voodooEntity/synapse/src/system/archivist"
	"github.com/voodooEntity/synapse/src/system/memory"
	"github.com/voodooEntity/synapse/src/system/operation"
	"github.com/voodooEntity/synapse/src/system/resource"
)

func newTestMemory(t *testing.T) (*memory.Memory, *archivist.Archivist) {
	logger := archivist.New(&archivist.Config{Logger: log.New(io.Discard, "", 0)})
	return memory.New(t.Name(), logger), logger
}

func raiseCount() operation.Operation[struct{}, int] {
	return operation.NewFunc(access.Declaration{Data: access.NewData().Write("Count")}, func(data *memory.View, run *operation.Run) int {
		value, _ := strconv.Atoi(data.Component("Count").Value())
		value++
		data.Component("Count").SetValue(strconv.Itoa(value))
		return value
	})
}

func sum(acc *int, out int) {
	*acc += out
}

// Test: repeated passes with spawns and despawns between them. Each
// pass increments every Count and folds the raised values; the
// accumulated sums pin the fold semantics across world changes.
func Test_RunOnce_FoldAcrossWorldChanges(t *testing.T) {
	mem, logger := newTestMemory(t)
	mem.Spawn(memory.Component{Type: "Count", Value: "0"})
	second := mem.Spawn(memory.Component{Type: "Count", Value: "10"})

	runner, err := New[struct{}, int, int]("raiseCount", raiseCount(), mem, sum, logger)
	if err != nil {
		t.Fatalf("runner construction failed: %v", err)
	}

	acc, _ := runner.RunOnce(struct{}{})
	if acc != 12 {
		t.Fatalf("first pass: expected 12, got %d", acc)
	}
	acc, _ = runner.RunOnce(struct{}{})
	if acc != 14 {
		t.Fatalf("second pass: expected 14, got %d", acc)
	}

	mem.Spawn(memory.Component{Type: "Count", Value: "20"})
	acc, _ = runner.RunOnce(struct{}{})
	if acc != 37 {
		t.Fatalf("third pass: expected 37, got %d", acc)
	}

	mem.Despawn(second)
	acc, _ = runner.RunOnce(struct{}{})
	if acc != 26 {
		t.Fatalf("fourth pass: expected 26, got %d", acc)
	}
}

// Test: entities spawned through the command buffer materialize after
// the pass, never inside it.
func Test_RunOnce_DeferredSpawns(t *testing.T) {
	mem, logger := newTestMemory(t)
	mem.Spawn(memory.Component{Type: "Count", Value: "0"})
	mem.Spawn(memory.Component{Type: "Count", Value: "0"})

	op := operation.NewFunc(access.Declaration{Data: access.NewData().Read("Count")}, func(data *memory.View, run *operation.Run) int {
		run.Resources.Commands.Spawn(memory.Component{Type: "Count", Value: "0"})
		return 1
	}).WithCommands()

	runner, err := New[struct{}, int, int]("spawner", op, mem, sum, logger)
	if err != nil {
		t.Fatalf("runner construction failed: %v", err)
	}

	if acc, _ := runner.RunOnce(struct{}{}); acc != 2 {
		t.Fatalf("first pass visited %d entities, spawns leaked into the running pass", acc)
	}
	if acc, _ := runner.RunOnce(struct{}{}); acc != 4 {
		t.Fatalf("second pass visited %d entities, expected 4", acc)
	}
}

// Test: per-entity state survives across passes and is retired when
// its entity is despawned.
func Test_RunOnce_LocalStateLifecycle(t *testing.T) {
	mem, logger := newTestMemory(t)
	first := mem.Spawn(memory.Component{Type: "Count", Value: "0"})
	mem.Spawn(memory.Component{Type: "Count", Value: "0"})

	visits := operation.NewLocal[int]()
	op := operation.NewFunc(access.Declaration{Data: access.NewData().Read("Count")}, func(data *memory.View, run *operation.Run) int {
		*visits.Get(run.Entity)++
		return *visits.Get(run.Entity)
	}).WithState(visits)

	runner, err := New[struct{}, int, int]("visitCounter", op, mem, sum, logger)
	if err != nil {
		t.Fatalf("runner construction failed: %v", err)
	}

	runner.RunOnce(struct{}{})
	if acc, _ := runner.RunOnce(struct{}{}); acc != 4 {
		t.Fatalf("expected both counters at 2, folded %d", acc)
	}
	if *visits.Get(first) != 2 {
		t.Fatalf("counter for entity %d drifted to %d", first, *visits.Get(first))
	}

	mem.Despawn(first)
	runner.RunOnce(struct{}{})
	if visits.Len() != 1 {
		t.Fatalf("state for despawned entity was not retired, %d left", visits.Len())
	}
}

// unguardedOp widens eligibility past its data needs, so its fetch can
// fail for iterated entities.
type unguardedOp struct {
	inner operation.Operation[struct{}, int]
}

func (u unguardedOp) DataRequirement() access.DataRequirement {
	return u.inner.DataRequirement()
}

func (u unguardedOp) FilterRequirement() access.FilterRequirement {
	return access.NewFilter()
}

func (u unguardedOp) ResourceRequirement() resource.Requirement {
	return u.inner.ResourceRequirement()
}

func (u unguardedOp) Invoke(input struct{}, run *operation.Run) int {
	return u.inner.Invoke(input, run)
}

// Test: a failed data resolution mid-pass aborts the tick with an
// error, the process stays alive.
func Test_RunOnce_StoreFailureAbortsTickOnly(t *testing.T) {
	mem, logger := newTestMemory(t)
	mem.Spawn(memory.Component{Type: "Marker"})

	inner := operation.NewFunc(access.Declaration{Data: access.NewData().Read("Count")}, func(data *memory.View, run *operation.Run) int {
		return 1
	})
	runner, err := New[struct{}, int, int]("unguarded", unguardedOp{inner: inner}, mem, sum, logger)
	if err != nil {
		t.Fatalf("runner construction failed: %v", err)
	}

	if _, err := runner.RunOnce(struct{}{}); err == nil {
		t.Fatalf("expected the pass to abort on a failed fetch")
	}
	if err := runner.Tick(); err == nil {
		t.Fatalf("expected the tick to surface the pass error")
	}
}

// Test: a hand-built defective declaration fails runner construction,
// before any entity is touched.
func Test_New_RejectsDefectiveDeclaration(t *testing.T) {
	mem, logger := newTestMemory(t)

	broken := operation.NewFunc(access.Declaration{
		Data: access.DataRequirement{Claims: []access.Claim{{Component: "", Mode: access.MODE_READ}}},
	}, func(data *memory.View, run *operation.Run) int { return 0 })

	if _, err := New[struct{}, int, int]("broken", broken, mem, sum, logger); err == nil {
		t.Fatalf("expected construction to fail on an empty component name")
	}
}

// Test: the tick entry point applies the input rule and hands the
// accumulator to the sink.
func Test_Tick_InputRuleAndSink(t *testing.T) {
	mem, logger := newTestMemory(t)
	mem.Spawn(memory.Component{Type: "Count", Value: "0"})
	mem.Spawn(memory.Component{Type: "Count", Value: "0"})

	op := operation.NewFuncIn(access.Declaration{Data: access.NewData().Read("Count")}, func(in int, data *memory.View, run *operation.Run) int {
		return in
	})

	var delivered int
	runner, err := New[int, int, int]("echo", op, mem, sum, logger)
	if err != nil {
		t.Fatalf("runner construction failed: %v", err)
	}
	runner.WithInput(func() int { return 21 }).WithSink(func(acc int) { delivered = acc })

	if err := runner.Tick(); err != nil {
		t.Fatalf("tick failed: %v", err)
	}
	if delivered != 42 {
		t.Fatalf("sink received %d, expected 42", delivered)
	}
}
