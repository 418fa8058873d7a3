package memory

import (
	"io"
	"log"
	"strconv"
	"testing"

	"github.com/voodooEntity/synapse/src/system/access"
	"github.com/voodooEntity/synapse/src/system/archivist"
)

// fresh memory per test case, gits instances are registered by ident so
// the test name keeps them apart
func newTestMemory(t *testing.T) *Memory {
	logger := archivist.New(&archivist.Config{Logger: log.New(io.Discard, "", 0)})
	return New(t.Name(), logger)
}

func collect(it *Iterator) []int {
	var ids []int
	for it.Next() {
		ids = append(ids, it.Entity())
	}
	return ids
}

func Test_SpawnAndResolve(t *testing.T) {
	mem := newTestMemory(t)
	withBoth := mem.Spawn(Component{Type: "Position", Value: "1"}, Component{Type: "Velocity", Value: "2"})
	withPosition := mem.Spawn(Component{Type: "Position", Value: "5"})
	bare := mem.Spawn()

	ids := collect(mem.Resolve(access.NewFilter().With("Position")))
	if len(ids) != 2 {
		t.Fatalf("expected 2 entities with Position, got %v", ids)
	}

	ids = collect(mem.Resolve(access.NewFilter().With("Position").With("Velocity")))
	if len(ids) != 1 || ids[0] != withBoth {
		t.Fatalf("expected only entity %d, got %v", withBoth, ids)
	}

	ids = collect(mem.Resolve(access.NewFilter().Without("Position")))
	if len(ids) != 1 || ids[0] != bare {
		t.Fatalf("expected only bare entity %d, got %v", bare, ids)
	}

	ids = collect(mem.Resolve(access.NewFilter().With("Position").Without("Velocity")))
	if len(ids) != 1 || ids[0] != withPosition {
		t.Fatalf("expected only entity %d, got %v", withPosition, ids)
	}

	// unsatisfiable filters are legal and match nothing
	ids = collect(mem.Resolve(access.NewFilter().With("Position").Without("Position")))
	if len(ids) != 0 {
		t.Fatalf("unsatisfiable filter matched %v", ids)
	}
}

func Test_ResolveOrderAndSinglePass(t *testing.T) {
	mem := newTestMemory(t)
	first := mem.Spawn(Component{Type: "Tag", Value: "a"})
	second := mem.Spawn(Component{Type: "Tag", Value: "b"})

	it := mem.Resolve(access.NewFilter().With("Tag"))
	ids := collect(it)
	if len(ids) != 2 || ids[0] != first || ids[1] != second {
		t.Fatalf("expected ascending order [%d %d], got %v", first, second, ids)
	}
	if it.Next() {
		t.Fatalf("iterator must be exhausted after one pass")
	}
}

func Test_FetchViewAndFlush(t *testing.T) {
	mem := newTestMemory(t)
	id := mem.Spawn(Component{Type: "Count", Value: "41", Properties: map[string]string{"Step": "1"}})

	v, err := mem.FetchView(id, access.NewData().Write("Count"))
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	handle := v.Component("Count")
	if handle.Value() != "41" || handle.Property("Step") != "1" {
		t.Fatalf("unexpected handle payload %s/%s", handle.Value(), handle.Property("Step"))
	}
	handle.SetValue("42")
	handle.SetProperty("Step", "2")
	v.Flush()

	fresh, err := mem.FetchView(id, access.NewData().Read("Count"))
	if err != nil {
		t.Fatalf("refetch failed: %v", err)
	}
	if fresh.Component("Count").Value() != "42" {
		t.Fatalf("flush not visible, got %s", fresh.Component("Count").Value())
	}
	if fresh.Component("Count").Property("Step") != "2" {
		t.Fatalf("property write not visible, got %s", fresh.Component("Count").Property("Step"))
	}
}

// Test: a flushed write survives the round trip through the store, not
// just the handle the write went through.
func Test_FlushPersistsAcrossPasses(t *testing.T) {
	mem := newTestMemory(t)
	id := mem.Spawn(Component{Type: "Count", Value: "0"})

	for pass := 1; pass <= 3; pass++ {
		v, err := mem.FetchView(id, access.NewData().Write("Count"))
		if err != nil {
			t.Fatalf("fetch failed on pass %d: %v", pass, err)
		}
		value, _ := strconv.Atoi(v.Component("Count").Value())
		if value != pass-1 {
			t.Fatalf("pass %d read stale value %d", pass, value)
		}
		v.Component("Count").SetValue(strconv.Itoa(value + 1))
		v.Flush()
	}
}

func Test_FetchViewMissingComponent(t *testing.T) {
	mem := newTestMemory(t)
	id := mem.Spawn(Component{Type: "Position", Value: "1"})
	if _, err := mem.FetchView(id, access.NewData().Read("Velocity")); err == nil {
		t.Fatalf("expected resolution failure for missing Velocity")
	}
}

func Test_ReadHandleRejectsWrites(t *testing.T) {
	mem := newTestMemory(t)
	id := mem.Spawn(Component{Type: "Count", Value: "1"})
	v, err := mem.FetchView(id, access.NewData().Read("Count"))
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic writing through a read handle")
		}
	}()
	v.Component("Count").SetValue("2")
}

func Test_DespawnAndDetach(t *testing.T) {
	mem := newTestMemory(t)
	keep := mem.Spawn(Component{Type: "Count", Value: "1"})
	gone := mem.Spawn(Component{Type: "Count", Value: "2"})

	mem.Despawn(gone)
	ids := collect(mem.Resolve(access.NewFilter().With("Count")))
	if len(ids) != 1 || ids[0] != keep {
		t.Fatalf("expected only %d after despawn, got %v", keep, ids)
	}
	if mem.Matches(gone, access.NewFilter()) {
		t.Fatalf("despawned entity still matches the empty filter")
	}

	mem.AttachComponent(keep, Component{Type: "Marker"})
	if !mem.Matches(keep, access.NewFilter().With("Marker")) {
		t.Fatalf("attached Marker not visible")
	}
	mem.DetachComponent(keep, "Marker")
	if mem.Matches(keep, access.NewFilter().With("Marker")) {
		t.Fatalf("detached Marker still visible")
	}
}

func Test_VersionBumpsOnMutation(t *testing.T) {
	mem := newTestMemory(t)
	start := mem.Version()
	id := mem.Spawn(Component{Type: "Count", Value: "1"})
	if mem.Version() == start {
		t.Fatalf("spawn did not bump the version")
	}

	before := mem.Version()
	v, _ := mem.FetchView(id, access.NewData().Read("Count"))
	_ = v.Component("Count").Value()
	v.Flush()
	if mem.Version() != before {
		t.Fatalf("read-only pass must not bump the version")
	}

	v, _ = mem.FetchView(id, access.NewData().Write("Count"))
	v.Component("Count").SetValue("2")
	v.Flush()
	if mem.Version() == before {
		t.Fatalf("flushed write did not bump the version")
	}
}
