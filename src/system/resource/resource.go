package resource

import "github.com/voodooEntity/synapse/src/system/memory"

// Requirement names the auxiliary, non-per-entity capabilities an
// operation needs besides its component data.
type Requirement struct {
	Commands bool
}

func (r Requirement) Merge(other Requirement) Requirement {
	return Requirement{Commands: r.Commands || other.Commands}
}

// Context carries the resolved resource handles for one pass.
type Context struct {
	Commands *CommandBuffer
}

// CommandBuffer collects deferred structural mutations. Operations must
// not spawn or despawn mid-pass, they enqueue here and the driver
// applies the buffer once the pass is over. Entities spawned through
// the buffer are therefore never visited in the pass that created them.
type CommandBuffer struct {
	spawns   [][]memory.Component
	despawns []int
}

func (b *CommandBuffer) Spawn(components ...memory.Component) {
	b.spawns = append(b.spawns, components)
}

func (b *CommandBuffer) Despawn(id int) {
	b.despawns = append(b.despawns, id)
}

func (b *CommandBuffer) Empty() bool {
	return len(b.spawns) == 0 && len(b.despawns) == 0
}

// Apply flushes the buffered commands into memory and resets the buffer.
func (b *CommandBuffer) Apply(mem *memory.Memory) {
	for _, components := range b.spawns {
		mem.Spawn(components...)
	}
	for _, id := range b.despawns {
		mem.Despawn(id)
	}
	b.spawns = nil
	b.despawns = nil
}
