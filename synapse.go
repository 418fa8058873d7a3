package synapse

import (
	"fmt"

	"github.com/voodooEntity/synapse/src/system/access"
	"github.com/voodooEntity/synapse/src/system/archivist"
	"github.com/voodooEntity/synapse/src/system/interfaces"
	"github.com/voodooEntity/synapse/src/system/memory"
	"github.com/voodooEntity/synapse/src/system/observer"
)

// System is the scheduler-facing shape of a composed operation: its
// merged access declaration, for the conflict graph, and a tick entry
// point. driver.Runner implements it.
type System interface {
	Name() string
	Declared() access.Declaration
	Tick() error
}

type Settings struct {
	Ident      string
	Logger     interfaces.LoggerInterface
	LogLevel   int
	DebugLevel int
}

// Synapse wires the memory instance, the logger and the attached
// systems together. It runs systems strictly sequentially - parallelism
// is the business of whatever external scheduler consumes Groups().
type Synapse struct {
	memory  *memory.Memory
	log     *archivist.Archivist
	systems []System
}

func New(settings Settings) *Synapse {
	if settings.Ident == "" {
		settings.Ident = "Synapse"
	}
	logger := archivist.New(&archivist.Config{
		Logger:     settings.Logger,
		LogLevel:   settings.LogLevel,
		DebugLevel: settings.DebugLevel,
	})
	logger.Info("Creating synapse instance", settings.Ident)
	return &Synapse{
		memory: memory.New(settings.Ident, logger),
		log:    logger,
	}
}

func (s *Synapse) Memory() *memory.Memory {
	return s.memory
}

func (s *Synapse) Log() *archivist.Archivist {
	return s.log
}

// Attach registers a system for ticking. Names must be unique. A
// declaration conflict with an already attached system is not an error,
// it only keeps the two out of the same parallel group.
func (s *Synapse) Attach(system System) error {
	for _, existing := range s.systems {
		if existing.Name() == system.Name() {
			return fmt.Errorf("system %s is already attached", system.Name())
		}
	}
	s.systems = append(s.systems, system)
	s.log.Info("Attached system", system.Name())
	return nil
}

func (s *Synapse) Systems() []System {
	out := make([]System, len(s.systems))
	copy(out, s.systems)
	return out
}

// RunTick runs every attached system once, in attach order. The first
// aborted pass aborts the tick.
func (s *Synapse) RunTick() error {
	for _, system := range s.systems {
		if err := system.Tick(); err != nil {
			return fmt.Errorf("tick aborted in system %s: %w", system.Name(), err)
		}
	}
	return nil
}

// Groups partitions the attached systems into conflict-free groups by
// pairwise declaration merge. Systems within one group hold provably
// disjoint mutable access and could be run in parallel by an external
// scheduler; the engine itself never spawns goroutines.
func (s *Synapse) Groups() [][]System {
	var groups [][]System
	declared := make(map[string]access.Declaration)
	merged := make(map[int]access.Declaration)

	for _, system := range s.systems {
		declared[system.Name()] = system.Declared()
	}

next:
	for _, system := range s.systems {
		for index, group := range groups {
			combined, err := access.Merge(merged[index], declared[system.Name()])
			if err != nil {
				continue
			}
			groups[index] = append(group, system)
			merged[index] = combined
			continue next
		}
		groups = append(groups, []System{system})
		merged[len(groups)-1] = declared[system.Name()]
	}
	return groups
}

// GetObserverInstance builds an observer ticking this synapse. Provide
// a callback to run at quiescence and lethal=true to stop afterwards.
func (s *Synapse) GetObserverInstance(cb func(memoryInstance *memory.Memory), lethal bool) *observer.Observer {
	return observer.New(s.memory, s, cb, s.log, lethal)
}
