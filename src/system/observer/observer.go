package observer

import (
	"time"

	"github.com/voodooEntity/synapse/src/system/archivist"
	"github.com/voodooEntity/synapse/src/system/memory"
)

// Ticker is whatever the observer drives once per tick, usually the
// synapse instance running its attached systems.
type Ticker interface {
	RunTick() error
}

// Observer ticks the engine and watches the memory version for
// quiescence. Once nothing has mutated the store for a few ticks in a
// row, the endgame callback runs and, if lethal, the loop exits.
type Observer struct {
	InactiveIncrement int
	memory            *memory.Memory
	ticker            Ticker
	callback          func(memoryInstance *memory.Memory)
	lethal            bool
	log               *archivist.Archivist
	tickFunction      *func(mem *memory.Memory, logger *archivist.Archivist)
	tickRate          int
	inactiveLimit     int
	lastVersion       int
}

func New(memoryInstance *memory.Memory, ticker Ticker, cb func(memoryInstance *memory.Memory), logger *archivist.Archivist, lethal bool) *Observer {
	logger.Info("Creating observer")
	return &Observer{
		InactiveIncrement: 0,
		memory:            memoryInstance,
		ticker:            ticker,
		callback:          cb,
		lethal:            lethal,
		log:               logger,
		tickRate:          25,
		inactiveLimit:     5,
		lastVersion:       -1,
	}
}

func (o *Observer) RegisterTickFunction(tickFn *func(mem *memory.Memory, logger *archivist.Archivist)) {
	o.tickFunction = tickFn
}

// SetTickRate sets the pause between ticks in milliseconds.
func (o *Observer) SetTickRate(tickRate int) {
	o.tickRate = tickRate
}

// SetInactiveLimit sets how many quiet ticks count as quiescence.
func (o *Observer) SetInactiveLimit(limit int) {
	o.inactiveLimit = limit
}

func (o *Observer) tick() {
	(*o.tickFunction)(o.memory, o.log)
}

// Loop blocks while the engine is still producing changes. A tick that
// aborts ends the loop immediately. Non-lethal observers fire the
// endgame callback at each quiescence and keep iterating, the loop
// never re-enters itself.
func (o *Observer) Loop() {
	for {
		if o.ReachedEndgame() {
			o.Endgame()
			if o.lethal {
				break
			}
			// non lethal observers keep watching after the callback
			o.InactiveIncrement = 0
		}
		o.log.Debug(archivist.DEBUG_LEVEL_MAX, "Observer looping")
		if err := o.ticker.RunTick(); err != nil {
			o.log.Error("Observer tick aborted", err)
			break
		}
		if nil != o.tickFunction {
			o.tick()
		}
		time.Sleep(time.Duration(o.tickRate) * time.Millisecond)
	}
	o.log.Info("Observer has been shutdown")
}

// ReachedEndgame tracks the memory version across ticks. The version is
// the store's mutation ordinal, a stale one means no system wrote
// anything this tick.
func (o *Observer) ReachedEndgame() bool {
	version := o.memory.Version()
	o.log.Debug(archivist.DEBUG_LEVEL_MAX, "Observer: memory version", version)
	if version != o.lastVersion {
		o.lastVersion = version
		o.InactiveIncrement = 0
		return false
	}
	if o.InactiveIncrement >= o.inactiveLimit {
		return true
	}
	o.InactiveIncrement++
	return false
}

func (o *Observer) Endgame() {
	o.log.Info("executing endgame")
	// execute callback with memory instance provided
	if nil != o.callback {
		o.callback(o.memory)
	}
}
