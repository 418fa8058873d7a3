package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/voodooEntity/gits"
	"github.com/voodooEntity/synapse"
	"github.com/voodooEntity/synapse/src/system/access"
	"github.com/voodooEntity/synapse/src/system/archivist"
	"github.com/voodooEntity/synapse/src/system/driver"
	"github.com/voodooEntity/synapse/src/system/memory"
	"github.com/voodooEntity/synapse/src/system/operation"
)

func main() {
	logger := log.New(os.Stdout, "", 0)

	// create base instance. ident is required.
	sy := synapse.New(synapse.Settings{
		Ident:    "GreatName",
		Logger:   logger,
		LogLevel: archivist.LEVEL_INFO,
	})

	// seed some entities holding a Count component
	mem := sy.Memory()
	mem.Spawn(memory.Component{Type: "Count", Value: "0"})
	mem.Spawn(memory.Component{Type: "Count", Value: "10"})
	mem.Spawn(memory.Component{Type: "Count", Value: "20", Properties: map[string]string{"Limit": "21"}})

	// an operation that raises every Count up to a limit and reports
	// the current value. once nothing writes anymore the observer
	// sees a stable memory version and ends the loop.
	decl := access.Declaration{Data: access.NewData().Write("Count")}
	raiseCount := operation.NewFunc(decl, func(data *memory.View, run *operation.Run) int {
		count := data.Component("Count")
		value, _ := strconv.Atoi(count.Value())
		limit := 3
		if raw := count.Property("Limit"); raw != "" {
			limit, _ = strconv.Atoi(raw)
		}
		if value < limit {
			value++
			count.SetValue(strconv.Itoa(value))
		}
		return value
	})

	// fold the per-entity outputs into a sum per pass
	sum := func(acc *int, out int) { *acc += out }
	runner, err := driver.New[struct{}, int, int]("raiseCounts", raiseCount, mem, sum, sy.Log())
	if err != nil {
		logger.Println("composition rejected:", err)
		return
	}
	runner.WithSink(func(total int) {
		logger.Println("pass total:", total)
	})

	if err := sy.Attach(runner); err != nil {
		logger.Println(err)
		return
	}

	// get an observer instance. provide a callback to be executed at
	// the end and lethal=true which stops the loop at quiescence
	obsi := sy.GetObserverInstance(func(mi *memory.Memory) {
		qry := gits.NewQuery().Read("Count")
		ret := mi.Gits.Query().Execute(qry)
		logger.Println("Result:", ret)
	}, true)
	obsi.SetTickRate(20)

	// blocking while the attached systems still produce changes
	obsi.Loop()

	fmt.Println(fmt.Sprintf("final memory version: %d", mem.Version()))
}
