package engine_test

import (
	"fmt"

	"github.com/lockwarden/lockwarden/pkg/engine"
)

func ExampleDeriveLockIndex() {
	resources := []engine.Resource{
		{ID: "disk-1", Type: "disk"},
		{ID: "lock-1", Type: engine.TypeLock, Properties: map[string]interface{}{
			"level": "CanNotDelete",
		}},
	}
	edges := []engine.Edge{{From: "lock-1", To: "disk-1"}}

	g, err := engine.BuildGraph(resources, edges)
	if err != nil {
		panic(err)
	}

	idx, err := engine.DeriveLockIndex(g)
	if err != nil {
		panic(err)
	}

	level, _ := idx.Level("disk-1")
	fmt.Printf("disk-1: %s\n", level)
	fmt.Printf("locked: %v\n", idx.LockedResources())
	// Output:
	// disk-1: CanNotDelete
	// locked: [disk-1]
}
