package linker

import (
	"fmt"

	"github.com/Sasha-Sorokin/alphaid-bot/internal/keeper"
)

// detectCycles rejects dependency cycles in the linked graph.
//
// Classic depth-first search with three sets of records:
// permanent: records fully visited and known to be cycle-free.
// temporary: records on the recursion stack of the current traversal.
// unvisited: everything else.
func detectCycles(keepers []*keeper.Keeper) error {
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(k *keeper.Keeper) error
	visit = func(k *keeper.Keeper) error {
		id := k.ID()
		if permanent[id] {
			return nil
		}
		if temporary[id] {
			// A record already on our recursion stack closes a cycle.
			return fmt.Errorf("dependency cycle detected involving module %s", id)
		}

		temporary[id] = true
		for _, name := range k.DependencyNames() {
			dep, _ := k.Dependency(name)
			if err := visit(dep); err != nil {
				return err
			}
		}
		delete(temporary, id)
		permanent[id] = true
		return nil
	}

	for _, k := range keepers {
		if !permanent[k.ID()] {
			if err := visit(k); err != nil {
				return err
			}
		}
	}
	return nil
}
