package loader

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/Sasha-Sorokin/alphaid-bot/internal/keeper"
)

// arena is one generation of linked records. Capability interfaces are
// handles holding the arena pointer and a record index; a registry rebuild
// produces a fresh arena without disturbing handles from the previous one.
type arena struct {
	keepers []*keeper.Keeper
	byID    map[string]int
}

func newArena(keepers []*keeper.Keeper) *arena {
	byID := make(map[string]int, len(keepers))
	for i, k := range keepers {
		byID[k.ID()] = i
	}
	return &arena{keepers: keepers, byID: byID}
}

// bind attaches capability handles to every record of the arena.
func (a *arena) bind(configRoot string) {
	for i, k := range a.keepers {
		k.BindInterfaces(
			&privHandle{a: a, idx: i, configRoot: configRoot},
			&pubHandle{a: a, idx: i},
		)
	}
}

// privHandle implements keeper.Private for one arena slot.
type privHandle struct {
	a          *arena
	idx        int
	configRoot string
}

func (h *privHandle) keeper() *keeper.Keeper { return h.a.keepers[h.idx] }

func (h *privHandle) Name() string { return h.keeper().Name() }

func (h *privHandle) BaseCheck(m keeper.Module) bool {
	return m != nil && h.keeper().Instance() == m
}

func (h *privHandle) Dependency(name string) (keeper.Public, bool) {
	dep, ok := h.keeper().Dependency(name)
	if !ok {
		return nil, false
	}
	return dep.Public(), true
}

func (h *privHandle) Dependent(name string) (keeper.Public, bool) {
	dependent, ok := h.keeper().DependentByName(name)
	if !ok {
		return nil, false
	}
	return dependent.Public(), true
}

func (h *privHandle) ConfigPath() string {
	return filepath.Join(h.configRoot, h.keeper().Name()+".toml")
}

func (h *privHandle) LoadConfig(v any) error {
	path := h.ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading module config: %w", err)
	}
	if err := toml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing module config %s: %w", path, err)
	}
	return nil
}

func (h *privHandle) PendingInitialization() bool { return h.keeper().PendingInitialization() }

func (h *privHandle) PendingUnload() bool { return h.keeper().PendingUnload() }

// pubHandle implements keeper.Public for one arena slot.
type pubHandle struct {
	a   *arena
	idx int
}

func (h *pubHandle) keeper() *keeper.Keeper { return h.a.keepers[h.idx] }

func (h *pubHandle) Name() string { return h.keeper().Name() }

func (h *pubHandle) State() keeper.State { return h.keeper().State() }

func (h *pubHandle) Instance() keeper.Module { return h.keeper().Instance() }

func (h *pubHandle) OnConstructed(fn func(keeper.Public)) { h.keeper().OnConstructed(fn) }

func (h *pubHandle) OnInitialized(fn func(keeper.Public)) { h.keeper().OnInitialized(fn) }
