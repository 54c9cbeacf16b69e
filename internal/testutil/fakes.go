package testutil

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/Sasha-Sorokin/alphaid-bot/internal/keeper"
)

// FakePrivate implements keeper.Private for module unit tests, without a
// running loader behind it.
type FakePrivate struct {
	ModuleName  string
	Owner       keeper.Module
	Deps        map[string]keeper.Public
	Dependents  map[string]keeper.Public
	ConfigFile  string
	InitPending bool
	UnlPending  bool
}

func (p *FakePrivate) Name() string { return p.ModuleName }

func (p *FakePrivate) BaseCheck(m keeper.Module) bool { return m != nil && m == p.Owner }

func (p *FakePrivate) Dependency(name string) (keeper.Public, bool) {
	dep, ok := p.Deps[name]
	return dep, ok
}

func (p *FakePrivate) Dependent(name string) (keeper.Public, bool) {
	dependent, ok := p.Dependents[name]
	return dependent, ok
}

func (p *FakePrivate) ConfigPath() string { return p.ConfigFile }

func (p *FakePrivate) LoadConfig(v any) error {
	data, err := os.ReadFile(p.ConfigFile)
	if err != nil {
		return fmt.Errorf("reading module config: %w", err)
	}
	if err := toml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing module config %s: %w", p.ConfigFile, err)
	}
	return nil
}

func (p *FakePrivate) PendingInitialization() bool { return p.InitPending }

func (p *FakePrivate) PendingUnload() bool { return p.UnlPending }

// FakePublic implements keeper.Public around a fixed instance. One-shot
// subscriptions fire immediately when the recorded state has reached the
// target phase.
type FakePublic struct {
	ModuleName string
	ModState   keeper.State
	Mod        keeper.Module
}

func (p *FakePublic) Name() string { return p.ModuleName }

func (p *FakePublic) State() keeper.State { return p.ModState }

func (p *FakePublic) Instance() keeper.Module { return p.Mod }

func (p *FakePublic) OnConstructed(fn func(keeper.Public)) {
	if p.ModState >= keeper.StateConstructed {
		fn(p)
	}
}

func (p *FakePublic) OnInitialized(fn func(keeper.Public)) {
	if p.ModState >= keeper.StateInitialized {
		fn(p)
	}
}
