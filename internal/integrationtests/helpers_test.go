package integration_tests

import (
	"context"
	"sync"

	"github.com/Sasha-Sorokin/alphaid-bot/internal/codeload"
	"github.com/Sasha-Sorokin/alphaid-bot/internal/keeper"
)

// stubEntryFile satisfies the entry-file existence check for compiled
// modules in throwaway test trees. Its content is never compiled.
const stubEntryFile = "package module\n"

// recorder collects lifecycle checkpoints from probe modules across
// goroutines.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// probeModule records every lifecycle call it receives.
type probeModule struct {
	rec *recorder
}

func (m *probeModule) Init(ctx context.Context, priv keeper.Private) error {
	m.rec.add("init:" + priv.Name())
	return nil
}

func (m *probeModule) Unload(ctx context.Context, priv keeper.Private, reason string) (bool, error) {
	m.rec.add("unload:" + priv.Name() + ":" + reason)
	return true, nil
}

// probeRegistrar registers a recording constructor under each given symbol.
type probeRegistrar struct {
	rec     *recorder
	symbols []string
}

func (p probeRegistrar) Register(static *codeload.Static) {
	for _, symbol := range p.symbols {
		static.Register(symbol, func() (keeper.Module, error) {
			p.rec.add("construct:" + symbol)
			return &probeModule{rec: p.rec}, nil
		})
	}
}
