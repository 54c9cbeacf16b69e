package codeload

import (
	"context"
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"

	"github.com/Sasha-Sorokin/alphaid-bot/internal/keeper"
)

// dangerousGlobals are the base-library entry points removed from every
// script state. Scripts get computation, not the host.
var dangerousGlobals = []string{
	"dofile",
	"loadfile",
	"load",
	"loadstring",
	"rawequal",
	"rawget",
	"rawset",
	"getmetatable",
	"setmetatable",
	"collectgarbage",
}

// Lua loads module entry code written in Lua. The entry file must define a
// global table named by the entry symbol, with a mandatory unload(reason)
// function and an optional init(name) function:
//
//	NewModule = {
//	  init   = function(name) ... end,
//	  unload = function(reason) ... return true end,
//	}
//
// unload reports release by returning a boolean; no return value counts as
// released. Each construction runs the script in a fresh sandboxed state.
type Lua struct{}

// NewLua returns the Lua code loader.
func NewLua() *Lua { return &Lua{} }

// Load reads the script and validates it in a throwaway state, so a broken
// script is rejected at load time rather than at first construction. The
// returned constructor runs the script again in its own state.
func (l *Lua) Load(entryPath, symbol string) (keeper.Constructor, error) {
	source, err := os.ReadFile(entryPath)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}

	state, _, err := openSandbox(source, entryPath, symbol)
	if err != nil {
		return nil, err
	}
	state.Close()

	return func() (keeper.Module, error) {
		state, table, err := openSandbox(source, entryPath, symbol)
		if err != nil {
			return nil, err
		}
		return &luaModule{state: state, table: table}, nil
	}, nil
}

// openSandbox builds a restricted Lua state, runs the script, and resolves
// the module table named by symbol.
func openSandbox(source []byte, path, symbol string) (*lua.LState, *lua.LTable, error) {
	state := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(state)
	lua.OpenTable(state)
	lua.OpenString(state)
	lua.OpenMath(state)
	for _, name := range dangerousGlobals {
		state.SetGlobal(name, lua.LNil)
	}

	if err := state.DoString(string(source)); err != nil {
		state.Close()
		return nil, nil, fmt.Errorf("running script %s: %w", path, err)
	}

	table, ok := state.GetGlobal(symbol).(*lua.LTable)
	if !ok {
		state.Close()
		return nil, nil, fmt.Errorf("script %s: global %q is not a table", path, symbol)
	}
	if _, ok := table.RawGetString("unload").(*lua.LFunction); !ok {
		state.Close()
		return nil, nil, fmt.Errorf("script %s: table %q does not define an unload function", path, symbol)
	}
	return state, table, nil
}

// luaModule adapts a script's module table to the runtime contract. The
// driver serializes lifecycle hooks, so the single Lua state is never
// entered concurrently.
type luaModule struct {
	state *lua.LState
	table *lua.LTable
}

func (m *luaModule) Init(ctx context.Context, priv keeper.Private) error {
	value := m.table.RawGetString("init")
	if value == lua.LNil {
		return nil
	}
	fn, ok := value.(*lua.LFunction)
	if !ok {
		return fmt.Errorf("init is not a function")
	}

	m.state.SetContext(ctx)
	m.state.Push(fn)
	m.state.Push(lua.LString(priv.Name()))
	if err := m.state.PCall(1, 0, nil); err != nil {
		return fmt.Errorf("init function: %w", err)
	}
	return nil
}

func (m *luaModule) Unload(ctx context.Context, priv keeper.Private, reason string) (bool, error) {
	fn := m.table.RawGetString("unload").(*lua.LFunction)

	m.state.SetContext(ctx)
	m.state.Push(fn)
	m.state.Push(lua.LString(reason))
	if err := m.state.PCall(1, 1, nil); err != nil {
		return false, fmt.Errorf("unload function: %w", err)
	}
	ret := m.state.Get(-1)
	m.state.Pop(1)

	released := true
	if b, ok := ret.(lua.LBool); ok {
		released = bool(b)
	}
	if released {
		m.state.Close()
	}
	return released, nil
}
