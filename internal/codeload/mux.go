package codeload

import (
	"path/filepath"
	"strings"

	"github.com/Sasha-Sorokin/alphaid-bot/internal/keeper"
)

// Mux routes entry files to the loader matching their extension: .lua files
// go to the script loader, everything else to the compiled registry.
type Mux struct {
	static *Static
	lua    *Lua
}

// NewMux combines the two loaders.
func NewMux(static *Static, lua *Lua) *Mux {
	return &Mux{static: static, lua: lua}
}

func (m *Mux) Load(entryPath, symbol string) (keeper.Constructor, error) {
	if strings.EqualFold(filepath.Ext(entryPath), ".lua") {
		return m.lua.Load(entryPath, symbol)
	}
	return m.static.Load(entryPath, symbol)
}
