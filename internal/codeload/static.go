// Package codeload provides the keeper.CodeLoader implementations: a
// compiled-in constructor registry for Go modules, a sandboxed interpreter
// for Lua modules, and a mux routing between them by entry file extension.
package codeload

import (
	"fmt"
	"log/slog"

	"github.com/Sasha-Sorokin/alphaid-bot/internal/fsutil"
	"github.com/Sasha-Sorokin/alphaid-bot/internal/keeper"
)

// Static resolves constructors from a compiled-in registry keyed by entry
// symbol. Modules shipped with the binary register themselves here during
// startup wiring.
type Static struct {
	constructors map[string]keeper.Constructor
}

// NewStatic returns an empty registry.
func NewStatic() *Static {
	return &Static{constructors: make(map[string]keeper.Constructor)}
}

// Register binds symbol to ctor. Registering the same symbol twice is a
// programmer error.
func (s *Static) Register(symbol string, ctor keeper.Constructor) {
	if _, exists := s.constructors[symbol]; exists {
		panic(fmt.Sprintf("constructor with symbol '%s' already registered", symbol))
	}
	slog.Debug("Registering module constructor.", "symbol", symbol)
	s.constructors[symbol] = ctor
}

// Load verifies the entry file exists and returns the constructor registered
// under symbol.
func (s *Static) Load(entryPath, symbol string) (keeper.Constructor, error) {
	if !fsutil.FileExists(entryPath) {
		return nil, fmt.Errorf("entry file %s does not exist", entryPath)
	}
	ctor, ok := s.constructors[symbol]
	if !ok {
		return nil, fmt.Errorf("no constructor registered for symbol %q", symbol)
	}
	return ctor, nil
}
