package app

import (
	"github.com/Sasha-Sorokin/alphaid-bot/internal/codeload"
	"github.com/Sasha-Sorokin/alphaid-bot/modules/echo"
	"github.com/Sasha-Sorokin/alphaid-bot/modules/gateway"
	"github.com/Sasha-Sorokin/alphaid-bot/modules/sysinfo"
)

// Registrar is implemented by compiled-in modules to add their constructors
// to the static code registry.
type Registrar interface {
	Register(static *codeload.Static)
}

// coreModules is the definitive list of all modules that are compiled into
// the alphaid binary.
var coreModules = []Registrar{
	gateway.Module{},
	echo.Module{},
	sysinfo.Module{},
}
