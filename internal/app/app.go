package app

import (
	"io"
	"log/slog"

	"github.com/Sasha-Sorokin/alphaid-bot/internal/codeload"
	"github.com/Sasha-Sorokin/alphaid-bot/internal/discovery"
	"github.com/Sasha-Sorokin/alphaid-bot/internal/loader"
	"github.com/Sasha-Sorokin/alphaid-bot/internal/metrics"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	loader *loader.Loader
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and module
// loader.
func NewApp(outW io.Writer, config *Config, modules ...Registrar) *App {
	logger := newLogger(config.LogLevel, config.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	// Registering a duplicate constructor symbol panics: that is a
	// programmer error, not a runtime condition.
	static := codeload.NewStatic()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(static)
	}
	logger.Debug("All compiled-in modules registered.", "count", len(modules))

	ldr := loader.New(loader.Options{
		Discovery: discovery.Options{
			ModulesPath:  config.ModulesPath,
			PackagesPath: config.PackagesPath,
		},
		ConfigRoot: config.ConfigRoot,
		CodeLoader: codeload.NewMux(static, codeload.NewLua()),
	})
	metrics.Observe(ldr)
	logger.Debug("Module loader configured.",
		"modules_path", config.ModulesPath, "packages_path", config.PackagesPath)

	return &App{
		outW:   outW,
		logger: logger,
		config: config,
		loader: ldr,
	}
}

// Loader returns the application's module loader. This is primarily for testing.
func (a *App) Loader() *loader.Loader {
	return a.loader
}
