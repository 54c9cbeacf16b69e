package app

import (
	"context"
	"fmt"

	"github.com/Sasha-Sorokin/alphaid-bot/internal/ctxlog"
	"github.com/Sasha-Sorokin/alphaid-bot/internal/watcher"
)

// Run drives the bot: it builds the module registry, constructs and
// initializes every record, then serves until ctx is cancelled. In oneshot
// mode it unloads and returns right after the load phases instead, with the
// first phase error if any module failed.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.StatusPort > 0 {
		srv := a.startStatusServer(a.config.StatusPort)
		defer a.closeStatusServer(srv)
	}

	if err := a.loader.RebuildRegistry(ctx); err != nil {
		return fmt.Errorf("failed to build module registry: %w", err)
	}

	phaseErr := a.settle(ctx)

	if a.config.Oneshot {
		a.logger.Info("🏁 Oneshot run complete, unloading.")
		if err := a.loader.UnloadAll(ctx, "oneshot"); err != nil {
			return err
		}
		return phaseErr
	}

	if phaseErr != nil {
		// Keep serving: healthy modules stay up while the operator fixes
		// the failing ones.
		a.logger.Error("🔥 Some modules failed to load.", "error", phaseErr)
	} else {
		a.logger.Info("🚀 All modules are up.")
	}

	if a.config.Watch {
		w, err := watcher.New(ctx, watcher.Options{
			Roots:    a.watchRoots(),
			OnReload: a.reload,
		})
		if err != nil {
			return fmt.Errorf("failed to start module watcher: %w", err)
		}
		go func() {
			if err := w.Run(ctx); err != nil {
				a.logger.Error("Module watcher stopped.", "error", err)
			}
		}()
		a.logger.Info("👀 Watching module trees for changes.")
	}

	<-ctx.Done()
	a.logger.Info("Shutting down, unloading modules.")

	// The run context is already cancelled; teardown gets a fresh one.
	shutdownCtx := ctxlog.WithLogger(context.Background(), a.logger)
	return a.loader.UnloadAll(shutdownCtx, "shutdown")
}

// settle runs the construct and init phases. A construct failure only takes
// out its own dependency subgraph, so the init phase still runs for the
// surviving records; the first error wins.
func (a *App) settle(ctx context.Context) error {
	constructErr := a.loader.ConstructAll(ctx)
	initErr := a.loader.InitAll(ctx)
	if constructErr != nil {
		return constructErr
	}
	return initErr
}

// reload is the watcher callback: tear down, rebuild the registry from disk,
// bring everything back up.
func (a *App) reload(ctx context.Context) error {
	if err := a.loader.UnloadAll(ctx, "reload"); err != nil {
		return err
	}
	if err := a.loader.RebuildRegistry(ctx); err != nil {
		return err
	}
	return a.settle(ctx)
}

func (a *App) watchRoots() []string {
	roots := []string{a.config.ModulesPath}
	if a.config.PackagesPath != "" {
		roots = append(roots, a.config.PackagesPath)
	}
	return roots
}
