// Package sysinfo periodically reports the bot process's memory and
// goroutine counts. With a gateway around the report goes to chat, otherwise
// it stays in the log.
package sysinfo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/Sasha-Sorokin/alphaid-bot/internal/codeload"
	"github.com/Sasha-Sorokin/alphaid-bot/internal/ctxlog"
	"github.com/Sasha-Sorokin/alphaid-bot/internal/keeper"
	"github.com/Sasha-Sorokin/alphaid-bot/modules/gateway"
)

// Module registers the sysinfo constructor with the compiled-in registry.
type Module struct{}

func (Module) Register(static *codeload.Static) {
	static.Register("NewSysinfo", NewSysinfo)
}

// Config is the sysinfo TOML configuration.
type Config struct {
	Interval    string `toml:"interval"`
	ReportEvent string `toml:"report_event"`
}

// Sysinfo is the module instance.
type Sysinfo struct {
	stop chan struct{}
	done chan struct{}
}

// NewSysinfo constructs the module.
func NewSysinfo() (keeper.Module, error) {
	return &Sysinfo{}, nil
}

// Init starts the reporting loop.
func (s *Sysinfo) Init(ctx context.Context, priv keeper.Private) error {
	if !priv.PendingInitialization() {
		return fmt.Errorf("init called outside a lifecycle transition")
	}

	logger := ctxlog.FromContext(ctx).With("module", priv.Name())

	cfg := Config{Interval: "1m", ReportEvent: "sysinfo"}
	if err := priv.LoadConfig(&cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading sysinfo config: %w", err)
	}
	interval, err := time.ParseDuration(cfg.Interval)
	if err != nil {
		return fmt.Errorf("invalid report interval %q: %w", cfg.Interval, err)
	}

	// The gateway is optional; without one the reports stay local.
	var gw *gateway.Gateway
	if dep, ok := priv.Dependency("gateway"); ok {
		gw, _ = dep.Instance().(*gateway.Gateway)
	} else {
		logger.Info("Running without a gateway, reports stay in the log.")
	}

	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.report(logger, gw, interval, cfg.ReportEvent)
	logger.Debug("Report loop started.", "interval", interval.String())
	return nil
}

func (s *Sysinfo) report(logger *slog.Logger, gw *gateway.Gateway, interval time.Duration, event string) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			payload := map[string]any{
				"goroutines": runtime.NumGoroutine(),
				"heap_alloc": m.HeapAlloc,
				"num_gc":     m.NumGC,
			}
			if gw != nil && gw.Connected() {
				if err := gw.Send(event, payload); err != nil {
					logger.Warn("Failed to send system report.", "error", err)
				}
				continue
			}
			logger.Info("System report.",
				"goroutines", payload["goroutines"],
				"heap_alloc", payload["heap_alloc"],
				"num_gc", payload["num_gc"])
		}
	}
}

// Unload stops the reporting loop and waits for it to drain.
func (s *Sysinfo) Unload(ctx context.Context, priv keeper.Private, reason string) (bool, error) {
	if !priv.PendingUnload() {
		return false, fmt.Errorf("unload called outside a lifecycle transition")
	}
	if s.stop != nil {
		close(s.stop)
		<-s.done
		s.stop = nil
	}
	return true, nil
}
