// Package gateway maintains the bot's chat server connection. Other modules
// send and receive chat events through it; it is registered single-instance
// so every dependent shares the one connection.
package gateway

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"sync"
	"sync/atomic"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/Sasha-Sorokin/alphaid-bot/internal/codeload"
	"github.com/Sasha-Sorokin/alphaid-bot/internal/ctxlog"
	"github.com/Sasha-Sorokin/alphaid-bot/internal/keeper"
)

// Module registers the gateway constructor with the compiled-in registry.
type Module struct{}

func (Module) Register(static *codeload.Static) {
	static.Register("NewGateway", NewGateway)
}

// Config is the gateway's TOML configuration. Without a configuration file
// the gateway stays offline; dependents can still register handlers.
type Config struct {
	URL                string `toml:"url"`
	Namespace          string `toml:"namespace"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
}

// Handler receives the payload of one chat event.
type Handler func(data any)

// Gateway is the module instance.
type Gateway struct {
	priv   keeper.Private
	logger *slog.Logger

	mu       sync.Mutex
	handlers map[string]Handler
	wired    map[string]bool

	manager   *socket.Manager
	io        *socket.Socket
	connected atomic.Bool
}

// NewGateway constructs an unconnected gateway.
func NewGateway() (keeper.Module, error) {
	return &Gateway{
		handlers: make(map[string]Handler),
		wired:    make(map[string]bool),
	}, nil
}

func (g *Gateway) SupplyPrivateInterface(priv keeper.Private) { g.priv = priv }

// Init reads the configuration and starts connecting. The connection is
// asynchronous; dependents watch Connected or register handlers up front.
func (g *Gateway) Init(ctx context.Context, priv keeper.Private) error {
	if !priv.BaseCheck(g) {
		return fmt.Errorf("private interface does not belong to this module")
	}
	if !priv.PendingInitialization() {
		return fmt.Errorf("init called outside a lifecycle transition")
	}

	logger := ctxlog.FromContext(ctx).With("module", priv.Name())
	g.logger = logger

	var cfg Config
	if err := priv.LoadConfig(&cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("Gateway has no configuration, staying offline.", "config_path", priv.ConfigPath())
			return nil
		}
		return fmt.Errorf("loading gateway config: %w", err)
	}
	if cfg.URL == "" {
		logger.Info("Gateway configuration has no url, staying offline.")
		return nil
	}

	return g.connect(cfg)
}

func (g *Gateway) connect(cfg Config) error {
	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return fmt.Errorf("failed to parse gateway url: %w", err)
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	opts.SetTransports(types.NewSet(transports.WebSocket))
	if cfg.InsecureSkipVerify {
		g.logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "/"
	}

	g.mu.Lock()
	g.manager = socket.NewManager(baseURL, opts)
	g.io = g.manager.Socket(namespace, opts)

	g.io.On(types.EventName("connect"), func(...any) {
		g.connected.Store(true)
		g.logger.Info("Connected to chat server.", "namespace", namespace, "sid", g.io.Id())
	})
	g.io.On(types.EventName("disconnect"), func(...any) {
		g.connected.Store(false)
		g.logger.Warn("Disconnected from chat server.")
	})
	g.io.On(types.EventName("connect_error"), func(errs ...any) {
		g.logger.Warn("Chat server connection error.", "error", fmt.Sprint(errs...))
	})

	for event := range g.handlers {
		g.wire(event)
	}
	g.mu.Unlock()

	g.logger.Info("Connecting to chat server.", "url", baseURL, "namespace", namespace)
	g.io.Connect()
	return nil
}

// Handle registers fn for a chat event, replacing any previous handler for
// it. Handlers may be registered before the connection exists.
func (g *Gateway) Handle(event string, fn Handler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handlers[event] = fn
	if g.io != nil {
		g.wire(event)
	}
}

// RemoveHandler drops the handler for event. Further deliveries of the event
// are ignored.
func (g *Gateway) RemoveHandler(event string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.handlers, event)
}

// wire subscribes the socket to event once; delivery always reads the
// current handler map, so handlers can be swapped or removed without
// touching the subscription. Callers hold g.mu.
func (g *Gateway) wire(event string) {
	if g.wired[event] {
		return
	}
	g.wired[event] = true
	g.io.On(types.EventName(event), func(args ...any) {
		var payload any
		if len(args) > 0 {
			payload = args[0]
		}
		g.Deliver(event, payload)
	})
}

// Deliver hands an inbound chat event to the handler registered for it.
// Events without a handler are dropped.
func (g *Gateway) Deliver(event string, payload any) {
	g.mu.Lock()
	fn := g.handlers[event]
	g.mu.Unlock()
	if fn != nil {
		fn(payload)
	}
}

// Send emits a chat event. It fails while the gateway is offline.
func (g *Gateway) Send(event string, data any) error {
	g.mu.Lock()
	io := g.io
	g.mu.Unlock()
	if io == nil || !g.connected.Load() {
		return fmt.Errorf("gateway is not connected")
	}
	io.Emit(event, data)
	return nil
}

// Connected reports whether the chat server connection is up.
func (g *Gateway) Connected() bool { return g.connected.Load() }

// Unload disconnects from the chat server and always releases.
func (g *Gateway) Unload(ctx context.Context, priv keeper.Private, reason string) (bool, error) {
	if !priv.PendingUnload() {
		return false, fmt.Errorf("unload called outside a lifecycle transition")
	}

	g.mu.Lock()
	io := g.io
	g.io = nil
	g.manager = nil
	g.wired = make(map[string]bool)
	g.mu.Unlock()

	if io != nil {
		ctxlog.FromContext(ctx).Debug("Disconnecting from chat server.", "reason", reason)
		io.Disconnect()
	}
	g.connected.Store(false)
	return true, nil
}
