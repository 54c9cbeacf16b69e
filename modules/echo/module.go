// Package echo replies to every chat message with its own payload.
package echo

import (
	"context"
	"fmt"

	"github.com/Sasha-Sorokin/alphaid-bot/internal/codeload"
	"github.com/Sasha-Sorokin/alphaid-bot/internal/ctxlog"
	"github.com/Sasha-Sorokin/alphaid-bot/internal/keeper"
	"github.com/Sasha-Sorokin/alphaid-bot/modules/gateway"
)

// echoEvent is the chat event echoed back to the sender.
const echoEvent = "message"

// Module registers the echo constructor with the compiled-in registry.
type Module struct{}

func (Module) Register(static *codeload.Static) {
	static.Register("NewEcho", NewEcho)
}

// Echo is the module instance.
type Echo struct{}

// NewEcho constructs the module.
func NewEcho() (keeper.Module, error) {
	return &Echo{}, nil
}

// Init attaches the echo handler once the gateway finishes initializing.
func (e *Echo) Init(ctx context.Context, priv keeper.Private) error {
	if !priv.BaseCheck(e) {
		return fmt.Errorf("private interface does not belong to this module")
	}

	logger := ctxlog.FromContext(ctx).With("module", priv.Name())

	dep, ok := priv.Dependency("gateway")
	if !ok {
		return fmt.Errorf("gateway dependency is not linked")
	}

	dep.OnInitialized(func(pub keeper.Public) {
		gw, ok := pub.Instance().(*gateway.Gateway)
		if !ok {
			logger.Error("Gateway instance has an unexpected type.")
			return
		}
		gw.Handle(echoEvent, func(data any) {
			if err := gw.Send(echoEvent, data); err != nil {
				logger.Warn("Failed to send echo reply.", "error", err)
			}
		})
		logger.Debug("Echo handler attached.", "event", echoEvent)
	})
	return nil
}

// Unload detaches the echo handler. The gateway is still loaded here, its
// dependents unload first.
func (e *Echo) Unload(ctx context.Context, priv keeper.Private, reason string) (bool, error) {
	if !priv.PendingUnload() {
		return false, fmt.Errorf("unload called outside a lifecycle transition")
	}
	if dep, ok := priv.Dependency("gateway"); ok {
		if gw, ok := dep.Instance().(*gateway.Gateway); ok {
			gw.RemoveHandler(echoEvent)
		}
	}
	return true, nil
}
