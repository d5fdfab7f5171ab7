package framelink

import (
	"context"
	"log/slog"

	"github.com/gabrielgrant/framelink/channel"
	"github.com/gabrielgrant/framelink/policy"
)

// Hook receives the broker's local notifications. OnFrameConnected fires
// synchronously when a granted channel's responder is the host itself: the
// broker does not transfer that endpoint anywhere, so in-process consumers
// claim it here.
type Hook interface {
	OnFrameConnected(ctx context.Context, requester policy.ContextKind, port *channel.Endpoint)
}

// HookFunc adapts a function to the Hook interface.
type HookFunc func(context.Context, policy.ContextKind, *channel.Endpoint)

func (f HookFunc) OnFrameConnected(ctx context.Context, requester policy.ContextKind, port *channel.Endpoint) {
	f(ctx, requester, port)
}

// LoggingHook returns a hook that logs connected frames and otherwise leaves
// the endpoint unclaimed. It is the default when no hook is configured.
func LoggingHook() Hook {
	return HookFunc(func(ctx context.Context, requester policy.ContextKind, port *channel.Endpoint) {
		slog.InfoContext(ctx, "frame connected",
			slog.String("requester", string(requester)),
			slog.String("port", port.ID()),
		)
	})
}
