package framelink

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fogfish/opts"
	"github.com/gabrielgrant/framelink/channel"
	"github.com/gabrielgrant/framelink/frame"
	"github.com/gabrielgrant/framelink/internal/grants"
	"github.com/gabrielgrant/framelink/pkg/slogx"
	"github.com/gabrielgrant/framelink/policy"
	"github.com/gabrielgrant/framelink/wire"
	json "github.com/goccy/go-json"
)

// Broker validates channel requests from frames and hands out endpoint pairs.
// One broker instance exists per host-context lifetime; it exclusively owns
// the dedup registry and the sidebar-host singleton channel.
type Broker struct {
	bus         frame.Bus
	table       []policy.Entry
	granted     *grants.Registry
	sidebarHost channel.Pair
	hook        Hook
	sink        ErrorSink

	mu  sync.Mutex
	sub frame.Subscription
}

var (
	// WithHook configures the receiver of OnFrameConnected notifications.
	WithHook = opts.ForName[Broker, Hook]("hook")

	// WithErrorSink configures where internal handler failures are reported.
	WithErrorSink = opts.ForName[Broker, ErrorSink]("sink")
)

// New creates a broker listening on bus. trustedOrigin is the origin required
// of the notebook and sidebar contexts; it is the one mandatory configuration
// input. The sidebar-host singleton channel is created here, before any
// request can be processed.
func New(bus frame.Bus, trustedOrigin string, options ...opts.Option[Broker]) (*Broker, error) {
	if bus == nil {
		panic("bus cannot be nil")
	}
	if trustedOrigin == "" {
		return nil, fmt.Errorf("trusted origin is required")
	}

	b := &Broker{
		bus:         bus,
		table:       policy.TableFor(trustedOrigin),
		granted:     grants.New(),
		sidebarHost: channel.NewPair(),
		hook:        LoggingHook(),
		sink:        LogSink(),
	}
	if err := opts.Apply(b, options); err != nil {
		return nil, err
	}
	return b, nil
}

// SidebarPort returns the host-side endpoint of the sidebar-host singleton.
// It is live from construction, so host application logic can talk to the
// sidebar without waiting for the sidebar's request to arrive.
func (b *Broker) SidebarPort() *channel.Endpoint {
	return b.sidebarHost.Second
}

// Start subscribes the request handler to the bus. It returns an error when
// the broker is already started.
func (b *Broker) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sub != nil {
		return fmt.Errorf("broker already started")
	}
	sub, err := b.bus.Subscribe(ctx, frame.ListenerFunc(b.handle))
	if err != nil {
		return fmt.Errorf("failed to subscribe to bus: %w", err)
	}
	b.sub = sub
	return nil
}

// Stop unsubscribes from the bus. No further requests are processed; channels
// already handed off remain usable, they are independent of the broker.
func (b *Broker) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sub != nil {
		b.sub.Unsubscribe()
		b.sub = nil
	}
}

// handle processes one inbound bus event. Events arrive strictly one at a
// time per subscription, so the dedup check-then-record below needs no
// locking. Anything that fails policy is ignored without a reply: a probing
// sender must not learn why its request went unanswered.
func (b *Broker) handle(ctx context.Context, evt frame.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.sink.Capture(fmt.Errorf("panic: %v", r), "handle channel request")
		}
	}()

	// Events without an attributable window-like sender are spoofed.
	if evt.Source == nil {
		return
	}

	msg, err := wire.Decode(evt.Data)
	if err != nil {
		// Expected background noise on a shared bus.
		return
	}
	req, ok := msg.(wire.Request)
	if !ok {
		return
	}

	entry, ok := policy.Match(b.table, req.Requester, req.Responder, evt.Origin)
	if !ok {
		return
	}

	kind := entry.Channel()
	if b.granted.Granted(evt.Source, kind) {
		return
	}
	b.granted.Record(evt.Source, kind)

	pair := b.obtain(kind)
	offer := wire.Offer{Requester: entry.Requester, Responder: entry.Responder}
	payload, err := json.Marshal(offer)
	if err != nil {
		b.sink.Capture(err, "encode channel offer")
		return
	}

	// The requester's endpoint goes straight back to the sender, scoped to
	// the entry's origin. The broker never touches it again.
	if err := evt.Source.PostMessage(ctx, payload, entry.AllowedOrigin, pair.First); err != nil {
		b.sink.Capture(err, "send channel offer to requester")
		return
	}

	switch entry.Responder {
	case policy.Sidebar:
		// The broker cannot address the sidebar's context directly; it only
		// holds a live endpoint of the sidebar-host channel, so the
		// responder endpoint travels through that.
		relay := channel.Message{Data: payload, Ports: []*channel.Endpoint{pair.Second}}
		if err := b.sidebarHost.Second.Send(ctx, relay); err != nil {
			b.sink.Capture(err, "relay responder endpoint to sidebar")
			return
		}
	case policy.Host:
		b.hook.OnFrameConnected(ctx, entry.Requester, pair.Second)
	}

	slog.DebugContext(ctx, "channel granted",
		slog.String("channel", string(kind)),
		slog.String("frame", evt.Source.ID()),
		slogx.Stringer("received_at", evt.Timestamp),
	)
}

// obtain returns the endpoint pair for kind: the pre-created singleton for
// sidebar-host, a fresh pair for everything else.
func (b *Broker) obtain(kind policy.ChannelKind) channel.Pair {
	if kind == policy.SidebarHost {
		return b.sidebarHost
	}
	return channel.NewPair()
}
