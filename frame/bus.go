package frame

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/gabrielgrant/framelink/pkg/uuidx"
	"github.com/go-openapi/strfmt"
)

const defaultSlowListenerTimeout = 100 * time.Millisecond

// Event is one inbound cross-context message as observed by the platform:
// the raw payload, the authenticated sender origin, and the sender frame.
// Source is nil when the platform could not attribute the event to a
// window-like sender; consumers treat such events as spoofed.
type Event struct {
	Source    Frame
	Origin    string
	Data      []byte
	Timestamp strfmt.DateTime
}

// Listener consumes bus events. Each subscription sees events strictly one at
// a time, in publish order.
type Listener interface {
	OnMessage(context.Context, Event)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(context.Context, Event)

func (f ListenerFunc) OnMessage(ctx context.Context, evt Event) {
	f(ctx, evt)
}

// Bus is the shared inbound message stream frames publish on.
type Bus interface {
	Publish(context.Context, Event) error
	Subscribe(context.Context, Listener) (Subscription, error)
}

// Subscription is a live bus registration.
type Subscription interface {
	ID() string
	Unsubscribe()
}

type localBus struct {
	subscriptions       *haxmap.Map[string, *subscription]
	slowListenerTimeout time.Duration
}

// NewBus returns an in-process bus.
func NewBus() Bus {
	return &localBus{
		subscriptions:       haxmap.New[string, *subscription](),
		slowListenerTimeout: defaultSlowListenerTimeout,
	}
}

func (b *localBus) Publish(ctx context.Context, event Event) error {
	b.subscriptions.ForEach(func(id string, sub *subscription) bool {
		if sub == nil {
			return true
		}

		// Check if subscription is still active
		select {
		case <-ctx.Done():
			return false
		case <-sub.ctx.Done():
			sub.Unsubscribe()
			return true
		default:
		}

		// Try to send the event
		select {
		case <-ctx.Done():
			return false
		case <-sub.ctx.Done():
			sub.Unsubscribe()
		case sub.channel <- event:
			// Successfully sent
		case <-time.After(b.slowListenerTimeout):
			// Channel is full after timeout, unsubscribe
			sub.Unsubscribe()
		}
		return true
	})
	return nil
}

func (b *localBus) Subscribe(ctx context.Context, listener Listener) (Subscription, error) {
	if listener == nil {
		return nil, fmt.Errorf("listener is required")
	}
	sub := b.newSubscription(ctx, listener)
	return sub, nil
}

func (b *localBus) newSubscription(ctx context.Context, listener Listener) *subscription {
	id := uuidx.NewString()
	sub := &subscription{
		id:        id,
		ctx:       ctx,
		channel:   make(chan Event, inboxSize),
		closeOnce: sync.Once{},
		onClose:   func() { b.subscriptions.Del(id) },
		listener:  listener,
	}
	b.subscriptions.Set(id, sub)
	go sub.forwardToListener()
	return sub
}

type subscription struct {
	id        string
	ctx       context.Context
	channel   chan Event
	closeOnce sync.Once
	onClose   func()
	listener  Listener
}

func (s *subscription) ID() string {
	return s.id
}

func (s *subscription) Unsubscribe() {
	s.closeOnce.Do(func() {
		if s.onClose != nil {
			s.onClose()
		}
		close(s.channel)
	})
}

// forwardToListener drains the subscription channel on a single goroutine, so
// the listener runs to completion for each event before seeing the next.
func (s *subscription) forwardToListener() {
	for {
		select {
		case event, ok := <-s.channel:
			if !ok {
				return
			}
			s.listener.OnMessage(s.ctx, event)
		case <-s.ctx.Done():
			return
		}
	}
}
