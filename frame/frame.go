// Package frame models isolated execution contexts and the shared message bus
// they reach each other through. A frame cannot be called into directly; the
// only ways in are PostMessage deliveries addressed to it and endpoints it has
// been handed over an established channel.
package frame

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gabrielgrant/framelink/channel"
	"github.com/gabrielgrant/framelink/pkg/uuidx"
	"github.com/go-openapi/strfmt"
)

const (
	inboxSize          = 50
	defaultPostTimeout = 100 * time.Millisecond
)

var (
	// ErrFrameClosed is returned by PostMessage once the target frame is gone.
	ErrFrameClosed = errors.New("frame: closed")

	// ErrInboxFull is returned by PostMessage when the frame does not drain
	// its inbox within the post timeout.
	ErrInboxFull = errors.New("frame: inbox full")
)

// Frame is a window-like execution context the broker can address. Done
// closes when the frame goes away, letting observers drop per-frame state
// without the frame having to announce its own teardown.
type Frame interface {
	ID() string
	PostMessage(ctx context.Context, data []byte, targetOrigin string, ports ...*channel.Endpoint) error
	Done() <-chan struct{}
}

// Delivery is one message received by a frame, with any endpoints whose
// ownership transferred along with it.
type Delivery struct {
	Data  []byte
	Ports []*channel.Endpoint
}

// Local is an in-process frame with a buffered inbox. It stands in for a real
// isolated context in tests, examples and embedding hosts.
type Local struct {
	id        string
	origin    string
	inbox     chan Delivery
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a frame whose messages carry the given origin.
func New(origin string) *Local {
	return &Local{
		id:     uuidx.NewString(),
		origin: origin,
		inbox:  make(chan Delivery, inboxSize),
		done:   make(chan struct{}),
	}
}

// ID returns the frame's unique identity.
func (f *Local) ID() string {
	return f.id
}

// Origin returns the origin this frame's outbound messages carry.
func (f *Local) Origin() string {
	return f.origin
}

// PostMessage delivers data and transferred ports to the frame's inbox. A
// delivery whose targetOrigin is neither "*" nor the frame's own origin is
// dropped without error, mirroring the underlying platform.
func (f *Local) PostMessage(ctx context.Context, data []byte, targetOrigin string, ports ...*channel.Endpoint) error {
	select {
	case <-f.done:
		return ErrFrameClosed
	default:
	}

	if targetOrigin != "*" && targetOrigin != f.origin {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-f.done:
		return ErrFrameClosed
	case f.inbox <- Delivery{Data: data, Ports: ports}:
		return nil
	case <-time.After(defaultPostTimeout):
		return ErrInboxFull
	}
}

// Deliveries exposes the frame's inbox.
func (f *Local) Deliveries() <-chan Delivery {
	return f.inbox
}

// Done is closed when the frame is closed.
func (f *Local) Done() <-chan struct{} {
	return f.done
}

// Close tears the frame down. Further PostMessage calls fail and Done fires.
func (f *Local) Close() {
	f.closeOnce.Do(func() {
		close(f.done)
	})
}

// Post publishes data on the bus attributed to this frame, stamping the
// frame's origin and the send time.
func (f *Local) Post(ctx context.Context, bus Bus, data []byte) error {
	return bus.Publish(ctx, Event{
		Source:    f,
		Origin:    f.origin,
		Data:      data,
		Timestamp: strfmt.DateTime(time.Now()),
	})
}
