// Package channel provides duplex endpoint pairs. A message sent on one
// endpoint is delivered on its linked peer, and may carry further endpoints
// whose ownership transfers with the message. Deliveries buffer until the
// receiving side drains them, so an endpoint can be written to before its
// eventual owner has claimed it.
package channel

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gabrielgrant/framelink/pkg/uuidx"
)

const (
	// defaultSendTimeout bounds how long a send waits on a full peer inbox
	// before giving up.
	defaultSendTimeout = 100 * time.Millisecond

	// inboxSize is the per-endpoint delivery buffer.
	inboxSize = 50
)

var (
	// ErrClosed is returned by Send when either side of the pair is closed.
	ErrClosed = errors.New("channel: endpoint closed")

	// ErrBacklog is returned by Send when the peer's inbox stays full for
	// longer than the send timeout.
	ErrBacklog = errors.New("channel: peer inbox full")
)

// Message is one delivery on an endpoint. Ports carries endpoints whose
// ownership transfers to the receiver.
type Message struct {
	Data  []byte
	Ports []*Endpoint
}

// Endpoint is one half of a duplex pair.
type Endpoint struct {
	id        string
	peer      *Endpoint
	inbox     chan Message
	done      chan struct{}
	closeOnce sync.Once
}

// Pair links two endpoints. Ownership of each half is transferred
// independently; the pair value itself is only a construction convenience.
type Pair struct {
	First  *Endpoint
	Second *Endpoint
}

// NewPair creates a linked endpoint pair.
func NewPair() Pair {
	first := newEndpoint()
	second := newEndpoint()
	first.peer = second
	second.peer = first
	return Pair{First: first, Second: second}
}

func newEndpoint() *Endpoint {
	return &Endpoint{
		id:    uuidx.NewString(),
		inbox: make(chan Message, inboxSize),
		done:  make(chan struct{}),
	}
}

// ID returns the endpoint's unique identity.
func (e *Endpoint) ID() string {
	return e.id
}

// Send delivers msg to the peer endpoint's inbox. It returns ErrClosed when
// either side is closed and ErrBacklog when the peer does not drain its inbox
// within the send timeout.
func (e *Endpoint) Send(ctx context.Context, msg Message) error {
	select {
	case <-e.done:
		return ErrClosed
	case <-e.peer.done:
		return ErrClosed
	default:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrClosed
	case <-e.peer.done:
		return ErrClosed
	case e.peer.inbox <- msg:
		return nil
	case <-time.After(defaultSendTimeout):
		return ErrBacklog
	}
}

// Receive exposes the endpoint's delivery stream. Consumers should select on
// it together with Done.
func (e *Endpoint) Receive() <-chan Message {
	return e.inbox
}

// Done is closed when this endpoint is closed.
func (e *Endpoint) Done() <-chan struct{} {
	return e.done
}

// Close tears down this endpoint. The peer's sends fail with ErrClosed from
// then on; deliveries already buffered on the peer remain readable.
func (e *Endpoint) Close() {
	e.closeOnce.Do(func() {
		close(e.done)
	})
}
