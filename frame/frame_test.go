package frame

import (
	"context"
	"testing"
	"time"

	"github.com/gabrielgrant/framelink/channel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiveDelivery(t *testing.T, f *Local) Delivery {
	t.Helper()
	select {
	case d := <-f.Deliveries():
		return d
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
		return Delivery{}
	}
}

func TestLocalFrame(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers matching target origin", func(t *testing.T) {
		f := New("https://app.example")
		require.NoError(t, f.PostMessage(ctx, []byte("hi"), "https://app.example"))
		assert.Equal(t, []byte("hi"), receiveDelivery(t, f).Data)
	})

	t.Run("delivers wildcard target origin", func(t *testing.T) {
		f := New("https://app.example")
		require.NoError(t, f.PostMessage(ctx, []byte("hi"), "*"))
		assert.Equal(t, []byte("hi"), receiveDelivery(t, f).Data)
	})

	t.Run("drops mismatched target origin without error", func(t *testing.T) {
		f := New("https://app.example")
		require.NoError(t, f.PostMessage(ctx, []byte("hi"), "https://other.example"))

		select {
		case <-f.Deliveries():
			t.Fatal("delivery should have been dropped")
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("transfers ports", func(t *testing.T) {
		f := New("https://app.example")
		pair := channel.NewPair()
		require.NoError(t, f.PostMessage(ctx, []byte("take"), "*", pair.First))

		d := receiveDelivery(t, f)
		require.Len(t, d.Ports, 1)
		assert.Equal(t, pair.First.ID(), d.Ports[0].ID())
	})

	t.Run("post after close fails", func(t *testing.T) {
		f := New("https://app.example")
		f.Close()
		assert.ErrorIs(t, f.PostMessage(ctx, []byte("hi"), "*"), ErrFrameClosed)
	})

	t.Run("done fires on close", func(t *testing.T) {
		f := New("https://app.example")
		f.Close()
		select {
		case <-f.Done():
		default:
			t.Fatal("Done not closed")
		}
	})
}

func TestBus(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a listener", func(t *testing.T) {
		bus := NewBus()
		_, err := bus.Subscribe(ctx, nil)
		require.Error(t, err)
	})

	t.Run("delivers published events to all subscribers", func(t *testing.T) {
		bus := NewBus()

		got1 := make(chan Event, 1)
		got2 := make(chan Event, 1)
		sub1, err := bus.Subscribe(ctx, ListenerFunc(func(_ context.Context, evt Event) { got1 <- evt }))
		require.NoError(t, err)
		defer sub1.Unsubscribe()
		sub2, err := bus.Subscribe(ctx, ListenerFunc(func(_ context.Context, evt Event) { got2 <- evt }))
		require.NoError(t, err)
		defer sub2.Unsubscribe()

		sender := New("https://app.example")
		require.NoError(t, sender.Post(ctx, bus, []byte("payload")))

		for _, got := range []chan Event{got1, got2} {
			select {
			case evt := <-got:
				assert.Equal(t, []byte("payload"), evt.Data)
				assert.Equal(t, "https://app.example", evt.Origin)
				assert.Equal(t, sender.ID(), evt.Source.ID())
				assert.False(t, time.Time(evt.Timestamp).IsZero())
			case <-time.After(time.Second):
				t.Fatal("timed out waiting for event")
			}
		}
	})

	t.Run("preserves publish order per subscription", func(t *testing.T) {
		bus := NewBus()

		var order []string
		done := make(chan struct{})
		sub, err := bus.Subscribe(ctx, ListenerFunc(func(_ context.Context, evt Event) {
			order = append(order, string(evt.Data))
			if len(order) == 3 {
				close(done)
			}
		}))
		require.NoError(t, err)
		defer sub.Unsubscribe()

		sender := New("https://app.example")
		for _, payload := range []string{"a", "b", "c"} {
			require.NoError(t, sender.Post(ctx, bus, []byte(payload)))
		}

		select {
		case <-done:
			assert.Equal(t, []string{"a", "b", "c"}, order)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for events")
		}
	})

	t.Run("unsubscribe stops delivery", func(t *testing.T) {
		bus := NewBus()

		got := make(chan Event, 1)
		sub, err := bus.Subscribe(ctx, ListenerFunc(func(_ context.Context, evt Event) { got <- evt }))
		require.NoError(t, err)
		sub.Unsubscribe()

		sender := New("https://app.example")
		require.NoError(t, sender.Post(ctx, bus, []byte("payload")))

		select {
		case <-got:
			t.Fatal("unsubscribed listener received event")
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("unsubscribe is idempotent", func(t *testing.T) {
		bus := NewBus()
		sub, err := bus.Subscribe(ctx, ListenerFunc(func(context.Context, Event) {}))
		require.NoError(t, err)
		sub.Unsubscribe()
		sub.Unsubscribe()
	})
}
