// Package grants tracks which channel kinds have already been handed to each
// sender frame, so retransmitted requests are no-ops. Entries are tied to the
// sender's lifetime: a reaper drops a frame's record when the frame goes away,
// so the registry never grows without bound from frames that disappeared.
package grants

import (
	"github.com/alphadose/haxmap"
	"github.com/gabrielgrant/framelink/frame"
	"github.com/gabrielgrant/framelink/policy"
)

// Registry records grants per (sender frame, channel kind). A pair is granted
// at most once for the registry's lifetime while the frame lives.
type Registry struct {
	granted *haxmap.Map[string, *haxmap.Map[policy.ChannelKind, struct{}]]
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		granted: haxmap.New[string, *haxmap.Map[policy.ChannelKind, struct{}]](),
	}
}

// Granted reports whether kind was already granted to sender.
func (r *Registry) Granted(sender frame.Frame, kind policy.ChannelKind) bool {
	kinds, ok := r.granted.Get(sender.ID())
	if !ok {
		return false
	}
	_, ok = kinds.Get(kind)
	return ok
}

// Record marks kind as granted to sender. The first record for a frame arms a
// reaper that drops the frame's entry once the frame is gone.
func (r *Registry) Record(sender frame.Frame, kind policy.ChannelKind) {
	kinds, loaded := r.granted.GetOrCompute(sender.ID(), func() *haxmap.Map[policy.ChannelKind, struct{}] {
		return haxmap.New[policy.ChannelKind, struct{}]()
	})
	if !loaded {
		go r.reap(sender)
	}
	kinds.Set(kind, struct{}{})
}

func (r *Registry) reap(sender frame.Frame) {
	<-sender.Done()
	r.granted.Del(sender.ID())
}
