// Package policy defines which execution contexts may request communication
// channels with which responders, and from which origins. The table is fixed
// at construction time; matching is pure and ordered, so the first entry that
// accepts a request wins.
package policy

import "fmt"

// ContextKind identifies a category of execution context, not a specific
// instance. Only the four kinds below exist in this system.
type ContextKind string

const (
	Guest    ContextKind = "guest"
	Host     ContextKind = "host"
	Sidebar  ContextKind = "sidebar"
	Notebook ContextKind = "notebook"
)

// ChannelKind identifies a (requester, responder) communication pattern.
// It is always derived with KindFor, never free-form.
type ChannelKind string

const (
	GuestHost       ChannelKind = "guest-host"
	GuestSidebar    ChannelKind = "guest-sidebar"
	NotebookSidebar ChannelKind = "notebook-sidebar"
	SidebarHost     ChannelKind = "sidebar-host"
)

// KindFor derives the channel kind for a requester/responder pairing.
func KindFor(requester, responder ContextKind) ChannelKind {
	return ChannelKind(fmt.Sprintf("%s-%s", requester, responder))
}

// AnyOrigin accepts a request regardless of its sender origin.
const AnyOrigin = "*"

// Entry is one allowed (requester, responder, origin) triple.
type Entry struct {
	Requester     ContextKind
	Responder     ContextKind
	AllowedOrigin string
}

// Channel returns the channel kind this entry grants.
func (e Entry) Channel() ChannelKind {
	return KindFor(e.Requester, e.Responder)
}

// Matches reports whether a request with the given requester/responder kinds,
// observed from origin, is accepted by this entry. Origins compare by exact
// string equality, no normalization.
func (e Entry) Matches(requester, responder ContextKind, origin string) bool {
	if requester != e.Requester || responder != e.Responder {
		return false
	}
	return e.AllowedOrigin == AnyOrigin || e.AllowedOrigin == origin
}

// Match scans the table in order and returns the first entry accepting the
// request. Table order encodes precedence.
func Match(table []Entry, requester, responder ContextKind, origin string) (Entry, bool) {
	for _, e := range table {
		if e.Matches(requester, responder, origin) {
			return e, true
		}
	}
	return Entry{}, false
}

// TableFor builds the fixed policy table. Guest frames embed content the host
// cannot authenticate, so guest-initiated channels accept any origin; the
// notebook and sidebar are first-party surfaces and must present trustedOrigin
// exactly.
func TableFor(trustedOrigin string) []Entry {
	return []Entry{
		{Requester: Guest, Responder: Host, AllowedOrigin: AnyOrigin},
		{Requester: Guest, Responder: Sidebar, AllowedOrigin: AnyOrigin},
		{Requester: Notebook, Responder: Sidebar, AllowedOrigin: trustedOrigin},
		{Requester: Sidebar, Responder: Host, AllowedOrigin: trustedOrigin},
	}
}
