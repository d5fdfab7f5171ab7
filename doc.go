// Package framelink brokers communication channels between isolated execution
// contexts that can only reach each other through origin-checked message
// passing. One privileged host context runs a Broker that listens for channel
// requests on the shared bus, validates each request against a fixed policy of
// (requester, responder, origin) triples, and on success allocates a duplex
// endpoint pair, handing one endpoint to the requester and routing the other
// to the responder.
//
// Design decisions:
//   - Silent ignore: malformed messages, policy mismatches and duplicate
//     requests produce no reply at all, so a probing sender learns nothing
//     about why a request went unanswered.
//   - At most one grant: a given (sender, channel kind) pair is granted once
//     for the broker's lifetime; retransmissions are no-ops.
//   - Eager singleton: the sidebar-host channel is created at construction,
//     before any request is processed, because the host always exists and the
//     broker needs that channel as a relay transport.
//   - Relay over an owned endpoint: the broker has no addressable reference
//     to the sidebar context, so endpoints destined for it travel through the
//     sidebar-host channel the broker already holds a live endpoint of.
//   - Error isolation: each inbound event is processed inside a recovery
//     boundary that reports to an ErrorSink and keeps the listener alive.
//
// A minimal host looks like:
//
//	bus := frame.NewBus()
//	broker, err := framelink.New(bus, "https://sidebar.example",
//	    framelink.WithHook(myHook),
//	)
//	if err != nil { ... }
//	if err := broker.Start(ctx); err != nil { ... }
//	defer broker.Stop()
//
// Frames then publish wire.Request messages on the bus and receive a
// wire.Offer carrying their endpoint; when the responder is the host itself,
// the hook's OnFrameConnected fires with the host-side endpoint instead.
//
// Once a channel has been handed off the broker plays no further role in that
// pair's traffic.
package framelink
