// Package correlator turns a fire-and-forget OSC transport into a
// request/reply client.
//
// A Client owns a transport, a dispatch table, a pending-reply store and
// one listener goroutine. Every inbound message matching the reply pattern
// (by default "/live/*") is written to the store, last write wins, and is
// handed to the oldest caller waiting on that address.
//
// Callers wait on a per-request token rather than on the shared slot: each
// SendAndWait registers a one-shot channel under a fresh uuid, queued
// behind any other waiters for the same reply address. The listener
// resolves waiters in arrival order, so two concurrent requests for the
// same address each receive their own reply instead of racing for one
// slot. A request is bounded by its timeout, its context, and the
// lifetime of the Client, and "no answer" is reported as (nil, false)
// rather than as an error.
//
// The peer has no notion of request IDs. A reply that arrives after its
// waiter timed out is still stored, and will be handed to the next waiter
// on that address if one is queued at that moment.
package correlator
