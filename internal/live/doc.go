// Package live implements the client-side connection manager for order
// updates.
//
// A Watcher prefers a push transport (SSE or WebSocket). The first open
// doubles as a capability probe: a timely success marks push as supported,
// a 501 answer marks it unsupported for the rest of the Watcher's life,
// and a timeout or transport error is retried with exponential backoff
// until the retry budget is spent. Whenever push is off the table the
// Watcher settles into polling the REST API for the active order, which
// counts as a live connection from the consumer's point of view.
//
// All callbacks fire from a single goroutine, in arrival order, and never
// after Stop returns.
package live
