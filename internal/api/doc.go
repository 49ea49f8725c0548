// Package api provides the REST client for the order service.
//
// The read path (GetOrder, ListOrders) retries transient failures with
// jittered exponential backoff; the write path (CreateOrder, AddItems) is
// fire-once, leaving retries to the caller.
package api
