// Package server exposes the order API over HTTP: session-scoped order
// CRUD, an admin update endpoint, and the live update stream as SSE and
// WebSocket endpoints. When push delivery is disabled both stream
// endpoints answer 501 so clients drop to polling.
package server
