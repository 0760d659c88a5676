// Package timeouts defines shared timeout constants used across processes.
// Centralizing these values prevents drift between call sites and makes the
// durations discoverable.
package timeouts

import "time"

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// NotifyPublish caps the wait for one notification hand-off to the broker.
// Hand-off is best-effort, so the bound keeps a slow broker from stalling
// the request that issued the invitation.
const NotifyPublish = 2 * time.Second

// StoreSweep caps one sweeper pass over due invitations.
const StoreSweep = 30 * time.Second
