// Package ipc is the control channel between the reelsmith CLI and the
// daemon: JSON-RPC over a Unix socket in the log directory.
//
// The server wraps the daemon's queue, schedule, log, and notification
// surfaces behind stable request/response DTOs; the client adds per-call
// timeouts so commands fail fast when the daemon is offline. New endpoints
// should extend the existing DTO set rather than exposing queue models
// directly, so CLI and daemon can evolve independently.
package ipc
