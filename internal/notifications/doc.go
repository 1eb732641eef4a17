// Package notifications pushes pipeline milestones to the operator's phone.
//
// The ntfy-backed Service formats each event type (run started, video ready,
// published, pipeline error) into a short titled message and POSTs it to the
// configured topic. When no topic is set, or an event is muted by its
// per-event toggle, Publish is a no-op, so callers never need to check
// whether notifications are enabled.
package notifications
