// Package services carries the cross-cutting plumbing shared by the
// pipeline stages: the error taxonomy (sentinel categories plus Wrap, which
// attaches the stage, operation, and an operator hint to each failure) and
// the context tags that correlate log lines with queue items.
//
// Clients for individual external services live in subpackages (sdwebui,
// youtube); wrapping their failures through this package keeps failed queue
// items carrying uniform, actionable error messages.
package services
