// Package api defines wire-format types and converters for the IPC layer. It
// translates internal queue models into transport-friendly DTOs that the CLI
// and other consumers can render without coupling to internal types.
//
// # Key Types
//
// QueueItem: transport representation of a generation job with progress,
// staging artifacts, and publish results.
//
// WorkflowStatus: daemon running state, queue stats, stage health, and last item.
//
// DaemonStatus: aggregated runtime information including the schedule and
// external dependencies.
//
// # Converters
//
// FromQueueItem: queue.Item -> QueueItem with progress and timestamp
// formatting. FromStatusSummary: workflow.StatusSummary -> WorkflowStatus.
// StageHealthSlice: deterministic ordering of stage health maps.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Internal enums (queue.Status) are exposed as
// lowercase strings. Timestamps use RFC3339 with milliseconds. Publish
// metadata is passed through as json.RawMessage to avoid double-encoding.
package api
