// Package logging builds the slog loggers used throughout Reelsmith: a
// human-readable console handler for interactive runs, a JSON handler for
// shipped logs, and fan-out to stdout plus the daemon log file.
//
// Stage code should derive its logger through WithContext so every line
// carries the queue item, stage, and correlation ID the workflow manager
// stamped on the context. NewNop backs nil-logger call sites in tests and
// optional wiring.
package logging
