// Package logs tails the daemon log file for `reelsmith show`. A negative
// offset means "the last N lines"; follow mode blocks briefly for new lines
// so the CLI can poll over IPC without busy-looping.
package logs
