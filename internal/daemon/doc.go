// Package daemon coordinates the long-running Reelsmith process and system
// integration points.
//
// It wires configuration, queue storage, the workflow manager, and the
// scheduler into a single lifecycle with flock-based locking to prevent
// multiple instances. The daemon exposes queue maintenance helpers, triggers
// on-demand generation runs, and emits dependency health summaries.
//
// Keep orchestration logic here: individual workflow stages should live in
// their respective packages while the daemon focuses on startup, shutdown,
// and high level coordination.
package daemon
