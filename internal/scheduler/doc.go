// Package scheduler turns wall-clock run times into queued generation jobs.
//
// The scheduler sleeps until the next configured time (interpreted in the
// configured timezone), enqueues a pending item with the scheduled trigger,
// and repeats. Manual runs share the same enqueue path so the workflow
// manager never needs to know how an item came to exist.
package scheduler
