// Package workflow advances queue items through the configured processing
// stages.
//
// The Manager polls the queue, reclaims stale work via heartbeats, and feeds
// items into registered stage handlers (script generator, synthesizer,
// composer, publisher) while capturing progress and failure metadata. It also
// aggregates queue stats, calls stage health checks, and emits error
// notifications when a stage fails.
//
// The pipeline is strictly sequential per item: pending -> scripting ->
// scripted -> synthesizing -> synthesized -> composing -> composed ->
// publishing -> completed. A single runner goroutine claims the oldest
// eligible item, so two jobs never contend for the GPU-bound synthesis
// services at once.
//
// Add new lifecycle stages by extending StageSet, updating the queue status
// enums, and teaching the manager how to transition items; this package is the
// authoritative home for that coordination logic.
package workflow
