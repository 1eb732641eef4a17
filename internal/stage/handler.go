// Package stage defines the contract between the workflow manager and the
// pipeline stages (script generation, synthesis, composition, publishing).
package stage

import (
	"context"

	"reelsmith/internal/queue"
)

// Handler is one pipeline stage. Prepare runs cheap validation before the
// item transitions into the stage's processing status; Execute performs the
// work and mutates the item; HealthCheck reports whether the stage's
// external dependencies are reachable.
type Handler interface {
	Prepare(context.Context, *queue.Item) error
	Execute(context.Context, *queue.Item) error
	HealthCheck(context.Context) Health
}

// Health is a stage readiness report surfaced through daemon status.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy reports a ready stage.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy reports a stage whose dependencies are unavailable, with a
// human-readable reason.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}
