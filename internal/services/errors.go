package services

import (
	"errors"
	"fmt"
	"strings"

	"reelsmith/internal/queue"
)

// Sentinel markers for classifying stage failures. Wrap tags errors with
// one of these so the workflow can decide whether a retry is worthwhile.
var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error carrying stage and operation context, tagged with
// marker (one of the sentinels above; nil means ErrTransient).
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	detail := joinDetail(stage, operation, message)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureStatus maps a stage error to the queue status the workflow manager
// should persist after the stage fails.
func FailureStatus(error) queue.Status {
	return queue.StatusFailed
}

// Retryable reports whether a failed item may succeed on a later attempt
// without operator intervention. Configuration and validation failures need
// a human; everything else is assumed to be an external-service hiccup.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrValidation) && !errors.Is(err, ErrConfiguration)
}

func joinDetail(fields ...string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
