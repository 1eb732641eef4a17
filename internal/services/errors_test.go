package services_test

import (
	"errors"
	"strings"
	"testing"

	"reelsmith/internal/queue"
	"reelsmith/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "composing", "mux", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"composing", "mux", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestFailureStatusMapping(t *testing.T) {
	validationErr := services.Wrap(services.ErrValidation, "scripting", "prepare", "invalid", nil)
	if status := services.FailureStatus(validationErr); status != queue.StatusFailed {
		t.Fatalf("expected failed for validation error, got %s", status)
	}

	if status := services.FailureStatus(nil); status != queue.StatusFailed {
		t.Fatalf("expected failed for nil error, got %s", status)
	}
}

func TestRetryable(t *testing.T) {
	transientErr := services.Wrap(services.ErrTransient, "publishing", "upload", "upload failed", errors.New("io"))
	if !services.Retryable(transientErr) {
		t.Fatal("expected transient error to be retryable")
	}
	configErr := services.Wrap(services.ErrConfiguration, "publishing", "auth", "token missing", nil)
	if services.Retryable(configErr) {
		t.Fatal("expected configuration error to be non-retryable")
	}
	if services.Retryable(nil) {
		t.Fatal("expected nil error to be non-retryable")
	}
}
