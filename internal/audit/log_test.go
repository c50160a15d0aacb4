package audit

import (
	"context"
	"testing"
)

func TestLogEventRequiresName(t *testing.T) {
	if err := LogEvent(context.Background(), "  ", nil); err == nil {
		t.Fatal("expected error for empty event name")
	}
	if err := LogEvent(context.Background(), "transaction.create", map[string]any{"id": 1}); err != nil {
		t.Fatalf("LogEvent: %v", err)
	}
}

func TestContextEnrichment(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithActor(ctx, "user-9")
	if got := requestIDFromContext(ctx); got != "req-1" {
		t.Fatalf("request id: %q", got)
	}
	if got := actorFromContext(ctx); got != "user-9" {
		t.Fatalf("actor: %q", got)
	}
	// blank values must not overwrite
	ctx = WithActor(ctx, " ")
	if got := actorFromContext(ctx); got != "user-9" {
		t.Fatalf("actor after blank: %q", got)
	}
}
