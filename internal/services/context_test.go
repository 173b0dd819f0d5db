package services_test

import (
	"context"
	"testing"

	"github.com/alex-berlin-tv/rafo/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithUploadID(ctx, 42)
	ctx = services.WithStage(ctx, "optimization")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.UploadIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("unexpected upload id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "optimization" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
}
