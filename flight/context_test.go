package flight

import (
	"context"
	"testing"

	"google.golang.org/grpc/metadata"
)

func TestEnrichContextMetadata(t *testing.T) {
	if got := EnrichContextMetadata(context.Background()); MetaFromContext(got) != nil {
		t.Error("expected no metadata without incoming headers")
	}

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(
		HeaderTraceID, "trace-1",
		HeaderSessionID, "session-1",
	))
	ctx = EnrichContextMetadata(ctx)
	meta := MetaFromContext(ctx)
	if meta == nil {
		t.Fatal("expected metadata")
	}
	if meta.TraceID != "trace-1" || meta.SessionID != "session-1" {
		t.Errorf("unexpected metadata %+v", meta)
	}

	if again := EnrichContextMetadata(ctx); MetaFromContext(again) != meta {
		t.Error("an enriched context must be returned unchanged")
	}
}
