package utils

import (
	"context"
	"testing"
)

func TestContextHelpers_RoundTrip(t *testing.T) {
	ctx := context.Background()

	if _, ok := GetPropertyIdFromContext(ctx); ok {
		t.Fatal("empty context must not carry a property id")
	}

	ctx = SetPropertyIdInContext(ctx, "prop-1")
	ctx = SetCorrelationIdInContext(ctx, "cid-1")

	if v, ok := GetPropertyIdFromContext(ctx); !ok || v != "prop-1" {
		t.Fatalf("property id = %q (%v), want prop-1", v, ok)
	}
	if v, ok := GetCorrelationIdFromContext(ctx); !ok || v != "cid-1" {
		t.Fatalf("correlation id = %q (%v), want cid-1", v, ok)
	}
}
