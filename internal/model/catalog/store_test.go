package catalog

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreQueryAppliesConjunction(t *testing.T) {
	store := NewMemoryStore([]Item{
		{Name: "cheap", Price: 100, Cushioning: 85},
		{Name: "soft-but-pricey", Price: 200, Cushioning: 95},
		{Name: "hard", Price: 90, Cushioning: 40},
	})

	matches, err := store.Query(context.Background(), Filter{
		{Attribute: Price, Operator: LessOrEqual, Threshold: 120},
		{Attribute: Cushioning, Operator: GreaterOrEqual, Threshold: 80},
	})
	if err != nil {
		t.Fatalf("Query err: %v", err)
	}
	if len(matches) != 1 || matches[0].Name != "cheap" || matches[0].Price != 100 {
		t.Fatalf("unexpected matches: %+v", matches)
	}
}

func TestMemoryStoreQueryRejectsUnknownAttribute(t *testing.T) {
	store := NewMemoryStore(Seed())

	_, err := store.Query(context.Background(), Filter{{Attribute: "colour", Operator: Equal, Threshold: 1}})
	if !errors.Is(err, ErrCatalogQueryFailed) || !errors.Is(err, ErrUnknownAttribute) {
		t.Fatalf("expected query failure for unknown attribute, got %v", err)
	}
}

func TestMemoryStoreQueryCancelledContext(t *testing.T) {
	store := NewMemoryStore(Seed())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.Query(ctx, nil); !errors.Is(err, ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
	}
}

func TestMemoryStoreListIsCopy(t *testing.T) {
	store := NewMemoryStore(Seed())
	items := store.List()
	items[0].Name = "mutated"

	if store.List()[0].Name == "mutated" {
		t.Fatal("List must not expose internal slice")
	}
}
