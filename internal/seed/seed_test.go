package seed

import (
	"context"
	"errors"
	"testing"

	"cartview/internal/domain"
	"cartview/internal/logging"
)

type stubCatalog struct {
	items map[string]domain.CatalogItem
}

func (s *stubCatalog) Upsert(_ context.Context, item domain.CatalogItem) (*domain.CatalogItem, error) {
	if s.items == nil {
		s.items = map[string]domain.CatalogItem{}
	}
	s.items[item.ID] = item
	return &item, nil
}

type stubCart struct {
	lines    map[string]int
	clears   int
	clearErr error
}

func (s *stubCart) Clear(_ context.Context, _ string) error {
	s.clears++
	s.lines = map[string]int{}
	return s.clearErr
}

func (s *stubCart) AddItem(_ context.Context, _ string, itemID string, quantity int) error {
	s.lines[itemID] += quantity
	return nil
}

func TestApplyIsRepeatable(t *testing.T) {
	catalog := &stubCatalog{}
	cart := &stubCart{}
	for i := 0; i < 2; i++ {
		if err := Apply(context.Background(), catalog, cart, logging.Discard()); err != nil {
			t.Fatalf("apply: %v", err)
		}
	}
	if len(catalog.items) != len(Catalog) {
		t.Fatalf("expected %d items, got %d", len(Catalog), len(catalog.items))
	}
	if cart.lines["demo-mug"] != 2 || cart.lines["demo-shirt"] != 1 {
		t.Fatalf("unexpected demo cart %+v", cart.lines)
	}

	var lines []domain.CartLine
	for id, qty := range cart.lines {
		item := catalog.items[id]
		lines = append(lines, domain.CartLine{ItemID: id, Quantity: qty, Item: item.Snapshot()})
	}
	if got := domain.FormatCents(domain.Total(lines)); got != "25.00" {
		t.Fatalf("expected demo total 25.00, got %s", got)
	}
}

func TestApplyStopsOnCartError(t *testing.T) {
	cart := &stubCart{clearErr: errors.New("boom")}
	if err := Apply(context.Background(), &stubCatalog{}, cart, logging.Discard()); err == nil {
		t.Fatalf("expected error")
	}
}
