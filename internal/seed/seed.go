package seed

import (
	"context"
	"fmt"

	"cartview/internal/domain"
	"github.com/sirupsen/logrus"
)

type CatalogWriter interface {
	Upsert(ctx context.Context, item domain.CatalogItem) (*domain.CatalogItem, error)
}

type CartWriter interface {
	Clear(ctx context.Context, userID string) error
	AddItem(ctx context.Context, userID, itemID string, quantity int) error
}

// DemoUser owns the seeded cart.
var DemoUser = domain.User{ID: "demo-user", Email: "demo@example.com"}

// Catalog is the demo catalog.
var Catalog = []domain.CatalogItem{
	{ID: "demo-mug", Title: "Demo Mug", Image: "https://picsum.photos/seed/mug/200", PriceCents: 1000},
	{ID: "demo-shirt", Title: "Demo T-Shirt", Image: "https://picsum.photos/seed/shirt/200", PriceCents: 500},
	{ID: "demo-cap", Title: "Demo Cap", Image: "https://picsum.photos/seed/cap/200", PriceCents: 1299},
}

// cartLines is the demo cart: two mugs and a shirt, 25.00 in total.
var cartLines = []struct {
	ItemID   string
	Quantity int
}{
	{ItemID: "demo-mug", Quantity: 2},
	{ItemID: "demo-shirt", Quantity: 1},
}

// Apply upserts the demo catalog and resets the demo user's cart. It is safe to
// run repeatedly.
func Apply(ctx context.Context, catalog CatalogWriter, cart CartWriter, log logrus.FieldLogger) error {
	for _, item := range Catalog {
		if _, err := catalog.Upsert(ctx, item); err != nil {
			return fmt.Errorf("upsert item %s: %w", item.ID, err)
		}
	}
	log.WithField("items", len(Catalog)).Info("catalog seeded")

	if err := cart.Clear(ctx, DemoUser.ID); err != nil {
		return fmt.Errorf("reset demo cart: %w", err)
	}
	for _, l := range cartLines {
		if err := cart.AddItem(ctx, DemoUser.ID, l.ItemID, l.Quantity); err != nil {
			return fmt.Errorf("add %s to demo cart: %w", l.ItemID, err)
		}
	}
	log.WithFields(logrus.Fields{"user_id": DemoUser.ID, "lines": len(cartLines)}).Info("demo cart seeded")
	return nil
}
