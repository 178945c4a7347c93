package domain

import "time"

// CatalogItem is a purchasable item as stored by the cart API.
type CatalogItem struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Image      string    `json:"image,omitempty"`
	PriceCents int64     `json:"priceCents"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Snapshot returns the cart-line view of the item.
func (i CatalogItem) Snapshot() *ItemSnapshot {
	return &ItemSnapshot{Title: i.Title, Image: i.Image, PriceCents: i.PriceCents}
}
