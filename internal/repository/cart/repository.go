package cart

import (
	"context"

	"cartview/internal/domain"
)

// Repository persists the authoritative cart of each user.
type Repository interface {
	List(ctx context.Context, userID string) ([]domain.CartLine, error)
	AddItem(ctx context.Context, userID, itemID string, quantity int) error
	// Decrement lowers a line's quantity and deletes the line when it reaches zero.
	Decrement(ctx context.Context, userID, itemID string, quantity int) error
	RemoveLine(ctx context.Context, userID, itemID string) error
	Clear(ctx context.Context, userID string) error
}
