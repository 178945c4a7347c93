package catalog

import (
	"context"

	"cartview/internal/domain"
)

type Repository interface {
	List(ctx context.Context) ([]domain.CatalogItem, error)
	GetByID(ctx context.Context, id string) (*domain.CatalogItem, error)
	Upsert(ctx context.Context, item domain.CatalogItem) (*domain.CatalogItem, error)
}
