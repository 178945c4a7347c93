package catalog

import (
	"context"
	"errors"

	"cartview/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

type postgresRepo struct {
	pool *pgxpool.Pool
	log  logrus.FieldLogger
}

func NewPostgres(pool *pgxpool.Pool, log logrus.FieldLogger) Repository {
	if log == nil {
		log = logrus.New()
	}
	return &postgresRepo{pool: pool, log: log.WithField("repo", "catalog")}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.CatalogItem, error) {
	const q = `
SELECT id, title, image, price_cents, created_at
FROM catalog_items
ORDER BY title ASC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.log.WithError(err).Error("list items")
		return nil, err
	}
	defer rows.Close()

	var result []domain.CatalogItem
	for rows.Next() {
		var it domain.CatalogItem
		if err := rows.Scan(&it.ID, &it.Title, &it.Image, &it.PriceCents, &it.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	r.log.WithField("count", len(result)).Debug("listed items")
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.CatalogItem, error) {
	const q = `
SELECT id, title, image, price_cents, created_at
FROM catalog_items
WHERE id = $1
`
	var it domain.CatalogItem
	err := r.pool.QueryRow(ctx, q, id).Scan(&it.ID, &it.Title, &it.Image, &it.PriceCents, &it.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.log.WithField("id", id).WithError(err).Error("get item")
		return nil, err
	}
	return &it, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, item domain.CatalogItem) (*domain.CatalogItem, error) {
	const q = `
INSERT INTO catalog_items (id, title, image, price_cents)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET
    title = EXCLUDED.title,
    image = EXCLUDED.image,
    price_cents = EXCLUDED.price_cents
RETURNING created_at
`
	res := item
	if err := r.pool.QueryRow(ctx, q, item.ID, item.Title, item.Image, item.PriceCents).Scan(&res.CreatedAt); err != nil {
		r.log.WithField("id", item.ID).WithError(err).Error("upsert item")
		return nil, err
	}
	r.log.WithField("id", res.ID).Debug("upserted item")
	return &res, nil
}
