package cart

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
	return &postgresRepo{pool: pool, log: log.WithField("repo", "cart")}
}

func (r *postgresRepo) List(ctx context.Context, userID string) ([]domain.CartLine, error) {
	const q = `
SELECT l.item_id, l.quantity, i.title, i.image, i.price_cents
FROM cart_lines l
LEFT JOIN catalog_items i ON i.id = l.item_id
WHERE l.user_id = $1
ORDER BY l.created_at ASC, l.item_id ASC
`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		r.log.WithField("user_id", userID).WithError(err).Error("list lines")
		return nil, err
	}
	defer rows.Close()

	lines := []domain.CartLine{}
	for rows.Next() {
		var (
			line  domain.CartLine
			title *string
			image *string
			price *int64
		)
		if err := rows.Scan(&line.ItemID, &line.Quantity, &title, &image, &price); err != nil {
			return nil, err
		}
		if title != nil && price != nil {
			snap := &domain.ItemSnapshot{Title: *title, PriceCents: *price}
			if image != nil {
				snap.Image = *image
			}
			line.Item = snap
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *postgresRepo) AddItem(ctx context.Context, userID, itemID string, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	_, err := r.pool.Exec(ctx, `
INSERT INTO cart_lines (user_id, item_id, quantity)
VALUES ($1, $2, $3)
ON CONFLICT (user_id, item_id) DO UPDATE
SET quantity = cart_lines.quantity + EXCLUDED.quantity
`, userID, itemID, quantity)
	if err != nil {
		r.log.WithFields(logrus.Fields{"user_id": userID, "item_id": itemID}).WithError(err).Error("add item")
	}
	return err
}

func (r *postgresRepo) Decrement(ctx context.Context, userID, itemID string, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var current int
	err = tx.QueryRow(ctx, `
SELECT quantity
FROM cart_lines
WHERE user_id = $1 AND item_id = $2
FOR UPDATE
`, userID, itemID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}

	if current <= quantity {
		if _, err := tx.Exec(ctx, `
DELETE FROM cart_lines
WHERE user_id = $1 AND item_id = $2
`, userID, itemID); err != nil {
			return err
		}
	} else {
		if _, err := tx.Exec(ctx, `
UPDATE cart_lines
SET quantity = $1
WHERE user_id = $2 AND item_id = $3
`, current-quantity, userID, itemID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *postgresRepo) RemoveLine(ctx context.Context, userID, itemID string) error {
	cmd, err := r.pool.Exec(ctx, `
DELETE FROM cart_lines
WHERE user_id = $1 AND item_id = $2
`, userID, itemID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Clear(ctx context.Context, userID string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cart_lines WHERE user_id = $1`, userID)
	if err != nil {
		return err
	}
	r.log.WithFields(logrus.Fields{"user_id": userID, "removed": cmd.RowsAffected()}).Debug("cleared cart")
	return nil
}
