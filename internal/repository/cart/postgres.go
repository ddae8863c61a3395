package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"storefront/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	const cartQuery = `
SELECT user_id, created_at, updated_at
FROM carts
WHERE user_id = $1
`
	var cart domain.Cart
	err := r.pool.QueryRow(ctx, cartQuery, userID).Scan(&cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCartNotFound
		}
		return nil, err
	}

	const linesQuery = `
SELECT item_id::text, quantity, added_at
FROM cart_items
WHERE user_id = $1
ORDER BY added_at ASC, item_id ASC
`
	rows, err := r.pool.Query(ctx, linesQuery, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.ItemID, &line.Quantity, &line.AddedAt); err != nil {
			return nil, err
		}
		cart.Lines = append(cart.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddOne relies on the (user_id, item_id) primary key so that concurrent adds
// for the same user serialize on the row instead of losing increments.
func (r *postgresRepo) AddOne(ctx context.Context, userID, itemID string) error {
	if _, err := uuid.Parse(itemID); err != nil {
		return domain.ErrItemNotFound
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
INSERT INTO carts (user_id)
VALUES ($1)
ON CONFLICT (user_id) DO UPDATE SET updated_at = now()
`, userID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO cart_items (user_id, item_id, quantity)
VALUES ($1, $2, 1)
ON CONFLICT (user_id, item_id) DO UPDATE SET quantity = cart_items.quantity + 1
`, userID, itemID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *postgresRepo) SetQuantity(ctx context.Context, userID, itemID string, quantity int) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var exists int
	err = tx.QueryRow(ctx, `SELECT 1 FROM carts WHERE user_id = $1 FOR UPDATE`, userID).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrCartNotFound
		}
		return err
	}
	if _, err := uuid.Parse(itemID); err != nil {
		return domain.ErrItemNotInCart
	}

	var affected int64
	if quantity <= 0 {
		cmd, err := tx.Exec(ctx, `
DELETE FROM cart_items
WHERE user_id = $1 AND item_id = $2
`, userID, itemID)
		if err != nil {
			return err
		}
		affected = cmd.RowsAffected()
	} else {
		cmd, err := tx.Exec(ctx, `
UPDATE cart_items
SET quantity = $3
WHERE user_id = $1 AND item_id = $2
`, userID, itemID, quantity)
		if err != nil {
			return err
		}
		affected = cmd.RowsAffected()
	}
	if affected == 0 {
		return domain.ErrItemNotInCart
	}

	if err := touchCart(ctx, tx, userID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) Remove(ctx context.Context, userID, itemID string) error {
	if _, err := uuid.Parse(itemID); err != nil {
		return nil
	}
	_, err := r.pool.Exec(ctx, `
WITH removed AS (
	DELETE FROM cart_items
	WHERE user_id = $1 AND item_id = $2
	RETURNING 1
)
UPDATE carts
SET updated_at = now()
WHERE user_id = $1 AND EXISTS (SELECT 1 FROM removed)
`, userID, itemID)
	return err
}

func (r *postgresRepo) Delete(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE user_id = $1`, userID)
	return err
}

func touchCart(ctx context.Context, tx pgx.Tx, userID string) error {
	_, err := tx.Exec(ctx, `UPDATE carts SET updated_at = now() WHERE user_id = $1`, userID)
	return err
}
