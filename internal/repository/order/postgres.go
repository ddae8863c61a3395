package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"storefront/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger logrus.FieldLogger
}

func NewPostgres(pool *pgxpool.Pool, logger logrus.FieldLogger) Repository {
	return &postgresRepo{pool: pool, logger: logger.WithField("repo", "order")}
}

// ClearsCart is true: Create deletes the cart inside the order transaction.
func (r *postgresRepo) ClearsCart() bool { return true }

const selectOrder = `
SELECT id::text, user_id, user_email, customer_name, customer_phone, customer_address,
       subtotal::text, tax::text, total::text, payment_method, status,
       COALESCE(idempotency_key, ''), created_at, updated_at
FROM orders
`

func (r *postgresRepo) Create(ctx context.Context, o *domain.Order) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
INSERT INTO orders (id, user_id, user_email, customer_name, customer_phone, customer_address,
                    subtotal, tax, total, payment_method, status, idempotency_key, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULLIF($12, ''), $13, $14)
`,
		o.ID, o.UserID, o.UserEmail, o.CustomerName, o.CustomerPhone, o.CustomerAddress,
		o.Subtotal.StringFixed(2), o.Tax.StringFixed(2), o.Total.StringFixed(2),
		o.PaymentMethod, string(o.Status), o.IdempotencyKey, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		return err
	}

	batch := &pgx.Batch{}
	for i, line := range o.Items {
		batch.Queue(`
INSERT INTO order_items (order_id, position, item_id, name, price, image, quantity)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, o.ID, i, line.ItemID, line.Name, line.Price.StringFixed(2), line.Image, line.Quantity)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}

	cmd, err := tx.Exec(ctx, `DELETE FROM carts WHERE user_id = $1`, o.UserID)
	if err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	r.logger.WithFields(logrus.Fields{
		"order_id":      o.ID,
		"user_id":       o.UserID,
		"lines":         len(o.Items),
		"cart_released": cmd.RowsAffected() > 0,
	}).Info("order created")
	return nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrOrderNotFound
	}
	return r.fetchOne(ctx, selectOrder+`WHERE id = $1`, id)
}

func (r *postgresRepo) GetByIdempotencyKey(ctx context.Context, userID, key string) (*domain.Order, error) {
	return r.fetchOne(ctx, selectOrder+`WHERE user_id = $1 AND idempotency_key = $2`, userID, key)
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.fetchMany(ctx, selectOrder+`WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
}

func (r *postgresRepo) ListAll(ctx context.Context) ([]domain.Order, error) {
	return r.fetchMany(ctx, selectOrder+`ORDER BY created_at DESC, id DESC`)
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, at time.Time) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrOrderNotFound
	}
	cmd, err := r.pool.Exec(ctx, `
UPDATE orders
SET status = $2, updated_at = $3
WHERE id = $1
`, id, string(status), at)
	if err != nil {
		r.logger.WithField("order_id", id).WithError(err).Error("update status")
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, domain.ErrOrderNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) fetchOne(ctx context.Context, q string, args ...any) (*domain.Order, error) {
	orders, err := r.fetchMany(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, domain.ErrOrderNotFound
	}
	return &orders[0], nil
}

func (r *postgresRepo) fetchMany(ctx context.Context, q string, args ...any) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		orders []domain.Order
		ids    []string
	)
	for rows.Next() {
		var (
			o                    domain.Order
			subtotal, tax, total string
			status               string
		)
		if err := rows.Scan(
			&o.ID,
			&o.UserID,
			&o.UserEmail,
			&o.CustomerName,
			&o.CustomerPhone,
			&o.CustomerAddress,
			&subtotal,
			&tax,
			&total,
			&o.PaymentMethod,
			&status,
			&o.IdempotencyKey,
			&o.CreatedAt,
			&o.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if o.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
			return nil, err
		}
		if o.Tax, err = decimal.NewFromString(tax); err != nil {
			return nil, err
		}
		if o.Total, err = decimal.NewFromString(total); err != nil {
			return nil, err
		}
		o.Status = domain.OrderStatus(status)
		o.Items = []domain.OrderLine{}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	lines, err := r.fetchLines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if l, ok := lines[orders[i].ID]; ok {
			orders[i].Items = l
		}
	}
	return orders, nil
}

func (r *postgresRepo) fetchLines(ctx context.Context, orderIDs []string) (map[string][]domain.OrderLine, error) {
	const q = `
SELECT order_id::text, item_id, name, price::text, image, quantity
FROM order_items
WHERE order_id = ANY($1::uuid[])
ORDER BY order_id, position
`
	rows, err := r.pool.Query(ctx, q, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]domain.OrderLine, len(orderIDs))
	for rows.Next() {
		var (
			orderID string
			price   string
			line    domain.OrderLine
		)
		if err := rows.Scan(&orderID, &line.ItemID, &line.Name, &price, &line.Image, &line.Quantity); err != nil {
			return nil, err
		}
		if line.Price, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		out[orderID] = append(out[orderID], line)
	}
	return out, rows.Err()
}
