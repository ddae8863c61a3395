package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"storefront/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger logrus.FieldLogger
}

func NewPostgres(pool *pgxpool.Pool, logger logrus.FieldLogger) Repository {
	return &postgresRepo{pool: pool, logger: logger.WithField("repo", "catalog")}
}

const selectItem = `
SELECT id::text, name, description, price::text, image, category, is_active, created_at
FROM catalog_items
`

func (r *postgresRepo) GetActive(ctx context.Context, id string) (*domain.CatalogItem, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrItemNotFound
	}
	row := r.pool.QueryRow(ctx, selectItem+`WHERE id = $1 AND is_active`, id)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WithField("item_id", id).Debug("get active: not found")
			return nil, domain.ErrItemNotFound
		}
		r.logger.WithField("item_id", id).WithError(err).Error("get active")
		return nil, err
	}
	return item, nil
}

func (r *postgresRepo) Lookup(ctx context.Context, ids []string) (map[string]domain.CatalogItem, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	out := make(map[string]domain.CatalogItem, len(valid))
	if len(valid) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx, selectItem+`WHERE id = ANY($1::uuid[])`, valid)
	if err != nil {
		r.logger.WithError(err).Error("lookup")
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out[item.ID] = *item
	}
	if err := rows.Err(); err != nil {
		r.logger.WithError(err).Error("lookup rows")
		return nil, err
	}
	r.logger.WithFields(logrus.Fields{"requested": len(ids), "found": len(out)}).Debug("lookup")
	return out, nil
}

func scanItem(row pgx.Row) (*domain.CatalogItem, error) {
	var (
		item  domain.CatalogItem
		price string
	)
	if err := row.Scan(&item.ID, &item.Name, &item.Description, &price, &item.Image, &item.Category, &item.Active, &item.CreatedAt); err != nil {
		return nil, err
	}
	if err := item.Price.UnmarshalText([]byte(price)); err != nil {
		return nil, err
	}
	return &item, nil
}
