package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"rental-billing/internal/domain"
	"rental-billing/internal/domain/model"
	"rental-billing/internal/domain/ports/repository"
)

var _ repository.OrderMappingRepository = (*orderRepo)(nil)

type orderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepo(pool *pgxpool.Pool) *orderRepo {
	return &orderRepo{pool: pool}
}

func (r *orderRepo) Save(ctx context.Context, tx repository.Tx, m *model.OrderMapping) error {
	const q = `
INSERT INTO order_mappings (order_id, user_id, channel, amount, good_name, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (order_id) DO NOTHING;`

	_, err := execSQL(ctx, r.pool, tx, q, m.OrderID, m.UserID, m.Channel, m.Amount, m.GoodName, m.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *orderRepo) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.OrderMapping, error) {
	const q = `SELECT order_id, user_id, channel, amount, good_name, created_at FROM order_mappings WHERE order_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, orderID)
	if err != nil {
		return nil, err
	}

	m := &model.OrderMapping{}
	if err := row.Scan(&m.OrderID, &m.UserID, &m.Channel, &m.Amount, &m.GoodName, &m.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return m, nil
}
