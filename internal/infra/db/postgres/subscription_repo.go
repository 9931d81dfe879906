package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"rental-billing/internal/domain"
	"rental-billing/internal/domain/model"
	"rental-billing/internal/domain/ports/repository"
)

var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct{ pool *pgxpool.Pool }

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

func (r *subscriptionRepo) Upsert(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	const q = `
INSERT INTO subscriptions (user_id, tier, plan_name, plan_level, expires_at, is_active, amount, order_id, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (user_id) DO UPDATE SET
  tier=$2, plan_name=$3, plan_level=$4, expires_at=$5, is_active=$6, amount=$7, order_id=$8, updated_at=$9;`

	_, err := execSQL(ctx, r.pool, tx, q, s.UserID, s.Tier, s.PlanName, s.PlanLevel, s.ExpiresAt, s.IsActive, s.Amount, s.OrderID, s.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *subscriptionRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	q := `SELECT user_id, tier, plan_name, plan_level, expires_at, is_active, amount, order_id, updated_at FROM subscriptions WHERE user_id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}

	s := &model.Subscription{}
	if err := row.Scan(&s.UserID, &s.Tier, &s.PlanName, &s.PlanLevel, &s.ExpiresAt, &s.IsActive, &s.Amount, &s.OrderID, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return s, nil
}

// ExpireDue resets active, expired records to the free tier in one statement.
func (r *subscriptionRepo) ExpireDue(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	const q = `
UPDATE subscriptions
   SET tier='free', plan_name='free', plan_level=0, is_active=FALSE, updated_at=NOW()
 WHERE is_active AND expires_at IS NOT NULL AND expires_at < $1;`

	cmd, err := execSQL(ctx, r.pool, tx, q, now)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return 0, err
		}
		return 0, domain.ErrOperationFailed
	}
	return int(cmd.RowsAffected()), nil
}

var _ repository.PointRepository = (*pointRepo)(nil)

type pointRepo struct{ pool *pgxpool.Pool }

func NewPointRepo(pool *pgxpool.Pool) *pointRepo {
	return &pointRepo{pool: pool}
}

func (r *pointRepo) Balance(ctx context.Context, tx repository.Tx, userID string) (int64, error) {
	q := `SELECT balance FROM point_accounts WHERE user_id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return 0, err
	}
	var balance int64
	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, domain.ErrReadDatabaseRow
	}
	return balance, nil
}

// Debit fails without side effects when the balance is insufficient: the
// guarded UPDATE touches no row in that case.
func (r *pointRepo) Debit(ctx context.Context, tx repository.Tx, userID string, points int64) error {
	if points <= 0 {
		return domain.ErrInvalidArgument
	}
	const q = `UPDATE point_accounts SET balance = balance - $2, updated_at=NOW() WHERE user_id=$1 AND balance >= $2;`
	cmd, err := execSQL(ctx, r.pool, tx, q, userID, points)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrInsufficientPoints
	}
	return nil
}

func (r *pointRepo) Credit(ctx context.Context, tx repository.Tx, userID string, points int64) error {
	if points <= 0 {
		return domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO point_accounts (user_id, balance, updated_at) VALUES ($1,$2,NOW())
ON CONFLICT (user_id) DO UPDATE SET balance = point_accounts.balance + $2, updated_at=NOW();`
	_, err := execSQL(ctx, r.pool, tx, q, userID, points)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}
