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

var _ repository.AuditRepository = (*auditRepo)(nil)

type auditRepo struct{ pool *pgxpool.Pool }

func NewAuditRepo(pool *pgxpool.Pool) *auditRepo {
	return &auditRepo{pool: pool}
}

func (r *auditRepo) AppendPayment(ctx context.Context, tx repository.Tx, a *model.PaymentAudit) error {
	const q = `
INSERT INTO payment_logs (id, order_id, user_id, tid, channel, amount, pay_method, state, result_code, raw_result, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11);`

	_, err := execSQL(ctx, r.pool, tx, q, a.ID, a.OrderID, a.UserID, a.TID, a.Channel, a.Amount, a.PayMethod, a.State, a.ResultCode, a.RawResult, a.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *auditRepo) AppendPurchase(ctx context.Context, tx repository.Tx, p *model.Purchase) error {
	const q = `
INSERT INTO purchase_logs (id, user_id, tier, order_id, tid, amount, points, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8);`

	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.UserID, p.Tier, p.OrderID, p.TID, p.Amount, p.Points, p.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *auditRepo) AppendPlanAssignment(ctx context.Context, tx repository.Tx, pa *model.PlanAssignment) error {
	const q = `
INSERT INTO plan_logs (id, user_id, tier, source, order_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6);`

	_, err := execSQL(ctx, r.pool, tx, q, pa.ID, pa.UserID, pa.Tier, pa.Source, pa.OrderID, pa.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *auditRepo) FindPaymentByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.PaymentAudit, error) {
	const q = `SELECT id, order_id, user_id, tid, channel, amount, pay_method, state, result_code, raw_result, created_at FROM payment_logs WHERE order_id=$1 ORDER BY created_at DESC LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, orderID)
	if err != nil {
		return nil, err
	}

	a := &model.PaymentAudit{}
	if err := row.Scan(&a.ID, &a.OrderID, &a.UserID, &a.TID, &a.Channel, &a.Amount, &a.PayMethod, &a.State, &a.ResultCode, &a.RawResult, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return a, nil
}
