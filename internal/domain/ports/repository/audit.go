package repository

import (
	"context"

	"rental-billing/internal/domain/model"
)

// AuditRepository holds the append-only trails. Writes here are best-effort
// from the caller's point of view: a failed audit write is logged and counted
// but never changes the user-facing outcome.
type AuditRepository interface {
	AppendPayment(ctx context.Context, tx Tx, a *model.PaymentAudit) error
	AppendPurchase(ctx context.Context, tx Tx, p *model.Purchase) error
	AppendPlanAssignment(ctx context.Context, tx Tx, pa *model.PlanAssignment) error
	// FindPaymentByOrderID returns the most recent payment row for the order;
	// a replayed callback is answered from this record.
	FindPaymentByOrderID(ctx context.Context, tx Tx, orderID string) (*model.PaymentAudit, error)
}
