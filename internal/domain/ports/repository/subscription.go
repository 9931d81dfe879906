package repository

import (
	"context"
	"time"

	"rental-billing/internal/domain/model"
)

// SubscriptionRepository keys the per-user plan record by user id.
type SubscriptionRepository interface {
	Upsert(ctx context.Context, tx Tx, s *model.Subscription) error
	FindByUserID(ctx context.Context, tx Tx, userID string) (*model.Subscription, error)
	// ExpireDue resets active records whose expiry precedes now to the free
	// tier and returns how many rows changed.
	ExpireDue(ctx context.Context, tx Tx, now time.Time) (int, error)
}

// PointRepository manages prepaid point balances. Debit must fail (without
// side effects) when the balance is insufficient.
type PointRepository interface {
	Balance(ctx context.Context, tx Tx, userID string) (int64, error)
	Debit(ctx context.Context, tx Tx, userID string, points int64) error
	Credit(ctx context.Context, tx Tx, userID string, points int64) error
}
