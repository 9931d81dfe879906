package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"rental-billing/internal/domain"
	"rental-billing/internal/domain/model"
	"rental-billing/internal/domain/ports/repository"
	"rental-billing/internal/infra/metrics"
)

// Compile-time check
var _ PlanUseCase = (*planUC)(nil)

// StatusCache fronts the status poll; the redis implementation satisfies it.
type StatusCache interface {
	Get(ctx context.Context, userID string) (*model.Subscription, bool)
	Put(ctx context.Context, s *model.Subscription) error
	Invalidate(ctx context.Context, userID string) error
}

type PlanUseCase interface {
	// Meta returns static tier metadata (tenant limit, premium flag).
	Meta(tier model.PlanTier) model.PlanMeta
	// GrantForPayment derives the plan from the paid amount and grants it.
	GrantForPayment(ctx context.Context, userID string, channel model.Channel, amount int64, orderID, tid string) (*model.Subscription, error)
	// Grant applies an explicit tier grant; nil until means unlimited.
	Grant(ctx context.Context, userID string, tier model.PlanTier, until *time.Time) (*model.Subscription, error)
	// PurchaseWithPoints debits the point balance and grants the plan as a
	// single transaction; no partial application.
	PurchaseWithPoints(ctx context.Context, userID string, tier model.PlanTier, cost int64) (*model.Subscription, error)
	// SweepExpired resets active records past their expiry to the free tier.
	SweepExpired(ctx context.Context) (int, error)
	// Status returns the user's current record (cache-backed).
	Status(ctx context.Context, userID string) (*model.Subscription, error)
}

type planUC struct {
	subs   repository.SubscriptionRepository
	points repository.PointRepository
	audit  repository.AuditRepository
	tm     repository.TransactionManager
	cache  StatusCache
	log    *zerolog.Logger
	now    func() time.Time
}

func NewPlanUseCase(subs repository.SubscriptionRepository, points repository.PointRepository, audit repository.AuditRepository, tm repository.TransactionManager, cache StatusCache, logger *zerolog.Logger) *planUC {
	l := logger.With().Str("component", "PlanUC").Logger()
	return &planUC{subs: subs, points: points, audit: audit, tm: tm, cache: cache, log: &l, now: time.Now}
}

func (u *planUC) Meta(tier model.PlanTier) model.PlanMeta { return model.MetaFor(tier) }

// pointCost is the point price of each tier for one month.
var pointCost = map[model.PlanTier]int64{
	model.TierStarter:    4900,
	model.TierBasic:      9900,
	model.TierStandard:   29900,
	model.TierPro:        49900,
	model.TierProPlus:    69900,
	model.TierEnterprise: 99900,
}

func (u *planUC) GrantForPayment(ctx context.Context, userID string, channel model.Channel, amount int64, orderID, tid string) (*model.Subscription, error) {
	band, ok := model.BandForAmount(channel, amount)
	if !ok {
		return nil, fmt.Errorf("%w: no plan band for amount %d on %s", domain.ErrInvalidArgument, amount, channel)
	}
	sub, err := model.NewPaidSubscription(userID, band, amount, orderID, u.now())
	if err != nil {
		return nil, err
	}

	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.subs.Upsert(ctx, tx, sub); err != nil {
			return fmt.Errorf("upsert subscription: %w", err)
		}
		if err := u.audit.AppendPurchase(ctx, tx, &model.Purchase{
			ID:        uuid.NewString(),
			UserID:    userID,
			Tier:      band.Tier,
			OrderID:   orderID,
			TID:       tid,
			Amount:    amount,
			CreatedAt: u.now(),
		}); err != nil {
			return fmt.Errorf("append purchase: %w", err)
		}
		return u.appendAssignment(ctx, tx, userID, band.Tier, "payment", orderID)
	})
	if err != nil {
		return nil, err
	}

	u.afterGrant(ctx, sub, "payment")
	return sub, nil
}

func (u *planUC) Grant(ctx context.Context, userID string, tier model.PlanTier, until *time.Time) (*model.Subscription, error) {
	sub, err := model.NewGrantedSubscription(userID, tier, until, u.now())
	if err != nil {
		return nil, err
	}
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.subs.Upsert(ctx, tx, sub); err != nil {
			return fmt.Errorf("upsert subscription: %w", err)
		}
		return u.appendAssignment(ctx, tx, userID, tier, "grant", "")
	})
	if err != nil {
		return nil, err
	}

	u.afterGrant(ctx, sub, "grant")
	return sub, nil
}

// PurchaseWithPoints runs debit, grant and history append as one transaction.
// If any write fails the whole batch rolls back: points are never debited
// without a plan, and vice versa.
func (u *planUC) PurchaseWithPoints(ctx context.Context, userID string, tier model.PlanTier, cost int64) (*model.Subscription, error) {
	if cost <= 0 {
		if c, ok := pointCost[tier]; ok {
			cost = c
		} else {
			return nil, fmt.Errorf("%w: tier %s not purchasable with points", domain.ErrInvalidArgument, tier)
		}
	}
	meta := model.MetaFor(tier)
	expiry := u.now().AddDate(0, 1, 0)
	sub := &model.Subscription{
		UserID:    userID,
		Tier:      meta.Tier,
		PlanName:  string(meta.Tier),
		ExpiresAt: &expiry,
		IsActive:  true,
		UpdatedAt: u.now(),
	}

	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.points.Debit(ctx, tx, userID, cost); err != nil {
			return fmt.Errorf("debit points: %w", err)
		}
		if err := u.subs.Upsert(ctx, tx, sub); err != nil {
			return fmt.Errorf("upsert subscription: %w", err)
		}
		if err := u.audit.AppendPurchase(ctx, tx, &model.Purchase{
			ID:        uuid.NewString(),
			UserID:    userID,
			Tier:      meta.Tier,
			Points:    cost,
			CreatedAt: u.now(),
		}); err != nil {
			return fmt.Errorf("append purchase: %w", err)
		}
		return u.appendAssignment(ctx, tx, userID, meta.Tier, "points", "")
	})
	if err != nil {
		return nil, err
	}

	u.afterGrant(ctx, sub, "points")
	return sub, nil
}

func (u *planUC) SweepExpired(ctx context.Context) (int, error) {
	return u.subs.ExpireDue(ctx, nil, u.now())
}

func (u *planUC) Status(ctx context.Context, userID string) (*model.Subscription, error) {
	if userID == "" {
		return nil, domain.ErrValidation
	}
	if u.cache != nil {
		if s, ok := u.cache.Get(ctx, userID); ok {
			return s, nil
		}
	}
	s, err := u.subs.FindByUserID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if u.cache != nil {
		if err := u.cache.Put(ctx, s); err != nil {
			u.log.Warn().Err(err).Msg("status cache put failed")
		}
	}
	return s, nil
}

func (u *planUC) appendAssignment(ctx context.Context, tx repository.Tx, userID string, tier model.PlanTier, source, orderID string) error {
	if err := u.audit.AppendPlanAssignment(ctx, tx, &model.PlanAssignment{
		ID:        uuid.NewString(),
		UserID:    userID,
		Tier:      tier,
		Source:    source,
		OrderID:   orderID,
		CreatedAt: u.now(),
	}); err != nil {
		return fmt.Errorf("append plan assignment: %w", err)
	}
	return nil
}

func (u *planUC) afterGrant(ctx context.Context, sub *model.Subscription, source string) {
	metrics.IncSubscriptionGranted(string(sub.Tier), source)
	if u.cache != nil {
		if err := u.cache.Invalidate(ctx, sub.UserID); err != nil {
			u.log.Warn().Err(err).Str("user_id", sub.UserID).Msg("status cache invalidate failed")
		}
	}
}
