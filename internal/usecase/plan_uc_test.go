//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"

	"rental-billing/internal/domain"
	"rental-billing/internal/domain/model"
	"rental-billing/internal/domain/ports/repository"
	"rental-billing/internal/usecase"
)

type planDeps struct {
	subs   *MockSubscriptionRepo
	points *MockPointRepo
	audit  *MockAuditRepo
	tm     *MockTxManager
	cache  *MockStatusCache
}

func newPlanDeps() *planDeps {
	return &planDeps{
		subs:   NewMockSubscriptionRepo(),
		points: NewMockPointRepo(),
		audit:  NewMockAuditRepo(),
		tm:     NewMockTxManager(),
		cache:  NewMockStatusCache(),
	}
}

func (d *planDeps) build() usecase.PlanUseCase {
	return usecase.NewPlanUseCase(d.subs, d.points, d.audit, d.tm, d.cache, newTestLogger())
}

func TestPlanUseCase_GrantForPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("mobile 9900 grants the basic tier with a 10-tenant limit", func(t *testing.T) {
		deps := newPlanDeps()
		uc := deps.build()

		sub, err := uc.GrantForPayment(ctx, "user-1", model.ChannelMobile, 9900, "RT-1", "tid-1")
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if sub.Tier != model.TierBasic {
			t.Errorf("expected basic, got %s", sub.Tier)
		}
		if meta := uc.Meta(sub.Tier); meta.TenantLimit != 10 {
			t.Errorf("expected tenant limit 10, got %d", meta.TenantLimit)
		}
		if len(deps.audit.Purchases) != 1 || len(deps.audit.Assignments) != 1 {
			t.Errorf("expected one purchase and one assignment row")
		}
		if deps.audit.Assignments[0].Source != "payment" {
			t.Errorf("assignment source should be payment, got %q", deps.audit.Assignments[0].Source)
		}
	})

	t.Run("desktop 99000 grants level 3 with a one-month expiry", func(t *testing.T) {
		deps := newPlanDeps()

		before := time.Now()
		sub, err := deps.build().GrantForPayment(ctx, "user-1", model.ChannelDesktop, 99000, "RT-1", "tid-1")
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if sub.PlanName != "프리미엄" || sub.PlanLevel != 3 {
			t.Errorf("expected 프리미엄/3, got %s/%d", sub.PlanName, sub.PlanLevel)
		}
		if sub.ExpiresAt == nil {
			t.Fatal("paid grant must expire")
		}
		want := before.AddDate(0, 1, 0)
		if sub.ExpiresAt.Before(want.Add(-time.Minute)) || sub.ExpiresAt.After(want.Add(time.Minute)) {
			t.Errorf("expected expiry about one month out, got %v", sub.ExpiresAt)
		}
	})

	t.Run("band boundaries are inclusive on the lower edge", func(t *testing.T) {
		cases := []struct {
			channel model.Channel
			amount  int64
			tier    model.PlanTier
			ok      bool
		}{
			{model.ChannelDesktop, 33000, model.TierBasic, true},
			{model.ChannelDesktop, 32999, "", false},
			{model.ChannelDesktop, 54999, model.TierBasic, true},
			{model.ChannelDesktop, 55000, model.TierStandard, true},
			{model.ChannelDesktop, 165000, model.TierEnterprise, true},
			{model.ChannelMobile, 4900, model.TierStarter, true},
			{model.ChannelMobile, 4899, "", false},
			{model.ChannelMobile, 99900, model.TierEnterprise, true},
		}
		for _, c := range cases {
			band, ok := model.BandForAmount(c.channel, c.amount)
			if ok != c.ok {
				t.Errorf("%s/%d: expected ok=%v", c.channel, c.amount, c.ok)
				continue
			}
			if ok && band.Tier != c.tier {
				t.Errorf("%s/%d: expected %s, got %s", c.channel, c.amount, c.tier, band.Tier)
			}
		}
	})

	t.Run("amount below the cheapest band is rejected", func(t *testing.T) {
		deps := newPlanDeps()
		_, err := deps.build().GrantForPayment(ctx, "user-1", model.ChannelDesktop, 1000, "RT-1", "tid-1")
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got: %v", err)
		}
	})

	t.Run("grant invalidates the status cache", func(t *testing.T) {
		deps := newPlanDeps()
		_, err := deps.build().GrantForPayment(ctx, "user-1", model.ChannelMobile, 9900, "RT-1", "tid-1")
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if len(deps.cache.Invalidated) != 1 || deps.cache.Invalidated[0] != "user-1" {
			t.Errorf("expected cache invalidation for user-1, got %v", deps.cache.Invalidated)
		}
	})
}

func TestPlanUseCase_PurchaseWithPoints(t *testing.T) {
	ctx := context.Background()

	t.Run("debits the balance and grants the plan", func(t *testing.T) {
		deps := newPlanDeps()
		_ = deps.points.Credit(ctx, nil, "user-1", 20000)

		sub, err := deps.build().PurchaseWithPoints(ctx, "user-1", model.TierBasic, 0)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if sub.Tier != model.TierBasic {
			t.Errorf("expected basic, got %s", sub.Tier)
		}
		bal, _ := deps.points.Balance(ctx, nil, "user-1")
		if bal != 20000-9900 {
			t.Errorf("expected balance %d, got %d", 20000-9900, bal)
		}
		if deps.tm.Calls != 1 {
			t.Errorf("purchase must run inside one transaction, got %d calls", deps.tm.Calls)
		}
	})

	t.Run("insufficient balance leaves everything untouched", func(t *testing.T) {
		deps := newPlanDeps()
		_ = deps.points.Credit(ctx, nil, "user-1", 100)

		_, err := deps.build().PurchaseWithPoints(ctx, "user-1", model.TierBasic, 0)
		if !errors.Is(err, domain.ErrInsufficientPoints) {
			t.Fatalf("expected ErrInsufficientPoints, got: %v", err)
		}
		if _, ferr := deps.subs.FindByUserID(ctx, nil, "user-1"); !errors.Is(ferr, domain.ErrNotFound) {
			t.Error("no subscription must be written on a failed debit")
		}
		if len(deps.audit.Purchases) != 0 {
			t.Error("no purchase row must be written on a failed debit")
		}
	})

	t.Run("grant failure rolls the debit back", func(t *testing.T) {
		deps := newPlanDeps()
		_ = deps.points.Credit(ctx, nil, "user-1", 20000)
		deps.subs.UpsertFunc = func(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
			return errors.New("write failed")
		}
		// Simulate transaction rollback: restore the balance when fn errors.
		deps.tm.WithTxFunc = func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
			before, _ := deps.points.Balance(ctx, nil, "user-1")
			if err := fn(ctx, repository.NoTX); err != nil {
				after, _ := deps.points.Balance(ctx, nil, "user-1")
				_ = deps.points.Credit(ctx, nil, "user-1", before-after)
				return err
			}
			return nil
		}

		_, err := deps.build().PurchaseWithPoints(ctx, "user-1", model.TierBasic, 0)
		if err == nil {
			t.Fatal("expected an error")
		}
		bal, _ := deps.points.Balance(ctx, nil, "user-1")
		if bal != 20000 {
			t.Errorf("expected the debit rolled back, balance %d", bal)
		}
	})
}

func TestPlanUseCase_Status(t *testing.T) {
	ctx := context.Background()

	t.Run("serves from cache when populated", func(t *testing.T) {
		deps := newPlanDeps()
		_ = deps.cache.Put(ctx, &model.Subscription{UserID: "user-1", Tier: model.TierPro, IsActive: true})

		sub, err := deps.build().Status(ctx, "user-1")
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if sub.Tier != model.TierPro {
			t.Errorf("expected pro from cache, got %s", sub.Tier)
		}
	})

	t.Run("falls through to the repository and backfills the cache", func(t *testing.T) {
		deps := newPlanDeps()
		_ = deps.subs.Upsert(ctx, nil, &model.Subscription{UserID: "user-2", Tier: model.TierStandard, IsActive: true})

		sub, err := deps.build().Status(ctx, "user-2")
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if sub.Tier != model.TierStandard {
			t.Errorf("expected standard, got %s", sub.Tier)
		}
		if cached, ok := deps.cache.Get(ctx, "user-2"); !ok || cached.Tier != model.TierStandard {
			t.Error("expected the cache backfilled after a miss")
		}
	})
}

func TestPlanUseCase_SweepExpired(t *testing.T) {
	ctx := context.Background()
	deps := newPlanDeps()

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(24 * time.Hour)
	_ = deps.subs.Upsert(ctx, nil, &model.Subscription{UserID: "old", Tier: model.TierPro, ExpiresAt: &past, IsActive: true})
	_ = deps.subs.Upsert(ctx, nil, &model.Subscription{UserID: "live", Tier: model.TierPro, ExpiresAt: &future, IsActive: true})
	_ = deps.subs.Upsert(ctx, nil, &model.Subscription{UserID: "forever", Tier: model.TierEnterprise, IsActive: true})

	n, err := deps.build().SweepExpired(ctx)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected exactly one expiry, got %d", n)
	}
	old, _ := deps.subs.FindByUserID(ctx, nil, "old")
	if old.Tier != model.TierFree || old.PlanLevel != 0 {
		t.Errorf("expired record must fall back to free, got %s/%d", old.Tier, old.PlanLevel)
	}
	if old.IsActive {
		t.Error("a swept record must be deactivated")
	}
	if old.ExpiresAt == nil {
		t.Error("the sweep must leave the original expiry on the record")
	}
	forever, _ := deps.subs.FindByUserID(ctx, nil, "forever")
	if forever.Tier != model.TierEnterprise {
		t.Errorf("unlimited grant must never expire, got %s", forever.Tier)
	}
}
