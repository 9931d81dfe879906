package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"rental-billing/internal/domain"
	"rental-billing/internal/domain/model"
	"rental-billing/internal/domain/ports/repository"
	"rental-billing/internal/infra/metrics"
	"rental-billing/internal/infra/payment"
	"rental-billing/internal/infra/security"
)

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

// orderPrefix namespaces our order ids at the gateway.
const orderPrefix = "RT"

type CheckoutUseCase interface {
	// Build assembles the signed parameter bag for the gateway's client-side
	// widget and records the orderID→userID mapping.
	Build(ctx context.Context, channel model.Channel, userID string, amount int64, goodName string) (*model.CheckoutParams, error)
}

type checkoutUC struct {
	orders    repository.OrderMappingRepository
	mid       string
	mobileMid string
	signKey   string
	hashKey   string
	currency  string
	log       *zerolog.Logger
	now       func() time.Time
}

func NewCheckoutUseCase(orders repository.OrderMappingRepository, mid, mobileMid, signKey, hashKey, currency string, logger *zerolog.Logger) *checkoutUC {
	l := logger.With().Str("component", "CheckoutUC").Logger()
	if mobileMid == "" {
		mobileMid = mid
	}
	return &checkoutUC{
		orders:    orders,
		mid:       mid,
		mobileMid: mobileMid,
		signKey:   signKey,
		hashKey:   hashKey,
		currency:  currency,
		log:       &l,
		now:       time.Now,
	}
}

// NewOrderID builds the gateway order id: namespace tag + first 6 hex chars of
// SHA-256(userID) + millisecond timestamp. Collisions would merge two
// unrelated purchases at callback lookup, so the millisecond clock plus the
// user-hash prefix keeps them overwhelmingly improbable.
func NewOrderID(userID string, now time.Time) string {
	return orderPrefix + security.SHA256Hex(userID)[:6] + strconv.FormatInt(now.UnixMilli(), 10)
}

func (u *checkoutUC) Build(ctx context.Context, channel model.Channel, userID string, amount int64, goodName string) (*model.CheckoutParams, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userID is required", domain.ErrValidation)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be a positive integer", domain.ErrValidation)
	}
	if goodName == "" {
		return nil, fmt.Errorf("%w: goodName is required", domain.ErrValidation)
	}
	if channel != model.ChannelDesktop && channel != model.ChannelMobile {
		return nil, fmt.Errorf("%w: unknown channel %q", domain.ErrValidation, channel)
	}

	now := u.now()
	ts := now.UnixMilli()
	oid := NewOrderID(userID, now)

	params := &model.CheckoutParams{
		Channel:   channel,
		OrderID:   oid,
		Price:     amount,
		Timestamp: ts,
		Currency:  u.currency,
		GoodName:  goodName,
		BuyerID:   userID,
	}
	switch channel {
	case model.ChannelDesktop:
		params.MerchantID = u.mid
		params.Signature = payment.DesktopSignature(oid, amount, ts)
		params.Verification = payment.DesktopVerification(oid, amount, u.signKey, ts)
		params.MKey = payment.MKey(u.signKey)
	case model.ChannelMobile:
		// The mobile integration carries no signature fields; hashdata is the
		// only digest the gateway checks on this channel.
		params.MerchantID = u.mobileMid
		params.HashData = payment.MobileHashData(u.mobileMid, oid, amount, ts, u.hashKey)
	}

	// The callback has a fallback path when the mapping is missing, so a
	// failed write degrades instead of aborting the checkout.
	mapping := &model.OrderMapping{
		OrderID:   oid,
		UserID:    userID,
		Channel:   channel,
		Amount:    amount,
		GoodName:  goodName,
		CreatedAt: now,
	}
	if err := u.orders.Save(ctx, nil, mapping); err != nil {
		metrics.IncStorageDegraded("order_mapping")
		u.log.Warn().Err(err).Str("order_id", oid).Msg("order mapping write failed; continuing degraded")
	}

	return params, nil
}
