package model

import (
	"time"

	"rental-billing/internal/domain"
)

// Subscription is the per-user plan record. ExpiresAt nil means an unlimited
// grant; the expiry sweep resets active records with a past expiry to the free
// tier.
type Subscription struct {
	UserID    string
	Tier      PlanTier
	PlanName  string
	PlanLevel int
	ExpiresAt *time.Time
	IsActive  bool
	Amount    int64
	OrderID   string
	UpdatedAt time.Time
}

// Unlimited reports whether the record is a no-expiry grant.
func (s *Subscription) Unlimited() bool { return s != nil && s.ExpiresAt == nil }

// Expired reports whether the record should be swept back to the free tier.
func (s *Subscription) Expired(now time.Time) bool {
	return s != nil && s.IsActive && s.ExpiresAt != nil && s.ExpiresAt.Before(now)
}

// NewPaidSubscription builds the record granted by a settled payment. Paid
// grants run for one calendar month from the settlement instant.
func NewPaidSubscription(userID string, band PriceBand, amount int64, orderID string, now time.Time) (*Subscription, error) {
	if userID == "" || orderID == "" || amount <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	expiry := now.AddDate(0, 1, 0)
	return &Subscription{
		UserID:    userID,
		Tier:      band.Tier,
		PlanName:  band.Name,
		PlanLevel: band.Level,
		ExpiresAt: &expiry,
		IsActive:  true,
		Amount:    amount,
		OrderID:   orderID,
		UpdatedAt: now,
	}, nil
}

// NewGrantedSubscription builds an explicit (admin) grant. A nil until means
// the grant never expires.
func NewGrantedSubscription(userID string, tier PlanTier, until *time.Time, now time.Time) (*Subscription, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	meta := MetaFor(tier)
	return &Subscription{
		UserID:    userID,
		Tier:      meta.Tier,
		PlanName:  string(meta.Tier),
		ExpiresAt: until,
		IsActive:  true,
		UpdatedAt: now,
	}, nil
}

// PlanAssignment is the append-only trail of every tier change.
type PlanAssignment struct {
	ID        string
	UserID    string
	Tier      PlanTier
	Source    string // "payment" | "points" | "grant" | "expiry"
	OrderID   string
	CreatedAt time.Time
}

// Purchase records a completed plan purchase (money or points).
type Purchase struct {
	ID        string
	UserID    string
	Tier      PlanTier
	OrderID   string
	TID       string
	Amount    int64
	Points    int64
	CreatedAt time.Time
}
