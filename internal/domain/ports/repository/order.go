package repository

import (
	"context"

	"rental-billing/internal/domain/model"
)

// OrderMappingRepository persists orderID→userID mappings. Save happens before
// the gateway redirect; FindByOrderID happens at callback time and must be
// idempotent (read-only, repeatable).
type OrderMappingRepository interface {
	Save(ctx context.Context, tx Tx, m *model.OrderMapping) error
	FindByOrderID(ctx context.Context, tx Tx, orderID string) (*model.OrderMapping, error)
}
