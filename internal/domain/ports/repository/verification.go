package repository

import (
	"context"

	"rental-billing/internal/domain/model"
)

// VerificationRepository keys verification records by user id and supports the
// duplicate-person lookups (by DI, then by CI) used before every save.
type VerificationRepository interface {
	Save(ctx context.Context, tx Tx, v *model.VerificationResult) error
	FindByUserID(ctx context.Context, tx Tx, userID string) (*model.VerificationResult, error)
	FindByDI(ctx context.Context, tx Tx, di string) (*model.VerificationResult, error)
	FindByCI(ctx context.Context, tx Tx, ci string) (*model.VerificationResult, error)
}
