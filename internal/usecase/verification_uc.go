package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"rental-billing/internal/domain"
	"rental-billing/internal/domain/model"
	"rental-billing/internal/domain/ports/adapter"
	"rental-billing/internal/domain/ports/repository"
	"rental-billing/internal/infra/metrics"
)

// Compile-time check
var _ VerificationUseCase = (*verificationUC)(nil)

type VerificationUseCase interface {
	// Start builds the provider parameter bag for a new verification attempt.
	Start(ctx context.Context, flavor model.VerifyFlavor, userID string) (*model.VerifyRequest, error)
	// Complete decodes a provider callback, runs the duplicate check and
	// persists the result. The outcome is always classified.
	Complete(ctx context.Context, userID string, cb *model.VerifyCallback) (*model.VerificationResult, model.VerifyOutcome, error)
	// Save persists a decoded result after the duplicate check; exposed for
	// the internal REST save endpoint.
	Save(ctx context.Context, v *model.VerificationResult) error
	FindByUserID(ctx context.Context, userID string) (*model.VerificationResult, error)
}

type verificationUC struct {
	provider adapter.IdentityProvider
	repo     repository.VerificationRepository
	log      *zerolog.Logger
	now      func() time.Time
}

func NewVerificationUseCase(provider adapter.IdentityProvider, repo repository.VerificationRepository, logger *zerolog.Logger) *verificationUC {
	l := logger.With().Str("component", "VerificationUC").Logger()
	return &verificationUC{provider: provider, repo: repo, log: &l, now: time.Now}
}

func (u *verificationUC) Start(ctx context.Context, flavor model.VerifyFlavor, userID string) (*model.VerifyRequest, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userID is required", domain.ErrValidation)
	}
	req, err := u.provider.BuildRequest(flavor, userID)
	if err != nil {
		return nil, err
	}
	u.log.Info().Str("user_id", userID).Str("m_tx_id", req.MTxID).Str("flavor", string(flavor)).Msg("verification started")
	return req, nil
}

func (u *verificationUC) Complete(ctx context.Context, userID string, cb *model.VerifyCallback) (*model.VerificationResult, model.VerifyOutcome, error) {
	flavor := string(model.FlavorGeneralAuth)
	if cb != nil {
		flavor = string(cb.Flavor)
	}

	v, err := u.provider.DecodeResult(cb)
	if err != nil {
		outcome := classify(err)
		metrics.IncVerification(string(outcome), flavor)
		u.log.Warn().Err(err).Str("user_id", userID).Str("outcome", string(outcome)).Msg("verification decode failed")
		return nil, outcome, err
	}
	v.UserID = userID

	if err := u.Save(ctx, v); err != nil {
		outcome := classify(err)
		metrics.IncVerification(string(outcome), flavor)
		return nil, outcome, err
	}

	metrics.IncVerification(string(model.OutcomeSuccess), flavor)
	u.log.Info().Str("user_id", userID).Str("m_tx_id", v.MTxID).Msg("verification completed")
	return v, model.OutcomeSuccess, nil
}

// Save rejects a DI or CI already bound to a different account; the same
// account re-verifying is an idempotent update.
func (u *verificationUC) Save(ctx context.Context, v *model.VerificationResult) error {
	if v == nil || v.UserID == "" || v.DI == "" {
		return fmt.Errorf("%w: userID and DI are required", domain.ErrValidation)
	}

	if existing, err := u.repo.FindByDI(ctx, nil, v.DI); err == nil {
		if existing.UserID != v.UserID {
			return &domain.DuplicateVerificationError{OwnerName: existing.UserName, Field: "di"}
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("duplicate check by di: %w", err)
	}

	if v.CI != "" {
		if existing, err := u.repo.FindByCI(ctx, nil, v.CI); err == nil {
			if existing.UserID != v.UserID {
				return &domain.DuplicateVerificationError{OwnerName: existing.UserName, Field: "ci"}
			}
		} else if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("duplicate check by ci: %w", err)
		}
	}

	if v.VerifiedAt.IsZero() {
		v.VerifiedAt = u.now()
	}
	if err := u.repo.Save(ctx, nil, v); err != nil {
		return fmt.Errorf("save verification: %w", err)
	}
	return nil
}

func (u *verificationUC) FindByUserID(ctx context.Context, userID string) (*model.VerificationResult, error) {
	return u.repo.FindByUserID(ctx, nil, userID)
}

func classify(err error) model.VerifyOutcome {
	switch {
	case errors.Is(err, domain.ErrInvalidResultCode):
		return model.OutcomeInvalidResultCode
	case errors.Is(err, domain.ErrDecryption):
		return model.OutcomeDecryptError
	default:
		if _, ok := domain.IsDuplicateVerification(err); ok {
			return model.OutcomeDuplicateVerification
		}
		return model.OutcomeServerError
	}
}
