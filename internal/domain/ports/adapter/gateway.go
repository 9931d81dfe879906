package adapter

import (
	"context"

	"rental-billing/internal/domain/model"
)

// GatewayEndpoints is the expected endpoint pair for one data center.
type GatewayEndpoints struct {
	AuthURL      string
	NetCancelURL string
}

// ApprovalClient is the port for the gateway's server-to-server leg: the final
// approval call after a successful client-side auth, and the compensating
// net-cancel when approval fails after auth succeeded.
type ApprovalClient interface {
	Name() string

	// Endpoints resolves the expected URLs for a data-center identifier from
	// the static table. ok is false for unknown identifiers.
	Endpoints(idc string) (GatewayEndpoints, bool)

	// Approve issues the signed final-approval request. The signature inside
	// uses a fresh timestamp; it is a separate signed request from the
	// original checkout.
	Approve(ctx context.Context, authURL, authToken string) (*model.ApprovalResult, error)

	// NetCancel issues the compensating cancellation with the same auth token.
	NetCancel(ctx context.Context, netCancelURL, authToken string) error
}

// IdentityProvider is the port for the identity-verification provider.
type IdentityProvider interface {
	// BuildRequest generates the transaction id and auth hash for a new
	// verification attempt.
	BuildRequest(flavor model.VerifyFlavor, userID string) (*model.VerifyRequest, error)

	// DecodeResult validates the callback result code and decrypts the
	// encrypted personal-data fields. DI/CI are passed through untouched when
	// the flavor delivers them in the clear.
	DecodeResult(cb *model.VerifyCallback) (*model.VerificationResult, error)
}
