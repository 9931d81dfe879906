package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound          = errors.New("entity not found")
	ErrAlreadyExists     = errors.New("entity already exists")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrValidation        = errors.New("request validation failed")
	ErrSignatureMismatch = errors.New("signature mismatch")
	ErrGatewayRejected   = errors.New("gateway rejected transaction")
	ErrApprovalFailed    = errors.New("gateway approval failed")
	ErrEndpointMismatch  = errors.New("callback endpoint does not match data-center table")
	ErrDecryption        = errors.New("payload decryption failed")
	ErrInvalidResultCode = errors.New("provider returned non-success result code")
	ErrStorageDegraded   = errors.New("non-critical storage write failed")
	ErrReplayedCallback  = errors.New("callback already processed")
	ErrInsufficientPoints = errors.New("insufficient point balance")

	// Repository plumbing errors
	ErrOperationFailed    = errors.New("storage operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid transaction executor")
)

// DuplicateVerificationError reports that a DI or CI is already bound to a
// different account. OwnerName is surfaced to the end user for disambiguation.
type DuplicateVerificationError struct {
	OwnerName string
	Field     string // "di" or "ci"
}

func (e *DuplicateVerificationError) Error() string {
	return fmt.Sprintf("identity already verified by another account (%s match)", e.Field)
}

// IsDuplicateVerification reports whether err carries a duplicate-verification conflict.
func IsDuplicateVerification(err error) (*DuplicateVerificationError, bool) {
	var d *DuplicateVerificationError
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}
