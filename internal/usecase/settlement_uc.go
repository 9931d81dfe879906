package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"rental-billing/internal/domain"
	"rental-billing/internal/domain/model"
	"rental-billing/internal/domain/ports/adapter"
	"rental-billing/internal/domain/ports/repository"
	"rental-billing/internal/infra/metrics"
)

// Compile-time check
var _ SettlementUseCase = (*settlementUC)(nil)

// CancelQueue enqueues compensating net-cancel requests; the worker
// dispatcher satisfies it. Submit must not block.
type CancelQueue interface {
	SubmitCancel(orderID, authToken, netCancelURL string) error
}

// ReplayGuard answers true exactly once per auth token.
type ReplayGuard interface {
	FirstSeen(ctx context.Context, token string) (bool, error)
}

type SettlementUseCase interface {
	// ProcessCallback drives one gateway callback through the settlement
	// state machine. The returned result is always non-nil and carries a
	// message safe to show in the browser; err carries the taxonomy error
	// for logging and metrics.
	ProcessCallback(ctx context.Context, cb *model.GatewayCallback) (*model.SettlementResult, error)
}

type settlementUC struct {
	orders        repository.OrderMappingRepository
	audit         repository.AuditRepository
	plans         PlanUseCase
	gateway       adapter.ApprovalClient
	cancels       CancelQueue
	replay        ReplayGuard
	currency      string
	allowMismatch bool
	log           *zerolog.Logger
	now           func() time.Time
}

func NewSettlementUseCase(
	orders repository.OrderMappingRepository,
	audit repository.AuditRepository,
	plans PlanUseCase,
	gateway adapter.ApprovalClient,
	cancels CancelQueue,
	replay ReplayGuard,
	currency string,
	allowMismatch bool,
	logger *zerolog.Logger,
) *settlementUC {
	l := logger.With().Str("component", "SettlementUC").Logger()
	return &settlementUC{
		orders:        orders,
		audit:         audit,
		plans:         plans,
		gateway:       gateway,
		cancels:       cancels,
		replay:        replay,
		currency:      currency,
		allowMismatch: allowMismatch,
		log:           &l,
		now:           time.Now,
	}
}

const successCode = "0000"

func (u *settlementUC) ProcessCallback(ctx context.Context, cb *model.GatewayCallback) (*model.SettlementResult, error) {
	log := u.log.With().Str("order_id", cb.OrderID).Str("idc", cb.IdcName).Str("channel", string(cb.Channel)).Logger()

	// RECEIVED
	if cb.OrderID == "" || cb.AuthToken == "" {
		res := u.terminal(ctx, cb, nil, model.StateRejected, "", "malformed callback")
		return res, fmt.Errorf("%w: missing oid or authToken", domain.ErrValidation)
	}

	// Provider already failed the auth leg: never reach the approval endpoint.
	if cb.ResultCode != successCode {
		log.Info().Str("result_code", cb.ResultCode).Msg("gateway rejected auth leg")
		res := u.terminal(ctx, cb, nil, model.StateRejected, "", cb.ResultMsg)
		return res, fmt.Errorf("%w: code %s", domain.ErrGatewayRejected, cb.ResultCode)
	}

	// Replay defense: a re-delivered callback is answered without a second
	// approval call. Guard outages degrade to processing (logged).
	if u.replay != nil {
		first, err := u.replay.FirstSeen(ctx, cb.AuthToken)
		if err != nil {
			log.Warn().Err(err).Msg("replay guard unavailable; continuing degraded")
		}
		if !first {
			return u.replayed(ctx, cb, log), domain.ErrReplayedCallback
		}
	}

	// AUTH_VALIDATED: resolve the expected endpoints for the data center and
	// compare against what the callback supplied. Strict by default; the
	// relaxed mode exists for documented data-center failover only.
	ep, known := u.gateway.Endpoints(cb.IdcName)
	if !known {
		if !u.allowMismatch {
			res := u.terminal(ctx, cb, nil, model.StateRejected, "", "unrecognized gateway data center")
			return res, fmt.Errorf("%w: unknown idc %q", domain.ErrEndpointMismatch, cb.IdcName)
		}
		log.Warn().Str("auth_url", cb.AuthURL).Msg("unknown idc; trusting callback URLs")
		ep = adapter.GatewayEndpoints{AuthURL: cb.AuthURL, NetCancelURL: cb.NetCancelURL}
	} else if cb.AuthURL != ep.AuthURL {
		if !u.allowMismatch {
			res := u.terminal(ctx, cb, nil, model.StateRejected, "", "gateway endpoint mismatch")
			return res, fmt.Errorf("%w: got %q want %q", domain.ErrEndpointMismatch, cb.AuthURL, ep.AuthURL)
		}
		log.Warn().Str("got", cb.AuthURL).Str("want", ep.AuthURL).Msg("authUrl mismatch tolerated; using table URL")
	}

	// Approval: a separate signed request with a fresh timestamp. The table
	// URL is always preferred over the callback-supplied one.
	start := u.now()
	approval, err := u.gateway.Approve(ctx, ep.AuthURL, cb.AuthToken)
	metrics.ObserveApprovalLatency(u.now().Sub(start).Milliseconds())
	if err != nil || !approval.Success() {
		// APPROVAL_FAILED: a timeout or transport failure counts as failure
		// and still triggers the compensating cancel.
		state := model.StateApprovalFailed
		msg := "payment approval failed"
		if err != nil {
			log.Error().Err(err).Msg("approval call failed")
		} else {
			log.Warn().Str("result_code", approval.ResultCode).Str("result_msg", approval.ResultMsg).Msg("approval rejected")
			msg = approval.ResultMsg
		}

		if cb.NetCancelURL != "" && cb.NetCancelURL == ep.NetCancelURL {
			if qerr := u.cancels.SubmitCancel(cb.OrderID, cb.AuthToken, ep.NetCancelURL); qerr != nil {
				log.Error().Err(qerr).Msg("net-cancel enqueue failed")
				state = model.StateNetCancelFailed
			} else {
				state = model.StateNetCancelPending
			}
		} else {
			log.Warn().Str("net_cancel_url", cb.NetCancelURL).Msg("no matching net-cancel URL; skipping compensation")
		}

		res := u.terminal(ctx, cb, approval, state, "", msg)
		if err != nil {
			return res, fmt.Errorf("%w: %v", domain.ErrApprovalFailed, err)
		}
		return res, fmt.Errorf("%w: code %s", domain.ErrApprovalFailed, approval.ResultCode)
	}

	// SETTLED
	amount := approval.ApprovedAmount
	if amount == 0 {
		amount = cb.Price
	}

	result := &model.SettlementResult{
		State:   model.StateSettled,
		OrderID: cb.OrderID,
		TID:     approval.TID,
		Amount:  amount,
		Message: "payment completed",
	}

	mapping, err := u.orders.FindByOrderID(ctx, nil, cb.OrderID)
	userID := ""
	switch {
	case err == nil:
		userID = mapping.UserID
		sub, gerr := u.plans.GrantForPayment(ctx, userID, cb.Channel, amount, cb.OrderID, approval.TID)
		if gerr != nil {
			log.Error().Err(gerr).Str("user_id", userID).Msg("plan grant failed after settled payment")
		} else {
			result.Tier = sub.Tier
			result.PlanName = sub.PlanName
		}
	case errors.Is(err, domain.ErrNotFound):
		// Degraded path: the payment is still recorded, the subscription
		// update is skipped.
		metrics.IncStorageDegraded("order_mapping_lookup")
		log.Warn().Msg("order mapping missing at callback; skipping subscription update")
	default:
		log.Error().Err(err).Msg("order mapping lookup failed")
	}

	u.appendAudit(ctx, cb, approval, model.StateSettled, userID)
	metrics.IncCallback(string(model.StateSettled), string(cb.Channel))
	metrics.AddPaymentRevenue(u.currency, amount)
	log.Info().Str("tid", approval.TID).Int64("amount", amount).Msg("payment settled")
	return result, nil
}

// replayed answers a duplicate delivery from the audit trail. The first
// delivery's terminal state is authoritative: a redelivery of a callback whose
// approval failed must not read as settled, or the browser lands on the
// success page for a cancelled payment.
func (u *settlementUC) replayed(ctx context.Context, cb *model.GatewayCallback, log zerolog.Logger) *model.SettlementResult {
	log.Warn().Msg("duplicate callback suppressed")
	prior, err := u.audit.FindPaymentByOrderID(ctx, nil, cb.OrderID)
	if err != nil {
		// No trail to consult; never claim success for an unconfirmed outcome.
		metrics.IncStorageDegraded("payment_audit_lookup")
		log.Error().Err(err).Msg("no audit trail for replayed callback")
		return &model.SettlementResult{
			State:   model.StateRejected,
			OrderID: cb.OrderID,
			Message: "payment could not be confirmed",
		}
	}
	msg := "payment already processed"
	if prior.State != model.StateSettled {
		msg = "payment was not completed"
	}
	return &model.SettlementResult{
		State:   prior.State,
		OrderID: cb.OrderID,
		TID:     prior.TID,
		Amount:  prior.Amount,
		Message: msg,
	}
}

// terminal records a failure branch: audit row, metric, result.
func (u *settlementUC) terminal(ctx context.Context, cb *model.GatewayCallback, approval *model.ApprovalResult, state model.SettlementState, userID, msg string) *model.SettlementResult {
	u.appendAudit(ctx, cb, approval, state, userID)
	metrics.IncCallback(string(state), string(cb.Channel))
	if msg == "" {
		msg = "payment could not be completed"
	}
	return &model.SettlementResult{
		State:   state,
		OrderID: cb.OrderID,
		Message: msg,
	}
}

// appendAudit writes the unconditional payment audit record. Audit failures
// are logged and counted; they never change the user-visible outcome.
func (u *settlementUC) appendAudit(ctx context.Context, cb *model.GatewayCallback, approval *model.ApprovalResult, state model.SettlementState, userID string) {
	a := &model.PaymentAudit{
		ID:         uuid.NewString(),
		OrderID:    cb.OrderID,
		UserID:     userID,
		Channel:    cb.Channel,
		Amount:     cb.Price,
		State:      state,
		ResultCode: cb.ResultCode,
		CreatedAt:  u.now(),
	}
	if approval != nil {
		a.TID = approval.TID
		a.PayMethod = approval.PayMethod
		a.ResultCode = approval.ResultCode
		if approval.ApprovedAmount > 0 {
			a.Amount = approval.ApprovedAmount
		}
		if raw, err := json.Marshal(approval); err == nil {
			a.RawResult = string(raw)
		}
	}
	if err := u.audit.AppendPayment(ctx, nil, a); err != nil {
		metrics.IncStorageDegraded("payment_audit")
		u.log.Error().Err(err).Str("order_id", cb.OrderID).Msg("payment audit write failed")
	}
}
