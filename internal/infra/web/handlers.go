package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"rental-billing/internal/domain"
	"rental-billing/internal/domain/model"
	"rental-billing/internal/infra/logging"
)

// ===== Internal API: checkout =====

type checkoutRequest struct {
	UserID   string `json:"userId"`
	Channel  string `json:"channel"` // desktop|mobile
	Amount   int64  `json:"amount"`
	GoodName string `json:"goodName"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	params, err := s.checkoutUC.Build(r.Context(), model.Channel(req.Channel), req.UserID, req.Amount, req.GoodName)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, params)
}

// ===== Provider callbacks: payments =====

// handleDesktopCallback receives the desktop gateway's form POST. Field names
// follow the provider's desktop integration guide.
func (s *Server) handleDesktopCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.redirectResult(w, r, false, "malformed callback")
		return
	}
	price, _ := strconv.ParseInt(r.PostFormValue("price"), 10, 64)
	cb := &model.GatewayCallback{
		Channel:      model.ChannelDesktop,
		ResultCode:   r.PostFormValue("resultCode"),
		ResultMsg:    r.PostFormValue("resultMsg"),
		OrderID:      r.PostFormValue("orderNumber"),
		AuthToken:    r.PostFormValue("authToken"),
		AuthURL:      r.PostFormValue("authUrl"),
		NetCancelURL: r.PostFormValue("netCancelUrl"),
		IdcName:      r.PostFormValue("idc_name"),
		Price:        price,
		CardApplyNum: r.PostFormValue("cardApplyNum"),
	}
	s.settle(w, r, cb)
}

// handleMobileCallback receives the mobile gateway's form POST. The mobile
// integration uses P_-prefixed fields and signals success with status "00";
// it is normalized to the desktop convention before processing.
func (s *Server) handleMobileCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.redirectResult(w, r, false, "malformed callback")
		return
	}
	code := r.PostFormValue("P_STATUS")
	if code == "00" {
		code = "0000"
	}
	price, _ := strconv.ParseInt(r.PostFormValue("P_AMT"), 10, 64)
	cb := &model.GatewayCallback{
		Channel:      model.ChannelMobile,
		ResultCode:   code,
		ResultMsg:    r.PostFormValue("P_RMESG1"),
		OrderID:      r.PostFormValue("P_OID"),
		AuthToken:    r.PostFormValue("P_TID"),
		AuthURL:      r.PostFormValue("P_REQ_URL"),
		NetCancelURL: r.PostFormValue("P_NETCANCEL_URL"),
		IdcName:      r.PostFormValue("P_NOTI"),
		Price:        price,
	}
	s.settle(w, r, cb)
}

func (s *Server) settle(w http.ResponseWriter, r *http.Request, cb *model.GatewayCallback) {
	ctx := logging.WithOrderID(r.Context(), cb.OrderID)
	res, err := s.settleUC.ProcessCallback(ctx, cb)
	if err != nil && !errors.Is(err, domain.ErrReplayedCallback) {
		logging.With(ctx, s.log).Warn().Err(err).Str("state", string(res.State)).Msg("callback not settled")
	}
	s.redirectResult(w, r, res.State == model.StateSettled, res.Message)
}

// redirectResult bounces the user's browser back to the storefront. The
// gateway drives the browser through our callback URL, so the response must
// be a redirect, not JSON.
func (s *Server) redirectResult(w http.ResponseWriter, r *http.Request, ok bool, msg string) {
	target := s.cfg.Server.FailURL
	if ok {
		target = s.cfg.Server.SuccessURL
	}
	if u, err := url.Parse(target); err == nil {
		q := u.Query()
		q.Set("message", msg)
		u.RawQuery = q.Encode()
		target = u.String()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// ===== Internal API: identity verification =====

type verifyStartRequest struct {
	UserID string `json:"userId"`
	Flavor string `json:"flavor"` // general|realname; defaults to general
}

func (s *Server) handleVerifyRequest(w http.ResponseWriter, r *http.Request) {
	var req verifyStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	flavor := model.FlavorGeneralAuth
	if req.Flavor == string(model.FlavorRealNameCheck) {
		flavor = model.FlavorRealNameCheck
	}
	vr, err := s.verifyUC.Start(r.Context(), flavor, req.UserID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vr)
}

type verifySaveRequest struct {
	UserID       string `json:"userId"`
	UserName     string `json:"userName"`
	UserPhone    string `json:"userPhone"`
	UserBirthday string `json:"userBirthday"`
	UserGender   string `json:"userGender"`
	IsForeign    bool   `json:"isForeign"`
	DI           string `json:"di"`
	CI           string `json:"ci"`
	MTxID        string `json:"mTxId"`
}

func (s *Server) handleVerifySave(w http.ResponseWriter, r *http.Request) {
	var req verifySaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	v := &model.VerificationResult{
		UserID:       req.UserID,
		UserName:     req.UserName,
		UserPhone:    req.UserPhone,
		UserBirthday: req.UserBirthday,
		UserGender:   req.UserGender,
		IsForeign:    req.IsForeign,
		DI:           req.DI,
		CI:           req.CI,
		MTxID:        req.MTxID,
	}
	if err := s.verifyUC.Save(r.Context(), v); err != nil {
		if dup, ok := domain.IsDuplicateVerification(err); ok {
			writeJSON(w, http.StatusConflict, map[string]string{
				"error":     "duplicate verification",
				"ownerName": dup.OwnerName,
				"field":     dup.Field,
			})
			return
		}
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// ===== Provider callbacks: identity verification =====

// handleVerifyCallback handles both the success and fail callback URLs. The
// provider drives a popup through these, so the response is always the relay
// page, never JSON or a redirect.
func (s *Server) handleVerifyCallback(success bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			renderRelay(w, http.StatusBadRequest, relayMessage{
				Outcome: string(model.OutcomeServerError),
				Message: "malformed callback",
			})
			return
		}
		uid := r.URL.Query().Get("uid")
		cb := &model.VerifyCallback{
			Flavor:     model.VerifyFlavor(r.URL.Query().Get("flavor")),
			ResultCode: r.PostFormValue("resultCode"),
			ResultMsg:  r.PostFormValue("resultMsg"),
			MTxID:      r.PostFormValue("mTxId"),
			TxID:       r.PostFormValue("txId"),
			EncName:    r.PostFormValue("userName"),
			EncPhone:   r.PostFormValue("userPhone"),
			EncBirth:   r.PostFormValue("userBirthday"),
			EncGender:  r.PostFormValue("userGender"),
			EncForeign: r.PostFormValue("isForeign"),
			DI:         r.PostFormValue("userDi"),
			CI:         r.PostFormValue("userCi"),
		}
		if cb.Flavor == "" {
			cb.Flavor = model.FlavorGeneralAuth
		}

		if !success {
			s.log.Info().Str("user_id", uid).Str("m_tx_id", cb.MTxID).Str("result_code", cb.ResultCode).Msg("verification fail callback")
			renderRelay(w, http.StatusOK, relayMessage{
				Outcome: string(model.OutcomeInvalidResultCode),
				MTxID:   cb.MTxID,
				Message: cb.ResultMsg,
			})
			return
		}

		v, outcome, err := s.verifyUC.Complete(r.Context(), uid, cb)
		if err != nil {
			msg := relayMessage{Outcome: string(outcome), MTxID: cb.MTxID}
			if dup, ok := domain.IsDuplicateVerification(err); ok {
				msg.OwnerName = dup.OwnerName
			}
			renderRelay(w, http.StatusOK, msg)
			return
		}
		s.log.Info().
			Str("user_id", uid).
			Str("name", logging.Redact(v.UserName, s.cfg.Runtime.Dev)).
			Msg("verification completed")
		renderRelay(w, http.StatusOK, relayMessage{
			Outcome: string(outcome),
			MTxID:   v.MTxID,
		})
	}
}

// ===== Internal API: subscriptions =====

type subscriptionResponse struct {
	UserID      string     `json:"userId"`
	Tier        string     `json:"tier"`
	PlanName    string     `json:"planName"`
	IsActive    bool       `json:"isActive"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"` // absent means unlimited
	TenantLimit int        `json:"tenantLimit"`         // 0 means unlimited
	Premium     bool       `json:"premium"`
}

func (s *Server) subscriptionJSON(sub *model.Subscription) subscriptionResponse {
	meta := s.planUC.Meta(sub.Tier)
	return subscriptionResponse{
		UserID:      sub.UserID,
		Tier:        string(sub.Tier),
		PlanName:    sub.PlanName,
		IsActive:    sub.IsActive,
		ExpiresAt:   sub.ExpiresAt,
		TenantLimit: meta.TenantLimit,
		Premium:     meta.Premium,
	}
}

func (s *Server) handleSubscriptionStatus(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	sub, err := s.planUC.Status(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// No record means the free tier, not an error.
			meta := s.planUC.Meta(model.TierFree)
			writeJSON(w, http.StatusOK, subscriptionResponse{
				UserID:      userID,
				Tier:        string(meta.Tier),
				PlanName:    string(meta.Tier),
				IsActive:    true,
				TenantLimit: meta.TenantLimit,
				Premium:     meta.Premium,
			})
			return
		}
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.subscriptionJSON(sub))
}

type grantRequest struct {
	Tier  string     `json:"tier"`
	Until *time.Time `json:"until,omitempty"` // nil means unlimited
}

func (s *Server) handleSubscriptionGrant(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sub, err := s.planUC.Grant(r.Context(), userID, model.PlanTier(req.Tier), req.Until)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.subscriptionJSON(sub))
}

type pointsPurchaseRequest struct {
	Tier string `json:"tier"`
	Cost int64  `json:"cost,omitempty"` // 0 means the catalog price
}

func (s *Server) handlePointsPurchase(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	var req pointsPurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sub, err := s.planUC.PurchaseWithPoints(r.Context(), userID, model.PlanTier(req.Tier), req.Cost)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientPoints) {
			writeError(w, http.StatusPaymentRequired, "insufficient point balance")
			return
		}
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.subscriptionJSON(sub))
}

// ===== Helpers =====

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps taxonomy errors to HTTP statuses without leaking
// internals.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	default:
		s.log.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
