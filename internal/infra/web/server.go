package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"rental-billing/internal/config"
	"rental-billing/internal/infra/logging"
	"rental-billing/internal/usecase"
)

// Server exposes the provider-facing callback surface and the internal REST
// API on one listener. Internal routes sit behind the JWT guard; provider
// callback routes do not (the gateway cannot authenticate with us).
type Server struct {
	cfg        *config.Config
	checkoutUC usecase.CheckoutUseCase
	settleUC   usecase.SettlementUseCase
	verifyUC   usecase.VerificationUseCase
	planUC     usecase.PlanUseCase
	auth       *AuthManager
	log        *zerolog.Logger
	server     *http.Server
}

func NewServer(
	cfg *config.Config,
	checkoutUC usecase.CheckoutUseCase,
	settleUC usecase.SettlementUseCase,
	verifyUC usecase.VerificationUseCase,
	planUC usecase.PlanUseCase,
	auth *AuthManager,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "web").Logger()
	return &Server{
		cfg:        cfg,
		checkoutUC: checkoutUC,
		settleUC:   settleUC,
		verifyUC:   verifyUC,
		planUC:     planUC,
		auth:       auth,
		log:        &l,
	}
}

// Routes builds the chi router; exported for handler tests.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(traceContext)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Provider-facing, form-encoded callbacks.
	r.Post("/pay/callback", s.handleDesktopCallback)
	r.Post("/pay/callback/mobile", s.handleMobileCallback)
	r.Post("/verify/callback/success", s.handleVerifyCallback(true))
	r.Post("/verify/callback/fail", s.handleVerifyCallback(false))

	// Internal REST surface.
	r.Group(func(r chi.Router) {
		r.Use(s.auth.Guard)
		r.Post("/api/v1/payments/checkout", s.handleCheckout)
		r.Post("/api/v1/verifications/request", s.handleVerifyRequest)
		r.Post("/api/v1/verifications", s.handleVerifySave)
		r.Get("/api/v1/subscriptions/{userID}", s.handleSubscriptionStatus)
		r.Post("/api/v1/subscriptions/{userID}/grant", s.handleSubscriptionGrant)
		r.Post("/api/v1/subscriptions/{userID}/points-purchase", s.handlePointsPurchase)
	})

	return r
}

// traceContext copies chi's request id into the logging context, so every log
// line emitted under one request carries the same trace_id.
func traceContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithTraceID(r.Context(), middleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.Routes(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}
	s.log.Info().Int("port", s.cfg.Server.Port).Msg("http server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
