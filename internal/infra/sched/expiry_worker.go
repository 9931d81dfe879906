package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"rental-billing/internal/infra/metrics"
	"rental-billing/internal/usecase"
)

// ExpiryWorker periodically sweeps expired subscriptions back to the free tier.
type ExpiryWorker struct {
	interval time.Duration
	planUC   usecase.PlanUseCase
	log      *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, planUC usecase.PlanUseCase, logger *zerolog.Logger) *ExpiryWorker {
	l := logger.With().Str("component", "ExpiryWorker").Logger()
	if interval <= 0 {
		interval = time.Hour
	}
	return &ExpiryWorker{interval: interval, planUC: planUC, log: &l}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("starting expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.planUC.SweepExpired(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("expiry sweep error")
			}
			if n > 0 {
				metrics.IncSubscriptionsExpired(n)
				w.log.Info().Int("count", n).Msg("expired subscriptions reset to free")
			}
		}
	}
}
