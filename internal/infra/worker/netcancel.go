package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"rental-billing/internal/domain/model"
	"rental-billing/internal/domain/ports/adapter"
	"rental-billing/internal/domain/ports/repository"
	"rental-billing/internal/infra/metrics"
)

// NetCancelTask is one compensating cancellation to issue against the gateway.
type NetCancelTask struct {
	OrderID      string
	AuthToken    string
	NetCancelURL string
}

// NetCancelFailure pairs a task with the error it produced. Failures flow on
// their own channel so operators can alert on repeated cancellation failures
// instead of having them swallowed inline.
type NetCancelFailure struct {
	Task NetCancelTask
	Err  error
}

// CancelRecorder persists the terminal outcome of one cancellation. The
// payment audit repository satisfies it.
type CancelRecorder interface {
	AppendPayment(ctx context.Context, tx repository.Tx, a *model.PaymentAudit) error
}

// NetCancelDispatcher runs net-cancel requests off the callback path. The
// user-facing response never waits on a cancellation; a full queue drops the
// task (counted) rather than applying back-pressure to the handler. Each
// finished task is appended to the audit trail, so an order whose callback
// ended at NET_CANCEL_ATTEMPTED later shows NET_CANCELLED or NET_CANCEL_FAILED.
type NetCancelDispatcher struct {
	client   adapter.ApprovalClient
	audit    CancelRecorder
	jobs     chan NetCancelTask
	failures chan NetCancelFailure
	timeout  time.Duration
	workers  int
	wg       sync.WaitGroup
	log      *zerolog.Logger
}

func NewNetCancelDispatcher(client adapter.ApprovalClient, audit CancelRecorder, workers, queueSize int, timeout time.Duration, logger *zerolog.Logger) *NetCancelDispatcher {
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	l := logger.With().Str("component", "NetCancelDispatcher").Logger()
	return &NetCancelDispatcher{
		client:   client,
		audit:    audit,
		jobs:     make(chan NetCancelTask, queueSize),
		failures: make(chan NetCancelFailure, queueSize),
		timeout:  timeout,
		workers:  workers,
		log:      &l,
	}
}

// Failures exposes the error channel for external drains (alerting hooks).
func (d *NetCancelDispatcher) Failures() <-chan NetCancelFailure { return d.failures }

func (d *NetCancelDispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case task := <-d.jobs:
					d.run(ctx, task)
				}
			}
		}()
	}

	// Default drain: log every failure. Callers reading Failures() directly
	// race with this drain, which is fine; each failure is delivered once.
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case f := <-d.failures:
				d.log.Error().Err(f.Err).
					Str("order_id", f.Task.OrderID).
					Str("net_cancel_url", f.Task.NetCancelURL).
					Msg("net-cancel failed")
			}
		}
	}()
}

func (d *NetCancelDispatcher) Stop() { d.wg.Wait() }

// SubmitCancel satisfies the settlement use case's queue port.
func (d *NetCancelDispatcher) SubmitCancel(orderID, authToken, netCancelURL string) error {
	return d.Submit(NetCancelTask{OrderID: orderID, AuthToken: authToken, NetCancelURL: netCancelURL})
}

// Submit enqueues a cancellation. Returns an error when the queue is full.
func (d *NetCancelDispatcher) Submit(task NetCancelTask) error {
	select {
	case d.jobs <- task:
		return nil
	default:
		metrics.IncNetCancel("dropped")
		return errors.New("net-cancel queue full")
	}
}

func (d *NetCancelDispatcher) run(ctx context.Context, task NetCancelTask) {
	cctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.client.NetCancel(cctx, task.NetCancelURL, task.AuthToken); err != nil {
		metrics.IncNetCancel("failed")
		d.record(ctx, task, model.StateNetCancelFailed, err)
		select {
		case d.failures <- NetCancelFailure{Task: task, Err: err}:
		default:
			d.log.Error().Err(err).Str("order_id", task.OrderID).Msg("net-cancel failed (failure channel full)")
		}
		return
	}
	metrics.IncNetCancel("ok")
	d.record(ctx, task, model.StateNetCancelled, nil)
	d.log.Info().Str("order_id", task.OrderID).Msg("net-cancel issued")
}

// record appends the cancellation outcome. Uses the worker context, not the
// per-task one, so a task that failed by timeout can still be recorded.
func (d *NetCancelDispatcher) record(ctx context.Context, task NetCancelTask, state model.SettlementState, cause error) {
	if d.audit == nil {
		return
	}
	a := &model.PaymentAudit{
		ID:        uuid.NewString(),
		OrderID:   task.OrderID,
		State:     state,
		CreatedAt: time.Now(),
	}
	if cause != nil {
		a.RawResult = cause.Error()
	}
	if err := d.audit.AppendPayment(ctx, nil, a); err != nil {
		metrics.IncStorageDegraded("net_cancel_audit")
		d.log.Error().Err(err).Str("order_id", task.OrderID).Msg("net-cancel audit write failed")
	}
}
