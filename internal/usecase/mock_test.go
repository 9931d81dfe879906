//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"rental-billing/internal/domain"
	"rental-billing/internal/domain/model"
	"rental-billing/internal/domain/ports/adapter"
	"rental-billing/internal/domain/ports/repository"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// ---- In-memory order mapping repository ----

type MockOrderRepo struct {
	mu          sync.RWMutex
	store       map[string]*model.OrderMapping
	SaveFunc    func(ctx context.Context, tx repository.Tx, m *model.OrderMapping) error
	FindByIDErr error
}

func NewMockOrderRepo() *MockOrderRepo {
	return &MockOrderRepo{store: make(map[string]*model.OrderMapping)}
}

var _ repository.OrderMappingRepository = (*MockOrderRepo)(nil)

func (m *MockOrderRepo) Save(ctx context.Context, tx repository.Tx, om *model.OrderMapping) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, om)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *om
	m.store[om.OrderID] = &cp
	return nil
}

func (m *MockOrderRepo) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.OrderMapping, error) {
	if m.FindByIDErr != nil {
		return nil, m.FindByIDErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	om, ok := m.store[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *om
	return &cp, nil
}

// ---- In-memory subscription repository ----

type MockSubscriptionRepo struct {
	mu         sync.RWMutex
	store      map[string]*model.Subscription
	UpsertFunc func(ctx context.Context, tx repository.Tx, s *model.Subscription) error
	ExpireFunc func(ctx context.Context, tx repository.Tx, now time.Time) (int, error)
}

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{store: make(map[string]*model.Subscription)}
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func (m *MockSubscriptionRepo) Upsert(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, tx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.store[s.UserID] = &cp
	return nil
}

func (m *MockSubscriptionRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.store[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MockSubscriptionRepo) ExpireDue(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	if m.ExpireFunc != nil {
		return m.ExpireFunc(ctx, tx, now)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	// Mirrors the SQL sweep: tier reset, record deactivated, the original
	// expiry left on the row.
	for _, s := range m.store {
		if s.Expired(now) {
			s.Tier = model.TierFree
			s.PlanName = string(model.TierFree)
			s.PlanLevel = 0
			s.IsActive = false
			s.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

// ---- In-memory point repository ----

type MockPointRepo struct {
	mu        sync.RWMutex
	balances  map[string]int64
	DebitFunc func(ctx context.Context, tx repository.Tx, userID string, points int64) error
}

func NewMockPointRepo() *MockPointRepo {
	return &MockPointRepo{balances: make(map[string]int64)}
}

var _ repository.PointRepository = (*MockPointRepo)(nil)

func (m *MockPointRepo) Balance(ctx context.Context, tx repository.Tx, userID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balances[userID], nil
}

func (m *MockPointRepo) Debit(ctx context.Context, tx repository.Tx, userID string, points int64) error {
	if m.DebitFunc != nil {
		return m.DebitFunc(ctx, tx, userID, points)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances[userID] < points {
		return domain.ErrInsufficientPoints
	}
	m.balances[userID] -= points
	return nil
}

func (m *MockPointRepo) Credit(ctx context.Context, tx repository.Tx, userID string, points int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[userID] += points
	return nil
}

// ---- Recording audit repository ----

type MockAuditRepo struct {
	mu                 sync.Mutex
	Payments           []*model.PaymentAudit
	Purchases          []*model.Purchase
	Assignments        []*model.PlanAssignment
	AppendPaymentFunc  func(ctx context.Context, tx repository.Tx, a *model.PaymentAudit) error
	AppendPurchaseFunc func(ctx context.Context, tx repository.Tx, p *model.Purchase) error
}

func NewMockAuditRepo() *MockAuditRepo { return &MockAuditRepo{} }

var _ repository.AuditRepository = (*MockAuditRepo)(nil)

func (m *MockAuditRepo) AppendPayment(ctx context.Context, tx repository.Tx, a *model.PaymentAudit) error {
	if m.AppendPaymentFunc != nil {
		return m.AppendPaymentFunc(ctx, tx, a)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.Payments = append(m.Payments, &cp)
	return nil
}

func (m *MockAuditRepo) AppendPurchase(ctx context.Context, tx repository.Tx, p *model.Purchase) error {
	if m.AppendPurchaseFunc != nil {
		return m.AppendPurchaseFunc(ctx, tx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.Purchases = append(m.Purchases, &cp)
	return nil
}

func (m *MockAuditRepo) AppendPlanAssignment(ctx context.Context, tx repository.Tx, pa *model.PlanAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *pa
	m.Assignments = append(m.Assignments, &cp)
	return nil
}

func (m *MockAuditRepo) FindPaymentByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.PaymentAudit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Latest row wins, matching the SQL ORDER BY created_at DESC.
	for i := len(m.Payments) - 1; i >= 0; i-- {
		if m.Payments[i].OrderID == orderID {
			cp := *m.Payments[i]
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ---- Transaction manager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
	Calls      int
}

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs the function immediately with NoTX by default. Assign WithTxFunc
// to verify transactional behavior.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.Calls++
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// ---- Gateway approval client ----

type MockApprovalClient struct {
	mu             sync.Mutex
	EndpointsFunc  func(idc string) (adapter.GatewayEndpoints, bool)
	ApproveFunc    func(ctx context.Context, authURL, authToken string) (*model.ApprovalResult, error)
	NetCancelFunc  func(ctx context.Context, netCancelURL, authToken string) error
	ApproveCalls   int
	NetCancelCalls int
}

var _ adapter.ApprovalClient = (*MockApprovalClient)(nil)

func (m *MockApprovalClient) Name() string { return "mock" }

func (m *MockApprovalClient) Endpoints(idc string) (adapter.GatewayEndpoints, bool) {
	if m.EndpointsFunc != nil {
		return m.EndpointsFunc(idc)
	}
	if idc == "fc" {
		return adapter.GatewayEndpoints{
			AuthURL:      "https://fc.gateway.test/auth",
			NetCancelURL: "https://fc.gateway.test/cancel",
		}, true
	}
	return adapter.GatewayEndpoints{}, false
}

func (m *MockApprovalClient) Approve(ctx context.Context, authURL, authToken string) (*model.ApprovalResult, error) {
	m.mu.Lock()
	m.ApproveCalls++
	m.mu.Unlock()
	if m.ApproveFunc != nil {
		return m.ApproveFunc(ctx, authURL, authToken)
	}
	return &model.ApprovalResult{ResultCode: "0000", TID: "tid-1"}, nil
}

func (m *MockApprovalClient) NetCancel(ctx context.Context, netCancelURL, authToken string) error {
	m.mu.Lock()
	m.NetCancelCalls++
	m.mu.Unlock()
	if m.NetCancelFunc != nil {
		return m.NetCancelFunc(ctx, netCancelURL, authToken)
	}
	return nil
}

// ---- Net-cancel queue ----

type MockCancelQueue struct {
	mu         sync.Mutex
	Submitted  []string // order ids
	SubmitFunc func(orderID, authToken, netCancelURL string) error
}

func (m *MockCancelQueue) SubmitCancel(orderID, authToken, netCancelURL string) error {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(orderID, authToken, netCancelURL)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Submitted = append(m.Submitted, orderID)
	return nil
}

// ---- Replay guard ----

type MockReplayGuard struct {
	mu   sync.Mutex
	seen map[string]bool
	Err  error
}

func NewMockReplayGuard() *MockReplayGuard { return &MockReplayGuard{seen: make(map[string]bool)} }

func (m *MockReplayGuard) FirstSeen(ctx context.Context, token string) (bool, error) {
	if m.Err != nil {
		return true, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen[token] {
		return false, nil
	}
	m.seen[token] = true
	return true, nil
}

// ---- Status cache ----

type MockStatusCache struct {
	mu          sync.Mutex
	store       map[string]*model.Subscription
	Invalidated []string
}

func NewMockStatusCache() *MockStatusCache {
	return &MockStatusCache{store: make(map[string]*model.Subscription)}
}

func (m *MockStatusCache) Get(ctx context.Context, userID string) (*model.Subscription, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[userID]
	if !ok {
		return nil, false
	}
	cp := *s
	return &cp, true
}

func (m *MockStatusCache) Put(ctx context.Context, s *model.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.store[s.UserID] = &cp
	return nil
}

func (m *MockStatusCache) Invalidate(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, userID)
	m.Invalidated = append(m.Invalidated, userID)
	return nil
}

// ---- In-memory verification repository ----

type MockVerificationRepo struct {
	mu       sync.RWMutex
	byUser   map[string]*model.VerificationResult
	SaveFunc func(ctx context.Context, tx repository.Tx, v *model.VerificationResult) error
}

func NewMockVerificationRepo() *MockVerificationRepo {
	return &MockVerificationRepo{byUser: make(map[string]*model.VerificationResult)}
}

var _ repository.VerificationRepository = (*MockVerificationRepo)(nil)

func (m *MockVerificationRepo) Save(ctx context.Context, tx repository.Tx, v *model.VerificationResult) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, v)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *v
	m.byUser[v.UserID] = &cp
	return nil
}

func (m *MockVerificationRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.VerificationResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.byUser[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *MockVerificationRepo) FindByDI(ctx context.Context, tx repository.Tx, di string) (*model.VerificationResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, v := range m.byUser {
		if v.DI == di {
			cp := *v
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockVerificationRepo) FindByCI(ctx context.Context, tx repository.Tx, ci string) (*model.VerificationResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, v := range m.byUser {
		if v.CI == ci {
			cp := *v
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ---- Identity provider ----

type MockIdentityProvider struct {
	BuildRequestFunc func(flavor model.VerifyFlavor, userID string) (*model.VerifyRequest, error)
	DecodeResultFunc func(cb *model.VerifyCallback) (*model.VerificationResult, error)
}

var _ adapter.IdentityProvider = (*MockIdentityProvider)(nil)

func (m *MockIdentityProvider) BuildRequest(flavor model.VerifyFlavor, userID string) (*model.VerifyRequest, error) {
	if m.BuildRequestFunc != nil {
		return m.BuildRequestFunc(flavor, userID)
	}
	return &model.VerifyRequest{
		Flavor:      flavor,
		MerchantID:  "MIDtest01",
		MTxID:       "20250101120000ABCDEF",
		ServiceCode: "01001",
		AuthHash:    "hash",
	}, nil
}

func (m *MockIdentityProvider) DecodeResult(cb *model.VerifyCallback) (*model.VerificationResult, error) {
	if m.DecodeResultFunc != nil {
		return m.DecodeResultFunc(cb)
	}
	return &model.VerificationResult{
		UserName: "홍길동",
		DI:       "di-default",
		CI:       "ci-default",
		MTxID:    cb.MTxID,
	}, nil
}
