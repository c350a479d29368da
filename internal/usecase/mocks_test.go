//go:build !integration

package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"counseling-platform/internal/domain"
	"counseling-platform/internal/domain/model"
	"counseling-platform/internal/domain/ports/adapter"
	"counseling-platform/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// --- Transaction manager ---

// memTxManager runs the function directly; the in-memory repositories are
// individually atomic under their own mutexes.
type memTxManager struct{}

func (m *memTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

// --- Purchase repository ---

// memPurchaseRepo mirrors the conditional-update semantics of the real
// repository: MarkIfCreated is atomic under the mutex, Save enforces the
// one-open-order partial index.
type memPurchaseRepo struct {
	mu      sync.Mutex
	byOrder map[string]*model.Purchase
}

func newMemPurchaseRepo() *memPurchaseRepo {
	return &memPurchaseRepo{byOrder: make(map[string]*model.Purchase)}
}

var _ repository.PurchaseRepository = (*memPurchaseRepo)(nil)

func clonePurchase(p *model.Purchase) *model.Purchase {
	cp := *p
	if p.PaymentID != nil {
		pid := *p.PaymentID
		cp.PaymentID = &pid
	}
	if p.CouponUsed != nil {
		c := *p.CouponUsed
		cp.CouponUsed = &c
	}
	return &cp
}

func (m *memPurchaseRepo) Save(_ context.Context, _ repository.Tx, p *model.Purchase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byOrder[p.OrderID]; ok {
		return domain.ErrAlreadyExists
	}
	for _, existing := range m.byOrder {
		if existing.UserID == p.UserID && existing.PlanID == p.PlanID && existing.Status != model.PurchaseStatusFailed {
			return domain.ErrAlreadyExists
		}
	}
	m.byOrder[p.OrderID] = clonePurchase(p)
	return nil
}

func (m *memPurchaseRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.byOrder {
		if p.ID == id {
			return clonePurchase(p), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memPurchaseRepo) FindByOrderID(_ context.Context, _ repository.Tx, orderID string) (*model.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byOrder[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clonePurchase(p), nil
}

func (m *memPurchaseRepo) FindByPaymentID(_ context.Context, _ repository.Tx, paymentID string) (*model.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.byOrder {
		if p.PaymentID != nil && *p.PaymentID == paymentID {
			return clonePurchase(p), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memPurchaseRepo) FindOpenByUserAndPlan(_ context.Context, _ repository.Tx, userID, planID string) (*model.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.byOrder {
		if p.UserID == userID && p.PlanID == planID && p.Status != model.PurchaseStatusFailed {
			return clonePurchase(p), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memPurchaseRepo) MarkIfCreated(_ context.Context, _ repository.Tx, orderID string, status model.PurchaseStatus, paymentID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byOrder[orderID]
	if !ok {
		return false, nil
	}
	if p.Status != model.PurchaseStatusCreated {
		return false, nil
	}
	p.Status = status
	p.PaymentID = &paymentID
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *memPurchaseRepo) ListCreatedOlderThan(_ context.Context, _ repository.Tx, olderThan time.Time, limit int) ([]*model.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Purchase
	for _, p := range m.byOrder {
		if p.Status == model.PurchaseStatusCreated && p.CreatedAt.Before(olderThan) {
			out = append(out, clonePurchase(p))
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memPurchaseRepo) ListWithUsers(_ context.Context, _ repository.Tx) ([]*model.PurchaseRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.PurchaseRecord
	for _, p := range m.byOrder {
		out = append(out, &model.PurchaseRecord{Purchase: *clonePurchase(p)})
	}
	return out, nil
}

func (m *memPurchaseRepo) SumPaidByPeriod(_ context.Context, _ repository.Tx, _ string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, p := range m.byOrder {
		if p.Status == model.PurchaseStatusPaid {
			sum += p.Amount
		}
	}
	return sum, nil
}

// --- User repository ---

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User

	premiumGrants    int // times GrantPremium actually applied
	counselingGrants int // times GrantCounselingPlan actually applied
}

func newMemUserRepo(users ...*model.User) *memUserRepo {
	m := &memUserRepo{users: make(map[string]*model.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

var _ repository.UserRepository = (*memUserRepo)(nil)

func (m *memUserRepo) Save(_ context.Context, _ repository.Tx, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	return nil
}

func (m *memUserRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (m *memUserRepo) FindByEmail(_ context.Context, _ repository.Tx, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) GrantPremium(_ context.Context, _ repository.Tx, userID string, since time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return false, domain.ErrNotFound
	}
	if u.Premium {
		return false, nil
	}
	u.Premium = true
	u.PremiumSince = &since
	m.premiumGrants++
	return true, nil
}

func (m *memUserRepo) GrantCounselingPlan(_ context.Context, _ repository.Tx, userID, key string, grant model.CounselingGrant) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return false, domain.ErrNotFound
	}
	if u.CounselingPlans == nil {
		u.CounselingPlans = map[string]model.CounselingGrant{}
	}
	if existing, ok := u.CounselingPlans[key]; ok && existing.PaymentID == grant.PaymentID {
		return false, nil
	}
	u.CounselingPlans[key] = grant
	m.counselingGrants++
	return true, nil
}

// --- Plan and coupon repositories ---

type memPlanRepo struct {
	mu    sync.Mutex
	plans map[string]*model.Plan
}

func newMemPlanRepo(plans ...*model.Plan) *memPlanRepo {
	m := &memPlanRepo{plans: make(map[string]*model.Plan)}
	for _, p := range plans {
		m.plans[p.ID] = p
	}
	return m
}

var _ repository.PlanRepository = (*memPlanRepo)(nil)

func (m *memPlanRepo) Save(_ context.Context, _ repository.Tx, p *model.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[p.ID] = p
	return nil
}

func (m *memPlanRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (m *memPlanRepo) List(_ context.Context, _ repository.Tx) ([]*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Plan, 0, len(m.plans))
	for _, p := range m.plans {
		out = append(out, p)
	}
	return out, nil
}

type memCouponRepo struct {
	mu      sync.Mutex
	coupons map[string]*model.Coupon
}

func newMemCouponRepo(coupons ...*model.Coupon) *memCouponRepo {
	m := &memCouponRepo{coupons: make(map[string]*model.Coupon)}
	for _, c := range coupons {
		m.coupons[c.Code] = c
	}
	return m
}

var _ repository.CouponRepository = (*memCouponRepo)(nil)

func (m *memCouponRepo) Save(_ context.Context, _ repository.Tx, c *model.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coupons[c.Code] = c
	return nil
}

func (m *memCouponRepo) FindByCode(_ context.Context, _ repository.Tx, code string) (*model.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.coupons[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

// --- Gateway adapter ---

type memGateway struct {
	mu            sync.Mutex
	nextOrder     int
	createErr     error
	createdOrders []createdOrder
	payments      map[string]*adapter.GatewayPayment
	orderPayments map[string][]*adapter.GatewayPayment
}

type createdOrder struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]string
}

func newMemGateway() *memGateway {
	return &memGateway{
		payments:      make(map[string]*adapter.GatewayPayment),
		orderPayments: make(map[string][]*adapter.GatewayPayment),
	}
}

var _ adapter.PaymentGateway = (*memGateway)(nil)

func (m *memGateway) Name() string { return "mem" }

func (m *memGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string, notes map[string]string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return "", m.createErr
	}
	m.nextOrder++
	m.createdOrders = append(m.createdOrders, createdOrder{Amount: amount, Currency: currency, Receipt: receipt, Notes: notes})
	return fmt.Sprintf("order_%d", m.nextOrder), nil
}

func (m *memGateway) addPayment(p *adapter.GatewayPayment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[p.ID] = p
	m.orderPayments[p.OrderID] = append(m.orderPayments[p.OrderID], p)
}

func (m *memGateway) FetchPayment(_ context.Context, paymentID string) (*adapter.GatewayPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[paymentID]
	if !ok {
		return nil, domain.ErrGatewayUnavailable
	}
	return p, nil
}

func (m *memGateway) FetchOrderPayments(_ context.Context, orderID string) ([]*adapter.GatewayPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orderPayments[orderID], nil
}

// --- Signature verifier ---

type memVerifier struct {
	orderOK   bool
	webhookOK bool
}

var _ adapter.SignatureVerifier = (*memVerifier)(nil)

func (m *memVerifier) VerifyOrder(_, _, _ string) bool { return m.orderOK }

func (m *memVerifier) VerifyWebhook(_ []byte, _ string) bool { return m.webhookOK }

// --- Invoice collaborators ---

type memGenerator struct {
	renders int
	err     error
}

var _ adapter.InvoiceGenerator = (*memGenerator)(nil)

func (m *memGenerator) Render(_ context.Context, data adapter.InvoiceData) ([]byte, string, error) {
	if m.err != nil {
		return nil, "", m.err
	}
	m.renders++
	return []byte("invoice for " + data.PaymentID), "text/html; charset=utf-8", nil
}

type memArtifactCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemArtifactCache() *memArtifactCache {
	return &memArtifactCache{items: make(map[string][]byte)}
}

var _ adapter.ArtifactCache = (*memArtifactCache)(nil)

func (m *memArtifactCache) Get(_ context.Context, paymentID string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.items[paymentID]
	return b, ok
}

func (m *memArtifactCache) Set(_ context.Context, paymentID string, body []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[paymentID] = body
}
