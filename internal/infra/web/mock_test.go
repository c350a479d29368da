//go:build !integration

package web

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"counseling-platform/internal/domain/model"
	"counseling-platform/internal/usecase"
)

// --- Mock Services ---

type mockOrderService struct {
	CreateOrderFn   func(ctx context.Context, userID, planID, couponCode string) (*usecase.OrderDetails, error)
	VerifyPaymentFn func(ctx context.Context, orderID, paymentID, signatureHex string) (model.TransitionResult, error)
}

func (m *mockOrderService) CreateOrder(ctx context.Context, userID, planID, couponCode string) (*usecase.OrderDetails, error) {
	return m.CreateOrderFn(ctx, userID, planID, couponCode)
}

func (m *mockOrderService) VerifyPayment(ctx context.Context, orderID, paymentID, signatureHex string) (model.TransitionResult, error) {
	return m.VerifyPaymentFn(ctx, orderID, paymentID, signatureHex)
}

type mockWebhookService struct {
	HandleFn func(ctx context.Context, rawBody []byte, signatureHex string) (*usecase.WebhookResult, error)
}

func (m *mockWebhookService) Handle(ctx context.Context, rawBody []byte, signatureHex string) (*usecase.WebhookResult, error) {
	return m.HandleFn(ctx, rawBody, signatureHex)
}

type mockInvoiceService struct {
	ArtifactFn func(ctx context.Context, paymentID string) (*usecase.Invoice, error)
}

func (m *mockInvoiceService) Artifact(ctx context.Context, paymentID string) (*usecase.Invoice, error) {
	return m.ArtifactFn(ctx, paymentID)
}

type mockAdminService struct {
	ListPaymentsFn func(ctx context.Context) ([]*model.PurchaseRecord, error)
	RevenueFn      func(ctx context.Context) (int64, int64, int64, error)
}

func (m *mockAdminService) ListPayments(ctx context.Context) ([]*model.PurchaseRecord, error) {
	return m.ListPaymentsFn(ctx)
}

func (m *mockAdminService) Revenue(ctx context.Context) (int64, int64, int64, error) {
	return m.RevenueFn(ctx)
}

// --- Helpers ---

const testJWTSecret = "test-secret"

func newTestServer(order *mockOrderService, webhook *mockWebhookService, inv *mockInvoiceService, admin *mockAdminService) (http.Handler, *AuthManager) {
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	auth := NewAuthManager(testJWTSecret, time.Hour)
	srv := NewServer(order, webhook, inv, admin, auth, &logger)
	return srv.Router(5 * time.Second), auth
}
