package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"counseling-platform/internal/domain"
	"counseling-platform/internal/domain/ports/adapter"
)

const defaultBaseURL = "https://api.razorpay.com/v1"

// RazorpayGateway implements adapter.PaymentGateway using direct HTTP calls
// against the Razorpay REST API with basic auth.
type RazorpayGateway struct {
	keyID     string
	keySecret string
	baseURL   string
	client    *http.Client
}

// NewRazorpayGateway creates a gateway client with a bounded request
// timeout. baseURL is overridable for tests; pass "" for production.
func NewRazorpayGateway(keyID, keySecret, baseURL string, timeout time.Duration) *RazorpayGateway {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RazorpayGateway{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: timeout},
	}
}

func (g *RazorpayGateway) Name() string { return "razorpay" }

// razorpayOrderResponse represents the response from the order creation API.
type razorpayOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// razorpayPaymentResponse represents one payment entity.
type razorpayPaymentResponse struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type razorpayErrorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder implements adapter.PaymentGateway.CreateOrder.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (string, error) {
	requestData := map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}
	if notes != nil {
		requestData["notes"] = notes
	}

	var order razorpayOrderResponse
	if err := g.do(ctx, http.MethodPost, "/orders", requestData, &order); err != nil {
		return "", err
	}
	if order.ID == "" {
		return "", fmt.Errorf("razorpay order response missing id: %w", domain.ErrGatewayUnavailable)
	}
	return order.ID, nil
}

// FetchPayment implements adapter.PaymentGateway.FetchPayment.
func (g *RazorpayGateway) FetchPayment(ctx context.Context, paymentID string) (*adapter.GatewayPayment, error) {
	var p razorpayPaymentResponse
	if err := g.do(ctx, http.MethodGet, "/payments/"+paymentID, nil, &p); err != nil {
		return nil, err
	}
	return mapPayment(&p), nil
}

// FetchOrderPayments implements adapter.PaymentGateway.FetchOrderPayments.
func (g *RazorpayGateway) FetchOrderPayments(ctx context.Context, orderID string) ([]*adapter.GatewayPayment, error) {
	var list struct {
		Count int                        `json:"count"`
		Items []*razorpayPaymentResponse `json:"items"`
	}
	if err := g.do(ctx, http.MethodGet, "/orders/"+orderID+"/payments", nil, &list); err != nil {
		return nil, err
	}
	out := make([]*adapter.GatewayPayment, 0, len(list.Items))
	for _, p := range list.Items {
		out = append(out, mapPayment(p))
	}
	return out, nil
}

func mapPayment(p *razorpayPaymentResponse) *adapter.GatewayPayment {
	status := adapter.GatewayPaymentPending
	switch p.Status {
	case "captured":
		status = adapter.GatewayPaymentCaptured
	case "failed":
		status = adapter.GatewayPaymentFailed
	}
	return &adapter.GatewayPayment{
		ID:       p.ID,
		OrderID:  p.OrderID,
		Status:   status,
		Amount:   p.Amount,
		Currency: p.Currency,
	}
}

func (g *RazorpayGateway) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request data: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(g.keyID, g.keySecret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		// Transport failure or timeout: the caller must not mutate local
		// state on this path.
		return fmt.Errorf("razorpay %s %s: %v: %w", method, path, err, domain.ErrGatewayUnavailable)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", domain.ErrGatewayUnavailable)
	}

	if resp.StatusCode >= 500 {
		return fmt.Errorf("razorpay %s %s: status %d: %w", method, path, resp.StatusCode, domain.ErrGatewayUnavailable)
	}
	if resp.StatusCode >= 400 {
		var apiErr razorpayErrorResponse
		_ = json.Unmarshal(raw, &apiErr)
		return fmt.Errorf("razorpay error: code %s, description: %s", apiErr.Error.Code, apiErr.Error.Description)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w, body: %s", err, string(raw))
	}
	return nil
}
