package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"counseling-platform/internal/domain"
	"counseling-platform/internal/domain/model"
	"counseling-platform/internal/infra/metrics"
)

// Deliveries larger than this are garbage, not webhooks.
const maxWebhookBody = 1 << 20

type orderCreateRequest struct {
	PlanID     string `json:"plan_id"`
	CouponCode string `json:"coupon_code"`
}

type orderCreateResponse struct {
	PurchaseID string `json:"purchase_id"`
	OrderID    string `json:"order_id"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	PlanTitle  string `json:"plan_title"`
	Reused     bool   `json:"reused"`
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	var req orderCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PlanID == "" {
		respondError(w, http.StatusBadRequest, "plan_id is required")
		return
	}

	details, err := s.orderUC.CreateOrder(r.Context(), claims.Subject, req.PlanID, req.CouponCode)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if !details.Reused {
		metrics.IncPayment("created")
	}

	respondJSON(w, http.StatusCreated, orderCreateResponse{
		PurchaseID: details.PurchaseID,
		OrderID:    details.OrderID,
		Amount:     details.Amount,
		Currency:   details.Currency,
		PlanTitle:  details.PlanTitle,
		Reused:     details.Reused,
	})
}

// verifyRequest carries the checkout callback fields exactly as the gateway
// names them.
type verifyRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

func (s *Server) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.PaymentVerifyRequests.WithLabelValues("fail", "bad_json").Inc()
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.orderUC.VerifyPayment(r.Context(), req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		metrics.PaymentVerifyRequests.WithLabelValues("fail", verifyFailReason(err)).Inc()
		metrics.PaymentVerifyDuration.WithLabelValues("fail").Observe(time.Since(start).Seconds())
		respondDomainError(w, err)
		return
	}
	if res == model.TransitionApplied {
		metrics.IncPayment("paid")
	}
	metrics.PaymentVerifyRequests.WithLabelValues("ok", "").Inc()
	metrics.PaymentVerifyDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())

	respondJSON(w, http.StatusOK, struct {
		Status     string `json:"status"`
		Transition string `json:"transition"`
	}{Status: "ok", Transition: string(res)})
}

func verifyFailReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidSignature):
		return "bad_signature"
	case errors.Is(err, domain.ErrUnknownOrder):
		return "unknown_order"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrGatewayUnavailable):
		return "gateway_error"
	case errors.Is(err, domain.ErrValidation):
		return "bad_json"
	default:
		return "unknown"
	}
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	sig := r.Header.Get("X-Razorpay-Signature")

	res, err := s.webhookUC.Handle(r.Context(), body, sig)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidSignature):
			metrics.IncWebhookEvent("unknown", "rejected")
			respondError(w, http.StatusBadRequest, "invalid signature")
		case errors.Is(err, domain.ErrValidation):
			metrics.IncWebhookEvent("unknown", "rejected")
			respondError(w, http.StatusBadRequest, "invalid payload")
		case errors.Is(err, domain.ErrConflict):
			// Permanent disagreement: acknowledged so the gateway stops
			// redelivering an event that can never apply.
			metrics.IncWebhookEvent("unknown", "conflict")
			metrics.IncLedgerConflict()
			respondJSON(w, http.StatusOK, struct {
				Status string `json:"status"`
			}{Status: "conflict"})
		default:
			// Transient: a non-2xx asks the gateway to redeliver.
			metrics.IncWebhookEvent("unknown", "error")
			respondDomainError(w, err)
		}
		return
	}

	metrics.IncWebhookEvent(string(res.Event), string(res.Transition))
	if res.Transition == model.TransitionApplied {
		if outcome, ok := res.Event.Outcome(); ok && outcome == model.OutcomePaid {
			metrics.IncPayment("paid")
			metrics.AddPaymentRevenue("INR", res.Amount)
		} else if ok {
			metrics.IncPayment("failed")
		}
	}

	respondJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
	}{Status: "ok"})
}

func (s *Server) handleInvoice(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	paymentID := chi.URLParam(r, "paymentID")

	inv, err := s.invoiceUC.Artifact(r.Context(), paymentID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if inv.OwnerID != claims.Subject && claims.Role != RoleAdmin {
		// 404, not 403: existence of another user's payment is not disclosed.
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	w.Header().Set("Content-Type", inv.ContentType)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(inv.Body)
}

func (s *Server) handleAdminPayments(w http.ResponseWriter, r *http.Request) {
	records, err := s.adminUC.ListPayments(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, struct {
		Data []*model.PurchaseRecord `json:"data"`
	}{Data: records})
}

func (s *Server) handleAdminRevenue(w http.ResponseWriter, r *http.Request) {
	week, month, year, err := s.adminUC.Revenue(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, struct {
		Week  int64 `json:"week"`
		Month int64 `json:"month"`
		Year  int64 `json:"year"`
	}{Week: week, Month: month, Year: year})
}
