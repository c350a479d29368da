package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"counseling-platform/internal/usecase"
)

type Server struct {
	orderUC   usecase.OrderService
	webhookUC usecase.WebhookService
	invoiceUC usecase.InvoiceService
	adminUC   usecase.AdminService
	auth      *AuthManager
	log       *zerolog.Logger
}

func NewServer(
	orderUC usecase.OrderService,
	webhookUC usecase.WebhookService,
	invoiceUC usecase.InvoiceService,
	adminUC usecase.AdminService,
	auth *AuthManager,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		orderUC:   orderUC,
		webhookUC: webhookUC,
		invoiceUC: invoiceUC,
		adminUC:   adminUC,
		auth:      auth,
		log:       logger,
	}
}

// Router builds the full route tree. requestTimeout bounds every handler via
// the request context; the webhook handler shares it, which is fine because
// the gateway redelivers on timeout.
func (s *Server) Router(requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/payments", func(r chi.Router) {
		// Webhook deliveries authenticate with the body signature, not a user
		// token.
		r.Post("/webhook", s.handleWebhook)

		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)
			r.Post("/order", s.handleCreateOrder)
			r.Post("/verify", s.handleVerifyPayment)
			r.Get("/invoice/{paymentID}", s.handleInvoice)
		})
	})

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(s.requireUser, s.requireAdmin)
		r.Get("/payments", s.handleAdminPayments)
		r.Get("/revenue", s.handleAdminRevenue)
	})

	return Chain(r, Recover(s.log), TraceID(), RequestLog(s.log), Timeout(requestTimeout))
}
